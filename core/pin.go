package scrollplot

// Pin is one holder's claim on a Pinnable.
// Holders set and clear their own Pin and never touch anyone else's.
type Pin struct {
	pinned bool
}

func (p *Pin) SetPinned(b bool) { p.pinned = b }
func (p *Pin) IsPinned() bool   { return p.pinned }

// Pinnable is pinned while at least one of its pins is set.
// Automatic bound management leaves a pinned axis alone.
type Pinnable struct {
	pins []*Pin
}

// NewPin hands out a fresh, unset pin
func (p *Pinnable) NewPin() *Pin {
	pin := &Pin{}
	p.pins = append(p.pins, pin)
	return pin
}

func (p *Pinnable) IsPinned() bool {
	for _, pin := range p.pins {
		if pin.pinned {
			return true
		}
	}
	return false
}
