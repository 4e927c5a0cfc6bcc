package plugin

/*
	CalcRate

	Turns a monotonically increasing counter into a per-second rate,
	so a series can plot requests/sec instead of a total.
*/

import (
	"time"
)

type CalcRatePlugin struct {
	PrevVal  map[string]float64
	PrevTime map[string]time.Time
}

// Transform is the main wrapper for the interface.
// Other calculation functions should be called from here.
func (p *CalcRatePlugin) Transform(metric string, current float64, historical []float64, timestamp time.Time) (float64, error) {
	if p.PrevVal == nil {
		p.PrevVal = make(map[string]float64)
		p.PrevTime = make(map[string]time.Time)
	}

	prev, exists := p.PrevVal[metric]
	prevTime := p.PrevTime[metric]
	p.PrevVal[metric] = current
	p.PrevTime[metric] = timestamp

	// At least 1 historical measurement needed
	if len(historical) < 1 || !exists {
		return 0, nil
	}

	return CalcRate(current, prev, timestamp, prevTime), nil
}

// CalcRate receives two sequential readings and their timestamps
// and returns the rate per second. A drop is a counter reset to 0,
// so everything counted since is the delta.
func CalcRate(curr, prev float64, currtime, prevtime time.Time) float64 {
	timeDelta := currtime.Sub(prevtime).Seconds()
	if timeDelta <= 0 {
		return 0
	}

	delta := curr - prev
	if delta < 0 {
		delta = curr
	}

	return delta / timeDelta
}

func (p *CalcRatePlugin) HysteresisReq() int { return 1 }
func (p *CalcRatePlugin) Type() string       { return "calc_rate" }
