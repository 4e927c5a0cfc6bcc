package scrollplot

import (
	"cmp"
	"math"
	"slices"
	"strings"

	St "github.com/maroda/scrollplot/types"
)

// DataSeries is the time-ordered buffer of one named series.
// It carries a running min and max over everything it holds,
// kept up to date on insert, so scaling never has to scan the buffer.
type DataSeries struct {
	Name   string
	points []St.DataPoint

	hasExtremum bool
	min, max    float64
	minAt       int64 // timestamp of min
	maxAt       int64 // timestamp of max
}

func NewDataSeries(name string) *DataSeries {
	return &DataSeries{Name: name}
}

// seriesKey makes series names case-insensitive
func seriesKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// validValue rejects what must never reach scaling or alarm math
func validValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func byTimestamp(e St.DataPoint, ts int64) int {
	return cmp.Compare(e.Timestamp, ts)
}

// Insert places p in timestamp order. Late arrivals from a
// historical replay land where they belong; a point with a
// timestamp already present replaces the stored value.
func (ds *DataSeries) Insert(p St.DataPoint) {
	i, found := slices.BinarySearchFunc(ds.points, p.Timestamp, byTimestamp)
	if found {
		old := ds.points[i]
		ds.points[i] = p
		if ds.holdsExtremum(old) {
			ds.recompute()
			return
		}
	} else {
		ds.points = slices.Insert(ds.points, i, p)
	}
	ds.track(p)
}

func (ds *DataSeries) holdsExtremum(p St.DataPoint) bool {
	if !ds.hasExtremum || !validValue(p.Value) {
		return false
	}
	return (p.Timestamp == ds.minAt && p.Value == ds.min) ||
		(p.Timestamp == ds.maxAt && p.Value == ds.max)
}

// track folds one point into the running extremum.
// Ties move to the later timestamp so truncation rarely forces a rescan.
func (ds *DataSeries) track(p St.DataPoint) {
	if !validValue(p.Value) {
		return
	}
	if !ds.hasExtremum {
		ds.hasExtremum = true
		ds.min, ds.minAt = p.Value, p.Timestamp
		ds.max, ds.maxAt = p.Value, p.Timestamp
		return
	}
	if p.Value < ds.min || (p.Value == ds.min && p.Timestamp > ds.minAt) {
		ds.min, ds.minAt = p.Value, p.Timestamp
	}
	if p.Value > ds.max || (p.Value == ds.max && p.Timestamp > ds.maxAt) {
		ds.max, ds.maxAt = p.Value, p.Timestamp
	}
}

func (ds *DataSeries) recompute() {
	ds.hasExtremum = false
	for _, p := range ds.points {
		ds.track(p)
	}
}

// Truncate drops every point older than before and returns how many went.
// There is no way back; the caller re-requests data if it needs it.
func (ds *DataSeries) Truncate(before int64) int {
	idx, _ := slices.BinarySearchFunc(ds.points, before, byTimestamp)
	if idx == 0 {
		return 0
	}
	ds.points = append([]St.DataPoint(nil), ds.points[idx:]...)
	if ds.hasExtremum && (ds.minAt < before || ds.maxAt < before) {
		ds.recompute()
	}
	return idx
}

// RunningMin is the minimum over the whole buffer
func (ds *DataSeries) RunningMin() (float64, int64, bool) {
	return ds.min, ds.minAt, ds.hasExtremum
}

// RunningMax is the maximum over the whole buffer
func (ds *DataSeries) RunningMax() (float64, int64, bool) {
	return ds.max, ds.maxAt, ds.hasExtremum
}

// MaxValue scans [from,to]. The buffer is bounded by Compress,
// so a linear scan stays cheap.
func (ds *DataSeries) MaxValue(from, to int64) (float64, bool) {
	return ds.scan(from, to, true)
}

// MinValue scans [from,to]
func (ds *DataSeries) MinValue(from, to int64) (float64, bool) {
	return ds.scan(from, to, false)
}

func (ds *DataSeries) scan(from, to int64, wantMax bool) (float64, bool) {
	// whole buffer inside the range: the running value is the answer
	if ds.hasExtremum && len(ds.points) > 0 &&
		ds.points[0].Timestamp >= from && ds.points[len(ds.points)-1].Timestamp <= to {
		if wantMax {
			return ds.max, true
		}
		return ds.min, true
	}

	start, _ := slices.BinarySearchFunc(ds.points, from, byTimestamp)
	found := false
	var best float64
	for _, p := range ds.points[start:] {
		if p.Timestamp > to {
			break
		}
		if !validValue(p.Value) {
			continue
		}
		if !found || (wantMax && p.Value > best) || (!wantMax && p.Value < best) {
			best = p.Value
			found = true
		}
	}
	return best, found
}

// Between copies out the points in [from,to]
func (ds *DataSeries) Between(from, to int64) []St.DataPoint {
	start, _ := slices.BinarySearchFunc(ds.points, from, byTimestamp)
	end, found := slices.BinarySearchFunc(ds.points, to, byTimestamp)
	if found {
		end++
	}
	if start >= end {
		return nil
	}
	return slices.Clone(ds.points[start:end])
}

func (ds *DataSeries) Len() int { return len(ds.points) }

// Last is the most recent point by timestamp
func (ds *DataSeries) Last() (St.DataPoint, bool) {
	if len(ds.points) == 0 {
		return St.DataPoint{}, false
	}
	return ds.points[len(ds.points)-1], true
}

// Compress shrinks a buffer that has grown past capacity down to about
// half of it, keeping the low and high point of every bucket in time
// order plus the first and last point. Extremes survive, so the axis
// does not move because of it.
func (ds *DataSeries) Compress(capacity int) bool {
	n := len(ds.points)
	if capacity < 4 || n <= capacity {
		return false
	}

	buckets := capacity / 4
	size := float64(n) / float64(buckets)
	out := make([]St.DataPoint, 0, buckets*2+2)

	for b := 0; b < buckets; b++ {
		lo := int(float64(b) * size)
		hi := int(float64(b+1) * size)
		if b == buckets-1 {
			hi = n
		}
		if lo >= hi {
			continue
		}

		minI, maxI := -1, -1
		for i := lo; i < hi; i++ {
			v := ds.points[i].Value
			if !validValue(v) {
				continue
			}
			if minI < 0 || v < ds.points[minI].Value {
				minI = i
			}
			if maxI < 0 || v > ds.points[maxI].Value {
				maxI = i
			}
		}

		switch {
		case minI < 0:
			// nothing valid here, keep one marker so the gap still draws
			out = append(out, ds.points[lo])
		case minI == maxI:
			out = append(out, ds.points[minI])
		case minI < maxI:
			out = append(out, ds.points[minI], ds.points[maxI])
		default:
			out = append(out, ds.points[maxI], ds.points[minI])
		}
	}

	if out[0].Timestamp != ds.points[0].Timestamp {
		out = slices.Insert(out, 0, ds.points[0])
	}
	if out[len(out)-1].Timestamp != ds.points[n-1].Timestamp {
		out = append(out, ds.points[n-1])
	}

	ds.points = out
	ds.recompute()
	return true
}
