package plugin

/*

	The Adapter sits aside /scrollplot/
	Contains core interfaces for Plugin

*/

import (
	"time"

	St "github.com/maroda/scrollplot/types"
)

// MetricTransformer turns a raw polled value into the value that is plotted.
// HysteresisReq is how many earlier measurements the calculation needs,
// for instance rates need 1, a simple pass-through 0.
type MetricTransformer interface {
	Transform(metric string, current float64, historical []float64, timestamp time.Time) (float64, error)
	HysteresisReq() int // Required measurements in the past needed for calculation
	Type() string       // Unique ID for the transformer
}

// PointStore is where plotted points go so that the plot can ask for
// them again after they were truncated or before they were live.
type PointStore interface {
	WritePoint(p St.SeriesPoint) error                     // Write a single point, may be buffered
	WriteBatch(points []St.SeriesPoint) error              // Write a batch of points
	QueryRange(start, end int64) ([]St.SeriesPoint, error) // Points with start <= ts <= end, in time order
	Flush() error                                          // Flush any buffered data
	Close() error                                          // Close the store and release resources
	Type() string                                          // ID for the store
}
