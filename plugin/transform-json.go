package plugin

/*
	JSONKey

	Lets a feed point at any JSON document and plot one number from it.
	The /metric/ given to Transform is the entire JSON body and
	MetricKey is a dotted path to the value, e.g. "bitcoin.usd".
*/

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type JSONKeyPlugin struct {
	MetricKey string
}

// NewJSONTransformer returns a struct for what to search in the JSON
func NewJSONTransformer(mk string) *JSONKeyPlugin {
	return &JSONKeyPlugin{MetricKey: mk}
}

// Transform extracts the MetricKey path from the JSON held in metric
func (tj *JSONKeyPlugin) Transform(metric string, current float64, historical []float64, timestamp time.Time) (float64, error) {
	dec := json.NewDecoder(strings.NewReader(metric))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		slog.Error("Error unmarshalling json",
			slog.String("search", tj.MetricKey),
			slog.Any("error", err))
		return 0, fmt.Errorf("error unmarshalling json from metric: %w", err)
	}

	value, err := ExtractValue(data, tj.MetricKey)
	if err != nil {
		return 0, fmt.Errorf("error extracting json value from metric: %w", err)
	}

	return value, nil
}

// ExtractValue walks a dotted path through decoded JSON.
// Numeric path segments index into arrays.
func ExtractValue(data any, path string) (float64, error) {
	current := data

	for _, key := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			var ok bool
			current, ok = v[key]
			if !ok {
				return 0, fmt.Errorf("key %s not found", key)
			}
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(v) {
				return 0, fmt.Errorf("bad array index %s", key)
			}
			current = v[i]
		default:
			return 0, fmt.Errorf("cannot traverse into type %T at key %s", v, key)
		}
	}

	switch v := current.(type) {
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q not numeric: %w", v, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value not numeric, cannot use %T", v)
	}
}

func (tj *JSONKeyPlugin) HysteresisReq() int { return 0 }
func (tj *JSONKeyPlugin) Type() string       { return "json_key" }
