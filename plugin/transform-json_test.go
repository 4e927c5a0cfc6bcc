package plugin_test

import (
	"testing"
	"time"

	Sp "github.com/maroda/scrollplot/plugin"
)

func TestNewJSONTransformer(t *testing.T) {
	t.Run("Returns JSON transformer", func(t *testing.T) {
		key := "NETWORK"
		newJSON := Sp.NewJSONTransformer(key)
		assertStringContains(t, newJSON.MetricKey, key)
	})
}

func TestJSONKeyPlugin(t *testing.T) {
	t.Run("HysteresisReq returns the correct value", func(t *testing.T) {
		plugin := Sp.JSONKeyPlugin{}
		assertInt(t, plugin.HysteresisReq(), 0)
	})

	t.Run("Type returns the correct value", func(t *testing.T) {
		plugin := Sp.JSONKeyPlugin{}
		assertStringContains(t, plugin.Type(), "json_key")
	})

	tests := []struct {
		name string
		key  string
		want float64
	}{
		{"Nested object key", "bitcoin.usd", 111580},
		{"Keeps the fraction", "ethereum.usd", 3955.02},
		{"Array index", "temps.1", -4.5},
		{"Numeric string", "load.avg", 0.75},
	}
	metric := `{"bitcoin":{"usd":111580},"ethereum":{"usd":3955.02},"temps":[12,-4.5],"load":{"avg":"0.75"}}`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := Sp.JSONKeyPlugin{MetricKey: tt.key}
			got, err := plugin.Transform(metric, 0, nil, time.Now())
			assertError(t, err, nil)
			assertFloat(t, got, tt.want)
		})
	}

	t.Run("Missing key is an error", func(t *testing.T) {
		plugin := Sp.JSONKeyPlugin{MetricKey: "bitcoin.eur"}
		_, err := plugin.Transform(metric, 0, nil, time.Now())
		assertGotError(t, err)
	})

	t.Run("Out of range index is an error", func(t *testing.T) {
		plugin := Sp.JSONKeyPlugin{MetricKey: "temps.7"}
		_, err := plugin.Transform(metric, 0, nil, time.Now())
		assertGotError(t, err)
	})

	t.Run("Object value is an error", func(t *testing.T) {
		plugin := Sp.JSONKeyPlugin{MetricKey: "bitcoin"}
		_, err := plugin.Transform(metric, 0, nil, time.Now())
		assertGotError(t, err)
	})

	t.Run("Bad JSON is an error", func(t *testing.T) {
		plugin := Sp.JSONKeyPlugin{MetricKey: "bitcoin.usd"}
		_, err := plugin.Transform(`{"bitcoin":`, 0, nil, time.Now())
		assertGotError(t, err)
	})
}
