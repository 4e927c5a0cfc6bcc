package plugin

import (
	"fmt"
	"strings"
)

// Transformers is a global map of MetricTransformer plugins.
// Factories take the transformer argument from the feed config,
// everything after the first ':' in e.g. "json_key:bitcoin.usd".
var Transformers = map[string]func(arg string) (MetricTransformer, error){
	"calc_rate": func(string) (MetricTransformer, error) {
		return &CalcRatePlugin{}, nil
	},
	"json_key": func(arg string) (MetricTransformer, error) {
		if arg == "" {
			return nil, fmt.Errorf("json_key needs a key path")
		}
		return NewJSONTransformer(arg), nil
	},
}

func TransformerLookup(ref string) (MetricTransformer, error) {
	name, arg, _ := strings.Cut(ref, ":")
	factory, ok := Transformers[name]
	if !ok {
		return nil, fmt.Errorf("unknown transformer: %s", name)
	}
	return factory(arg)
}
