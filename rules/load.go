package rules

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadFile reads a YAML rule set. The file fully defines the set; only
// default_occasion falls back to "casual" when omitted.
//
//	pairings:
//	  - top: T-Shirt
//	    bottoms: [Shorts, Pants]
//	weather:
//	  hot: [T-Shirt, Shorts]
//	occasions:
//	  casual: {style: [T-Shirt, Jeans], comfort: high}
//	fallback_bottoms: [Pants, Jeans, Shorts]
func LoadFile(path string) (*RuleSet, error) {
	// "::" keeps category names containing dots intact
	k := koanf.New("::")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("rules: load %s: %w", path, err)
	}
	var def Definition
	if err := k.UnmarshalWithConf("", &def, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("rules: decode %s: %w", path, err)
	}
	return New(def)
}
