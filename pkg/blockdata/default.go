package blockdata

import _ "embed"

//go:embed default.yaml
var defaultPack []byte

// DefaultPackName is the name the embedded pack registers under.
const DefaultPackName = "default"

func init() {
	Register(DefaultPackName, func() (*Pack, error) {
		return Parse(defaultPack)
	})
}
