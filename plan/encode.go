package plan

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/seqkit/errors"
)

// Encode writes p in the given format, "toml" or "yaml". Unset optional
// fields are omitted, so the output is the plan in normalized form.
func Encode(p *Plan, format string) ([]byte, error) {
	switch format {
	case "toml":
		data, err := toml.Marshal(p)
		if err != nil {
			return nil, errors.Internal(fmt.Errorf("encoding plan %s as toml: %w", p.Name, err))
		}
		return data, nil
	case "yaml", "yml":
		data, err := yaml.Marshal(p)
		if err != nil {
			return nil, errors.Internal(fmt.Errorf("encoding plan %s as yaml: %w", p.Name, err))
		}
		return data, nil
	default:
		return nil, errors.InvalidArgument("format", fmt.Sprintf("unsupported output format %q", format))
	}
}
