package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// expandEnv substitutes ${VAR} and $VAR references. Referencing a variable
// that is not set is an error, set but empty variables expand to "".
func expandEnv(blob []byte) ([]byte, error) {
	missing := make(map[string]struct{})
	expanded := os.Expand(string(blob), func(name string) string {
		val, ok := os.LookupEnv(name)
		if !ok {
			missing[name] = struct{}{}
		}
		return val
	})
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("undefined environment variables %s: %w", strings.Join(names, ", "), ErrInvalidConfig)
	}
	return []byte(expanded), nil
}

func parseYaml(out interface{}, blob []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(blob))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("can't parse yaml: %w", err)
	}
	return nil
}
