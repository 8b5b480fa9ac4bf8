package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// every source is mirrored under its base name, so two sources may not share one
	_ = v.RegisterValidation("uniquebase", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Slice {
			return false
		}
		seen := make(map[string]bool, field.Len())
		for i := 0; i < field.Len(); i++ {
			base := filepath.Base(filepath.Clean(field.Index(i).String()))
			if seen[base] {
				return false
			}
			seen[base] = true
		}
		return true
	})
	v.RegisterStructValidation(rootOutsideSources, Config{})
	return v
}

// rootOutsideSources rejects a backups root at or below a source directory; every
// run would otherwise walk into its own staging directory.
func rootOutsideSources(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Destination.Root == "" {
		return
	}
	root, err := filepath.Abs(cfg.Destination.Root)
	if err != nil {
		return
	}
	for _, src := range cfg.Sources {
		dir, err := filepath.Abs(src)
		if err != nil || src == "" {
			continue
		}
		if isWithin(root, dir) {
			sl.ReportError(cfg.Destination.Root, "root", "Root", "outsidesources", src)
			return
		}
	}
}

// isWithin reports whether path is dir or lies below it.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

// Load reads a YAML config file over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
