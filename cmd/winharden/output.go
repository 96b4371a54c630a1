package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gobwas/glob"
	"github.com/lucid-vigil/winharden/pkg/cim"
	"gopkg.in/yaml.v3"
)

func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format %q (want json or yaml)", format)
}

// filterFields keeps the properties matching any of the glob patterns. No
// patterns keeps everything.
func filterFields(bag *cim.PropertyBag, patterns []string) (*cim.PropertyBag, error) {
	if len(patterns) == 0 {
		return bag, nil
	}
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid field pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return bag.Filter(func(name string) bool {
		for _, g := range globs {
			if g.Match(name) {
				return true
			}
		}
		return false
	}), nil
}
