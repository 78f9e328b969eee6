package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// decodeEnum decodes a scalar node into out, rejecting values outside valid.
// The error carries the line so a hand-edited file points at the mistake.
func decodeEnum[E ~string](node *yaml.Node, out *E, what string, valid []E) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	for _, v := range valid {
		if E(s) == v {
			*out = v
			return nil
		}
	}
	names := make([]string, len(valid))
	for i, v := range valid {
		names[i] = string(v)
	}
	return fmt.Errorf("line %d: invalid %s %q (valid: %s)", node.Line, what, s, strings.Join(names, ", "))
}

func isOneOf[E ~string](v E, valid []E) bool {
	for _, x := range valid {
		if v == x {
			return true
		}
	}
	return false
}
