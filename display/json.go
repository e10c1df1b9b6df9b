// Package display formats command results for people and for machines.
package display

import (
	"encoding/json"
	"os"
)

// MarshalJSON marshals JSON compactly in CI, where output goes to log
// collectors, and indented everywhere else
func MarshalJSON(v interface{}) ([]byte, error) {
	if os.Getenv("CI") != "" {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
