package style

import (
	"strings"

	"ai-writing-be/pkg/citation"
)

// Supported style keys, in the order they are offered to users.
var supportedKeys = []string{
	"apa", "mla", "chicago", "harvard", "ieee",
	"vancouver", "ama", "acs", "asa", "nature",
}

var supported = func() map[string]bool {
	m := make(map[string]bool, len(supportedKeys))
	for _, k := range supportedKeys {
		m[k] = true
	}
	return m
}()

// Keys returns the supported style keys.
func Keys() []string {
	out := make([]string, len(supportedKeys))
	copy(out, supportedKeys)
	return out
}

// Normalize lower-cases key and checks it is supported.
func Normalize(key string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return "", &citation.ValidationError{Field: "style", Reason: "no style selected"}
	}
	if !supported[k] {
		return "", &citation.ValidationError{Field: "style", Reason: "unsupported style " + key}
	}
	return k, nil
}
