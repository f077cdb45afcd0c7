// Package id generates opaque identifiers for values that never live in the
// relational store, such as token IDs and request correlation IDs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used across the service.
const (
	PrefixToken   = "tok"
	PrefixRequest = "req"
)

// Generate returns prefix + "_" + a 21 character NanoID.
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "_" + n, nil
}

// TokenID returns a new ID for the jti claim of an access token.
func TokenID() (string, error) {
	return Generate(PrefixToken)
}
