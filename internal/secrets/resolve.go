// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package secrets

import (
	"os"
	"strings"

	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// URI scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI extracts service and key from a keyring://service/key URI.
// Returns an error if the URI is malformed.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", bmerr.Errorf(bmerr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	path := strings.TrimPrefix(uri, keyringScheme)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", bmerr.Errorf(bmerr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}

	return parts[0], parts[1], nil
}

// ResolveKeyringURI resolves a single keyring:// URI to its secret value.
// Returns the original value unchanged if it is not a keyring URI.
func ResolveKeyringURI(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", bmerr.Wrapf(err, bmerr.CodeSecretResolveFailure,
			"resolving keyring URI %q", value)
	}

	return secret, nil
}

// ResolveGroqAPIKey returns the Groq API key from the first source that has
// one: the GROQ_API_KEY environment variable, then the config value. Config
// values that use the keyring:// scheme are resolved through the store.
// Returns an empty string without error when no key is configured anywhere.
func ResolveGroqAPIKey(store Store, configValue string) (string, error) {
	if env := os.Getenv("GROQ_API_KEY"); env != "" {
		return env, nil
	}
	if configValue == "" {
		return "", nil
	}
	return ResolveKeyringURI(store, configValue)
}
