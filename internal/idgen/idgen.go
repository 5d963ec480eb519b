// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Record prefixes.
const (
	PrefixMenu     = "mn-"
	PrefixTemplate = "tt-"
	PrefixUser     = "us-"
	PrefixInstance = "hf-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters in a record ID (excluding the prefix).
var Length = 10

// TokenLength is the number of random characters in a session token.
var TokenLength = 40

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// MenuID returns a new menu item ID.
func MenuID() (string, error) { return GenerateWithPrefix(PrefixMenu) }

// TemplateID returns a new timing template ID.
func TemplateID() (string, error) { return GenerateWithPrefix(PrefixTemplate) }

// UserID returns a new user ID.
func UserID() (string, error) { return GenerateWithPrefix(PrefixUser) }

// InstanceID identifies one running server process on the event bus.
func InstanceID() (string, error) { return GenerateWithPrefix(PrefixInstance) }

// Token returns an opaque bearer token for a login session.
func Token() (string, error) {
	tok, err := nanoid.Generate(Alphabet, TokenLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return tok, nil
}
