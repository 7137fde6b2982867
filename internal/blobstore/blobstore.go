// Package blobstore keeps recipe bodies and images outside the relational
// store under flat string keys.
package blobstore

import (
	"errors"
	"fmt"
	"strings"
)

// Errors shared by every backend.
var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

// BodyKey is the key of the body blob of recipe id.
func BodyKey(id int64) string {
	return fmt.Sprintf("recipe-%d.json", id)
}

// ImageKey is the key of an image blob identified by token.
func ImageKey(token string) string {
	return "image-" + token
}

func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
