package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	// ErrRemoteUnavailable covers network failures and non-success responses
	// from the backing document store, on read or write.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrVersionConflict is returned when a conditional write loses against a
	// concurrent revision.
	ErrVersionConflict = errors.New("remote store version conflict")
)

// DocumentStore is the persistence contract for the whole-catalog document.
// The document is opaque bytes at this layer; the version token is the
// precondition for overwriting it.
type DocumentStore interface {
	// Fetch returns the current document bytes and its version token.
	Fetch(ctx context.Context) ([]byte, string, error)
	// Write overwrites the document given the prior version token and returns
	// the new token. A stale token yields ErrVersionConflict.
	Write(ctx context.Context, data []byte, version string) (string, error)
}

// contentVersion derives a content-addressed version token, mirroring the
// blob hash GitHub hands out for the real store file.
func contentVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
