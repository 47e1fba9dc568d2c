package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrMalformedDocument reports that the remote document could not be decoded
// into the expected store shape.
var ErrMalformedDocument = errors.New("malformed store document")

// Decode parses the raw document bytes into StoreData. The categories and
// weapons collections are required; settings may be absent and is left nil.
func Decode(raw []byte) (*StoreData, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: not valid UTF-8", ErrMalformedDocument)
	}
	var aux struct {
		Categories *[]Category `json:"categories"`
		Weapons    *[]Weapon   `json:"weapons"`
		Settings   *Settings   `json:"settings"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if aux.Categories == nil || aux.Weapons == nil {
		return nil, fmt.Errorf("%w: missing categories or weapons collection", ErrMalformedDocument)
	}
	return &StoreData{
		Categories: *aux.Categories,
		Weapons:    *aux.Weapons,
		Settings:   aux.Settings,
	}, nil
}

// Encode serializes StoreData to pretty-printed JSON. Stable two-space
// indentation keeps the document history in the remote store human-diffable.
func Encode(d *StoreData) ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return out, nil
}
