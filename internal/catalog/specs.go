package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SpecEntry is one specification row (e.g. "Caliber" -> "9mm").
type SpecEntry struct {
	Name  string
	Value string
}

// Specs is an ordered name/value mapping. It marshals to a plain JSON object
// and keeps the key order of the stored document, so specification rows render
// in the order the admin entered them.
type Specs []SpecEntry

func (s Specs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Specs) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("specifications: expected object, got %v", tok)
	}
	out := Specs{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("specifications: bad key %v", kt)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return err
		}
		out = append(out, SpecEntry{Name: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// Get returns the value for a name, for callers that do keyed lookups.
func (s Specs) Get(name string) (string, bool) {
	for _, e := range s {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}
