package webmodel

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoMatchingElement is returned when a list holds no element of the wanted type.
var ErrNoMatchingElement = errors.New("could not find item in list")

// ListContaining is a JSON array that is expected to hold at least one string
// element parsing as T. Only the first such element is kept; objects and
// non-matching strings are skipped.
type ListContaining[T encoding.TextMarshaler] struct {
	Value T
}

// MarshalJSON writes the kept element as a one-element array.
func (l ListContaining[T]) MarshalJSON() ([]byte, error) {
	text, err := l.Value.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal([]string{string(text)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *ListContaining[T]) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected list: %w", err)
	}
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		var v T
		u, ok := any(&v).(encoding.TextUnmarshaler)
		if !ok {
			return fmt.Errorf("%T cannot be parsed from a string", v)
		}
		if err := u.UnmarshalText([]byte(s)); err != nil {
			continue
		}
		l.Value = v
		return nil
	}
	return ErrNoMatchingElement
}
