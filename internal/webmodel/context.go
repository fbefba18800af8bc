package webmodel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownContext is returned when an @context value matches none of the
// accepted shapes.
var ErrUnknownContext = errors.New("no known @context shape matched")

// ContextKind selects the wire shape of a Context.
type ContextKind int

// Context shapes, in the order they are tried when decoding.
const (
	// ContextString is a bare vocabulary URI.
	ContextString ContextKind = iota
	// ContextObject is an object whose @vocab names the vocabulary.
	ContextObject
	// ContextList is an array holding the vocabulary URI among other entries.
	ContextList
)

// Context is a JSON-LD @context that resolves to the ActivityStreams
// vocabulary. The zero value is the bare string form.
type Context struct {
	Kind ContextKind
}

type contextObject struct {
	Vocab *ContextActivityStreams `json:"@vocab"`
}

// MarshalJSON writes the canonical form of the context's shape.
func (c Context) MarshalJSON() ([]byte, error) {
	var marker ContextActivityStreams
	switch c.Kind {
	case ContextString:
		return json.Marshal(marker)
	case ContextObject:
		return json.Marshal(contextObject{Vocab: &marker})
	case ContextList:
		return json.Marshal(ListContaining[ContextActivityStreams]{Value: marker})
	default:
		return nil, fmt.Errorf("context kind %d: %w", c.Kind, ErrUnknownContext)
	}
}

// UnmarshalJSON tries the string, object and list shapes in that order.
func (c *Context) UnmarshalJSON(data []byte) error {
	var marker ContextActivityStreams
	if err := json.Unmarshal(data, &marker); err == nil {
		c.Kind = ContextString
		return nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj contextObject
		if err := json.Unmarshal(data, &obj); err == nil && obj.Vocab != nil {
			c.Kind = ContextObject
			return nil
		}
	}

	var list ListContaining[ContextActivityStreams]
	if err := json.Unmarshal(data, &list); err == nil {
		c.Kind = ContextList
		return nil
	}

	return ErrUnknownContext
}
