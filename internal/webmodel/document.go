package webmodel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const contextKey = "@context"

// ErrNotObject is returned when a document body is not a JSON object.
var ErrNotObject = errors.New("document is not a JSON object")

// Document is an ActivityStreams document: the fields of Data flattened
// beside an @context that defaults to the bare ActivityStreams URI.
type Document[T any] struct {
	Context Context
	Data    T
}

// MarshalJSON writes Data's fields with @context first.
func (d Document[T]) MarshalJSON() ([]byte, error) {
	ctx, err := json.Marshal(d.Context)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(d.Data)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("marshal %T: %w", d.Data, ErrNotObject)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"` + contextKey + `":`)
	buf.Write(ctx)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes @context separately from the data fields. A missing
// @context yields the default.
func (d *Document[T]) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %w", ErrNotObject, err)
	}

	d.Context = Context{}
	if raw, ok := fields[contextKey]; ok {
		if err := json.Unmarshal(raw, &d.Context); err != nil {
			return err
		}
	}

	return json.Unmarshal(data, &d.Data)
}
