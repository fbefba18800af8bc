package nodeinfo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Schema versions.
const (
	Version1_0 = "1.0"
	Version1_1 = "1.1"
	Version2_0 = "2.0"
	Version2_1 = "2.1"
)

var (
	// ErrUnknownVersion is returned for a version tag outside 1.0–2.1.
	ErrUnknownVersion = errors.New("unknown nodeinfo version")
	// ErrMissingVersion is returned when a document has no version field.
	ErrMissingVersion = errors.New("nodeinfo document has no version")
	// ErrMissingField is returned when a document lacks a field its version
	// requires.
	ErrMissingField = errors.New("nodeinfo document is missing a required field")
)

// Dotted paths every version requires. A null value counts as missing.
var commonFields = []string{
	"software.name",
	"software.version",
	"services.inbound",
	"services.outbound",
	"openRegistrations",
	"usage.users",
	"metadata",
}

var requiredFields = map[string][]string{
	Version1_0: append([]string{"protocols.inbound", "protocols.outbound"}, commonFields...),
	Version1_1: append([]string{"protocols.inbound", "protocols.outbound"}, commonFields...),
	Version2_0: append([]string{"protocols"}, commonFields...),
	Version2_1: append([]string{"protocols"}, commonFields...),
}

// NodeInfo holds exactly one versioned document. The version field on the
// wire selects which one.
type NodeInfo struct {
	V1_0 *V1_0
	V1_1 *V1_1
	V2_0 *V2_0
	V2_1 *V2_1
}

// Version returns the schema version of the held document.
func (n NodeInfo) Version() string {
	switch {
	case n.V1_0 != nil:
		return Version1_0
	case n.V1_1 != nil:
		return Version1_1
	case n.V2_0 != nil:
		return Version2_0
	case n.V2_1 != nil:
		return Version2_1
	}
	return ""
}

func (n NodeInfo) body() any {
	switch {
	case n.V1_0 != nil:
		return n.V1_0
	case n.V1_1 != nil:
		return n.V1_1
	case n.V2_0 != nil:
		return n.V2_0
	case n.V2_1 != nil:
		return n.V2_1
	}
	return nil
}

// MarshalJSON writes the held document with its version field.
func (n NodeInfo) MarshalJSON() ([]byte, error) {
	body := n.body()
	if body == nil {
		return nil, ErrMissingVersion
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["version"], _ = json.Marshal(n.Version())
	return json.Marshal(fields)
}

// UnmarshalJSON reads the version field and decodes the rest of the
// document as that version.
func (n *NodeInfo) UnmarshalJSON(data []byte) error {
	var tag struct {
		Version *string `json:"version"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag.Version == nil {
		return ErrMissingVersion
	}

	var (
		doc NodeInfo
		err error
	)
	switch *tag.Version {
	case Version1_0:
		doc.V1_0 = new(V1_0)
		err = json.Unmarshal(data, doc.V1_0)
	case Version1_1:
		doc.V1_1 = new(V1_1)
		err = json.Unmarshal(data, doc.V1_1)
	case Version2_0:
		doc.V2_0 = new(V2_0)
		err = json.Unmarshal(data, doc.V2_0)
	case Version2_1:
		doc.V2_1 = new(V2_1)
		err = json.Unmarshal(data, doc.V2_1)
	default:
		return fmt.Errorf("%q: %w", *tag.Version, ErrUnknownVersion)
	}
	if err != nil {
		return err
	}
	if err := requireFields(data, requiredFields[*tag.Version]); err != nil {
		return fmt.Errorf("nodeinfo %s: %w", *tag.Version, err)
	}
	*n = doc
	return nil
}

func requireFields(data []byte, paths []string) error {
	for _, path := range paths {
		if !hasField(data, strings.Split(path, ".")) {
			return fmt.Errorf("%s: %w", path, ErrMissingField)
		}
	}
	return nil
}

func hasField(data []byte, path []string) bool {
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return false
		}
		v, ok := obj[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return false
		}
		data = v
	}
	return true
}
