// Package webmodel holds the wire-level value types shared by the WebFinger,
// NodeInfo and ActivityStreams documents.
package webmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrLiteralMismatch is returned when a fixed-string field carries any other value.
var ErrLiteralMismatch = errors.New("literal mismatch")

// LiteralSpec describes the strings accepted by a Literal. The first entry of
// Literals is the canonical form written on the wire.
type LiteralSpec interface {
	Kind() string
	Literals() []string
}

// Literal is a zero-size value bound to a fixed string. Unmarshalling only
// succeeds when the input is one of the strings named by S.
type Literal[S LiteralSpec] struct{}

// String returns the canonical literal.
func (Literal[S]) String() string {
	var spec S
	return spec.Literals()[0]
}

// Matches reports whether s is accepted by the literal.
func (Literal[S]) Matches(s string) bool {
	var spec S
	return slices.Contains(spec.Literals(), s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Literal[S]) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Literal[S]) UnmarshalText(text []byte) error {
	if l.Matches(string(text)) {
		return nil
	}
	var spec S
	return fmt.Errorf("invalid %s %q, expected %q: %w", spec.Kind(), string(text), l.String(), ErrLiteralMismatch)
}

// UnmarshalJSON rejects anything that is not a JSON string before matching.
func (l *Literal[S]) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var spec S
		return fmt.Errorf("invalid %s: %w", spec.Kind(), err)
	}
	return l.UnmarshalText([]byte(s))
}

type contentSpec struct{}

func (contentSpec) Kind() string { return "content type" }

type relSpec struct{}

func (relSpec) Kind() string { return "rel" }

type activityStreamsType struct{ contentSpec }

func (activityStreamsType) Literals() []string { return []string{"application/activity+json"} }

type htmlType struct{ contentSpec }

func (htmlType) Literals() []string { return []string{"text/html"} }

type jsonType struct{ contentSpec }

func (jsonType) Literals() []string { return []string{"application/json"} }

type jrdType struct{ contentSpec }

func (jrdType) Literals() []string { return []string{"application/jrd+json"} }

// Content types.
type (
	ContentActivityStreams = Literal[activityStreamsType]
	ContentHTML            = Literal[htmlType]
	ContentJSON            = Literal[jsonType]
	ContentJRD             = Literal[jrdType]
)

type profilePageRel struct{ relSpec }

func (profilePageRel) Literals() []string { return []string{"http://webfinger.net/rel/profile-page"} }

type selfRel struct{ relSpec }

func (selfRel) Literals() []string { return []string{"self"} }

type ostatusSubscribeRel struct{ relSpec }

func (ostatusSubscribeRel) Literals() []string {
	return []string{"http://ostatus.org/schema/1.0/subscribe"}
}

type nodeInfo20Rel struct{ relSpec }

func (nodeInfo20Rel) Literals() []string {
	return []string{"http://nodeinfo.diaspora.software/ns/schema/2.0"}
}

type nodeInfo21Rel struct{ relSpec }

func (nodeInfo21Rel) Literals() []string {
	return []string{"http://nodeinfo.diaspora.software/ns/schema/2.1"}
}

// Link relations.
type (
	RelWebFingerProfilePage = Literal[profilePageRel]
	RelSelf                 = Literal[selfRel]
	RelOStatusSubscribe     = Literal[ostatusSubscribeRel]
	RelNodeInfo20           = Literal[nodeInfo20Rel]
	RelNodeInfo21           = Literal[nodeInfo21Rel]
)

type activityStreamsContext struct{}

func (activityStreamsContext) Kind() string { return "context" }

func (activityStreamsContext) Literals() []string {
	return []string{
		"https://www.w3.org/ns/activitystreams",
		"http://www.w3.org/ns/activitystreams",
	}
}

// ContextActivityStreams marks the ActivityStreams JSON-LD vocabulary. Both
// the http and https forms are accepted; https is always written.
type ContextActivityStreams = Literal[activityStreamsContext]
