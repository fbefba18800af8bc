package webfinger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/ansuz/internal/webmodel"
)

// ErrNoMatchingShape is returned when a link entry fits none of the known shapes.
var ErrNoMatchingShape = errors.New("no known link shape matched")

// LinkKind identifies which link shape a Link holds.
type LinkKind int

// Link shapes, in the order they are tried when decoding.
const (
	LinkProfilePage LinkKind = iota
	LinkSelf
	LinkOStatusSubscribe
)

// Link is one entry of a document's links array. Href is set for profile
// page and self links, Template for subscribe links.
type Link struct {
	Kind     LinkKind
	Href     string
	Template string
}

// ProfilePageLink points at the HTML profile of an account.
func ProfilePageLink(href string) Link {
	return Link{Kind: LinkProfilePage, Href: href}
}

// SelfLink points at the ActivityPub actor of an account.
func SelfLink(href string) Link {
	return Link{Kind: LinkSelf, Href: href}
}

// SubscribeLink carries the remote-follow URL template.
func SubscribeLink(template string) Link {
	return Link{Kind: LinkOStatusSubscribe, Template: template}
}

// Rel returns the link relation of the entry.
func (l Link) Rel() string {
	switch l.Kind {
	case LinkProfilePage:
		return webmodel.RelWebFingerProfilePage{}.String()
	case LinkSelf:
		return webmodel.RelSelf{}.String()
	case LinkOStatusSubscribe:
		return webmodel.RelOStatusSubscribe{}.String()
	}
	return ""
}

type profilePageWire struct {
	Rel  *webmodel.RelWebFingerProfilePage `json:"rel"`
	Type *webmodel.ContentHTML             `json:"type"`
	Href *string                           `json:"href"`
}

type selfWire struct {
	Rel  *webmodel.RelSelf                `json:"rel"`
	Type *webmodel.ContentActivityStreams `json:"type"`
	Href *string                          `json:"href"`
}

type subscribeWire struct {
	Rel      *webmodel.RelOStatusSubscribe `json:"rel"`
	Template *string                       `json:"template"`
}

// MarshalJSON writes the shape selected by Kind.
func (l Link) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case LinkProfilePage:
		return json.Marshal(profilePageWire{
			Rel:  &webmodel.RelWebFingerProfilePage{},
			Type: &webmodel.ContentHTML{},
			Href: &l.Href,
		})
	case LinkSelf:
		return json.Marshal(selfWire{
			Rel:  &webmodel.RelSelf{},
			Type: &webmodel.ContentActivityStreams{},
			Href: &l.Href,
		})
	case LinkOStatusSubscribe:
		return json.Marshal(subscribeWire{
			Rel:      &webmodel.RelOStatusSubscribe{},
			Template: &l.Template,
		})
	}
	return nil, fmt.Errorf("link kind %d: %w", l.Kind, ErrNoMatchingShape)
}

// UnmarshalJSON tries the profile page, self and subscribe shapes in that
// order. A shape matches when all of its fields are present and its rel and
// type carry the expected literals.
func (l *Link) UnmarshalJSON(data []byte) error {
	var page profilePageWire
	if err := json.Unmarshal(data, &page); err == nil &&
		page.Rel != nil && page.Type != nil && page.Href != nil {
		*l = ProfilePageLink(*page.Href)
		return nil
	}

	var self selfWire
	if err := json.Unmarshal(data, &self); err == nil &&
		self.Rel != nil && self.Type != nil && self.Href != nil {
		*l = SelfLink(*self.Href)
		return nil
	}

	var sub subscribeWire
	if err := json.Unmarshal(data, &sub); err == nil &&
		sub.Rel != nil && sub.Template != nil {
		*l = SubscribeLink(*sub.Template)
		return nil
	}

	return ErrNoMatchingShape
}
