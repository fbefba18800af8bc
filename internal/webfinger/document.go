package webfinger

import (
	"encoding/json"
	"errors"
	"slices"
)

// ErrMissingSubject is returned when a document has no subject.
var ErrMissingSubject = errors.New("webfinger document has no subject")

// Document is a JSON Resource Descriptor.
type Document struct {
	Subject Subject   `json:"subject"`
	Aliases []Subject `json:"aliases,omitempty"`
	Links   []Link    `json:"links"`
}

// MarshalJSON always writes links as an array.
func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	p := plain(d)
	if p.Links == nil {
		p.Links = []Link{}
	}
	return json.Marshal(p)
}

// UnmarshalJSON implements json.Unmarshaler. Aliases and links may be absent.
func (d *Document) UnmarshalJSON(data []byte) error {
	var wire struct {
		Subject *Subject  `json:"subject"`
		Aliases []Subject `json:"aliases"`
		Links   []Link    `json:"links"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Subject == nil {
		return ErrMissingSubject
	}
	*d = Document{Subject: *wire.Subject, Aliases: wire.Aliases, Links: wire.Links}
	return nil
}

// FilterRels returns a copy of d keeping only links whose relation is listed
// in rels. An empty rels keeps every link.
func (d Document) FilterRels(rels []string) Document {
	if len(rels) == 0 {
		return d
	}
	out := Document{Subject: d.Subject, Aliases: d.Aliases, Links: []Link{}}
	for _, l := range d.Links {
		if slices.Contains(rels, l.Rel()) {
			out.Links = append(out.Links, l)
		}
	}
	return out
}
