// Package fedtag parses fediverse account tags such as @natty@tech.lgbt.
package fedtag

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/webmodel"
)

var (
	// ErrInvalidTag is returned when a name or host holds a forbidden character.
	ErrInvalidTag = errors.New("invalid tag")
	// ErrInvalidEncoding is returned when a segment is not valid percent-encoded UTF-8.
	ErrInvalidEncoding = errors.New("invalid tag encoding")
)

// Tag is a parsed account tag. An empty Host means the tag carried none.
type Tag struct {
	Name string
	Host string
}

// HasHost reports whether the tag names a host.
func (t Tag) HasHost() bool {
	return t.Host != ""
}

// String returns name@host, or the bare name when there is no host.
func (t Tag) String() string {
	if t.HasHost() {
		return t.Name + "@" + t.Host
	}
	return t.Name
}

// Acct converts the tag to an account identifier.
func (t Tag) Acct() webmodel.Acct {
	return webmodel.ParseAcct(t.String())
}

// Split strips one leading @ and splits the remainder on the first @.
//
// A tag of the form @host has an empty name segment; it collapses to
// (host, no host) rather than failing.
func Split(tag string) (name, host string, hasHost bool) {
	tag = strings.TrimPrefix(tag, "@")
	name, host, hasHost = strings.Cut(tag, "@")
	if !hasHost {
		return tag, "", false
	}
	if name == "" {
		return host, "", false
	}
	return name, host, true
}

// Validate checks a name and an optional host.
func Validate(name, host string, hasHost bool) error {
	if name == "" {
		return fmt.Errorf("empty name in tag: %w", ErrInvalidTag)
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '.' {
			return fmt.Errorf("invalid char %q in tag name %q: %w", r, name, ErrInvalidTag)
		}
	}
	if !hasHost {
		return nil
	}
	for _, r := range host {
		if unicode.IsControl(r) || unicode.IsSpace(r) || r == '/' || r == '#' {
			return fmt.Errorf("invalid char %q in tag host %q: %w", r, host, ErrInvalidTag)
		}
	}
	return nil
}

// Parse splits and validates a tag without decoding it.
func Parse(tag string) (Tag, error) {
	name, host, hasHost := Split(tag)
	if err := Validate(name, host, hasHost); err != nil {
		return Tag{}, err
	}
	return Tag{Name: name, Host: host}, nil
}

// ParseDecoded splits a tag, percent-decodes each segment and validates the
// decoded values.
func ParseDecoded(tag string) (Tag, error) {
	name, host, hasHost := Split(tag)

	name, err := decode(name)
	if err != nil {
		return Tag{}, err
	}
	if hasHost {
		if host, err = decode(host); err != nil {
			return Tag{}, err
		}
	}

	if err := Validate(name, host, hasHost); err != nil {
		return Tag{}, err
	}
	return Tag{Name: name, Host: host}, nil
}

// FromAcct parses an account identifier as a tag.
func FromAcct(acct webmodel.Acct) (Tag, error) {
	return Parse(acct.Unprefixed())
}

// FromAcctDecoded parses and percent-decodes an account identifier.
func FromAcctDecoded(acct webmodel.Acct) (Tag, error) {
	return ParseDecoded(acct.Unprefixed())
}

func decode(segment string) (string, error) {
	out, err := url.PathUnescape(segment)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	if !utf8.ValidString(out) {
		return "", fmt.Errorf("segment %q is not valid UTF-8: %w", segment, ErrInvalidEncoding)
	}
	return out, nil
}
