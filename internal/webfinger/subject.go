// Package webfinger models JSON Resource Descriptor documents as served by
// /.well-known/webfinger.
package webfinger

import (
	"github.com/starford/ansuz/internal/webmodel"
)

// SubjectKind tells the two subject shapes apart.
type SubjectKind int

// Subject shapes, in the order they are tried when decoding.
const (
	SubjectAcct SubjectKind = iota
	SubjectURL
)

// Subject is either an acct: identifier or any other URI.
type Subject struct {
	kind SubjectKind
	acct webmodel.Acct
	url  string
}

// AcctSubject returns an account subject.
func AcctSubject(acct webmodel.Acct) Subject {
	return Subject{kind: SubjectAcct, acct: acct}
}

// URLSubject returns a URI subject.
func URLSubject(url string) Subject {
	return Subject{kind: SubjectURL, url: url}
}

// ParseSubject decodes a raw resource value. Strings carrying the acct:
// scheme become account subjects; anything else is kept as a URI.
func ParseSubject(raw string) Subject {
	var s Subject
	_ = s.UnmarshalText([]byte(raw))
	return s
}

// Kind returns the subject's shape.
func (s Subject) Kind() SubjectKind {
	return s.kind
}

// Acct returns the account identifier of an account subject.
func (s Subject) Acct() (webmodel.Acct, bool) {
	return s.acct, s.kind == SubjectAcct
}

// URL returns the URI of a URI subject.
func (s Subject) URL() (string, bool) {
	return s.url, s.kind == SubjectURL
}

// String returns the wire form.
func (s Subject) String() string {
	if s.kind == SubjectAcct {
		return s.acct.String()
	}
	return s.url
}

// MarshalText implements encoding.TextMarshaler.
func (s Subject) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails: the
// URI shape accepts any string.
func (s *Subject) UnmarshalText(text []byte) error {
	var acct webmodel.Acct
	if err := acct.UnmarshalText(text); err == nil {
		*s = AcctSubject(acct)
		return nil
	}
	*s = URLSubject(string(text))
	return nil
}
