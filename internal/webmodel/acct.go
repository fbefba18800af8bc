package webmodel

import (
	"errors"
	"strings"
)

// AcctScheme prefixes every account identifier on the wire.
const AcctScheme = "acct:"

// ErrMissingAcctScheme is returned when a wire value lacks the acct: prefix.
var ErrMissingAcctScheme = errors.New("missing acct scheme for account")

// Acct is an account identifier such as natty@tech.lgbt. The acct: scheme is
// never stored; it is added when the value is written out.
type Acct struct {
	value string
}

// NewAcct wraps an identifier that is already unprefixed.
func NewAcct(unprefixed string) Acct {
	return Acct{value: unprefixed}
}

// ParseAcct builds an Acct from a raw string, dropping one leading acct: if
// present. It never fails.
func ParseAcct(raw string) Acct {
	return Acct{value: strings.TrimPrefix(raw, AcctScheme)}
}

// Unprefixed returns the identifier without the scheme.
func (a Acct) Unprefixed() string {
	return a.value
}

// String returns the acct: URI.
func (a Acct) String() string {
	return AcctScheme + a.value
}

// MarshalText implements encoding.TextMarshaler.
func (a Acct) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unlike ParseAcct it
// requires the acct: scheme.
func (a *Acct) UnmarshalText(text []byte) error {
	rest, ok := strings.CutPrefix(string(text), AcctScheme)
	if !ok {
		return ErrMissingAcctScheme
	}
	a.value = rest
	return nil
}
