// Package roster reads the YAML file listing the accounts the server answers for.
package roster

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/fedtag"
	"github.com/starford/ansuz/internal/webmodel"
)

// Entry is one account in the roster. A nil Host marks a local account.
type Entry struct {
	Username string  `yaml:"username"`
	Host     *string `yaml:"host,omitempty"`
	URI      *string `yaml:"uri,omitempty"`
}

// Key returns lower(username) or lower(username)@lower(host).
func (e Entry) Key() string {
	key := strings.ToLower(e.Username)
	if e.Host != nil {
		key += "@" + strings.ToLower(*e.Host)
	}
	return key
}

type file struct {
	Users []Entry `yaml:"users"`
}

// Parse decodes a roster document. Every entry is checked with the tag
// rules; an empty host is treated as absent. Later duplicates of the same
// account are dropped.
func Parse(data []byte) ([]Entry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("roster: decode: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Users))
	out := make([]Entry, 0, len(f.Users))
	for i, e := range f.Users {
		e.Username = strings.TrimSpace(e.Username)
		if e.Host != nil {
			h := strings.TrimSpace(*e.Host)
			if h == "" {
				e.Host = nil
			} else {
				e.Host = &h
			}
		}
		if e.URI != nil && strings.TrimSpace(*e.URI) == "" {
			e.URI = nil
		}

		host := ""
		if e.Host != nil {
			host = *e.Host
		}
		if err := fedtag.Validate(e.Username, host, e.Host != nil); err != nil {
			return nil, fmt.Errorf("roster: entry %d: %w", i, err)
		}

		key := e.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

// Acct returns the entry as an account identifier.
func (e Entry) Acct() webmodel.Acct {
	t := fedtag.Tag{Name: e.Username}
	if e.Host != nil {
		t.Host = *e.Host
	}
	return t.Acct()
}
