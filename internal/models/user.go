// Package models defines the domain types for ansuz.
package models

import "strings"

// User is an account known to the directory. A nil Host marks a local user.
type User struct {
	ID       string  `json:"id" yaml:"id"`
	Username string  `json:"username" yaml:"username"`
	Host     *string `json:"host,omitempty" yaml:"host,omitempty"`
	URI      *string `json:"uri,omitempty" yaml:"uri,omitempty"`
}

// IsLocal reports whether the user lives on this server.
func (u *User) IsLocal() bool {
	return u.Host == nil
}

// Key returns the case-insensitive identity of the user, name@host or name.
func (u *User) Key() string {
	key := strings.ToLower(u.Username)
	if u.Host != nil {
		key += "@" + strings.ToLower(*u.Host)
	}
	return key
}
