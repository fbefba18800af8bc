// Package nodeinfo models the NodeInfo server metadata documents, versions
// 1.0 through 2.1.
package nodeinfo

import (
	"encoding/json"
	"slices"
)

// StringSet is an unordered set of strings. It is written as a sorted array.
type StringSet map[string]struct{}

// NewStringSet builds a set from its members.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Has reports whether item is in the set.
func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the members in lexical order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	slices.Sort(out)
	return out
}

// MarshalJSON implements json.Marshaler.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewStringSet(items...)
	return nil
}

// Protocols lists the protocols a 1.x server speaks, per direction.
type Protocols struct {
	// Inbound holds the protocols this server can receive traffic for.
	Inbound StringSet `json:"inbound"`
	// Outbound holds the protocols this server can generate traffic for.
	Outbound StringSet `json:"outbound"`
}

// Services lists third party sites the server connects to.
type Services struct {
	// Inbound holds sites this server can retrieve messages from.
	Inbound StringSet `json:"inbound"`
	// Outbound holds sites this server can publish messages to on behalf of a user.
	Outbound StringSet `json:"outbound"`
}

// Software identifies the server software.
type Software struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Software21 adds the homepage and repository fields introduced in 2.1.
type Software21 struct {
	Name       string  `json:"name"`
	Version    string  `json:"version"`
	Homepage   *string `json:"homepage,omitempty"`
	Repository *string `json:"repository,omitempty"`
}

// UsageUsers counts registered users.
type UsageUsers struct {
	// Total is the number of registered users.
	Total *int64 `json:"total,omitempty"`
	// ActiveHalfyear is the number of users signed in during the last 180 days.
	ActiveHalfyear *int64 `json:"activeHalfyear,omitempty"`
	// ActiveMonth is the number of users signed in during the last 30 days.
	ActiveMonth *int64 `json:"activeMonth,omitempty"`
}

// Usage holds usage statistics.
type Usage struct {
	Users         UsageUsers `json:"users"`
	LocalPosts    *int64     `json:"localPosts,omitempty"`
	LocalComments *int64     `json:"localComments,omitempty"`
}

// V1_0 is a NodeInfo 1.0 document.
type V1_0 struct {
	Software          Software       `json:"software"`
	Protocols         Protocols      `json:"protocols"`
	Services          Services       `json:"services"`
	OpenRegistrations bool           `json:"openRegistrations"`
	Usage             Usage          `json:"usage"`
	Metadata          map[string]any `json:"metadata"`
}

// V1_1 is a NodeInfo 1.1 document. Its fields match 1.0; only the permitted
// software names and protocols were widened.
type V1_1 V1_0

// V2_0 is a NodeInfo 2.0 document. Protocols are a flat set.
type V2_0 struct {
	Software          Software       `json:"software"`
	Protocols         StringSet      `json:"protocols"`
	Services          Services       `json:"services"`
	OpenRegistrations bool           `json:"openRegistrations"`
	Usage             Usage          `json:"usage"`
	Metadata          map[string]any `json:"metadata"`
}

// V2_1 is a NodeInfo 2.1 document.
type V2_1 struct {
	Software          Software21     `json:"software"`
	Protocols         StringSet      `json:"protocols"`
	Services          Services       `json:"services"`
	OpenRegistrations bool           `json:"openRegistrations"`
	Usage             Usage          `json:"usage"`
	Metadata          map[string]any `json:"metadata"`
}

// Int64 returns a pointer to v, for the optional counters.
func Int64(v int64) *int64 {
	return &v
}

// String returns a pointer to v, for the optional software fields.
func String(v string) *string {
	return &v
}
