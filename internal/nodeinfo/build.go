package nodeinfo

import (
	"strings"

	"github.com/starford/ansuz/internal/webmodel"
)

// Path is the prefix under which versioned documents are served.
const Path = "/nodeinfo"

// ProtocolActivityPub is the only protocol the server announces.
const ProtocolActivityPub = "activitypub"

// Branding identifies the running software.
type Branding struct {
	Name       string
	Version    string
	Homepage   string
	Repository string
}

// Link is one entry of the /.well-known/nodeinfo discovery array.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Links returns the discovery entries for the 2.0 and 2.1 schemas served
// under baseURL. They are written as a bare JSON array.
func Links(baseURL string) []Link {
	base := strings.TrimSuffix(baseURL, "/")
	return []Link{
		{Rel: webmodel.RelNodeInfo20{}.String(), Href: base + Path + "/" + Version2_0},
		{Rel: webmodel.RelNodeInfo21{}.String(), Href: base + Path + "/" + Version2_1},
	}
}

// ProfileContentType is the media type of a versioned document.
func ProfileContentType(version string) string {
	return `application/json; profile="http://nodeinfo.diaspora.software/ns/schema/` + version + `#"`
}

func zeroUsage(withComments bool) Usage {
	u := Usage{
		Users: UsageUsers{
			Total:          Int64(0),
			ActiveHalfyear: Int64(0),
			ActiveMonth:    Int64(0),
		},
		LocalPosts: Int64(0),
	}
	if withComments {
		u.LocalComments = Int64(0)
	}
	return u
}

// Build20 returns the 2.0 document announced for this server.
func Build20(b Branding) NodeInfo {
	return NodeInfo{V2_0: &V2_0{
		Software:  Software{Name: b.Name, Version: b.Version},
		Protocols: NewStringSet(ProtocolActivityPub),
		Services:  Services{Inbound: NewStringSet(), Outbound: NewStringSet()},
		Usage:     zeroUsage(false),
		Metadata:  map[string]any{},
	}}
}

// Build21 returns the 2.1 document announced for this server.
func Build21(b Branding) NodeInfo {
	sw := Software21{Name: b.Name, Version: b.Version}
	if b.Homepage != "" {
		sw.Homepage = String(b.Homepage)
	}
	if b.Repository != "" {
		sw.Repository = String(b.Repository)
	}
	return NodeInfo{V2_1: &V2_1{
		Software:  sw,
		Protocols: NewStringSet(ProtocolActivityPub),
		Services:  Services{Inbound: NewStringSet(), Outbound: NewStringSet()},
		Usage:     zeroUsage(true),
		Metadata:  map[string]any{},
	}}
}
