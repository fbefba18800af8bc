package activitypub

import (
	"strings"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/webmodel"
)

// SecurityContext is the JSON-LD context defining publicKey.
const SecurityContext = "https://w3id.org/security/v1"

// PublicKey is the publicKey block of an actor.
type PublicKey struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPEM string `json:"publicKeyPem"`
}

// Person is a local actor.
type Person struct {
	Context           []string  `json:"@context"`
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	PreferredUsername string    `json:"preferredUsername"`
	Name              string    `json:"name"`
	URL               string    `json:"url"`
	Inbox             string    `json:"inbox"`
	Outbox            string    `json:"outbox"`
	PublicKey         PublicKey `json:"publicKey"`
}

// OrderedCollection is an ActivityStreams ordered collection.
type OrderedCollection struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	TotalItems   int    `json:"totalItems"`
	OrderedItems []any  `json:"orderedItems"`
}

// ActorID returns the actor address of a user: its stored URI when set,
// otherwise baseURL/users/{name}.
func ActorID(baseURL string, u *models.User) string {
	if u.URI != nil {
		return *u.URI
	}
	return strings.TrimSuffix(baseURL, "/") + "/users/" + u.Username
}

// Actor builds the Person document of a local user.
func Actor(baseURL string, u *models.User, keys *Keys) Person {
	base := strings.TrimSuffix(baseURL, "/")
	id := ActorID(base, u)
	return Person{
		Context:           []string{webmodel.ContextActivityStreams{}.String(), SecurityContext},
		ID:                id,
		Type:              "Person",
		PreferredUsername: u.Username,
		Name:              u.Username,
		URL:               base + "/@" + u.Username,
		Inbox:             id + "/inbox",
		Outbox:            id + "/outbox",
		PublicKey: PublicKey{
			ID:           id + "#main-key",
			Owner:        id,
			PublicKeyPEM: keys.PublicKeyPEM(),
		},
	}
}

// Outbox builds the always-empty outbox of a user.
func Outbox(baseURL string, u *models.User) webmodel.Document[OrderedCollection] {
	return webmodel.Document[OrderedCollection]{
		Data: OrderedCollection{
			ID:           ActorID(baseURL, u) + "/outbox",
			Type:         "OrderedCollection",
			TotalItems:   0,
			OrderedItems: []any{},
		},
	}
}
