// Package resolver answers WebFinger queries from the user directory.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/fedtag"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/webfinger"
	"github.com/starford/ansuz/internal/webmodel"
)

// UserFinder is the subset of the directory the resolver needs. Both methods
// return (nil, nil) when no user matches.
type UserFinder interface {
	FindUserByTag(ctx context.Context, name string, host *string) (*models.User, error)
	FindUserByURI(ctx context.Context, uri string) (*models.User, error)
}

// Networking is how this server is reached from outside.
type Networking struct {
	Host     string
	Protocol string
}

// BaseURL returns protocol://host.
func (n Networking) BaseURL() string {
	return n.Protocol + "://" + n.Host
}

// ProfileURL returns the HTML profile address of a local user.
func (n Networking) ProfileURL(name string) string {
	return n.BaseURL() + "/@" + name
}

// SubscribeTemplate returns the remote-follow template of this server.
func (n Networking) SubscribeTemplate() string {
	return n.BaseURL() + "/authorize_interaction?uri={uri}"
}

func (n Networking) isLocal(host string) bool {
	return strings.EqualFold(host, n.Host)
}

// Query is one WebFinger request.
type Query struct {
	Resource webfinger.Subject
	// Rels restricts the returned links; empty keeps all.
	Rels []string
}

// Service resolves WebFinger queries.
type Service struct {
	users  UserFinder
	net    Networking
	logger *slog.Logger
}

// New creates a Service.
func New(users UserFinder, net Networking, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, net: net, logger: logger}
}

// Normalize turns a URL subject that does not start with http: or https:
// into an account subject. Other subjects are returned unchanged.
func Normalize(s webfinger.Subject) webfinger.Subject {
	raw, isURL := s.URL()
	if !isURL {
		return s
	}
	if strings.HasPrefix(raw, "http:") || strings.HasPrefix(raw, "https:") {
		return s
	}
	return webfinger.AcctSubject(webmodel.ParseAcct(raw))
}

// Resolve looks up the user a query names and builds its document.
//
// Errors wrap apperr.ErrInvalidInput when the account does not parse and
// apperr.ErrNotFound when nobody matches. Any other error is a storage
// failure.
func (s *Service) Resolve(ctx context.Context, q Query) (webfinger.Document, error) {
	user, err := s.lookup(ctx, Normalize(q.Resource))
	if err != nil {
		return webfinger.Document{}, err
	}
	return s.document(user).FilterRels(q.Rels), nil
}

func (s *Service) lookup(ctx context.Context, subject webfinger.Subject) (*models.User, error) {
	if acct, ok := subject.Acct(); ok {
		tag, err := fedtag.FromAcctDecoded(acct)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w: %w", acct.String(), apperr.ErrInvalidInput, err)
		}
		var host *string
		if tag.HasHost() && !s.net.isLocal(tag.Host) {
			host = &tag.Host
		}
		user, err := s.users.FindUserByTag(ctx, tag.Name, host)
		if err != nil {
			attrs := []any{slog.String("name", tag.Name), slog.String("error", err.Error())}
			if host != nil {
				attrs = append(attrs, slog.String("host", *host))
			}
			s.logger.ErrorContext(ctx, "webfinger: user lookup failed", attrs...)
			return nil, fmt.Errorf("find user %q: %w", tag.String(), err)
		}
		if user == nil {
			return nil, fmt.Errorf("user %q: %w", tag.String(), apperr.ErrNotFound)
		}
		return user, nil
	}

	uri, _ := subject.URL()
	user, err := s.users.FindUserByURI(ctx, uri)
	if err != nil {
		s.logger.ErrorContext(ctx, "webfinger: user lookup failed",
			slog.String("uri", uri), slog.String("error", err.Error()))
		return nil, fmt.Errorf("find user by uri %q: %w", uri, err)
	}
	if user == nil {
		return nil, fmt.Errorf("uri %q: %w", uri, apperr.ErrNotFound)
	}
	return user, nil
}

func (s *Service) document(user *models.User) webfinger.Document {
	tag := fedtag.Tag{Name: user.Username, Host: s.net.Host}
	if user.Host != nil {
		tag.Host = *user.Host
	}

	doc := webfinger.Document{Subject: webfinger.AcctSubject(tag.Acct())}

	if s.net.isLocal(tag.Host) {
		profile := s.net.ProfileURL(tag.Name)
		doc.Links = append(doc.Links,
			webfinger.SubscribeLink(s.net.SubscribeTemplate()),
			webfinger.ProfilePageLink(profile),
		)
		doc.Aliases = append(doc.Aliases, webfinger.URLSubject(profile))
	}

	if user.URI != nil {
		doc.Links = append(doc.Links, webfinger.SelfLink(*user.URI))
	}

	return doc
}
