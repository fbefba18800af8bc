package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/webfinger"
	"github.com/starford/ansuz/internal/webmodel"
)

type call struct {
	name string
	host *string
	uri  string
}

type fakeFinder struct {
	user  *models.User
	err   error
	calls []call
}

func (f *fakeFinder) FindUserByTag(_ context.Context, name string, host *string) (*models.User, error) {
	f.calls = append(f.calls, call{name: name, host: host})
	return f.user, f.err
}

func (f *fakeFinder) FindUserByURI(_ context.Context, uri string) (*models.User, error) {
	f.calls = append(f.calls, call{uri: uri})
	return f.user, f.err
}

var techLGBT = Networking{Host: "tech.lgbt", Protocol: "https"}

func newService(f *fakeFinder) *Service {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 4}))
	return New(f, techLGBT, logger)
}

func strptr(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   webfinger.Subject
		want webfinger.Subject
	}{
		{webfinger.URLSubject("natty@tech.lgbt"), webfinger.AcctSubject(webmodel.NewAcct("natty@tech.lgbt"))},
		{webfinger.URLSubject("https://tech.lgbt/users/natty"), webfinger.URLSubject("https://tech.lgbt/users/natty")},
		{webfinger.URLSubject("http://tech.lgbt/@natty"), webfinger.URLSubject("http://tech.lgbt/@natty")},
		{webfinger.AcctSubject(webmodel.NewAcct("natty@tech.lgbt")), webfinger.AcctSubject(webmodel.NewAcct("natty@tech.lgbt"))},
	}
	for _, tc := range cases {
		got := Normalize(tc.in)
		if got.Kind() != tc.want.Kind() || got.String() != tc.want.String() {
			t.Errorf("Normalize(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestResolve_LocalUser(t *testing.T) {
	f := &fakeFinder{user: &models.User{ID: "1", Username: "natty"}}
	doc, err := newService(f).Resolve(context.Background(), Query{
		Resource: webfinger.ParseSubject("acct:natty@tech.lgbt"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := `{
		"subject": "acct:natty@tech.lgbt",
		"aliases": ["https://tech.lgbt/@natty"],
		"links": [
			{"rel": "http://ostatus.org/schema/1.0/subscribe", "template": "https://tech.lgbt/authorize_interaction?uri={uri}"},
			{"rel": "http://webfinger.net/rel/profile-page", "type": "text/html", "href": "https://tech.lgbt/@natty"}
		]
	}`
	var gotV, wantV any
	_ = json.Unmarshal(out, &gotV)
	_ = json.Unmarshal([]byte(want), &wantV)
	if diff := cmp.Diff(wantV, gotV); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	// Own host is looked up host-agnostically.
	if len(f.calls) != 1 || f.calls[0].name != "natty" || f.calls[0].host != nil {
		t.Errorf("calls = %+v", f.calls)
	}
}

func TestResolve_LocalUserWithURI(t *testing.T) {
	f := &fakeFinder{user: &models.User{ID: "1", Username: "natty", URI: strptr("https://tech.lgbt/users/natty")}}
	doc, err := newService(f).Resolve(context.Background(), Query{Resource: webfinger.ParseSubject("natty")})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(doc.Links) != 3 || doc.Links[2] != webfinger.SelfLink("https://tech.lgbt/users/natty") {
		t.Errorf("links = %+v", doc.Links)
	}
}

func TestResolve_BareTagNormalized(t *testing.T) {
	f := &fakeFinder{user: &models.User{ID: "1", Username: "natty"}}
	doc, err := newService(f).Resolve(context.Background(), Query{Resource: webfinger.ParseSubject("natty@tech.lgbt")})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if doc.Subject.String() != "acct:natty@tech.lgbt" {
		t.Errorf("subject = %s", doc.Subject)
	}
	if len(f.calls) != 1 || f.calls[0].uri != "" {
		t.Errorf("expected a tag lookup, got %+v", f.calls)
	}
}

func TestResolve_RemoteHostPassedThrough(t *testing.T) {
	f := &fakeFinder{user: &models.User{ID: "2", Username: "bob", Host: strptr("remote.example")}}
	doc, err := newService(f).Resolve(context.Background(), Query{
		Resource: webfinger.ParseSubject("acct:bob@remote.example"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.calls[0].host == nil || *f.calls[0].host != "remote.example" {
		t.Errorf("host = %v, want remote.example", f.calls[0].host)
	}
	if doc.Subject.String() != "acct:bob@remote.example" {
		t.Errorf("subject = %s", doc.Subject)
	}
	if len(doc.Links) != 0 || len(doc.Aliases) != 0 {
		t.Errorf("remote user without uri should have no links or aliases: %+v", doc)
	}
}

func TestResolve_ByURI(t *testing.T) {
	f := &fakeFinder{user: &models.User{
		ID:       "2",
		Username: "bob",
		Host:     strptr("remote.example"),
		URI:      strptr("https://remote.example/users/bob"),
	}}
	doc, err := newService(f).Resolve(context.Background(), Query{
		Resource: webfinger.ParseSubject("https://remote.example/users/bob"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.calls[0].uri != "https://remote.example/users/bob" {
		t.Errorf("calls = %+v", f.calls)
	}
	want := webfinger.Document{
		Subject: webfinger.AcctSubject(webmodel.NewAcct("bob@remote.example")),
		Links:   []webfinger.Link{webfinger.SelfLink("https://remote.example/users/bob")},
	}
	if diff := cmp.Diff(want, doc, cmp.AllowUnexported(webfinger.Subject{}, webmodel.Acct{})); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
	out, _ := json.Marshal(doc)
	if strings.Contains(string(out), "aliases") {
		t.Errorf("aliases should be omitted: %s", out)
	}
}

func TestResolve_NotFound(t *testing.T) {
	f := &fakeFinder{}
	_, err := newService(f).Resolve(context.Background(), Query{Resource: webfinger.ParseSubject("acct:natty@tech.lgbt")})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	_, err = newService(f).Resolve(context.Background(), Query{Resource: webfinger.ParseSubject("https://tech.lgbt/users/x")})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolve_InvalidInput(t *testing.T) {
	for _, res := range []string{"acct:na tty@tech.lgbt", "acct:@", "acct:natty%ZZ@tech.lgbt", "acct:natty%40test@tech.lgbt"} {
		f := &fakeFinder{}
		_, err := newService(f).Resolve(context.Background(), Query{Resource: webfinger.ParseSubject(res)})
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Resolve(%q) err = %v, want ErrInvalidInput", res, err)
		}
		if len(f.calls) != 0 {
			t.Errorf("Resolve(%q) should not reach the directory", res)
		}
	}
}

func TestResolve_StorageError(t *testing.T) {
	storageErr := errors.New("connection refused")
	f := &fakeFinder{err: storageErr}
	_, err := newService(f).Resolve(context.Background(), Query{Resource: webfinger.ParseSubject("acct:natty@tech.lgbt")})
	if !errors.Is(err, storageErr) {
		t.Errorf("err = %v, want wrapped storage error", err)
	}
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("storage error must not look like a client error: %v", err)
	}
}

func TestResolve_RelFilter(t *testing.T) {
	f := &fakeFinder{user: &models.User{ID: "1", Username: "natty", URI: strptr("https://tech.lgbt/users/natty")}}
	doc, err := newService(f).Resolve(context.Background(), Query{
		Resource: webfinger.ParseSubject("acct:natty@tech.lgbt"),
		Rels:     []string{"self"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(doc.Links) != 1 || doc.Links[0].Kind != webfinger.LinkSelf {
		t.Errorf("links = %+v", doc.Links)
	}
	if len(doc.Aliases) != 1 {
		t.Errorf("rel filter should not touch aliases: %+v", doc.Aliases)
	}
}

func TestResolve_HostCaseInsensitive(t *testing.T) {
	f := &fakeFinder{user: &models.User{ID: "1", Username: "natty"}}
	_, err := newService(f).Resolve(context.Background(), Query{Resource: webfinger.ParseSubject("acct:natty@Tech.LGBT")})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.calls[0].host != nil {
		t.Errorf("own host in any case should be dropped, got %q", *f.calls[0].host)
	}
}
