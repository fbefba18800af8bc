package fedtag

import (
	"errors"
	"testing"

	"github.com/starford/ansuz/internal/webmodel"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		host    string
		hasHost bool
	}{
		{"natty@tech.lgbt", "natty", "tech.lgbt", true},
		{"@natty@tech.lgbt", "natty", "tech.lgbt", true},
		{"natty", "natty", "", false},
		{"@natty", "natty", "", false},
		// @host collapses to a bare name.
		{"@host", "host", "", false},
		{"@@host", "host", "", false},
		{"a@b@c", "a", "b@c", true},
	}
	for _, tt := range tests {
		name, host, hasHost := Split(tt.in)
		if name != tt.name || host != tt.host || hasHost != tt.hasHost {
			t.Errorf("Split(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, name, host, hasHost, tt.name, tt.host, tt.hasHost)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		hasHost bool
		ok      bool
	}{
		{"natty", "tech.lgbt", true, true},
		{"na-t.ty9", "", false, true},
		{"ナッティ", "", false, true},
		{"", "", false, false},
		{"nat/ty", "", false, false},
		{"nat ty", "", false, false},
		{"nat_ty", "", false, false},
		{"natty", "tech#lgbt", true, false},
		{"natty", "tech/lgbt", true, false},
		{"natty", "tech lgbt", true, false},
		{"natty", "tech\x00lgbt", true, false},
		{"natty", "tech.lgbt:8080", true, true},
	}
	for _, tt := range tests {
		err := Validate(tt.name, tt.host, tt.hasHost)
		if tt.ok && err != nil {
			t.Errorf("Validate(%q, %q) unexpected error: %v", tt.name, tt.host, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidTag) {
			t.Errorf("Validate(%q, %q) err = %v, want ErrInvalidTag", tt.name, tt.host, err)
		}
	}
}

func TestParse_NoDecoding(t *testing.T) {
	if _, err := Parse("natty%2Dx@tech.lgbt"); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("raw percent sign should be rejected, err = %v", err)
	}
	tag, err := Parse("@natty@tech.lgbt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tag != (Tag{Name: "natty", Host: "tech.lgbt"}) {
		t.Errorf("tag = %+v", tag)
	}
}

func TestParseDecoded(t *testing.T) {
	tag, err := ParseDecoded("natty%2Dx@tech%2Elgbt")
	if err != nil {
		t.Fatalf("ParseDecoded: %v", err)
	}
	if tag.Name != "natty-x" || tag.Host != "tech.lgbt" {
		t.Errorf("tag = %+v", tag)
	}

	// Host decoding happens before validation.
	if _, err := ParseDecoded("natty@tech%2Flgbt"); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("decoded slash in host: err = %v, want ErrInvalidTag", err)
	}
	// Splitting happens on the raw tag, so a decoded @ lands in the name and
	// fails name validation. This is intentional; the result is never the
	// name "natty@test".
	if _, err := ParseDecoded("natty%40test@tech.lgbt"); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("decoded @ in name: err = %v, want ErrInvalidTag", err)
	}
}

func TestParseDecoded_BadEncoding(t *testing.T) {
	for _, in := range []string{"natty%zz@tech.lgbt", "natty@tech%", "natty%ff@tech.lgbt"} {
		if _, err := ParseDecoded(in); !errors.Is(err, ErrInvalidEncoding) {
			t.Errorf("ParseDecoded(%q) err = %v, want ErrInvalidEncoding", in, err)
		}
	}
}

func TestTag_StringAndAcct(t *testing.T) {
	tag := Tag{Name: "natty", Host: "tech.lgbt"}
	if tag.String() != "natty@tech.lgbt" {
		t.Errorf("String = %q", tag.String())
	}
	if tag.Acct() != webmodel.NewAcct("natty@tech.lgbt") {
		t.Errorf("Acct = %q", tag.Acct().Unprefixed())
	}
	if (Tag{Name: "natty"}).String() != "natty" {
		t.Error("tag without host should print the bare name")
	}
}

func TestFromAcctDecoded(t *testing.T) {
	tag, err := FromAcctDecoded(webmodel.ParseAcct("acct:natty@tech.lgbt"))
	if err != nil {
		t.Fatal(err)
	}
	if tag.Name != "natty" || tag.Host != "tech.lgbt" {
		t.Errorf("tag = %+v", tag)
	}
}
