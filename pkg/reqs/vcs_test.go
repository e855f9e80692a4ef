package reqs

import (
	"testing"

	"github.com/matzehuels/lockbridge/pkg/errors"
)

func TestParseVCSRef(t *testing.T) {
	ref, err := ParseVCSRef("git+https://example.com/repo.git?rev=main#abcdef1234567890")
	if err != nil {
		t.Fatalf("ParseVCSRef failed: %v", err)
	}
	if ref.Repo != "git+https://example.com/repo.git" {
		t.Errorf("Repo = %q", ref.Repo)
	}
	if ref.Ref != "main" {
		t.Errorf("Ref = %q", ref.Ref)
	}
	if ref.Revision != "abcdef1234567890" {
		t.Errorf("Revision = %q", ref.Revision)
	}
}

func TestParseVCSRef_NoRev(t *testing.T) {
	ref, err := ParseVCSRef("https://example.com/repo#deadbeef")
	if err != nil {
		t.Fatalf("ParseVCSRef failed: %v", err)
	}
	if ref.Repo != "https://example.com/repo" || ref.Ref != "" || ref.Revision != "deadbeef" {
		t.Errorf("unexpected result: %+v", ref)
	}
}

func TestParseVCSRef_Invalid(t *testing.T) {
	bad := []string{
		"git+https://example.com/repo.git?rev=main",       // missing revision
		"git+https://example.com/repo.git#ABCDEF",         // uppercase hex
		"git+https://example.com/repo.git?rev=main#not-x", // non-hex revision
		"example.com/repo#abcdef",                         // missing scheme
		"",
	}
	for _, raw := range bad {
		t.Run(raw, func(t *testing.T) {
			if _, err := ParseVCSRef(raw); !errors.Is(err, errors.ErrCodeInvalidVcsRef) {
				t.Errorf("ParseVCSRef(%q) error = %v, want INVALID_VCS_REF", raw, err)
			}
		})
	}
}
