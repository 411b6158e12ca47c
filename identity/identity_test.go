package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	cases := []struct {
		domain string
		want   string
	}{
		{"EXAMPLE.COM", "examplecom"},
		{"example.com", "examplecom"},
		{"my-app.example.com", "myappexamplecom"},
		{"api.staging.example.io", "apistagingexampleio"},
		{"", ""},
		{"!!!", ""},
		{"...---...", ""},
		{"123.example.com", "123examplecom"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Derive(c.domain), "Derive(%q)", c.domain)
	}
}

func TestDeriveTruncatesAtLimit(t *testing.T) {
	got := Derive("verylongdomainname123456789012345678901234567890.com")
	assert.Len(t, got, MaxLength)
	assert.Equal(t, "verylongdomainname12345678901234", got)
}

func TestDeriveIsDeterministic(t *testing.T) {
	domains := []string{"example.com", "My-App.Example.COM", "x.y.z", "ünïcödé.com"}
	for _, d := range domains {
		assert.Equal(t, Derive(d), Derive(d))
	}
}

func TestDeriveOutputAlphabet(t *testing.T) {
	for _, d := range []string{"WWW.Example-Site.org", "ünïcödé.→.com", "UPPER.CASE"} {
		got := Derive(d)
		for _, r := range got {
			legal := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
			assert.True(t, legal, "illegal rune %q in %q", r, got)
		}
		assert.LessOrEqual(t, len(got), MaxLength)
	}
}

func TestDeriveCollision(t *testing.T) {
	// Known design gap: derivation is not injective. The uniqueness
	// check against the metadata inventory is what catches this at
	// provisioning time.
	assert.Equal(t, Derive("a-b.com"), Derive("ab.com"))
}

func TestServiceNaming(t *testing.T) {
	assert.Equal(t, "app-examplecom", ServiceName("examplecom"))
	assert.Equal(t, "app-examplecom.service", UnitFileName("examplecom"))
	assert.True(t, strings.HasPrefix(ServiceName("x"), "app-"))
}

func TestIsRootDomain(t *testing.T) {
	assert.True(t, IsRootDomain("example.com"))
	assert.False(t, IsRootDomain("api.example.com"))
	assert.False(t, IsRootDomain("localhost"))
}
