package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dockhand/types"
)

func TestAccessorDefaultsOnEmptyDocument(t *testing.T) {
	doc := Document{}

	assert.Equal(t, 22, doc.SSHPort())
	assert.Equal(t, "root", doc.SSHUser())
	assert.Equal(t, "", doc.DropletIP())
	assert.Empty(t, doc.Applications())
}

func TestAccessorsFallBackOnMalformedShapes(t *testing.T) {
	doc := Document{
		"droplet": map[string]interface{}{
			"ssh_port": "not-a-number",
			"ssh_user": "bad user!",
			"ip":       "not.an.ip.addr",
		},
	}

	assert.Equal(t, 22, doc.SSHPort())
	assert.Equal(t, "root", doc.SSHUser())
	assert.Equal(t, "", doc.DropletIP())
}

func TestAccessorsRejectOutOfRangePort(t *testing.T) {
	doc := Document{"droplet": map[string]interface{}{"ssh_port": float64(70000)}}
	assert.Equal(t, 22, doc.SSHPort())

	doc = Document{"droplet": map[string]interface{}{"ssh_port": float64(0)}}
	assert.Equal(t, 22, doc.SSHPort())
}

func TestAccessorsReturnValidValues(t *testing.T) {
	doc := Document{
		"droplet": map[string]interface{}{
			"ssh_port": float64(2222),
			"ssh_user": "deploy",
			"ip":       "203.0.113.10",
		},
	}

	assert.Equal(t, 2222, doc.SSHPort())
	assert.Equal(t, "deploy", doc.SSHUser())
	assert.Equal(t, "203.0.113.10", doc.DropletIP())
}

func TestUpsertApplication(t *testing.T) {
	doc := Document{}

	doc = doc.UpsertApplication(types.ApplicationRecord{
		Domain: "example.com", Identity: "examplecom", Port: 9000,
		MetricsPath: "/metrics", ServiceName: "app-examplecom",
	})
	require.Len(t, doc.Applications(), 1)

	// same identity replaces
	doc = doc.UpsertApplication(types.ApplicationRecord{
		Domain: "example.com", Identity: "examplecom", Port: 9001,
		MetricsPath: "/metrics", ServiceName: "app-examplecom",
	})
	require.Len(t, doc.Applications(), 1)
	assert.Equal(t, 9001, doc.Applications()[0].Port)

	// different identity appends
	doc = doc.UpsertApplication(types.ApplicationRecord{
		Domain: "api.example.com", Identity: "apiexamplecom", Port: 9002,
		MetricsPath: "/metrics", ServiceName: "app-apiexamplecom",
	})
	assert.Len(t, doc.Applications(), 2)
}

func TestEnsurePortAvailable(t *testing.T) {
	doc := Document{}.UpsertApplication(types.ApplicationRecord{
		Domain: "example.com", Identity: "examplecom", Port: 9000,
	})

	// re-provisioning the same identity at its own port is fine
	assert.NoError(t, doc.EnsurePortAvailable(9000, "examplecom"))

	// another identity taking the same port is not
	err := doc.EnsurePortAvailable(9000, "apiexamplecom")
	require.Error(t, err)
	assert.Equal(t, types.ErrStateConflict, types.KindOf(err))

	// a free port is fine for anyone
	assert.NoError(t, doc.EnsurePortAvailable(9001, "apiexamplecom"))
}

func TestEnsureIdentityAvailable(t *testing.T) {
	doc := Document{}.UpsertApplication(types.ApplicationRecord{
		Domain: "a-b.com", Identity: "abcom", Port: 9000,
	})

	// same domain re-provisioning is fine
	assert.NoError(t, doc.EnsureIdentityAvailable("abcom", "a-b.com"))

	// colliding domain is not
	err := doc.EnsureIdentityAvailable("abcom", "ab.com")
	require.Error(t, err)
	assert.Equal(t, types.ErrStateConflict, types.KindOf(err))

	// unknown identity is fine
	assert.NoError(t, doc.EnsureIdentityAvailable("newapp", "newapp.com"))
}
