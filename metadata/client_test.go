package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dockhand/config"
	"dockhand/logger"
	"dockhand/types"
)

func TestMain(m *testing.M) {
	_ = logger.Init("error")
	os.Exit(m.Run())
}

func testConfig(baseURL string) config.Metadata {
	return config.Metadata{
		Token:      "test-token",
		Repository: "acme/deploy",
		BaseURL:    baseURL,
		Variable:   "DROPLET_METADATA",
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(config.Metadata{Repository: "acme/deploy"})
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.KindOf(err))

	_, err = NewClient(config.Metadata{Token: "t"})
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.KindOf(err))
}

func TestReadMissingSlotIsEmptyDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/deploy/actions/variables/DROPLET_METADATA", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	doc, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestReadParsesDocument(t *testing.T) {
	value := `{"droplet":{"ip":"203.0.113.10","ssh_port":2222},"applications":[{"domain":"example.com","identity":"examplecom","port":9000}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "DROPLET_METADATA", "value": value})
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	doc, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.10", doc.DropletIP())
	assert.Equal(t, 2222, doc.SSHPort())
	require.Len(t, doc.Applications(), 1)
	assert.Equal(t, "examplecom", doc.Applications()[0].Identity)
}

func TestReadInvalidJSONDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "DROPLET_METADATA", "value": "not json"})
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	doc, err := c.Read(context.Background())
	require.NoError(t, err, "corrupt slot content is advisory, not fatal")
	assert.Empty(t, doc)
}

func TestReadTransportFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.Read(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrTransport, types.KindOf(err))
}

func TestWriteRejectsInvalidJSONBeforeNetwork(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	err = c.Write(context.Background(), []byte("not json"))
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.KindOf(err))
	assert.Zero(t, requests, "no network call may happen for malformed input")
}

func TestWriteCreatesWhenSlotMissing(t *testing.T) {
	var created variablePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost:
			assert.Equal(t, "/repos/acme/deploy/actions/variables", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, c.Write(context.Background(), []byte(`{"droplet":{"ip":"203.0.113.10"}}`)))
	assert.Equal(t, "DROPLET_METADATA", created.Name)
	assert.JSONEq(t, `{"droplet":{"ip":"203.0.113.10"}}`, created.Value)
}

func TestWriteUpdatesExistingSlot(t *testing.T) {
	patched := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]string{"name": "DROPLET_METADATA", "value": "{}"})
		case http.MethodPatch:
			patched = true
			assert.Equal(t, "/repos/acme/deploy/actions/variables/DROPLET_METADATA", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, c.Write(context.Background(), []byte(`{}`)))
	assert.True(t, patched)
}

func TestWriteTransportFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]string{"name": "DROPLET_METADATA", "value": "{}"})
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	err = c.Write(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.Equal(t, types.ErrTransport, types.KindOf(err))
}
