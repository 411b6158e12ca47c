// Package metadata reads and writes the host metadata document kept in
// a remote repository variable. The slot is advisory inventory, not a
// lock: reads degrade to an empty document wherever they can, writes
// surface transport failures to the caller and are never retried here.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"dockhand/config"
	"dockhand/logger"
	"dockhand/types"
)

type (
	Client interface {
		// Read fetches the document. A missing slot is an empty
		// document, not an error.
		Read(ctx context.Context) (Document, error)
		// Write stores raw as the new document. raw must already be
		// valid JSON; nothing is sent otherwise.
		Write(ctx context.Context, raw []byte) error
		// WriteDocument marshals doc and stores it.
		WriteDocument(ctx context.Context, doc Document) error
	}

	client struct {
		httpClient *http.Client
		cfg        config.Metadata
	}

	variablePayload struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
)

func NewClient(cfg config.Metadata) (Client, error) {
	if cfg.Token == "" {
		return nil, types.Configurationf("metadata token is not set (METADATA_TOKEN)")
	}
	if cfg.Repository == "" {
		return nil, types.Configurationf("metadata repository is not set (METADATA_REPOSITORY)")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.Variable == "" {
		cfg.Variable = "DROPLET_METADATA"
	}

	return &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
	}, nil
}

func (c *client) Read(ctx context.Context) (Document, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.variableURL(), nil)
	if err != nil {
		return nil, types.Transportf(err, "fetching metadata variable")
	}
	if status == http.StatusNotFound {
		return Document{}, nil
	}
	if status < 200 || status > 299 {
		return nil, types.Transportf(nil, "fetching metadata variable: unexpected status %d: %s", status, body)
	}

	var payload variablePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, types.Transportf(err, "decoding metadata variable response")
	}

	doc := Document{}
	if err := json.Unmarshal([]byte(payload.Value), &doc); err != nil {
		logger.Warn("metadata slot holds invalid JSON, treating as empty",
			zap.String("variable", c.cfg.Variable), zap.Error(err))
		return Document{}, nil
	}
	return doc, nil
}

func (c *client) Write(ctx context.Context, raw []byte) error {
	if !json.Valid(raw) {
		return types.Validationf("metadata document is not valid JSON")
	}

	payload, err := json.Marshal(variablePayload{Name: c.cfg.Variable, Value: string(raw)})
	if err != nil {
		return err
	}

	status, _, err := c.do(ctx, http.MethodGet, c.variableURL(), nil)
	if err != nil {
		return types.Transportf(err, "probing metadata variable")
	}

	if status == http.StatusNotFound {
		status, body, err := c.do(ctx, http.MethodPost, c.collectionURL(), payload)
		if err != nil {
			return types.Transportf(err, "creating metadata variable")
		}
		if status < 200 || status > 299 {
			return types.Transportf(nil, "creating metadata variable: unexpected status %d: %s", status, body)
		}
		return nil
	}

	status, body, err := c.do(ctx, http.MethodPatch, c.variableURL(), payload)
	if err != nil {
		return types.Transportf(err, "updating metadata variable")
	}
	if status < 200 || status > 299 {
		return types.Transportf(nil, "updating metadata variable: unexpected status %d: %s", status, body)
	}
	return nil
}

func (c *client) WriteDocument(ctx context.Context, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.Write(ctx, raw)
}

func (c *client) do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func (c *client) collectionURL() string {
	return fmt.Sprintf("%s/repos/%s/actions/variables", c.cfg.BaseURL, c.cfg.Repository)
}

func (c *client) variableURL() string {
	return c.collectionURL() + "/" + c.cfg.Variable
}
