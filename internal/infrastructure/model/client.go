// Package model contains JSON-over-HTTP clients for the external scoring
// back-ends: the speaker-embedding extractor, the anti-spoof
// sub-classifiers, and the speech-to-text engine. Model internals are out
// of scope for this core; each client is the narrow adapter contract those
// services are consumed through.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultClientTimeout = 10 * time.Second

// client is the shared POST-audio/decode-JSON plumbing.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// postAudio sends the raw audio payload to path and decodes the JSON
// response into out. Non-2xx responses become errors carrying the body's
// first line for diagnosis.
func (c client) postAudio(ctx context.Context, path string, audio []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(audio))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("call %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// EmbeddingClient calls the speaker-embedding extraction service.
type EmbeddingClient struct {
	client
}

func NewEmbeddingClient(baseURL string, timeout time.Duration) *EmbeddingClient {
	return &EmbeddingClient{client: newClient(baseURL, timeout)}
}

func (c *EmbeddingClient) Extract(ctx context.Context, audio []byte) ([]float64, error) {
	var resp struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := c.postAudio(ctx, "/v1/embed", audio, &resp); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// SpoofClient calls one anti-spoof sub-classifier service.
type SpoofClient struct {
	client
	name string
}

func NewSpoofClient(baseURL, name string, timeout time.Duration) *SpoofClient {
	return &SpoofClient{client: newClient(baseURL, timeout), name: name}
}

func (c *SpoofClient) Genuineness(ctx context.Context, audio []byte) (float64, error) {
	var resp struct {
		Genuineness float64 `json:"genuineness"`
	}
	if err := c.postAudio(ctx, "/v1/classify", audio, &resp); err != nil {
		return 0, err
	}
	return resp.Genuineness, nil
}

func (c *SpoofClient) Name() string {
	return c.name
}

// TranscriberClient calls the speech-to-text service.
type TranscriberClient struct {
	client
}

func NewTranscriberClient(baseURL string, timeout time.Duration) *TranscriberClient {
	return &TranscriberClient{client: newClient(baseURL, timeout)}
}

func (c *TranscriberClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var resp struct {
		Text string `json:"text"`
	}
	if err := c.postAudio(ctx, "/v1/transcribe", audio, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}
