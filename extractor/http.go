package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// HTTP calls a remote embedding service: the image is POSTed as
// application/octet-stream and the response is {"embedding": [...]}.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP creates an HTTP extractor; a nil client uses http.DefaultClient.
func NewHTTP(url string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{url: url, client: client}
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Extract implements Extractor.
func (h *HTTP) Extract(ctx context.Context, image []byte) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(image))
	if err != nil {
		return nil, &Error{Err: err}
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Err: fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))}
	}
	var out embeddingResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Err: fmt.Errorf("decode response: %w", err)}
	}
	return out.Embedding, nil
}

var _ Extractor = (*HTTP)(nil)
