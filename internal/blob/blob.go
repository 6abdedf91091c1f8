// Package blob delegates attachment payloads to the external object
// store and hands back the reference a message embeds.
package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Ref is what the blob store returns for a stored payload.
type Ref struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Store accepts a binary payload and returns a durable reference to it.
type Store interface {
	Store(ctx context.Context, data []byte, mediaType, name, category string) (*Ref, error)
}

// HTTPStore uploads to the blob service over HTTP. Every upload is
// bounded by the configured timeout; on timeout the post fails and no
// message referencing the payload is ever persisted.
type HTTPStore struct {
	uploadURL string
	client    *http.Client
}

// NewHTTPStore creates a blob client for the given upload endpoint.
func NewHTTPStore(uploadURL string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPStore{
		uploadURL: uploadURL,
		client:    &http.Client{Timeout: timeout},
	}
}

// Store uploads the payload as multipart form data and decodes the
// returned reference.
func (s *HTTPStore) Store(ctx context.Context, data []byte, mediaType, name, category string) (*Ref, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("category", category); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blob upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("blob upload: status %d: %s", resp.StatusCode, msg)
	}

	var ref Ref
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return nil, fmt.Errorf("blob upload: %w", err)
	}
	if ref.URL == "" {
		return nil, fmt.Errorf("blob upload: response carried no url")
	}
	if ref.Type == "" {
		ref.Type = mediaType
	}
	if ref.Name == "" {
		ref.Name = name
	}
	return &ref, nil
}
