// Package directory resolves identities to display profiles. The user
// service owning accounts is a separate deployment; this is its client.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
)

// ErrNotFound means the directory has no profile for the identity.
var ErrNotFound = errors.New("profile not found")

// Directory looks up display information for an identity.
type Directory interface {
	Lookup(ctx context.Context, id string) (*models.Profile, error)
}

// HTTPDirectory talks to the user service over HTTP.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory creates a directory client for the given base URL.
func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Lookup fetches a profile by id. A 404 maps to ErrNotFound; transport
// and server errors are returned as-is so callers can treat them as
// retryable upstream failures.
func (d *HTTPDirectory) Lookup(ctx context.Context, id string) (*models.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/api/v1/user/"+id, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("directory lookup: unexpected status %d", resp.StatusCode)
	}

	var profile models.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	if profile.ID == "" {
		profile.ID = id
	}
	return &profile, nil
}

// Static is a fixed in-memory directory used by tests and local runs
// without a user service.
type Static map[string]models.Profile

// Lookup returns the stored profile or ErrNotFound.
func (s Static) Lookup(_ context.Context, id string) (*models.Profile, error) {
	p, ok := s[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}
