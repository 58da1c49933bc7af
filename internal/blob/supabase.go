// Package blob stores résumé files and returns the URL they are served from.
//
// Two backends implement pipeline.BlobStore: Supabase Storage over its REST
// API, and a PostgreSQL bytea table served back by the HTTP surface.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const httpTimeout = 30 * time.Second

// Supabase uploads objects to one Supabase Storage bucket.
type Supabase struct {
	BaseURL    string // https://<project>.supabase.co
	ServiceKey string
	Bucket     string
	client     *http.Client
}

// NewSupabase constructs a Supabase backend with a shared HTTP client.
func NewSupabase(baseURL, serviceKey, bucket string) *Supabase {
	return &Supabase{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Bucket:     bucket,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// storageError mirrors the Supabase Storage error body.
type storageError struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// Upload POSTs body under key and returns its public URL. Error messages
// reported by Supabase are returned verbatim.
func (s *Supabase) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, s.Bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
	req.Header.Set("apikey", s.ServiceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var se storageError
		if json.Unmarshal(raw, &se) == nil && se.Message != "" {
			return "", errors.New(se.Message)
		}
		return "", fmt.Errorf("supabase storage returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return s.PublicURL(key), nil
}

// PublicURL is the URL of key in a public bucket.
func (s *Supabase) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.BaseURL, s.Bucket, key)
}
