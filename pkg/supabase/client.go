// Package supabase is a minimal HTTP client for the Supabase PostgREST
// and GoTrue APIs. It covers the storage collaborator contract the backend
// needs: point lookups, equality filters, inserts, conditional updates,
// and token verification. No ordering or join capability is assumed.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Filters are PostgREST query operators keyed by column, e.g.
// {"organizer_uid": "eq.abc123"}.
type Filters map[string]string

// Eq builds a single-column equality filter.
func Eq(column, value string) Filters {
	return Filters{column: "eq." + value}
}

// Client talks to one Supabase project with a service key.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient creates a new Supabase client.
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, table string, filters Filters, payload any, prefer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table), body)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	for column, op := range filters {
		q.Set(column, op)
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("supabase error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Select returns the rows of table matching the filters.
func (c *Client) Select(ctx context.Context, table string, filters Filters) ([]byte, error) {
	return c.do(ctx, http.MethodGet, table, filters, nil, "")
}

// Insert inserts one or more rows and returns the stored representation.
func (c *Client) Insert(ctx context.Context, table string, data any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, table, nil, data, "return=representation")
}

// Upsert inserts rows, merging duplicates detected on the onConflict columns.
func (c *Client) Upsert(ctx context.Context, table string, data any, onConflict string) ([]byte, error) {
	filters := Filters{"on_conflict": onConflict}
	return c.do(ctx, http.MethodPost, table, filters, data, "return=representation,resolution=merge-duplicates")
}

// Update patches the rows matching the filters and returns the updated
// representation. An empty result with combined filters doubles as a
// compare-and-swap miss: callers can filter on a version column (such as
// updated_at) and treat zero returned rows as a concurrent modification.
func (c *Client) Update(ctx context.Context, table string, filters Filters, data any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, table, filters, data, "return=representation")
}

// Delete removes the rows matching the filters.
func (c *Client) Delete(ctx context.Context, table string, filters Filters) error {
	_, err := c.do(ctx, http.MethodDelete, table, filters, nil, "")
	return err
}

// User is the identity resolved from an access token.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName    string `json:"full_name"`
		DisplayName string `json:"display_name"`
	} `json:"user_metadata"`
}

// DisplayName returns the best available human-readable name.
func (u *User) DisplayName() string {
	if u.UserMetadata.DisplayName != "" {
		return u.UserMetadata.DisplayName
	}
	if u.UserMetadata.FullName != "" {
		return u.UserMetadata.FullName
	}
	return u.Email
}

// VerifyToken verifies a user access token with GoTrue and returns the
// resolved identity.
func (c *Client) VerifyToken(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/auth/v1/user", c.baseURL), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("token verification failed (status %d): %s", resp.StatusCode, string(body))
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	return &user, nil
}

// LookupUserByEmail resolves a registered account by email via the GoTrue
// admin API. Returns nil without error when no account exists, so invite
// flows can treat unknown emails as unlinked.
func (c *Client) LookupUserByEmail(ctx context.Context, email string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/auth/v1/admin/users", c.baseURL), nil)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("email", email)
	req.URL.RawQuery = q.Encode()

	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("user lookup failed (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Users []User `json:"users"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	if len(result.Users) == 0 {
		return nil, nil
	}

	return &result.Users[0], nil
}
