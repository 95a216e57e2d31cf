package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the app server's /api/auth profile endpoints. It is what
// the signup and session flows use; they never touch the store directly.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type dataEnvelope struct {
	Data  *UserProfile `json:"data"`
	Error string       `json:"error"`
}

// Get fetches a user profile by account id. Returns ErrProfileNotFound on a
// 404 so callers can distinguish "never completed signup" from an outage.
func (c *Client) Get(ctx context.Context, userID string) (*UserProfile, error) {
	u := fmt.Sprintf("%s/api/auth/get-profile?userId=%s", c.baseURL, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	return decodeProfile(resp)
}

// Create inserts a new profile row. The payload mirrors the
// /api/auth/create-profile contract.
func (c *Client) Create(ctx context.Context, p *UserProfile) (*UserProfile, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/create-profile", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	defer resp.Body.Close()

	return decodeProfile(resp)
}

type updatePayload struct {
	UserID          string  `json:"user_id"`
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	DisplayName     *string `json:"display_name,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Role            *Role   `json:"role,omitempty"`
	IsEmailVerified *bool   `json:"is_email_verified,omitempty"`
}

// UpdateFields patches the editable profile fields for userID.
func (c *Client) UpdateFields(ctx context.Context, userID string, u Update) (*UserProfile, error) {
	payload := updatePayload{
		UserID:          userID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		DisplayName:     u.DisplayName,
		Phone:           u.Phone,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.baseURL+"/api/auth/update-profile", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	return decodeProfile(resp)
}

func decodeProfile(resp *http.Response) (*UserProfile, error) {
	var env dataEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.StatusCode >= 400 || env.Data == nil {
		if env.Error != "" {
			return nil, fmt.Errorf("profile API returned HTTP %d: %s", resp.StatusCode, env.Error)
		}
		return nil, fmt.Errorf("profile API returned HTTP %d", resp.StatusCode)
	}
	return env.Data, nil
}
