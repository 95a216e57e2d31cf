package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HTTPClient talks to the managed identity provider's REST API
// (Identity Toolkit wire format). One instance tracks one signed-in
// session, mirroring how the browser SDK behaves. The session token is
// unguarded, so an instance is not safe for concurrent use; give each
// session its own client.
type HTTPClient struct {
	authState

	endpoint   string
	apiKey     string
	httpClient *http.Client

	idToken string
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(endpoint, apiKey string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// post issues one provider RPC and decodes either the result or the
// provider's coded error envelope.
func (c *HTTPClient) post(ctx context.Context, action string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", action, err)
	}

	u := fmt.Sprintf("%s/v1/accounts:%s?key=%s", c.endpoint, action, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var pe providerError
		if err := json.NewDecoder(resp.Body).Decode(&pe); err == nil && pe.Error.Message != "" {
			return &Error{Code: pe.Error.Message}
		}
		return fmt.Errorf("%s returned HTTP %d", action, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s response: %w", action, err)
		}
	}
	return nil
}

type tokenResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
	PhoneNumber string `json:"phoneNumber"`
}

// accountFromToken builds the Account from the RPC response plus the ID
// token claims; email_verified only travels in the token.
func (c *HTTPClient) accountFromToken(tr *tokenResponse) *Account {
	acct := &Account{
		ID:          tr.LocalID,
		Email:       tr.Email,
		DisplayName: tr.DisplayName,
		Phone:       tr.PhoneNumber,
	}
	// Claims are read unverified: this client received the token straight
	// from the provider over TLS and does not re-check its signature, the
	// same trust model the browser SDK uses.
	if tok, _, err := jwt.NewParser().ParseUnverified(tr.IDToken, jwt.MapClaims{}); err == nil {
		if claims, ok := tok.Claims.(jwt.MapClaims); ok {
			if v, ok := claims["email_verified"].(bool); ok {
				acct.EmailVerified = v
			}
		}
	}
	return acct
}

func (c *HTTPClient) SignUp(ctx context.Context, email, password string) (*Account, error) {
	var tr tokenResponse
	err := c.post(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &tr)
	if err != nil {
		return nil, err
	}

	acct := c.accountFromToken(&tr)
	c.idToken = tr.IDToken
	c.set(acct)
	return acct, nil
}

func (c *HTTPClient) SignIn(ctx context.Context, email, password string) (*Account, error) {
	var tr tokenResponse
	err := c.post(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &tr)
	if err != nil {
		return nil, err
	}

	acct := c.accountFromToken(&tr)
	c.idToken = tr.IDToken
	c.set(acct)
	return acct, nil
}

func (c *HTTPClient) UpdateDisplayName(ctx context.Context, displayName string) error {
	if c.idToken == "" {
		return ErrNotSignedIn
	}
	err := c.post(ctx, "update", map[string]any{
		"idToken":           c.idToken,
		"displayName":       displayName,
		"returnSecureToken": false,
	}, nil)
	if err != nil {
		return err
	}

	if cur := c.get(); cur != nil {
		cur.DisplayName = displayName
		c.set(cur)
	}
	return nil
}

func (c *HTTPClient) SendEmailVerification(ctx context.Context) error {
	if c.idToken == "" {
		return ErrNotSignedIn
	}
	return c.post(ctx, "sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     c.idToken,
	}, nil)
}

func (c *HTTPClient) SendVerificationCode(ctx context.Context, phone, botToken string) (string, error) {
	var out struct {
		SessionInfo string `json:"sessionInfo"`
	}
	err := c.post(ctx, "sendVerificationCode", map[string]any{
		"phoneNumber":    phone,
		"recaptchaToken": botToken,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.SessionInfo, nil
}

func (c *HTTPClient) VerifyPhoneCode(ctx context.Context, challengeID, code string) (*PhoneCredential, error) {
	// The provider verifies on link/sign-in, not as a separate call; probe
	// with a phone sign-in so a bad or stale code is caught here.
	err := c.post(ctx, "signInWithPhoneNumber", map[string]any{
		"sessionInfo": challengeID,
		"code":        code,
	}, nil)
	if err != nil {
		return nil, err
	}
	return &PhoneCredential{ChallengeID: challengeID, Code: code}, nil
}

func (c *HTTPClient) LinkPhone(ctx context.Context, cred *PhoneCredential) error {
	if c.idToken == "" {
		return ErrNotSignedIn
	}
	var tr tokenResponse
	err := c.post(ctx, "signInWithPhoneNumber", map[string]any{
		"sessionInfo": cred.ChallengeID,
		"code":        cred.Code,
		"idToken":     c.idToken,
	}, &tr)
	if err != nil {
		return err
	}

	if tr.IDToken != "" {
		c.idToken = tr.IDToken
	}
	if cur := c.get(); cur != nil && tr.PhoneNumber != "" {
		cur.Phone = tr.PhoneNumber
		c.set(cur)
	}
	return nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context) error {
	if c.idToken == "" {
		return ErrNotSignedIn
	}
	err := c.post(ctx, "delete", map[string]any{
		"idToken": c.idToken,
	}, nil)
	if err != nil {
		return err
	}

	c.idToken = ""
	c.set(nil)
	return nil
}

func (c *HTTPClient) SignOut() error {
	c.idToken = ""
	c.set(nil)
	return nil
}

func (c *HTTPClient) CurrentAccount() *Account { return c.get() }
