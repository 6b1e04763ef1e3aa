// internal/common/auth/keycloak.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"rumble-survey/internal/common/errors"
	httpclient "rumble-survey/internal/common/http"
)

// KeycloakClient issues disposable respondent accounts through the Keycloak
// admin API using a confidential client's service account.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *httpclient.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// User represents a user in Keycloak.
type User struct {
	ID         string              `json:"id,omitempty"`
	Username   string              `json:"username"`
	Enabled    bool                `json:"enabled"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

// TokenResponse holds the response from Keycloak's token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// NewKeycloakClient creates a new instance of KeycloakClient.
func NewKeycloakClient(baseURL, realm, clientID, clientSecret string, timeout time.Duration) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpclient.NewClient(timeout),
	}
}

// getAccessToken fetches a token with the client credentials grant and caches
// it until shortly before expiry.
func (k *KeycloakClient) getAccessToken(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.accessToken != "" && k.tokenExpiry.After(time.Now()) {
		return k.accessToken, nil
	}

	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &tokenError{status: resp.StatusCode, body: string(body)}
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	k.accessToken = tokenResp.AccessToken
	// refresh 10s early so a token never expires mid-request
	k.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - 10*time.Second)

	return k.accessToken, nil
}

type tokenError struct {
	status int
	body   string
}

func (e *tokenError) Error() string {
	return fmt.Sprintf("keycloak token request failed with status %d: %s", e.status, e.body)
}

// CreateUser creates a user and returns it with the ID taken from the Location header.
func (k *KeycloakClient) CreateUser(ctx context.Context, user *User) (*User, error) {
	token, err := k.getAccessToken(ctx)
	if err != nil {
		stdErr := errors.NewIdentityUnavailableError("keycloak", err)
		if te, ok := err.(*tokenError); ok {
			stdErr.Retryable = isTransientHTTPError(te.status)
		}
		return nil, stdErr
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return nil, errors.NewIdentityUnavailableError("keycloak", fmt.Errorf("failed to serialize user: %w", err))
	}

	userURL := fmt.Sprintf("%s/admin/realms/%s/users", k.baseURL, k.realm)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, userURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewIdentityUnavailableError("keycloak", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewIdentityUnavailableError("keycloak", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		stdErr := errors.NewIdentityUnavailableError("keycloak",
			fmt.Errorf("user creation failed with status %d: %s", resp.StatusCode, string(body)))
		stdErr.Retryable = isTransientHTTPError(resp.StatusCode)
		return nil, stdErr.WithMetadata("status", resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, errors.NewIdentityUnavailableError("keycloak", fmt.Errorf("user created without a Location header"))
	}
	parts := strings.Split(strings.TrimSuffix(location, "/"), "/")

	created := *user
	created.ID = parts[len(parts)-1]
	return &created, nil
}

// CreateAnonymousUser registers a respondent account with no personal data.
// The username is derived from the caller-supplied handle; the kiosk tag is
// stored as an attribute so accounts can be purged per device.
func (k *KeycloakClient) CreateAnonymousUser(ctx context.Context, handle, kiosk string) (*User, error) {
	return k.CreateUser(ctx, &User{
		Username: "anon-" + handle,
		Enabled:  true,
		Attributes: map[string][]string{
			"anonymous": {"true"},
			"kiosk":     {kiosk},
		},
	})
}

// isTransientHTTPError returns true if the HTTP status code indicates a potentially transient error.
func isTransientHTTPError(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
