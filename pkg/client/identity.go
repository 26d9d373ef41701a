// File: pkg/client/identity.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// IdentityProvider authenticates a user against an external identity
// service and returns a short-lived identity token the backend can verify.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (idToken string, err error)
	SignOut(ctx context.Context) error
}

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// FirebaseIdentityProvider signs in against the Firebase Identity Toolkit
// REST API using a web API key.
type FirebaseIdentityProvider struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

var _ IdentityProvider = (*FirebaseIdentityProvider)(nil)

// NewFirebaseIdentityProvider creates a provider for the given web API key.
func NewFirebaseIdentityProvider(apiKey string) *FirebaseIdentityProvider {
	return &FirebaseIdentityProvider{
		apiKey:     apiKey,
		endpoint:   identityToolkitURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SignIn verifies the password and returns the provider-issued ID token.
func (p *FirebaseIdentityProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return "", fmt.Errorf("encoding sign-in request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint+"?key="+p.apiKey, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity provider sign-in: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var errBody struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(res.Body).Decode(&errBody) == nil && errBody.Error.Message != "" {
			return "", fmt.Errorf("identity provider rejected sign-in: %s", errBody.Error.Message)
		}
		return "", fmt.Errorf("identity provider sign-in failed: status %d", res.StatusCode)
	}

	var body struct {
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding sign-in response: %w", err)
	}
	if body.IDToken == "" {
		return "", fmt.Errorf("identity provider returned an empty token")
	}
	return body.IDToken, nil
}

// SignOut is a no-op for the REST provider: it issues no durable client
// session of its own, so there is nothing to revoke locally.
func (p *FirebaseIdentityProvider) SignOut(ctx context.Context) error {
	return nil
}
