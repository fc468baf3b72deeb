package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

const DefaultTokenURL = "https://oauth2.googleapis.com/token"

var ErrMissingCredentials = errors.New("google oauth credentials are not configured")

type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Missing names the environment keys of absent credentials.
func (c Credentials) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if strings.TrimSpace(c.RefreshToken) == "" {
		missing = append(missing, "GOOGLE_REFRESH_TOKEN")
	}
	return missing
}

// TokenError is a non-2xx answer from the token endpoint.
type TokenError struct {
	StatusCode int
	Body       string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("failed to refresh google access token: %d - %s", e.StatusCode, e.Body)
}

// TokenClient exchanges the refresh token for an access token. Every call
// performs a fresh exchange.
type TokenClient struct {
	creds      Credentials
	tokenURL   string
	httpClient *http.Client
}

func NewTokenClient(creds Credentials, tokenURL string, httpClient *http.Client) *TokenClient {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenClient{creds: creds, tokenURL: tokenURL, httpClient: httpClient}
}

func (c *TokenClient) AccessToken(ctx context.Context) (*oauth2.Token, error) {
	if missing := c.creds.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	cfg := oauth2.Config{
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: c.creds.RefreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, &TokenError{StatusCode: re.Response.StatusCode, Body: strings.TrimSpace(string(re.Body))}
		}
		return nil, fmt.Errorf("failed to refresh google access token: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("failed to refresh google access token: empty access_token in response")
	}
	return tok, nil
}
