package remote

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AuthConfig authenticates requests to the remote instance. A static
// Token takes precedence over the client credentials grant.
type AuthConfig struct {
	Token string

	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// httpClient returns a client that attaches a bearer token to each
// request. Tokens from the client credentials grant are cached and
// refreshed before they expire.
func (a *AuthConfig) httpClient(base *http.Client) *http.Client {
	if a == nil || (a.Token == "" && a.TokenURL == "") {
		return base
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	var client *http.Client
	if a.Token != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: a.Token, TokenType: "Bearer"}))
	} else {
		cc := &clientcredentials.Config{
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			TokenURL:     a.TokenURL,
			Scopes:       a.Scopes,
		}
		client = cc.Client(ctx)
	}
	client.Timeout = base.Timeout
	return client
}
