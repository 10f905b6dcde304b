package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/sakif/blogdeck/internal/model"
)

// githubProfile is the slice of GitHub's /user response this app needs.
type githubProfile struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"` // empty when hidden in GitHub settings
	Name  string `json:"name"`
}

// GitHubProvider is the federated authenticator variant: the OAuth2
// authorization-code flow against GitHub, producing the same session
// identity shape as the other variants. It is registered only when client
// credentials are configured.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a provider for the given OAuth app credentials.
// callbackURL must match the app's registered authorization callback URL.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the GitHub authorization URL the browser is redirected
// to. state must be a random single-use value the callback verifies.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the flow: trades the authorization code for an access
// token, fetches the GitHub profile with it, and maps the profile to a
// session User. The token itself is discarded; only the identity matters
// here.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*model.User, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	client := p.config.Client(ctx, oauthToken)
	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("auth: fetching GitHub profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub profile request returned %s", resp.Status)
	}

	var profile githubProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub profile: %w", err)
	}

	email := profile.Email
	if email == "" {
		// GitHub hides the address when the user opted out; synthesize the
		// noreply form so the session still has a stable email identity.
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", profile.ID, profile.Login)
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = profile.Login
	}

	return &model.User{
		ID:        xid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
	}, nil
}
