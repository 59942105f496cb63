package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/example/attendance-tracker/internal/config"
)

// UserInfo is the subset of the provider's userinfo response the gate
// cares about.
type UserInfo struct {
	Subject  string `json:"sub"`
	Username string `json:"preferred_username"`
}

// OIDCClient talks to the OpenID Connect provider. Endpoints derive
// from the issuer using the Keycloak path layout unless overridden.
type OIDCClient struct {
	oauth       oauth2.Config
	userinfoURL string
	logoutURL   string
	client      *http.Client
}

// NewOIDCClient builds a provider client from configuration.
func NewOIDCClient(cfg config.Config) *OIDCClient {
	base := cfg.OIDCIssuer + "/protocol/openid-connect"

	authURL := cfg.OIDCAuthorizationEndpoint
	if authURL == "" {
		authURL = base + "/auth"
	}
	tokenURL := cfg.OIDCTokenEndpoint
	if tokenURL == "" {
		tokenURL = base + "/token"
	}
	userinfoURL := cfg.OIDCUserinfoEndpoint
	if userinfoURL == "" {
		userinfoURL = base + "/userinfo"
	}
	logoutURL := cfg.OIDCLogoutEndpoint
	if logoutURL == "" {
		logoutURL = base + "/logout"
	}

	timeout := cfg.OIDCHTTPTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &OIDCClient{
		oauth: oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			Scopes:       splitScopes(cfg.OIDCScopes),
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		userinfoURL: userinfoURL,
		logoutURL:   logoutURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// AuthorizationURL builds the provider redirect carrying a fresh state
// and nonce.
func (c *OIDCClient) AuthorizationURL(state, nonce string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce))
}

// Exchange trades the callback code for provider tokens.
func (c *OIDCClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("トークンの取得に失敗しました: %w", err)
	}
	return token, nil
}

// Userinfo fetches the subject and preferred username for a token.
func (c *OIDCClient) Userinfo(ctx context.Context, token *oauth2.Token) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return UserInfo{}, err
	}
	token.SetAuthHeader(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("ユーザー情報の取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, fmt.Errorf("ユーザー情報の取得に失敗しました: ステータス %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return UserInfo{}, err
	}
	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return UserInfo{}, fmt.Errorf("ユーザー情報の形式が不正です: %w", err)
	}
	if info.Subject == "" {
		return UserInfo{}, fmt.Errorf("ユーザー情報に sub が含まれていません")
	}
	return info, nil
}

// LogoutURL builds the provider's end-session redirect. The post
// logout redirect must be an absolute URL; relative URIs break some
// providers.
func (c *OIDCClient) LogoutURL(idToken, postLogoutRedirect string) string {
	values := url.Values{}
	if idToken != "" {
		values.Set("id_token_hint", idToken)
	}
	if postLogoutRedirect != "" {
		values.Set("post_logout_redirect_uri", postLogoutRedirect)
	}
	if len(values) == 0 {
		return c.logoutURL
	}
	return c.logoutURL + "?" + values.Encode()
}

func splitScopes(scopes string) []string {
	return strings.Fields(scopes)
}
