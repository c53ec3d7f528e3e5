// OAuth flows for the Tidal API.
//
// The primary login path is the device-code grant: the CLI prints a short
// code, the user approves it at link.tidal.com, and the CLI polls the token
// endpoint until the grant completes. A browser-redirect flow built on
// [oauth2.Config] is also available for setups with a reachable callback.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"tidex/internal/shared"
)

const (
	tidalAuthURL   = "https://login.tidal.com/authorize"
	tidalTokenURL  = "https://auth.tidal.com/v1/oauth2/token"
	tidalDeviceURL = "https://auth.tidal.com/v1/oauth2/device_authorization"

	tidalScope = "r_usr w_usr"
)

// DeviceAuthorization holds the server's response to a device-code request.
type DeviceAuthorization struct {
	DeviceCode              string `json:"deviceCode"`
	UserCode                string `json:"userCode"`
	VerificationURI         string `json:"verificationUri"`
	VerificationURIComplete string `json:"verificationUriComplete"`
	ExpiresIn               int    `json:"expiresIn"`
	Interval                int    `json:"interval"`
}

// tidalToken is the token endpoint response. Tidal attaches the user's
// identity to the grant, which the client needs for user-scoped endpoints.
type tidalToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		UserID      int64  `json:"userId"`
		CountryCode string `json:"countryCode"`
	} `json:"user"`
	Error string `json:"error"`
}

// OAuthConfig builds the redirect-based oauth2 configuration from the
// stored credentials.
func (s *TidalService) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		RedirectURL:  s.cfg.RedirectURI,
		Scopes:       strings.Fields(tidalScope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  tidalAuthURL,
			TokenURL: tidalTokenURL,
		},
	}
}

// AuthURL returns the browser authorization URL for the redirect flow.
func (s *TidalService) AuthURL(state string) string {
	return s.OAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange completes the redirect flow with the callback's auth code.
func (s *TidalService) Exchange(ctx context.Context, code string) error {
	token, err := s.OAuthConfig().Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: code exchange: %v", shared.ErrAuthFailed, err)
	}
	return s.adoptOAuthToken(token)
}

func (s *TidalService) adoptOAuthToken(token *oauth2.Token) error {
	if err := s.cfg.Update(token); err != nil {
		return err
	}
	if s.persist != nil {
		return s.persist(s.cfg)
	}
	return nil
}

// RequestDeviceCode starts the device-code grant and returns the code the
// user must approve.
func (s *TidalService) RequestDeviceCode(ctx context.Context) (*DeviceAuthorization, error) {
	form := url.Values{}
	form.Set("client_id", s.cfg.ClientID)
	form.Set("scope", tidalScope)

	var auth DeviceAuthorization
	if err := s.postAuthForm(ctx, tidalDeviceURL, form, false, &auth); err != nil {
		return nil, fmt.Errorf("%w: device authorization: %v", shared.ErrAuthFailed, err)
	}

	if auth.Interval <= 0 {
		auth.Interval = 2
	}
	return &auth, nil
}

// PollDeviceToken polls the token endpoint until the user approves the
// device code, the code expires, or ctx is canceled.
func (s *TidalService) PollDeviceToken(ctx context.Context, auth *DeviceAuthorization) error {
	form := url.Values{}
	form.Set("client_id", s.cfg.ClientID)
	form.Set("device_code", auth.DeviceCode)
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:device_code")
	form.Set("scope", tidalScope)

	deadline := time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)
	ticker := time.NewTicker(time.Duration(auth.Interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: device code expired before approval", shared.ErrTimeout)
		}

		var token tidalToken
		if err := s.postAuthForm(ctx, tidalTokenURL, form, true, &token); err != nil {
			return err
		}

		switch token.Error {
		case "":
			return s.adoptToken(&token)
		case "authorization_pending":
			continue
		case "slow_down":
			ticker.Reset(time.Duration(auth.Interval+2) * time.Second)
		default:
			return fmt.Errorf("%w: %s", shared.ErrAuthFailed, token.Error)
		}
	}
}

// LoginDeviceFlow runs the whole device-code grant. The announce callback
// receives the verification URI and user code before polling starts.
func (s *TidalService) LoginDeviceFlow(ctx context.Context, announce func(uri, code string)) error {
	auth, err := s.RequestDeviceCode(ctx)
	if err != nil {
		return err
	}

	if announce != nil {
		announce(auth.VerificationURIComplete, auth.UserCode)
	}

	s.logger.Debug("polling for device grant", "interval", auth.Interval, "expires_in", auth.ExpiresIn)
	return s.PollDeviceToken(ctx, auth)
}

// refreshToken exchanges the stored refresh token for a new access token.
func (s *TidalService) refreshToken(ctx context.Context) error {
	if s.cfg.RefreshToken == "" {
		return shared.ErrNoRefreshToken
	}

	form := url.Values{}
	form.Set("client_id", s.cfg.ClientID)
	form.Set("refresh_token", s.cfg.RefreshToken)
	form.Set("grant_type", "refresh_token")
	form.Set("scope", tidalScope)

	var token tidalToken
	if err := s.postAuthForm(ctx, tidalTokenURL, form, true, &token); err != nil {
		return fmt.Errorf("%w: refresh: %v", shared.ErrTokenExpired, err)
	}
	if token.Error != "" {
		return fmt.Errorf("%w: refresh: %s", shared.ErrTokenExpired, token.Error)
	}

	s.logger.Debug("refreshed access token")
	return s.adoptToken(&token)
}

// adoptToken stores a token response on the config and persists it.
func (s *TidalService) adoptToken(token *tidalToken) error {
	s.cfg.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.cfg.RefreshToken = token.RefreshToken
	}
	s.cfg.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second).Unix()
	if token.User.UserID != 0 {
		s.cfg.UserID = strconv.FormatInt(token.User.UserID, 10)
	}
	if token.User.CountryCode != "" {
		s.cfg.CountryCode = token.User.CountryCode
	}

	if s.persist != nil {
		return s.persist(s.cfg)
	}
	return nil
}

// postAuthForm posts a form to an auth endpoint outside the API base URL.
// Unlike API calls, 4xx responses are decoded rather than rejected so the
// caller can read OAuth error codes like authorization_pending.
func (s *TidalService) postAuthForm(ctx context.Context, endpoint string, form url.Values, basicAuth bool, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicAuth {
		req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decoding auth response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}
