package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"tidex/internal/server"
	"tidex/internal/shared"
)

// AuthLogin authenticates against Tidal. The default path is the device-code
// grant: a short code is printed, the user approves it in any browser, and
// the CLI polls until the grant completes. With --browser a localhost
// callback server handles the redirect flow instead.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	tidal, err := r.tidal()
	if err != nil {
		return err
	}

	tidal.OnTokenRefresh(func(*shared.TidalConfig) error {
		return r.persistConfig()
	})

	if cmd.Bool("browser") {
		return r.browserLogin(ctx, cmd)
	}

	err = tidal.LoginDeviceFlow(ctx, func(uri, code string) {
		r.writePlain("Visit https://%s to approve this login.\n", uri)
		r.writePlain("Your code: %s\n\n", code)
		r.writePlain("Waiting for approval...\n")

		if !cmd.Bool("no-open") {
			if err := shared.OpenBrowser("https://" + uri); err != nil {
				r.logger.Debug("could not open browser", "error", err)
			}
		}
	})
	if err != nil {
		return err
	}

	r.logger.Info("authenticated", "user", r.config.Credentials.Tidal.UserID)
	return r.writePlain("✓ Logged in to Tidal\n")
}

// browserLogin runs the redirect flow: start a one-shot callback server,
// open the authorization URL, and exchange the returned code.
func (r *Runner) browserLogin(ctx context.Context, cmd *cli.Command) error {
	tidal, err := r.tidal()
	if err != nil {
		return err
	}

	state := shared.GenerateState()
	handler := server.NewCallbackHandler(state)

	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Serve(serverCtx, r.config.Server.Addr(), handler, server.RequestLogger(r.logger))
	}()

	authURL := tidal.AuthURL(state)
	r.writePlain("Opening %s\n", authURL)
	if !cmd.Bool("no-open") {
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Debug("could not open browser", "error", err)
			r.writePlain("Open the URL above in your browser to continue.\n")
		}
	}

	select {
	case result := <-handler.Result():
		stopServer()
		if result.Error() != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
		}
		if err := tidal.Exchange(ctx, result.Code); err != nil {
			return err
		}
	case err := <-serverErr:
		return fmt.Errorf("callback server failed: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}

	return r.writePlain("✓ Logged in to Tidal\n")
}

// AuthStatus reports whether stored credentials are present and current.
// With --json the state is printed as a machine-readable document.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	tidal := &r.config.Credentials.Tidal

	if cmd.Bool("json") {
		status := struct {
			ClientID    string `json:"client_id,omitempty"`
			LoggedIn    bool   `json:"logged_in"`
			UserID      string `json:"user_id,omitempty"`
			CountryCode string `json:"country_code,omitempty"`
			ExpiresAt   int64  `json:"expires_at,omitempty"`
		}{tidal.ClientID, tidal.AccessToken != "", tidal.UserID, tidal.CountryCode, tidal.ExpiresAt}

		out, err := shared.MarshalJSON(status, true)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", out)
	}

	if tidal.ClientID == "" {
		r.writePlain("✗ No client credentials configured (%s)\n", r.configPath)
		return nil
	}
	r.writePlain("Client ID: %s\n", tidal.ClientID)

	if tidal.AccessToken == "" {
		r.writePlain("✗ Not logged in. Run 'tidex auth login'.\n")
		return nil
	}

	r.writePlain("✓ Logged in")
	if tidal.UserID != "" {
		r.writePlain(" as user %s", tidal.UserID)
	}
	if tidal.CountryCode != "" {
		r.writePlain(" (%s)", tidal.CountryCode)
	}
	r.writePlain("\n")

	if tidal.ExpiresAt > 0 {
		expires := time.Unix(tidal.ExpiresAt, 0)
		if time.Now().After(expires) {
			r.writePlain("Access token expired %s; it will refresh on the next request.\n", expires.Format(time.RFC1123))
		} else {
			r.writePlain("Access token valid until %s.\n", expires.Format(time.RFC1123))
		}
	}

	return nil
}
