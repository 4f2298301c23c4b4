package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// OAuthConfigFromEnv reads the OAuth client from GOOGLE_OAUTH_CLIENT_JSON
// or GOOGLE_OAUTH_CLIENT_FILE.
func OAuthConfigFromEnv() (*oauth2.Config, error) {
	b, err := readEnvOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	cfg, err := goauth.ConfigFromJSON(b, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

func tokenFromEnv() (*oauth2.Token, error) {
	b, err := readEnvOrFile("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	return &tok, nil
}

func hasOAuthClientEnv() bool {
	return strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON")) != "" ||
		strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")) != ""
}

// readEnvOrFile returns the inline value, else the file contents, else nil.
func readEnvOrFile(inlineKey, fileKey string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(inlineKey)); v != "" {
		return []byte(v), nil
	}
	path := strings.TrimSpace(os.Getenv(fileKey))
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", strings.ToLower(fileKey), err)
	}
	return b, nil
}

func newOAuthService(ctx context.Context) (*gsheet.Service, error) {
	cfg, err := OAuthConfigFromEnv()
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromEnv()
	if err != nil {
		return nil, err
	}
	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// SaveToken writes tok as JSON, readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

type AuthorizeOptions struct {
	// Addr is the loopback address receiving the redirect (default: 127.0.0.1:8085)
	Addr string

	// Timeout bounds the wait for the user to consent (default: 5m)
	Timeout time.Duration

	// OnURL is handed the consent URL the user must open.
	OnURL func(url string)
}

// Authorize runs the installed-application flow: it serves the redirect on a
// loopback listener, hands the consent URL to OnURL and exchanges the
// returned code for a token with offline access.
func Authorize(ctx context.Context, cfg *oauth2.Config, opts AuthorizeOptions) (*oauth2.Token, error) {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8085"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen for oauth redirect: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	state, err := randomState()
	if err != nil {
		ln.Close()
		return nil, err
	}

	flow := *cfg
	flow.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	type result struct {
		code string
		err  error
	}
	resultCh := make(chan result, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		var res result
		if e := q.Get("error"); e != "" {
			http.Error(w, "OAuth error: "+e, http.StatusBadRequest)
			res.err = fmt.Errorf("authorization denied: %s", e)
		} else {
			res.code = q.Get("code")
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
		}
		select {
		case resultCh <- res:
		default:
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if opts.OnURL != nil {
		opts.OnURL(flow.AuthCodeURL(state, oauth2.AccessTypeOffline))
	}

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := flow.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case <-timer.C:
		return nil, errors.New("authorization timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
