package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ConsentTimeout bounds how long Consent waits for the browser redirect.
const ConsentTimeout = 5 * time.Minute

// Consent runs the installed-app authorization flow. It listens on a
// loopback port, prints the consent URL to out, and exchanges the code the
// browser is redirected back with. Offline access is requested so the
// returned token carries a refresh token.
func Consent(ctx context.Context, config *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, &AuthError{Message: "listen for redirect", Cause: err}
	}
	defer listener.Close()

	cfg := *config
	cfg.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr().String())

	state, err := randomState()
	if err != nil {
		return nil, &AuthError{Message: "generate state", Cause: err}
	}
	verifier := oauth2.GenerateVerifier()

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)
	fmt.Fprintf(out, "Open this URL in a browser and approve access:\n\n  %s\n\n", authURL)

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)

	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			// Only the authorization redirect settles the flow; favicon
			// fetches and prefetches are ignored.
			if q.Get("code") == "" && q.Get("error") == "" {
				http.NotFound(w, r)
				return
			}
			var res result
			switch {
			case q.Get("error") != "":
				res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
			case q.Get("state") != state:
				res.err = errors.New("state mismatch in redirect")
			default:
				res.code = q.Get("code")
			}
			if res.err != nil {
				http.Error(w, res.err.Error(), http.StatusBadRequest)
			} else {
				fmt.Fprintln(w, "Authorization complete. You can close this window.")
			}
			select {
			case results <- res:
			default:
			}
		}),
	}
	go func() { _ = srv.Serve(listener) }()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(ctx, ConsentTimeout)
	defer cancel()

	var res result
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, &AuthError{Message: "waiting for browser redirect", Cause: ctx.Err()}
	}
	if res.err != nil {
		return nil, &AuthError{Message: "consent", Cause: res.err}
	}

	tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, &AuthError{Message: "exchange authorization code", Cause: err}
	}
	if tok.RefreshToken == "" {
		return nil, &AuthError{Message: "token response had no refresh token"}
	}
	return tok, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
