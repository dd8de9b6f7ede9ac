// Package auth supplies OAuth credentials for the YouTube Data API.
//
// Client secrets come from the Google Cloud console download
// (client_secrets.json). The user's token is cached in token.json and
// refreshed automatically; a refreshed token is written back so the refresh
// token survives restarts.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/jonathan/trend-relay/internal/storage"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes needed to read trending charts and upload videos.
var Scopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube.readonly",
}

// TokenProvider returns a currently valid access token.
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// FileTokenProvider implements TokenProvider from a client secrets file and
// a cached token file.
type FileTokenProvider struct {
	tokenPath string
	config    *oauth2.Config

	mu     sync.Mutex
	source oauth2.TokenSource
	last   *oauth2.Token
}

// NewFileTokenProvider reads the client secrets. The token file is read
// lazily on the first Token call so the auth command can create it.
func NewFileTokenProvider(secretsPath, tokenPath string, scopes ...string) (*FileTokenProvider, error) {
	if len(scopes) == 0 {
		scopes = Scopes
	}
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("read client secrets %s", secretsPath), Cause: err}
	}
	config, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("parse client secrets %s", secretsPath), Cause: err}
	}
	return &FileTokenProvider{tokenPath: tokenPath, config: config}, nil
}

// Config returns the OAuth client configuration.
func (p *FileTokenProvider) Config() *oauth2.Config {
	return p.config
}

// TokenPath returns the token cache location.
func (p *FileTokenProvider) TokenPath() string {
	return p.tokenPath
}

// Token returns a valid token, refreshing and re-caching it when expired.
func (p *FileTokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == nil {
		tok, err := LoadToken(p.tokenPath)
		if err != nil {
			return nil, err
		}
		p.use(ctx, tok)
	}

	tok, err := p.source.Token()
	if err != nil {
		return nil, &AuthError{Message: "refresh access token (re-run `trend_agent auth` if the grant was revoked)", Cause: err}
	}

	if p.last == nil || tok.AccessToken != p.last.AccessToken {
		if err := SaveToken(p.tokenPath, tok); err != nil {
			// The refreshed token is still usable for this process.
			log.Printf("[AUTH] Warning: failed to cache refreshed token: %v", err)
		} else {
			log.Printf("[AUTH] Refreshed access token cached to %s", p.tokenPath)
		}
		p.last = tok
	}
	return tok, nil
}

// Client returns an HTTP client that authorizes every request with Token.
// Credential failures surface as *AuthError inside the request error.
func (p *FileTokenProvider) Client(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, &providerSource{ctx: ctx, provider: p})
}

// Store replaces the cached token, e.g. after a consent flow.
func (p *FileTokenProvider) Store(ctx context.Context, tok *oauth2.Token) error {
	if err := SaveToken(p.tokenPath, tok); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.use(ctx, tok)
	return nil
}

func (p *FileTokenProvider) use(ctx context.Context, tok *oauth2.Token) {
	// Refreshes happen long after the first caller's context is done.
	refreshCtx := context.WithoutCancel(ctx)
	p.source = oauth2.ReuseTokenSource(tok, p.config.TokenSource(refreshCtx, tok))
	p.last = tok
}

type providerSource struct {
	ctx      context.Context
	provider TokenProvider
}

func (s *providerSource) Token() (*oauth2.Token, error) {
	return s.provider.Token(s.ctx)
}

// LoadToken reads a cached token. A missing file is an AuthError telling the
// operator to run the consent flow.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &AuthError{Message: fmt.Sprintf("no cached token at %s; run `trend_agent auth` first", path)}
	}
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("read token %s", path), Cause: err}
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("parse token %s", path), Cause: err}
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, &AuthError{Message: fmt.Sprintf("token %s has neither access nor refresh token", path)}
	}
	return &tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return &AuthError{Message: "encode token", Cause: err}
	}
	if err := storage.WriteFileAtomic(path, data, 0600); err != nil {
		return &AuthError{Message: fmt.Sprintf("write token %s", path), Cause: err}
	}
	return nil
}
