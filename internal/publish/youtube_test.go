package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/trend-relay/internal/auth"
	"github.com/jonathan/trend-relay/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type upload struct {
	method   string
	path     string
	query    map[string][]string
	metadata map[string]any
	media    string
}

// newTestPublisher serves videos.insert. status/body override the reply.
func newTestPublisher(t *testing.T, opts UploadOptions, status int, body string) (*YouTubePublisher, chan upload) {
	t.Helper()
	uploads := make(chan upload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := upload{method: r.Method, path: r.URL.Path, query: r.URL.Query()}

		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err == nil && params["boundary"] != "" {
			mr := multipart.NewReader(r.Body, params["boundary"])
			if part, err := mr.NextPart(); err == nil {
				_ = json.NewDecoder(part).Decode(&u.metadata)
			}
			if part, err := mr.NextPart(); err == nil {
				data, _ := io.ReadAll(part)
				u.media = string(data)
			}
		}
		uploads <- u

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	p, err := NewYouTubePublisher(context.Background(), opts,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return p, uploads
}

func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "final.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video-bytes"), 0644))
	return path
}

func TestPublish_Success(t *testing.T) {
	p, uploads := newTestPublisher(t, UploadOptions{}, http.StatusOK, `{"id":"remote123"}`)
	md := types.Metadata{Title: "Funny", Description: "desc", Tags: []string{"trending", "funny"}}

	id, err := p.Publish(context.Background(), writeClip(t), md)
	require.NoError(t, err)
	assert.Equal(t, "remote123", id)

	u := <-uploads
	assert.Equal(t, http.MethodPost, u.method)
	assert.True(t, strings.HasSuffix(u.path, "/videos"))
	assert.Equal(t, "multipart", u.query["uploadType"][0])
	assert.Equal(t, "video-bytes", u.media)

	snippet := u.metadata["snippet"].(map[string]any)
	assert.Equal(t, "Funny", snippet["title"])
	assert.Equal(t, "23", snippet["categoryId"])
	assert.Equal(t, []any{"trending", "funny"}, snippet["tags"])

	status := u.metadata["status"].(map[string]any)
	assert.Equal(t, "public", status["privacyStatus"])
	assert.Equal(t, false, status["selfDeclaredMadeForKids"])
}

func TestPublish_Options(t *testing.T) {
	p, uploads := newTestPublisher(t, UploadOptions{CategoryID: "24", PrivacyStatus: "private", MadeForKids: true},
		http.StatusOK, `{"id":"r"}`)

	_, err := p.Publish(context.Background(), writeClip(t), types.Metadata{Title: "t"})
	require.NoError(t, err)

	u := <-uploads
	assert.Equal(t, "24", u.metadata["snippet"].(map[string]any)["categoryId"])
	status := u.metadata["status"].(map[string]any)
	assert.Equal(t, "private", status["privacyStatus"])
	assert.Equal(t, true, status["selfDeclaredMadeForKids"])
}

func TestPublish_QuotaExceeded(t *testing.T) {
	p, _ := newTestPublisher(t, UploadOptions{}, http.StatusForbidden,
		`{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded","message":"quota"}]}}`)

	_, err := p.Publish(context.Background(), writeClip(t), types.Metadata{Title: "t"})
	var pe *PublishError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.QuotaExceeded)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestPublish_ForbiddenOtherReason(t *testing.T) {
	p, _ := newTestPublisher(t, UploadOptions{}, http.StatusForbidden,
		`{"error":{"code":403,"message":"nope","errors":[{"reason":"forbidden"}]}}`)

	_, err := p.Publish(context.Background(), writeClip(t), types.Metadata{Title: "t"})
	var pe *PublishError
	require.True(t, errors.As(err, &pe))
	assert.False(t, pe.QuotaExceeded)
}

func TestPublish_Unauthorized(t *testing.T) {
	p, _ := newTestPublisher(t, UploadOptions{}, http.StatusUnauthorized,
		`{"error":{"code":401,"message":"Invalid Credentials","errors":[{"reason":"authError"}]}}`)

	_, err := p.Publish(context.Background(), writeClip(t), types.Metadata{Title: "t"})
	var ae *auth.AuthError
	assert.True(t, errors.As(err, &ae))
	var pe *PublishError
	assert.True(t, errors.As(err, &pe))
}

func TestPublish_EmptyID(t *testing.T) {
	p, _ := newTestPublisher(t, UploadOptions{}, http.StatusOK, `{}`)

	_, err := p.Publish(context.Background(), writeClip(t), types.Metadata{Title: "t"})
	assert.ErrorContains(t, err, "no video id")
}

func TestPublish_MissingArtifact(t *testing.T) {
	p, uploads := newTestPublisher(t, UploadOptions{}, http.StatusOK, `{"id":"x"}`)

	_, err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), types.Metadata{Title: "t"})
	var pe *PublishError
	require.True(t, errors.As(err, &pe))
	assert.Empty(t, uploads)
}
