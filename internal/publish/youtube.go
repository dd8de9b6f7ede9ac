// Package publish uploads finished clips to YouTube.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/jonathan/trend-relay/internal/auth"
	"github.com/jonathan/trend-relay/internal/types"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Upload defaults carried over from the original scripts.
const (
	DefaultCategoryID    = "23" // Comedy
	DefaultPrivacyStatus = "public"
)

// quotaReasons are googleapi error reasons that mean "try again tomorrow".
var quotaReasons = map[string]bool{
	"quotaExceeded":       true,
	"uploadLimitExceeded": true,
	"dailyLimitExceeded":  true,
}

// Publisher uploads a file with metadata and returns the remote video id.
type Publisher interface {
	Publish(ctx context.Context, path string, md types.Metadata) (string, error)
}

// UploadOptions are fixed per-channel upload settings.
type UploadOptions struct {
	CategoryID    string
	PrivacyStatus string
	MadeForKids   bool
}

// YouTubePublisher implements Publisher with videos.insert.
type YouTubePublisher struct {
	service *youtube.Service
	opts    UploadOptions
}

// NewYouTubePublisher creates a publisher. Uploads need OAuth, so clientOpts
// normally carries option.WithHTTPClient(provider.Client(ctx)).
func NewYouTubePublisher(ctx context.Context, opts UploadOptions, clientOpts ...option.ClientOption) (*YouTubePublisher, error) {
	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	if opts.CategoryID == "" {
		opts.CategoryID = DefaultCategoryID
	}
	if opts.PrivacyStatus == "" {
		opts.PrivacyStatus = DefaultPrivacyStatus
	}
	return &YouTubePublisher{service: svc, opts: opts}, nil
}

// Publish uploads path and returns the new video id.
func (p *YouTubePublisher) Publish(ctx context.Context, path string, md types.Metadata) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &PublishError{Path: path, Message: "open artifact", Cause: err}
	}
	defer f.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       md.Title,
			Description: md.Description,
			Tags:        md.Tags,
			CategoryId:  p.opts.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           p.opts.PrivacyStatus,
			SelfDeclaredMadeForKids: p.opts.MadeForKids,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	log.Printf("[PUBLISH] Uploading %s as %q", path, md.Title)
	resp, err := p.service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(f).
		Context(ctx).
		Do()
	if err != nil {
		return "", classify(path, err)
	}
	if resp.Id == "" {
		return "", &PublishError{Path: path, Message: "upload response carried no video id"}
	}
	return resp.Id, nil
}

// classify wraps an upload error. Credential rejections are surfaced as
// *auth.AuthError inside the PublishError so callers can tell them apart.
func classify(path string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized:
			return &PublishError{Path: path, Message: "upload rejected",
				Cause: &auth.AuthError{Message: "credentials rejected by YouTube", Cause: err}}
		case gerr.Code == http.StatusForbidden && hasQuotaReason(gerr):
			return &PublishError{Path: path, Message: "upload quota exhausted", QuotaExceeded: true, Cause: err}
		}
	}
	return &PublishError{Path: path, Message: "upload failed", Cause: err}
}

func hasQuotaReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		if quotaReasons[item.Reason] {
			return true
		}
	}
	return false
}
