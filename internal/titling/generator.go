// Package titling writes the title, description and tags for an upload.
//
// The model is asked for a {title, description} JSON document which is
// schema-checked. Replies that are not valid documents fall back to the
// older "title on the first line, description below" convention, and a
// reply with no description gets the configured default. When the JSON-mode
// call itself fails the model is asked once more for plain text.
package titling

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/jonathan/trend-relay/internal/llm"
	"github.com/jonathan/trend-relay/internal/prompts"
	"github.com/jonathan/trend-relay/internal/schemas"
	"github.com/jonathan/trend-relay/internal/transform"
	"github.com/jonathan/trend-relay/internal/types"
)

const (
	promptFile = "titling.json"
	promptKey  = "upload-metadata"
	plainKey   = "upload-metadata-plain"

	// DefaultDescription is used when the model gives a title only.
	DefaultDescription = "Don't forget to like and subscribe for more funny videos!"
)

// Generator is the "title" transform stage.
type Generator struct {
	LLM                llm.Client
	Tier               llm.ModelTier
	DefaultDescription string
	// ExtraTags are added after "trending" on every upload.
	ExtraTags []string
}

// NewGenerator creates a Generator with the default description.
func NewGenerator(client llm.Client, tier llm.ModelTier) *Generator {
	return &Generator{
		LLM:                client,
		Tier:               tier,
		DefaultDescription: DefaultDescription,
	}
}

// Name returns the stage name.
func (g *Generator) Name() string { return transform.StageTitle }

// Apply replaces the work's metadata. The artifact is untouched.
func (g *Generator) Apply(ctx context.Context, w transform.Work) (transform.Work, error) {
	md, err := g.Generate(ctx, w.Candidate)
	if err != nil {
		return w, &transform.TransformError{Stage: transform.StageTitle, Message: "generate metadata", Cause: err}
	}
	w.Metadata = md
	return w, nil
}

// Generate asks the model for upload metadata for candidate.
func (g *Generator) Generate(ctx context.Context, candidate types.VideoCandidate) (types.Metadata, error) {
	if g.LLM == nil {
		return types.Metadata{}, &GenerationError{Message: "no LLM client configured"}
	}

	prompt, err := prompts.Render(promptFile, promptKey, map[string]string{
		"SourceTitle":    candidate.Title,
		"SourceID":       candidate.ID,
		"MaxTitleLength": strconv.Itoa(MaxTitleLength),
	})
	if err != nil {
		return types.Metadata{}, &GenerationError{Message: "load prompt", Cause: err}
	}

	raw, err := g.LLM.GenerateJSON(ctx, prompt, g.Tier)
	if err != nil {
		log.Printf("[TITLE] JSON generation failed for %s, retrying as plain text: %v", candidate.ID, err)
		raw, err = g.generatePlain(ctx, candidate)
		if err != nil {
			return types.Metadata{}, &GenerationError{Message: "model call failed", Cause: err}
		}
	}

	title, description := g.parse(raw)
	title = SanitizeTitle(title)
	if title == "" {
		title = SanitizeTitle(candidate.Title)
	}
	if title == "" {
		return types.Metadata{}, &GenerationError{Message: "model returned no usable title"}
	}
	if description == "" {
		description = g.defaultDescription()
	}

	return types.Metadata{
		Title:       title,
		Description: description,
		Tags:        DeriveTags(title, description, g.ExtraTags),
	}, nil
}

// generatePlain asks for "title\ndescription" text with no JSON mode.
func (g *Generator) generatePlain(ctx context.Context, candidate types.VideoCandidate) (string, error) {
	prompt, err := prompts.Render(promptFile, plainKey, map[string]string{"SourceTitle": candidate.Title})
	if err != nil {
		return "", err
	}
	return g.LLM.GenerateContent(ctx, prompt, g.Tier)
}

// parse extracts title and description from a model reply. JSON replies
// that fail the schema still contribute whichever string fields they have.
func (g *Generator) parse(raw string) (title, description string) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		title, description, ok := SplitPlain(raw)
		if !ok {
			log.Printf("[TITLE] Reply has no description line, using default description")
		}
		return title, description
	}

	if err := schemas.ValidateMetadata(raw); err != nil {
		log.Printf("[TITLE] Reply failed schema check: %v", err)
	}
	title, _ = doc["title"].(string)
	description, _ = doc["description"].(string)
	return title, description
}

func (g *Generator) defaultDescription() string {
	if g.DefaultDescription != "" {
		return g.DefaultDescription
	}
	return DefaultDescription
}

// Fallback builds metadata from the candidate alone. It is used when no
// title stage is configured.
func Fallback(candidate types.VideoCandidate, description string, extraTags []string) types.Metadata {
	title := SanitizeTitle(candidate.Title)
	if title == "" {
		title = candidate.ID
	}
	if description == "" {
		description = DefaultDescription
	}
	return types.Metadata{
		Title:       title,
		Description: description,
		Tags:        DeriveTags(title, description, extraTags),
	}
}
