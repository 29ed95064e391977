// Package assistant wraps the text-generation service used by the detail
// editor. Every call is best-effort: failures come back as values the UI can
// show next to the untouched draft.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/creatorflow/internal/config"
	"github.com/kingrea/creatorflow/internal/project"
)

// TitleErrorMarker is returned as the single suggestion when title
// generation fails.
const TitleErrorMarker = "Error generating titles. Please check API Key."

// DefaultTone is used when RefineScript is called without one.
const DefaultTone = "Engaging and punchy"

// ErrUnavailable means no generation backend is configured.
var ErrUnavailable = errors.New("assistant: service unavailable (API key missing)")

// Generator turns a prompt into plain text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function into a Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate executes f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Assistant builds prompts and interprets replies.
type Assistant struct {
	gen Generator
}

// New wraps gen. A nil generator yields an assistant whose calls return
// ErrUnavailable.
func New(gen Generator) *Assistant {
	return &Assistant{gen: gen}
}

// FromConfig builds an assistant backed by Gemini when an API key is
// configured.
func FromConfig(cfg *config.Config) *Assistant {
	if cfg == nil || !cfg.AssistantEnabled() {
		return New(nil)
	}
	return New(NewGeminiClient(cfg.APIKey,
		WithModel(cfg.File.Assistant.Model),
		WithBaseURL(cfg.File.Assistant.Endpoint),
		WithTimeout(cfg.File.Assistant.Timeout),
	))
}

// Available reports whether a generator is configured.
func (a *Assistant) Available() bool {
	return a != nil && a.gen != nil
}

// GenerateTitles asks for five title ideas for p. On failure it returns the
// error marker line together with the error; a missing backend returns
// ErrUnavailable and no suggestions.
func (a *Assistant) GenerateTitles(ctx context.Context, p project.VideoProject) ([]string, error) {
	if !a.Available() {
		return nil, ErrUnavailable
	}
	text, err := a.gen.Generate(ctx, TitlePrompt(p))
	if err != nil {
		return []string{TitleErrorMarker}, fmt.Errorf("assistant: generate titles: %w", err)
	}
	return SplitTitles(text), nil
}

// RefineScript rewrites script in tone. On failure the original script is
// returned with the error.
func (a *Assistant) RefineScript(ctx context.Context, script, tone string) (string, error) {
	if !a.Available() {
		return script, ErrUnavailable
	}
	if strings.TrimSpace(tone) == "" {
		tone = DefaultTone
	}
	text, err := a.gen.Generate(ctx, ScriptPrompt(script, tone))
	if err != nil {
		return script, fmt.Errorf("assistant: refine script: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return script, nil
	}
	return text, nil
}

// TitlePrompt is the title-ideas prompt for p.
func TitlePrompt(p project.VideoProject) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I am a YouTube creator working on a video titled: %q.\n", p.Title)
	fmt.Fprintf(&sb, "Current description: %q.\n\n", p.Metadata.Description)
	sb.WriteString("Please generate 5 high-CTR (Click Through Rate), clickbaity but honest YouTube video titles for this video.\n")
	sb.WriteString("Return ONLY the titles as a plain text list, one per line. No numbers or bullet points.\n")
	return sb.String()
}

// ScriptPrompt is the refinement prompt for script.
func ScriptPrompt(script, tone string) string {
	var sb strings.Builder
	sb.WriteString("Act as a professional YouTube scriptwriter.\n")
	sb.WriteString("Refine the following script segment to be more engaging, concise, and optimized for viewer retention.\n")
	fmt.Fprintf(&sb, "Tone: %s.\n\nScript:\n%s\n", tone, script)
	return sb.String()
}

// SplitTitles turns a line-delimited reply into titles, dropping blank
// lines and any list markers or wrapping quotes the model added anyway.
func SplitTitles(text string) []string {
	titles := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = stripListMarker(line)
		line = strings.Trim(line, `"“”`)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		titles = append(titles, line)
	}
	return titles
}

func stripListMarker(line string) string {
	for _, bullet := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, bullet) {
			return strings.TrimSpace(line[len(bullet):])
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
