// Package normalize turns a caller's spoken place name into the form the
// directory uses: English script, standard "X Police Station" wording and,
// when possible, an exact known station name.
//
// Model output is only ever returned as a station name when it appears
// verbatim in the station directory. Every generation failure falls back to
// the text that went in.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/rakshak-ai/internal/debug"
	"github.com/rakshak-ai/internal/llm"
)

// DefaultPromptNames caps how many station names are listed in a prompt.
const DefaultPromptNames = 100

var ErrNormalizationFailed = errors.New("normalization failed")

var (
	reDevanagari    = regexp.MustCompile(`[\x{0900}-\x{097F}]`)
	reAbbreviations = regexp.MustCompile(`(?i)\b(ps|thana|chowki)\b|नाका|थाना`)
)

// StationNames is the known-name set. *cache.StationNames satisfies it.
type StationNames interface {
	All(ctx context.Context) []string
}

// Normalizer normalizes names with a text generator.
type Normalizer struct {
	gen         llm.Generator
	names       StationNames
	promptNames int
	log         *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithPromptNames overrides DefaultPromptNames.
func WithPromptNames(n int) Option {
	return func(nz *Normalizer) {
		if n > 0 {
			nz.promptNames = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(nz *Normalizer) {
		if l != nil {
			nz.log = l
		}
	}
}

// New creates a Normalizer. A nil generator makes Normalize the identity.
func New(gen llm.Generator, names StationNames, opts ...Option) *Normalizer {
	n := &Normalizer{
		gen:         gen,
		names:       names,
		promptNames: DefaultPromptNames,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NeedsTranslation reports whether text contains Devanagari, a station
// abbreviation (ps, thana, chowki), or is written in capitals only.
func NeedsTranslation(text string) bool {
	if text == "" {
		return false
	}
	if reDevanagari.MatchString(text) || reAbbreviations.MatchString(text) {
		return true
	}
	return text == strings.ToUpper(text) && text != strings.ToLower(text)
}

// Normalize returns the normalized name, or text unchanged when nothing
// better is known. It never fails.
func (n *Normalizer) Normalize(ctx context.Context, text string) string {
	input := strings.TrimSpace(text)
	if input == "" || n.gen == nil {
		return text
	}
	defer debug.Timing(n.log, "normalize", "input", input)()

	var names []string
	if n.names != nil {
		names = n.names.All(ctx)
	}
	formatted := n.format(ctx, input, names)

	if !NeedsTranslation(input) {
		if corrected, ok := n.correct(ctx, formatted, names); ok {
			return corrected
		}
		return text
	}

	translated, err := n.gen.Generate(ctx, translatePrompt, formatted)
	if err != nil {
		n.failed("translate", input, err)
		return text
	}
	if corrected, ok := n.correct(ctx, translated, names); ok {
		return corrected
	}
	return translated
}

// format standardizes station wording ("vani ps" to "Vani Police
// Station"). Its output is only an input to later steps.
func (n *Normalizer) format(ctx context.Context, text string, names []string) string {
	out, err := n.gen.Generate(ctx, formatPrompt(n.sample(names, 20)), text)
	if err != nil {
		n.failed("format", text, err)
		return text
	}
	return out
}

// correct asks the model to pick the matching station name and accepts the
// answer only if it is exactly one of names.
func (n *Normalizer) correct(ctx context.Context, text string, names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}

	out, err := n.gen.Generate(ctx, correctPrompt(n.sample(names, n.promptNames)), fmt.Sprintf("User input to match: %q", text))
	if err != nil {
		n.failed("correct", text, err)
		return "", false
	}
	out = strings.Trim(out, "\"'`")

	for _, name := range names {
		if out == name {
			return name, true
		}
	}
	n.log.Debug("discarding unverified station name", "input", text, "model", out)
	return "", false
}

func (n *Normalizer) sample(names []string, limit int) []string {
	if len(names) > limit {
		return names[:limit]
	}
	return names
}

func (n *Normalizer) failed(stage, input string, err error) {
	n.log.Warn("name normalization step failed", "stage", stage, "input", input,
		"err", fmt.Errorf("%w: %v", ErrNormalizationFailed, err))
}

const translatePrompt = `You translate place names for a police helpline in Maharashtra.
If the text is in Marathi or Hindi, or contains spelling mistakes, rewrite it in English (Latin script).
Return only the resulting text. No explanations, no quotes.`

func formatPrompt(names []string) string {
	known := "None available"
	if len(names) > 0 {
		known = strings.Join(names, ", ")
	}
	return `You format police station names.
Rules:
- Drop filler such as "town:", "city:", "ps", "thana", "chowki".
- Use the form "<Place> Police Station".
- Fix obvious spelling mistakes.
- If several places are named, keep only the police station.
- If the text does not name a police station, return it unchanged.
Return only the formatted text.
Known station names: ` + known
}

func correctPrompt(names []string) string {
	return `You match user input to a list of police station names.
Return ONLY the exact name from the list when there is a confident match, considering spelling variants, abbreviations (PS, Thana, Chowki), common typos and extra words like "city", "town" or "near".
If there is no reliable match, return the input text unchanged.
No explanations.
Station names: ` + strings.Join(names, ", ")
}
