// Package locator turns what a caller said into a location and the police
// station responsible for it.
//
// SelectLocation runs a fixed chain of strategies on the normalized text:
// station name, village, then the external geocoder. The first match wins.
// Callers only ever see a location payload or one localized error message.
package locator

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/rakshak-ai/internal/audit"
	"github.com/rakshak-ai/internal/debug"
	"github.com/rakshak-ai/internal/geocode"
)

// Normalizer rewrites caller text before resolution. *normalize.Normalizer
// satisfies it.
type Normalizer interface {
	Normalize(ctx context.Context, text string) string
}

// Selector is the location orchestrator. Safe for concurrent use.
type Selector struct {
	dir        geocode.Directory
	normalizer Normalizer
	strategies []Strategy
	langMsg    string
	auditor    Auditor
	log        *slog.Logger
}

// Auditor records location decisions. *audit.Tracker satisfies it.
type Auditor interface {
	RecordDecision(ctx context.Context, d audit.Decision) error
}

const auditTimeout = 2 * time.Second

// Option configures a Selector.
type Option func(*Selector)

// WithLanguageMessage sets the message sent with the language-reselection
// directive.
func WithLanguageMessage(msg string) Option {
	return func(s *Selector) {
		if msg != "" {
			s.langMsg = msg
		}
	}
}

// WithAudit records every decision with a.
func WithAudit(a Auditor) Option {
	return func(s *Selector) {
		s.auditor = a
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds a Selector. normalizer and geo may be nil; the chain then
// skips normalization or the external step.
func New(dir geocode.Directory, normalizer Normalizer, geo Geocoder, opts ...Option) *Selector {
	s := &Selector{
		dir:        dir,
		normalizer: normalizer,
		langMsg:    DefaultLanguageMessage,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.strategies = []Strategy{stationNameStrategy{dir: dir}, villageStrategy{dir: dir}}
	if geo != nil {
		s.strategies = append(s.strategies, geocodeStrategy{geo: geo})
	}
	return s
}

// SelectLocation resolves text spoken in language. It never fails.
func (s *Selector) SelectLocation(ctx context.Context, text, language string) (p Payload) {
	if isLanguageReset(text) {
		return Payload{Message: s.langMsg, NextState: NextStateLanguageSelection, IsTemplate: "interactive"}
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("location selection panicked", "input", text, "panic", r)
			p = errorPayload(language)
		}
	}()

	input := strings.TrimSpace(text)
	if input == "" {
		s.log.Info("empty location input")
		return errorPayload(language)
	}
	defer debug.Timing(s.log, "select location", "input", input)()

	name := input
	if s.normalizer != nil {
		name = strings.TrimSpace(s.normalizer.Normalize(ctx, input))
		if name == "" {
			name = input
		}
	}

	start := time.Now()
	decision := audit.Decision{Input: input, Normalized: name, Language: language, Attempts: map[string]any{}}
	defer func() { s.record(ctx, decision, start) }()

	for _, strategy := range s.strategies {
		attempt := strategy.Resolve(ctx, name)
		decision.Attempts[strategy.Name()] = attempt.Outcome.String()
		s.log.Debug("location strategy", "strategy", strategy.Name(), "input", name,
			"outcome", attempt.Outcome.String(), "err", attempt.Err)
		if attempt.Outcome == Matched {
			s.log.Info("location resolved", "input", input, "normalized", name,
				"strategy", strategy.Name(), "station", attempt.Location.NearestStation.StationName)
			decision.Decision = audit.DecisionResolved
			decision.Strategy = strategy.Name()
			decision.StationID = attempt.Location.NearestStation.ID
			decision.Source = attempt.Location.NearestStation.Source
			decision.Match = string(attempt.Match)
			return successPayload(name, attempt.Location)
		}
		if attempt.Outcome == Failed {
			s.log.Warn("location strategy failed", "strategy", strategy.Name(), "input", name, "err", attempt.Err)
			decision.Decision = audit.DecisionError
		}
	}

	if decision.Decision == "" {
		decision.Decision = audit.DecisionUnresolved
	}
	s.log.Info("location unresolved", "input", input, "normalized", name, "language", language)
	return errorPayload(language)
}

// record writes the decision to the audit trail. Failures are logged only.
func (s *Selector) record(ctx context.Context, d audit.Decision, start time.Time) {
	if s.auditor == nil {
		return
	}
	d.Duration = time.Since(start)
	if d.Decision == "" {
		// Only reachable when a strategy panicked.
		d.Decision = audit.DecisionError
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := s.auditor.RecordDecision(ctx, d); err != nil {
		s.log.Warn("audit record failed", "input", d.Input, "err", err)
	}
}

// StationAnswer is the reply of the get_police_station tool.
type StationAnswer struct {
	Found   bool                  `json:"found"`
	Village string                `json:"village,omitempty"`
	Score   float64               `json:"score,omitempty"`
	Station *geocode.StationBlock `json:"station,omitempty"`
	Message string                `json:"message"`
}

// PoliceStation resolves an area name to a village and returns its
// station's contact block. Any failure becomes the fixed not-found reply.
func (s *Selector) PoliceStation(ctx context.Context, areaName string) StationAnswer {
	area := strings.ToLower(strings.TrimSpace(areaName))
	notFound := StationAnswer{Message: StationNotFound}
	if area == "" {
		return notFound
	}

	res, err := s.dir.ResolveByName(ctx, area)
	if err != nil {
		s.log.Warn("police station lookup failed", "area", area, "err", err)
		return notFound
	}
	if !res.Matched() || res.Station == nil {
		s.log.Info("no station for area", "area", area, "best_score", res.Score)
		return notFound
	}

	block := geocode.BlockFromStation(res.Station)
	block.Available = res.Station.HasCoordinates()
	raw, err := json.Marshal(block)
	if err != nil {
		return notFound
	}
	s.log.Info("police station found", "area", area, "village", res.Village.Name, "score", res.Score)
	return StationAnswer{
		Found:   true,
		Village: res.Village.Name,
		Score:   res.Score,
		Station: &block,
		Message: "police station: " + string(raw),
	}
}
