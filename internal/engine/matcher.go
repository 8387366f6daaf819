package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/stow/internal/learning"
	"github.com/Veraticus/stow/internal/llm"
	"github.com/Veraticus/stow/internal/model"
	"github.com/Veraticus/stow/internal/scoring"
)

// maxCorrections caps how many past rejections are shown to the classifier.
const maxCorrections = 5

// Matcher resolves a file to its most likely destination folder.
type Matcher struct {
	store      MatchStore
	adjuster   *learning.Adjuster
	classifier Classifier
	extractor  ContentExtractor
	logger     *slog.Logger
	scopes     []string
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithClassifier enables the classifier step. A nil classifier is skipped.
func WithClassifier(c Classifier) MatcherOption {
	return func(m *Matcher) { m.classifier = c }
}

// WithExtractor enables content evidence.
func WithExtractor(e ContentExtractor) MatcherOption {
	return func(m *Matcher) { m.extractor = e }
}

// WithMatcherLogger sets the logger.
func WithMatcherLogger(l *slog.Logger) MatcherOption {
	return func(m *Matcher) { m.logger = l }
}

// NewMatcher creates a Matcher over the given scope roots, searched in order.
func NewMatcher(store MatchStore, scopes []string, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		store:    store,
		adjuster: learning.NewAdjuster(store),
		scopes:   append([]string(nil), scopes...),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Candidates lists every non-hidden directory directly under each scope root.
// Scopes keep their configured order; entries within a scope are sorted by name.
func (m *Matcher) Candidates() []model.CandidateFolder {
	var out []model.CandidateFolder
	for _, scope := range m.scopes {
		entries, err := os.ReadDir(scope)
		if err != nil {
			m.logger.Debug("skipping unreadable scope", "scope", scope, "error", err)
			continue
		}
		// os.ReadDir sorts by filename.
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			out = append(out, model.CandidateFolder{
				Path:  filepath.Join(scope, e.Name()),
				Scope: scope,
			})
		}
	}
	return out
}

// Match runs memory, then the classifier, then the heuristic scan. An empty
// result is not an error; errors are reserved for cancellation and store failures.
func (m *Matcher) Match(ctx context.Context, path string) (model.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return model.MatchResult{}, err
	}

	filename := filepath.Base(path)

	folder, found, err := m.store.GetDecision(ctx, filename)
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("failed to look up decision for %s: %w", filename, err)
	}
	if found {
		return model.MatchResult{
			Folder:     folder,
			Confidence: 1.0,
			Method:     model.MethodMemory,
			Scores:     model.ScoreSet{Memory: 1.0},
			Reasoning:  "previously filed here",
		}, nil
	}

	candidates := m.Candidates()
	if len(candidates) == 0 {
		return model.MatchResult{Method: model.MethodString}, nil
	}

	snippet := ""
	if m.extractor != nil {
		snippet = m.extractor.Extract(path)
	}

	if m.classifier != nil {
		if res, ok := m.classify(ctx, filename, snippet, candidates); ok {
			return res, nil
		}
		if err := ctx.Err(); err != nil {
			return model.MatchResult{}, err
		}
	}

	return m.scan(ctx, filename, snippet, candidates), nil
}

func (m *Matcher) classify(ctx context.Context, filename, snippet string, candidates []model.CandidateFolder) (model.MatchResult, bool) {
	names := candidateNames(candidates)

	s, ok := m.classifier.Classify(ctx, llm.Request{
		Filename:    filename,
		Snippet:     snippet,
		Candidates:  names,
		Corrections: m.corrections(ctx),
	})
	if !ok || s.Confidence <= 0 {
		return model.MatchResult{}, false
	}

	target, found := findCandidate(candidates, s.Folder)
	if !found {
		return model.MatchResult{}, false
	}

	conf := m.adjust(ctx, s.Confidence, filename, target.Path)
	return model.MatchResult{
		Folder:     target.Path,
		Confidence: conf,
		Method:     model.MethodLLM,
		Reasoning:  s.Reasoning,
		Scores:     model.ScoreSet{FileTypeWeight: scoring.FileTypeWeight(filename)},
	}, true
}

func (m *Matcher) scan(ctx context.Context, filename, snippet string, candidates []model.CandidateFolder) model.MatchResult {
	stem := scoring.Stem(filename)
	weight := scoring.FileTypeWeight(filename)

	var (
		best       float64
		bestFolder string
		bestScores model.ScoreSet
	)
	for _, c := range candidates {
		name := c.Name()
		scores := model.ScoreSet{
			Token:          scoring.Token(stem, name),
			Fuzzy:          scoring.Fuzzy(stem, name),
			FileTypeWeight: weight,
		}
		if snippet != "" {
			scores.Content = scoring.Combined(snippet, name)
		}

		score := math.Max(scores.Token, math.Max(scores.Fuzzy*scoring.FuzzyDamping, scores.Content)) * weight
		if score > best {
			best = score
			bestFolder = c.Path
			bestScores = scores
		}
	}

	if bestFolder == "" {
		return model.MatchResult{Method: model.MethodString, Scores: model.ScoreSet{FileTypeWeight: weight}}
	}

	conf := m.adjust(ctx, scoring.Combine(bestScores), filename, bestFolder)
	return model.MatchResult{
		Folder:     bestFolder,
		Confidence: conf,
		Method:     model.MethodString,
		Scores:     bestScores,
		Reasoning:  fmt.Sprintf("name similarity to %s", filepath.Base(bestFolder)),
	}
}

// adjust applies learning; a store failure keeps whatever confidence was reached.
func (m *Matcher) adjust(ctx context.Context, base float64, filename, folder string) float64 {
	conf, err := m.adjuster.Adjust(ctx, base, filename, folder)
	if err != nil {
		m.logger.Warn("learning adjustment skipped", "file", filename, "folder", folder, "error", err)
	}
	return conf
}

// corrections collects recent rejected suggestions for the classifier prompt.
func (m *Matcher) corrections(ctx context.Context) []llm.Correction {
	records, err := m.store.ListLearning(ctx, 50)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Debug("could not load corrections", "error", err)
		}
		return nil
	}

	var out []llm.Correction
	for _, r := range records {
		if r.Action != model.ActionChoose {
			continue
		}
		out = append(out, llm.Correction{Filename: r.Filename, Rejected: filepath.Base(r.SuggestedFolder)})
		if len(out) == maxCorrections {
			break
		}
	}
	return out
}

func candidateNames(candidates []model.CandidateFolder) []string {
	seen := make(map[string]bool, len(candidates))
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		n := c.Name()
		if seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names
}

// findCandidate maps a folder name back to the first candidate carrying it.
func findCandidate(candidates []model.CandidateFolder, name string) (model.CandidateFolder, bool) {
	for _, c := range candidates {
		if c.Name() == name {
			return c, true
		}
	}
	for _, c := range candidates {
		if strings.EqualFold(c.Name(), name) {
			return c, true
		}
	}
	return model.CandidateFolder{}, false
}
