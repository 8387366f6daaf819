package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/stow/internal/config"
	"github.com/Veraticus/stow/internal/coordinator"
	"github.com/Veraticus/stow/internal/model"
	"github.com/Veraticus/stow/internal/mover"
	"github.com/Veraticus/stow/internal/service"
)

// ErrNoPrompter is reported when a suggestion needs the user but nobody can be asked.
var ErrNoPrompter = errors.New("no interactive prompter available")

// Status is what happened to one file.
type Status int

// File statuses.
const (
	StatusSkipped Status = iota
	StatusIgnored
	StatusMoved
	StatusQueued
	StatusDuplicate
	StatusMissing
	StatusFailed
	StatusAbandoned
)

func (s Status) String() string {
	switch s {
	case StatusIgnored:
		return "ignored"
	case StatusMoved:
		return "moved"
	case StatusQueued:
		return "queued"
	case StatusDuplicate:
		return "duplicate"
	case StatusMissing:
		return "missing"
	case StatusFailed:
		return "failed"
	case StatusAbandoned:
		return "abandoned"
	default:
		return "skipped"
	}
}

// Report describes the handling of one file.
type Report struct {
	Err      error
	Path     string
	Dest     string
	Match    model.MatchResult
	Decision Action
	Status   Status
}

// Config holds the thresholds used by the organizer.
type Config struct {
	AutoThreshold    float64
	SuggestThreshold float64
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		AutoThreshold:    config.DefaultAutoThreshold,
		SuggestThreshold: config.DefaultSuggestThreshold,
	}
}

// Organizer moves files to where they belong and records the outcome.
type Organizer struct {
	store    service.Storage
	matcher  *Matcher
	mover    Mover
	prompter Prompter
	retry    *coordinator.Retry
	logger   *slog.Logger
	cfg      Config
}

// OrganizerOption configures an Organizer.
type OrganizerOption func(*Organizer)

// WithRetryQueue replaces the default retry queue.
func WithRetryQueue(r *coordinator.Retry) OrganizerOption {
	return func(o *Organizer) { o.retry = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) OrganizerOption {
	return func(o *Organizer) { o.logger = l }
}

// NewOrganizer creates an Organizer. prompter may be nil, in which case
// suggestions that need confirmation leave the file in place.
func NewOrganizer(store service.Storage, matcher *Matcher, mv Mover, prompter Prompter, cfg Config, opts ...OrganizerOption) *Organizer {
	o := &Organizer{
		store:    store,
		matcher:  matcher,
		mover:    mv,
		prompter: prompter,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.retry == nil {
		o.retry = coordinator.NewRetry(coordinator.DefaultMaxRetries)
	}
	return o
}

// Retry exposes the queue of locked files.
func (o *Organizer) Retry() *coordinator.Retry {
	return o.retry
}

// Explain matches path without moving anything.
func (o *Organizer) Explain(ctx context.Context, path string) (model.MatchResult, Action, error) {
	res, err := o.matcher.Match(ctx, path)
	if err != nil {
		return model.MatchResult{}, ActionIgnore, err
	}
	return res, o.decide(res), nil
}

// HandleFile matches a single file and acts on the policy decision.
func (o *Organizer) HandleFile(ctx context.Context, path string) Report {
	rep, ok := o.evaluate(ctx, path)
	if !ok {
		return rep
	}

	switch rep.Decision {
	case ActionAutoMove:
		return o.apply(ctx, rep, autoResolution(rep.Match))
	case ActionAsk:
		if o.prompter == nil {
			o.logger.Info("suggestion needs confirmation, leaving file",
				"file", path, "folder", rep.Match.Folder, "confidence", rep.Match.Confidence)
			rep.Err = ErrNoPrompter
			return rep
		}
		res, err := o.prompter.ConfirmMove(ctx, Pending{Path: path, Match: rep.Match, Candidates: o.matcher.Candidates()})
		if err != nil {
			rep.Err = fmt.Errorf("prompt failed: %w", err)
			return rep
		}
		return o.apply(ctx, rep, res)
	default:
		o.logger.Debug("no confident suggestion", "file", path, "confidence", rep.Match.Confidence)
		return rep
	}
}

// HandleBatch processes files that arrived together. A single file takes the
// HandleFile path; larger batches auto-move confident files first and then
// put the rest in front of the user at once.
func (o *Organizer) HandleBatch(ctx context.Context, paths []string) []Report {
	if len(paths) == 1 {
		return []Report{o.HandleFile(ctx, paths[0])}
	}

	reports := make([]Report, 0, len(paths))
	var asks []Report

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		rep, ok := o.evaluate(ctx, path)
		if !ok {
			reports = append(reports, rep)
			continue
		}
		switch rep.Decision {
		case ActionAutoMove:
			reports = append(reports, o.apply(ctx, rep, autoResolution(rep.Match)))
		case ActionAsk:
			asks = append(asks, rep)
		default:
			reports = append(reports, rep)
		}
	}

	if len(asks) == 0 {
		return reports
	}

	if o.prompter == nil {
		for _, rep := range asks {
			rep.Err = ErrNoPrompter
			reports = append(reports, rep)
		}
		return reports
	}

	candidates := o.matcher.Candidates()
	pending := make([]Pending, len(asks))
	for i, rep := range asks {
		pending[i] = Pending{Path: rep.Path, Match: rep.Match, Candidates: candidates}
	}

	resolutions, err := o.prompter.ReviewBatch(ctx, pending)
	if err == nil && len(resolutions) != len(asks) {
		err = fmt.Errorf("batch review returned %d resolutions for %d files", len(resolutions), len(asks))
	}
	if err != nil {
		for _, rep := range asks {
			rep.Err = fmt.Errorf("batch review failed: %w", err)
			reports = append(reports, rep)
		}
		return reports
	}

	for i, rep := range asks {
		reports = append(reports, o.apply(ctx, rep, resolutions[i]))
	}
	return reports
}

// ProcessRetries re-attempts every queued move whose backoff has elapsed.
func (o *Organizer) ProcessRetries(ctx context.Context) []Report {
	var reports []Report
	for _, entry := range o.retry.Ready() {
		if ctx.Err() != nil {
			break
		}
		rep := Report{Path: entry.Path, Match: model.MatchResult{Folder: entry.Folder}, Decision: ActionAutoMove}

		if _, err := os.Stat(entry.Path); errors.Is(err, os.ErrNotExist) {
			o.retry.Remove(entry.Path)
			o.logger.Debug("queued file disappeared", "file", entry.Path)
			rep.Status = StatusMissing
			reports = append(reports, rep)
			continue
		}

		result := o.mover.Move(entry.Path, entry.Folder)
		switch result.Outcome {
		case mover.OutcomeMoved:
			o.retry.Remove(entry.Path)
			o.persist(ctx, entry.Path, result.Dest, entry.Resolution)
			o.logger.Info("moved after retry", "file", entry.Path, "dest", result.Dest, "attempts", entry.Attempts+1)
			rep.Status = StatusMoved
			rep.Dest = result.Dest
		case mover.OutcomeLocked:
			if o.retry.MarkFailed(entry.Path) {
				o.logger.Warn("giving up on locked file", "file", entry.Path, "folder", entry.Folder)
				rep.Status = StatusAbandoned
				rep.Err = result.Err
			} else {
				rep.Status = StatusQueued
			}
		default:
			o.retry.Remove(entry.Path)
			rep.Status, rep.Err = statusFor(result.Outcome), result.Err
			if result.Outcome == mover.OutcomeFailed {
				o.logger.Error("retry failed", "file", entry.Path, "error", result.Err)
			}
		}
		reports = append(reports, rep)
	}
	return reports
}

// evaluate runs the ignore checks and the matcher. ok is false if the file
// should not go any further.
func (o *Organizer) evaluate(ctx context.Context, path string) (Report, bool) {
	rep := Report{Path: path}
	filename := filepath.Base(path)

	ignored, err := o.store.IsIgnored(ctx, filename)
	if err != nil {
		rep.Status, rep.Err = StatusFailed, fmt.Errorf("failed to check ignore list: %w", err)
		return rep, false
	}
	if ignored {
		o.logger.Debug("file is ignored", "file", filename)
		rep.Status = StatusIgnored
		return rep, false
	}

	if o.retry.Has(path) {
		rep.Status = StatusQueued
		return rep, false
	}

	match, err := o.matcher.Match(ctx, path)
	if err != nil {
		rep.Status, rep.Err = StatusFailed, err
		return rep, false
	}
	rep.Match = match
	rep.Decision = o.decide(match)
	return rep, true
}

func (o *Organizer) decide(res model.MatchResult) Action {
	if !res.HasSuggestion() {
		return ActionIgnore
	}
	return Decide(res.Confidence, o.cfg.AutoThreshold, o.cfg.SuggestThreshold)
}

// apply carries out a resolution for a file.
func (o *Organizer) apply(ctx context.Context, rep Report, res model.Resolution) Report {
	filename := filepath.Base(rep.Path)

	if res.Action == model.ActionIgnore || res.Target == "" {
		if res.Suggested != "" {
			if err := o.store.AppendLearning(ctx, filename, res.Suggested, model.ActionIgnore); err != nil {
				o.logger.Warn("failed to record ignore", "file", filename, "error", err)
			}
		}
		if res.Permanent {
			if err := o.store.MarkIgnored(ctx, filename, "ignored at prompt"); err != nil {
				o.logger.Warn("failed to mark file ignored", "file", filename, "error", err)
			}
			rep.Status = StatusIgnored
		}
		return rep
	}

	result := o.mover.Move(rep.Path, res.Target)
	rep.Status = statusFor(result.Outcome)
	rep.Dest = result.Dest
	rep.Err = result.Err

	switch result.Outcome {
	case mover.OutcomeMoved:
		o.persist(ctx, rep.Path, result.Dest, res)
		o.logger.Info("file moved", "file", filename, "dest", result.Dest, "action", res.Action)
	case mover.OutcomeLocked:
		o.retry.Add(rep.Path, res.Target, res)
		rep.Status, rep.Err = StatusQueued, nil
		o.logger.Info("file locked, queued for retry", "file", filename)
	case mover.OutcomeDuplicate:
		o.logger.Info("identical file already in destination", "file", filename, "dest", result.Dest)
	case mover.OutcomeMissing:
		o.logger.Debug("file vanished before move", "file", filename)
	default:
		o.logger.Error("move failed", "file", filename, "error", result.Err)
	}
	return rep
}

// persist records a completed move. A write failure leaves the file moved
// but unlearned and is only logged.
func (o *Organizer) persist(ctx context.Context, src, dst string, res model.Resolution) {
	filename := filepath.Base(src)
	folder := filepath.Dir(dst)

	if err := o.store.PutDecision(ctx, filename, folder); err != nil {
		o.logger.Error("moved but not learned: decision write failed", "file", filename, "error", err)
	}

	if res.Suggested != "" {
		action := model.ActionChoose
		if filepath.Clean(res.Suggested) == filepath.Clean(res.Target) {
			action = model.ActionAccept
		}
		if err := o.store.AppendLearning(ctx, filename, res.Suggested, action); err != nil {
			o.logger.Error("moved but not learned: learning write failed", "file", filename, "error", err)
		}
	}

	if err := o.store.AppendUndoEntry(ctx, filename, src, dst); err != nil {
		o.logger.Error("moved but not recorded in undo history", "file", filename, "error", err)
	}
}

func autoResolution(res model.MatchResult) model.Resolution {
	return model.Resolution{Suggested: res.Folder, Target: res.Folder, Action: model.ActionAccept}
}

func statusFor(o mover.Outcome) Status {
	switch o {
	case mover.OutcomeMoved:
		return StatusMoved
	case mover.OutcomeLocked:
		return StatusQueued
	case mover.OutcomeDuplicate:
		return StatusDuplicate
	case mover.OutcomeMissing:
		return StatusMissing
	default:
		return StatusFailed
	}
}
