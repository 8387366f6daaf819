package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Veraticus/stow/internal/engine"
	"github.com/Veraticus/stow/internal/model"
)

// ErrInputTerminated is returned when stdin closes mid-prompt.
var ErrInputTerminated = errors.New("input terminated")

// Stats counts how the user resolved suggestions.
type Stats struct {
	Accepted int
	Changed  int
	Skipped  int
	Ignored  int
}

// Prompter asks the user where files should go.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
	stats  Stats
	mu     sync.Mutex
}

// NewCLIPrompter creates a new CLI prompter with the given reader and writer.
func NewCLIPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// ConfirmMove prompts for a single file.
func (p *Prompter) ConfirmMove(ctx context.Context, pending engine.Pending) (model.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return model.Resolution{}, err
	}

	if _, err := fmt.Fprintln(p.writer, RenderBox("New File", formatPending(pending))); err != nil {
		return model.Resolution{}, fmt.Errorf("failed to write file box: %w", err)
	}

	return p.resolveOne(ctx, pending)
}

// ReviewBatch shows every pending file at once, then lets the user approve
// all, skip all, or go through them one by one.
func (p *Prompter) ReviewBatch(ctx context.Context, pending []engine.Pending) ([]model.Resolution, error) {
	if len(pending) == 0 {
		return []model.Resolution{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := fmt.Fprintln(p.writer, RenderBox(fmt.Sprintf("%d New Files", len(pending)), formatBatch(pending))); err != nil {
		return nil, fmt.Errorf("failed to write batch review box: %w", err)
	}

	lines := []string{
		FormatPrompt("Options:"),
		fmt.Sprintf("  [A] Approve all %d suggestions", len(pending)),
		"  [S] Skip all for now",
		"  [R] Review each file individually",
		"",
	}
	if err := p.writeLines(lines); err != nil {
		return nil, err
	}

	choice, err := p.promptChoice(ctx, "Choice", []string{"a", "s", "r"})
	if err != nil {
		return nil, err
	}

	out := make([]model.Resolution, len(pending))
	switch choice {
	case "a":
		for i, pe := range pending {
			out[i] = accept(pe)
		}
		p.count(func(s *Stats) { s.Accepted += len(pending) })
	case "s":
		for i, pe := range pending {
			out[i] = skip(pe, false)
		}
		p.count(func(s *Stats) { s.Skipped += len(pending) })
	case "r":
		for i, pe := range pending {
			header := fmt.Sprintf("[%d/%d] %s", i+1, len(pending), filepath.Base(pe.Path))
			if _, err := fmt.Fprintln(p.writer, BoldStyle.Render(header)); err != nil {
				return nil, fmt.Errorf("failed to write file header: %w", err)
			}
			res, err := p.resolveOne(ctx, pe)
			if err != nil {
				return nil, err
			}
			out[i] = res
		}
	}
	return out, nil
}

// Stats returns a snapshot of the resolution counts.
func (p *Prompter) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Prompter) resolveOne(ctx context.Context, pending engine.Pending) (model.Resolution, error) {
	lines := []string{FormatPrompt("Options:")}
	valid := []string{"o", "s", "i"}
	if pending.Match.Folder != "" {
		lines = append(lines, fmt.Sprintf("  [A] Move to %s", SuccessStyle.Render(pending.Match.FolderName())))
		valid = append([]string{"a"}, valid...)
	}
	lines = append(lines,
		"  [O] Choose another folder",
		"  [S] Skip for now",
		"  [I] Ignore this file from now on",
		"",
	)
	if err := p.writeLines(lines); err != nil {
		return model.Resolution{}, err
	}

	choice, err := p.promptChoice(ctx, "Choice", valid)
	if err != nil {
		return model.Resolution{}, err
	}

	switch choice {
	case "a":
		p.count(func(s *Stats) { s.Accepted++ })
		return accept(pending), nil
	case "o":
		folder, err := p.pickFolder(ctx, pending.Candidates)
		if err != nil {
			return model.Resolution{}, err
		}
		if folder == "" {
			p.count(func(s *Stats) { s.Skipped++ })
			return skip(pending, false), nil
		}
		p.count(func(s *Stats) { s.Changed++ })
		action := model.ActionChoose
		if folder == pending.Match.Folder {
			action = model.ActionAccept
		}
		return model.Resolution{Suggested: pending.Match.Folder, Target: folder, Action: action}, nil
	case "i":
		p.count(func(s *Stats) { s.Ignored++ })
		return skip(pending, true), nil
	default:
		p.count(func(s *Stats) { s.Skipped++ })
		return skip(pending, false), nil
	}
}

// pickFolder lists the candidates and returns the chosen path, or "" to give up.
func (p *Prompter) pickFolder(ctx context.Context, candidates []model.CandidateFolder) (string, error) {
	if len(candidates) == 0 {
		if _, err := fmt.Fprintln(p.writer, FormatWarning("No folders available.")); err != nil {
			slog.Warn("Failed to write warning", "error", err)
		}
		return "", nil
	}

	lines := make([]string, 0, len(candidates)+1)
	for i, c := range candidates {
		lines = append(lines, fmt.Sprintf("  %2d. %s %s", i+1, c.Name(), SubtleStyle.Render(c.Scope)))
	}
	lines = append(lines, "")
	if err := p.writeLines(lines); err != nil {
		return "", err
	}

	for {
		if _, err := fmt.Fprintf(p.writer, "%s: ", FormatPrompt("Folder number (blank to skip)")); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}
		input, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}
		if input == "" {
			return "", nil
		}
		n, err := strconv.Atoi(input)
		if err == nil && n >= 1 && n <= len(candidates) {
			return candidates[n-1].Path, nil
		}
		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid folder number. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		if _, err := fmt.Fprintf(p.writer, "%s: ", FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	input, err := p.reader.ReadLine(ctx)
	switch {
	case errors.Is(err, io.EOF):
		return "", ErrInputTerminated
	case errors.Is(err, ErrInputCancelled):
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	case err != nil:
		return "", err
	}
	return input, nil
}

func (p *Prompter) writeLines(lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(p.writer, line); err != nil {
			return fmt.Errorf("failed to write options: %w", err)
		}
	}
	return nil
}

func (p *Prompter) count(fn func(*Stats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.stats)
}

func accept(pending engine.Pending) model.Resolution {
	return model.Resolution{Suggested: pending.Match.Folder, Target: pending.Match.Folder, Action: model.ActionAccept}
}

func skip(pending engine.Pending, permanent bool) model.Resolution {
	return model.Resolution{Suggested: pending.Match.Folder, Action: model.ActionIgnore, Permanent: permanent}
}

func formatPending(pending engine.Pending) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("File:"), filepath.Base(pending.Path))
	if pending.Match.Folder == "" {
		b.WriteString(SubtleStyle.Render("No suggestion"))
		return b.String()
	}
	fmt.Fprintf(&b, "%s %s %s\n", BoldStyle.Render("Suggested:"), FolderIcon, pending.Match.Folder)
	fmt.Fprintf(&b, "%s %s (%s)", BoldStyle.Render("Confidence:"), FormatConfidence(pending.Match.Confidence), pending.Match.Method)
	if pending.Match.Reasoning != "" {
		fmt.Fprintf(&b, "\n%s %s", BoldStyle.Render("Why:"), SubtleStyle.Render(pending.Match.Reasoning))
	}
	return b.String()
}

func formatBatch(pending []engine.Pending) string {
	lines := make([]string, len(pending))
	for i, pe := range pending {
		target := SubtleStyle.Render("(no suggestion)")
		if pe.Match.Folder != "" {
			target = pe.Match.FolderName() + " " + FormatConfidence(pe.Match.Confidence)
		}
		lines[i] = fmt.Sprintf("%2d. %s → %s", i+1, filepath.Base(pe.Path), target)
	}
	return strings.Join(lines, "\n")
}

// FormatConfidence renders a confidence as a colored percentage.
func FormatConfidence(c float64) string {
	text := fmt.Sprintf("%.0f%%", c*100)
	switch {
	case c >= 0.85:
		return SuccessStyle.Render(text)
	case c >= 0.4:
		return WarningStyle.Render(text)
	default:
		return ErrorStyle.Render(text)
	}
}
