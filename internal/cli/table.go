package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/stow/internal/engine"
	"github.com/Veraticus/stow/internal/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Alignment controls a table column.
type Alignment int

// Column alignments.
const (
	AlignLeft Alignment = iota
	AlignRight
)

// RenderTable draws rows under headers with rounded borders.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// HistoryTable lists undo entries, newest first.
func HistoryTable(entries []model.UndoEntry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.Local().Format(time.DateTime),
			e.Filename,
			filepath.Dir(e.Src),
			filepath.Dir(e.Dst),
		}
	}
	return RenderTable([]string{"ID", "When", "File", "From", "To"}, rows, []Alignment{AlignRight})
}

// InsightsTable lists per-folder accept and reject rates.
func InsightsTable(insights []model.FolderInsight) string {
	rows := make([][]string, len(insights))
	for i, in := range insights {
		rows[i] = []string{
			filepath.Base(in.Folder),
			strconv.Itoa(in.Total),
			percent(in.AcceptRate),
			percent(in.RejectRate),
		}
	}
	return RenderTable([]string{"Folder", "Suggestions", "Accepted", "Rejected"}, rows,
		[]Alignment{AlignLeft, AlignRight, AlignRight, AlignRight})
}

// LearningTable lists recent feedback records.
func LearningTable(records []model.LearningRecord) string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.CreatedAt.Local().Format(time.DateTime),
			r.Filename,
			filepath.Base(r.SuggestedFolder),
			actionLabel(r.Action),
		}
	}
	return RenderTable([]string{"When", "File", "Suggested", "Outcome"}, rows, nil)
}

// ScoresTable shows the evidence behind a match.
func ScoresTable(res model.MatchResult) string {
	s := res.Scores
	rows := [][]string{
		{"memory", fmt.Sprintf("%.3f", s.Memory)},
		{"token", fmt.Sprintf("%.3f", s.Token)},
		{"fuzzy", fmt.Sprintf("%.3f", s.Fuzzy)},
		{"content", fmt.Sprintf("%.3f", s.Content)},
		{"file type weight", fmt.Sprintf("%.2f", s.FileTypeWeight)},
		{"confidence", fmt.Sprintf("%.3f", res.Confidence)},
	}
	return RenderTable([]string{"Signal", "Value"}, rows, []Alignment{AlignLeft, AlignRight})
}

// SummarizeReports renders one line per file that did something interesting.
func SummarizeReports(reports []engine.Report) string {
	var lines []string
	for _, r := range reports {
		name := filepath.Base(r.Path)
		switch r.Status {
		case engine.StatusMoved:
			lines = append(lines, FormatSuccess(fmt.Sprintf("%s → %s", name, filepath.Dir(r.Dest))))
		case engine.StatusQueued:
			lines = append(lines, FormatInfo(name+" is in use, will retry"))
		case engine.StatusDuplicate:
			lines = append(lines, FormatInfo(name+" already exists at destination, left in place"))
		case engine.StatusAbandoned:
			lines = append(lines, FormatWarning(name+" stayed locked, gave up"))
		case engine.StatusFailed:
			lines = append(lines, FormatError(fmt.Sprintf("%s: %v", name, r.Err)))
		case engine.StatusSkipped:
			if r.Match.HasSuggestion() && r.Decision == engine.ActionAsk {
				lines = append(lines, SubtleStyle.Render(fmt.Sprintf("%s left in place (suggested %s)", name, r.Match.FolderName())))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func percent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

func actionLabel(a model.LearningAction) string {
	switch a {
	case model.ActionAccept:
		return SuccessIcon + " accepted"
	case model.ActionChoose:
		return ErrorIcon + " rejected"
	default:
		return "ignored"
	}
}
