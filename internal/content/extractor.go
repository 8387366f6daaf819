// Package content pulls short text snippets out of documents.
package content

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxChars bounds snippet length when none is configured.
const DefaultMaxChars = 500

var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".log":  true,
	".csv":  true,
	".tex":  true,
	".json": true,
	".py":   true,
	".go":   true,
}

// Extractor returns a snippet for supported files and "" for everything else.
type Extractor struct {
	maxChars int
}

// NewExtractor creates an Extractor capped at maxChars runes.
func NewExtractor(maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Extractor{maxChars: maxChars}
}

// Extract never fails; any problem yields "".
func (e *Extractor) Extract(path string) (snippet string) {
	defer func() {
		// The PDF reader panics on some malformed files.
		if r := recover(); r != nil {
			slog.Debug("Content extraction panicked", "path", path, "panic", r)
			snippet = ""
		}
	}()

	ext := strings.ToLower(filepath.Ext(path))
	var (
		raw string
		err error
	)
	switch {
	case ext == ".pdf":
		raw, err = e.readPDF(path)
	case textExtensions[ext]:
		raw, err = e.readText(path)
	default:
		return ""
	}
	if err != nil {
		slog.Debug("Content extraction failed", "path", path, "error", err)
		return ""
	}
	return e.clip(collapse(raw))
}

func (e *Extractor) readText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	// Four bytes per rune is the worst case for UTF-8.
	buf, err := io.ReadAll(io.LimitReader(bufio.NewReader(f), int64(e.maxChars*4)))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return strings.ToValidUTF8(string(buf), ""), nil
	}
	return string(buf), nil
}

func (e *Extractor) readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	text, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	buf, err := io.ReadAll(io.LimitReader(text, int64(e.maxChars*8)))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (e *Extractor) clip(s string) string {
	if utf8.RuneCountInString(s) <= e.maxChars {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:e.maxChars]))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
