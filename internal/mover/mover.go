// Package mover relocates files into destination folders and back.
package mover

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/stow/internal/common"
)

// Outcome classifies a move attempt.
type Outcome int

// Move outcomes.
const (
	OutcomeMoved Outcome = iota
	OutcomeLocked
	OutcomeDuplicate
	OutcomeMissing
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeLocked:
		return "locked"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeMissing:
		return "missing"
	default:
		return "failed"
	}
}

// ErrDestinationExists is returned by Restore when something already occupies the original path.
var ErrDestinationExists = errors.New("original path is occupied")

// Result is the outcome of one Move.
type Result struct {
	Err     error
	Dest    string
	Outcome Outcome
}

// Mover moves files, resolving name collisions by content hash.
type Mover struct {
	probe func(path string) bool
}

// New creates a Mover that probes for advisory locks before moving.
func New() *Mover {
	return &Mover{probe: isHeldOpen}
}

// Move places src inside dstFolder, creating the folder if needed.
func (m *Mover) Move(src, dstFolder string) Result {
	info, err := os.Stat(src)
	if errors.Is(err, os.ErrNotExist) {
		return Result{Outcome: OutcomeMissing, Err: fmt.Errorf("%w: %s", common.ErrMissingSource, src)}
	}
	if err != nil {
		return m.classify(err)
	}
	if info.IsDir() {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("%s is a directory", src)}
	}

	if m.probe != nil && m.probe(src) {
		return Result{Outcome: OutcomeLocked, Err: fmt.Errorf("%s is held by another process", src)}
	}

	if err := os.MkdirAll(dstFolder, 0o750); err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("failed to create %s: %w", dstFolder, err)}
	}

	dst := filepath.Join(dstFolder, filepath.Base(src))
	if _, err := os.Stat(dst); err == nil {
		same, hashErr := sameContent(src, dst)
		if hashErr != nil {
			return m.classify(hashErr)
		}
		if same {
			return Result{Outcome: OutcomeDuplicate, Dest: dst}
		}
		dst = uniquePath(dst)
	}

	if err := relocate(src, dst); err != nil {
		return m.classify(err)
	}
	return Result{Outcome: OutcomeMoved, Dest: dst}
}

// Restore moves dst back to src. Nothing is touched unless both ends check out.
func (m *Mover) Restore(dst, src string) error {
	if _, err := os.Stat(dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", common.ErrMissingSource, dst)
		}
		return fmt.Errorf("failed to stat %s: %w", dst, err)
	}

	parent := filepath.Dir(src)
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", common.ErrMissingDestination, parent)
	}
	if _, err := os.Lstat(src); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, src)
	}

	if err := relocate(dst, src); err != nil {
		return fmt.Errorf("failed to restore %s: %w", src, err)
	}
	return nil
}

func (m *Mover) classify(err error) Result {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Result{Outcome: OutcomeMissing, Err: err}
	case isLockError(err):
		return Result{Outcome: OutcomeLocked, Err: err}
	default:
		return Result{Outcome: OutcomeFailed, Err: err}
	}
}

// relocate renames, copying across filesystems when rename cannot.
func relocate(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !isCrossDevice(err) {
		return err
	}

	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return err
	}
	if err := os.Remove(src); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// uniquePath returns the first stem_N.ext beside path that does not exist.
func uniquePath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// FileHash returns the hex SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func sameContent(a, b string) (bool, error) {
	ai, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if ai.Size() != bi.Size() {
		return false, nil
	}

	ha, err := FileHash(a)
	if err != nil {
		return false, err
	}
	hb, err := FileHash(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
