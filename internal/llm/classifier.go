package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/stow/internal/common"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds one Classify call, including retries.
const DefaultTimeout = 30 * time.Second

const systemPrompt = `You organize downloaded files into an existing folder structure.
Pick exactly one folder from the provided list, or none if nothing fits.
Respond with a single JSON object and nothing else:
{"folder": "<exact folder name from the list>", "confidence": <0-100>, "reasoning": "<one sentence>"}`

// Correction is a past suggestion the user rejected.
type Correction struct {
	Filename string
	Rejected string
}

// Request is one file to classify.
type Request struct {
	Filename    string
	Snippet     string
	Candidates  []string
	Corrections []Correction
}

// FolderClassifier picks a destination folder using an LLM.
type FolderClassifier struct {
	client    Client
	cache     *suggestionCache
	logger    *slog.Logger
	limiter   *rate.Limiter
	retryOpts common.RetryOptions
	timeout   time.Duration
}

// NewFolderClassifier creates a classifier for cfg.Provider.
func NewFolderClassifier(cfg Config, logger *slog.Logger) (*FolderClassifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewFolderClassifierWithClient(client, cfg, logger), nil
}

// NewFolderClassifierWithClient wraps an existing Client.
func NewFolderClassifierWithClient(client Client, cfg Config, logger *slog.Logger) *FolderClassifier {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	perMinute := cfg.RateLimit
	if perMinute <= 0 {
		perMinute = 30
	}

	return &FolderClassifier{
		client:    client,
		cache:     newSuggestionCache(cfg.CacheTTL),
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 3),
		retryOpts: retryOpts,
		timeout:   timeout,
	}
}

// Classify asks for a folder. ok is false whenever there is no usable answer:
// timeout, transport failure, malformed payload or a folder outside Candidates.
func (c *FolderClassifier) Classify(ctx context.Context, req Request) (Suggestion, bool) {
	if len(req.Candidates) == 0 {
		return Suggestion{}, false
	}

	key := cacheKey(req)
	if s, ok, hit := c.cache.get(key); hit {
		c.logger.Debug("classifier cache hit", "file", req.Filename, "ok", ok)
		return s, ok
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Debug("classifier rate limit wait aborted", "file", req.Filename, "error", err)
		return Suggestion{}, false
	}

	prompt := buildPrompt(req)

	var reply string
	err := common.WithRetry(ctx, func() error {
		out, err := c.client.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			c.logger.Debug("classifier attempt failed", "file", req.Filename, "error", err)
			return &common.RetryableError{Err: err, Retryable: isTransient(err)}
		}
		reply = out
		return nil
	}, c.retryOpts)
	if err != nil {
		c.logger.Warn("classifier unavailable, falling back",
			"file", req.Filename,
			"error", fmt.Errorf("%w: %v", common.ErrClassifierUnavailable, err))
		return Suggestion{}, false
	}

	s, err := parseSuggestion(reply, req.Candidates)
	if err != nil {
		c.logger.Debug("classifier reply rejected", "file", req.Filename, "error", err)
		c.cache.set(key, Suggestion{}, false)
		return Suggestion{}, false
	}

	c.cache.set(key, s, true)
	c.logger.Info("file classified",
		"file", req.Filename,
		"folder", s.Folder,
		"confidence", s.Confidence)
	return s, true
}

// Close releases background resources.
func (c *FolderClassifier) Close() {
	c.cache.Close()
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// cacheKey identifies a request by filename, content and the candidate set.
func cacheKey(req Request) string {
	names := append([]string(nil), req.Candidates...)
	sort.Strings(names)
	sum := sha256.Sum256([]byte(req.Snippet))
	return req.Filename + "\x00" + hex.EncodeToString(sum[:8]) + "\x00" + strings.Join(names, "\x00")
}

func buildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Filename: %s\n", req.Filename)
	if req.Snippet != "" {
		fmt.Fprintf(&b, "Content excerpt: %s\n", req.Snippet)
	}

	b.WriteString("\nAvailable folders:\n")
	for _, name := range req.Candidates {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	if len(req.Corrections) > 0 {
		b.WriteString("\nPast suggestions the user rejected (avoid repeating these mistakes):\n")
		for _, corr := range req.Corrections {
			fmt.Fprintf(&b, "- %s was NOT %s\n", corr.Filename, corr.Rejected)
		}
	}

	b.WriteString("\nChoose the single best folder from the list above.")
	return b.String()
}
