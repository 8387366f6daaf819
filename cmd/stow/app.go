package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/stow/internal/common"
	"github.com/Veraticus/stow/internal/config"
	"github.com/Veraticus/stow/internal/content"
	"github.com/Veraticus/stow/internal/coordinator"
	"github.com/Veraticus/stow/internal/engine"
	"github.com/Veraticus/stow/internal/llm"
	"github.com/Veraticus/stow/internal/mover"
	"github.com/Veraticus/stow/internal/storage"
	"github.com/spf13/viper"
)

// app holds everything a command needs, built from the loaded settings.
type app struct {
	settings   *config.Settings
	store      *storage.SQLiteStorage
	classifier *llm.FolderClassifier
	matcher    *engine.Matcher
	organizer  *engine.Organizer
	retry      *coordinator.Retry
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("Configuration problem, check ~/.config/stow/config.yaml", err)
	}
	return settings, nil
}

// openStore opens and migrates the database.
func openStore(ctx context.Context, settings *config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath, storage.WithUndoLimit(settings.MaxUndoHistory))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// newClassifier returns nil when the classifier is disabled or has no key;
// matching then falls back to the name heuristics.
func newClassifier(settings *config.Settings, logger *slog.Logger) *llm.FolderClassifier {
	if !settings.LLMEnabled {
		return nil
	}
	if settings.LLMAPIKey == "" {
		logger.Info("no API key configured, using name matching only", "provider", settings.LLMProvider)
		return nil
	}

	classifier, err := llm.NewFolderClassifier(llm.Config{
		Provider:  settings.LLMProvider,
		APIKey:    settings.LLMAPIKey,
		Model:     settings.LLMModel,
		Timeout:   settings.LLMTimeout,
		RateLimit: settings.LLMRateLimit,
	}, logger)
	if err != nil {
		logger.Warn("classifier unavailable, using name matching only", "error", err)
		return nil
	}
	return classifier
}

// newApp wires the store, matcher and organizer. prompter may be nil, in
// which case files that need a decision are left in place.
func newApp(ctx context.Context, prompter engine.Prompter) (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, settings)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	a := &app{
		settings:   settings,
		store:      store,
		classifier: newClassifier(settings, logger),
		retry:      coordinator.NewRetry(settings.MaxRetries),
	}

	opts := []engine.MatcherOption{
		engine.WithExtractor(content.NewExtractor(settings.ContentMaxChars)),
		engine.WithMatcherLogger(logger),
	}
	if a.classifier != nil {
		opts = append(opts, engine.WithClassifier(a.classifier))
	}
	a.matcher = engine.NewMatcher(store, settings.Scopes, opts...)

	a.organizer = engine.NewOrganizer(store, a.matcher, mover.New(), prompter,
		engine.Config{
			AutoThreshold:    settings.AutoThreshold,
			SuggestThreshold: settings.SuggestThreshold,
		},
		engine.WithRetryQueue(a.retry),
		engine.WithLogger(logger),
	)
	return a, nil
}

func (a *app) Close() {
	if a.classifier != nil {
		a.classifier.Close()
	}
	if err := a.store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}
