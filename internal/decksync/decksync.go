// Package decksync reconciles configured card sources with the card store:
// new content becomes New-state cards ready for scheduling, and cards whose
// content disappeared from their source are removed.
package decksync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardwheel/cardwheel/internal/cardhash"
	"github.com/cardwheel/cardwheel/internal/domain"
	"github.com/cardwheel/cardwheel/internal/gitsource"
	"github.com/cardwheel/cardwheel/internal/parser"
	"github.com/cardwheel/cardwheel/internal/storage"
)

// Syncer runs reconciliation passes over all configured sources.
type Syncer struct {
	db       *storage.DB
	logger   *slog.Logger
	reposDir string
	now      func() time.Time
}

// NewSyncer creates a Syncer. reposDir is where git sources are mirrored.
func NewSyncer(db *storage.DB, logger *slog.Logger, reposDir string) *Syncer {
	return &Syncer{db: db, logger: logger, reposDir: reposDir, now: time.Now}
}

// Run iterates over all sources and reconciles each. Per-source failures
// are logged and skipped so one broken source cannot block the rest.
func (s *Syncer) Run(ctx context.Context) error {
	sources, err := s.db.GetAllSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	if len(sources) == 0 {
		s.logger.Info("no sources configured, nothing to sync")
		return nil
	}

	if err := os.MkdirAll(s.reposDir, 0o755); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		s.logger.Info("syncing source",
			"id", source.ID, "type", source.Type, "path", source.Path, "bag", source.Bag)

		dir := source.Path
		if source.Type == storage.SourceTypeGit {
			localPath, err := gitURLToLocalPath(s.reposDir, source.Path)
			if err != nil {
				s.logger.Error("cannot map git URL to local path", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(ctx, s.logger, source.Path, localPath); err != nil {
				s.logger.Error("git sync failed", "url", source.Path, "error", err)
				continue
			}
			dir = localPath
		}

		if err := s.reconcile(ctx, source, dir); err != nil {
			s.logger.Error("reconciliation failed", "source_id", source.ID, "error", err)
		}
	}
	return nil
}

// reconcile walks one source directory, inserts cards for unseen content,
// and deletes cards whose content is gone from the source.
func (s *Syncer) reconcile(ctx context.Context, source storage.Source, dir string) error {
	found := make(map[string]bool)
	var parsed, inserted int
	var parseErrs []error

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		cards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			parseErrs = append(parseErrs, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, content := range cards {
			parsed++
			hash := cardhash.Hash(content.Question, content.Answer, content.Context)
			found[hash] = true

			existing, err := s.db.FindCardByHash(ctx, source.UserID, hash)
			if err != nil {
				parseErrs = append(parseErrs, fmt.Errorf("db check for %s: %w", hash, err))
				continue
			}
			if existing != nil {
				continue
			}

			card := domain.NewCard(uuid.NewString(), source.UserID, source.Bag, s.now())
			card.SourceID = source.ID
			card.Question = content.Question
			card.Answer = content.Answer
			card.Context = content.Context
			card.Hash = hash

			if err := s.db.InsertCard(ctx, card); err != nil {
				parseErrs = append(parseErrs, fmt.Errorf("db insert for %s: %w", hash, err))
				continue
			}
			inserted++
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walking %s: %w", dir, walkErr)
	}

	existing, err := s.db.CardsBySource(ctx, source.ID)
	if err != nil {
		return fmt.Errorf("loading cards for source %d: %w", source.ID, err)
	}

	var orphaned int
	for _, card := range existing {
		if found[card.Hash] {
			continue
		}
		orphaned++
		if err := s.db.DeleteCard(ctx, card.ID); err != nil {
			s.logger.Warn("failed to delete orphaned card", "card_id", card.ID, "error", err)
		}
	}

	if err := s.db.UpdateSourceLastScanned(ctx, source.ID); err != nil {
		s.logger.Warn("failed to stamp last scan", "source_id", source.ID, "error", err)
	}

	s.logger.Info("reconciliation complete",
		"source_id", source.ID,
		"parsed", parsed,
		"inserted", inserted,
		"orphaned_deleted", orphaned,
		"errors", len(parseErrs),
	)
	return nil
}

// gitURLToLocalPath maps a git URL (https or scp-like ssh) to a stable
// checkout path under baseDir.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err == nil && (parsedURL.Scheme == "https" || parsedURL.Scheme == "http") {
		p := strings.TrimSuffix(parsedURL.Path, ".git")
		return filepath.Join(baseDir, parsedURL.Host, p), nil
	}

	// scp-like form: git@host:owner/repo.git
	if at := strings.Index(repoURL, "@"); at >= 0 {
		rest := repoURL[at+1:]
		if host, repoPath, ok := strings.Cut(rest, ":"); ok {
			repoPath = strings.TrimSuffix(repoPath, ".git")
			return filepath.Join(baseDir, host, repoPath), nil
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
