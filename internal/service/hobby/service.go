// Package hobby implements the hobby-list operations behind the anime
// tracker pages.
package hobby

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	domain "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/hobby"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/repository"
)

// Service implements list/add/update for the anime tracker.
type Service struct {
	repo   repository.HobbyRepository
	node   *snowflake.Node
	logger *zap.Logger
}

// NewService wires the hobby service.
func NewService(repo repository.HobbyRepository, node *snowflake.Node, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	return &Service{repo: repo, node: node, logger: logger}
}

// ListAnime returns anime entries, optionally filtered by type and
// watching status.
func (s *Service) ListAnime(ctx context.Context, entryType, watchingStatus string) ([]domain.Entry, error) {
	return s.repo.List(ctx, domain.Filter{
		Kind:           domain.KindAnime,
		Type:           entryType,
		WatchingStatus: watchingStatus,
	})
}

// AddFavorite adds an owner-curated entry. Duplicate MAL ids are rejected.
func (s *Service) AddFavorite(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	entry.Type = domain.TypeFavorite
	entry.Anonymous = nil
	return s.add(ctx, entry)
}

// AddRequest adds a visitor recommendation, optionally attributed.
func (s *Service) AddRequest(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	entry.Type = domain.TypeRequest
	if entry.Anonymous != nil && strings.TrimSpace(*entry.Anonymous) == "" {
		entry.Anonymous = nil
	}
	return s.add(ctx, entry)
}

func (s *Service) add(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	if entry.MALID <= 0 || strings.TrimSpace(entry.Title) == "" {
		return domain.Entry{}, domain.ErrInvalidEntry
	}
	entry.Kind = domain.KindAnime

	// Dedup on mal_id alone so a favorite blocks a request for the same
	// show and vice versa.
	exists, err := s.repo.ExistsByMALID(ctx, entry.Kind, entry.MALID)
	if err != nil {
		return domain.Entry{}, err
	}
	if exists {
		return domain.Entry{}, domain.ErrDuplicate
	}

	entry.ID = s.node.Generate().Int64()
	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return domain.Entry{}, err
	}
	s.logger.Info("hobby entry added",
		zap.Int64("id", created.ID),
		zap.Int64("mal_id", created.MALID),
		zap.String("type", created.Type),
	)
	return created, nil
}

// UpdateWatchingStatus moves an entry to a new watching status.
func (s *Service) UpdateWatchingStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case domain.StatusPlanned, domain.StatusWatching, domain.StatusCompleted, domain.StatusDropped:
	default:
		return domain.ErrInvalidEntry
	}
	return s.repo.UpdateWatchingStatus(ctx, id, status)
}
