package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statusdeck/statusdeck-backend/internal/data/repos/snapshots"
	"github.com/statusdeck/statusdeck-backend/internal/domain"
	"github.com/statusdeck/statusdeck-backend/internal/platform/dbctx"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
	"github.com/statusdeck/statusdeck-backend/internal/report"
)

// SnapshotService exposes the read and lifecycle side of the versioning
// store, plus template generation for the download boundary.
type SnapshotService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo snapshots.Repo
}

func NewSnapshotService(db *gorm.DB, log *logger.Logger, repo snapshots.Repo) *SnapshotService {
	return &SnapshotService{
		db:   db,
		log:  log.With("service", "SnapshotService"),
		repo: repo,
	}
}

// Current returns the live snapshot and the content hash of its view model.
// Both are nil/empty when nothing has ever been committed.
func (s *SnapshotService) Current(ctx context.Context) (*snapshots.Stored, string, error) {
	stored, err := s.repo.GetCurrent(dbctx.Context{Ctx: ctx})
	if err != nil || stored == nil {
		return nil, "", err
	}
	etag, err := ViewHash(&stored.View)
	if err != nil {
		return nil, "", err
	}
	return stored, etag, nil
}

// ViewHash computes the deterministic content hash of a view model, used as
// an ETag so unchanged dashboards are not re-sent.
func ViewHash(vm *domain.DashboardVM) (string, error) {
	raw, err := json.Marshal(vm)
	if err != nil {
		return "", fmt.Errorf("hash view model: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func (s *SnapshotService) ByID(ctx context.Context, id uuid.UUID) (*snapshots.Stored, error) {
	return s.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
}

func (s *SnapshotService) List(ctx context.Context, limit int) ([]domain.SnapshotListEntry, error) {
	return s.repo.List(dbctx.Context{Ctx: ctx}, limit)
}

func (s *SnapshotService) Rollback(ctx context.Context, id uuid.UUID, actor string) (bool, error) {
	return s.repo.Rollback(dbctx.Context{Ctx: ctx}, id, actor)
}

func (s *SnapshotService) Prune(ctx context.Context, keep int, actor string) (int, error) {
	return s.repo.Prune(dbctx.Context{Ctx: ctx}, keep, actor)
}

func (s *SnapshotService) Diff(ctx context.Context, fromID, toID uuid.UUID) (*snapshots.DiffResult, error) {
	return s.repo.Diff(dbctx.Context{Ctx: ctx}, fromID, toID)
}

func (s *SnapshotService) History(ctx context.Context, limit int) ([]domain.VersionEvent, error) {
	return s.repo.History(dbctx.Context{Ctx: ctx}, limit)
}

// Template builds an upload workbook pre-filled from the current snapshot
// when one exists, blank otherwise.
func (s *SnapshotService) Template(ctx context.Context) ([]byte, error) {
	stored, err := s.repo.GetCurrent(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	var current *domain.PortfolioSnapshot
	if stored != nil {
		current = &stored.Domain
	}
	return report.BuildTemplate(current)
}
