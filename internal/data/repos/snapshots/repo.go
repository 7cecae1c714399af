package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
	"github.com/statusdeck/statusdeck-backend/internal/pkg/dbretry"
	pkgerr "github.com/statusdeck/statusdeck-backend/internal/pkg/errors"
	"github.com/statusdeck/statusdeck-backend/internal/platform/dbctx"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
)

// Stored is a fully materialized snapshot as read back from the store.
type Stored struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Actor     string
	Notes     string
	Domain    domain.PortfolioSnapshot
	View      domain.DashboardVM
}

// Repo is the versioning store: immutable snapshots, a single transactional
// current pointer, append-only history, retention pruning and structural
// diffs. One GORM implementation serves both the postgres and sqlite backends.
type Repo interface {
	Create(dbc dbctx.Context, d *domain.PortfolioSnapshot, vm *domain.DashboardVM, raw []byte, actor, notes string) (uuid.UUID, error)
	GetCurrent(dbc dbctx.Context) (*Stored, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*Stored, error)
	List(dbc dbctx.Context, limit int) ([]domain.SnapshotListEntry, error)
	Rollback(dbc dbctx.Context, id uuid.UUID, actor string) (bool, error)
	Prune(dbc dbctx.Context, keep int, actor string) (int, error)
	Diff(dbc dbctx.Context, fromID, toID uuid.UUID) (*DiffResult, error)
	History(dbc dbctx.Context, limit int) ([]domain.VersionEvent, error)
}

type repo struct {
	db       *gorm.DB
	log      *logger.Logger
	attempts int
	backoff  time.Duration
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{
		db:       db,
		log:      baseLog.With("repo", "SnapshotRepo"),
		attempts: 3,
		backoff:  50 * time.Millisecond,
	}
}

func (r *repo) conn(dbc dbctx.Context) *gorm.DB {
	tx := dbc.Tx
	if tx == nil {
		tx = r.db
	}
	if dbc.Ctx != nil {
		tx = tx.WithContext(dbc.Ctx)
	}
	return tx
}

// Create persists a snapshot envelope, its normalized child rows, the current
// pointer move and the history entry in one transaction. Any failure leaves
// the previous pointer and all prior snapshots untouched.
func (r *repo) Create(dbc dbctx.Context, d *domain.PortfolioSnapshot, vm *domain.DashboardVM, raw []byte, actor, notes string) (uuid.UUID, error) {
	if d == nil || vm == nil {
		return uuid.Nil, fmt.Errorf("%w: nil snapshot data", pkgerr.ErrInvalidArgument)
	}
	domBytes, err := json.Marshal(d)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal domain data: %w", err)
	}
	vmBytes, err := json.Marshal(vm)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal view data: %w", err)
	}

	id := uuid.New()
	now := time.Now().UTC()

	err = dbretry.Do(ctxOf(dbc), r.attempts, r.backoff, func() error {
		return r.conn(dbc).Transaction(func(tx *gorm.DB) error {
			snap := &domain.Snapshot{
				ID:         id,
				CreatedAt:  now,
				Actor:      actor,
				Notes:      notes,
				RawSource:  raw,
				DomainData: domBytes,
				ViewData:   vmBytes,
			}
			if err := tx.Create(snap).Error; err != nil {
				return err
			}
			if err := tx.Create(&domain.SnapshotHeaders{
				SnapshotID:      id,
				Portfolio:       d.Headers.Portfolio,
				PeriodStart:     d.Headers.PeriodStart,
				PeriodEnd:       d.Headers.PeriodEnd,
				ComparisonStart: d.Headers.ComparisonStart,
				ComparisonEnd:   d.Headers.ComparisonEnd,
				ReportDate:      d.Headers.ReportDate,
			}).Error; err != nil {
				return err
			}
			if err := createChildRows(tx, id, d); err != nil {
				return err
			}
			if err := repointCurrent(tx, id, now); err != nil {
				return err
			}
			return appendEvent(tx, &id, "create", actor,
				fmt.Sprintf("snapshot created for portfolio %q", d.Headers.Portfolio))
		})
	})
	if err != nil {
		r.log.Error("Create snapshot failed", "error", err, "snapshot_id", id)
		return uuid.Nil, err
	}
	r.log.Info("Snapshot created", "snapshot_id", id, "actor", actor)
	return id, nil
}

func createChildRows(tx *gorm.DB, id uuid.UUID, d *domain.PortfolioSnapshot) error {
	for i, row := range d.Status {
		if err := tx.Create(&domain.SnapshotStatusRow{
			SnapshotID:    id,
			Position:      i,
			Project:       row.Project,
			Color:         string(row.Color),
			Trend:         string(row.Trend),
			Manager:       row.Manager,
			NextMilestone: row.NextMilestone,
		}).Error; err != nil {
			return err
		}
	}
	for i, row := range append(append([]domain.HighlightLowlight{}, d.Highlights...), d.Lowlights...) {
		if err := tx.Create(&domain.SnapshotHighlight{
			SnapshotID:  id,
			Position:    i,
			Kind:        row.Kind,
			Project:     row.Project,
			Description: row.Description,
		}).Error; err != nil {
			return err
		}
	}
	for i, row := range d.Milestones {
		if err := tx.Create(&domain.SnapshotMilestone{
			SnapshotID: id,
			Position:   i,
			Project:    row.Project,
			Milestone:  row.Milestone,
			Owner:      row.Owner,
			DueDate:    row.DueDate,
			Badge:      row.Badge,
			Update:     row.Update,
		}).Error; err != nil {
			return err
		}
	}
	for i, row := range d.Metrics {
		if err := tx.Create(&domain.SnapshotMetrics{
			SnapshotID:          id,
			Position:            i,
			Project:             row.Project,
			SPI:                 row.SPI,
			CPI:                 row.CPI,
			Sev1Defects:         row.Sev1Defects,
			Sev2Defects:         row.Sev2Defects,
			OpenIssues:          row.OpenIssues,
			RiskScore:           row.RiskScore,
			MilestoneCompletion: row.MilestoneCompletion,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func repointCurrent(tx *gorm.DB, id uuid.UUID, now time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"snapshot_id", "updated_at"}),
	}).Create(&domain.CurrentPointer{
		ID:         domain.CurrentPointerID,
		SnapshotID: id,
		UpdatedAt:  now,
	}).Error
}

func appendEvent(tx *gorm.DB, id *uuid.UUID, action, actor, detail string) error {
	return tx.Create(&domain.VersionEvent{
		SnapshotID: id,
		Action:     action,
		Actor:      actor,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}).Error
}

// GetCurrent returns the snapshot the pointer references, or nil when nothing
// has ever been committed.
func (r *repo) GetCurrent(dbc dbctx.Context) (*Stored, error) {
	var ptr domain.CurrentPointer
	err := r.conn(dbc).First(&ptr, "id = ?", domain.CurrentPointerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(dbc, ptr.SnapshotID)
}

func (r *repo) GetByID(dbc dbctx.Context, id uuid.UUID) (*Stored, error) {
	var snap domain.Snapshot
	err := r.conn(dbc).First(&snap, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: snapshot %s", pkgerr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return hydrate(&snap)
}

func hydrate(snap *domain.Snapshot) (*Stored, error) {
	stored := &Stored{
		ID:        snap.ID,
		CreatedAt: snap.CreatedAt,
		Actor:     snap.Actor,
		Notes:     snap.Notes,
	}
	if err := json.Unmarshal(snap.DomainData, &stored.Domain); err != nil {
		return nil, fmt.Errorf("unmarshal domain data for %s: %w", snap.ID, err)
	}
	if err := json.Unmarshal(snap.ViewData, &stored.View); err != nil {
		return nil, fmt.Errorf("unmarshal view data for %s: %w", snap.ID, err)
	}
	return stored, nil
}

func (r *repo) List(dbc dbctx.Context, limit int) ([]domain.SnapshotListEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var snaps []domain.Snapshot
	if err := r.conn(dbc).
		Select("id", "created_at", "actor", "notes").
		Order("created_at DESC").
		Limit(limit).
		Find(&snaps).Error; err != nil {
		return nil, err
	}

	currentID := uuid.Nil
	var ptr domain.CurrentPointer
	if err := r.conn(dbc).First(&ptr, "id = ?", domain.CurrentPointerID).Error; err == nil {
		currentID = ptr.SnapshotID
	}

	out := make([]domain.SnapshotListEntry, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, domain.SnapshotListEntry{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			Actor:     s.Actor,
			Notes:     s.Notes,
			IsCurrent: s.ID == currentID,
		})
	}
	return out, nil
}

// Rollback atomically repoints the current pointer at an existing snapshot.
// It returns false for an unknown id and never mutates the target snapshot.
func (r *repo) Rollback(dbc dbctx.Context, id uuid.UUID, actor string) (bool, error) {
	found := false
	err := dbretry.Do(ctxOf(dbc), r.attempts, r.backoff, func() error {
		found = false
		return r.conn(dbc).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&domain.Snapshot{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return nil
			}
			if err := repointCurrent(tx, id, time.Now().UTC()); err != nil {
				return err
			}
			if err := appendEvent(tx, &id, "rollback", actor,
				fmt.Sprintf("current pointer moved to snapshot %s", id)); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil {
		r.log.Error("Rollback failed", "error", err, "snapshot_id", id)
		return false, err
	}
	if found {
		r.log.Info("Rolled back to snapshot", "snapshot_id", id, "actor", actor)
	}
	return found, nil
}

// Prune deletes all but the keep most-recently-created snapshots. The
// snapshot referenced by the current pointer is always retained, even when it
// falls outside the retention window.
func (r *repo) Prune(dbc dbctx.Context, keep int, actor string) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("%w: keep must be at least 1", pkgerr.ErrInvalidArgument)
	}
	deleted := 0
	err := dbretry.Do(ctxOf(dbc), r.attempts, r.backoff, func() error {
		deleted = 0
		return r.conn(dbc).Transaction(func(tx *gorm.DB) error {
			var ids []uuid.UUID
			if err := tx.Model(&domain.Snapshot{}).
				Order("created_at DESC").
				Pluck("id", &ids).Error; err != nil {
				return err
			}
			if len(ids) <= keep {
				return nil
			}

			currentID := uuid.Nil
			var ptr domain.CurrentPointer
			if err := tx.First(&ptr, "id = ?", domain.CurrentPointerID).Error; err == nil {
				currentID = ptr.SnapshotID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			var victims []uuid.UUID
			for _, id := range ids[keep:] {
				if id == currentID {
					continue
				}
				victims = append(victims, id)
			}
			if len(victims) == 0 {
				return nil
			}

			for _, model := range []interface{}{
				&domain.SnapshotHeaders{},
				&domain.SnapshotStatusRow{},
				&domain.SnapshotHighlight{},
				&domain.SnapshotMilestone{},
				&domain.SnapshotMetrics{},
			} {
				if err := tx.Where("snapshot_id IN ?", victims).Delete(model).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", victims).Delete(&domain.Snapshot{}).Error; err != nil {
				return err
			}
			if err := appendEvent(tx, nil, "prune", actor,
				fmt.Sprintf("pruned %d snapshots, keeping %d most recent", len(victims), keep)); err != nil {
				return err
			}
			deleted = len(victims)
			return nil
		})
	})
	if err != nil {
		r.log.Error("Prune failed", "error", err, "keep", keep)
		return 0, err
	}
	if deleted > 0 {
		r.log.Info("Pruned snapshots", "deleted", deleted, "keep", keep)
	}
	return deleted, nil
}

// Diff loads two snapshots and structurally compares their domain data.
func (r *repo) Diff(dbc dbctx.Context, fromID, toID uuid.UUID) (*DiffResult, error) {
	from, err := r.GetByID(dbc, fromID)
	if err != nil {
		return nil, err
	}
	to, err := r.GetByID(dbc, toID)
	if err != nil {
		return nil, err
	}
	return ComputeDiff(&from.Domain, &to.Domain), nil
}

func (r *repo) History(dbc dbctx.Context, limit int) ([]domain.VersionEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []domain.VersionEvent
	if err := r.conn(dbc).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func ctxOf(dbc dbctx.Context) context.Context {
	if dbc.Ctx != nil {
		return dbc.Ctx
	}
	return context.Background()
}
