package services

import (
	"bytes"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statusdeck/statusdeck-backend/internal/data/repos/snapshots"
	"github.com/statusdeck/statusdeck-backend/internal/domain"
	"github.com/statusdeck/statusdeck-backend/internal/importer"
	"github.com/statusdeck/statusdeck-backend/internal/platform/dbctx"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
	"github.com/statusdeck/statusdeck-backend/internal/report"
	"github.com/statusdeck/statusdeck-backend/internal/view"
)

// ImportOptions control one run of the pipeline. Commit false is preview-only:
// the pipeline runs end to end but nothing is persisted.
type ImportOptions struct {
	Commit bool
	Actor  string
	Notes  string
}

// ImportOutcome is the pipeline result handed to the boundary. On validation
// failure Report carries the generated workbook and nothing was persisted.
type ImportOutcome struct {
	OK        bool                         `json:"ok"`
	Errors    []importer.ValidationError   `json:"errors,omitempty"`
	Warnings  []importer.ValidationWarning `json:"warnings"`
	Preview   *domain.DashboardVM          `json:"preview,omitempty"`
	VersionID *uuid.UUID                   `json:"version_id,omitempty"`
	Diff      *snapshots.DiffResult        `json:"diff,omitempty"`
	Committed bool                         `json:"committed"`
	Report    []byte                       `json:"-"`
}

// ImportService runs the snapshot pipeline: parse, validate, transform,
// optionally commit.
type ImportService struct {
	db     *gorm.DB
	log    *logger.Logger
	parser *importer.Parser
	repo   snapshots.Repo
}

func NewImportService(db *gorm.DB, log *logger.Logger, parser *importer.Parser, repo snapshots.Repo) *ImportService {
	return &ImportService{
		db:     db,
		log:    log.With("service", "ImportService"),
		parser: parser,
		repo:   repo,
	}
}

// ImportWorkbook runs the pipeline over an xlsx upload.
func (s *ImportService) ImportWorkbook(ctx context.Context, raw []byte, opts ImportOptions) (*ImportOutcome, error) {
	res, err := s.parser.ParseWorkbook(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, res, raw, opts)
}

// ImportJSON runs the pipeline over a JSON upload in domain or view shape.
// View-shaped input borrows the current snapshot's domain data for the fields
// the view transform cannot reconstruct.
func (s *ImportService) ImportJSON(ctx context.Context, raw []byte, opts ImportOptions) (*ImportOutcome, error) {
	var current *domain.PortfolioSnapshot
	stored, err := s.repo.GetCurrent(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	if stored != nil {
		current = &stored.Domain
	}
	res, err := s.parser.ParseJSON(raw, current)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, res, raw, opts)
}

func (s *ImportService) complete(ctx context.Context, res *importer.Result, raw []byte, opts ImportOptions) (*ImportOutcome, error) {
	outcome := &ImportOutcome{
		OK:       res.OK,
		Errors:   res.Errors,
		Warnings: res.Warnings,
	}

	if !res.OK {
		// The store is never touched on a failed validation; the user gets an
		// actionable report instead.
		reportBytes, err := report.BuildImportReport(res.Errors, res.Warnings)
		if err != nil {
			s.log.Error("building import report failed", "error", err)
			return nil, err
		}
		outcome.Report = reportBytes
		s.log.Warn("import rejected", "errors", len(res.Errors), "warnings", len(res.Warnings))
		return outcome, nil
	}

	vm := view.ToView(res.Data)
	outcome.Preview = &vm

	if !opts.Commit {
		return outcome, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	previous, err := s.repo.GetCurrent(dbc)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(dbc, res.Data, &vm, raw, opts.Actor, opts.Notes)
	if err != nil {
		return nil, err
	}
	outcome.VersionID = &id
	outcome.Committed = true

	if previous != nil {
		outcome.Diff = snapshots.ComputeDiff(&previous.Domain, res.Data)
	}
	s.log.Info("import committed", "version_id", id, "actor", opts.Actor)
	return outcome, nil
}
