package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Snapshot is the immutable persistence envelope for one committed upload.
// Rows are never updated after creation; retention pruning is the only delete.
type Snapshot struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
	Actor      string         `json:"actor"`
	Notes      string         `json:"notes"`
	RawSource  []byte         `json:"-"`
	DomainData datatypes.JSON `gorm:"not null" json:"-"`
	ViewData   datatypes.JSON `gorm:"not null" json:"-"`
}

// SnapshotHeaders is the 1:1 normalized header row for a snapshot.
type SnapshotHeaders struct {
	SnapshotID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Portfolio       string    `gorm:"not null"`
	PeriodStart     string
	PeriodEnd       string
	ComparisonStart string
	ComparisonEnd   string
	ReportDate      string
}

// SnapshotStatusRow is one normalized status-table row. Position preserves
// input order.
type SnapshotStatusRow struct {
	ID            uint      `gorm:"primaryKey"`
	SnapshotID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Position      int       `gorm:"not null"`
	Project       string    `gorm:"not null"`
	Color         string    `gorm:"not null"`
	Trend         string
	Manager       string
	NextMilestone string
}

type SnapshotHighlight struct {
	ID          uint      `gorm:"primaryKey"`
	SnapshotID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Position    int       `gorm:"not null"`
	Kind        string    `gorm:"not null"`
	Project     string
	Description string `gorm:"not null"`
}

type SnapshotMilestone struct {
	ID         uint      `gorm:"primaryKey"`
	SnapshotID uuid.UUID `gorm:"type:uuid;not null;index"`
	Position   int       `gorm:"not null"`
	Project    string    `gorm:"not null"`
	Milestone  string    `gorm:"not null"`
	Owner      string
	DueDate    string
	Badge      string `gorm:"not null"`
	Update     string
}

type SnapshotMetrics struct {
	ID                  uint      `gorm:"primaryKey"`
	SnapshotID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Position            int       `gorm:"not null"`
	Project             string    `gorm:"not null"`
	SPI                 *float64
	CPI                 *float64
	Sev1Defects         *int
	Sev2Defects         *int
	OpenIssues          *int
	RiskScore           *float64
	MilestoneCompletion *float64
}

// CurrentPointerID is the well-known primary key of the singleton pointer row.
const CurrentPointerID = 1

// CurrentPointer is the single-row table referencing the live snapshot. It is
// only ever touched inside the versioning store's transactions so multiple
// server instances stay consistent.
type CurrentPointer struct {
	ID         int       `gorm:"primaryKey"`
	SnapshotID uuid.UUID `gorm:"type:uuid;not null"`
	UpdatedAt  time.Time
}

// VersionEvent is one append-only history entry: create, rollback or prune.
type VersionEvent struct {
	ID         uint       `gorm:"primaryKey"`
	SnapshotID *uuid.UUID `gorm:"type:uuid;index" json:"snapshot_id,omitempty"`
	Action     string     `gorm:"not null" json:"action"`
	Actor      string     `json:"actor"`
	Detail     string     `json:"detail"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
}

// SnapshotListEntry is what List returns: envelope metadata plus whether the
// entry is the one the current pointer references.
type SnapshotListEntry struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Actor     string    `json:"actor"`
	Notes     string    `json:"notes"`
	IsCurrent bool      `json:"is_current"`
}
