// Package domain defines the persistence models for the pass ledger and the
// submission history of pass batches. These types are mapped with GORM and
// shared by the repository and service layers.
package domain

import "time"

// Pass is a pass the upstream API confirmed as created. Rows are written
// only after a submission reports them in its successful list, so the table
// is the durable set of barcodes already taken for an event.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - PassID: identifier assigned by the upstream API.
//   - EventID / Barcode: unique together; a barcode may repeat across events.
//   - BatchID / RunID: the batch session and submission run that created it.
type Pass struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	PassID       string    `json:"pass_id"       gorm:"type:varchar(128);not null"`
	EventID      string    `json:"event_id"      gorm:"type:varchar(16);not null;uniqueIndex:ux_pass_event_barcode,priority:1"`
	Barcode      string    `json:"barcode"       gorm:"type:varchar(16);not null;uniqueIndex:ux_pass_event_barcode,priority:2"`
	AccountID    string    `json:"account_id"    gorm:"type:varchar(64);not null"`
	CustomerName string    `json:"customer_name" gorm:"type:varchar(128);not null"`
	SpotType     string    `json:"spot_type"     gorm:"type:varchar(16);not null"`
	LotID        string    `json:"lot_id"        gorm:"type:varchar(32);not null"`
	BatchID      string    `json:"batch_id"      gorm:"type:char(36);not null;index"`
	RunID        string    `json:"run_id"        gorm:"type:char(36);not null;index"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index"`
}

// TableName returns the database table name for Pass.
func (Pass) TableName() string { return "passes" }

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
	OutcomeError   = "error" // terminal transport failure, nothing applied
)

// BatchRun records one submit or retry of a batch session.
// ResultJSON holds the merged batch result as returned to the caller, which
// lets an idempotent replay answer without touching the upstream API again.
type BatchRun struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	BatchID    string    `json:"batch_id"   gorm:"type:char(36);not null;index:idx_batch_runs,priority:1"`
	EventID    string    `json:"event_id"   gorm:"type:varchar(16);not null"`
	UserID     string    `json:"user_id"    gorm:"type:varchar(64);not null"`
	Retry      bool      `json:"retry"      gorm:"not null;default:false"`
	Submitted  int       `json:"submitted"  gorm:"not null"`
	Succeeded  int       `json:"succeeded"  gorm:"not null"`
	Failed     int       `json:"failed"     gorm:"not null"`
	Outcome    string    `json:"outcome"    gorm:"type:varchar(16);not null;check:outcome IN ('success','partial','failed','error')"`
	Error      string    `json:"error,omitempty" gorm:"type:text"`
	ResultJSON string    `json:"-"          gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"index:idx_batch_runs,priority:2"`
}

// TableName returns the database table name for BatchRun.
func (BatchRun) TableName() string { return "batch_runs" }
