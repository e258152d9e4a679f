package domain

import "time"

// Idempotency maps a client-supplied Idempotency-Key to the submission run it
// produced, keyed by (user_id, batch_id, key). A repeated submit with the same
// key replays the stored run instead of calling the pass API again.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_batch_key,priority:1"`
	BatchID   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_batch_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_batch_key,priority:3"`
	RunID     string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
