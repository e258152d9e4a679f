// Package repo holds the GORM persistence for the pass ledger, submission
// runs and idempotency keys. This file opens the SQLite database and owns the
// schema.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
)

// pragmas are applied in order on every new database handle.
var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

const (
	maxOpenConns    = 10
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// OpenSQLite opens (or creates) the ledger database at path. The parent
// directory must exist; in-memory DSNs ("file:...") are passed through.
func OpenSQLite(path string) (*gorm.DB, error) {
	if !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, fmt.Errorf("ledger directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", strings.TrimSuffix(p, ";"), err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}

// AutoMigrate creates or updates the pass ledger, run history and
// idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Pass{},
		&domain.BatchRun{},
		&domain.Idempotency{},
	)
}
