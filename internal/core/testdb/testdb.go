// Package testdb opens throwaway SQLite databases with the full schema for
// repository and handler tests.
package testdb

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/audit"
	directoryDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/directory"
	expenseDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/expense"
	timeentryDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/timeentry"
	userDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/user"
)

// Open returns a migrated in-memory database private to the caller.
func Open() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one connection keeps the memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&userDatamodel.User{},
		&directoryDatamodel.Client{},
		&directoryDatamodel.Project{},
		&directoryDatamodel.Activity{},
		&timeentryDatamodel.TimeEntry{},
		&expenseDatamodel.Expense{},
		&auditDatamodel.Entry{},
	); err != nil {
		return nil, err
	}
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
