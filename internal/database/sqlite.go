package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQLite opens the GORM SQLite database at path and migrates models.
// TranslateError is enabled so unique violations surface as
// gorm.ErrDuplicatedKey.
func OpenSQLite(path string, logger *slog.Logger, models ...any) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
	}

	logger.Info("sqlite database opened", slog.String("path", path))
	return db, nil
}
