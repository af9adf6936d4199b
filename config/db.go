package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// InitDB opens the postgres connection. TranslateError makes unique index
// violations surface as gorm.ErrDuplicatedKey, which the version ledger
// relies on to detect concurrent writers.
func InitDB(c Config) (*gorm.DB, error) {
	level := logger.Warn
	if c.LogLevel == "debug" {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(c.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}
