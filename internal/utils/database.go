package utils

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDatabase opens a gorm handle for a postgres:// connection URL.
func InitDatabase(url string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), GormConfig())
	if err != nil {
		return nil, err
	}

	return db, nil
}

// GormConfig is shared by every dialector so timestamps and duplicate-key
// errors behave the same against postgres and the sqlite test database.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}
