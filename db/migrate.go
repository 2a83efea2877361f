package db

import (
	"context"

	"gorm.io/gorm"
)

// DefineTables prepare a database with the chat subsystem's tables. Used at
// service startup and by unit tests.
func DefineTables(_ context.Context, db *gorm.DB) error {
	return db.AutoMigrate(
		ChatDBEntry{},
		MessageDBEntry{},
		ChatEventAuditDBEntry{},
	)
}
