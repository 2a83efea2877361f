package db

import "github.com/vetline/refchat/models"

// --------------------------------------------------------------------------------------
// Chats

// ChatDBEntry chat DB entry
type ChatDBEntry struct {
	models.Chat
}

// TableName hard code table name
func (ChatDBEntry) TableName() string {
	return "chats"
}

// --------------------------------------------------------------------------------------
// Messages

// MessageDBEntry chat message DB entry
type MessageDBEntry struct {
	models.Message
	Chat ChatDBEntry `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChatID" validate:"-"`
}

// TableName hard code table name
func (MessageDBEntry) TableName() string {
	return "chat_messages"
}

// --------------------------------------------------------------------------------------
// Chat audit events

// ChatEventAuditDBEntry chat audit event DB entry
type ChatEventAuditDBEntry struct {
	models.ChatEventAudit
}

// TableName hard code table name
func (ChatEventAuditDBEntry) TableName() string {
	return "chat_audit_events"
}
