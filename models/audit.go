package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// ChatEventTypeENUMType chat audit event type ENUM value type
type ChatEventTypeENUMType string

const (
	// ChatEventTypeChatCreated a new chat was created
	ChatEventTypeChatCreated ChatEventTypeENUMType = "CHAT_CREATED"

	// ChatEventTypeMessageAppended a message was appended to a chat
	ChatEventTypeMessageAppended ChatEventTypeENUMType = "MESSAGE_APPENDED"

	// ChatEventTypeTokenFallbackMatch a referee token only matched via the
	// deprecated raw-token comparison instead of the hash lookup. Each hit
	// marks a legacy chat still awaiting token-hash migration.
	ChatEventTypeTokenFallbackMatch ChatEventTypeENUMType = "TOKEN_FALLBACK_MATCH"

	// ChatEventTypeApplicationAdvanced the owning application moved from
	// UNDER_REVIEW to REFEREE_CONTACTED because its first chat was created
	ChatEventTypeApplicationAdvanced ChatEventTypeENUMType = "APPLICATION_STATUS_ADVANCED"
)

// ChatEventAudit recording of events occurring within the chat subsystem
type ChatEventAudit struct {
	// ID audit entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`
	// EventType chat event type
	EventType ChatEventTypeENUMType `json:"type" gorm:"column:type;not null" validate:"required,chat_event_type"`
	// Metadata a metadata relating to the event
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"column:metadata;default:null"`
	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseMetadata parse the metadata based on the event type
func (a ChatEventAudit) ParseMetadata(validator *validator.Validate) (interface{}, error) {
	switch a.EventType {
	// Chat lifecycle related audit events
	case ChatEventTypeChatCreated:
		fallthrough
	case ChatEventTypeTokenFallbackMatch:
		fallthrough
	case ChatEventTypeApplicationAdvanced:
		var parsed ChatEventChatRelated
		if err := json.Unmarshal(a.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("chat event '%s' metadata parse failed [%w]", a.EventType, err)
		}
		return parsed, validator.Struct(&parsed)

	// Message related audit events
	case ChatEventTypeMessageAppended:
		var parsed ChatEventMessageRelated
		if err := json.Unmarshal(a.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("chat event '%s' metadata parse failed [%w]", a.EventType, err)
		}
		return parsed, validator.Struct(&parsed)
	}
	return nil, nil
}

// ChatEventChatRelated chat event metadata related to a chat record
type ChatEventChatRelated struct {
	// ChatID the chat ID
	ChatID string `json:"chat_id" validate:"required,uuid_rfc4122"`
	// ApplicationID the owning application
	ApplicationID string `json:"application_id" validate:"required"`
	// RefereeID the referee the chat is for
	RefereeID string `json:"referee_id" validate:"required"`
}

// ChatEventMessageRelated chat event metadata related to a message
type ChatEventMessageRelated struct {
	// ChatID the chat ID
	ChatID string `json:"chat_id" validate:"required,uuid_rfc4122"`
	// MessageID the appended message
	MessageID string `json:"message_id" validate:"required"`
	// SenderType which trust domain sent the message
	SenderType SenderTypeENUMType `json:"sender_type" validate:"required,sender_type"`
}
