// Package models - system data models
package models

import "time"

// SenderTypeENUMType message sender trust-domain ENUM value type
type SenderTypeENUMType string

const (
	// SenderTypeRecruiter the message came from the authenticated recruiter side
	SenderTypeRecruiter SenderTypeENUMType = "RECRUITER"
	// SenderTypeReferee the message came from the token-holding referee side
	SenderTypeReferee SenderTypeENUMType = "REFEREE"
)

// ApplicationStatusENUMType application status ENUM value type
//
// The application record itself belongs to an external collaborator; the chat
// subsystem only observes the status and triggers a single transition.
type ApplicationStatusENUMType string

const (
	// ApplicationStatusSubmitted application submitted
	ApplicationStatusSubmitted ApplicationStatusENUMType = "SUBMITTED"
	// ApplicationStatusUnderReview application is under review
	ApplicationStatusUnderReview ApplicationStatusENUMType = "UNDER_REVIEW"
	// ApplicationStatusRefereeContacted a referee for the application was contacted
	ApplicationStatusRefereeContacted ApplicationStatusENUMType = "REFEREE_CONTACTED"
	// ApplicationStatusVerified the references were verified
	ApplicationStatusVerified ApplicationStatusENUMType = "VERIFIED"
	// ApplicationStatusRejected application rejected
	ApplicationStatusRejected ApplicationStatusENUMType = "REJECTED"
	// ApplicationStatusHired applicant hired
	ApplicationStatusHired ApplicationStatusENUMType = "HIRED"
)

// Chat one secured conversation channel between exactly one recruiter and one
// referee, scoped to one application
//
// At most one chat exists per (application, referee) pair; the pair carries a
// unique index so concurrent creation cannot produce duplicates.
type Chat struct {
	// ID chat ID; embedded in access URLs, so it must not be guessable
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,uuid_rfc4122"`

	// ApplicationID the originating application
	ApplicationID string `json:"application_id" gorm:"column:application_id;not null;uniqueIndex:chats_application_referee_idx" validate:"required"`

	// RecruiterID the authenticated principal who created the chat
	RecruiterID string `json:"recruiter_id" gorm:"column:recruiter_id;not null;index" validate:"required"`

	// RefereeID the referee record this chat is for
	RefereeID string `json:"referee_id" gorm:"column:referee_id;not null;uniqueIndex:chats_application_referee_idx" validate:"required"`

	// TokenHash SHA-256 hash of the referee's capability token; lookups match
	// on this, the plaintext is never compared on the primary path
	TokenHash string `json:"-" gorm:"column:token_hash;not null;index" validate:"required,len=64,hexadecimal"`

	// RefereeToken the plaintext capability token. Retained so invitation
	// links can be re-sent without asking the referee to re-derive access.
	// Must stay consistent with TokenHash.
	RefereeToken string `json:"-" gorm:"column:referee_token;not null" validate:"required"`

	// IsActive soft flag; no hard deletion path exists
	IsActive bool `json:"is_active" gorm:"column:is_active;not null;default:true"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// Message one entry in a chat's append-only message log
type Message struct {
	// ID message ID; ULID, so primary keys sort in append order
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`

	// ChatID the parent chat
	ChatID string `json:"chat_id" gorm:"column:chat_id;not null;index" validate:"required,uuid_rfc4122"`

	// SenderType which trust domain produced the message, not a specific user
	SenderType SenderTypeENUMType `json:"sender_type" gorm:"column:sender_type;not null" validate:"required,sender_type"`

	// EncryptedContent the encrypted message body
	EncryptedContent string `json:"-" gorm:"column:encrypted_content;not null" validate:"required,base64"`

	// IsRead reserved read-receipt flag; nothing sets it true today
	IsRead bool `json:"is_read" gorm:"column:is_read;not null;default:false"`

	// CreatedAt server-assigned append timestamp; defines message ordering
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}
