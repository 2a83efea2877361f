// Package collab - interfaces to the external collaborators the chat
// subsystem consumes
//
// Applications, jobs, referees, and user sessions are owned by the
// surrounding recruitment platform. The chat subsystem only reads the narrow
// views defined here and triggers a single status transition.
package collab

import (
	"context"
	"errors"
	"net/http"

	"github.com/vetline/refchat/models"
)

// ErrNotFound returned by directory lookups when the requested record does
// not exist or does not belong to the claimed parent
var ErrNotFound = errors.New("record not found")

// ErrNoSession returned by a SessionVerifier when the request carries no
// usable session credential
var ErrNoSession = errors.New("no session credential presented")

// Principal an authenticated platform user
type Principal struct {
	// ID user ID
	ID string `json:"id" validate:"required"`
	// Role platform role, e.g. RECRUITER
	Role string `json:"role" validate:"required"`
}

// RoleRecruiter the platform role allowed to initiate chats
const RoleRecruiter = "RECRUITER"

// ApplicationSummary the chat subsystem's view of a job application
type ApplicationSummary struct {
	// ID application ID
	ID string `json:"id" validate:"required"`
	// JobID the job applied for
	JobID string `json:"job_id" validate:"required"`
	// RecruiterID the recruiter owning the job
	RecruiterID string `json:"recruiter_id" validate:"required"`
	// Status current application status
	Status models.ApplicationStatusENUMType `json:"status" validate:"required,application_status"`
	// JobTitle job title, for notification text
	JobTitle string `json:"job_title"`
	// CompanyName hiring company, for notification text
	CompanyName string `json:"company_name"`
}

// RecruiterProfile display and contact fields of a recruiter
type RecruiterProfile struct {
	// ID user ID
	ID string `json:"id" validate:"required"`
	// FirstName given name
	FirstName string `json:"first_name"`
	// LastName family name
	LastName string `json:"last_name"`
	// Company employer shown to referees
	Company string `json:"company"`
	// Email notification address
	Email string `json:"email" validate:"required,email"`
	// Phone optional secondary notification address
	Phone string `json:"phone,omitempty"`
}

// RefereeProfile display and contact fields of a referee
type RefereeProfile struct {
	// ID referee record ID
	ID string `json:"id" validate:"required"`
	// ApplicationID the application the referee was named on
	ApplicationID string `json:"application_id" validate:"required"`
	// Name full name
	Name string `json:"name" validate:"required"`
	// Email notification address
	Email string `json:"email" validate:"required,email"`
	// Phone optional secondary notification address
	Phone string `json:"phone,omitempty"`
	// Relationship declared relationship to the candidate
	Relationship string `json:"relationship"`
	// Company referee's company
	Company string `json:"company,omitempty"`
	// Position referee's position
	Position string `json:"position,omitempty"`
}

// SessionVerifier the platform's identity provider
type SessionVerifier interface {
	/*
		VerifyRequest resolve the authenticated principal of a request

			@param ctx context.Context - execution context
			@param request *http.Request - the inbound request
			@returns the principal, or ErrNoSession when none is presented
	*/
	VerifyRequest(ctx context.Context, request *http.Request) (Principal, error)
}

// ApplicationDirectory read access to applications and their jobs, plus the
// one status transition chat creation triggers
type ApplicationDirectory interface {
	/*
		GetApplication fetch the summary of one application

			@param ctx context.Context - execution context
			@param applicationID string - application ID
			@returns the application summary, or ErrNotFound
	*/
	GetApplication(ctx context.Context, applicationID string) (ApplicationSummary, error)

	/*
		GetRecruiter fetch the profile of one recruiter

			@param ctx context.Context - execution context
			@param recruiterID string - recruiter user ID
			@returns the recruiter profile, or ErrNotFound
	*/
	GetRecruiter(ctx context.Context, recruiterID string) (RecruiterProfile, error)

	/*
		MarkRefereeContacted advance an application from UNDER_REVIEW to
		REFEREE_CONTACTED

		One-way transition; implementations must treat a repeat call as a no-op.

			@param ctx context.Context - execution context
			@param applicationID string - application ID
	*/
	MarkRefereeContacted(ctx context.Context, applicationID string) error
}

// RefereeDirectory read access to referee records
type RefereeDirectory interface {
	/*
		GetReferee fetch the profile of one referee

			@param ctx context.Context - execution context
			@param refereeID string - referee record ID
			@returns the referee profile, or ErrNotFound
	*/
	GetReferee(ctx context.Context, refereeID string) (RefereeProfile, error)
}
