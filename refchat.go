// Package refchat - token-gated encrypted referee chat
package refchat

import (
	"context"
	"fmt"

	"github.com/vetline/refchat/access"
	"github.com/vetline/refchat/chat"
	"github.com/vetline/refchat/collab"
	"github.com/vetline/refchat/db"
	"github.com/vetline/refchat/encryption"
	"github.com/vetline/refchat/notify"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ServiceCollaborators platform directories the chat subsystem reads from
type ServiceCollaborators struct {
	// Applications application and recruiter directory
	Applications collab.ApplicationDirectory
	// Referees referee directory
	Referees collab.RefereeDirectory
}

/*
NewChatService initialize a referee chat service instance.

Message plaintext never reaches the database; everything stored is encrypted
against the provided master secret. Referee access is gated by per-chat bearer
tokens of which only a hash is persisted.

	@param ctx context.Context - execution context
	@param dbDialector gorm.Dialector - GORM dialector
	@param dbLogLevel logger.LogLevel - SQL log level
	@param masterSecret string - message encryption master secret
	@param collaborators ServiceCollaborators - platform directories
	@param email notify.Dispatcher - primary notification channel
	@param whatsapp notify.Dispatcher - optional secondary notification channel, may be nil
	@param publicBaseURL string - public base URL chat links are built against
	@returns new chat service instance
*/
func NewChatService(
	ctx context.Context,
	dbDialector gorm.Dialector,
	dbLogLevel logger.LogLevel,
	masterSecret string,
	collaborators ServiceCollaborators,
	email notify.Dispatcher,
	whatsapp notify.Dispatcher,
	publicBaseURL string,
) (chat.Service, error) {
	// Prepare persistence
	persistence, err := db.NewConnection(dbDialector, dbLogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized persistence client [%w]", err)
	}

	// Prepare credential codec
	codec, err := encryption.NewCredentialCodec(ctx, encryption.CredentialCodecParams{
		MasterSecret: masterSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialized credential codec [%w]", err)
	}

	// Prepare access resolver
	resolver, err := access.NewResolver(ctx, persistence, codec)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized access resolver [%w]", err)
	}

	service, err := chat.NewService(ctx, chat.ServiceParams{
		Persistence:  persistence,
		Codec:        codec,
		Resolver:     resolver,
		Applications: collaborators.Applications,
		Referees:     collaborators.Referees,
		Email:        email,
		WhatsApp:     whatsapp,
		BaseURL:      publicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialized chat service [%w]", err)
	}

	return service, nil
}
