package apis

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vetline/refchat/chat"
	"github.com/vetline/refchat/collab"
)

/*
BuildChatRouter define the HTTP router exposing the chat lifecycle operations

	@param ctx context.Context - execution context
	@param service chat.Service - chat lifecycle service
	@param sessions collab.SessionVerifier - platform session verifier
	@returns HTTP router
*/
func BuildChatRouter(
	ctx context.Context, service chat.Service, sessions collab.SessionVerifier,
) (*mux.Router, error) {
	handler, err := NewChatAPIHandler(ctx, service)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.Use(NewCredentialMiddleware(ctx, sessions))

	router.HandleFunc("/v1/chats", handler.CreateChat).Methods(http.MethodPost)
	router.HandleFunc("/v1/chats/{chatID}", handler.FetchChat).Methods(http.MethodGet)
	router.HandleFunc("/v1/chats/{chatID}/messages", handler.ListMessages).Methods(http.MethodGet)
	router.HandleFunc("/v1/chats/{chatID}/messages", handler.SendMessage).Methods(http.MethodPost)

	return router, nil
}
