package apis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/gorilla/mux"
	"github.com/vetline/refchat/access"
	"github.com/vetline/refchat/chat"
	"github.com/vetline/refchat/collab"
	"github.com/vetline/refchat/encryption"
)

// CreateChatRequest request payload for creating a chat
type CreateChatRequest struct {
	ApplicationID string `json:"application_id"`
	RefereeID     string `json:"referee_id"`
}

// SendMessageRequest request payload for appending a message
type SendMessageRequest struct {
	Content string `json:"content"`
}

// errorResponse error payload returned on all non-2xx responses
type errorResponse struct {
	Error string `json:"error"`
}

// ChatAPIHandler HTTP handlers for the chat lifecycle operations
type ChatAPIHandler struct {
	goutils.Component

	service chat.Service
}

/*
NewChatAPIHandler define new chat API handler

	@param ctx context.Context - execution context
	@param service chat.Service - chat lifecycle service
	@returns handler instance
*/
func NewChatAPIHandler(_ context.Context, service chat.Service) (ChatAPIHandler, error) {
	if service == nil {
		return ChatAPIHandler{}, fmt.Errorf("chat service is required")
	}
	return ChatAPIHandler{
		Component: goutils.Component{
			LogTags: log.Fields{
				"package": "refchat", "module": "apis", "component": "chat-api-handler",
			},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		service: service,
	}, nil
}

// CreateChat handle POST /v1/chats
func (h ChatAPIHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	result, err := h.service.CreateChat(
		ctx, request.ApplicationID, request.RefereeID, CredentialFromContext(ctx),
	)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	respCode := http.StatusCreated
	if result.AlreadyExisted {
		respCode = http.StatusOK
	}
	h.writeJSON(ctx, w, respCode, result)
}

// FetchChat handle GET /v1/chats/{chatID}
func (h ChatAPIHandler) FetchChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.service.FetchChat(ctx, mux.Vars(r)["chatID"], CredentialFromContext(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, detail)
}

// ListMessages handle GET /v1/chats/{chatID}/messages
func (h ChatAPIHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	messages, err := h.service.ListMessages(ctx, mux.Vars(r)["chatID"], CredentialFromContext(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, messages)
}

// SendMessage handle POST /v1/chats/{chatID}/messages
func (h ChatAPIHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	message, err := h.service.SendMessage(
		ctx, mux.Vars(r)["chatID"], CredentialFromContext(ctx), request.Content,
	)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	h.writeJSON(ctx, w, http.StatusCreated, message)
}

// writeError map a service error onto the HTTP taxonomy. Denied and missing
// chats intentionally share one 404 shape so probing the API reveals nothing
// about which chats exist.
func (h ChatAPIHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var validationErr *chat.ValidationError
	var decryptErr *encryption.DecryptionError

	switch {
	case errors.Is(err, access.ErrAuthenticationMissing):
		h.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})

	case errors.Is(err, access.ErrAccessDenied), errors.Is(err, collab.ErrNotFound):
		h.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Error: "not found"})

	case errors.Is(err, chat.ErrNotApplicationOwner):
		h.writeJSON(
			ctx, w, http.StatusForbidden, errorResponse{Error: "application belongs to another recruiter"},
		)

	case errors.As(err, &validationErr):
		h.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})

	case errors.As(err, &decryptErr):
		// Integrity faults get a loud log and an opaque response
		log.WithError(err).WithFields(h.GetLogTagsForContext(ctx)).Error("Message integrity fault")
		h.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})

	default:
		log.WithError(err).WithFields(h.GetLogTagsForContext(ctx)).Error("Chat operation failed")
		h.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h ChatAPIHandler) writeJSON(
	ctx context.Context, w http.ResponseWriter, respCode int, payload interface{},
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(respCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).
			WithFields(h.GetLogTagsForContext(ctx)).
			Error("Failed to write response body")
	}
}
