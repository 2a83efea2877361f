// Package notify - outbound notification dispatch
package notify

import "context"

// Dispatcher one outbound notification channel
//
// Dispatchers are fire-and-forget from the chat subsystem's perspective: the
// orchestrator logs failures but a lost notification never fails the
// operation that triggered it (with the exception of the initial invitation
// on the primary channel).
type Dispatcher interface {
	/*
		SendInvitation notify a referee they have been invited to a chat

			@param ctx context.Context - execution context
			@param address string - channel-specific contact address
			@param name string - recipient display name
			@param chatURL string - access URL embedding the referee's token
			@param jobTitle string - job the reference is for
			@param companyName string - hiring company
	*/
	SendInvitation(
		ctx context.Context,
		address string,
		name string,
		chatURL string,
		jobTitle string,
		companyName string,
	) error

	/*
		SendNewMessageAlert notify a chat party of a new message

			@param ctx context.Context - execution context
			@param address string - channel-specific contact address
			@param name string - recipient display name
			@param chatURL string - link back into the chat
	*/
	SendNewMessageAlert(ctx context.Context, address string, name string, chatURL string) error
}
