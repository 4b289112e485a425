package domain

import "context"

// AIProvider generates reply text for an inbound message.
//
// GenerateReply never fails: implementations must apply their own deadline
// and map timeouts and backend errors to a fixed fallback string, so callers
// always have text to send.
type AIProvider interface {
	Name() string
	GenerateReply(ctx context.Context, platform, message string, history []Message, contextJSON string) string
	Healthy(ctx context.Context) error
}

// MessagingClient posts messages and toggles reactions on the chat platform.
// Every call may fail with a platform API error; the caller decides whether
// a failure is fatal to the current step or swallowed.
type MessagingClient interface {
	PostMessage(ctx context.Context, channelID, text, threadTS string) error
	AddReaction(ctx context.Context, emoji, channelID, timestamp string) error
	RemoveReaction(ctx context.Context, emoji, channelID, timestamp string) error
}

// CredentialResolver maps a team ID to the messaging client holding that
// team's credentials. An unknown team is not an error: implementations fall
// back to a default client.
type CredentialResolver interface {
	Resolve(ctx context.Context, teamID string) (MessagingClient, error)
}

// ConversationStore keeps bounded short-term message history per
// conversation. Both operations are pure in-memory mutations and never fail.
type ConversationStore interface {
	SaveMessage(conversationID string, msg Message)
	LastMessages(conversationID string, limit int) []Message
}
