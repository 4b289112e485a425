package channel

import (
	"context"
	"log/slog"

	"mentionbot/internal/domain"
	"mentionbot/internal/token"
)

// StoreResolver resolves per-team messaging clients from the credential
// store, falling back to a default client for teams without a stored
// credential. Resolved clients are not cached: the store's in-memory layer
// already makes lookups cheap.
type StoreResolver struct {
	store    *token.Store
	fallback domain.MessagingClient
	logger   *slog.Logger
}

// NewStoreResolver creates a StoreResolver.
func NewStoreResolver(store *token.Store, fallback domain.MessagingClient, logger *slog.Logger) *StoreResolver {
	return &StoreResolver{store: store, fallback: fallback, logger: logger}
}

// Resolve returns a client holding the team's access token, or the default
// client when the team is unknown. Absence is not an error.
func (r *StoreResolver) Resolve(ctx context.Context, teamID string) (domain.MessagingClient, error) {
	if teamID == "" {
		r.logger.Warn("no team id on event, using default client")
		return r.fallback, nil
	}
	rec, ok := r.store.Load(teamID)
	if !ok {
		r.logger.Warn("no token for team, using default client", "team", teamID)
		return r.fallback, nil
	}
	return NewClient(rec.AccessToken), nil
}

// StaticResolver always resolves to one fixed client. It serves
// single-workspace deployments that never run the OAuth install flow.
type StaticResolver struct {
	client domain.MessagingClient
}

func NewStaticResolver(client domain.MessagingClient) *StaticResolver {
	return &StaticResolver{client: client}
}

func (r *StaticResolver) Resolve(ctx context.Context, teamID string) (domain.MessagingClient, error) {
	return r.client, nil
}
