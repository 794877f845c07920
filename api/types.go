package api

import (
	"context"

	"matrix-api/assist"
	"matrix-api/domain"
	"matrix-api/session"
)

// Storage abstracts document persistence for handlers.
type Storage interface {
	FetchDocument(ctx context.Context, key string) (domain.Document, error)
	ReplaceDocument(ctx context.Context, key string, doc domain.Document) error
}

// Authenticator resolves the caller identity from an Authorization header.
type Authenticator interface {
	IdentityFromAuthHeader(string) (domain.Identity, error)
}

// Bootstrapper runs the role/session bootstrap for a resolved identity.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, identity domain.Identity, choice session.Choice) (session.State, error)
	Clear(ctx context.Context, identityID string) error
}

// Assistant is the optional AI text service behind the assist endpoints.
type Assistant interface {
	OptimizeTask(ctx context.Context, title, description string) (assist.OptimizedTask, error)
	SuggestTeamSynergy(ctx context.Context, taskCount, teamCount int) (string, error)
}
