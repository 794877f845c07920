package session

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"matrix-api/domain"
)

const defaultFetchTimeout = 5 * time.Second

// ErrEmptyInviteCode is returned when a caller asks to join a team without
// supplying a code. It is rejected before any storage call.
var ErrEmptyInviteCode = errors.New("invite code required to join a team")

// Documents is the slice of the document store the bootstrap needs.
type Documents interface {
	FetchDocument(ctx context.Context, key string) (domain.Document, error)
	ReplaceDocument(ctx context.Context, key string, doc domain.Document) error
}

// Choice is an explicit role selection from the login screen. A zero Choice
// means the caller made no selection yet.
type Choice struct {
	Role       domain.Role
	InviteCode string
}

// State is the outcome of a bootstrap. Role is RoleNone when the caller
// still has to pick a role. Degraded is set when the document fetch failed
// or timed out and the collections are served empty.
type State struct {
	Role        domain.Role
	DocumentKey string
	Document    domain.Document
	Degraded    bool
}

// Service decides which document a caller sees and reconciles the caller
// into its roster. It never surfaces a blocking error for storage trouble:
// a bounded fetch timeout guarantees forward progress and failures degrade
// to an empty document.
type Service struct {
	store    Documents
	sessions Store
	timeout  time.Duration
	logger   *log.Logger
}

// NewService creates a bootstrap service. A non-positive timeout falls back
// to the 5 second default.
func NewService(store Documents, sessions Store, timeout time.Duration, logger *log.Logger) *Service {
	if store == nil {
		panic("session.NewService: document store is nil")
	}
	if sessions == nil {
		panic("session.NewService: session store is nil")
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = log.New()
	}
	return &Service{store: store, sessions: sessions, timeout: timeout, logger: logger}
}

// Bootstrap resolves the caller's role and document key, loads the document
// and reconciles the caller into the roster.
//
// Key resolution order: an invite code carried by the identity payload wins,
// then the persisted session config, then the explicit choice. The owner key
// is always the caller's own identity id.
func (s *Service) Bootstrap(ctx context.Context, identity domain.Identity, choice Choice) (State, error) {
	role, key, err := s.resolve(ctx, identity, choice)
	if err != nil {
		return State{}, err
	}
	if role == domain.RoleNone {
		return State{Role: domain.RoleNone, Document: domain.EmptyDocument()}, nil
	}

	cfg := domain.SessionConfig{Role: role, DocumentKey: key}
	if err := s.sessions.Save(ctx, identity.ID, cfg); err != nil {
		s.logger.WithError(err).Warnf("failed to persist session config for %s", identity.ID)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	doc, fetchErr := s.store.FetchDocument(fetchCtx, key)
	cancel()
	if fetchErr != nil {
		s.logger.WithError(fetchErr).Warnf("bootstrap fetch failed for key %s, serving empty document", key)
		return State{Role: role, DocumentKey: key, Document: domain.EmptyDocument(), Degraded: true}, nil
	}

	doc = s.reconcile(ctx, identity, role, key, doc)
	return State{Role: role, DocumentKey: key, Document: doc}, nil
}

// Clear drops the persisted role decision for the identity.
func (s *Service) Clear(ctx context.Context, identityID string) error {
	return s.sessions.Clear(ctx, identityID)
}

func (s *Service) resolve(ctx context.Context, identity domain.Identity, choice Choice) (domain.Role, string, error) {
	if identity.InviteCode != "" {
		return domain.RoleParticipant, identity.InviteCode, nil
	}

	cfg, ok, err := s.sessions.Load(ctx, identity.ID)
	if err != nil {
		s.logger.WithError(err).Warnf("failed to load session config for %s", identity.ID)
	} else if ok && cfg.Role != domain.RoleNone && cfg.DocumentKey != "" {
		return cfg.Role, cfg.DocumentKey, nil
	}

	switch choice.Role {
	case domain.RoleOwner:
		return domain.RoleOwner, identity.ID, nil
	case domain.RoleParticipant:
		if choice.InviteCode == "" {
			return domain.RoleNone, "", ErrEmptyInviteCode
		}
		return domain.RoleParticipant, choice.InviteCode, nil
	default:
		return domain.RoleNone, "", nil
	}
}

// reconcile folds the caller into the roster. Participants are appended at
// most once; the owner is located by id or role, prepended when absent and
// refreshed from the identity payload when present.
func (s *Service) reconcile(ctx context.Context, identity domain.Identity, role domain.Role, key string, doc domain.Document) domain.Document {
	candidate := identity.Member(role)

	if role == domain.RoleParticipant {
		if doc.MemberIndex(identity.ID) >= 0 {
			return doc
		}
		doc.Team = append(doc.Team, candidate)
		s.persist(ctx, key, doc)
		return doc
	}

	idx := doc.MemberIndex(identity.ID)
	if idx < 0 {
		idx = doc.OwnerIndex()
	}
	if idx < 0 {
		doc.Team = append([]domain.Member{candidate}, doc.Team...)
		s.persist(ctx, key, doc)
		return doc
	}

	// Identity-provider data wins over whatever is stored.
	existing := &doc.Team[idx]
	existing.ID = identity.ID
	existing.Name = identity.Name
	existing.Avatar = identity.AvatarURL
	existing.Email = identity.Handle
	existing.TelegramID = identity.ID
	existing.SystemRole = domain.RoleOwner
	s.persist(ctx, key, doc)
	return doc
}

func (s *Service) persist(ctx context.Context, key string, doc domain.Document) {
	if err := s.store.ReplaceDocument(ctx, key, doc); err != nil {
		s.logger.WithError(err).Warnf("roster reconciliation write failed for key %s", key)
	}
}
