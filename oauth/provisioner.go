package oauth

import (
	"context"
	"time"

	"github.com/campuskit/portal"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UserStore is the persistence surface the provisioner needs. The portal
// Users repository satisfies it.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*portal.User, error)
	FindByPrincipal(ctx context.Context, discordID string) (*portal.User, error)
	Create(ctx context.Context, record *portal.User, criteria ...repository.InsertCriteria) (*portal.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error
}

// Provisioner resolves an upstream principal into the local user record,
// creating it on first sign-in. It implements portal.ProfileProvisioner.
type Provisioner struct {
	store      UserStore
	sink       portal.ActivitySink
	logger     portal.Logger
	privileged map[string]struct{}
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithProvisionerActivitySink sets the sink receiving registration and
// login events.
func WithProvisionerActivitySink(sink portal.ActivitySink) ProvisionerOption {
	return func(p *Provisioner) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithProvisionerLogger sets the logger.
func WithProvisionerLogger(logger portal.Logger) ProvisionerOption {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPrivilegedIdentifiers registers identifiers whose accounts are
// created as accepted admins. Matched against the discord ID, the
// provider ID claim, and the subject claim.
func WithPrivilegedIdentifiers(ids ...string) ProvisionerOption {
	return func(p *Provisioner) {
		for _, id := range ids {
			if id != "" {
				p.privileged[id] = struct{}{}
			}
		}
	}
}

// NewProvisioner creates a Provisioner backed by the given store.
func NewProvisioner(store UserStore, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		store:      store,
		sink:       portal.NoopActivitySink(),
		logger:     portal.DefaultLogger(),
		privileged: map[string]struct{}{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// Provision implements portal.ProfileProvisioner. The local user ID is
// derived deterministically from the principal identifier, so repeated
// sign-ins by the same principal resolve to the same row.
func (p *Provisioner) Provision(ctx context.Context, principal *portal.Principal) (*portal.User, error) {
	if principal == nil || principal.ID == "" {
		return nil, ErrMissingPrincipal
	}

	localID, err := hashid.NewUUID(principal.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive local user id")
	}

	existing, err := p.store.FindByID(ctx, localID)
	if err == nil && existing != nil {
		return p.reconcile(ctx, existing, principal)
	}

	if !repository.IsRecordNotFound(err) && !goerrors.IsNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	return p.create(ctx, localID, principal)
}

// Resolve looks up the local user for an already-authenticated principal
// without creating or mutating anything. Request middleware uses it so
// per-request resolution does not emit login events.
func (p *Provisioner) Resolve(ctx context.Context, principal *portal.Principal) (*portal.User, error) {
	if principal == nil || principal.ID == "" {
		return nil, ErrMissingPrincipal
	}

	localID, err := hashid.NewUUID(principal.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive local user id")
	}

	return p.store.FindByID(ctx, localID)
}

// reconcile refreshes the stored avatar when the provider reports a new
// one, then emits a login event. A missing avatar claim leaves the stored
// value alone so placeholder-assigned avatars do not churn.
func (p *Provisioner) reconcile(ctx context.Context, user *portal.User, principal *portal.Principal) (*portal.User, error) {
	claimed := principal.Claims.ResolveAvatar()
	if claimed != "" && claimed != user.Avatar {
		if err := p.store.UpdateAvatar(ctx, user.ID, claimed); err != nil {
			p.logger.Error("failed to update avatar", "user", user.ID.String(), "error", err)
		} else {
			user.Avatar = claimed
		}
	}

	p.emit(ctx, portal.ActivityEventLogin, user)

	return user, nil
}

func (p *Provisioner) create(ctx context.Context, localID uuid.UUID, principal *portal.Principal) (*portal.User, error) {
	claims := principal.Claims
	discordID := claims.ResolveDiscordID()

	avatar := claims.ResolveAvatar()
	if avatar == "" {
		avatar = portal.PlaceholderAvatar()
	}

	record := &portal.User{
		ID:        localID,
		Username:  claims.ResolveUsername(),
		Avatar:    avatar,
		DiscordID: discordID,
		Role:      portal.RoleApplicant,
		Status:    portal.StatusPending,
	}

	if p.isPrivileged(principal, discordID) {
		record.Role = portal.RoleAdmin
		record.Status = portal.StatusAccepted
	}

	created, err := p.store.Create(ctx, record)
	if err != nil {
		if portal.IsConflictError(err) {
			return p.recoverConflict(ctx, localID, discordID, err)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}

	p.emit(ctx, portal.ActivityEventRegistered, created)

	return created, nil
}

// recoverConflict handles the race where two concurrent first sign-ins
// both miss the lookup. The loser retries the lookup once and adopts the
// winner's row.
func (p *Provisioner) recoverConflict(ctx context.Context, localID uuid.UUID, discordID string, cause error) (*portal.User, error) {
	if user, err := p.store.FindByID(ctx, localID); err == nil && user != nil {
		p.emit(ctx, portal.ActivityEventLogin, user)
		return user, nil
	}

	if discordID != "" {
		if user, err := p.store.FindByPrincipal(ctx, discordID); err == nil && user != nil {
			p.emit(ctx, portal.ActivityEventLogin, user)
			return user, nil
		}
	}

	return nil, goerrors.Wrap(cause, goerrors.CategoryConflict, "user creation conflict").
		WithTextCode("PROVISIONING_CONFLICT").
		WithCode(goerrors.CodeConflict)
}

func (p *Provisioner) isPrivileged(principal *portal.Principal, discordID string) bool {
	if len(p.privileged) == 0 {
		return false
	}

	candidates := []string{discordID}
	if principal.Claims != nil {
		candidates = append(candidates, principal.Claims.ProviderID, principal.Claims.Subject)
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, ok := p.privileged[candidate]; ok {
			return true
		}
	}

	return false
}

func (p *Provisioner) emit(ctx context.Context, eventType portal.ActivityEventType, user *portal.User) {
	event := portal.ActivityEvent{
		EventType:  eventType,
		Actor:      portal.ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		Username:   user.Username,
		Avatar:     user.Avatar,
		DiscordID:  user.DiscordID,
		Role:       user.Role,
		Status:     user.Status,
		OccurredAt: time.Now().UTC(),
	}

	if err := p.sink.Record(ctx, event); err != nil {
		p.logger.Error("failed to record activity event", "event", string(eventType), "error", err)
	}
}
