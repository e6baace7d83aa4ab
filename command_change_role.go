package portal

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ChangeRoleMessage is the administrative action that mutates role/status.
// This is the only path that touches either field after creation; the sign-in
// reconciliation path never does.
type ChangeRoleMessage struct {
	UserID string        `json:"user_id"`
	Role   Role          `json:"user_role"`
	Status AccountStatus `json:"status"`
	Actor  ActorRef      `json:"-"`
}

func (e ChangeRoleMessage) Type() string { return "user.change_role" }

// ChangeRoleHandler applies a role/status change inside a transaction and
// emits an audit event on success.
type ChangeRoleHandler struct {
	repo RepositoryManager
	sink ActivitySink
}

func NewChangeRoleHandler(repo RepositoryManager, sink ActivitySink) *ChangeRoleHandler {
	return &ChangeRoleHandler{
		repo: repo,
		sink: normalizeActivitySink(sink),
	}
}

func (h *ChangeRoleHandler) Execute(ctx context.Context, event ChangeRoleMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during role change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangeRoleHandler) execute(ctx context.Context, event ChangeRoleMessage) error {
	if !RoleIsValid(event.Role) {
		return goerrors.New("unknown or invalid role", goerrors.CategoryValidation).
			WithTextCode("INVALID_ROLE").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": event.Role})
	}

	if !StatusIsValid(event.Status) {
		return goerrors.New("unknown or invalid status", goerrors.CategoryValidation).
			WithTextCode("INVALID_STATUS").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"status": event.Status})
	}

	id, err := uuid.Parse(event.UserID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user id")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var updated *User
	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := h.repo.Users().FindByIDTx(ctx, tx, id)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryNotFound, "user not found for role change")
		}

		if current.Role == event.Role && current.Status == event.Status {
			updated = current
			return nil
		}

		updated, err = h.repo.Users().UpdateRoleStatusTx(ctx, tx, id, event.Role, event.Status)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update role/status")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "role change transaction failed")
	}

	_ = h.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventRoleChanged,
		Actor:      event.Actor,
		UserID:     updated.ID.String(),
		Username:   updated.Username,
		DiscordID:  updated.DiscordID,
		Role:       updated.Role,
		Status:     updated.Status,
		OccurredAt: time.Now().UTC(),
	})

	return nil
}
