package portal

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserFilter narrows List results for the management table.
type UserFilter struct {
	Search   string          `query:"search" json:"search,omitempty"`
	Roles    []Role          `query:"role" json:"roles,omitempty"`
	Statuses []AccountStatus `query:"status" json:"statuses,omitempty"`
}

// IsEmpty reports whether the filter constrains anything.
func (f UserFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Search) == "" && len(f.Roles) == 0 && len(f.Statuses) == 0
}

type Users interface {
	repository.Repository[*User]

	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	FindByPrincipal(ctx context.Context, discordID string) (*User, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error
	UpdateRoleStatus(ctx context.Context, id uuid.UUID, role Role, status AccountStatus) (*User, error)
	UpdateRoleStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role Role, status AccountStatus) (*User, error)

	ListFiltered(ctx context.Context, filter UserFilter) ([]*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.FindByIDTx(ctx, a.db, id)
}

func (a *users) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	record.EnsureDefaults()
	return record, nil
}

func (a *users) FindByPrincipal(ctx context.Context, discordID string) (*User, error) {
	trimmed := strings.TrimSpace(discordID)
	if trimmed == "" {
		return nil, repository.NewRecordNotFound()
	}

	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.discord_id = ?", trimmed).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"discord_id": trimmed})
		}
		return nil, err
	}

	record.EnsureDefaults()
	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error {
	// NOTE: raw update so we touch only the avatar column; the ORM update
	// path writes every non-zero field.
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"avatar" = ?,
			"updated_at" = ?
		WHERE ("usr".id = ?);
	`, avatar, time.Now(), id).Exec(ctx)

	return err
}

func (a *users) UpdateRoleStatus(ctx context.Context, id uuid.UUID, role Role, status AccountStatus) (*User, error) {
	return a.UpdateRoleStatusTx(ctx, a.db, id, role, status)
}

func (a *users) UpdateRoleStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role Role, status AccountStatus) (*User, error) {
	record := &User{
		ID:     id,
		Role:   role,
		Status: status,
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

func (a *users) ListFiltered(ctx context.Context, filter UserFilter) ([]*User, error) {
	var records []*User

	q := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC")

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(?TableAlias.username) LIKE ? OR ?TableAlias.discord_id LIKE ?", pattern, pattern)
	}

	if len(filter.Roles) > 0 {
		q = q.Where("?TableAlias.user_role IN (?)", bun.In(filter.Roles))
	}

	if len(filter.Statuses) > 0 {
		q = q.Where("?TableAlias.status IN (?)", bun.In(filter.Statuses))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	for _, record := range records {
		record.EnsureDefaults()
	}

	return records, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.EnsureDefaults()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
