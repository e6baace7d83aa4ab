package progress

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Enrollments is the persistence surface for course enrollments.
type Enrollments interface {
	repository.Repository[*Enrollment]

	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Enrollment, error)
	ListAll(ctx context.Context) ([]*Enrollment, error)
	Save(ctx context.Context, record *Enrollment) (*Enrollment, error)
}

type enrollments struct {
	repository.Repository[*Enrollment]
	db *bun.DB
}

var _ Enrollments = (*enrollments)(nil)

// NewEnrollmentsRepository creates an enrollment repository.
func NewEnrollmentsRepository(db *bun.DB) Enrollments {
	repo := repository.NewRepository[*Enrollment](db, repository.ModelHandlers[*Enrollment]{
		NewRecord: func() *Enrollment { return &Enrollment{} },
		GetID: func(e *Enrollment) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *Enrollment, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
	})

	return &enrollments{
		Repository: repo,
		db:         db,
	}
}

func (a *enrollments) FindByUser(ctx context.Context, userID uuid.UUID) ([]*Enrollment, error) {
	var records []*Enrollment

	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("course_id ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *enrollments) ListAll(ctx context.Context) ([]*Enrollment, error) {
	var records []*Enrollment

	err := a.db.NewSelect().
		Model(&records).
		Order("course_id ASC", "user_id ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *enrollments) Save(ctx context.Context, record *Enrollment) (*Enrollment, error) {
	if record == nil {
		return nil, nil
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err := a.db.NewInsert().
		Model(record).
		On("CONFLICT (user_id, course_id) DO UPDATE").
		Set("completed = EXCLUDED.completed").
		Set("total = EXCLUDED.total").
		Set("last_lesson = EXCLUDED.last_lesson").
		Set("completed_at = EXCLUDED.completed_at").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return record, nil
}
