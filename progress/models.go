package progress

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Enrollment tracks a user's standing in a single course.
type Enrollment struct {
	bun.BaseModel `bun:"table:enrollments,alias:enr"`

	ID          uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID      uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id"`
	CourseID    string     `bun:"course_id,notnull" json:"course_id"`
	CourseName  string     `bun:"course_name" json:"course_name,omitempty"`
	Completed   int        `bun:"completed,notnull,default:0" json:"completed"`
	Total       int        `bun:"total,notnull,default:0" json:"total"`
	LastLesson  string     `bun:"last_lesson" json:"last_lesson,omitempty"`
	CreatedAt   *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	CompletedAt *time.Time `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
}

// Percent returns the completion percentage in [0,100].
func (e *Enrollment) Percent() float64 {
	if e == nil || e.Total <= 0 {
		return 0
	}

	pct := float64(e.Completed) / float64(e.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// IsComplete reports whether every lesson is done.
func (e *Enrollment) IsComplete() bool {
	return e != nil && e.Total > 0 && e.Completed >= e.Total
}
