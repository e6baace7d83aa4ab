package progress

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Logger is the narrow logging surface the reporter depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// CourseReport aggregates enrollment standing for a single course.
type CourseReport struct {
	CourseID   string  `json:"course_id"`
	CourseName string  `json:"course_name,omitempty"`
	Enrolled   int     `json:"enrolled"`
	Completed  int     `json:"completed"`
	AvgPercent float64 `json:"avg_percent"`
}

// ReportTotals summarizes the whole platform.
type ReportTotals struct {
	Enrollments int     `json:"enrollments"`
	Learners    int     `json:"learners"`
	Completions int     `json:"completions"`
	AvgPercent  float64 `json:"avg_percent"`
}

// Snapshot is a point-in-time progress report.
type Snapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Courses     []CourseReport `json:"courses"`
	Totals      ReportTotals   `json:"totals"`
}

// Reporter maintains a cached progress snapshot refreshed on demand or on
// a cron schedule.
type Reporter struct {
	mu       sync.RWMutex
	repo     Enrollments
	logger   Logger
	snapshot Snapshot
	cron     *cron.Cron
	timeout  time.Duration
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithReporterLogger sets the logger.
func WithReporterLogger(logger Logger) ReporterOption {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRefreshTimeout bounds each scheduled refresh.
func WithRefreshTimeout(timeout time.Duration) ReporterOption {
	return func(r *Reporter) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// NewReporter creates a reporter over the given enrollment repository.
func NewReporter(repo Enrollments, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		repo:    repo,
		logger:  noopLogger{},
		timeout: 30 * time.Second,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Refresh rebuilds the snapshot from storage.
func (r *Reporter) Refresh(ctx context.Context) error {
	records, err := r.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load enrollments: %w", err)
	}

	snapshot := Aggregate(records)

	r.mu.Lock()
	r.snapshot = snapshot
	r.mu.Unlock()

	r.logger.Debug("progress snapshot refreshed",
		"courses", len(snapshot.Courses),
		"enrollments", snapshot.Totals.Enrollments,
	)

	return nil
}

// Snapshot returns the last refreshed report. The zero Snapshot is
// returned before the first refresh.
func (r *Reporter) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// StartSchedule refreshes the snapshot on the given cron spec until Stop
// is called.
func (r *Reporter) StartSchedule(spec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		return fmt.Errorf("reporter schedule already running")
	}

	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.Refresh(ctx); err != nil {
			r.logger.Error("scheduled progress refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	c.Start()
	r.cron = c

	return nil
}

// Stop halts the refresh schedule, waiting for an in-flight run.
func (r *Reporter) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Aggregate builds a snapshot from raw enrollment rows. Courses are
// ordered by ID for stable output.
func Aggregate(records []*Enrollment) Snapshot {
	type bucket struct {
		report CourseReport
		pctSum float64
	}

	buckets := map[string]*bucket{}
	learners := map[string]struct{}{}

	totals := ReportTotals{}
	var totalPct float64

	for _, record := range records {
		if record == nil || record.CourseID == "" {
			continue
		}

		b, ok := buckets[record.CourseID]
		if !ok {
			b = &bucket{report: CourseReport{
				CourseID:   record.CourseID,
				CourseName: record.CourseName,
			}}
			buckets[record.CourseID] = b
		}

		if b.report.CourseName == "" {
			b.report.CourseName = record.CourseName
		}

		pct := record.Percent()
		b.report.Enrolled++
		b.pctSum += pct
		if record.IsComplete() {
			b.report.Completed++
			totals.Completions++
		}

		totals.Enrollments++
		totalPct += pct
		learners[record.UserID.String()] = struct{}{}
	}

	courses := make([]CourseReport, 0, len(buckets))
	for _, b := range buckets {
		if b.report.Enrolled > 0 {
			b.report.AvgPercent = b.pctSum / float64(b.report.Enrolled)
		}
		courses = append(courses, b.report)
	}

	sort.Slice(courses, func(i, j int) bool {
		return courses[i].CourseID < courses[j].CourseID
	})

	totals.Learners = len(learners)
	if totals.Enrollments > 0 {
		totals.AvgPercent = totalPct / float64(totals.Enrollments)
	}

	return Snapshot{
		GeneratedAt: time.Now().UTC(),
		Courses:     courses,
		Totals:      totals,
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
