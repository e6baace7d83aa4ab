package portal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/campuskit/portal/progress"
)

// RoleChanger executes role/status transitions.
type RoleChanger interface {
	Execute(ctx context.Context, msg ChangeRoleMessage) error
}

// ReportProvider exposes the cached course-progress report.
type ReportProvider interface {
	Snapshot() progress.Snapshot
	Refresh(ctx context.Context) error
}

// PortalControllerRoutes holds the route paths the controller mounts.
type PortalControllerRoutes struct {
	Session string
	Users   string
	Report  string
}

// PortalController handles the admin API surface.
type PortalController struct {
	Logger      Logger
	Repo        RepositoryManager
	RoleChanger RoleChanger
	Reports     ReportProvider
	Routes      *PortalControllerRoutes
	ContextKey  string
}

// PortalControllerOption configures the controller.
type PortalControllerOption func(*PortalController) *PortalController

// NewPortalController creates a controller with default routes.
func NewPortalController(opts ...PortalControllerOption) *PortalController {
	c := &PortalController{
		Logger:     defLogger{},
		ContextKey: DefaultIdentityContextKey,
		Routes: &PortalControllerRoutes{
			Session: "/session",
			Users:   "/admin/users",
			Report:  "/admin/report",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// WithLogger implements the client only interface
func (c *PortalController) WithLogger(logger Logger) *PortalController {
	if logger != nil {
		c.Logger = logger
	}
	return c
}

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// RegisterPortalRoutes mounts the controller routes. Member routes accept
// any accepted account; admin routes require staff or admin.
func RegisterPortalRoutes(app RouteRegistrar, gate *GateMiddleware, opts ...PortalControllerOption) *PortalController {
	controller := NewPortalController(opts...)

	member := gate.Protected(GateRequirement{
		Statuses: []AccountStatus{StatusAccepted},
	})
	admin := gate.Protected(GateRequirement{
		Roles:    []Role{RoleStaff, RoleAdmin},
		Statuses: []AccountStatus{StatusAccepted},
	})

	app.Get(controller.Routes.Session, controller.SessionShow, member)
	app.Get(controller.Routes.Users, controller.UsersIndex, admin)
	app.Patch(fmt.Sprintf("%s/:id", controller.Routes.Users), controller.UserChangeRole, admin)
	app.Get(controller.Routes.Report, controller.ReportShow, admin)
	app.Post(fmt.Sprintf("%s/refresh", controller.Routes.Report), controller.ReportRefresh, admin)

	return controller
}

// SessionShow returns the signed-in user's profile.
func (c *PortalController) SessionShow(ctx router.Context) error {
	identity, ok := IdentityFromContextKey(ctx, c.ContextKey)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]string{
			"error": "no active session",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": identity,
	})
}

// UsersIndex lists users for the management table. Supports search plus
// role and status filters via query params.
func (c *PortalController) UsersIndex(ctx router.Context) error {
	filter := UserFilter{
		Search: ctx.Query("search"),
	}

	for _, raw := range splitQueryList(ctx.Query("role")) {
		role, ok := ParseRole(raw)
		if !ok {
			return ctx.JSON(http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("unknown role %q", raw),
			})
		}
		filter.Roles = append(filter.Roles, role)
	}

	for _, raw := range splitQueryList(ctx.Query("status")) {
		status, ok := ParseStatus(raw)
		if !ok {
			return ctx.JSON(http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("unknown status %q", raw),
			})
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	records, err := c.Repo.Users().ListFiltered(ctx.Context(), filter)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"users": records,
		"count": len(records),
	})
}

// ChangeRolePayload is the request body for role/status updates.
type ChangeRolePayload struct {
	Role   string `json:"role" form:"role"`
	Status string `json:"status" form:"status"`
}

// Validate will run validation rules
func (r ChangeRolePayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Role, validation.Required),
			validation.Field(&r.Status, validation.Required),
		)
	}, "Invalid role change payload")
}

// UserChangeRole updates a user's role and status.
func (c *PortalController) UserChangeRole(ctx router.Context) error {
	payload := new(ChangeRolePayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": "unable to parse payload",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error":      err.Message,
			"validation": err.ValidationMap(),
		})
	}

	msg := ChangeRoleMessage{
		UserID: ctx.Param("id"),
		Role:   Role(payload.Role),
		Status: AccountStatus(payload.Status),
	}

	if actor, ok := IdentityFromContextKey(ctx, c.ContextKey); ok {
		msg.Actor = ActorRef{ID: actor.ID.String(), Type: "user"}
	}

	id, err := uuid.Parse(msg.UserID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid user id",
		})
	}

	if err := c.RoleChanger.Execute(ctx.Context(), msg); err != nil {
		return c.handleError(ctx, err)
	}

	record, err := c.Repo.Users().FindByID(ctx.Context(), id)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": record,
	})
}

// ReportShow returns the cached progress snapshot.
func (c *PortalController) ReportShow(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, c.Reports.Snapshot())
}

// ReportRefresh rebuilds the snapshot and returns it.
func (c *PortalController) ReportRefresh(ctx router.Context) error {
	if err := c.Reports.Refresh(ctx.Context()); err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, c.Reports.Snapshot())
}

func (c *PortalController) handleError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	c.Logger.Error("request failed",
		"error", richErr.Message,
		"category", string(richErr.Category),
		"path", ctx.OriginalURL(),
	)

	code := richErr.Code
	if code == 0 {
		code = http.StatusInternalServerError
	}

	return ctx.JSON(code, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func splitQueryList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
