package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/campuskit/portal"
	"github.com/campuskit/portal/config"
	"github.com/campuskit/portal/notify"
	"github.com/campuskit/portal/oauth"
	"github.com/campuskit/portal/progress"
	"github.com/campuskit/portal/provider/discord"
)

type App struct {
	config     *gconfig.Container[*config.AppConfig]
	bunDB      *bun.DB
	repo       portal.RepositoryManager
	dispatcher *portal.ActivityDispatcher
	auth       *oauth.Authenticator
	authCtrl   *oauth.HTTPController
	session    *portal.SessionContext
	gate       *portal.GateMiddleware
	reporter   *progress.Reporter
	srv        router.Server[*fiber.App]
	logger     *glog.BaseLogger
}

func (a *App) Config() *config.AppConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	_ = godotenv.Load()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("portal"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.AppConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	if err := cfg.Raw().Validate(); err != nil {
		panic(err)
	}

	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	WithActivitySink(app)

	if err := WithAuth(app); err != nil {
		panic(err)
	}

	if err := WithReports(ctx, app); err != nil {
		panic(err)
	}

	WithHTTPServer(app)
	RegisterRoutes(app)

	app.srv.Serve(app.Config().GetServer().GetAddress())

	WaitExitSignal()

	app.reporter.Stop()
	app.session.Close()
	app.dispatcher.Close()
}

func WithPersistence(ctx context.Context, app *App) error {
	pcfg := app.Config().GetPersistence()

	db, err := sql.Open(sqliteshim.ShimName, pcfg.GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*portal.User)(nil))
	persistence.RegisterModel((*progress.Enrollment)(nil))

	client, err := persistence.New(pcfg, db, sqlitedialect.New())
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(portal.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = portal.NewRepositoryManager(client.DB())

	return app.repo.Validate()
}

func WithActivitySink(app *App) {
	ncfg := app.Config().GetNotify()

	webhook := notify.NewDiscordWebhook(ncfg.WebhookURL,
		notify.WithUsername(ncfg.GetUsername()),
		notify.WithLogger(app.GetLogger("notify")),
	)

	app.dispatcher = portal.NewActivityDispatcher(webhook,
		portal.WithDispatcherQueueSize(ncfg.GetQueueSize()),
		portal.WithDispatcherLogger(app.GetLogger("activity")),
	)
}

func WithAuth(app *App) error {
	acfg := app.Config().GetAuth()
	dcfg := app.Config().GetDiscord()

	provider := discord.New(discord.Config{
		ClientID:     dcfg.ClientID,
		ClientSecret: dcfg.ClientSecret,
		CallbackURL:  acfg.OAuthCallbackURL,
		Scopes:       dcfg.Scopes,
	})

	provisioner := oauth.NewProvisioner(app.repo.Users(),
		oauth.WithProvisionerActivitySink(app.dispatcher),
		oauth.WithProvisionerLogger(app.GetLogger("provision")),
		oauth.WithPrivilegedIdentifiers(app.Config().GetAccess().PrivilegedIdentifiers...),
	)

	app.auth = oauth.NewAuthenticator(provider, provisioner, oauth.Config{
		CallbackURL:        acfg.OAuthCallbackURL,
		DefaultRedirectURL: acfg.GetLandingPath(),
		StateEncryptionKey: []byte(acfg.StateEncryptionSecret),
		StateHMACKey:       []byte(acfg.StateHMACSecret),
		SigningKey:         []byte(acfg.SigningKey),
		Issuer:             acfg.Issuer,
		Audience:           acfg.Audience,
		SessionDuration:    acfg.GetSessionDuration(),
	}, oauth.WithLogger(app.GetLogger("auth")))

	app.authCtrl = oauth.NewHTTPController(app.auth, oauth.HTTPConfig{
		CookieName:      acfg.GetCookieName(),
		CookieSecure:    acfg.CookieSecure,
		CookieHTTPOnly:  true,
		SessionDuration: acfg.GetSessionDuration(),
		SuccessRedirect: acfg.GetLandingPath(),
		ErrorRedirect:   acfg.GetSignInPath() + "?error=auth_failed",
	})

	app.session = portal.NewSessionContext(app.auth, provisioner,
		portal.WithSessionLogger(app.GetLogger("session")),
	)
	// The server holds no session token of its own at boot; this settles
	// the context out of the bootstrapping state before routes go live.
	app.session.Initialize(context.Background(), "")

	resolver := portal.IdentityResolverFunc(func(ctx context.Context, token string) (*portal.User, error) {
		principal, err := app.auth.CurrentSession(ctx, token)
		if err != nil {
			return nil, err
		}
		return provisioner.Resolve(ctx, principal)
	})

	app.gate = portal.NewGateMiddleware(
		portal.Gate{
			SignInPath:  acfg.GetSignInPath(),
			LandingPath: acfg.GetLandingPath(),
		},
		resolver,
		portal.WithGateCookieName(acfg.GetCookieName()),
		portal.WithGateBootstrap(app.session.Bootstrapping),
		portal.WithGateLogger(app.GetLogger("gate")),
	)

	return nil
}

func WithReports(ctx context.Context, app *App) error {
	enrollments := progress.NewEnrollmentsRepository(app.bunDB)

	app.reporter = progress.NewReporter(enrollments,
		progress.WithReporterLogger(app.GetLogger("reports")),
	)

	if err := app.reporter.Refresh(ctx); err != nil {
		app.GetLogger("reports").Error("initial report refresh failed", "error", err)
	}

	return app.reporter.StartSchedule(app.Config().GetReport().GetSchedule())
}

func WithHTTPServer(app *App) {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       app.Config().GetName(),
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv
}

func RegisterRoutes(app *App) {
	r := app.srv.Router()

	r.Get("/healthz", func(ctx router.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	app.authCtrl.RegisterRoutes(r.Group("/auth"))

	roleChanger := portal.NewChangeRoleHandler(app.repo, app.dispatcher)

	portal.RegisterPortalRoutes(r.Group("/api"), app.gate,
		func(c *portal.PortalController) *portal.PortalController {
			c.Repo = app.repo
			c.RoleChanger = roleChanger
			c.Reports = app.reporter
			return c.WithLogger(app.GetLogger("portal"))
		})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
