// Package app wires PontoCerto together: storage, cache, event bus, mailer,
// application handlers and background jobs. The server, the worker and
// pontoctl all build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/espacohidro/pontocerto/config"
	"github.com/espacohidro/pontocerto/internal/application/command"
	"github.com/espacohidro/pontocerto/internal/application/eventhandler"
	"github.com/espacohidro/pontocerto/internal/application/query"
	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/backup"
	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/internal/infrastructure/external/emailjs"
	"github.com/espacohidro/pontocerto/internal/infrastructure/messaging"
	"github.com/espacohidro/pontocerto/internal/infrastructure/persistence/memory"
	"github.com/espacohidro/pontocerto/internal/infrastructure/persistence/postgres"
	"github.com/espacohidro/pontocerto/internal/infrastructure/persistence/redis"
	"github.com/espacohidro/pontocerto/internal/infrastructure/report"
	"github.com/espacohidro/pontocerto/internal/infrastructure/service"
	httpserver "github.com/espacohidro/pontocerto/internal/interface/http"
	"github.com/espacohidro/pontocerto/internal/interface/http/handlers"
	"github.com/espacohidro/pontocerto/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPONENTS
// ══════════════════════════════════════════════════════════════════════════════

// Repositories groups the storage ports.
type Repositories struct {
	Users     staff.Repository
	Logs      attendance.Repository
	Settings  settings.Repository
	Outbox    notification.Outbox
	Reminders notification.ReminderLedger
	Backup    backup.Store
}

// MemoryRepositories returns repositories over a fresh in-memory store.
func MemoryRepositories() Repositories {
	s := memory.NewStore()
	return Repositories{
		Users:     s.Users(),
		Logs:      s.Logs(),
		Settings:  s.Settings(),
		Outbox:    s.Outbox(),
		Reminders: s.Reminders(),
		Backup:    s,
	}
}

// PostgresRepositories returns repositories over a connection pool.
func PostgresRepositories(conn *postgres.Connection) Repositories {
	return Repositories{
		Users:     postgres.NewUserRepository(conn),
		Logs:      postgres.NewLogRepository(conn),
		Settings:  postgres.NewSettingsRepository(conn),
		Outbox:    postgres.NewOutbox(conn),
		Reminders: postgres.NewReminderLedger(conn),
		Backup:    postgres.NewBackupStore(conn),
	}
}

// Commands groups the command handlers.
type Commands struct {
	RecordPunch    *command.RecordPunchHandler
	CorrectPunch   *command.CorrectPunchHandler
	DeletePunch    *command.DeletePunchHandler
	CreateUser     *command.CreateUserHandler
	UpdateUser     *command.UpdateUserHandler
	DeleteUser     *command.DeleteUserHandler
	ImportRoster   *command.ImportRosterHandler
	UpdateSettings *command.UpdateSettingsHandler
	Outbox         *command.OutboxHandler
	ImportBackup   *command.ImportBackupHandler
	SendReminders  *command.SendRemindersHandler
}

// Queries groups the query handlers.
type Queries struct {
	Authenticate      *query.AuthenticateHandler
	Users             *query.UsersHandler
	Attendance        *query.AttendanceHandler
	GetSettings       *query.GetSettingsHandler
	ListNotifications *query.ListNotificationsHandler
	ExportBackup      *query.ExportBackupHandler
	BuildTimesheet    *query.BuildTimesheetHandler
}

// App is the assembled service.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time

	Repos    Repositories
	Policy   staff.PasswordPolicy
	Bus      *messaging.InMemoryEventBus
	Mailer   *service.Mailer
	Relay    *emailjs.Client
	Commands Commands
	Queries  Queries
	Health   *handlers.CompositeHealthChecker

	// DB and Cache are nil when not configured.
	DB    *postgres.Connection
	Cache *redis.Cache

	closers []func()
}

// Options adjusts how New builds the App.
type Options struct {
	// Repositories replaces the configured storage. Tests pass
	// MemoryRepositories here.
	Repositories *Repositories

	// Now overrides the clock.
	Now func() time.Time

	// SkipMigrations leaves the schema alone even when auto-migrate is on.
	SkipMigrations bool

	// SyncEvents runs event handlers on the publisher's goroutine. One-shot
	// commands use it so notifications are queued before the process exits.
	SyncEvents bool
}

// ══════════════════════════════════════════════════════════════════════════════
// BOOTSTRAP
// ══════════════════════════════════════════════════════════════════════════════

// New connects storage and assembles every component. The caller must
// Close the App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (a *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.App.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	a = &App{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		Now:      now,
		Health:   handlers.NewCompositeHealthChecker(cfg.App.Version),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. Storage
	// ─────────────────────────────────────────────────────────────────────────
	switch {
	case opts.Repositories != nil:
		a.Repos = *opts.Repositories
	case cfg.UsesMemoryStore():
		logger.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
		a.Repos = MemoryRepositories()
	default:
		if err := a.connectPostgres(ctx, opts.SkipMigrations); err != nil {
			return nil, err
		}
		a.Repos = PostgresRepositories(a.DB)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Enabled {
		a.connectRedis()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Event bus and mailer
	// ─────────────────────────────────────────────────────────────────────────
	a.Policy, err = staff.PolicyByName(cfg.Security.PasswordPolicy)
	if err != nil {
		return nil, err
	}

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = logger
	if opts.SyncEvents {
		busConfig.AsyncMode = false
	}
	a.Bus = messaging.NewInMemoryEventBus(busConfig)
	a.closers = append(a.closers, func() { _ = a.Bus.Close() })
	if m := a.Bus.Metrics(); m != nil {
		a.Health.AddDetails("events", func(context.Context) any { return m.Snapshot() })
	}

	mailerConfig := service.MailerConfig{
		RelayTimeout: cfg.Mail.RelayTimeout,
		Logger:       logger,
		Now:          now,
	}
	if cfg.Mail.RelayEnabled {
		relayConfig := emailjs.DefaultClientConfig()
		relayConfig.Endpoint = cfg.Mail.RelayEndpoint
		relayConfig.Logger = logger
		a.Relay = emailjs.NewClient(relayConfig)
		mailerConfig.Relay = a.Relay
		a.Health.AddOptionalCheck("email_relay", func(context.Context) error {
			if state := a.Relay.BreakerState(); state == "open" {
				return errors.New("circuit open")
			}
			return nil
		})
	}
	a.Mailer = service.NewMailer(a.Repos.Outbox, a.Repos.Settings, mailerConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Application layer
	// ─────────────────────────────────────────────────────────────────────────
	a.buildHandlers()

	if err := eventhandler.Register(a.Bus,
		eventhandler.NewOnPunchRecordedHandler(a.Repos.Users, a.Repos.Logs, a.Mailer, loc, logger),
		eventhandler.NewOnPunchCorrectedHandler(a.Repos.Users, a.Mailer, cfg.Mail.AdminEmail, loc, logger),
		eventhandler.NewOnUserCreatedHandler(a.Mailer, logger),
	); err != nil {
		return nil, fmt.Errorf("register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Seed
	// ─────────────────────────────────────────────────────────────────────────
	created, err := command.EnsureDefaultAdmin(ctx, a.Repos.Users, a.Policy)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Warn("seeded default administrator; change its password", "email", staff.DefaultAdminEmail)
	}

	return a, nil
}

func (a *App) connectPostgres(ctx context.Context, skipMigrations bool) error {
	cfg := a.Config.Database
	pgConfig := postgres.DefaultConfig()
	pgConfig.URL = cfg.URL
	pgConfig.MaxConns = cfg.MaxConns
	pgConfig.MinConns = cfg.MinConns
	pgConfig.ConnectTimeout = cfg.ConnectTimeout

	a.Logger.Info("connecting to database...")
	var conn *postgres.Connection
	err := retry.Startup(func(attempt int, err error, delay time.Duration) {
		a.Logger.Warn("database connection failed", "attempt", attempt, "retry_in", delay, "error", err)
	}).Do(ctx, func(ctx context.Context) (err error) {
		conn, err = postgres.NewConnection(ctx, pgConfig)
		return err
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	a.DB = conn
	a.closers = append(a.closers, conn.Close)
	a.Health.AddCheck("database", handlers.NewPingCheck(conn))
	a.Health.AddDetails("database_pool", func(context.Context) any { return conn.PoolStats() })
	a.Logger.Info("database connection established")

	if cfg.AutoMigrate && !skipMigrations {
		applied, err := postgres.NewMigrator(conn).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		a.Logger.Info("migrations completed", "applied", applied)
	}
	return nil
}

// connectRedis attaches the settings cache and the reminder ledger. Redis
// is optional, so failures only disable it.
func (a *App) connectRedis() {
	cfg := a.Config.Redis
	redisConfig := redis.DefaultConfig()
	redisConfig.URL = cfg.URL
	redisConfig.Host = cfg.Host
	redisConfig.Port = cfg.Port
	redisConfig.Password = cfg.Password
	redisConfig.DB = cfg.DB
	redisConfig.PoolSize = cfg.PoolSize

	a.Logger.Info("connecting to Redis...")
	cache, err := redis.NewCache(redisConfig)
	if err != nil {
		a.Logger.Warn("failed to connect to Redis, caching disabled", "error", err)
		return
	}
	a.Cache = cache
	a.closers = append(a.closers, func() { _ = cache.Close() })
	a.Health.AddOptionalCheck("cache", handlers.NewPingCheck(cache))

	settingsCache := redis.NewSettingsCache(a.Repos.Settings, cache, a.Logger)
	a.Repos.Settings = settingsCache
	a.Repos.Backup = redis.NewBackupStore(a.Repos.Backup, settingsCache)
	a.Repos.Reminders = redis.NewReminderLedger(cache)
	a.Logger.Info("Redis connection established")
}

func (a *App) buildHandlers() {
	r := a.Repos
	cmdClock := command.Clock{Location: a.Location, Now: a.Now}
	qClock := query.Clock{Location: a.Location, Now: a.Now}

	create := command.NewCreateUserHandler(r.Users, a.Policy, a.Bus)
	a.Commands = Commands{
		RecordPunch:    command.NewRecordPunchHandler(r.Users, r.Logs, a.Bus, cmdClock),
		CorrectPunch:   command.NewCorrectPunchHandler(r.Users, r.Logs, a.Bus),
		DeletePunch:    command.NewDeletePunchHandler(r.Users, r.Logs, a.Bus),
		CreateUser:     create,
		UpdateUser:     command.NewUpdateUserHandler(r.Users, a.Policy),
		DeleteUser:     command.NewDeleteUserHandler(r.Users, a.Bus),
		ImportRoster:   command.NewImportRosterHandler(r.Users, create),
		UpdateSettings: command.NewUpdateSettingsHandler(r.Users, r.Settings),
		Outbox:         command.NewOutboxHandler(r.Users, r.Outbox),
		ImportBackup:   command.NewImportBackupHandler(r.Users, r.Backup, a.Bus),
		SendReminders: command.NewSendRemindersHandler(r.Users, r.Logs, r.Reminders, a.Mailer, a.Bus, cmdClock,
			command.ReminderConfig{CutoffHour: a.Config.Scheduler.ReminderCutoffHour}, a.Logger),
	}
	a.Queries = Queries{
		Authenticate:      query.NewAuthenticateHandler(r.Users, a.Policy),
		Users:             query.NewUsersHandler(r.Users),
		Attendance:        query.NewAttendanceHandler(r.Users, r.Logs, r.Settings, qClock),
		GetSettings:       query.NewGetSettingsHandler(r.Settings),
		ListNotifications: query.NewListNotificationsHandler(r.Users, r.Outbox),
		ExportBackup:      query.NewExportBackupHandler(r.Users, r.Logs, r.Settings, qClock),
		BuildTimesheet:    query.NewBuildTimesheetHandler(r.Users, r.Logs, r.Settings, qClock),
	}
}

// HTTPDependencies returns everything the API server needs.
func (a *App) HTTPDependencies() httpserver.Dependencies {
	return httpserver.Dependencies{
		RecordPunch:       a.Commands.RecordPunch,
		CorrectPunch:      a.Commands.CorrectPunch,
		DeletePunch:       a.Commands.DeletePunch,
		CreateUser:        a.Commands.CreateUser,
		UpdateUser:        a.Commands.UpdateUser,
		DeleteUser:        a.Commands.DeleteUser,
		ImportRoster:      a.Commands.ImportRoster,
		UpdateSettings:    a.Commands.UpdateSettings,
		Outbox:            a.Commands.Outbox,
		ImportBackup:      a.Commands.ImportBackup,
		Authenticate:      a.Queries.Authenticate,
		Users:             a.Queries.Users,
		Attendance:        a.Queries.Attendance,
		GetSettings:       a.Queries.GetSettings,
		ListNotifications: a.Queries.ListNotifications,
		ExportBackup:      a.Queries.ExportBackup,
		BuildTimesheet:    a.Queries.BuildTimesheet,
		TimesheetRenderer: report.NewXLSXRenderer(),
		RosterReader:      report.ReadRoster,
		Location:          a.Location,
		Logger:            a.Logger,
		HealthChecker:     a.Health,
	}
}

// HTTPConfig converts the configuration into server settings.
func (a *App) HTTPConfig() httpserver.Config {
	c := a.Config.HTTP
	hc := httpserver.DefaultConfig()
	hc.Host = c.Host
	hc.Port = c.Port
	hc.ReadTimeout = c.ReadTimeout
	hc.WriteTimeout = c.WriteTimeout
	hc.IdleTimeout = c.IdleTimeout
	hc.MaxUploadBytes = c.MaxUploadBytes
	hc.AllowedOrigins = c.AllowedOrigins
	hc.RateLimitPerMinute = c.RateLimitPerMinute
	return hc
}

// Close releases connections in reverse order of acquisition. Pending
// event handlers are drained first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
