// Package container wires the application together: database, repositories,
// dispatcher, notifier, engine. Components are initialized in dependency
// order and torn down in reverse.
package container

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hrops/approval-engine/internal/application/dispatcher"
	"github.com/hrops/approval-engine/internal/application/port"
	"github.com/hrops/approval-engine/internal/config"
	"github.com/hrops/approval-engine/internal/engine"
	"github.com/hrops/approval-engine/internal/infrastructure/persistence/repository"
	"github.com/hrops/approval-engine/internal/infrastructure/persistence/sqlite"
	"github.com/hrops/approval-engine/internal/notification"
	"github.com/hrops/approval-engine/internal/workflow"
	"github.com/hrops/approval-engine/pkg/database"
)

// Container holds all application components
type Container struct {
	mu     sync.Mutex
	ready  bool
	closed bool

	config *config.Config
	logger *zap.Logger

	db         *database.DB
	txManager  *sqlite.DB
	requests   port.RequestRepository
	audit      port.AuditRepository
	directory  port.PermissionOracle
	dispatcher dispatcher.Dispatcher
	notifier   *notification.Notifier
	engine     *engine.Engine
}

// NewContainer builds the full component graph. The database is opened and
// migrated here, so a returned container is ready to serve.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		config: cfg,
		logger: logger,
	}

	if err := c.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := c.initRepositories(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}
	if err := c.initEngine(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	c.ready = true
	return c, nil
}

func (c *Container) initDatabase() error {
	db, err := database.New(database.Config{
		Path:            c.config.Database.Path,
		MaxOpenConns:    c.config.Database.MaxOpenConns,
		MaxIdleConns:    c.config.Database.MaxIdleConns,
		ConnMaxLifetime: c.config.Database.ConnMaxLifetime,
	}, c.logger)
	if err != nil {
		return err
	}
	c.db = db

	migrator := database.NewMigrator(db, c.logger)
	if err := migrator.RunMigrations(c.config.Database.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.txManager = sqlite.NewDB(db.DB, c.logger)
	return nil
}

func (c *Container) initRepositories() error {
	c.requests = repository.NewRequestRepository(c.db.DB, c.logger)
	c.audit = repository.NewAuditRepository(c.db.DB, c.logger)
	c.directory = repository.NewDirectoryRepository(c.db.DB, c.logger)
	return nil
}

func (c *Container) initEngine() error {
	configs, err := workflow.Load(c.config.Workflow)
	if err != nil {
		return fmt.Errorf("failed to load workflow policy: %w", err)
	}

	c.dispatcher = dispatcher.New(dispatcher.WithLogger(&dispatcherLoggerAdapter{logger: c.logger}))

	c.notifier = notification.NewNotifier(notification.NewLogClient(c.logger), c.logger)
	c.notifier.Register(c.dispatcher)

	c.engine = engine.New(
		c.requests,
		c.audit,
		c.txManager,
		c.directory,
		configs,
		c.logger,
		engine.WithDispatcher(c.dispatcher),
	)
	return nil
}

// Ready reports whether initialization completed
func (c *Container) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready && !c.closed
}

// Ping verifies the database connection is alive
func (c *Container) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close tears components down in reverse initialization order. The
// dispatcher drains first so in-flight notifications still see the database.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var firstErr error
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Engine returns the approval engine
func (c *Container) Engine() *engine.Engine {
	return c.engine
}

// Dispatcher returns the event dispatcher
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Logger returns the container's logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// HTTPLogger adapts the zap logger to the key-value Logger interface used by
// the HTTP server.
func (c *Container) HTTPLogger() *ZapLoggerAdapter {
	return &ZapLoggerAdapter{logger: c.logger}
}

// ZapLoggerAdapter adapts zap.Logger to key-value style logging interfaces
type ZapLoggerAdapter struct {
	logger *zap.Logger
}

// Info logs at info level
func (a *ZapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

// Error logs at error level
func (a *ZapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

type dispatcherLoggerAdapter struct {
	logger *zap.Logger
}

func (a *dispatcherLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *dispatcherLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
