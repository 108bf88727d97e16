package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Manager manages the database connection the query runner executes through
type Manager struct {
	config *Config
	db     *gorm.DB
	logger *zap.Logger
}

// NewManager opens a MySQL connection pool described by config
func NewManager(config *Config, logger *zap.Logger) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dsn, err := config.GetDSN()
	if err != nil {
		return nil, fmt.Errorf("failed to build dsn: %w", err)
	}

	return NewManagerWithDialector(config, mysql.Open(dsn), logger)
}

// NewManagerWithDialector opens a connection through any GORM dialector.
// Connection validation is left to the dialector.
func NewManagerWithDialector(config *Config, dialector gorm.Dialector, logger *zap.Logger) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gormConfig := &gorm.Config{
		PrepareStmt: config.PrepareStmt,
		Logger:      newGormLogger(logger, config),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	logger.Debug("database connection opened",
		zap.String("dialect", dialector.Name()),
		zap.Int("max_open_conns", config.MaxOpenConns),
	)

	return &Manager{
		config: config,
		db:     db,
		logger: logger,
	}, nil
}

// DB returns the GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// SqlDB returns the underlying sql.DB instance
func (m *Manager) SqlDB() (*sql.DB, error) {
	return m.db.DB()
}

// Config returns the manager's configuration
func (m *Manager) Config() *Config {
	return m.config
}

// WithQueryTimeout wraps ctx with the configured query timeout, if any
func (m *Manager) WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config != nil && m.config.QueryTimeout > 0 {
		return context.WithTimeout(ctx, m.config.QueryTimeout)
	}
	return ctx, func() {}
}

// Ping tests the database connection
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns database connection statistics
func (m *Manager) Stats() (sql.DBStats, error) {
	sqlDB, err := m.db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
