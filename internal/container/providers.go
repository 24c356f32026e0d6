package container

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-approval/internal/infrastructure/report"
	httpapi "github.com/garyjia/expense-approval/internal/interfaces/http"
	"github.com/garyjia/expense-approval/migrations"
	"github.com/garyjia/expense-approval/pkg/database"
	"github.com/garyjia/expense-approval/pkg/utils"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Raw            *database.DB
	TransactionMgr *sqlite.DB
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager *sqlite.DB
	Engine    workflow.WorkflowEngine
	Logger    *zap.Logger
}

// WorkflowDeps holds dependencies for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	TxManager  *sqlite.DB
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideDatabase opens the SQLite database, applies pending migrations and
// wraps the connection in a transaction manager. Migrations come from
// cfg.MigrationsDir when set, otherwise from the binary.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	raw, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(raw, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrationsDir(cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrations(migrations.FS)
	}
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Raw:            raw,
		TransactionMgr: sqlite.NewDB(raw.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories on top of the transaction manager.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Company:  repository.NewCompanyRepository(db, logger),
		User:     repository.NewUserRepository(db, logger),
		Rule:     repository.NewApprovalRuleRepository(db, logger),
		Expense:  repository.NewExpenseRepository(db, logger),
		Approval: repository.NewApprovalRepository(db, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher with a logging subscriber
// on every workflow event.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	kv := utils.NewKVLogger(logger.Named("events"))
	disp := dispatcher.NewDispatcher(dispatcher.WithLogger(kv))
	disp.SubscribeAll("event-log", dispatcher.NewLoggingHandler(kv))

	return disp, nil
}

// ProvideWorkflowEngine creates the approval workflow engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (*workflow.Engine, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []workflow.EngineOption{
		workflow.WithLogger(utils.NewKVLogger(deps.Logger.Named("workflow"))),
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}

	return workflow.NewEngine(
		deps.Repos.Rule,
		deps.Repos.User,
		deps.Repos.Expense,
		deps.Repos.Approval,
		deps.TxManager,
		opts...,
	), nil
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("workflow engine is required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	kv := utils.NewKVLogger(deps.Logger.Named("service"))
	repos := deps.Repos

	return &ServiceBundle{
		Approval: service.NewApprovalService(
			deps.Engine,
			repos.Expense,
			repos.Approval,
			report.NewPendingExporter(deps.Logger),
			kv,
		),
		Expense: service.NewExpenseService(
			deps.Engine,
			repos.Expense,
			repos.User,
			repos.Company,
			deps.TxManager,
			kv,
		),
		Rule: service.NewRuleService(
			repos.Rule,
			repos.User,
			deps.TxManager,
			kv,
		),
	}, nil
}

// ProvideHTTPServer creates the HTTP adapter over the application services.
func ProvideHTTPServer(cfg *ServerConfig, services *ServiceBundle, repos *RepositoryBundle, logger *zap.Logger) (*httpapi.Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if services == nil || repos == nil {
		return nil, fmt.Errorf("services and repositories are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serverCfg := httpapi.DefaultServerConfig()
	if cfg.Host != "" {
		serverCfg.Host = cfg.Host
	}
	if cfg.Port != 0 {
		serverCfg.Port = cfg.Port
	}
	if cfg.ReadTimeout > 0 {
		serverCfg.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		serverCfg.WriteTimeout = cfg.WriteTimeout
	}

	return httpapi.NewServer(serverCfg, httpapi.Services{
		Approvals: services.Approval,
		Expenses:  services.Expense,
		Rules:     services.Rule,
		Users:     repos.User,
	}, utils.NewKVLogger(logger.Named("http"))), nil
}
