package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"go-leaveflow/internal/authz"
	"go-leaveflow/internal/balance"
	"go-leaveflow/internal/bootstrap"
	"go-leaveflow/internal/leave"
	"go-leaveflow/internal/messaging/kafka"
	"go-leaveflow/internal/notification"
	"go-leaveflow/internal/shared/counter"
	"go-leaveflow/internal/user"
)

const memoryStoreSweepInterval = time.Minute

func registerModules(
	router *gin.Engine,
	db *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	userRepo := user.NewRepository(db)
	authzRepo := authz.NewRepository(db)
	leaveRepo := leave.NewRepository(db)
	balanceRepo := balance.NewRepository(db)
	counterRepo := counter.NewRepository(db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Authorization core ---
	catalog, err := authz.NewCatalog(authz.DefaultConfig())
	if err != nil {
		return err
	}

	var store authz.Store
	if rdb != nil {
		store = authz.NewRedisStore(rdb)
	} else {
		store = authz.NewMemoryStore(memoryStoreSweepInterval)
	}

	resolver := authz.NewResolver(authzRepo, userRepo, catalog, store, nil)

	auditLogger := bootstrap.NewStdoutAuditLogger()
	gate := authz.NewGate(catalog, auditLogger, nil)
	gate.RegisterAccessor("leave_request", leave.NewAccessor(db))

	// --- Services ---
	dispatcher := notification.NewOutboxDispatcher(outboxRepo)
	balanceService := balance.NewService(db, balanceRepo)
	approvalRouter := leave.NewApprovalRouter(userRepo)
	workflowEngine := leave.NewWorkflowEngine(
		db, leaveRepo, userRepo, approvalRouter,
		counterRepo, balanceService, dispatcher,
	)

	// --- Handlers ---
	leaveHandler := leave.NewHandler(workflowEngine, balanceService)
	authzHandler := authz.NewHandler(resolver)

	// --- Routes ---
	api := router.Group("/api/v1")
	{
		leave.RegisterRoutes(api, leaveHandler, resolver, gate)
		authz.RegisterRoutes(api, authzHandler, resolver, gate)
	}

	return nil
}
