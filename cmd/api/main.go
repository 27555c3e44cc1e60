package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/adapters/handler"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/adapters/messaging"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/adapters/middleware"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/adapters/repository"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/config"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/services"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	rosterRepo := repository.NewRosterRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	routineRepo := repository.NewRoutineRepository(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	log.Println("Authenticated with Redis successfully")

	broker, err := messaging.NewRabbitMQBroker(cfg.RabbitMQURL, cfg.NotifyQueueName)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer broker.Close()

	validator := services.NewValidator(rosterRepo)
	rosterService := services.NewRosterService(rosterRepo, validator)
	taskService := services.NewTaskService(taskRepo, validator, broker)
	routineService := services.NewRoutineService(rosterRepo, routineRepo, validator)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey, redisClient)

	taskHandler := handler.NewTaskHandler(taskService)
	routineHandler := handler.NewRoutineHandler(routineService)
	adminHandler := handler.NewAdminHandler(rosterService, validator)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	allRoles := []domain.Role{domain.RoleAdmin, domain.RoleTeamManager, domain.RoleMember}
	managerRoles := []domain.Role{domain.RoleAdmin, domain.RoleTeamManager}

	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible)
	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/health/ready", healthHandler.Ready)
	mux.HandleFunc("/health/live", healthHandler.Live)

	mux.Handle("/metrics", promhttp.Handler())

	// API endpoints
	mux.Handle("/tasks",
		authMiddleware.RequireRole(managerRoles, middleware.Metrics("/tasks", taskHandler.Tasks)),
	)
	mux.Handle("/tasks/status",
		authMiddleware.RequireRole(allRoles, middleware.Metrics("/tasks/status", taskHandler.UpdateStatus)),
	)
	mux.Handle("/tasks/verify",
		authMiddleware.RequireRole(managerRoles, middleware.Metrics("/tasks/verify", taskHandler.Verify)),
	)
	mux.Handle("/tasks/logs",
		authMiddleware.RequireRole(allRoles, middleware.Metrics("/tasks/logs", taskHandler.AddLog)),
	)

	mux.Handle("/routine-tasks",
		authMiddleware.RequireRole(allRoles, middleware.Metrics("/routine-tasks", routineHandler.RoutineTasks)),
	)
	mux.Handle("/routine-tasks/close-day",
		authMiddleware.RequireRole(allRoles, middleware.Metrics("/routine-tasks/close-day", routineHandler.CloseDay)),
	)

	mux.Handle("/admin/manage",
		authMiddleware.RequireRole(allRoles, middleware.Metrics("/admin/manage", adminHandler.Manage)),
	)

	allowedOrigins := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	server := middleware.CORSMiddleware(allowedOrigins)(mux)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, server); err != nil {
		log.Fatalf("Could not start server: %s\n", err)
	}
}
