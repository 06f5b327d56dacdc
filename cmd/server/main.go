package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/formkit"
	"github.com/lychee-technology/formkit/factory"
	"go.uber.org/zap"
)

// Server represents the HTTP server for the form engine
type Server struct {
	service   formkit.FormService
	validator formkit.SubmissionValidator
	transform formkit.FieldTransformer
	mux       *http.ServeMux
}

// NewServer creates a new Server instance
func NewServer(service formkit.FormService, validator formkit.SubmissionValidator, transform formkit.FieldTransformer) *Server {
	return &Server{
		service:   service,
		validator: validator,
		transform: transform,
		mux:       http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/api/v1/forms", s.formsHandler)
	s.mux.HandleFunc("/api/v1/forms/", s.formsHandler)
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	return http.ListenAndServe(":"+port, s.mux)
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	config := formkit.DefaultConfig()
	config.Database = formkit.DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		Database:        getEnv("DB_NAME", "formkit"),
		Username:        getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxConnections:  getEnvInt("DB_MAX_CONNECTIONS", 25),
		ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SECONDS", 3600)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvInt("DB_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,
		Timeout:         time.Duration(getEnvInt("DB_TIMEOUT_SECONDS", 30)) * time.Second,
		TableNames: formkit.TableNames{
			Forms:       getEnv("FORMS_TABLE", "forms"),
			Submissions: getEnv("SUBMISSIONS_TABLE", "form_submissions"),
		},
	}

	pool, err := createDatabasePoolFromConfig(config.Database)
	if err != nil {
		sugar.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	service, err := factory.NewFormServiceWithConfig(config, pool)
	if err != nil {
		sugar.Fatalf("failed to create form service: %v", err)
	}

	server := NewServer(service, factory.NewSubmissionValidator(config), factory.NewFieldTransformer())
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

// createDatabasePoolFromConfig creates a PostgreSQL connection pool from config
func createDatabasePoolFromConfig(config formkit.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
		config.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(config.MaxConnections)
	poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = config.ConnMaxIdleTime
	poolConfig.ConnConfig.ConnectTimeout = config.Timeout

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
