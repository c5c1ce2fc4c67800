package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/medrec/medrec/internal/api"
	"github.com/medrec/medrec/internal/app"
	"github.com/medrec/medrec/internal/app/maintenance"
	iauth "github.com/medrec/medrec/internal/auth"
	"github.com/medrec/medrec/internal/database"
	"github.com/medrec/medrec/internal/gateway"
	"github.com/medrec/medrec/internal/services"
	"github.com/medrec/medrec/pkg/logger"
	"github.com/medrec/medrec/pkg/mail"
)

// runtimeStack bundles long-lived components used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime initialises the database, services, background jobs and
// the HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}
	stack.DB = db

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	authSvc, err := iauth.NewAuthService(db, jwtSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise auth service: %w", err)
	}

	tokens, err := services.NewTokenService(db,
		services.WithTokenExpiry(cfg.Auth.TokenTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise token service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(mail.SMTPSettings{
		Enabled:  cfg.Email.SMTP.Enabled,
		Host:     cfg.Email.SMTP.Host,
		Port:     cfg.Email.SMTP.Port,
		Username: cfg.Email.SMTP.Username,
		Password: cfg.Email.SMTP.Password,
		From:     cfg.Email.SMTP.From,
		Timeout:  cfg.Email.SMTP.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}

	registration, err := services.NewRegistrationService(db, tokens, mailer, cfg.Server.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("initialise registration service: %w", err)
	}

	appointments, err := services.NewAppointmentService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise appointment service: %w", err)
	}

	payments, err := gateway.NewRazorpayClient(cfg.Payment.KeyID, cfg.Payment.KeySecret)
	if err != nil {
		return nil, fmt.Errorf("initialise payment gateway: %w", err)
	}

	settlements, err := services.NewSettlementService(db, payments,
		services.WithCurrency(cfg.Payment.Currency),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise settlement service: %w", err)
	}

	directory, err := services.NewDirectoryService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise directory service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(tokens,
			maintenance.WithSchedule(cfg.Maintenance.CleanupSchedule),
			maintenance.WithRetention(cfg.Maintenance.TokenRetention),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(jwtSvc, cfg, api.Services{
		Auth:         authSvc,
		Registration: registration,
		Appointments: appointments,
		Settlements:  settlements,
		Directory:    directory,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	return stack, nil
}

// Shutdown stops background jobs and closes the database connection.
func (s *runtimeStack) Shutdown(log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
	}

	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("database close failed", zap.Error(err))
			}
		}
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db, database.SeedOptions{
		AdminName:     cfg.Auth.Bootstrap.FullName,
		AdminEmail:    cfg.Auth.Bootstrap.Email,
		AdminPassword: cfg.Auth.Bootstrap.Password,
	}); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected",
		zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = cfg.Database.Postgres.Password
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = cfg.Database.MySQL.Password
	}

	return dbCfg
}
