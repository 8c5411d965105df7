// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"insurecow/internal/config"
	"insurecow/internal/models"
	"insurecow/internal/repositories/cache"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AllModels lists every table managed by AutoMigrate, parents first.
var AllModels = []interface{}{
	&models.Role{},
	&models.Credential{},
	&models.PendingRegistration{},
	&models.OTPLimit{},
	&models.OTPRequestLog{},
	&models.OTPVerification{},
	&models.Session{},
	&models.PersonalInfo{},
	&models.FinancialInfo{},
	&models.NomineeInfo{},
	&models.OrganizationInfo{},
	&models.AuditLog{},
	&models.AssetType{},
	&models.Breed{},
	&models.Color{},
	&models.VaccinationStatus{},
	&models.DewormingStatus{},
	&models.Asset{},
	&models.InsuranceCompany{},
	&models.InsuranceCategory{},
	&models.InsuranceType{},
	&models.InsurancePeriod{},
	&models.InsuranceProduct{},
	&models.AssetInsurance{},
	&models.InsuranceClaim{},
}

// GormConfig returns the shared gorm configuration. The logger only reports
// warnings and errors and ignores "record not found".
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			log.StandardLogger(),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

// InitDB connects to postgres, configures the connection pool and migrates the schema.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.DBConnIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("postgres connected & migrations applied")
	return db, nil
}

// InitCache connects to redis. A failed ping is logged and yields a nil (no-op) cache.
func InitCache(ctx context.Context, cfg *config.Config) *cache.CacheService {
	client := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	svc := cache.NewCacheService(client, cfg.CredentialTTL)
	if err := svc.HealthCheck(ctx); err != nil {
		log.WithError(err).Warn("redis unavailable, credential cache disabled")
		_ = client.Close()
		return nil
	}
	return svc
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the underlying sql.DB.
func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Warn("failed to get database instance")
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("failed to close database connection")
	}
}

// IsUniqueViolation reports whether err is a unique-constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
