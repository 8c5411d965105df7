package main

import (
	"context"
	"os"

	"insurecow/internal/config"
	"insurecow/internal/repositories"
	"insurecow/internal/services/account"
	"insurecow/internal/services/session"
	"insurecow/internal/utils"
	"insurecow/internal/validation"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	adminMobile := os.Getenv("ADMIN_MOBILE")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminMobile == "" || adminPassword == "" {
		log.Fatal("ADMIN_MOBILE and ADMIN_PASSWORD must be set in environment")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	v := validation.New()
	v.Mobile("ADMIN_MOBILE", adminMobile)
	v.Password("ADMIN_PASSWORD", adminPassword)
	if err := v.Err(); err != nil {
		log.Fatal(err)
	}

	db, err := repositories.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("database initialisation failed")
	}
	defer repositories.Close(db)

	ctx := context.Background()
	repos := repositories.New(db, nil)

	if err := repos.SeedRoles(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed roles")
	}
	if err := repos.SeedOTPLimits(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed OTP limits")
	}

	exists, err := repos.Credentials.ExistsByMobile(ctx, adminMobile)
	if err != nil {
		log.WithError(err).Fatal("failed to look up admin")
	}
	if exists {
		log.Info("admin user already exists")
		return
	}

	hasher := utils.NewPasswordHasher(cfg.BcryptCost)
	sessions := session.NewService(repos, hasher, session.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	provisioner := account.NewProvisioner(hasher, sessions)

	err = repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		_, err := provisioner.Provision(ctx, tx, account.Input{
			Mobile:      adminMobile,
			Password:    adminPassword,
			IsStaff:     true,
			IsSuperuser: true,
		})
		return err
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create admin user")
	}

	log.Info("admin account created successfully")
}
