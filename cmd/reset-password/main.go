package main

import (
	"flag"
	"log"
	"time"

	"hlg-fitness/internal/config"
	"hlg-fitness/internal/repository"
	"hlg-fitness/internal/service"
	"hlg-fitness/pkg/database"
	"hlg-fitness/pkg/jwt"
	"hlg-fitness/pkg/logger"

	"go.uber.org/zap"
)

// Usage: reset-password -login admin -password 'n3w-secret'
func main() {
	login := flag.String("login", "admin", "username or email of the account")
	password := flag.String("password", "", "new password (min 6 characters)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	zlog, err := logger.Init(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if *password == "" {
		zlog.Fatal("-password is required")
	}

	db, err := database.Connect(cfg.Database, cfg.App.Timezone)
	if err != nil {
		zlog.Fatal("database unavailable", zap.Error(err))
	}
	defer database.Close(db)

	authService := service.NewAuthService(
		repository.NewUserRepo(db),
		repository.NewRoleRepo(db),
		jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLHours)*time.Hour),
		nil,
	)

	// Existing sessions are revoked along with the old password.
	if err := authService.ResetPassword(*login, *password); err != nil {
		zlog.Fatal("password reset failed", zap.String("login", *login), zap.Error(err))
	}
	zlog.Info("password reset", zap.String("login", *login))
}
