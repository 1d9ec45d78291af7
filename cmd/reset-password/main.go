package main

import (
	"flag"

	"bill-mart/internal/config"
	"bill-mart/internal/repository"
	"bill-mart/pkg/database"
	"bill-mart/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log := logger.Get()

	// 1. Load config
	cfg, envLoaded := config.Load()
	if !envLoaded {
		log.Warn(".env file not found, relying on system env")
	}

	email := flag.String("email", cfg.AdminEmail, "account to reset")
	password := flag.String("password", cfg.AdminPassword, "new password")
	flag.Parse()

	if len(*password) < 6 {
		log.Fatal("Password must be at least 6 characters")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect database")
	}
	userRepo := repository.NewUserRepo(db)

	// 3. Find user
	user, err := userRepo.FindByEmail(*email)
	if err != nil {
		log.WithError(err).WithField("email", *email).Fatal("User not found in database")
	}

	// 4. Hash new password
	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Fatal("Failed to hash password")
	}

	// 5. Update and sign out every session
	if err := userRepo.SetCredentials(user.ID, string(hashed), uuid.New().String()); err != nil {
		log.WithError(err).Fatal("Failed to update password in DB")
	}

	log.WithFields(logrus.Fields{"email": *email}).Info("Password has been reset")
}
