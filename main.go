package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"platform/internal/auth"
	"platform/internal/config"
	"platform/internal/database"
	"platform/internal/handlers"
	"platform/internal/middleware"
	"platform/internal/models"
	"platform/internal/repository"
	"platform/internal/service"
)

func main() {
	cfg := config.Load()

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(cfg.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureAccountIndexes(db); err != nil {
		log.Printf("⚠️ account index warning: %v", err)
	}
	if err := database.EnsureSessionIndexes(db); err != nil {
		log.Printf("⚠️ session index warning: %v", err)
	}
	if err := database.EnsureLoginAttemptIndexes(db); err != nil {
		log.Printf("⚠️ login attempt index warning: %v", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		log.Fatal("JWT_SECRET must be set: ", err)
	}

	accountRepo := repository.NewMongoAccountRepository(db)
	sessionRepo := repository.NewMongoSessionRepository(db)
	attemptRepo := repository.NewMongoLoginAttemptRepository(db)

	sessions := service.NewSessionManager(sessionRepo)
	guard := service.NewLoginAttemptGuard(attemptRepo, cfg.LockoutMaxAttempts, cfg.LockoutWindow)
	accounts := service.NewAccountService(
		accountRepo,
		sessions,
		guard,
		tokens,
		cfg.AccessTokenTTL,
		cfg.SessionTTL,
		cfg.ResetTokenTTL,
	)

	reaper := service.NewSessionReaper(sessionRepo, cfg.SessionSweep)
	go reaper.Start(context.Background())

	// Token delivery is owned by the mail collaborator; until it is wired in
	// we only log that a token was produced, never the token itself.
	deliver := func(email, token string) {
		log.Println("[MAIL] [INFO] token issued for delivery to:", email)
	}

	r := gin.Default()

	r.POST("/auth/signup", handlers.Signup(accounts))
	r.POST("/auth/login", handlers.Login(accounts))
	r.POST("/auth/password-reset", handlers.RequestPasswordReset(accounts, deliver))
	r.POST("/auth/password-reset/confirm", handlers.ConfirmPasswordReset(accounts))

	authed := r.Group("/")
	authed.Use(middleware.SessionAuth(tokens, sessions))
	{
		authed.POST("/auth/logout", handlers.Logout(accounts))
		authed.GET("/auth/me", handlers.GetMe(accounts))
		authed.POST("/auth/verify-email/request", handlers.RequestEmailVerification(accounts, deliver))
		authed.POST("/auth/verify-email", handlers.VerifyEmail(accounts))

		account := authed.Group("/account")
		{
			account.GET("/addresses", handlers.GetAddresses(accounts))
			account.POST("/addresses", handlers.CreateAddress(accounts))
			account.PUT("/addresses/:id", handlers.UpdateAddress(accounts))
			account.DELETE("/addresses/:id", handlers.DeleteAddress(accounts))
			account.GET("/addresses/default", handlers.GetDefaultAddress(accounts))
		}

		admin := authed.Group("/admin/api")
		admin.Use(middleware.RequireRole(string(models.RoleAdmin)))
		{
			admin.GET("/login-attempts", handlers.ListLoginAttempts(attemptRepo))
		}
	}

	r.Run(":" + cfg.Port)
}
