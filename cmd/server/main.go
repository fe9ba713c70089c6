package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/auth"
	"github.com/yeojw/kampung/internal/config"
	"github.com/yeojw/kampung/internal/database"
	"github.com/yeojw/kampung/internal/geocode"
	"github.com/yeojw/kampung/internal/handler"
	"github.com/yeojw/kampung/internal/queue"
	"github.com/yeojw/kampung/internal/registration"
	"github.com/yeojw/kampung/internal/repository"
	"github.com/yeojw/kampung/internal/router"
	"github.com/yeojw/kampung/internal/session"
	"github.com/yeojw/kampung/internal/social"
	"github.com/yeojw/kampung/internal/upload"
)

// defaultHobbies seeds the catalogue on first boot.
var defaultHobbies = []string{
	"Gardening", "Cooking", "Photography", "Cycling", "Jogging",
	"Board Games", "Mahjong", "Karaoke", "Calligraphy", "Tai Chi",
	"Bird Watching", "Reading",
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb, err := config.NewRedisClient()
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	uploads, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("uploads: %v", err)
	}

	users := repository.NewUserRepo(db)
	follows := repository.NewFollowRepo(db)
	notifications := repository.NewNotificationRepo(db)
	messages := repository.NewMessageRepo(db)
	tokens := repository.NewResetTokenRepo(db)
	hobbies := repository.NewHobbyRepo(db)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := hobbies.Seed(seedCtx, defaultHobbies); err != nil {
		log.Printf("hobby seed: %v", err)
	}
	cancelSeed()

	sessions := session.NewManager(
		session.NewStore(session.RedisKV{Client: rdb}, cfg.SessionTTL),
		users, notifications)
	wizard := registration.NewWizard(users, cfg.BcryptCost)
	authorizer := social.NewAuthorizer(follows)
	mail := queue.NewPublisher(cfg.AMQPURL)
	reset := auth.NewResetService(users, tokens, mail, cfg.BcryptCost)
	geo := geocode.NewClient()
	if cfg.GeocodeBaseURL != "" {
		geo.BaseURL = cfg.GeocodeBaseURL
	}

	// The mail consumer runs in-process alongside the API; deployments
	// that want a dedicated worker run cmd/mailer instead.
	go func() {
		if err := queue.StartMailConsumer(cfg.AMQPURL); err != nil {
			log.Printf("mail consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, sessions),
		Register: handler.NewRegisterHandler(cfg, wizard, sessions),
		Password: handler.NewPasswordHandler(cfg, reset, users),
		Profile: &handler.ProfileHandler{
			Cfg:        cfg,
			Users:      users,
			Follows:    follows,
			Hobbies:    hobbies,
			Tokens:     tokens,
			Authorizer: authorizer,
			Sessions:   sessions,
			Uploads:    uploads,
		},
		Social:        handler.NewSocialHandler(users, follows),
		Notifications: handler.NewNotificationHandler(notifications),
		Messages:      handler.NewMessageHandler(users, messages, authorizer),
		Search:        handler.NewSearchHandler(users, follows, authorizer),
		Geocode:       handler.NewGeocodeHandler(geo),
	}, cfg, rlCfg, sessions, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
