package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"raidbot/internal/bot"
	"raidbot/internal/clock"
	"raidbot/internal/config"
	apphttp "raidbot/internal/http"
	"raidbot/internal/notify"
	"raidbot/internal/profile"
	"raidbot/internal/repository/sqlite"
	"raidbot/internal/scheduler"
	"raidbot/internal/service"
	"raidbot/internal/transport"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	raidRepo := sqlite.NewRaidRepository(db)
	reminderRepo := sqlite.NewReminderRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := raidRepo.Init(ctx); err != nil {
		logger.Fatalf("init raid repository: %v", err)
	}
	if err := reminderRepo.Init(ctx); err != nil {
		logger.Fatalf("init reminder repository: %v", err)
	}

	clk := clock.System{}
	userService := service.NewUserService(userRepo)
	bonusService := service.NewBonusService(userRepo, clk)
	raidService := service.NewRaidService(raidRepo, clk)

	gateway := profile.NewGateway(profile.Config{
		BaseURL: cfg.Profile.APIURL,
		APIKey:  cfg.Profile.APIKey,
		Timeout: time.Duration(cfg.Profile.TimeoutSeconds) * time.Second,
		Logger:  logger,
	})

	var (
		api  *tgbotapi.BotAPI
		sink notify.Sink
	)
	token := strings.TrimSpace(cfg.Telegram.Token)
	if token != "" {
		api, err = tgbotapi.NewBotAPI(token)
		if err != nil {
			logger.Fatalf("connect telegram: %v", err)
		}
		sink = notify.NewTelegramSink(api)
	} else {
		logger.Info("no telegram token configured, running in offline mode")
		sink = &notify.LogSink{Logger: logger}
	}

	sched := scheduler.New(scheduler.Config{
		PollInterval: time.Duration(cfg.Reminder.PollIntervalSeconds) * time.Second,
		Thresholds:   cfg.Reminder.ThresholdMinutes,
		Clock:        clk,
		Logger:       logger,
	}, raidRepo, userRepo, reminderRepo, sink)

	if err := sched.Start(ctx); err != nil {
		logger.Fatalf("start scheduler: %v", err)
	}

	handler := bot.NewHandler(userService, bonusService, raidService, gateway, cfg.Telegram.OwnerID, cfg.Raid.DefaultSlots, logger)

	var adapter transport.Adapter
	if api != nil {
		adapter = transport.NewTelegram(api, handler, logger)
	} else {
		adapter = transport.NewConsole(handler, os.Stdin, os.Stdout, cfg.Telegram.OwnerID, logger)
	}

	go func() {
		if err := adapter.Run(ctx); err != nil {
			logger.Errorf("transport stopped: %v", err)
			stop()
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apiHandler := apphttp.NewHandler(
		raidService,
		cfg.Admin.Password,
		cfg.Admin.JWTSecret,
		time.Duration(cfg.Admin.TokenTTLMinutes)*time.Minute,
	)
	apiHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	sched.Shutdown()

	logger.Info("bye")
}
