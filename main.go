package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"digital-menu/api"
	"digital-menu/bot"
	"digital-menu/config"
	"digital-menu/db"
	"digital-menu/logger"
	"digital-menu/notify"
	"digital-menu/services"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrate(cfg, log)
			return
		case "create-admin":
			runCreateAdmin(cfg, log, os.Args[2:])
			return
		}
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Init(cfg.DB); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer db.Close()

	if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
		if err := applyMigrations(ctx, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	if err := db.InitCache(ctx, cfg.Redis); err != nil {
		log.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		db.Cache = nil
	}

	catalog := services.NewCatalogService(db.Cache, cfg.Redis.TTL, log)
	events := services.NewAuthEvents()
	unsubscribe := events.Subscribe(catalog.OnAuthChange)
	defer unsubscribe()

	auth := &services.AuthService{Events: events, SessionTTL: cfg.Server.SessionTTL, Log: log}

	store, uploadsDir, uploadsPath := objectStore(cfg.Storage)
	admin := &services.AdminService{
		Catalog: catalog,
		Images:  services.NewImageUploader(store),
		Log:     log,
	}

	sinks, closeSinks := orderSinks(cfg, log)
	defer closeSinks()

	orders := &services.OrderService{
		Menu:     catalog,
		Carts:    services.PGCartStore{},
		Sinks:    sinks,
		Currency: cfg.Menu.Currency,
		Rooms:    cfg.Menu.Rooms,
		Log:      log,
	}
	if cfg.WhatsApp.Number != "" {
		orders.Link = func(text string) string { return notify.WhatsAppLink(cfg.WhatsApp.Number, text) }
	} else {
		log.Warn("WHATSAPP_NUMBER not set, orders will not get a WhatsApp link")
	}

	if cfg.Telegram.Token != "" {
		adminBot, err := bot.NewAdminBot(cfg.Telegram.Token, cfg.Telegram.Login, admin, log)
		if err != nil {
			return fmt.Errorf("admin bot: %w", err)
		}
		go adminBot.Start(ctx)
		log.Info("admin bot started")
	}

	h := &api.Handler{
		Catalog:     catalog,
		Carts:       services.PGCartStore{},
		Orders:      orders,
		Auth:        auth,
		Admin:       admin,
		Rooms:       cfg.Menu.Rooms,
		Currency:    cfg.Menu.Currency,
		Log:         log,
		UploadsDir:  uploadsDir,
		UploadsPath: uploadsPath,
	}
	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr), zap.String("env", cfg.Server.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	orders.Wait()
	return nil
}

func objectStore(cfg config.StorageConfig) (store services.ObjectStore, dir, publicPath string) {
	if cfg.Driver == "supabase" {
		return services.NewSupabaseStore(cfg.URL, cfg.ServiceKey, cfg.Bucket), "", ""
	}
	return &services.LocalStore{Dir: cfg.LocalDir, PublicBase: cfg.PublicBase}, cfg.LocalDir, cfg.PublicBase
}

// orderSinks assembles the configured order destinations. The message log is
// always on; the others need their env vars.
func orderSinks(cfg *config.Config, log *zap.Logger) ([]services.OrderSink, func()) {
	sinks := []services.OrderSink{services.MessageLogSink{}}
	closers := []func(){}

	if cfg.Webhook.URL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Timeout))
	}
	if cfg.Telegram.StaffToken != "" && cfg.Telegram.StaffChatID != 0 {
		staff, err := bot.NewStaffNotifier(cfg.Telegram.StaffToken, cfg.Telegram.StaffChatID, cfg.Menu.Currency)
		if err != nil {
			log.Warn("staff notifier disabled", zap.Error(err))
		} else {
			sinks = append(sinks, staff)
		}
	}
	if cfg.AMQP.URL != "" {
		pub, err := notify.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warn("amqp publisher disabled", zap.Error(err))
		} else {
			sinks = append(sinks, pub)
			closers = append(closers, func() { _ = pub.Close() })
		}
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	log.Info("order sinks", zap.Strings("sinks", names))

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

func runMigrate(cfg *config.Config, log *zap.Logger) {
	if err := db.Init(cfg.DB); err != nil {
		log.Fatal("db", zap.Error(err))
	}
	defer db.Close()

	if err := applyMigrations(context.Background(), log); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
}

// runCreateAdmin registers an admin with a generated password and prints it once.
func runCreateAdmin(cfg *config.Config, log *zap.Logger, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: create-admin <email>")
		os.Exit(2)
	}
	if err := db.Init(cfg.DB); err != nil {
		log.Fatal("db", zap.Error(err))
	}
	defer db.Close()

	password, err := services.GeneratePassword(services.AdminPasswordLen)
	if err != nil {
		log.Fatal("generate password", zap.Error(err))
	}
	auth := &services.AuthService{Events: services.NewAuthEvents(), SessionTTL: cfg.Server.SessionTTL, Log: log}
	admin, err := auth.SignUp(context.Background(), args[0], password)
	if err != nil {
		log.Fatal("create admin", zap.Error(err))
	}
	fmt.Printf("admin %s created\npassword: %s\n", admin.Email, password)
}
