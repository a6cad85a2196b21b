package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"Stardust/internal/ads"
	"Stardust/internal/api"
	"Stardust/internal/notifier"
	"Stardust/internal/push"
	"Stardust/internal/scheduler"
	"Stardust/internal/session"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game loop, HTTP API and admin bot",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	log.Println("[INFO] Stardust starting...")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, settings, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	journal := openJournal(cfg)
	defer journal.Close()

	catalogs := loadCatalogs(ctx, cfg, settings)
	log.Printf("[INFO] catalogs: %d upgrades, %d deals, %d tasks",
		len(catalogs.Upgrades), len(catalogs.Deals), len(catalogs.Tasks))

	gate := ads.NewGate()
	deps := session.Deps{
		Store:    st,
		Ads:      gate,
		Journal:  journal,
		Verifier: session.AssumeJoined{},
	}
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		deps.Verifier = tn
		deps.Announcer = tn
		sender = tn
	} else {
		log.Println("[WARN] no telegram bot token, channel membership is not verified")
	}

	sess, err := session.Open(ctx, deps, session.Options{
		PlayerID:        cfg.Player.ID,
		DisplayName:     cfg.Player.DisplayName,
		MaxEnergy:       cfg.Game.MaxEnergy,
		Catalogs:        catalogs,
		Rules:           cfg.Rules(),
		PersistDebounce: cfg.Game.PersistDebounce,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := sess.Close(closeCtx); err != nil {
			log.Printf("[ERROR] final save failed: %v", err)
		}
	}()
	if offline := sess.PendingOffline(); offline > 0 {
		log.Printf("[INFO] %.0f stardust of offline income waiting to be claimed", offline)
	}

	sched := scheduler.NewScheduler(ctx, sess, sender)
	if err := sched.RegisterAll(scheduler.Specs{
		Update:   cfg.Schedule.Update,
		Persist:  cfg.Schedule.Persist,
		DayCheck: cfg.Schedule.DayCheck,
		Midnight: cfg.Schedule.Midnight,
	}); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	hub := push.NewHub()
	defer hub.Close()
	if cfg.Push.URL != "" {
		sub := push.NewSubscriber(cfg.Push.URL, cfg.Player.ID)
		go sub.Run(ctx, sess.ApplyPush)
		log.Printf("[INFO] push subscriber started: %s", cfg.Push.URL)
	}

	if tn != nil && cfg.Telegram.Polling {
		commands := &notifier.Commands{Store: st, Session: sess, Broadcaster: hub}
		go tn.StartPolling(ctx, commands.Handle)
		log.Println("[INFO] Telegram polling started")
	}

	server := api.NewServer(sess)
	server.SetAdGate(gate)
	server.SetPushHandler(hub)
	if cfg.API.Metrics {
		server.EnableMetrics()
	}
	httpServer := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP API listening on %s", cfg.API.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Println("[INFO] Stardust is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case err := <-errCh:
		log.Printf("[ERROR] HTTP server failed: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] HTTP shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] Stardust stopped")
	return nil
}
