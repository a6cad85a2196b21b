package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"Stardust/internal/notifier"
	"Stardust/internal/session"
)

// Sender delivers operator messages. Satisfied by *notifier.TelegramNotifier.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Specs are the cron expressions for each job (6-field, seconds first).
type Specs struct {
	Update   string
	Persist  string
	DayCheck string
	Midnight string
}

// Scheduler drives the session's time-based work.
type Scheduler struct {
	Cron    *cron.Cron
	Session *session.Manager
	Sender  Sender
	Ctx     context.Context
}

// NewScheduler creates a Scheduler running in UTC. Jobs that are still
// running when their next slot fires are skipped.
func NewScheduler(ctx context.Context, m *session.Manager, sender Sender) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		Session: m,
		Sender:  sender,
		Ctx:     ctx,
	}
}

// RegisterAll registers the update loop, periodic persist, day check and midnight jobs.
func (s *Scheduler) RegisterAll(specs Specs) error {
	if _, err := s.Cron.AddFunc(specs.Update, s.Session.Tick); err != nil {
		return fmt.Errorf("register update loop: %w", err)
	}
	if _, err := s.Cron.AddFunc(specs.Persist, s.Session.PersistPeriodic); err != nil {
		return fmt.Errorf("register periodic persist: %w", err)
	}
	if _, err := s.Cron.AddFunc(specs.DayCheck, s.dayCheck); err != nil {
		return fmt.Errorf("register day check: %w", err)
	}
	if _, err := s.Cron.AddFunc(specs.Midnight, s.midnightTask); err != nil {
		return fmt.Errorf("register midnight task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) dayCheck() {
	s.Session.CheckDayRollover()
}

// midnightTask catches the rollover exactly at 00:00 UTC and reports the day.
func (s *Scheduler) midnightTask() {
	log.Println("[INFO] running midnight task")
	s.Session.CheckDayRollover()

	if s.Sender == nil {
		return
	}
	rank, err := s.Session.Rank(s.Ctx)
	if err != nil {
		log.Printf("[WARN] midnight rank lookup: %v", err)
		rank = 0
	}
	s.trySend(notifier.FormatDailyDigest(s.Session.View(), rank))
}

func (s *Scheduler) trySend(text string) {
	if err := s.Sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
