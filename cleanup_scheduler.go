package main

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type CleanupScheduler struct {
	dbService     *DatabaseService
	retentionDays int
	logger        logrus.FieldLogger
	ticker        *time.Ticker
	stopChan      chan struct{}
	stopOnce      sync.Once
}

func NewCleanupScheduler(dbService *DatabaseService, config *Config, logger logrus.FieldLogger) *CleanupScheduler {
	return &CleanupScheduler{
		dbService:     dbService,
		retentionDays: config.LoginAttemptRetentionDays,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

// Start runs the first cleanup at the next local midnight, then every 24 hours.
func (cs *CleanupScheduler) Start() {
	cs.logger.Info("Starting cleanup scheduler - will run daily at midnight")

	now := time.Now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	firstRunTimer := time.NewTimer(nextMidnight.Sub(now))

	go func() {
		select {
		case <-firstRunTimer.C:
			cs.runCleanup()
		case <-cs.stopChan:
			firstRunTimer.Stop()
			return
		}

		cs.ticker = time.NewTicker(24 * time.Hour)
		defer cs.ticker.Stop()

		for {
			select {
			case <-cs.ticker.C:
				cs.runCleanup()
			case <-cs.stopChan:
				cs.logger.Info("Cleanup scheduler stopped")
				return
			}
		}
	}()
}

func (cs *CleanupScheduler) Stop() {
	cs.stopOnce.Do(func() {
		close(cs.stopChan)
	})
}

func (cs *CleanupScheduler) runCleanup() {
	deleted, err := cs.dbService.CleanupOldLoginAttempts(cs.retentionDays)
	if err != nil {
		cs.logger.WithError(err).Error("Error during login attempt cleanup")
		return
	}
	cs.logger.WithField("deleted", deleted).Info("Login attempt cleanup completed")
}

func (cs *CleanupScheduler) RunCleanupNow() {
	cs.runCleanup()
}
