package websocket

import (
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/jarvis/server/domain/repositories"
	"github.com/satriahrh/jarvis/server/internal/metrics"
)

const defaultStatsInterval = 15 * time.Second

// SessionStatsService periodically publishes session store gauges
type SessionStatsService struct {
	store    repositories.SessionStore
	metrics  *metrics.Metrics
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewSessionStatsService creates a new session stats service
func NewSessionStatsService(store repositories.SessionStore, m *metrics.Metrics, interval time.Duration, logger *zap.Logger) *SessionStatsService {
	if interval <= 0 {
		interval = defaultStatsInterval
	}
	return &SessionStatsService{
		store:    store,
		metrics:  m,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the background stats loop
func (s *SessionStatsService) Start() {
	go s.statsLoop()
	s.logger.Info("Session stats service started", zap.Duration("interval", s.interval))
}

// Stop gracefully stops the stats service
func (s *SessionStatsService) Stop() {
	close(s.stopChan)
	<-s.doneChan
	s.logger.Info("Session stats service stopped")
}

func (s *SessionStatsService) statsLoop() {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runStats()
		}
	}
}

// runStats samples the store once
func (s *SessionStatsService) runStats() repositories.StoreStats {
	stats := s.store.Stats()

	s.metrics.BufferedBytes.Set(float64(stats.BufferedBytes))

	if stats.Sessions > 0 {
		s.logger.Debug("Session stats",
			zap.Int("sessions", stats.Sessions),
			zap.Int("bufferedBytes", stats.BufferedBytes))
	}
	return stats
}
