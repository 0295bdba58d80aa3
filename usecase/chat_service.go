package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/satriahrh/jarvis/server/domain"
	"github.com/satriahrh/jarvis/server/domain/repositories"
	"github.com/satriahrh/jarvis/server/internal/metrics"
)

const defaultReplyTimeout = 60 * time.Second

// ChatService relays a user query to the reply engine. It is stateless:
// every query is answered on its own, without conversation history.
type ChatService struct {
	llm     repositories.LargeLanguageModel
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration
}

// NewChatService creates a new chat service
func NewChatService(llm repositories.LargeLanguageModel, m *metrics.Metrics, timeout time.Duration, logger *zap.Logger) *ChatService {
	if timeout <= 0 {
		timeout = defaultReplyTimeout
	}
	return &ChatService{
		llm:     llm,
		metrics: m,
		logger:  logger,
		timeout: timeout,
	}
}

// Relay returns the engine's reply to query. A blank query yields
// domain.ErrEmptyQuery without calling the engine; engine failures come back
// as *domain.ReplyError.
func (s *ChatService) Relay(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		s.metrics.ChatRequests.WithLabelValues(metrics.ChatOutcomeEmpty).Inc()
		return "", domain.ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.llm.Generate(ctx, query)
	s.metrics.ChatDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.ChatRequests.WithLabelValues(metrics.ChatOutcomeEngineErr).Inc()
		s.logger.Error("Reply engine failed",
			zap.String("engine", s.llm.Name()),
			zap.Error(err))
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("stage", "reply")
			scope.SetTag("engine", s.llm.Name())
			sentry.CaptureException(err)
		})

		var replyErr *domain.ReplyError
		if errors.As(err, &replyErr) {
			return "", replyErr
		}
		return "", &domain.ReplyError{Engine: s.llm.Name(), Err: err}
	}

	s.metrics.ChatRequests.WithLabelValues(metrics.ChatOutcomeReply).Inc()
	s.logger.Info("Reply generated",
		zap.String("engine", s.llm.Name()),
		zap.Int("queryLength", len(query)),
		zap.Int("replyLength", len(reply)))

	return reply, nil
}
