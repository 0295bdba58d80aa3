package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/satriahrh/jarvis/server/domain"
	"github.com/satriahrh/jarvis/server/domain/repositories"
	"github.com/satriahrh/jarvis/server/internal/metrics"
)

const (
	defaultQueueSize          = 64
	defaultTranscribeTimeout  = 30 * time.Second
	finalizationErrorEventTag = "finalize"
)

// Emitter delivers named events back to one client connection
type Emitter interface {
	Emit(event domain.EventName, payload interface{}) error
}

// TranscriptionConfig tunes the streaming pipeline
type TranscriptionConfig struct {
	// QueueSize bounds pending jobs per session; a full queue blocks the
	// caller of PushChunk/Stop (that connection's read loop only).
	QueueSize int
	// Timeout bounds one decode+transcribe cycle.
	Timeout time.Duration
	// CoalesceChunks folds chunks that are already queued back to back into
	// a single decode. The partial emitted still covers the full buffer.
	CoalesceChunks bool
}

// TranscriptionService runs the accumulate -> decode -> transcribe -> emit
// cycle for every session, each on its own sequential worker.
type TranscriptionService struct {
	store   repositories.SessionStore
	decoder repositories.AudioDecoder
	stt     repositories.SpeechToText
	metrics *metrics.Metrics
	logger  *zap.Logger

	queueSize int
	timeout   time.Duration
	coalesce  bool

	mu      sync.RWMutex
	workers map[string]*sessionWorker
}

type jobKind int

const (
	jobChunk jobKind = iota
	jobStop
)

type job struct {
	kind  jobKind
	chunk []byte
}

// sessionWorker serializes all operations of one session
type sessionWorker struct {
	id      string
	out     Emitter
	jobs    chan job
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	pending *job
}

// NewTranscriptionService creates the streaming pipeline
func NewTranscriptionService(
	store repositories.SessionStore,
	decoder repositories.AudioDecoder,
	stt repositories.SpeechToText,
	m *metrics.Metrics,
	config TranscriptionConfig,
	logger *zap.Logger,
) *TranscriptionService {
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTranscribeTimeout
	}

	return &TranscriptionService{
		store:     store,
		decoder:   decoder,
		stt:       stt,
		metrics:   m,
		logger:    logger,
		queueSize: queueSize,
		timeout:   timeout,
		coalesce:  config.CoalesceChunks,
		workers:   make(map[string]*sessionWorker),
	}
}

// Open registers a session and starts its worker
func (s *TranscriptionService) Open(sessionID string, out Emitter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.OnConnect(sessionID); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &sessionWorker{
		id:     sessionID,
		out:    out,
		jobs:   make(chan job, s.queueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.workers[sessionID] = w

	go s.run(w)

	s.metrics.SessionsOpened.Inc()
	s.metrics.ActiveSessions.Inc()

	s.logger.Info("Transcription session opened", zap.String("sessionID", sessionID))
	return nil
}

// PushChunk queues an audio chunk. Chunks for unknown sessions are dropped.
func (s *TranscriptionService) PushChunk(sessionID string, chunk []byte) {
	s.metrics.ChunksReceived.Inc()
	s.metrics.ChunkSize.Observe(float64(len(chunk)))

	if !s.enqueue(sessionID, job{kind: jobChunk, chunk: chunk}) {
		s.metrics.ChunksDropped.Inc()
		s.logger.Debug("Dropping audio chunk for unknown session",
			zap.String("sessionID", sessionID),
			zap.Int("size", len(chunk)))
	}
}

// Stop queues finalization of the current utterance
func (s *TranscriptionService) Stop(sessionID string) {
	if !s.enqueue(sessionID, job{kind: jobStop}) {
		s.logger.Warn("Stop signal for unknown session", zap.String("sessionID", sessionID))
	}
}

// Close tears a session down. Queued work is discarded; a decode already in
// flight finishes on its own and its result is dropped.
func (s *TranscriptionService) Close(sessionID string) {
	s.mu.Lock()
	w, ok := s.workers[sessionID]
	if ok {
		delete(s.workers, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	w.cancel()
	s.store.OnDisconnect(sessionID)

	s.metrics.SessionsClosed.Inc()
	s.metrics.ActiveSessions.Dec()

	s.logger.Info("Transcription session closed", zap.String("sessionID", sessionID))
}

// Shutdown closes every session and waits for idle workers to exit
func (s *TranscriptionService) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	workers := make([]*sessionWorker, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, w)
	}
	s.mu.RUnlock()

	for _, w := range workers {
		s.Close(w.id)
	}

	for _, w := range workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ActiveSessions returns the number of open sessions
func (s *TranscriptionService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workers)
}

func (s *TranscriptionService) enqueue(sessionID string, j job) bool {
	s.mu.RLock()
	w, ok := s.workers[sessionID]
	s.mu.RUnlock()

	if !ok {
		return false
	}

	select {
	case w.jobs <- j:
		return true
	case <-w.ctx.Done():
		return false
	}
}

func (s *TranscriptionService) run(w *sessionWorker) {
	defer close(w.done)

	for {
		j, ok := w.next()
		if !ok {
			return
		}

		switch j.kind {
		case jobChunk:
			s.handleChunk(w, j)
		case jobStop:
			s.handleStop(w)
		}
	}
}

// next returns the next job in arrival order, or false once the session is
// cancelled. Cancellation wins over queued jobs.
func (w *sessionWorker) next() (job, bool) {
	if w.ctx.Err() != nil {
		return job{}, false
	}

	if w.pending != nil {
		j := *w.pending
		w.pending = nil
		return j, true
	}

	select {
	case <-w.ctx.Done():
		return job{}, false
	case j := <-w.jobs:
		if w.ctx.Err() != nil {
			return job{}, false
		}
		return j, true
	}
}

// drainChunks collects chunk jobs already waiting in the queue. The first
// non-chunk job is kept aside so ordering is preserved.
func (w *sessionWorker) drainChunks() [][]byte {
	var chunks [][]byte
	for w.pending == nil {
		select {
		case j := <-w.jobs:
			if j.kind != jobChunk {
				w.pending = &j
				return chunks
			}
			chunks = append(chunks, j.chunk)
		default:
			return chunks
		}
	}
	return chunks
}

func (s *TranscriptionService) handleChunk(w *sessionWorker, j job) {
	if err := s.store.Append(w.id, j.chunk); err != nil {
		s.metrics.ChunksDropped.Inc()
		s.logger.Debug("Dropping audio chunk", zap.String("sessionID", w.id), zap.Error(err))
		return
	}

	if s.coalesce {
		for _, chunk := range w.drainChunks() {
			if err := s.store.Append(w.id, chunk); err != nil {
				s.metrics.ChunksDropped.Inc()
				return
			}
		}
	}

	snapshot, err := s.store.Snapshot(w.id)
	if err != nil {
		return
	}

	transcript, err := s.transcribe(snapshot, metrics.PhasePartial)
	if err != nil {
		s.logger.Debug("Partial transcription failed",
			zap.String("sessionID", w.id),
			zap.Int("bufferBytes", len(snapshot)),
			zap.Error(err))
		return
	}

	if w.ctx.Err() != nil {
		s.metrics.Transcriptions.WithLabelValues(metrics.PhasePartial, metrics.OutcomeDiscarded).Inc()
		return
	}

	s.emit(w, domain.EventPartialTranscript, domain.TranscriptMessage{Transcript: transcript})
	s.metrics.TranscriptsEmitted.WithLabelValues(metrics.PhasePartial).Inc()
}

func (s *TranscriptionService) handleStop(w *sessionWorker) {
	snapshot, err := s.store.Snapshot(w.id)
	if err != nil {
		return
	}

	if len(snapshot) == 0 {
		s.emit(w, domain.EventTranscriptReady, domain.TranscriptMessage{Transcript: ""})
		s.metrics.TranscriptsEmitted.WithLabelValues(metrics.PhaseFinal).Inc()
		return
	}

	s.logger.Info("Finalizing transcription",
		zap.String("sessionID", w.id),
		zap.Int("bufferBytes", len(snapshot)))

	transcript, err := s.transcribe(snapshot, metrics.PhaseFinal)

	if w.ctx.Err() != nil {
		s.metrics.Transcriptions.WithLabelValues(metrics.PhaseFinal, metrics.OutcomeDiscarded).Inc()
		return
	}

	if err != nil {
		s.logger.Error("Final transcription failed",
			zap.String("sessionID", w.id),
			zap.Error(err))
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("stage", finalizationErrorEventTag)
			scope.SetTag("session_id", w.id)
			sentry.CaptureException(err)
		})
		s.emit(w, domain.EventError, domain.ErrorMessage{Error: domain.FinalTranscriptionFailed})
	} else {
		s.logger.Info("Final transcript ready",
			zap.String("sessionID", w.id),
			zap.String("transcript", transcript))
		s.emit(w, domain.EventTranscriptReady, domain.TranscriptMessage{Transcript: transcript})
		s.metrics.TranscriptsEmitted.WithLabelValues(metrics.PhaseFinal).Inc()
	}

	if err := s.store.Reset(w.id); err != nil {
		s.logger.Debug("Reset after finalization skipped", zap.String("sessionID", w.id), zap.Error(err))
	}
}

// transcribe runs the full buffer through the decoder and the engine. It uses
// its own timeout rather than the session context: a decode is never
// interrupted mid-way.
func (s *TranscriptionService) transcribe(compressed []byte, phase string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		s.metrics.TranscriptionDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	}()

	samples, err := s.decoder.Decode(ctx, compressed)
	if err != nil {
		s.metrics.Transcriptions.WithLabelValues(phase, metrics.OutcomeDecodeError).Inc()
		var decodeErr *domain.DecodeError
		if !errors.As(err, &decodeErr) {
			err = &domain.DecodeError{Err: err}
		}
		return "", err
	}

	text, err := s.stt.Transcribe(ctx, samples)
	if err != nil {
		s.metrics.Transcriptions.WithLabelValues(phase, metrics.OutcomeEngineError).Inc()
		var transcriptionErr *domain.TranscriptionError
		if !errors.As(err, &transcriptionErr) {
			err = &domain.TranscriptionError{Engine: "unknown", Err: err}
		}
		return "", err
	}

	s.metrics.Transcriptions.WithLabelValues(phase, metrics.OutcomeSuccess).Inc()
	return text, nil
}

func (s *TranscriptionService) emit(w *sessionWorker, event domain.EventName, payload interface{}) {
	if err := w.out.Emit(event, payload); err != nil {
		s.logger.Debug("Failed to emit event",
			zap.String("sessionID", w.id),
			zap.String("event", string(event)),
			zap.Error(err))
	}
}
