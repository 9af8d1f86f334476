package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"kompis/server/internal/providers/getimg"
	"kompis/server/internal/providers/novita"
)

// State identifies a step of the synthesis state machine.
type State string

const (
	StateTryPrimary  State = "TRY_PRIMARY"
	StateTryFallback State = "TRY_FALLBACK"
	StatePolling     State = "POLLING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

var (
	// ErrProvidersUnavailable means the primary failed and no fallback
	// credentials exist; nothing further can be tried.
	ErrProvidersUnavailable = errors.New("image: both providers unavailable")
	// ErrJobFailed means the fallback job reached a FAILED terminal status.
	ErrJobFailed = errors.New("image: fallback job failed")
	// ErrPollTimeout means the attempt budget ran out before a terminal status.
	ErrPollTimeout = errors.New("image: fallback job timed out")
)

type primaryClient interface {
	GenerateImage(ctx context.Context, prompt string) (*getimg.ImageAsset, error)
	HasCredentials() bool
	Model() string
}

type fallbackClient interface {
	SubmitJob(ctx context.Context, prompt string) (string, error)
	PollJob(ctx context.Context, taskID string) (*novita.JobStatus, error)
	Download(ctx context.Context, imageURL string) ([]byte, string, error)
	HasCredentials() bool
	Model() string
}

// SynthesizerOptions wires the two providers and the polling budget.
type SynthesizerOptions struct {
	Primary      primaryClient
	Fallback     fallbackClient
	PollInterval time.Duration
	MaxAttempts  int
	Logger       *zerolog.Logger
	// Sleep is injectable for tests; nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Synthesizer runs the TRY_PRIMARY -> TRY_FALLBACK -> POLLING -> {DONE|FAILED}
// state machine: one synchronous attempt against the primary provider, then
// one async job against the fallback with bounded fixed-interval polling.
// There is deliberately no backoff, no jitter and no retry of the primary.
type Synthesizer struct {
	primary      primaryClient
	fallback     fallbackClient
	pollInterval time.Duration
	maxAttempts  int
	logger       zerolog.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewSynthesizer(opts SynthesizerOptions) *Synthesizer {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 30
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepWithContext
	}
	return &Synthesizer{
		primary:      opts.Primary,
		fallback:     opts.Fallback,
		pollInterval: interval,
		maxAttempts:  attempts,
		logger:       logger,
		sleep:        sleep,
	}
}

// Generate fulfils the Generator contract. On success the returned asset
// carries the bytes and the model that produced them; every failure path maps
// to one of the exported sentinel errors or a wrapped provider error.
func (s *Synthesizer) Generate(ctx context.Context, prompt string) (*Asset, error) {
	state := StateTryPrimary
	var taskID string
	var primaryErr error

	for {
		switch state {
		case StateTryPrimary:
			if s.primary == nil || !s.primary.HasCredentials() {
				primaryErr = getimg.ErrMissingAPIKey
				state = StateTryFallback
				continue
			}
			asset, err := s.primary.GenerateImage(ctx, prompt)
			if err != nil {
				s.logger.Warn().Err(err).Msg("primary provider failed, trying fallback")
				primaryErr = err
				state = StateTryFallback
				continue
			}
			return &Asset{Data: asset.Data, Format: asset.Format, Model: s.primary.Model()}, nil

		case StateTryFallback:
			if s.fallback == nil || !s.fallback.HasCredentials() {
				s.logger.Error().AnErr("primary_error", primaryErr).Msg("no fallback credentials")
				return nil, ErrProvidersUnavailable
			}
			id, err := s.fallback.SubmitJob(ctx, prompt)
			if err != nil {
				return nil, fmt.Errorf("image: submit fallback job: %w", err)
			}
			taskID = id
			state = StatePolling

		case StatePolling:
			asset, err := s.poll(ctx, taskID)
			if err != nil {
				return nil, err
			}
			return asset, nil
		}
	}
}

func (s *Synthesizer) poll(ctx context.Context, taskID string) (*Asset, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return nil, err
		}
		status, err := s.fallback.PollJob(ctx, taskID)
		if err != nil {
			s.logger.Warn().Err(err).Str("task_id", taskID).Int("attempt", attempt).Msg("poll attempt failed")
			continue
		}
		switch status.Status {
		case novita.JobSucceeded:
			if status.ResultURL == "" {
				return nil, fmt.Errorf("%w: succeeded without result url", ErrJobFailed)
			}
			data, format, err := s.fallback.Download(ctx, status.ResultURL)
			if err != nil {
				return nil, fmt.Errorf("image: download fallback result: %w", err)
			}
			return &Asset{Data: data, URL: status.ResultURL, Format: format, Model: s.fallback.Model()}, nil
		case novita.JobFailed:
			if status.Reason != "" {
				return nil, fmt.Errorf("%w: %s", ErrJobFailed, status.Reason)
			}
			return nil, ErrJobFailed
		default:
			// QUEUED or PROCESSING, keep polling.
		}
	}
	return nil, ErrPollTimeout
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Generator = (*Synthesizer)(nil)
