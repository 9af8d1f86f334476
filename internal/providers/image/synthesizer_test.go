package image

import (
	"context"
	"errors"
	"testing"
	"time"

	"kompis/server/internal/providers/getimg"
	"kompis/server/internal/providers/novita"
)

type stubPrimary struct {
	creds bool
	asset *getimg.ImageAsset
	err   error
	calls int
}

func (s *stubPrimary) GenerateImage(ctx context.Context, prompt string) (*getimg.ImageAsset, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.asset, nil
}

func (s *stubPrimary) HasCredentials() bool { return s.creds }
func (s *stubPrimary) Model() string        { return "primary-model" }

type stubFallback struct {
	creds       bool
	taskID      string
	submitErr   error
	statuses    []pollResult
	pollCalls   int
	downloaded  string
	imageData   []byte
	downloadErr error
}

type pollResult struct {
	status *novita.JobStatus
	err    error
}

func (s *stubFallback) SubmitJob(ctx context.Context, prompt string) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return s.taskID, nil
}

func (s *stubFallback) PollJob(ctx context.Context, taskID string) (*novita.JobStatus, error) {
	idx := s.pollCalls
	s.pollCalls++
	if idx >= len(s.statuses) {
		return &novita.JobStatus{Status: novita.JobQueued}, nil
	}
	return s.statuses[idx].status, s.statuses[idx].err
}

func (s *stubFallback) Download(ctx context.Context, imageURL string) ([]byte, string, error) {
	s.downloaded = imageURL
	if s.downloadErr != nil {
		return nil, "", s.downloadErr
	}
	return s.imageData, "image/jpeg", nil
}

func (s *stubFallback) HasCredentials() bool { return s.creds }
func (s *stubFallback) Model() string        { return "fallback-model" }

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestGeneratePrimarySuccess(t *testing.T) {
	primary := &stubPrimary{creds: true, asset: &getimg.ImageAsset{Data: []byte{0x01}, Format: "image/jpeg"}}
	fallback := &stubFallback{creds: true, taskID: "task-1"}
	s := NewSynthesizer(SynthesizerOptions{Primary: primary, Fallback: fallback, Sleep: noSleep})

	asset, err := s.Generate(context.Background(), "a portrait")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if asset.Model != "primary-model" {
		t.Fatalf("model = %q, want primary-model", asset.Model)
	}
	if fallback.pollCalls != 0 {
		t.Fatalf("fallback polled %d times, want 0", fallback.pollCalls)
	}
}

func TestGenerateFallbackAfterPrimaryFailure(t *testing.T) {
	primary := &stubPrimary{creds: true, err: errors.New("quota exceeded")}
	fallback := &stubFallback{
		creds:  true,
		taskID: "task-2",
		statuses: []pollResult{
			{status: &novita.JobStatus{Status: novita.JobQueued}},
			{status: &novita.JobStatus{Status: novita.JobProcessing}},
			{status: &novita.JobStatus{Status: novita.JobSucceeded, ResultURL: "https://cdn.example.com/out.jpg"}},
		},
		imageData: []byte{0xff, 0xd8},
	}
	s := NewSynthesizer(SynthesizerOptions{Primary: primary, Fallback: fallback, MaxAttempts: 10, Sleep: noSleep})

	asset, err := s.Generate(context.Background(), "a portrait")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if asset.Model != "fallback-model" {
		t.Fatalf("model = %q, want fallback-model", asset.Model)
	}
	if asset.URL != "https://cdn.example.com/out.jpg" {
		t.Fatalf("url = %q", asset.URL)
	}
	if fallback.downloaded != asset.URL {
		t.Fatalf("downloaded = %q, want %q", fallback.downloaded, asset.URL)
	}
	if fallback.pollCalls != 3 {
		t.Fatalf("poll calls = %d, want 3", fallback.pollCalls)
	}
}

func TestGeneratePrimaryWithoutCredentialsGoesToFallback(t *testing.T) {
	primary := &stubPrimary{creds: false}
	fallback := &stubFallback{
		creds:     true,
		taskID:    "task-3",
		statuses:  []pollResult{{status: &novita.JobStatus{Status: novita.JobSucceeded, ResultURL: "https://cdn.example.com/a.jpg"}}},
		imageData: []byte{0x01},
	}
	s := NewSynthesizer(SynthesizerOptions{Primary: primary, Fallback: fallback, Sleep: noSleep})

	if _, err := s.Generate(context.Background(), "x"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if primary.calls != 0 {
		t.Fatalf("primary called %d times, want 0", primary.calls)
	}
}

func TestGenerateNoFallbackCredentials(t *testing.T) {
	primary := &stubPrimary{creds: true, err: errors.New("down")}
	fallback := &stubFallback{creds: false}
	s := NewSynthesizer(SynthesizerOptions{Primary: primary, Fallback: fallback, Sleep: noSleep})

	_, err := s.Generate(context.Background(), "x")
	if !errors.Is(err, ErrProvidersUnavailable) {
		t.Fatalf("err = %v, want ErrProvidersUnavailable", err)
	}
}

func TestGenerateFallbackJobFailed(t *testing.T) {
	primary := &stubPrimary{creds: true, err: errors.New("down")}
	fallback := &stubFallback{
		creds:    true,
		taskID:   "task-4",
		statuses: []pollResult{{status: &novita.JobStatus{Status: novita.JobFailed, Reason: "content rejected"}}},
	}
	s := NewSynthesizer(SynthesizerOptions{Primary: primary, Fallback: fallback, Sleep: noSleep})

	_, err := s.Generate(context.Background(), "x")
	if !errors.Is(err, ErrJobFailed) {
		t.Fatalf("err = %v, want ErrJobFailed", err)
	}
}

func TestGeneratePollTimeoutAfterMaxAttempts(t *testing.T) {
	primary := &stubPrimary{creds: true, err: errors.New("down")}
	fallback := &stubFallback{creds: true, taskID: "task-5"}
	s := NewSynthesizer(SynthesizerOptions{Primary: primary, Fallback: fallback, MaxAttempts: 5, Sleep: noSleep})

	_, err := s.Generate(context.Background(), "x")
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("err = %v, want ErrPollTimeout", err)
	}
	if fallback.pollCalls != 5 {
		t.Fatalf("poll calls = %d, want 5", fallback.pollCalls)
	}
}

func TestGenerateSurvivesTransientPollError(t *testing.T) {
	primary := &stubPrimary{creds: true, err: errors.New("down")}
	fallback := &stubFallback{
		creds:  true,
		taskID: "task-6",
		statuses: []pollResult{
			{err: errors.New("gateway timeout")},
			{status: &novita.JobStatus{Status: novita.JobSucceeded, ResultURL: "https://cdn.example.com/b.jpg"}},
		},
		imageData: []byte{0x02},
	}
	s := NewSynthesizer(SynthesizerOptions{Primary: primary, Fallback: fallback, MaxAttempts: 5, Sleep: noSleep})

	asset, err := s.Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(asset.Data) == 0 {
		t.Fatalf("expected downloaded data")
	}
}

func TestGenerateCancelledDuringPoll(t *testing.T) {
	primary := &stubPrimary{creds: true, err: errors.New("down")}
	fallback := &stubFallback{creds: true, taskID: "task-7"}
	s := NewSynthesizer(SynthesizerOptions{
		Primary:  primary,
		Fallback: fallback,
		Sleep: func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		},
	})

	_, err := s.Generate(context.Background(), "x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if fallback.pollCalls != 0 {
		t.Fatalf("poll calls = %d, want 0", fallback.pollCalls)
	}
}
