package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/target/veille-api/internal/observability/notify"
)

func TestServiceNotifyResearchFailure(t *testing.T) {
	ctx := context.Background()

	var (
		mu       sync.Mutex
		received []notify.ResearchFailurePayload
	)
	capture := notify.SinkFunc(func(_ context.Context, payload notify.ResearchFailurePayload) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, payload)
		return nil
	})
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{Name: "first", Sink: capture},
			{Name: "second", Sink: capture},
			{Name: "nil", Sink: nil},
		},
	})

	svc.NotifyResearchFailure(ctx, notify.ResearchFailurePayload{ResearchID: "123"})

	if len(received) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected severity to default to critical, got %s", received[0].Severity)
	}
	if received[0].OccurredAt.IsZero() {
		t.Fatal("expected occurred-at to be stamped")
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}

	var nilSvc *Service
	if nilSvc.Enabled() {
		t.Fatal("expected nil service to be disabled")
	}
	nilSvc.NotifyResearchFailure(context.Background(), notify.ResearchFailurePayload{})
}

func TestServiceLogsErrors(t *testing.T) {
	// Ensure we don't panic when sink returns an error.
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "fail",
				Sink: notify.SinkFunc(func(context.Context, notify.ResearchFailurePayload) error {
					return errors.New("boom")
				}),
			},
		},
	})

	svc.NotifyResearchFailure(context.Background(), notify.ResearchFailurePayload{ResearchID: "123"})
}

func TestServiceDeliversAfterCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sinkErr error
	svc := NewService(Options{
		Timeout: time.Second,
		Sinks: []SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(ctx context.Context, _ notify.ResearchFailurePayload) error {
					sinkErr = ctx.Err()
					if _, ok := ctx.Deadline(); !ok {
						t.Error("expected delivery context to carry the notifier timeout")
					}
					return nil
				}),
			},
		},
	})

	svc.NotifyResearchFailure(ctx, notify.ResearchFailurePayload{ResearchID: "123"})
	if sinkErr != nil {
		t.Fatalf("expected delivery context to survive caller cancel, got %v", sinkErr)
	}
}
