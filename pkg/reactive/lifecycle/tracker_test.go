package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/rxflow/internal/testutil"
	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/metrics"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		want     string
		terminal bool
	}{
		{Idle, "idle", false},
		{Emitting, "emitting", false},
		{Completed, "completed", true},
		{Failed, "failed", true},
		{Disposed, "disposed", true},
		{State(42), "unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			testutil.AssertEqual(t, tt.state.String(), tt.want)
			testutil.AssertEqual(t, tt.state.IsTerminal(), tt.terminal)
		})
	}
}

func TestTracker_CompleteOnce(t *testing.T) {
	tr := NewTracker(context.Background())
	testutil.AssertEqual(t, tr.State(), Idle)
	testutil.AssertEqual(t, tr.Start(), true)
	testutil.AssertEqual(t, tr.Start(), false)
	testutil.AssertEqual(t, tr.Active(), true)

	testutil.AssertEqual(t, tr.Complete(), true)
	testutil.AssertEqual(t, tr.Complete(), false)
	testutil.AssertEqual(t, tr.Fail(errors.New("late")), false)
	testutil.AssertEqual(t, tr.State(), Completed)
	testutil.AssertNoError(t, tr.Err())

	tr.Finish()
	testutil.WaitClosed(t, tr.Done())
	testutil.AssertEqual(t, tr.IsDisposed(), true)
	if tr.Context().Err() == nil {
		t.Error("context should be canceled after Finish")
	}
}

func TestTracker_FailKeepsFirstError(t *testing.T) {
	first := errors.New("first")
	tr := NewTracker(context.Background())
	tr.Start()

	testutil.AssertEqual(t, tr.Fail(first), true)
	testutil.AssertEqual(t, tr.Fail(errors.New("second")), false)
	testutil.AssertEqual(t, tr.Complete(), false)
	tr.Finish()

	if tr.Err() != first {
		t.Fatalf("Err() = %v, want identical first error", tr.Err())
	}
}

func TestTracker_ConcurrentTerminalSignals(t *testing.T) {
	tr := NewTracker(context.Background())
	tr.Start()

	var wins sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < 50; i++ {
		wins.Add(1)
		go func(i int) {
			defer wins.Done()
			var ok bool
			if i%2 == 0 {
				ok = tr.Complete()
			} else {
				ok = tr.Fail(errors.New("x"))
			}
			if ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}(i)
	}
	wins.Wait()

	testutil.AssertEqual(t, won, 1)
}

func TestTracker_Dispose(t *testing.T) {
	hookCalls := 0
	tr := NewTracker(context.Background(), WithOnDispose(func() { hookCalls++ }))
	tr.Start()

	tr.Dispose()
	tr.Dispose()

	testutil.AssertEqual(t, hookCalls, 1)
	testutil.AssertEqual(t, tr.State(), Disposed)
	testutil.AssertEqual(t, tr.Complete(), false)
	testutil.WaitClosed(t, tr.Done())
	testutil.AssertErrorIs(t, tr.Context().Err(), context.Canceled)
}

func TestTracker_DisposeAfterTerminalIsNoop(t *testing.T) {
	hookCalls := 0
	tr := NewTracker(context.Background(), WithOnDispose(func() { hookCalls++ }))
	tr.Start()
	tr.Complete()
	tr.Finish()

	tr.Dispose()

	testutil.AssertEqual(t, hookCalls, 0)
	testutil.AssertEqual(t, tr.State(), Completed)
}

func TestTracker_NilParent(t *testing.T) {
	//nolint:staticcheck // nil parent is tolerated
	tr := NewTracker(nil)
	if tr.Context() == nil {
		t.Fatal("context must not be nil")
	}
	if FromContext(tr.Context()) != tr {
		t.Fatal("FromContext should return the tracker")
	}
	if FromContext(context.Background()) != nil {
		t.Fatal("FromContext on a plain context should be nil")
	}
}

func TestTracker_Metrics(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	tr := NewTracker(context.Background(), WithName("numbers"), WithMetrics(reg))
	tr.Start()
	tr.RecordItem()
	tr.RecordItem()
	tr.RecordRecovery("resume_next", errors.New("boom"))
	tr.Fail(errors.New("boom"))
	tr.Finish()
	tr.Finish()

	testutil.AssertEqual(t, tr.Name(), "numbers")
	testutil.AssertEqual(t, promtest.ToFloat64(reg.Subscriptions.WithLabelValues("numbers")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.ActiveSubscriptions.WithLabelValues("numbers")), 0.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.ItemsEmitted.WithLabelValues("numbers")), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.Recoveries.WithLabelValues("numbers", "resume_next")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.Failures.WithLabelValues("numbers")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.Completions.WithLabelValues("numbers")), 0.0)
}

func TestTracker_UndeliverableLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	tr := NewTracker(context.Background(), WithName("orphan"), WithLogger(logger), WithMetrics(reg))
	tr.Start()
	tr.Unhandled(errors.New("nobody listening"))
	tr.Complete()
	tr.Dropped(errors.New("too late"))

	out := buf.String()
	if !strings.Contains(out, "nobody listening") || !strings.Contains(out, "too late") {
		t.Fatalf("log output missing errors: %s", out)
	}
	if !strings.Contains(out, "stream=orphan") {
		t.Fatalf("log output missing stream name: %s", out)
	}
	testutil.AssertEqual(t, promtest.ToFloat64(reg.UndeliverableErrors.WithLabelValues("orphan")), 2.0)
}

func TestTracker_DroppedIgnoresOwnCancellation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	tr := NewTracker(context.Background(), WithLogger(logger))
	tr.Start()
	tr.Complete()
	tr.Finish()
	tr.Dropped(tr.Context().Err())

	disposed := NewTracker(context.Background(), WithLogger(logger))
	disposed.Dispose()
	disposed.Dropped(errors.New("after dispose"))

	if buf.Len() != 0 {
		t.Fatalf("expected no log output, got %s", buf.String())
	}
}

func TestGuard(t *testing.T) {
	testutil.AssertNoError(t, Guard("noop", func() {}))

	err := Guard("onNext", func() { panic("kaboom") })
	var pe *rxerrors.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PanicError, got %T", err)
	}
	testutil.AssertEqual(t, pe.Op, "onNext")
	testutil.AssertEqual(t, err.Error(), "onNext panicked: kaboom")
	if len(pe.Stack) == 0 {
		t.Error("stack should be captured")
	}
}

func TestRecordRecovery_FromContext(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	tr := NewTracker(context.Background(), WithName("ctx"), WithMetrics(reg))

	RecordRecovery(tr.Context(), "return_item", errors.New("x"))
	RecordRecovery(context.Background(), "return_item", errors.New("x"))

	testutil.AssertEqual(t, promtest.ToFloat64(reg.Recoveries.WithLabelValues("ctx", "return_item")), 1.0)
}
