package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type testComponent struct {
	name      string
	startErr  error
	stopErr   error
	events    *[]string
	startCall int
	stopCall  int
}

func (c *testComponent) Start(ctx context.Context) error {
	_ = ctx
	c.startCall++
	if c.events != nil {
		*c.events = append(*c.events, "start:"+c.name)
	}
	return c.startErr
}

func (c *testComponent) Stop(ctx context.Context) error {
	_ = ctx
	c.stopCall++
	if c.events != nil {
		*c.events = append(*c.events, "stop:"+c.name)
	}
	return c.stopErr
}

func TestRuntimeStartStopOrder(t *testing.T) {
	t.Parallel()

	events := make([]string, 0, 6)
	store := &testComponent{name: "store", events: &events}
	metrics := &testComponent{name: "metrics", events: &events}
	poller := &testComponent{name: "poller", events: &events}

	runtime := NewRuntime(store, metrics, poller)
	if err := runtime.Start(context.Background()); err != nil {
		t.Fatalf("start runtime: %v", err)
	}
	if err := runtime.Stop(context.Background()); err != nil {
		t.Fatalf("stop runtime: %v", err)
	}

	expected := []string{
		"start:store",
		"start:metrics",
		"start:poller",
		"stop:poller",
		"stop:metrics",
		"stop:store",
	}
	if !reflect.DeepEqual(events, expected) {
		t.Fatalf("unexpected order: got %v want %v", events, expected)
	}
}

func TestRuntimeStartFailureStopsStartedComponents(t *testing.T) {
	t.Parallel()

	events := make([]string, 0, 4)
	startErr := errors.New("boom")
	store := &testComponent{name: "store", events: &events}
	metrics := &testComponent{name: "metrics", events: &events, startErr: startErr}
	poller := &testComponent{name: "poller", events: &events}

	runtime := NewRuntime(store, metrics, poller)
	err := runtime.Start(context.Background())
	if err == nil {
		t.Fatalf("expected start error")
	}
	if !errors.Is(err, startErr) {
		t.Fatalf("unexpected start error: %v", err)
	}

	if store.stopCall != 1 {
		t.Fatalf("expected started component to be stopped once, got %d", store.stopCall)
	}
	if metrics.stopCall != 0 || poller.stopCall != 0 {
		t.Fatalf("unexpected stop calls: metrics=%d poller=%d", metrics.stopCall, poller.stopCall)
	}

	expectedPrefix := []string{"start:store", "start:metrics", "stop:store"}
	if len(events) < len(expectedPrefix) || !reflect.DeepEqual(events[:len(expectedPrefix)], expectedPrefix) {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestRuntimeStopsOnlyStartedComponentsOnce(t *testing.T) {
	t.Parallel()

	c1 := &testComponent{name: "one"}
	runtime := NewRuntime(c1)
	if err := runtime.Stop(context.Background()); err != nil {
		t.Fatalf("stop before start: %v", err)
	}
	if c1.stopCall != 0 {
		t.Fatalf("component must not be stopped before start")
	}

	if err := runtime.Start(context.Background()); err != nil {
		t.Fatalf("start runtime: %v", err)
	}
	_ = runtime.Stop(context.Background())
	_ = runtime.Stop(context.Background())
	if c1.stopCall != 1 {
		t.Fatalf("expected a single stop, got %d", c1.stopCall)
	}
}

func TestFuncsComponent(t *testing.T) {
	t.Parallel()

	stopErr := errors.New("stop failed")
	var started bool
	component := Funcs{
		Name:    "metrics",
		OnStart: func(ctx context.Context) error { started = true; return nil },
		OnStop:  func(ctx context.Context) error { return stopErr },
	}
	runtime := NewRuntime(component, Funcs{Name: "noop"})
	if err := runtime.Start(context.Background()); err != nil {
		t.Fatalf("start runtime: %v", err)
	}
	if !started {
		t.Fatalf("expected OnStart to run")
	}
	err := runtime.Stop(context.Background())
	if !errors.Is(err, stopErr) {
		t.Fatalf("expected stop error, got %v", err)
	}
	if err.Error() != "stop metrics: stop failed" {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}
