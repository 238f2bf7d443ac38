package scroll

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeContainer reaches the requested offset only after settleAfter calls.
type fakeContainer struct {
	top         int
	want        int
	calls       int
	settleAfter int
	scrollErr   error
}

func (c *fakeContainer) ScrollTo(_ context.Context, top int) error {
	if c.scrollErr != nil {
		return c.scrollErr
	}
	c.calls++
	c.want = top
	if c.calls >= c.settleAfter {
		c.top = top
	}
	return nil
}

func (c *fakeContainer) ScrollTop(context.Context) (int, error) {
	return c.top, nil
}

func newTestManager(opts ...Option) *Manager {
	return NewManager(NewMemoryStorage(16), append([]Option{WithInterval(time.Millisecond)}, opts...)...)
}

func TestManagerRecordAndOffset(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	if err := m.Record(ctx, "s", "abc", 137); err != nil {
		t.Fatal(err)
	}
	if top, _ := m.Offset(ctx, "s", "abc"); top != 137 {
		t.Errorf("Offset(abc) = %d, want 137", top)
	}
	if top, _ := m.Offset(ctx, "s", "unknown"); top != 0 {
		t.Errorf("Offset(unknown) = %d, want 0", top)
	}

	// Empty keys are ignored.
	if err := m.Record(ctx, "s", "", 5); err != nil {
		t.Fatal(err)
	}
}

func TestManagerRestoreRetries(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	m.Record(ctx, "s", "abc", 137)

	c := &fakeContainer{settleAfter: 5}
	ok, err := m.Restore(ctx, "s", "abc", c)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Restore should succeed once the container settles")
	}
	if c.calls != 5 {
		t.Errorf("ScrollTo calls = %d, want 5", c.calls)
	}
	if c.top != 137 {
		t.Errorf("container top = %d, want 137", c.top)
	}
}

func TestManagerRestoreGivesUpSilently(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(WithAttempts(3))
	m.Record(ctx, "s", "abc", 137)

	c := &fakeContainer{settleAfter: 1000}
	ok, err := m.Restore(ctx, "s", "abc", c)
	if err != nil {
		t.Fatalf("Restore() error = %v, want nil", err)
	}
	if ok {
		t.Error("Restore should report failure")
	}
	if c.calls != 3 {
		t.Errorf("ScrollTo calls = %d, want 3", c.calls)
	}
}

func TestManagerRestoreUnknownKeyIsNoop(t *testing.T) {
	c := &fakeContainer{settleAfter: 1}
	ok, err := newTestManager().Restore(context.Background(), "s", "nope", c)
	if err != nil || !ok {
		t.Errorf("Restore() = %v, %v", ok, err)
	}
	if c.calls != 0 {
		t.Errorf("ScrollTo calls = %d, want 0", c.calls)
	}
}

func TestManagerRestoreContainerError(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	m.Record(ctx, "s", "abc", 10)

	boom := errors.New("boom")
	_, err := m.Restore(ctx, "s", "abc", &fakeContainer{scrollErr: boom})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestManagerRestoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(NewMemoryStorage(4), WithInterval(time.Hour))
	m.Record(ctx, "s", "abc", 10)
	cancel()

	_, err := m.Restore(ctx, "s", "abc", &fakeContainer{settleAfter: 1000})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTrackerRecordsPreviousLocation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	tr := NewTracker(m, "s")

	c := &fakeContainer{settleAfter: 1}

	// Land on "a", scroll, navigate to "b".
	tr.Observe(ctx, Event{State: StateIdle, Key: "a"}, c)
	tr.Observe(ctx, Event{State: StateLoading, Key: "a", ScrollTop: 137}, c)
	tr.Observe(ctx, Event{State: StateIdle, Key: "b"}, c)
	if tr.Current() != "b" {
		t.Errorf("Current() = %q, want b", tr.Current())
	}
	if top, _ := m.Offset(ctx, "s", "a"); top != 137 {
		t.Errorf("Offset(a) = %d, want 137", top)
	}

	// Back to "a" restores 137.
	tr.Observe(ctx, Event{State: StateLoading, Key: "b", ScrollTop: 0}, c)
	if err := tr.Observe(ctx, Event{State: StateIdle, Key: "a"}, c); err != nil {
		t.Fatal(err)
	}
	if c.top != 137 {
		t.Errorf("container top = %d, want 137", c.top)
	}
}
