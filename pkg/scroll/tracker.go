package scroll

import "context"

// NavState is the transient state of the router's navigation.
type NavState string

const (
	StateIdle       NavState = "idle"
	StateLoading    NavState = "loading"
	StateSubmitting NavState = "submitting"
)

// Event is a navigation notification from the client.
type Event struct {
	State NavState `json:"state"`

	// Key is the location key of the entry the router is on (idle) or is
	// leaving (in flight).
	Key string `json:"key"`

	// ScrollTop is the container offset when the event fired.
	ScrollTop int `json:"scrollTop"`
}

// Tracker follows the navigation of one session.
// It is not safe for concurrent use; feed it from one goroutine.
type Tracker struct {
	m       *Manager
	session string
	current string
}

// NewTracker creates a tracker for a session.
func NewTracker(m *Manager, session string) *Tracker {
	return &Tracker{m: m, session: session}
}

// Current returns the location key the session last settled on.
func (t *Tracker) Current() string {
	return t.current
}

// Observe handles one navigation event. In-flight events record the offset
// of the location being left; idle events settle on ev.Key and restore its
// offset into c.
func (t *Tracker) Observe(ctx context.Context, ev Event, c Container) error {
	if ev.State != StateIdle {
		from := t.current
		if from == "" {
			from = ev.Key
		}
		return t.m.Record(ctx, t.session, from, ev.ScrollTop)
	}

	t.current = ev.Key
	if c == nil {
		return nil
	}
	_, err := t.m.Restore(ctx, t.session, ev.Key, c)
	return err
}
