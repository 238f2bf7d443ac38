package store

import "maps"

// Roles reported by State.Role.
const (
	// RoleVisitor is the role of a session without an authenticated user.
	RoleVisitor = "visitor"

	// RoleUser is the role of a signed-in user whose record carries none.
	RoleUser = "user"
)

// Company is the account a user belongs to.
type Company struct {
	ID             string `json:"_id,omitempty"`
	Name           string `json:"name,omitempty"`
	SubscriptionID string `json:"stripeSubscriptionId,omitempty"`
}

// Subscribed reports whether the company has an active subscription reference.
func (c *Company) Subscribed() bool {
	return c != nil && c.SubscriptionID != ""
}

// User is the signed-in user.
type User struct {
	ID      string   `json:"_id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Email   string   `json:"email,omitempty"`
	Role    string   `json:"type,omitempty"`
	Company *Company `json:"company,omitempty"`
}

// State is a snapshot of the application state.
// Values reachable through pointers are treated as immutable once committed.
type State struct {
	User         *User          `json:"user"`
	Message      string         `json:"message,omitempty"`
	APIAvailable bool           `json:"apiAvailable"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Role returns the user's role: RoleVisitor when nobody is signed in,
// RoleUser when the user has no role of their own.
func (s State) Role() string {
	switch {
	case s.User == nil:
		return RoleVisitor
	case s.User.Role == "":
		return RoleUser
	}
	return s.User.Role
}

// Company returns the signed-in user's company, if any.
func (s State) Company() *Company {
	if s.User == nil {
		return nil
	}
	return s.User.Company
}

// clone copies the top-level Extra map so callers can't mutate committed state.
func (s State) clone() State {
	if s.Extra != nil {
		s.Extra = maps.Clone(s.Extra)
	}
	return s
}

// Opt is an optional field of a Patch.
type Opt[T any] struct {
	Value T
	Set   bool
}

// Some returns a set optional value.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Set: true}
}

// Patch is a partial state update. Unset fields keep their previous value.
// Extra keys are merged key by key.
type Patch struct {
	User         Opt[*User]
	Message      Opt[string]
	APIAvailable Opt[bool]
	Extra        map[string]any
}

// MergeFunc combines the previous state with a patch.
// It is the beforeStoreUpdate hook of the store.
type MergeFunc func(prev State, p Patch) State

// Merge is the default MergeFunc: a shallow merge of the set fields.
func Merge(prev State, p Patch) State {
	next := prev.clone()
	if p.User.Set {
		next.User = p.User.Value
	}
	if p.Message.Set {
		next.Message = p.Message.Value
	}
	if p.APIAvailable.Set {
		next.APIAvailable = p.APIAvailable.Value
	}
	if len(p.Extra) > 0 {
		if next.Extra == nil {
			next.Extra = make(map[string]any, len(p.Extra))
		}
		maps.Copy(next.Extra, p.Extra)
	}
	return next
}
