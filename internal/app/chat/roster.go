/*
Package chat contains the core presence and broadcast state machine of the relay.

This file defines the Roster, the authoritative mapping from connection
identity to user profile. It is the single source of truth for who is online;
a connection that has not sent its join event is not a member.
*/
package chat

import (
	"sync"

	"github.com/samber/lo"

	"chatrelay/internal/app/user"
	"chatrelay/internal/pkg/errs"
)

// Roster is the ordered collection of joined users, insertion order = join
// order. Lookup is O(1) via the identity index; removal splices the order
// slice, which is linear and fine for a single room's roster size.
//
// All mutations are applied by the Hub run loop; the mutex is a defensive
// guard for direct readers such as tests and diagnostics.
type Roster struct {
	mu    sync.RWMutex
	byID  map[string]*user.User
	order []*user.User
}

// NewRoster creates an empty Roster.
func NewRoster() *Roster {
	return &Roster{
		byID: make(map[string]*user.User),
	}
}

// Add inserts a new user for the given connection identity. It fails with an
// ErrDuplicateIdentity error if the identity is already present; with one
// roster entry per live connection this should be unreachable, but it is
// checked rather than silently overwriting state.
func (r *Roster) Add(id, name, avatarRef string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; ok {
		return user.User{}, errs.NewError(errs.ErrDuplicateIdentity, id)
	}

	u := &user.User{
		ID:     id,
		Name:   name,
		Avatar: avatarRef,
	}

	r.byID[id] = u
	r.order = append(r.order, u)

	return *u, nil
}

// Remove deletes the user with the given identity and reports whether one
// existed. Removing an absent identity is a legal no-op: disconnect-before-join
// and double-disconnect both land here.
func (r *Roster) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false
	}

	delete(r.byID, id)

	for i, u := range r.order {
		if u.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return true
}

// Rename changes the display name of the user with the given identity in
// place and reports whether the target existed. Unknown targets are a no-op.
func (r *Roster) Rename(id, newName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return false
	}

	u.Name = newName
	return true
}

// Contains reports whether the given identity is a roster member.
func (r *Roster) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byID[id]
	return ok
}

// Len returns the current number of roster members.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Snapshot returns a copy of the membership in join order, used as the users
// broadcast payload after any membership or name change.
func (r *Roster) Snapshot() []user.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(u *user.User, _ int) user.User {
		return *u
	})
}
