package store

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Store is the single entry point to all entity and index state. Every
// exported operation is atomic with respect to every other: the aggregate is
// guarded by one reader/writer lock, not one lock per table, because a visit
// mutation touches three sub-structures and a per-table scheme would let a
// reader observe a visit present in the table but missing from a bucket.
type Store struct {
	config Config

	mu     sync.RWMutex
	failed atomic.Bool

	users     map[uint32]User
	locations map[uint32]Location
	visits    map[uint32]Visit
	index     *visitIndex
}

// New creates an empty Store.
func New(config Config) *Store {
	config.validate()
	return &Store{
		config:    config,
		users:     make(map[uint32]User),
		locations: make(map[uint32]Location),
		visits:    make(map[uint32]Visit),
		index:     newVisitIndex(),
	}
}

// mutate runs fn under the exclusive lock. A panic inside fn means the
// aggregate may be half-written, so the store marks itself failed and every
// later operation returns ErrStoreFailed. This is the unrecoverable-process
// condition, not a per-request error.
func (s *Store) mutate(fn func() error) (err error) {
	if s.failed.Load() {
		return ErrStoreFailed
	}
	s.mu.Lock()
	defer func() {
		if r := recover(); r != nil {
			s.failed.Store(true)
			s.config.Logger.Error("mutation panicked, store marked failed", "panic", r)
			err = ErrStoreFailed
		}
		s.mu.Unlock()
	}()
	return fn()
}

// read runs fn under the shared lock.
func (s *Store) read(fn func() error) error {
	if s.failed.Load() {
		return ErrStoreFailed
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// inconsistent logs and surfaces an index/table divergence. Callers must
// treat this as a server-side fault: the add/remove index calls have fallen
// out of sync, which is a store bug.
func (s *Store) inconsistent(detail string, args ...any) error {
	s.config.Logger.Error("store inconsistency: "+detail, args...)
	return fmt.Errorf("%w: %s", ErrInconsistent, detail)
}

// AddUser inserts a new user. Duplicate ids are rejected, never overwritten.
func (s *Store) AddUser(u User) error {
	return s.mutate(func() error {
		if _, ok := s.users[u.ID]; ok {
			return ErrAlreadyExists
		}
		if err := validateUser(u); err != nil {
			return err
		}
		s.users[u.ID] = u
		return nil
	})
}

// GetUser returns a copy of the user with the given id.
func (s *Store) GetUser(id uint32) (User, error) {
	var u User
	err := s.read(func() error {
		var ok bool
		if u, ok = s.users[id]; !ok {
			return ErrNotFound
		}
		return nil
	})
	return u, err
}

// UpdateUser applies a patch to an existing user. The resulting full entity
// is re-validated before the commit; an invalid result changes nothing.
func (s *Store) UpdateUser(id uint32, patch UserPatch) error {
	return s.mutate(func() error {
		current, ok := s.users[id]
		if !ok {
			return ErrNotFound
		}
		updated := patch.applyTo(current)
		if err := validateUser(updated); err != nil {
			return err
		}
		s.users[id] = updated
		return nil
	})
}

// AddLocation inserts a new location.
func (s *Store) AddLocation(l Location) error {
	return s.mutate(func() error {
		if _, ok := s.locations[l.ID]; ok {
			return ErrAlreadyExists
		}
		if err := validateLocation(l); err != nil {
			return err
		}
		s.locations[l.ID] = l
		return nil
	})
}

// GetLocation returns a copy of the location with the given id.
func (s *Store) GetLocation(id uint32) (Location, error) {
	var l Location
	err := s.read(func() error {
		var ok bool
		if l, ok = s.locations[id]; !ok {
			return ErrNotFound
		}
		return nil
	})
	return l, err
}

// UpdateLocation applies a patch to an existing location.
func (s *Store) UpdateLocation(id uint32, patch LocationPatch) error {
	return s.mutate(func() error {
		current, ok := s.locations[id]
		if !ok {
			return ErrNotFound
		}
		updated := patch.applyTo(current)
		if err := validateLocation(updated); err != nil {
			return err
		}
		s.locations[id] = updated
		return nil
	})
}

// AddVisit inserts a new visit. Field validation runs first, then both
// foreign keys; only if every check passed are the visit table and both
// indices written, as one critical section.
func (s *Store) AddVisit(v Visit) error {
	return s.mutate(func() error {
		if _, ok := s.visits[v.ID]; ok {
			return ErrAlreadyExists
		}
		if err := validateVisit(v); err != nil {
			return err
		}
		if err := s.resolveForeignKeys(v); err != nil {
			return err
		}
		s.visits[v.ID] = v
		s.index.addToUser(v.UserID, v.ID, v.VisitedAt)
		s.index.addToLocation(v.LocationID, v.ID)
		return nil
	})
}

// GetVisit returns a copy of the visit with the given id.
func (s *Store) GetVisit(id uint32) (Visit, error) {
	var v Visit
	err := s.read(func() error {
		var ok bool
		if v, ok = s.visits[id]; !ok {
			return ErrNotFound
		}
		return nil
	})
	return v, err
}

// UpdateVisit applies a patch to an existing visit. The would-be visit is
// validated and its (possibly changed) foreign keys resolved before anything
// is committed; a failure leaves the visit and both indices untouched. On
// commit, the affected index sides are removed and reinserted so bucket
// membership and user-bucket ordering stay correct.
func (s *Store) UpdateVisit(id uint32, patch VisitPatch) error {
	return s.mutate(func() error {
		current, ok := s.visits[id]
		if !ok {
			return ErrNotFound
		}
		updated := patch.applyTo(current)
		if err := validateVisit(updated); err != nil {
			return err
		}
		if err := s.resolveForeignKeys(updated); err != nil {
			return err
		}

		s.visits[id] = updated

		// A changed user moves the entry to another bucket; a changed
		// visit time moves it within the same bucket. Either way the old
		// entry comes out and a fresh one goes in at the right position.
		if updated.UserID != current.UserID ||
			updated.VisitedAt != current.VisitedAt ||
			updated.LocationID != current.LocationID {
			if !s.index.removeFromUser(current.UserID, id) {
				return s.inconsistent("visit missing from user bucket",
					"visit", id, "user", current.UserID)
			}
			s.index.addToUser(updated.UserID, id, updated.VisitedAt)
		}
		if updated.LocationID != current.LocationID {
			if !s.index.removeFromLocation(current.LocationID, id) {
				return s.inconsistent("visit missing from location bucket",
					"visit", id, "location", current.LocationID)
			}
			s.index.addToLocation(updated.LocationID, id)
		}
		return nil
	})
}

// resolveForeignKeys confirms both of a visit's references exist. A dangling
// reference is a validation failure on the referencing field, rejected
// before any table or index mutation.
func (s *Store) resolveForeignKeys(v Visit) error {
	if _, ok := s.users[v.UserID]; !ok {
		return &ValidationError{
			Field:  "user",
			Reason: fmt.Sprintf("user %d does not exist", v.UserID),
		}
	}
	if _, ok := s.locations[v.LocationID]; !ok {
		return &ValidationError{
			Field:  "location",
			Reason: fmt.Sprintf("location %d does not exist", v.LocationID),
		}
	}
	return nil
}
