// Package store owns the challenge document: role bindings, the weight entry
// log and the challenge start date. Every mutation runs as a serialized
// transaction over a copy of the document and is installed only after the
// copy has been persisted.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"weightduel/internal/domain"
)

// Recorder receives one observation per store operation.
type Recorder interface {
	RecordStoreOp(op, result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordStoreOp(string, string) {}

// Store is the single source of truth for the challenge.
type Store struct {
	mu        sync.RWMutex
	doc       *domain.Document
	persister domain.DocumentPersister
	roles     []domain.Role
	known     map[string]domain.Role

	now      func() time.Time
	loc      *time.Location
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, used for the challenge start date.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the time zone that defines "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// Open loads the document through p, creating it when absent. roles is the
// fixed role enumeration; claims on any other key fail with ErrUnknownRole.
func Open(ctx context.Context, p domain.DocumentPersister, roles []domain.Role, opts ...Option) (*Store, error) {
	if len(roles) == 0 {
		return nil, errors.New("store: at least one role is required")
	}
	s := &Store{
		persister: p,
		roles:     append([]domain.Role(nil), roles...),
		known:     make(map[string]domain.Role, len(roles)),
		now:       time.Now,
		loc:       time.Local,
		logger:    slog.Default(),
		recorder:  nopRecorder{},
	}
	for _, o := range opts {
		o(s)
	}
	for _, r := range roles {
		s.known[r.Key] = r
	}

	doc, err := p.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		doc = domain.NewDocument(roles, domain.DayOf(s.now(), s.loc))
		if err := p.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("%w: create document: %w", domain.ErrPersistence, err)
		}
		s.logger.Info("challenge document created", slog.String("challenge_start", doc.ChallengeStart.String()))
	case err != nil:
		return nil, fmt.Errorf("%w: load document: %w", domain.ErrPersistence, err)
	default:
		if doc.Normalize(roles) {
			if err := p.Save(ctx, doc); err != nil {
				return nil, fmt.Errorf("%w: upgrade document: %w", domain.ErrPersistence, err)
			}
			s.logger.Info("challenge document upgraded")
		}
		if doc.ChallengeStart == "" {
			return nil, fmt.Errorf("%w: document has no challenge_start", domain.ErrPersistence)
		}
	}
	s.doc = doc
	return s, nil
}

// update runs fn against a copy of the document under the write lock and
// installs the copy once it has been saved. On any error the current
// document is left untouched.
func (s *Store) update(ctx context.Context, op string, fn func(doc *domain.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(next); err != nil {
		s.recorder.RecordStoreOp(op, domain.KindOf(err).String())
		return err
	}
	if err := s.persister.Save(ctx, next); err != nil {
		s.recorder.RecordStoreOp(op, domain.KindPersistence.String())
		s.logger.Error("save document failed", slog.String("op", op), slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
	}
	s.doc = next
	s.recorder.RecordStoreOp(op, "ok")
	return nil
}

// IsClaimed reports whether id is bound to any role.
func (s *Store) IsClaimed(id domain.Identity) bool {
	_, ok := s.RoleOf(id)
	return ok
}

// RoleOf returns the role key bound to id.
func (s *Store) RoleOf(id domain.Identity) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return roleOf(s.doc, id)
}

func roleOf(doc *domain.Document, id domain.Identity) (string, bool) {
	for k, b := range doc.Roles {
		if b.Identity != nil && *b.Identity == id {
			return k, true
		}
	}
	return "", false
}

// Claim binds id to roleKey and returns the role's display name. Claiming
// the pair that is already bound succeeds again and refreshes the display
// name from the role enumeration.
func (s *Store) Claim(ctx context.Context, roleKey string, id domain.Identity) (string, error) {
	role, ok := s.known[roleKey]
	if !ok {
		s.recorder.RecordStoreOp("claim", domain.KindNotFound.String())
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownRole, roleKey)
	}

	err := s.update(ctx, "claim", func(doc *domain.Document) error {
		b := doc.Roles[roleKey]
		if b.Identity != nil && *b.Identity != id {
			return fmt.Errorf("%w: %s", domain.ErrRoleTaken, b.DisplayName)
		}
		if other, ok := roleOf(doc, id); ok && other != roleKey {
			return fmt.Errorf("%w: as %s", domain.ErrAlreadyRegistered, doc.Roles[other].DisplayName)
		}
		bound := id
		doc.Roles[roleKey] = domain.RoleBinding{RoleKey: roleKey, DisplayName: role.Name, Identity: &bound}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("role claimed", slog.String("role", roleKey), slog.Int64("identity", int64(id)))
	return role.Name, nil
}

// AddEntry appends a weight entry for roleKey on day.
func (s *Store) AddEntry(ctx context.Context, roleKey string, day domain.Day, value float64) (domain.WeightEntry, error) {
	if err := domain.ValidateWeight(value); err != nil {
		s.recorder.RecordStoreOp("add_entry", domain.KindValidation.String())
		return domain.WeightEntry{}, err
	}
	if _, err := domain.ParseDay(string(day)); err != nil {
		s.recorder.RecordStoreOp("add_entry", domain.KindValidation.String())
		return domain.WeightEntry{}, err
	}
	if _, ok := s.known[roleKey]; !ok {
		s.recorder.RecordStoreOp("add_entry", domain.KindNotFound.String())
		return domain.WeightEntry{}, fmt.Errorf("%w: %q", domain.ErrUnknownRole, roleKey)
	}

	var added domain.WeightEntry
	err := s.update(ctx, "add_entry", func(doc *domain.Document) error {
		for _, e := range doc.Entries {
			if e.RoleKey == roleKey && e.Day == day {
				return fmt.Errorf("%w: %s on %s", domain.ErrDuplicateForDay, roleKey, day)
			}
		}
		added = domain.WeightEntry{ID: doc.NextEntryID, RoleKey: roleKey, Day: day, Value: value}
		doc.NextEntryID++
		doc.Entries = append(doc.Entries, added)
		return nil
	})
	if err != nil {
		return domain.WeightEntry{}, err
	}
	return added, nil
}

// AllEntries returns a snapshot of the entry log; indices are positions.
func (s *Store) AllEntries() []domain.WeightEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WeightEntry, len(s.doc.Entries))
	copy(out, s.doc.Entries)
	return out
}

// LastEntries returns up to n entries of roleKey, latest day first, each
// paired with its position in the snapshot taken at call time.
func (s *Store) LastEntries(roleKey string, n int) []domain.PositionedEntry {
	if n <= 0 {
		return []domain.PositionedEntry{}
	}
	s.mu.RLock()
	var out []domain.PositionedEntry
	for i, e := range s.doc.Entries {
		if e.RoleKey == roleKey {
			out = append(out, domain.PositionedEntry{Position: i, Entry: e})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Entry.Day < out[j].Entry.Day
	})
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []domain.PositionedEntry{}
	}
	return out
}

// EntryForDay returns the entry of roleKey on day, if any.
func (s *Store) EntryForDay(roleKey string, day domain.Day) (domain.PositionedEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, e := range s.doc.Entries {
		if e.RoleKey == roleKey && e.Day == day {
			return domain.PositionedEntry{Position: i, Entry: e}, true
		}
	}
	return domain.PositionedEntry{}, false
}

// CorrectEntry sets the value of the entry at position, keeping its role and
// day.
func (s *Store) CorrectEntry(ctx context.Context, position int, value float64) error {
	if err := domain.ValidateWeight(value); err != nil {
		s.recorder.RecordStoreOp("correct_entry", domain.KindValidation.String())
		return err
	}
	return s.update(ctx, "correct_entry", func(doc *domain.Document) error {
		if position < 0 || position >= len(doc.Entries) {
			return fmt.Errorf("%w: position %d", domain.ErrPositionNotFound, position)
		}
		doc.Entries[position].Value = value
		return nil
	})
}

// CorrectEntryByID sets the value of the entry with the given stable id.
func (s *Store) CorrectEntryByID(ctx context.Context, id int64, value float64) (domain.WeightEntry, error) {
	if err := domain.ValidateWeight(value); err != nil {
		s.recorder.RecordStoreOp("correct_entry", domain.KindValidation.String())
		return domain.WeightEntry{}, err
	}
	var corrected domain.WeightEntry
	err := s.update(ctx, "correct_entry", func(doc *domain.Document) error {
		for i := range doc.Entries {
			if doc.Entries[i].ID == id {
				doc.Entries[i].Value = value
				corrected = doc.Entries[i]
				return nil
			}
		}
		return fmt.Errorf("%w: id %d", domain.ErrPositionNotFound, id)
	})
	return corrected, err
}

// Roster returns the identity and display name of every claimed role.
func (s *Store) Roster() map[string]domain.RosterEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.RosterEntry)
	for k, b := range s.doc.Roles {
		if b.Identity != nil {
			out[k] = domain.RosterEntry{Identity: *b.Identity, DisplayName: b.DisplayName}
		}
	}
	return out
}

// Roles returns the configured roles with their current bindings, in
// configuration order.
func (s *Store) Roles() []domain.RoleBinding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RoleBinding, 0, len(s.roles))
	for _, r := range s.roles {
		b := s.doc.Roles[r.Key]
		if b.Identity != nil {
			id := *b.Identity
			b.Identity = &id
		}
		out = append(out, b)
	}
	return out
}

// ChallengeStart returns the day the challenge began.
func (s *Store) ChallengeStart() domain.Day {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.ChallengeStart
}

// Location returns the time zone that defines "today".
func (s *Store) Location() *time.Location {
	return s.loc
}

// Today returns the current calendar day in the store's location.
func (s *Store) Today() domain.Day {
	return domain.DayOf(s.now(), s.loc)
}
