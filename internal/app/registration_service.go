package app

import (
	"context"

	"weightduel/internal/domain"
)

// RegistrationService handles role claims.
type RegistrationService struct {
	store RegistrationStore
}

// NewRegistrationService creates a new registration service.
func NewRegistrationService(store RegistrationStore) *RegistrationService {
	return &RegistrationService{store: store}
}

// Register binds id to roleKey and returns the role's display name.
func (s *RegistrationService) Register(ctx context.Context, roleKey string, id domain.Identity) (string, error) {
	return s.store.Claim(ctx, roleKey, id)
}

// Whoami returns the binding held by id.
func (s *RegistrationService) Whoami(id domain.Identity) (domain.RoleBinding, bool) {
	key, ok := s.store.RoleOf(id)
	if !ok {
		return domain.RoleBinding{}, false
	}
	for _, b := range s.store.Roles() {
		if b.RoleKey == key {
			return b, true
		}
	}
	return domain.RoleBinding{RoleKey: key}, true
}

// Roles returns every configured role with its binding.
func (s *RegistrationService) Roles() []domain.RoleBinding {
	return s.store.Roles()
}

// Open returns the roles nobody has claimed yet.
func (s *RegistrationService) Open() []domain.RoleBinding {
	var out []domain.RoleBinding
	for _, b := range s.store.Roles() {
		if !b.Claimed() {
			out = append(out, b)
		}
	}
	return out
}

// Roster returns every claimed role.
func (s *RegistrationService) Roster() map[string]domain.RosterEntry {
	return s.store.Roster()
}
