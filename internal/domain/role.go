// Package domain contains the core business entities and interfaces.
package domain

import "context"

// Identity is the external (Telegram) identifier bound to a role.
type Identity int64

// Role is one entry of the fixed role enumeration.
type Role struct {
	Key  string `json:"key" yaml:"key" validate:"required,alphanum"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

// RoleBinding is the persisted state of a role. A nil Identity means the role
// is unclaimed.
type RoleBinding struct {
	RoleKey     string    `json:"-"`
	DisplayName string    `json:"display_name"`
	Identity    *Identity `json:"identity"`
}

// Claimed reports whether the role is bound to an identity.
func (b RoleBinding) Claimed() bool {
	return b.Identity != nil
}

// RosterEntry is a claimed role as seen by the reminder trigger.
type RosterEntry struct {
	Identity    Identity `json:"identity"`
	DisplayName string   `json:"displayName"`
}

// Notifier is the port for outbound delivery of a text message to one
// identity.
type Notifier interface {
	Notify(ctx context.Context, to Identity, text string) error
}
