package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDocumentNotFound is returned by a persister when no document has been
// saved yet.
var ErrDocumentNotFound = errors.New("document not found")

// Document is the root persisted aggregate.
type Document struct {
	Roles          map[string]RoleBinding `json:"roles"`
	Entries        []WeightEntry          `json:"entries"`
	ChallengeStart Day                    `json:"challenge_start"`
	NextEntryID    int64                  `json:"next_entry_id"`
}

// NewDocument returns a document with every role unclaimed.
func NewDocument(roles []Role, start Day) *Document {
	d := &Document{
		Roles:          make(map[string]RoleBinding, len(roles)),
		Entries:        []WeightEntry{},
		ChallengeStart: start,
		NextEntryID:    1,
	}
	for _, r := range roles {
		d.Roles[r.Key] = RoleBinding{RoleKey: r.Key, DisplayName: r.Name}
	}
	return d
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{
		Roles:          make(map[string]RoleBinding, len(d.Roles)),
		Entries:        make([]WeightEntry, len(d.Entries)),
		ChallengeStart: d.ChallengeStart,
		NextEntryID:    d.NextEntryID,
	}
	for k, b := range d.Roles {
		if b.Identity != nil {
			id := *b.Identity
			b.Identity = &id
		}
		c.Roles[k] = b
	}
	copy(c.Entries, d.Entries)
	return c
}

// Normalize fills derived fields after decoding: role keys, configured roles
// missing from the document, and ids for entries written before ids existed.
// It reports whether anything changed.
func (d *Document) Normalize(roles []Role) bool {
	changed := false
	if d.Roles == nil {
		d.Roles = make(map[string]RoleBinding, len(roles))
	}
	if d.Entries == nil {
		d.Entries = []WeightEntry{}
	}
	for k, b := range d.Roles {
		b.RoleKey = k
		d.Roles[k] = b
	}
	for _, r := range roles {
		if _, ok := d.Roles[r.Key]; !ok {
			d.Roles[r.Key] = RoleBinding{RoleKey: r.Key, DisplayName: r.Name}
			changed = true
		}
	}

	var maxID int64
	for _, e := range d.Entries {
		maxID = max(maxID, e.ID)
	}
	for i := range d.Entries {
		if d.Entries[i].ID == 0 {
			maxID++
			d.Entries[i].ID = maxID
			changed = true
		}
	}
	if d.NextEntryID <= maxID {
		d.NextEntryID = maxID + 1
		changed = true
	}
	return changed
}

// DocumentPersister is the port for loading and atomically saving the
// document.
type DocumentPersister interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// legacyDocument is the layout written by the first version of the bot.
type legacyDocument struct {
	Users map[string]struct {
		TelegramID *Identity `json:"telegram_id"`
		Name       string    `json:"name"`
	} `json:"users"`
	Weights []struct {
		UserKey string  `json:"user_key"`
		Date    Day     `json:"date"`
		Weight  float64 `json:"weight"`
	} `json:"weights"`
	StartDate Day `json:"start_date"`
}

// DecodeDocument parses a stored document, upgrading the legacy layout when
// the current one is absent. Unknown fields are ignored.
func DecodeDocument(data []byte) (*Document, error) {
	var probe struct {
		Roles json.RawMessage `json:"roles"`
		Users json.RawMessage `json:"users"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	if probe.Roles == nil && probe.Users != nil {
		var legacy legacyDocument
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("decode legacy document: %w", err)
		}
		d := &Document{
			Roles:          make(map[string]RoleBinding, len(legacy.Users)),
			Entries:        make([]WeightEntry, 0, len(legacy.Weights)),
			ChallengeStart: legacy.StartDate,
		}
		for k, u := range legacy.Users {
			d.Roles[k] = RoleBinding{RoleKey: k, DisplayName: u.Name, Identity: u.TelegramID}
		}
		for _, w := range legacy.Weights {
			d.Entries = append(d.Entries, WeightEntry{RoleKey: w.UserKey, Day: w.Date, Value: w.Weight})
		}
		return d, nil
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &d, nil
}

// EncodeDocument serializes d in the current layout.
func EncodeDocument(d *Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
