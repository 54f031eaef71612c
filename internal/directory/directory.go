package directory

import (
	"strings"
	"sync"

	"github.com/skillswap/backend/internal/models"
)

// Directory is the catalog of identities that can take part in friendships.
type Directory struct {
	mu       sync.RWMutex
	order    []string
	profiles map[string]models.Profile
}

// New builds a directory seeded with the provided profiles. Later entries
// with a repeated id replace earlier ones.
func New(seed ...models.Profile) *Directory {
	d := &Directory{profiles: make(map[string]models.Profile, len(seed))}
	for _, p := range seed {
		d.Upsert(p)
	}
	return d
}

// Exists reports whether id is a known participant.
func (d *Directory) Exists(id string) bool {
	if id == "" {
		return false
	}
	d.mu.RLock()
	_, ok := d.profiles[id]
	d.mu.RUnlock()
	return ok
}

// Get returns the profile registered under id.
func (d *Directory) Get(id string) (models.Profile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[id]
	if !ok {
		return models.Profile{}, false
	}
	return clone(p), true
}

// ListIDs returns every id in registration order.
func (d *Directory) ListIDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.order...)
}

// List returns every profile in registration order.
func (d *Directory) List() []models.Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Profile, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, clone(d.profiles[id]))
	}
	return out
}

// Upsert registers or replaces a profile. Profiles without an id are ignored.
func (d *Directory) Upsert(p models.Profile) {
	if p.ID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.profiles[p.ID]; !ok {
		d.order = append(d.order, p.ID)
	}
	d.profiles[p.ID] = clone(p)
}

// Len reports the number of registered profiles.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

// ProfileFromUser derives the directory entry for a registered account.
func ProfileFromUser(u models.User) models.Profile {
	name := strings.TrimSpace(u.FullName)
	if name == "" {
		name = u.Email
	}
	return models.Profile{
		ID:          u.ID,
		Name:        name,
		Role:        models.RoleMember,
		Description: u.Bio,
		Tags:        append([]string(nil), u.Skills...),
	}
}

func clone(p models.Profile) models.Profile {
	p.Tags = append([]string(nil), p.Tags...)
	return p
}
