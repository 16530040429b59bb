package demand

import (
	"strings"
	"sync"

	"demandhook/internal/config"
)

// Directory maps responsible-party names to remote user IDs. Names are
// case-insensitive; order is kept so that text detection is deterministic.
type Directory struct {
	mu      sync.RWMutex
	parties []config.Party
}

// NewDirectory builds a directory. Blank entries are skipped and the first
// occurrence of a name wins.
func NewDirectory(parties []config.Party) *Directory {
	d := &Directory{}
	for _, p := range parties {
		name := normalizeName(p.Name)
		id := strings.TrimSpace(p.ID)
		if name == "" || id == "" || d.index(name) >= 0 {
			continue
		}
		d.parties = append(d.parties, config.Party{Name: name, ID: id})
	}
	return d
}

// Lookup returns the ID registered under name.
func (d *Directory) Lookup(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := d.index(normalizeName(name)); i >= 0 {
		return d.parties[i].ID, true
	}
	return "", false
}

// Detect returns the first party, in directory order, whose name occurs in
// text as a case-insensitive substring.
func (d *Directory) Detect(text string) (config.Party, bool) {
	lower := strings.ToLower(text)
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.parties {
		if strings.Contains(lower, p.Name) {
			return p, true
		}
	}
	return config.Party{}, false
}

// Set registers or replaces the ID for name.
func (d *Directory) Set(name, id string) {
	name = normalizeName(name)
	id = strings.TrimSpace(id)
	if name == "" || id == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.index(name); i >= 0 {
		d.parties[i].ID = id
		return
	}
	d.parties = append(d.parties, config.Party{Name: name, ID: id})
}

// Parties returns a copy of the entries in order.
func (d *Directory) Parties() []config.Party {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]config.Party, len(d.parties))
	copy(out, d.parties)
	return out
}

// Map returns the entries keyed by name.
func (d *Directory) Map() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.parties))
	for _, p := range d.parties {
		out[p.Name] = p.ID
	}
	return out
}

// Len returns the number of registered parties.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.parties)
}

// index must be called with mu held.
func (d *Directory) index(name string) int {
	for i, p := range d.parties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
