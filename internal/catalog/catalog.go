package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/netbridge/iptv-migrator/internal/models"
)

// adultMarker is the normalized substring identifying "without adult
// content" plan variants. Vendor naming is inconsistent enough that an
// exact match sometimes misses; when both the query and a candidate
// carry this marker the candidate is accepted as a last resort.
const adultMarker = "semadulto"

// Entry is one plan known to the catalog, keyed for lookup by its
// normalized name.
type Entry struct {
	PlanID   string
	PlanName string
	ServerID string

	normName string
}

// ServerLister is the slice of the Netplay gateway the catalog needs.
type ServerLister interface {
	ListServers(ctx context.Context) ([]models.Server, error)
}

// Catalog caches the flattened plan list from the Netplay server
// listing. Rebuilds replace the whole snapshot in a single atomic store,
// so concurrent readers never observe a half-built catalog; racing
// rebuilds are wasteful but harmless (last writer wins).
type Catalog struct {
	lister ServerLister

	mu       sync.Mutex // serializes rebuilds
	snapshot atomic.Value
}

// New creates an empty catalog backed by the given server lister.
func New(lister ServerLister) *Catalog {
	c := &Catalog{lister: lister}
	c.snapshot.Store([]Entry(nil))
	return c
}

func (c *Catalog) entries() []Entry {
	return c.snapshot.Load().([]Entry)
}

// Loaded reports whether the catalog has been built at least once.
func (c *Catalog) Loaded() bool {
	return c.entries() != nil
}

// EnsureLoaded builds the catalog if it has never been built.
func (c *Catalog) EnsureLoaded(ctx context.Context) error {
	if c.Loaded() {
		return nil
	}
	return c.Reload(ctx)
}

// Reload rebuilds the catalog wholesale from the vendor server listing.
// Plans are de-duplicated by ID; the first occurrence wins and later
// duplicates on other servers are dropped.
func (c *Catalog) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	servers, err := c.lister.ListServers(ctx)
	if err != nil {
		return fmt.Errorf("loading plan catalog: %w", err)
	}

	seen := make(map[string]bool)
	entries := make([]Entry, 0, len(servers))
	for _, srv := range servers {
		for _, pkg := range srv.Packages {
			if pkg.ID == "" || seen[pkg.ID] {
				continue
			}
			seen[pkg.ID] = true
			serverID := pkg.ServerID
			if serverID == "" {
				serverID = srv.ID
			}
			entries = append(entries, Entry{
				PlanID:   pkg.ID,
				PlanName: pkg.Name,
				ServerID: serverID,
				normName: Normalize(pkg.Name),
			})
		}
	}
	c.snapshot.Store(entries)
	return nil
}

// FindPlan resolves a customer's current plan name to a plan ID on the
// destination server. An exact normalized-name match is preferred; if
// none exists and both the query and a candidate contain the
// "sem adulto" marker, the first such candidate is accepted. Returns
// ok=false when neither tier matches.
func (c *Catalog) FindPlan(serverID, planName string) (string, bool) {
	query := Normalize(planName)
	entries := c.entries()

	for _, e := range entries {
		if e.ServerID == serverID && e.normName == query {
			return e.PlanID, true
		}
	}
	if strings.Contains(query, adultMarker) {
		for _, e := range entries {
			if e.ServerID == serverID && strings.Contains(e.normName, adultMarker) {
				return e.PlanID, true
			}
		}
	}
	return "", false
}

// Size returns the number of cached plans.
func (c *Catalog) Size() int {
	return len(c.entries())
}
