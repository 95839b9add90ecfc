package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/source/nexusmods"
	"github.com/DonovanMods/me3-mod-manager/internal/storage/db"
)

// ModLookup fetches a single Nexus mod page
type ModLookup interface {
	GetMod(ctx context.Context, gameDomain string, modID int) (*nexusmods.Mod, error)
}

// Update is a linked mod whose Nexus page lists a newer version
type Update struct {
	Link          *db.NexusLink
	LatestVersion string
}

// maxLookups bounds concurrent Nexus requests
const maxLookups = 4

// Updater compares linked local mods against their Nexus pages
type Updater struct {
	db     *db.DB
	client ModLookup
	logger hclog.Logger
}

// NewUpdater creates a new updater
func NewUpdater(database *db.DB, client ModLookup, logger hclog.Logger) *Updater {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Updater{db: database, client: client, logger: logger}
}

// CheckUpdates looks up every Nexus mod linked for gameDomain once. Links
// without a recorded version are skipped. Lookup failures are collected
// and returned alongside whatever updates were found.
func (u *Updater) CheckUpdates(ctx context.Context, gameDomain string) ([]Update, error) {
	links, err := u.db.ListNexusLinks(gameDomain)
	if err != nil {
		return nil, err
	}

	byMod := make(map[int][]*db.NexusLink)
	for _, l := range links {
		if l.Version == "" {
			continue
		}
		byMod[l.ModID] = append(byMod[l.ModID], l)
	}
	if len(byMod) == 0 {
		return nil, nil
	}

	var (
		mu        sync.Mutex
		updates   []Update
		checkErrs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLookups)
	for id, group := range byMod {
		g.Go(func() error {
			mod, err := u.client.GetMod(gctx, gameDomain, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				checkErrs = append(checkErrs, fmt.Errorf("mod %d: %w", id, err))
				return nil
			}
			for _, l := range group {
				if domain.IsNewerVersion(l.Version, mod.Version) {
					updates = append(updates, Update{Link: l, LatestVersion: mod.Version})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return updates, err
	}

	sort.Slice(updates, func(i, j int) bool {
		return updates[i].Link.LocalPath < updates[j].Link.LocalPath
	})
	u.logger.Debug("checked for updates", "domain", gameDomain, "mods", len(byMod), "updates", len(updates))

	if len(checkErrs) > 0 {
		return updates, fmt.Errorf("update check had %d error(s): %w", len(checkErrs), errors.Join(checkErrs...))
	}
	return updates, nil
}
