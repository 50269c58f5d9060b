package messages

import (
	"context"
	"sync"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/store"
)

// Hydrator resolves author ids on incoming snapshots to profiles, batching
// point reads in chunks of the store's in-list limit. The cache lives for
// the process and is never invalidated: a stale display name is accepted
// until a fresh batch happens to fetch the id again.
type Hydrator struct {
	db store.Store

	mu    sync.Mutex
	cache map[string]domain.Profile
}

func NewHydrator(db store.Store) *Hydrator {
	return &Hydrator{db: db, cache: make(map[string]domain.Profile)}
}

// Profiles returns profiles for every distinct author in msgs. Only ids not
// yet cached hit the store. Authors whose profile document is gone resolve
// to a zero profile under their uid.
func (h *Hydrator) Profiles(ctx context.Context, msgs []domain.Message) (map[string]domain.Profile, error) {
	wanted := make(map[string]struct{})
	for _, m := range msgs {
		if m.AuthorID != "" {
			wanted[m.AuthorID] = struct{}{}
		}
	}

	h.mu.Lock()
	var missing []string
	for uid := range wanted {
		if _, ok := h.cache[uid]; !ok {
			missing = append(missing, uid)
		}
	}
	h.mu.Unlock()

	for start := 0; start < len(missing); start += store.MaxInListSize {
		end := start + store.MaxInListSize
		if end > len(missing) {
			end = len(missing)
		}
		docs, err := h.db.GetAll(ctx, domain.ColUsers, missing[start:end])
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		for _, d := range docs {
			h.cache[d.ID] = domain.DecodeProfile(d)
		}
		h.mu.Unlock()
	}

	out := make(map[string]domain.Profile, len(wanted))
	h.mu.Lock()
	for uid := range wanted {
		if p, ok := h.cache[uid]; ok {
			out[uid] = p
		} else {
			out[uid] = domain.Profile{UID: uid}
		}
	}
	h.mu.Unlock()
	return out, nil
}

// Cached returns the cached profile for uid, if any.
func (h *Hydrator) Cached(uid string) (domain.Profile, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.cache[uid]
	return p, ok
}
