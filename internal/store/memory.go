package store

import (
	"context"
	"sort"
	"sync"
	"time"

	reclaim_errors "reclaim-chat/pkg/errors"
)

// MemoryStore is an in-process Store with the same semantics as the Redis
// implementation. It backs tests and single-node development.
type MemoryStore struct {
	mu     sync.RWMutex
	cols   map[string]*memCollection
	lastTS time.Time
	nextID int
}

type memCollection struct {
	docs     map[string]*memDoc
	watchers map[int]*memWatcher
}

type memDoc struct {
	data map[string]any
	sets map[string]map[string]struct{}
}

type memWatcher struct {
	query  Query
	docID  string // non-empty for single-document watches
	dirty  chan struct{}
	done   chan struct{}
	closed sync.Once
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cols: make(map[string]*memCollection)}
}

func (s *MemoryStore) col(name string) *memCollection {
	c, ok := s.cols[name]
	if !ok {
		c = &memCollection{
			docs:     make(map[string]*memDoc),
			watchers: make(map[int]*memWatcher),
		}
		s.cols[name] = c
	}
	return c
}

// serverTime hands out strictly increasing timestamps so creation order is
// total within one store instance.
func (s *MemoryStore) serverTime() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastTS) {
		now = s.lastTS.Add(time.Nanosecond)
	}
	s.lastTS = now
	return now
}

func (s *MemoryStore) Get(ctx context.Context, col, id string) (Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cols[col]
	if !ok {
		return Doc{}, reclaim_errors.ErrNotFound
	}
	d, ok := c.docs[id]
	if !ok {
		return Doc{}, reclaim_errors.ErrNotFound
	}
	return snapshotDoc(id, d), nil
}

func (s *MemoryStore) GetAll(ctx context.Context, col string, ids []string) ([]Doc, error) {
	if len(ids) > MaxInListSize {
		return nil, reclaim_errors.ErrInvalidInput
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cols[col]
	if !ok {
		return nil, nil
	}
	out := make([]Doc, 0, len(ids))
	for _, id := range ids {
		if d, ok := c.docs[id]; ok {
			out = append(out, snapshotDoc(id, d))
		}
	}
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, col, id string, data map[string]any) error {
	s.mu.Lock()
	c := s.col(col)
	d, ok := c.docs[id]
	if !ok {
		d = newMemDoc()
		c.docs[id] = d
	}
	d.data = make(map[string]any, len(data))
	for k, v := range data {
		d.data[k] = encodeValue(v)
	}
	s.notifyLocked(c, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Apply(ctx context.Context, col, id string, ops ...Op) error {
	s.mu.Lock()
	c := s.col(col)
	d, ok := c.docs[id]
	if !ok {
		d = newMemDoc()
		c.docs[id] = d
	}
	s.applyLocked(d, ops)
	s.notifyLocked(c, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, col, id string, ops ...Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cols[col]
	if !ok {
		return reclaim_errors.ErrNotFound
	}
	d, ok := c.docs[id]
	if !ok {
		return reclaim_errors.ErrNotFound
	}
	s.applyLocked(d, ops)
	s.notifyLocked(c, id)
	return nil
}

func (s *MemoryStore) applyLocked(d *memDoc, ops []Op) {
	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			d.data[op.Field] = encodeValue(op.Value)
		case OpDelete:
			delete(d.data, op.Field)
		case OpServerTime:
			d.data[op.Field] = EncodeTime(s.serverTime())
		case OpAddToSet:
			set, ok := d.sets[op.Field]
			if !ok {
				set = make(map[string]struct{})
				d.sets[op.Field] = set
			}
			set[op.Member] = struct{}{}
		case OpRemoveFromSet:
			if set, ok := d.sets[op.Field]; ok {
				delete(set, op.Member)
				if len(set) == 0 {
					delete(d.sets, op.Field)
				}
			}
		}
	}
}

func (s *MemoryStore) Delete(ctx context.Context, col, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cols[col]
	if !ok {
		return reclaim_errors.ErrNotFound
	}
	if _, ok := c.docs[id]; !ok {
		return reclaim_errors.ErrNotFound
	}
	delete(c.docs, id)
	s.notifyLocked(c, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, col string, q Query) ([]Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(col, q), nil
}

func (s *MemoryStore) listLocked(col string, q Query) []Doc {
	c, ok := s.cols[col]
	if !ok {
		return nil
	}
	out := make([]Doc, 0, len(c.docs))
	for id, d := range c.docs {
		out = append(out, snapshotDoc(id, d))
	}
	if q.OrderBy != "" {
		sort.Slice(out, func(i, j int) bool {
			ti, tj := out[i].Time(q.OrderBy), out[j].Time(q.OrderBy)
			if ti.Equal(tj) {
				return out[i].ID < out[j].ID
			}
			if q.Desc {
				return ti.After(tj)
			}
			return ti.Before(tj)
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (s *MemoryStore) Subscribe(ctx context.Context, col string, q Query) (<-chan []Doc, func(), error) {
	w := &memWatcher{
		query: q,
		dirty: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	s.mu.Lock()
	c := s.col(col)
	key := s.nextID
	s.nextID++
	c.watchers[key] = w
	s.mu.Unlock()

	out := make(chan []Doc, 1)
	cancel := func() {
		s.mu.Lock()
		delete(c.watchers, key)
		s.mu.Unlock()
		w.closed.Do(func() { close(w.done) })
	}

	go func() {
		defer close(out)
		// Initial snapshot, then one per change notification. Notifications
		// coalesce, so a slow consumer sees the latest state at least once.
		for {
			s.mu.RLock()
			snap := s.listLocked(col, q)
			s.mu.RUnlock()
			select {
			case out <- snap:
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
			select {
			case <-w.dirty:
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

func (s *MemoryStore) Watch(ctx context.Context, col, id string) (<-chan Doc, func(), error) {
	w := &memWatcher{
		docID: id,
		dirty: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	s.mu.Lock()
	c := s.col(col)
	key := s.nextID
	s.nextID++
	c.watchers[key] = w
	s.mu.Unlock()

	out := make(chan Doc, 1)
	cancel := func() {
		s.mu.Lock()
		delete(c.watchers, key)
		s.mu.Unlock()
		w.closed.Do(func() { close(w.done) })
	}

	go func() {
		defer close(out)
		for {
			s.mu.RLock()
			var snap Doc
			if d, ok := s.cols[col].docs[id]; ok {
				snap = snapshotDoc(id, d)
			} else {
				snap = Doc{ID: id}
			}
			s.mu.RUnlock()
			select {
			case out <- snap:
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
			select {
			case <-w.dirty:
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

func (s *MemoryStore) notifyLocked(c *memCollection, docID string) {
	for _, w := range c.watchers {
		if w.docID != "" && w.docID != docID {
			continue
		}
		select {
		case w.dirty <- struct{}{}:
		default:
		}
	}
}

func newMemDoc() *memDoc {
	return &memDoc{
		data: make(map[string]any),
		sets: make(map[string]map[string]struct{}),
	}
}

func snapshotDoc(id string, d *memDoc) Doc {
	out := Doc{ID: id, Exists: true, Data: make(map[string]any, len(d.data))}
	for k, v := range d.data {
		out.Data[k] = v
	}
	if len(d.sets) > 0 {
		out.Sets = make(map[string][]string, len(d.sets))
		for f, set := range d.sets {
			members := make([]string, 0, len(set))
			for m := range set {
				members = append(members, m)
			}
			sort.Strings(members)
			out.Sets[f] = members
		}
	}
	return out
}

func encodeValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return EncodeTime(t)
	}
	return v
}
