package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"reclaim-chat/pkg/logger"
	reclaim_errors "reclaim-chat/pkg/errors"
)

// Key patterns:
// - doc:{col}:{id}          - hash, scalar field -> JSON value
// - docset:{col}:{id}:{f}   - set-valued field (SADD/SREM keep it atomic;
//                             redis drops the key when the set empties)
// - docsetf:{col}:{id}      - names of set fields ever written on the doc
// - idx:{col}:{f}           - zset index for time-valued field f
// - idxf:{col}               - names of indexed fields in the collection
// - store:{col}             - pub/sub channel carrying changed doc ids

// RedisStore is the production Store backend. Scalar field writes are
// last-writer-wins; set operators ride on SADD/SREM and stay correct under
// concurrent togglers.
type RedisStore struct {
	client *goredis.Client
	log    *logger.Logger

	mu     sync.Mutex
	lastTS time.Time
}

func NewRedisStore(client *goredis.Client, log *logger.Logger) *RedisStore {
	return &RedisStore{client: client, log: log}
}

func docKey(col, id string) string      { return fmt.Sprintf("doc:%s:%s", col, id) }
func setKey(col, id, f string) string   { return fmt.Sprintf("docset:%s:%s:%s", col, id, f) }
func setFieldsKey(col, id string) string { return fmt.Sprintf("docsetf:%s:%s", col, id) }
func idxKey(col, f string) string       { return fmt.Sprintf("idx:%s:%s", col, f) }
func idxFieldsKey(col string) string    { return fmt.Sprintf("idxf:%s", col) }
func changeChannel(col string) string   { return fmt.Sprintf("store:%s", col) }

// serverTime hands out strictly increasing timestamps per store instance.
func (s *RedisStore) serverTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if !now.After(s.lastTS) {
		now = s.lastTS.Add(time.Nanosecond)
	}
	s.lastTS = now
	return now
}

func (s *RedisStore) Get(ctx context.Context, col, id string) (Doc, error) {
	data, err := s.client.HGetAll(ctx, docKey(col, id)).Result()
	if err != nil {
		return Doc{}, wrapUnavailable(err)
	}
	setFields, err := s.client.SMembers(ctx, setFieldsKey(col, id)).Result()
	if err != nil {
		return Doc{}, wrapUnavailable(err)
	}

	doc := Doc{ID: id, Exists: true, Data: make(map[string]any, len(data))}
	for field, raw := range data {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			continue
		}
		doc.Data[field] = v
	}
	for _, field := range setFields {
		members, err := s.client.SMembers(ctx, setKey(col, id, field)).Result()
		if err != nil {
			return Doc{}, wrapUnavailable(err)
		}
		if len(members) == 0 {
			continue
		}
		if doc.Sets == nil {
			doc.Sets = make(map[string][]string)
		}
		doc.Sets[field] = members
	}
	if len(doc.Data) == 0 && len(doc.Sets) == 0 {
		return Doc{}, reclaim_errors.ErrNotFound
	}
	return doc, nil
}

func (s *RedisStore) GetAll(ctx context.Context, col string, ids []string) ([]Doc, error) {
	if len(ids) > MaxInListSize {
		return nil, reclaim_errors.ErrInvalidInput
	}
	out := make([]Doc, 0, len(ids))
	for _, id := range ids {
		doc, err := s.Get(ctx, col, id)
		if errors.Is(err, reclaim_errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *RedisStore) Set(ctx context.Context, col, id string, data map[string]any) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, docKey(col, id))
	for field, v := range data {
		s.queueScalar(ctx, pipe, col, id, field, v)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapUnavailable(err)
	}
	s.publish(ctx, col, id)
	return nil
}

func (s *RedisStore) Apply(ctx context.Context, col, id string, ops ...Op) error {
	pipe := s.client.TxPipeline()
	s.queueOps(ctx, pipe, col, id, ops)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapUnavailable(err)
	}
	s.publish(ctx, col, id)
	return nil
}

// Update is an optimistic existence-guarded Apply: the doc keys are WATCHed,
// so a delete racing in between the check and the write aborts the
// transaction instead of resurrecting the document.
func (s *RedisStore) Update(ctx context.Context, col, id string, ops ...Op) error {
	txn := func(tx *goredis.Tx) error {
		exists, err := tx.Exists(ctx, docKey(col, id), setFieldsKey(col, id)).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return reclaim_errors.ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			s.queueOps(ctx, pipe, col, id, ops)
			return nil
		})
		return err
	}
	for attempt := 0; attempt < 3; attempt++ {
		err := s.client.Watch(ctx, txn, docKey(col, id), setFieldsKey(col, id))
		switch {
		case errors.Is(err, goredis.TxFailedErr):
			continue
		case errors.Is(err, reclaim_errors.ErrNotFound):
			return err
		case err != nil:
			return wrapUnavailable(err)
		}
		s.publish(ctx, col, id)
		return nil
	}
	return reclaim_errors.ErrConflict
}

func (s *RedisStore) queueOps(ctx context.Context, pipe goredis.Pipeliner, col, id string, ops []Op) {
	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			s.queueScalar(ctx, pipe, col, id, op.Field, op.Value)
		case OpDelete:
			pipe.HDel(ctx, docKey(col, id), op.Field)
		case OpServerTime:
			s.queueScalar(ctx, pipe, col, id, op.Field, s.serverTime())
		case OpAddToSet:
			pipe.SAdd(ctx, setKey(col, id, op.Field), op.Member)
			pipe.SAdd(ctx, setFieldsKey(col, id), op.Field)
		case OpRemoveFromSet:
			pipe.SRem(ctx, setKey(col, id, op.Field), op.Member)
		}
	}
}

// queueScalar writes one scalar field, maintaining the time index when the
// value is a timestamp.
func (s *RedisStore) queueScalar(ctx context.Context, pipe goredis.Pipeliner, col, id, field string, v any) {
	if t, ok := v.(time.Time); ok {
		encoded, _ := json.Marshal(EncodeTime(t))
		pipe.HSet(ctx, docKey(col, id), field, string(encoded))
		pipe.ZAdd(ctx, idxKey(col, field), goredis.Z{Score: float64(t.UnixNano()), Member: id})
		pipe.SAdd(ctx, idxFieldsKey(col), field)
		return
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		if s.log != nil {
			s.log.Errorf("store: drop unencodable field %s.%s: %v", col, field, err)
		}
		return
	}
	pipe.HSet(ctx, docKey(col, id), field, string(encoded))
}

func (s *RedisStore) Delete(ctx context.Context, col, id string) error {
	exists, err := s.client.Exists(ctx, docKey(col, id), setFieldsKey(col, id)).Result()
	if err != nil {
		return wrapUnavailable(err)
	}
	if exists == 0 {
		return reclaim_errors.ErrNotFound
	}
	setFields, _ := s.client.SMembers(ctx, setFieldsKey(col, id)).Result()
	idxFields, _ := s.client.SMembers(ctx, idxFieldsKey(col)).Result()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, docKey(col, id), setFieldsKey(col, id))
	for _, f := range setFields {
		pipe.Del(ctx, setKey(col, id, f))
	}
	for _, f := range idxFields {
		pipe.ZRem(ctx, idxKey(col, f), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapUnavailable(err)
	}
	s.publish(ctx, col, id)
	return nil
}

func (s *RedisStore) List(ctx context.Context, col string, q Query) ([]Doc, error) {
	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "createdAt"
	}
	rng := &goredis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if q.Limit > 0 {
		rng.Count = int64(q.Limit)
	}
	var ids []string
	var err error
	if q.Desc {
		ids, err = s.client.ZRevRangeByScore(ctx, idxKey(col, orderBy), rng).Result()
	} else {
		ids, err = s.client.ZRangeByScore(ctx, idxKey(col, orderBy), rng).Result()
	}
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	out := make([]Doc, 0, len(ids))
	for _, id := range ids {
		doc, err := s.Get(ctx, col, id)
		if errors.Is(err, reclaim_errors.ErrNotFound) {
			// Deleted between index read and doc read.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *RedisStore) Subscribe(ctx context.Context, col string, q Query) (<-chan []Doc, func(), error) {
	ps := s.client.Subscribe(ctx, changeChannel(col))
	out := make(chan []Doc, 1)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = ps.Close()
			close(done)
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			snap, err := s.List(ctx, col, q)
			if err != nil {
				if s.log != nil {
					s.log.Errorf("store: subscribe snapshot for %s: %v", col, err)
				}
			} else {
				select {
				case out <- snap:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
			select {
			case _, ok := <-msgs:
				if !ok {
					return
				}
				drain(msgs)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

func (s *RedisStore) Watch(ctx context.Context, col, id string) (<-chan Doc, func(), error) {
	ps := s.client.Subscribe(ctx, changeChannel(col))
	out := make(chan Doc, 1)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = ps.Close()
			close(done)
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			doc, err := s.Get(ctx, col, id)
			if errors.Is(err, reclaim_errors.ErrNotFound) {
				doc = Doc{ID: id}
				err = nil
			}
			if err != nil {
				if s.log != nil {
					s.log.Errorf("store: watch %s/%s: %v", col, id, err)
				}
			} else {
				select {
				case out <- doc:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
			for {
				select {
				case msg, ok := <-msgs:
					if !ok {
						return
					}
					if msg.Payload != id {
						continue
					}
				case <-done:
					return
				case <-ctx.Done():
					return
				}
				break
			}
		}
	}()
	return out, cancel, nil
}

func (s *RedisStore) publish(ctx context.Context, col, id string) {
	if err := s.client.Publish(ctx, changeChannel(col), id).Err(); err != nil && s.log != nil {
		s.log.Errorf("store: publish change %s/%s: %v", col, id, err)
	}
}

// drain coalesces queued change notifications into one snapshot rebuild.
func drain(msgs <-chan *goredis.Message) {
	for {
		select {
		case _, ok := <-msgs:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", reclaim_errors.ErrUnavailable, err)
}
