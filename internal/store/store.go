package store

import (
	"context"
	"time"
)

// MaxInListSize is the largest id batch GetAll accepts per call, mirroring
// the backing store's "id in-list" filter limit. Callers chunk above this.
const MaxInListSize = 30

// Store is the document store client the chat core is built on: push-based
// per-collection subscriptions that deliver the full current result set on
// every change, field-level atomic updates (including delete-field,
// add-to-set, remove-from-set and server-assigned timestamps), and point
// reads. Concurrent writes to the same scalar field are last-writer-wins;
// only the set operators are atomic under contention.
type Store interface {
	// Get performs a point read. Returns ErrNotFound for missing documents.
	Get(ctx context.Context, col, id string) (Doc, error)

	// GetAll reads up to MaxInListSize documents by id. Missing ids are
	// silently skipped, matching in-list query semantics.
	GetAll(ctx context.Context, col string, ids []string) ([]Doc, error)

	// Set writes the full scalar document, replacing existing scalar fields.
	// Set-valued fields live beside the scalar document and are not touched;
	// they change only through the set operators in Apply.
	Set(ctx context.Context, col, id string, data map[string]any) error

	// Apply applies field-level operations, creating the document when it
	// does not exist yet.
	Apply(ctx context.Context, col, id string, ops ...Op) error

	// Update applies field-level operations to an existing document.
	// Returns ErrNotFound without writing when the document is missing, so
	// a concurrent delete cannot be undone by a trailing field write.
	Update(ctx context.Context, col, id string, ops ...Op) error

	// Delete removes the document entirely. Deleting a missing document
	// returns ErrNotFound.
	Delete(ctx context.Context, col, id string) error

	// List returns the collection's documents ordered by q.
	List(ctx context.Context, col string, q Query) ([]Doc, error)

	// Subscribe delivers the full ordered result set now and again after
	// every change to the collection, until cancel is called or ctx ends.
	// Delivery is at-least-once; intermediate states may be coalesced.
	Subscribe(ctx context.Context, col string, q Query) (<-chan []Doc, func(), error)

	// Watch delivers the current state of a single document now and after
	// every change to it. A missing document is delivered with Exists=false.
	Watch(ctx context.Context, col, id string) (<-chan Doc, func(), error)
}

// Query orders and limits a collection read. OrderBy names a time-valued
// field; Limit truncates after ordering (0 means no limit).
type Query struct {
	OrderBy string
	Desc    bool
	Limit   int
}

// OpKind enumerates the supported field operations.
type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
	OpAddToSet
	OpRemoveFromSet
	OpServerTime
)

// Op is one field-level operation inside an Apply call.
type Op struct {
	Field  string
	Kind   OpKind
	Value  any
	Member string
}

// Set replaces a scalar field value.
func Set(field string, value any) Op {
	return Op{Field: field, Kind: OpSet, Value: value}
}

// Delete removes a scalar field.
func Delete(field string) Op {
	return Op{Field: field, Kind: OpDelete}
}

// AddToSet atomically adds member to a set-valued field, creating it when
// absent.
func AddToSet(field, member string) Op {
	return Op{Field: field, Kind: OpAddToSet, Member: member}
}

// RemoveFromSet atomically removes member from a set-valued field. Removing
// the last member removes the field itself; empty sets are never retained.
func RemoveFromSet(field, member string) Op {
	return Op{Field: field, Kind: OpRemoveFromSet, Member: member}
}

// ServerTime sets a field to a server-assigned timestamp, monotonic per
// store instance.
func ServerTime(field string) Op {
	return Op{Field: field, Kind: OpServerTime}
}

// Doc is a decoded document. Data holds scalar fields (times as RFC3339
// strings); Sets holds set-valued fields, with empty sets omitted.
type Doc struct {
	ID     string
	Exists bool
	Data   map[string]any
	Sets   map[string][]string
}

// String returns the named field as a string, or "".
func (d Doc) String(field string) string {
	if v, ok := d.Data[field].(string); ok {
		return v
	}
	return ""
}

// Bool returns the named field as a bool, or false.
func (d Doc) Bool(field string) bool {
	if v, ok := d.Data[field].(bool); ok {
		return v
	}
	return false
}

// Time parses the named field as a timestamp, or returns the zero time.
func (d Doc) Time(field string) time.Time {
	switch v := d.Data[field].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	case time.Time:
		return v
	}
	return time.Time{}
}

// EncodeTime renders a timestamp the way the store persists time fields.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
