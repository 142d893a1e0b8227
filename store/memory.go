package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps documents in process. It mirrors the subset of MongoDB
// semantics the handlers rely on, including the unique email index on users.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[Collection][]bson.D
	closed bool
	open   atomic.Int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[Collection][]bson.D)}
}

func (m *MemoryStore) Create(ctx context.Context, coll Collection, doc any) (primitive.ObjectID, error) {
	d, err := toD(doc)
	if err != nil {
		return primitive.NilObjectID, err
	}

	var id primitive.ObjectID
	if v, ok := lookup(d, "_id"); ok {
		oid, isOID := v.(primitive.ObjectID)
		if !isOID {
			return primitive.NilObjectID, fmt.Errorf("unsupported _id type %T", v)
		}
		id = oid
	} else {
		id = primitive.NewObjectID()
		d = append(bson.D{{Key: "_id", Value: id}}, d...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return primitive.NilObjectID, ErrUnavailable
	}
	if coll == Users {
		email, _ := lookup(d, "email")
		for _, existing := range m.docs[coll] {
			if other, ok := lookup(existing, "email"); ok && equal(other, email) {
				return primitive.NilObjectID, fmt.Errorf("%w: email %v", ErrDuplicate, email)
			}
		}
	}
	m.docs[coll] = append(m.docs[coll], d)
	return id, nil
}

func (m *MemoryStore) Find(ctx context.Context, coll Collection, filter bson.M) ([]bson.Raw, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrUnavailable
	}

	var out []bson.Raw
	for _, d := range m.docs[coll] {
		if !matches(d, filter) {
			continue
		}
		raw, err := bson.Marshal(d)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (m *MemoryStore) FindOne(ctx context.Context, coll Collection, filter bson.M) (bson.Raw, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrUnavailable
	}

	for _, d := range m.docs[coll] {
		if matches(d, filter) {
			return bson.Marshal(d)
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) Update(ctx context.Context, coll Collection, filter bson.M, set bson.M) (int64, error) {
	fields, err := toD(set)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrUnavailable
	}

	docs := m.docs[coll]
	for i, d := range docs {
		if !matches(d, filter) {
			continue
		}
		for _, f := range fields {
			d = setField(d, f.Key, f.Value)
		}
		docs[i] = d
		return 1, nil
	}
	return 0, nil
}

func (m *MemoryStore) Count(ctx context.Context, coll Collection, filter bson.M) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrUnavailable
	}

	var n int64
	for _, d := range m.docs[coll] {
		if matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Acquire(ctx context.Context) (context.Context, func(), error) {
	if err := m.Ping(ctx); err != nil {
		return ctx, func() {}, err
	}
	m.open.Add(1)
	var once sync.Once
	return ctx, func() { once.Do(func() { m.open.Add(-1) }) }, nil
}

// OpenHandles reports handles acquired and not yet released.
func (m *MemoryStore) OpenHandles() int64 {
	return m.open.Load()
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrUnavailable
	}
	return nil
}

// Close makes every later call fail with ErrUnavailable.
func (m *MemoryStore) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func toD(v any) (bson.D, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var d bson.D
	if err := bson.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return d, nil
}

func lookup(d bson.D, key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func setField(d bson.D, key string, value any) bson.D {
	for i := range d {
		if d[i].Key == key {
			d[i].Value = value
			return d
		}
	}
	return append(d, bson.E{Key: key, Value: value})
}

func matches(d bson.D, filter bson.M) bool {
	for key, want := range filter {
		if key == "$or" {
			if !matchesAny(d, want) {
				return false
			}
			continue
		}
		got, ok := lookup(d, key)
		if !ok || !equal(got, want) {
			return false
		}
	}
	return true
}

func matchesAny(d bson.D, clauses any) bool {
	var list []bson.M
	switch c := clauses.(type) {
	case []bson.M:
		list = c
	case bson.A:
		for _, item := range c {
			if m, ok := item.(bson.M); ok {
				list = append(list, m)
			}
		}
	case []any:
		for _, item := range c {
			if m, ok := item.(bson.M); ok {
				list = append(list, m)
			}
		}
	}
	for _, clause := range list {
		if matches(d, clause) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return x == y
		}
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
