package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/pipeline"
)

// MemoryStore is an in-process Store. It evaluates pipelines with the same
// semantics as MongoStore and enforces the unique entries of Indexes.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]pipeline.Document
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]pipeline.Document)}
}

var _ Store = (*MemoryStore)(nil)

// Len reports how many documents a collection holds.
func (m *MemoryStore) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data[collection])
}

func (m *MemoryStore) FindByID(ctx context.Context, collection string, id ids.ID, out any) error {
	return m.FindOne(ctx, collection, pipeline.IDEq("_id", id), out)
}

func (m *MemoryStore) FindOne(_ context.Context, collection string, where pipeline.Predicate, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, doc := range m.data[collection] {
		if pipeline.Matches(where, doc) {
			return decodeDocument(doc, out)
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) Insert(_ context.Context, collection string, doc any) error {
	converted, err := toDocument(doc)
	if err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	if _, ok := converted["_id"]; !ok {
		converted["_id"] = ids.New()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUnique(collection, converted, -1); err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	m.data[collection] = append(m.data[collection], converted)
	return nil
}

func (m *MemoryStore) UpdateByID(_ context.Context, collection string, id ids.ID, update Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(collection, id)
	if idx < 0 {
		return ErrNotFound
	}
	if update.empty() {
		return nil
	}
	next, err := applyUpdate(m.data[collection][idx], update)
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	if err := m.checkUnique(collection, next, idx); err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	m.data[collection][idx] = next
	return nil
}

func (m *MemoryStore) DeleteByID(_ context.Context, collection string, id ids.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(collection, id)
	if idx < 0 {
		return ErrNotFound
	}
	docs := m.data[collection]
	m.data[collection] = append(docs[:idx:idx], docs[idx+1:]...)
	return nil
}

func (m *MemoryStore) DeleteMany(_ context.Context, collection string, where pipeline.Predicate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []pipeline.Document
	var removed int64
	for _, doc := range m.data[collection] {
		if pipeline.Matches(where, doc) {
			removed++
			continue
		}
		kept = append(kept, doc)
	}
	m.data[collection] = kept
	return removed, nil
}

func (m *MemoryStore) RunPipeline(_ context.Context, p pipeline.Pipeline, out any) error {
	m.mu.RLock()
	rows, err := p.Evaluate(memorySource{m})
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", p.Collection, err)
	}
	return decodeRows(rows, out)
}

// memorySource reads collections while the caller holds the store lock.
type memorySource struct{ m *MemoryStore }

func (s memorySource) Documents(collection string) ([]pipeline.Document, error) {
	docs := s.m.data[collection]
	out := make([]pipeline.Document, len(docs))
	copy(out, docs)
	return out, nil
}

func (m *MemoryStore) indexOf(collection string, id ids.ID) int {
	for i, doc := range m.data[collection] {
		if got, ok := ids.From(doc["_id"]); ok && ids.Equal(got, id) {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) checkUnique(collection string, doc pipeline.Document, skip int) error {
	indexes := append([]Index{{Name: "_id_", Keys: []string{"_id"}, Unique: true}}, Indexes[collection]...)
	for _, idx := range indexes {
		if !idx.Unique {
			continue
		}
		key := indexKey(doc, idx.Keys)
		for i, other := range m.data[collection] {
			if i == skip {
				continue
			}
			if indexKey(other, idx.Keys) == key {
				return fmt.Errorf("%s violates %s: %w", collection, idx.Name, ErrConflict)
			}
		}
	}
	return nil
}

func indexKey(doc pipeline.Document, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		v, _ := pipeline.Lookup(doc, k)
		parts[i] = fmt.Sprintf("%T:%v", v, v)
	}
	return strings.Join(parts, "|")
}

func applyUpdate(doc pipeline.Document, u Update) (pipeline.Document, error) {
	next := doc.Clone()
	for path, v := range u.Set {
		value, err := toValue(v)
		if err != nil {
			return nil, err
		}
		pipeline.SetPath(next, path, value)
	}
	for path, delta := range u.Inc {
		cur, _ := pipeline.Lookup(next, path)
		switch n := cur.(type) {
		case nil:
			pipeline.SetPath(next, path, delta)
		case int64:
			pipeline.SetPath(next, path, n+delta)
		case float64:
			pipeline.SetPath(next, path, n+float64(delta))
		default:
			return nil, fmt.Errorf("cannot increment non-numeric field %q", path)
		}
	}
	for path, v := range u.AddToSet {
		value, err := toValue(v)
		if err != nil {
			return nil, err
		}
		list, err := listAt(next, path)
		if err != nil {
			return nil, err
		}
		if !containsValue(list, value) {
			list = append(list, value)
		}
		pipeline.SetPath(next, path, list)
	}
	for path, v := range u.Pull {
		value, err := toValue(v)
		if err != nil {
			return nil, err
		}
		list, err := listAt(next, path)
		if err != nil {
			return nil, err
		}
		kept := make([]any, 0, len(list))
		for _, elem := range list {
			if pipeline.Compare(elem, value) != 0 {
				kept = append(kept, elem)
			}
		}
		pipeline.SetPath(next, path, kept)
	}
	for _, path := range u.Unset {
		delete(next, path)
	}
	return next, nil
}

func listAt(doc pipeline.Document, path string) ([]any, error) {
	cur, _ := pipeline.Lookup(doc, path)
	switch list := cur.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return append([]any{}, list...), nil
	default:
		return nil, fmt.Errorf("field %q is not a list", path)
	}
}

func containsValue(list []any, v any) bool {
	for _, elem := range list {
		if pipeline.Compare(elem, v) == 0 {
			return true
		}
	}
	return false
}

func toDocument(doc any) (pipeline.Document, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return pipeline.Normalize(d).(pipeline.Document), nil
}

func toValue(v any) (any, error) {
	doc, err := toDocument(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return doc["v"], nil
}

func decodeDocument(doc pipeline.Document, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func decodeRows(rows []pipeline.Document, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("decode rows: out must be a pointer to a slice, got %T", out)
	}
	slice := rv.Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(rows))
	for _, row := range rows {
		elem := reflect.New(slice.Type().Elem())
		if err := decodeDocument(row, elem.Interface()); err != nil {
			return fmt.Errorf("decode rows: %w", err)
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}
