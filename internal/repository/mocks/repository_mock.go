// Package mocks provides in-memory test doubles for repository.Repository.
package mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"

	"github.com/example/order-backend/internal/repository"
)

// MockRepository keeps entities as JSON documents in memory and records
// every call. Patches are merged attribute by attribute, and conditions are
// compared on their JSON encoding, the way a document store would.
type MockRepository[T any] struct {
	mu    sync.RWMutex
	docs  map[string]map[string]json.RawMessage
	keyOf func(*T) string

	SaveCalls   []*T
	UpdateCalls []UpdateCall
	DeleteCalls []string
	QueryCalls  []QueryCall

	FindErr   error
	SaveErr   error
	UpdateErr error
	DeleteErr error
	// UpdateCallback, when set, runs before an update is applied; a non-nil
	// return is returned instead of applying it.
	UpdateCallback func(ctx context.Context, id string, patch repository.Patch) error
}

// UpdateCall records parameters passed to Update
type UpdateCall struct {
	ID    string
	Patch repository.Patch
}

// QueryCall records parameters passed to QueryByIndex
type QueryCall struct {
	Index     string
	Condition repository.KeyCondition
	Params    repository.PageParams
}

func NewMockRepository[T any](keyOf func(*T) string) *MockRepository[T] {
	return &MockRepository[T]{
		docs:  make(map[string]map[string]json.RawMessage),
		keyOf: keyOf,
	}
}

// Seed stores entities without recording calls.
func (m *MockRepository[T]) Seed(entities ...*T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entities {
		m.docs[m.keyOf(e)] = mustDoc(e)
	}
}

func (m *MockRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	return decode[T](doc)
}

func (m *MockRepository[T]) FindAll(ctx context.Context, params repository.PageParams) (*repository.Page[T], error) {
	return m.list(nil, params)
}

func (m *MockRepository[T]) Save(ctx context.Context, entity *T) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls = append(m.SaveCalls, entity)
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	m.docs[m.keyOf(entity)] = mustDoc(entity)
	return entity, nil
}

func (m *MockRepository[T]) Update(ctx context.Context, id string, patch repository.Patch) (*T, error) {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, UpdateCall{ID: id, Patch: patch})
	callback, updateErr := m.UpdateCallback, m.UpdateErr
	m.mu.Unlock()

	if callback != nil {
		if err := callback(ctx, id, patch); err != nil {
			return nil, err
		}
	}
	if updateErr != nil {
		return nil, updateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if cond := patch.Condition(); cond != nil {
		expected, _ := json.Marshal(cond.Value)
		if !bytes.Equal(doc[cond.Attribute], expected) {
			return nil, repository.ErrConflict
		}
	}
	for _, a := range patch.Assignments() {
		raw, err := json.Marshal(a.Value)
		if err != nil {
			return nil, err
		}
		doc[a.Attribute] = raw
	}
	return decode[T](doc)
}

func (m *MockRepository[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.docs, id)
	return nil
}

func (m *MockRepository[T]) QueryByIndex(ctx context.Context, index string, cond repository.KeyCondition, params repository.PageParams) (*repository.Page[T], error) {
	m.mu.Lock()
	m.QueryCalls = append(m.QueryCalls, QueryCall{Index: index, Condition: cond, Params: params})
	m.mu.Unlock()
	return m.list(&cond, params)
}

// list pages in key order; the continuation token is the offset.
func (m *MockRepository[T]) list(cond *repository.KeyCondition, params repository.PageParams) (*repository.Page[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}

	var expected []byte
	if cond != nil {
		expected, _ = json.Marshal(cond.Value)
	}
	ids := make([]string, 0, len(m.docs))
	for id, doc := range m.docs {
		if cond == nil || bytes.Equal(doc[cond.Attribute], expected) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	offset := 0
	if params.ContinuationToken != "" {
		var err error
		if err = repository.DecodeToken(params.ContinuationToken, &offset); err != nil {
			return nil, err
		}
	}
	if offset > len(ids) {
		offset = len(ids)
	}
	end := len(ids)
	if params.Limit > 0 && offset+params.Limit < end {
		end = offset + params.Limit
	}

	page := &repository.Page[T]{Items: make([]T, 0, end-offset)}
	for _, id := range ids[offset:end] {
		entity, err := decode[T](m.docs[id])
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *entity)
	}
	page.Count = len(page.Items)
	if end < len(ids) {
		page.ContinuationToken, _ = repository.EncodeToken(end)
	}
	return page, nil
}

func mustDoc(entity any) map[string]json.RawMessage {
	raw, err := json.Marshal(entity)
	if err != nil {
		panic("mocks: entity does not marshal: " + err.Error())
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		panic("mocks: entity is not a JSON object: " + strconv.Quote(string(raw)))
	}
	return doc
}

func decode[T any](doc map[string]json.RawMessage) (*T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var entity T
	if err := json.Unmarshal(raw, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}
