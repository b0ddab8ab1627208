package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/diwise/entity-manager/pkg/backend/errors"
	"github.com/google/uuid"
)

type memoryImpl struct {
	mu        sync.RWMutex
	resources map[string]Resource
	records   map[string]map[string]map[string]any
}

// NewMemoryStorage creates a storage that keeps all records in process.
// Only the given resources are accepted.
func NewMemoryStorage(resources []Resource) Storage {
	impl := &memoryImpl{
		resources: map[string]Resource{},
		records:   map[string]map[string]map[string]any{},
	}

	for _, r := range resources {
		impl.resources[r.Name] = r
		impl.records[r.Name] = map[string]map[string]any{}
	}

	return impl
}

func (m *memoryImpl) Create(ctx context.Context, entityType string, record map[string]any) (string, map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resource, ok := m.resources[entityType]
	if !ok {
		return "", nil, errors.NewNotFoundError(fmt.Sprintf("unknown entity type %s", entityType))
	}

	stored := copyRecord(record)

	id := fmt.Sprint(stored[resource.Key])
	if stored[resource.Key] == nil || id == "" {
		id = uuid.NewString()
		stored[resource.Key] = id
	}

	if _, exists := m.records[entityType][id]; exists {
		return "", nil, errors.NewAlreadyExistsError(fmt.Sprintf("%s %s already exists", entityType, id))
	}

	m.records[entityType][id] = stored

	return id, copyRecord(stored), nil
}

func (m *memoryImpl) Update(ctx context.Context, entityType, id string, changes map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.lookup(entityType, id)
	if err != nil {
		return nil, err
	}

	for field, value := range changes {
		stored[field] = value
	}

	return copyRecord(stored), nil
}

func (m *memoryImpl) Delete(ctx context.Context, entityType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.lookup(entityType, id)
	if err != nil {
		return err
	}

	delete(m.records[entityType], id)

	return nil
}

func (m *memoryImpl) Get(ctx context.Context, entityType, id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, err := m.lookup(entityType, id)
	if err != nil {
		return nil, err
	}

	return copyRecord(stored), nil
}

func (m *memoryImpl) List(ctx context.Context, entityType string, filter map[string][]string) ([]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.resources[entityType]; !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("unknown entity type %s", entityType))
	}

	expanded := map[string][]string{}
	for field, values := range filter {
		expanded[field] = splitAlternatives(values)
	}

	found := make([]map[string]any, 0, len(m.records[entityType]))
	for _, stored := range m.records[entityType] {
		if matches(stored, expanded) {
			found = append(found, copyRecord(stored))
		}
	}

	// map iteration order is random, keep responses stable
	key := m.resources[entityType].Key
	sort.Slice(found, func(i, j int) bool {
		return fmt.Sprint(found[i][key]) < fmt.Sprint(found[j][key])
	})

	return found, nil
}

func (m *memoryImpl) lookup(entityType, id string) (map[string]any, error) {
	byID, ok := m.records[entityType]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("unknown entity type %s", entityType))
	}

	stored, ok := byID[id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no %s with id %s", entityType, id))
	}

	return stored, nil
}

func copyRecord(record map[string]any) map[string]any {
	c := make(map[string]any, len(record))
	for field, value := range record {
		c[field] = copyValue(value)
	}
	return c
}

func copyValue(value any) any {
	switch t := value.(type) {
	case map[string]any:
		return copyRecord(t)
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = copyValue(e)
		}
		return c
	}
	return value
}
