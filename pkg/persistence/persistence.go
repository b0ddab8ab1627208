package persistence

import (
	"context"
	"fmt"

	"github.com/diwise/entity-manager/pkg/backend"
	"github.com/diwise/entity-manager/pkg/entities"
)

// ErrNoPrimaryKey is returned when an operation needs the primary key of
// an entity type that has been configured without one. This is a
// configuration error, not a data error.
var ErrNoPrimaryKey = fmt.Errorf("no primary key configured")

// Manager orchestrates persistence for a single entity type: it decides
// between insert, update, delete and no-op from the state of an entity
// instance, invokes the backend, and re-synchronizes the instance from
// the backend response.
type Manager struct {
	backend    backend.Backend
	entityName string
	keyName    string
	decorators []entities.EntityDecoratorFunc
}

func NewManager(b backend.Backend, entityName string, decorators ...entities.EntityDecoratorFunc) *Manager {
	// a transient instance gives us the configured key name
	proto := entities.New(entityName, decorators...)

	return &Manager{
		backend:    b,
		entityName: entityName,
		keyName:    proto.KeyName(),
		decorators: decorators,
	}
}

// New builds an entity from caller supplied data. It is not yet known to
// the backend.
func (m *Manager) New(record map[string]any) *entities.Entity {
	decorators := append([]entities.EntityDecoratorFunc{}, m.decorators...)
	decorators = append(decorators, entities.From(record))

	return entities.New(m.entityName, decorators...)
}

// materialize builds a clean entity from a backend returned record.
func (m *Manager) materialize(record backend.Record) *entities.Entity {
	decorators := append([]entities.EntityDecoratorFunc{}, m.decorators...)
	decorators = append(decorators, entities.Loaded(), entities.From(record))

	return entities.New(m.entityName, decorators...)
}

// Save persists the entity. A new entity is inserted with all of its
// attributes, an existing entity is updated with its changed attributes
// only, and an existing entity without changes is a no-op that performs
// no backend call at all.
func (m *Manager) Save(ctx context.Context, e *entities.Entity) error {
	if !e.Exists() {
		return m.insert(ctx, e)
	}

	if !e.IsDirty() {
		return nil
	}

	return m.update(ctx, e)
}

func (m *Manager) insert(ctx context.Context, e *entities.Entity) error {
	record, err := m.backend.Create(ctx, m.entityName, e.ToRecord())
	if err != nil {
		return err
	}

	e.Fill(record)
	e.MarkCreated()
	e.SyncOriginal()

	return nil
}

func (m *Manager) update(ctx context.Context, e *entities.Entity) error {
	record, err := m.backend.Update(ctx, m.entityName, e.ID(), e.Dirty())
	if err != nil {
		return err
	}

	e.Fill(record)
	e.SyncChanges()
	e.SyncOriginal()

	return nil
}

// Update fills the entity with the supplied record and saves it. It is a
// convenience composite, not a distinct primitive.
func (m *Manager) Update(ctx context.Context, e *entities.Entity, record map[string]any) error {
	e.Fill(record)
	return m.Save(ctx, e)
}

// Delete removes the entity from the backend. Deleting an entity that was
// never persisted is defined behavior and reports false without calling
// the backend. The entity is only marked as deleted after the backend has
// confirmed the call.
func (m *Manager) Delete(ctx context.Context, e *entities.Entity) (bool, error) {
	if m.keyName == "" {
		return false, ErrNoPrimaryKey
	}

	if !e.Exists() {
		return false, nil
	}

	err := m.backend.Delete(ctx, m.entityName, e.ID())
	if err != nil {
		return false, err
	}

	e.MarkDeleted()

	return true, nil
}

// Find fetches one entity by primary key.
func (m *Manager) Find(ctx context.Context, id any) (*entities.Entity, error) {
	record, err := m.backend.Get(ctx, m.entityName, id)
	if err != nil {
		return nil, err
	}

	return m.materialize(record), nil
}

// FindMany normalizes a find by a sequence of identifiers into a filter
// on the primary key. It is not a batch get.
func (m *Manager) FindMany(ctx context.Context, ids []any) ([]*entities.Entity, error) {
	if m.keyName == "" {
		return nil, ErrNoPrimaryKey
	}

	return m.Where(ctx, map[string]any{m.keyName: ids})
}

// Where fetches all entities matching a flat field equality filter.
func (m *Manager) Where(ctx context.Context, filter map[string]any) ([]*entities.Entity, error) {
	records, err := m.backend.List(ctx, m.entityName, filter)
	if err != nil {
		return nil, err
	}

	found := make([]*entities.Entity, 0, len(records))
	for _, record := range records {
		found = append(found, m.materialize(record))
	}

	return found, nil
}

// All fetches every entity of this type.
func (m *Manager) All(ctx context.Context) ([]*entities.Entity, error) {
	return m.Where(ctx, map[string]any{})
}

// FindByRouteValue resolves an entity from a value bound in a route. The
// route key defaults to the primary key, so this is Find by another name.
func (m *Manager) FindByRouteValue(ctx context.Context, value any) (*entities.Entity, error) {
	return m.Find(ctx, value)
}
