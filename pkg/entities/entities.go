package entities

import (
	"encoding/json"
	"fmt"

	"github.com/diwise/entity-manager/pkg/entities/attributes"
)

const DefaultKeyName string = "id"

var ErrSerialization = fmt.Errorf("serialization error")

type EntityDecoratorFunc func(e *Entity)

// Entity is the in process representation of a single remote resource
// record. Attribute values are kept in a store that tracks changes against
// the last backend confirmed state, and nested related entities are kept
// in a separate registry so that they never leak into the attributes.
type Entity struct {
	entityName string
	keyName    string

	store     *attributes.Store
	relations *registry
	declared  map[string][]EntityDecoratorFunc

	exists          bool
	recentlyCreated bool
}

func New(entityName string, decorators ...EntityDecoratorFunc) *Entity {
	e := &Entity{
		entityName: entityName,
		keyName:    DefaultKeyName,
		store:      attributes.NewStore(),
		relations:  newRegistry(),
		declared:   map[string][]EntityDecoratorFunc{},
	}

	for _, decorator := range decorators {
		decorator(e)
	}

	return e
}

func NewFromJSON(entityName string, body []byte, decorators ...EntityDecoratorFunc) (*Entity, error) {
	record := map[string]any{}

	err := json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}

	return New(entityName, append(decorators, From(record))...), nil
}

// Key overrides the name of the primary key attribute. An empty name
// leaves the entity without a configured key.
func Key(name string) EntityDecoratorFunc {
	return func(e *Entity) {
		e.keyName = name
	}
}

// HasMany declares that the named attribute holds a collection of related
// entities. When a fill encounters a sequence of records under that name
// the records are hydrated into child entities instead of being stored as
// an attribute value. The supplied decorators configure each child.
func HasMany(name string, decorators ...EntityDecoratorFunc) EntityDecoratorFunc {
	return func(e *Entity) {
		e.declared[name] = decorators
	}
}

// Loaded marks the entity as known to exist on the backend.
func Loaded() EntityDecoratorFunc {
	return func(e *Entity) {
		e.exists = true
	}
}

// From performs the construction time fill and syncs the baseline so that
// a freshly built entity starts out clean.
func From(record map[string]any) EntityDecoratorFunc {
	return func(e *Entity) {
		e.Fill(record)
		e.store.SyncOriginal()
	}
}

func (e *Entity) EntityName() string {
	return e.entityName
}

func (e *Entity) KeyName() string {
	return e.keyName
}

// ID returns the value of the primary key attribute, or nil when no key
// is configured or the attribute is unset.
func (e *Entity) ID() any {
	if e.keyName == "" {
		return nil
	}
	return e.store.Get(e.keyName)
}

func (e *Entity) Exists() bool {
	return e.exists
}

// WasRecentlyCreated reports whether this instance performed the insert
// that created the record. It is set by a successful insert only and is
// never cleared by later updates or deletes.
func (e *Entity) WasRecentlyCreated() bool {
	return e.recentlyCreated
}

// Fill assigns the key value pairs of a record to the entity. A sequence
// of records under a declared relation name is hydrated into child
// entities, everything else is stored as a scalar attribute.
func (e *Entity) Fill(record map[string]any) {
	for name, value := range record {
		if children, ok := e.asRelatedRecords(name, value); ok {
			e.relations.set(name, e.hydrate(name, children))
			continue
		}

		e.store.Set(name, value)
	}
}

func (e *Entity) asRelatedRecords(name string, value any) ([]map[string]any, bool) {
	if _, declared := e.declared[name]; !declared {
		return nil, false
	}

	seq, ok := value.([]any)
	if !ok || len(seq) == 0 {
		return nil, false
	}

	records := make([]map[string]any, 0, len(seq))
	for _, element := range seq {
		record, ok := element.(map[string]any)
		if !ok {
			return nil, false
		}
		records = append(records, record)
	}

	return records, true
}

// hydrate builds one child entity per record. Children arrive as nested
// backend state, so they are created as already existing and clean.
func (e *Entity) hydrate(name string, records []map[string]any) []*Entity {
	children := make([]*Entity, 0, len(records))

	for _, record := range records {
		decorators := append([]EntityDecoratorFunc{}, e.declared[name]...)
		decorators = append(decorators, Loaded(), From(record))
		children = append(children, New(name, decorators...))
	}

	return children
}

func (e *Entity) Set(name string, value any) {
	e.store.Set(name, value)
}

func (e *Entity) Get(name string) any {
	return e.store.Get(name)
}

func (e *Entity) Has(name string) bool {
	return e.store.Has(name)
}

func (e *Entity) Remove(name string) {
	e.store.Remove(name)
}

func (e *Entity) IsDirty(names ...string) bool {
	return e.store.IsDirty(names...)
}

func (e *Entity) Dirty() map[string]any {
	return e.store.Dirty()
}

func (e *Entity) Changes() map[string]any {
	return e.store.Changes()
}

func (e *Entity) SetRelation(name string, related *Entity) {
	e.relations.set(name, related)
}

func (e *Entity) SetRelations(name string, related []*Entity) {
	e.relations.set(name, related)
}

func (e *Entity) Relation(name string) (*Entity, bool) {
	return e.relations.one(name)
}

func (e *Entity) Relations(name string) ([]*Entity, bool) {
	return e.relations.many(name)
}

// ToRecord returns the scalar attributes of the entity. Relations are not
// embedded.
func (e *Entity) ToRecord() map[string]any {
	return e.store.All()
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	contents := e.ToRecord()
	return json.Marshal(&contents)
}

// Bytes serializes the entity to JSON. Values that the encoder can not
// represent surface as a serialization error carrying the encoder
// diagnostic.
func (e *Entity) Bytes() ([]byte, error) {
	b, err := e.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity %s: %s (%w)", e.entityName, err.Error(), ErrSerialization)
	}

	return b, nil
}

// SyncOriginal replaces the baseline snapshot with the current attributes.
// The persistence layer calls this after the construction time fill and
// after each confirmed insert or update.
func (e *Entity) SyncOriginal() {
	e.store.SyncOriginal()
}

func (e *Entity) SyncChanges() {
	e.store.SyncChanges()
}

// MarkCreated flags a confirmed insert.
func (e *Entity) MarkCreated() {
	e.exists = true
	e.recentlyCreated = true
}

// MarkDeleted flags a confirmed delete. The in memory instance stays
// usable, it is simply no longer known to exist on the backend.
func (e *Entity) MarkDeleted() {
	e.exists = false
}
