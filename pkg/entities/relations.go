package entities

// registry keeps related entities keyed by relation name. A relation is
// either a single entity or an ordered collection, and its values are
// never reachable through the attribute store.
type registry struct {
	relations map[string]any
}

func newRegistry() *registry {
	return &registry{
		relations: map[string]any{},
	}
}

func (r *registry) set(name string, value any) {
	r.relations[name] = value
}

func (r *registry) one(name string) (*Entity, bool) {
	related, ok := r.relations[name].(*Entity)
	return related, ok
}

func (r *registry) many(name string) ([]*Entity, bool) {
	related, ok := r.relations[name].([]*Entity)
	return related, ok
}
