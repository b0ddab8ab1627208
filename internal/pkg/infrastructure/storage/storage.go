package storage

import (
	"context"
	"fmt"
	"strings"
)

// Resource describes one entity type that the service manages: its name
// as it appears in the API path, and the attribute that holds its
// primary key.
type Resource struct {
	Name string
	Key  string
}

// Storage persists records per entity type. Create returns the id the
// record ended up with, which may have been assigned by the storage.
// List filters are flat field equality maps where each value may hold
// multiple accepted alternatives.
type Storage interface {
	Create(ctx context.Context, entityType string, record map[string]any) (string, map[string]any, error)
	Update(ctx context.Context, entityType, id string, changes map[string]any) (map[string]any, error)
	Delete(ctx context.Context, entityType, id string) error
	Get(ctx context.Context, entityType, id string) (map[string]any, error)
	List(ctx context.Context, entityType string, filter map[string][]string) ([]map[string]any, error)
}

// matches reports whether a record satisfies every field in the filter.
// Values arrive as strings from the query layer, so scalars compare by
// their string form.
func matches(record map[string]any, filter map[string][]string) bool {
	for field, accepted := range filter {
		value, ok := record[field]
		if !ok {
			return false
		}

		found := false
		for _, candidate := range accepted {
			if fmt.Sprint(value) == candidate {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

// splitAlternatives turns comma joined filter values into the individual
// alternatives they carry. This is the wire form of a find by multiple
// identifiers.
func splitAlternatives(values []string) []string {
	alternatives := make([]string, 0, len(values))

	for _, value := range values {
		alternatives = append(alternatives, strings.Split(value, ",")...)
	}

	return alternatives
}
