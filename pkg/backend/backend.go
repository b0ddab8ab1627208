package backend

import "context"

//go:generate moq -rm -out test/backend_mock.go -pkg test . Backend

// Record is one remote resource record: a flat or nested mapping of field
// name to JSON compatible value.
type Record map[string]any

// Backend is the remote API collaborator. The entity name parameterizes
// each call, verbs are fixed. An empty filter passed to List means all
// records of that type. Get fails with errors.ErrNotFound when the record
// is absent.
type Backend interface {
	Create(ctx context.Context, entityName string, attributes Record) (Record, error)
	Update(ctx context.Context, entityName string, id any, changes Record) (Record, error)
	Delete(ctx context.Context, entityName string, id any) error
	Get(ctx context.Context, entityName string, id any) (Record, error)
	List(ctx context.Context, entityName string, filter Record) ([]Record, error)
}

// ResultsCountHeaderName carries the total number of matching records in
// responses to List requests.
const ResultsCountHeaderName string = "X-Results-Count"
