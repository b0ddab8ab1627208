package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/diwise/entity-manager/pkg/backend"
	backenderrors "github.com/diwise/entity-manager/pkg/backend/errors"
	"github.com/diwise/entity-manager/pkg/backend/test"
	"github.com/diwise/entity-manager/pkg/entities"

	"github.com/matryer/is"
)

func TestSaveInsertsNewEntities(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device")
	e := m.New(map[string]any{"name": "thermometer"})

	err := m.Save(context.Background(), e)

	is.NoErr(err)
	is.Equal(len(b.CreateCalls()), 1)
	is.Equal(b.CreateCalls()[0].EntityName, "device")
	is.Equal(b.CreateCalls()[0].Attributes, backend.Record{"name": "thermometer"})

	is.True(e.Exists())
	is.True(e.WasRecentlyCreated())
	is.True(!e.IsDirty())
	is.Equal(e.ID(), "device-01")
}

func TestSaveOnCleanEntityIsANoOp(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device")
	e := m.New(map[string]any{"name": "thermometer"})

	is.NoErr(m.Save(context.Background(), e))
	is.NoErr(m.Save(context.Background(), e))

	is.Equal(len(b.CreateCalls()), 1)
	is.Equal(len(b.UpdateCalls()), 0)
}

func TestSaveSendsOnlyDirtyAttributes(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device")
	e, err := m.Find(context.Background(), "device-01")
	is.NoErr(err)

	e.Set("status", "closed")
	err = m.Save(context.Background(), e)

	is.NoErr(err)
	is.Equal(len(b.UpdateCalls()), 1)
	is.Equal(b.UpdateCalls()[0].ID, "device-01")
	is.Equal(b.UpdateCalls()[0].Changes, backend.Record{"status": "closed"})

	is.True(!e.IsDirty())
	is.Equal(e.Changes()["status"], "closed")
	is.True(!e.WasRecentlyCreated())
}

func TestFailedUpdateLeavesEntityDirty(t *testing.T) {
	is, b := setup(t)
	b.UpdateFunc = func(ctx context.Context, entityName string, id any, changes backend.Record) (backend.Record, error) {
		return nil, backenderrors.NewBadRequestError("validation failed")
	}

	m := NewManager(b, "device")
	e, err := m.Find(context.Background(), "device-01")
	is.NoErr(err)

	e.Set("status", "closed")
	err = m.Save(context.Background(), e)

	is.True(errors.Is(err, backenderrors.ErrBadRequest))

	// the mutation is kept, only the baseline stays unsynchronized
	is.Equal(e.Get("status"), "closed")
	is.True(e.IsDirty("status"))
}

func TestUpdateIsFillThenSave(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device")
	e, err := m.Find(context.Background(), "device-01")
	is.NoErr(err)

	err = m.Update(context.Background(), e, map[string]any{"status": "closed"})

	is.NoErr(err)
	is.Equal(len(b.UpdateCalls()), 1)
	is.Equal(b.UpdateCalls()[0].Changes, backend.Record{"status": "closed"})
}

func TestUpdateWithUnchangedValuesPerformsNoBackendCall(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device")
	e, err := m.Find(context.Background(), "device-01")
	is.NoErr(err)

	err = m.Update(context.Background(), e, map[string]any{"status": "open"})

	is.NoErr(err)
	is.Equal(len(b.UpdateCalls()), 0)
}

func TestDeleteOnNewEntityIsANoOp(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device")
	e := m.New(map[string]any{"name": "thermometer"})

	deleted, err := m.Delete(context.Background(), e)

	is.NoErr(err)
	is.True(!deleted)
	is.Equal(len(b.DeleteCalls()), 0)
}

func TestDeleteWithoutConfiguredKeyFails(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device", entities.Key(""))
	e, err := m.Find(context.Background(), "device-01")
	is.NoErr(err)

	_, err = m.Delete(context.Background(), e)

	is.True(errors.Is(err, ErrNoPrimaryKey))
	is.Equal(len(b.DeleteCalls()), 0)
}

func TestDelete(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device")
	e, err := m.Find(context.Background(), "device-01")
	is.NoErr(err)

	deleted, err := m.Delete(context.Background(), e)

	is.NoErr(err)
	is.True(deleted)
	is.Equal(len(b.DeleteCalls()), 1)
	is.True(!e.Exists())
}

func TestFailedDeleteKeepsEntityAlive(t *testing.T) {
	is, b := setup(t)
	b.DeleteFunc = func(ctx context.Context, entityName string, id any) error {
		return backenderrors.NewNotFoundError("gone already")
	}

	m := NewManager(b, "device")
	e, err := m.Find(context.Background(), "device-01")
	is.NoErr(err)

	deleted, err := m.Delete(context.Background(), e)

	is.True(errors.Is(err, backenderrors.ErrNotFound))
	is.True(!deleted)
	is.True(e.Exists())
}

func TestFindMaterializesCleanEntities(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device")
	e, err := m.Find(context.Background(), "device-01")

	is.NoErr(err)
	is.True(e.Exists())
	is.True(!e.WasRecentlyCreated())
	is.True(!e.IsDirty())
	is.Equal(e.Get("status"), "open")
}

func TestFindManyNormalizesToAKeyFilter(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device")
	ids := []any{"device-01", "device-02", "device-03"}

	fromFindMany, err := m.FindMany(context.Background(), ids)
	is.NoErr(err)

	fromWhere, err := m.Where(context.Background(), map[string]any{"id": ids})
	is.NoErr(err)

	is.Equal(len(b.ListCalls()), 2)
	is.Equal(b.ListCalls()[0].Filter, b.ListCalls()[1].Filter)
	is.Equal(b.ListCalls()[0].Filter, backend.Record{"id": ids})

	is.Equal(len(fromFindMany), len(fromWhere))
	is.Equal(fromFindMany[0].ID(), fromWhere[0].ID())
}

func TestAllPassesAnEmptyFilter(t *testing.T) {
	is, b := setup(t)

	found, err := NewManager(b, "device").All(context.Background())

	is.NoErr(err)
	is.Equal(len(found), 2)
	is.Equal(len(b.ListCalls()), 1)
	is.Equal(len(b.ListCalls()[0].Filter), 0)
}

func TestFindByRouteValue(t *testing.T) {
	is, b := setup(t)

	m := NewManager(b, "device")
	e, err := m.FindByRouteValue(context.Background(), "device-01")

	is.NoErr(err)
	is.Equal(len(b.GetCalls()), 1)
	is.Equal(e.ID(), "device-01")
}

func TestRelationsSurviveTheFullLifecycle(t *testing.T) {
	is, b := setup(t)
	b.GetFunc = func(ctx context.Context, entityName string, id any) (backend.Record, error) {
		return backend.Record{
			"id":     "device-01",
			"status": "open",
			"sensors": []any{
				map[string]any{"id": "s-1"},
				map[string]any{"id": "s-2"},
			},
		}, nil
	}

	m := NewManager(b, "device", entities.HasMany("sensors"))
	e, err := m.Find(context.Background(), "device-01")
	is.NoErr(err)

	children, ok := e.Relations("sensors")
	is.True(ok)
	is.Equal(len(children), 2)
	is.True(!e.Has("sensors"))
	is.True(!e.IsDirty())

	e.Set("status", "closed")
	is.NoErr(m.Save(context.Background(), e))

	// the update payload must not contain the hydrated relation
	is.Equal(b.UpdateCalls()[0].Changes, backend.Record{"status": "closed"})
}

func setup(t *testing.T) (*is.I, *test.BackendMock) {
	is := is.New(t)

	b := &test.BackendMock{
		CreateFunc: func(ctx context.Context, entityName string, attributes backend.Record) (backend.Record, error) {
			created := backend.Record{"id": "device-01"}
			for k, v := range attributes {
				created[k] = v
			}
			return created, nil
		},
		UpdateFunc: func(ctx context.Context, entityName string, id any, changes backend.Record) (backend.Record, error) {
			updated := backend.Record{"id": id, "status": "open"}
			for k, v := range changes {
				updated[k] = v
			}
			return updated, nil
		},
		DeleteFunc: func(ctx context.Context, entityName string, id any) error {
			return nil
		},
		GetFunc: func(ctx context.Context, entityName string, id any) (backend.Record, error) {
			return backend.Record{"id": id, "status": "open"}, nil
		},
		ListFunc: func(ctx context.Context, entityName string, filter backend.Record) ([]backend.Record, error) {
			return []backend.Record{
				{"id": "device-01", "status": "open"},
				{"id": "device-02", "status": "closed"},
			}, nil
		},
	}

	return is, b
}
