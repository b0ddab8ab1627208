package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/diwise/entity-manager/pkg/backend/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConnectionConfig struct {
	Host     string
	User     string
	Password string
	Port     string
	DBName   string
	SSLMode  string
}

func (c ConnectionConfig) ConnStr() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type postgresImpl struct {
	pool      *pgxpool.Pool
	resources map[string]Resource
}

// NewPostgresStorage connects to the database and makes sure the record
// table exists.
func NewPostgresStorage(ctx context.Context, cfg ConnectionConfig, resources []Resource) (Storage, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	err = pool.Ping(ctx)
	if err != nil {
		return nil, err
	}

	sql := `
		CREATE TABLE IF NOT EXISTS records (
			entity_type TEXT NOT NULL,
			entity_id 	TEXT NOT NULL,
			data 		JSONB NOT NULL,
			PRIMARY KEY (entity_type, entity_id)
		);`

	_, err = pool.Exec(ctx, sql)
	if err != nil {
		return nil, err
	}

	impl := &postgresImpl{
		pool:      pool,
		resources: map[string]Resource{},
	}

	for _, r := range resources {
		impl.resources[r.Name] = r
	}

	return impl, nil
}

func (p *postgresImpl) Create(ctx context.Context, entityType string, record map[string]any) (string, map[string]any, error) {
	resource, ok := p.resources[entityType]
	if !ok {
		return "", nil, errors.NewNotFoundError(fmt.Sprintf("unknown entity type %s", entityType))
	}

	stored := copyRecord(record)

	id := fmt.Sprint(stored[resource.Key])
	if stored[resource.Key] == nil || id == "" {
		id = uuid.NewString()
		stored[resource.Key] = id
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return "", nil, err
	}

	sql := `INSERT INTO records (entity_type, entity_id, data) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING;`

	tag, err := p.pool.Exec(ctx, sql, entityType, id, data)
	if err != nil {
		return "", nil, err
	}

	if tag.RowsAffected() == 0 {
		return "", nil, errors.NewAlreadyExistsError(fmt.Sprintf("%s %s already exists", entityType, id))
	}

	return id, stored, nil
}

func (p *postgresImpl) Update(ctx context.Context, entityType, id string, changes map[string]any) (map[string]any, error) {
	stored, err := p.Get(ctx, entityType, id)
	if err != nil {
		return nil, err
	}

	for field, value := range changes {
		stored[field] = value
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}

	sql := `UPDATE records SET data=$3 WHERE entity_type=$1 AND entity_id=$2;`

	_, err = p.pool.Exec(ctx, sql, entityType, id, data)
	if err != nil {
		return nil, err
	}

	return stored, nil
}

func (p *postgresImpl) Delete(ctx context.Context, entityType, id string) error {
	sql := `DELETE FROM records WHERE entity_type=$1 AND entity_id=$2;`

	tag, err := p.pool.Exec(ctx, sql, entityType, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("no %s with id %s", entityType, id))
	}

	return nil
}

func (p *postgresImpl) Get(ctx context.Context, entityType, id string) (map[string]any, error) {
	sql := `SELECT data FROM records WHERE entity_type=$1 AND entity_id=$2;`

	var data []byte
	err := p.pool.QueryRow(ctx, sql, entityType, id).Scan(&data)

	if err == pgx.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no %s with id %s", entityType, id))
	}

	if err != nil {
		return nil, err
	}

	record := map[string]any{}
	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (p *postgresImpl) List(ctx context.Context, entityType string, filter map[string][]string) ([]map[string]any, error) {
	if _, ok := p.resources[entityType]; !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("unknown entity type %s", entityType))
	}

	sql := `SELECT data FROM records WHERE entity_type=$1 ORDER BY entity_id;`

	rows, err := p.pool.Query(ctx, sql, entityType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expanded := map[string][]string{}
	for field, values := range filter {
		expanded[field] = splitAlternatives(values)
	}

	found := make([]map[string]any, 0)

	for rows.Next() {
		var data []byte
		err := rows.Scan(&data)
		if err != nil {
			return nil, err
		}

		record := map[string]any{}
		err = json.Unmarshal(data, &record)
		if err != nil {
			return nil, err
		}

		if matches(record, expanded) {
			found = append(found, record)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return found, nil
}
