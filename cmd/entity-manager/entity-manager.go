package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/diwise/entity-manager/internal/pkg/infrastructure/router"
	"github.com/diwise/entity-manager/internal/pkg/infrastructure/storage"
	"github.com/diwise/entity-manager/internal/pkg/presentation/api"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

const (
	appName string = "entity-manager"
)

func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	resourcesPath := env.GetVariableOrDefault(ctx, "RESOURCES_FILE", "/opt/diwise/config/resources.yaml")
	policiesPath := env.GetVariableOrDefault(ctx, "POLICIES_FILE", "/opt/diwise/config/authz.rego")

	cfg, err := loadResources(resourcesPath)
	if err != nil {
		log.Error("failed to load resource configuration", "err", err.Error())
		os.Exit(1)
	}

	store, err := newStorage(ctx, cfg.StorageResources())
	if err != nil {
		log.Error("failed to initialize storage", "err", err.Error())
		os.Exit(1)
	}

	policies, err := os.Open(policiesPath)
	if err != nil {
		log.Error("failed to open authorization policies", "err", err.Error())
		os.Exit(1)
	}
	defer policies.Close()

	r := router.New(appName)

	err = api.RegisterHandlers(ctx, r, policies, store)
	if err != nil {
		log.Error("failed to register handlers", "err", err.Error())
		os.Exit(1)
	}

	port := env.GetVariableOrDefault(ctx, "SERVICE_PORT", "8080")
	log.Info("starting to listen for connections", "port", port)

	err = http.ListenAndServe(":"+port, r)
	if err != nil {
		log.Error("failed to listen for connections", "err", err.Error())
		os.Exit(1)
	}
}

func loadResources(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadConfiguration(f)
}

func newStorage(ctx context.Context, resources []storage.Resource) (storage.Storage, error) {
	driver := env.GetVariableOrDefault(ctx, "STORAGE_DRIVER", "memory")

	switch driver {
	case "memory":
		return storage.NewMemoryStorage(resources), nil
	case "postgres":
		return storage.NewPostgresStorage(ctx, loadPostgresConfig(ctx), resources)
	}

	return nil, fmt.Errorf("unknown storage driver %s", driver)
}

func loadPostgresConfig(ctx context.Context) storage.ConnectionConfig {
	return storage.ConnectionConfig{
		Host:     env.GetVariableOrDefault(ctx, "POSTGRES_HOST", ""),
		User:     env.GetVariableOrDefault(ctx, "POSTGRES_USER", ""),
		Password: env.GetVariableOrDefault(ctx, "POSTGRES_PASSWORD", ""),
		Port:     env.GetVariableOrDefault(ctx, "POSTGRES_PORT", "5432"),
		DBName:   env.GetVariableOrDefault(ctx, "POSTGRES_DBNAME", "diwise"),
		SSLMode:  env.GetVariableOrDefault(ctx, "POSTGRES_SSLMODE", "disable"),
	}
}
