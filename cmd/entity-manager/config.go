package main

import (
	"io"

	"github.com/diwise/entity-manager/internal/pkg/infrastructure/storage"
	yaml "gopkg.in/yaml.v2"
)

type ResourceConfig struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

type Config struct {
	Resources []ResourceConfig `yaml:"resources"`
}

func (c *Config) StorageResources() []storage.Resource {
	resources := make([]storage.Resource, 0, len(c.Resources))

	for _, r := range c.Resources {
		key := r.Key
		if key == "" {
			key = "id"
		}

		resources = append(resources, storage.Resource{Name: r.Name, Key: key})
	}

	return resources
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)

	return cfg, err
}
