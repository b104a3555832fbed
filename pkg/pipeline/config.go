package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/iziplay/rodb/pkg/assets"
	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable holding an optional YAML path table
const ConfigEnv = "RODB_PIPELINE_CONFIG"

// ItemSources are the inputs of the item collection
type ItemSources struct {
	Dump          string `yaml:"dump"`
	Names         string `yaml:"names"`
	Descriptions  string `yaml:"descriptions"`
	Icons         string `yaml:"icons"`
	Illustrations string `yaml:"illustrations"`
}

// MobSources are the inputs of the mob collection. Names is an optional
// display name table and an empty LookupURL disables the external sprite
// lookup.
type MobSources struct {
	Dump        string        `yaml:"dump"`
	Names       string        `yaml:"names"`
	Sprites     string        `yaml:"sprites"`
	LookupURL   string        `yaml:"lookup_url"`
	LookupDelay time.Duration `yaml:"lookup_delay"`
}

// Config is the path table of a pipeline run
type Config struct {
	Output     string      `yaml:"output"`
	BatchSize  int         `yaml:"batch_size"`
	SortAssets bool        `yaml:"sort_assets"`
	Items      ItemSources `yaml:"items"`
	Mobs       MobSources  `yaml:"mobs"`
}

// DefaultConfig lays the inputs out under ./data and writes to ./public/data
func DefaultConfig() *Config {
	return &Config{
		Output:    "public/data",
		BatchSize: assets.DefaultBatchSize,
		Items: ItemSources{
			Dump:          "data/item_db.json",
			Names:         "data/idnum2itemdisplaynametable.txt",
			Descriptions:  "data/idnum2itemdesctable.txt",
			Icons:         "data/icons",
			Illustrations: "data/illustrations",
		},
		Mobs: MobSources{
			Dump:        "data/mob_db.json",
			Sprites:     "data/sprites",
			LookupDelay: assets.DefaultLookupDelay,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. Keys absent from the file
// keep their default value.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}
	return cfg, nil
}

// ConfigFromEnv loads the file named by RODB_PIPELINE_CONFIG, if any
func ConfigFromEnv() (*Config, error) {
	return LoadConfig(os.Getenv(ConfigEnv))
}

func (c *Config) batcher() *assets.Batcher {
	return &assets.Batcher{Size: c.BatchSize, Sorted: c.SortAssets}
}
