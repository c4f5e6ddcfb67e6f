package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"minetrack/internal/domain"
)

// Config models minetrack.yml.
type Config struct {
	Site struct {
		Name string `yaml:"name" json:"name"`
	} `yaml:"site" json:"site"`
	Log struct {
		Level  string `yaml:"level" json:"level"`
		Format string `yaml:"format" json:"format"`
	} `yaml:"log" json:"log"`
	Server struct {
		Addr     string        `yaml:"addr" json:"addr"`
		BasePath string        `yaml:"base_path" json:"base_path"`
		TokenTTL time.Duration `yaml:"token_ttl" json:"token_ttl"`
	} `yaml:"server" json:"server"`
	Ledger struct {
		SingleOpenPerEquipment bool `yaml:"single_open_per_equipment" json:"single_open_per_equipment"`
	} `yaml:"ledger" json:"ledger"`
	Seed struct {
		Equipment []SeedEquipment `yaml:"equipment" json:"equipment"`
	} `yaml:"seed" json:"seed"`
}

type SeedEquipment struct {
	ID               string `yaml:"id" json:"id"`
	Name             string `yaml:"name" json:"name"`
	MachineType      string `yaml:"machine_type" json:"machine_type"`
	Section          string `yaml:"section" json:"section"`
	Status           string `yaml:"status" json:"status"`
	SerialNumber     string `yaml:"serial_number,omitempty" json:"serial_number,omitempty"`
	InstallationDate string `yaml:"installation_date,omitempty" json:"installation_date,omitempty"`
	LastMaintenance  string `yaml:"last_maintenance,omitempty" json:"last_maintenance,omitempty"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config.log.format must be 'json' or 'console'")
	}
	if c.Server.TokenTTL <= 0 {
		return fmt.Errorf("config.server.token_ttl must be positive")
	}
	if len(c.Seed.Equipment) == 0 {
		return fmt.Errorf("config.seed.equipment is required")
	}
	ids := map[string]bool{}
	for i, eq := range c.Seed.Equipment {
		if eq.ID == "" {
			return fmt.Errorf("seed equipment %d has empty id", i)
		}
		if ids[eq.ID] {
			return fmt.Errorf("seed equipment id %s is duplicated", eq.ID)
		}
		ids[eq.ID] = true
		if eq.Name == "" {
			return fmt.Errorf("seed equipment %s has empty name", eq.ID)
		}
		if !domain.EquipmentStatus(eq.Status).Valid() {
			return fmt.Errorf("seed equipment %s has invalid status %q", eq.ID, eq.Status)
		}
	}
	return nil
}

// SeedRegistry returns the registry used when no equipment has been persisted.
func (c *Config) SeedRegistry() []domain.Equipment {
	out := make([]domain.Equipment, 0, len(c.Seed.Equipment))
	for _, s := range c.Seed.Equipment {
		out = append(out, domain.Equipment{
			ID:               s.ID,
			Name:             s.Name,
			MachineType:      s.MachineType,
			Section:          s.Section,
			Location:         s.Section,
			Status:           domain.EquipmentStatus(s.Status),
			SerialNumber:     s.SerialNumber,
			InstallationDate: s.InstallationDate,
			LastMaintenance:  s.LastMaintenance,
		})
	}
	return out
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "minetrack.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(siteName string) string {
	return fmt.Sprintf(defaultTemplate, siteName)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(GenerateDefault("Mine"))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing from
// data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	seed := cfg.Seed.Equipment
	cfg.Seed.Equipment = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if cfg.Seed.Equipment == nil {
		cfg.Seed.Equipment = seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `site:
  name: %s

log:
  level: info
  format: console

server:
  addr: 127.0.0.1:8080
  base_path: /v0
  token_ttl: 12h

ledger:
  single_open_per_equipment: false

seed:
  equipment:
    - {id: "1", name: LHD 201, machine_type: LHD, section: Canaan, status: running}
    - {id: "2", name: LHD 202, machine_type: LHD, section: Eureka, status: running}
    - {id: "3", name: Drill Rig 101, machine_type: Drill Rig, section: Rockets, status: down}
    - {id: "4", name: Bolter 301, machine_type: Bolter, section: Canaan, status: running}
    - {id: "5", name: Truck 401, machine_type: Truck, section: Eureka, status: idle}
    - {id: "6", name: Grader 501, machine_type: Grader, section: Rockets, status: under_repair}
    - {id: "7", name: LHD 203, machine_type: LHD, section: Canaan, status: running}
    - {id: "8", name: Utility 601, machine_type: Utility Vehicle, section: Eureka, status: running}
`
