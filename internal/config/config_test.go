package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minetrack/internal/config"
	"minetrack/internal/domain"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "/v0", cfg.Server.BasePath)
	assert.Equal(t, 12*time.Hour, cfg.Server.TokenTTL)
	assert.False(t, cfg.Ledger.SingleOpenPerEquipment)

	seed := cfg.SeedRegistry()
	require.Len(t, seed, 8)
	sections := map[string]bool{}
	types := map[string]bool{}
	for _, eq := range seed {
		sections[eq.Section] = true
		types[eq.MachineType] = true
		assert.Equal(t, eq.Section, eq.Location)
	}
	assert.Len(t, sections, 3)
	assert.Len(t, types, 6)
	assert.Equal(t, domain.Equipment{
		ID: "3", Name: "Drill Rig 101", MachineType: "Drill Rig", Section: "Rockets", Location: "Rockets", Status: domain.EquipmentDown,
	}, seed[2])
}

func TestFromYAMLKeepsDefaults(t *testing.T) {
	cfg, err := config.FromYAML([]byte("ledger:\n  single_open_per_equipment: true\nlog:\n  format: json\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Ledger.SingleOpenPerEquipment)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Len(t, cfg.Seed.Equipment, 8)
}

func TestFromYAMLReplacesSeed(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`seed:
  equipment:
    - {id: "x1", name: Scaler 9, machine_type: Scaler, section: North, status: idle}
`))
	require.NoError(t, err)
	require.Len(t, cfg.SeedRegistry(), 1)
	assert.Equal(t, domain.EquipmentIdle, cfg.SeedRegistry()[0].Status)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"bad level":    "log:\n  level: loud\n",
		"bad format":   "log:\n  format: xml\n",
		"bad ttl":      "server:\n  token_ttl: -1h\n",
		"empty seed":   "seed:\n  equipment: []\n",
		"dup id":       "seed:\n  equipment:\n    - {id: a, name: A, status: running}\n    - {id: a, name: B, status: running}\n",
		"empty name":   "seed:\n  equipment:\n    - {id: a, status: running}\n",
		"bad status":   "seed:\n  equipment:\n    - {id: a, name: A, status: broken}\n",
		"invalid yaml": "log: [\n",
		"missing id":   "seed:\n  equipment:\n    - {name: A, status: running}\n",
	}
	for name, doc := range cases {
		_, err := config.FromYAML([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, "Mine", cfg.Site.Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "minetrack.yml"), []byte(config.GenerateDefault("Rockets Shaft")), 0o644))
	cfg, err = config.LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, "Rockets Shaft", cfg.Site.Name)
	assert.Equal(t, config.Path(dir), filepath.Join(dir, "minetrack.yml"))
}
