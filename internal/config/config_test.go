package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveThenLoad(t *testing.T) {
	cfg := Default()
	cfg.Billing.Recognition = RecognizeOnPayment
	cfg.Scheduler.RunAt = "02:30"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	h, m, err := got.Scheduler.Clock()
	require.NoError(t, err)
	assert.Equal(t, 2, h)
	assert.Equal(t, 30, m)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	got, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), got)

	tol, err := got.Depreciation.ToleranceValue()
	require.NoError(t, err)
	assert.True(t, tol.Equal(decimal.RequireFromString("0.01")))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PROJECTLEDGER_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("PROJECTLEDGER_BILLING_RECOGNITION", "on_payment")

	got, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", got.Database.Path)
	assert.Equal(t, RecognizeOnPayment, got.Billing.Recognition)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"policy":    "billing:\n  recognition: whenever\n",
		"tolerance": "depreciation:\n  tolerance: lots\n",
		"clock":     "scheduler:\n  run_at: \"25:99\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(viper.New(), path)
			assert.Error(t, err)
		})
	}
}
