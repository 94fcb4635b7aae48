package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "NIFTY", cfg.BenchmarkSymbol)
	assert.Equal(t, 252, cfg.LookbackDays)
	assert.InDelta(t, 0.06, cfg.RiskFreeRate, 1e-9)
	assert.InDelta(t, 0.95, cfg.VaRConfidence, 1e-9)
	assert.InDelta(t, 0.99, cfg.VaRConfidenceHigh, 1e-9)
	assert.InDelta(t, 0.15, cfg.SingleNameLimit, 1e-9)
	assert.InDelta(t, 0.30, cfg.SectorLimit, 1e-9)
	assert.InDelta(t, 0.40, cfg.MaxAssetWeight, 1e-9)
	assert.Equal(t, 5*time.Minute, cfg.RiskCacheTTL)
	assert.Equal(t, time.Hour, cfg.BehavioralCacheTTL)
	assert.Len(t, cfg.StressScenarios, 5)

	// The documented score weights sum to 1.
	w := cfg.RiskScoreWeights
	sum := w.VaR + w.Shortfall + w.Drawdown + w.Concentration + w.Correlation + w.Liquidity
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RISK_FREE_RATE", "0.07")
	t.Setenv("RISK_CACHE_TTL", "90s")
	t.Setenv("BENCHMARK_SYMBOL", "SENSEX")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.InDelta(t, 0.07, cfg.RiskFreeRate, 1e-9)
	assert.Equal(t, 90*time.Second, cfg.RiskCacheTTL)
	assert.Equal(t, "SENSEX", cfg.BenchmarkSymbol)
}

func TestLoad_ScenarioOverride(t *testing.T) {
	t.Setenv("STRESS_SCENARIOS", `[{"name":"flash_crash","equity_shock":-0.12}]`)

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Len(t, cfg.StressScenarios, 1)
	assert.Equal(t, "flash_crash", cfg.StressScenarios[0].Name)
	assert.InDelta(t, -0.12, cfg.StressScenarios[0].EquityShock, 1e-9)
}

func TestLoad_MalformedScenariosFallBack(t *testing.T) {
	t.Setenv("STRESS_SCENARIOS", "not json")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Len(t, cfg.StressScenarios, 5)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "confidence out of range",
			mutate:  func(c *Config) { c.VaRConfidence = 1.5 },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.DatabasePath = "" },
			wantErr: true,
		},
		{
			name:    "max asset weight above one",
			mutate:  func(c *Config) { c.MaxAssetWeight = 1.2 },
			wantErr: true,
		},
		{
			name:    "empty scenario table",
			mutate:  func(c *Config) { c.StressScenarios = nil },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			assert.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
