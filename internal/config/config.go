package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StressScenario is one named shock applied by the stress test engine.
// The table is data so scenarios can be extended without redeploying logic.
type StressScenario struct {
	Name        string  `json:"name"`
	EquityShock float64 `json:"equity_shock"` // e.g. -0.20 for a 20% drop
}

// RiskWeights is the documented weighting used to combine risk sub-metrics
// into the aggregate 0-10 score.
type RiskWeights struct {
	VaR           float64
	Shortfall     float64
	Drawdown      float64
	Concentration float64
	Correlation   float64
	Liquidity     float64
}

// BiasThresholds holds the per-bias score cutoffs above which a bias flag
// is raised. Hand-tuned heuristics; tunable, not a correctness contract.
type BiasThresholds struct {
	Overconfidence float64
	Revenge        float64
	FOMO           float64
	LossAversion   float64
	Anchoring      float64
	Herding        float64
}

// Config holds application configuration
type Config struct {
	Port     int
	DevMode  bool
	LogLevel string

	DatabasePath string
	HistoryDir   string

	BenchmarkSymbol string
	LookbackDays    int

	// Risk metrics
	RiskFreeRate      float64
	VaRConfidence     float64
	VaRConfidenceHigh float64

	// Concentration / correlation / liquidity
	SingleNameLimit  float64
	SectorLimit      float64
	LiquidityVolume  float64
	DebtSectorShock  float64 // fraction of the equity shock applied to debt/cash-like holdings
	StressScenarios  []StressScenario
	RiskScoreWeights RiskWeights

	// Optimization
	MaxAssetWeight      float64
	DefaultTargetReturn float64
	DefaultMaxVol       float64
	TransactionCostRate float64
	RebalanceThreshold  float64

	// Behavioral analysis
	AnalysisWindowDays int
	BiasThresholds     BiasThresholds

	// Monitor
	RiskCacheTTL       time.Duration
	BehavioralCacheTTL time.Duration
	RefreshSchedule    string
}

// DefaultStressScenarios returns the built-in shock table.
func DefaultStressScenarios() []StressScenario {
	return []StressScenario{
		{Name: "market_crash", EquityShock: -0.20},
		{Name: "sector_rotation", EquityShock: -0.15},
		{Name: "interest_rate_shock", EquityShock: -0.10},
		{Name: "currency_crisis", EquityShock: -0.25},
		{Name: "black_swan", EquityShock: -0.30},
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabasePath: getEnv("DATABASE_PATH", "./data/engine.db"),
		HistoryDir:   getEnv("HISTORY_DIR", "./data/history"),

		BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "NIFTY"),
		LookbackDays:    getEnvAsInt("LOOKBACK_DAYS", 252),

		RiskFreeRate:      getEnvAsFloat("RISK_FREE_RATE", 0.06),
		VaRConfidence:     getEnvAsFloat("VAR_CONFIDENCE", 0.95),
		VaRConfidenceHigh: getEnvAsFloat("VAR_CONFIDENCE_HIGH", 0.99),

		SingleNameLimit: getEnvAsFloat("SINGLE_NAME_LIMIT", 0.15),
		SectorLimit:     getEnvAsFloat("SECTOR_LIMIT", 0.30),
		LiquidityVolume: getEnvAsFloat("LIQUIDITY_VOLUME_THRESHOLD", 100000),
		DebtSectorShock: getEnvAsFloat("DEBT_SHOCK_FRACTION", 0.20),
		StressScenarios: getEnvAsScenarios("STRESS_SCENARIOS"),
		RiskScoreWeights: RiskWeights{
			VaR:           getEnvAsFloat("RISK_WEIGHT_VAR", 0.25),
			Shortfall:     getEnvAsFloat("RISK_WEIGHT_SHORTFALL", 0.20),
			Drawdown:      getEnvAsFloat("RISK_WEIGHT_DRAWDOWN", 0.15),
			Concentration: getEnvAsFloat("RISK_WEIGHT_CONCENTRATION", 0.15),
			Correlation:   getEnvAsFloat("RISK_WEIGHT_CORRELATION", 0.15),
			Liquidity:     getEnvAsFloat("RISK_WEIGHT_LIQUIDITY", 0.10),
		},

		MaxAssetWeight:      getEnvAsFloat("MAX_ASSET_WEIGHT", 0.40),
		DefaultTargetReturn: getEnvAsFloat("DEFAULT_TARGET_RETURN", 0.11),
		DefaultMaxVol:       getEnvAsFloat("DEFAULT_MAX_VOLATILITY", 0.25),
		TransactionCostRate: getEnvAsFloat("TRANSACTION_COST_RATE", 0.001),
		RebalanceThreshold:  getEnvAsFloat("REBALANCE_THRESHOLD", 0.05),

		AnalysisWindowDays: getEnvAsInt("ANALYSIS_WINDOW_DAYS", 90),
		BiasThresholds: BiasThresholds{
			Overconfidence: getEnvAsFloat("BIAS_THRESHOLD_OVERCONFIDENCE", 7),
			Revenge:        getEnvAsFloat("BIAS_THRESHOLD_REVENGE", 5),
			FOMO:           getEnvAsFloat("BIAS_THRESHOLD_FOMO", 6),
			LossAversion:   getEnvAsFloat("BIAS_THRESHOLD_LOSS_AVERSION", 7),
			Anchoring:      getEnvAsFloat("BIAS_THRESHOLD_ANCHORING", 6),
			Herding:        getEnvAsFloat("BIAS_THRESHOLD_HERDING", 5),
		},

		RiskCacheTTL:       getEnvAsDuration("RISK_CACHE_TTL", 5*time.Minute),
		BehavioralCacheTTL: getEnvAsDuration("BEHAVIORAL_CACHE_TTL", time.Hour),
		RefreshSchedule:    getEnv("RISK_REFRESH_SCHEDULE", "@every 5m"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	if c.VaRConfidence <= 0 || c.VaRConfidence >= 1 {
		return fmt.Errorf("VAR_CONFIDENCE must be in (0, 1)")
	}

	if c.VaRConfidenceHigh <= 0 || c.VaRConfidenceHigh >= 1 {
		return fmt.Errorf("VAR_CONFIDENCE_HIGH must be in (0, 1)")
	}

	if c.MaxAssetWeight <= 0 || c.MaxAssetWeight > 1 {
		return fmt.Errorf("MAX_ASSET_WEIGHT must be in (0, 1]")
	}

	if len(c.StressScenarios) == 0 {
		return fmt.Errorf("stress scenario table cannot be empty")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsScenarios parses a JSON scenario table from the environment,
// falling back to the built-in table.
func getEnvAsScenarios(key string) []StressScenario {
	value := os.Getenv(key)
	if value == "" {
		return DefaultStressScenarios()
	}

	var scenarios []StressScenario
	if err := json.Unmarshal([]byte(value), &scenarios); err != nil || len(scenarios) == 0 {
		return DefaultStressScenarios()
	}
	return scenarios
}
