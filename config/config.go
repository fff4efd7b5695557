package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Models    ModelsConfig    `yaml:"models"`
	Bankroll  BankrollConfig  `yaml:"bankroll"`
	Execution ExecutionConfig `yaml:"execution"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Log       LogConfig       `yaml:"log"`
}

// EngineConfig controla el ciclo de decisión.
type EngineConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	MaxBetsPerCycle int     `yaml:"max_bets_per_cycle"`
	MinLiquidity    float64 `yaml:"min_liquidity"`
	MinVolume24h    float64 `yaml:"min_volume_24h"`
	MinConfidence   float64 `yaml:"min_confidence"`
	ReportMinSample int     `yaml:"report_min_sample"`
}

// ModelsConfig son los parámetros de calibración de los modelos y del ranker.
type ModelsConfig struct {
	CryptoSpotDefault     float64 `yaml:"crypto_spot_default"`    // spot fallback si el snapshot no trae
	MacroStaleAfterHours  float64 `yaml:"macro_stale_after_hours"`
	MinEV                 float64 `yaml:"min_ev"`
	NearResolutionHours   float64 `yaml:"near_resolution_hours"`
	NearResolutionPenalty float64 `yaml:"near_resolution_penalty"`
}

// BankrollConfig son los límites de riesgo. Porcentajes como fracción.
type BankrollConfig struct {
	TotalCapital           float64 `yaml:"total_capital"`
	KellyMultiplier        float64 `yaml:"kelly_multiplier"`
	MaxSingleBetPct        float64 `yaml:"max_single_bet_pct"`
	MaxTotalExposurePct    float64 `yaml:"max_total_exposure_pct"`
	MaxCategoryExposurePct float64 `yaml:"max_category_exposure_pct"`
	MinKelly               float64 `yaml:"min_kelly"`
	MinStake               float64 `yaml:"min_stake"`
	MaxLiquidityPct        float64 `yaml:"max_liquidity_pct"`
}

// ExecutionConfig controla la fase de fill.
type ExecutionConfig struct {
	FillTimeoutSeconds      int `yaml:"fill_timeout_seconds"`
	FillPollIntervalSeconds int `yaml:"fill_poll_interval_seconds"`
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// TelegramConfig habilita las alertas por Telegram. El token y el chat ID
// nunca van en el YAML: vienen del entorno (.env).
type TelegramConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// CycleInterval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Engine.IntervalSeconds) * time.Second
}

// FillTimeout devuelve el timeout de fill como time.Duration.
func (c *Config) FillTimeout() time.Duration {
	return time.Duration(c.Execution.FillTimeoutSeconds) * time.Second
}

// FillPollInterval devuelve el intervalo de poll como time.Duration.
func (c *Config) FillPollInterval() time.Duration {
	return time.Duration(c.Execution.FillPollIntervalSeconds) * time.Second
}

// MacroStaleAfter devuelve la edad máxima de forecast como time.Duration.
func (c *Config) MacroStaleAfter() time.Duration {
	return time.Duration(c.Models.MacroStaleAfterHours * float64(time.Hour))
}

// NearResolutionWindow devuelve la ventana de penalización como time.Duration.
func (c *Config) NearResolutionWindow() time.Duration {
	return time.Duration(c.Models.NearResolutionHours * float64(time.Hour))
}

// PolygonPrivateKey devuelve la private key del wallet desde el entorno.
// Nunca va en el YAML.
func (c *Config) PolygonPrivateKey() string { return os.Getenv("POLYGON_PRIVATE_KEY") }

// TelegramToken devuelve el bot token del entorno.
func (c *Config) TelegramToken() string { return os.Getenv("TELEGRAM_BOT_TOKEN") }

// TelegramChatID devuelve el chat ID del entorno.
func (c *Config) TelegramChatID() string { return os.Getenv("TELEGRAM_CHAT_ID") }

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.IntervalSeconds <= 0 {
		cfg.Engine.IntervalSeconds = 300
	}
	if cfg.Engine.MaxBetsPerCycle <= 0 {
		cfg.Engine.MaxBetsPerCycle = 3
	}
	if cfg.Engine.MinLiquidity <= 0 {
		cfg.Engine.MinLiquidity = 1_000
	}
	if cfg.Engine.MinVolume24h <= 0 {
		cfg.Engine.MinVolume24h = 10_000
	}
	if cfg.Engine.MinConfidence <= 0 {
		cfg.Engine.MinConfidence = 0.15
	}
	if cfg.Engine.ReportMinSample <= 0 {
		cfg.Engine.ReportMinSample = 30
	}

	if cfg.Models.MacroStaleAfterHours <= 0 {
		cfg.Models.MacroStaleAfterHours = 24
	}
	if cfg.Models.MinEV <= 0 {
		cfg.Models.MinEV = 0.03
	}
	if cfg.Models.NearResolutionHours <= 0 {
		cfg.Models.NearResolutionHours = 24
	}
	if cfg.Models.NearResolutionPenalty <= 0 {
		cfg.Models.NearResolutionPenalty = 0.05
	}

	if cfg.Bankroll.TotalCapital <= 0 {
		cfg.Bankroll.TotalCapital = 1_000
	}
	if cfg.Bankroll.KellyMultiplier <= 0 {
		cfg.Bankroll.KellyMultiplier = 0.25
	}
	if cfg.Bankroll.MaxSingleBetPct <= 0 {
		cfg.Bankroll.MaxSingleBetPct = 0.05
	}
	if cfg.Bankroll.MaxTotalExposurePct <= 0 {
		cfg.Bankroll.MaxTotalExposurePct = 0.20
	}
	if cfg.Bankroll.MaxCategoryExposurePct <= 0 {
		cfg.Bankroll.MaxCategoryExposurePct = 0.10
	}
	if cfg.Bankroll.MinKelly <= 0 {
		cfg.Bankroll.MinKelly = 0.001
	}
	if cfg.Bankroll.MinStake <= 0 {
		cfg.Bankroll.MinStake = 1.0
	}
	if cfg.Bankroll.MaxLiquidityPct <= 0 {
		cfg.Bankroll.MaxLiquidityPct = 0.02
	}

	if cfg.Execution.FillTimeoutSeconds <= 0 {
		cfg.Execution.FillTimeoutSeconds = 30
	}
	if cfg.Execution.FillPollIntervalSeconds <= 0 {
		cfg.Execution.FillPollIntervalSeconds = 2
	}

	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyedge.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
