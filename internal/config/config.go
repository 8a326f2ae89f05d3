// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Forecast ForecastConfig
	Sync     SyncConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled               bool
	RedisURL              string
	RedisHost             string
	RedisPort             string
	RedisPassword         string
	RedisDB               int
	PerformanceTTLSeconds int
}

// ForecastConfig carries the business parameters of the forecasting
// pipeline. Defaults mirror the planning team's standing assumptions:
// a 7 day supplier lead time plus 5 days of safety stock.
type ForecastConfig struct {
	HorizonDays     int
	LeadTimeDays    int
	SafetyStockDays int
	MinimumOrderQty int
	MinTrainPoints  int
	MinEvalPoints   int
	EvalTestDays    int
	ModelsDir       string
	SeasonalityMode string
	IntervalWidth   float64
	TrendDamping    float64
}

type SyncConfig struct {
	DataDir      string
	DaysBack     int
	CronSchedule string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "optiflow")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_PERFORMANCE_TTL_SECONDS", 600)
		viper.SetDefault("FORECAST_HORIZON_DAYS", 30)
		viper.SetDefault("FORECAST_LEAD_TIME_DAYS", 7)
		viper.SetDefault("FORECAST_SAFETY_STOCK_DAYS", 5)
		viper.SetDefault("FORECAST_MINIMUM_ORDER_QTY", 1)
		viper.SetDefault("FORECAST_MIN_TRAIN_POINTS", 10)
		viper.SetDefault("FORECAST_MIN_EVAL_POINTS", 30)
		viper.SetDefault("FORECAST_EVAL_TEST_DAYS", 14)
		viper.SetDefault("FORECAST_MODELS_DIR", "./data/models")
		viper.SetDefault("FORECAST_SEASONALITY_MODE", "multiplicative")
		viper.SetDefault("FORECAST_INTERVAL_WIDTH", 0.80)
		viper.SetDefault("FORECAST_TREND_DAMPING", 0.98)
		viper.SetDefault("SYNC_DATA_DIR", "./data/exports")
		viper.SetDefault("SYNC_DAYS_BACK", 30)
		viper.SetDefault("SYNC_CRON_SCHEDULE", "0 6 * * *")

		// Read from environment variables
		viper.AutomaticEnv()

		// Trained model artifacts are written here
		ensureDir(viper.GetString("FORECAST_MODELS_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:               viper.GetBool("CACHE_ENABLED"),
				RedisURL:              viper.GetString("REDIS_URL"),
				RedisHost:             viper.GetString("REDIS_HOST"),
				RedisPort:             viper.GetString("REDIS_PORT"),
				RedisPassword:         viper.GetString("REDIS_PASSWORD"),
				RedisDB:               viper.GetInt("REDIS_DB"),
				PerformanceTTLSeconds: viper.GetInt("CACHE_PERFORMANCE_TTL_SECONDS"),
			},
			Forecast: ForecastConfig{
				HorizonDays:     viper.GetInt("FORECAST_HORIZON_DAYS"),
				LeadTimeDays:    viper.GetInt("FORECAST_LEAD_TIME_DAYS"),
				SafetyStockDays: viper.GetInt("FORECAST_SAFETY_STOCK_DAYS"),
				MinimumOrderQty: viper.GetInt("FORECAST_MINIMUM_ORDER_QTY"),
				MinTrainPoints:  viper.GetInt("FORECAST_MIN_TRAIN_POINTS"),
				MinEvalPoints:   viper.GetInt("FORECAST_MIN_EVAL_POINTS"),
				EvalTestDays:    viper.GetInt("FORECAST_EVAL_TEST_DAYS"),
				ModelsDir:       viper.GetString("FORECAST_MODELS_DIR"),
				SeasonalityMode: viper.GetString("FORECAST_SEASONALITY_MODE"),
				IntervalWidth:   viper.GetFloat64("FORECAST_INTERVAL_WIDTH"),
				TrendDamping:    viper.GetFloat64("FORECAST_TREND_DAMPING"),
			},
			Sync: SyncConfig{
				DataDir:      viper.GetString("SYNC_DATA_DIR"),
				DaysBack:     viper.GetInt("SYNC_DAYS_BACK"),
				CronSchedule: viper.GetString("SYNC_CRON_SCHEDULE"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
