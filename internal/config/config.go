package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Engine   EngineConfig
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
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	SummaryTTLSeconds int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// EngineConfig carries the system defaults that terminate every resolution
// chain plus the classification and stock-status thresholds.
type EngineConfig struct {
	DefaultMOQ              int
	DefaultLeadTimeDays     int
	DefaultSafetyBufferDays float64

	// ABC cumulative-value bands (percent of total value)
	ABCClassAPct float64
	ABCClassBPct float64

	// XYZ coefficient-of-variation bounds
	XYZLowCV  float64
	XYZHighCV float64

	// Demand-pattern thresholds
	ZeroRatioThreshold float64
	LumpyADIDays       float64
	SizeCVThreshold    float64

	// Expanding-window cap for average demand
	WindowCapDays int

	// Stock-status system defaults (days of supply / days since last sale)
	UnderstockedThreshold float64
	OverstockedThreshold  float64
	DeadStockDays         int
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
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "replenish")
		viper.SetDefault("DB_SSLMODE", "disable")

		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_SUMMARY_TTL_SECONDS", 60)

		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "replenish-exports")
		viper.SetDefault("STORAGE_REGION", "")
		viper.SetDefault("STORAGE_USE_SSL", true)

		viper.SetDefault("ENGINE_DEFAULT_MOQ", 0)
		viper.SetDefault("ENGINE_DEFAULT_LEAD_TIME_DAYS", 14)
		viper.SetDefault("ENGINE_DEFAULT_SAFETY_BUFFER_DAYS", 7.0)
		viper.SetDefault("ENGINE_ABC_CLASS_A_PCT", 80.0)
		viper.SetDefault("ENGINE_ABC_CLASS_B_PCT", 95.0)
		viper.SetDefault("ENGINE_XYZ_LOW_CV", 0.5)
		viper.SetDefault("ENGINE_XYZ_HIGH_CV", 1.0)
		viper.SetDefault("ENGINE_ZERO_RATIO_THRESHOLD", 0.4)
		viper.SetDefault("ENGINE_LUMPY_ADI_DAYS", 1.32)
		viper.SetDefault("ENGINE_SIZE_CV_THRESHOLD", 0.7)
		viper.SetDefault("ENGINE_WINDOW_CAP_DAYS", 90)
		viper.SetDefault("ENGINE_UNDERSTOCKED_THRESHOLD", 7.0)
		viper.SetDefault("ENGINE_OVERSTOCKED_THRESHOLD", 60.0)
		viper.SetDefault("ENGINE_DEAD_STOCK_DAYS", 90)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				SummaryTTLSeconds: viper.GetInt("CACHE_SUMMARY_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Engine: EngineConfig{
				DefaultMOQ:              viper.GetInt("ENGINE_DEFAULT_MOQ"),
				DefaultLeadTimeDays:     viper.GetInt("ENGINE_DEFAULT_LEAD_TIME_DAYS"),
				DefaultSafetyBufferDays: viper.GetFloat64("ENGINE_DEFAULT_SAFETY_BUFFER_DAYS"),
				ABCClassAPct:            viper.GetFloat64("ENGINE_ABC_CLASS_A_PCT"),
				ABCClassBPct:            viper.GetFloat64("ENGINE_ABC_CLASS_B_PCT"),
				XYZLowCV:                viper.GetFloat64("ENGINE_XYZ_LOW_CV"),
				XYZHighCV:               viper.GetFloat64("ENGINE_XYZ_HIGH_CV"),
				ZeroRatioThreshold:      viper.GetFloat64("ENGINE_ZERO_RATIO_THRESHOLD"),
				LumpyADIDays:            viper.GetFloat64("ENGINE_LUMPY_ADI_DAYS"),
				SizeCVThreshold:         viper.GetFloat64("ENGINE_SIZE_CV_THRESHOLD"),
				WindowCapDays:           viper.GetInt("ENGINE_WINDOW_CAP_DAYS"),
				UnderstockedThreshold:   viper.GetFloat64("ENGINE_UNDERSTOCKED_THRESHOLD"),
				OverstockedThreshold:    viper.GetFloat64("ENGINE_OVERSTOCKED_THRESHOLD"),
				DeadStockDays:           viper.GetInt("ENGINE_DEAD_STOCK_DAYS"),
			},
		}
	})

	return instance
}
