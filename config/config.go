package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config carries every tunable the service reads at startup. Values come
// from a .env file when present, overridden by real environment variables.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Debug       bool   `mapstructure:"DEBUG"`
	Port        string `mapstructure:"PORT"`
	StaticDir   string `mapstructure:"STATIC_DIR"`
	DataFile    string `mapstructure:"DATA_FILE"`

	// Azure Table storage, used instead of the file store when set.
	StorageConnectionString string `mapstructure:"STORAGE_CONNECTION_STRING"`
	DocumentsTable          string `mapstructure:"DOCUMENTS_TABLE"`

	// Redis powers the read cache and the session config store.
	RedisConnectionString string        `mapstructure:"REDIS_CONNECTION_STRING"`
	CacheTTL              time.Duration `mapstructure:"CACHE_TTL"`

	BootstrapTimeout time.Duration `mapstructure:"BOOTSTRAP_TIMEOUT"`

	// Identity resolution.
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AuthTestMode     bool   `mapstructure:"AUTH_TEST_MODE"`
	LocalAuthMode    string `mapstructure:"LOCAL_AUTH_MODE"`
	LocalAuthSecret  string `mapstructure:"LOCAL_AUTH_SHARED_SECRET"`
	JWKSURL          string `mapstructure:"JWT_JWKS_URL"`
	JWTAudience      string `mapstructure:"JWT_AUDIENCE"`
	JWTIssuer        string `mapstructure:"JWT_ISSUER"`

	// Optional AI text service.
	AIAPIKey      string `mapstructure:"AI_API_KEY"`
	AIAPIEndpoint string `mapstructure:"AI_API_ENDPOINT"`
	AIModel       string `mapstructure:"AI_MODEL"`
}

// Load reads configuration from path/.env and the process environment.
// A missing .env file is fine; environment variables alone suffice.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DEBUG", false)
	v.SetDefault("PORT", "3000")
	v.SetDefault("STATIC_DIR", "dist")
	v.SetDefault("DATA_FILE", defaultDataFile())
	v.SetDefault("STORAGE_CONNECTION_STRING", "")
	v.SetDefault("DOCUMENTS_TABLE", "documents")
	v.SetDefault("REDIS_CONNECTION_STRING", "")
	v.SetDefault("CACHE_TTL", 30*time.Second)
	v.SetDefault("BOOTSTRAP_TIMEOUT", 5*time.Second)
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("AUTH_TEST_MODE", false)
	v.SetDefault("LOCAL_AUTH_MODE", "")
	v.SetDefault("LOCAL_AUTH_SHARED_SECRET", "")
	v.SetDefault("JWT_JWKS_URL", "")
	v.SetDefault("JWT_AUDIENCE", "")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_API_ENDPOINT", "")
	v.SetDefault("AI_MODEL", "deepseek-chat")
}

// defaultDataFile prefers a mounted /data volume when one exists.
func defaultDataFile() string {
	if fi, err := os.Stat("/data"); err == nil && fi.IsDir() {
		return filepath.Join("/data", "database.json")
	}
	return "database.json"
}
