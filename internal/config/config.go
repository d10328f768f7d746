package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	APIURL      string            `yaml:"api_url" env:"API_URL" env-required:"true"`
	HTTP        HTTPConfig        `yaml:"http"`
	Client      ClientConfig      `yaml:"client"`
	List        ListConfig        `yaml:"list"`
	Months      MonthsConfig      `yaml:"months"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Identity    IdentityConfig    `yaml:"identity"`
	Session     SessionConfig     `yaml:"session"`
	Redis       RedisConf         `yaml:"redis"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type ClientConfig struct {
	Timeout         time.Duration `yaml:"timeout" env-default:"15s"`
	UploadTimeout   time.Duration `yaml:"upload_timeout" env-default:"60s"`
	LegacyEnvelopes bool          `yaml:"legacy_envelopes" env:"CLIENT_LEGACY_ENVELOPES" env-default:"false"`
	Retry           RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts     uint64        `yaml:"max_attempts" env-default:"2"`
	InitialInterval time.Duration `yaml:"initial_interval" env-default:"200ms"`
}

type ListConfig struct {
	PageSize int    `yaml:"page_size" env-default:"16"`
	Sort     string `yaml:"sort" env-default:"latest"`
}

type MonthsConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl" env-default:"5m"`
}

type LeaderboardConfig struct {
	Token string `yaml:"token" env:"COC_API_TOKEN" env-required:"true"`
}

type IdentityConfig struct {
	Secret   string        `yaml:"secret" env:"IDENTITY_SECRET" env-default:"dev-identity-secret"`
	TokenTTL time.Duration `yaml:"token_ttl" env-default:"1m"`
}

type SessionConfig struct {
	Secret  string        `yaml:"secret" env:"SESSION_SECRET" env-default:"dev-session-secret"`
	IdleTTL time.Duration `yaml:"idle_ttl" env-default:"30m"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redispassword" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := LoadPath(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

// LoadPath reads the YAML file and applies environment overrides on top of it.
func LoadPath(configPath string) (*Config, error) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &os.PathError{Op: "config file does not exist", Path: configPath, Err: err}
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
