package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	Denylist  DenylistSettings  `mapstructure:"denylist"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures the revocation event producer
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

type JWTSettings struct {
	KeyDirectory   string        `mapstructure:"key_directory"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// DenylistSettings configures the bucket ring backing token revocation.
// Window is a duration; it is never interpreted as a bare number of seconds or milliseconds.
type DenylistSettings struct {
	Store             string        `mapstructure:"store"`
	KeyPrefix         string        `mapstructure:"key_prefix"`
	Selector          string        `mapstructure:"selector"`
	Buckets           int           `mapstructure:"buckets"`
	EpochLength       time.Duration `mapstructure:"epoch_length"`
	Location          string        `mapstructure:"location"`
	Window            time.Duration `mapstructure:"window"`
	StoreTimeout      time.Duration `mapstructure:"store_timeout"`
	HashSecret        string        `mapstructure:"hash_secret"`
	DegradationPolicy string        `mapstructure:"degradation_policy"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("IAM")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.key_directory",
		"jwt.access_token_ttl",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"denylist.store",
		"denylist.key_prefix",
		"denylist.selector",
		"denylist.buckets",
		"denylist.epoch_length",
		"denylist.location",
		"denylist.window",
		"denylist.store_timeout",
		"denylist.hash_secret",
		"denylist.degradation_policy",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Denylist.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "calendar-iam")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "iam")

	v.SetDefault("jwt.key_directory", "./secrets")
	v.SetDefault("jwt.access_token_ttl", "24h")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "calendar-iam")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	// Seven weekday buckets retained for seven days, as the original deployment did.
	v.SetDefault("denylist.store", StoreRedis)
	v.SetDefault("denylist.key_prefix", DefaultKeyPrefix)
	v.SetDefault("denylist.selector", SelectorWeekday)
	v.SetDefault("denylist.buckets", 7)
	v.SetDefault("denylist.epoch_length", "24h")
	v.SetDefault("denylist.location", "UTC")
	v.SetDefault("denylist.window", "168h")
	v.SetDefault("denylist.store_timeout", "250ms")
	v.SetDefault("denylist.hash_secret", "")
	v.SetDefault("denylist.degradation_policy", "lenient")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "IAM_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
