package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint     string
	Port         int
	AccessKey    string
	SecretKey    string
	BucketPhotos string
	UseSSL       bool
	Region       string
}

type SecurityConfig struct {
	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration
	SignatureSecret  string
	MaxSessions      int
}

type EmailConfig struct {
	Provider       string
	FromEmail      string
	FromName       string
	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	SMTPUseTLS     bool
}

type ReportsConfig struct {
	MaxPhotos int
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Email            EmailConfig
	Reports          ReportsConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("PARTICIPIUM")
	v.AutomaticEnv()

	bindWellKnownEnv(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindWellKnownEnv maps the conventional deployment variable names onto
// config keys, so DATABASE_URL and friends work without the env prefix.
func bindWellKnownEnv(v *viper.Viper) {
	_ = v.BindEnv("postgres.dsn", "PARTICIPIUM_POSTGRES_DSN", "DATABASE_URL")
	_ = v.BindEnv("security.jwtaccesssecret", "PARTICIPIUM_SECURITY_JWTACCESSSECRET", "SESSION_SECRET")
	_ = v.BindEnv("storage.endpoint", "PARTICIPIUM_STORAGE_ENDPOINT", "MINIO_ENDPOINT")
	_ = v.BindEnv("storage.port", "PARTICIPIUM_STORAGE_PORT", "MINIO_PORT")
	_ = v.BindEnv("storage.accesskey", "PARTICIPIUM_STORAGE_ACCESSKEY", "MINIO_ACCESS_KEY")
	_ = v.BindEnv("storage.secretkey", "PARTICIPIUM_STORAGE_SECRETKEY", "MINIO_SECRET_KEY")
	_ = v.BindEnv("storage.bucketphotos", "PARTICIPIUM_STORAGE_BUCKETPHOTOS", "MINIO_BUCKET_NAME")
	_ = v.BindEnv("storage.usessl", "PARTICIPIUM_STORAGE_USESSL", "MINIO_USE_SSL")
	_ = v.BindEnv("email.smtpuser", "PARTICIPIUM_EMAIL_SMTPUSER", "SMTP_USER")
	_ = v.BindEnv("email.smtppass", "PARTICIPIUM_EMAIL_SMTPPASS", "SMTP_PASS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketphotos", "participium-photos")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.jwtrefreshttl", "720h") // 30 days
	v.SetDefault("security.maxsessions", 10)

	v.SetDefault("email.provider", "smtp")
	v.SetDefault("email.fromemail", "noreply@participium.local")
	v.SetDefault("email.fromname", "Participium")
	v.SetDefault("email.smtphost", "localhost")
	v.SetDefault("email.smtpport", 1025)
	v.SetDefault("email.smtpusetls", false)

	v.SetDefault("reports.maxphotos", 3)
}
