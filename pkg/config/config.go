package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Storage       StorageConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	OAuth         OAuthConfig
	Stripe        StripeConfig
	Sendgrid      SendgridConfig
	Realtime      RealtimeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string   `envconfig:"ESTATEHUB_APP_ENV" required:"true"`
	Port          string   `envconfig:"ESTATEHUB_APP_PORT" required:"true"`
	Name          string   `envconfig:"ESTATEHUB_APP_NAME" default:"Real Estate App"`
	LogLevel      string   `envconfig:"ESTATEHUB_LOG_LEVEL" default:"info"`
	LogFormat     string   `envconfig:"ESTATEHUB_LOG_FORMAT" default:"json"`
	LogWarnStack  bool     `envconfig:"ESTATEHUB_LOG_WARN_STACK" default:"false"`
	FrontendURL   string   `envconfig:"ESTATEHUB_FRONTEND_URL" default:"http://localhost:3000"`
	PublicBaseURL string   `envconfig:"ESTATEHUB_PUBLIC_BASE_URL" default:"http://localhost:5000"`
	CORSOrigins   []string `envconfig:"ESTATEHUB_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"ESTATEHUB_DB_DSN"`

	LegacyHost     string `envconfig:"ESTATEHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"ESTATEHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ESTATEHUB_DB_USER"`
	LegacyPassword string `envconfig:"ESTATEHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"ESTATEHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"ESTATEHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ESTATEHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ESTATEHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ESTATEHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ESTATEHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"ESTATEHUB_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ESTATEHUB_REDIS_URL"`
	Address      string        `envconfig:"ESTATEHUB_REDIS_ADDR"`
	Password     string        `envconfig:"ESTATEHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"ESTATEHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ESTATEHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ESTATEHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ESTATEHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ESTATEHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ESTATEHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ESTATEHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ESTATEHUB_JWT_ISSUER" default:"estatehub"`
	ExpirationMinutes      int    `envconfig:"ESTATEHUB_JWT_EXPIRATION_MINUTES" default:"10080"`
	RefreshTokenTTLMinutes int    `envconfig:"ESTATEHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ESTATEHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ESTATEHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ESTATEHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ESTATEHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ESTATEHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ESTATEHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ESTATEHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ESTATEHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ESTATEHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ESTATEHUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ESTATEHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ResetWindow        time.Duration `envconfig:"ESTATEHUB_AUTH_RATE_LIMIT_RESET_WINDOW" default:"15m"`
	ResetEmailLimit    int           `envconfig:"ESTATEHUB_AUTH_RATE_LIMIT_RESET_EMAIL_LIMIT" default:"3"`
	ResetIPLimit       int           `envconfig:"ESTATEHUB_AUTH_RATE_LIMIT_RESET_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ESTATEHUB_AUTO_MIGRATE" default:"false"`
}

type StorageConfig struct {
	Driver      string `envconfig:"ESTATEHUB_STORAGE_DRIVER" default:"local"`
	UploadDir   string `envconfig:"ESTATEHUB_UPLOAD_DIR" default:"uploads"`
	BucketName  string `envconfig:"ESTATEHUB_GCS_BUCKET_NAME"`
	MaxUploadMB int    `envconfig:"ESTATEHUB_MAX_UPLOAD_MB" default:"5"`
}

// MaxUploadBytes returns the per-file upload cap.
func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StorageDriverLocal:
		return nil
	case StorageDriverGCS:
		if strings.TrimSpace(s.BucketName) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvGCSBucket, EnvStorageDriver, StorageDriverGCS)
		}
		return nil
	default:
		return fmt.Errorf("unsupported storage driver %q", s.Driver)
	}
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ESTATEHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ESTATEHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ESTATEHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ListingsTopic        string `envconfig:"ESTATEHUB_PUBSUB_LISTINGS_TOPIC"`
	ListingsSubscription string `envconfig:"ESTATEHUB_PUBSUB_LISTINGS_SUBSCRIPTION"`
}

// Enabled reports whether listing events go through Pub/Sub.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.ListingsTopic) != ""
}

type OAuthConfig struct {
	GoogleClientID      string        `envconfig:"ESTATEHUB_GOOGLE_CLIENT_ID"`
	GoogleClientSecret  string        `envconfig:"ESTATEHUB_GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL   string        `envconfig:"ESTATEHUB_GOOGLE_CALLBACK_URL"`
	FacebookAppID       string        `envconfig:"ESTATEHUB_FACEBOOK_APP_ID"`
	FacebookAppSecret   string        `envconfig:"ESTATEHUB_FACEBOOK_APP_SECRET"`
	FacebookCallbackURL string        `envconfig:"ESTATEHUB_FACEBOOK_CALLBACK_URL"`
	StateTTL            time.Duration `envconfig:"ESTATEHUB_OAUTH_STATE_TTL" default:"10m"`
}

type StripeConfig struct {
	APIKey string `envconfig:"ESTATEHUB_STRIPE_API_KEY"`
	Env    string `envconfig:"ESTATEHUB_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"ESTATEHUB_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"ESTATEHUB_SENDGRID_FROM_EMAIL" default:"no-reply@estatehub.local"`
	FromName    string `envconfig:"ESTATEHUB_SENDGRID_FROM_NAME"`
}

type RealtimeConfig struct {
	SendBuffer   int           `envconfig:"ESTATEHUB_REALTIME_SEND_BUFFER" default:"16"`
	WriteTimeout time.Duration `envconfig:"ESTATEHUB_REALTIME_WRITE_TIMEOUT" default:"10s"`
	PongTimeout  time.Duration `envconfig:"ESTATEHUB_REALTIME_PONG_TIMEOUT" default:"60s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
