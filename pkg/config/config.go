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
	Auth          AuthConfig
	AuthRateLimit AuthRateLimitConfig
	DataService   DataServiceConfig
	LocalStore    LocalStoreConfig
	CORS          CORSConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.PubSub.Enabled() && strings.TrimSpace(cfg.GCP.ProjectID) == "" {
		return nil, fmt.Errorf("%s is required when %s is set", EnvGCPProjectID, EnvPubSubConfirmationTopic)
	}
	switch cfg.LocalStore.Backend {
	case LocalStoreRedis, LocalStoreDB:
	default:
		return nil, fmt.Errorf("unsupported local store backend %q", cfg.LocalStore.Backend)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SKILLHUNTER_APP_ENV" required:"true"`
	Port         string `envconfig:"SKILLHUNTER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SKILLHUNTER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SKILLHUNTER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SKILLHUNTER_DB_DSN"`
	Driver string `envconfig:"SKILLHUNTER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SKILLHUNTER_DB_HOST"`
	LegacyPort     int    `envconfig:"SKILLHUNTER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SKILLHUNTER_DB_USER"`
	LegacyPassword string `envconfig:"SKILLHUNTER_DB_PASSWORD"`
	LegacyName     string `envconfig:"SKILLHUNTER_DB_NAME"`
	LegacySSLMode  string `envconfig:"SKILLHUNTER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SKILLHUNTER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SKILLHUNTER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SKILLHUNTER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SKILLHUNTER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SKILLHUNTER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SKILLHUNTER_REDIS_ADDR"`
	Password     string        `envconfig:"SKILLHUNTER_REDIS_PASSWORD"`
	DB           int           `envconfig:"SKILLHUNTER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SKILLHUNTER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SKILLHUNTER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SKILLHUNTER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SKILLHUNTER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SKILLHUNTER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SKILLHUNTER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SKILLHUNTER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SKILLHUNTER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SKILLHUNTER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
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
	ArgonMemoryKB    int `envconfig:"SKILLHUNTER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SKILLHUNTER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SKILLHUNTER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SKILLHUNTER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SKILLHUNTER_ARGON_KEY_LEN" default:"32"`
}

// AuthConfig controls the sign-up behavior of the auth provider.
type AuthConfig struct {
	RequireEmailConfirmation bool          `envconfig:"SKILLHUNTER_AUTH_REQUIRE_EMAIL_CONFIRMATION" default:"true"`
	ConfirmationTTL          time.Duration `envconfig:"SKILLHUNTER_AUTH_CONFIRMATION_TTL" default:"24h"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SKILLHUNTER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SKILLHUNTER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SKILLHUNTER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SKILLHUNTER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SKILLHUNTER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SKILLHUNTER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// DataServiceConfig bounds calls made against the row/auth backend.
type DataServiceConfig struct {
	CallTimeout      time.Duration `envconfig:"SKILLHUNTER_DATASERVICE_CALL_TIMEOUT" default:"10s"`
	TextSearchConfig string        `envconfig:"SKILLHUNTER_DATASERVICE_TEXT_SEARCH_CONFIG" default:"english"`
}

// LocalStoreConfig controls the per-device durable storage.
type LocalStoreConfig struct {
	// Backend selects where device items live: "redis" or "db".
	Backend   string        `envconfig:"SKILLHUNTER_LOCAL_STORE_BACKEND" default:"redis"`
	Namespace string        `envconfig:"SKILLHUNTER_LOCAL_STORE_NAMESPACE" default:"local"`
	TTL       time.Duration `envconfig:"SKILLHUNTER_LOCAL_STORE_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SKILLHUNTER_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SKILLHUNTER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SKILLHUNTER_GOOGLE_APPLICATION_CREDENTIALS"`
}

// PubSubConfig names the topic that receives sign-up confirmation requests.
// Leaving it empty keeps confirmations in the log.
type PubSubConfig struct {
	ConfirmationTopic string `envconfig:"SKILLHUNTER_PUBSUB_CONFIRMATION_TOPIC"`
}

// Enabled reports whether confirmations should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.ConfirmationTopic) != ""
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SKILLHUNTER_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SKILLHUNTER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SKILLHUNTER_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
