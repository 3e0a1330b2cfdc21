package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"serverAddress"`
	Environment     string        `yaml:"environment"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// AWS configuration
	AWSRegion        string `yaml:"awsRegion"`
	DynamoDBEndpoint string `yaml:"dynamodbEndpoint"`
	TablePrefix      string `yaml:"tablePrefix"`
	EventBusName     string `yaml:"eventBusName"`
	EventSource      string `yaml:"eventSource"`
	MetricsNamespace string `yaml:"metricsNamespace"`

	// LockTable holds leases that keep scheduled jobs from overlapping. Empty
	// disables locking.
	LockTable string `yaml:"lockTable"`

	// SeedFile backs the API with an in-memory repository instead of DynamoDB.
	SeedFile string `yaml:"seedFile"`

	// Lambda configuration
	IsLambda           bool   `yaml:"isLambda"`
	LambdaFunctionName string `yaml:"lambdaFunctionName"`

	// Cache
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`
	CacheTTL      int    `yaml:"cacheTtl"` // seconds

	// Repository circuit breaker
	BreakerMaxFailures int           `yaml:"breakerMaxFailures"`
	BreakerOpenTimeout time.Duration `yaml:"breakerOpenTimeout"`

	// Layout and canvas
	LayoutDirection   string        `yaml:"layoutDirection"`
	RankSep           float64       `yaml:"rankSep"`
	NodeSep           float64       `yaml:"nodeSep"`
	CanvasSessionIdle time.Duration `yaml:"canvasSessionIdle"`

	// Logging
	LogLevel string `yaml:"logLevel"`

	// Authentication
	JWTSecret string `yaml:"jwtSecret"`
	JWTIssuer string `yaml:"jwtIssuer"`
	// WriteRole is the token role required to change the ontology. Empty lets
	// every authenticated caller write.
	WriteRole string `yaml:"writeRole"`

	// RateLimitPerMinute caps requests per client IP; zero disables the limit.
	RateLimitPerMinute int `yaml:"rateLimitPerMinute"`

	// Tracing
	OTLPEndpoint string `yaml:"otlpEndpoint"`

	// Feature flags
	EnableMetrics  bool     `yaml:"enableMetrics"`
	EnableTracing  bool     `yaml:"enableTracing"`
	EnableCORS     bool     `yaml:"enableCors"`
	AllowedOrigins []string `yaml:"allowedOrigins"`

	// File is the YAML overlay the values were read from, if any.
	File string `yaml:"-"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		ServerAddress:      ":8080",
		Environment:        "development",
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		AWSRegion:          "us-west-2",
		TablePrefix:        "core-ontology-",
		EventBusName:       "ontology-events",
		EventSource:        "ontology-backend",
		MetricsNamespace:   "Ontology",
		CacheTTL:           30,
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: 30 * time.Second,
		LayoutDirection:    "TB",
		RankSep:            250,
		NodeSep:            200,
		CanvasSessionIdle:  30 * time.Minute,
		LogLevel:           "info",
		JWTIssuer:          "ontology-backend",
		RateLimitPerMinute: 600,
		EnableCORS:         true,
		AllowedOrigins:     []string{"*"},
	}
}

// LoadConfig loads configuration: defaults, then the YAML file named by
// CONFIG_FILE, then environment variables.
func LoadConfig() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// LoadFrom loads configuration with file as the YAML overlay. An empty file
// skips the overlay.
func LoadFrom(file string) (*Config, error) {
	cfg := Defaults()

	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		cfg.File = file
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides fields with any environment variables that are set.
func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBEndpoint)
	c.TablePrefix = getEnv("TABLE_PREFIX", c.TablePrefix)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.EventSource = getEnv("EVENT_SOURCE", c.EventSource)
	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)
	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)
	c.LockTable = getEnv("LOCK_TABLE", c.LockTable)

	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda)
	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)
	if c.LambdaFunctionName != "" {
		c.IsLambda = true
	}

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.CacheTTL = getEnvInt("CACHE_TTL", c.CacheTTL)

	c.BreakerMaxFailures = getEnvInt("BREAKER_MAX_FAILURES", c.BreakerMaxFailures)
	c.BreakerOpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", c.BreakerOpenTimeout)

	c.LayoutDirection = getEnv("LAYOUT_DIRECTION", c.LayoutDirection)
	c.RankSep = getEnvFloat("LAYOUT_RANK_SEP", c.RankSep)
	c.NodeSep = getEnvFloat("LAYOUT_NODE_SEP", c.NodeSep)
	c.CanvasSessionIdle = getEnvDuration("CANVAS_SESSION_IDLE", c.CanvasSessionIdle)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.WriteRole = getEnv("WRITE_ROLE", c.WriteRole)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	var errs []error

	switch c.LayoutDirection {
	case "TB", "BT", "LR", "RL":
	default:
		errs = append(errs, fmt.Errorf("LAYOUT_DIRECTION must be one of TB, BT, LR, RL, got %q", c.LayoutDirection))
	}
	if c.RankSep < 0 || c.NodeSep < 0 {
		errs = append(errs, errors.New("layout separations must not be negative"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("CACHE_TTL must not be negative"))
	}
	if c.BreakerMaxFailures < 1 {
		errs = append(errs, errors.New("BREAKER_MAX_FAILURES must be at least 1"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	if c.TablePrefix == "" {
		errs = append(errs, errors.New("TABLE_PREFIX is required"))
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
		if c.EventBusName == "" {
			errs = append(errs, errors.New("EVENT_BUS_NAME is required"))
		}
		if c.SeedFile != "" {
			errs = append(errs, errors.New("SEED_FILE cannot be used in production"))
		}
	}

	return errors.Join(errs...)
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// TableName is the DynamoDB table that holds a collection.
func (c *Config) TableName(collection string) string {
	return c.TablePrefix + collection
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
