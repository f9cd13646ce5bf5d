package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	SMTP         SMTPConfig
	JWT          JWTConfig
	Session      SessionConfig
	Verification VerificationConfig
	Templates    TemplatesConfig
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the Redis configuration.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// SMTPConfig holds the outbound mail settings. An empty Host switches the
// notification layer to the log-only sender.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// JWTConfig controls access token signing.
type JWTConfig struct {
	Secret   string `mapstructure:"secret"`
	TTLHours int    `mapstructure:"ttlhours"`
}

// SessionConfig controls opaque session lifetimes, in hours.
type SessionConfig struct {
	SlidingTTLHours  int `mapstructure:"slidingttlhours"`
	AbsoluteTTLHours int `mapstructure:"absolutettlhours"`
}

// VerificationConfig controls the 6-digit code lifecycle.
type VerificationConfig struct {
	TTLMinutes             int `mapstructure:"ttlminutes"`
	MaxAttempts            int `mapstructure:"maxattempts"`
	RateLimitCount         int `mapstructure:"ratelimitcount"`
	RateLimitWindowMinutes int `mapstructure:"ratelimitwindowminutes"`
}

// TemplatesConfig controls where notification templates are loaded from.
type TemplatesConfig struct {
	Dir    string `mapstructure:"dir"`
	Reload bool   `mapstructure:"reload"`
}

// Load creates a new Config object from environment variables.
func Load() *Config {
	// --- Set up Viper ---
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	// Use a replacer to map env vars like SERVER_PORT to Server.Port
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env into process environment for BindEnv to work with file-based envs
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ godotenv could not load .env: %v", err)
	} else {
		log.Printf("ℹ️ .env loaded into process environment via godotenv")
	}

	bindings := map[string]string{
		"server.port":                         "SERVER_PORT",
		"server.env":                          "SERVER_ENV",
		"database.url":                        "DATABASE_URL",
		"redis.url":                           "REDIS_URL",
		"smtp.host":                           "SMTP_HOST",
		"smtp.port":                           "SMTP_PORT",
		"smtp.username":                       "SMTP_USERNAME",
		"smtp.password":                       "SMTP_PASSWORD",
		"smtp.from":                           "SMTP_FROM",
		"jwt.secret":                          "JWT_SECRET",
		"jwt.ttlhours":                        "JWT_TTL_HOURS",
		"session.slidingttlhours":             "SESSION_SLIDING_TTL_HOURS",
		"session.absolutettlhours":            "SESSION_ABSOLUTE_TTL_HOURS",
		"verification.ttlminutes":             "VERIFICATION_TTL_MINUTES",
		"verification.maxattempts":            "VERIFICATION_MAX_ATTEMPTS",
		"verification.ratelimitcount":         "VERIFICATION_RATE_LIMIT_COUNT",
		"verification.ratelimitwindowminutes": "VERIFICATION_RATE_LIMIT_WINDOW_MINUTES",
		"templates.dir":                       "TEMPLATES_DIR",
		"templates.reload":                    "TEMPLATES_RELOAD",
	}
	for key, env := range bindings {
		_ = viper.BindEnv(key, env)
	}

	// --- Read Configuration ---
	if err := viper.ReadInConfig(); err != nil {
		// We can still proceed if all config is set via environment variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("❌ Error reading config file: %s", err)
		} else {
			log.Printf("⚠️ .env file not found, relying on environment variables")
		}
	} else {
		log.Printf("ℹ️ Using config file: %s", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode config into struct: %v", err)
	}

	log.Printf("🔎 Config after Unmarshal: Server.Port=%q Server.Env=%q SMTP.Host=%q JWTSecretEmpty=%t",
		cfg.Server.Port,
		cfg.Server.Env,
		cfg.SMTP.Host,
		cfg.JWT.Secret == "",
	)

	cfg.applyDefaults()

	log.Println("✅ Configuration loaded successfully")
	return &cfg
}

// applyDefaults fills every zero value that has a sensible default.
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.From == "" {
		c.SMTP.From = "no-reply@realestate.local"
	}
	if c.JWT.TTLHours <= 0 {
		c.JWT.TTLHours = 72
	}
	if c.Session.SlidingTTLHours <= 0 {
		c.Session.SlidingTTLHours = 7 * 24
	}
	if c.Session.AbsoluteTTLHours <= 0 {
		c.Session.AbsoluteTTLHours = 30 * 24
	}
	if c.Verification.TTLMinutes <= 0 {
		c.Verification.TTLMinutes = 15
	}
	if c.Verification.MaxAttempts <= 0 {
		c.Verification.MaxAttempts = 5
	}
	if c.Verification.RateLimitCount <= 0 {
		c.Verification.RateLimitCount = 3
	}
	if c.Verification.RateLimitWindowMinutes <= 0 {
		c.Verification.RateLimitWindowMinutes = 60
	}
}
