// Package config builds the process configuration once at start-up.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/iredox10/kano-market-price/internal/adapters/repository/mongodb"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Backend selects the store implementation.
type Backend string

const (
	BackendMongo    Backend = "mongo"
	BackendAppwrite Backend = "appwrite"
)

// Config is the full process configuration.
type Config struct {
	Backend  Backend `env:"BACKEND" validate:"required,oneof=mongo appwrite"`
	HTTP     HTTPConfig
	Log      LogConfig
	Auth     AuthConfig
	Mongo    MongoConfig
	Appwrite AppwriteConfig
	Stores   StoreConfig
}

type HTTPConfig struct {
	Port           string        `env:"PORT" validate:"required,numeric"`
	GinMode        string        `env:"GIN_MODE" validate:"oneof=debug release test"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" validate:"gt=0"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" validate:"gte=0"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	Format string `env:"LOG_FORMAT" validate:"oneof=json text"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type MongoConfig struct {
	URI                   string `env:"MONGO_URI"`
	Database              string `env:"MONGO_DATABASE"`
	MembershipsCollection string `env:"MEMBERSHIPS_COLLECTION" validate:"required"`
}

// AppwriteConfig points at the hosted backend.
type AppwriteConfig struct {
	Endpoint   string `env:"APPWRITE_ENDPOINT"`
	ProjectID  string `env:"APPWRITE_PROJECT_ID"`
	APIKey     string `env:"APPWRITE_API_KEY"`
	DatabaseID string `env:"APPWRITE_DATABASE_ID"`
}

// StoreConfig names the collections and the group the approval flow writes to.
type StoreConfig struct {
	ApplicationsCollection string `env:"APPLICATIONS_COLLECTION" validate:"required"`
	AccountsCollection     string `env:"ACCOUNTS_COLLECTION" validate:"required"`
	ShopOwnersCollection   string `env:"SHOP_OWNERS_COLLECTION" validate:"required"`
	ShopOwnersGroup        string `env:"SHOP_OWNERS_GROUP" validate:"required"`
}

// MongoCollections returns the collection names used by the mongo repositories.
func (c *Config) MongoCollections() mongodb.Collections {
	return mongodb.Collections{
		Applications: c.Stores.ApplicationsCollection,
		Accounts:     c.Stores.AccountsCollection,
		ShopOwners:   c.Stores.ShopOwnersCollection,
		Memberships:  c.Mongo.MembershipsCollection,
	}
}

// Load reads .env (if present) and the environment, then validates the result.
// Environment variables win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Backend: Backend(strings.ToLower(getString(v, "BACKEND", string(BackendMongo)))),
		HTTP: HTTPConfig{
			Port:           getString(v, "PORT", "8080"),
			GinMode:        getString(v, "GIN_MODE", "release"),
			AllowedOrigins: splitList(getString(v, "CORS_ALLOWED_ORIGINS", "*")),
			RequestTimeout: getDuration(v, "REQUEST_TIMEOUT", 30*time.Second),
			RateLimitRPS:   getFloat(v, "RATE_LIMIT_RPS", 5),
			RateLimitBurst: getInt(v, "RATE_LIMIT_BURST", 10),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getString(v, "LOG_LEVEL", "info")),
			Format: strings.ToLower(getString(v, "LOG_FORMAT", "json")),
		},
		Auth: AuthConfig{
			JWTSecret: getString(v, "JWT_SECRET", ""),
		},
		Mongo: MongoConfig{
			URI:                   getString(v, "MONGO_URI", ""),
			Database:              getString(v, "MONGO_DATABASE", ""),
			MembershipsCollection: getString(v, "MEMBERSHIPS_COLLECTION", "groupMemberships"),
		},
		Appwrite: AppwriteConfig{
			Endpoint:   strings.TrimSuffix(getString(v, "APPWRITE_ENDPOINT", ""), "/"),
			ProjectID:  getString(v, "APPWRITE_PROJECT_ID", ""),
			APIKey:     getString(v, "APPWRITE_API_KEY", ""),
			DatabaseID: getString(v, "APPWRITE_DATABASE_ID", ""),
		},
		Stores: StoreConfig{
			ApplicationsCollection: getString(v, "APPLICATIONS_COLLECTION", ""),
			AccountsCollection:     getString(v, "ACCOUNTS_COLLECTION", ""),
			ShopOwnersCollection:   getString(v, "SHOP_OWNERS_COLLECTION", ""),
			ShopOwnersGroup:        getString(v, "SHOP_OWNERS_GROUP", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	validate.RegisterStructValidation(backendRequirements, Config{})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(names, ", "))
}

// backendRequirements enforces the settings each backend needs.
func backendRequirements(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)

	require := func(value, env string) {
		if strings.TrimSpace(value) == "" {
			sl.ReportError(value, env, env, "required", "")
		}
	}

	switch c.Backend {
	case BackendMongo:
		require(c.Mongo.URI, "MONGO_URI")
		require(c.Mongo.Database, "MONGO_DATABASE")
		require(c.Auth.JWTSecret, "JWT_SECRET")
	case BackendAppwrite:
		require(c.Appwrite.Endpoint, "APPWRITE_ENDPOINT")
		require(c.Appwrite.ProjectID, "APPWRITE_PROJECT_ID")
		require(c.Appwrite.APIKey, "APPWRITE_API_KEY")
		require(c.Appwrite.DatabaseID, "APPWRITE_DATABASE_ID")
	}
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return strings.TrimSpace(v.GetString(key))
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		return v.GetInt(key)
	}
	return def
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if v.IsSet(key) {
		return v.GetFloat64(key)
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		return v.GetDuration(key)
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
