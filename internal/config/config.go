package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "BUCAMARI"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "bucamari.db"
	defaultLogLevel     = "info"
	defaultTableSource  = "mesas.json"

	defaultRestaurantName    = "Bucamari Restaurante"
	defaultRestaurantAddress = "Calle Principal 123, Centro"
	defaultRestaurantPhone   = "+1 (555) 123-4567"
	defaultRestaurantTaxID   = "12345678901"
)

// AppConfig captures runtime configuration for the POS API server.
type AppConfig struct {
	HTTPAddress  string
	DatabasePath string
	LogLevel     string
	// TableSource is the table list origin: an http(s) URL or a local
	// JSON file path.
	TableSource string
	// MenuPath optionally points at a JSON menu catalog; empty falls
	// back to the built-in catalog.
	MenuPath string

	RestaurantName    string
	RestaurantAddress string
	RestaurantPhone   string
	RestaurantTaxID   string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("tables.source", defaultTableSource)
	configViper.SetDefault("menu.path", "")
	configViper.SetDefault("restaurant.name", defaultRestaurantName)
	configViper.SetDefault("restaurant.address", defaultRestaurantAddress)
	configViper.SetDefault("restaurant.phone", defaultRestaurantPhone)
	configViper.SetDefault("restaurant.tax_id", defaultRestaurantTaxID)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabasePath:      configViper.GetString("database.path"),
		LogLevel:          configViper.GetString("log.level"),
		TableSource:       configViper.GetString("tables.source"),
		MenuPath:          configViper.GetString("menu.path"),
		RestaurantName:    configViper.GetString("restaurant.name"),
		RestaurantAddress: configViper.GetString("restaurant.address"),
		RestaurantPhone:   configViper.GetString("restaurant.phone"),
		RestaurantTaxID:   configViper.GetString("restaurant.tax_id"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.TableSource) == "" {
		return fmt.Errorf("tables.source is required")
	}
	if strings.TrimSpace(c.RestaurantName) == "" {
		return fmt.Errorf("restaurant.name is required")
	}
	return nil
}
