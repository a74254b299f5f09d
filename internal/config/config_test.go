package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address %q", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != "bucamari.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.TableSource != "mesas.json" {
		t.Fatalf("unexpected table source %q", cfg.TableSource)
	}
	if cfg.RestaurantName != "Bucamari Restaurante" {
		t.Fatalf("unexpected restaurant name %q", cfg.RestaurantName)
	}
	if cfg.MenuPath != "" {
		t.Fatalf("expected empty menu path, got %q", cfg.MenuPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	configViper := NewViper()
	configViper.Set("http.address", "127.0.0.1:9090")
	configViper.Set("restaurant.name", "Sucursal Norte")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddress != "127.0.0.1:9090" {
		t.Fatalf("unexpected http address %q", cfg.HTTPAddress)
	}
	if cfg.RestaurantName != "Sucursal Norte" {
		t.Fatalf("unexpected restaurant name %q", cfg.RestaurantName)
	}
}

func TestLoadRejectsMissingDatabasePath(t *testing.T) {
	configViper := NewViper()
	configViper.Set("database.path", " ")

	if _, err := Load(configViper); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadRejectsMissingTableSource(t *testing.T) {
	configViper := NewViper()
	configViper.Set("tables.source", "")

	if _, err := Load(configViper); err == nil {
		t.Fatal("expected validation error")
	}
}
