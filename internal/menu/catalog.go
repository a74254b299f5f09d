// Package menu serves the product catalog the ordering screen offers.
package menu

import (
	"encoding/json"
	"fmt"
	"os"
)

// Product is one orderable catalog entry.
type Product struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category,omitempty"`
	Image    string  `json:"image,omitempty"`
}

// Default returns the built-in catalog used when no menu file is configured.
func Default() []Product {
	return []Product{
		{Name: "Taco", Price: 15, Category: "food"},
		{Name: "Sopa", Price: 20, Category: "food"},
		{Name: "Refresco", Price: 10, Category: "drink"},
	}
}

// Load reads a catalog from a JSON file, falling back to the built-in
// catalog when path is empty.
func Load(path string) ([]Product, error) {
	if path == "" {
		return Default(), nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("menu: read %s: %w", path, err)
	}
	var products []Product
	if err := json.Unmarshal(payload, &products); err != nil {
		return nil, fmt.Errorf("menu: malformed catalog %s: %w", path, err)
	}
	return products, nil
}
