package tables

import (
	"errors"
	"fmt"
	"strings"
)

// Status enumerates table occupancy states.
type Status string

const (
	// StatusFree marks a table with no active order.
	StatusFree Status = "free"
	// StatusOccupied marks a table with an open order.
	StatusOccupied Status = "occupied"
	// StatusReserved marks a table held for a booking.
	StatusReserved Status = "reserved"
	// StatusCleaning marks a table being turned over.
	StatusCleaning Status = "cleaning"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidTableID indicates that a table identifier is empty or exceeds storage bounds.
	ErrInvalidTableID = errors.New("tables: invalid table id")
	// ErrUnknownStatus indicates a status value outside the occupancy enum.
	ErrUnknownStatus = errors.New("tables: unknown status")
	// ErrInvalidTable indicates a table record that failed validation.
	ErrInvalidTable = errors.New("tables: invalid table record")
)

// TableID represents a validated table identifier.
type TableID string

// NewTableID validates raw input and returns a TableID.
func NewTableID(rawInput string) (TableID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTableID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidTableID, maxIdentifierLength)
	}
	return TableID(trimmed), nil
}

// String returns the underlying string identifier.
func (id TableID) String() string {
	return string(id)
}

// ParseStatus maps raw input onto the occupancy enum.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusFree:
		return StatusFree, nil
	case StatusOccupied:
		return StatusOccupied, nil
	case StatusReserved:
		return StatusReserved, nil
	case StatusCleaning:
		return StatusCleaning, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
}

// legacyStatusNames maps enum values written by the previous front-end.
var legacyStatusNames = map[string]Status{
	"libre":     StatusFree,
	"ocupada":   StatusOccupied,
	"reservada": StatusReserved,
	"limpieza":  StatusCleaning,
}

// NormalizeStatus resolves raw status input to an enum value, accepting
// legacy names and defaulting to free. Used at fetch/storage boundaries so
// loose upstream data never leaks an unknown status into the registry.
func NormalizeStatus(raw string) Status {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return StatusFree
	}
	if mapped, ok := legacyStatusNames[trimmed]; ok {
		return mapped
	}
	status, err := ParseStatus(trimmed)
	if err != nil {
		return StatusFree
	}
	return status
}

// LineItem is one ordered product instance. Line items are appended to a
// table's order list and never edited in place.
type LineItem struct {
	ID             string  `json:"id,omitempty"`
	Product        string  `json:"product"`
	UnitPrice      float64 `json:"price"`
	Quantity       int     `json:"quantity,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	AddedAtSeconds int64   `json:"added_at_s,omitempty"`
}

// Table models one seating unit tracked by the registry.
type Table struct {
	ID              string     `json:"id"`
	Customers       int        `json:"customers"`
	Status          Status     `json:"status"`
	Server          string     `json:"server,omitempty"`
	OpenedAtSeconds int64      `json:"opened_at_s,omitempty"`
	Orders          []LineItem `json:"orders"`
}

// Validate collects human-readable reasons a table record is unusable.
// An empty slice means the record is valid.
func Validate(table Table) []string {
	var reasons []string
	if strings.TrimSpace(table.ID) == "" {
		reasons = append(reasons, "table id is required")
	}
	if table.Customers < 0 {
		reasons = append(reasons, "customer count must be zero or positive")
	}
	for index, item := range table.Orders {
		if strings.TrimSpace(item.Product) == "" {
			reasons = append(reasons, fmt.Sprintf("order %d is missing a product name", index))
		}
		if item.UnitPrice < 0 {
			reasons = append(reasons, fmt.Sprintf("order %d has a negative price", index))
		}
	}
	return reasons
}

// AggregatedEntry groups a table's line items for one product.
type AggregatedEntry struct {
	Product   string  `json:"product"`
	Count     int     `json:"count"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}
