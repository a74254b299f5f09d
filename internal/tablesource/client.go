// Package tablesource fetches table records from their external origin:
// either a placeholder remote HTTP endpoint or a static local JSON file.
package tablesource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bucamari/pos-backend/internal/tables"
	"go.uber.org/zap"
)

// ErrNetwork indicates a transport failure or non-success status from the
// remote table source. Callers surface it as a retryable connection error.
var ErrNetwork = errors.New("tablesource: connection error")

const requestTimeout = 10 * time.Second

// Client reads and writes table records against the configured source.
type Client struct {
	source     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a Client for source, which is an http(s) URL or a
// local file path.
func NewClient(source string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		source:     strings.TrimSpace(source),
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// Remote reports whether the source is an HTTP endpoint rather than a file.
func (c *Client) Remote() bool {
	return strings.HasPrefix(c.source, "http://") || strings.HasPrefix(c.source, "https://")
}

// Fetch retrieves the table list from the source. Records are normalized at
// this boundary: loose upstream fields (including the legacy Spanish names
// the previous front-end shipped) resolve to defaults before anything else
// sees them. Records whose shape cannot decode (a non-array order list, a
// non-object entry) are rejected individually with a human-readable reason;
// the rest of the payload still loads.
func (c *Client) Fetch(ctx context.Context) ([]tables.Table, []string, error) {
	payload, err := c.read(ctx)
	if err != nil {
		return nil, nil, err
	}

	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, nil, fmt.Errorf("tablesource: malformed table list: %w", err)
	}

	result := make([]tables.Table, 0, len(records))
	var rejected []string
	for position, record := range records {
		var raw rawTable
		if err := json.Unmarshal(record, &raw); err != nil {
			rejected = append(rejected, fmt.Sprintf("record %d rejected: %s", position, decodeReason(err)))
			c.logger.Warn("table record malformed", zap.Int("position", position), zap.Error(err))
			continue
		}
		result = append(result, raw.normalize())
	}
	c.logger.Debug("table list fetched",
		zap.Int("count", len(result)),
		zap.Int("rejected", len(rejected)),
		zap.Bool("remote", c.Remote()))
	return result, rejected, nil
}

// decodeReason turns a per-record decode failure into the reason shown to
// operators.
func decodeReason(err error) string {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return err.Error()
	}
	switch {
	case typeErr.Field == "orders" || typeErr.Field == "pedidos":
		return "order list must be an array"
	case typeErr.Field != "":
		return fmt.Sprintf("field %q has the wrong type", typeErr.Field)
	default:
		return "record must be an object"
	}
}

// Push creates a table on the remote source. File-backed sources are
// read-only, so Push is a no-op for them.
func (c *Client) Push(ctx context.Context, table tables.Table) error {
	if !c.Remote() {
		return nil
	}

	body, err := json.Marshal(table)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.source, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: unexpected status %d", ErrNetwork, response.StatusCode)
	}
	return nil
}

func (c *Client) read(ctx context.Context) ([]byte, error) {
	if !c.Remote() {
		payload, err := os.ReadFile(c.source)
		if err != nil {
			return nil, fmt.Errorf("tablesource: read %s: %w", c.source, err)
		}
		return payload, nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.source, nil)
	if err != nil {
		return nil, err
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrNetwork, response.StatusCode)
	}

	var buffer bytes.Buffer
	if _, err := buffer.ReadFrom(response.Body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return buffer.Bytes(), nil
}

// rawTable tolerates both the current field names and the legacy Spanish
// ones, plus numeric table ids.
type rawTable struct {
	ID              any           `json:"id"`
	Customers       *int          `json:"customers"`
	LegacyCustomers *int          `json:"clientes"`
	Status          string        `json:"status"`
	LegacyStatus    string        `json:"estado"`
	Server          string        `json:"server"`
	LegacyServer    string        `json:"mesero"`
	Orders          []rawLineItem `json:"orders"`
	LegacyOrders    []rawLineItem `json:"pedidos"`
}

type rawLineItem struct {
	ID             string   `json:"id"`
	Product        string   `json:"product"`
	LegacyProduct  string   `json:"producto"`
	Price          *float64 `json:"price"`
	LegacyPrice    *float64 `json:"precio"`
	Quantity       int      `json:"quantity"`
	LegacyQuantity int      `json:"cantidad"`
	Notes          string   `json:"notes"`
	LegacyNotes    string   `json:"notas"`
	AddedAtSeconds int64    `json:"added_at_s"`
}

func (r rawTable) normalize() tables.Table {
	table := tables.Table{
		ID:        coerceID(r.ID),
		Customers: coalesceInt(r.Customers, r.LegacyCustomers),
		Status:    tables.NormalizeStatus(coalesceString(r.Status, r.LegacyStatus)),
		Server:    coalesceString(r.Server, r.LegacyServer),
		Orders:    []tables.LineItem{},
	}

	rawOrders := r.Orders
	if len(rawOrders) == 0 {
		rawOrders = r.LegacyOrders
	}
	for _, item := range rawOrders {
		table.Orders = append(table.Orders, item.normalize())
	}
	return table
}

func (r rawLineItem) normalize() tables.LineItem {
	price := 0.0
	if r.Price != nil {
		price = *r.Price
	} else if r.LegacyPrice != nil {
		price = *r.LegacyPrice
	}
	quantity := r.Quantity
	if quantity == 0 {
		quantity = r.LegacyQuantity
	}
	return tables.LineItem{
		ID:             r.ID,
		Product:        coalesceString(r.Product, r.LegacyProduct),
		UnitPrice:      price,
		Quantity:       quantity,
		Notes:          coalesceString(r.Notes, r.LegacyNotes),
		AddedAtSeconds: r.AddedAtSeconds,
	}
}

func coerceID(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func coalesceString(primary, fallback string) string {
	if strings.TrimSpace(primary) != "" {
		return strings.TrimSpace(primary)
	}
	return strings.TrimSpace(fallback)
}

func coalesceInt(primary, fallback *int) int {
	if primary != nil {
		return *primary
	}
	if fallback != nil {
		return *fallback
	}
	return 0
}
