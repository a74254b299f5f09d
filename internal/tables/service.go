package tables

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bucamari/pos-backend/internal/storage"
	"go.uber.org/zap"
)

var (
	errMissingStorage    = errors.New("storage adapter is required")
	errMissingSource     = errors.New("table source is required")
	errMissingIDProvider = errors.New("id provider is required")

	// ErrTableNotFound indicates an id with no matching registry entry.
	ErrTableNotFound = errors.New("tables: table not found")
	// ErrConfirmationRequired indicates a clear attempt without the
	// explicit confirmation gate.
	ErrConfirmationRequired = errors.New("tables: clear requires confirmation")
	// ErrEmptyOrder indicates a ticket request for a table with no line items.
	ErrEmptyOrder = errors.New("tables: order list is empty")
)

// ServiceError wraps a failure with a dotted operation code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew  = "tables.service.new"
	opLoad        = "tables.load"
	opAddLineItem = "tables.add_line_item"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// Storage is the persistent key-value adapter the registry mirrors itself
// into. Implemented by storage.Store.
type Storage interface {
	Put(ctx context.Context, key string, value any) bool
	Get(ctx context.Context, key string, out any) bool
}

// Source provides the authoritative table list. Fetch reports records it
// had to reject individually alongside the ones that decoded. Implemented
// by tablesource.Client.
type Source interface {
	Fetch(ctx context.Context) ([]Table, []string, error)
	Push(ctx context.Context, table Table) error
}

// Change is the payload broadcast whenever a table's orders or status
// mutate. Subscribers holding a cached registry copy apply the same merge.
type Change struct {
	TableID string     `json:"table_id"`
	Status  Status     `json:"status"`
	Orders  []LineItem `json:"orders"`
	At      time.Time  `json:"at"`
}

// Publisher broadcasts table changes to in-process subscribers.
type Publisher interface {
	Publish(change Change)
}

// ServiceConfig carries Service dependencies.
type ServiceConfig struct {
	Storage    Storage
	Source     Source
	Publisher  Publisher
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns the in-memory table registry. All mutations persist through
// the storage adapter and broadcast through the publisher before returning.
type Service struct {
	mu       sync.Mutex
	registry []Table
	index    map[string]int
	selected string

	storage    Storage
	source     Source
	publisher  Publisher
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Storage == nil {
		return nil, newServiceError(opServiceNew, "missing_storage", errMissingStorage)
	}
	if cfg.Source == nil {
		return nil, newServiceError(opServiceNew, "missing_source", errMissingSource)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		index:      make(map[string]int),
		storage:    cfg.Storage,
		source:     cfg.Source,
		publisher:  cfg.Publisher,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// LoadResult reports the outcome of a registry load.
type LoadResult struct {
	Tables   []Table
	Rejected []string
}

// Load fetches the table list from the source, validates each record, and
// merges the persisted order list and status on top. Storage is the
// last-writer-wins origin for order/status fields: local mutations only
// live there, and the placeholder source has no timestamps to compare.
func (s *Service) Load(ctx context.Context) (LoadResult, error) {
	fetched, malformed, err := s.source.Fetch(ctx)
	if err != nil {
		s.logger.Error("table load failed", zap.Error(err))
		return LoadResult{}, newServiceError(opLoad, "fetch_failed", err)
	}

	rejected := append([]string(nil), malformed...)
	accepted := make([]Table, 0, len(fetched))
	for _, table := range fetched {
		if reasons := Validate(table); len(reasons) > 0 {
			message := fmt.Sprintf("table %q rejected: %s", table.ID, strings.Join(reasons, "; "))
			rejected = append(rejected, message)
			s.logger.Warn("table record rejected", zap.String("table_id", table.ID), zap.Strings("reasons", reasons))
			continue
		}
		accepted = append(accepted, s.mergeStored(ctx, table))
	}

	s.mu.Lock()
	s.registry = accepted
	s.index = make(map[string]int, len(accepted))
	for position, table := range accepted {
		s.index[table.ID] = position
	}
	s.mu.Unlock()

	s.logger.Info("registry loaded",
		zap.Int("tables", len(accepted)),
		zap.Int("rejected", len(rejected)))
	return LoadResult{Tables: cloneTables(accepted), Rejected: rejected}, nil
}

func (s *Service) mergeStored(ctx context.Context, table Table) Table {
	var storedOrders []LineItem
	if s.storage.Get(ctx, storage.OrderKey(table.ID), &storedOrders) {
		table.Orders = storedOrders
	}
	if table.Orders == nil {
		table.Orders = []LineItem{}
	}

	var storedStatus Status
	var rawStatus string
	if s.storage.Get(ctx, storage.StatusKey(table.ID), &rawStatus) {
		storedStatus = NormalizeStatus(rawStatus)
	}

	table.Status = DeriveStatus(table.Status, table.Orders, storedStatus)
	return table
}

// List returns a copy of the registry.
func (s *Service) List() []Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTables(s.registry)
}

// Get returns the table with the given id.
func (s *Service) Get(id TableID) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	position, ok := s.index[id.String()]
	if !ok {
		return Table{}, ErrTableNotFound
	}
	return cloneTable(s.registry[position]), nil
}

// Select marks a table as the active selection. The only check is identity
// equality against known tables.
func (s *Service) Select(id TableID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id.String()]; !ok {
		return ErrTableNotFound
	}
	s.selected = id.String()
	return nil
}

// Selected returns the active selection, if any.
func (s *Service) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

// Create appends a new free table with a collision-checked id and pushes it
// to the remote source when one is configured. The push is best-effort: the
// local registry entry exists either way.
func (s *Service) Create(ctx context.Context) (Table, error) {
	s.mu.Lock()
	id := GenerateTableID(s.clock, func(candidate string) bool {
		_, taken := s.index[candidate]
		return taken
	})
	table := Table{
		ID:              id,
		Customers:       0,
		Status:          StatusFree,
		OpenedAtSeconds: s.clock().Unix(),
		Orders:          []LineItem{},
	}
	s.index[id] = len(s.registry)
	s.registry = append(s.registry, table)
	s.mu.Unlock()

	if err := s.source.Push(ctx, table); err != nil {
		s.logger.Warn("table push failed", zap.String("table_id", id), zap.Error(err))
	}

	s.logger.Info("table created", zap.String("table_id", id))
	return table, nil
}

// AddLineItem appends an immutable line item to a table's order list,
// persists the list, re-derives and persists the status, and broadcasts
// the change.
func (s *Service) AddLineItem(ctx context.Context, id TableID, item LineItem) (Table, error) {
	if strings.TrimSpace(item.Product) == "" {
		return Table{}, newServiceError(opAddLineItem, "missing_product", ErrInvalidTable)
	}
	if item.UnitPrice < 0 {
		return Table{}, newServiceError(opAddLineItem, "negative_price", ErrInvalidTable)
	}

	if item.ID == "" {
		generated, err := s.idProvider.NewID()
		if err != nil {
			s.logger.Warn("line item id generation failed", zap.Error(err))
		} else {
			item.ID = generated
		}
	}
	if item.AddedAtSeconds == 0 {
		item.AddedAtSeconds = s.clock().Unix()
	}

	s.mu.Lock()
	position, ok := s.index[id.String()]
	if !ok {
		s.mu.Unlock()
		return Table{}, ErrTableNotFound
	}
	table := &s.registry[position]
	table.Orders = append(table.Orders, item)
	updated := cloneTable(*table)
	s.mu.Unlock()

	s.persistAndDerive(ctx, &updated)

	s.mu.Lock()
	if position, ok := s.index[updated.ID]; ok {
		s.registry[position].Status = updated.Status
	}
	s.mu.Unlock()

	s.broadcast(updated)
	return updated, nil
}

// Clear resets a table's order list and status after an explicit
// confirmation, persists the reset, and broadcasts so stale registry
// copies reconcile.
func (s *Service) Clear(ctx context.Context, id TableID, confirmed bool) (Table, error) {
	if !confirmed {
		return Table{}, ErrConfirmationRequired
	}

	s.mu.Lock()
	position, ok := s.index[id.String()]
	if !ok {
		s.mu.Unlock()
		return Table{}, ErrTableNotFound
	}
	table := &s.registry[position]
	table.Orders = []LineItem{}
	table.Status = StatusFree
	updated := cloneTable(*table)
	s.mu.Unlock()

	s.storage.Put(ctx, storage.OrderKey(updated.ID), updated.Orders)
	s.storage.Put(ctx, storage.StatusKey(updated.ID), string(updated.Status))

	s.logger.Info("table cleared", zap.String("table_id", updated.ID))
	s.broadcast(updated)
	return updated, nil
}

// Receipt aggregates a table's order list for ticket rendering.
func (s *Service) Receipt(id TableID) ([]AggregatedEntry, float64, error) {
	table, err := s.Get(id)
	if err != nil {
		return nil, 0, err
	}
	if len(table.Orders) == 0 {
		return nil, 0, ErrEmptyOrder
	}
	return Aggregate(table.Orders), Total(table.Orders), nil
}

// Filter returns tables whose id, server, status, or ordered products match
// the term, case-insensitively. An empty term returns everything.
func (s *Service) Filter(term string) []Table {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.List()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []Table
	for _, table := range s.registry {
		if tableMatches(table, term) {
			matched = append(matched, cloneTable(table))
		}
	}
	return matched
}

// Apply merges an externally observed change into the registry. Components
// holding their own Service instance subscribe to the dispatcher and call
// Apply so every copy converges on the same order/status values.
func (s *Service) Apply(change Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	position, ok := s.index[change.TableID]
	if !ok {
		return
	}
	orders := change.Orders
	if orders == nil {
		orders = []LineItem{}
	}
	s.registry[position].Orders = cloneItems(orders)
	s.registry[position].Status = change.Status
}

func (s *Service) persistAndDerive(ctx context.Context, table *Table) {
	s.storage.Put(ctx, storage.OrderKey(table.ID), table.Orders)

	var storedStatus Status
	var rawStatus string
	if s.storage.Get(ctx, storage.StatusKey(table.ID), &rawStatus) {
		storedStatus = NormalizeStatus(rawStatus)
	}
	table.Status = DeriveStatus(table.Status, table.Orders, storedStatus)
	s.storage.Put(ctx, storage.StatusKey(table.ID), string(table.Status))
}

func (s *Service) broadcast(table Table) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(Change{
		TableID: table.ID,
		Status:  table.Status,
		Orders:  cloneItems(table.Orders),
		At:      s.clock().UTC(),
	})
}

func tableMatches(table Table, term string) bool {
	if strings.Contains(strings.ToLower(table.ID), term) {
		return true
	}
	if strings.Contains(strings.ToLower(table.Server), term) {
		return true
	}
	if strings.Contains(strings.ToLower(string(table.Status)), term) {
		return true
	}
	for _, item := range table.Orders {
		if strings.Contains(strings.ToLower(item.Product), term) {
			return true
		}
	}
	return false
}

func cloneTables(source []Table) []Table {
	cloned := make([]Table, len(source))
	for position, table := range source {
		cloned[position] = cloneTable(table)
	}
	return cloned
}

func cloneTable(table Table) Table {
	table.Orders = cloneItems(table.Orders)
	return table
}

func cloneItems(items []LineItem) []LineItem {
	cloned := make([]LineItem, len(items))
	copy(cloned, items)
	return cloned
}
