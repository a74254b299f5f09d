package storage

import (
	"context"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("unexpected sqlite error: %v", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		t.Fatalf("unexpected migrate error: %v", err)
	}
	store, err := New(Config{Database: db})
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	return store, db
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	type payload struct {
		Product string  `json:"product"`
		Price   float64 `json:"price"`
	}

	if ok := store.Put(ctx, OrderKey("T1"), []payload{{Product: "Pizza", Price: 20}}); !ok {
		t.Fatalf("expected write to succeed")
	}

	var restored []payload
	if ok := store.Get(ctx, OrderKey("T1"), &restored); !ok {
		t.Fatalf("expected read to succeed")
	}
	if len(restored) != 1 || restored[0].Product != "Pizza" || restored[0].Price != 20 {
		t.Fatalf("unexpected round trip value: %+v", restored)
	}
}

func TestStoreOverwrite(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	store.Put(ctx, StatusKey("T1"), "occupied")
	store.Put(ctx, StatusKey("T1"), "free")

	var status string
	if ok := store.Get(ctx, StatusKey("T1"), &status); !ok {
		t.Fatalf("expected read to succeed")
	}
	if status != "free" {
		t.Fatalf("expected last write to win, got %q", status)
	}
}

func TestStoreMissingKeyLeavesDefault(t *testing.T) {
	store, _ := openTestStore(t)

	status := "free"
	if ok := store.Get(context.Background(), StatusKey("T9"), &status); ok {
		t.Fatalf("expected miss for unknown key")
	}
	if status != "free" {
		t.Fatalf("expected caller default untouched, got %q", status)
	}
}

func TestStoreDelete(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	store.Put(ctx, StatusKey("T1"), "reserved")
	if ok := store.Delete(ctx, StatusKey("T1")); !ok {
		t.Fatalf("expected delete to succeed")
	}
	var status string
	if ok := store.Get(ctx, StatusKey("T1"), &status); ok {
		t.Fatalf("expected key to be gone")
	}
	if ok := store.Delete(ctx, StatusKey("T1")); !ok {
		t.Fatalf("expected deleting an absent key to be a no-op success")
	}
}

func TestStoreSwallowsFailures(t *testing.T) {
	store, db := openTestStore(t)
	ctx := context.Background()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sqlDB.Close()

	if ok := store.Put(ctx, StatusKey("T1"), "occupied"); ok {
		t.Fatalf("expected write against closed database to report failure")
	}
	var status string
	if ok := store.Get(ctx, StatusKey("T1"), &status); ok {
		t.Fatalf("expected read against closed database to report failure")
	}
}

func TestStoreUnserializableValue(t *testing.T) {
	store, _ := openTestStore(t)

	if ok := store.Put(context.Background(), "bad", func() {}); ok {
		t.Fatalf("expected unserializable value to be rejected")
	}
}

func TestKeyBuilders(t *testing.T) {
	if OrderKey("T1") != "order_T1" {
		t.Fatalf("unexpected order key %q", OrderKey("T1"))
	}
	if StatusKey("T1") != "table_status_T1" {
		t.Fatalf("unexpected status key %q", StatusKey("T1"))
	}
}
