package orders

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestOrderStatusValid(t *testing.T) {
	valid := []OrderStatus{
		StatusPending, StatusProcessing, StatusConfirmed, StatusPreparing,
		StatusOutForDelivery, StatusDelivered, StatusCancelled, StatusFailed,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if OrderStatus("shipped").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestOrderItems(t *testing.T) {
	order := &Order{}
	items := []OrderItem{
		{Name: "Al Pastor Taco", Quantity: 3, Price: 4.50},
		{Name: "Horchata", Quantity: 1, Customizations: []string{"less ice"}},
	}
	if err := order.SetItems(items); err != nil {
		t.Fatalf("SetItems: %v", err)
	}

	got, err := order.ItemList()
	if err != nil {
		t.Fatalf("ItemList: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Al Pastor Taco" || got[0].Quantity != 3 {
		t.Errorf("unexpected items: %+v", got)
	}

	empty := &Order{}
	if got, err := empty.ItemList(); err != nil || got != nil {
		t.Errorf("empty items should decode to nil, got %v, %v", got, err)
	}
}

// exerciseStore runs the shared Store contract against an implementation.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()

	// Orders
	order := &Order{
		SessionID:      "sess-1",
		Platform:       PlatformUberEats,
		RestaurantName: "Taqueria Uno",
		VoiceCommand:   "order three al pastor tacos",
	}
	if err := store.CreateOrder(order); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID == 0 {
		t.Fatal("expected order ID to be assigned")
	}
	if order.Status != StatusPending {
		t.Errorf("new order should default to pending, got %q", order.Status)
	}

	second := &Order{SessionID: "sess-2", Platform: PlatformUberEats, Status: StatusConfirmed}
	second.CreatedAt = time.Now().UTC().Add(time.Second)
	if err := store.CreateOrder(second); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	got, err := store.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.RestaurantName != "Taqueria Uno" {
		t.Errorf("unexpected order: %+v", got)
	}

	if _, err := store.GetOrder(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, err := store.ListOrders("", 0)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
	if all[0].ID != second.ID {
		t.Error("orders should list newest first")
	}

	filtered, err := store.ListOrders("sess-1", 0)
	if err != nil || len(filtered) != 1 {
		t.Fatalf("expected 1 order for sess-1, got %d (%v)", len(filtered), err)
	}

	if err := store.UpdateOrderStatus(order.ID, StatusDelivered); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	got, _ = store.GetOrder(order.ID)
	if got.Status != StatusDelivered {
		t.Errorf("expected delivered, got %q", got.Status)
	}
	if err := store.UpdateOrderStatus(9999, StatusFailed); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	n, err := store.CountOrdersSince(time.Now().UTC().Add(-time.Hour))
	if err != nil || n != 2 {
		t.Errorf("expected 2 recent orders, got %d (%v)", n, err)
	}

	// Sessions
	session, err := store.GetOrCreateSession("sess-1")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	if session.Status != SessionActive {
		t.Errorf("new session should be active, got %q", session.Status)
	}

	again, err := store.GetOrCreateSession("sess-1")
	if err != nil {
		t.Fatalf("GetOrCreateSession again: %v", err)
	}
	if again.ID != session.ID {
		t.Error("GetOrCreateSession should return the existing session")
	}

	session.TotalInteractions = 3
	session.Status = SessionCompleted
	if err := store.UpdateSession(session); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	updated, _ := store.GetOrCreateSession("sess-1")
	if updated.TotalInteractions != 3 || updated.Status != SessionCompleted {
		t.Errorf("session update not persisted: %+v", updated)
	}

	if _, err := store.GetOrCreateSession("sess-2"); err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	sessions, err := store.ListSessions()
	if err != nil || len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d (%v)", len(sessions), err)
	}

	active, err := store.CountActiveSessions()
	if err != nil || active != 1 {
		t.Errorf("expected 1 active session, got %d (%v)", active, err)
	}

	// Activity
	for _, kind := range []ActivityKind{ActivityInput, ActivityResponse} {
		err := store.RecordActivity(&VoiceActivity{
			SessionID: "sess-1",
			Kind:      kind,
			Payload:   `{"text":"tacos"}`,
		})
		if err != nil {
			t.Fatalf("RecordActivity: %v", err)
		}
	}
	activity, err := store.ListActivity("sess-1", 10)
	if err != nil || len(activity) != 2 {
		t.Fatalf("expected 2 activity rows, got %d (%v)", len(activity), err)
	}
	limited, err := store.ListActivity("sess-1", 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected 1 activity row, got %d (%v)", len(limited), err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestGormStore(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)
}
