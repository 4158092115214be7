package app

import (
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

func TestCartRouter_DispatchesByOwnerKind(t *testing.T) {
	customerStore := memory.NewCartRepository()
	sessionStore := memory.NewCartRepository()
	router := newCartRouter(customerStore, sessionStore)

	customer := domain.CustomerKey("customer-1")
	session := domain.SessionKey("session-1")

	if err := router.AddLine(customer, "lipstick-01", 2); err != nil {
		t.Fatalf("add customer line: %v", err)
	}
	if err := router.AddLine(session, "mascara-02", 1); err != nil {
		t.Fatalf("add session line: %v", err)
	}

	// Каждая корзина должна оказаться только в своём хранилище.
	fromCustomerStore, err := customerStore.Read(customer)
	if err != nil {
		t.Fatal(err)
	}
	if len(fromCustomerStore.Lines) != 1 || fromCustomerStore.Lines[0].ProductID != "lipstick-01" {
		t.Errorf("unexpected customer cart: %+v", fromCustomerStore.Lines)
	}

	fromSessionStore, err := sessionStore.Read(session)
	if err != nil {
		t.Fatal(err)
	}
	if len(fromSessionStore.Lines) != 1 || fromSessionStore.Lines[0].ProductID != "mascara-02" {
		t.Errorf("unexpected session cart: %+v", fromSessionStore.Lines)
	}

	emptySession, err := customerStore.Read(session)
	if err != nil {
		t.Fatal(err)
	}
	if len(emptySession.Lines) != 0 {
		t.Errorf("session cart leaked into customer store: %+v", emptySession.Lines)
	}
}

func TestCartRouter_TakeAllRoutesToOwningStore(t *testing.T) {
	customerStore := memory.NewCartRepository()
	sessionStore := memory.NewCartRepository()
	router := newCartRouter(customerStore, sessionStore)

	session := domain.SessionKey("session-7")
	if err := router.AddLine(session, "mascara-02", 2); err != nil {
		t.Fatal(err)
	}

	taken, err := router.TakeAll(session)
	if err != nil {
		t.Fatal(err)
	}
	if len(taken.Lines) != 1 || taken.Lines[0].ProductID != "mascara-02" {
		t.Errorf("unexpected taken cart: %+v", taken.Lines)
	}

	drained, err := sessionStore.Read(session)
	if err != nil {
		t.Fatal(err)
	}
	if len(drained.Lines) != 0 {
		t.Errorf("session store must be drained after take, got %+v", drained.Lines)
	}
}

func TestCartRouter_ReadAndMutateThroughRouter(t *testing.T) {
	router := newCartRouter(memory.NewCartRepository(), memory.NewCartRepository())
	owner := domain.SessionKey("session-42")

	if err := router.AddLine(owner, "serum-03", 3); err != nil {
		t.Fatal(err)
	}
	if err := router.SetQuantity(owner, "serum-03", 5); err != nil {
		t.Fatal(err)
	}

	cart, err := router.Read(owner)
	if err != nil {
		t.Fatal(err)
	}
	line, ok := cart.Line("serum-03")
	if !ok || line.Qty != 5 {
		t.Errorf("expected qty 5, got %+v (ok=%v)", line, ok)
	}

	if err := router.Clear(owner); err != nil {
		t.Fatal(err)
	}
	cart, err = router.Read(owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Lines) != 0 {
		t.Errorf("cart should be empty after clear, got %+v", cart.Lines)
	}
}
