package cart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func product(id string, price string) Product {
	return Product{
		ProductID:   ProductID(id),
		ProductName: "Product " + id,
		Price:       decimal.RequireFromString(price),
	}
}

// TestAddItem_Twice verifies a repeated add increments instead of duplicating.
//
// Green-Flag: one entry with quantity 2.
func TestAddItem_Twice(t *testing.T) {
	p := product("1", "10.00")

	c := AddItem(AddItem(Cart{}, p), p)

	if len(c) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(c))
	}
	if c[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", c[0].Quantity)
	}
}

// TestAddItem_KeepsOrder verifies existing entries keep their position.
func TestAddItem_KeepsOrder(t *testing.T) {
	a, b, c := product("a", "1"), product("b", "2"), product("c", "3")

	cart := AddItem(AddItem(AddItem(Cart{}, a), b), c)
	cart = AddItem(cart, b)

	want := []ProductID{"a", "b", "c"}
	for i, id := range want {
		if cart[i].ProductID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, cart[i].ProductID)
		}
	}
	if cart[1].Quantity != 2 {
		t.Errorf("expected b quantity 2, got %d", cart[1].Quantity)
	}
}

// TestAddItem_DoesNotMutateInput verifies the input cart is left untouched.
func TestAddItem_DoesNotMutateInput(t *testing.T) {
	p := product("1", "10.00")
	original := Cart{{ProductID: "1", Price: p.Price, Quantity: 1}}

	_ = AddItem(original, p)

	if original[0].Quantity != 1 {
		t.Errorf("input cart mutated: quantity %d", original[0].Quantity)
	}
}

// TestRemoveItem_AbsentIsIdempotent verifies removing an absent id twice is a no-op.
func TestRemoveItem_AbsentIsIdempotent(t *testing.T) {
	c := AddItem(Cart{}, product("1", "10.00"))

	once := RemoveItem(c, "99")
	twice := RemoveItem(once, "99")

	if len(once) != 1 || len(twice) != 1 {
		t.Fatalf("expected cart unchanged, got %v then %v", once, twice)
	}
	if once[0] != twice[0] || once[0] != c[0] {
		t.Errorf("expected identical carts, got %v and %v", once, twice)
	}
}

// TestRemoveItem_Present verifies the matching entry is dropped.
func TestRemoveItem_Present(t *testing.T) {
	c := AddItem(AddItem(Cart{}, product("1", "1")), product("2", "2"))

	out := RemoveItem(c, "1")

	if len(out) != 1 || out[0].ProductID != "2" {
		t.Errorf("expected only product 2, got %v", out)
	}
	if len(c) != 2 {
		t.Errorf("input cart mutated: %v", c)
	}
}

// TestTotalPrice_Scenario verifies the reference cart totals 25.00.
func TestTotalPrice_Scenario(t *testing.T) {
	c := Cart{
		{ProductID: "1", Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: "2", Price: decimal.RequireFromString("5.00"), Quantity: 1},
	}

	got := TotalPrice(c)

	if !got.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("expected 25.00, got %s", got)
	}
}

// TestTotalPrice_ExactDecimal verifies currency sums do not drift.
func TestTotalPrice_ExactDecimal(t *testing.T) {
	c := Cart{}
	for i := 0; i < 10; i++ {
		c = AddItem(c, product("dime", "0.10"))
	}
	c = AddItem(c, product("x", "0.20"))

	if got := TotalPrice(c); got.String() != "1.2" {
		t.Errorf("expected exactly 1.2, got %s", got)
	}
}

// TestTotalPrice_ClearIsZero verifies an emptied cart totals zero.
func TestTotalPrice_ClearIsZero(t *testing.T) {
	carts := []Cart{
		{},
		AddItem(Cart{}, product("1", "3.50")),
		AddItem(AddItem(Cart{}, product("1", "3.50")), product("2", "99.99")),
	}

	for _, c := range carts {
		if got := TotalPrice(Clear(c)); !got.IsZero() {
			t.Errorf("expected 0 for cleared cart, got %s", got)
		}
	}
}

// TestSetQuantity verifies quantity updates and removal at zero.
func TestSetQuantity(t *testing.T) {
	c := AddItem(Cart{}, product("1", "2.00"))

	tests := []struct {
		name      string
		id        ProductID
		qty       int
		wantFound bool
		wantLen   int
		wantQty   int
	}{
		{"set to 5", "1", 5, true, 1, 5},
		{"zero removes", "1", 0, true, 0, 0},
		{"absent id", "2", 3, false, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, found := SetQuantity(c, tt.id, tt.qty)
			if found != tt.wantFound {
				t.Errorf("expected found=%v, got %v", tt.wantFound, found)
			}
			if len(out) != tt.wantLen {
				t.Fatalf("expected %d entries, got %d", tt.wantLen, len(out))
			}
			if tt.wantLen > 0 && out[0].Quantity != tt.wantQty {
				t.Errorf("expected quantity %d, got %d", tt.wantQty, out[0].Quantity)
			}
		})
	}
}

// TestNormalize verifies merging and rejection of invalid items.
func TestNormalize(t *testing.T) {
	price := decimal.RequireFromString("1.00")

	merged, err := Normalize([]LineItem{
		{ProductID: "a", Price: price, Quantity: 1},
		{ProductID: "b", Price: price, Quantity: 1},
		{ProductID: "a", Price: price, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged) != 2 || merged[0].Quantity != 3 {
		t.Errorf("expected a merged to quantity 3, got %v", merged)
	}

	bad := map[string][]LineItem{
		"zero quantity":  {{ProductID: "a", Price: price, Quantity: 0}},
		"negative price": {{ProductID: "a", Price: decimal.NewFromInt(-1), Quantity: 1}},
		"missing id":     {{Price: price, Quantity: 1}},
	}
	for name, items := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := Normalize(items); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// TestLineItem_DecodesBrowserFormat verifies numeric ids and prices decode.
func TestLineItem_DecodesBrowserFormat(t *testing.T) {
	raw := `[{"ProductID":7,"ProductName":"Mug","Description":"Blue","Price":12.5,"Quantity":2}]`

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if items[0].ProductID != "7" {
		t.Errorf("expected id '7', got %q", items[0].ProductID)
	}
	if !TotalPrice(items).Equal(decimal.RequireFromString("25")) {
		t.Errorf("expected total 25, got %s", TotalPrice(items))
	}
}
