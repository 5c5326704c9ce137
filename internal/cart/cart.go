// Package cart implements the shopping cart: pure transformations over an
// ordered list of line items, and an Engine that persists the cart to the
// session store after every mutation.
package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductID identifies a product. The API sends numeric ids, imported carts may
// use strings, so both decode into the same value.
type ProductID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

// String returns the id as text.
func (id ProductID) String() string {
	return string(id)
}

// Product is a catalog entry as returned by the storefront API.
type Product struct {
	ProductID   ProductID       `json:"ProductID"`
	ProductName string          `json:"ProductName"`
	Description string          `json:"Description"`
	Price       decimal.Decimal `json:"Price"`
}

// LineItem is one product/quantity pairing inside a cart or order.
type LineItem struct {
	ProductID   ProductID       `json:"ProductID"`
	ProductName string          `json:"ProductName"`
	Description string          `json:"Description,omitempty"`
	Price       decimal.Decimal `json:"Price"`
	Quantity    int             `json:"Quantity"`
}

// Subtotal returns Price * Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is an ordered list of line items with at most one entry per product.
// No entry is ever stored with a quantity below 1.
type Cart []LineItem

// Len returns the number of distinct products in the cart.
func (c Cart) Len() int {
	return len(c)
}

// Units returns the total quantity across all entries.
func (c Cart) Units() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

// Find returns the entry for id and whether it exists.
func (c Cart) Find(id ProductID) (LineItem, bool) {
	for _, item := range c {
		if item.ProductID == id {
			return item, true
		}
	}
	return LineItem{}, false
}

// Copy returns a cart that shares no backing array with c.
func (c Cart) Copy() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// AddItem returns a cart with one more unit of product. An existing entry keeps
// its position; a new product is appended with quantity 1.
func AddItem(c Cart, product Product) Cart {
	out := c.Copy()
	for i := range out {
		if out[i].ProductID == product.ProductID {
			out[i].Quantity++
			return out
		}
	}
	return append(out, LineItem{
		ProductID:   product.ProductID,
		ProductName: product.ProductName,
		Description: product.Description,
		Price:       product.Price,
		Quantity:    1,
	})
}

// RemoveItem returns a cart without the entry for id. Removing an absent id
// returns an identical copy.
func RemoveItem(c Cart, id ProductID) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ProductID != id {
			out = append(out, item)
		}
	}
	return out
}

// SetQuantity returns a cart with the entry for id set to qty. A quantity of
// zero or less removes the entry. The second result is false if id is absent.
func SetQuantity(c Cart, id ProductID, qty int) (Cart, bool) {
	if _, ok := c.Find(id); !ok {
		return c.Copy(), false
	}
	if qty <= 0 {
		return RemoveItem(c, id), true
	}
	out := c.Copy()
	for i := range out {
		if out[i].ProductID == id {
			out[i].Quantity = qty
		}
	}
	return out, true
}

// Clear returns an empty cart.
func Clear(Cart) Cart {
	return Cart{}
}

// TotalPrice returns the sum of Price * Quantity over all entries.
func TotalPrice(c Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Normalize builds a cart from untrusted items, such as a stored snapshot or an
// imported file. Duplicate products are merged in first-seen order.
func Normalize(items []LineItem) (Cart, error) {
	out := make(Cart, 0, len(items))
	index := make(map[ProductID]int, len(items))
	for i, item := range items {
		if item.ProductID == "" {
			return nil, fmt.Errorf("item %d: missing product id", i)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("item %d (%s): quantity must be at least 1, got %d", i, item.ProductID, item.Quantity)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("item %d (%s): price cannot be negative", i, item.ProductID)
		}
		if pos, ok := index[item.ProductID]; ok {
			out[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out, nil
}
