package cart

import (
	"context"
	"errors"
	"fmt"

	sferrors "github.com/storefront-labs/storefront/internal/errors"
	"github.com/storefront-labs/storefront/internal/storage"
)

// Engine applies cart operations against the session store. Each mutation
// loads the current cart, transforms it and writes it back before returning.
type Engine struct {
	store storage.SessionStore
}

// NewEngine creates an Engine backed by store.
func NewEngine(store storage.SessionStore) *Engine {
	return &Engine{store: store}
}

// Load returns the stored cart, or an empty cart if none is stored. Stored
// entries with a quantity below 1 are dropped on restore.
func (e *Engine) Load(ctx context.Context) (Cart, error) {
	var items []LineItem
	found, err := storage.LoadJSON(ctx, e.store, storage.KeyCart, &items)
	var coded sferrors.Coded
	if err != nil && errors.As(err, &coded) {
		return nil, err
	}
	if err != nil {
		return nil, sferrors.NewStoreUnavailable("stored cart cannot be read; run 'storefront cart clear' to reset it", err)
	}
	if !found {
		return Cart{}, nil
	}
	kept := items[:0]
	for _, item := range items {
		if item.Quantity >= 1 {
			kept = append(kept, item)
		}
	}
	c, err := Normalize(kept)
	if err != nil {
		return nil, sferrors.NewStoreUnavailable(
			fmt.Sprintf("stored cart is invalid: %v; run 'storefront cart clear' to reset it", err), nil)
	}
	return c, nil
}

// Add puts one unit of product into the cart.
func (e *Engine) Add(ctx context.Context, product Product) (Cart, error) {
	return e.AddQuantity(ctx, product, 1)
}

// AddQuantity puts qty units of product into the cart in a single write.
func (e *Engine) AddQuantity(ctx context.Context, product Product, qty int) (Cart, error) {
	if qty < 1 {
		return nil, sferrors.NewInvalidInput("quantity", "must be at least 1")
	}
	return e.mutate(ctx, func(c Cart) (Cart, error) {
		for i := 0; i < qty; i++ {
			c = AddItem(c, product)
		}
		return c, nil
	})
}

// Remove drops the entry for id. Removing an absent product is a no-op.
func (e *Engine) Remove(ctx context.Context, id ProductID) (Cart, error) {
	return e.mutate(ctx, func(c Cart) (Cart, error) {
		return RemoveItem(c, id), nil
	})
}

// SetQuantity sets the quantity for a product already in the cart; zero removes it.
func (e *Engine) SetQuantity(ctx context.Context, id ProductID, qty int) (Cart, error) {
	if qty < 0 {
		return nil, sferrors.NewInvalidInput("quantity", "cannot be negative")
	}
	return e.mutate(ctx, func(c Cart) (Cart, error) {
		out, ok := SetQuantity(c, id, qty)
		if !ok {
			return nil, sferrors.NewProductNotFound(id.String())
		}
		return out, nil
	})
}

// Clear empties the cart. The stored cart is overwritten without being read,
// so an unreadable cart can always be reset.
func (e *Engine) Clear(ctx context.Context) (Cart, error) {
	empty := Clear(nil)
	if err := storage.SaveJSON(ctx, e.store, storage.KeyCart, empty); err != nil {
		return nil, err
	}
	return empty, nil
}

// Import merges items into the cart. With replace set the current contents are
// discarded first.
func (e *Engine) Import(ctx context.Context, items []LineItem, replace bool) (Cart, error) {
	incoming, err := Normalize(items)
	if err != nil {
		return nil, sferrors.NewInvalidInput("items", err.Error())
	}
	return e.mutate(ctx, func(c Cart) (Cart, error) {
		if replace {
			return incoming, nil
		}
		return Normalize(append(c.Copy(), incoming...))
	})
}

func (e *Engine) mutate(ctx context.Context, fn func(Cart) (Cart, error)) (Cart, error) {
	current, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := storage.SaveJSON(ctx, e.store, storage.KeyCart, next); err != nil {
		return nil, err
	}
	return next, nil
}
