package validation

import (
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/storefront-labs/storefront/internal/cart"
	sferrors "github.com/storefront-labs/storefront/internal/errors"
)

// CartFile is a cart definition read by 'cart import'.
//
//	replace: true
//	items:
//	  - product_id: "1"
//	    name: Kettle
//	    price: "10.00"
//	    quantity: 2
type CartFile struct {
	Replace bool           `yaml:"replace"`
	Items   []CartFileItem `yaml:"items" validate:"required,min=1,dive"`
}

// CartFileItem is one line of a CartFile.
type CartFileItem struct {
	ProductID   string `yaml:"product_id" validate:"required"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price" validate:"required,money"`
	Quantity    int    `yaml:"quantity" validate:"min=1"`
}

// cartFileStructValidation rejects files that list a product twice.
func cartFileStructValidation(sl validatorv10.StructLevel) {
	f := sl.Current().Interface().(CartFile)
	seen := make(map[string]bool, len(f.Items))
	for _, item := range f.Items {
		id := strings.TrimSpace(item.ProductID)
		if seen[id] {
			sl.ReportError(f.Items, "items", "Items", "unique_product", id)
			return
		}
		seen[id] = true
	}
}

// ParseCartFile decodes and validates a YAML cart definition.
func ParseCartFile(data []byte) (*CartFile, error) {
	var f CartFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, sferrors.NewInvalidInput("file", fmt.Sprintf("invalid YAML: %v", err))
	}
	if err := Struct(f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LineItems converts the file into cart line items. Names and prices are
// taken as written; nothing checks them against the catalog.
func (f *CartFile) LineItems() []cart.LineItem {
	items := make([]cart.LineItem, 0, len(f.Items))
	for _, it := range f.Items {
		items = append(items, cart.LineItem{
			ProductID:   cart.ProductID(strings.TrimSpace(it.ProductID)),
			ProductName: it.Name,
			Description: it.Description,
			Price:       decimal.RequireFromString(strings.TrimSpace(it.Price)),
			Quantity:    it.Quantity,
		})
	}
	return items
}
