package validation

import (
	"errors"
	"testing"

	sferrors "github.com/storefront-labs/storefront/internal/errors"
)

func TestLoginRequest_Valid(t *testing.T) {
	if err := Struct(LoginRequest{Email: "ann@example.com", Password: "pw"}); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestLoginRequest_InvalidEmail(t *testing.T) {
	err := Struct(LoginRequest{Email: "not-an-email", Password: "pw"})

	var invalid *sferrors.ErrInvalidInput
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if invalid.Field != "Email" {
		t.Errorf("expected field Email, got %s", invalid.Field)
	}
}

func TestRegisterRequest_MissingFields(t *testing.T) {
	if err := Struct(RegisterRequest{Email: "ann@example.com", Password: "secret1"}); err == nil {
		t.Fatal("expected error for missing full name, got nil")
	}
	if err := Struct(RegisterRequest{FullName: "Ann", Email: "ann@example.com", Password: "123"}); err == nil {
		t.Fatal("expected error for short password, got nil")
	}
}

func TestParseCartFile_Valid(t *testing.T) {
	data := []byte(`
replace: true
items:
  - product_id: "1"
    name: Kettle
    price: "10.00"
    quantity: 2
  - product_id: 2
    name: Toaster
    price: 5
    quantity: 1
`)

	f, err := ParseCartFile(data)
	if err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
	if !f.Replace || len(f.Items) != 2 {
		t.Fatalf("unexpected file: %+v", f)
	}

	items := f.LineItems()
	if items[1].ProductID != "2" || items[1].Price.String() != "5" {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestParseCartFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"no items":          "items: []\n",
		"zero quantity":     "items:\n  - product_id: \"1\"\n    price: \"1\"\n    quantity: 0\n",
		"negative price":    "items:\n  - product_id: \"1\"\n    price: \"-1\"\n    quantity: 1\n",
		"missing id":        "items:\n  - price: \"1\"\n    quantity: 1\n",
		"duplicate product": "items:\n  - product_id: \"1\"\n    price: \"1\"\n    quantity: 1\n  - product_id: \"1\"\n    price: \"1\"\n    quantity: 1\n",
		"bad yaml":          "items: [\n",
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCartFile([]byte(data))
			var invalid *sferrors.ErrInvalidInput
			if !errors.As(err, &invalid) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
