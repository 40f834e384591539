package cart

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseGuestCart(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	variantID := uuid.New()

	lines, err := ParseGuestCart("")
	if err != nil || lines != nil {
		t.Fatalf("expected empty cart for blank header, got %v / %v", lines, err)
	}

	payload := fmt.Sprintf(`[{"p":"%s","q":2,"v":"%s"},{"p":"%s","q":0}]`, productID, variantID, uuid.New())
	lines, err = ParseGuestCart(payload)
	if err != nil {
		t.Fatalf("ParseGuestCart: %v", err)
	}
	if len(lines) != 1 || lines[0].ProductID != productID || lines[0].Quantity != 2 {
		t.Fatalf("expected one valid line, got %+v", lines)
	}
	if lines[0].VariantID == nil || *lines[0].VariantID != variantID {
		t.Fatalf("expected variant carried through, got %+v", lines[0].VariantID)
	}

	if _, err := ParseGuestCart("{not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestParseGuestCartRejectsOversizedPayloads(t *testing.T) {
	t.Parallel()

	if _, err := ParseGuestCart("[" + strings.Repeat(" ", maxGuestCartBytes) + "]"); err == nil {
		t.Fatal("expected error for payload over the byte cap")
	}

	entries := make([]string, 0, maxGuestCartLines+1)
	for i := 0; i <= maxGuestCartLines; i++ {
		entries = append(entries, fmt.Sprintf(`{"p":"%s","q":1}`, uuid.New()))
	}
	if _, err := ParseGuestCart("[" + strings.Join(entries, ",") + "]"); err == nil {
		t.Fatal("expected error for payload over the line cap")
	}
}
