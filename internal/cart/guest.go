package cart

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GuestLine is one entry of the X-Guest-Cart header payload. The header keeps
// the wire format the storefront writes: `[{"p":"<product>","q":2,"v":"<variant>"}]`.
type GuestLine struct {
	ProductID uuid.UUID  `json:"p"`
	Quantity  int        `json:"q"`
	VariantID *uuid.UUID `json:"v,omitempty"`
}

const (
	maxGuestCartBytes = 8 << 10
	maxGuestCartLines = 100
)

// ParseGuestCart decodes the guest cart header. A missing header is an empty
// cart; a malformed or oversized one returns the error so the handler can
// fall back to an empty cart explicitly. Lines with non-positive quantities
// are dropped.
func ParseGuestCart(header string) ([]GuestLine, error) {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxGuestCartBytes {
		return nil, fmt.Errorf("guest cart payload exceeds %d bytes", maxGuestCartBytes)
	}

	var raw []GuestLine
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("parsing guest cart payload: %w", err)
	}
	if len(raw) > maxGuestCartLines {
		return nil, fmt.Errorf("guest cart payload exceeds %d lines", maxGuestCartLines)
	}

	lines := make([]GuestLine, 0, len(raw))
	for _, line := range raw {
		if line.ProductID == uuid.Nil || line.Quantity <= 0 {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// GuestTotalQuantity sums the quantities of a guest cart payload.
func GuestTotalQuantity(lines []GuestLine) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}
