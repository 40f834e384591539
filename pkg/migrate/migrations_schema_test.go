package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yawboateng/marketgh-backend/pkg/migrate"
)

func TestInitSchemaContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE products",
		"CHECK (stock_quantity >= 0)",
		"CONSTRAINT ux_cart_items_line UNIQUE (cart_id, product_id, variant_id)",
		"order_number TEXT NOT NULL UNIQUE",
		"user_id UUID NOT NULL UNIQUE",
		"DROP TABLE IF EXISTS orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
