package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestShippedMigrationsAreValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate shipped migrations: %v", err)
	}
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)
	for _, sub := range []string{
		"CREATE TYPE order_status AS ENUM ('PENDING', 'PAID', 'SHIPPED', 'DELIVERED', 'CANCELLED')",
		"CREATE TYPE payment_status AS ENUM ('PENDING', 'SUCCEEDED', 'FAILED', 'REFUNDED')",
		"order_id uuid NOT NULL REFERENCES orders (id) ON DELETE CASCADE",
		"product_id uuid NOT NULL REFERENCES products (id) ON DELETE RESTRICT",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_email",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationGuardsStock(t *testing.T) {
	matches, _ := filepath.Glob(filepath.Join("migrations", "*_create_catalog.sql"))
	if len(matches) == 0 {
		t.Fatalf("no catalog migration file found")
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	if !strings.Contains(string(data), "stock integer NOT NULL DEFAULT 0 CHECK (stock >= 0)") {
		t.Fatalf("variants.stock must be guarded against negatives")
	}
}

func TestCreateSQLMigrationAndValidate(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 7, 1, 12, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Gift Cards!", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20250701123000_add_gift_cards.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if _, err := CreateSQLMigration(dir, "add gift cards", now); err == nil {
		t.Fatalf("expected duplicate migration to fail")
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- nothing"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected invalid filename to fail validation")
	}
}

func TestValidateContentRejectsUnbalancedBlocks(t *testing.T) {
	txt := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	if err := validateContent(txt); err == nil {
		t.Fatalf("expected unbalanced statement blocks to fail")
	}
}

func TestEmbeddedSourceMatchesShippedFiles(t *testing.T) {
	fsys, err := source(DefaultDir)
	if err != nil {
		t.Fatalf("embedded source: %v", err)
	}
	embeddedFiles, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(embeddedFiles) == 0 || len(embeddedFiles) != len(onDisk) {
		t.Fatalf("embedded %d files, disk has %d", len(embeddedFiles), len(onDisk))
	}
	if _, err := source(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected missing dir to fail")
	}
}

func TestRunRequiresDB(t *testing.T) {
	if err := Run(context.Background(), nil, DefaultDir, "up", nil); err == nil {
		t.Fatalf("expected nil db to fail")
	}
	if err := MigrateToVersion(context.Background(), nil, DefaultDir, "latest"); err == nil {
		t.Fatalf("expected invalid version to fail")
	}
}
