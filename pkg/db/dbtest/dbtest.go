// Package dbtest opens migrated in-memory SQLite databases for repository tests.
package dbtest

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/pkg/db"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Open returns a client over a fresh shared-cache in-memory database with every
// model migrated. The pool is pinned to one connection so concurrent
// transactions serialize instead of failing with table locks.
func Open(t testing.TB) *db.Client {
	t.Helper()

	name := unsafeName.ReplaceAllString(t.Name(), "_")
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=on", name, uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db.NewFromConn(conn)
}
