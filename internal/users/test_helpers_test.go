package users

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:users_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := NewGormStore(newTestDatabase(t))
	if err != nil {
		t.Fatalf("failed to construct store: %v", err)
	}
	return store
}

type sequentialIDProvider struct {
	next atomic.Int64
}

func (p *sequentialIDProvider) NewID() (string, error) {
	return fmt.Sprintf("user-%03d", p.next.Add(1)), nil
}
