package notification

import (
	"errors"
	"fmt"
	"testing"

	"inventory-service/internal/apperr"
	"inventory-service/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Product{}, &model.Notification{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func lowProduct(t *testing.T, db *gorm.DB, userID uint, name string, stock, minStock int) *model.Product {
	t.Helper()
	p := model.Product{UserID: userID, Name: name, Price: 1, Stock: stock, MinStock: minStock}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return &p
}

func TestMaybeWarnFiresAtThreshold(t *testing.T) {
	db := testDB(t)

	above := lowProduct(t, db, 1, "Safe", 6, 5)
	notif, err := MaybeWarn(db, 1, above)
	if err != nil {
		t.Fatalf("MaybeWarn failed: %v", err)
	}
	if notif != nil {
		t.Error("warning fired above the threshold")
	}

	at := lowProduct(t, db, 1, "Edge", 5, 5)
	notif, err = MaybeWarn(db, 1, at)
	if err != nil {
		t.Fatalf("MaybeWarn failed: %v", err)
	}
	if notif == nil {
		t.Fatal("expected a warning at stock == min_stock")
	}
	if notif.Kind != model.NotificationWarning {
		t.Errorf("expected warning kind, got %q", notif.Kind)
	}
	if notif.Title != "Low stock: Edge" {
		t.Errorf("unexpected title %q", notif.Title)
	}
}

func TestMaybeWarnDeduplicatesUnread(t *testing.T) {
	db := testDB(t)
	p := lowProduct(t, db, 1, "Gadget", 2, 5)

	first, err := MaybeWarn(db, 1, p)
	if err != nil || first == nil {
		t.Fatalf("expected first warning, got notif=%v err=%v", first, err)
	}

	// Second crossing while the first warning is unread: suppressed.
	second, err := MaybeWarn(db, 1, p)
	if err != nil {
		t.Fatalf("MaybeWarn failed: %v", err)
	}
	if second != nil {
		t.Fatal("duplicate warning created while first is unread")
	}

	var count int64
	db.Model(&model.Notification{}).Where("user_id = ?", 1).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 notification, got %d", count)
	}
}

func TestMarkReadReArmsSentinel(t *testing.T) {
	db := testDB(t)
	p := lowProduct(t, db, 1, "Gizmo", 2, 5)

	first, err := MaybeWarn(db, 1, p)
	if err != nil || first == nil {
		t.Fatalf("expected first warning, got notif=%v err=%v", first, err)
	}

	if err := MarkRead(db, 1, first.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	// After the read, the next crossing warns again.
	second, err := MaybeWarn(db, 1, p)
	if err != nil {
		t.Fatalf("MaybeWarn failed: %v", err)
	}
	if second == nil {
		t.Fatal("expected a new warning after the previous one was read")
	}
	if second.ID == first.ID {
		t.Error("expected a new notification row, not a reuse")
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	db := testDB(t)
	p := lowProduct(t, db, 1, "Thing", 1, 5)
	notif, err := MaybeWarn(db, 1, p)
	if err != nil || notif == nil {
		t.Fatalf("expected warning, got notif=%v err=%v", notif, err)
	}

	err = MarkRead(db, 2, notif.ID)
	if !errors.Is(err, apperr.ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for foreign user, got %v", err)
	}

	err = MarkRead(db, 1, 99999)
	if !errors.Is(err, apperr.ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for unknown id, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 3; i++ {
		p := lowProduct(t, db, 1, fmt.Sprintf("Item %d", i), 0, 5)
		if _, err := MaybeWarn(db, 1, p); err != nil {
			t.Fatalf("MaybeWarn failed: %v", err)
		}
	}

	updated, err := MarkAllRead(db, 1)
	if err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if updated != 3 {
		t.Errorf("expected 3 updated, got %d", updated)
	}

	// Nothing left unread; a second call is a no-op, not an error.
	updated, err = MarkAllRead(db, 1)
	if err != nil {
		t.Fatalf("MarkAllRead on empty set failed: %v", err)
	}
	if updated != 0 {
		t.Errorf("expected 0 updated, got %d", updated)
	}
}

func TestListUnreadOnly(t *testing.T) {
	db := testDB(t)

	a := lowProduct(t, db, 1, "A", 0, 5)
	b := lowProduct(t, db, 1, "B", 0, 5)
	first, _ := MaybeWarn(db, 1, a)
	if _, err := MaybeWarn(db, 1, b); err != nil {
		t.Fatalf("MaybeWarn failed: %v", err)
	}
	if err := MarkRead(db, 1, first.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	all, err := List(db, 1, 1, 10, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if all.Total != 2 {
		t.Errorf("expected 2 notifications, got %d", all.Total)
	}

	unread, err := List(db, 1, 1, 10, true)
	if err != nil {
		t.Fatalf("List unread failed: %v", err)
	}
	if unread.Total != 1 {
		t.Errorf("expected 1 unread notification, got %d", unread.Total)
	}
	if len(unread.Items) == 1 && unread.Items[0].Title != "Low stock: B" {
		t.Errorf("unexpected unread notification %q", unread.Items[0].Title)
	}
}

func TestSweepLowStock(t *testing.T) {
	db := testDB(t)

	lowProduct(t, db, 1, "Low one", 1, 5)
	lowProduct(t, db, 1, "Low two", 0, 5)
	lowProduct(t, db, 2, "Other user low", 2, 5)
	lowProduct(t, db, 1, "Healthy", 50, 5)

	result, err := SweepLowStock(db)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Scanned != 3 {
		t.Errorf("expected 3 scanned, got %d", result.Scanned)
	}
	if result.Created != 3 {
		t.Errorf("expected 3 created, got %d", result.Created)
	}
	if result.LowByUser[1] != 2 || result.LowByUser[2] != 1 {
		t.Errorf("unexpected per-user counts: %v", result.LowByUser)
	}

	// A second sweep creates nothing: every product still has its unread
	// warning.
	again, err := SweepLowStock(db)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if again.Created != 0 {
		t.Errorf("second sweep created %d warnings, want 0", again.Created)
	}
	if again.Scanned != 3 {
		t.Errorf("second sweep scanned %d, want 3", again.Scanned)
	}
}
