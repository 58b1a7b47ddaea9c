package stock

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
	err = db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.StockLog{},
		&model.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createProduct(t *testing.T, db *gorm.DB, userID uint, stock, minStock int) *model.Product {
	t.Helper()
	p := model.Product{
		UserID:   userID,
		Name:     fmt.Sprintf("Widget %d", userID),
		Price:    9.99,
		Stock:    stock,
		MinStock: minStock,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return &p
}

func applyChange(t *testing.T, db *gorm.DB, userID uint, in ChangeInput) (*Result, error) {
	t.Helper()
	var res *Result
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = Apply(tx, userID, in)
		return err
	})
	return res, err
}

func TestApplyInboundAndOutbound(t *testing.T) {
	db := testDB(t)
	p := createProduct(t, db, 1, 10, 0)

	res, err := applyChange(t, db, 1, ChangeInput{ProductID: p.ID, Kind: model.KindInbound, Quantity: 5})
	if err != nil {
		t.Fatalf("inbound failed: %v", err)
	}
	if res.Product.Stock != 15 {
		t.Errorf("expected stock 15 after inbound, got %d", res.Product.Stock)
	}
	if res.Log.Change != 5 || res.Log.BeforeStock != 10 || res.Log.AfterStock != 15 {
		t.Errorf("unexpected inbound log: change=%d before=%d after=%d",
			res.Log.Change, res.Log.BeforeStock, res.Log.AfterStock)
	}

	res, err = applyChange(t, db, 1, ChangeInput{ProductID: p.ID, Kind: model.KindOutbound, Quantity: 7})
	if err != nil {
		t.Fatalf("outbound failed: %v", err)
	}
	if res.Product.Stock != 8 {
		t.Errorf("expected stock 8 after outbound, got %d", res.Product.Stock)
	}
	if res.Log.Change != -7 {
		t.Errorf("expected logged change -7, got %d", res.Log.Change)
	}

	var count int64
	db.Model(&model.StockLog{}).Where("product_id = ?", p.ID).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 log entries, got %d", count)
	}
}

func TestApplyInsufficientStockLeavesStateUntouched(t *testing.T) {
	db := testDB(t)
	p := createProduct(t, db, 1, 3, 0)

	_, err := applyChange(t, db, 1, ChangeInput{ProductID: p.ID, Kind: model.KindOutbound, Quantity: 5})
	var insufficient *apperr.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Requested != 5 || insufficient.Available != 3 {
		t.Errorf("unexpected error detail: requested=%d available=%d",
			insufficient.Requested, insufficient.Available)
	}

	var reloaded model.Product
	db.First(&reloaded, p.ID)
	if reloaded.Stock != 3 {
		t.Errorf("stock mutated by rejected change: got %d, want 3", reloaded.Stock)
	}
	var count int64
	db.Model(&model.StockLog{}).Where("product_id = ?", p.ID).Count(&count)
	if count != 0 {
		t.Errorf("rejected change left %d log entries", count)
	}
}

func TestApplyAdjustmentSetsAbsoluteValue(t *testing.T) {
	db := testDB(t)
	p := createProduct(t, db, 1, 10, 0)

	res, err := applyChange(t, db, 1, ChangeInput{ProductID: p.ID, Kind: model.KindAdjustment, Quantity: 4})
	if err != nil {
		t.Fatalf("adjustment failed: %v", err)
	}
	if res.Product.Stock != 4 {
		t.Errorf("expected stock 4, got %d", res.Product.Stock)
	}
	if res.Log.Change != -6 {
		t.Errorf("expected logged change -6 (after minus before), got %d", res.Log.Change)
	}

	// Adjustment to zero is allowed
	res, err = applyChange(t, db, 1, ChangeInput{ProductID: p.ID, Kind: model.KindAdjustment, Quantity: 0})
	if err != nil {
		t.Fatalf("adjustment to zero failed: %v", err)
	}
	if res.Product.Stock != 0 {
		t.Errorf("expected stock 0, got %d", res.Product.Stock)
	}
}

func TestApplyValidation(t *testing.T) {
	db := testDB(t)
	p := createProduct(t, db, 1, 10, 0)

	cases := []struct {
		name string
		in   ChangeInput
	}{
		{"unknown kind", ChangeInput{ProductID: p.ID, Kind: "teleport", Quantity: 1}},
		{"negative quantity", ChangeInput{ProductID: p.ID, Kind: model.KindInbound, Quantity: -1}},
		{"zero quantity inbound", ChangeInput{ProductID: p.ID, Kind: model.KindInbound, Quantity: 0}},
		{"zero quantity sale", ChangeInput{ProductID: p.ID, Kind: model.KindSale, Quantity: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := applyChange(t, db, 1, tc.in)
			var validation *apperr.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestApplyScopedToOwner(t *testing.T) {
	db := testDB(t)
	p := createProduct(t, db, 1, 10, 0)

	_, err := applyChange(t, db, 2, ChangeInput{ProductID: p.ID, Kind: model.KindInbound, Quantity: 1})
	if !errors.Is(err, apperr.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for foreign product, got %v", err)
	}

	var reloaded model.Product
	db.First(&reloaded, p.ID)
	if reloaded.Stock != 10 {
		t.Errorf("foreign user mutated stock: got %d, want 10", reloaded.Stock)
	}
}

func TestApplySaleBumpsSalesCount(t *testing.T) {
	db := testDB(t)
	p := createProduct(t, db, 1, 10, 0)

	res, err := applyChange(t, db, 1, ChangeInput{ProductID: p.ID, Kind: model.KindSale, Quantity: 3, Reference: "SO-TEST"})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	if res.Product.Stock != 7 {
		t.Errorf("expected stock 7, got %d", res.Product.Stock)
	}
	if res.Product.SalesCount != 3 {
		t.Errorf("expected sales count 3, got %d", res.Product.SalesCount)
	}
	if res.Log.Reference != "SO-TEST" {
		t.Errorf("expected reference SO-TEST, got %q", res.Log.Reference)
	}

	// Outbound does not bump the sales count
	res, err = applyChange(t, db, 1, ChangeInput{ProductID: p.ID, Kind: model.KindOutbound, Quantity: 2})
	if err != nil {
		t.Fatalf("outbound failed: %v", err)
	}
	if res.Product.SalesCount != 3 {
		t.Errorf("outbound changed sales count: got %d, want 3", res.Product.SalesCount)
	}
}

func TestApplyTriggersLowStockWarning(t *testing.T) {
	db := testDB(t)
	p := createProduct(t, db, 1, 10, 5)

	// 10 -> 6: still above the threshold
	res, err := applyChange(t, db, 1, ChangeInput{ProductID: p.ID, Kind: model.KindOutbound, Quantity: 4})
	if err != nil {
		t.Fatalf("outbound failed: %v", err)
	}
	if res.Notification != nil {
		t.Error("warning fired above the threshold")
	}

	// 6 -> 5: at the threshold, warning fires
	res, err = applyChange(t, db, 1, ChangeInput{ProductID: p.ID, Kind: model.KindOutbound, Quantity: 1})
	if err != nil {
		t.Fatalf("outbound failed: %v", err)
	}
	if res.Notification == nil {
		t.Fatal("expected a low-stock warning at the threshold")
	}
	if res.Notification.Kind != model.NotificationWarning {
		t.Errorf("expected warning kind, got %q", res.Notification.Kind)
	}
}

func TestLedgerInvariantAcrossMutations(t *testing.T) {
	db := testDB(t)
	initial := 20
	p := createProduct(t, db, 1, initial, 0)

	changes := []ChangeInput{
		{ProductID: p.ID, Kind: model.KindInbound, Quantity: 5},
		{ProductID: p.ID, Kind: model.KindSale, Quantity: 8},
		{ProductID: p.ID, Kind: model.KindAdjustment, Quantity: 30},
		{ProductID: p.ID, Kind: model.KindOutbound, Quantity: 12},
	}
	for _, in := range changes {
		if _, err := applyChange(t, db, 1, in); err != nil {
			t.Fatalf("mutation %q failed: %v", in.Kind, err)
		}
	}

	var reloaded model.Product
	db.First(&reloaded, p.ID)

	var logs []model.StockLog
	db.Where("product_id = ?", p.ID).Order("id ASC").Find(&logs)

	sum := 0
	prev := initial
	for _, entry := range logs {
		if entry.BeforeStock != prev {
			t.Errorf("log %d: before=%d, want %d (entries must chain)", entry.ID, entry.BeforeStock, prev)
		}
		if entry.AfterStock != entry.BeforeStock+entry.Change {
			t.Errorf("log %d: after=%d != before+change=%d", entry.ID, entry.AfterStock, entry.BeforeStock+entry.Change)
		}
		sum += entry.Change
		prev = entry.AfterStock
	}
	if reloaded.Stock != initial+sum {
		t.Errorf("stock %d != initial %d + sum of changes %d", reloaded.Stock, initial, sum)
	}
}

func TestHistoryPagination(t *testing.T) {
	db := testDB(t)
	p := createProduct(t, db, 1, 100, 0)

	for i := 0; i < 5; i++ {
		if _, err := applyChange(t, db, 1, ChangeInput{ProductID: p.ID, Kind: model.KindOutbound, Quantity: 1}); err != nil {
			t.Fatalf("mutation %d failed: %v", i, err)
		}
	}

	page, err := History(db, 1, p.ID, 1, 2)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("expected total 5, got %d", page.Total)
	}
	if len(page.Entries) != 2 {
		t.Errorf("expected 2 entries on page 1, got %d", len(page.Entries))
	}
	if page.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", page.TotalPages)
	}
	// Newest first
	if len(page.Entries) == 2 && page.Entries[0].ID < page.Entries[1].ID {
		t.Error("expected newest-first ordering")
	}

	last, err := History(db, 1, p.ID, 3, 2)
	if err != nil {
		t.Fatalf("history page 3 failed: %v", err)
	}
	if len(last.Entries) != 1 {
		t.Errorf("expected 1 entry on last page, got %d", len(last.Entries))
	}

	// Other users see nothing
	foreign, err := History(db, 2, p.ID, 1, 10)
	if err != nil {
		t.Fatalf("history for other user failed: %v", err)
	}
	if foreign.Total != 0 {
		t.Errorf("expected empty history for other user, got %d", foreign.Total)
	}
}
