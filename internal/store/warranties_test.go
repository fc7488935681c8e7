package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/garancija/internal/db"
	"github.com/erazemk/garancija/internal/model"
	"github.com/erazemk/garancija/internal/warranty"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// seedWarranty stores a two year manufacturer warranty starting at t0.
func seedWarranty(t *testing.T, database *sql.DB, conditions model.TransferConditions, remaining *int) model.Warranty {
	t.Helper()

	cost := decimal.RequireFromString("129.90")
	w := model.Warranty{
		ID:          uuid.New(),
		AssetID:     uuid.New(),
		Type:        model.CoverageManufacturer,
		Provider:    "Acme",
		StartDate:   t0,
		EndDate:     t0.Add(days(730)),
		Email:       "support@acme.test",
		DocumentIDs: []uuid.UUID{uuid.New()},
		Cost:        &cost,
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
	tr := model.Transferability{
		WarrantyID:         w.ID,
		IsTransferable:     true,
		Conditions:         conditions,
		RemainingTransfers: remaining,
	}

	created, err := CreateWarranty(context.Background(), database, w, tr)
	if err != nil {
		t.Fatalf("CreateWarranty: %v", err)
	}
	return *created
}

func TestCreateAndGetWarranty(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	w := seedWarranty(t, database, warranty.ManufacturerConditions(), nil)

	got, err := GetWarranty(ctx, database, w.ID)
	if err != nil {
		t.Fatalf("GetWarranty: %v", err)
	}
	if got == nil {
		t.Fatal("expected warranty, got nil")
	}
	if got.Provider != "Acme" || got.Type != model.CoverageManufacturer {
		t.Errorf("unexpected warranty %+v", got)
	}
	if !got.StartDate.Equal(t0) || !got.EndDate.Equal(t0.Add(days(730))) {
		t.Errorf("window not preserved: %v..%v", got.StartDate, got.EndDate)
	}
	if got.Cost == nil || got.Cost.String() != "129.9" {
		t.Errorf("expected cost 129.9, got %v", got.Cost)
	}
	if len(got.DocumentIDs) != 1 || got.DocumentIDs[0] != w.DocumentIDs[0] {
		t.Errorf("document ids not preserved: %v", got.DocumentIDs)
	}

	missing, err := GetWarranty(ctx, database, uuid.New())
	if err != nil {
		t.Fatalf("GetWarranty: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown warranty")
	}
}

func TestCreateWarrantyRejectsInvertedWindow(t *testing.T) {
	database := db.NewTestDB(t)

	w := model.Warranty{ID: uuid.New(), Type: model.CoverageRetailer, StartDate: t0, EndDate: t0.Add(-time.Hour)}
	tr := model.Transferability{WarrantyID: w.ID}
	if _, err := CreateWarranty(context.Background(), database, w, tr); err == nil {
		t.Fatal("expected error for inverted window")
	}
}

func TestCreateWarrantyRejectsInconsistentConditions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	w := model.Warranty{ID: uuid.New(), Type: model.CoverageRetailer, StartDate: t0, EndDate: t0.Add(days(10))}
	tr := model.Transferability{WarrantyID: w.ID, Conditions: model.TransferConditions{ReducedCoverage: true}}
	if _, err := CreateWarranty(ctx, database, w, tr); err == nil {
		t.Fatal("expected error for reduction without a percentage")
	}

	got, _ := GetWarranty(ctx, database, w.ID)
	if got != nil {
		t.Error("rejected warranty must not be stored")
	}
}

func TestListWarrantiesByAsset(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := seedWarranty(t, database, warranty.ManufacturerConditions(), nil)
	seedWarranty(t, database, warranty.ManufacturerConditions(), nil)

	all, err := ListWarranties(ctx, database, uuid.Nil)
	if err != nil {
		t.Fatalf("ListWarranties: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 warranties, got %d", len(all))
	}

	one, err := ListWarranties(ctx, database, a.AssetID)
	if err != nil {
		t.Fatalf("ListWarranties: %v", err)
	}
	if len(one) != 1 || one[0].ID != a.ID {
		t.Errorf("expected only warranty %s, got %+v", a.ID, one)
	}
}

func TestUpdateWarrantyDetailsKeepsWindow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	w := seedWarranty(t, database, warranty.ManufacturerConditions(), nil)
	w.Provider = "Acme Europe"
	w.Notes = "registered online"
	w.EndDate = t0.Add(days(5000))
	w.Cost = nil
	w.UpdatedAt = t0.Add(days(1))

	if err := UpdateWarrantyDetails(ctx, database, w); err != nil {
		t.Fatalf("UpdateWarrantyDetails: %v", err)
	}

	got, _ := GetWarranty(ctx, database, w.ID)
	if got.Provider != "Acme Europe" || got.Notes != "registered online" {
		t.Errorf("details not updated: %+v", got)
	}
	if got.Cost != nil {
		t.Errorf("expected cost cleared, got %v", got.Cost)
	}
	if !got.EndDate.Equal(t0.Add(days(730))) {
		t.Errorf("end date must not change through details update, got %v", got.EndDate)
	}
}

func TestTransferabilityRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	two := 2
	w := seedWarranty(t, database, warranty.HomeWarrantyConditions(), &two)

	tr, err := GetTransferability(ctx, database, w.ID)
	if err != nil {
		t.Fatalf("GetTransferability: %v", err)
	}
	if tr == nil {
		t.Fatal("expected transferability, got nil")
	}
	if !tr.IsTransferable || tr.RemainingTransfers == nil || *tr.RemainingTransfers != 2 {
		t.Errorf("unexpected transferability %+v", tr)
	}
	if !tr.Conditions.RequiresInspection || tr.Conditions.NotificationDays != 7 {
		t.Errorf("conditions not preserved: %+v", tr.Conditions)
	}
	if tr.Conditions.FeeAmount == nil || !tr.Conditions.FeeAmount.Equal(decimal.NewFromInt(75)) {
		t.Errorf("fee not preserved: %v", tr.Conditions.FeeAmount)
	}
	if tr.TransferHistory == nil || len(tr.TransferHistory) != 0 {
		t.Errorf("expected empty history, got %v", tr.TransferHistory)
	}

	tr.IsTransferable = false
	tr.RemainingTransfers = nil
	tr.Conditions = warranty.NonTransferableConditions()
	if err := SetTransferability(ctx, database, *tr); err != nil {
		t.Fatalf("SetTransferability: %v", err)
	}

	got, _ := GetTransferability(ctx, database, w.ID)
	if got.IsTransferable || got.RemainingTransfers != nil {
		t.Errorf("policy not replaced: %+v", got)
	}
	if got.Conditions.CoverageReductionPercent == nil || *got.Conditions.CoverageReductionPercent != 100 {
		t.Errorf("expected 100%% reduction, got %v", got.Conditions.CoverageReductionPercent)
	}
}

func TestSetTransferabilityRejectsInvalidConditions(t *testing.T) {
	database := db.NewTestDB(t)
	w := seedWarranty(t, database, warranty.ManufacturerConditions(), nil)

	err := SetTransferability(context.Background(), database, model.Transferability{
		WarrantyID: w.ID,
		Conditions: model.TransferConditions{RequiresNotification: true, NotificationDays: -3},
	})
	if err == nil {
		t.Fatal("expected error for negative notice period")
	}
}
