package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/garancija/internal/db"
	"github.com/erazemk/garancija/internal/model"
	"github.com/erazemk/garancija/internal/warranty"
)

// proposeTransfer appends a pending sale of w dated notice days after now.
func proposeTransfer(t *testing.T, database *sql.DB, w model.Warranty, now time.Time, notice int) model.WarrantyTransfer {
	t.Helper()

	tr, err := warranty.InitiateTransfer(w, warranty.Proposal{
		TransferType: model.TransferSale,
		FromOwner:    model.OwnerInfo{Name: "Ana Novak", Email: "ana@example.com"},
		ToOwner:      model.OwnerInfo{Name: "Bor Kos"},
		TransferDate: now.Add(days(notice)),
	}, now)
	if err != nil {
		t.Fatalf("InitiateTransfer: %v", err)
	}
	if err := AppendTransfer(context.Background(), database, tr, nil); err != nil {
		t.Fatalf("AppendTransfer: %v", err)
	}
	return tr
}

func TestAppendAndGetTransfer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	w := seedWarranty(t, database, warranty.ManufacturerConditions(), nil)
	now := t0.Add(days(400))

	tr := proposeTransfer(t, database, w, now, 30)

	got, err := GetTransfer(ctx, database, tr.ID)
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if got == nil {
		t.Fatal("expected transfer, got nil")
	}
	if got.Status != model.TransferPending || got.TransferType != model.TransferSale {
		t.Errorf("unexpected transfer %+v", got)
	}
	if got.FromOwner.Email != "ana@example.com" || got.ToOwner.Name != "Bor Kos" {
		t.Errorf("owners not preserved: %+v / %+v", got.FromOwner, got.ToOwner)
	}
	if !got.OriginalWarrantyEndDate.Equal(w.EndDate) || !got.TransferDate.Equal(now.Add(days(30))) {
		t.Errorf("dates not preserved: %+v", got)
	}
	if got.AdjustedEndDate != nil || got.TransferFee != nil || got.InspectionDocumentID != nil {
		t.Errorf("expected optional fields to be empty: %+v", got)
	}

	missing, err := GetTransfer(ctx, database, uuid.New())
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown transfer")
	}
}

func TestAppendTransferRequiresWarranty(t *testing.T) {
	database := db.NewTestDB(t)

	orphan := model.WarrantyTransfer{
		ID:           uuid.New(),
		WarrantyID:   uuid.New(),
		TransferType: model.TransferGift,
		Status:       model.TransferPending,
	}
	if err := AppendTransfer(context.Background(), database, orphan, nil); err == nil {
		t.Fatal("expected error for transfer of unknown warranty")
	}
}

func TestTransferHistoryKeepsInsertionOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	w := seedWarranty(t, database, warranty.ManufacturerConditions(), nil)

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		// Later proposals carry earlier transfer dates; order must still follow insertion.
		tr := proposeTransfer(t, database, w, t0.Add(days(100)), 50-i*10)
		ids = append(ids, tr.ID)
	}

	history, err := ListWarrantyTransfers(ctx, database, w.ID)
	if err != nil {
		t.Fatalf("ListWarrantyTransfers: %v", err)
	}
	if len(history) != len(ids) {
		t.Fatalf("expected %d transfers, got %d", len(ids), len(history))
	}
	for i := range ids {
		if history[i].ID != ids[i] {
			t.Errorf("position %d: expected %s, got %s", i, ids[i], history[i].ID)
		}
	}

	n, err := CountTransfers(ctx, database, w.ID)
	if err != nil {
		t.Fatalf("CountTransfers: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 transfers, got %d", n)
	}

	latest, err := LatestTransfer(ctx, database, w.ID)
	if err != nil {
		t.Fatalf("LatestTransfer: %v", err)
	}
	if latest == nil || latest.ID != ids[4] {
		t.Errorf("expected latest %s, got %+v", ids[4], latest)
	}

	tr, _ := GetTransferability(ctx, database, w.ID)
	if len(tr.TransferHistory) != 5 {
		t.Errorf("expected history on transferability, got %d", len(tr.TransferHistory))
	}
}

func TestLatestTransferEmptyHistory(t *testing.T) {
	database := db.NewTestDB(t)
	w := seedWarranty(t, database, warranty.ManufacturerConditions(), nil)

	latest, err := LatestTransfer(context.Background(), database, w.ID)
	if err != nil {
		t.Fatalf("LatestTransfer: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil, got %+v", latest)
	}
}

func TestSetTransferStatusFollowsLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	w := seedWarranty(t, database, warranty.ManufacturerConditions(), nil)
	now := t0.Add(days(400))
	tr := proposeTransfer(t, database, w, now, 30)

	if _, err := SetTransferStatus(ctx, database, tr.ID, model.TransferCompleted, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("completing directly: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := SetTransferStatus(ctx, database, tr.ID, model.TransferPending, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending to pending: expected ErrInvalidTransition, got %v", err)
	}

	got, err := SetTransferStatus(ctx, database, tr.ID, model.TransferInProgress, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("SetTransferStatus: %v", err)
	}
	if got.Status != model.TransferInProgress {
		t.Errorf("expected in_progress, got %s", got.Status)
	}

	if _, err := SetTransferStatus(ctx, database, tr.ID, model.TransferCancelled, now); err != nil {
		t.Fatalf("cancelling: %v", err)
	}
	if _, err := SetTransferStatus(ctx, database, tr.ID, model.TransferInProgress, now); !errors.Is(err, ErrTransferFinal) {
		t.Errorf("reopening: expected ErrTransferFinal, got %v", err)
	}
	if _, err := SetTransferStatus(ctx, database, uuid.New(), model.TransferRejected, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown transfer: expected ErrNotFound, got %v", err)
	}
}

func TestFinalTransfersCannotBeRewritten(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	w := seedWarranty(t, database, warranty.ManufacturerConditions(), nil)
	now := t0.Add(days(400))
	tr := proposeTransfer(t, database, w, now, 30)

	if _, err := SetTransferStatus(ctx, database, tr.ID, model.TransferRejected, now); err != nil {
		t.Fatalf("rejecting: %v", err)
	}

	if _, err := database.ExecContext(ctx,
		`UPDATE warranty_transfers SET status = 'pending' WHERE id = ?`, tr.ID); err == nil {
		t.Error("expected trigger to refuse updating a final transfer")
	}
	if _, err := database.ExecContext(ctx,
		`DELETE FROM warranty_transfers WHERE id = ?`, tr.ID); err == nil {
		t.Error("expected trigger to refuse deleting history")
	}
	if err := RecordAdjustedEndDate(ctx, database, tr.ID, &now, now); !errors.Is(err, ErrTransferFinal) {
		t.Errorf("expected ErrTransferFinal, got %v", err)
	}
}

func TestRecordAdjustedEndDate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	w := seedWarranty(t, database, warranty.ManufacturerConditions(), nil)
	now := t0.Add(days(400))
	tr := proposeTransfer(t, database, w, now, 30)

	adjusted := now.Add(days(165))
	if err := RecordAdjustedEndDate(ctx, database, tr.ID, &adjusted, now); err != nil {
		t.Fatalf("RecordAdjustedEndDate: %v", err)
	}

	got, _ := GetTransfer(ctx, database, tr.ID)
	if got.AdjustedEndDate == nil || !got.AdjustedEndDate.Equal(adjusted) {
		t.Errorf("expected adjusted end %v, got %v", adjusted, got.AdjustedEndDate)
	}
}

func TestAcceptTransferAppliesReduction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	two := 2
	w := seedWarranty(t, database, warranty.ManufacturerConditions(), &two)
	now := t0.Add(days(400))
	tr := proposeTransfer(t, database, w, now, 30)

	if _, err := AcceptTransfer(ctx, database, tr.ID, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("accepting a pending transfer: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := SetTransferStatus(ctx, database, tr.ID, model.TransferInProgress, now); err != nil {
		t.Fatalf("SetTransferStatus: %v", err)
	}

	acc, err := AcceptTransfer(ctx, database, tr.ID, now)
	if err != nil {
		t.Fatalf("AcceptTransfer: %v", err)
	}
	want := now.Add(days(165))

	if acc.Transfer.Status != model.TransferCompleted {
		t.Errorf("expected completed, got %s", acc.Transfer.Status)
	}
	if !acc.Validation.IsValid {
		t.Errorf("expected valid result, got %+v", acc.Validation)
	}

	stored, _ := GetTransfer(ctx, database, tr.ID)
	if stored.Status != model.TransferCompleted {
		t.Errorf("stored status %s, expected completed", stored.Status)
	}
	if stored.AdjustedEndDate == nil || !stored.AdjustedEndDate.Equal(want) {
		t.Errorf("stored adjusted end %v, expected %v", stored.AdjustedEndDate, want)
	}

	updated, _ := GetWarranty(ctx, database, w.ID)
	if !updated.EndDate.Equal(want) {
		t.Errorf("warranty end %v, expected %v", updated.EndDate, want)
	}

	policy, _ := GetTransferability(ctx, database, w.ID)
	if policy.RemainingTransfers == nil || *policy.RemainingTransfers != 1 {
		t.Errorf("expected one remaining transfer, got %v", policy.RemainingTransfers)
	}

	if _, err := AcceptTransfer(ctx, database, tr.ID, now); !errors.Is(err, ErrTransferFinal) {
		t.Errorf("second acceptance: expected ErrTransferFinal, got %v", err)
	}
}

func TestAcceptTransferWithoutReductionKeepsEndDate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	w := seedWarranty(t, database, warranty.ExtendedConditions(), nil)
	now := t0.Add(days(400))

	fee := decimal.NewFromInt(50)
	tr, err := warranty.InitiateTransfer(w, warranty.Proposal{
		TransferType: model.TransferGift,
		FromOwner:    model.OwnerInfo{Name: "Ana"},
		ToOwner:      model.OwnerInfo{Name: "Bor"},
		TransferDate: now.Add(days(45)),
		TransferFee:  &fee,
	}, now)
	if err != nil {
		t.Fatalf("InitiateTransfer: %v", err)
	}
	tr.Status = model.TransferInProgress
	if err := AppendTransfer(ctx, database, tr, nil); err != nil {
		t.Fatalf("AppendTransfer: %v", err)
	}

	acc, err := AcceptTransfer(ctx, database, tr.ID, now)
	if err != nil {
		t.Fatalf("AcceptTransfer: %v", err)
	}
	if acc.Transfer.AdjustedEndDate != nil {
		t.Errorf("expected no adjusted end date, got %v", acc.Transfer.AdjustedEndDate)
	}

	stored, _ := GetTransfer(ctx, database, tr.ID)
	if stored.TransferFee == nil || !stored.TransferFee.Equal(fee) {
		t.Errorf("fee not preserved: %v", stored.TransferFee)
	}

	updated, _ := GetWarranty(ctx, database, w.ID)
	if !updated.EndDate.Equal(w.EndDate) {
		t.Errorf("warranty end changed to %v", updated.EndDate)
	}
}

func TestAcceptTransferRefusesInvalidTransfer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	zero := 0
	w := seedWarranty(t, database, warranty.ManufacturerConditions(), &zero)
	now := t0.Add(days(400))
	tr := proposeTransfer(t, database, w, now, 30)
	SetTransferStatus(ctx, database, tr.ID, model.TransferInProgress, now)

	acc, err := AcceptTransfer(ctx, database, tr.ID, now)
	if !errors.Is(err, ErrNotAccepted) {
		t.Fatalf("expected ErrNotAccepted, got %v", err)
	}
	if acc == nil || !acc.Validation.HasIssue(model.IssueTransferLimitReached) {
		t.Errorf("expected transfer limit issue, got %+v", acc)
	}

	stored, _ := GetTransfer(ctx, database, tr.ID)
	if stored.Status != model.TransferInProgress || stored.AdjustedEndDate != nil {
		t.Errorf("refused acceptance must leave the transfer untouched: %+v", stored)
	}
	updated, _ := GetWarranty(ctx, database, w.ID)
	if !updated.EndDate.Equal(w.EndDate) {
		t.Errorf("refused acceptance changed warranty end to %v", updated.EndDate)
	}
	policy, _ := GetTransferability(ctx, database, w.ID)
	if *policy.RemainingTransfers != 0 {
		t.Errorf("remaining transfers changed to %d", *policy.RemainingTransfers)
	}
}
