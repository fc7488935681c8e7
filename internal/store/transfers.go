package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/garancija/internal/model"
	"github.com/erazemk/garancija/internal/warranty"
)

var (
	// ErrNotFound is returned when a referenced warranty or transfer does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransferFinal is returned when a finalized transfer would be changed.
	ErrTransferFinal = errors.New("transfer is final")
	// ErrInvalidTransition is returned for status changes the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotAccepted is returned when a transfer fails validation at acceptance.
	ErrNotAccepted = errors.New("transfer did not pass validation")
)

const transferColumns = `id, warranty_id, item_id, transfer_date, transfer_type, from_owner, to_owner,
	status, original_start_date, original_end_date, adjusted_end_date, transfer_fee,
	inspection_document_id, document_ids, notes, created_at, updated_at`

// AppendTransfer adds a transfer to the end of a warranty's history.
func AppendTransfer(ctx context.Context, db *sql.DB, t model.WarrantyTransfer, createdBy *int64) error {
	if !t.Status.Valid() {
		return fmt.Errorf("invalid transfer status %q", t.Status)
	}
	if !t.TransferType.Valid() {
		return fmt.Errorf("invalid transfer type %q", t.TransferType)
	}

	from, err := json.Marshal(t.FromOwner)
	if err != nil {
		return fmt.Errorf("encoding previous owner: %w", err)
	}
	to, err := json.Marshal(t.ToOwner)
	if err != nil {
		return fmt.Errorf("encoding new owner: %w", err)
	}
	docs, err := json.Marshal(uuids(t.DocumentIDs))
	if err != nil {
		return fmt.Errorf("encoding document ids: %w", err)
	}

	var inspection uuid.NullUUID
	if t.InspectionDocumentID != nil {
		inspection = uuid.NullUUID{UUID: *t.InspectionDocumentID, Valid: true}
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO warranty_transfers (`+transferColumns+`, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.WarrantyID, t.ItemID, t.TransferDate, t.TransferType, string(from), string(to),
		t.Status, t.OriginalWarrantyStartDate, t.OriginalWarrantyEndDate, nullTime(t.AdjustedEndDate),
		nullDecimal(t.TransferFee), inspection, string(docs), t.Notes, t.CreatedAt, t.UpdatedAt,
		createdBy,
	)
	if err != nil {
		return fmt.Errorf("appending transfer: %w", err)
	}
	return nil
}

// GetTransfer returns a transfer by ID.
func GetTransfer(ctx context.Context, db *sql.DB, id uuid.UUID) (*model.WarrantyTransfer, error) {
	return getTransfer(ctx, db, id)
}

func getTransfer(ctx context.Context, q querier, id uuid.UUID) (*model.WarrantyTransfer, error) {
	t, err := scanTransfer(q.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM warranty_transfers WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	return t, nil
}

// ListWarrantyTransfers returns the transfer history of a warranty in the
// order the transfers were recorded.
func ListWarrantyTransfers(ctx context.Context, db *sql.DB, warrantyID uuid.UUID) ([]model.WarrantyTransfer, error) {
	return listWarrantyTransfers(ctx, db, warrantyID)
}

func listWarrantyTransfers(ctx context.Context, q querier, warrantyID uuid.UUID) ([]model.WarrantyTransfer, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM warranty_transfers
		 WHERE warranty_id = ? ORDER BY rowid`, warrantyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []model.WarrantyTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

// CountTransfers returns the number of transfers recorded for a warranty.
func CountTransfers(ctx context.Context, db *sql.DB, warrantyID uuid.UUID) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM warranty_transfers WHERE warranty_id = ?`, warrantyID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting transfers: %w", err)
	}
	return n, nil
}

// LatestTransfer returns the most recently recorded transfer of a warranty,
// or nil if it has none.
func LatestTransfer(ctx context.Context, db *sql.DB, warrantyID uuid.UUID) (*model.WarrantyTransfer, error) {
	t, err := scanTransfer(db.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM warranty_transfers
		 WHERE warranty_id = ? ORDER BY rowid DESC LIMIT 1`, warrantyID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest transfer: %w", err)
	}
	return t, nil
}

// RecordAdjustedEndDate stores the end date computed by a validation run on a
// transfer that is still open.
func RecordAdjustedEndDate(ctx context.Context, db *sql.DB, id uuid.UUID, adjusted *time.Time, now time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE warranty_transfers SET adjusted_end_date = ?, updated_at = ?
		 WHERE id = ? AND status IN ('pending', 'in_progress')`,
		nullTime(adjusted), now, id,
	)
	if err != nil {
		return fmt.Errorf("recording adjusted end date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTransferFinal
	}
	return nil
}

// SetTransferStatus moves an open transfer to another status. Completion is
// not possible here; it goes through AcceptTransfer.
func SetTransferStatus(ctx context.Context, db *sql.DB, id uuid.UUID, next model.TransferStatus, now time.Time) (*model.WarrantyTransfer, error) {
	if next == model.TransferCompleted {
		return nil, fmt.Errorf("%w: transfers are completed by acceptance", ErrInvalidTransition)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := getTransfer(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if t.Status.IsTerminal() {
		return nil, ErrTransferFinal
	}
	if err := model.ValidateTransition(t.Status, next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE warranty_transfers SET status = ?, updated_at = ? WHERE id = ?`,
		next, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating transfer status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer status: %w", err)
	}

	t.Status = next
	t.UpdatedAt = now
	return t, nil
}

// Acceptance is the outcome of AcceptTransfer.
type Acceptance struct {
	Transfer   model.WarrantyTransfer
	Warranty   model.Warranty
	Validation model.ValidationResult
}

// AcceptTransfer re-validates an in-progress transfer at now and, if it is
// valid, completes it. Completing the transfer, decrementing the remaining
// transfers and moving the warranty end date to the adjusted end date happen
// in one transaction. When validation fails the returned acceptance carries
// the validation result and the error wraps ErrNotAccepted.
func AcceptTransfer(ctx context.Context, db *sql.DB, id uuid.UUID, now time.Time) (*Acceptance, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := getTransfer(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if t.Status.IsTerminal() {
		return nil, ErrTransferFinal
	}
	if err := model.ValidateTransition(t.Status, model.TransferCompleted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	w, err := getWarranty(ctx, tx, t.WarrantyID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("warranty %s: %w", t.WarrantyID, ErrNotFound)
	}
	tr, err := getTransferability(ctx, tx, t.WarrantyID)
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, fmt.Errorf("transferability of %s: %w", t.WarrantyID, ErrNotFound)
	}

	result, err := warranty.ValidateTransfer(*w, *tr, *t, now)
	if err != nil {
		return nil, err
	}
	acceptance := &Acceptance{Transfer: *t, Warranty: *w, Validation: result}
	if !result.IsValid {
		return acceptance, ErrNotAccepted
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE warranty_transfers SET status = ?, adjusted_end_date = ?, updated_at = ? WHERE id = ?`,
		model.TransferCompleted, nullTime(result.AdjustedEndDate), now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("completing transfer: %w", err)
	}

	if tr.RemainingTransfers != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE transferability SET remaining_transfers = remaining_transfers - 1 WHERE warranty_id = ?`,
			t.WarrantyID,
		)
		if err != nil {
			return nil, fmt.Errorf("decrementing remaining transfers: %w", err)
		}
	}

	if result.AdjustedEndDate != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE warranties SET end_date = ?, updated_at = ? WHERE id = ?`,
			*result.AdjustedEndDate, now, t.WarrantyID,
		)
		if err != nil {
			return nil, fmt.Errorf("adjusting warranty end date: %w", err)
		}
		acceptance.Warranty.EndDate = *result.AdjustedEndDate
		acceptance.Warranty.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing acceptance: %w", err)
	}

	acceptance.Transfer.Status = model.TransferCompleted
	acceptance.Transfer.AdjustedEndDate = result.AdjustedEndDate
	acceptance.Transfer.UpdatedAt = now
	return acceptance, nil
}

func scanTransfer(s scanner) (*model.WarrantyTransfer, error) {
	t := &model.WarrantyTransfer{}
	var from, to, docs string
	var adjusted sql.NullTime
	var fee decimal.NullDecimal
	var inspection uuid.NullUUID
	var notes sql.NullString
	err := s.Scan(&t.ID, &t.WarrantyID, &t.ItemID, &t.TransferDate, &t.TransferType, &from, &to,
		&t.Status, &t.OriginalWarrantyStartDate, &t.OriginalWarrantyEndDate, &adjusted, &fee,
		&inspection, &docs, &notes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(from), &t.FromOwner); err != nil {
		return nil, fmt.Errorf("decoding previous owner: %w", err)
	}
	if err := json.Unmarshal([]byte(to), &t.ToOwner); err != nil {
		return nil, fmt.Errorf("decoding new owner: %w", err)
	}
	if err := json.Unmarshal([]byte(docs), &t.DocumentIDs); err != nil {
		return nil, fmt.Errorf("decoding document ids: %w", err)
	}
	if len(t.DocumentIDs) == 0 {
		t.DocumentIDs = nil
	}
	if adjusted.Valid {
		t.AdjustedEndDate = &adjusted.Time
	}
	if fee.Valid {
		t.TransferFee = &fee.Decimal
	}
	if inspection.Valid {
		t.InspectionDocumentID = &inspection.UUID
	}
	t.Notes = notes.String
	return t, nil
}
