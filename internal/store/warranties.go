package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/garancija/internal/model"
	"github.com/erazemk/garancija/internal/warranty"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const warrantyColumns = `id, asset_id, type, provider, start_date, end_date, coverage_details,
	registration_number, phone_number, email, website, document_ids, notes, is_extended, cost,
	created_at, updated_at`

// CreateWarranty registers a warranty together with its transferability
// record in one transaction.
func CreateWarranty(ctx context.Context, db *sql.DB, w model.Warranty, tr model.Transferability) (*model.Warranty, error) {
	if w.StartDate.After(w.EndDate) {
		return nil, fmt.Errorf("warranty starts after it ends")
	}
	if tr.WarrantyID != w.ID {
		return nil, fmt.Errorf("transferability belongs to warranty %s", tr.WarrantyID)
	}
	if err := warranty.CheckConditions(tr.Conditions); err != nil {
		return nil, err
	}

	docs, err := json.Marshal(uuids(w.DocumentIDs))
	if err != nil {
		return nil, fmt.Errorf("encoding document ids: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO warranties (`+warrantyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.AssetID, w.Type, w.Provider, w.StartDate, w.EndDate, w.CoverageDetails,
		w.RegistrationNumber, w.PhoneNumber, w.Email, w.Website, string(docs), w.Notes,
		w.IsExtended, nullDecimal(w.Cost), w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating warranty: %w", err)
	}

	if err := putTransferability(ctx, tx, tr); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing warranty: %w", err)
	}

	return GetWarranty(ctx, db, w.ID)
}

// GetWarranty returns a warranty by ID.
func GetWarranty(ctx context.Context, db *sql.DB, id uuid.UUID) (*model.Warranty, error) {
	return getWarranty(ctx, db, id)
}

func getWarranty(ctx context.Context, q querier, id uuid.UUID) (*model.Warranty, error) {
	w, err := scanWarranty(q.QueryRowContext(ctx,
		`SELECT `+warrantyColumns+` FROM warranties WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting warranty: %w", err)
	}
	return w, nil
}

// ListWarranties returns warranties ordered by end date, optionally limited
// to one asset.
func ListWarranties(ctx context.Context, db *sql.DB, assetID uuid.UUID) ([]model.Warranty, error) {
	query := `SELECT ` + warrantyColumns + ` FROM warranties`
	var args []any
	if assetID != uuid.Nil {
		query += ` WHERE asset_id = ?`
		args = append(args, assetID)
	}
	query += ` ORDER BY end_date, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing warranties: %w", err)
	}
	defer rows.Close()

	var warranties []model.Warranty
	for rows.Next() {
		w, err := scanWarranty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning warranty: %w", err)
		}
		warranties = append(warranties, *w)
	}
	return warranties, rows.Err()
}

// UpdateWarrantyDetails updates provider and contact metadata. The coverage
// window and type are left untouched; the end date only changes through an
// accepted transfer.
func UpdateWarrantyDetails(ctx context.Context, db *sql.DB, w model.Warranty) error {
	docs, err := json.Marshal(uuids(w.DocumentIDs))
	if err != nil {
		return fmt.Errorf("encoding document ids: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE warranties SET provider = ?, coverage_details = ?, registration_number = ?,
		        phone_number = ?, email = ?, website = ?, document_ids = ?, notes = ?,
		        is_extended = ?, cost = ?, updated_at = ?
		 WHERE id = ?`,
		w.Provider, w.CoverageDetails, w.RegistrationNumber, w.PhoneNumber, w.Email, w.Website,
		string(docs), w.Notes, w.IsExtended, nullDecimal(w.Cost), w.UpdatedAt, w.ID,
	)
	if err != nil {
		return fmt.Errorf("updating warranty: %w", err)
	}
	return nil
}

// GetTransferability returns the transfer policy of a warranty with its full
// transfer history.
func GetTransferability(ctx context.Context, db *sql.DB, warrantyID uuid.UUID) (*model.Transferability, error) {
	return getTransferability(ctx, db, warrantyID)
}

func getTransferability(ctx context.Context, q querier, warrantyID uuid.UUID) (*model.Transferability, error) {
	tr := &model.Transferability{WarrantyID: warrantyID}
	var conditions string
	var remaining sql.NullInt64
	err := q.QueryRowContext(ctx,
		`SELECT is_transferable, conditions, remaining_transfers
		 FROM transferability WHERE warranty_id = ?`, warrantyID,
	).Scan(&tr.IsTransferable, &conditions, &remaining)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transferability: %w", err)
	}

	if err := json.Unmarshal([]byte(conditions), &tr.Conditions); err != nil {
		return nil, fmt.Errorf("decoding transfer conditions: %w", err)
	}
	if remaining.Valid {
		n := int(remaining.Int64)
		tr.RemainingTransfers = &n
	}

	tr.TransferHistory, err = listWarrantyTransfers(ctx, q, warrantyID)
	if err != nil {
		return nil, err
	}
	if tr.TransferHistory == nil {
		tr.TransferHistory = []model.WarrantyTransfer{}
	}
	return tr, nil
}

// SetTransferability replaces the transfer policy of a warranty. The history
// is not touched.
func SetTransferability(ctx context.Context, db *sql.DB, tr model.Transferability) error {
	if err := warranty.CheckConditions(tr.Conditions); err != nil {
		return err
	}
	return putTransferability(ctx, db, tr)
}

func putTransferability(ctx context.Context, q querier, tr model.Transferability) error {
	conditions, err := json.Marshal(tr.Conditions)
	if err != nil {
		return fmt.Errorf("encoding transfer conditions: %w", err)
	}

	var remaining any
	if tr.RemainingTransfers != nil {
		remaining = *tr.RemainingTransfers
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO transferability (warranty_id, is_transferable, conditions, remaining_transfers)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (warranty_id) DO UPDATE SET
		     is_transferable = excluded.is_transferable,
		     conditions = excluded.conditions,
		     remaining_transfers = excluded.remaining_transfers`,
		tr.WarrantyID, tr.IsTransferable, string(conditions), remaining,
	)
	if err != nil {
		return fmt.Errorf("storing transferability: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWarranty(s scanner) (*model.Warranty, error) {
	w := &model.Warranty{}
	var details, regNo, phone, email, website, notes sql.NullString
	var docs string
	var cost decimal.NullDecimal
	err := s.Scan(&w.ID, &w.AssetID, &w.Type, &w.Provider, &w.StartDate, &w.EndDate, &details,
		&regNo, &phone, &email, &website, &docs, &notes, &w.IsExtended, &cost,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	w.CoverageDetails = details.String
	w.RegistrationNumber = regNo.String
	w.PhoneNumber = phone.String
	w.Email = email.String
	w.Website = website.String
	w.Notes = notes.String
	if cost.Valid {
		w.Cost = &cost.Decimal
	}
	if err := json.Unmarshal([]byte(docs), &w.DocumentIDs); err != nil {
		return nil, fmt.Errorf("decoding document ids: %w", err)
	}
	if len(w.DocumentIDs) == 0 {
		w.DocumentIDs = nil
	}
	return w, nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func uuids(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
