package warranty

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/garancija/internal/model"
)

// ErrInvalidProposal is returned when a transfer proposal is incomplete.
var ErrInvalidProposal = errors.New("invalid transfer proposal")

// Proposal describes a requested change of ownership.
type Proposal struct {
	TransferType         model.TransferType
	FromOwner            model.OwnerInfo
	ToOwner              model.OwnerInfo
	TransferDate         time.Time
	TransferFee          *decimal.Decimal
	InspectionDocumentID *uuid.UUID
	DocumentIDs          []uuid.UUID
	Notes                string
}

// InitiateTransfer creates a pending transfer for w, snapshotting the current
// coverage window. A zero transfer date means now.
func InitiateTransfer(w model.Warranty, p Proposal, now time.Time) (model.WarrantyTransfer, error) {
	if strings.TrimSpace(p.FromOwner.Name) == "" || strings.TrimSpace(p.ToOwner.Name) == "" {
		return model.WarrantyTransfer{}, errors.Join(ErrInvalidProposal, errors.New("both owners need a name"))
	}
	if !p.TransferType.Valid() {
		return model.WarrantyTransfer{}, errors.Join(ErrInvalidProposal, errors.New("unknown transfer type"))
	}
	if p.TransferFee != nil && p.TransferFee.IsNegative() {
		return model.WarrantyTransfer{}, errors.Join(ErrInvalidProposal, errors.New("transfer fee is negative"))
	}

	date := p.TransferDate
	if date.IsZero() {
		date = now
	}

	return model.WarrantyTransfer{
		ID:                        uuid.New(),
		WarrantyID:                w.ID,
		ItemID:                    w.AssetID,
		TransferDate:              date,
		TransferType:              p.TransferType,
		FromOwner:                 p.FromOwner,
		ToOwner:                   p.ToOwner,
		Status:                    model.TransferPending,
		OriginalWarrantyStartDate: w.StartDate,
		OriginalWarrantyEndDate:   w.EndDate,
		TransferFee:               p.TransferFee,
		InspectionDocumentID:      p.InspectionDocumentID,
		DocumentIDs:               p.DocumentIDs,
		Notes:                     p.Notes,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}, nil
}
