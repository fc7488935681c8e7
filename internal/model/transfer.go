package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnerInfo identifies one party of a transfer. ProofOfOwnership holds opaque
// document references owned by the document store.
type OwnerInfo struct {
	Name             string      `json:"name"`
	Email            string      `json:"email,omitempty"`
	Phone            string      `json:"phone,omitempty"`
	Address          string      `json:"address,omitempty"`
	ProofOfOwnership []uuid.UUID `json:"proof_of_ownership,omitempty"`
}

// Contact returns the first available contact detail, or "N/A".
func (o OwnerInfo) Contact() string {
	switch {
	case o.Email != "":
		return o.Email
	case o.Phone != "":
		return o.Phone
	}
	return "N/A"
}

// TransferType is the reason ownership changes.
type TransferType string

// Transfer types.
const (
	TransferSale        TransferType = "sale"
	TransferGift        TransferType = "gift"
	TransferInheritance TransferType = "inheritance"
	TransferTrade       TransferType = "trade"
	TransferOther       TransferType = "other"
)

// Valid reports whether t is a known transfer type.
func (t TransferType) Valid() bool {
	switch t {
	case TransferSale, TransferGift, TransferInheritance, TransferTrade, TransferOther:
		return true
	}
	return false
}

// DisplayName returns the human-readable transfer type.
func (t TransferType) DisplayName() string {
	switch t {
	case TransferSale:
		return "Sale"
	case TransferGift:
		return "Gift"
	case TransferInheritance:
		return "Inheritance"
	case TransferTrade:
		return "Trade"
	case TransferOther:
		return "Other"
	}
	return string(t)
}

// TransferStatus is the workflow state of a transfer.
type TransferStatus string

// Transfer statuses.
const (
	TransferPending    TransferStatus = "pending"
	TransferInProgress TransferStatus = "in_progress"
	TransferCompleted  TransferStatus = "completed"
	TransferRejected   TransferStatus = "rejected"
	TransferCancelled  TransferStatus = "cancelled"
)

var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferPending:    {TransferInProgress, TransferRejected, TransferCancelled},
	TransferInProgress: {TransferCompleted, TransferRejected, TransferCancelled},
}

// Valid reports whether s is a known transfer status.
func (s TransferStatus) Valid() bool {
	switch s {
	case TransferPending, TransferInProgress, TransferCompleted, TransferRejected, TransferCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferCompleted || s == TransferRejected || s == TransferCancelled
}

// CanTransitionTo reports whether the workflow allows moving from s to next.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DisplayName returns the human-readable status.
func (s TransferStatus) DisplayName() string {
	switch s {
	case TransferPending:
		return "Pending"
	case TransferInProgress:
		return "In Progress"
	case TransferCompleted:
		return "Completed"
	case TransferRejected:
		return "Rejected"
	case TransferCancelled:
		return "Cancelled"
	}
	return string(s)
}

// ValidateTransition returns an error if the workflow forbids from -> to.
func ValidateTransition(from, to TransferStatus) error {
	if !to.Valid() {
		return fmt.Errorf("unknown transfer status %q", to)
	}
	if from.IsTerminal() {
		return fmt.Errorf("transfer is already %s", from)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("cannot move transfer from %s to %s", from, to)
	}
	return nil
}

// TransferConditions is the declarative transfer policy for a warranty.
// CoverageReductionPercent is set if and only if ReducedCoverage is true.
type TransferConditions struct {
	RequiresNotification     bool             `json:"requires_notification"`
	NotificationDays         int              `json:"notification_days"`
	RequiresFee              bool             `json:"requires_fee"`
	FeeAmount                *decimal.Decimal `json:"fee_amount,omitempty"`
	RequiresInspection       bool             `json:"requires_inspection"`
	ReducedCoverage          bool             `json:"reduced_coverage"`
	CoverageReductionPercent *int             `json:"coverage_reduction_percent,omitempty"`
	ExcludedAfterTransfer    []string         `json:"excluded_after_transfer,omitempty"`
	AdditionalTerms          string           `json:"additional_terms,omitempty"`
}

// Transferability states whether and how a warranty can move to a new owner.
// A nil RemainingTransfers means unlimited.
type Transferability struct {
	WarrantyID         uuid.UUID          `json:"warranty_id"`
	IsTransferable     bool               `json:"is_transferable"`
	Conditions         TransferConditions `json:"transfer_conditions"`
	RemainingTransfers *int               `json:"remaining_transfers,omitempty"`
	TransferHistory    []WarrantyTransfer `json:"transfer_history"`
}

// WarrantyTransfer is one proposed or completed ownership change. The
// original window is a snapshot taken at proposal time.
type WarrantyTransfer struct {
	ID                        uuid.UUID        `json:"id"`
	WarrantyID                uuid.UUID        `json:"warranty_id"`
	ItemID                    uuid.UUID        `json:"item_id"`
	TransferDate              time.Time        `json:"transfer_date"`
	TransferType              TransferType     `json:"transfer_type"`
	FromOwner                 OwnerInfo        `json:"from_owner"`
	ToOwner                   OwnerInfo        `json:"to_owner"`
	Status                    TransferStatus   `json:"transfer_status"`
	OriginalWarrantyStartDate time.Time        `json:"original_warranty_start_date"`
	OriginalWarrantyEndDate   time.Time        `json:"original_warranty_end_date"`
	AdjustedEndDate           *time.Time       `json:"adjusted_end_date,omitempty"`
	TransferFee               *decimal.Decimal `json:"transfer_fee,omitempty"`
	InspectionDocumentID      *uuid.UUID       `json:"inspection_document_id,omitempty"`
	DocumentIDs               []uuid.UUID      `json:"document_ids,omitempty"`
	Notes                     string           `json:"notes,omitempty"`
	CreatedAt                 time.Time        `json:"created_at"`
	UpdatedAt                 time.Time        `json:"updated_at"`
}

// Severity ranks a validation issue.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IssueCode is the closed set of transfer validation findings.
type IssueCode string

// Issue codes.
const (
	IssueNonTransferable      IssueCode = "non_transferable"
	IssueExpired              IssueCode = "expired"
	IssueTransferLimitReached IssueCode = "transfer_limit_reached"
	IssueInsufficientNotice   IssueCode = "insufficient_notice"
	IssueFeeRequired          IssueCode = "fee_required"
	IssueInspectionRequired   IssueCode = "inspection_required"
)

// ValidationIssue is one finding of the transfer validator. Message is for
// people; branch on Code and Severity.
type ValidationIssue struct {
	Severity Severity  `json:"severity"`
	Code     IssueCode `json:"code"`
	Message  string    `json:"message"`
}

// ValidationResult is the outcome of validating one proposed transfer.
type ValidationResult struct {
	IsValid         bool              `json:"is_valid"`
	Issues          []ValidationIssue `json:"issues"`
	AdjustedEndDate *time.Time        `json:"adjusted_end_date,omitempty"`
}

// HasIssue reports whether the result contains an issue with the given code.
func (r ValidationResult) HasIssue(code IssueCode) bool {
	for _, issue := range r.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
