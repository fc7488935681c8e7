package warranty

import (
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/garancija/internal/model"
)

// Contract violations. These indicate a caller bug, not a business outcome,
// and are never reported as validation issues.
var (
	ErrTransferFinalized = errors.New("transfer is already finalized")
	ErrInvalidConditions = errors.New("invalid transfer conditions")
	ErrWarrantyMismatch  = errors.New("records belong to different warranties")
	ErrInvalidWindow     = errors.New("coverage window starts after it ends")
)

// ValidateTransfer evaluates a proposed transfer against the warranty and its
// transfer policy at now. Every rule is evaluated so the result lists all
// issues, not just the first. The adjusted end date is computed from the
// policy independently of validity.
//
// ValidateTransfer has no side effects. On acceptance the caller must append
// the transfer to the history, decrement the remaining transfers and, if an
// adjusted end date is present, overwrite the warranty end date, all within
// one transaction.
func ValidateTransfer(w model.Warranty, tr model.Transferability, proposed model.WarrantyTransfer, now time.Time) (model.ValidationResult, error) {
	if proposed.Status.IsTerminal() {
		return model.ValidationResult{}, fmt.Errorf("%w: status %s", ErrTransferFinalized, proposed.Status)
	}
	if tr.WarrantyID != w.ID || proposed.WarrantyID != w.ID {
		return model.ValidationResult{}, ErrWarrantyMismatch
	}
	if w.StartDate.After(w.EndDate) {
		return model.ValidationResult{}, ErrInvalidWindow
	}
	conditions := tr.Conditions
	if err := CheckConditions(conditions); err != nil {
		return model.ValidationResult{}, err
	}

	issues := []model.ValidationIssue{}
	report := func(severity model.Severity, code model.IssueCode, msg string) {
		issues = append(issues, model.ValidationIssue{Severity: severity, Code: code, Message: msg})
	}

	if !tr.IsTransferable {
		report(model.SeverityError, model.IssueNonTransferable, "This warranty is non-transferable")
	}

	if ComputeStatus(w, now).State == model.CoverageExpired {
		report(model.SeverityError, model.IssueExpired, "Cannot transfer an expired warranty")
	}

	if tr.RemainingTransfers != nil && *tr.RemainingTransfers <= 0 {
		report(model.SeverityError, model.IssueTransferLimitReached, "Maximum number of transfers reached")
	}

	if conditions.RequiresNotification {
		// A transfer dated in the past has had no notice at all.
		notice := max(0, daysBetween(now, proposed.TransferDate))
		if notice < conditions.NotificationDays {
			report(model.SeverityWarning, model.IssueInsufficientNotice,
				fmt.Sprintf("Transfer requires %d days notice", conditions.NotificationDays))
		}
	}

	if conditions.RequiresFee && proposed.TransferFee == nil {
		fee := "0"
		if conditions.FeeAmount != nil {
			fee = conditions.FeeAmount.StringFixed(2)
		}
		report(model.SeverityError, model.IssueFeeRequired, fmt.Sprintf("Transfer fee of %s required", fee))
	}

	if conditions.RequiresInspection && proposed.InspectionDocumentID == nil {
		report(model.SeverityWarning, model.IssueInspectionRequired, "Item must pass inspection before transfer")
	}

	valid := true
	for _, issue := range issues {
		if issue.Severity == model.SeverityError {
			valid = false
			break
		}
	}

	return model.ValidationResult{
		IsValid:         valid,
		Issues:          issues,
		AdjustedEndDate: AdjustedEndDate(w.EndDate, conditions, now),
	}, nil
}

// AdjustedEndDate returns the end of coverage after a transfer at now under
// the given policy, or nil when the policy keeps coverage unchanged. The
// reduced day count is floored, and coverage that has already run out ends
// at now.
func AdjustedEndDate(end time.Time, c model.TransferConditions, now time.Time) *time.Time {
	if !c.ReducedCoverage || c.CoverageReductionPercent == nil {
		return nil
	}
	remaining := max(0, daysBetween(now, end))
	reduced := remaining * (100 - *c.CoverageReductionPercent) / 100
	adjusted := now.Add(time.Duration(reduced) * day)
	return &adjusted
}
