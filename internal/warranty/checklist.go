package warranty

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/garancija/internal/model"
)

// ChecklistItem is one step a seller has to complete before a transfer.
type ChecklistItem struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Required    bool       `json:"required"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// Checklist lists the steps for transferring one warranty.
type Checklist struct {
	WarrantyID          uuid.UUID       `json:"warranty_id"`
	Items               []ChecklistItem `json:"items"`
	EstimatedCompletion string          `json:"estimated_completion"`
}

// BuildChecklist derives the transfer steps from the warranty's policy.
func BuildChecklist(tr model.Transferability, now time.Time) Checklist {
	c := tr.Conditions
	items := []ChecklistItem{
		{Title: "Gather warranty documentation", Description: "Original warranty certificate, receipts, and registration", Required: true},
		{Title: "Proof of ownership", Description: "Documentation proving current ownership", Required: true},
	}

	if c.RequiresNotification {
		deadline := now.Add(-time.Duration(c.NotificationDays) * day)
		items = append(items, ChecklistItem{
			Title:       "Notify warranty provider",
			Description: fmt.Sprintf("Submit transfer notification at least %d days before transfer", c.NotificationDays),
			Required:    true,
			Deadline:    &deadline,
		})
	}

	if c.RequiresFee && c.FeeAmount != nil {
		items = append(items, ChecklistItem{
			Title:       "Pay transfer fee",
			Description: fmt.Sprintf("Transfer fee of %s required", c.FeeAmount.StringFixed(2)),
			Required:    true,
		})
	}

	if c.RequiresInspection {
		items = append(items, ChecklistItem{
			Title:       "Complete inspection",
			Description: "Item must pass inspection before transfer",
			Required:    true,
		})
	}

	items = append(items,
		ChecklistItem{Title: "Complete transfer agreement", Description: "Both parties must sign the warranty transfer agreement", Required: true},
		ChecklistItem{Title: "Update warranty registration", Description: "New owner must update registration with their information"},
	)

	return Checklist{
		WarrantyID:          tr.WarrantyID,
		Items:               items,
		EstimatedCompletion: "2-4 weeks",
	}
}
