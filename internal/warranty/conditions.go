package warranty

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/garancija/internal/model"
)

// Presets return fresh values so callers can modify them freely.

// ManufacturerConditions is the default for manufacturer warranties: 30 days
// notice, no fee, half of the remaining coverage forfeited.
func ManufacturerConditions() model.TransferConditions {
	return model.TransferConditions{
		RequiresNotification:     true,
		NotificationDays:         30,
		ReducedCoverage:          true,
		CoverageReductionPercent: percent(50),
		AdditionalTerms:          "Warranty coverage limited to manufacturing defects only after transfer",
	}
}

// ExtendedConditions is the default for extended warranties and protection
// plans: 30 days notice and a fixed fee, coverage continues unchanged.
func ExtendedConditions() model.TransferConditions {
	return model.TransferConditions{
		RequiresNotification: true,
		NotificationDays:     30,
		RequiresFee:          true,
		FeeAmount:            amount(decimal.NewFromInt(50)),
		AdditionalTerms:      "Transfer fee required. Coverage continues as originally purchased.",
	}
}

// HomeWarrantyConditions is the default for home warranties: 7 days notice,
// a fixed fee and an inspection.
func HomeWarrantyConditions() model.TransferConditions {
	return model.TransferConditions{
		RequiresNotification: true,
		NotificationDays:     7,
		RequiresFee:          true,
		FeeAmount:            amount(decimal.NewFromInt(75)),
		RequiresInspection:   true,
		AdditionalTerms:      "Property inspection may be required. Coverage transfers with property sale.",
	}
}

// NonTransferableConditions voids all coverage on a change of ownership. It
// must be paired with IsTransferable=false on the transferability record.
func NonTransferableConditions() model.TransferConditions {
	return model.TransferConditions{
		ReducedCoverage:          true,
		CoverageReductionPercent: percent(100),
		AdditionalTerms:          "This warranty is non-transferable and void upon change of ownership",
	}
}

// DefaultConditions returns the transfer policy for a coverage type.
func DefaultConditions(t model.CoverageType) model.TransferConditions {
	switch t {
	case model.CoverageManufacturer:
		return ManufacturerConditions()
	case model.CoverageExtended, model.CoverageProtection:
		return ExtendedConditions()
	case model.CoverageService:
		return model.TransferConditions{
			RequiresNotification: true,
			NotificationDays:     14,
			RequiresFee:          true,
			FeeAmount:            amount(decimal.NewFromInt(25)),
		}
	case model.CoverageRetailer:
		return model.TransferConditions{
			RequiresNotification: true,
			NotificationDays:     7,
		}
	default:
		return NonTransferableConditions()
	}
}

// ProviderConditions returns provider-specific terms that override the
// coverage type defaults, if the provider is known.
func ProviderConditions(provider string) (model.TransferConditions, bool) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "apple", "applecare":
		return model.TransferConditions{
			AdditionalTerms: "AppleCare+ transfers automatically with device ownership",
		}, true
	case "best buy", "geek squad":
		return model.TransferConditions{
			RequiresNotification: true,
			NotificationDays:     30,
			RequiresFee:          true,
			FeeAmount:            amount(decimal.RequireFromString("49.99")),
			AdditionalTerms:      "Protection plan transfers with proof of purchase and transfer fee",
		}, true
	case "squaretrade", "allstate":
		return model.TransferConditions{
			RequiresNotification: true,
			NotificationDays:     30,
			AdditionalTerms:      "Plan transfers one time to new owner with item sale",
		}, true
	}
	return model.TransferConditions{}, false
}

// ConditionsFor picks the transfer policy for a warranty. Known providers
// win over the coverage type; extended manufacturer warranties use the
// extended preset.
func ConditionsFor(w model.Warranty) model.TransferConditions {
	if c, ok := ProviderConditions(w.Provider); ok {
		return c
	}
	if w.Type == model.CoverageManufacturer && w.IsExtended {
		return ExtendedConditions()
	}
	return DefaultConditions(w.Type)
}

// DefaultTransferability builds the initial transferability record for a
// newly registered warranty. Policies without a notice requirement allow a
// single transfer.
func DefaultTransferability(w model.Warranty) model.Transferability {
	conditions := ConditionsFor(w)
	var remaining *int
	if !conditions.RequiresNotification {
		one := 1
		remaining = &one
	}
	return model.Transferability{
		WarrantyID:         w.ID,
		IsTransferable:     w.Type != model.CoverageInsurance,
		Conditions:         conditions,
		RemainingTransfers: remaining,
		TransferHistory:    []model.WarrantyTransfer{},
	}
}

// CheckConditions reports an ErrInvalidConditions error if c is internally
// inconsistent.
func CheckConditions(c model.TransferConditions) error {
	if c.NotificationDays < 0 {
		return fmt.Errorf("%w: notification days %d is negative", ErrInvalidConditions, c.NotificationDays)
	}
	if c.FeeAmount != nil && c.FeeAmount.IsNegative() {
		return fmt.Errorf("%w: fee amount %s is negative", ErrInvalidConditions, c.FeeAmount)
	}
	if !c.ReducedCoverage && c.CoverageReductionPercent != nil {
		return fmt.Errorf("%w: reduction percent set without reduced coverage", ErrInvalidConditions)
	}
	if c.ReducedCoverage && c.CoverageReductionPercent == nil {
		return fmt.Errorf("%w: reduced coverage without a reduction percent", ErrInvalidConditions)
	}
	if p := c.CoverageReductionPercent; p != nil && (*p < 0 || *p > 100) {
		return fmt.Errorf("%w: reduction percent %d outside [0, 100]", ErrInvalidConditions, *p)
	}
	return nil
}

func percent(p int) *int {
	return &p
}

func amount(d decimal.Decimal) *decimal.Decimal {
	return &d
}
