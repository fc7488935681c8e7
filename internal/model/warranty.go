package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Warranty is one coverage instrument attached to one asset. Status, days
// remaining and progress are derived from the window on every read and are
// never stored.
type Warranty struct {
	ID                 uuid.UUID        `json:"id"`
	AssetID            uuid.UUID        `json:"asset_id"`
	Type               CoverageType     `json:"type"`
	Provider           string           `json:"provider"`
	StartDate          time.Time        `json:"start_date"`
	EndDate            time.Time        `json:"end_date"`
	CoverageDetails    string           `json:"coverage_details,omitempty"`
	RegistrationNumber string           `json:"registration_number,omitempty"`
	PhoneNumber        string           `json:"phone_number,omitempty"`
	Email              string           `json:"email,omitempty"`
	Website            string           `json:"website,omitempty"`
	DocumentIDs        []uuid.UUID      `json:"document_ids,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	IsExtended         bool             `json:"is_extended"`
	Cost               *decimal.Decimal `json:"cost,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// CoverageType classifies a warranty.
type CoverageType string

// Coverage types.
const (
	CoverageManufacturer CoverageType = "manufacturer"
	CoverageRetailer     CoverageType = "retailer"
	CoverageExtended     CoverageType = "extended"
	CoverageProtection   CoverageType = "protection"
	CoverageService      CoverageType = "service"
	CoverageInsurance    CoverageType = "insurance"
)

// CoverageTypes lists every coverage type in display order.
var CoverageTypes = []CoverageType{
	CoverageManufacturer,
	CoverageRetailer,
	CoverageExtended,
	CoverageProtection,
	CoverageService,
	CoverageInsurance,
}

// Valid reports whether t is a known coverage type.
func (t CoverageType) Valid() bool {
	switch t {
	case CoverageManufacturer, CoverageRetailer, CoverageExtended,
		CoverageProtection, CoverageService, CoverageInsurance:
		return true
	}
	return false
}

// DisplayName returns the human-readable coverage type.
func (t CoverageType) DisplayName() string {
	switch t {
	case CoverageManufacturer:
		return "Manufacturer Warranty"
	case CoverageRetailer:
		return "Retailer Warranty"
	case CoverageExtended:
		return "Extended Warranty"
	case CoverageProtection:
		return "Protection Plan"
	case CoverageService:
		return "Service Contract"
	case CoverageInsurance:
		return "Insurance"
	}
	return string(t)
}

// CoverageState is the derived status of a coverage window.
type CoverageState string

// Coverage states.
const (
	CoverageActive       CoverageState = "active"
	CoverageExpiringSoon CoverageState = "expiring_soon"
	CoverageExpired      CoverageState = "expired"
)

// CoverageStatus is the computed status of a warranty at one instant.
// DaysRemaining is set only for CoverageExpiringSoon, where zero means the
// coverage ends today.
type CoverageStatus struct {
	State         CoverageState `json:"state"`
	DaysRemaining *int          `json:"days_remaining,omitempty"`
}

// ExpiringSoon returns the expiring soon status with days left.
func ExpiringSoon(days int) CoverageStatus {
	return CoverageStatus{State: CoverageExpiringSoon, DaysRemaining: &days}
}

// DisplayName returns the status as shown to users.
func (s CoverageStatus) DisplayName() string {
	switch s.State {
	case CoverageActive:
		return "Active"
	case CoverageExpiringSoon:
		switch {
		case s.DaysRemaining == nil:
			return "Expiring soon"
		case *s.DaysRemaining == 1:
			return "Expiring in 1 day"
		}
		return "Expiring in " + strconv.Itoa(*s.DaysRemaining) + " days"
	case CoverageExpired:
		return "Expired"
	}
	return string(s.State)
}

