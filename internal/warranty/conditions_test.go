package warranty

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/garancija/internal/model"
)

func TestPresetsAreConsistent(t *testing.T) {
	presets := map[string]model.TransferConditions{
		"manufacturer":     ManufacturerConditions(),
		"extended":         ExtendedConditions(),
		"home":             HomeWarrantyConditions(),
		"non-transferable": NonTransferableConditions(),
	}
	for name, c := range presets {
		assert.NoError(t, CheckConditions(c), name)
	}
	for _, ct := range model.CoverageTypes {
		assert.NoError(t, CheckConditions(DefaultConditions(ct)), ct)
	}
}

func TestManufacturerPreset(t *testing.T) {
	c := ManufacturerConditions()
	assert.True(t, c.RequiresNotification)
	assert.Equal(t, 30, c.NotificationDays)
	assert.False(t, c.RequiresFee)
	assert.True(t, c.ReducedCoverage)
	require.NotNil(t, c.CoverageReductionPercent)
	assert.Equal(t, 50, *c.CoverageReductionPercent)
	assert.Contains(t, c.AdditionalTerms, "manufacturing defects")
}

func TestExtendedAndHomePresets(t *testing.T) {
	ext := ExtendedConditions()
	assert.Equal(t, 30, ext.NotificationDays)
	assert.True(t, ext.RequiresFee)
	require.NotNil(t, ext.FeeAmount)
	assert.True(t, ext.FeeAmount.Equal(decimal.NewFromInt(50)))
	assert.False(t, ext.ReducedCoverage)

	home := HomeWarrantyConditions()
	assert.Equal(t, 7, home.NotificationDays)
	assert.True(t, home.RequiresFee)
	assert.True(t, home.RequiresInspection)
	assert.False(t, home.ReducedCoverage)
}

func TestNonTransferablePreset(t *testing.T) {
	c := NonTransferableConditions()
	assert.False(t, c.RequiresNotification)
	assert.True(t, c.ReducedCoverage)
	require.NotNil(t, c.CoverageReductionPercent)
	assert.Equal(t, 100, *c.CoverageReductionPercent)
}

func TestPresetsAreIndependentCopies(t *testing.T) {
	a := ManufacturerConditions()
	*a.CoverageReductionPercent = 10
	assert.Equal(t, 50, *ManufacturerConditions().CoverageReductionPercent)
}

func TestDefaultConditionsByType(t *testing.T) {
	assert.Equal(t, ManufacturerConditions(), DefaultConditions(model.CoverageManufacturer))
	assert.Equal(t, ExtendedConditions(), DefaultConditions(model.CoverageExtended))
	assert.Equal(t, ExtendedConditions(), DefaultConditions(model.CoverageProtection))
	assert.Equal(t, NonTransferableConditions(), DefaultConditions(model.CoverageInsurance))

	service := DefaultConditions(model.CoverageService)
	assert.Equal(t, 14, service.NotificationDays)
	require.NotNil(t, service.FeeAmount)
	assert.True(t, service.FeeAmount.Equal(decimal.NewFromInt(25)))

	retailer := DefaultConditions(model.CoverageRetailer)
	assert.Equal(t, 7, retailer.NotificationDays)
	assert.False(t, retailer.RequiresFee)
}

func TestConditionsForProviderOverrides(t *testing.T) {
	w := model.Warranty{Type: model.CoverageManufacturer, Provider: "  AppleCare "}
	c := ConditionsFor(w)
	assert.False(t, c.RequiresNotification)
	assert.False(t, c.ReducedCoverage)

	w.Provider = "Geek Squad"
	c = ConditionsFor(w)
	require.NotNil(t, c.FeeAmount)
	assert.Equal(t, "49.99", c.FeeAmount.String())

	w.Provider = "Acme"
	w.IsExtended = true
	assert.Equal(t, ExtendedConditions(), ConditionsFor(w))
}

func TestDefaultTransferability(t *testing.T) {
	w := model.Warranty{ID: uuid.New(), Type: model.CoverageManufacturer, Provider: "Acme"}
	tr := DefaultTransferability(w)
	assert.Equal(t, w.ID, tr.WarrantyID)
	assert.True(t, tr.IsTransferable)
	assert.Nil(t, tr.RemainingTransfers)
	assert.NotNil(t, tr.TransferHistory)

	w.Type = model.CoverageInsurance
	tr = DefaultTransferability(w)
	assert.False(t, tr.IsTransferable)
	require.NotNil(t, tr.RemainingTransfers)
	assert.Equal(t, 1, *tr.RemainingTransfers)
}

func TestCheckConditions(t *testing.T) {
	negFee := decimal.NewFromInt(-1)
	tests := []struct {
		name string
		c    model.TransferConditions
	}{
		{"percent without reduction", model.TransferConditions{CoverageReductionPercent: percent(20)}},
		{"reduction without percent", model.TransferConditions{ReducedCoverage: true}},
		{"percent above 100", model.TransferConditions{ReducedCoverage: true, CoverageReductionPercent: percent(101)}},
		{"negative percent", model.TransferConditions{ReducedCoverage: true, CoverageReductionPercent: percent(-5)}},
		{"negative notice", model.TransferConditions{RequiresNotification: true, NotificationDays: -1}},
		{"negative fee", model.TransferConditions{RequiresFee: true, FeeAmount: &negFee}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, CheckConditions(tt.c), ErrInvalidConditions)
		})
	}
}
