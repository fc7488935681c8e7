package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/garancija/internal/model"
	"github.com/erazemk/garancija/internal/store"
	"github.com/erazemk/garancija/internal/warranty"
)

// WarrantiesHandler handles warranty endpoints.
type WarrantiesHandler struct {
	DB           *sql.DB
	Now          func() time.Time
	ExpiringDays int
}

type warrantyDetails struct {
	Provider           string           `json:"provider" validate:"required,max=200"`
	CoverageDetails    string           `json:"coverage_details"`
	RegistrationNumber string           `json:"registration_number" validate:"max=100"`
	PhoneNumber        string           `json:"phone_number" validate:"max=50"`
	Email              string           `json:"email" validate:"omitempty,email"`
	Website            string           `json:"website" validate:"omitempty,url"`
	DocumentIDs        []uuid.UUID      `json:"document_ids"`
	Notes              string           `json:"notes"`
	IsExtended         bool             `json:"is_extended"`
	Cost               *decimal.Decimal `json:"cost"`
}

type createWarrantyRequest struct {
	AssetID   uuid.UUID          `json:"asset_id" validate:"required"`
	Type      model.CoverageType `json:"type" validate:"required,oneof=manufacturer retailer extended protection service insurance"`
	StartDate time.Time          `json:"start_date" validate:"required"`
	EndDate   time.Time          `json:"end_date" validate:"required,gtefield=StartDate"`
	warrantyDetails
}

type transferabilityRequest struct {
	IsTransferable     bool                     `json:"is_transferable"`
	Conditions         model.TransferConditions `json:"transfer_conditions"`
	RemainingTransfers *int                     `json:"remaining_transfers" validate:"omitempty,gte=0"`
}

// warrantyView is a warranty with its coverage status at request time.
type warrantyView struct {
	model.Warranty
	Status        model.CoverageStatus `json:"status"`
	DaysRemaining int                  `json:"days_remaining"`
	Progress      float64              `json:"progress"`
}

func (h *WarrantiesHandler) view(w model.Warranty, now time.Time) warrantyView {
	return warrantyView{
		Warranty:      w,
		Status:        warranty.ComputeStatus(w, now),
		DaysRemaining: warranty.DaysRemaining(now, w.EndDate),
		Progress:      warranty.Progress(now, w.StartDate, w.EndDate),
	}
}

// Create handles POST /api/warranties. The warranty gets the default
// transfer policy for its type and provider.
func (h *WarrantiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWarrantyRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Cost != nil && req.Cost.IsNegative() {
		jsonError(w, http.StatusBadRequest, "cost must not be negative")
		return
	}

	now := h.Now()
	rec := model.Warranty{
		ID:                 uuid.New(),
		AssetID:            req.AssetID,
		Type:               req.Type,
		Provider:           req.Provider,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		CoverageDetails:    req.CoverageDetails,
		RegistrationNumber: req.RegistrationNumber,
		PhoneNumber:        req.PhoneNumber,
		Email:              req.Email,
		Website:            req.Website,
		DocumentIDs:        req.DocumentIDs,
		Notes:              req.Notes,
		IsExtended:         req.IsExtended,
		Cost:               req.Cost,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	created, err := store.CreateWarranty(r.Context(), h.DB, rec, warranty.DefaultTransferability(rec))
	if err != nil {
		slog.Error("failed to create warranty", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create warranty")
		return
	}

	slog.Info("warranty registered", "user", GetClaims(r.Context()).Username,
		"warranty", created.ID, "asset", created.AssetID, "type", created.Type, "provider", created.Provider)
	jsonResponse(w, http.StatusCreated, h.view(*created, now))
}

// List handles GET /api/warranties.
//
// Query parameters: asset_id limits the list to one asset; expiring=true
// keeps only active warranties ending within the configured window, and
// expiring_within=N sets that window explicitly.
func (h *WarrantiesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var assetID uuid.UUID
	if v := q.Get("asset_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid asset_id")
			return
		}
		assetID = id
	}

	within := -1
	if q.Get("expiring") == "true" {
		within = h.ExpiringDays
	}
	if v := q.Get("expiring_within"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid expiring_within")
			return
		}
		within = n
	}

	list, err := store.ListWarranties(r.Context(), h.DB, assetID)
	if err != nil {
		slog.Error("failed to list warranties", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list warranties")
		return
	}

	now := h.Now()
	views := []warrantyView{}
	for _, rec := range list {
		v := h.view(rec, now)
		if within >= 0 && (v.Status.State == model.CoverageExpired || v.DaysRemaining > within) {
			continue
		}
		views = append(views, v)
	}
	jsonResponse(w, http.StatusOK, views)
}

// Get handles GET /api/warranties/{id}.
func (h *WarrantiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, h.view(*rec, h.Now()))
}

// Update handles PUT /api/warranties/{id}. Only descriptive fields change;
// the coverage window moves only through an accepted transfer.
func (h *WarrantiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}

	var req warrantyDetails
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Cost != nil && req.Cost.IsNegative() {
		jsonError(w, http.StatusBadRequest, "cost must not be negative")
		return
	}

	now := h.Now()
	rec.Provider = req.Provider
	rec.CoverageDetails = req.CoverageDetails
	rec.RegistrationNumber = req.RegistrationNumber
	rec.PhoneNumber = req.PhoneNumber
	rec.Email = req.Email
	rec.Website = req.Website
	rec.DocumentIDs = req.DocumentIDs
	rec.Notes = req.Notes
	rec.IsExtended = req.IsExtended
	rec.Cost = req.Cost
	rec.UpdatedAt = now

	if err := store.UpdateWarrantyDetails(r.Context(), h.DB, *rec); err != nil {
		slog.Error("failed to update warranty", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update warranty")
		return
	}

	slog.Info("warranty updated", "user", GetClaims(r.Context()).Username, "warranty", rec.ID)
	jsonResponse(w, http.StatusOK, h.view(*rec, now))
}

// GetTransferability handles GET /api/warranties/{id}/transferability.
func (h *WarrantiesHandler) GetTransferability(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.loadTransferability(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, tr)
}

// SetTransferability handles PUT /api/warranties/{id}/transferability.
func (h *WarrantiesHandler) SetTransferability(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}

	var req transferabilityRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	tr := model.Transferability{
		WarrantyID:         rec.ID,
		IsTransferable:     req.IsTransferable,
		Conditions:         req.Conditions,
		RemainingTransfers: req.RemainingTransfers,
	}
	if err := store.SetTransferability(r.Context(), h.DB, tr); err != nil {
		if errors.Is(err, warranty.ErrInvalidConditions) {
			jsonError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("failed to set transferability", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update transfer policy")
		return
	}

	slog.Info("transfer policy updated", "user", GetClaims(r.Context()).Username,
		"warranty", rec.ID, "transferable", tr.IsTransferable)

	updated, ok := h.loadTransferability(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Checklist handles GET /api/warranties/{id}/checklist.
func (h *WarrantiesHandler) Checklist(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.loadTransferability(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, warranty.BuildChecklist(*tr, h.Now()))
}

func (h *WarrantiesHandler) load(w http.ResponseWriter, r *http.Request) (*model.Warranty, bool) {
	return loadWarranty(w, r, h.DB)
}

func (h *WarrantiesHandler) loadTransferability(w http.ResponseWriter, r *http.Request) (*model.Transferability, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid warranty id")
		return nil, false
	}

	tr, err := store.GetTransferability(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get transferability", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get transfer policy")
		return nil, false
	}
	if tr == nil {
		jsonError(w, http.StatusNotFound, "warranty not found")
		return nil, false
	}
	return tr, true
}

// loadWarranty resolves the {id} path value to a stored warranty, writing
// the error response itself when that fails.
func loadWarranty(w http.ResponseWriter, r *http.Request, db *sql.DB) (*model.Warranty, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid warranty id")
		return nil, false
	}

	rec, err := store.GetWarranty(r.Context(), db, id)
	if err != nil {
		slog.Error("failed to get warranty", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get warranty")
		return nil, false
	}
	if rec == nil {
		jsonError(w, http.StatusNotFound, "warranty not found")
		return nil, false
	}
	return rec, true
}
