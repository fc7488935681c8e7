package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/garancija/internal/metrics"
	"github.com/erazemk/garancija/internal/model"
	"github.com/erazemk/garancija/internal/store"
	"github.com/erazemk/garancija/internal/warranty"
)

// TransfersHandler handles the transfer ledger endpoints.
type TransfersHandler struct {
	DB      *sql.DB
	Now     func() time.Time
	Metrics *metrics.Metrics
}

type ownerRequest struct {
	Name             string      `json:"name" validate:"required,max=200"`
	Email            string      `json:"email" validate:"omitempty,email"`
	Phone            string      `json:"phone" validate:"max=50"`
	Address          string      `json:"address"`
	ProofOfOwnership []uuid.UUID `json:"proof_of_ownership"`
}

func (o ownerRequest) info() model.OwnerInfo {
	return model.OwnerInfo{
		Name:             o.Name,
		Email:            o.Email,
		Phone:            o.Phone,
		Address:          o.Address,
		ProofOfOwnership: o.ProofOfOwnership,
	}
}

type proposeTransferRequest struct {
	TransferType         model.TransferType `json:"transfer_type" validate:"required,oneof=sale gift inheritance trade other"`
	FromOwner            ownerRequest       `json:"from_owner"`
	ToOwner              ownerRequest       `json:"to_owner"`
	TransferDate         *time.Time         `json:"transfer_date"`
	TransferFee          *decimal.Decimal   `json:"transfer_fee"`
	InspectionDocumentID *uuid.UUID         `json:"inspection_document_id"`
	DocumentIDs          []uuid.UUID        `json:"document_ids"`
	Notes                string             `json:"notes"`
}

type setStatusRequest struct {
	Status model.TransferStatus `json:"status" validate:"required,oneof=in_progress completed rejected cancelled"`
}

type transferResponse struct {
	Transfer   model.WarrantyTransfer  `json:"transfer"`
	Validation *model.ValidationResult `json:"validation,omitempty"`
	Warranty   *model.Warranty         `json:"warranty,omitempty"`
}

// List handles GET /api/warranties/{id}/transfers.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	rec, ok := loadWarranty(w, r, h.DB)
	if !ok {
		return
	}

	history, err := store.ListWarrantyTransfers(r.Context(), h.DB, rec.ID)
	if err != nil {
		slog.Error("failed to list transfers", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list transfers")
		return
	}
	if history == nil {
		history = []model.WarrantyTransfer{}
	}
	jsonResponse(w, http.StatusOK, history)
}

// Propose handles POST /api/warranties/{id}/transfers. The proposal is
// validated against the current policy; it is recorded as pending only when
// validation reports no errors.
func (h *TransfersHandler) Propose(w http.ResponseWriter, r *http.Request) {
	rec, ok := loadWarranty(w, r, h.DB)
	if !ok {
		return
	}

	var req proposeTransferRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	now := h.Now()
	proposal := warranty.Proposal{
		TransferType:         req.TransferType,
		FromOwner:            req.FromOwner.info(),
		ToOwner:              req.ToOwner.info(),
		TransferFee:          req.TransferFee,
		InspectionDocumentID: req.InspectionDocumentID,
		DocumentIDs:          req.DocumentIDs,
		Notes:                req.Notes,
	}
	if req.TransferDate != nil {
		proposal.TransferDate = *req.TransferDate
	}

	transfer, err := warranty.InitiateTransfer(*rec, proposal, now)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	tr, err := store.GetTransferability(r.Context(), h.DB, rec.ID)
	if err != nil || tr == nil {
		slog.Error("failed to get transferability", "warranty", rec.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load transfer policy")
		return
	}

	result, ok := h.validate(w, *rec, *tr, transfer, now)
	if !ok {
		return
	}
	if !result.IsValid {
		jsonResponse(w, http.StatusUnprocessableEntity, transferResponse{Transfer: transfer, Validation: &result})
		return
	}
	transfer.AdjustedEndDate = result.AdjustedEndDate

	claims := GetClaims(r.Context())
	if err := store.AppendTransfer(r.Context(), h.DB, transfer, &claims.UserID); err != nil {
		slog.Error("failed to record transfer", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to record transfer")
		return
	}

	slog.Info("transfer proposed", "user", claims.Username, "warranty", rec.ID,
		"transfer", transfer.ID, "type", transfer.TransferType, "to", transfer.ToOwner.Name)
	jsonResponse(w, http.StatusCreated, transferResponse{Transfer: transfer, Validation: &result})
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	transfer, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, transfer)
}

// Validate handles POST /api/transfers/{id}/validate. It re-runs validation
// at the current time and stores the resulting adjusted end date.
func (h *TransfersHandler) Validate(w http.ResponseWriter, r *http.Request) {
	transfer, ok := h.load(w, r)
	if !ok {
		return
	}

	rec, err := store.GetWarranty(r.Context(), h.DB, transfer.WarrantyID)
	if err != nil || rec == nil {
		slog.Error("failed to get warranty of transfer", "transfer", transfer.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load warranty")
		return
	}
	tr, err := store.GetTransferability(r.Context(), h.DB, transfer.WarrantyID)
	if err != nil || tr == nil {
		slog.Error("failed to get transferability", "warranty", transfer.WarrantyID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load transfer policy")
		return
	}

	now := h.Now()
	result, ok := h.validate(w, *rec, *tr, *transfer, now)
	if !ok {
		return
	}

	if err := store.RecordAdjustedEndDate(r.Context(), h.DB, transfer.ID, result.AdjustedEndDate, now); err != nil {
		if errors.Is(err, store.ErrTransferFinal) {
			jsonError(w, http.StatusConflict, err.Error())
			return
		}
		slog.Error("failed to record adjusted end date", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to record validation")
		return
	}
	transfer.AdjustedEndDate = result.AdjustedEndDate
	transfer.UpdatedAt = now

	jsonResponse(w, http.StatusOK, transferResponse{Transfer: *transfer, Validation: &result})
}

// SetStatus handles PUT /api/transfers/{id}/status. Moving a transfer to
// completed accepts it, which re-validates and applies it to the warranty.
func (h *TransfersHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	var req setStatusRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	claims := GetClaims(r.Context())
	now := h.Now()

	if req.Status == model.TransferCompleted {
		h.accept(w, r, id, now)
		return
	}

	transfer, err := store.SetTransferStatus(r.Context(), h.DB, id, req.Status, now)
	if err != nil {
		h.ledgerError(w, err, id)
		return
	}

	h.Metrics.IncrementStatusChange(transfer.Status)
	slog.Info("transfer status changed", "user", claims.Username, "transfer", id, "status", transfer.Status)
	jsonResponse(w, http.StatusOK, transferResponse{Transfer: *transfer})
}

func (h *TransfersHandler) accept(w http.ResponseWriter, r *http.Request, id uuid.UUID, now time.Time) {
	start := time.Now()
	acc, err := store.AcceptTransfer(r.Context(), h.DB, id, now)
	if acc != nil {
		h.Metrics.ObserveAcceptance(acc.Validation, time.Since(start))
	}
	if errors.Is(err, store.ErrNotAccepted) {
		slog.Warn("transfer acceptance refused", "transfer", id, "issues", len(acc.Validation.Issues))
		jsonResponse(w, http.StatusUnprocessableEntity, transferResponse{Transfer: acc.Transfer, Validation: &acc.Validation})
		return
	}
	if err != nil {
		h.ledgerError(w, err, id)
		return
	}

	h.Metrics.IncrementStatusChange(model.TransferCompleted)
	h.Metrics.IncrementAccepted(acc.Transfer.TransferType)

	attrs := []any{"user", GetClaims(r.Context()).Username, "transfer", id, "warranty", acc.Warranty.ID}
	if acc.Transfer.AdjustedEndDate != nil {
		attrs = append(attrs, "adjusted_end_date", acc.Transfer.AdjustedEndDate.Format(time.DateOnly))
	}
	slog.Info("transfer accepted", attrs...)

	jsonResponse(w, http.StatusOK, transferResponse{
		Transfer:   acc.Transfer,
		Validation: &acc.Validation,
		Warranty:   &acc.Warranty,
	})
}

func (h *TransfersHandler) ledgerError(w http.ResponseWriter, err error, id uuid.UUID) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "transfer not found")
	case errors.Is(err, store.ErrTransferFinal), errors.Is(err, warranty.ErrTransferFinalized):
		slog.Warn("refused change to final transfer", "transfer", id)
		jsonError(w, http.StatusConflict, "transfer is final")
	case errors.Is(err, store.ErrInvalidTransition):
		slog.Warn("refused transfer status change", "transfer", id, "error", err)
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, warranty.ErrInvalidConditions), errors.Is(err, warranty.ErrInvalidWindow),
		errors.Is(err, warranty.ErrWarrantyMismatch):
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("transfer ledger failure", "transfer", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// Agreement handles GET /api/transfers/{id}/agreement. The optional item
// query parameter names the transferred item.
func (h *TransfersHandler) Agreement(w http.ResponseWriter, r *http.Request) {
	h.paperwork(w, r, warranty.RenderAgreement)
}

// Notice handles GET /api/transfers/{id}/notice.
func (h *TransfersHandler) Notice(w http.ResponseWriter, r *http.Request) {
	h.paperwork(w, r, warranty.RenderProviderNotice)
}

type renderFunc func(model.WarrantyTransfer, model.Warranty, string, time.Time) (string, error)

func (h *TransfersHandler) paperwork(w http.ResponseWriter, r *http.Request, render renderFunc) {
	transfer, ok := h.load(w, r)
	if !ok {
		return
	}

	rec, err := store.GetWarranty(r.Context(), h.DB, transfer.WarrantyID)
	if err != nil || rec == nil {
		slog.Error("failed to get warranty of transfer", "transfer", transfer.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load warranty")
		return
	}

	doc, err := render(*transfer, *rec, r.URL.Query().Get("item"), h.Now())
	if err != nil {
		slog.Error("failed to render paperwork", "transfer", transfer.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render document")
		return
	}
	textResponse(w, doc)
}

func (h *TransfersHandler) validate(w http.ResponseWriter, rec model.Warranty, tr model.Transferability, t model.WarrantyTransfer, now time.Time) (model.ValidationResult, bool) {
	start := time.Now()
	result, err := warranty.ValidateTransfer(rec, tr, t, now)
	if err != nil {
		h.ledgerError(w, err, t.ID)
		return model.ValidationResult{}, false
	}
	h.Metrics.ObserveValidation(result, time.Since(start))
	return result, true
}

func (h *TransfersHandler) load(w http.ResponseWriter, r *http.Request) (*model.WarrantyTransfer, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return nil, false
	}

	transfer, err := store.GetTransfer(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get transfer", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get transfer")
		return nil, false
	}
	if transfer == nil {
		jsonError(w, http.StatusNotFound, "transfer not found")
		return nil, false
	}
	return transfer, true
}
