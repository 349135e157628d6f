package fees

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campushub-erp/campushub/internal/platform/httpx"
	"github.com/campushub-erp/campushub/internal/shared"
)

// Handler exposes fee collection and dimension management over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers fee routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/payments", h.listPayments)
	r.Post("/payments", h.assignFee)
	r.Get("/payments/{id}", h.getPayment)
	r.Delete("/payments/{id}", h.deletePayment)
	r.Post("/payments/{id}/collect", h.recordPayment)
	r.Post("/payments/{id}/concessions", h.addConcession)
	r.Get("/students/{studentID}/ledger", h.studentLedger)

	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Put("/categories/{id}", h.renameCategory)
	r.Delete("/categories/{id}", h.deleteCategory)

	r.Get("/types", h.listFeeTypes)
	r.Post("/types", h.createFeeType)
	r.Delete("/types/{id}", h.deleteFeeType)

	r.Get("/installments", h.listInstallments)
	r.Post("/installments", h.createInstallment)

	r.Get("/groups", h.listFeeGroups)
	r.Post("/groups", h.createFeeGroup)

	r.Get("/payment-methods", h.listPaymentMethods)
	r.Post("/payment-methods", h.createPaymentMethod)
	r.Put("/payment-methods/{id}", h.updatePaymentMethod)
	r.Delete("/payment-methods/{id}", h.deletePaymentMethod)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	q := r.URL.Query()

	f := Filter{
		StudentID:      q.Get("student_id"),
		ClassID:        q.Get("class_id"),
		FeeCategoryID:  q.Get("fee_category_id"),
		FeeGroupID:     q.Get("fee_group_id"),
		PaymentMode:    q.Get("payment_mode"),
		AcademicYearID: q.Get("academic_year_id"),
		Search:         q.Get("q"),
	}
	for _, s := range q["status"] {
		f.Statuses = append(f.Statuses, PaymentStatus(s))
	}
	if v := q.Get("due_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.DueFrom = t
		}
	}
	if v := q.Get("due_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.DueTo = t
		}
	}
	pageNum, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	page := shared.NewPagination(pageNum, perPage, 0)
	f.Limit = page.PerPage
	f.Offset = page.Offset()

	payments, err := h.service.ListPayments(r.Context(), scope, f)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments, "page": page.Page})
}

func (h *Handler) assignFee(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input AssignFeeInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.AssignFee(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	payment, err := h.service.GetPayment(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if err := h.service.DeletePayment(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input RecordPaymentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	input.FeePaymentID = chi.URLParam(r, "id")
	updated, err := h.service.RecordPayment(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) addConcession(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input ConcessionInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	input.FeePaymentID = chi.URLParam(r, "id")
	created, err := h.service.AddConcession(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) studentLedger(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	payments, totals, err := h.service.StudentLedger(r.Context(), scope, chi.URLParam(r, "studentID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments, "totals": totals})
}

// --- Dimensions ---

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	items, err := h.service.ListCategories(r.Context(), scope)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input DimensionInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.CreateCategory(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) renameCategory(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input DimensionInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.service.RenameCategory(r.Context(), scope, chi.URLParam(r, "id"), input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if err := h.service.DeleteCategory(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listFeeTypes(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	items, err := h.service.ListFeeTypes(r.Context(), scope, FeeTypeKind(r.URL.Query().Get("kind")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createFeeType(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input FeeTypeInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.CreateFeeType(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) deleteFeeType(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if err := h.service.DeleteFeeType(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listInstallments(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	items, err := h.service.ListInstallments(r.Context(), scope)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createInstallment(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input DimensionInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.CreateInstallment(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listFeeGroups(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	items, err := h.service.ListFeeGroups(r.Context(), scope)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createFeeGroup(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input DimensionInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.CreateFeeGroup(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	items, err := h.service.ListPaymentMethods(r.Context(), scope)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createPaymentMethod(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input PaymentMethodInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.CreatePaymentMethod(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input PaymentMethodInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.service.UpdatePaymentMethod(r.Context(), scope, chi.URLParam(r, "id"), input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	err := h.service.DeletePaymentMethod(r.Context(), scope, chi.URLParam(r, "id"))
	if errors.Is(err, ErrPaymentMethodInUse) {
		httpx.Problem(w, http.StatusConflict, "Payment Method In Use", err.Error())
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
