package http

import (
	"net/http"

	"github.com/attendly-hr/attendly-backend-go/internal/domain/payroll"
	"github.com/attendly-hr/attendly-backend-go/internal/handler/http/response"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	GetAccrual(w http.ResponseWriter, r *http.Request)
	GetMyAccrual(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{
		payrollService: payrollService,
	}
}

// GetAccrual implements PayrollHandler. HR view of any employee's accrual.
func (h *payrollHandlerImpl) GetAccrual(w http.ResponseWriter, r *http.Request) {
	req := payroll.AccrualRequest{
		UserID:    chi.URLParam(r, "userID"),
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}

	result, err := h.payrollService.GetAccrual(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMyAccrual implements PayrollHandler. An employee's own accrual.
func (h *payrollHandlerImpl) GetMyAccrual(w http.ResponseWriter, r *http.Request) {
	identity, err := jwt.IdentityFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	req := payroll.AccrualRequest{
		UserID:    identity.UserID,
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}

	result, err := h.payrollService.GetAccrual(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
