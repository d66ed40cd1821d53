package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/models"
	"pool-wizard/internal/services/poolwizard"
	"pool-wizard/internal/wizard"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type openSessionRequest struct {
	PoolType string `json:"poolType"`
}

type jumpRequest struct {
	Step int `json:"step"`
}

type investRequest struct {
	Amount float64 `json:"amount"`
}

func decodeBody(r *http.Request, out interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(out); err != nil {
		return errors.NewInvalidRequestError("invalid json body")
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, errors.NewInvalidRequestError(name + " must be an integer")
	}
	return n, nil
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	view, err := h.service.Open(r.Context(), credentialsFromRequest(r), req.PoolType)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, view)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateStep(w http.ResponseWriter, r *http.Request) {
	step, err := pathInt(r, "step")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req poolwizard.StepUpdate
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	view, err := h.service.UpdateStep(r.Context(), chi.URLParam(r, "id"), wizard.Step(step), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

// continueStep answers 200 even when the step is blocked; the result says
// whether the wizard advanced and carries the errors.
func (h *Handler) continueStep(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Continue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) back(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) jump(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.service.JumpTo(r.Context(), chi.URLParam(r, "id"), wizard.Step(req.Step))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Submit(r.Context(), credentialsFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) addListItem(w http.ResponseWriter, r *http.Request) {
	kind, err := wizard.ParseListKind(chi.URLParam(r, "list"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	row, err := readRow(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view, err := h.service.AddListItem(r.Context(), chi.URLParam(r, "id"), kind, row)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) updateListItem(w http.ResponseWriter, r *http.Request) {
	kind, err := wizard.ParseListKind(chi.URLParam(r, "list"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	index, err := pathInt(r, "index")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	row, err := readRow(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view, err := h.service.UpdateListItem(r.Context(), chi.URLParam(r, "id"), kind, index, row)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) removeListItem(w http.ResponseWriter, r *http.Request) {
	kind, err := wizard.ParseListKind(chi.URLParam(r, "list"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	index, err := pathInt(r, "index")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view, err := h.service.RemoveListItem(r.Context(), chi.URLParam(r, "id"), kind, index)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) listPools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.service.ListPools(r.Context(), credentialsFromRequest(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, pools)
}

func (h *Handler) updatePool(w http.ResponseWriter, r *http.Request) {
	var update models.PoolUpdate
	if err := decodeBody(r, &update); err != nil {
		writeDomainError(w, err)
		return
	}
	pool, err := h.service.UpdatePool(r.Context(), credentialsFromRequest(r), chi.URLParam(r, "id"), &update)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, pool)
}

func (h *Handler) deletePool(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePool(r.Context(), credentialsFromRequest(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) investorPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.service.InvestorPool(r.Context(), credentialsFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, pool)
}

func (h *Handler) invest(w http.ResponseWriter, r *http.Request) {
	var req investRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	inv, err := h.service.Invest(r.Context(), credentialsFromRequest(r), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, inv)
}

func (h *Handler) listInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := h.service.ListInvestments(r.Context(), credentialsFromRequest(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, investments)
}

func (h *Handler) repayment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := 0
	if raw := q.Get("term"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeDomainError(w, errors.NewInvalidFieldError("term", "term must be a whole number of months"))
			return
		}
		term = n
	}
	writeSuccess(w, http.StatusOK, h.service.Repayment(poolwizard.RepaymentQuery{
		Amount:        q.Get("amount"),
		ROIRate:       q.Get("roiRate"),
		TermMonths:    term,
		LoanType:      q.Get("loanType"),
		PropertyValue: q.Get("propertyValue"),
	}))
}

func readRow(r *http.Request) (json.RawMessage, error) {
	var row json.RawMessage
	if err := decodeBody(r, &row); err != nil {
		return nil, err
	}
	return row, nil
}
