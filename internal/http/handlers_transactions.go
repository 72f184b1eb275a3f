package http

import (
	"context"
	"net/http"
	"strings"

	"moneybook/internal/core"
	applog "moneybook/internal/log"
	"moneybook/internal/notify"
	"moneybook/internal/presenter"
	"moneybook/internal/services"
)

// handleCreateTransaction runs the add flow. On success it returns the
// reset form and tells the page to refresh the list and both panels; on
// rejected input it returns 422 with the input echoed back.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(r.Context(), "Parse request body error", "error", err, "method", r.Method, "path", r.URL.Path)
		BadRequestError("invalid request body").
			TriggerNotification(notify.Error, s.catalog.InvalidInput, s.notifyDuration).
			Write(w)
		return
	}

	collected := notify.NewCollector()
	ctx := notify.WithCollector(r.Context(), collected)

	form, t, err := s.svc.Submit(ctx, p.RawInput())
	if err != nil {
		status := http.StatusInternalServerError
		data := formData{C: s.catalog, Form: form}
		if services.IsInputError(err) {
			status = http.StatusUnprocessableEntity
			data.Error = s.catalog.InvalidInput
		} else {
			data.Error = s.catalog.SaveFailed
			s.events.LogError(ctx, "Failed to save transaction", err, applog.ComponentLedger, applog.OpCreate, nil)
		}
		b := NewHTMXResponse().Status(status).TriggerCollected(collected, s.notifyDuration)
		s.respondTemplate(ctx, b, "form", data).Write(w)
		return
	}

	s.events.LogTransactionCreated(ctx, t.ID, string(t.Type), t.Amount, t.Date.String())

	b := NewHTMXResponse().
		TriggerTransactionsChanged(s.store.Revision()).
		TriggerFormReset().
		TriggerCollected(collected, s.notifyDuration)
	s.respondTemplate(ctx, b, "form", formData{C: s.catalog, Form: form}).Write(w)
}

// handleConfirmDelete renders the confirmation modal for one record.
func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	t, ok := s.store.Get(id)
	if !ok {
		NotFoundError("transaction not found").Write(w)
		return
	}
	row := s.presenter.List([]core.Transaction{t}).Rows[0]
	s.writeTemplate(w, r, http.StatusOK, "confirm", confirmData{C: s.catalog, Row: row})
}

// handleDeleteTransaction removes a record once the request carries the
// modal's affirmative answer. Anything else is treated as a declined prompt:
// nothing changes and no toast is shown. The empty body clears the modal.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	answer := p.Confirmed()

	collected := notify.NewCollector()
	ctx := notify.WithCollector(r.Context(), collected)

	deleted, err := s.svc.RequestDelete(ctx, id, services.ConfirmFunc(func(context.Context, string) bool {
		return answer
	}))
	if err != nil {
		s.events.LogError(ctx, "Failed to delete transaction", err, applog.ComponentLedger, applog.OpDelete, nil)
		NewHTMXResponse().
			Status(http.StatusInternalServerError).
			TriggerCollected(collected, s.notifyDuration).
			Write(w)
		return
	}
	if !deleted {
		NewHTMXResponse().Write(w)
		return
	}

	s.events.LogTransactionDeleted(ctx, id)
	NewHTMXResponse().
		TriggerTransactionsChanged(s.store.Revision()).
		TriggerCollected(collected, s.notifyDuration).
		Write(w)
}

type transactionJSON struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Type        string `json:"type"`
}

type summaryJSON struct {
	TotalIncome  string `json:"totalIncome"`
	TotalExpense string `json:"totalExpense"`
	Balance      string `json:"balance"`
	Negative     bool   `json:"negative"`
}

// handleAPITransactions lists records in display order.
func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	ordered := presenter.OrderForDisplay(s.store.Snapshot())
	out := make([]transactionJSON, 0, len(ordered))
	for _, t := range ordered {
		out = append(out, transactionJSON{
			ID:          t.ID,
			Description: t.Description,
			Amount:      t.Amount.String(),
			Date:        t.Date.String(),
			Time:        t.Time,
			Type:        string(t.Type),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sum := s.store.Summary()
	writeJSON(w, http.StatusOK, summaryJSON{
		TotalIncome:  sum.TotalIncome.String(),
		TotalExpense: sum.TotalExpense.String(),
		Balance:      sum.Balance.String(),
		Negative:     !sum.NonNegative(),
	})
}
