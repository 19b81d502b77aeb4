package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type recurringJSON struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Type                 string `json:"type"`
	Amount               string `json:"amount"`
	Frequency            string `json:"frequency"`
	StartDate            string `json:"start_date"`
	EndDate              string `json:"end_date,omitempty"`
	NextOccurrence       string `json:"next_occurrence"`
	LastProcessed        string `json:"last_processed,omitempty"`
	Status               string `json:"status"`
	Description          string `json:"description,omitempty"`
	Notes                string `json:"notes,omitempty"`
	Payee                string `json:"payee,omitempty"`
	OccurrenceCount      int    `json:"occurrence_count"`
	MaxOccurrences       int    `json:"max_occurrences,omitempty"`
	AutoCreate           bool   `json:"auto_create"`
	NotifyBeforeCreation bool   `json:"notify_before_creation"`
	NotifyDaysBefore     int    `json:"notify_days_before,omitempty"`
	AccountID            string `json:"account_id"`
	CategoryID           string `json:"category_id,omitempty"`
	ToAccountID          string `json:"to_account_id,omitempty"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

func toRecurringJSON(rt core.RecurringTransaction) recurringJSON {
	return recurringJSON{
		ID:                   rt.ID,
		Name:                 rt.Name,
		Type:                 string(rt.Type),
		Amount:               rt.Amount.String(),
		Frequency:            string(rt.Frequency),
		StartDate:            rt.StartDate.String(),
		EndDate:              dateOrEmpty(rt.EndDate),
		NextOccurrence:       rt.NextOccurrence.String(),
		LastProcessed:        dateOrEmpty(rt.LastProcessed),
		Status:               string(rt.Status),
		Description:          rt.Description,
		Notes:                rt.Notes,
		Payee:                rt.Payee,
		OccurrenceCount:      rt.OccurrenceCount,
		MaxOccurrences:       rt.MaxOccurrences,
		AutoCreate:           rt.AutoCreate,
		NotifyBeforeCreation: rt.NotifyBeforeCreation,
		NotifyDaysBefore:     rt.NotifyDaysBefore,
		AccountID:            rt.AccountID,
		CategoryID:           rt.CategoryID,
		ToAccountID:          rt.ToAccountID,
		CreatedAt:            rt.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            rt.UpdatedAt.Format(time.RFC3339),
	}
}

type createRecurringRequest struct {
	Name                 string `json:"name"`
	Type                 string `json:"type"`
	Amount               string `json:"amount"`
	Frequency            string `json:"frequency"`
	StartDate            string `json:"start_date"`
	EndDate              string `json:"end_date,omitempty"`
	Description          string `json:"description,omitempty"`
	Notes                string `json:"notes,omitempty"`
	Payee                string `json:"payee,omitempty"`
	MaxOccurrences       int    `json:"max_occurrences,omitempty"`
	AutoCreate           *bool  `json:"auto_create,omitempty"`
	NotifyBeforeCreation bool   `json:"notify_before_creation,omitempty"`
	NotifyDaysBefore     int    `json:"notify_days_before,omitempty"`
	AccountID            string `json:"account_id"`
	CategoryID           string `json:"category_id,omitempty"`
	ToAccountID          string `json:"to_account_id,omitempty"`
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req createRecurringRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, ok := parseMoneyField(w, "amount", req.Amount)
	if !ok {
		return
	}
	startDate, ok := parseDateField(w, "start_date", req.StartDate)
	if !ok {
		return
	}

	rt := core.RecurringTransaction{
		UserID:               userID,
		Name:                 sanitizeInput(req.Name),
		Type:                 core.TransactionType(req.Type),
		Amount:               amount,
		Frequency:            core.RecurringFrequency(req.Frequency),
		StartDate:            startDate,
		Description:          sanitizeInput(req.Description),
		Notes:                sanitizeInput(req.Notes),
		Payee:                sanitizeInput(req.Payee),
		MaxOccurrences:       req.MaxOccurrences,
		AutoCreate:           true,
		NotifyBeforeCreation: req.NotifyBeforeCreation,
		NotifyDaysBefore:     req.NotifyDaysBefore,
		AccountID:            req.AccountID,
		CategoryID:           req.CategoryID,
		ToAccountID:          req.ToAccountID,
	}
	if req.AutoCreate != nil {
		rt.AutoCreate = *req.AutoCreate
	}
	if req.EndDate != "" {
		endDate, ok := parseDateField(w, "end_date", req.EndDate)
		if !ok {
			return
		}
		rt.EndDate = endDate
	}

	created, err := s.svc.Recurring.Create(r.Context(), rt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringJSON(created))
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	status := core.RecurringStatus(r.URL.Query().Get("status"))
	list, err := s.svc.Recurring.FindAll(r.Context(), userID, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]recurringJSON, 0, len(list))
	for _, rt := range list {
		out = append(out, toRecurringJSON(rt))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpcomingRecurring(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	horizonDays := 7
	if v := r.URL.Query().Get("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 || d > 365 {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid days: expected 1-365"})
			return
		}
		horizonDays = d
	}

	list, err := s.svc.Recurring.GetUpcoming(r.Context(), userID, horizonDays)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]recurringJSON, 0, len(list))
	for _, rt := range list {
		out = append(out, toRecurringJSON(rt))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	rt, err := s.svc.Recurring.FindOne(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringJSON(rt))
}

type updateRecurringRequest struct {
	Name                 *string `json:"name,omitempty"`
	Type                 *string `json:"type,omitempty"`
	Amount               *string `json:"amount,omitempty"`
	Frequency            *string `json:"frequency,omitempty"`
	StartDate            *string `json:"start_date,omitempty"`
	EndDate              *string `json:"end_date,omitempty"`
	Description          *string `json:"description,omitempty"`
	Notes                *string `json:"notes,omitempty"`
	Payee                *string `json:"payee,omitempty"`
	MaxOccurrences       *int    `json:"max_occurrences,omitempty"`
	AutoCreate           *bool   `json:"auto_create,omitempty"`
	NotifyBeforeCreation *bool   `json:"notify_before_creation,omitempty"`
	NotifyDaysBefore     *int    `json:"notify_days_before,omitempty"`
	AccountID            *string `json:"account_id,omitempty"`
	CategoryID           *string `json:"category_id,omitempty"`
	ToAccountID          *string `json:"to_account_id,omitempty"`
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req updateRecurringRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := services.RecurringPatch{
		Name:                 sanitizePtr(req.Name),
		Description:          sanitizePtr(req.Description),
		Notes:                sanitizePtr(req.Notes),
		Payee:                sanitizePtr(req.Payee),
		MaxOccurrences:       req.MaxOccurrences,
		AutoCreate:           req.AutoCreate,
		NotifyBeforeCreation: req.NotifyBeforeCreation,
		NotifyDaysBefore:     req.NotifyDaysBefore,
		AccountID:            req.AccountID,
		CategoryID:           req.CategoryID,
		ToAccountID:          req.ToAccountID,
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		patch.Type = &t
	}
	if req.Amount != nil {
		amount, ok := parseMoneyField(w, "amount", *req.Amount)
		if !ok {
			return
		}
		patch.Amount = &amount
	}
	if req.Frequency != nil {
		f := core.RecurringFrequency(*req.Frequency)
		patch.Frequency = &f
	}
	if req.StartDate != nil {
		d, ok := parseDateField(w, "start_date", *req.StartDate)
		if !ok {
			return
		}
		patch.StartDate = &d
	}
	if req.EndDate != nil {
		if *req.EndDate == "" {
			patch.EndDate = &core.Date{}
		} else {
			d, ok := parseDateField(w, "end_date", *req.EndDate)
			if !ok {
				return
			}
			patch.EndDate = &d
		}
	}

	rt, err := s.svc.Recurring.Update(r.Context(), r.PathValue("id"), userID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringJSON(rt))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Recurring.Remove(r.Context(), r.PathValue("id"), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePauseRecurring(w http.ResponseWriter, r *http.Request) {
	s.recurringTransition(w, r, s.svc.Recurring.Pause)
}

func (s *Server) handleResumeRecurring(w http.ResponseWriter, r *http.Request) {
	s.recurringTransition(w, r, s.svc.Recurring.Resume)
}

func (s *Server) handleCancelRecurring(w http.ResponseWriter, r *http.Request) {
	s.recurringTransition(w, r, s.svc.Recurring.Cancel)
}

func (s *Server) recurringTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, userID string) (core.RecurringTransaction, error)) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	rt, err := fn(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringJSON(rt))
}
