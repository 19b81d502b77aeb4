package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type goalJSON struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
	TargetDate    string `json:"target_date,omitempty"`
	Status        string `json:"status"`
	Color         string `json:"color,omitempty"`
	Icon          string `json:"icon,omitempty"`
	Description   string `json:"description,omitempty"`
	AccountID     string `json:"account_id,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toGoalJSON(g core.Goal) goalJSON {
	return goalJSON{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount.String(),
		CurrentAmount: g.CurrentAmount.String(),
		TargetDate:    dateOrEmpty(g.TargetDate),
		Status:        string(g.Status),
		Color:         g.Color,
		Icon:          g.Icon,
		Description:   g.Description,
		AccountID:     g.AccountID,
		CreatedAt:     g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     g.UpdatedAt.Format(time.RFC3339),
	}
}

type createGoalRequest struct {
	Name         string `json:"name"`
	TargetAmount string `json:"target_amount"`
	TargetDate   string `json:"target_date,omitempty"`
	Color        string `json:"color,omitempty"`
	Icon         string `json:"icon,omitempty"`
	Description  string `json:"description,omitempty"`
	AccountID    string `json:"account_id,omitempty"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req createGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, ok := parseMoneyField(w, "target_amount", req.TargetAmount)
	if !ok {
		return
	}

	g := core.Goal{
		UserID:       userID,
		Name:         sanitizeInput(req.Name),
		TargetAmount: target,
		Color:        sanitizeInput(req.Color),
		Icon:         sanitizeInput(req.Icon),
		Description:  sanitizeInput(req.Description),
		AccountID:    req.AccountID,
	}
	if req.TargetDate != "" {
		d, ok := parseDateField(w, "target_date", req.TargetDate)
		if !ok {
			return
		}
		g.TargetDate = d
	}

	created, err := s.svc.Goals.Create(r.Context(), g)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalJSON(created))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	status := core.GoalStatus(r.URL.Query().Get("status"))
	list, err := s.svc.Goals.FindAll(r.Context(), userID, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]goalJSON, 0, len(list))
	for _, g := range list {
		out = append(out, toGoalJSON(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	g, err := s.svc.Goals.FindOne(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalJSON(g))
}

type updateGoalRequest struct {
	Name         *string `json:"name,omitempty"`
	TargetAmount *string `json:"target_amount,omitempty"`
	TargetDate   *string `json:"target_date,omitempty"`
	Color        *string `json:"color,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	Description  *string `json:"description,omitempty"`
	AccountID    *string `json:"account_id,omitempty"`
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req updateGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := services.GoalPatch{
		Name:        sanitizePtr(req.Name),
		Color:       sanitizePtr(req.Color),
		Icon:        sanitizePtr(req.Icon),
		Description: sanitizePtr(req.Description),
		AccountID:   req.AccountID,
	}
	if req.TargetAmount != nil {
		target, ok := parseMoneyField(w, "target_amount", *req.TargetAmount)
		if !ok {
			return
		}
		patch.TargetAmount = &target
	}
	if req.TargetDate != nil {
		d, ok := parseDateField(w, "target_date", *req.TargetDate)
		if !ok {
			return
		}
		patch.TargetDate = &d
	}

	g, err := s.svc.Goals.Update(r.Context(), r.PathValue("id"), userID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalJSON(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Goals.Remove(r.Context(), r.PathValue("id"), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addToGoalRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleAddToGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req addToGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, ok := parseMoneyField(w, "amount", req.Amount)
	if !ok {
		return
	}

	g, err := s.svc.Goals.AddToGoal(r.Context(), r.PathValue("id"), userID, amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalJSON(g))
}

func (s *Server) handleCancelGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	g, err := s.svc.Goals.CancelGoal(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalJSON(g))
}

type goalProgressJSON struct {
	Goal       goalJSON `json:"goal"`
	Percentage float64  `json:"percentage"`
	Remaining  string   `json:"remaining"`
	DaysLeft   int      `json:"days_left"`
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	p, err := s.svc.Goals.Progress(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goalProgressJSON{
		Goal:       toGoalJSON(p.Goal),
		Percentage: p.Percentage,
		Remaining:  p.Remaining.String(),
		DaysLeft:   p.DaysLeft,
	})
}
