package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type categoryTotalResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}

type monthTotalResponse struct {
	Month string `json:"month"`
	Total string `json:"total"`
}

type dashboardResponse struct {
	TotalSpent    string                  `json:"total_spent"`
	TopCategories []categoryTotalResponse `json:"top_categories"`
	MonthlySpend  []monthTotalResponse    `json:"monthly_spend"`
}

type adviceRequest struct {
	Month      string  `json:"month"`
	BudgetGoal float64 `json:"budget_goal"`
}

type adviceResponse struct {
	Month  string `json:"month"`
	Advice string `json:"advice"`
	Source string `json:"source"`
}

// monthWindow converts a YYYY-MM value to its [start, end) UTC bounds.
func monthWindow(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	var start, end *time.Time
	if month := r.URL.Query().Get("month"); month != "" {
		from, to, err := monthWindow(month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month format. Use YYYY-MM.")
			return
		}
		start, end = &from, &to
	}

	summary, err := s.storage.GetDashboard(r.Context(), user.ID, start, end)
	if err != nil {
		s.logger.Error("Failed to build dashboard", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	resp := dashboardResponse{
		TotalSpent:    summary.TotalSpent.String(),
		TopCategories: make([]categoryTotalResponse, 0, len(summary.TopCategories)),
		MonthlySpend:  make([]monthTotalResponse, 0, len(summary.MonthlySpend)),
	}
	for _, c := range summary.TopCategories {
		resp.TopCategories = append(resp.TopCategories, categoryTotalResponse{
			Category: c.Category,
			Total:    c.Total.String(),
		})
	}
	for _, m := range summary.MonthlySpend {
		resp.MonthlySpend = append(resp.MonthlySpend, monthTotalResponse{
			Month: m.Month,
			Total: m.Total.String(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	var req adviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, end, err := monthWindow(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month format. Use YYYY-MM.")
		return
	}
	if req.BudgetGoal <= 0 {
		writeError(w, http.StatusBadRequest, "budget_goal must be greater than zero")
		return
	}

	summary, err := s.storage.GetDashboard(r.Context(), user.ID, &start, &end)
	if err != nil {
		s.logger.Error("Failed to load spending for advice", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to generate advice")
		return
	}

	spent, _ := summary.TotalSpent.Float64()
	text, source := s.advisor.Generate(r.Context(), req.Month, spent, req.BudgetGoal)

	writeJSON(w, http.StatusOK, adviceResponse{
		Month:  req.Month,
		Advice: text,
		Source: string(source),
	})
}
