package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/smartspend/smartspend/internal/common"
	"github.com/smartspend/smartspend/internal/model"
	"github.com/smartspend/smartspend/internal/service"
)

type transactionResponse struct {
	ID                  string  `json:"id"`
	Date                string  `json:"date"`
	OriginalDescription string  `json:"original_description"`
	CleanDescription    string  `json:"clean_description"`
	Amount              string  `json:"amount"`
	Category            string  `json:"category"`
	Reviewed            bool    `json:"reviewed"`
	CreatedAt           string  `json:"created_at"`
}

type correctRequest struct {
	CorrectCategory string `json:"correct_category"`
}

func toTransactionResponse(txn *model.Transaction) transactionResponse {
	return transactionResponse{
		ID:                  txn.ID,
		Date:                txn.Date.Format("2006-01-02"),
		OriginalDescription: txn.OriginalDescription,
		CleanDescription:    txn.CleanDescription,
		Amount:              txn.Amount.String(),
		Category:            txn.Category,
		Reviewed:            txn.Reviewed,
		CreatedAt:           txn.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	filter := service.TransactionFilter{Limit: 50}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			writeError(w, http.StatusBadRequest, "skip must be zero or greater")
			return
		}
		filter.Offset = skip
	}

	txns, err := s.storage.ListTransactions(r.Context(), user.ID, filter)
	if err != nil {
		s.logger.Error("Failed to list transactions", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	out := make([]transactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionResponse(&txns[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	id := r.PathValue("id")

	txn, err := s.storage.GetTransaction(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		s.logger.Error("Failed to load transaction", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to load transaction")
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	id := r.PathValue("id")

	var req correctRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txn, err := s.corrector.Correct(r.Context(), user.ID, id, req.CorrectCategory)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			writeError(w, http.StatusNotFound, "Transaction not found")
		case errors.Is(err, common.ErrNoDescription):
			writeError(w, http.StatusBadRequest, "Transaction has no description to learn a rule from")
		default:
			var userErr *common.UserError
			if errors.As(err, &userErr) {
				writeError(w, http.StatusBadRequest, userErr.Error())
				return
			}
			s.logger.Error("Failed to correct transaction", "error", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "Failed to apply correction")
		}
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}
