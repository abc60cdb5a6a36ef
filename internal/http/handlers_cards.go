package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
	authmw "hearth/internal/middleware/auth"
)

func (s *Server) handleCardList(w http.ResponseWriter, r *http.Request) {
	cards, err := s.repo.ListCards(r.Context(), authmw.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if cards == nil {
		cards = []core.CreditCard{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCardCreate(w http.ResponseWriter, r *http.Request) {
	var card core.CreditCard
	if err := decode(r, &card); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	if strings.TrimSpace(card.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}
	card.HouseholdID = authmw.HouseholdID(r.Context())

	created, err := s.repo.CreateCard(r.Context(), card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCardUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid card id")
		return
	}

	var card core.CreditCard
	if err := decode(r, &card); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	card.ID = id
	card.HouseholdID = authmw.HouseholdID(r.Context())
	if strings.TrimSpace(card.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}

	if err := s.repo.UpdateCard(r.Context(), card); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleCardDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid card id")
		return
	}

	if err := s.repo.DeleteCard(r.Context(), authmw.HouseholdID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleCardTransactionList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid card id")
		return
	}

	// A missing card reads as 404, not an empty list.
	if _, err := s.repo.GetCard(r.Context(), authmw.HouseholdID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}

	txs, err := s.repo.ListCardTransactions(r.Context(), authmw.HouseholdID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if txs == nil {
		txs = []core.CcTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCardTransactionCreate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid card id")
		return
	}

	var tx core.CcTransaction
	if err := decode(r, &tx); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	tx.CardID = id
	if strings.TrimSpace(tx.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}

	created, err := s.repo.AddCardTransaction(r.Context(), authmw.HouseholdID(r.Context()), tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCardTransactionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid transaction id")
		return
	}

	if err := s.repo.DeleteCardTransaction(r.Context(), authmw.HouseholdID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type cardPayRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	ClearBalance bool            `json:"clear_balance"`
}

func (s *Server) handleCardPay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid card id")
		return
	}

	var req cardPayRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}

	balance, err := s.repo.PayCard(r.Context(), authmw.HouseholdID(r.Context()), id, req.Amount, req.ClearBalance)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}
