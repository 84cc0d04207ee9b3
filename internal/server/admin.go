package server

import (
	"encoding/json"
	"net/http"

	"github.com/plunderhq/plunder-server/internal/engine/deck"
)

// CardMinter issues new cards into circulation.
type CardMinter interface {
	Mint(owner string, power uint64, value deck.Value, joker bool, durability int) (uint64, error)
}

// RewardFunder credits booty to an account.
type RewardFunder interface {
	Credit(account string, amount uint64)
}

type mintCardRequest struct {
	Owner      string `json:"owner"`
	Power      uint64 `json:"power"`
	Value      uint8  `json:"value"`
	Joker      bool   `json:"joker"`
	Durability int    `json:"durability"`
}

type mintCardResponse struct {
	TokenID uint64 `json:"token_id"`
}

type creditRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

func (g *Gateway) handleMintCard(w http.ResponseWriter, r *http.Request) {
	if g.minter == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "minting not configured"})
		return
	}
	var req mintCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	id, err := g.minter.Mint(req.Owner, req.Power, deck.Value(req.Value), req.Joker, req.Durability)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, mintCardResponse{TokenID: id})
}

func (g *Gateway) handleCredit(w http.ResponseWriter, r *http.Request) {
	if g.funder == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "funding not configured"})
		return
	}
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Account == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "account is required"})
		return
	}
	g.funder.Credit(req.Account, req.Amount)
	w.WriteHeader(http.StatusNoContent)
}
