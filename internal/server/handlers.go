package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/plunderhq/plunder-server/internal/engine"
	"github.com/plunderhq/plunder-server/internal/engine/deck"
)

type createAttackRequest struct {
	Attacker string `json:"attacker"`
	Defender string `json:"defender"`
}

type createAttackResponse struct {
	AttackID uint64 `json:"attack_id"`
}

type submitRequest struct {
	Account     string   `json:"account"`
	TokenIDs    []uint64 `json:"token_ids"`
	JokerValues []uint8  `json:"joker_values,omitempty"`
}

type attackView struct {
	ID            uint64            `json:"id"`
	Status        string            `json:"status"`
	Result        string            `json:"result"`
	Attacker      string            `json:"attacker"`
	Defender      string            `json:"defender"`
	StartedAt     time.Time         `json:"started_at"`
	ConfigVersion int               `json:"config_version"`
	Community     [][]uint8         `json:"community"`
	Submissions   []*submissionView `json:"submissions"`
}

type submissionView struct {
	Account     string   `json:"account"`
	TokenIDs    []uint64 `json:"token_ids"`
	Values      []uint8  `json:"values"`
	BootyPoints uint64   `json:"booty_points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleCreateAttack(w http.ResponseWriter, r *http.Request) {
	var req createAttackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	id, err := g.engine.CreateAttack(req.Attacker, req.Defender)
	if err != nil {
		g.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createAttackResponse{AttackID: id})
}

func (g *Gateway) handleGetAttack(w http.ResponseWriter, r *http.Request) {
	id, ok := attackID(w, r)
	if !ok {
		return
	}
	snap, err := g.engine.Snapshot(id)
	if err != nil {
		g.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(snap))
}

func (g *Gateway) handleListAttacks(w http.ResponseWriter, r *http.Request) {
	snaps := g.engine.Attacks()
	views := make([]attackView, 0, len(snaps))
	for _, snap := range snaps {
		views = append(views, viewOf(snap))
	}
	writeJSON(w, http.StatusOK, views)
}

func (g *Gateway) handleFlop(w http.ResponseWriter, r *http.Request) {
	id, ok := attackID(w, r)
	if !ok {
		return
	}
	if err := g.engine.Flop(id); err != nil {
		g.writeEngineError(w, err)
		return
	}
	g.respondSnapshot(w, id)
}

func (g *Gateway) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := attackID(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	jokers := make([]deck.Value, len(req.JokerValues))
	for i, v := range req.JokerValues {
		jokers[i] = deck.Value(v)
	}

	if err := g.engine.Submit(id, req.Account, req.TokenIDs, jokers); err != nil {
		g.writeEngineError(w, err)
		return
	}
	g.respondSnapshot(w, id)
}

func (g *Gateway) handleShowDown(w http.ResponseWriter, r *http.Request) {
	id, ok := attackID(w, r)
	if !ok {
		return
	}
	if err := g.engine.ShowDown(id); err != nil {
		g.writeEngineError(w, err)
		return
	}
	g.respondSnapshot(w, id)
}

func (g *Gateway) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := attackID(w, r)
	if !ok {
		return
	}
	if err := g.engine.Finalize(id); err != nil {
		g.writeEngineError(w, err)
		return
	}
	g.respondSnapshot(w, id)
}

func (g *Gateway) respondSnapshot(w http.ResponseWriter, id uint64) {
	snap, err := g.engine.Snapshot(id)
	if err != nil {
		g.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(snap))
}

// writeEngineError maps engine sentinels onto HTTP statuses.
func (g *Gateway) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrAttackNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrInvalidAttackStatus),
		errors.Is(err, engine.ErrWaitingForAttack),
		errors.Is(err, engine.ErrWaitingForDefense),
		errors.Is(err, engine.ErrAttackTimeover),
		errors.Is(err, engine.ErrDefenseTimeover),
		errors.Is(err, engine.ErrDefenderUnderAttack),
		errors.Is(err, engine.ErrTooManyAttacks):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrInvalidAddress),
		errors.Is(err, engine.ErrInvalidNumberOfCards),
		errors.Is(err, engine.ErrInvalidNumberOfJokers),
		errors.Is(err, engine.ErrInvalidJokerCard),
		errors.Is(err, engine.ErrDuplicateCard),
		errors.Is(err, engine.ErrDuplicateCardValue),
		errors.Is(err, engine.ErrCardUnavailable):
		status = http.StatusBadRequest
	default:
		g.logger.Error("unhandled engine error", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func attackID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid attack id"})
		return 0, false
	}
	return id, true
}

func viewOf(snap engine.AttackSnapshot) attackView {
	view := attackView{
		ID:            snap.ID,
		Status:        snap.Status.String(),
		Result:        snap.Result.String(),
		Attacker:      snap.Attacker,
		Defender:      snap.Defender,
		StartedAt:     snap.StartedAt,
		ConfigVersion: snap.ConfigVersion,
		Community:     make([][]uint8, len(snap.Community)),
		Submissions:   make([]*submissionView, len(snap.Submissions)),
	}
	for i, round := range snap.Community {
		burst := make([]uint8, len(round))
		for j, v := range round {
			burst[j] = uint8(v)
		}
		view.Community[i] = burst
	}
	for i, sub := range snap.Submissions {
		if sub == nil {
			continue
		}
		values := make([]uint8, len(sub.Values))
		for j, v := range sub.Values {
			values[j] = uint8(v)
		}
		view.Submissions[i] = &submissionView{
			Account:     sub.Account,
			TokenIDs:    sub.TokenIDs,
			Values:      values,
			BootyPoints: sub.BootyPoints,
		}
	}
	return view
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
