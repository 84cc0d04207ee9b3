package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/plunderhq/plunder-server/internal/config"
	"github.com/plunderhq/plunder-server/internal/engine"
)

// Gateway exposes the attack engine over HTTP and streams observations
// over websockets.
type Gateway struct {
	engine *engine.Engine
	minter CardMinter
	funder RewardFunder
	hub    *Hub
	logger *zap.Logger
	srv    *http.Server
}

// NewGateway builds the gateway and subscribes its hub to the engine's
// observation bus. minter and funder may be nil; the admin endpoints
// then answer 501.
func NewGateway(cfg config.HTTPConfig, eng *engine.Engine, minter CardMinter, funder RewardFunder, logger *zap.Logger) *Gateway {
	g := &Gateway{
		engine: eng,
		minter: minter,
		funder: funder,
		hub:    newHub(logger),
		logger: logger,
	}
	eng.Observations().Subscribe(g.hub.Observe)

	g.srv = &http.Server{
		Addr:         cfg.Address,
		Handler:      g.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return g
}

func (g *Gateway) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", g.handleHealth)
	mux.HandleFunc("GET /attacks", g.handleListAttacks)
	mux.HandleFunc("POST /attacks", g.handleCreateAttack)
	mux.HandleFunc("GET /attacks/{id}", g.handleGetAttack)
	mux.HandleFunc("POST /attacks/{id}/flop", g.handleFlop)
	mux.HandleFunc("POST /attacks/{id}/submit", g.handleSubmit)
	mux.HandleFunc("POST /attacks/{id}/showdown", g.handleShowDown)
	mux.HandleFunc("POST /attacks/{id}/finalize", g.handleFinalize)
	mux.HandleFunc("POST /admin/cards", g.handleMintCard)
	mux.HandleFunc("POST /admin/credits", g.handleCredit)
	mux.HandleFunc("GET /ws", g.hub.serveWS)

	return g.withLogging(g.withRecovery(mux))
}

// Start runs the hub and blocks serving HTTP until the listener fails
// or Shutdown is called.
func (g *Gateway) Start(ctx context.Context) error {
	go g.hub.run(ctx)

	g.logger.Info("gateway listening", zap.String("address", g.srv.Addr))
	if err := g.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes websocket clients.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.hub.closeAll()
	return g.srv.Shutdown(ctx)
}
