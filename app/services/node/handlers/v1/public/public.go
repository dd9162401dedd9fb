// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/ardanlabs/powchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(evt); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds new user transactions to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx NewTx
	if err := web.Decode(r, &ntx); err != nil {
		return err
	}

	tx, err := toTransaction(ntx, v.Now)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "tx", tx, "tip", tx.Tip)
	if err := h.State.UpsertWalletTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}{
		Status: "transactions added to mempool",
		ID:     tx.ID.String(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrieveMempool()
	return web.Respond(ctx, w, txs, http.StatusOK)
}

// BlocksByNumber returns up to quantity blocks starting at from.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from := state.QueryLatest
	if web.Param(r, "from") != "latest" {
		n, err := web.ParamUint(r, "from")
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		from = n
	}

	quantity, err := web.ParamUint(r, "quantity")
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blocks, err := h.State.RetrieveBlocks(from, quantity)
	if err != nil {
		return errs.FromBlockchain(err)
	}

	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Producer returns the status of block production.
func (h Handlers) Producer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.RetrieveLatestBlock()

	p := producer{
		Status:      h.State.Status().String(),
		Sync:        h.State.SyncStatus().String(),
		LatestBlock: latest.Header.Number,
		LatestHash:  latest.Hash.String(),
		Uncommitted: h.State.RetrieveMempoolLength(),
	}

	return web.Respond(ctx, w, p, http.StatusOK)
}

// StopProducer stops block production and abandons a round in flight.
func (h Handlers) StopProducer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Stop()
	return h.Producer(ctx, w, r)
}

// StartProducer resumes block production.
func (h Handlers) StartProducer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if !h.State.Start() {
		return errs.NewTrusted(errors.New("block production isn't stopped"), http.StatusConflict)
	}
	return h.Producer(ctx, w, r)
}
