package presenter

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/t3rntools/bridge-cycler/logging"
	mw "github.com/t3rntools/bridge-cycler/presenter/http/middleware"
	"github.com/t3rntools/bridge-cycler/presenter/http/render"
	"github.com/t3rntools/bridge-cycler/repository"
)

const defaultLimit = 100

// Presenter exposes a read-only HTTP view of the recorded transfer history.
type Presenter struct {
	logger logging.Logger
	repo   *repository.Repo
	root   chi.Router
}

func NewPresenter(logger logging.Logger, repo *repository.Repo) *Presenter {
	return &Presenter{
		logger: logger,
		repo:   repo,
		root:   chi.NewMux(),
	}
}

func (p *Presenter) Handler() http.Handler {
	p.root.Use(middleware.Throttle(5))
	p.root.Use(middleware.RequestID)
	p.root.Use(mw.NewLoggerMiddleware(p.logger))
	p.root.Use(mw.Recoverer)
	p.root.Get("/health", p.GetHealth)
	p.root.Get("/transfers", p.GetTransfers)
	p.root.Get("/wallet/{address:0x[0-9a-fA-F]{40}}/transfers", p.GetWalletTransfers)
	p.root.Get("/order/{orderID:0x[0-9a-fA-F]{64}}/events", p.GetOrderEvents)
	return p.root
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	return http.ListenAndServe(addr, p.Handler())
}

func (p *Presenter) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (p *Presenter) GetTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := p.repo.Transfers.FindRecent(r.Context(), defaultLimit)
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to find recent transfers: %w", err))
		return
	}
	res := make([]*TransferResult, len(transfers))
	for i, t := range transfers {
		res[i] = newTransferResult(t)
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetWalletTransfers(w http.ResponseWriter, r *http.Request) {
	addr := common.HexToAddress(chi.URLParam(r, "address"))
	transfers, err := p.repo.Transfers.FindByWallet(r.Context(), addr, defaultLimit)
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to find wallet transfers: %w", err))
		return
	}
	res := make([]*TransferResult, len(transfers))
	for i, t := range transfers {
		res[i] = newTransferResult(t)
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetOrderEvents(w http.ResponseWriter, r *http.Request) {
	orderID := common.HexToHash(chi.URLParam(r, "orderID"))
	events, err := p.repo.OrderEvents.FindByOrderID(r.Context(), orderID)
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to find order events: %w", err))
		return
	}
	res := make([]*OrderEventResult, len(events))
	for i, e := range events {
		res[i] = newOrderEventResult(e)
	}
	render.JSON(w, r, http.StatusOK, res)
}
