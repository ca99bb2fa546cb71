// Package httptransport is the HTTP surface of the governance engine. Local
// governance actions carry their caller address in the request body; admin
// operations authenticate with a bearer token and take the caller from it.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crossgov/internal/crosschain"
	"crossgov/internal/dao"
	daoservice "crossgov/internal/dao/service"
	"crossgov/internal/events"
	"crossgov/internal/finalizer"
	"crossgov/internal/platform/middleware"
	"crossgov/internal/proposal"
	proposalservice "crossgov/internal/proposal/service"
	"crossgov/internal/transport/http/shared"
	"crossgov/internal/voting"
)

type (
	daoRecord      = dao.DAO
	proposalRecord = *proposal.Proposal
)

// HealthChecker reports readiness of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler bundles the services behind the HTTP routes.
type Handler struct {
	daos      *daoservice.Service
	proposals *proposalservice.Service
	votes     *voting.Service
	finalizer *finalizer.Service
	sender    *crosschain.Sender
	eventLog  *events.Publisher
	whitelist WhitelistAdmin

	health map[string]HealthChecker
	logger *slog.Logger
}

// Config collects the handler's collaborators.
type Config struct {
	DAOs      *daoservice.Service
	Proposals *proposalservice.Service
	Votes     *voting.Service
	Finalizer *finalizer.Service
	Sender    *crosschain.Sender
	EventLog  *events.Publisher
	Whitelist WhitelistAdmin
	Health    map[string]HealthChecker
	Logger    *slog.Logger
}

func NewHandler(cfg Config) *Handler {
	return &Handler{
		daos:      cfg.DAOs,
		proposals: cfg.Proposals,
		votes:     cfg.Votes,
		finalizer: cfg.Finalizer,
		sender:    cfg.Sender,
		eventLog:  cfg.EventLog,
		whitelist: cfg.Whitelist,
		health:    cfg.Health,
		logger:    cfg.Logger,
	}
}

// Routes assembles the router with the standard middleware chain.
func (h *Handler) Routes(adminAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.RequestTime)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/daos", func(r chi.Router) {
			r.Post("/", h.handleRegisterDAO)
			r.Get("/{daoID}", h.handleGetDAO)
			r.Put("/{daoID}/minimum-tokens", h.handleSetMinimumTokens)
			r.Get("/{daoID}/proposals", h.handleListProposalsByDAO)
		})

		r.Route("/proposals", func(r chi.Router) {
			r.Post("/", h.handleCreateProposal)
			r.Get("/{proposalID}", h.handleGetProposal)
			r.Post("/{proposalID}/votes", h.handleCastVote)
			r.Post("/{proposalID}/finalize", h.handleFinalizeProposal)
			r.Get("/{proposalID}/events", h.handleListProposalEvents)
		})

		r.Route("/crosschain", func(r chi.Router) {
			r.Post("/proposals", h.handleSendProposal)
			r.Post("/votes", h.handleSendVote)
			r.Post("/finalize", h.handleSendFinalize)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth)
			r.Get("/fees", h.handleGetFees)
			r.Put("/fees", h.handleSetCreationFee)
			r.Post("/fees/withdraw", h.handleWithdrawFees)
			r.Post("/whitelist", h.handleWhitelistAllow)
			r.Delete("/whitelist/{address}", h.handleWhitelistRevoke)
			r.Put("/balances", h.handleSetBalance)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, checker := range h.health {
		if err := checker.Health(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	shared.WriteJSON(w, status, map[string]any{"checks": checks})
}
