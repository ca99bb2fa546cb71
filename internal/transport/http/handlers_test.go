package httptransport_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossgov/internal/crosschain"
	"crossgov/internal/crosschain/dispatch"
	daoservice "crossgov/internal/dao/service"
	daostore "crossgov/internal/dao/store"
	"crossgov/internal/eligibility"
	"crossgov/internal/events"
	"crossgov/internal/fees"
	"crossgov/internal/finalizer"
	"crossgov/internal/platform/middleware"
	proposalservice "crossgov/internal/proposal/service"
	proposalstore "crossgov/internal/proposal/store"
	httptransport "crossgov/internal/transport/http"
	"crossgov/internal/voting"
	"crossgov/internal/voting/dedup"
	"crossgov/pkg/domain"
)

const signingKey = "test-signing-key"

var (
	daoID      = strings.Repeat("01", 32)
	proposalID = strings.Repeat("02", 32)
	endedID    = strings.Repeat("03", 32)
	controller = "0x" + strings.Repeat("0a", 20)
	voterAddr  = "0x" + strings.Repeat("0b", 20)
	adminAddr  = "0x" + strings.Repeat("0c", 20)
	tokenRef   = "0x" + strings.Repeat("0d", 20)
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	daos := daostore.NewInMemoryStore()
	store := proposalstore.NewInMemoryStore()
	oracle := eligibility.NewInMemoryOracle()
	publisher := events.NewPublisher(events.NewInMemoryStore())

	daoSvc := daoservice.NewService(daos, fees.NewInMemoryLedger(), publisher, domain.Address(adminAddr), 0, logger)
	proposalSvc := proposalservice.NewService(store, daoSvc, publisher, logger)
	votingSvc := voting.NewService(store, daoSvc, oracle, dedup.NewInMemoryStore(), publisher, nil, logger)
	finalizerSvc := finalizer.NewService(store, daoSvc, publisher, nil, logger)
	dispatcher := dispatch.New(proposalSvc, votingSvc, finalizerSvc, nil, logger)
	sender := crosschain.NewSender(crosschain.NewLoopbackTransport(dispatcher, logger), "chain-a", publisher, nil, logger)

	handler := httptransport.NewHandler(httptransport.Config{
		DAOs:      daoSvc,
		Proposals: proposalSvc,
		Votes:     votingSvc,
		Finalizer: finalizerSvc,
		Sender:    sender,
		EventLog:  publisher,
		Whitelist: oracle,
		Logger:    logger,
	})
	server := httptest.NewServer(handler.Routes(middleware.RequireAdmin(signingKey, logger)))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := middleware.AdminClaims{
		Address: adminAddr,
		Role:    "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	require.NoError(t, err)
	return token
}

func TestGovernanceLifecycle(t *testing.T) {
	server := newServer(t)
	now := time.Now()
	token := adminToken(t)

	// Register the DAO with a 100-token voting threshold.
	resp, body := doJSON(t, http.MethodPost, server.URL+"/v1/daos", map[string]any{
		"id":             daoID,
		"caller":         controller,
		"name":           "treasury",
		"token_ref":      tokenRef,
		"minimum_tokens": 100,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, controller, body["controller"])

	// Make the voter eligible through the admin surface.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/v1/admin/whitelist", map[string]any{
		"address": voterAddr,
	}, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPut, server.URL+"/v1/admin/balances", map[string]any{
		"token":   tokenRef,
		"address": voterAddr,
		"amount":  100,
	}, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// An open proposal with a quorum far above what one voter can reach.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/v1/proposals", map[string]any{
		"id":          proposalID,
		"caller":      controller,
		"dao_id":      daoID,
		"description": "fund the validators",
		"start_time":  now.Add(-time.Hour).Unix(),
		"end_time":    now.Add(time.Hour).Unix(),
		"quorum":      1000,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Vote inside the window.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/v1/proposals/"+proposalID+"/votes", map[string]any{
		"voter":  voterAddr,
		"weight": 50,
	}, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/v1/proposals/"+proposalID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(50), body["total_weight"])
	assert.Equal(t, "active", body["state"])

	// Finalization has to wait for the window to close.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/v1/proposals/"+proposalID+"/finalize", map[string]any{
		"caller": controller,
	}, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "voting_still_active", body["error"])
}

func TestEndedProposalFinalizesOnce(t *testing.T) {
	server := newServer(t)
	now := time.Now()
	token := adminToken(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/v1/daos", map[string]any{
		"id":             daoID,
		"caller":         controller,
		"name":           "treasury",
		"token_ref":      tokenRef,
		"minimum_tokens": 100,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/v1/admin/whitelist", map[string]any{
		"address": voterAddr,
	}, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPut, server.URL+"/v1/admin/balances", map[string]any{
		"token":   tokenRef,
		"address": voterAddr,
		"amount":  100,
	}, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/v1/proposals", map[string]any{
		"id":         endedID,
		"caller":     controller,
		"dao_id":     daoID,
		"start_time": now.Add(-2 * time.Hour).Unix(),
		"end_time":   now.Add(-time.Hour).Unix(),
		"quorum":     1000,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The window is over; votes bounce.
	resp, body := doJSON(t, http.MethodPost, server.URL+"/v1/proposals/"+endedID+"/votes", map[string]any{
		"voter":  voterAddr,
		"weight": 50,
	}, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "voting_not_active", body["error"])

	// Quorum was never reached, so finalization records a failure.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/v1/proposals/"+endedID+"/finalize", map[string]any{
		"caller": controller,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "failed", body["outcome"])
	assert.Equal(t, true, body["finalized"])

	// Finalization is terminal, not idempotent.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/v1/proposals/"+endedID+"/finalize", map[string]any{
		"caller": controller,
	}, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_finalized", body["error"])

	// The event trail has the full story.
	resp, body = doJSON(t, http.MethodGet, server.URL+"/v1/proposals/"+endedID+"/events", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	trail, ok := body["events"].([]any)
	require.True(t, ok)
	assert.Len(t, trail, 2) // created, finalized
}

func TestAdminRoutesRejectMissingToken(t *testing.T) {
	server := newServer(t)

	resp, _ := doJSON(t, http.MethodPut, server.URL+"/v1/admin/fees", map[string]any{"fee": 10}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCrossChainSendLoopsBack(t *testing.T) {
	server := newServer(t)
	now := time.Now()
	token := adminToken(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/v1/daos", map[string]any{
		"id":             daoID,
		"caller":         controller,
		"name":           "treasury",
		"token_ref":      tokenRef,
		"minimum_tokens": 100,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/v1/admin/whitelist", map[string]any{
		"address": voterAddr,
	}, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPut, server.URL+"/v1/admin/balances", map[string]any{
		"token":   tokenRef,
		"address": voterAddr,
		"amount":  100,
	}, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// A remote create lands even without a local controller identity.
	resp, body := doJSON(t, http.MethodPost, server.URL+"/v1/crosschain/proposals", map[string]any{
		"destination_chain": "chain-b",
		"receiver":          controller,
		"dao_id":            daoID,
		"proposal_id":       proposalID,
		"start_time":        now.Add(-time.Hour).Unix(),
		"end_time":          now.Add(time.Hour).Unix(),
		"quorum":            1000,
	}, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, body["message_id"])

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/v1/crosschain/votes", map[string]any{
		"destination_chain": "chain-b",
		"receiver":          controller,
		"proposal_id":       proposalID,
		"voter":             voterAddr,
		"weight":            50,
	}, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/v1/proposals/"+proposalID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(50), body["total_weight"])
}

func TestValidationErrors(t *testing.T) {
	server := newServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       map[string]any
		wantStatus int
		wantError  string
	}{
		{
			name:   "bad dao id",
			method: http.MethodPost, path: "/v1/daos",
			body:       map[string]any{"id": "nope", "caller": controller, "name": "x", "token_ref": tokenRef},
			wantStatus: http.StatusBadRequest, wantError: "bad_request",
		},
		{
			name:   "zero address caller",
			method: http.MethodPost, path: "/v1/daos",
			body:       map[string]any{"id": daoID, "caller": string(domain.ZeroAddress), "name": "x", "token_ref": tokenRef},
			wantStatus: http.StatusBadRequest, wantError: "bad_request",
		},
		{
			name:   "unknown proposal",
			method: http.MethodGet, path: "/v1/proposals/" + proposalID,
			wantStatus: http.StatusNotFound, wantError: "proposal_not_found",
		},
		{
			name:   "inverted window",
			method: http.MethodPost, path: "/v1/proposals",
			body: map[string]any{
				"id": proposalID, "caller": controller, "dao_id": daoID,
				"start_time": 200, "end_time": 100, "quorum": 1,
			},
			wantStatus: http.StatusBadRequest, wantError: "invalid_window",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, tt.method, server.URL+tt.path, tt.body, "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestHealthz(t *testing.T) {
	server := newServer(t)

	resp, err := http.Get(fmt.Sprintf("%s/healthz", server.URL))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
