package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/court-deployer/internal/data/repos/deployment"
	"github.com/yungbote/court-deployer/internal/deploy/store"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/http/response"
	"github.com/yungbote/court-deployer/internal/pkg/dbctx"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

// DeploymentHandler exposes stored deployment state read-only.
type DeploymentHandler struct {
	log    *logger.Logger
	stores store.Opener
	runs   deployment.RunRepo
}

func NewDeploymentHandler(log *logger.Logger, stores store.Opener, runs deployment.RunRepo) *DeploymentHandler {
	return &DeploymentHandler{log: log.With("handler", "DeploymentHandler"), stores: stores, runs: runs}
}

type deploymentsView struct {
	Network  string                    `json:"network"`
	Complete bool                      `json:"complete"`
	Missing  []deploy.ModuleKind       `json:"missing"`
	Modules  []deploy.DeploymentRecord `json:"modules"`
	Pending  []deploy.PendingCreation  `json:"pending"`
}

// GET /api/networks/:network/deployments
func (h *DeploymentHandler) ListDeployments(c *gin.Context) {
	network := strings.TrimSpace(c.Param("network"))
	s, err := h.stores(network)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_network", err)
		return
	}
	snap, err := s.Load(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to load deployment store", "network", network, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "load_failed", err)
		return
	}
	view := deploymentsView{
		Network:  network,
		Complete: snap.Complete(),
		Missing:  snap.Missing(),
		Modules:  []deploy.DeploymentRecord{},
		Pending:  []deploy.PendingCreation{},
	}
	for _, k := range deploy.AllKinds() {
		if rec, ok := snap.Records[k]; ok {
			view.Modules = append(view.Modules, rec)
		}
		if p, ok := snap.Pending[k]; ok {
			view.Pending = append(view.Pending, p)
		}
	}
	if view.Missing == nil {
		view.Missing = []deploy.ModuleKind{}
	}
	response.RespondOK(c, view)
}

// GET /api/networks/:network/runs?limit=N
func (h *DeploymentHandler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		response.RespondError(c, http.StatusNotFound, "runs_unavailable", fmt.Errorf("run ledger is not configured"))
		return
	}
	network := strings.TrimSpace(c.Param("network"))
	limit := 20
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = n
	}
	rows, err := h.runs.ListByNetwork(dbctx.Context{Ctx: c.Request.Context()}, network, limit)
	if err != nil {
		h.log.Error("Failed to list runs", "network", network, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	if rows == nil {
		rows = []*deploy.DeploymentRun{}
	}
	response.RespondOK(c, gin.H{"network": network, "runs": rows})
}
