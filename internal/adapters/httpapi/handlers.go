package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"studiostock/internal/core"
	"studiostock/pkg/domain"
)

// Inventory is the engine surface the API drives. *core.Service satisfies it.
type Inventory interface {
	Snapshot(ctx context.Context) (domain.Collection, error)
	Refresh(ctx context.Context) (domain.Collection, error)
	Reconcile(ctx context.Context, req core.ReconcileRequest) (core.ReconcileResult, error)
	AddItem(ctx context.Context, edit domain.ItemEdit) (domain.Item, error)
	NewConsumption(ctx context.Context) (*core.ConsumptionBatch, error)
}

var _ Inventory = (*core.Service)(nil)

// Handler translates HTTP requests into engine calls.
type Handler struct {
	inv      Inventory
	sessions *Sessions
	policy   core.ReorderPolicy
}

// NewHandler constructs a handler. A nil sessions registry gets a default one.
func NewHandler(inv Inventory, sessions *Sessions, policy core.ReorderPolicy) *Handler {
	if sessions == nil {
		sessions = NewSessions(0, nil)
	}
	return &Handler{inv: inv, sessions: sessions, policy: policy}
}

type itemsResponse struct {
	Items domain.Collection `json:"items"`
	Total int               `json:"total"`
}

func (h *Handler) listItems(c *gin.Context) {
	snap, err := h.inv.Snapshot(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	items := core.Filter{Query: c.Query("q"), Category: c.Query("category")}.Apply(snap)
	c.JSON(http.StatusOK, itemsResponse{Items: items, Total: len(snap)})
}

func (h *Handler) createItem(c *gin.Context) {
	var edit domain.ItemEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	it, err := h.inv.AddItem(c.Request.Context(), edit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": it})
}

func (h *Handler) reconcile(c *gin.Context) {
	var req core.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	res, err := h.inv.Reconcile(c.Request.Context(), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) refresh(c *gin.Context) {
	snap, err := h.inv.Refresh(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemsResponse{Items: snap, Total: len(snap)})
}

func (h *Handler) taxonomy(c *gin.Context) {
	snap, err := h.inv.Snapshot(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": core.Categories(snap),
		"suppliers":  core.Suppliers(snap),
	})
}

func (h *Handler) summary(c *gin.Context) {
	snap, err := h.inv.Snapshot(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, core.Summarize(snap))
}

type shoppingListResponse struct {
	Multiplier decimal.Decimal      `json:"multiplier"`
	Lines      []core.Shortfall     `json:"lines"`
	Orders     []core.SupplierOrder `json:"orders"`
}

func (h *Handler) shoppingList(c *gin.Context) {
	policy := h.policy
	if raw := c.Query("multiplier"); raw != "" {
		k, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_multiplier", err.Error())
			return
		}
		policy.TargetMultiplier = k
	}
	snap, err := h.inv.Snapshot(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	lines := core.ShortfallListWithPolicy(snap, policy)
	k := policy.TargetMultiplier
	if k.LessThan(decimal.NewFromInt(1)) {
		k = decimal.NewFromInt(1)
	}
	c.JSON(http.StatusOK, shoppingListResponse{Multiplier: k, Lines: lines, Orders: core.GroupBySupplier(lines)})
}

type usageResponse struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Lines     []core.ConsumptionLine `json:"lines"`
}

func toUsage(b *core.ConsumptionBatch) usageResponse {
	lines := b.Lines()
	if lines == nil {
		lines = []core.ConsumptionLine{}
	}
	return usageResponse{ID: b.ID(), CreatedAt: b.CreatedAt(), Lines: lines}
}

type stageRequest struct {
	ItemID   int64           `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

func (h *Handler) openUsage(c *gin.Context) {
	b, err := h.inv.NewConsumption(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	h.sessions.Add(b)
	c.JSON(http.StatusCreated, toUsage(b))
}

func (h *Handler) batch(c *gin.Context) (*core.ConsumptionBatch, bool) {
	b, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "usage_session_not_found", "")
		return nil, false
	}
	return b, true
}

func (h *Handler) getUsage(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toUsage(b))
}

func (h *Handler) stageUsage(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := b.Stage(req.ItemID, req.Quantity); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUsage(b))
}

func (h *Handler) commitUsage(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	n, err := b.Commit(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	h.sessions.Remove(b.ID())
	c.JSON(http.StatusOK, gin.H{"id": b.ID(), "committed": n})
}

func (h *Handler) discardUsage(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	b.Discard()
	h.sessions.Remove(b.ID())
	c.Status(http.StatusNoContent)
}
