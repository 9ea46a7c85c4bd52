package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"stocksage/internal/engine"
	"stocksage/internal/market"
	"stocksage/internal/risk"
	"stocksage/internal/signal"
	"stocksage/internal/store"
	"stocksage/internal/voting"
)

type handlers struct {
	engine   *engine.Engine
	store    *store.Store
	registry *signal.Registry
	voter    *voting.Engine
	risk     *risk.Controller
}

func (h *handlers) register(g *gin.RouterGroup) {
	g.POST("/decisions/:symbol", h.decide)
	g.POST("/decisions/batch", h.decideBatch)
	g.GET("/decisions", h.listDecisions)

	g.GET("/models", h.listModels)
	g.POST("/models", h.registerModel)
	g.DELETE("/models/:id", h.removeModel)
	g.PUT("/models/:id/active", h.setModelActive)

	g.GET("/config/voting", h.getVotingConfig)
	g.PUT("/config/voting", h.setVotingConfig)
	g.PUT("/config/risk", h.setRiskConfig)

	g.POST("/pnl", h.updatePnL)
	g.POST("/pnl/reset", h.resetPnL)

	g.POST("/bars/:symbol", h.ingestBars)
}

// rawBody reads the request body for gjson-based lenient parsing. An empty
// body is fine; all body fields here are optional.
func rawBody(c *gin.Context) string {
	b, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	return string(b)
}

func parseAsOf(doc, key string) time.Time {
	v := gjson.Get(doc, key)
	if !v.Exists() {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, v.String()); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (h *handlers) decide(c *gin.Context) {
	body := rawBody(c)
	req := engine.Request{
		Symbol: c.Param("symbol"),
		AsOf:   parseAsOf(body, "as_of"),
	}
	if v := gjson.Get(body, "current_position"); v.Exists() {
		pos := v.Float()
		req.CurrentPosition = &pos
	}
	res, err := h.engine.RunForSymbol(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, market.ErrSymbolNotFound):
			status = http.StatusNotFound
		case errors.Is(err, engine.ErrNoActiveGenerators):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) decideBatch(c *gin.Context) {
	body := rawBody(c)
	symbolsVal := gjson.Get(body, "symbols")
	if !symbolsVal.IsArray() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbols must be a json array"})
		return
	}
	var symbols []string
	symbolsVal.ForEach(func(_, v gjson.Result) bool {
		if s := v.String(); s != "" {
			symbols = append(symbols, s)
		}
		return true
	})
	if len(symbols) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbols cannot be empty"})
		return
	}
	res := h.engine.RunBatch(c.Request.Context(), symbols, parseAsOf(body, "as_of"))
	c.JSON(http.StatusOK, res)
}

func (h *handlers) listDecisions(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "decision store not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	records, err := h.store.ListDecisions(c.Request.Context(), c.Query("symbol"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": records, "count": len(records)})
}

func (h *handlers) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":  h.registry.List(),
		"kinds":   h.registry.Kinds(),
		"weights": h.voter.Weights(),
	})
}

func (h *handlers) registerModel(c *gin.Context) {
	body := rawBody(c)
	id := gjson.Get(body, "id").String()
	kind := gjson.Get(body, "kind").String()
	if id == "" || kind == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and kind are required"})
		return
	}
	active := true
	if v := gjson.Get(body, "active"); v.Exists() {
		active = v.Bool()
	}
	var params []byte
	if v := gjson.Get(body, "params"); v.Exists() {
		params = []byte(v.Raw)
	}
	if _, err := h.registry.Register(id, kind, params, active); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, signal.ErrInvalidParams) || errors.Is(err, signal.ErrUnknownKind) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if v := gjson.Get(body, "weight"); v.Exists() {
		h.voter.SetWeight(id, v.Float())
	}
	c.JSON(http.StatusOK, gin.H{"registered": id})
}

func (h *handlers) removeModel(c *gin.Context) {
	id := c.Param("id")
	if !h.registry.Remove(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
		return
	}
	h.voter.DeleteWeight(id)
	c.JSON(http.StatusOK, gin.H{"removed": id})
}

func (h *handlers) setModelActive(c *gin.Context) {
	active := gjson.Get(rawBody(c), "active").Bool()
	if !h.registry.SetActive(c.Param("id"), active) {
		c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "active": active})
}

func (h *handlers) getVotingConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.voter.Config())
}

func (h *handlers) setVotingConfig(c *gin.Context) {
	body := rawBody(c)
	cfg := h.voter.Config()
	if v := gjson.Get(body, "strategy"); v.Exists() {
		strategy, err := voting.ParseStrategy(v.String())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cfg.Strategy = strategy
	}
	if v := gjson.Get(body, "threshold"); v.Exists() {
		cfg.Threshold = v.Float()
	}
	if v := gjson.Get(body, "min_confidence"); v.Exists() {
		cfg.MinConfidence = v.Float()
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 || cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold and min_confidence must be within [0,1]"})
		return
	}
	h.voter.SetConfig(cfg)
	c.JSON(http.StatusOK, cfg)
}

func (h *handlers) setRiskConfig(c *gin.Context) {
	body := rawBody(c)
	h.risk.SetLimits(risk.Limits{
		MaxDailyLoss:    gjson.Get(body, "max_daily_loss").Float(),
		MaxPositionSize: gjson.Get(body, "max_position_size").Float(),
	})
	c.JSON(http.StatusOK, h.risk.Limits())
}

func (h *handlers) updatePnL(c *gin.Context) {
	v := gjson.Get(rawBody(c), "delta")
	if !v.Exists() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta is required"})
		return
	}
	h.risk.UpdateDailyPnL(v.Float())
	c.JSON(http.StatusOK, gin.H{"daily_pnl": h.risk.DailyPnL()})
}

func (h *handlers) resetPnL(c *gin.Context) {
	h.risk.ResetDailyPnL()
	c.JSON(http.StatusOK, gin.H{"daily_pnl": 0.0})
}

type barPayload struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func (h *handlers) ingestBars(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bar store not configured"})
		return
	}
	var payload []barPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bars := make([]market.Bar, 0, len(payload))
	for i, p := range payload {
		t, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bars[" + strconv.Itoa(i) + "]: date must be YYYY-MM-DD"})
			return
		}
		bars = append(bars, market.Bar{Date: t, Open: p.Open, High: p.High, Low: p.Low, Close: p.Close, Volume: p.Volume})
	}
	if err := h.store.UpsertBars(c.Request.Context(), c.Param("symbol"), bars); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": c.Param("symbol"), "ingested": len(bars)})
}
