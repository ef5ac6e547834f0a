package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"stockscout/internal/domain/models"
	"stockscout/internal/service/finnhub"
	"stockscout/internal/usecase"
	xhttp "stockscout/pkg/http"
	xlogger "stockscout/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScreenerEchoHandler exposes the screener over Echo-based HTTP handlers.
type ScreenerEchoHandler struct {
	logger   *xlogger.Logger
	analyzer *usecase.Analyzer
	scanner  *usecase.Scanner
	universe *usecase.UniverseBuilder
	history  *usecase.History
	checks   map[string]func(context.Context) error
}

func NewScreenerEchoHandler(
	logger *xlogger.Logger,
	analyzer *usecase.Analyzer,
	scanner *usecase.Scanner,
	universe *usecase.UniverseBuilder,
	history *usecase.History,
) *ScreenerEchoHandler {
	return &ScreenerEchoHandler{
		logger:   logger,
		analyzer: analyzer,
		scanner:  scanner,
		universe: universe,
		history:  history,
		checks:   make(map[string]func(context.Context) error),
	}
}

// AddHealthCheck registers a named dependency probe for /api/health.
func (h *ScreenerEchoHandler) AddHealthCheck(name string, check func(context.Context) error) {
	h.checks[name] = check
}

func (h *ScreenerEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analyze", h.Analyze)
	g.POST("/scan", h.Scan)
	g.GET("/universe", h.Universe)
	g.POST("/universe/refresh", h.RefreshUniverse)
	g.GET("/history", h.ScoreHistory)
	g.GET("/health", h.Health)
}

func (h *ScreenerEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analyzer.Analyze(c.Request().Context(), req.Ticker, req.Fresh)
	if err != nil {
		return h.analysisError(c, req.Ticker, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScreenerEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.scanner.Scan(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrScanInProgress) {
			return xhttp.AppErrorResponse(c,
				xhttp.ConflictError("a scan is already running"))
		}
		if errors.Is(err, os.ErrNotExist) {
			return xhttp.AppErrorResponse(c,
				xhttp.NotFoundError("no universe snapshot; build one via POST /api/universe/refresh or pass tickers"))
		}
		h.logger.Error("scan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScreenerEchoHandler) Universe(c echo.Context) error {
	req := &models.UniverseRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.universe.Latest(c.Request().Context(), req.Category, req.Limit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no universe snapshot available"))
		}
		h.logger.Error("universe usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, newUniverseResponse(res))
}

func (h *ScreenerEchoHandler) RefreshUniverse(c echo.Context) error {
	res, err := h.universe.Refresh(c.Request().Context())
	if err != nil {
		h.logger.Error("universe refresh error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, newUniverseResponse(res))
}

// universeResponse adds summary stats next to the raw entries.
type universeResponse struct {
	Date           time.Time              `json:"date"`
	Count          int                    `json:"count"`
	Categories     map[string]int         `json:"categories"`
	Entries        []models.UniverseEntry `json:"entries"`
	InvalidTickers []string               `json:"invalid_tickers,omitempty"`
}

func newUniverseResponse(u *models.Universe) *universeResponse {
	cats := make(map[string]int)
	for _, e := range u.Entries {
		cats[e.GrowthCategory]++
	}
	return &universeResponse{
		Date:           u.Date,
		Count:          len(u.Entries),
		Categories:     cats,
		Entries:        u.Entries,
		InvalidTickers: u.InvalidTickers,
	}
}

func (h *ScreenerEchoHandler) ScoreHistory(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if h.history == nil {
		return xhttp.AppErrorResponse(c,
			xhttp.NotFoundError("score history requires the clickhouse backend"))
	}
	res, err := h.history.Query(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, res, int64(len(res)))
}

func (h *ScreenerEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	body := map[string]interface{}{
		"healthy": healthy,
		"checks":  status,
		"time":    time.Now().UTC(),
	}
	if !healthy {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, body)
	}
	return xhttp.SuccessResponse(c, body)
}

func (h *ScreenerEchoHandler) analysisError(c echo.Context, ticker string, err error) error {
	switch {
	case errors.Is(err, finnhub.ErrTickerNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("ticker %s not found", ticker))
	case errors.Is(err, usecase.ErrOutsideCapRange):
		return xhttp.AppErrorResponse(c,
			xhttp.UnprocessableError("market cap outside the screening range").WithParam("ticker", ticker))
	default:
		h.logger.Error("analyze usecase error",
			xlogger.String("ticker", ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}
