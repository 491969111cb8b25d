package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"github.com/haven-social/warden/rulemod"
	"github.com/haven-social/warden/rulemod/analyzer"
	"github.com/haven-social/warden/rulemod/rulestore"
)

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(s.logger.With("system", "http")))
	e.Use(middleware.Recover())

	e.GET("/health", s.handleHealth)

	e.POST("/evaluate", s.handleEvaluate)
	e.POST("/simulate", s.handleSimulate)

	admin := e.Group("/admin")
	admin.GET("/rules", s.handleListRules)
	admin.POST("/rules", s.handleCreateRule)
	admin.GET("/rules/:id", s.handleGetRule)
	admin.PUT("/rules/:id", s.handleUpdateRule)
	admin.DELETE("/rules/:id", s.handleDeleteRule)
	admin.GET("/audit/:eventId", s.handleAuditByEvent)

	return e
}

type healthStatus struct {
	Service         string `json:"service"`
	Status          string `json:"status"`
	SnapshotVersion string `json:"snapshotVersion,omitempty"`
	RuleCount       int    `json:"ruleCount"`
	CatalogVersion  string `json:"catalogVersion"`
}

func (s *Server) handleHealth(c echo.Context) error {
	st := healthStatus{
		Service:        "warden",
		Status:         "ok",
		CatalogVersion: rulemod.CatalogVersion,
	}
	if snap := s.ruleCache.Current(); snap != nil {
		st.SnapshotVersion = snap.Version
		st.RuleCount = len(snap.Rules)
	} else {
		st.Status = "degraded: no rule snapshot"
	}
	return c.JSON(http.StatusOK, st)
}

// Validation failures come back as a 400 with the field-scoped error list,
// so the rule-management UI can point at the offending inputs.
func ruleError(c echo.Context, err error) error {
	var verrs rulemod.ValidationErrors
	if errors.As(err, &verrs) {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":  "invalid rule",
			"fields": verrs,
		})
	}
	if errors.Is(err, rulestore.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "rule not found"})
	}
	return err
}

func (s *Server) handleListRules(c echo.Context) error {
	rules, err := s.rules.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"rules": rules})
}

func (s *Server) handleCreateRule(c echo.Context) error {
	var rule rulemod.ModerationRule
	if err := c.Bind(&rule); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed rule body"})
	}
	if err := s.rules.Create(c.Request().Context(), &rule); err != nil {
		return ruleError(c, err)
	}
	return c.JSON(http.StatusCreated, rule)
}

func (s *Server) handleGetRule(c echo.Context) error {
	rule, err := s.rules.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return ruleError(c, err)
	}
	return c.JSON(http.StatusOK, rule)
}

func (s *Server) handleUpdateRule(c echo.Context) error {
	var rule rulemod.ModerationRule
	if err := c.Bind(&rule); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed rule body"})
	}
	rule.ID = c.Param("id")
	if err := s.rules.Update(c.Request().Context(), &rule); err != nil {
		return ruleError(c, err)
	}
	return c.JSON(http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(c echo.Context) error {
	if err := s.rules.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return ruleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAuditByEvent(c echo.Context) error {
	recs, err := s.audit.ListByEvent(c.Request().Context(), c.Param("eventId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"records": recs})
}

// Synchronous evaluation of one event: enrich the bundle with analyzer
// scores if needed, record the event for batch passes, evaluate, execute.
func (s *Server) handleEvaluate(c echo.Context) error {
	ctx := c.Request().Context()
	var evt rulemod.ModerationEvent
	if err := c.Bind(&evt); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed event body"})
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Type == "" {
		evt.Type = rulemod.EventContentPosted
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	s.enrichAnalysis(c, &evt)

	if err := s.events.Append(ctx, &evt); err != nil {
		// batch passes lose this event, but the immediate decision proceeds
		s.logger.Warn("recording event failed", "event", evt.ID, "err", err)
	}

	res, err := s.engine.ProcessEvent(ctx, &evt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

type simulateRequest struct {
	Event rulemod.ModerationEvent `json:"event"`
	// optional draft rules to simulate instead of the active snapshot
	Rules     []*rulemod.ModerationRule `json:"rules,omitempty"`
	Frequency rulemod.TriggerFrequency  `json:"frequency,omitempty"`
}

type simulateResponse struct {
	Trace     *rulemod.SimulationTrace `json:"trace"`
	ElapsedMs float64                  `json:"elapsedMs"`
}

// Dry run: same evaluation pipeline, no actions, no counters, no audit.
// Draft rules may be supplied in the request; they are validated but not
// saved.
func (s *Server) handleSimulate(c echo.Context) error {
	ctx := c.Request().Context()
	var req simulateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed simulation body"})
	}
	evt := req.Event
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Type == "" {
		evt.Type = rulemod.EventContentPosted
	}

	var snap *rulemod.Snapshot
	if len(req.Rules) > 0 {
		for _, rule := range req.Rules {
			if err := rulemod.ValidateRule(rule); err != nil {
				return ruleError(c, err)
			}
		}
		snap = rulemod.NewSnapshot(req.Rules, time.Now().UTC())
	}

	s.enrichAnalysis(c, &evt)

	trace, elapsed, err := s.engine.Simulate(ctx, snap, &evt, req.Frequency)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, simulateResponse{
		Trace:     trace,
		ElapsedMs: float64(elapsed.Microseconds()) / 1000.0,
	})
}

// Fills in missing analyzer scores for events that carry text, caching by
// content hash so repeated simulations of the same text hit the analyzer
// once. Analyzer failure leaves the scores absent; they resolve as unknown.
func (s *Server) enrichAnalysis(c echo.Context, evt *rulemod.ModerationEvent) {
	if s.analyzer == nil || evt.Bundle.Metadata == nil || evt.Bundle.Metadata.Text == "" {
		return
	}
	if evt.Bundle.Analysis != nil {
		return
	}
	ctx := c.Request().Context()

	digest := sha256.Sum256([]byte(evt.Bundle.Metadata.Text))
	key := hex.EncodeToString(digest[:])

	var scores *analyzer.Scores
	if cached, err := s.cache.Get(ctx, "analyzer", key); err == nil && cached != "" {
		var parsed analyzer.Scores
		if err := json.Unmarshal([]byte(cached), &parsed); err == nil {
			scores = &parsed
		}
	}
	if scores == nil {
		fresh, err := s.analyzer.AnalyzeText(ctx, evt.Bundle.Metadata.Text)
		if err != nil {
			s.logger.Warn("analyzer call failed, scores will resolve as unknown", "event", evt.ID, "err", err)
			return
		}
		scores = fresh
		if raw, err := json.Marshal(scores); err == nil {
			if err := s.cache.Set(ctx, "analyzer", key, string(raw)); err != nil {
				s.logger.Warn("caching analyzer response failed", "err", err)
			}
		}
	}

	analysis := make(map[string]float64)
	if scores.SpamScore != nil {
		analysis["spam_score"] = *scores.SpamScore
	}
	if scores.ToxicityScore != nil {
		analysis["toxicity_score"] = *scores.ToxicityScore
	}
	if scores.AdultScore != nil {
		analysis["adult_score"] = *scores.AdultScore
	}
	evt.Bundle.Analysis = analysis
	if evt.Bundle.Language == "" {
		evt.Bundle.Language = scores.Language
	}
}
