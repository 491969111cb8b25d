package rulemod

import (
	"context"
	"encoding/json"
	"time"
)

// What an event evaluation would have done, without doing it. The trace is
// deterministic for a fixed (snapshot, event) pair: no wall-clock values, no
// store writes, stable rule order from the snapshot. Two simulations of the
// same input marshal to identical bytes.
type SimulationTrace struct {
	CatalogVersion  string            `json:"catalogVersion"`
	SnapshotVersion string            `json:"snapshotVersion"`
	EventType       TriggerEvent      `json:"eventType"`
	Fields          map[string]string `json:"fields"`
	Rules           []RuleOutcome     `json:"rules"`
	WinningRuleID   string            `json:"winningRuleId,omitempty"`
	WouldExecute    []PlannedAction   `json:"wouldExecute,omitempty"`
	Reasons         []string          `json:"reasons,omitempty"`
}

func (t *SimulationTrace) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Runs the full evaluation pipeline for an event without executing actions,
// persisting counters, or appending audit records. Returns the elapsed time
// separately so the trace itself stays reproducible.
func (e *Engine) Simulate(ctx context.Context, snap *Snapshot, evt *ModerationEvent, freq TriggerFrequency) (*SimulationTrace, time.Duration, error) {
	start := e.now()
	if snap == nil {
		snap = e.Rules.Current()
	}
	if snap == nil {
		snap = NewSnapshot(nil, start.UTC())
	}
	if freq == "" {
		freq = FreqImmediate
	}
	simulationCount.Inc()

	ectx := e.resolver().Resolve(ctx, evt)
	decision := e.scheduler().Evaluate(ctx, snap, ectx, freq)

	fields := make(map[string]string, len(ectx.Values))
	for fqn, val := range ectx.Values {
		fields[fqn] = val.String()
	}

	trace := &SimulationTrace{
		CatalogVersion:  ectx.CatalogVersion,
		SnapshotVersion: snap.Version,
		EventType:       evt.Type,
		Fields:          fields,
		Rules:           decision.Outcomes,
		WinningRuleID:   decision.WinningRuleID,
		WouldExecute:    decision.Planned,
		Reasons:         decision.Reasons,
	}
	return trace, e.now().Sub(start), nil
}
