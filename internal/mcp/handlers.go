package mcp

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/stabwatch/internal/model"
)

// --- Input/Output types ---

// UpdateInput defines parameters for the stabwatch_update tool.
type UpdateInput struct {
	Errors       []float64        `json:"errors,omitempty" jsonschema:"error magnitudes observed this tick"`
	Exceptions   []ExceptionInput `json:"exceptions,omitempty" jsonschema:"exception events observed this tick"`
	PanicEvents  []PanicInput     `json:"panic_events,omitempty" jsonschema:"panic events observed this tick"`
	ActionVector []float64        `json:"action_vector,omitempty" jsonschema:"magnitude of actions taken this tick"`
	DeltaSeconds float64          `json:"delta_seconds,omitempty" jsonschema:"elapsed seconds since previous tick, omit to use wall-clock time"`
}

// ExceptionInput describes one exception class. Zero fields take defaults.
type ExceptionInput struct {
	Severity float64 `json:"severity,omitempty" jsonschema:"exception severity, default 1.0"`
	Decay    float64 `json:"decay,omitempty" jsonschema:"decay constant, default 0.5"`
	Count    int     `json:"count,omitempty" jsonschema:"occurrence count, default 1"`
}

// PanicInput describes one panic. Zero severity defaults to 1.0.
type PanicInput struct {
	Severity float64 `json:"severity,omitempty" jsonschema:"panic severity, default 1.0"`
}

// SnapshotPayload is the flattened per-tick snapshot returned by tools.
type SnapshotPayload struct {
	Stability       float64 `json:"current_stability"`
	Derivative      float64 `json:"derivative"`
	ErrorSignal     float64 `json:"error_signal"`
	ExceptionSignal float64 `json:"exception_signal"`
	PanicSignal     float64 `json:"panic_signal"`
	HarmPotential   float64 `json:"harm_potential"`
	Compliance      float64 `json:"compliance_percentage"`
	Zone            string  `json:"zone"`
	Timestamp       string  `json:"timestamp"`
	KillSwitch      bool    `json:"kill_switch,omitempty"`
}

// UpdateOutput carries the snapshot produced by the tick.
type UpdateOutput struct {
	SessionID string          `json:"session_id"`
	Snapshot  SnapshotPayload `json:"snapshot"`
}

// StatusInput is empty; status reads the last snapshot.
type StatusInput struct{}

// StatusOutput carries the most recent snapshot.
type StatusOutput struct {
	SessionID string           `json:"session_id"`
	Observed  bool             `json:"observed"`
	Snapshot  *SnapshotPayload `json:"snapshot,omitempty"`
}

// StakeholderInput is empty.
type StakeholderInput struct{}

// StakeholderOutput carries governance statistics over the history buffer.
type StakeholderOutput struct {
	DeveloperRisk     float64 `json:"developer_risk"`
	ConsumerSafety    float64 `json:"consumer_safety"`
	StakeholderReward float64 `json:"stakeholder_reward"`
}

// TraceInput is empty.
type TraceInput struct{}

// TraceOutput carries the trace when available.
type TraceOutput struct {
	Available       bool    `json:"available"`
	Timestamp       string  `json:"timestamp,omitempty"`
	Stability       float64 `json:"stability,omitempty"`
	Derivative      float64 `json:"derivative,omitempty"`
	ErrorSignal     float64 `json:"error_signal,omitempty"`
	ExceptionSignal float64 `json:"exception_signal,omitempty"`
	PanicSignal     float64 `json:"panic_signal,omitempty"`
	Prediction      float64 `json:"prediction,omitempty"`
}

// ResetInput is empty.
type ResetInput struct{}

// ResetOutput confirms the reset.
type ResetOutput struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// --- Handlers ---

func (s *Server) handleUpdate(ctx context.Context, req *mcpsdk.CallToolRequest, input UpdateInput) (*mcpsdk.CallToolResult, UpdateOutput, error) {
	batch := model.Batch{
		Errors:       input.Errors,
		ActionVector: input.ActionVector,
	}
	if len(input.Exceptions) > 0 {
		batch.Exceptions = make([]model.ExceptionEvent, len(input.Exceptions))
		for i, e := range input.Exceptions {
			batch.Exceptions[i] = model.ExceptionEvent{Severity: e.Severity, Decay: e.Decay, Count: e.Count}
		}
	}
	if len(input.PanicEvents) > 0 {
		batch.PanicEvents = make([]model.PanicEvent, len(input.PanicEvents))
		for i, p := range input.PanicEvents {
			batch.PanicEvents[i] = model.PanicEvent{Severity: p.Severity}
		}
	}

	var m model.Metrics
	if input.DeltaSeconds > 0 {
		m = s.eng.UpdateDelta(batch, input.DeltaSeconds)
	} else {
		m = s.eng.Update(batch)
	}

	out := UpdateOutput{SessionID: s.eng.SessionID(), Snapshot: toPayload(m)}
	if m.KillSwitch {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	out := StatusOutput{SessionID: s.eng.SessionID()}
	if m, ok := s.eng.Last(); ok {
		payload := toPayload(m)
		out.Observed = true
		out.Snapshot = &payload
	}
	return nil, out, nil
}

func (s *Server) handleStakeholder(ctx context.Context, req *mcpsdk.CallToolRequest, input StakeholderInput) (*mcpsdk.CallToolResult, StakeholderOutput, error) {
	r := s.eng.StakeholderMetrics()
	return nil, StakeholderOutput{
		DeveloperRisk:     r.DeveloperRisk,
		ConsumerSafety:    r.ConsumerSafety,
		StakeholderReward: r.StakeholderReward,
	}, nil
}

func (s *Server) handleTrace(ctx context.Context, req *mcpsdk.CallToolRequest, input TraceInput) (*mcpsdk.CallToolResult, TraceOutput, error) {
	trace, ok := s.eng.Trace()
	if !ok {
		return nil, TraceOutput{Available: false}, nil
	}
	return nil, TraceOutput{
		Available:       true,
		Timestamp:       trace.Timestamp.UTC().Format(time.RFC3339Nano),
		Stability:       trace.Stability,
		Derivative:      trace.Derivative,
		ErrorSignal:     trace.Health.Error,
		ExceptionSignal: trace.Health.Exception,
		PanicSignal:     trace.Health.Panic,
		Prediction:      trace.Prediction,
	}, nil
}

func (s *Server) handleReset(ctx context.Context, req *mcpsdk.CallToolRequest, input ResetInput) (*mcpsdk.CallToolResult, ResetOutput, error) {
	s.eng.Reset()
	return nil, ResetOutput{
		Status:    "reset",
		SessionID: s.eng.SessionID(),
	}, nil
}

func toPayload(m model.Metrics) SnapshotPayload {
	return SnapshotPayload{
		Stability:       m.Stability,
		Derivative:      m.Derivative,
		ErrorSignal:     m.ErrorSignal,
		ExceptionSignal: m.ExceptionSignal,
		PanicSignal:     m.PanicSignal,
		HarmPotential:   m.HarmPotential,
		Compliance:      m.Compliance,
		Zone:            m.Zone.String(),
		Timestamp:       m.Timestamp.UTC().Format(time.RFC3339Nano),
		KillSwitch:      m.KillSwitch,
	}
}
