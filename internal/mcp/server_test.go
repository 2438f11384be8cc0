package mcp

import (
	"context"
	"path/filepath"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")})
	if err != nil {
		t.Fatalf("failed to create MCP server: %v", err)
	}
	return s
}

func TestUpdateReturnsSnapshot(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, out, err := s.handleUpdate(ctx, &mcpsdk.CallToolRequest{}, UpdateInput{
		Errors:       []float64{1.0, 2.0},
		DeltaSeconds: 1.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected success, got error result")
	}
	if out.SessionID == "" {
		t.Fatal("expected session id in output")
	}
	if out.Snapshot.Stability <= 0 {
		t.Fatalf("errors must push stability positive, got %v", out.Snapshot.Stability)
	}
	if out.Snapshot.Zone == "" {
		t.Fatal("snapshot must carry a zone name")
	}
}

func TestUpdateKillSwitchIsErrorResult(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	// A severe panic with a long dt drives stability into the panic zone
	// within one tick.
	result, out, err := s.handleUpdate(ctx, &mcpsdk.CallToolRequest{}, UpdateInput{
		PanicEvents:  []PanicInput{{Severity: 5.0}},
		DeltaSeconds: 10.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result for kill-switch tick")
	}
	if !out.Snapshot.KillSwitch {
		t.Fatal("expected kill_switch=true in snapshot")
	}

	// Engine state was reset; the next quiet tick starts from zero.
	_, next, err := s.handleUpdate(ctx, &mcpsdk.CallToolRequest{}, UpdateInput{DeltaSeconds: 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Snapshot.Stability != 0 {
		t.Fatalf("expected stability 0 after kill-switch reset, got %v", next.Snapshot.Stability)
	}
}

func TestStatusBeforeAndAfterUpdate(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleStatus(ctx, &mcpsdk.CallToolRequest{}, StatusInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Observed || out.Snapshot != nil {
		t.Fatal("expected no snapshot before any update")
	}

	s.handleUpdate(ctx, &mcpsdk.CallToolRequest{}, UpdateInput{DeltaSeconds: 1.0})

	_, out, err = s.handleStatus(ctx, &mcpsdk.CallToolRequest{}, StatusInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Observed || out.Snapshot == nil {
		t.Fatal("expected snapshot after an update")
	}
	if out.Snapshot.Zone != "stable" {
		t.Fatalf("expected stable zone, got %s", out.Snapshot.Zone)
	}
}

func TestStakeholderEmptyHistory(t *testing.T) {
	s := newTestServer(t)

	_, report, err := s.handleStakeholder(context.Background(), &mcpsdk.CallToolRequest{}, StakeholderInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.DeveloperRisk != 0 || report.ConsumerSafety != 1.0 || report.StakeholderReward != 1.0 {
		t.Fatalf("unexpected empty-history report: %+v", report)
	}
}

func TestTraceAvailability(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleTrace(ctx, &mcpsdk.CallToolRequest{}, TraceInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Available {
		t.Fatal("trace must be unavailable before any update")
	}

	// Quiet tick: system stays stable and the trace becomes available.
	s.handleUpdate(ctx, &mcpsdk.CallToolRequest{}, UpdateInput{DeltaSeconds: 1.0})
	_, out, err = s.handleTrace(ctx, &mcpsdk.CallToolRequest{}, TraceInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Available {
		t.Fatal("expected trace in stable zone")
	}
	if out.Timestamp == "" {
		t.Error("available trace must carry a timestamp")
	}

	// Error burst leaves the stable zone: trace suppressed again.
	s.handleUpdate(ctx, &mcpsdk.CallToolRequest{}, UpdateInput{
		Errors:       []float64{5.0, 5.0, 5.0},
		DeltaSeconds: 1.0,
	})
	_, out, err = s.handleTrace(ctx, &mcpsdk.CallToolRequest{}, TraceInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Available {
		t.Fatal("trace must be suppressed outside the stable zone")
	}
}

func TestResetClearsState(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	s.handleUpdate(ctx, &mcpsdk.CallToolRequest{}, UpdateInput{
		Errors:       []float64{3.0},
		DeltaSeconds: 1.0,
	})

	_, out, err := s.handleReset(ctx, &mcpsdk.CallToolRequest{}, ResetInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != "reset" {
		t.Fatalf("expected status reset, got %q", out.Status)
	}

	_, status, _ := s.handleStatus(ctx, &mcpsdk.CallToolRequest{}, StatusInput{})
	if status.Observed {
		t.Fatal("history must be empty after reset")
	}
}

func TestExceptionDefaultsApplied(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleUpdate(context.Background(), &mcpsdk.CallToolRequest{}, UpdateInput{
		Exceptions:   []ExceptionInput{{}},
		DeltaSeconds: 0.1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Snapshot.ExceptionSignal <= 0 {
		t.Errorf("zero-valued exception must take defaults and contribute, got %v", out.Snapshot.ExceptionSignal)
	}
}

func TestToolRegistration(t *testing.T) {
	s := newTestServer(t)
	if s.mcpServer == nil {
		t.Fatal("expected MCP server to be initialized")
	}
}
