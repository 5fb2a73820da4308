package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"
)

func TestExpvarMetricsRecorderExports(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("")
	if recorder.Name() == "" {
		t.Fatalf("expected recorder to have export name")
	}
	recorder.Observe(context.Background(), "consume", true, 10*time.Millisecond)
	recorder.Observe(context.Background(), "consume", false, 5*time.Millisecond)
	recorder.Observe(context.Background(), "", true, time.Millisecond)
	recorder.ObserveInventory(context.Background(), Summarize(studioFixture()))

	snap := recorder.Snapshot()
	if snap.Results["consume"]["success"] != 1 || snap.Results["consume"]["error"] != 1 {
		t.Fatalf("unexpected results %+v", snap.Results)
	}
	if snap.DurationsMS["consume"] != 15 {
		t.Fatalf("expected 15ms total, got %v", snap.DurationsMS["consume"])
	}
	if len(snap.Results) != 1 {
		t.Fatalf("unnamed operations must be ignored")
	}
	if snap.Inventory == nil || snap.Inventory.AlertCount != 1 {
		t.Fatalf("inventory summary missing: %+v", snap.Inventory)
	}
	v := expvar.Get(recorder.Name())
	if v == nil {
		t.Fatalf("expected expvar export to be registered")
	}
	if !strings.Contains(v.String(), "consume") || !strings.Contains(v.String(), "2930") {
		t.Fatalf("expected expvar output to contain metrics: %s", v.String())
	}
}

func TestJSONTraceTracerExports(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "reconcile")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "consume")
	span.End(errors.New("insufficient"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected two span entries, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" || entries[1].Error != "insufficient" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one JSON line per span, got %q", buf.String())
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil || decoded.Operation != "reconcile" {
		t.Fatalf("decode trace line: %v %+v", err, decoded)
	}
}

func TestServiceWithExporters(t *testing.T) {
	ctx := context.Background()
	recorder := NewExpvarMetricsRecorder("")
	tracer := NewJSONTracer(nil)
	svc, _ := newTestService(t, studioFixture(),
		WithMetricsRecorder(recorder), WithTracer(tracer), WithInventoryObserver(recorder))
	if _, err := svc.Reconcile(ctx, ReconcileRequest{Delete: []int64{2}}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	snap := recorder.Snapshot()
	if snap.Results["reconcile"]["success"] != 1 || snap.Results["refresh"]["success"] != 1 {
		t.Fatalf("unexpected results %+v", snap.Results)
	}
	if snap.Inventory == nil || snap.Inventory.UniqueItemCount != 2 {
		t.Fatalf("inventory not updated after reconcile: %+v", snap.Inventory)
	}
	if len(tracer.Entries()) != 2 {
		t.Fatalf("expected refresh and reconcile spans, got %d", len(tracer.Entries()))
	}
}

func TestJSONTracerKeepsMostRecentSpans(t *testing.T) {
	tracer := NewJSONTracerRetaining(nil, 2)
	for _, op := range []string{"refresh", "reconcile", "consume"} {
		_, span := tracer.Start(context.Background(), op)
		span.End(nil)
	}
	entries := tracer.Entries()
	if len(entries) != 2 || entries[0].Operation != "reconcile" || entries[1].Operation != "consume" {
		t.Fatalf("unexpected retained spans %+v", entries)
	}

	var buf bytes.Buffer
	streaming := NewJSONTracerRetaining(&buf, 0)
	_, span := streaming.Start(context.Background(), "refresh")
	span.End(nil)
	if len(streaming.Entries()) != 0 || strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("zero retention should only stream, got %d entries %q", len(streaming.Entries()), buf.String())
	}
}
