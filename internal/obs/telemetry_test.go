package obs

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"studiostock/internal/core"
	"studiostock/internal/infra/persistence/memory"
	"studiostock/pkg/domain"
)

func stockedService(t *testing.T, opts []core.Option) *core.Service {
	t.Helper()
	store := memory.NewStoreWithItems(domain.Collection{
		{ID: 1, Name: "Luva Nitrílica", Category: "Descartáveis", Supplier: "Descarpack", Unit: "Caixa",
			QuantityOnHand: decimal.NewFromInt(40), MinimumQuantity: decimal.NewFromInt(100), UnitCost: decimal.NewFromInt(2)},
	})
	svc := core.NewService(store, opts...)
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return svc
}

func scrape(t *testing.T, tel *Telemetry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	tel.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}

func TestTelemetryDefaultsToPrometheus(t *testing.T) {
	tel, err := NewTelemetry("", "")
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	defer tel.Close()
	if tel.Tracer != nil {
		t.Fatalf("tracing must be off without an output")
	}
	stockedService(t, tel.Options)
	body := scrape(t, tel)
	for _, want := range []string{
		`studiostock_operations_total{operation="refresh",status="success"} 1`,
		"studiostock_inventory_alerts 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

func TestTelemetryExpvarWithTraceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	tel, err := NewTelemetry("expvar", path)
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	svc := stockedService(t, tel.Options)
	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	body := scrape(t, tel)
	if !strings.Contains(body, "studiostock_service_metrics_") || !strings.Contains(body, `"alert_count":1`) {
		t.Fatalf("expvar output missing recorder: %s", body)
	}
	if got := len(tel.Tracer.Entries()); got != 2 {
		t.Fatalf("expected 2 retained spans, got %d", got)
	}
	if err := tel.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	defer f.Close()
	var ops []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry core.JSONTraceEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("decode trace line: %v", err)
		}
		ops = append(ops, entry.Operation)
	}
	if strings.Join(ops, ",") != "refresh,snapshot" {
		t.Fatalf("unexpected trace lines %v", ops)
	}
}

func TestTelemetryRejectsUnknownExporter(t *testing.T) {
	if _, err := NewTelemetry("statsd", ""); err == nil || !strings.Contains(err.Error(), "unknown metrics exporter") {
		t.Fatalf("expected unknown exporter error, got %v", err)
	}
	if _, err := NewTelemetry("", filepath.Join(t.TempDir(), "missing", "trace.jsonl")); err == nil {
		t.Fatalf("expected error for unwritable trace output")
	}
}
