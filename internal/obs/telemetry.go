package obs

import (
	"errors"
	"expvar"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"studiostock/internal/core"
)

// Metrics exporters selectable by name.
const (
	ExporterPrometheus = "prometheus"
	ExporterExpvar     = "expvar"
)

// Telemetry is the service instrumentation chosen from configuration: the
// core options to install and the handler serving /metrics.
type Telemetry struct {
	Options []core.Option
	Handler http.Handler
	Tracer  *core.JSONTraceTracer

	closer io.Closer
}

// NewTelemetry selects the metrics exporter and, when traceOutput is set, a
// JSON line tracer writing to "stdout", "stderr" or the named file.
func NewTelemetry(exporter, traceOutput string) (*Telemetry, error) {
	t := &Telemetry{}
	switch strings.ToLower(strings.TrimSpace(exporter)) {
	case "", ExporterPrometheus:
		rec := NewPrometheusRecorder()
		t.Options = append(t.Options, core.WithMetricsRecorder(rec), core.WithInventoryObserver(rec))
		t.Handler = rec.Handler()
	case ExporterExpvar:
		rec := core.NewExpvarMetricsRecorder("")
		t.Options = append(t.Options, core.WithMetricsRecorder(rec), core.WithInventoryObserver(rec))
		t.Handler = expvar.Handler()
	default:
		return nil, fmt.Errorf("unknown metrics exporter %s", exporter)
	}

	var w io.Writer
	switch traceOutput {
	case "":
		return t, nil
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(traceOutput, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open trace output: %w", err)
		}
		w = f
		t.closer = f
	}
	t.Tracer = core.NewJSONTracer(w)
	t.Options = append(t.Options, core.WithTracer(t.Tracer))
	return t, nil
}

// Close releases the trace file, if one was opened.
func (t *Telemetry) Close() error {
	if t == nil || t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
