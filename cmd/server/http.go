package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/sirupsen/logrus"

	"geocoin.ai/internal/sim/world"
	"geocoin.ai/internal/transport/ws"
)

type muxOptions struct {
	Admin bool
	Pprof bool
}

func newMux(w *world.World, opts muxOptions, logger logrus.FieldLogger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, w.Metrics())
	})

	if opts.Admin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(struct {
				Metrics world.WorldMetrics `json:"metrics"`
			}{Metrics: w.Metrics()})
		})
		mux.HandleFunc("/admin/v1/save", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			err := w.RequestSave(ctx)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true})
		})
	} else {
		logger.Info("admin endpoints disabled (GEOCOIN_ENABLE_ADMIN_HTTP=false)")
	}
	if opts.Pprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())
	return mux
}

// writeMetrics renders m in the Prometheus text exposition format.
func writeMetrics(rw http.ResponseWriter, m world.WorldMetrics) {
	gauge := func(name, help string, v any) {
		fmt.Fprintf(rw, "# HELP %s %s\n", name, help)
		fmt.Fprintf(rw, "# TYPE %s gauge\n", name)
		fmt.Fprintf(rw, "%s %v\n", name, v)
	}
	counter := func(name, help string, v uint64) {
		fmt.Fprintf(rw, "# HELP %s %s\n", name, help)
		fmt.Fprintf(rw, "# TYPE %s counter\n", name)
		fmt.Fprintf(rw, "%s %d\n", name, v)
	}

	gauge("geocoin_active_cells", "Materialized cells in the window.", m.ActiveCells)
	gauge("geocoin_stored_cells", "Persisted cells outside the window.", m.StoredCells)
	gauge("geocoin_inventory_items", "Coins held by the player.", m.Inventory)
	gauge("geocoin_clients", "Attached display clients.", m.Clients)
	gauge("geocoin_step_ms", "Duration of the last loop step in milliseconds.", fmt.Sprintf("%.3f", m.StepMS))
	gauge("geocoin_last_save_age_seconds", "Seconds since the last successful save.", fmt.Sprintf("%.3f", m.LastSaveAge))

	fmt.Fprintf(rw, "# HELP geocoin_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE geocoin_queue_depth gauge\n")
	fmt.Fprintf(rw, "geocoin_queue_depth{queue=%q} %d\n", "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(rw, "geocoin_queue_depth{queue=%q} %d\n", "leave", m.QueueDepths.Leave)
	fmt.Fprintf(rw, "geocoin_queue_depth{queue=%q} %d\n", "attach", m.QueueDepths.Attach)

	counter("geocoin_commands_total", "Commands applied.", m.Commands)
	counter("geocoin_commands_rejected_total", "Commands rejected with an error.", m.Rejected)
	counter("geocoin_saves_total", "Successful session saves.", m.Saves)
	counter("geocoin_save_errors_total", "Failed session saves.", m.SaveErrors)
	counter("geocoin_clients_detached_total", "Clients detached for a full queue.", m.Detached)
}
