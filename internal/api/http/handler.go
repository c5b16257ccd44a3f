package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"krpc-telemetry/internal/export"
	strategyapp "krpc-telemetry/internal/strategy/application"
	telemapp "krpc-telemetry/internal/telemetry/application"
	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// Handler serves the telemetry read API.
type Handler struct {
	poller  *telemapp.Poller
	started time.Time
	logger  *log.Logger
}

// NewHandler constructs a Handler.
func NewHandler(poller *telemapp.Poller, started time.Time, logger *log.Logger) (*Handler, error) {
	if poller == nil {
		return nil, errors.New("api handler: nil poller")
	}
	if logger == nil {
		logger = log.Default()
	}
	if started.IsZero() {
		started = time.Now().UTC()
	}
	return &Handler{poller: poller, started: started, logger: logger}, nil
}

// ServeHTTP routes telemetry API requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if path == "/api/v1/strategies" {
		h.handleList(w, r)
		return
	}
	if path == "/api/v1/snapshot" {
		h.handleSnapshot(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/strategies/") {
		rest := strings.TrimPrefix(path, "/api/v1/strategies/")
		h.handleByName(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	type item struct {
		Name    string   `json:"name"`
		Every   int64    `json:"collect_every_seconds"`
		Columns []string `json:"columns"`
		Rows    int      `json:"rows"`
	}
	samplers := h.poller.Samplers()
	list := make([]item, 0, len(samplers))
	for _, sampler := range samplers {
		variant := sampler.Strategy()
		list = append(list, item{
			Name:    variant.Name(),
			Every:   variant.CollectEvery(),
			Columns: columnNames(variant.Columns()),
			Rows:    sampler.Table().Len(),
		})
	}
	writeJSON(w, list)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, ok := h.poller.LastSnapshot()
	if !ok {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	values := make(map[string]any, len(snap))
	for kind, value := range snap {
		if f, ok := value.Float(); ok {
			values[kind.String()] = f
			continue
		}
		if v, ok := value.Vec(); ok {
			values[kind.String()] = []float64{v.X, v.Y, v.Z}
		}
	}
	writeJSON(w, map[string]any{"values": values})
}

func (h *Handler) handleByName(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	sampler := h.findSampler(parts[0])
	if sampler == nil {
		http.Error(w, "unknown strategy", http.StatusNotFound)
		return
	}

	switch parts[1] {
	case "table":
		h.handleTable(w, r, sampler)
	case "export.csv":
		h.handleExportCSV(w, sampler)
	case "export.xlsx":
		h.handleExportXLSX(w, sampler)
	case "export.pdf":
		h.handleExportPDF(w, sampler)
	case "export.blob":
		h.handleExportBlob(w, sampler)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleTable(w http.ResponseWriter, _ *http.Request, sampler *strategyapp.Sampler) {
	table := sampler.Table()
	columns := table.Columns()
	type row struct {
		Met    int64              `json:"met"`
		Values map[string]float64 `json:"values"`
	}
	rows := table.Rows()
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		values := make(map[string]float64, len(columns))
		for _, column := range columns {
			values[column.String()] = r.Values[column]
		}
		out = append(out, row{Met: r.Met, Values: values})
	}
	writeJSON(w, map[string]any{
		"strategy": sampler.Strategy().Name(),
		"columns":  columnNames(columns),
		"rows":     out,
	})
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, sampler *strategyapp.Sampler) {
	name := sampler.Strategy().Name()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+".csv\"")
	if err := export.WriteTableCSV(w, sampler.Table()); err != nil {
		h.logger.Printf("api: export csv %s: %v", name, err)
	}
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, sampler *strategyapp.Sampler) {
	name := sampler.Strategy().Name()
	data, err := export.BuildTableXLSX(name, sampler.Table())
	if err != nil {
		h.logger.Printf("api: export xlsx %s: %v", name, err)
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+".xlsx\"")
	_, _ = w.Write(data)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, sampler *strategyapp.Sampler) {
	name := sampler.Strategy().Name()
	data, err := export.BuildTablePDF(name, sampler.Table())
	if err != nil {
		h.logger.Printf("api: export pdf %s: %v", name, err)
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+".pdf\"")
	_, _ = w.Write(data)
}

func (h *Handler) handleExportBlob(w http.ResponseWriter, sampler *strategyapp.Sampler) {
	name := sampler.Strategy().Name()
	data, err := export.EncodeTableBlob(name, sampler.Table(), h.started)
	if err != nil {
		h.logger.Printf("api: export blob %s: %v", name, err)
		http.Error(w, "export blob error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+".mebo\"")
	_, _ = w.Write(data)
}

func (h *Handler) findSampler(name string) *strategyapp.Sampler {
	for _, sampler := range h.poller.Samplers() {
		if sampler.Strategy().Name() == name {
			return sampler
		}
	}
	return nil
}

func columnNames(columns []telemetry.Kind) []string {
	names := make([]string, 0, len(columns))
	for _, column := range columns {
		names = append(names, column.String())
	}
	return names
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
