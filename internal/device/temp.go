package device

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/temperature"
)

// TempSensor reports the newest sample of a probe and serves its history
// for the page graph.
type TempSensor struct {
	*component.Reading[float64]
	history *component.History
	sampler *temperature.Sampler
	batch   int
}

// NextIndexHeader carries the history index a graph should request next.
const NextIndexHeader = "X-Next-Index"

type latestResponse struct {
	Value float64 `json:"value"`
}

// NewTempSensor reads probe into history. batch caps the points returned by
// one history request; zero means no cap.
func NewTempSensor(name string, probe temperature.Probe, history *component.History, batch int) *TempSensor {
	return &TempSensor{
		Reading: component.NewReading(name, history.Latest),
		history: history,
		sampler: temperature.NewSampler(name, probe, history),
		batch:   batch,
	}
}

func (t *TempSensor) History() *component.History {
	return t.history
}

func (t *TempSensor) Sampler() *temperature.Sampler {
	return t.sampler
}

func (t *TempSensor) Layout() string {
	return `<div id="` + t.Name() + `"></div>` + "\n" +
		`<canvas id="` + t.Name() + `_graph" style="width:100%;max-width:700px"></canvas>` + "\n"
}

func (t *TempSensor) Script(parent []string) string {
	selector := component.Selector(t.Name(), parent)
	return "registerGraph('" + component.Endpoint(t.Name(), parent) + "', '" + selector + "', '" + selector + "_graph');\n"
}

func (t *TempSensor) Register(r component.Router, prefix string) {
	base := prefix + "/" + t.Name() + "/status"
	t.Reading.Register(r, prefix)
	r.Get(base+"/latest", t.handleLatest)
	r.Get(base+"/{since}", t.handleSince)
}

func (t *TempSensor) handleLatest(w http.ResponseWriter, r *http.Request) {
	component.WriteJSON(w, http.StatusOK, latestResponse{Value: t.history.Latest()})
}

func (t *TempSensor) handleSince(w http.ResponseWriter, r *http.Request) {
	since, err := strconv.Atoi(chi.URLParam(r, "since"))
	if err != nil || since < 0 {
		component.WriteError(w, http.StatusBadRequest, "since must be a non-negative sample index")
		return
	}
	samples, next := t.history.Range(since, t.batch)
	w.Header().Set(NextIndexHeader, strconv.Itoa(next))
	component.WriteJSON(w, http.StatusOK, t.history.Points(samples))
}
