package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	coredispatch "github.com/scrambledgregs/fleet-sub001/core/dispatch"
	"github.com/scrambledgregs/fleet-sub001/core/model"
	"github.com/scrambledgregs/fleet-sub001/infra/logger"
)

// Dispatcher runs one dispatch invocation. Implemented by dispatch.Manager.
type Dispatcher interface {
	Dispatch(ctx context.Context, req coredispatch.Request) (coredispatch.Outcome, error)
}

type geoPointDTO struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

type windowDTO struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

type jobDTO struct {
	ID        string      `json:"id" validate:"required"`
	Address   string      `json:"address"`
	Location  geoPointDTO `json:"location" validate:"required"`
	Window    *windowDTO  `json:"window,omitempty"`
	JobType   string      `json:"job_type"`
	Value     float64     `json:"value" validate:"min=0"`
	Territory string      `json:"territory"`
}

type routeStopDTO struct {
	JobID    string      `json:"job_id" validate:"required"`
	Location geoPointDTO `json:"location" validate:"required"`
	Anchor   time.Time   `json:"anchor,omitempty"`
}

type technicianDTO struct {
	ID        string         `json:"id" validate:"required"`
	Name      string         `json:"name"`
	Skills    []string       `json:"skills"`
	Territory string         `json:"territory"`
	Route     []routeStopDTO `json:"route" validate:"dive"`
}

type dispatchRequest struct {
	Job    jobDTO          `json:"job" validate:"required"`
	Roster []technicianDTO `json:"roster" validate:"dive"`
	Mode   string          `json:"mode" validate:"omitempty,oneof=auto approve"`
	Base   time.Time       `json:"base,omitempty"`
}

// NewDispatchHandler returns an HTTP handler accepting dispatch requests via
// POST /api/dispatch. The defaultMode is used when the request omits one.
func NewDispatchHandler(d Dispatcher, defaultMode coredispatch.Mode) http.Handler {
	validate := validator.New()
	log := logger.New("api")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var in dispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req := toRequest(in, defaultMode)
		out, err := d.Dispatch(r.Context(), req)
		if err != nil {
			if errors.Is(err, coredispatch.ErrBookingFailed) {
				writeJSON(w, http.StatusBadGateway, out, log)
				return
			}
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, http.StatusOK, out, log)
	})
}

func toRequest(in dispatchRequest, defaultMode coredispatch.Mode) coredispatch.Request {
	job := model.Job{
		ID:        in.Job.ID,
		Address:   in.Job.Address,
		Location:  model.GeoPoint{Lat: in.Job.Location.Lat, Lng: in.Job.Location.Lng},
		JobType:   in.Job.JobType,
		Value:     in.Job.Value,
		Territory: in.Job.Territory,
	}
	if in.Job.Window != nil {
		job.Window = &model.TimeWindow{Start: in.Job.Window.Start, End: in.Job.Window.End}
	}
	roster := make([]model.Technician, len(in.Roster))
	for i, t := range in.Roster {
		route := make([]model.RouteStop, len(t.Route))
		for j, s := range t.Route {
			route[j] = model.RouteStop{
				JobID:    s.JobID,
				Location: model.GeoPoint{Lat: s.Location.Lat, Lng: s.Location.Lng},
				Anchor:   s.Anchor,
			}
		}
		roster[i] = model.Technician{
			ID:        t.ID,
			Name:      t.Name,
			Skills:    t.Skills,
			Territory: t.Territory,
			Route:     route,
		}
	}
	mode := coredispatch.Mode(in.Mode)
	if in.Mode == "" {
		mode = defaultMode
	}
	return coredispatch.Request{Job: job, Roster: roster, Mode: mode, Base: in.Base}
}

func writeJSON(w http.ResponseWriter, status int, v any, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}
