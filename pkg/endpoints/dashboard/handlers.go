package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/dataset"
	"github.com/mpapenbr/f1-driverstats-go/pkg/snapshot"
	"github.com/mpapenbr/f1-driverstats-go/pkg/stats"
)

type (
	snapshotHandler func(w http.ResponseWriter, r *http.Request, snap *snapshot.Snapshot)

	healthResponse struct {
		Status   string `json:"status"`
		Snapshot string `json:"snapshot,omitempty"`
		Rows     int    `json:"rows"`
	}
	optionsResponse struct {
		Drivers []string `json:"drivers"`
		Years   []int    `json:"years"`
	}
	careerResponse struct {
		Driver         string                   `json:"driver"`
		Card           stats.Card               `json:"card"`
		Highlights     stats.Highlights         `json:"highlights"`
		Yearly         []stats.YearSummary      `json:"yearly"`
		CircuitQuali   []stats.CircuitCount     `json:"circuitQuali"`
		CircuitResults []stats.CircuitCount     `json:"circuitResults"`
		Correlation    []stats.CorrelationPoint `json:"correlation"`
		Trend          stats.Trend              `json:"trend"`
	}
	circuitsResponse struct {
		Driver   string               `json:"driver"`
		Category string               `json:"category"`
		Circuits []stats.CircuitCount `json:"circuits"`
	}
	seasonResponse struct {
		Driver      string            `json:"driver"`
		Year        int               `json:"year"`
		Standing    stats.Standing    `json:"standing"`
		Season      []stats.SeasonRow `json:"season"`
		ResultTally map[string]int    `json:"resultTally"`
		QualiTally  map[string]int    `json:"qualiTally"`
		DNFTally    map[string]int    `json:"dnfTally"`
	}
	standingsResponse struct {
		Year      int                 `json:"year"`
		Standings []stats.StandingRow `json:"standings"`
	}
	reloadResponse struct {
		Snapshot string `json:"snapshot"`
		Source   string `json:"source"`
		Rows     int    `json:"rows"`
	}
	errorResponse struct {
		Error string `json:"error"`
	}
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	snap, err := s.holder.Current()
	if err != nil {
		s.writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "loading"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, healthResponse{
		Status:   "ok",
		Snapshot: snap.ID.String(),
		Rows:     snap.Table.Len(),
	})
}

// withSnapshot passes the snapshot current at request start to h.
func (s *Server) withSnapshot(h snapshotHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.holder.Current()
		if err != nil {
			s.writeError(w, r, http.StatusServiceUnavailable, err)
			return
		}
		h(w, r, snap)
	}
}

func (s *Server) options(w http.ResponseWriter, r *http.Request, snap *snapshot.Snapshot) {
	s.writeJSON(w, r, http.StatusOK, optionsResponse{
		Drivers: snap.Stats.DriverOptions(s.excluded...),
		Years:   snap.Stats.YearOptions(),
	})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request, snap *snapshot.Snapshot) {
	driver := r.PathValue("driver")
	p, ok := snap.Table.Profile(driver)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("no profile for driver %q", driver))
		return
	}
	s.writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) career(w http.ResponseWriter, r *http.Request, snap *snapshot.Snapshot) {
	driver := r.PathValue("driver")
	rows := snap.Stats.FilterByDriver(driver)
	correlation := stats.CorrelationInputs(rows)
	s.writeJSON(w, r, http.StatusOK, careerResponse{
		Driver:         driver,
		Card:           snap.Stats.DriverCard(driver),
		Highlights:     stats.CareerHighlights(rows),
		Yearly:         stats.YearlyAggregate(rows),
		CircuitQuali:   stats.CircuitBreakdown(rows, stats.FieldQualiStatus),
		CircuitResults: stats.CircuitBreakdown(rows, stats.FieldResultType),
		Correlation:    correlation,
		Trend:          stats.Trendline(correlation),
	})
}

// circuits counts the values of the category query parameter per country.
// The category defaults to resultType.
func (s *Server) circuits(w http.ResponseWriter, r *http.Request, snap *snapshot.Snapshot) {
	category := stats.FieldResultType
	if v := r.URL.Query().Get("category"); v != "" {
		var err error
		if category, err = stats.ParseCategory(v); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}
	driver := r.PathValue("driver")
	s.writeJSON(w, r, http.StatusOK, circuitsResponse{
		Driver:   driver,
		Category: category.String(),
		Circuits: stats.CircuitBreakdown(snap.Stats.FilterByDriver(driver), category),
	})
}

func (s *Server) season(w http.ResponseWriter, r *http.Request, snap *snapshot.Snapshot) {
	year, err := parseYear(r.PathValue("year"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	driver := r.PathValue("driver")
	rows := snap.Stats.FilterByDriverAndYear(driver, year)
	s.writeJSON(w, r, http.StatusOK, seasonResponse{
		Driver:      driver,
		Year:        year,
		Standing:    snap.Stats.SeasonStanding(driver, year),
		Season:      stats.SeasonSummary(rows),
		ResultTally: stats.CategoryTally(rows, stats.FieldResultType),
		QualiTally:  stats.CategoryTally(rows, stats.FieldQualiStatus),
		DNFTally:    stats.DNFTally(rows),
	})
}

func (s *Server) standings(w http.ResponseWriter, r *http.Request, snap *snapshot.Snapshot) {
	year, err := parseYear(r.PathValue("year"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, standingsResponse{
		Year:      year,
		Standings: snap.Stats.Standings(year),
	})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request, snap *snapshot.Snapshot) {
	driver := r.URL.Query().Get("driver")
	if driver == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("missing parameter driver"))
		return
	}
	year, err := parseYear(r.URL.Query().Get("year"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	d, err := s.cache.Get(r.Context(),
		dashboardKey{snap: snap, driver: driver, year: year})
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, d)
}

func (s *Server) adminReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.reload(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dataset.ErrStructural) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, r, status, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, reloadResponse{
		Snapshot: snap.ID.String(),
		Source:   snap.Source,
		Rows:     snap.Table.Len(),
	})
}

func parseYear(s string) (int, error) {
	if s == "" {
		return 0, errors.New("missing parameter year")
	}
	year, err := strconv.Atoi(s)
	if err != nil || year <= 0 {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return year, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.GetFromContext(r.Context()).Warn("could not write response", log.ErrorField(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	l := log.GetFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		l.Error("request failed", log.ErrorField(err))
	} else {
		l.Debug("request rejected", log.Int("status", status), log.ErrorField(err))
	}
	s.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}
