package ergast

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
)

const pageTemplate = `{"MRData": {"limit": "2", "offset": "%d", "total": "%d",
 "RaceTable": {"season": "2022", "Races": [%s]}}}`

const bahrain = `{"season": "2022", "round": "1", "raceName": "Bahrain Grand Prix",
 "date": "2022-03-20",
 "Circuit": {"Location": {"locality": "Sakhir", "country": "Bahrain"}},
 "Results": [
  {"number": "16", "position": "1", "positionText": "1", "points": "26", "grid": "1",
   "status": "Finished",
   "Driver": {"givenName": "Charles", "familyName": "Leclerc"},
   "Constructor": {"name": "Ferrari"}},
  {"number": "55", "position": "2", "positionText": "2", "points": "18", "grid": "3",
   "status": "Finished",
   "Driver": {"givenName": "Carlos", "familyName": "Sainz"},
   "Constructor": {"name": "Ferrari"}}
 ]}`

const australia = `{"season": "2022", "round": "3", "raceName": "Australian Grand Prix",
 "date": "2022-04-10",
 "Circuit": {"Location": {"locality": "Melbourne", "country": "Australia"}},
 "Results": [
  {"number": "55", "position": "20", "positionText": "R", "points": "0", "grid": "9",
   "status": "Collision",
   "Driver": {"givenName": "Carlos", "familyName": "Sainz"},
   "Constructor": {"name": "Ferrari"}}
 ]}`

const testEvent = `{"season": "2022", "round": "2", "raceName": "Pre-Season Test",
 "date": "2022-03-27",
 "Circuit": {"Location": {"locality": "Jeddah", "country": "Saudi Arabia"}},
 "Results": [
  {"number": "1", "position": "1", "positionText": "1", "points": "0", "grid": "1",
   "status": "Finished",
   "Driver": {"givenName": "Max", "familyName": "Verstappen"},
   "Constructor": {"name": "Red Bull"}}
 ]}`

func newTestClient(srv *httptest.Server) *Client {
	return New(
		WithBaseURL(srv.URL),
		WithPageSize(2),
		WithPageDelay(0),
		WithRetry(2, time.Millisecond, 5*time.Millisecond),
	)
}

func TestFetchSeasonPaged(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/2022/results.json", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		switch offset {
		case 0:
			fmt.Fprintf(w, pageTemplate, offset, 4, bahrain)
		case 2:
			fmt.Fprintf(w, pageTemplate, offset, 4, testEvent+","+australia)
		default:
			t.Errorf("unexpected offset %d", offset)
		}
	}))
	defer srv.Close()

	rows, err := newTestClient(srv).FetchSeason(t.Context(), 2022)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, rows, 3)

	assert.Equal(t, "Charles Leclerc", rows[0].DriverFullName)
	assert.Equal(t, model.QualiPole, rows[0].QualiStatus)
	assert.Equal(t, model.ResultPodium, rows[0].ResultType)
	assert.True(t, decimal.NewFromInt(26).Equal(rows[0].Points))

	dnf := rows[2]
	assert.Equal(t, "Carlos Sainz", dnf.DriverFullName)
	assert.Equal(t, model.NotClassified, dnf.FinishPosition)
	assert.Equal(t, "Collision", dnf.Status)
	assert.Equal(t, "Australia", dnf.Country)
	assert.Equal(t, "Melbourne", dnf.Location)
	assert.Equal(t, model.NewDate(2022, time.April, 10), dnf.EventDate)
	assert.Equal(t, 1, dnf.Counter)
}

func TestFetchSeasonRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, pageTemplate, 0, 2, bahrain)
	}))
	defer srv.Close()

	rows, err := newTestClient(srv).FetchSeason(t.Context(), 2022)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchSeasonGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchSeason(t.Context(), 2022)
	require.Error(t, err)
}

func TestFetchSeasonsSorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/2022/results.json" {
			fmt.Fprintf(w, pageTemplate, 0, 1, australia)
			return
		}
		fmt.Fprintf(w, pageTemplate, 0, 0, "")
	}))
	defer srv.Close()

	rows, err := newTestClient(srv).FetchSeasons(t.Context(), []int{2022, 2023})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2022, rows[0].Year)
}

func TestFinishPosition(t *testing.T) {
	for text, want := range map[string]int{"1": 1, "12": 12, "R": 0, "D": 0, "W": 0, "": 0} {
		assert.Equal(t, want, finishPosition(text), text)
	}
}

func TestParsePageInvalid(t *testing.T) {
	_, err := parsePage([]byte(`{"MRData": {}}`))
	require.Error(t, err)
	_, err = parsePage([]byte(`not json`))
	require.Error(t, err)
}
