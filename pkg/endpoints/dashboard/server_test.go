//nolint:funlen // ok for tests
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-driverstats-go/pkg/dataset"
	"github.com/mpapenbr/f1-driverstats-go/pkg/snapshot"
	"github.com/mpapenbr/f1-driverstats-go/pkg/stats"
)

var testLoader = snapshot.FileLoader{
	RacesPath:   "../../dataset/testdata/races.csv",
	DriversPath: "../../dataset/testdata/drivers.csv",
}

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *snapshot.Holder) {
	t.Helper()
	holder := snapshot.NewHolder(testLoader)
	_, err := holder.Reload(t.Context())
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(holder, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv, holder
}

func get(t *testing.T, srv *httptest.Server, path string, target any) *http.Response {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, holder := newTestServer(t)
	var got healthResponse
	resp := get(t, srv, "/healthz", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
	snap, err := holder.Current()
	require.NoError(t, err)
	assert.Equal(t, healthResponse{Status: "ok", Snapshot: snap.ID.String(), Rows: 8}, got)
}

func TestNotLoaded(t *testing.T) {
	srv := httptest.NewServer(NewServer(snapshot.NewHolder(testLoader)).Handler())
	defer srv.Close()
	resp := get(t, srv, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp = get(t, srv, "/api/v1/options", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestOptions(t *testing.T) {
	srv, _ := newTestServer(t, WithExcludedDrivers("Jack Aitken"))
	var got optionsResponse
	resp := get(t, srv, "/api/v1/options", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, optionsResponse{
		Drivers: []string{"Carlos Sainz", "Charles Leclerc"},
		Years:   []int{2021, 2022},
	}, got)
}

func TestProfile(t *testing.T) {
	srv, _ := newTestServer(t)
	var got map[string]any
	resp := get(t, srv, "/api/v1/drivers/"+url.PathEscape("Charles Leclerc")+"/profile", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "mc", got["nationalityFlagCode"])

	var e errorResponse
	resp = get(t, srv, "/api/v1/drivers/nobody/profile", &e)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, e.Error, "nobody")
}

func TestSeason(t *testing.T) {
	srv, _ := newTestServer(t)
	var got seasonResponse
	resp := get(t, srv, "/api/v1/drivers/"+url.PathEscape("Carlos Sainz")+"/seasons/2022", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got.Season, 3)
	assert.InDelta(t, 33.0, got.Season[2].CumulativePoints, 1e-9)
	assert.Equal(t, "Bahrain GP", got.Season[0].ShortGP)
	assert.Equal(t, map[string]int{"Collision": 1}, got.DNFTally)
	assert.Equal(t, 2, got.Standing.Rank)

	var unknown seasonResponse
	resp = get(t, srv, "/api/v1/drivers/nobody/seasons/2022", &unknown)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, unknown.Season)
	assert.Empty(t, unknown.ResultTally)

	var e errorResponse
	resp = get(t, srv, "/api/v1/drivers/nobody/seasons/abc", &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, e.Error, "invalid year")
}

func TestCareer(t *testing.T) {
	srv, _ := newTestServer(t)
	var got careerResponse
	resp := get(t, srv, "/api/v1/drivers/"+url.PathEscape("Carlos Sainz")+"/career", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, got.Yearly, 2)
	assert.Equal(t, "Ferrari", got.Card.Team)
	assert.Equal(t, 2, got.Highlights.Podiums)
	assert.Len(t, got.Correlation, 5)
}

func TestCircuits(t *testing.T) {
	srv, _ := newTestServer(t)
	base := "/api/v1/drivers/" + url.PathEscape("Carlos Sainz") + "/circuits"

	var got circuitsResponse
	resp := get(t, srv, base+"?category=status", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "status", got.Category)
	assert.Equal(t, []stats.CircuitCount{
		{Country: "Australia", Category: "Collision", Count: 1},
		{Country: "Bahrain", Category: "Finished", Count: 2},
		{Country: "Belgium", Category: "Finished", Count: 1},
		{Country: "Saudi Arabia", Category: "Finished", Count: 1},
	}, got.Circuits)

	got = circuitsResponse{}
	resp = get(t, srv, base, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "resultType", got.Category)
	total := 0
	for _, c := range got.Circuits {
		total += c.Count
	}
	assert.Equal(t, 5, total)

	resp = get(t, srv, base+"?category=team", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStandings(t *testing.T) {
	srv, _ := newTestServer(t)
	var got standingsResponse
	resp := get(t, srv, "/api/v1/standings/2022", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []stats.StandingRow{
		{Rank: 1, Driver: "Charles Leclerc", Points: 71},
		{Rank: 2, Driver: "Carlos Sainz", Points: 33},
	}, got.Standings)

	resp = get(t, srv, "/api/v1/standings/0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDashboardCached(t *testing.T) {
	srv, holder := newTestServer(t)
	var got stats.Dashboard
	path := "/api/v1/dashboard?driver=" + url.QueryEscape("Carlos Sainz") + "&year=2022"
	resp := get(t, srv, path, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Carlos Sainz", got.Driver)
	assert.Len(t, got.Season, 3)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "es", got.Profile.NationalityFlagCode)

	// a new snapshot must not serve the old content
	table, err := dataset.NewTable(nil, nil)
	require.NoError(t, err)
	holder.Set(table, "empty")
	var fresh stats.Dashboard
	get(t, srv, path, &fresh)
	assert.Empty(t, fresh.Season)
	assert.Nil(t, fresh.Profile)

	for _, p := range []string{"/api/v1/dashboard?year=2022", "/api/v1/dashboard?driver=x&year=x"} {
		resp = get(t, srv, p, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, p)
	}
}

func TestDashboardUsesRequestSnapshot(t *testing.T) {
	holder := snapshot.NewHolder(testLoader)
	_, err := holder.Reload(t.Context())
	require.NoError(t, err)
	s := NewServer(holder)
	pinned, err := holder.Current()
	require.NoError(t, err)

	// swap before the cache miss is computed
	table, err := dataset.NewTable(nil, nil)
	require.NoError(t, err)
	holder.Set(table, "empty")

	got, err := s.cache.Get(t.Context(),
		dashboardKey{snap: pinned, driver: "Carlos Sainz", year: 2022})
	require.NoError(t, err)
	assert.Len(t, got.Season, 3)
	require.NotNil(t, got.Profile)

	current, err := holder.Current()
	require.NoError(t, err)
	got, err = s.cache.Get(t.Context(),
		dashboardKey{snap: current, driver: "Carlos Sainz", year: 2022})
	require.NoError(t, err)
	assert.Empty(t, got.Season)
}

func TestAdminReload(t *testing.T) {
	reloadErr := error(nil)
	srv, _ := newTestServer(t,
		WithAdminToken("secret"),
		WithReloadFunc(func(ctx context.Context) (*snapshot.Snapshot, error) {
			if reloadErr != nil {
				return nil, reloadErr
			}
			table, err := dataset.NewTable(nil, nil)
			if err != nil {
				return nil, err
			}
			return &snapshot.Snapshot{Table: table, Source: "test"}, nil
		}))

	post := func(header, value string) *http.Response {
		req, err := http.NewRequestWithContext(t.Context(), http.MethodPost,
			srv.URL+"/api/v1/admin/reload", http.NoBody)
		require.NoError(t, err)
		if header != "" {
			req.Header.Set(header, value)
		}
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}
	assert.Equal(t, http.StatusUnauthorized, post("", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, post(tokenHeader, "wrong").StatusCode)
	assert.Equal(t, http.StatusOK, post(tokenHeader, "secret").StatusCode)
	assert.Equal(t, http.StatusOK, post("Authorization", "Bearer secret").StatusCode)

	reloadErr = &dataset.StructuralError{Source: "races", Reason: "broken"}
	assert.Equal(t, http.StatusUnprocessableEntity, post(tokenHeader, "secret").StatusCode)
	reloadErr = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, post(tokenHeader, "secret").StatusCode)

	resp := get(t, srv, "/api/v1/admin/reload", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAdminDisabled(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Client().Post(srv.URL+"/api/v1/admin/reload", "application/json", http.NoBody)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
