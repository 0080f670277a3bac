package query

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-driverstats-go/pkg/stats"
)

func runQuery(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewQueryCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{
		"--races", "../../dataset/testdata/races.csv",
		"--drivers", "../../dataset/testdata/drivers.csv",
	}, args...))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestQueryJSON(t *testing.T) {
	out, err := runQuery(t, "--driver", "Carlos Sainz", "--year", "2022", "--format", "json")
	require.NoError(t, err)
	var d stats.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "Carlos Sainz", d.Driver)
	assert.Len(t, d.Season, 3)
	assert.InDelta(t, 33.0, d.Standing.Points, 1e-9)
	assert.Equal(t, 2, d.Standing.Rank)
}

func TestQueryText(t *testing.T) {
	out, err := runQuery(t, "--driver", "Carlos Sainz", "--year", "2022")
	require.NoError(t, err)
	assert.Contains(t, out, "Carlos Sainz")
	assert.Contains(t, out, "Bahrain GP")
	assert.Contains(t, out, "Collision=1")
}

func TestQueryInvalidFormat(t *testing.T) {
	_, err := runQuery(t, "--driver", "Carlos Sainz", "--year", "2022", "--format", "xml")
	require.Error(t, err)
}

func TestQueryMissingDriver(t *testing.T) {
	_, err := runQuery(t, "--year", "2022")
	require.Error(t, err)
}
