package tcpostgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSettingsDefaults(t *testing.T) {
	s := newSettings()
	assert.Equal(t, "postgres:17", s.req.Image)
	assert.Equal(t, "f1-driverstats-test", s.req.Name)
	assert.Equal(t, []string{"5432/tcp"}, s.req.ExposedPorts)
	assert.Equal(t, map[string]string{
		"POSTGRES_USER":     "postgres",
		"POSTGRES_PASSWORD": "password",
		"POSTGRES_DB":       "f1ds",
	}, s.req.Env)
	assert.NotNil(t, s.req.WaitingFor)
	assert.Equal(t, 30*time.Second, s.startup)
}

func TestNewSettingsOptions(t *testing.T) {
	s := newSettings(
		WithImage("postgres:16"),
		WithName("other"),
		WithInitialDatabase("u", "p", "db"),
		WithStartupTimeout(time.Minute),
	)
	assert.Equal(t, "postgres:16", s.req.Image)
	assert.Equal(t, "other", s.req.Name)
	assert.Equal(t, "db", s.req.Env["POSTGRES_DB"])
	assert.Equal(t, "u", s.req.Env["POSTGRES_USER"])
	assert.Equal(t, "p", s.req.Env["POSTGRES_PASSWORD"])
	assert.Equal(t, time.Minute, s.startup)
}
