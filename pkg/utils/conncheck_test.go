package utils

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromDBURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "postgresql://user:pw@db.local:5433/f1", "db.local:5433"},
		{"default port", "postgresql://user:pw@db.local/f1", "db.local:5432"},
		{"no credentials", "postgres://localhost/f1?sslmode=disable", "localhost:5432"},
		{"no path", "postgresql://user@db:6543", "db:6543"},
		{"other scheme", "mysql://user@db/f1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromDBURL(tt.url))
		})
	}
}

func TestExtractFromNatsURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "nats://nats.local:4333", "nats.local:4333"},
		{"default port", "nats://nats.local", "nats.local:4222"},
		{"credentials", "nats://user:pw@nats.local:4222", "nats.local:4222"},
		{"cluster list", "nats://a:4222,nats://b:4222", "a:4222"},
		{"tls", "tls://secure", "secure:4222"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromNatsURL(tt.url))
		})
	}
}

func TestWaitForTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	require.NoError(t, WaitForTCP(t.Context(), l.Addr().String(), time.Second))
}

func TestWaitForTCPTimeout(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()
	require.Error(t, WaitForTCP(t.Context(), addr, 300*time.Millisecond))
}
