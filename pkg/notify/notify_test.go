package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestEncodeDecode(t *testing.T) {
	msg := DatasetUpdated{ImportID: "abc", Source: "races.csv", RaceRows: 8, DriverRows: 3}
	got, err := Decode(Encode(msg))
	require.NoError(t, err)
	assert.Equal(t, msg, *got)

	_, err = Decode([]byte("{not json"))
	assert.Error(t, err)
}

func setupNats(t *testing.T) *nats.Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping nats test in short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "nats:2",
				ExposedPorts: []string{"4222/tcp"},
				WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222/tcp")
	require.NoError(t, err)
	conn, err := nats.Connect(fmt.Sprintf("nats://%s:%s", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

func TestPublishSubscribe(t *testing.T) {
	conn := setupNats(t)
	n := New(conn, WithSubject("test.dataset"))

	received := make(chan DatasetUpdated, 1)
	sub, err := n.Subscribe(func(msg DatasetUpdated) { received <- msg })
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()

	// invalid payloads are dropped
	require.NoError(t, conn.Publish("test.dataset", []byte("garbage")))

	msg := DatasetUpdated{ImportID: "id-1", Source: "db", RaceRows: 1}
	require.NoError(t, n.Publish(msg))
	select {
	case got := <-received:
		assert.Equal(t, msg, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}
