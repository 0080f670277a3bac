package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultImage    = "postgres:17"
	defaultName     = "f1-driverstats-test"
	defaultUser     = "postgres"
	defaultPassword = "password"
	defaultDB       = "f1ds"
	postgresPort    = nat.Port("5432/tcp")
)

// PostgresContainer is a started postgres test database.
type PostgresContainer struct {
	testcontainers.Container
	user     string
	password string
	dbName   string
}

type (
	containerSettings struct {
		req      testcontainers.ContainerRequest
		user     string
		password string
		dbName   string
		startup  time.Duration
	}
	PostgresContainerOption func(s *containerSettings)
)

func WithImage(image string) PostgresContainerOption {
	return func(s *containerSettings) {
		s.req.Image = image
	}
}

// WithName sets the container name. Containers with the same name are reused.
func WithName(containerName string) PostgresContainerOption {
	return func(s *containerSettings) {
		s.req.Name = containerName
	}
}

func WithInitialDatabase(user, password, dbName string) PostgresContainerOption {
	return func(s *containerSettings) {
		s.user, s.password, s.dbName = user, password, dbName
	}
}

// WithStartupTimeout limits the wait for the database to accept connections.
func WithStartupTimeout(d time.Duration) PostgresContainerOption {
	return func(s *containerSettings) {
		s.startup = d
	}
}

func newSettings(opts ...PostgresContainerOption) *containerSettings {
	s := &containerSettings{
		req: testcontainers.ContainerRequest{
			Image:        defaultImage,
			Name:         defaultName,
			ExposedPorts: []string{string(postgresPort)},
			Cmd:          []string{"postgres", "-c", "fsync=off"},
		},
		user:     defaultUser,
		password: defaultPassword,
		dbName:   defaultDB,
		startup:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.req.Env = map[string]string{
		"POSTGRES_USER":     s.user,
		"POSTGRES_PASSWORD": s.password,
		"POSTGRES_DB":       s.dbName,
	}
	// the init scripts restart the server, the second message means it is ready
	s.req.WaitingFor = wait.ForAll(
		wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		wait.ForListeningPort(postgresPort),
	).WithDeadline(s.startup)
	return s
}

// SetupPostgres starts (or reuses) the test database container.
func SetupPostgres(ctx context.Context, opts ...PostgresContainerOption) (
	*PostgresContainer, error,
) {
	s := newSettings(opts...)
	container, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: s.req,
			Started:          true,
			Reuse:            s.req.Name != "",
		})
	if err != nil {
		return nil, err
	}
	return &PostgresContainer{
		Container: container,
		user:      s.user,
		password:  s.password,
		dbName:    s.dbName,
	}, nil
}

// ConnectionString returns the postgresql url of the mapped port.
func (c *PostgresContainer) ConnectionString(ctx context.Context) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := c.MappedPort(ctx, postgresPort)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.user, c.password, host, port.Port(), c.dbName), nil
}
