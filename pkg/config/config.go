package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string   // connection string for the database
	NatsURL           string   // URL of the NATS server, empty disables notifications
	WaitForServices   string   // duration to wait for other services to be ready
	LogLevel          string   // sets the log level (zap log level values)
	SQLLogLevel       string   // sets the log level for sql subsystem
	LogFormat         string   // text vs json
	LogConfig         string   // path to log config file
	EnableTelemetry   bool     // enable telemetry
	TelemetryEndpoint string   // endpoint for telemetry
	ProfilingPort     int      // port for profiling
	ServerAddr        string   // listen addr for HTTP server (insecure)
	TLSServerAddr     string   // listen addr for HTTP server (tls)
	TLSCertFile       string   // path to TLS certificate
	TLSKeyFile        string   // path to TLS key
	TLSCAFile         string   // path to TLS CA
	AdminToken        string   // token for admin access
	Source            string   // where the server loads the dataset from (csv, postgres)
	RacesFile         string   // path to races.csv
	DriversFile       string   // path to drivers.csv
	WatchFiles        bool     // reload the dataset when the csv files change
	CacheExpiration   string   // duration a computed dashboard is kept
	ExcludedDrivers   []string // drivers not offered for selection
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)
