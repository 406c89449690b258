package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/util"
)

const (
	NonceStoreMemory   = "memory"
	NonceStorePostgres = "postgres"
)

type Database struct {
	Host     string
	Port     int
	Username string
	Password string `json:"-"` // sensitive
	Database string
	SSLMode  string
}

// ConnectionString returns a lib/pq compatible DSN.
func (c Database) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

type EchoServer struct {
	Debug         bool
	ListenAddress string
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	PrettyPrintConsole bool
}

type ManagementServer struct {
	ReadinessTimeout time.Duration
	LivenessTimeout  time.Duration
}

// Wallet configures the remote key identity and the default transfer flow.
type Wallet struct {
	KeyName              string
	Curve                string
	DerivationContextHex string
	ChainID              int64
	GasLimit             uint64
	DefaultRecipient     string
	DefaultValueWei      string
	ExpectedAddress      string // empty skips the startup check
	MaxFeePerGasWei      string // empty means estimate through the relay
	MaxPriorityFeeWei    string // empty means estimate through the relay
	NonceStore           string
	NonceDriftCheck      bool
}

// Signer configures the client of the remote threshold signer.
type Signer struct {
	Endpoint string
	Timeout  time.Duration
}

// Relay configures the metered JSON-RPC gateway.
type Relay struct {
	Endpoints        []string
	Timeout          time.Duration
	MaxResponseBytes uint64
	CycleBudget      uint64
	SubnetNodes      uint64
	RequestsPerSec   float64
	Burst            int
}

// DevSigner configures the local stand-in for the remote signer (development only).
type DevSigner struct {
	ListenAddress string
	KeyNames      []string
	KeystorePath  string
	Mnemonic      string `json:"-"` // sensitive
	Password      string `json:"-"` // sensitive
}

type Server struct {
	Database   Database
	Echo       EchoServer
	Logger     LoggerServer
	Management ManagementServer
	Wallet     Wallet
	Signer     Signer
	Relay      Relay
	DevSigner  DevSigner
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
// Do NOT use os.Setenv / os.Unsetenv in tests utilizing DefaultServiceConfigFromEnv()!
func DefaultServiceConfigFromEnv() Server {
	// An `.env.local` file in your project root can override the currently set ENV variables.
	//
	// We never automatically apply `.env.local` when running "go test" as these ENV variables
	// may be sensitive (e.g. secrets to external APIs) and applying them modifies the process
	// global "os.Env" state (it should be applied via t.Setenv instead).
	//
	// If you need dotenv ENV variables available in a test, do that explicitly within that
	// test before executing DefaultServiceConfigFromEnv (or test.WithTestServer).
	if !runningTests() {
		DotEnvTryLoad(filepath.Join(util.GetEnv("PROJECT_ROOT_DIR", "."), ".env.local"), os.Setenv)
	}

	return Server{
		Database: Database{
			Host:     util.GetEnv("PGHOST", "postgres"),
			Port:     util.GetEnvAsInt("PGPORT", 5432),
			Database: util.GetEnv("PGDATABASE", "wallet"),
			Username: util.GetEnv("PGUSER", "dbuser"),
			Password: util.GetEnv("PGPASSWORD", ""),
			SSLMode:  util.GetEnv("PGSSLMODE", "disable"),
		},
		Echo: EchoServer{
			Debug:         util.GetEnvAsBool("SERVER_ECHO_DEBUG", false),
			ListenAddress: util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
		},
		Logger: LoggerServer{
			Level:              util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_LEVEL", zerolog.DebugLevel.String())),
			RequestLevel:       util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_REQUEST_LEVEL", zerolog.DebugLevel.String())),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Management: ManagementServer{
			ReadinessTimeout: util.GetEnvAsDuration("SERVER_MANAGEMENT_READINESS_TIMEOUT", 4*time.Second),
			LivenessTimeout:  util.GetEnvAsDuration("SERVER_MANAGEMENT_LIVENESS_TIMEOUT", 9*time.Second),
		},
		Wallet: Wallet{
			KeyName:              util.GetEnv("WALLET_KEY_NAME", "test_key_1"),
			Curve:                util.GetEnvEnum("WALLET_KEY_CURVE", "secp256k1", []string{"secp256k1"}),
			DerivationContextHex: util.GetEnv("WALLET_DERIVATION_CONTEXT", ""),
			ChainID:              util.GetEnvAsInt64("WALLET_CHAIN_ID", 11155111), // Sepolia
			GasLimit:             util.GetEnvAsUint64("WALLET_GAS_LIMIT", 21000),
			DefaultRecipient:     util.GetEnv("WALLET_DEFAULT_RECIPIENT", ""),
			DefaultValueWei:      util.GetEnv("WALLET_DEFAULT_VALUE_WEI", "1"),
			ExpectedAddress:      util.GetEnv("WALLET_EXPECTED_ADDRESS", ""),
			MaxFeePerGasWei:      util.GetEnv("WALLET_MAX_FEE_PER_GAS_WEI", ""),
			MaxPriorityFeeWei:    util.GetEnv("WALLET_MAX_PRIORITY_FEE_PER_GAS_WEI", ""),
			NonceStore:           util.GetEnvEnum("WALLET_NONCE_STORE", NonceStoreMemory, []string{NonceStoreMemory, NonceStorePostgres}),
			NonceDriftCheck:      util.GetEnvAsBool("WALLET_NONCE_DRIFT_CHECK", true),
		},
		Signer: Signer{
			Endpoint: util.GetEnv("SIGNER_ENDPOINT", "http://127.0.0.1:8645"),
			Timeout:  util.GetEnvAsDuration("SIGNER_TIMEOUT", 30*time.Second),
		},
		Relay: Relay{
			Endpoints:        util.GetEnvAsStringArr("RELAY_ENDPOINTS", []string{"https://ethereum-sepolia-rpc.publicnode.com"}),
			Timeout:          util.GetEnvAsDuration("RELAY_TIMEOUT", 20*time.Second),
			MaxResponseBytes: util.GetEnvAsUint64("RELAY_MAX_RESPONSE_BYTES", 8192),
			CycleBudget:      util.GetEnvAsUint64("RELAY_CYCLE_BUDGET", 2_000_000_000_000),
			SubnetNodes:      util.GetEnvAsUint64("RELAY_SUBNET_NODES", 13),
			RequestsPerSec:   util.GetEnvAsFloat("RELAY_REQUESTS_PER_SECOND", 10),
			Burst:            util.GetEnvAsInt("RELAY_BURST", 5),
		},
		DevSigner: DevSigner{
			ListenAddress: util.GetEnv("DEVSIGNER_LISTEN_ADDRESS", "127.0.0.1:8645"),
			KeyNames:      util.GetEnvAsStringArr("DEVSIGNER_KEY_NAMES", []string{"dfx_test_key", "test_key_1", "key_1"}),
			KeystorePath:  util.GetEnv("DEVSIGNER_KEYSTORE_PATH", ""),
			Mnemonic:      util.GetEnv("DEVSIGNER_MNEMONIC", ""),
			Password:      util.GetEnv("DEVSIGNER_PASSWORD", ""),
		},
	}
}

var (
	testingOnce sync.Once
	isTesting   bool
)

func runningTests() bool {
	testingOnce.Do(func() {
		isTesting = filepath.Ext(os.Args[0]) == ".test" || util.GetEnvAsBool("WALLET_TESTING", false)
		if isTesting {
			log.Debug().Msg("Running in test mode, .env.local is ignored")
		}
	})

	return isTesting
}
