package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the sequencer service.
type Config struct {
	// Server Configuration
	ListenAddr  string
	MetricsAddr string

	// Database Configuration (URL-based)
	DatabaseURL         string
	DatabaseMaxConns    int
	DatabaseMinConns    int
	DatabaseMaxIdleTime int // seconds
	DatabaseMaxLifetime int // seconds

	// L1 (Ethereum) Configuration
	EthereumURL          string
	EthChainID           int64
	L1BridgeContractAddr string
	L1Confirmations      int
	L1PollIntervalMs     int

	// L2 (Starknet) Configuration
	StarknetRPCURL                string
	StarknetBridgeContract        string
	StarknetProofRegistryContract string
	StarknetAccountAddress        string
	StarknetPrivateKey            string
	StarknetMaxRetries            int
	StarknetRetryDelayMs          int
	StarknetTxTimeoutMs           int

	// Cairo Prover Configuration
	CairoProjectDir        string
	ProofClientConcurrency int
	ProofClientMaxRetries  int

	// Tree Builder Configuration
	TreeBuilderPollIntervalSeconds int
	TreeBuilderBatchSize           int

	// Proof Client / Relay Poll Intervals
	ProofClientPollIntervalSeconds int
	RelayPollIntervalSeconds       int

	// Service Shutdown
	ShutdownGracePeriodSeconds int

	LogLevel string
}

// Load reads configuration from environment variables. Call Validate()
// (or ValidateForDevelopment() for local runs) afterward.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("API_PORT", "8080"),
		MetricsAddr: getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("METRICS_PORT", "9090"),

		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 25),
		DatabaseMinConns:    getEnvInt("DATABASE_MIN_CONNS", 5),
		DatabaseMaxIdleTime: getEnvInt("DATABASE_MAX_IDLE_TIME", 300),
		DatabaseMaxLifetime: getEnvInt("DATABASE_MAX_LIFETIME", 3600),

		EthereumURL:          getEnv("ETHEREUM_URL", ""),
		EthChainID:           getEnvInt64("ETH_CHAIN_ID", 11155111),
		L1BridgeContractAddr: getEnv("L1_BRIDGE_CONTRACT_ADDRESS", ""),
		L1Confirmations:      getEnvInt("L1_CONFIRMATIONS", 6),
		L1PollIntervalMs:     getEnvInt("L1_POLL_INTERVAL_MS", 12000),

		StarknetRPCURL:                getEnv("STARKNET_RPC_URL", ""),
		StarknetBridgeContract:        getEnv("STARKNET_BRIDGE_CONTRACT", ""),
		StarknetProofRegistryContract: getEnv("STARKNET_PROOF_REGISTRY_CONTRACT", ""),
		StarknetAccountAddress:        getEnv("STARKNET_ACCOUNT_ADDRESS", ""),
		StarknetPrivateKey:            getEnv("STARKNET_PRIVATE_KEY", ""),
		StarknetMaxRetries:            getEnvInt("STARKNET_MAX_RETRIES", 5),
		StarknetRetryDelayMs:          getEnvInt("STARKNET_RETRY_DELAY_MS", 2000),
		StarknetTxTimeoutMs:           getEnvInt("STARKNET_TX_TIMEOUT_MS", 60000),

		CairoProjectDir:        getEnv("CAIRO_PROJECT_DIR", "./cairo"),
		ProofClientConcurrency: getEnvInt("PROOF_CLIENT_CONCURRENCY", 4),
		ProofClientMaxRetries:  getEnvInt("PROOF_CLIENT_MAX_RETRIES", 3),

		TreeBuilderPollIntervalSeconds: getEnvInt("TREE_BUILDER_POLL_INTERVAL_SECONDS", 10),
		TreeBuilderBatchSize:           getEnvInt("TREE_BUILDER_BATCH_SIZE", 100),

		ProofClientPollIntervalSeconds: getEnvInt("PROOF_CLIENT_POLL_INTERVAL_SECONDS", 15),
		RelayPollIntervalSeconds:       getEnvInt("RELAY_POLL_INTERVAL_SECONDS", 15),

		ShutdownGracePeriodSeconds: getEnvInt("SHUTDOWN_GRACE_PERIOD_SECONDS", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks that all configuration required to run against live
// chains is present.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required but not set")
	}
	if c.EthereumURL == "" {
		errs = append(errs, "ETHEREUM_URL is required but not set")
	}
	if c.L1BridgeContractAddr == "" {
		errs = append(errs, "L1_BRIDGE_CONTRACT_ADDRESS is required but not set")
	}
	if c.StarknetRPCURL == "" {
		errs = append(errs, "STARKNET_RPC_URL is required but not set")
	}
	if c.StarknetBridgeContract == "" {
		errs = append(errs, "STARKNET_BRIDGE_CONTRACT is required but not set")
	}
	if c.StarknetProofRegistryContract == "" {
		errs = append(errs, "STARKNET_PROOF_REGISTRY_CONTRACT is required but not set")
	}
	if c.StarknetAccountAddress == "" {
		errs = append(errs, "STARKNET_ACCOUNT_ADDRESS is required but not set")
	}
	if c.StarknetPrivateKey == "" {
		errs = append(errs, "STARKNET_PRIVATE_KEY is required but not set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateForDevelopment performs relaxed validation suitable for local
// development against a devnet. Do not use this in production.
func (c *Config) ValidateForDevelopment() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("development configuration validation failed: DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
