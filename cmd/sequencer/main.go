// Command sequencer runs the deposit lifecycle engine: HTTP intake, the
// L1 event ingestor, the tree builder, the proof client, and the relay
// driver, all sharing one database connection and one process lifetime.
package main

import (
	"context"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeroxbridge/sequencer/pkg/commitment"
	"github.com/zeroxbridge/sequencer/pkg/config"
	"github.com/zeroxbridge/sequencer/pkg/database"
	"github.com/zeroxbridge/sequencer/pkg/deposit"
	"github.com/zeroxbridge/sequencer/pkg/errs"
	"github.com/zeroxbridge/sequencer/pkg/eventlog"
	"github.com/zeroxbridge/sequencer/pkg/proofclient"
	"github.com/zeroxbridge/sequencer/pkg/relay"
	"github.com/zeroxbridge/sequencer/pkg/server"
	"github.com/zeroxbridge/sequencer/pkg/service"
	"github.com/zeroxbridge/sequencer/pkg/starknet"
	"github.com/zeroxbridge/sequencer/pkg/treebuilder"
	"github.com/zeroxbridge/sequencer/pkg/withdrawal"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration invalid: %v", err)
	}

	dbClient, err := database.NewClient(cfg)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer dbClient.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := dbClient.MigrateUp(migrateCtx); err != nil {
		migrateCancel()
		log.Fatalf("run migrations: %v", err)
	}
	migrateCancel()

	depositRepo := deposit.NewRepository(dbClient)
	withdrawalRepo := withdrawal.NewRepository(dbClient)
	eventRepo := eventlog.NewRepository(dbClient)
	artifactRepo := proofclient.NewArtifactRepository(dbClient)

	ethClient, err := ethclient.Dial(cfg.EthereumURL)
	if err != nil {
		log.Fatalf("dial ethereum rpc: %v", err)
	}
	defer ethClient.Close()

	ingestor, err := eventlog.NewIngestor(ethClient, eventRepo, common.HexToAddress(cfg.L1BridgeContractAddr))
	if err != nil {
		log.Fatalf("build deposit event ingestor: %v", err)
	}

	builder := treebuilder.New(depositRepo, cfg.TreeBuilderBatchSize)
	rehydrateCtx, rehydrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := builder.Rehydrate(rehydrateCtx); err != nil {
		rehydrateCancel()
		log.Fatalf("rehydrate merkle accumulator: %v", err)
	}
	rehydrateCancel()

	proofClient := proofclient.New(proofclient.Config{
		Deposits:        depositRepo,
		Events:          eventRepo,
		Artifacts:       artifactRepo,
		CairoProjectDir: cfg.CairoProjectDir,
		ScratchDir:      filepath.Join(cfg.CairoProjectDir, "scratch"),
		TargetDir:       filepath.Join(cfg.CairoProjectDir, "target", "calldata"),
		BatchSize:       cfg.TreeBuilderBatchSize,
		Concurrency:     cfg.ProofClientConcurrency,
		MaxRetries:      cfg.ProofClientMaxRetries,
	})

	signer, err := starknet.NewLocalSigner(cfg.StarknetPrivateKey)
	if err != nil {
		log.Fatalf("load starknet signer: %v", err)
	}
	accountAddress, err := feltFromHex(cfg.StarknetAccountAddress)
	if err != nil {
		log.Fatalf("parse starknet account address: %v", err)
	}
	bridgeContract, err := feltFromHex(cfg.StarknetBridgeContract)
	if err != nil {
		log.Fatalf("parse starknet bridge contract: %v", err)
	}
	registryContract, err := feltFromHex(cfg.StarknetProofRegistryContract)
	if err != nil {
		log.Fatalf("parse starknet proof registry contract: %v", err)
	}

	starknetCtx, starknetCancel := context.WithTimeout(context.Background(), 10*time.Second)
	starknetClient, err := starknet.NewClient(starknetCtx, cfg.StarknetRPCURL, accountAddress, signer)
	starknetCancel()
	if err != nil {
		log.Fatalf("dial starknet rpc: %v", err)
	}
	defer starknetClient.Close()

	relayDriver := relay.New(relay.Config{
		Deposits:         depositRepo,
		Artifacts:        artifactRepo,
		Client:           starknetClient,
		BridgeContract:   bridgeContract,
		RegistryContract: registryContract,
		MaxRetries:       cfg.StarknetMaxRetries,
		RetryDelayMs:     cfg.StarknetRetryDelayMs,
		TxTimeoutMs:      cfg.StarknetTxTimeoutMs,
	})

	registry := prometheus.NewRegistry()
	treeBuilderTask := builder.NewTask(cfg.TreeBuilderPollIntervalSeconds, service.NewMetrics(registry, "treebuilder"))
	proofClientTask := proofClient.NewTask(cfg.ProofClientPollIntervalSeconds, service.NewMetrics(registry, "proofclient"))
	relayTask := relayDriver.NewTask(cfg.RelayPollIntervalSeconds, service.NewMetrics(registry, "relay"))
	ingestorTask := service.NewTask("ingestor", time.Duration(cfg.L1PollIntervalMs)*time.Millisecond,
		func(ctx context.Context) error {
			_, err := ingestor.Poll(ctx, 0)
			return err
		})
	ingestorTask.Metrics = service.NewMetrics(registry, "ingestor")

	tasks := []*service.Task{treeBuilderTask, proofClientTask, relayTask, ingestorTask}

	ctx, cancel := context.WithCancel(context.Background())
	for _, t := range tasks {
		if err := t.Start(ctx); err != nil {
			log.Fatalf("start %s: %v", t.Name, err)
		}
	}

	handlers := server.NewHandlers(depositRepo, withdrawalRepo, log.New(os.Stderr, "[server] ", log.LstdFlags))
	mux := http.NewServeMux()
	handlers.Routes(mux)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	go func() {
		log.Printf("api listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server: %v", err)
		}
	}()
	go func() {
		log.Printf("metrics listening on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("shutting down")

	cancel()
	grace, graceCancel := service.WithGracePeriod(context.Background(), time.Duration(cfg.ShutdownGracePeriodSeconds)*time.Second)
	defer graceCancel()
	for _, t := range tasks {
		if err := t.Stop(grace); err != nil {
			log.Printf("stop %s: %v", t.Name, err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("api server shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown: %v", err)
	}
	log.Printf("stopped")
}

// feltFromHex parses a 0x-prefixed hex felt, reusing the commitment
// package's 32-byte hex parser since every contract address and account
// address in this configuration fits in one field element.
func feltFromHex(hexStr string) (*big.Int, error) {
	bytes, err := commitment.ParseBytes32Hex(hexStr)
	if err != nil {
		return nil, errs.InvalidInput("malformed hex felt %q: %w", hexStr, err)
	}
	return commitment.FeltFromBytes32(bytes), nil
}
