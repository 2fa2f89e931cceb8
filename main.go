package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vibin_matcher/config"
	"vibin_matcher/controllers"
	"vibin_matcher/matching"
	"vibin_matcher/routes"
	"vibin_matcher/services"
	"vibin_matcher/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	log := stdr.New(stdlog.New(os.Stderr, "", stdlog.LstdFlags|stdlog.Lmicroseconds))

	cfg, err := config.Load()
	if err != nil {
		log.Error(err, "failed to load config")
		os.Exit(1)
	}
	stdr.SetVerbosity(cfg.Log.Verbosity)
	utils.Log = log.WithName("http")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	weights, err := config.LoadWeights(cfg.Scoring.WeightsFile)
	if err != nil {
		log.Error(err, "failed to load scoring weights")
		os.Exit(1)
	}

	var awsCfg *aws.Config
	if cfg.Store.Backend == config.BackendDynamoDB || cfg.Report.Bucket != "" {
		c, err := services.LoadAWSConfig(ctx, cfg.AWS.Region)
		if err != nil {
			log.Error(err, "failed to initialize AWS")
			os.Exit(1)
		}
		awsCfg = &c
	}

	store, locker, lookup, closeStore, err := buildStore(cfg, awsCfg, log)
	if err != nil {
		log.Error(err, "failed to initialize pool store", "backend", cfg.Store.Backend)
		os.Exit(1)
	}
	defer closeStore()
	log.Info("pool store initialized", "backend", cfg.Store.Backend)

	coordinator := matching.NewCoordinator(store, locker, weights, log.WithName("coordinator"))
	coordinator.LockKey = cfg.Lock.Key
	if cfg.Report.Bucket != "" {
		coordinator.Reports = services.NewS3ReportArchive(*awsCfg, cfg.Report.Bucket, cfg.Report.Prefix)
		log.Info("run reports archived to S3", "bucket", cfg.Report.Bucket, "prefix", cfg.Report.Prefix)
	}

	batchController := controllers.NewBatchController(coordinator, log.WithName("http"))
	matchController := controllers.NewMatchController(lookup, log.WithName("http"))

	if cfg.Schedule.Interval > 0 {
		go runSchedule(ctx, cfg.Schedule.Interval, batchController, log.WithName("schedule"))
	}

	r := mux.NewRouter()
	routes.RegisterRoutes(r)
	routes.RegisterBatchRoutes(r, batchController)
	routes.RegisterMatchRoutes(r, matchController)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: corsHandler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err, "server stopped")
		os.Exit(1)
	}
}

func buildStore(cfg config.Config, awsCfg *aws.Config, log logr.Logger) (matching.PoolStore, matching.Locker, controllers.MatchLookup, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		store, err := services.OpenSQLite(cfg.Store.SQLitePath, log.WithName("sqlite"))
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return store, services.NewSQLiteLocker(store, cfg.Lock.Lease), store, func() { _ = store.Close() }, nil
	case config.BackendMemory:
		store := services.NewMemoryStore()
		return store, services.NewMemoryLocker(), store, func() {}, nil
	}

	dynamo := &services.DynamoService{Client: services.InitializeDynamoDBClient(*awsCfg)}
	tables := services.Tables{
		Pool:       cfg.DynamoDB.PoolTable,
		Intentions: cfg.DynamoDB.IntentionsTable,
		Users:      cfg.DynamoDB.UsersTable,
		Survey:     cfg.DynamoDB.SurveyTable,
		Matches:    cfg.DynamoDB.MatchesTable,
		Locks:      cfg.DynamoDB.LockTable,
	}
	store := &services.DynamoPoolStore{Dynamo: dynamo, Tables: tables, Log: log.WithName("dynamodb")}
	locker := services.NewDynamoLocker(dynamo, tables.Locks, cfg.Lock.Lease, log.WithName("lock"))
	lookup := &services.MatchService{Dynamo: dynamo, Table: tables.Matches, Log: log.WithName("matches")}
	return store, locker, lookup, func() {}, nil
}

// runSchedule triggers a cycle every interval until ctx is done. Overlap
// with HTTP-triggered runs is resolved by the batch lock.
func runSchedule(ctx context.Context, interval time.Duration, c *controllers.BatchController, log logr.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info("batch schedule started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := c.Trigger(ctx)
			log.V(1).Info("scheduled run done", "runId", result.RunID, "success", result.Success, "skipped", result.Skipped)
		}
	}
}
