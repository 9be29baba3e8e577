package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/andreypavlenko/matchday/internal/config"
	httpPlatform "github.com/andreypavlenko/matchday/internal/platform/http"
	"github.com/andreypavlenko/matchday/internal/platform/logger"
	"github.com/andreypavlenko/matchday/internal/platform/postgres"
	"github.com/andreypavlenko/matchday/internal/platform/redis"
	"github.com/andreypavlenko/matchday/internal/platform/sentry"
	"github.com/andreypavlenko/matchday/internal/platform/storage"

	actionRepo "github.com/andreypavlenko/matchday/modules/actions/repository"
	pickRepo "github.com/andreypavlenko/matchday/modules/allocation/repository"
	jobRepo "github.com/andreypavlenko/matchday/modules/jobs/repository"
	mappingRepo "github.com/andreypavlenko/matchday/modules/matching/repository"
	masterRepo "github.com/andreypavlenko/matchday/modules/masters/repository"
	mastersvc "github.com/andreypavlenko/matchday/modules/masters/service"
	pipelinemodel "github.com/andreypavlenko/matchday/modules/pipeline/model"
	pipelineservice "github.com/andreypavlenko/matchday/modules/pipeline/service"
	popRepo "github.com/andreypavlenko/matchday/modules/popularity/repository"
	profileRepo "github.com/andreypavlenko/matchday/modules/profiles/repository"
	queueRepo "github.com/andreypavlenko/matchday/modules/queue/repository"
	enrichmentRepo "github.com/andreypavlenko/matchday/modules/scoring/repository"
	userRepo "github.com/andreypavlenko/matchday/modules/users/repository"

	"github.com/gin-gonic/gin"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Exit codes per §6.4.
const (
	exitOK               = 0
	exitConfigError      = 1
	exitIngestFailure    = 2
	exitScoringFailure   = 3
	exitDeadlineExceeded = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	batchDateFlag := flag.String("batch-date", "", "batch date to process, YYYY-MM-DD (default: today)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return exitConfigError
	}

	if err := sentry.Init(cfg.Sentry); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init sentry: %v\n", err)
		return exitConfigError
	}
	defer sentry.Flush(2 * time.Second)

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return exitConfigError
	}
	defer log.Sync()

	now := time.Now().UTC()
	batchDate := now.Truncate(24 * time.Hour)
	if *batchDateFlag != "" {
		parsed, err := time.Parse("2006-01-02", *batchDateFlag)
		if err != nil {
			log.Error("invalid --batch-date", zap.String("value", *batchDateFlag), zap.Error(err))
			return exitConfigError
		}
		batchDate = parsed
	}
	batchID := fmt.Sprintf("%s-%s", batchDate.Format("2006-01-02"), uuid.New().String()[:8])
	log = log.WithBatchID(batchID)

	ctx := context.Background()

	pgClient, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to connect to postgres", zap.Error(err))
		return exitConfigError
	}
	defer pgClient.Close()

	if err := postgres.RunMigrations(ctx, cfg.Database, log, "./db/migrations"); err != nil {
		log.Error("failed to run migrations", zap.Error(err))
		return exitConfigError
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", zap.Error(err))
		return exitConfigError
	}
	defer redisClient.Close()

	lockOwner := batchID
	acquired, err := redisClient.AcquireBatchLock(ctx, batchDate.Format("2006-01-02"), lockOwner, cfg.Pipeline.HardDeadline+5*time.Minute)
	if err != nil {
		log.Error("failed to acquire batch lock", zap.Error(err))
		return exitConfigError
	}
	if !acquired {
		log.Warn("another run already owns this batch date, exiting", zap.String("batch_date", batchDate.Format("2006-01-02")))
		return exitConfigError
	}
	defer func() {
		if err := redisClient.ReleaseBatchLock(context.Background(), batchDate.Format("2006-01-02"), lockOwner); err != nil {
			log.Warn("failed to release batch lock", zap.Error(err))
		}
	}()

	masterRepository := masterRepo.NewMasterRepository(pgClient.Pool)
	masters, err := mastersvc.Load(ctx, masterRepository)
	if err != nil {
		log.Error("failed to load master cache", zap.Error(err))
		return exitConfigError
	}

	deps := pipelineservice.Deps{
		Jobs:        jobRepo.NewJobRepository(pgClient.Pool),
		Users:       userRepo.NewUserRepository(pgClient.Pool),
		Actions:     actionRepo.NewActionRepository(pgClient.Pool),
		Popularity:  popRepo.NewPopularityRepository(pgClient.Pool),
		Enrichment:  enrichmentRepo.NewEnrichmentRepository(pgClient.Pool),
		ProfileRepo: profileRepo.NewProfileRepository(pgClient.Pool),
		Mappings:    mappingRepo.NewMappingRepository(pgClient.Pool),
		Picks:       pickRepo.NewPickRepository(pgClient.Pool),
		Queue:       queueRepo.NewQueueRepository(pgClient.Pool),
		Masters:     masters,
		Log:         log,
	}

	orchestrator := pipelineservice.New(deps, cfg.Pipeline)

	status := newBatchStatus(batchID, batchDate.Format("2006-01-02"), now)
	stopServer := serveLiveness(cfg.Server, pgClient, redisClient, log, status)
	defer stopServer()

	csvSource, err := openCSVSource(ctx, cfg, batchDate)
	if err != nil {
		log.Error("failed to open job csv source", zap.Error(err))
		sentry.CaptureFatal(batchID, "ingest", err)
		return exitIngestFailure
	}
	defer csvSource.Close()

	result, err := orchestrator.Run(ctx, batchID, batchDate, now, csvSource)
	if err != nil {
		var stageErr *pipelineservice.StageFailure
		stage := "unknown"
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		status.setFailed(stage)
		log.Error("batch run failed", zap.String("stage", stage), zap.Error(err))
		sentry.CaptureFatal(batchID, stage, err)

		if errors.Is(err, context.DeadlineExceeded) {
			return exitDeadlineExceeded
		}
		if stage == "ingest" {
			return exitIngestFailure
		}
		return exitScoringFailure
	}

	status.setCompleted(result.Summary)
	log.Info("batch run complete",
		zap.Int("users_processed", result.Summary.UsersProcessed),
		zap.Int("jobs_scored", result.Summary.JobsScored),
		zap.Int("picks_written", result.Summary.PicksWritten),
		zap.Int("queue_rows", result.Summary.QueueRows),
		zap.Int("low_inventory_users", result.Summary.LowInventoryUsers),
	)

	return exitOK
}

// openCSVSource opens the day's job export (§6.1) from local disk or S3
// depending on JOB_CSV_SOURCE.
func openCSVSource(ctx context.Context, cfg *config.Config, batchDate time.Time) (readCloser, error) {
	switch cfg.Pipeline.CSVSource {
	case "s3":
		s3Client, err := storage.NewS3Client(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("init s3 client: %w", err)
		}
		return s3Client.FetchDailyCSV(ctx, batchDate)
	default:
		path := cfg.Pipeline.CSVPath
		if path == "" {
			path = fmt.Sprintf("./data/jobs_%s.csv", batchDate.Format("2006-01-02"))
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return f, nil
	}
}

type readCloser interface {
	Read(p []byte) (int, error)
	Close() error
}

// batchStatusSnapshot is the JSON shape served at /status: enough for an
// operator polling the process to see which batch is running and how it
// ended, without reaching into Postgres directly.
type batchStatusSnapshot struct {
	BatchID   string                      `json:"batch_id"`
	BatchDate string                      `json:"batch_date"`
	StartedAt time.Time                   `json:"started_at"`
	Status    string                      `json:"status"`
	FailedAt  string                      `json:"failed_stage,omitempty"`
	Summary   *pipelinemodel.SummaryEvent `json:"summary,omitempty"`
}

// batchStatus is the mutable status holder shared between the main
// goroutine running the batch and the liveness server's /status handler.
type batchStatus struct {
	mu   sync.Mutex
	snap batchStatusSnapshot
}

func newBatchStatus(batchID, batchDate string, startedAt time.Time) *batchStatus {
	return &batchStatus{snap: batchStatusSnapshot{
		BatchID: batchID, BatchDate: batchDate, StartedAt: startedAt, Status: "running",
	}}
}

func (s *batchStatus) setFailed(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Status = "failed"
	s.snap.FailedAt = stage
}

func (s *batchStatus) setCompleted(summary pipelinemodel.SummaryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Status = "completed"
	s.snap.Summary = &summary
}

func (s *batchStatus) snapshot() batchStatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// serveLiveness starts the ambient /healthz and /status server (§6.5)
// for the duration of the batch run, returning a function that shuts it
// down. The batch's own lifetime, not request traffic, governs this
// process's uptime; the returned function gives in-flight requests at
// most five seconds to finish before the server is closed.
func serveLiveness(cfg config.ServerConfig, pg *postgres.Client, rdb *redis.Client, log *logger.Logger, status *batchStatus) func() {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: false}))
	router.Use(httpPlatform.RequestIDMiddleware())
	router.Use(httpPlatform.LoggerMiddleware(log))

	router.GET("/healthz", func(c *gin.Context) {
		services := make(map[string]string)
		if err := pg.Health(c.Request.Context()); err != nil {
			services["postgres"] = "down"
		} else {
			services["postgres"] = "up"
		}
		if err := rdb.Health(c.Request.Context()); err != nil {
			services["redis"] = "down"
		} else {
			services["redis"] = "up"
		}
		httpPlatform.RespondWithHealth(c, services)
	})

	router.GET("/status", func(c *gin.Context) {
		httpPlatform.RespondWithData(c, http.StatusOK, status.snapshot())
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: router}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("liveness server stopped unexpectedly", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
