// Package service wires the daily batch's four-stage DAG (§5): Ingest,
// then Popularity and Profile concurrently, then Scorer, then the
// per-user Matcher+Allocator+Queue fan-out, sharded by hash(user_id)
// mod W so each user is handled entirely by one worker.
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	allocmodel "github.com/andreypavlenko/matchday/modules/allocation/model"
	allocports "github.com/andreypavlenko/matchday/modules/allocation/ports"
	allocservice "github.com/andreypavlenko/matchday/modules/allocation/service"
	ingestmodel "github.com/andreypavlenko/matchday/modules/ingest/model"
	ingestservice "github.com/andreypavlenko/matchday/modules/ingest/service"
	jobmodel "github.com/andreypavlenko/matchday/modules/jobs/model"
	jobports "github.com/andreypavlenko/matchday/modules/jobs/ports"
	matchports "github.com/andreypavlenko/matchday/modules/matching/ports"
	matchservice "github.com/andreypavlenko/matchday/modules/matching/service"
	mastersvc "github.com/andreypavlenko/matchday/modules/masters/service"
	"github.com/andreypavlenko/matchday/modules/pipeline/model"
	popports "github.com/andreypavlenko/matchday/modules/popularity/ports"
	popservice "github.com/andreypavlenko/matchday/modules/popularity/service"
	profilemodel "github.com/andreypavlenko/matchday/modules/profiles/model"
	profileports "github.com/andreypavlenko/matchday/modules/profiles/ports"
	profileservice "github.com/andreypavlenko/matchday/modules/profiles/service"
	queueports "github.com/andreypavlenko/matchday/modules/queue/ports"
	queueservice "github.com/andreypavlenko/matchday/modules/queue/service"
	scoringmodel "github.com/andreypavlenko/matchday/modules/scoring/model"
	scoreports "github.com/andreypavlenko/matchday/modules/scoring/ports"
	scoreservice "github.com/andreypavlenko/matchday/modules/scoring/service"
	actionports "github.com/andreypavlenko/matchday/modules/actions/ports"
	usermodel "github.com/andreypavlenko/matchday/modules/users/model"
	userports "github.com/andreypavlenko/matchday/modules/users/ports"

	"github.com/andreypavlenko/matchday/internal/config"
	"github.com/andreypavlenko/matchday/internal/platform/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StageFailure wraps an error with the DAG stage it aborted in, so the
// caller can map it to the §7 exit-code table without string-matching
// error text.
type StageFailure struct {
	Stage string
	Err   error
}

func (f *StageFailure) Error() string { return fmt.Sprintf("%s: %v", f.Stage, f.Err) }
func (f *StageFailure) Unwrap() error { return f.Err }

func fail(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageFailure{Stage: stage, Err: err}
}

// Deps bundles every repository dependency the orchestrator wires
// together. All fields are required.
type Deps struct {
	Jobs        jobports.JobRepository
	Users       userports.UserRepository
	Actions     actionports.ActionRepository
	Popularity  popports.PopularityRepository
	Enrichment  scoreports.EnrichmentRepository
	ProfileRepo profileports.ProfileRepository
	Mappings    matchports.MappingRepository
	Picks       allocports.PickRepository
	Queue       queueports.QueueRepository
	Masters     *mastersvc.Cache
	Log         *logger.Logger
}

// Orchestrator runs one batch end to end, following the concurrency
// model of §5: a DAG of barriered stages, sharding by user within the
// final fan-out.
type Orchestrator struct {
	deps    Deps
	cfg     config.PipelineConfig
	ingest  *ingestservice.Ingester
	pop     *popservice.Aggregator
	scorer  *scoreservice.Scorer
	builder *profileservice.Builder
	matcher *matchservice.Matcher
	alloc   *allocservice.Allocator
	writer  *queueservice.Writer
}

// New builds an Orchestrator over deps, constructing each stage's
// service from cfg's tunables (§6.3).
func New(deps Deps, cfg config.PipelineConfig) *Orchestrator {
	return &Orchestrator{
		deps:    deps,
		cfg:     cfg,
		ingest:  ingestservice.NewIngester(deps.Jobs, deps.Masters, deps.Log, cfg.BatchSize, cfg.WorkersIngest, cfg.InactiveGraceDays),
		pop:     popservice.NewAggregator(deps.Actions),
		scorer:  scoreservice.NewScorer(deps.Jobs, deps.Popularity, deps.Actions, deps.Masters),
		builder: profileservice.NewBuilder(deps.Actions),
		matcher: matchservice.NewMatcher(deps.Masters, cfg.TopK, cfg.NewWindowDays),
		alloc:   allocservice.NewAllocator(deps.Masters, cfg.SectionQuotas, cfg.NewWindowDays),
		writer:  queueservice.NewWriter(),
	}
}

// Result is the orchestrator's return shape: the §6.5 summary plus the
// per-stage events collected along the way.
type Result struct {
	Summary model.SummaryEvent
	Stages  []model.StageEvent
}

// Run executes the full batch for batchDate, reading the day's job CSV
// from csv. now is the wall-clock reference every stage's windows are
// computed relative to (separate from batchDate so a late-running
// batch still uses consistent windows throughout).
func (o *Orchestrator) Run(ctx context.Context, batchID string, batchDate, now time.Time, csv io.Reader) (*Result, error) {
	log := o.deps.Log.WithBatchID(batchID)
	res := &Result{Summary: model.SummaryEvent{BatchID: batchID, BatchDate: batchDate, StartedAt: now}}

	hardCtx, cancel := context.WithDeadline(ctx, now.Add(o.cfg.HardDeadline))
	defer cancel()

	ingestResult, err := o.runIngest(hardCtx, log, csv, now, res)
	if err != nil {
		return o.finish(res, now, err)
	}
	_ = ingestResult

	users, err := o.deps.Users.ListEligibleActive(hardCtx)
	if err != nil {
		return o.finish(res, now, fail("ingest", fmt.Errorf("list eligible users: %w", err)))
	}

	profiles, err := o.runPopularityAndProfiles(hardCtx, log, users, now, res)
	if err != nil {
		return o.finish(res, now, err)
	}

	enrichment, err := o.runScorer(hardCtx, log, now, res)
	if err != nil {
		return o.finish(res, now, err)
	}

	jobs, err := o.deps.Jobs.ListEligible(hardCtx, o.cfg.ValidEmploymentTypes, o.cfg.FeeMin, now)
	if err != nil {
		return o.finish(res, now, fail("match", fmt.Errorf("list eligible jobs for matching: %w", err)))
	}
	res.Summary.JobsScored = len(enrichment)

	if err := o.runMatchAllocateQueue(hardCtx, log, users, profiles, jobs, enrichment, batchDate, now, res); err != nil {
		return o.finish(res, now, err)
	}

	return o.finish(res, now, nil)
}

func (o *Orchestrator) finish(res *Result, now time.Time, err error) (*Result, error) {
	res.Summary.FinishedAt = now
	if err != nil {
		res.Summary.Status = model.StatusFailed
		return res, err
	}
	res.Summary.Status = model.StatusCompleted
	return res, nil
}

func (o *Orchestrator) runIngest(ctx context.Context, log *logger.Logger, csv io.Reader, now time.Time, res *Result) (*ingestmodel.Result, error) {
	stageLog := log.WithStage("ingest")
	started := time.Now()

	deadlineCtx, cancel := context.WithDeadline(ctx, started.Add(o.cfg.SoftDeadlines.Ingest))
	ingestResult, err := o.ingest.Run(ctx, csv, now)
	missedSoft := deadlineCtx.Err() != nil
	cancel()

	ev := model.StageEvent{Stage: "ingest", StartedAt: started, FinishedAt: time.Now(), MissedSoftDeadline: missedSoft}
	if ingestResult != nil {
		ev.RecordsIn = ingestResult.Read
		ev.RecordsOut = ingestResult.Accepted
		for _, r := range ingestResult.RejectionReasons {
			ev.Rejections = append(ev.Rejections, r.Code)
		}
	}
	res.Stages = append(res.Stages, ev)

	if err != nil {
		stageLog.Error("ingest failed", zap.Error(err))
		return ingestResult, fail("ingest", err)
	}
	if missedSoft {
		stageLog.Warn("ingest missed its soft deadline")
	}
	stageLog.Info("ingest complete", zap.Int("accepted", ev.RecordsOut), zap.Int("rejected", ingestResult.Rejected), zap.Int("deactivated", ingestResult.Deactivated))
	return ingestResult, nil
}

// runPopularityAndProfiles runs the Popularity and Profile stages
// concurrently (§5: both depend only on Ingest); neither reads the
// other's output, so they share no barrier between themselves.
func (o *Orchestrator) runPopularityAndProfiles(ctx context.Context, log *logger.Logger, users []*usermodel.User, now time.Time, res *Result) (map[int32]*profilemodel.UserProfile, error) {
	var profiles map[int32]*profilemodel.UserProfile
	var popErr, profileErr error
	var popEvent, profileEvent model.StageEvent

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		started := time.Now()
		deadlineCtx, cancel := context.WithDeadline(groupCtx, started.Add(o.cfg.SoftDeadlines.Popularity))
		rows, err := o.pop.Run(groupCtx, now)
		missedSoft := deadlineCtx.Err() != nil
		cancel()
		popEvent = model.StageEvent{Stage: "popularity", StartedAt: started, FinishedAt: time.Now(), RecordsOut: len(rows), MissedSoftDeadline: missedSoft}
		if err != nil {
			popErr = fail("popularity", err)
			return nil
		}
		if missedSoft {
			log.WithStage("popularity").Warn("popularity missed its soft deadline")
		}
		if err := o.deps.Popularity.UpsertBatch(groupCtx, rows); err != nil {
			popErr = fail("popularity", fmt.Errorf("persist popularity: %w", err))
		}
		return nil
	})

	group.Go(func() error {
		started := time.Now()
		deadlineCtx, cancel := context.WithDeadline(groupCtx, started.Add(o.cfg.SoftDeadlines.Profile))
		built, err := profileservice.Run(groupCtx, o.builder, o.deps.ProfileRepo, users, o.cfg.WorkersProfile, now)
		missedSoft := deadlineCtx.Err() != nil
		cancel()
		profileEvent = model.StageEvent{Stage: "profile", StartedAt: started, FinishedAt: time.Now(), RecordsIn: len(users), RecordsOut: len(built), MissedSoftDeadline: missedSoft}
		if err != nil {
			profileErr = fail("profile", err)
			return nil
		}
		if missedSoft {
			log.WithStage("profile").Warn("profile missed its soft deadline")
		}
		profiles = built
		return nil
	})

	_ = group.Wait()

	res.Stages = append(res.Stages, popEvent, profileEvent)
	log.WithStage("popularity").Info("popularity complete", zap.Int("employers", popEvent.RecordsOut))
	log.WithStage("profile").Info("profile complete", zap.Int("users", profileEvent.RecordsOut))

	if popErr != nil {
		return nil, popErr
	}
	if profileErr != nil {
		return nil, profileErr
	}
	return profiles, nil
}

func (o *Orchestrator) runScorer(ctx context.Context, log *logger.Logger, now time.Time, res *Result) (map[int64]scoringmodel.JobEnrichment, error) {
	stageLog := log.WithStage("scorer")
	started := time.Now()

	deadlineCtx, cancel := context.WithDeadline(ctx, started.Add(o.cfg.SoftDeadlines.Scorer))
	rows, err := o.scorer.Run(ctx, now)
	missedSoft := deadlineCtx.Err() != nil
	cancel()

	ev := model.StageEvent{Stage: "scorer", StartedAt: started, FinishedAt: time.Now(), RecordsOut: len(rows), MissedSoftDeadline: missedSoft}
	res.Stages = append(res.Stages, ev)
	if err != nil {
		stageLog.Error("scorer failed", zap.Error(err))
		return nil, fail("scorer", err)
	}
	if missedSoft {
		stageLog.Warn("scorer missed its soft deadline")
	}

	if err := o.deps.Enrichment.UpsertBatch(ctx, rows); err != nil {
		return nil, fail("scorer", fmt.Errorf("persist enrichment: %w", err))
	}

	enrichment, err := o.deps.Enrichment.All(ctx)
	if err != nil {
		return nil, fail("scorer", fmt.Errorf("reload enrichment: %w", err))
	}

	stageLog.Info("scorer complete", zap.Int("jobs_scored", len(rows)))
	return enrichment, nil
}

// runMatchAllocateQueue shards users by hash(user_id) mod WorkersMatch
// and runs Matcher, Allocator and Queue Writer back to back within each
// shard, since each user is handled entirely by one worker (§4.G, §5).
func (o *Orchestrator) runMatchAllocateQueue(ctx context.Context, log *logger.Logger, users []*usermodel.User, profiles map[int32]*profilemodel.UserProfile, jobs []*jobmodel.Job, enrichment map[int64]scoringmodel.JobEnrichment, batchDate, now time.Time, res *Result) error {
	workers := o.cfg.WorkersMatch
	if workers <= 0 {
		workers = 8
	}

	shards := make([][]*usermodel.User, workers)
	for _, u := range users {
		shard := int(uint32(u.UserID)) % workers
		shards[shard] = append(shards[shard], u)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	usersProcessed := make([]int, workers)
	picksWritten := make([]int, workers)
	queueRows := make([]int, workers)
	lowInventory := make([]int, workers)

	for i, shard := range shards {
		i, shard := i, shard
		if len(shard) == 0 {
			continue
		}
		group.Go(func() error {
			ranked, err := matchservice.Run(groupCtx, o.matcher, o.deps.Mappings, shard, profiles, jobs, enrichment, batchDate, now)
			if err != nil {
				return fail("match", fmt.Errorf("shard %d: %w", i, err))
			}

			allocations, err := allocservice.Run(groupCtx, o.alloc, o.deps.Picks, shard, ranked, batchDate, now)
			if err != nil {
				return fail("match", fmt.Errorf("shard %d allocate: %w", i, err))
			}

			allocByUser := make(map[int32]allocmodel.AllocationResult, len(allocations))
			for _, a := range allocations {
				allocByUser[a.UserID] = a
				picksWritten[i] += len(a.Picks)
				if a.LowInventory {
					lowInventory[i]++
				}
			}

			if err := queueservice.Run(groupCtx, o.writer, o.deps.Queue, shard, allocByUser, batchDate, now); err != nil {
				return fail("match", fmt.Errorf("shard %d queue: %w", i, err))
			}

			usersProcessed[i] = len(shard)
			for _, a := range allocations {
				if len(a.Picks) > 0 {
					queueRows[i]++
				}
			}
			return nil
		})
	}

	matchStart := time.Now()
	deadlineCtx, cancel := context.WithDeadline(ctx, matchStart.Add(o.cfg.SoftDeadlines.Match))
	err := group.Wait()
	missedSoft := deadlineCtx.Err() != nil
	cancel()
	matchLog := log.WithStage("match")

	var totalUsers, totalPicks, totalQueue, totalLow int
	for i := range shards {
		totalUsers += usersProcessed[i]
		totalPicks += picksWritten[i]
		totalQueue += queueRows[i]
		totalLow += lowInventory[i]
	}

	res.Stages = append(res.Stages, model.StageEvent{
		Stage: "match", StartedAt: matchStart, FinishedAt: time.Now(),
		RecordsIn: len(users), RecordsOut: totalUsers, MissedSoftDeadline: missedSoft,
	})
	if missedSoft {
		matchLog.Warn("match/allocate/queue missed its soft deadline")
	}
	res.Summary.UsersProcessed = totalUsers
	res.Summary.PicksWritten = totalPicks
	res.Summary.QueueRows = totalQueue
	res.Summary.LowInventoryUsers = totalLow

	if err != nil {
		matchLog.Error("match/allocate/queue failed", zap.Error(err))
		return err
	}
	matchLog.Info("match/allocate/queue complete",
		zap.Int("users", totalUsers), zap.Int("picks", totalPicks),
		zap.Int("queue_rows", totalQueue), zap.Int("low_inventory_users", totalLow))
	return nil
}
