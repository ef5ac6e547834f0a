package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"stockscout/internal/domain/models"
	drepo "stockscout/internal/domain/repository"
	"stockscout/pkg/cache"
	"stockscout/pkg/logger"
	"stockscout/pkg/queue"
	"stockscout/pkg/util"

	"github.com/google/uuid"
)

const analyzeJobType = "analyze_ticker"

// ErrScanInProgress is returned when another scan holds the run lock.
var ErrScanInProgress = errors.New("a scan is already running")

// Scanner screens a batch of tickers concurrently and returns results
// sorted by composite score.
type Scanner struct {
	analyzer *Analyzer
	universe drepo.UniverseStore
	cache    cache.Service
	logger   *logger.Logger
	workers  int
	queueSz  int
}

// NewScanner creates a Scanner. With no explicit tickers a scan covers
// the latest universe snapshot. cache may be nil; concurrent scans are
// then not serialized.
func NewScanner(analyzer *Analyzer, universe drepo.UniverseStore, c cache.Service, lgr *logger.Logger, workers, queueSz int) *Scanner {
	if workers <= 0 {
		workers = 4
	}
	if queueSz <= 0 {
		queueSz = 64
	}
	return &Scanner{analyzer: analyzer, universe: universe, cache: c, logger: lgr, workers: workers, queueSz: queueSz}
}

type analyzePayload struct {
	Ticker string `json:"ticker"`
}

// analyzeJob runs one analysis per queue message and collects the outcome.
// Every analysis shares the scan's run ID.
type analyzeJob struct {
	analyzer *Analyzer
	runID    string
	mu       sync.Mutex
	results  []*models.Analysis
	skipped  []models.SkippedTicker
}

func (j *analyzeJob) Name() string { return "analyze" }
func (j *analyzeJob) Type() string { return analyzeJobType }

func (j *analyzeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[analyzePayload](payload)
	if err != nil {
		return err
	}

	a, err := j.analyzer.AnalyzeRun(ctx, p.Ticker, false, j.runID)

	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		// gate failures and provider errors skip the ticker, not the scan
		j.skipped = append(j.skipped, models.SkippedTicker{Ticker: p.Ticker, Reason: skipReason(err)})
		return nil
	}
	j.results = append(j.results, a)
	return nil
}

func skipReason(err error) string {
	if errors.Is(err, ErrOutsideCapRange) {
		return "outside market cap range"
	}
	return err.Error()
}

// Scan analyzes the requested tickers (or the latest universe when none
// are given), filters by minimum score, and returns the top results.
func (s *Scanner) Scan(ctx context.Context, req *models.ScanRequest) (*models.ScanResult, error) {
	if s.cache != nil {
		lockKey := cache.ScanLockKey(util.DateStamp(time.Now().UTC()))
		ok, err := s.cache.TryLock(ctx, lockKey, 10*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		if !ok {
			return nil, ErrScanInProgress
		}
		defer func() {
			if err := s.cache.Unlock(context.Background(), lockKey); err != nil {
				s.logger.Warn("scan unlock failed", logger.Error(err))
			}
		}()
	}

	tickers := req.Tickers
	if len(tickers) == 0 {
		u, err := s.universe.LoadLatest(ctx)
		if err != nil {
			return nil, fmt.Errorf("load universe: %w", err)
		}
		for _, e := range u.Entries {
			tickers = append(tickers, e.Ticker)
		}
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers to scan")
	}

	result := &models.ScanResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Requested: len(tickers),
	}

	job := &analyzeJob{analyzer: s.analyzer, runID: result.RunID}
	pool := queue.NewPool(s.logger, &queue.Config{Workers: s.workers, QueueSize: s.queueSz}, []queue.Job{job})
	if err := pool.Start(); err != nil {
		return nil, fmt.Errorf("start scan pool: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pool.Stop(stopCtx)
	}()

	for _, t := range tickers {
		if err := pool.PublishMessage(ctx, analyzeJobType, analyzePayload{Ticker: t}); err != nil {
			return nil, fmt.Errorf("enqueue %s: %w", t, err)
		}
	}
	pool.Wait()

	results := job.results
	sort.Slice(results, func(i, k int) bool {
		return results[i].CompositeScore > results[k].CompositeScore
	})

	if req.MinScore > 0 {
		filtered := results[:0]
		for _, a := range results {
			if a.CompositeScore >= req.MinScore {
				filtered = append(filtered, a)
			}
		}
		results = filtered
	}
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}

	result.Results = results
	result.Analyzed = len(job.results)
	result.Skipped = job.skipped
	result.FinishedAt = time.Now().UTC()

	s.logger.Info("scan finished",
		logger.String("run_id", result.RunID),
		logger.Int("requested", result.Requested),
		logger.Int("analyzed", result.Analyzed),
		logger.Int("skipped", len(result.Skipped)),
		logger.Duration("took", result.FinishedAt.Sub(result.StartedAt)))

	return result, nil
}
