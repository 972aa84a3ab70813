package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ballog/ballog-api/internal/platform/logging"
	"github.com/ballog/ballog-api/internal/progress"
)

const crawlDateLayout = "2006-01-02"

type RunState string

const (
	RunStateIdle      RunState = "IDLE"
	RunStateRunning   RunState = "RUNNING"
	RunStateCompleted RunState = "COMPLETED"
	RunStateFailed    RunState = "FAILED"
)

// RunStatus is a snapshot of the current or most recent crawl run.
type RunStatus struct {
	State         RunState
	StartDate     string
	EndDate       string
	TotalDays     int
	DaysProcessed int
	Percent       int
	Created       int
	Updated       int
	Skipped       int
	Failed        int
	FailedDays    []string
	StartedAt     *time.Time
	FinishedAt    *time.Time
	LastError     string
}

type CrawlInput struct {
	StartDate string
	EndDate   string
}

type CrawlConfig struct {
	// Category is the provider category tag this engine tracks. Entries
	// tagged with another category are skipped.
	Category string
	MaxDays  int
	// DayDelay pauses between provider calls.
	DayDelay time.Duration
	Location *time.Location
}

// ProgressPublisher receives run progress. It must not block.
type ProgressPublisher interface {
	Publish(event progress.Event)
}

// CrawlService drives a schedule crawl over a date range one day at a time.
// At most one run is active; runs execute on a dedicated worker and outlive
// the request that started them.
type CrawlService struct {
	source     ScheduleSource
	mapper     *ScheduleMapper
	reconciler *ReconcileService
	progress   ProgressPublisher
	logger     *logging.Logger
	cfg        CrawlConfig
	pool       *ants.Pool
	now        func() time.Time

	running atomic.Bool
	closed  atomic.Bool
	wg      sync.WaitGroup

	mu        sync.RWMutex
	status    RunStatus
	cancelRun context.CancelFunc
}

func NewCrawlService(
	source ScheduleSource,
	mapper *ScheduleMapper,
	reconciler *ReconcileService,
	publisher ProgressPublisher,
	logger *logging.Logger,
	cfg CrawlConfig,
) (*CrawlService, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxDays < 1 {
		cfg.MaxDays = 366
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cfg.Category = strings.TrimSpace(cfg.Category)

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, fmt.Errorf("create crawl worker pool: %w", err)
	}

	return &CrawlService{
		source:     source,
		mapper:     mapper,
		reconciler: reconciler,
		progress:   publisher,
		logger:     logger,
		cfg:        cfg,
		pool:       pool,
		now:        time.Now,
		status:     RunStatus{State: RunStateIdle},
	}, nil
}

// Start validates the range and dispatches a run. It returns as soon as the
// run is queued; a trigger while another run is active fails with
// ErrRunInProgress.
func (s *CrawlService) Start(ctx context.Context, input CrawlInput) (RunStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CrawlService.Start",
		attribute.String("crawl.start_date", input.StartDate),
		attribute.String("crawl.end_date", input.EndDate),
	)
	defer span.End()

	if s.closed.Load() {
		return RunStatus{}, fmt.Errorf("%w: crawl service is shutting down", ErrDependencyUnavailable)
	}

	days, err := s.expandRange(input)
	if err != nil {
		recordSpanError(span, err)
		return RunStatus{}, err
	}

	if !s.running.CompareAndSwap(false, true) {
		return s.Status(), ErrRunInProgress
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	startedAt := s.now()
	s.mu.Lock()
	// Close flips closed under mu before waiting, so a run is either counted
	// in wg before that wait or never dispatched.
	if s.closed.Load() {
		s.mu.Unlock()
		cancel()
		s.running.Store(false)
		return RunStatus{}, fmt.Errorf("%w: crawl service is shutting down", ErrDependencyUnavailable)
	}
	s.wg.Add(1)
	s.cancelRun = cancel
	s.status = RunStatus{
		State:     RunStateRunning,
		StartDate: days[0].Format(crawlDateLayout),
		EndDate:   days[len(days)-1].Format(crawlDateLayout),
		TotalDays: len(days),
		StartedAt: &startedAt,
	}
	snapshot := cloneRunStatus(s.status)
	s.mu.Unlock()

	if err := s.pool.Submit(func() {
		defer s.wg.Done()
		s.Run(runCtx, days)
	}); err != nil {
		s.wg.Done()
		cancel()
		s.finish(RunStateFailed, err)
		return RunStatus{}, fmt.Errorf("%w: submit crawl run: %v", ErrDependencyUnavailable, err)
	}

	s.logger.InfoContext(ctx, "crawl run started",
		"start_date", snapshot.StartDate,
		"end_date", snapshot.EndDate,
		"total_days", snapshot.TotalDays,
	)
	return snapshot, nil
}

// Run crawls days in order. No entry or day failure stops the loop; only
// cancellation of ctx does, which marks the run failed.
func (s *CrawlService) Run(ctx context.Context, days []time.Time) {
	ctx, span := startDetachedSpan(ctx, "usecase.CrawlService.Run", attribute.Int("crawl.total_days", len(days)))
	defer span.End()

	total := len(days)
	for i, day := range days {
		if err := ctx.Err(); err != nil {
			s.abort(ctx, err)
			return
		}

		tally, dayErr := s.crawlDay(ctx, day)
		percent := (i + 1) * 100 / total
		dayLabel := day.Format(crawlDateLayout)

		s.mu.Lock()
		s.status.DaysProcessed = i + 1
		s.status.Percent = percent
		s.status.Created += tally.created
		s.status.Updated += tally.updated
		s.status.Skipped += tally.skipped
		s.status.Failed += tally.failed
		if dayErr != nil {
			s.status.FailedDays = append(s.status.FailedDays, dayLabel)
			s.status.LastError = dayErr.Error()
		}
		s.mu.Unlock()

		s.publish(progress.Event{
			Message: fmt.Sprintf("%s crawled (%d/%d)", dayLabel, i+1, total),
			Percent: percent,
		})

		if i < total-1 && s.cfg.DayDelay > 0 {
			timer := time.NewTimer(s.cfg.DayDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}
	if err := ctx.Err(); err != nil {
		s.abort(ctx, err)
		return
	}

	status := s.finish(RunStateCompleted, nil)
	s.publish(progress.Event{Message: "crawl completed", Percent: 100, Final: true})
	s.logger.InfoContext(ctx, "crawl run completed",
		"start_date", status.StartDate,
		"end_date", status.EndDate,
		"created", status.Created,
		"updated", status.Updated,
		"skipped", status.Skipped,
		"failed", status.Failed,
		"failed_days", len(status.FailedDays),
	)
}

// Status returns a snapshot of the current or last run.
func (s *CrawlService) Status() RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRunStatus(s.status)
}

// Close cancels an active run, waits for it to stop and releases the worker.
func (s *CrawlService) Close() {
	s.mu.Lock()
	if !s.closed.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return
	}
	cancel := s.cancelRun
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	s.wg.Wait()
	s.pool.Release()
}

type dayTally struct {
	created int
	updated int
	skipped int
	failed  int
}

func (s *CrawlService) crawlDay(ctx context.Context, day time.Time) (dayTally, error) {
	var tally dayTally

	entries, err := s.source.FetchSchedule(ctx, day, day)
	if err != nil {
		s.logger.ErrorContext(ctx, "fetch schedule failed, skipping day",
			"date", day.Format(crawlDateLayout),
			"error", err,
		)
		return tally, err
	}

	s.logger.DebugContext(ctx, "schedule fetched",
		"date", day.Format(crawlDateLayout),
		"entries", len(entries),
	)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		outcome, err := s.processEntry(ctx, entry)
		switch {
		case err == nil && outcome == ReconcileCreated:
			tally.created++
		case err == nil && outcome == ReconcileUpdated:
			tally.updated++
		case err == nil:
			tally.skipped++
		case errors.Is(err, ErrUnresolvedTeam), errors.Is(err, ErrInvalidEntry):
			tally.skipped++
			s.logger.WarnContext(ctx, "schedule entry skipped", entryLogFields(day, entry, err)...)
		default:
			tally.failed++
			s.logger.ErrorContext(ctx, "schedule entry failed", entryLogFields(day, entry, err)...)
		}
	}

	return tally, nil
}

// processEntry runs one entry through mapping and reconciliation. A panic is
// recovered and reported as an error so the batch continues. An empty
// outcome with a nil error means the entry was filtered out.
func (s *CrawlService) processEntry(ctx context.Context, entry ExternalScheduleEntry) (outcome ReconcileOutcome, err error) {
	if !s.tracksCategory(entry.CategoryID) {
		return "", nil
	}

	var catcher panics.Catcher
	catcher.Try(func() {
		var canonical CanonicalGame
		canonical, err = s.mapper.ToCanonical(ctx, entry)
		if err != nil {
			return
		}
		outcome, err = s.reconciler.Reconcile(ctx, canonical)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return "", fmt.Errorf("reconcile panicked: %w", recovered.AsError())
	}
	return outcome, err
}

// tracksCategory reports whether an entry belongs to the tracked category.
// Entries without a category tag are accepted.
func (s *CrawlService) tracksCategory(category string) bool {
	category = strings.TrimSpace(category)
	if category == "" || s.cfg.Category == "" {
		return true
	}
	return strings.EqualFold(category, s.cfg.Category)
}

func (s *CrawlService) abort(ctx context.Context, cause error) {
	recordSpanError(trace.SpanFromContext(ctx), cause)
	status := s.finish(RunStateFailed, cause)
	s.publish(progress.Event{Message: "crawl aborted", Percent: status.Percent, Final: true})
	s.logger.WarnContext(ctx, "crawl run aborted",
		"start_date", status.StartDate,
		"end_date", status.EndDate,
		"days_processed", status.DaysProcessed,
		"error", cause,
	)
}

func (s *CrawlService) finish(state RunState, cause error) RunStatus {
	finishedAt := s.now()

	s.mu.Lock()
	s.status.State = state
	s.status.FinishedAt = &finishedAt
	if cause != nil {
		s.status.LastError = cause.Error()
	}
	if state == RunStateCompleted {
		s.status.Percent = 100
	}
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	snapshot := cloneRunStatus(s.status)
	s.mu.Unlock()

	s.running.Store(false)
	return snapshot
}

func (s *CrawlService) publish(event progress.Event) {
	if s.progress == nil {
		return
	}
	s.progress.Publish(event)
}

func (s *CrawlService) expandRange(input CrawlInput) ([]time.Time, error) {
	start, err := time.ParseInLocation(crawlDateLayout, strings.TrimSpace(input.StartDate), s.cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date %q", ErrInvalidInput, input.StartDate)
	}
	end, err := time.ParseInLocation(crawlDateLayout, strings.TrimSpace(input.EndDate), s.cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end date %q", ErrInvalidInput, input.EndDate)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidInput, input.StartDate, input.EndDate)
	}

	days := make([]time.Time, 0, 8)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if len(days) == s.cfg.MaxDays {
			return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidInput, s.cfg.MaxDays)
		}
		days = append(days, day)
	}
	return days, nil
}

func entryLogFields(day time.Time, entry ExternalScheduleEntry, err error) []any {
	return []any{
		"date", day.Format(crawlDateLayout),
		"external_id", entry.ExternalID,
		"game_date_time", entry.GameDateTime,
		"home", entryTeamCode(entry.HomeTeamCode, entry.HomeTeamName),
		"away", entryTeamCode(entry.AwayTeamCode, entry.AwayTeamName),
		"error", err,
	}
}

func cloneRunStatus(in RunStatus) RunStatus {
	out := in
	if in.FailedDays != nil {
		out.FailedDays = append([]string(nil), in.FailedDays...)
	}
	return out
}
