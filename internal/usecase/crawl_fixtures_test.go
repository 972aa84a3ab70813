package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ballog/ballog-api/internal/domain/team"
	"github.com/ballog/ballog-api/internal/infrastructure/repository/memory"
	"github.com/ballog/ballog-api/internal/platform/logging"
	"github.com/ballog/ballog-api/internal/progress"
)

func newTestMapper(t *testing.T, loc *time.Location) *ScheduleMapper {
	t.Helper()
	return NewScheduleMapper(NewTeamResolver(memory.NewTeamRepository(memory.SeedTeams()), time.Minute), loc)
}

type sequenceIDs struct {
	n atomic.Int64
}

func (g *sequenceIDs) NewID() (string, error) {
	return fmt.Sprintf("id-%d", g.n.Add(1)), nil
}

type fakeScheduleSource struct {
	mu       sync.Mutex
	byDay    map[string][]ExternalScheduleEntry
	errByDay map[string]error
	calls    []string
	// gate, when set, blocks every fetch until it is closed.
	gate chan struct{}
}

func newFakeScheduleSource() *fakeScheduleSource {
	return &fakeScheduleSource{
		byDay:    make(map[string][]ExternalScheduleEntry),
		errByDay: make(map[string]error),
	}
}

func (f *fakeScheduleSource) set(day string, entries ...ExternalScheduleEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byDay[day] = entries
}

func (f *fakeScheduleSource) FetchSchedule(ctx context.Context, from, to time.Time) ([]ExternalScheduleEntry, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	day := from.Format(crawlDateLayout)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, day+".."+to.Format(crawlDateLayout))
	if err := f.errByDay[day]; err != nil {
		return nil, err
	}
	return append([]ExternalScheduleEntry(nil), f.byDay[day]...), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []progress.Event
	final  chan struct{}
	once   sync.Once
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{final: make(chan struct{})}
}

func (p *recordingPublisher) Publish(event progress.Event) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	if event.Final {
		p.once.Do(func() { close(p.final) })
	}
}

func (p *recordingPublisher) percents() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Percent)
	}
	return out
}

func (p *recordingPublisher) waitFinal(t *testing.T) {
	t.Helper()
	select {
	case <-p.final:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for final progress event")
	}
}

type crawlHarness struct {
	service   *CrawlService
	source    *fakeScheduleSource
	store     *memory.ScheduleStore
	publisher *recordingPublisher
}

func newCrawlHarness(t *testing.T, teams []team.Team) *crawlHarness {
	t.Helper()

	if teams == nil {
		teams = memory.SeedTeams()
	}
	store := memory.NewScheduleStore(nil)
	source := newFakeScheduleSource()
	publisher := newRecordingPublisher()
	logger := logging.NewNop()

	mapper := NewScheduleMapper(NewTeamResolver(memory.NewTeamRepository(teams), time.Minute), time.UTC)
	reconciler := NewReconcileService(store, &sequenceIDs{}, logger)
	service, err := NewCrawlService(source, mapper, reconciler, publisher, logger, CrawlConfig{
		Category: "kbo",
		MaxDays:  31,
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("new crawl service: %v", err)
	}
	t.Cleanup(service.Close)

	return &crawlHarness{
		service:   service,
		source:    source,
		store:     store,
		publisher: publisher,
	}
}

func scoreOf(v int) *int {
	return &v
}
