package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/kafka"
	"carbon-admin-console/internal/logquery"
	"carbon-admin-console/internal/metrics"
	"carbon-admin-console/internal/model"
)

type fakeLogRepo struct {
	mu       sync.Mutex
	records  map[model.LogKind][]model.LogRecord
	failKind model.LogKind
	requests []dto.LogSearchRequest
}

func (f *fakeLogRepo) Search(_ context.Context, req dto.LogSearchRequest) (*dto.LogSearchResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if req.Kind == f.failKind {
		return nil, errors.New("boom")
	}
	recs := f.records[req.Kind]
	total := int64(len(recs))
	if len(recs) > req.Size {
		recs = recs[:req.Size]
	}
	return &dto.LogSearchResponse{Records: recs, TotalCount: total}, nil
}

func rec(kind model.LogKind, ts string) model.LogRecord {
	return model.LogRecord{Kind: kind, Timestamp: ts, Fields: map[string]any{}}
}

func TestParse(t *testing.T) {
	svc := NewLogQueryService(&fakeLogRepo{})
	resp := svc.Parse(`status:500 astatus:failed dur>=200 "disk full"`)
	assert.Equal(t, "500", resp.Params["status_code"])
	assert.Equal(t, "failed", resp.Params["status"])
	assert.Equal(t, "200", resp.Params["min_duration"])
	assert.Equal(t, "disk full", resp.Params["q"])
	assert.NotEmpty(t, resp.Chips)
}

func TestSearchMergesAndPages(t *testing.T) {
	repo := &fakeLogRepo{records: map[model.LogKind][]model.LogRecord{
		model.KindSystem: {rec(model.KindSystem, "2024-05-01T10:00:03Z"), rec(model.KindSystem, "2024-05-01T10:00:01Z")},
		model.KindError:  {rec(model.KindError, "2024-05-01T10:00:02Z")},
	}}
	svc := NewLogQueryService(repo)

	resp, err := svc.Search(context.Background(), dto.MergedSearchRequest{
		Kinds:   []model.LogKind{model.KindSystem, model.KindError},
		Page:    1,
		PerPage: 2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "2024-05-01T10:00:03Z", resp.Records[0].Timestamp)
	assert.Equal(t, model.KindError, resp.Records[1].Kind)
	assert.Equal(t, model.Pagination{CurrentPage: 1, PerPage: 2, TotalItems: 3, TotalPages: 2}, resp.Pagination)

	repo.requests = nil
	resp, err = svc.Search(context.Background(), dto.MergedSearchRequest{
		Kinds:   []model.LogKind{model.KindSystem, model.KindError},
		Page:    2,
		PerPage: 2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "2024-05-01T10:00:01Z", resp.Records[0].Timestamp)
	for _, r := range repo.requests {
		assert.Equal(t, 4, r.Size)
	}
}

func TestSearchDefaultsAndCap(t *testing.T) {
	repo := &fakeLogRepo{}
	svc := NewLogQueryService(repo)
	resp, err := svc.Search(context.Background(), dto.MergedSearchRequest{Page: 100, PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPerPage, resp.Pagination.PerPage)
	assert.Empty(t, resp.Records)
	require.Len(t, repo.requests, len(model.AllKinds))
	for _, r := range repo.requests {
		assert.Equal(t, 1000, r.Size)
	}
}

func TestSearchPropagatesErrors(t *testing.T) {
	svc := NewLogQueryService(&fakeLogRepo{failKind: model.KindAudit})
	_, err := svc.Search(context.Background(), dto.MergedSearchRequest{})
	assert.ErrorContains(t, err, "search audit logs")
}

func TestRelated(t *testing.T) {
	repo := &fakeLogRepo{}
	svc := NewLogQueryService(repo)
	_, err := svc.Related(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Related(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, repo.requests, len(model.AllKinds))
	assert.Equal(t, logquery.Filter{RequestID: "req-1"}, repo.requests[0].Filter)
}

type fakeUsageRepo struct {
	got dto.LLMUsageTimeseriesRequest
}

func (f *fakeUsageRepo) GetSummary(context.Context, dto.LLMUsageSummaryRequest) (*dto.LLMUsageSummaryResponse, error) {
	return &dto.LLMUsageSummaryResponse{TotalCalls: 3}, nil
}

func (f *fakeUsageRepo) GetTimeseries(_ context.Context, req dto.LLMUsageTimeseriesRequest) (*dto.LLMUsageTimeseriesResponse, error) {
	f.got = req
	return &dto.LLMUsageTimeseriesResponse{}, nil
}

func TestLLMUsageValidation(t *testing.T) {
	repo := &fakeUsageRepo{}
	svc := NewLLMUsageService(repo)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.GetSummary(context.Background(), dto.LLMUsageSummaryRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.GetSummary(context.Background(), dto.LLMUsageSummaryRequest{StartTime: start, EndTime: start.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	sum, err := svc.GetSummary(context.Background(), dto.LLMUsageSummaryRequest{StartTime: start, EndTime: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.TotalCalls)

	_, err = svc.GetTimeseries(context.Background(), dto.LLMUsageTimeseriesRequest{StartTime: start, EndTime: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "1 hour", repo.got.Interval)
	assert.Equal(t, "calls", repo.got.Metric)
	assert.Equal(t, "total", repo.got.GroupBy)
}

type fakeColumnRepo struct {
	saved map[string][]string
}

func (f *fakeColumnRepo) Get(_ context.Context, userID string, kind model.LogKind) ([]string, bool, error) {
	cols, ok := f.saved[userID+"/"+string(kind)]
	return cols, ok, nil
}

func (f *fakeColumnRepo) Save(_ context.Context, userID string, kind model.LogKind, cols []string) error {
	f.saved[userID+"/"+string(kind)] = cols
	return nil
}

func TestColumns(t *testing.T) {
	svc := NewColumnsService(&fakeColumnRepo{saved: map[string][]string{}})
	ctx := context.Background()

	resp, err := svc.Get(ctx, "7", model.KindAudit)
	require.NoError(t, err)
	assert.True(t, resp.Default)
	assert.Contains(t, resp.Columns, "action")

	resp, err = svc.Save(ctx, "7", model.KindAudit, []string{" action ", "user_id", "action", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"action", "user_id"}, resp.Columns)
	assert.False(t, resp.Default)

	resp, err = svc.Get(ctx, "7", model.KindAudit)
	require.NoError(t, err)
	assert.Equal(t, []string{"action", "user_id"}, resp.Columns)

	resp, err = svc.Save(ctx, "7", model.KindAudit, nil)
	require.NoError(t, err)
	assert.True(t, resp.Default)

	many := make([]string, maxColumns+1)
	for i := range many {
		many[i] = string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	_, err = svc.Save(ctx, "7", model.KindAudit, many)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestTools(t *testing.T) {
	svc := NewToolsService()
	diff := svc.Diff(dto.DiffRequest{Old: `{"a":1}`, New: map[string]any{"a": float64(2)}, Mode: "inline"})
	require.Len(t, diff.Changes, 1)
	assert.Contains(t, diff.Text, "a")

	tree := svc.Tree(dto.TreeRequest{Value: map[string]any{"user": map[string]any{"name": "Ann"}}, Search: "ann"})
	assert.Equal(t, []string{"$.user.name"}, tree.Matches)
	assert.Len(t, tree.Rows, 3)

	tree = svc.Tree(dto.TreeRequest{Value: []any{float64(1)}})
	assert.Empty(t, tree.Matches)
	assert.NotNil(t, tree.Matches)
}

type fakeConsumer struct {
	mu        sync.Mutex
	queue     []fetchResult
	committed []kafkaGo.Message
}

type fetchResult struct {
	rec *model.LogRecord
	msg kafkaGo.Message
	err error
}

func (f *fakeConsumer) FetchMessage(ctx context.Context) (*model.LogRecord, kafkaGo.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		r := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return r.rec, r.msg, r.err
	}
	f.mu.Unlock()
	<-ctx.Done()
	return nil, kafkaGo.Message{}, ctx.Err()
}

func (f *fakeConsumer) CommitMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeConsumer) Close() error { return nil }

type fakeRecordStore struct {
	stored []model.LogRecord
	err    error
}

func (f *fakeRecordStore) StoreRecords(_ context.Context, recs []model.LogRecord) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, recs...)
	return nil
}

func (f *fakeRecordStore) Close(context.Context) error { return nil }

type fakeUsageStore struct {
	events []model.LLMUsageEvent
}

func (f *fakeUsageStore) StoreUsageEvents(_ context.Context, events []model.LLMUsageEvent) error {
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeUsageStore) Close() {}

func newIngest(c *fakeConsumer, rs *fakeRecordStore, us *fakeUsageStore) *ingestService {
	return &ingestService{
		consumer:    c,
		recordStore: rs,
		usageStore:  us,
		extractor:   metrics.NewUsageExtractor(),
		batchSize:   10,
		maxWaitTime: 50 * time.Millisecond,
		retryDelay:  time.Millisecond,
	}
}

func queued() []fetchResult {
	llm := model.LogRecord{Kind: model.KindLLM, Timestamp: "2024-05-01T10:00:00Z", Fields: map[string]any{"model": "gpt-4o", "prompt_tokens": float64(5)}}
	sys := rec(model.KindSystem, "2024-05-01T10:00:01Z")
	return []fetchResult{
		{rec: &llm, msg: kafkaGo.Message{Topic: "t", Offset: 1}},
		{msg: kafkaGo.Message{Topic: "t", Offset: 2}, err: fmt.Errorf("%w: bad json", kafka.ErrInvalidRecord)},
		{rec: &sys, msg: kafkaGo.Message{Topic: "t", Offset: 3}},
	}
}

func TestIngestProcessBatch(t *testing.T) {
	c := &fakeConsumer{queue: queued()}
	rs, us := &fakeRecordStore{}, &fakeUsageStore{}

	require.NoError(t, newIngest(c, rs, us).processBatch(context.Background()))
	assert.Len(t, rs.stored, 2)
	require.Len(t, us.events, 1)
	assert.Equal(t, "gpt-4o", us.events[0].Model)
	assert.Len(t, c.committed, 3)
}

func TestIngestDoesNotCommitOnStoreFailure(t *testing.T) {
	c := &fakeConsumer{queue: queued()}
	rs := &fakeRecordStore{err: errors.New("es down")}

	err := newIngest(c, rs, &fakeUsageStore{}).processBatch(context.Background())
	assert.ErrorContains(t, err, "es down")
	assert.Empty(t, c.committed)
}

func TestIngestRunStopsOnCancel(t *testing.T) {
	c := &fakeConsumer{}
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go newIngest(c, &fakeRecordStore{}, &fakeUsageStore{}).Run(ctx, &wg)
	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ingest loop did not stop")
	}
}
