package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/salary-benchmark/pkg/adjust"
	"github.com/David-Botos/salary-benchmark/pkg/calibrate"
	"github.com/David-Botos/salary-benchmark/pkg/cleaner"
	"github.com/David-Botos/salary-benchmark/pkg/config"
	"github.com/David-Botos/salary-benchmark/pkg/fetch"
	"github.com/David-Botos/salary-benchmark/pkg/model"
	"github.com/David-Botos/salary-benchmark/pkg/synth"
)

// fakeSource returns canned observations and sleeps to shuffle completion order
type fakeSource struct {
	mu       sync.Mutex
	salaries map[model.RolePair][]float64
	failures map[model.RolePair]int
	calls    int
}

func (s *fakeSource) FetchObservations(ctx context.Context, pair model.RolePair) (fetch.Observations, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	// Later pairs finish first when run concurrently
	time.Sleep(time.Duration(len(pair.Department)%3) * time.Millisecond)

	obs := fetch.Observations{Pair: pair, Salaries: s.salaries[pair]}
	for i := 0; i < s.failures[pair]; i++ {
		obs.Pages = append(obs.Pages, fetch.PageResult{Page: i + 1, StatusCode: 500, Err: errors.New("unexpected status 500")})
	}
	return obs, ctx.Err()
}

func newTestManager(t *testing.T, source ObservationSource, generator *synth.Generator, seed uint64, workers int) *Manager {
	t.Helper()

	c, err := cleaner.NewSalaryCleaner(
		cleaner.DefaultValidator(),
		cleaner.NewOutlierFilter(cleaner.OutlierIQR, cleaner.CollectionOutlierFactor),
		zap.NewNop(),
	)
	require.NoError(t, err)

	rules, err := adjust.NewRuleSet(config.DefaultRules())
	require.NoError(t, err)
	engine, err := adjust.NewEngine(adjust.DefaultScaleFactor, rules, rand.NewPCG(seed, ^uint64(0)))
	require.NoError(t, err)

	m, err := NewManager(source, c, calibrate.NewCalibrator(generator, calibrate.DefaultMinRequired), generator, engine, zap.NewNop())
	require.NoError(t, err)
	return m.WithWorkerCount(workers).WithSeed(seed)
}

func defaultGenerator() *synth.Generator {
	return synth.NewGenerator(config.DefaultBenchmarks(), synth.DefaultFallback(), rand.NewPCG(0, 0))
}

func TestRunKeepsInputOrder(t *testing.T) {
	pairs := config.DefaultPairs()
	source := &fakeSource{salaries: map[model.RolePair][]float64{
		pairs[0]: {90000, 92000, 91000, 93000, 89000, 88000, 94000},
		pairs[3]: {70000, 200, 72000},
	}}

	result, err := newTestManager(t, source, defaultGenerator(), 42, 4).Run(context.Background(), pairs)
	require.NoError(t, err)

	require.Len(t, result.Records, len(pairs))
	require.Len(t, result.Adjusted, len(pairs))
	for i, p := range pairs {
		assert.Equal(t, p, result.Records[i].Pair())
		assert.Equal(t, p, result.Adjusted[i].Pair())
		assert.Equal(t, i, result.Pairs[i].Index)
		assert.True(t, result.Records[i].Ordered())
		assert.True(t, result.Records[i].CountsBalanced())
		assert.Equal(t, calibrate.DefaultMinRequired, result.Records[i].Count)
	}
	assert.Equal(t, len(pairs), source.calls)

	assert.Equal(t, 7, result.Records[0].RealDataCount)
	assert.Equal(t, 2, result.Records[3].RealDataCount)
	require.Len(t, result.Cleaning, 1)
	assert.Equal(t, 200.0, result.Cleaning[0].OriginalValue)
	assert.Equal(t, result.RunID, result.Cleaning[0].RunID)
}

func TestRunIsDeterministicAcrossPoolSizes(t *testing.T) {
	pairs := config.DefaultPairs()
	source := &fakeSource{salaries: map[model.RolePair][]float64{
		pairs[1]: {70000, 75000, 80000},
	}}

	sequential, err := newTestManager(t, source, defaultGenerator(), 7, 1).Run(context.Background(), pairs)
	require.NoError(t, err)
	concurrent, err := newTestManager(t, source, defaultGenerator(), 7, 8).Run(context.Background(), pairs)
	require.NoError(t, err)

	assert.Equal(t, sequential.Records, concurrent.Records)
	assert.Equal(t, sequential.Adjusted, concurrent.Adjusted)
}

func TestRunWithoutSourceIsFullySynthetic(t *testing.T) {
	pairs := []model.RolePair{{Department: "Finance", Role: "Associate"}}

	result, err := newTestManager(t, nil, defaultGenerator(), 3, 1).Run(context.Background(), pairs)
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.Equal(t, 0, rec.RealDataCount)
	assert.Equal(t, 30, rec.SyntheticDataCount)
	assert.GreaterOrEqual(t, rec.Median, 65000)
	assert.LessOrEqual(t, rec.Median, 130000)
}

func TestRunFailedPagesAreWarnings(t *testing.T) {
	pair := model.RolePair{Department: "Sales", Role: "Manager"}
	source := &fakeSource{
		salaries: map[model.RolePair][]float64{pair: {150000, 140000}},
		failures: map[model.RolePair]int{pair: 2},
	}

	m := newTestManager(t, source, defaultGenerator(), 3, 1)
	result, err := m.Run(context.Background(), []model.RolePair{pair})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, 2, result.Records[0].RealDataCount)
	assert.Equal(t, 2, result.Pairs[0].FailedPages)
	assert.Len(t, result.Pairs[0].Warnings, 2)
	assert.Equal(t, 2, m.GetErrorSummary()[ErrorCategoryWarning])
	assert.Equal(t, 2, m.GetMetrics().TotalFailedPages)
}

func TestRunSkipsPairsThatCannotBeCalibrated(t *testing.T) {
	pairs := []model.RolePair{
		{Department: "Finance", Role: "Associate"},
		{Department: "Sales", Role: "Manager"},
	}
	source := &fakeSource{salaries: map[model.RolePair][]float64{
		pairs[1]: {150000, 140000},
	}}

	// No generator: the empty pair has nothing to summarise
	m := newTestManager(t, source, nil, 3, 2)
	result, err := m.Run(context.Background(), pairs)
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, pairs[1], result.Records[0].Pair())
	assert.False(t, result.Pairs[0].Success)
	assert.Equal(t, 1, m.GetErrorSummary()[ErrorCategoryPairLevel])
	assert.Contains(t, m.GetMetrics().SkippedPairs, "Finance Associate")
}

func TestRunAbortsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestManager(t, &fakeSource{}, defaultGenerator(), 3, 2).Run(ctx, config.DefaultPairs())
	assert.Error(t, err)
}

func TestRunEmptyPairList(t *testing.T) {
	result, err := newTestManager(t, nil, defaultGenerator(), 3, 4).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Adjusted)
}

func TestMetricsTextfile(t *testing.T) {
	m := newTestManager(t, nil, defaultGenerator(), 3, 1)
	_, err := m.Run(context.Background(), config.DefaultPairs()[:2])
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "salarybench.prom")
	require.NoError(t, m.GetMetrics().WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `salarybench_pairs_processed_total{status="success"} 2`)
	assert.Contains(t, text, `salarybench_samples_total{kind="synthetic"} 60`)

	report := m.GetMetrics().GenerateMetricsReport()
	assert.True(t, strings.Contains(report, "Pairs: 2 successful, 0 skipped"), report)
}

func TestCategorizeError(t *testing.T) {
	eh := NewErrorHandler(zap.NewNop())

	assert.Equal(t, ErrorCategoryNone, eh.CategorizeError(nil))
	assert.Equal(t, ErrorCategoryCritical, eh.CategorizeError(context.Canceled))
	assert.Equal(t, ErrorCategoryConnectionLevel, eh.CategorizeError(context.DeadlineExceeded))
	assert.Equal(t, ErrorCategorySystemLevel, eh.CategorizeError(fetch.ErrMissingCredentials))
	assert.Equal(t, ErrorCategoryPairLevel,
		eh.CategorizeError(&calibrate.DataInsufficientError{Department: "A", Role: "B"}))
	assert.Equal(t, ErrorCategoryConnectionLevel, eh.CategorizeError(errors.New("connection refused")))
}

func TestHandleErrorActions(t *testing.T) {
	eh := NewErrorHandler(zap.NewNop())

	assert.Equal(t, ActionContinue, eh.HandleError(NewErrorRecord(errors.New("page"), ErrorCategoryWarning)))
	assert.Equal(t, ActionSkipPair, eh.HandleError(NewErrorRecord(errors.New("pair"), ErrorCategoryPairLevel)))
	assert.Equal(t, ActionAbort, eh.HandleError(NewErrorRecord(errors.New("db"), ErrorCategoryConnectionLevel)))

	assert.Equal(t, map[ErrorCategory]int{
		ErrorCategoryWarning:         1,
		ErrorCategoryPairLevel:       1,
		ErrorCategoryConnectionLevel: 1,
	}, eh.GetErrorSummary())
}

func TestErrorRecordString(t *testing.T) {
	rec := NewErrorRecord(errors.New("boom"), ErrorCategoryPairLevel).WithPair("Finance Associate").WithStage(StageCalibrate)
	assert.Equal(t, "[PairLevel] Pair: Finance Associate Stage: calibrate Error: boom", rec.String())
	assert.True(t, rec.Recoverable)
}
