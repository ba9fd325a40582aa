// internal/composite/cache_test.go
package composite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunk-auditor/internal/assessment"
)

type fakeCache struct {
	store    map[string]string
	getErr   error
	setErr   error
	setCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	val, ok := f.store[key]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return val, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	switch v := value.(type) {
	case []byte:
		f.store[key] = string(v)
	case string:
		f.store[key] = v
	default:
		f.store[key] = fmt.Sprintf("%v", v)
	}
	return nil
}

type fakeEvaluator struct {
	result *CompositeResult
	err    error
	calls  int
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, chunk *assessment.Chunk) (*CompositeResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func verdictFixture(degraded bool) *CompositeResult {
	return &CompositeResult{
		PerAssessor: map[string]assessment.Outcome{
			"semantic_rubric": assessment.Succeed("semantic_rubric", &assessment.Result{
				Name:    "semantic_rubric",
				Score:   82,
				Passing: true,
			}),
		},
		EffectiveWeights: map[string]float64{"semantic_rubric": 1.0},
		OverallScore:     82,
		OverallPassing:   true,
		Degraded:         degraded,
		ChunkRef:         "chunk-7",
	}
}

func TestCachedEvaluator_ServesRepeatCallsFromCache(t *testing.T) {
	inner := &fakeEvaluator{result: verdictFixture(false)}
	cache := newFakeCache()
	cached := NewCachedEvaluator(inner, cache, time.Hour, "cfg1", NewTestLogger(t))

	first, err := cached.Evaluate(context.Background(), testChunk())
	require.NoError(t, err)
	second, err := cached.Evaluate(context.Background(), testChunk())
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second call must not re-evaluate")
	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.OverallPassing, second.OverallPassing)
	require.Contains(t, second.PerAssessor, "semantic_rubric")
	assert.Equal(t, 82, second.PerAssessor["semantic_rubric"].Result.Score)
}

func TestCachedEvaluator_SkipsDegradedResults(t *testing.T) {
	inner := &fakeEvaluator{result: verdictFixture(true)}
	cache := newFakeCache()
	cached := NewCachedEvaluator(inner, cache, time.Hour, "cfg1", NewTestLogger(t))

	_, err := cached.Evaluate(context.Background(), testChunk())
	require.NoError(t, err)
	_, err = cached.Evaluate(context.Background(), testChunk())
	require.NoError(t, err)

	assert.Zero(t, cache.setCalls, "degraded verdicts are recomputed, not cached")
	assert.Equal(t, 2, inner.calls)
}

func TestCachedEvaluator_PropagatesEvaluatorErrors(t *testing.T) {
	inner := &fakeEvaluator{err: fmt.Errorf("%w: a=TIMEOUT", ErrAllAssessorsFailed)}
	cache := newFakeCache()
	cached := NewCachedEvaluator(inner, cache, time.Hour, "cfg1", NewTestLogger(t))

	result, err := cached.Evaluate(context.Background(), testChunk())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAllAssessorsFailed)
	assert.Zero(t, cache.setCalls)
}

func TestCachedEvaluator_OverwritesCorruptEntries(t *testing.T) {
	inner := &fakeEvaluator{result: verdictFixture(false)}
	cache := newFakeCache()
	cached := NewCachedEvaluator(inner, cache, time.Hour, "cfg1", NewTestLogger(t))

	cache.store[cached.cacheKey(testChunk())] = "{not json"

	result, err := cached.Evaluate(context.Background(), testChunk())

	require.NoError(t, err)
	assert.Equal(t, 82, result.OverallScore)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, cache.setCalls, "fresh verdict replaces the unreadable entry")
}

func TestCachedEvaluator_ToleratesCacheWriteFailures(t *testing.T) {
	inner := &fakeEvaluator{result: verdictFixture(false)}
	cache := newFakeCache()
	cache.setErr = errors.New("connection reset")
	cached := NewCachedEvaluator(inner, cache, time.Hour, "cfg1", NewTestLogger(t))

	result, err := cached.Evaluate(context.Background(), testChunk())

	require.NoError(t, err, "a broken cache never breaks the evaluation")
	assert.Equal(t, 82, result.OverallScore)
}

func TestCachedEvaluator_ScopeSeparatesConfigurations(t *testing.T) {
	innerA := &fakeEvaluator{result: verdictFixture(false)}
	innerB := &fakeEvaluator{result: verdictFixture(false)}
	cache := newFakeCache()

	lenient := NewCachedEvaluator(innerA, cache, time.Hour, "threshold70", NewTestLogger(t))
	strict := NewCachedEvaluator(innerB, cache, time.Hour, "threshold85", NewTestLogger(t))

	_, err := lenient.Evaluate(context.Background(), testChunk())
	require.NoError(t, err)
	_, err = strict.Evaluate(context.Background(), testChunk())
	require.NoError(t, err)

	assert.Equal(t, 1, innerA.calls)
	assert.Equal(t, 1, innerB.calls, "a different configuration never reuses the other's verdict")
}
