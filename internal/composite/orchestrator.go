// internal/composite/orchestrator.go

// Package composite blends independent assessor verdicts into one score per
// chunk. All registered assessors run concurrently against the same immutable
// chunk; failures are contained as per-assessor outcomes, weights are
// redistributed across the survivors, and the blended score is checked
// against the composite threshold and the verdict policy.
package composite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/common/metrics"
)

// Evaluator is the single operation reporting and serving layers call.
type Evaluator interface {
	Evaluate(ctx context.Context, chunk *assessment.Chunk) (*CompositeResult, error)
}

// Registration binds one assessor to its weight and per-call timeout.
type Registration struct {
	Assessor assessment.Assessor
	Weight   float64
	Timeout  time.Duration
}

// Logger interface definition
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Orchestrator fans a chunk out to every registered assessor and aggregates
// the outcomes. The weight table is fixed at construction and read
// concurrently by all Evaluate calls without locking.
type Orchestrator struct {
	registrations []Registration
	weights       map[string]float64
	threshold     int
	policy        VerdictPolicy
	tracer        trace.Tracer
	logger        Logger
}

// New validates the weight table and policy before any evaluation can start.
// A table that does not sum to 1.0 within WeightTolerance is rejected here,
// so a misconfigured orchestrator never issues a single assessor call.
func New(config *Config, registrations []Registration, tracer trace.Tracer, log Logger) (*Orchestrator, error) {
	policy := config.Policy
	if policy == "" {
		policy = PolicyVeto
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("unknown verdict policy %q", config.Policy)
	}

	weights := make(map[string]float64, len(registrations))
	for _, reg := range registrations {
		if reg.Assessor == nil {
			return nil, fmt.Errorf("%w: registration without assessor", ErrInvalidWeightTable)
		}
		name := reg.Assessor.Name()
		if _, ok := weights[name]; ok {
			return nil, fmt.Errorf("%w: duplicate assessor %s", ErrInvalidWeightTable, name)
		}
		weights[name] = reg.Weight
	}
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}

	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("composite")
	}

	return &Orchestrator{
		registrations: registrations,
		weights:       weights,
		threshold:     config.Threshold,
		policy:        policy,
		tracer:        tracer,
		logger:        log,
	}, nil
}

// Fingerprint identifies the verdict-relevant configuration of this
// orchestrator. Two orchestrators with the same weights, threshold and
// policy share a fingerprint.
func (o *Orchestrator) Fingerprint() string {
	return ConfigFingerprint(o.weights, o.threshold, o.policy)
}

// Evaluate runs every registered assessor against the chunk and blends the
// surviving scores. Per-assessor faults become Failed outcomes in the result;
// only ErrAllAssessorsFailed and context errors reach the caller.
func (o *Orchestrator) Evaluate(ctx context.Context, chunk *assessment.Chunk) (*CompositeResult, error) {
	ctx, span := o.tracer.Start(ctx, "composite.evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("chunk.id", chunk.ID),
		attribute.Int("assessors.configured", len(o.registrations)),
	)

	metrics.EvaluationsActive.Inc()
	defer metrics.EvaluationsActive.Dec()

	start := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	outcomes := make(map[string]assessment.Outcome, len(o.registrations))

	for _, reg := range o.registrations {
		reg := reg
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := o.runAssessor(ctx, reg, chunk)
			mu.Lock()
			outcomes[outcome.Assessor] = outcome
			mu.Unlock()
		}()
	}
	wg.Wait()

	// A caller that walked away invalidates the whole verdict. Partial
	// outcomes are discarded rather than blended into a composite that
	// silently used fewer checks than configured.
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}

	survivors := make([]string, 0, len(outcomes))
	for name, outcome := range outcomes {
		if outcome.Succeeded() {
			survivors = append(survivors, name)
		}
	}
	sort.Strings(survivors)

	if len(survivors) == 0 {
		o.logger.Error("all assessors failed", map[string]interface{}{
			"chunkId":   chunk.ID,
			"assessors": len(o.registrations),
		})
		return nil, fmt.Errorf("%w: %s", ErrAllAssessorsFailed, summarizeFailures(outcomes))
	}

	effective := renormalize(o.weights, survivors)

	blended := 0.0
	for _, name := range survivors {
		blended += effective[name] * float64(outcomes[name].Result.Score)
	}
	overallScore := assessment.ClampScore(int(math.Round(blended)))

	degraded := len(survivors) < len(o.registrations)
	passing := o.verdict(overallScore, outcomes)
	elapsed := time.Since(start)

	metrics.CompositeScores.Observe(float64(overallScore))
	if degraded {
		metrics.DegradedEvaluations.Inc()
	}

	span.SetAttributes(
		attribute.Int("composite.score", overallScore),
		attribute.Bool("composite.passing", passing),
		attribute.Bool("composite.degraded", degraded),
	)

	o.logger.Info("chunk evaluated", map[string]interface{}{
		"chunkId":      chunk.ID,
		"overallScore": overallScore,
		"passing":      passing,
		"degraded":     degraded,
		"survivors":    len(survivors),
		"durationMs":   elapsed.Milliseconds(),
	})

	return &CompositeResult{
		PerAssessor:      outcomes,
		EffectiveWeights: effective,
		OverallScore:     overallScore,
		OverallPassing:   passing,
		Degraded:         degraded,
		ElapsedSeconds:   elapsed.Seconds(),
		ChunkRef:         chunk.ID,
	}, nil
}

// runAssessor executes one assessor under its own timeout and converts any
// error into a Failed outcome. Each assessor gets exactly one attempt.
func (o *Orchestrator) runAssessor(ctx context.Context, reg Registration, chunk *assessment.Chunk) assessment.Outcome {
	name := reg.Assessor.Name()

	assessCtx := ctx
	if reg.Timeout > 0 {
		var cancel context.CancelFunc
		assessCtx, cancel = context.WithTimeout(ctx, reg.Timeout)
		defer cancel()
	}

	assessCtx, span := o.tracer.Start(assessCtx, "composite.assess",
		trace.WithAttributes(attribute.String("assessor", name)))
	defer span.End()

	started := time.Now()
	result, err := reg.Assessor.Assess(assessCtx, chunk)
	metrics.AssessmentDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())

	if err != nil {
		outcome := assessment.FailFromError(name, err)
		metrics.AssessmentsFailed.WithLabelValues(name, string(outcome.Failure.Kind)).Inc()
		o.logger.Warn("assessor failed", map[string]interface{}{
			"assessor":  name,
			"chunkId":   chunk.ID,
			"errorKind": string(outcome.Failure.Kind),
			"detail":    outcome.Failure.Detail,
		})
		return outcome
	}

	metrics.AssessmentsCompleted.WithLabelValues(name).Inc()
	return assessment.Succeed(name, result)
}

// verdict applies the configured policy on top of the threshold check. A
// blended score that clears the threshold can still fail: under veto, one
// severe hard-gate issue from any survivor blocks the chunk; under all_pass,
// every configured assessor must have succeeded and passed its own gate.
func (o *Orchestrator) verdict(score int, outcomes map[string]assessment.Outcome) bool {
	if score < o.threshold {
		return false
	}

	switch o.policy {
	case PolicyAllPass:
		for _, outcome := range outcomes {
			if !outcome.Succeeded() || !outcome.Result.Passing {
				return false
			}
		}
	default:
		for _, outcome := range outcomes {
			if !outcome.Succeeded() {
				continue
			}
			if len(outcome.Result.HardGateViolations()) > 0 {
				return false
			}
		}
	}
	return true
}

func summarizeFailures(outcomes map[string]assessment.Outcome) string {
	parts := make([]string, 0, len(outcomes))
	for name, outcome := range outcomes {
		if outcome.Failure != nil {
			parts = append(parts, fmt.Sprintf("%s=%s", name, outcome.Failure.Kind))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
