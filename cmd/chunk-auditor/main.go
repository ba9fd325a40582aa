// cmd/chunk-auditor/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"chunk-auditor/internal/assessors/entityfocus"
	"chunk-auditor/internal/assessors/queryanswer"
	"chunk-auditor/internal/assessors/rubric"
	"chunk-auditor/internal/assessors/structure"
	commonaws "chunk-auditor/internal/common/aws"
	"chunk-auditor/internal/common/config"
	"chunk-auditor/internal/common/database"
	commonhttp "chunk-auditor/internal/common/http"
	"chunk-auditor/internal/common/logger"
	"chunk-auditor/internal/common/observability"
	"chunk-auditor/internal/composite"
	"chunk-auditor/internal/pipeline"
	"chunk-auditor/internal/reasoning"
	"chunk-auditor/internal/render"
	"chunk-auditor/internal/report"
)

const fetchTimeout = 30 * time.Second

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	var (
		urlFlag     = flag.String("url", "", "Audit the page at this URL")
		fileFlag    = flag.String("file", "", "Audit a local markdown or text file")
		contentFlag = flag.String("content", "", "Audit inline content")
		formatFlag  = flag.String("format", "", "Report format: markdown, json or both (default from config)")
		outputFlag  = flag.String("output", "", "Report output directory (default from config)")
		configFlag  = flag.String("config", "", "Path to a config file (default: configs/config.yaml discovery)")
		verbosity   = flag.String("verbosity", "", "Render verbosity: concise, normal or detailed (default from config)")
		serveFlag   = flag.Bool("serve", false, "Run as an HTTP service instead of a one-shot audit")
		debugFlag   = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configFlag != "" {
		cfg, err = config.LoadFromFile(*configFlag)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(2)
	}

	if *formatFlag != "" {
		cfg.Reporting.Format = *formatFlag
	}
	if *outputFlag != "" {
		cfg.Reporting.OutputDir = *outputFlag
	}
	if *verbosity != "" {
		cfg.Reporting.Verbosity = *verbosity
	}

	level := cfg.Logging.Level
	if *debugFlag {
		level = "debug"
	}
	zapLog := logger.New(level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting chunk auditor...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("chunk-auditor")
	defer obs.Shutdown()

	tracing := observability.NewNoopTracing()
	if cfg.Tracing.Enabled {
		tracing, err = observability.NewTracing("chunk-auditor", cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			zapLog.Error("tracing init failed", zap.Error(err))
			os.Exit(2)
		}
	}
	defer tracing.Shutdown()

	ctx := context.Background()

	// --- Reasoning service client ---
	reasoner := reasoning.NewClient(&reasoning.Config{
		BaseURL:         cfg.Reasoning.BaseURL,
		APIKey:          cfg.Reasoning.APIKey,
		Model:           cfg.Reasoning.Model,
		Timeout:         config.GetDuration(cfg.Reasoning.Timeout),
		MaxOutputTokens: cfg.Reasoning.MaxOutputTokens,
		Temperature:     cfg.Reasoning.Temperature,
	}, log)

	// --- Assessor registrations from the enabled set ---
	registrations := buildRegistrations(cfg, reasoner, log)
	if len(registrations) == 0 {
		zapLog.Error("no assessors enabled")
		os.Exit(2)
	}

	orchestrator, err := composite.New(
		&composite.Config{
			Threshold: cfg.Scoring.CompositeThreshold,
			Policy:    composite.VerdictPolicy(cfg.Scoring.Policy),
		},
		registrations, tracing.Tracer(), log,
	)
	if err != nil {
		zapLog.Error("orchestrator init failed", zap.Error(err))
		os.Exit(2)
	}

	// --- Verdict cache (optional) ---
	var evaluator composite.Evaluator = orchestrator
	if cfg.Cache.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Cache.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Error("redis failed after retries", zap.Error(err))
			os.Exit(2)
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		evaluator = composite.NewCachedEvaluator(
			orchestrator, redis,
			time.Duration(cfg.Cache.TTL)*time.Second,
			orchestrator.Fingerprint(), log,
		)
	}

	// --- Document pipeline ---
	pipe, err := pipeline.New(cfg, commonhttp.NewClient(fetchTimeout), log)
	if err != nil {
		zapLog.Error("pipeline init failed", zap.Error(err))
		os.Exit(2)
	}

	opts := render.FormattingOptions{
		Verbosity:    render.Verbosity(cfg.Reporting.Verbosity),
		FilterOutput: cfg.Reporting.FilterOutput,
		MaxItems:     cfg.Reporting.MaxItems,
	}
	runner, err := report.NewRunner(evaluator, opts, cfg.Scoring.MaxConcurrentChunks, log)
	if err != nil {
		zapLog.Error("runner init failed", zap.Error(err))
		os.Exit(2)
	}
	generator := report.NewGenerator(cfg.Reporting, log)

	// --- Audit run store (optional) ---
	var store *report.Store
	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Error("postgres failed after retries", zap.Error(err))
			os.Exit(2)
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		store = report.NewStore(pg.GetDB(), log)
		if err := store.EnsureSchema(ctx); err != nil {
			zapLog.Error("audit schema init failed", zap.Error(err))
			os.Exit(2)
		}
	}

	// --- Chunk result indexer (optional) ---
	var indexer *report.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Error("elasticsearch failed after retries", zap.Error(err))
			os.Exit(2)
		}
		zapLog.Info("Elasticsearch connected successfully")

		indexer = report.NewIndexer(esClient.Client, cfg.Database.Elasticsearch.Index, log)
	}

	// --- Run notifications (optional) ---
	var notifier *report.Notifier
	if cfg.Notifications.Enabled {
		var snsClient *commonaws.SNSClient
		var sesClient *commonaws.SESClient
		if cfg.Notifications.SNS.Enabled {
			snsClient, err = commonaws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Error("sns client init failed", zap.Error(err))
				os.Exit(2)
			}
		}
		if cfg.Notifications.Email.Enabled {
			sesClient, err = commonaws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Error("ses client init failed", zap.Error(err))
				os.Exit(2)
			}
		}
		notifier = report.NewNotifier(cfg.Notifications, snsClient, sesClient, generator, log)
	}

	if *serveFlag {
		server := newServer(cfg, pipe, evaluator, store, generator, obs, log)
		if err := server.run(zapLog); err != nil {
			zapLog.Error("server failed", zap.Error(err))
			os.Exit(2)
		}
		return
	}

	os.Exit(runOnce(ctx, oneShotInputs{
		url:       *urlFlag,
		file:      *fileFlag,
		content:   *contentFlag,
		pipe:      pipe,
		runner:    runner,
		generator: generator,
		store:     store,
		indexer:   indexer,
		notifier:  notifier,
		obs:       obs,
		zapLog:    zapLog,
	}))
}

// buildRegistrations wires every enabled assessor package against the shared
// reasoning client. Weight-table validity is the orchestrator's concern; this
// only translates configuration into registrations.
func buildRegistrations(cfg *config.Config, reasoner *reasoning.Client, log logger.Logger) []composite.Registration {
	var registrations []composite.Registration

	if ac, ok := cfg.Assessors[queryanswer.AssessorName]; ok && ac.Enabled {
		assessor := queryanswer.NewAssessor(&queryanswer.Config{
			Weight:           ac.Weight,
			Threshold:        ac.Threshold,
			Timeout:          config.GetDuration(ac.Timeout),
			TruncationLength: cfg.Scoring.TruncationLength,
		}, reasoner, log)
		registrations = append(registrations, composite.Registration{
			Assessor: assessor,
			Weight:   ac.Weight,
			Timeout:  config.GetDuration(ac.Timeout),
		})
	}

	if ac, ok := cfg.Assessors[rubric.AssessorName]; ok && ac.Enabled {
		assessor := rubric.NewAssessor(&rubric.Config{
			Weight:           ac.Weight,
			Threshold:        ac.Threshold,
			Timeout:          config.GetDuration(ac.Timeout),
			TruncationLength: cfg.Scoring.TruncationLength,
		}, reasoner, log)
		registrations = append(registrations, composite.Registration{
			Assessor: assessor,
			Weight:   ac.Weight,
			Timeout:  config.GetDuration(ac.Timeout),
		})
	}

	if ac, ok := cfg.Assessors[entityfocus.AssessorName]; ok && ac.Enabled {
		assessor := entityfocus.NewAssessor(&entityfocus.Config{
			Weight:           ac.Weight,
			Threshold:        ac.Threshold,
			Timeout:          config.GetDuration(ac.Timeout),
			TruncationLength: cfg.Scoring.TruncationLength,
		}, reasoner, log)
		registrations = append(registrations, composite.Registration{
			Assessor: assessor,
			Weight:   ac.Weight,
			Timeout:  config.GetDuration(ac.Timeout),
		})
	}

	if ac, ok := cfg.Assessors[structure.AssessorName]; ok && ac.Enabled {
		assessor := structure.NewAssessor(&structure.Config{
			Weight:           ac.Weight,
			Threshold:        ac.Threshold,
			Timeout:          config.GetDuration(ac.Timeout),
			TruncationLength: cfg.Scoring.TruncationLength,
		}, reasoner, log)
		registrations = append(registrations, composite.Registration{
			Assessor: assessor,
			Weight:   ac.Weight,
			Timeout:  config.GetDuration(ac.Timeout),
		})
	}

	return registrations
}

type oneShotInputs struct {
	url, file, content string
	pipe               *pipeline.Pipeline
	runner             *report.Runner
	generator          *report.Generator
	store              *report.Store
	indexer            *report.Indexer
	notifier           *report.Notifier
	obs                *observability.Observability
	zapLog             *zap.Logger
}

// runOnce drives a single audit and returns the process exit code: 0 when
// every chunk passed, 1 when the audit completed with failures, 2 on fatal
// errors before a verdict existed.
func runOnce(ctx context.Context, in oneShotInputs) int {
	sources := 0
	for _, s := range []string{in.url, in.file, in.content} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		fmt.Fprintln(os.Stderr, "exactly one of -url, -file or -content is required")
		return 2
	}

	started := time.Now()

	var batch *pipeline.Batch
	var err error
	switch {
	case in.url != "":
		batch, err = in.pipe.ProcessURL(ctx, in.url)
	case in.file != "":
		batch, err = in.pipe.ProcessFile(in.file)
	default:
		batch, err = in.pipe.ProcessString(in.content)
	}
	if err != nil {
		in.zapLog.Error("document pipeline failed", zap.Error(err))
		in.obs.RecordEvaluationProcessed(ctx, "error")
		return 2
	}

	runReport, err := in.runner.Run(ctx, batch)
	if err != nil {
		in.zapLog.Error("audit run failed", zap.Error(err))
		in.obs.RecordEvaluationProcessed(ctx, "error")
		return 2
	}
	in.obs.RecordEvaluationProcessed(ctx, "success")
	in.obs.RecordEvaluationDuration(ctx, time.Since(started), "success")

	files, err := in.generator.WriteReports(runReport)
	if err != nil {
		in.zapLog.Error("report write failed", zap.Error(err))
		return 2
	}
	for format, path := range files {
		in.zapLog.Info("report written", zap.String("format", format), zap.String("path", path))
	}

	// Sinks are best-effort once the verdict exists on disk.
	if in.store != nil {
		if err := in.store.SaveRun(ctx, runReport); err != nil {
			in.zapLog.Warn("audit run not persisted", zap.Error(err))
		}
	}
	if in.indexer != nil {
		if err := in.indexer.IndexRun(ctx, runReport); err != nil {
			in.zapLog.Warn("audit run not indexed", zap.Error(err))
		}
	}
	if in.notifier != nil {
		if err := in.notifier.NotifyRunComplete(ctx, runReport); err != nil {
			in.zapLog.Warn("run notification failed", zap.Error(err))
		}
	}

	fmt.Println(in.generator.Summary(runReport))

	if runReport.Passing {
		return 0
	}
	return 1
}
