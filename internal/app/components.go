package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/config"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/wuzzuf-jobs-crawler/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/wuzzuf-jobs-crawler/internal/fetcher/headless"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/headless/detector"
	kafkapublisher "github.com/JakeFAU/wuzzuf-jobs-crawler/internal/publisher/kafka"
	pubsubpublisher "github.com/JakeFAU/wuzzuf-jobs-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/sink"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/storage/gcs"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/storage/local"
	memorystorage "github.com/JakeFAU/wuzzuf-jobs-crawler/internal/storage/memory"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/storage/postgres"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/storage/sqlite"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/store"
	memorystore "github.com/JakeFAU/wuzzuf-jobs-crawler/internal/store/memory"
	redisstore "github.com/JakeFAU/wuzzuf-jobs-crawler/internal/store/redis"
)

func newStatusStore(cfg *config.Config) (store.StatusStore, error) {
	switch cfg.Status.Provider {
	case "redis":
		s, err := redisstore.New(redisstore.Config{
			Addr:      cfg.Status.RedisAddr,
			KeyPrefix: cfg.Status.KeyPrefix,
			TTL:       cfg.StatusTTL(),
		})
		if err != nil {
			return nil, fmt.Errorf("init redis status store: %w", err)
		}
		return s, nil
	case "memory", "":
		return memorystore.NewStatusStore(), nil
	default:
		return nil, fmt.Errorf("unknown status provider: %s", cfg.Status.Provider)
	}
}

// newOutputs opens every configured destination. The returned closers
// release clients the sinks do not own; they are valid even when err is set.
func newOutputs(ctx context.Context, cfg *config.Config, runID string, logger *zap.Logger) ([]crawler.Sink, []func() error, error) {
	var (
		outputs []crawler.Sink
		closers []func() error
	)
	closeOutputs := func() {
		for _, s := range outputs {
			if err := s.Close(ctx); err != nil {
				logger.Warn("close output after failed init", zap.Error(err))
			}
		}
	}
	fail := func(err error) ([]crawler.Sink, []func() error, error) {
		closeOutputs()
		return nil, closers, err
	}

	jsonl, err := sink.NewJSONL(cfg.Output.JSONLPath)
	if err != nil {
		return fail(fmt.Errorf("init jsonl output: %w", err))
	}
	outputs = append(outputs, jsonl)
	logger.Info("writing dataset", zap.String("path", cfg.Output.JSONLPath))

	blobCfg := cfg.Output.Blob
	var blobs crawler.BlobStore
	switch blobCfg.Provider {
	case "memory":
		blobs = memorystorage.NewBlobStore()
	case "local":
		if blobs, err = local.New(local.Config{BaseDir: blobCfg.BaseDir}); err != nil {
			return fail(fmt.Errorf("init local blob store: %w", err))
		}
	case "gcs":
		bucket, err := gcs.Open(ctx, gcs.Config{Bucket: blobCfg.Bucket})
		if err != nil {
			return fail(fmt.Errorf("init gcs blob store: %w", err))
		}
		closers = append(closers, bucket.Close)
		blobs = bucket
	case "none", "":
	default:
		return fail(fmt.Errorf("unknown blob provider: %s", blobCfg.Provider))
	}
	if blobs != nil {
		blobSink, err := sink.NewBlob(blobs, blobCfg.Prefix, runID)
		if err != nil {
			return fail(fmt.Errorf("init blob output: %w", err))
		}
		outputs = append(outputs, blobSink)
		logger.Info("writing blob objects", zap.String("provider", blobCfg.Provider), zap.String("prefix", blobCfg.Prefix))
	}

	if pg := cfg.Output.Postgres; pg.DSN != "" {
		records, err := postgres.New(ctx, postgres.Config{
			DSN:        pg.DSN,
			JobsTable:  pg.JobsTable,
			LinksTable: pg.LinksTable,
		})
		if err != nil {
			return fail(fmt.Errorf("init postgres output: %w", err))
		}
		if err := records.EnsureSchema(ctx); err != nil {
			_ = records.Close()
			return fail(fmt.Errorf("ensure postgres schema: %w", err))
		}
		storeSink, err := sink.NewStore(records)
		if err != nil {
			_ = records.Close()
			return fail(err)
		}
		outputs = append(outputs, storeSink)
		logger.Info("writing postgres tables", zap.String("jobs_table", pg.JobsTable), zap.String("links_table", pg.LinksTable))
	}

	if path := cfg.Output.SQLite.Path; path != "" {
		records, err := sqlite.Open(ctx, path)
		if err != nil {
			return fail(fmt.Errorf("init sqlite output: %w", err))
		}
		storeSink, err := sink.NewStore(records)
		if err != nil {
			_ = records.Close()
			return fail(err)
		}
		outputs = append(outputs, storeSink)
		logger.Info("writing sqlite database", zap.String("path", path))
	}

	if kc := cfg.Output.Kafka; len(kc.Brokers) > 0 {
		pub, err := kafkapublisher.New(kc.Brokers)
		if err != nil {
			return fail(fmt.Errorf("init kafka output: %w", err))
		}
		publishSink, err := sink.NewPublish(pub, sink.Topics{Jobs: kc.Topic, Links: kc.Topic})
		if err != nil {
			_ = pub.Close()
			return fail(err)
		}
		outputs = append(outputs, publishSink)
		logger.Info("publishing to kafka", zap.Strings("brokers", kc.Brokers), zap.String("topic", kc.Topic))
	}

	if pc := cfg.Output.PubSub; pc.ProjectID != "" {
		client, err := pubsub.NewClient(ctx, pc.ProjectID)
		if err != nil {
			return fail(fmt.Errorf("init pubsub client: %w", err))
		}
		pub := pubsubpublisher.New(client)
		publishSink, err := sink.NewPublish(pub, sink.Topics{Jobs: pc.Topic, Links: pc.Topic})
		if err != nil {
			_ = pub.Close()
			return fail(err)
		}
		outputs = append(outputs, publishSink)
		logger.Info("publishing to pubsub", zap.String("project", pc.ProjectID), zap.String("topic", pc.Topic))
	}

	return outputs, closers, nil
}

type fetchers struct {
	probe    crawler.Fetcher
	headless crawler.Fetcher
	detector crawler.HeadlessDetector
	closer   func() error
}

func newFetchers(cfg *config.Config, probe crawler.Fetcher, logger *zap.Logger) fetchers {
	var f fetchers
	f.probe = probe
	if f.probe == nil {
		f.probe = collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.Crawler.UserAgent,
			RespectRobots: !cfg.Crawler.IgnoreRobots,
			Timeout:       cfg.HTTPTimeout(),
		})
	}
	if !cfg.Headless.Enabled {
		return f
	}
	renderer, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
		MaxParallel:       cfg.Headless.MaxParallel,
		UserAgent:         cfg.Crawler.UserAgent,
		NavigationTimeout: cfg.HeadlessNavTimeout(),
		DetailSegment:     cfg.Site.DetailSegment,
	})
	if err != nil {
		// Static fetching still works; JS-only pages come back thin.
		logger.Warn("headless fetcher init failed", zap.Error(err))
		return f
	}
	f.headless = renderer
	f.detector = detector.NewHeuristic(cfg.Headless.PromotionThreshold, cfg.Site.DetailSegment)
	f.closer = func() error {
		renderer.Close()
		return nil
	}
	logger.Info("headless rendering enabled", zap.Int("max_parallel", cfg.Headless.MaxParallel))
	return f
}
