package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rohankatakam/relfinder/internal/cache"
	"github.com/rohankatakam/relfinder/internal/capture"
	"github.com/rohankatakam/relfinder/internal/config"
	"github.com/rohankatakam/relfinder/internal/finder"
	"github.com/rohankatakam/relfinder/internal/graph"
	"github.com/rohankatakam/relfinder/internal/sparql"
)

// services is everything a command may need, built from cfg.
// Close releases whatever was opened.
type services struct {
	allow    *config.AllowLists
	endpoint *sparql.Endpoint
	finder   *finder.Finder
	enricher *graph.Enricher
	registry *prometheus.Registry

	captures *capture.Store
	redis    *cache.Client
}

type serviceOptions struct {
	metrics  bool
	captures bool
	enrich   bool
}

func newServices(ctx context.Context, opts serviceOptions) (*services, error) {
	allow, err := config.LoadAllowLists(cfg.AllowListFile)
	if err != nil {
		return nil, err
	}

	endpoint, err := sparql.NewEndpoint(sparql.EndpointConfig{
		URL:               cfg.Endpoint.URL,
		Username:          cfg.Endpoint.Username,
		Password:          cfg.Endpoint.Password,
		Reasoning:         cfg.Endpoint.Reasoning,
		Timeout:           cfg.Endpoint.Timeout,
		RateLimit:         cfg.Endpoint.RateLimit,
		Burst:             cfg.Endpoint.Burst,
		OntologyNamespace: cfg.Endpoint.OntologyNamespace,
	})
	if err != nil {
		return nil, err
	}

	s := &services{allow: allow, endpoint: endpoint}

	var finderOpts []finder.Option
	if opts.metrics {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		finderOpts = append(finderOpts, finder.WithMetrics(finder.NewMetrics(s.registry)))
	}
	if opts.captures && cfg.Capture.Path != "" {
		store, err := capture.Open(cfg.Capture.Path)
		if err != nil {
			return nil, err
		}
		s.captures = store
		finderOpts = append(finderOpts, finder.WithRecorder(store))
		logger.WithField("path", cfg.Capture.Path).Debug("Capturing requests")
	}

	s.finder, err = finder.New(endpoint, finderSettings(allow), finderOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}

	if opts.enrich {
		var store cache.StringStore = cache.NewMemoryStore(cfg.Cache.TTL)
		if cfg.Cache.Addr != "" {
			client, err := cache.NewClient(ctx, cache.Options{
				Addr:     cfg.Cache.Addr,
				Password: cfg.Cache.Password,
				DB:       cfg.Cache.DB,
				TTL:      cfg.Cache.TTL,
				Prefix:   cfg.Cache.Prefix,
			})
			if err != nil {
				logger.WithError(err).Warn("Redis unavailable, caching labels in memory")
			} else {
				s.redis = client
				store = client
			}
		}
		s.enricher = graph.NewEnricher(cache.NewCachingLabeler(endpoint, store), graph.EnricherConfig{
			ChunkSize:    cfg.Enrichment.ChunkSize,
			Concurrency:  cfg.Enrichment.Concurrency,
			DefaultClass: cfg.Enrichment.DefaultClass,
			Separator:    cfg.Finder.Separator,
		})
	}

	return s, nil
}

func finderSettings(allow *config.AllowLists) finder.Settings {
	return finder.Settings{
		AllowedProperties: allow.ObjectProperties,
		IgnoredProperties: cfg.Finder.IgnoredProperties,
		IgnoredObjects:    cfg.Finder.IgnoredObjects,
		CycleStrategy:     cfg.Finder.CycleStrategy,
		Limit:             cfg.Finder.Limit,
		Concurrency:       cfg.Finder.Concurrency,
		QueryTimeout:      cfg.Finder.QueryTimeout,
		Separator:         cfg.Finder.Separator,
	}
}

func (s *services) Close() {
	if s.captures != nil {
		if err := s.captures.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close capture store")
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

func newExporter(ctx context.Context) (*graph.Neo4jExporter, error) {
	return graph.NewNeo4jExporter(ctx, graph.Neo4jConfig{
		URI:       cfg.Neo4j.URI,
		Username:  cfg.Neo4j.User,
		Password:  cfg.Neo4j.Password,
		Database:  cfg.Neo4j.Database,
		BatchSize: cfg.Neo4j.BatchSize,
	})
}
