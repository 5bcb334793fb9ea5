package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"contentbridge/internal/api"
	"contentbridge/internal/config"
	"contentbridge/internal/fetch"
	"contentbridge/internal/mapper"
	"contentbridge/internal/media"
	"contentbridge/internal/media/blob"
	"contentbridge/internal/run"
	"contentbridge/internal/schema"
	"contentbridge/internal/sink"
)

func main() {
	if err := realMain(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

func realMain() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	ctx := context.Background()

	client, err := api.NewClient(cfg.Origin, cfg.HTTPTimeout)
	if err != nil {
		return err
	}
	if !cfg.Credentials.Empty() {
		if err := client.Login(ctx, cfg.Credentials.Identifier, cfg.Credentials.Password); err != nil {
			return err
		}
	}

	registry := schema.NewRegistry(client)
	fetcher := fetch.NewFetcher(client, cfg.PageSize)

	store, err := newBlobStore(cfg)
	if err != nil {
		return err
	}
	manifest, closeManifest, err := newManifest(cfg)
	if err != nil {
		return err
	}
	defer closeManifest()

	cache, err := media.NewCache(client, store, manifest)
	if err != nil {
		return err
	}

	nodes, closeNodes, err := newNodeSink(cfg)
	if err != nil {
		return err
	}
	defer closeNodes()

	schemaSink, err := sink.NewFileSchemaSink(cfg.SchemaOut)
	if err != nil {
		return err
	}

	coord := run.NewCoordinator(cfg, registry, fetcher, mapper.New(registry, cache), cache, nodes, schemaSink)

	if cfg.Mode == "source" || cfg.Mode == "both" {
		report, err := coord.RunSource(ctx)
		if err != nil {
			return err
		}
		printReport(report)
	}
	if cfg.Mode == "schema" || cfg.Mode == "both" {
		if err := coord.RunSchema(ctx); err != nil {
			return err
		}
	}
	return nil
}

func newBlobStore(cfg *config.Config) (blob.Store, error) {
	if cfg.Media.Backend == "s3" {
		return blob.NewS3Store(blob.S3Config{
			Endpoint:  cfg.Media.S3.Endpoint,
			Region:    cfg.Media.S3.Region,
			AccessKey: cfg.Media.S3.AccessKey,
			SecretKey: cfg.Media.S3.SecretKey,
			Bucket:    cfg.Media.S3.Bucket,
			UseSSL:    cfg.Media.S3.UseSSL,
		})
	}
	return blob.NewFSStore(filepath.Join(cfg.CacheDir, cfg.Media.Dir))
}

func newManifest(cfg *config.Config) (media.Manifest, func(), error) {
	if cfg.PostgresDSN != "" {
		m, err := media.NewPGManifest(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close() }, nil
	}
	m, err := media.NewFileManifest(filepath.Join(cfg.CacheDir, "manifest.json"))
	if err != nil {
		return nil, nil, err
	}
	return m, func() {}, nil
}

func newNodeSink(cfg *config.Config) (sink.NodeSink, func(), error) {
	if cfg.PostgresDSN != "" {
		s, err := sink.NewPostgresSink(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	s, err := sink.NewJSONLSink(cfg.NodesOut)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

func printReport(r *run.Report) {
	for _, t := range r.Types {
		if t.Err != "" {
			log.Printf("run %s: %s: fetched=%d mapped=%d failed=%d error=%s", r.RunID, t.Key, t.Fetched, t.Mapped, t.Failed, t.Err)
			continue
		}
		log.Printf("run %s: %s: fetched=%d mapped=%d failed=%d", r.RunID, t.Key, t.Fetched, t.Mapped, t.Failed)
	}
	for _, w := range r.Warnings {
		log.Printf("run %s: warning: %s", r.RunID, w)
	}
	fmt.Printf("media cache: hits=%d misses=%d downloads=%d failures=%d\n",
		r.Media.Hits, r.Media.Misses, r.Media.Downloads, r.Media.Failures)
}
