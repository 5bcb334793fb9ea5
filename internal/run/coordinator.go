package run

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"contentbridge/internal/config"
	"contentbridge/internal/fetch"
	"contentbridge/internal/mapper"
	"contentbridge/internal/media"
	"contentbridge/internal/schema"
	"contentbridge/internal/sink"
	"contentbridge/internal/typegen"
)

// Coordinator drives the node-producing pass (registry → fetch → map → sink)
// and the schema-producing pass (registry → typegen → sink). Both passes
// share one lazily-loaded registry, so invoking them in either order fetches
// the schema once.
type Coordinator struct {
	cfg      *config.Config
	registry *schema.Registry
	fetcher  *fetch.Fetcher
	mapper   *mapper.Mapper
	media    *media.Cache

	nodes  sink.NodeSink
	schema sink.SchemaSink
}

func NewCoordinator(cfg *config.Config, registry *schema.Registry, fetcher *fetch.Fetcher, m *mapper.Mapper, mediaCache *media.Cache, nodes sink.NodeSink, schemaSink sink.SchemaSink) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		registry: registry,
		fetcher:  fetcher,
		mapper:   m,
		media:    mediaCache,
		nodes:    nodes,
		schema:   schemaSink,
	}
}

// TypeReport summarizes one entity type's outcome.
type TypeReport struct {
	Key     string
	Fetched int
	Mapped  int
	Failed  int
	Err     string
}

// Report aggregates a source pass. Per-type and per-record failures are
// collected as warnings instead of aborting siblings, unless fail-fast is
// configured.
type Report struct {
	RunID    string
	Types    []TypeReport
	Warnings []string
	Media    media.MetricsSnapshot
}

func (r *Report) Failed() bool {
	for _, t := range r.Types {
		if t.Err != "" || t.Failed > 0 {
			return true
		}
	}
	return false
}

// RunSource performs the node-producing pass.
func (c *Coordinator) RunSource(ctx context.Context) (*Report, error) {
	if err := c.registry.Load(ctx); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	report := &Report{RunID: uuid.NewString()}
	types := FilterTypes(c.registry.ContentTypes(), c.cfg.AllowedTypes, c.cfg.DeniedTypes)
	log.Printf("run %s: sourcing %d content types", report.RunID, len(types))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)

	for _, et := range types {
		et := et
		g.Go(func() error {
			tr, warnings, err := c.sourceType(gctx, et)
			mu.Lock()
			report.Types = append(report.Types, tr)
			report.Warnings = append(report.Warnings, warnings...)
			mu.Unlock()
			if err != nil && c.cfg.FailFast {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	sort.Slice(report.Types, func(i, j int) bool { return report.Types[i].Key < report.Types[j].Key })
	if c.media != nil {
		report.Media = c.media.Metrics()
	}
	return report, nil
}

// sourceType runs one entity type's fetch-map-sink pipeline. The returned
// error is non-nil only for failures that fail-fast mode should surface; the
// TypeReport always reflects what happened.
func (c *Coordinator) sourceType(ctx context.Context, et schema.EntityType) (TypeReport, []string, error) {
	tr := TypeReport{Key: et.Key}
	var warnings []string

	records, err := c.fetcher.FetchAll(ctx, et)
	if err != nil {
		tr.Err = err.Error()
		warnings = append(warnings, err.Error())
		return tr, warnings, err
	}
	tr.Fetched = len(records)

	for _, record := range records {
		node, side, err := c.mapper.MapEntity(ctx, et, record)
		if err != nil {
			tr.Failed++
			warnings = append(warnings, err.Error())
			if c.cfg.FailFast {
				return tr, warnings, err
			}
			continue
		}
		if err := c.acceptAll(ctx, node, side); err != nil {
			tr.Err = err.Error()
			warnings = append(warnings, err.Error())
			return tr, warnings, err
		}
		tr.Mapped++
	}
	return tr, warnings, nil
}

func (c *Coordinator) acceptAll(ctx context.Context, node *mapper.Node, side []*mapper.Node) error {
	for _, s := range side {
		if err := c.nodes.Accept(ctx, s); err != nil {
			return fmt.Errorf("run: sink side node %s: %w", s.ID, err)
		}
	}
	if err := c.nodes.Accept(ctx, node); err != nil {
		return fmt.Errorf("run: sink node %s: %w", node.ID, err)
	}
	return nil
}

// RunSchema performs the schema-producing pass.
func (c *Coordinator) RunSchema(ctx context.Context) error {
	if err := c.registry.Load(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	types := FilterTypes(c.registry.ContentTypes(), c.cfg.AllowedTypes, c.cfg.DeniedTypes)
	decls := typegen.NewGenerator(c.registry).BuildAll(types)
	if err := c.schema.Accept(ctx, decls); err != nil {
		return fmt.Errorf("run: schema sink: %w", err)
	}
	log.Printf("run: emitted %d type declarations", len(decls))
	return nil
}

// FilterTypes applies the allow-list (absent means all) and then the
// deny-list.
func FilterTypes(types []schema.EntityType, allowed, denied []string) []schema.EntityType {
	allowSet := toSet(allowed)
	denySet := toSet(denied)
	out := make([]schema.EntityType, 0, len(types))
	for _, et := range types {
		if len(allowSet) > 0 {
			if _, ok := allowSet[et.Key]; !ok {
				continue
			}
		}
		if _, ok := denySet[et.Key]; ok {
			continue
		}
		out = append(out, et)
	}
	return out
}

func toSet(keys []string) map[string]struct{} {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
