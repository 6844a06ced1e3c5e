// Package filter decides whether an item passes a configured allow/deny list
// of group references. Decisions are memoized until Invalidate is called,
// typically after the tags they depend on were reloaded.
package filter

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/tagset/internal/cachemanager"
	"github.com/zjrosen/tagset/internal/config"
	"github.com/zjrosen/tagset/internal/domain/tags"
	"github.com/zjrosen/tagset/internal/log"
	"github.com/zjrosen/tagset/internal/tracing"
)

// GroupResolver resolves "#ns:name" and "$ns:name" references to groups.
// *tagservice.Service satisfies it.
type GroupResolver interface {
	ResolveGroup(ctx context.Context, ref string) (tags.Group, error)
}

// Decision is the outcome of one Permits call.
type Decision struct {
	Allowed bool
	Reason  string
}

// lookup carries the item into the cache loader and reports back whether the
// loader ran.
type lookup struct {
	id     tags.Key
	loaded *bool
}

// ItemFilter applies deny entries first, then allow entries. An empty allow
// list admits every item that no deny entry matched.
type ItemFilter struct {
	groups GroupResolver
	allow  []string
	deny   []string
	ttl    time.Duration
	tracer trace.Tracer

	decisions *cachemanager.InMemoryCacheManager[string, Decision]
	cache     *cachemanager.ReadThroughCache[string, Decision, lookup]
}

// Option configures an ItemFilter.
type Option func(*ItemFilter)

// WithTracer records a span per Permits call.
func WithTracer(tracer trace.Tracer) Option {
	return func(f *ItemFilter) {
		if tracer != nil {
			f.tracer = tracer
		}
	}
}

// New builds a filter from cfg. Entries must be group references.
func New(groups GroupResolver, cfg config.FilterConfig, opts ...Option) (*ItemFilter, error) {
	if err := config.ValidateFilter(cfg); err != nil {
		return nil, err
	}

	f := &ItemFilter{
		groups:    groups,
		allow:     cfg.Allow,
		deny:      cfg.Deny,
		ttl:       cfg.CacheTTL,
		tracer:    noop.NewTracerProvider().Tracer("noop"),
		decisions: cachemanager.NewInMemoryCacheManager[string, Decision]("filter", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.cache = cachemanager.NewReadThroughCache[string, Decision, lookup](f.decisions, f.decide, false)
	return f, nil
}

// Permits reports whether id passes the filter. Errors resolving a configured
// group are returned and not cached.
func (f *ItemFilter) Permits(ctx context.Context, id string) (Decision, error) {
	ctx, span := f.tracer.Start(ctx, tracing.SpanFilter, trace.WithAttributes(
		attribute.String(tracing.AttrItemID, id),
	))

	key, err := tags.ParseKey(id)
	if err != nil {
		err = fmt.Errorf("%w: %q", err, id)
		tracing.End(span, err)
		return Decision{}, err
	}

	loaded := false
	decision, err := f.cache.Get(ctx, key.String(), lookup{id: key, loaded: &loaded}, f.ttl)
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, err == nil && !loaded))
	tracing.End(span, err)
	if err != nil {
		return Decision{}, err
	}
	return decision, nil
}

func (f *ItemFilter) decide(ctx context.Context, in lookup) (Decision, error) {
	*in.loaded = true

	for _, ref := range f.deny {
		hit, err := f.matches(ctx, ref, in.id)
		if err != nil {
			return Decision{}, err
		}
		if hit {
			return Decision{Allowed: false, Reason: "denied by " + ref}, nil
		}
	}

	if len(f.allow) == 0 {
		return Decision{Allowed: true, Reason: "no allow list"}, nil
	}
	for _, ref := range f.allow {
		hit, err := f.matches(ctx, ref, in.id)
		if err != nil {
			return Decision{}, err
		}
		if hit {
			return Decision{Allowed: true, Reason: "allowed by " + ref}, nil
		}
	}
	return Decision{Allowed: false, Reason: "not in allow list"}, nil
}

func (f *ItemFilter) matches(ctx context.Context, ref string, id tags.Key) (bool, error) {
	group, err := f.groups.ResolveGroup(ctx, ref)
	if err != nil {
		return false, fmt.Errorf("filter entry %s: %w", ref, err)
	}
	return group.Contains(id), nil
}

// Invalidate drops every memoized decision.
func (f *ItemFilter) Invalidate(ctx context.Context) error {
	log.Debug(log.CatFilter, "Filter decisions invalidated")
	return f.cache.Invalidate(ctx)
}

// Stats returns the decision cache counters.
func (f *ItemFilter) Stats() cachemanager.Stats {
	return f.decisions.Stats()
}
