// Package tagservice wires the tag domain to its collaborators: it builds
// the registry from a document source, resolves tags against a catalog,
// reports load runs, and swaps in a fresh registry generation on reload.
package tagservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/tagset/internal/domain/tags"
	"github.com/zjrosen/tagset/internal/log"
	"github.com/zjrosen/tagset/internal/pubsub"
	"github.com/zjrosen/tagset/internal/tracing"
)

// ErrNotAGroup is returned by ResolveGroup for concrete item references.
var ErrNotAGroup = errors.New("reference is not a group")

// generation is one immutable registry build. Tags inside it are resolved
// lazily, but the set of tags never changes.
type generation struct {
	id       uint64
	registry *tags.Registry
	resolver *tags.Resolver
}

// Service resolves the user tags of one namespace.
type Service struct {
	namespace string
	source    DocumentSource
	catalog   tags.Catalog
	tracer    trace.Tracer
	broker    *pubsub.Broker[TagEvent]
	now       func() time.Time

	// mu serializes first-time resolution and reloads. Reads of already
	// resolved tags never take it.
	mu  sync.Mutex
	gen atomic.Pointer[generation]
}

// Option configures a Service.
type Option func(*Service)

// WithTracer records spans for load and resolve operations.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithBroker publishes a TagEvent for every resolution outcome.
func WithBroker(broker *pubsub.Broker[TagEvent]) Option {
	return func(s *Service) {
		s.broker = broker
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New builds the first registry generation from source. No documents are
// read until a tag is resolved.
func New(catalog tags.Catalog, source DocumentSource, namespace string, opts ...Option) (*Service, error) {
	s := &Service{
		namespace: namespace,
		source:    source,
		catalog:   catalog,
		tracer:    noop.NewTracerProvider().Tracer("noop"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	gen, err := s.buildGeneration(1)
	if err != nil {
		return nil, err
	}
	s.gen.Store(gen)

	log.Debug(log.CatTags, "Tag registry built", "namespace", namespace, "tags", gen.registry.Len())
	return s, nil
}

func (s *Service) buildGeneration(id uint64) (*generation, error) {
	names, err := s.source.Names()
	if err != nil {
		return nil, err
	}

	registry := tags.NewRegistry(s.namespace)
	for _, name := range names {
		if _, err := registry.Add(name); err != nil {
			return nil, fmt.Errorf("register tag %q: %w", name, err)
		}
	}
	return &generation{
		id:       id,
		registry: registry,
		resolver: tags.NewResolver(s.catalog, registry),
	}, nil
}

// Namespace returns the namespace of every tag in the service.
func (s *Service) Namespace() string {
	return s.namespace
}

// Generation returns the current registry generation number.
func (s *Service) Generation() uint64 {
	return s.gen.Load().id
}

// Tags returns every tag of the current generation, sorted by key.
func (s *Service) Tags() []*tags.Tag {
	return s.gen.Load().registry.List()
}

// Lookup returns a tag of the current generation without resolving it.
func (s *Service) Lookup(name string) (*tags.Tag, error) {
	key, err := s.keyFor(name)
	if err != nil {
		return nil, err
	}
	tag, err := s.gen.Load().registry.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, key)
	}
	return tag, nil
}

// keyFor accepts "ores", "slimefun:ores" or "$slimefun:ores".
func (s *Service) keyFor(name string) (tags.Key, error) {
	name = strings.TrimPrefix(name, string(tags.UserTagSigil))
	if !strings.Contains(name, ":") {
		name = s.namespace + ":" + name
	}
	key, err := tags.ParseKey(strings.ToLower(name))
	if err != nil {
		return tags.Key{}, fmt.Errorf("%w: %q", err, name)
	}
	return key, nil
}

// Resolve returns the named tag, resolving it and any user tags it
// references on first use. The error describes only the named tag; failing
// sub-tags are logged and published but leave the parent resolved.
func (s *Service) Resolve(ctx context.Context, name string) (*tags.Tag, error) {
	tag, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}
	if tag.Resolved() {
		return tag, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A reload may have swapped generations while we waited.
	gen := s.gen.Load()
	if tag, err = gen.registry.Get(tag.Key()); err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}
	if err := s.resolveTree(ctx, gen, tag, ""); err != nil {
		return nil, err
	}
	return tag, nil
}

// ResolveGroup resolves a "#namespace:name" built-in group or a
// "$namespace:name" user tag reference.
func (s *Service) ResolveGroup(ctx context.Context, ref string) (tags.Group, error) {
	kind, err := tags.Classify(ref)
	if err != nil {
		return nil, err
	}
	switch kind {
	case tags.ReferenceUserTag:
		tag, err := s.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		return tag, nil
	case tags.ReferenceBuiltinGroup:
		resolved, err := s.gen.Load().resolver.Resolve(kind, ref)
		if err != nil {
			return nil, err
		}
		return resolved.Group, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotAGroup, ref)
	}
}

// resolveTree resolves tag and then, depth first, every unresolved user tag
// it references. Callers hold s.mu.
func (s *Service) resolveTree(ctx context.Context, gen *generation, tag *tags.Tag, runID string) error {
	if err := s.resolveOne(ctx, gen, tag, runID); err != nil {
		return err
	}

	pending := []*tags.Tag{tag}
	seen := map[*tags.Tag]struct{}{tag: {}}
	for len(pending) > 0 {
		current := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		for _, g := range current.Tags() {
			sub, ok := g.(*tags.Tag)
			if !ok {
				continue
			}
			if _, dup := seen[sub]; dup {
				continue
			}
			seen[sub] = struct{}{}
			if !sub.Resolved() {
				if err := s.resolveOne(ctx, gen, sub, runID); err != nil {
					continue
				}
			}
			pending = append(pending, sub)
		}
	}
	return nil
}

// resolveOne resolves a single tag inside a span, logging and publishing the
// outcome. Callers hold s.mu.
func (s *Service) resolveOne(ctx context.Context, gen *generation, tag *tags.Tag, runID string) error {
	if tag.Resolved() {
		return nil
	}

	_, span := s.tracer.Start(ctx, tracing.SpanResolve, trace.WithAttributes(
		attribute.String(tracing.AttrTagKey, tag.Key().String()),
		attribute.String(tracing.AttrRunID, runID),
	))

	entries := 0
	evaluator := tags.NewEvaluator(gen.resolver, tags.WithEntryObserver(func(e tags.EntryEvent) {
		switch e.State {
		case tags.StateResolving:
			entries++
		case tags.StateResolved:
			log.Debug(log.CatTags, "Entry resolved", "tag", e.Tag, "entry", e.Reference)
		case tags.StateSkipped:
			log.Debug(log.CatTags, "Optional entry skipped", "tag", e.Tag, "entry", e.Reference, "reason", e.Err)
			span.AddEvent(tracing.EventEntrySkipped, trace.WithAttributes(attribute.String("entry", e.Reference)))
		case tags.StateFailed:
			span.AddEvent(tracing.EventEntryFailed, trace.WithAttributes(attribute.String("entry", e.Reference)))
		}
	}))

	result, err := tag.Resolve(s.source, evaluator)
	span.SetAttributes(attribute.Int(tracing.AttrTagEntries, entries))
	if err != nil {
		var misErr *tags.MisconfigurationError
		if errors.As(err, &misErr) {
			span.SetAttributes(attribute.String(tracing.AttrErrorKind, misErr.Kind.String()))
			log.ErrorErr(log.CatTags, "Tag misconfigured", err, "tag", tag.Key(), "entry", misErr.Entry, "kind", misErr.Kind)
		} else {
			log.ErrorErr(log.CatTags, "Tag resolution failed", err, "tag", tag.Key())
		}
		tracing.End(span, err)
		s.publish(pubsub.FailedEvent, TagEvent{Key: tag.Key(), Generation: gen.id, RunID: runID, Err: err})
		return err
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrTagMaterials, len(result.Materials)),
		attribute.Int(tracing.AttrTagSubtags, len(result.Tags)),
	)
	tracing.End(span, nil)

	log.Debug(log.CatTags, "Tag resolved", "tag", tag.Key(), "materials", len(result.Materials), "groups", len(result.Tags))
	s.publish(pubsub.ResolvedEvent, TagEvent{
		Key:        tag.Key(),
		Generation: gen.id,
		RunID:      runID,
		Materials:  len(result.Materials),
		Subtags:    len(result.Tags),
	})
	return nil
}

func (s *Service) publish(eventType pubsub.EventType, ev TagEvent) {
	if s.broker != nil {
		s.broker.Publish(eventType, ev)
	}
}

// LoadAll resolves every tag of the current generation. Failed tags stay
// unresolved; the returned error joins their errors.
func (s *Service) LoadAll(ctx context.Context) (*LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.loadGeneration(ctx, tracing.SpanLoadAll, s.gen.Load())
	return report, report.Err()
}

// Reload rebuilds the registry from the source, resolves every tag of the
// new generation and swaps it in. Readers holding tags of the previous
// generation keep a consistent snapshot. The swap happens even when some
// tags fail, so fixed documents take effect without waiting for the rest.
func (s *Service) Reload(ctx context.Context) (*LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.gen.Load()
	next, err := s.buildGeneration(old.id + 1)
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}

	report := s.loadGeneration(ctx, tracing.SpanReload, next)
	for _, tag := range old.registry.List() {
		if _, err := next.registry.Get(tag.Key()); err != nil {
			report.Removed = append(report.Removed, tag.Key())
			s.publish(pubsub.RemovedEvent, TagEvent{Key: tag.Key(), Generation: next.id, RunID: report.RunID})
		}
	}
	s.gen.Store(next)

	log.Info(log.CatTags, "Tags reloaded",
		"generation", next.id, "resolved", len(report.Resolved), "failed", len(report.Failed), "removed", len(report.Removed))
	return report, report.Err()
}

// loadGeneration resolves all tags of gen. Callers hold s.mu.
func (s *Service) loadGeneration(ctx context.Context, spanName string, gen *generation) *LoadReport {
	report := &LoadReport{
		RunID:      uuid.NewString(),
		Generation: gen.id,
		StartedAt:  s.now(),
	}

	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String(tracing.AttrRunID, report.RunID),
	))

	for _, tag := range gen.registry.List() {
		if err := s.resolveOne(ctx, gen, tag, report.RunID); err != nil {
			report.Failed = append(report.Failed, TagFailure{Key: tag.Key(), Err: err})
			continue
		}
		report.Resolved = append(report.Resolved, tag.Key())
	}
	report.Duration = s.now().Sub(report.StartedAt)

	span.SetAttributes(
		attribute.Int(tracing.AttrTagsLoaded, len(report.Resolved)),
		attribute.Int(tracing.AttrTagsFailed, len(report.Failed)),
	)
	tracing.End(span, report.Err())

	log.Info(log.CatTags, "Tags loaded",
		"run", report.RunID, "resolved", len(report.Resolved), "failed", len(report.Failed))
	return report
}
