package tagservice

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"pgregory.net/rapid"

	"github.com/zjrosen/tagset/internal/domain/tags"
	"github.com/zjrosen/tagset/internal/pubsub"
	"github.com/zjrosen/tagset/internal/testutil"
	"github.com/zjrosen/tagset/internal/tracing"
)

// countingSource wraps a DocumentSource and counts document reads.
type countingSource struct {
	DocumentSource
	mu    sync.Mutex
	reads map[string]int
}

func newCountingSource(fsys fs.FS) *countingSource {
	return &countingSource{DocumentSource: NewFSSource(fsys), reads: map[string]int{}}
}

func (s *countingSource) Read(key tags.Key) ([]byte, error) {
	s.mu.Lock()
	s.reads[key.Name]++
	s.mu.Unlock()
	return s.DocumentSource.Read(key)
}

func (s *countingSource) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[name]
}

func newStandardService(t *testing.T, opts ...Option) (*Service, *countingSource) {
	t.Helper()
	b := testutil.NewBuilder(t).WithStandardCatalog().WithStandardTags()
	src := newCountingSource(b.FS())
	svc, err := New(b.Catalog(), src, "slimefun", opts...)
	require.NoError(t, err)
	return svc, src
}

func keyStrings(keys []tags.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func TestNew_RegistersEveryDocument(t *testing.T) {
	svc, src := newStandardService(t)

	var names []string
	for _, tag := range svc.Tags() {
		names = append(names, tag.Key().String())
		require.False(t, tag.Resolved())
	}
	require.Equal(t, []string{
		"slimefun:broken", "slimefun:fuel", "slimefun:ores", "slimefun:smeltables", "slimefun:soft",
	}, names)
	require.Equal(t, uint64(1), svc.Generation())
	require.Equal(t, "slimefun", svc.Namespace())
	require.Zero(t, src.count("ores"), "construction must not read documents")
}

func TestResolve_ConcreteItemsAndOptional(t *testing.T) {
	svc, _ := newStandardService(t)

	tag, err := svc.Resolve(context.Background(), "ores")
	require.NoError(t, err)
	require.True(t, tag.Resolved())
	require.Equal(t, []string{"minecraft:gold_ore", "minecraft:iron_ore"}, keyStrings(tag.Materials()))
	require.Empty(t, tag.Tags())
}

func TestResolve_AcceptsQualifiedNames(t *testing.T) {
	svc, _ := newStandardService(t)
	ctx := context.Background()

	for _, name := range []string{"ores", "ORES", "slimefun:ores", "$slimefun:ores"} {
		tag, err := svc.Resolve(ctx, name)
		require.NoError(t, err, name)
		require.Equal(t, "slimefun:ores", tag.Key().String())
	}
}

func TestResolve_ItemGroupShadowsBlockGroup(t *testing.T) {
	svc, _ := newStandardService(t)

	tag, err := svc.Resolve(context.Background(), "fuel")
	require.NoError(t, err)
	require.Len(t, tag.Tags(), 1)
	require.Equal(t, tags.RegistryItems, tag.Tags()[0].Registry())
	require.ElementsMatch(t, []string{"minecraft:birch_log", "minecraft:coal_ore", "minecraft:oak_log"}, keyStrings(tag.Values()))
}

func TestResolve_ResolvesReferencedUserTags(t *testing.T) {
	svc, _ := newStandardService(t)

	tag, err := svc.Resolve(context.Background(), "smeltables")
	require.NoError(t, err)

	ores, err := svc.Lookup("ores")
	require.NoError(t, err)
	require.True(t, ores.Resolved(), "referenced tag should be resolved alongside its parent")
	require.True(t, tag.Contains(tags.MustParseKey("minecraft:iron_ore")))
	require.True(t, tag.Contains(tags.MustParseKey("minecraft:stone")))
	require.False(t, tag.Contains(tags.MustParseKey("minecraft:coal_ore")))
}

func TestResolve_RequiredFailure(t *testing.T) {
	svc, _ := newStandardService(t)

	_, err := svc.Resolve(context.Background(), "broken")
	require.ErrorIs(t, err, tags.ErrUnresolvedReference)
	require.EqualError(t, err, "tag 'slimefun:broken' has been misconfigured: unknown item 'minecraft:nonexistent'")

	tag, lookupErr := svc.Lookup("broken")
	require.NoError(t, lookupErr)
	require.False(t, tag.Resolved(), "failed tag must stay unresolved")
	require.Empty(t, tag.Values())
}

func TestResolve_FailedSubTagStaysEmptyMember(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardCatalog().WithStandardTags().
		WithTag("parent", "$slimefun:broken", "minecraft:stone")
	svc, err := New(b.Catalog(), NewFSSource(b.FS()), "slimefun")
	require.NoError(t, err)

	parent, err := svc.Resolve(context.Background(), "parent")
	require.NoError(t, err)
	require.True(t, parent.Resolved())
	require.Len(t, parent.Tags(), 1)
	require.Equal(t, []string{"minecraft:stone"}, keyStrings(parent.Values()))

	broken, err := svc.Lookup("broken")
	require.NoError(t, err)
	require.False(t, broken.Resolved())

	report, err := svc.LoadAll(context.Background())
	require.Error(t, err)
	require.Contains(t, keyStrings(report.Resolved), "slimefun:parent")
	require.Len(t, report.Failed, 1)
	require.Equal(t, "slimefun:broken", report.Failed[0].Key.String())
}

func TestResolve_UnknownTag(t *testing.T) {
	svc, _ := newStandardService(t)

	_, err := svc.Resolve(context.Background(), "missing")
	require.ErrorIs(t, err, tags.ErrTagNotFound)

	_, err = svc.Resolve(context.Background(), "other:ores")
	require.ErrorIs(t, err, tags.ErrTagNotFound, "tags outside the namespace are not found")

	_, err = svc.Resolve(context.Background(), "Not A Name!")
	require.ErrorIs(t, err, tags.ErrInvalidKey)
}

func TestResolve_IsIdempotent(t *testing.T) {
	svc, src := newStandardService(t)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, "ores")
	require.NoError(t, err)
	for range 5 {
		again, err := svc.Resolve(ctx, "ores")
		require.NoError(t, err)
		require.Same(t, first, again)
	}
	require.Equal(t, 1, src.count("ores"))
}

func TestResolve_ConcurrentFirstUseReadsOnce(t *testing.T) {
	svc, src := newStandardService(t)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Resolve(context.Background(), "smeltables")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, src.count("smeltables"))
	require.Equal(t, 1, src.count("ores"))
}

func TestResolveGroup(t *testing.T) {
	svc, _ := newStandardService(t)
	ctx := context.Background()

	g, err := svc.ResolveGroup(ctx, "#minecraft:wool")
	require.NoError(t, err)
	require.Equal(t, tags.RegistryBlocks, g.Registry())

	g, err = svc.ResolveGroup(ctx, "$slimefun:ores")
	require.NoError(t, err)
	require.Equal(t, tags.RegistryUser, g.Registry())

	_, err = svc.ResolveGroup(ctx, "minecraft:stone")
	require.ErrorIs(t, err, ErrNotAGroup)

	_, err = svc.ResolveGroup(ctx, "#minecraft:missing")
	require.ErrorIs(t, err, tags.ErrUnresolvedReference)

	g, err = svc.ResolveGroup(ctx, "$slimefun:broken")
	require.Error(t, err)
	require.Nil(t, g)
}

func TestLoadAll_Report(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * time.Millisecond)
	}
	svc, _ := newStandardService(t, WithClock(clock))

	report, err := svc.LoadAll(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, tags.ErrUnresolvedReference)

	require.NotEmpty(t, report.RunID)
	require.Equal(t, uint64(1), report.Generation)
	require.Equal(t, []string{"slimefun:fuel", "slimefun:ores", "slimefun:smeltables", "slimefun:soft"}, keyStrings(report.Resolved))
	require.Len(t, report.Failed, 1)
	require.Equal(t, "slimefun:broken", report.Failed[0].Key.String())
	require.Equal(t, 5, report.Total())
	require.Equal(t, time.Millisecond, report.Duration)
}

func TestLoadAll_SecondRunReadsNothing(t *testing.T) {
	svc, src := newStandardService(t)
	ctx := context.Background()

	_, _ = svc.LoadAll(ctx)
	_, _ = svc.LoadAll(ctx)

	require.Equal(t, 1, src.count("ores"))
	require.Equal(t, 2, src.count("broken"), "failed tags are retried")
}

func TestLoadAll_PublishesEvents(t *testing.T) {
	broker := pubsub.NewBrokerWithBuffer[TagEvent](16)
	defer broker.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx)

	svc, _ := newStandardService(t, WithBroker(broker))
	_, _ = svc.LoadAll(context.Background())

	got := map[string]pubsub.EventType{}
	for range 5 {
		select {
		case ev := <-events:
			got[ev.Payload.Key.String()] = ev.Type
			if ev.Type == pubsub.FailedEvent {
				require.Error(t, ev.Payload.Err)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	require.Equal(t, pubsub.FailedEvent, got["slimefun:broken"])
	require.Equal(t, pubsub.ResolvedEvent, got["slimefun:ores"])
}

func TestLoadAll_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	svc, _ := newStandardService(t, WithTracer(tp.Tracer("test")))

	report, _ := svc.LoadAll(context.Background())

	var resolveSpans, loadSpans int
	for _, span := range exporter.GetSpans() {
		switch span.Name {
		case tracing.SpanResolve:
			resolveSpans++
		case tracing.SpanLoadAll:
			loadSpans++
			require.Contains(t, span.Attributes, attribute.String(tracing.AttrRunID, report.RunID))
		}
	}
	require.Equal(t, 1, loadSpans)
	require.Equal(t, 5, resolveSpans)
}

func TestReload_SwapsGeneration(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardCatalog().
		WithTag("ores", "minecraft:iron_ore").
		WithTag("gone", "minecraft:stone")
	dir := b.Dir()

	svc, err := New(b.Catalog(), NewFSSource(os.DirFS(dir)), "slimefun")
	require.NoError(t, err)
	ctx := context.Background()

	oldOres, err := svc.Resolve(ctx, "ores")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ores.json"), []byte(`{"values":["minecraft:gold_ore"]}`), 0o600))
	require.NoError(t, os.Remove(filepath.Join(dir, "gone.json")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.json"), []byte(`{"values":["#minecraft:wool"]}`), 0o600))

	report, err := svc.Reload(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), report.Generation)
	require.Equal(t, []string{"slimefun:gone"}, keyStrings(report.Removed))
	require.Equal(t, []string{"slimefun:fresh", "slimefun:ores"}, keyStrings(report.Resolved))
	require.Equal(t, uint64(2), svc.Generation())

	newOres, err := svc.Resolve(ctx, "ores")
	require.NoError(t, err)
	require.NotSame(t, oldOres, newOres)
	require.Equal(t, []string{"minecraft:gold_ore"}, keyStrings(newOres.Materials()))
	require.Equal(t, []string{"minecraft:iron_ore"}, keyStrings(oldOres.Materials()), "old generation keeps its snapshot")

	_, err = svc.Resolve(ctx, "gone")
	require.ErrorIs(t, err, tags.ErrTagNotFound)
}

func TestReload_SourceErrorKeepsGeneration(t *testing.T) {
	svc, err := New(testutil.NewBuilder(t).Catalog(), &failingNames{}, "slimefun")
	require.Error(t, err)
	require.Nil(t, svc)

	src := &failingNames{fsys: fstest.MapFS{"a.json": {Data: []byte(`{"values":[]}`)}}}
	svc, err = New(testutil.NewBuilder(t).Catalog(), src, "slimefun")
	require.NoError(t, err)

	src.fail = true
	_, err = svc.Reload(context.Background())
	require.ErrorContains(t, err, "reload")
	require.Equal(t, uint64(1), svc.Generation())
}

type failingNames struct {
	fsys fs.FS
	fail bool
}

func (f *failingNames) Read(key tags.Key) ([]byte, error) {
	return NewFSSource(f.fsys).Read(key)
}

func (f *failingNames) Names() ([]string, error) {
	if f.fsys == nil || f.fail {
		return nil, errors.New("disk on fire")
	}
	return NewFSSource(f.fsys).Names()
}

func TestResolve_DeterministicProperty(t *testing.T) {
	items := []string{"minecraft:stone", "minecraft:dirt", "minecraft:sand", "minecraft:gravel"}
	rapid.Check(t, func(rt *rapid.T) {
		entries := rapid.SliceOfN(rapid.SampledFrom(items), 1, 12).Draw(rt, "entries")
		anyEntries := make([]any, len(entries))
		for i, e := range entries {
			anyEntries[i] = e
		}

		b := testutil.NewBuilder(t).WithItems(items...).WithTag("mix", anyEntries...)
		catalog := b.Catalog()
		var first []string
		for range 2 {
			svc, err := New(catalog, NewFSSource(b.FS()), "slimefun")
			if err != nil {
				rt.Fatalf("new: %v", err)
			}
			tag, err := svc.Resolve(context.Background(), "mix")
			if err != nil {
				rt.Fatalf("resolve: %v", err)
			}
			got := keyStrings(tag.Materials())
			if first == nil {
				first = got
				continue
			}
			require.Equal(rt, first, got)
		}
	})
}
