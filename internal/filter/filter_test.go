package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/tagset/internal/config"
	"github.com/zjrosen/tagset/internal/domain/tags"
	"github.com/zjrosen/tagset/internal/tagservice"
	"github.com/zjrosen/tagset/internal/testutil"
	"github.com/zjrosen/tagset/internal/tracing"
)

type mockGroups struct {
	mock.Mock
}

func (m *mockGroups) ResolveGroup(ctx context.Context, ref string) (tags.Group, error) {
	args := m.Called(ctx, ref)
	group, _ := args.Get(0).(tags.Group)
	return group, args.Error(1)
}

func standardService(t *testing.T) *tagservice.Service {
	t.Helper()
	b := testutil.NewBuilder(t).WithStandardCatalog().WithStandardTags()
	svc, err := tagservice.New(b.Catalog(), tagservice.NewFSSource(b.FS()), "slimefun")
	require.NoError(t, err)
	return svc
}

func TestPermits_DenyWins(t *testing.T) {
	f, err := New(standardService(t), config.FilterConfig{
		Allow: []string{"#minecraft:logs", "$slimefun:ores"},
		Deny:  []string{"#minecraft:wool", "$slimefun:ores"},
	})
	require.NoError(t, err)
	ctx := context.Background()

	d, err := f.Permits(ctx, "minecraft:oak_log")
	require.NoError(t, err)
	require.Equal(t, Decision{Allowed: true, Reason: "allowed by #minecraft:logs"}, d)

	d, err = f.Permits(ctx, "minecraft:iron_ore")
	require.NoError(t, err)
	require.Equal(t, Decision{Allowed: false, Reason: "denied by $slimefun:ores"}, d)

	d, err = f.Permits(ctx, "minecraft:white_wool")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	d, err = f.Permits(ctx, "minecraft:stone")
	require.NoError(t, err)
	require.Equal(t, Decision{Allowed: false, Reason: "not in allow list"}, d)
}

func TestPermits_EmptyAllowListAdmitsAll(t *testing.T) {
	f, err := New(standardService(t), config.FilterConfig{Deny: []string{"$slimefun:fuel"}})
	require.NoError(t, err)
	ctx := context.Background()

	d, err := f.Permits(ctx, "minecraft:stone")
	require.NoError(t, err)
	require.Equal(t, Decision{Allowed: true, Reason: "no allow list"}, d)

	d, err = f.Permits(ctx, "minecraft:birch_log")
	require.NoError(t, err)
	require.False(t, d.Allowed, "fuel includes #minecraft:logs transitively")
}

func TestPermits_InvalidItem(t *testing.T) {
	f, err := New(&mockGroups{}, config.FilterConfig{})
	require.NoError(t, err)

	_, err = f.Permits(context.Background(), "Not An Item")
	require.ErrorIs(t, err, tags.ErrInvalidKey)
}

func TestPermits_BrokenGroupIsNotCached(t *testing.T) {
	f, err := New(standardService(t), config.FilterConfig{Allow: []string{"$slimefun:broken"}})
	require.NoError(t, err)
	ctx := context.Background()

	for range 2 {
		_, err = f.Permits(ctx, "minecraft:stone")
		require.ErrorIs(t, err, tags.ErrUnresolvedReference)
		require.ErrorContains(t, err, "filter entry $slimefun:broken")
	}
	require.Zero(t, f.Stats().Items)
}

func TestPermits_MemoizesDecisions(t *testing.T) {
	groups := &mockGroups{}
	logs := tags.NewBuiltinGroup(tags.RegistryItems, tags.MustParseKey("minecraft:logs"), tags.MustParseKey("minecraft:oak_log"))
	groups.On("ResolveGroup", mock.Anything, "#minecraft:logs").Return(logs, nil).Once()

	f, err := New(groups, config.FilterConfig{Allow: []string{"#minecraft:logs"}})
	require.NoError(t, err)
	ctx := context.Background()

	for range 3 {
		d, err := f.Permits(ctx, "minecraft:oak_log")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	groups.AssertExpectations(t)

	stats := f.Stats()
	require.Equal(t, uint64(2), stats.Hits)
	require.Equal(t, 1, stats.Items)
}

func TestInvalidate_ReevaluatesAfterReload(t *testing.T) {
	groups := &mockGroups{}
	before := tags.NewBuiltinGroup(tags.RegistryItems, tags.MustParseKey("minecraft:logs"), tags.MustParseKey("minecraft:oak_log"))
	after := tags.NewBuiltinGroup(tags.RegistryItems, tags.MustParseKey("minecraft:logs"))
	groups.On("ResolveGroup", mock.Anything, "#minecraft:logs").Return(before, nil).Once()
	groups.On("ResolveGroup", mock.Anything, "#minecraft:logs").Return(after, nil).Once()

	f, err := New(groups, config.FilterConfig{Allow: []string{"#minecraft:logs"}})
	require.NoError(t, err)
	ctx := context.Background()

	d, err := f.Permits(ctx, "minecraft:oak_log")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	require.NoError(t, f.Invalidate(ctx))

	d, err = f.Permits(ctx, "minecraft:oak_log")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	groups.AssertExpectations(t)
}

func TestNew_RejectsMaterialEntries(t *testing.T) {
	_, err := New(&mockGroups{}, config.FilterConfig{Allow: []string{"minecraft:stone"}})
	require.ErrorContains(t, err, "must be a #group or $tag reference")
}

func TestPermits_RecordsCacheHit(t *testing.T) {
	groups := &mockGroups{}
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	f, err := New(groups, config.FilterConfig{}, WithTracer(tp.Tracer("test")))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = f.Permits(ctx, "minecraft:stone")
	require.NoError(t, err)
	_, err = f.Permits(ctx, "minecraft:stone")
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	var hits []bool
	for _, span := range spans {
		require.Equal(t, tracing.SpanFilter, span.Name)
		for _, attr := range span.Attributes {
			if string(attr.Key) == tracing.AttrCacheHit {
				hits = append(hits, attr.Value.AsBool())
			}
		}
	}
	require.Equal(t, []bool{false, true}, hits)
}
