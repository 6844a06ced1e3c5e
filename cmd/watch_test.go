package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tagset/internal/config"
	"github.com/zjrosen/tagset/internal/filter"
	"github.com/zjrosen/tagset/internal/presentation"
	"github.com/zjrosen/tagset/internal/tagservice"
	"github.com/zjrosen/tagset/internal/testutil"
)

func newWatchedService(t *testing.T) (*tagservice.Service, string) {
	t.Helper()
	b := testutil.NewBuilder(t).WithStandardCatalog().WithStandardTags()
	dir := b.Dir()
	svc, err := tagservice.New(b.Catalog(), tagservice.NewFSSource(os.DirFS(dir)), "slimefun")
	require.NoError(t, err)
	_, _ = svc.LoadAll(context.Background())
	return svc, dir
}

func TestReloadAndDiff_ReportsDecisionsForChangedItems(t *testing.T) {
	ctx := context.Background()
	svc, dir := newWatchedService(t)
	f, err := filter.New(svc, config.FilterConfig{Deny: []string{"$slimefun:ores"}})
	require.NoError(t, err)

	// Cache a decision made before the change.
	d, err := f.Permits(ctx, "minecraft:coal_ore")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ores.json"),
		[]byte(`{"values":["minecraft:iron_ore","minecraft:gold_ore","minecraft:coal_ore"]}`), 0o600))

	var buf bytes.Buffer
	require.NoError(t, reloadAndDiff(ctx, svc, f, presentation.NewFormatter(&buf, presentation.FormatText)))
	out := ansi.Strip(buf.String())

	require.Contains(t, out, "slimefun:ores\n+ minecraft:coal_ore")
	require.Contains(t, out, "deny  minecraft:coal_ore denied by $slimefun:ores")
	require.NotContains(t, out, "minecraft:iron_ore denied", "unchanged items are not re-checked")
}

func TestReloadAndDiff_WithoutFilterPrintsNoDecisions(t *testing.T) {
	ctx := context.Background()
	svc, dir := newWatchedService(t)

	require.NoError(t, os.Remove(filepath.Join(dir, "soft.json")))

	var buf bytes.Buffer
	require.NoError(t, reloadAndDiff(ctx, svc, nil, presentation.NewFormatter(&buf, presentation.FormatText)))
	out := ansi.Strip(buf.String())

	require.Contains(t, out, "gone slimefun:soft")
	require.Contains(t, out, "slimefun:soft\n- minecraft:red_wool\n- minecraft:white_wool")
	require.NotContains(t, out, "allow ")
	require.NotContains(t, out, "deny ")
}
