package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8787")).Bold(true)
	keyStyle     = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#696969"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8787"))
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	format string
}

// NewFormatter creates a new formatter. Unknown formats fall back to text.
func NewFormatter(writer io.Writer, format string) *Formatter {
	if format != FormatJSON {
		format = FormatText
	}
	return &Formatter{
		writer: writer,
		format: format,
	}
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *Formatter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(f.writer, format, args...)
}

// FormatTag formats a single resolved tag
func (f *Formatter) FormatTag(tag TagDTO) error {
	if f.format == FormatJSON {
		return f.encode(tag)
	}

	f.printf("%s\n", keyStyle.Render(tag.Key))
	for _, m := range tag.Materials {
		f.printf("  %s\n", m)
	}
	for _, g := range tag.Groups {
		f.printf("  %s %s\n", g.Key, mutedStyle.Render("("+g.Registry+")"))
	}
	if len(tag.Values) > 0 {
		f.printf("%s\n", mutedStyle.Render(fmt.Sprintf("values (%d):", len(tag.Values))))
		for _, v := range tag.Values {
			f.printf("  %s\n", v)
		}
	}
	return nil
}

// FormatTags formats a tag listing, one line per tag
func (f *Formatter) FormatTags(list []TagDTO) error {
	if f.format == FormatJSON {
		if list == nil {
			list = []TagDTO{}
		}
		return f.encode(list)
	}

	width := 0
	for _, tag := range list {
		width = max(width, runewidth.StringWidth(tag.Key))
	}
	for _, tag := range list {
		status := mutedStyle.Render("unresolved")
		switch {
		case tag.Error != "":
			status = failStyle.Render("failed")
		case tag.Resolved:
			status = okStyle.Render(fmt.Sprintf("%d materials, %d groups", len(tag.Materials), len(tag.Groups)))
		}
		pad := strings.Repeat(" ", width-runewidth.StringWidth(tag.Key))
		f.printf("%s%s  %s\n", keyStyle.Render(tag.Key), pad, status)
	}
	return nil
}

// FormatReport formats a load report
func (f *Formatter) FormatReport(report ReportDTO) error {
	if f.format == FormatJSON {
		return f.encode(report)
	}

	for _, key := range report.Resolved {
		f.printf("%s   %s\n", okStyle.Render("ok"), key)
	}
	for _, fail := range report.Failed {
		f.printf("%s %s: %s\n", failStyle.Render("FAIL"), fail.Key, fail.Error)
	}
	for _, key := range report.Removed {
		f.printf("%s %s\n", mutedStyle.Render("gone"), key)
	}
	f.printf("%s\n", mutedStyle.Render(fmt.Sprintf(
		"%d resolved, %d failed (generation %d, run %s, %dms)",
		len(report.Resolved), len(report.Failed), report.Generation, report.RunID, report.DurationMS,
	)))
	return nil
}

// FormatSetting formats a material tag setting
func (f *Formatter) FormatSetting(s SettingDTO) error {
	if f.format == FormatJSON {
		return f.encode(s)
	}

	source := "default"
	if s.Overridden {
		source = "override"
	}
	f.printf("%s %s\n", keyStyle.Render(s.Key), mutedStyle.Render("("+source+")"))
	for _, v := range s.Value {
		f.printf("  %s\n", v)
	}
	return nil
}

// FormatDecisions formats filter decisions
func (f *Formatter) FormatDecisions(decisions []DecisionDTO) error {
	if f.format == FormatJSON {
		return f.encode(decisions)
	}

	for _, d := range decisions {
		verdict := failStyle.Render("deny") + " "
		if d.Allowed {
			verdict = okStyle.Render("allow")
		}
		f.printf("%s %s %s\n", verdict, d.Item, mutedStyle.Render(d.Reason))
	}
	return nil
}

// FormatDiff formats a membership diff
func (f *Formatter) FormatDiff(tag string, diff MembershipDiff) error {
	if f.format == FormatJSON {
		return f.encode(struct {
			Tag string `json:"tag"`
			MembershipDiff
		}{tag, diff})
	}

	if diff.Empty() {
		return nil
	}
	lines := make([]string, 0, len(diff.Added)+len(diff.Removed)+1)
	lines = append(lines, keyStyle.Render(tag))
	for _, r := range diff.Removed {
		lines = append(lines, removedStyle.Render("- "+r))
	}
	for _, a := range diff.Added {
		lines = append(lines, addedStyle.Render("+ "+a))
	}
	f.printf("%s\n", strings.Join(lines, "\n"))
	return nil
}
