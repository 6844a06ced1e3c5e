package presentation

import (
	"time"

	"github.com/zjrosen/tagset/internal/domain/tags"
	"github.com/zjrosen/tagset/internal/filter"
	"github.com/zjrosen/tagset/internal/settings"
	"github.com/zjrosen/tagset/internal/tagservice"
)

// TagDTO represents a tag for presentation
type TagDTO struct {
	Key       string        `json:"key"`
	Resolved  bool          `json:"resolved"`
	Materials []string      `json:"materials"`
	Groups    []GroupRefDTO `json:"groups"`
	Values    []string      `json:"values,omitempty"` // flattened, only when requested
	Error     string        `json:"error,omitempty"`
}

// GroupRefDTO identifies a group referenced by a tag
type GroupRefDTO struct {
	Key      string `json:"key"`
	Registry string `json:"registry"`
}

// FromTag converts a domain tag to a DTO. flatten adds the recursive values.
func FromTag(tag *tags.Tag, flatten bool) TagDTO {
	dto := TagDTO{
		Key:       tag.Key().String(),
		Resolved:  tag.Resolved(),
		Materials: keyStrings(tag.Materials()),
		Groups:    []GroupRefDTO{},
	}
	for _, g := range tag.Tags() {
		dto.Groups = append(dto.Groups, GroupRefDTO{Key: g.Key().String(), Registry: g.Registry().String()})
	}
	if flatten {
		dto.Values = keyStrings(tag.Values())
	}
	return dto
}

// FailureDTO is one failed tag in a load report
type FailureDTO struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// ReportDTO represents a load or reload run
type ReportDTO struct {
	RunID      string       `json:"run_id"`
	Generation uint64       `json:"generation"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMS int64        `json:"duration_ms"`
	Resolved   []string     `json:"resolved"`
	Failed     []FailureDTO `json:"failed"`
	Removed    []string     `json:"removed,omitempty"`
}

// FromReport converts a load report to a DTO.
func FromReport(report *tagservice.LoadReport) ReportDTO {
	dto := ReportDTO{
		RunID:      report.RunID,
		Generation: report.Generation,
		StartedAt:  report.StartedAt,
		DurationMS: report.Duration.Milliseconds(),
		Resolved:   keyStrings(report.Resolved),
		Failed:     []FailureDTO{},
		Removed:    keyStrings(report.Removed),
	}
	for _, f := range report.Failed {
		dto.Failed = append(dto.Failed, FailureDTO{Key: f.Key.String(), Error: f.Err.Error()})
	}
	return dto
}

// SettingDTO represents a material tag setting
type SettingDTO struct {
	Key        string   `json:"key"`
	Default    []string `json:"default"`
	Value      []string `json:"value"`
	Overridden bool     `json:"overridden"`
}

// FromSetting converts a setting to a DTO.
func FromSetting(s *settings.MaterialTagSetting) SettingDTO {
	return SettingDTO{
		Key:        s.Key(),
		Default:    s.Default(),
		Value:      s.Value(),
		Overridden: s.Overridden(),
	}
}

// DecisionDTO is the filter outcome for one item
type DecisionDTO struct {
	Item    string `json:"item"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// FromDecision pairs an item with its filter decision.
func FromDecision(item string, d filter.Decision) DecisionDTO {
	return DecisionDTO{Item: item, Allowed: d.Allowed, Reason: d.Reason}
}

func keyStrings(keys []tags.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
