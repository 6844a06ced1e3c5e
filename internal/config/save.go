package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// SaveSetting stores a material list override under settings.<key>. Comments
// and formatting in other sections are preserved.
func SaveSetting(configPath, key string, materials []string) error {
	value := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, m := range materials {
		value.Content = append(value.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: m})
	}
	return updateSettings(configPath, func(settings *yaml.Node) {
		for i := 0; i < len(settings.Content)-1; i += 2 {
			if settings.Content[i].Value == key {
				settings.Content[i+1] = value
				return
			}
		}
		settings.Content = append(settings.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			value,
		)
	})
}

// DeleteSetting removes settings.<key>, restoring the tag-derived default.
func DeleteSetting(configPath, key string) error {
	return updateSettings(configPath, func(settings *yaml.Node) {
		for i := 0; i < len(settings.Content)-1; i += 2 {
			if settings.Content[i].Value == key {
				settings.Content = slices.Delete(settings.Content, i, i+2)
				return
			}
		}
	})
}

func updateSettings(configPath string, mutate func(settings *yaml.Node)) error {
	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from the --config flag
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("parsing config: top level must be a mapping")
	}

	var settings *yaml.Node
	for i := 0; i < len(root.Content)-1; i += 2 {
		if root.Content[i].Value == "settings" {
			settings = root.Content[i+1]
			break
		}
	}
	switch {
	case settings == nil:
		settings = &yaml.Node{Kind: yaml.MappingNode}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "settings"}, settings)
	case settings.Kind != yaml.MappingNode:
		// "settings:" with no value decodes as a null scalar.
		*settings = yaml.Node{Kind: yaml.MappingNode}
	}

	mutate(settings)

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("flushing config: %w", err)
	}

	return writeAtomic(configPath, buf.Bytes())
}

// writeAtomic writes to a temp file in the same directory, then renames.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".tagset.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
