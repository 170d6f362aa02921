package authoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// FixReport summarizes a FixDir run.
type FixReport struct {
	Scanned int      `json:"scanned"`
	Updated []string `json:"updated"`
	Failed  []string `json:"failed"`
}

// FixDir normalizes id, topic and tags in every .json file below dir. A
// file that does not parse is reported and left untouched.
func FixDir(dir string) (*FixReport, error) {
	report := &FixReport{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}
		report.Scanned++
		changed, err := FixFile(path)
		if err != nil {
			log.Printf("[authoring] could not fix %s: %v", path, err)
			report.Failed = append(report.Failed, path)
			return nil
		}
		if changed {
			log.Printf("[authoring] updated id/topic/tags in %s", path)
			report.Updated = append(report.Updated, path)
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walk %s: %w", dir, err)
	}
	return report, nil
}

// FixFile rewrites path with 2-space indentation when any label changed.
func FixFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}

	if !FixDocument(doc) {
		return false, nil
	}

	out, err := encodeIndented(doc)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// FixDocument normalizes a decoded question file in place: the root
// object's labels, each entry of its "questions" array, and each entry of
// a bare array.
func FixDocument(doc any) bool {
	changed := false
	switch v := doc.(type) {
	case map[string]any:
		changed = fixLabels(v)
		if list, ok := v["questions"].([]any); ok {
			for _, item := range list {
				if q, ok := item.(map[string]any); ok && fixLabels(q) {
					changed = true
				}
			}
		}
	case []any:
		for _, item := range v {
			if q, ok := item.(map[string]any); ok && fixLabels(q) {
				changed = true
			}
		}
	}
	return changed
}

func fixLabels(obj map[string]any) bool {
	changed := false
	if topic, ok := obj["topic"].(string); ok && topic != "" {
		if fixed := HumanizeTopic(topic); fixed != topic {
			obj["topic"] = fixed
			changed = true
		}
	}
	if id, ok := obj["id"].(string); ok && id != "" {
		if fixed := HumanizeID(id); fixed != id {
			obj["id"] = fixed
			changed = true
		}
	}
	if tags, ok := obj["tags"].([]any); ok {
		for i, t := range tags {
			tag, ok := t.(string)
			if !ok {
				continue
			}
			if fixed := HumanizeTopic(tag); fixed != tag {
				tags[i] = fixed
				changed = true
			}
		}
	}
	return changed
}

func encodeIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
