package report

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/devguard/devguard/internal/types"
)

// Baseline records threat kinds that were already present and accepted, so
// later checks only fail on new detections.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return b, err
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, r types.Report) error {
	b := Baseline{Items: map[string]bool{}}
	for _, k := range r.Detected() {
		b.Items[k.String()] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// Accepted returns the kinds listed in the baseline, skipping names this
// build does not know.
func (b Baseline) Accepted() []types.ThreatKind {
	var out []types.ThreatKind
	for name, ok := range b.Items {
		if !ok {
			continue
		}
		if k, err := types.ParseKind(name); err == nil {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewDetections returns the Present kinds of r that are not allowed.
func NewDetections(r types.Report, allow []types.ThreatKind) []types.ThreatKind {
	allowed := map[types.ThreatKind]bool{}
	for _, k := range allow {
		allowed[k] = true
	}
	var out []types.ThreatKind
	for _, k := range r.Detected() {
		if !allowed[k] {
			out = append(out, k)
		}
	}
	return out
}

// ShouldFail is true when any kind outside allow is Present.
func ShouldFail(r types.Report, allow []types.ThreatKind) bool {
	return len(NewDetections(r, allow)) > 0
}
