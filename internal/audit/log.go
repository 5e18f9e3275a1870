package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devguard/devguard/internal/types"
)

// DefaultFile is the audit log name used when no path is given.
const DefaultFile = ".devguard_audit.jsonl"

// CheckRecord is one line of the audit log: the outcome of a single check run.
type CheckRecord struct {
	Timestamp     time.Time         `json:"timestamp"`
	CheckID       string            `json:"check_id"`
	Root          string            `json:"root"`
	ReportVersion uint64            `json:"report_version"`
	Fingerprint   string            `json:"fingerprint"`
	Detected      []string          `json:"detected"`
	NewDetections []string          `json:"new_detections"`
	AcceptedCount int               `json:"accepted_count"`
	States        map[string]string `json:"states"`
	Duration      string            `json:"duration"`
	BaselineFile  string            `json:"baseline_file,omitempty"`
}

type AuditLog struct {
	logPath string
}

// NewAuditLog logs to path, or to DefaultFile in the working directory when
// path is empty.
func NewAuditLog(path string) *AuditLog {
	if path == "" {
		path = DefaultFile
	}
	return &AuditLog{logPath: filepath.Clean(path)}
}

func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns records newest first. Undecodable lines are skipped.
func (a *AuditLog) LoadHistory() ([]CheckRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []CheckRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record CheckRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogCheck(record CheckRecord) error {
	if record.CheckID == "" {
		record.CheckID = fmt.Sprintf("check_%d", record.Timestamp.UnixNano())
	}

	// owner-only: records describe the security posture of the device
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// NewCheckRecord summarizes a finished check.
func NewCheckRecord(root string, r types.Report, newDetections []types.ThreatKind, duration time.Duration, baselineFile string) CheckRecord {
	detected := names(r.Detected())
	states := make(map[string]string, len(types.AllKinds()))
	for k, st := range r.Statuses() {
		states[k.String()] = st.State.String()
	}
	return CheckRecord{
		Timestamp:     time.Now(),
		Root:          root,
		ReportVersion: r.Version(),
		Fingerprint:   fmt.Sprintf("%016x", r.Fingerprint()),
		Detected:      detected,
		NewDetections: names(newDetections),
		AcceptedCount: len(detected) - len(newDetections),
		States:        states,
		Duration:      duration.String(),
		BaselineFile:  baselineFile,
	}
}

func names(ks []types.ThreatKind) []string {
	out := make([]string, 0, len(ks))
	for _, k := range ks {
		out = append(out, k.String())
	}
	return out
}
