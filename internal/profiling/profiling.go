// Package profiling writes the orchestrator's per-session performance
// sidecar: a CSV or JSON file, chosen by the extension of the CLI's
// --profile path, plus a terminal summary table printed when
// --profile-table is set. The CSV schema and the checksum-stamped JSON envelope
// mirror the save/restore idiom in the teacher's inference-engine state
// persistence: a small metadata header plus a content hash, so a
// tampered or truncated sidecar is detectable on load.
package profiling

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
)

// SessionStats is one row of the profile: per-session throughput and
// acceptance accounting, computed at the end of a session's run.
type SessionStats struct {
	SessionID       string
	TotalTime       time.Duration
	TokensGenerated int
	TokenMatchRate  float64
}

func (s SessionStats) throughput() float64 {
	secs := s.TotalTime.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.TokensGenerated) / secs
}

func (s SessionStats) avgTokenTime() float64 {
	if s.TokensGenerated == 0 {
		return 0
	}
	return s.TotalTime.Seconds() / float64(s.TokensGenerated)
}

// csvHeader is the exact column order callers consuming the sidecar
// (benchmark scripts, dashboards) should rely on.
var csvHeader = []string{"total_time", "tokens_generated", "throughput", "avg_token_time", "token_match_rate"}

// WriteCSV appends one row per session to w in the fixed column order.
func WriteCSV(w io.Writer, stats []SessionStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("profiling: write csv header: %w", err)
	}
	for _, s := range stats {
		row := []string{
			fmt.Sprintf("%.6f", s.TotalTime.Seconds()),
			fmt.Sprintf("%d", s.TokensGenerated),
			fmt.Sprintf("%.6f", s.throughput()),
			fmt.Sprintf("%.6f", s.avgTokenTime()),
			fmt.Sprintf("%.6f", s.TokenMatchRate),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("profiling: write csv row for %s: %w", s.SessionID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// PrintTable renders a human-readable summary of stats to w.
func PrintTable(w io.Writer, stats []SessionStats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Session", "Total Time (s)", "Tokens", "Throughput (tok/s)", "Avg Token Time (s)", "Match Rate"})
	for _, s := range stats {
		table.Append([]string{
			s.SessionID,
			fmt.Sprintf("%.3f", s.TotalTime.Seconds()),
			fmt.Sprintf("%d", s.TokensGenerated),
			fmt.Sprintf("%.2f", s.throughput()),
			fmt.Sprintf("%.4f", s.avgTokenTime()),
			fmt.Sprintf("%.1f%%", s.TokenMatchRate*100),
		})
	}
	table.Render()
}

// envelope is the checksummed JSON form of a profiling run, used when
// the orchestrator is asked to persist a profile for later comparison
// rather than only printing it.
type envelope struct {
	Version   int            `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Checksum  string         `json:"checksum"`
	Sessions  []SessionStats `json:"sessions"`
}

// WriteJSON stamps stats with a sha256 checksum over its serialized form
// and writes the envelope to w.
func WriteJSON(w io.Writer, stats []SessionStats) error {
	body, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("profiling: marshal sessions: %w", err)
	}
	sum := sha256.Sum256(body)
	env := envelope{
		Version:   1,
		Timestamp: time.Now(),
		Checksum:  fmt.Sprintf("%x", sum),
		Sessions:  stats,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ReadJSON loads a profile envelope and verifies its checksum, returning
// an error if the sessions payload doesn't hash to the stored checksum.
func ReadJSON(r io.Reader) ([]SessionStats, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("profiling: decode envelope: %w", err)
	}
	body, err := json.Marshal(env.Sessions)
	if err != nil {
		return nil, fmt.Errorf("profiling: re-marshal sessions: %w", err)
	}
	sum := fmt.Sprintf("%x", sha256.Sum256(body))
	if sum != env.Checksum {
		return nil, fmt.Errorf("profiling: checksum mismatch: stored %s, computed %s", env.Checksum, sum)
	}
	return env.Sessions, nil
}

// CreateFile opens path for writing, truncating any existing content —
// a fresh profiling run always starts a new file rather than appending
// to a stale one.
func CreateFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("profiling: create %s: %w", path, err)
	}
	return f, nil
}
