package profiling

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleStats() []SessionStats {
	return []SessionStats{
		{SessionID: "s1", TotalTime: 2 * time.Second, TokensGenerated: 10, TokenMatchRate: 0.8},
		{SessionID: "s2", TotalTime: time.Second, TokensGenerated: 0, TokenMatchRate: 0},
	}
}

func TestWriteCSVHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleStats()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, "total_time,tokens_generated,throughput,avg_token_time,token_match_rate", lines[0])
	require.Len(t, lines, 3)
}

func TestWriteJSONThenReadJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	stats := sampleStats()
	require.NoError(t, WriteJSON(&buf, stats))

	out, err := ReadJSON(&buf)
	require.NoError(t, err)
	require.Equal(t, stats, out)
}

func TestReadJSONRejectsTamperedChecksum(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleStats()))
	tampered := strings.Replace(buf.String(), `"s1"`, `"s9"`, 1)

	_, err := ReadJSON(strings.NewReader(tampered))
	require.Error(t, err)
}

func TestPrintTableDoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	require.NotPanics(t, func() {
		PrintTable(&buf, sampleStats())
	})
	require.Contains(t, buf.String(), "s1")
}
