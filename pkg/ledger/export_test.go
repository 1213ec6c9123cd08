package ledger

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillpath/gateway/pkg/core"
)

func TestExportJSON(t *testing.T) {
	l := NewLedger(testRegistry(), Limits{}, zap.NewNop())
	l.Record(Entry{Model: "test:chat", Operation: core.OperationText, Cost: 0.5, UserID: "user-1"})

	data, err := l.Export(nil, nil, ExportFormatJSON)
	require.NoError(t, err)

	var entries []Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "test:chat", entries[0].Model)
	assert.Equal(t, "user-1", entries[0].UserID)
}

func TestExportCSV(t *testing.T) {
	l := NewLedger(testRegistry(), Limits{}, zap.NewNop())
	l.Record(Entry{
		Model:       "test:chat",
		Operation:   core.OperationText,
		InputUnits:  1000,
		OutputUnits: 2000,
		UserID:      "user-1",
		Timestamp:   time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
	})

	data, err := l.Export(nil, nil, ExportFormatCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Timestamp", records[0][0])
	assert.Equal(t, "test:chat", records[1][1])
	assert.Equal(t, "text", records[1][2])
	assert.Equal(t, "1000", records[1][3])
	assert.Equal(t, "0.033000", records[1][6])
	assert.Equal(t, "user-1", records[1][8])
}

func TestExportUnsupportedFormat(t *testing.T) {
	l := NewLedger(testRegistry(), Limits{}, zap.NewNop())

	_, err := l.Export(nil, nil, ExportFormat("xml"))
	assert.Error(t, err)
}
