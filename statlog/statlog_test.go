package statlog_test

import (
	"testing"

	"github.com/dogukanarat/danp/statlog"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	j, err := statlog.Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Record([]statlog.Entry{
		{Port: 10, Type: "STREAM", State: "ESTABLISHED", RemoteNode: 2, RemotePort: 11, TxSeq: 3, RxSeq: 4},
	}))
	require.NoError(t, j.Record([]statlog.Entry{
		{Port: 20, Type: "DGRAM", State: "OPEN"},
	}))

	entries, err := j.Recent(10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}
