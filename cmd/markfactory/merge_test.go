package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/logger/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMarks(t *testing.T) {
	log = zerolog.Nop()

	path := filepath.Join(t.TempDir(), "marks.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,side,price\nd1,BUY,10\nd2,hold,11\nd3,sell,12.5\n"), 0o600))

	marks, err := readMarks(path)
	require.NoError(t, err)
	assert.Equal(t, []core.MarkedTrade{
		{TimeKey: "d1", Price: 10, Side: core.SideTypeBuy},
		{TimeKey: "d3", Price: 12.5, Side: core.SideTypeSell},
	}, marks)

	require.NoError(t, os.WriteFile(path, []byte("d1,BUY,abc\n"), 0o600))
	_, err = readMarks(path)
	require.Error(t, err)
}

func TestRunMerge(t *testing.T) {
	log = zerolog.Nop()
	dir := t.TempDir()

	comparison := filepath.Join(dir, "comparison.json")
	require.NoError(t, os.WriteFile(comparison, []byte(`{
		"benchmark": [
			{"date": "d1", "equity": 100, "price": 10},
			{"date": "d2", "equity": 110, "price": 11}
		],
		"strategy": {"equity_curve": [{"date": "d2", "equity": 105}], "trades": []}
	}`), 0o600))

	marksFile = filepath.Join(dir, "marks.csv")
	t.Cleanup(func() { marksFile = "" })
	require.NoError(t, os.WriteFile(marksFile, []byte("d2,SELL,11\n"), 0o600))

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, runMerge(cmd, []string{comparison}))
	assert.Contains(t, out.String(), "105.00")
	assert.Contains(t, out.String(), "11.00")
	assert.Contains(t, out.String(), "d2")
}

func TestFormatValue(t *testing.T) {
	v := 1.234
	assert.Equal(t, "1.23", formatValue(&v))
	assert.Equal(t, "-", formatValue(nil))
}
