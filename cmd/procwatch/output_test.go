package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/types"
	"github.com/ja7ad/procwatch/pkg/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() process.Snapshot {
	return process.Snapshot{Seq: 3, Records: []process.Record{
		{PID: 10, Name: "sshd", CPUPercent: process.Some(0.5), RSS: process.Some(types.Bytes(2048)), User: process.Some(false)},
		{PID: 200, Name: "firefox", CPUPercent: process.Some(12.0), Threads: process.Some(int32(80)), User: process.Some(true)},
		{PID: 300, Name: "bash"},
	}}
}

func TestViewFlags_StateAndApply(t *testing.T) {
	vf := viewFlags{category: "user", sort: "cpu", limit: 5, output: "table"}
	st, err := vf.state()
	require.NoError(t, err)
	assert.Equal(t, view.State{Category: view.CategoryUser, Sort: view.SortCPU}, st)

	recs := vf.apply(sampleSnapshot(), st)
	require.Len(t, recs, 1)
	assert.Equal(t, int32(200), recs[0].PID)

	vf = viewFlags{category: "all", sort: "pid", asc: true, limit: 2}
	st, err = vf.state()
	require.NoError(t, err)
	recs = vf.apply(sampleSnapshot(), st)
	require.Len(t, recs, 2)
	assert.Equal(t, []int32{10, 200}, []int32{recs[0].PID, recs[1].PID})

	_, err = (&viewFlags{category: "kernel"}).state()
	assert.ErrorIs(t, err, view.ErrUnknown)
	_, err = (&viewFlags{sort: "age"}).state()
	assert.ErrorIs(t, err, view.ErrUnknown)
	_, err = (&viewFlags{output: "yaml"}).renderer()
	assert.Error(t, err)
}

func TestRenderTable_AbsentAsDash(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, sampleSnapshot().Records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "PID"))
	assert.Contains(t, lines[1], "2.00 KB")
	assert.Equal(t, []string{"300", "bash", "unknown", "-", "-", "-", "-", "-", "-"}, strings.Fields(lines[3]))
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderCSV(&buf, sampleSnapshot().Records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, "firefox", rows[2][1])
	assert.Equal(t, "12.0", rows[2][3])
	assert.Equal(t, "80", rows[2][5])
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, sampleSnapshot().Records[:1]))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "sshd", out[0]["name"])
	assert.Equal(t, 0.5, out[0]["cpu_percent"])
}
