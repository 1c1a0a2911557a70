package view

import (
	"testing"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(rs []process.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func sample() []process.Record {
	return []process.Record{
		{PID: 300, Name: "Safari", BundleID: process.Some("com.apple.Safari"), User: process.Some(true),
			CPUPercent: process.Some(12.0), RSS: process.Some(types.Bytes(900)), Threads: process.Some(int32(30))},
		{PID: 120, Name: "Terminal", BundleID: process.Some("com.apple.Terminal"), User: process.Some(true),
			CPUPercent: process.Some(3.0), RSS: process.Some(types.Bytes(200)), Threads: process.Some(int32(8)),
			Exe: process.Some("/System/Applications/Utilities/Terminal.app/Contents/MacOS/Terminal")},
		{PID: 88, Name: "Finder", BundleID: process.Some("com.apple.finder"), User: process.Some(true),
			CPUPercent: process.Some(0.5), RSS: process.Some(types.Bytes(400)), Threads: process.Some(int32(12))},
		{PID: 1, Name: "launchd", User: process.Some(false),
			CPUPercent: process.Some(0.1), Exe: process.Some("/sbin/launchd")},
	}
}

func TestApply_Search(t *testing.T) {
	recs := sample()[:3]
	got := Apply(recs, State{Search: "term", Sort: SortName, Ascending: true})
	assert.Equal(t, []string{"Terminal"}, names(got))

	got = Apply(sample(), State{Search: "COM.APPLE.S"})
	assert.Equal(t, []string{"Safari"}, names(got), "bundle id, case-insensitive")

	got = Apply(sample(), State{Search: "sbin"})
	assert.Equal(t, []string{"launchd"}, names(got), "exe path")

	got = Apply(sample(), State{Search: "88"})
	assert.Equal(t, []string{"Finder"}, names(got), "pid")

	assert.Empty(t, Apply(sample(), State{Search: "nothing-matches"}))
}

func TestApply_SortByName(t *testing.T) {
	recs := sample()[:3]
	got := Apply(recs, State{Sort: SortName, Ascending: true})
	assert.Equal(t, []string{"Finder", "Safari", "Terminal"}, names(got))

	got = Apply(recs, State{Sort: SortName})
	assert.Equal(t, []string{"Terminal", "Safari", "Finder"}, names(got))

	// byte order: upper case sorts before lower case
	got = Apply(sample(), State{Sort: SortName, Ascending: true})
	assert.Equal(t, []string{"Finder", "Safari", "Terminal", "launchd"}, names(got))
}

func TestApply_SortKeys(t *testing.T) {
	tests := []struct {
		key  SortKey
		asc  bool
		want []string
	}{
		{SortCPU, false, []string{"Safari", "Terminal", "Finder", "launchd"}},
		{SortMemory, false, []string{"Safari", "Finder", "Terminal", "launchd"}},
		{SortPID, true, []string{"launchd", "Finder", "Terminal", "Safari"}},
		{SortThreads, true, []string{"launchd", "Terminal", "Finder", "Safari"}},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, names(Apply(sample(), State{Sort: tt.key, Ascending: tt.asc})))
		})
	}
}

func TestApply_TieBreakByPID(t *testing.T) {
	recs := []process.Record{
		{PID: 9, Name: "b"}, {PID: 3, Name: "c"}, {PID: 5, Name: "a"},
	}
	got := Apply(recs, State{Sort: SortCPU}) // all CPU absent
	assert.Equal(t, []int32{3, 5, 9}, []int32{got[0].PID, got[1].PID, got[2].PID})
}

func TestApply_Category(t *testing.T) {
	assert.Equal(t, []string{"launchd"}, names(Apply(sample(), State{Category: CategorySystem})))
	assert.Len(t, Apply(sample(), State{Category: CategoryUser}), 3)
	assert.Len(t, Apply(sample(), State{Category: CategoryApp}), 3)
	assert.Len(t, Apply(sample(), State{Category: CategoryAll}), 4)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	recs := sample()
	before := names(recs)
	Apply(recs, State{Sort: SortName, Ascending: true})
	assert.Equal(t, before, names(recs))
}

func TestParse(t *testing.T) {
	c, err := ParseCategory("Apps")
	require.NoError(t, err)
	assert.Equal(t, CategoryApp, c)
	_, err = ParseCategory("kernel")
	assert.ErrorIs(t, err, ErrUnknown)

	k, err := ParseSortKey("mem")
	require.NoError(t, err)
	assert.Equal(t, SortMemory, k)
	_, err = ParseSortKey("energy")
	assert.ErrorIs(t, err, ErrUnknown)

	for _, k := range []SortKey{SortCPU, SortMemory, SortName, SortPID, SortThreads} {
		got, err := ParseSortKey(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
}
