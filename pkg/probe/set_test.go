package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeApps() AppSource {
	return AppSourceFunc(func(context.Context) ([]App, error) { return nil, nil })
}

func TestDefaultSet_Order(t *testing.T) {
	o := DefaultOptions()
	o.AppSource = fakeApps()
	o.DeepTask = DeepTaskOn

	set, err := DefaultSet(o)
	require.NoError(t, err)
	assert.Equal(t, []string{"basic", "registry", "resource", "task", "cmdline"}, Names(set))
}

func TestDefaultSet_DeepTaskCapability(t *testing.T) {
	o := DefaultOptions()
	o.AppSource = fakeApps()

	o.Elevated = func() bool { return false }
	set, err := DefaultSet(o)
	require.NoError(t, err)
	assert.NotContains(t, Names(set), "task", "excluded without the capability")

	o.Elevated = func() bool { return true }
	set, err = DefaultSet(o)
	require.NoError(t, err)
	assert.Contains(t, Names(set), "task")

	o.DeepTask = DeepTaskOff
	set, err = DefaultSet(o)
	require.NoError(t, err)
	assert.NotContains(t, Names(set), "task")
}

func TestDefaultSet_PSAndNoRegistry(t *testing.T) {
	o := DefaultOptions()
	o.Registry = false
	o.Resource = ResourcePS
	o.DeepTask = DeepTaskOff

	set, err := DefaultSet(o)
	require.NoError(t, err)
	assert.Equal(t, []string{"basic", "ps", "cmdline"}, Names(set))
}

func TestDefaultSet_UnknownResource(t *testing.T) {
	o := DefaultOptions()
	o.Resource = "sysctl"
	_, err := DefaultSet(o)
	assert.ErrorIs(t, err, ErrUnknownResourceSource)
}
