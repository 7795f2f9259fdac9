package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	command "github.com/stateforward/go-command"
	"github.com/stateforward/go-command/pkg/tests"
)

func TestCallbackFiresOnce(t *testing.T) {
	s := newScheduler(t)
	inner := tests.NewProbe("inner", command.NewSubsystem("S"))
	fired := 0
	callback := command.NewCallback(s, inner).When(func() bool { return true }, func() { fired++ })
	assert.Equal(t, "Callback(inner)", callback.Name())
	assert.Equal(t, 1, callback.Pending())

	require.NoError(t, s.Schedule(callback))
	assert.True(t, s.IsScheduled(callback, inner), "inner command is scheduled by the wrapper")
	assert.Empty(t, callback.Requirements())

	s.Run()
	s.Run()
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, callback.Pending())
	inner.Lifecycle(t, 1, 2, 0, 0)
}

func TestCallbackWatchesWaitForCondition(t *testing.T) {
	s := newScheduler(t)
	inner := tests.NewProbe("inner")
	var applied *tests.Probe
	selfFired := false
	callback := command.NewCallback(s, inner).
		WhenSelf(func(p *tests.Probe) bool { return p.Executed >= 2 }, func() { selfFired = true }).
		WhenSelfApply(func(p *tests.Probe) bool { return p.Executed >= 1 }, func(p *tests.Probe) { applied = p })

	require.NoError(t, s.Schedule(callback))
	s.Run()
	// the wrapper runs before the inner command it scheduled
	assert.Nil(t, applied)
	assert.False(t, selfFired)

	s.Run()
	assert.Same(t, inner, applied)
	assert.False(t, selfFired)

	s.Run()
	assert.True(t, selfFired)
	assert.Equal(t, 0, callback.Pending())
	assert.Same(t, inner, callback.Command())
}

func TestCallbackOrder(t *testing.T) {
	s := newScheduler(t)
	inner := tests.NewProbe("inner")
	var order []string
	always := func() bool { return true }
	self := func(*tests.Probe) bool { return true }
	callback := command.NewCallback(s, inner).
		WhenSelfApply(self, func(*tests.Probe) { order = append(order, "selfApply") }).
		WhenSelf(self, func() { order = append(order, "self") }).
		WhenApply(always, func(*tests.Probe) { order = append(order, "apply") }).
		When(always, func() { order = append(order, "when.1") }).
		When(always, func() { order = append(order, "when.2") })

	require.NoError(t, s.Schedule(callback))
	s.Run()
	assert.Equal(t, []string{"when.1", "when.2", "apply", "self", "selfApply"}, order)
}

func TestCallbackSchedulesCommands(t *testing.T) {
	s := newScheduler(t)
	inner := tests.NewProbe("inner")
	first := tests.NewProbe("first")
	second := tests.NewProbe("second")
	callback := command.NewCallback(s, inner).
		WhenSchedule(func() bool { return true }, first).
		WhenSelfSchedule(func(p *tests.Probe) bool { return p.Executed > 0 }, second)

	require.NoError(t, s.Schedule(callback))
	s.Run()
	assert.True(t, s.IsScheduled(first))
	assert.False(t, s.IsScheduled(second))
	first.Lifecycle(t, 1, 0, 0, 0)

	s.Run()
	assert.True(t, s.IsScheduled(second))
}

func TestCallbackFinishesAfterInner(t *testing.T) {
	s := newScheduler(t)
	inner := tests.NewProbe("inner")
	callback := command.NewCallback(s, inner)
	require.NoError(t, s.Schedule(callback))

	inner.Finished = true
	s.Run()
	assert.False(t, s.IsScheduled(inner))
	assert.True(t, s.IsScheduled(callback))
	s.Run()
	assert.False(t, s.IsScheduled(callback))
	inner.Lifecycle(t, 1, 1, 1, 0)
}

func TestCallbackInterrupt(t *testing.T) {
	s := newScheduler(t)
	kept := tests.NewProbe("kept")
	wrapper := command.NewCallback(s, kept)
	require.NoError(t, s.Schedule(wrapper))
	s.Cancel(wrapper)
	assert.True(t, s.IsScheduled(kept))
	kept.Lifecycle(t, 1, 0, 0, 0)

	s = newScheduler(t)
	inner := tests.NewProbe("inner")
	callback := command.NewCallback(s, inner).CancelInnerOnInterrupt()
	require.NoError(t, s.Schedule(callback))
	s.Cancel(callback)
	assert.False(t, s.IsScheduled(inner))
	inner.Lifecycle(t, 1, 0, 1, 1)
}

func TestCallbackWrapperRequirements(t *testing.T) {
	s := newScheduler(t)
	shared := command.NewSubsystem("S")
	inner := tests.NewProbe("inner")
	callback := command.NewCallback(s, inner).AddRequirements(shared).SetName("guarded")
	require.NoError(t, s.Schedule(callback))
	assert.Equal(t, "guarded", callback.Name())
	assert.Equal(t, command.Command(callback), s.Requiring(shared))
	assert.Equal(t, []command.Command{inner}, callback.Commands())
}

func TestCallbackAsDefaultCommand(t *testing.T) {
	s := newScheduler(t)
	arm := command.NewSubsystem("arm")
	inner := tests.NewProbe("inner")
	wrapper := command.NewCallback(s, inner).AddRequirements(arm)
	starts := 0
	s.OnInitialize(func(c command.Command) {
		if c == command.Command(wrapper) {
			starts++
		}
	})
	require.NoError(t, s.SetDefaultCommand(arm, wrapper))

	for range 5 {
		s.Run()
		require.True(t, s.IsScheduled(wrapper), "wrapper must stay scheduled while its inner command runs")
	}
	assert.Equal(t, 1, starts)
	inner.Lifecycle(t, 1, 5, 0, 0)

	inner.Finished = true
	s.Run()
	assert.True(t, s.IsScheduled(wrapper))
	assert.False(t, s.IsScheduled(inner))
	s.Run()
	assert.False(t, s.IsScheduled(wrapper))
	inner.Lifecycle(t, 1, 6, 1, 0)
}

func TestSequenceStartsCallbackChild(t *testing.T) {
	s := newScheduler(t)
	inner := tests.NewProbe("inner")
	sequence := command.Sequence(finished("first"), command.NewCallback(s, inner))
	require.NoError(t, s.Schedule(sequence))

	s.Run()
	assert.True(t, s.IsScheduled(inner), "inner command starts in the tick the sequence reaches the wrapper")
	s.Run()
	assert.True(t, s.IsScheduled(sequence))
	inner.Lifecycle(t, 1, 1, 0, 0)

	inner.Finished = true
	s.Run()
	assert.True(t, s.IsScheduled(sequence))
	s.Run()
	assert.False(t, s.IsScheduled(sequence))
	inner.Lifecycle(t, 1, 2, 1, 0)
}

func TestParallelDefaultStartsCallbackChild(t *testing.T) {
	s := newScheduler(t)
	arm := command.NewSubsystem("arm")
	inner := tests.NewProbe("inner")
	side := tests.NewProbe("side", arm)
	watched := false
	wrapper := command.NewCallback(s, inner).
		WhenSelf(func(p *tests.Probe) bool { return p.Executed >= 2 }, func() { watched = true })
	group := command.Parallel(wrapper, side)
	require.NoError(t, s.SetDefaultCommand(arm, group))

	for range 3 {
		s.Run()
		require.True(t, s.IsScheduled(group))
	}
	assert.True(t, watched, "wrapper keeps executing while its inner command runs")
	inner.Lifecycle(t, 1, 3, 0, 0)
	side.Lifecycle(t, 1, 3, 0, 0)

	inner.Finished = true
	side.Finished = true
	s.Run()
	assert.True(t, s.IsScheduled(group))
	s.Run()
	assert.False(t, s.IsScheduled(group))
	inner.Lifecycle(t, 1, 4, 1, 0)
	side.Lifecycle(t, 1, 4, 1, 0)
}
