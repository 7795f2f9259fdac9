package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	command "github.com/stateforward/go-command"
	"github.com/stateforward/go-command/kinds"
	"github.com/stateforward/go-command/pkg/tests"
)

func finished(name string, requirements ...command.Subsystem) *tests.Probe {
	probe := tests.NewProbe(name, requirements...)
	probe.Finished = true
	return probe
}

func TestSequence(t *testing.T) {
	s := newScheduler(t)
	trace := &tests.Trace{}
	drive, arm := command.NewSubsystem("drive"), command.NewSubsystem("arm")
	a := finished("a", drive).Traced(trace)
	b := finished("b", arm).Traced(trace)
	sequence := command.Sequence(a, b)

	assert.ElementsMatch(t, []command.Subsystem{drive, arm}, sequence.Requirements())
	assert.True(t, kinds.IsKind(sequence.Kind(), kinds.Group))
	assert.True(t, command.IsGrouped(a))

	require.NoError(t, s.Schedule(sequence))
	assert.Equal(t, command.Command(sequence), s.Requiring(arm), "a sequence holds every child requirement for its whole run")
	s.Run()
	assert.True(t, s.IsScheduled(sequence))
	s.Run()
	assert.False(t, s.IsScheduled(sequence))
	assert.Equal(t, []string{
		"a.initialize", "a.execute", "a.end",
		"b.initialize", "b.execute", "b.end",
	}, trace.Calls())
}

func TestSequenceInterruptEndsCurrentChild(t *testing.T) {
	s := newScheduler(t)
	a := finished("a")
	b := tests.NewProbe("b")
	c := tests.NewProbe("c")
	sequence := command.Sequence(a, b).AddCommands(c)
	require.NoError(t, s.Schedule(sequence))
	s.Run()
	s.Run()
	s.Cancel(sequence)
	a.Lifecycle(t, 1, 1, 1, 0)
	b.Lifecycle(t, 1, 1, 1, 1)
	c.Lifecycle(t, 0, 0, 0, 0)
}

func TestSequenceCanRunAgain(t *testing.T) {
	s := newScheduler(t)
	a := finished("a")
	sequence := command.Sequence(a)
	for range 2 {
		require.NoError(t, s.Schedule(sequence))
		s.Run()
		assert.False(t, s.IsScheduled(sequence))
	}
	a.Lifecycle(t, 2, 2, 2, 0)
}

func TestEmptySequenceFinishesImmediately(t *testing.T) {
	s := newScheduler(t)
	sequence := command.Sequence()
	require.NoError(t, s.Schedule(sequence))
	s.Run()
	assert.False(t, s.IsScheduled(sequence))
}

func TestGroupedCommandsAreOwned(t *testing.T) {
	s := newScheduler(t)
	a := tests.NewProbe("a")
	command.Parallel(a)
	assert.ErrorIs(t, s.Schedule(a), command.ErrGrouped)
	assert.Panics(t, func() { command.Sequence(a) })

	b := tests.NewProbe("b")
	assert.Panics(t, func() { command.Sequence(b, b) })

	sequence := command.Sequence()
	assert.Panics(t, func() { sequence.AddCommands(sequence) })
	assert.Panics(t, func() { sequence.AddCommands(nil) })
}

func TestGroupRejectsChangesWhileRunning(t *testing.T) {
	s := newScheduler(t)
	sequence := command.Sequence(tests.NewProbe("a"))
	require.NoError(t, s.Schedule(sequence))
	assert.Panics(t, func() { sequence.AddCommands(tests.NewProbe("b")) })
	s.Cancel(sequence)
	assert.NotPanics(t, func() { sequence.AddCommands(tests.NewProbe("c")) })
}

func TestParallel(t *testing.T) {
	s := newScheduler(t)
	a := finished("a", command.NewSubsystem("drive"))
	b := tests.NewProbe("b", command.NewSubsystem("arm"))
	group := command.Parallel(a, b)
	assert.Len(t, group.Commands(), 2)

	require.NoError(t, s.Schedule(group))
	s.Run()
	a.Lifecycle(t, 1, 1, 1, 0)
	assert.True(t, s.IsScheduled(group))

	b.Finished = true
	s.Run()
	b.Lifecycle(t, 1, 2, 1, 0)
	a.Lifecycle(t, 1, 1, 1, 0)
	assert.False(t, s.IsScheduled(group))
}

func TestParallelRejectsSharedRequirements(t *testing.T) {
	shared := command.NewSubsystem("S")
	a := tests.NewProbe("a", shared)
	b := tests.NewProbe("b", shared)
	assert.PanicsWithError(t, "Parallel: b and another child both require S", func() { command.Parallel(a, b) })
	assert.False(t, command.IsGrouped(a), "a rejected group must not claim its children")
	assert.Panics(t, func() { command.Race(tests.NewProbe("c", shared)).AddCommands(tests.NewProbe("d", shared)) })
	assert.Panics(t, func() { command.Deadline(tests.NewProbe("e", shared), tests.NewProbe("f", shared)) })
	assert.NotPanics(t, func() { command.Sequence(tests.NewProbe("g", shared), tests.NewProbe("h", shared)) })
}

func TestRace(t *testing.T) {
	s := newScheduler(t)
	a := finished("a")
	b := tests.NewProbe("b")
	race := command.Race(a, b)
	require.NoError(t, s.Schedule(race))
	s.Run()
	assert.False(t, s.IsScheduled(race))
	a.Lifecycle(t, 1, 1, 1, 0)
	b.Lifecycle(t, 1, 1, 1, 1)
}

func TestDeadline(t *testing.T) {
	s := newScheduler(t)
	deadline := tests.NewProbe("deadline")
	quick := finished("quick")
	slow := tests.NewProbe("slow")
	group := command.Deadline(deadline, quick).AddCommands(slow)
	assert.Same(t, deadline, group.DeadlineCommand())

	require.NoError(t, s.Schedule(group))
	s.Run()
	assert.True(t, s.IsScheduled(group))
	quick.Lifecycle(t, 1, 1, 1, 0)

	deadline.Finished = true
	s.Run()
	assert.False(t, s.IsScheduled(group))
	deadline.Lifecycle(t, 1, 2, 1, 0)
	slow.Lifecycle(t, 1, 2, 1, 1)
}

func TestGroupFlagsAreConjunctions(t *testing.T) {
	a, b := tests.NewProbe("a"), tests.NewProbe("b")
	a.RunDisabled = true
	group := command.Parallel(a, b)
	assert.False(t, group.RunsWhenDisabled())
	b.RunDisabled = true
	assert.True(t, group.RunsWhenDisabled())

	assert.True(t, group.Interruptible())
	b.SetInterruptible(false)
	assert.False(t, group.Interruptible())
}

func TestGroupChildPanicFaultsGroup(t *testing.T) {
	s := newScheduler(t)
	bad := tests.NewProbe("bad")
	bad.PanicIn = command.PhaseExecute
	sibling := tests.NewProbe("sibling")
	group := command.Parallel(bad, sibling)
	require.NoError(t, s.Schedule(group))
	s.Run()
	assert.False(t, s.IsScheduled(group))
	sibling.Lifecycle(t, 1, 0, 1, 1)
}
