package command

import (
	"time"

	"github.com/stateforward/go-command/clock"
	"github.com/stateforward/go-command/embedded"
	"github.com/stateforward/go-command/kinds"
)

// Instant runs fn once when scheduled and finishes immediately.
func Instant(fn func(), requirements ...Subsystem) *Lambda {
	lambda := NewLambda().SetInitialize(fn).SetName("Instant").AddRequirements(requirements...)
	lambda.setKind(kinds.Instant)
	return lambda
}

// Run calls fn every tick and never finishes on its own. Typical for default
// commands.
func Run(fn func(), requirements ...Subsystem) *Lambda {
	lambda := NewLambda().
		SetExecute(fn).
		SetIsFinished(func() bool { return false }).
		SetName("Run").
		AddRequirements(requirements...)
	lambda.setKind(kinds.Run)
	return lambda
}

// WaitUntil finishes the first tick condition holds.
func WaitUntil(condition func() bool) *Lambda {
	lambda := NewLambda().SetIsFinished(condition).SetName("WaitUntil")
	lambda.setKind(kinds.WaitUntil)
	return lambda
}

// Wait finishes once d has elapsed on c since it was scheduled. A nil clock
// uses the wall clock.
func Wait(d time.Duration, c clock.Clock) *Lambda {
	c = clock.Or(c)
	var start time.Time
	lambda := NewLambda().
		SetInitialize(func() { start = c.Now() }).
		SetIsFinished(func() bool { return c.Since(start) >= d }).
		SetRunWhenDisabled(true).
		SetName("Wait")
	lambda.setKind(kinds.Wait)
	return lambda
}

// Fork schedules commands when it runs and finishes immediately. The forked
// commands are independent of the fork and of any group it belongs to.
func Fork(scheduler embedded.Scheduler, commands ...Command) *Lambda {
	lambda := Instant(func() {
		if err := scheduler.Schedule(commands...); err != nil {
			panic(err)
		}
	}).SetName("Fork")
	return lambda
}

// WithTimeout interrupts command if it has not finished after d.
func WithTimeout(command Command, d time.Duration, c clock.Clock) *RaceGroup {
	return Race(command, Wait(d, c)).SetName(command.Name() + ".WithTimeout")
}

// Until interrupts command the first tick condition holds.
func Until(command Command, condition func() bool) *RaceGroup {
	return Race(command, WaitUntil(condition)).SetName(command.Name() + ".Until")
}

/******* Conditional *******/

// ConditionalCommand picks one of two commands when it is initialized and
// then behaves as that command. It requires the subsystems of both.
type ConditionalCommand struct {
	Base
	onTrue    Command
	onFalse   Command
	condition func() bool
	selected  Command
}

func Conditional(onTrue, onFalse Command, condition func() bool) *ConditionalCommand {
	conditional := &ConditionalCommand{onTrue: onTrue, onFalse: onFalse, condition: condition}
	conditional.setKind(kinds.Conditional)
	conditional.SetName("Conditional")
	adopt(conditional, onTrue, onFalse)
	conditional.AddRequirements(onTrue.Requirements()...)
	conditional.AddRequirements(onFalse.Requirements()...)
	return conditional
}

func (conditional *ConditionalCommand) Commands() []Command {
	return []Command{conditional.onTrue, conditional.onFalse}
}

func (conditional *ConditionalCommand) Initialize() {
	if conditional.condition() {
		conditional.selected = conditional.onTrue
	} else {
		conditional.selected = conditional.onFalse
	}
	conditional.selected.Initialize()
}

func (conditional *ConditionalCommand) Execute() {
	if conditional.selected != nil {
		conditional.selected.Execute()
	}
}

func (conditional *ConditionalCommand) IsFinished() bool {
	return conditional.selected == nil || conditional.selected.IsFinished()
}

func (conditional *ConditionalCommand) End(interrupted bool) {
	if conditional.selected != nil {
		conditional.selected.End(interrupted)
	}
	conditional.selected = nil
}

func (conditional *ConditionalCommand) RunsWhenDisabled() bool {
	return conditional.onTrue.RunsWhenDisabled() && conditional.onFalse.RunsWhenDisabled()
}

func (conditional *ConditionalCommand) Interruptible() bool {
	return conditional.Base.Interruptible() && conditional.onTrue.Interruptible() && conditional.onFalse.Interruptible()
}
