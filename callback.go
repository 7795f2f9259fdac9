package command

import (
	"slices"

	"github.com/stateforward/go-command/embedded"
	"github.com/stateforward/go-command/kinds"
)

type watch[P any, A any] struct {
	condition P
	action    A
}

// fire runs the action of every watch whose condition holds and removes it.
// A watch is removed before its action runs, so it fires at most once even
// if the action panics.
func fire[P any, A any](watches *[]watch[P, A], test func(P) bool, run func(A)) {
	for i := 0; i < len(*watches); {
		w := (*watches)[i]
		if !test(w.condition) {
			i++
			continue
		}
		*watches = slices.Delete(*watches, i, i+1)
		run(w.action)
	}
}

// Callback wraps one inner command and attaches one-shot callbacks to it.
// Initialize schedules the inner command; the wrapper finishes once the
// inner command is no longer scheduled.
//
// Every Execute evaluates the watches in a fixed order: When, WhenSchedule,
// WhenApply, WhenSelf, WhenSelfSchedule, WhenSelfApply, each in the order the
// watches were added. A watch fires the first time its condition holds and
// is then discarded.
//
// The wrapper does not inherit the inner command's requirements; add any it
// should hold with AddRequirements.
type Callback[T Command] struct {
	Base
	scheduler         embedded.Scheduler
	command           T
	cancelOnInterrupt bool

	whenActions       []watch[func() bool, func()]
	whenCommands      []watch[func() bool, Command]
	whenConsumers     []watch[func() bool, func(T)]
	whenSelfActions   []watch[func(T) bool, func()]
	whenSelfCommands  []watch[func(T) bool, Command]
	whenSelfConsumers []watch[func(T) bool, func(T)]
}

func NewCallback[T Command](scheduler embedded.Scheduler, command T) *Callback[T] {
	callback := &Callback[T]{
		scheduler: scheduler,
		command:   command,
	}
	callback.setKind(kinds.Callback)
	callback.SetName("Callback(" + command.Name() + ")")
	return callback
}

// Command returns the wrapped command.
func (callback *Callback[T]) Command() T {
	return callback.command
}

// Commands returns the wrapped command for diagrams. The wrapper schedules
// the inner command rather than driving it.
func (callback *Callback[T]) Commands() []Command {
	return []Command{callback.command}
}

// When runs action the first time condition holds.
func (callback *Callback[T]) When(condition func() bool, action func()) *Callback[T] {
	callback.whenActions = append(callback.whenActions, watch[func() bool, func()]{condition, action})
	return callback
}

// WhenSchedule schedules command the first time condition holds.
func (callback *Callback[T]) WhenSchedule(condition func() bool, command Command) *Callback[T] {
	callback.whenCommands = append(callback.whenCommands, watch[func() bool, Command]{condition, command})
	return callback
}

// WhenApply passes the inner command to action the first time condition
// holds.
func (callback *Callback[T]) WhenApply(condition func() bool, action func(T)) *Callback[T] {
	callback.whenConsumers = append(callback.whenConsumers, watch[func() bool, func(T)]{condition, action})
	return callback
}

// WhenSelf runs action the first time condition holds for the inner command.
func (callback *Callback[T]) WhenSelf(condition func(T) bool, action func()) *Callback[T] {
	callback.whenSelfActions = append(callback.whenSelfActions, watch[func(T) bool, func()]{condition, action})
	return callback
}

// WhenSelfSchedule schedules command the first time condition holds for the
// inner command.
func (callback *Callback[T]) WhenSelfSchedule(condition func(T) bool, command Command) *Callback[T] {
	callback.whenSelfCommands = append(callback.whenSelfCommands, watch[func(T) bool, Command]{condition, command})
	return callback
}

// WhenSelfApply passes the inner command to action the first time condition
// holds for it.
func (callback *Callback[T]) WhenSelfApply(condition func(T) bool, action func(T)) *Callback[T] {
	callback.whenSelfConsumers = append(callback.whenSelfConsumers, watch[func(T) bool, func(T)]{condition, action})
	return callback
}

// CancelInnerOnInterrupt makes an interrupted wrapper cancel the inner
// command too. By default the inner command keeps running.
func (callback *Callback[T]) CancelInnerOnInterrupt() *Callback[T] {
	callback.cancelOnInterrupt = true
	return callback
}

func (callback *Callback[T]) AddRequirements(requirements ...Subsystem) *Callback[T] {
	callback.Base.AddRequirements(requirements...)
	return callback
}

func (callback *Callback[T]) SetName(name string) *Callback[T] {
	callback.Base.SetName(name)
	return callback
}

// Pending returns the number of watches that have not fired.
func (callback *Callback[T]) Pending() int {
	return len(callback.whenActions) + len(callback.whenCommands) + len(callback.whenConsumers) +
		len(callback.whenSelfActions) + len(callback.whenSelfCommands) + len(callback.whenSelfConsumers)
}

func (callback *Callback[T]) Initialize() {
	callback.schedule(callback.command)
}

func (callback *Callback[T]) Execute() {
	always := func(condition func() bool) bool { return condition() }
	self := func(condition func(T) bool) bool { return condition(callback.command) }
	run := func(action func()) { action() }
	apply := func(action func(T)) { action(callback.command) }

	fire(&callback.whenActions, always, run)
	fire(&callback.whenCommands, always, callback.schedule)
	fire(&callback.whenConsumers, always, apply)

	fire(&callback.whenSelfActions, self, run)
	fire(&callback.whenSelfCommands, self, callback.schedule)
	fire(&callback.whenSelfConsumers, self, apply)
}

func (callback *Callback[T]) IsFinished() bool {
	return !callback.scheduler.IsScheduled(callback.command)
}

func (callback *Callback[T]) End(interrupted bool) {
	if interrupted && callback.cancelOnInterrupt {
		callback.scheduler.Cancel(callback.command)
	}
}

func (callback *Callback[T]) schedule(command Command) {
	if err := callback.scheduler.Schedule(command); err != nil {
		panic(err)
	}
}
