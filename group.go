package command

import (
	"fmt"

	"github.com/stateforward/go-command/kinds"
	"github.com/stateforward/go-command/pkg/set"
)

/******* Group *******/

// group holds the children shared by every composite. Children are owned by
// value in a slice and never point back at the group.
type group struct {
	Base
	commands []Command
	running  bool
}

func (group *group) Commands() []Command {
	return append([]Command(nil), group.commands...)
}

// add adopts children into owner. Parallel groups pass disjoint=true to
// reject children that share a subsystem.
func (group *group) add(owner Command, disjoint bool, commands ...Command) {
	if group.running {
		panic(fmt.Errorf("%s: cannot add commands to a running group", owner.Name()))
	}
	if disjoint {
		claimed := set.New(group.requirements.Slice()...)
		for _, command := range commands {
			if command == nil {
				continue
			}
			requirements := set.New(command.Requirements()...)
			if shared := claimed.Intersection(requirements); shared.Size() > 0 {
				panic(fmt.Errorf("%s: %s and another child both require %s", owner.Name(), command.Name(), shared.Slice()[0].Name()))
			}
			claimed = claimed.Union(requirements)
		}
	}
	adopt(owner, commands...)
	for _, command := range commands {
		group.commands = append(group.commands, command)
		group.Base.AddRequirements(command.Requirements()...)
	}
}

// RunsWhenDisabled holds only if every child runs when disabled.
func (group *group) RunsWhenDisabled() bool {
	for _, command := range group.commands {
		if !command.RunsWhenDisabled() {
			return false
		}
	}
	return true
}

// Interruptible holds unless the group or any child is not interruptible.
func (group *group) Interruptible() bool {
	if !group.Base.Interruptible() {
		return false
	}
	for _, command := range group.commands {
		if !command.Interruptible() {
			return false
		}
	}
	return true
}

/******* Sequential *******/

// Sequential runs its children one after another, finishing with the last.
type Sequential struct {
	group
	index int
}

func Sequence(commands ...Command) *Sequential {
	sequential := &Sequential{index: -1}
	sequential.setKind(kinds.Sequential)
	sequential.Base.SetName("Sequence")
	sequential.AddCommands(commands...)
	return sequential
}

func (sequential *Sequential) AddCommands(commands ...Command) *Sequential {
	sequential.add(sequential, false, commands...)
	return sequential
}

func (sequential *Sequential) SetName(name string) *Sequential {
	sequential.Base.SetName(name)
	return sequential
}

func (sequential *Sequential) Initialize() {
	sequential.running = true
	sequential.index = 0
	if len(sequential.commands) > 0 {
		sequential.commands[0].Initialize()
	}
}

func (sequential *Sequential) Execute() {
	if sequential.index < 0 || sequential.index >= len(sequential.commands) {
		return
	}
	current := sequential.commands[sequential.index]
	current.Execute()
	if !current.IsFinished() {
		return
	}
	current.End(false)
	sequential.index++
	if sequential.index < len(sequential.commands) {
		sequential.commands[sequential.index].Initialize()
	}
}

func (sequential *Sequential) IsFinished() bool {
	return sequential.index >= len(sequential.commands)
}

func (sequential *Sequential) End(interrupted bool) {
	if interrupted && sequential.index >= 0 && sequential.index < len(sequential.commands) {
		sequential.commands[sequential.index].End(true)
	}
	sequential.index = -1
	sequential.running = false
}

/******* Parallel *******/

type child struct {
	command Command
	running bool
}

// parallel drives children side by side. The variants differ only in when
// the group finishes.
type parallel struct {
	group
	children []child
}

func (parallel *parallel) add(owner Command, commands ...Command) {
	parallel.group.add(owner, true, commands...)
	for _, command := range commands {
		parallel.children = append(parallel.children, child{command: command})
	}
}

func (parallel *parallel) Initialize() {
	parallel.running = true
	for i := range parallel.children {
		parallel.children[i].command.Initialize()
		parallel.children[i].running = true
	}
}

// step executes every running child and ends the ones that finished,
// returning them.
func (parallel *parallel) step() []Command {
	var finished []Command
	for i := range parallel.children {
		c := &parallel.children[i]
		if !c.running {
			continue
		}
		c.command.Execute()
		if c.command.IsFinished() {
			c.running = false
			c.command.End(false)
			finished = append(finished, c.command)
		}
	}
	return finished
}

func (parallel *parallel) anyRunning() bool {
	for _, c := range parallel.children {
		if c.running {
			return true
		}
	}
	return false
}

// stop interrupts every child still running.
func (parallel *parallel) stop() {
	for i := range parallel.children {
		c := &parallel.children[i]
		if c.running {
			c.running = false
			c.command.End(true)
		}
	}
	parallel.running = false
}

// ParallelGroup runs its children together and finishes when all have
// finished.
type ParallelGroup struct {
	parallel
}

func Parallel(commands ...Command) *ParallelGroup {
	group := &ParallelGroup{}
	group.setKind(kinds.Parallel)
	group.Base.SetName("Parallel")
	group.AddCommands(commands...)
	return group
}

func (group *ParallelGroup) AddCommands(commands ...Command) *ParallelGroup {
	group.add(group, commands...)
	return group
}

func (group *ParallelGroup) SetName(name string) *ParallelGroup {
	group.Base.SetName(name)
	return group
}

func (group *ParallelGroup) Execute() {
	group.step()
}

func (group *ParallelGroup) IsFinished() bool {
	return !group.anyRunning()
}

func (group *ParallelGroup) End(interrupted bool) {
	group.stop()
}

// RaceGroup runs its children together and finishes as soon as one
// finishes, interrupting the rest.
type RaceGroup struct {
	parallel
	finished bool
}

func Race(commands ...Command) *RaceGroup {
	group := &RaceGroup{}
	group.setKind(kinds.Race)
	group.Base.SetName("Race")
	group.AddCommands(commands...)
	return group
}

func (group *RaceGroup) AddCommands(commands ...Command) *RaceGroup {
	group.add(group, commands...)
	return group
}

func (group *RaceGroup) SetName(name string) *RaceGroup {
	group.Base.SetName(name)
	return group
}

func (group *RaceGroup) Initialize() {
	group.finished = false
	group.parallel.Initialize()
}

func (group *RaceGroup) Execute() {
	if len(group.step()) > 0 {
		group.finished = true
	}
}

func (group *RaceGroup) IsFinished() bool {
	return group.finished || !group.anyRunning()
}

func (group *RaceGroup) End(interrupted bool) {
	group.stop()
}

// DeadlineGroup runs its children together and finishes when the deadline
// child finishes, interrupting the rest.
type DeadlineGroup struct {
	parallel
	deadline Command
}

func Deadline(deadline Command, commands ...Command) *DeadlineGroup {
	group := &DeadlineGroup{deadline: deadline}
	group.setKind(kinds.Deadline)
	group.Base.SetName("Deadline")
	group.add(group, deadline)
	group.AddCommands(commands...)
	return group
}

func (group *DeadlineGroup) AddCommands(commands ...Command) *DeadlineGroup {
	group.add(group, commands...)
	return group
}

func (group *DeadlineGroup) SetName(name string) *DeadlineGroup {
	group.Base.SetName(name)
	return group
}

// DeadlineCommand returns the child whose end ends the group.
func (group *DeadlineGroup) DeadlineCommand() Command {
	return group.deadline
}

func (group *DeadlineGroup) Execute() {
	group.step()
}

func (group *DeadlineGroup) IsFinished() bool {
	return !group.children[0].running
}

func (group *DeadlineGroup) End(interrupted bool) {
	group.stop()
}
