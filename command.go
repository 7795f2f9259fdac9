// Package command is a cooperative, tick-driven command scheduler.
//
// A Command is a unit of behavior with an Initialize/Execute/IsFinished/End
// lifecycle that reserves a set of Subsystems while it runs. A Scheduler
// arbitrates ownership of those subsystems and advances every active command
// once per call to Run. Everything happens on the caller's goroutine; a
// command suspends across ticks only by reporting that it is not finished.
package command

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/stateforward/go-command/embedded"
	"github.com/stateforward/go-command/kinds"
	"github.com/stateforward/go-command/pkg/set"
)

type Element = embedded.Element

type Command = embedded.Command

type Subsystem = embedded.Subsystem

type Composite = embedded.Composite

func newId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

/******* Base *******/

// Base is embedded by concrete commands. Its zero value is a command that
// does nothing and finishes on its first check; embedders override the
// lifecycle methods they need.
type Base struct {
	id              string
	name            string
	group           string
	kind            uint64
	requirements    set.Set[Subsystem]
	uninterruptible bool
	grouped         bool
}

func (base *Base) Kind() uint64 {
	if base == nil || base.kind == 0 {
		return kinds.Command
	}
	return base.kind
}

func (base *Base) Id() string {
	if base == nil {
		return ""
	}
	if base.id == "" {
		base.id = newId()
	}
	return base.id
}

func (base *Base) Name() string {
	if base == nil || base.name == "" {
		return "Command"
	}
	return base.name
}

func (base *Base) SetName(name string) {
	base.name = name
}

// Group is a free-form label used to organize commands in logs and
// diagrams. It has no scheduling meaning.
func (base *Base) Group() string {
	if base.group == "" {
		return "Ungrouped"
	}
	return base.group
}

func (base *Base) SetGroup(group string) {
	base.group = group
}

// AddRequirements reserves subsystems for the command. Requirements must not
// change while the command is scheduled.
func (base *Base) AddRequirements(requirements ...Subsystem) {
	for _, requirement := range requirements {
		if requirement != nil {
			base.requirements.Add(requirement)
		}
	}
}

func (base *Base) Requirements() []Subsystem {
	return base.requirements.Slice()
}

func (base *Base) SetInterruptible(interruptible bool) {
	base.uninterruptible = !interruptible
}

func (base *Base) Interruptible() bool {
	return !base.uninterruptible
}

func (base *Base) RunsWhenDisabled() bool {
	return false
}

func (base *Base) Initialize() {}

func (base *Base) Execute() {}

func (base *Base) IsFinished() bool {
	return true
}

func (base *Base) End(interrupted bool) {}

func (base *Base) String() string {
	return base.Name()
}

func (base *Base) setKind(kind uint64) {
	base.kind = kind
}

func (base *Base) isGrouped() bool {
	return base.grouped
}

func (base *Base) setGrouped(grouped bool) {
	base.grouped = grouped
}

type groupable interface {
	isGrouped() bool
	setGrouped(bool)
}

// IsGrouped reports whether command is owned by a composite.
func IsGrouped(command Command) bool {
	g, ok := command.(groupable)
	return ok && g.isGrouped()
}

// adopt marks children as owned by owner. A command can belong to only one
// composite.
func adopt(owner Command, children ...Command) {
	for _, child := range children {
		if child == nil {
			panic(fmt.Errorf("%s: child command is nil", owner.Name()))
		}
		if child == owner {
			panic(fmt.Errorf("%s: command cannot contain itself", owner.Name()))
		}
		if IsGrouped(child) {
			panic(fmt.Errorf("%s: command %s already belongs to a composite", owner.Name(), child.Name()))
		}
		if g, ok := child.(groupable); ok {
			g.setGrouped(true)
		}
	}
}

/******* Subsystem *******/

// SubsystemBase is a Requirement Handle. Identity is the pointer; embed it
// in a hardware wrapper or use it directly.
type SubsystemBase struct {
	id             string
	name           string
	defaultCommand Command
	periodic       func()
}

func NewSubsystem(name string) *SubsystemBase {
	return &SubsystemBase{id: newId(), name: name}
}

func (subsystem *SubsystemBase) Kind() uint64 {
	return kinds.Subsystem
}

func (subsystem *SubsystemBase) Id() string {
	if subsystem.id == "" {
		subsystem.id = newId()
	}
	return subsystem.id
}

func (subsystem *SubsystemBase) Name() string {
	if subsystem.name == "" {
		return "Subsystem"
	}
	return subsystem.name
}

func (subsystem *SubsystemBase) DefaultCommand() Command {
	return subsystem.defaultCommand
}

// SetDefaultCommand attaches the command scheduled whenever the subsystem
// is idle. It can be set once. The default is ignored until the subsystem is
// registered with a scheduler through Scheduler.Register or
// Scheduler.SetDefaultCommand; prefer the latter, which also checks the
// command requires the subsystem.
func (subsystem *SubsystemBase) SetDefaultCommand(command Command) error {
	if command == nil {
		return ErrNilCommand
	}
	if subsystem.defaultCommand != nil {
		return fmt.Errorf("%s: %w", subsystem.Name(), ErrDefaultCommandSet)
	}
	subsystem.defaultCommand = command
	return nil
}

// SetPeriodic sets a hook run once per tick, before any command executes.
func (subsystem *SubsystemBase) SetPeriodic(fn func()) *SubsystemBase {
	subsystem.periodic = fn
	return subsystem
}

func (subsystem *SubsystemBase) Periodic() {
	if subsystem.periodic != nil {
		subsystem.periodic()
	}
}

func (subsystem *SubsystemBase) String() string {
	return subsystem.Name()
}
