package embedded

type Element interface {
	Kind() uint64
	Id() string
	Name() string
}

// Subsystem is an exclusive resource a Command reserves while it is active.
type Subsystem interface {
	Element
	DefaultCommand() Command
	SetDefaultCommand(command Command) error
	Periodic()
}

type Command interface {
	Element
	Initialize()
	Execute()
	IsFinished() bool
	End(interrupted bool)
	Requirements() []Subsystem
	RunsWhenDisabled() bool
	Interruptible() bool
}

// Composite is implemented by commands that own and drive child commands.
type Composite interface {
	Command
	Commands() []Command
}

// Scheduler is the surface commands use to call back into the runtime.
type Scheduler interface {
	Schedule(commands ...Command) error
	Cancel(commands ...Command)
	IsScheduled(commands ...Command) bool
}
