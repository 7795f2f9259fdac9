package command

import "github.com/stateforward/go-command/kinds"

// Lambda is a command assembled from functions instead of a new type.
//
// Builder style:
//
//	command.NewLambda().
//		SetInitialize(drive.ResetEncoders).
//		SetExecute(func() { drive.Arcade(0.5, 0) }).
//		SetIsFinished(func() bool { return drive.Distance() > 100 }).
//		SetEndAction(drive.Stop).
//		SetName("DriveForward").
//		AddRequirements(drive)
//
// Unset hooks do nothing, IsFinished reports true and the command does not
// run when disabled.
type Lambda struct {
	Base
	initialize       func()
	execute          func()
	isFinished       func() bool
	end              func(interrupted bool)
	runsWhenDisabled func() bool
}

func NewLambda() *Lambda {
	lambda := &Lambda{}
	lambda.setKind(kinds.Lambda)
	lambda.SetName("Lambda")
	return lambda
}

// LambdaOf builds a Lambda with every hook given. Nil hooks keep their
// defaults.
func LambdaOf(initialize func(), execute func(), isFinished func() bool, end func(interrupted bool), name string, runsWhenDisabled func() bool) *Lambda {
	lambda := NewLambda()
	lambda.initialize = initialize
	lambda.execute = execute
	lambda.isFinished = isFinished
	lambda.end = end
	lambda.runsWhenDisabled = runsWhenDisabled
	if name != "" {
		lambda.SetName(name)
	}
	return lambda
}

// LambdaFrom copies the lifecycle, name, requirements and interruptibility
// of command into a new Lambda so individual hooks can be replaced.
// The copy calls through to command, so both share any state it holds.
func LambdaFrom(command Command) *Lambda {
	lambda := LambdaOf(
		command.Initialize,
		command.Execute,
		command.IsFinished,
		command.End,
		command.Name(),
		command.RunsWhenDisabled,
	)
	lambda.AddRequirements(command.Requirements()...)
	lambda.SetInterruptible(command.Interruptible())
	return lambda
}

func (lambda *Lambda) Initialize() {
	if lambda.initialize != nil {
		lambda.initialize()
	}
}

func (lambda *Lambda) Execute() {
	if lambda.execute != nil {
		lambda.execute()
	}
}

func (lambda *Lambda) IsFinished() bool {
	if lambda.isFinished == nil {
		return true
	}
	return lambda.isFinished()
}

func (lambda *Lambda) End(interrupted bool) {
	if lambda.end != nil {
		lambda.end(interrupted)
	}
}

func (lambda *Lambda) RunsWhenDisabled() bool {
	if lambda.runsWhenDisabled == nil {
		return false
	}
	return lambda.runsWhenDisabled()
}

// SetInitialize sets the hook called once when the command is scheduled.
func (lambda *Lambda) SetInitialize(initialize func()) *Lambda {
	lambda.initialize = initialize
	return lambda
}

// SetExecute sets the hook called once per tick while scheduled.
func (lambda *Lambda) SetExecute(execute func()) *Lambda {
	lambda.execute = execute
	return lambda
}

// SetIsFinished sets the finish condition. Once it reports true the
// scheduler calls End(false) and unschedules the command.
func (lambda *Lambda) SetIsFinished(isFinished func() bool) *Lambda {
	lambda.isFinished = isFinished
	return lambda
}

// SetEnd sets the hook called when the command finishes or is interrupted.
func (lambda *Lambda) SetEnd(end func(interrupted bool)) *Lambda {
	lambda.end = end
	return lambda
}

// SetEndAction is SetEnd for hooks that do not care why the command ended.
func (lambda *Lambda) SetEndAction(end func()) *Lambda {
	if end == nil {
		lambda.end = nil
		return lambda
	}
	return lambda.SetEnd(func(bool) { end() })
}

func (lambda *Lambda) SetRunWhenDisabledFunc(runsWhenDisabled func() bool) *Lambda {
	lambda.runsWhenDisabled = runsWhenDisabled
	return lambda
}

func (lambda *Lambda) SetRunWhenDisabled(runsWhenDisabled bool) *Lambda {
	return lambda.SetRunWhenDisabledFunc(func() bool { return runsWhenDisabled })
}

func (lambda *Lambda) SetName(name string) *Lambda {
	lambda.Base.SetName(name)
	return lambda
}

func (lambda *Lambda) SetGroup(group string) *Lambda {
	lambda.Base.SetGroup(group)
	return lambda
}

func (lambda *Lambda) SetInterruptible(interruptible bool) *Lambda {
	lambda.Base.SetInterruptible(interruptible)
	return lambda
}

func (lambda *Lambda) AddRequirements(requirements ...Subsystem) *Lambda {
	lambda.Base.AddRequirements(requirements...)
	return lambda
}
