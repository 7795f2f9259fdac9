package command

import (
	"errors"
	"fmt"
)

var (
	ErrNilCommand          = errors.New("command is nil")
	ErrGrouped             = errors.New("command belongs to a composite and cannot be scheduled on its own")
	ErrDisabled            = errors.New("scheduler is disabled and command does not run when disabled")
	ErrNotInterruptible    = errors.New("a required subsystem is held by a command that cannot be interrupted")
	ErrRequirementsChanged = errors.New("command requirements changed while scheduled")
	ErrDefaultRequirement  = errors.New("default command must require its subsystem")
	ErrDefaultCommandSet   = errors.New("subsystem already has a default command")
)

// Phase names the lifecycle call a failure came from.
type Phase string

const (
	PhaseInitialize   Phase = "initialize"
	PhaseExecute      Phase = "execute"
	PhaseIsFinished   Phase = "is_finished"
	PhaseEnd          Phase = "end"
	PhasePeriodic     Phase = "periodic"
	PhaseRequirements Phase = "requirements"
	PhaseHook         Phase = "hook"
)

// LifecycleError reports a failed lifecycle call. Cause is the recovered
// panic value, or the contract error that retired the command. Subsystem is
// set instead of Command for PhasePeriodic.
type LifecycleError struct {
	Command   Command
	Subsystem Subsystem
	Phase     Phase
	Cause     any
}

func (e *LifecycleError) Error() string {
	switch {
	case e.Command != nil:
		return fmt.Sprintf("command %s: %s: %v", e.Command.Name(), e.Phase, e.Cause)
	case e.Subsystem != nil:
		return fmt.Sprintf("subsystem %s: %s: %v", e.Subsystem.Name(), e.Phase, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Phase, e.Cause)
}

func (e *LifecycleError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// guard runs fn and converts a panic into a LifecycleError.
func guard(command Command, phase Phase, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &LifecycleError{Command: command, Phase: phase, Cause: r}
		}
	}()
	fn()
	return nil
}
