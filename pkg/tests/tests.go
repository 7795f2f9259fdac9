// Package tests holds helpers for exercising commands against a scheduler.
package tests

import (
	"fmt"
	"slices"
	"testing"

	command "github.com/stateforward/go-command"
)

// Trace records lifecycle calls across several probes, in call order.
type Trace struct {
	calls []string
}

func (t *Trace) Record(call string) {
	if t != nil {
		t.calls = append(t.calls, call)
	}
}

func (t *Trace) Calls() []string {
	return slices.Clone(t.calls)
}

func (t *Trace) Reset() {
	t.calls = nil
}

// Probe is a command that counts its lifecycle calls. It finishes once
// Finished is set, and panics in the phase named by PanicIn.
type Probe struct {
	command.Base
	Trace *Trace

	Initialized int
	Executed    int
	Ended       int
	Interrupted int
	Finished    bool
	RunDisabled bool
	PanicIn     command.Phase
}

func NewProbe(name string, requirements ...command.Subsystem) *Probe {
	probe := &Probe{}
	probe.SetName(name)
	probe.AddRequirements(requirements...)
	return probe
}

// Traced attaches trace so the probe's calls are recorded as "name.phase".
func (probe *Probe) Traced(trace *Trace) *Probe {
	probe.Trace = trace
	return probe
}

func (probe *Probe) maybePanic(phase command.Phase) {
	if probe.PanicIn == phase {
		panic(fmt.Sprintf("%s failed in %s", probe.Name(), phase))
	}
}

func (probe *Probe) Initialize() {
	probe.Initialized++
	probe.Trace.Record(probe.Name() + ".initialize")
	probe.maybePanic(command.PhaseInitialize)
}

func (probe *Probe) Execute() {
	probe.Executed++
	probe.Trace.Record(probe.Name() + ".execute")
	probe.maybePanic(command.PhaseExecute)
}

func (probe *Probe) IsFinished() bool {
	probe.maybePanic(command.PhaseIsFinished)
	return probe.Finished
}

func (probe *Probe) End(interrupted bool) {
	probe.Ended++
	if interrupted {
		probe.Interrupted++
		probe.Trace.Record(probe.Name() + ".interrupted")
	} else {
		probe.Trace.Record(probe.Name() + ".end")
	}
	probe.maybePanic(command.PhaseEnd)
}

func (probe *Probe) RunsWhenDisabled() bool {
	return probe.RunDisabled
}

// Lifecycle asserts the probe's call counts.
func (probe *Probe) Lifecycle(t testing.TB, initialized, executed, ended, interrupted int) {
	t.Helper()
	if probe.Initialized != initialized || probe.Executed != executed || probe.Ended != ended || probe.Interrupted != interrupted {
		t.Fatalf("%s: expected initialize=%d execute=%d end=%d interrupted=%d, got %d %d %d %d",
			probe.Name(), initialized, executed, ended, interrupted,
			probe.Initialized, probe.Executed, probe.Ended, probe.Interrupted)
	}
}

// Consistent fails t unless every active command owns each of its
// requirements and every owned subsystem maps back to an active command.
func Consistent(t testing.TB, scheduler *command.Scheduler, subsystems ...command.Subsystem) {
	t.Helper()
	active := scheduler.Active()
	for _, c := range active {
		for _, requirement := range c.Requirements() {
			if owner := scheduler.Requiring(requirement); owner != c {
				t.Fatalf("%s requires %s but it is owned by %v", c.Name(), requirement.Name(), owner)
			}
		}
	}
	for _, subsystem := range subsystems {
		owner := scheduler.Requiring(subsystem)
		if owner == nil {
			continue
		}
		if !slices.Contains(active, owner) {
			t.Fatalf("%s is owned by inactive command %s", subsystem.Name(), owner.Name())
		}
		if !slices.Contains(owner.Requirements(), subsystem) {
			t.Fatalf("%s is owned by %s which does not require it", subsystem.Name(), owner.Name())
		}
	}
}
