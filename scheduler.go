package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stateforward/go-command/embedded"
	"github.com/stateforward/go-command/pkg/metrics"
	"github.com/stateforward/go-command/pkg/set"
	"github.com/stateforward/go-command/pkg/telemetry"
	"github.com/stateforward/go-command/queue"
)

// Reasons a command left the active set.
const (
	ReasonFinished = "finished"
	ReasonConflict = "conflict"
	ReasonCancel   = "cancel"
	ReasonDisabled = "disabled"
	ReasonFault    = "fault"
)

type Config struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	Metrics        *metrics.Metrics
	// Disabled starts the scheduler in the disabled state.
	Disabled bool
}

var DefaultConfig = Config{}

type subcontext = context.Context

// Scheduler owns the active command set and the subsystem ownership map.
//
// A Scheduler is driven from a single control loop goroutine and is not safe
// for concurrent use, with the exception of SetEnabled and Enabled.
type Scheduler struct {
	subcontext
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *metrics.Metrics
	active     set.Set[Command]
	claims     map[Command][]Subsystem
	owners     map[Subsystem]Command
	subsystems set.Set[Subsystem]
	queue      *queue.Queue
	processing bool
	enabled    atomic.Bool
	span       context.Context
	hooks      hooks
}

type hooks struct {
	initialize []func(Command)
	execute    []func(Command)
	interrupt  []func(Command)
	finish     []func(Command)
	err        []func(Command, error)
}

var _ embedded.Scheduler = (*Scheduler)(nil)

func NewScheduler(ctx context.Context, config ...Config) *Scheduler {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = telemetry.NewProvider()
	}
	s := &Scheduler{
		subcontext: ctx,
		logger:     cfg.Logger,
		tracer:     cfg.TracerProvider.Tracer("github.com/stateforward/go-command"),
		metrics:    cfg.Metrics,
		claims:     map[Command][]Subsystem{},
		owners:     map[Subsystem]Command{},
		queue:      queue.New(),
	}
	s.enabled.Store(!cfg.Disabled)
	return s
}

// Schedule activates commands. Each command's conflicting incumbents are
// interrupted and its Initialize runs before Schedule returns, unless the
// scheduler is already processing a tick or lifecycle call; then the request
// is queued and served before that outer call returns, in request order.
//
// Scheduling an active command does nothing.
func (s *Scheduler) Schedule(commands ...Command) error {
	var errs []error
	for _, command := range commands {
		if err := s.schedule(command); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) schedule(command Command) error {
	if command == nil {
		return ErrNilCommand
	}
	if IsGrouped(command) {
		return fmt.Errorf("schedule %s: %w", command.Name(), ErrGrouped)
	}
	if s.processing {
		if !s.active.Contains(command) {
			s.queue.Push(command)
		}
		return nil
	}
	var err error
	s.process(func() {
		err = s.initialize(command)
	})
	return err
}

// Cancel interrupts active commands and drops queued schedule requests for
// them. End(true) has been called on every active command when Cancel returns.
func (s *Scheduler) Cancel(commands ...Command) {
	s.process(func() {
		for _, command := range commands {
			if command == nil {
				continue
			}
			s.queue.Remove(command)
			s.retire(command, true, ReasonCancel)
		}
	})
}

func (s *Scheduler) CancelAll() {
	s.Cancel(s.active.Slice()...)
}

// IsScheduled reports whether every command is active.
func (s *Scheduler) IsScheduled(commands ...Command) bool {
	if len(commands) == 0 {
		return false
	}
	for _, command := range commands {
		if command == nil || !s.active.Contains(command) {
			return false
		}
	}
	return true
}

// Requiring returns the active command holding subsystem, or nil.
func (s *Scheduler) Requiring(subsystem Subsystem) Command {
	return s.owners[subsystem]
}

// Active returns the active commands in the order they were scheduled.
func (s *Scheduler) Active() []Command {
	return s.active.Slice()
}

// Register adds subsystems whose periodic hooks and default commands the
// scheduler drives.
func (s *Scheduler) Register(subsystems ...Subsystem) {
	for _, subsystem := range subsystems {
		if subsystem != nil {
			s.subsystems.Add(subsystem)
		}
	}
}

func (s *Scheduler) Unregister(subsystems ...Subsystem) {
	for _, subsystem := range subsystems {
		s.subsystems.Remove(subsystem)
	}
}

// SetDefaultCommand attaches command to subsystem and registers the
// subsystem. The command must require the subsystem.
func (s *Scheduler) SetDefaultCommand(subsystem Subsystem, command Command) error {
	if subsystem == nil || command == nil {
		return ErrNilCommand
	}
	if IsGrouped(command) {
		return fmt.Errorf("default command %s: %w", command.Name(), ErrGrouped)
	}
	if !slices.Contains(command.Requirements(), subsystem) {
		return fmt.Errorf("default command %s for %s: %w", command.Name(), subsystem.Name(), ErrDefaultRequirement)
	}
	if err := subsystem.SetDefaultCommand(command); err != nil {
		return err
	}
	s.Register(subsystem)
	return nil
}

// SetEnabled sets the global enabled state. Active commands that do not run
// when disabled are interrupted on the next tick. Safe to call from any
// goroutine.
func (s *Scheduler) SetEnabled(enabled bool) {
	if s.enabled.Swap(enabled) != enabled {
		s.logger.Info("scheduler enabled state changed", "enabled", enabled)
	}
}

func (s *Scheduler) Enabled() bool {
	return s.enabled.Load()
}

func (s *Scheduler) OnInitialize(fn func(Command)) {
	s.hooks.initialize = append(s.hooks.initialize, fn)
}

func (s *Scheduler) OnExecute(fn func(Command)) {
	s.hooks.execute = append(s.hooks.execute, fn)
}

func (s *Scheduler) OnInterrupt(fn func(Command)) {
	s.hooks.interrupt = append(s.hooks.interrupt, fn)
}

func (s *Scheduler) OnFinish(fn func(Command)) {
	s.hooks.finish = append(s.hooks.finish, fn)
}

// OnError registers fn to observe lifecycle failures. The offending command
// has been or is about to be retired with End(true).
func (s *Scheduler) OnError(fn func(Command, error)) {
	s.hooks.err = append(s.hooks.err, fn)
}

// Run advances the scheduler by one tick: subsystem periodic hooks, default
// commands for idle subsystems along with anything they schedule, then
// Execute and IsFinished for every active command in schedule order.
// Requests queued while commands step are served before Run returns.
func (s *Scheduler) Run() {
	start := time.Now()
	ctx, span := s.tracer.Start(s, "command.Run")
	defer span.End()
	s.span = ctx
	defer func() {
		s.span = nil
	}()
	s.process(func() {
		s.periodic()
		s.defaults()
		// commands started by defaults are active before any command steps
		s.drain()
		for _, command := range s.active.Slice() {
			s.step(command)
		}
	})
	span.SetAttributes(telemetry.ActiveCount.Int(s.active.Size()))
	s.metrics.ObserveTick(time.Since(start))
}

// process runs fn with the processing flag held and then serves queued
// schedule requests. Nested calls run fn directly.
func (s *Scheduler) process(fn func()) {
	if s.processing {
		fn()
		return
	}
	s.processing = true
	defer func() {
		s.processing = false
	}()
	fn()
	s.drain()
}

// drain initializes queued schedule requests in arrival order, including any
// queued by the commands it initializes.
func (s *Scheduler) drain() {
	for s.queue.Len() > 0 {
		command := s.queue.Pop()
		if err := s.initialize(command); err != nil && !isLifecycle(err) {
			s.logger.Warn("queued command not scheduled", "command", command.Name(), "error", err)
		}
	}
}

func (s *Scheduler) context() context.Context {
	if s.span != nil {
		return s.span
	}
	return s
}

func (s *Scheduler) periodic() {
	for _, subsystem := range s.subsystems.Slice() {
		if err := guard(nil, PhasePeriodic, subsystem.Periodic); err != nil {
			err.(*LifecycleError).Subsystem = subsystem
			s.report(nil, err)
		}
	}
}

func (s *Scheduler) defaults() {
	for _, subsystem := range s.subsystems.Slice() {
		if _, busy := s.owners[subsystem]; busy {
			continue
		}
		command := subsystem.DefaultCommand()
		if command == nil || s.active.Contains(command) {
			continue
		}
		err := s.initialize(command)
		if err != nil && !isLifecycle(err) && !errors.Is(err, ErrDisabled) {
			s.logger.Warn("default command not scheduled", "subsystem", subsystem.Name(), "command", command.Name(), "error", err)
		}
	}
}

// initialize moves command into the active set. The scheduler must be
// processing.
func (s *Scheduler) initialize(command Command) error {
	if s.active.Contains(command) {
		s.logger.Debug("command already scheduled", "command", command.Name())
		return nil
	}
	var requirements []Subsystem
	var runsWhenDisabled bool
	if err := guard(command, PhaseRequirements, func() {
		runsWhenDisabled = command.RunsWhenDisabled()
		requirements = set.New(command.Requirements()...).Slice()
	}); err != nil {
		s.report(command, err)
		return err
	}
	if !s.Enabled() && !runsWhenDisabled {
		return fmt.Errorf("schedule %s: %w", command.Name(), ErrDisabled)
	}
	incumbents := set.Set[Command]{}
	for _, requirement := range requirements {
		owner, ok := s.owners[requirement]
		if !ok || owner == command {
			continue
		}
		if !owner.Interruptible() {
			return fmt.Errorf("schedule %s: %s holds %s: %w", command.Name(), owner.Name(), requirement.Name(), ErrNotInterruptible)
		}
		incumbents.Add(owner)
	}
	_, span := s.tracer.Start(s.context(), "command.Schedule", trace.WithAttributes(telemetry.Attributes(command)...))
	defer span.End()
	for incumbent := range incumbents.Items() {
		s.retire(incumbent, true, ReasonConflict)
	}
	s.active.Add(command)
	s.claims[command] = requirements
	for _, requirement := range requirements {
		s.owners[requirement] = command
	}
	s.metrics.Scheduled()
	s.metrics.Active(s.active.Size())
	s.logger.Debug("command scheduled", "command", command.Name(), "id", command.Id(), "interrupted", incumbents.Size())
	if err := guard(command, PhaseInitialize, command.Initialize); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.fail(command, err)
		return err
	}
	s.notify(s.hooks.initialize, command)
	return nil
}

// step runs one tick of an active command.
func (s *Scheduler) step(command Command) {
	if !s.active.Contains(command) {
		return
	}
	if !s.Enabled() {
		var runs bool
		if err := guard(command, PhaseRequirements, func() { runs = command.RunsWhenDisabled() }); err != nil {
			s.fail(command, err)
			return
		}
		if !runs {
			s.retire(command, true, ReasonDisabled)
			return
		}
	}
	if err := s.verify(command); err != nil {
		s.fail(command, err)
		return
	}
	if err := guard(command, PhaseExecute, command.Execute); err != nil {
		s.fail(command, err)
		return
	}
	s.notify(s.hooks.execute, command)
	if !s.active.Contains(command) {
		return
	}
	var finished bool
	if err := guard(command, PhaseIsFinished, func() { finished = command.IsFinished() }); err != nil {
		s.fail(command, err)
		return
	}
	if finished {
		s.retire(command, false, ReasonFinished)
	}
}

// verify checks the command still declares the requirements it was
// scheduled with.
func (s *Scheduler) verify(command Command) error {
	var current []Subsystem
	if err := guard(command, PhaseRequirements, func() { current = command.Requirements() }); err != nil {
		return err
	}
	if !set.New(current...).Equal(set.New(s.claims[command]...)) {
		return &LifecycleError{Command: command, Phase: PhaseRequirements, Cause: ErrRequirementsChanged}
	}
	return nil
}

// retire removes command from the active set, releases its subsystems and
// then calls End. It does nothing for inactive commands, so End runs at most
// once per scheduling.
func (s *Scheduler) retire(command Command, interrupted bool, reason string) {
	if !s.active.Remove(command) {
		return
	}
	for _, requirement := range s.claims[command] {
		if s.owners[requirement] == command {
			delete(s.owners, requirement)
		}
	}
	delete(s.claims, command)
	s.metrics.Active(s.active.Size())
	if err := guard(command, PhaseEnd, func() { command.End(interrupted) }); err != nil {
		s.report(command, err)
	}
	s.logger.Debug("command ended", "command", command.Name(), "interrupted", interrupted, "reason", reason)
	trace.SpanFromContext(s.context()).AddEvent("command.End", trace.WithAttributes(
		append(telemetry.Attributes(command), telemetry.Reason.String(reason))...,
	))
	if interrupted {
		s.metrics.Interrupted(reason)
		s.notify(s.hooks.interrupt, command)
	} else {
		s.metrics.Finished()
		s.notify(s.hooks.finish, command)
	}
}

// fail reports err and force-retires command.
func (s *Scheduler) fail(command Command, err error) {
	s.report(command, err)
	s.retire(command, true, ReasonFault)
}

func (s *Scheduler) report(command Command, err error) {
	phase := Phase("unknown")
	var lifecycle *LifecycleError
	if errors.As(err, &lifecycle) {
		phase = lifecycle.Phase
	}
	name := ""
	if command != nil {
		name = command.Name()
	}
	s.logger.Error("command failed", "command", name, "phase", phase, "error", err)
	_, span := s.tracer.Start(s.context(), "command.Fault", trace.WithAttributes(telemetry.Phase.String(string(phase))))
	span.SetAttributes(telemetry.Attributes(command)...)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
	s.metrics.Failed(string(phase))
	for _, fn := range s.hooks.err {
		if hookErr := guard(command, PhaseHook, func() { fn(command, err) }); hookErr != nil {
			s.logger.Error("error hook failed", "command", name, "error", hookErr)
		}
	}
}

func (s *Scheduler) notify(fns []func(Command), command Command) {
	for _, fn := range fns {
		if err := guard(command, PhaseHook, func() { fn(command) }); err != nil {
			s.logger.Error("scheduler hook failed", "command", command.Name(), "error", err)
		}
	}
}

func isLifecycle(err error) bool {
	var lifecycle *LifecycleError
	return errors.As(err, &lifecycle)
}
