package main

import (
	"log/slog"
	"time"

	command "github.com/stateforward/go-command"
	"github.com/stateforward/go-command/clock"
)

// drivetrain is a simulated tank drive that integrates its commanded speed.
type drivetrain struct {
	*command.SubsystemBase
	speed    float64
	distance float64
	last     time.Time
	clock    clock.Clock
}

func newDrivetrain(c clock.Clock) *drivetrain {
	return &drivetrain{SubsystemBase: command.NewSubsystem("drive"), clock: c, last: c.Now()}
}

func (drive *drivetrain) update() {
	now := drive.clock.Now()
	drive.distance += drive.speed * now.Sub(drive.last).Seconds()
	drive.last = now
}

type intake struct {
	*command.SubsystemBase
	running bool
	pieces  int
}

// robot wires the demo subsystems, their default commands and the
// autonomous routine to a scheduler.
type robot struct {
	drive  *drivetrain
	intake *intake
	auto   command.Command
}

func newRobot(scheduler *command.Scheduler, logger *slog.Logger, c clock.Clock) (*robot, error) {
	r := &robot{
		drive:  newDrivetrain(c),
		intake: &intake{SubsystemBase: command.NewSubsystem("intake")},
	}
	r.drive.SetPeriodic(r.drive.update)

	hold := command.Run(func() { r.drive.speed = 0 }, r.drive).SetName("HoldPosition")
	if err := scheduler.SetDefaultCommand(r.drive, hold); err != nil {
		return nil, err
	}
	idle := command.Run(func() { r.intake.running = false }, r.intake).SetName("IntakeIdle")
	if err := scheduler.SetDefaultCommand(r.intake, idle); err != nil {
		return nil, err
	}

	driveForward := command.NewLambda().
		SetInitialize(func() { r.drive.distance = 0 }).
		SetExecute(func() { r.drive.speed = 0.5 }).
		SetIsFinished(func() bool { return r.drive.distance >= 1 }).
		SetEndAction(func() { r.drive.speed = 0 }).
		SetName("DriveForward").
		AddRequirements(r.drive)
	collect := command.Run(func() { r.intake.running = true }, r.intake).
		SetEndAction(func() { r.intake.running = false }).
		SetName("Collect")
	score := command.Instant(func() {
		r.intake.pieces++
		logger.Info("scored", "pieces", r.intake.pieces)
	}, r.intake).SetName("Score")

	r.auto = command.Sequence(
		command.Deadline(driveForward, collect).SetName("DriveAndCollect"),
		command.WithTimeout(command.WaitUntil(func() bool { return !r.intake.running }), time.Second, c),
		score,
	).SetName("Autonomous")
	return r, nil
}
