package queue

import (
	"slices"

	"github.com/stateforward/go-command/embedded"
)

// Queue holds schedule requests deferred while the scheduler is processing.
// Requests are served in arrival order and a command is queued at most once.
type Queue struct {
	commands []embedded.Command
}

func (q *Queue) Len() int {
	return len(q.commands)
}

func (q *Queue) Pop() embedded.Command {
	if len(q.commands) == 0 {
		return nil
	}
	command := q.commands[0]
	q.commands[0] = nil
	q.commands = q.commands[1:]
	return command
}

// Push appends command unless it is already waiting.
func (q *Queue) Push(command embedded.Command) bool {
	if q.Contains(command) {
		return false
	}
	q.commands = append(q.commands, command)
	return true
}

func (q *Queue) Contains(command embedded.Command) bool {
	return slices.Contains(q.commands, command)
}

// Remove drops a waiting command, reporting whether it was queued.
func (q *Queue) Remove(command embedded.Command) bool {
	i := slices.Index(q.commands, command)
	if i < 0 {
		return false
	}
	q.commands = slices.Delete(q.commands, i, i+1)
	return true
}

func New(maybeSize ...int) *Queue {
	q := &Queue{}
	if len(maybeSize) > 0 {
		q.commands = make([]embedded.Command, 0, maybeSize[0])
	}
	return q
}
