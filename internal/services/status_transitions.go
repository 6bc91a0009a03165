package services

import "metrika/internal/models"

// taskMove классифицирует смену статуса задачи.
type taskMove int

const (
	moveNone taskMove = iota
	moveColumn
	moveComplete
	moveReopen
)

// classifyTaskMove: в Done можно прийти из любого статуса, событие
// завершения срабатывает только на входе в Done.
func classifyTaskMove(from, to models.TaskStatus) taskMove {
	switch {
	case from == to:
		return moveNone
	case to == models.StatusDone:
		return moveComplete
	case from == models.StatusDone:
		return moveReopen
	default:
		return moveColumn
	}
}

func projectCompleted(from, to models.ProjectStatus) bool {
	return from != models.ProjectCompleted && to == models.ProjectCompleted
}
