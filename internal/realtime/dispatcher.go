package realtime

import (
	"fmt"
)

// RoomForProject builds the room identifier a project's watchers join.
func RoomForProject(projectID string) string {
	return "project:" + projectID
}

// Dispatcher builds the typed notification envelope for each business event
// and routes it through exactly one registry primitive. It holds no state of
// its own and performs no I/O beyond the registry call.
type Dispatcher struct {
	reg *Registry
}

// NewDispatcher returns a dispatcher bound to the given registry.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// AssignmentCreated notifies an evaluator that an evaluation was assigned to
// them.
func (d *Dispatcher) AssignmentCreated(evaluatorID, evaluationID, title string) {
	env := NewEnvelope(
		TypeAssignmentCreated,
		"New evaluation assigned",
		fmt.Sprintf("You have been assigned %q", title),
		map[string]any{"evaluationId": evaluationID},
		PriorityHigh,
	)
	d.reg.SendToUser(evaluatorID, env)
}

// EvaluationCompleted notifies the evaluation's creator that an evaluator
// finished their assignment.
func (d *Dispatcher) EvaluationCompleted(creatorID, evaluationID, evaluatorName string) {
	env := NewEnvelope(
		TypeEvaluationCompleted,
		"Evaluation completed",
		fmt.Sprintf("%s completed an evaluation", evaluatorName),
		map[string]any{"evaluationId": evaluationID},
		PriorityMedium,
	)
	d.reg.SendToUser(creatorID, env)
}

// DeadlineApproaching warns an evaluator that an assignment is due soon.
func (d *Dispatcher) DeadlineApproaching(evaluatorID, evaluationID, title, dueDate string) {
	env := NewEnvelope(
		TypeDeadlineApproaching,
		"Evaluation due soon",
		fmt.Sprintf("%q is due on %s", title, dueDate),
		map[string]any{"evaluationId": evaluationID, "dueDate": dueDate},
		PriorityUrgent,
	)
	d.reg.SendToUser(evaluatorID, env)
}

// ProjectUpdated notifies everyone watching a project's room.
func (d *Dispatcher) ProjectUpdated(projectID, projectName, change string) {
	env := NewEnvelope(
		TypeProjectUpdated,
		"Project updated",
		fmt.Sprintf("Project %q was %s", projectName, change),
		map[string]any{"projectId": projectID, "change": change},
		PriorityMedium,
	)
	d.reg.SendToRoom(RoomForProject(projectID), env)
}

// SystemMaintenance announces a maintenance window to every connected client.
func (d *Dispatcher) SystemMaintenance(message string) {
	env := NewEnvelope(
		TypeSystemMaintenance,
		"System maintenance",
		message,
		nil,
		PriorityUrgent,
	)
	d.reg.BroadcastAll(env)
}
