package models

// Status and priority policy. Each status maps to a display label and a
// progress percentage; lookups on unknown values fall back to zero progress
// rather than failing.

const (
	ProjectStatusPlanning   = "planning"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusOnHold     = "on_hold"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

const (
	ProjectPriorityLow    = "low"
	ProjectPriorityMedium = "medium"
	ProjectPriorityHigh   = "high"
	ProjectPriorityUrgent = "urgent"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

type StatusInfo struct {
	Label    string
	Progress int
}

var projectStatuses = map[string]StatusInfo{
	ProjectStatusPlanning:   {Label: "Planning", Progress: 10},
	ProjectStatusInProgress: {Label: "In Progress", Progress: 50},
	ProjectStatusOnHold:     {Label: "On Hold", Progress: 30},
	ProjectStatusCompleted:  {Label: "Completed", Progress: 100},
	ProjectStatusCancelled:  {Label: "Cancelled", Progress: 0},
}

var taskStatuses = map[string]StatusInfo{
	TaskStatusTodo:       {Label: "To Do", Progress: 0},
	TaskStatusInProgress: {Label: "In Progress", Progress: 50},
	TaskStatusDone:       {Label: "Done", Progress: 100},
}

var projectPriorities = map[string]string{
	ProjectPriorityLow:    "Low",
	ProjectPriorityMedium: "Medium",
	ProjectPriorityHigh:   "High",
	ProjectPriorityUrgent: "Urgent",
}

// Declaration order, used for validation allow-lists and stable option output.
var projectStatusOrder = []string{
	ProjectStatusPlanning,
	ProjectStatusInProgress,
	ProjectStatusOnHold,
	ProjectStatusCompleted,
	ProjectStatusCancelled,
}

var projectPriorityOrder = []string{
	ProjectPriorityLow,
	ProjectPriorityMedium,
	ProjectPriorityHigh,
	ProjectPriorityUrgent,
}

var taskStatusOrder = []string{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusDone,
}

func ProjectStatusValues() []string {
	return append([]string(nil), projectStatusOrder...)
}

func ProjectPriorityValues() []string {
	return append([]string(nil), projectPriorityOrder...)
}

func TaskStatusValues() []string {
	return append([]string(nil), taskStatusOrder...)
}

func IsValidProjectStatus(status string) bool {
	_, ok := projectStatuses[status]
	return ok
}

func IsValidProjectPriority(priority string) bool {
	_, ok := projectPriorities[priority]
	return ok
}

func IsValidTaskStatus(status string) bool {
	_, ok := taskStatuses[status]
	return ok
}

// ProjectStatusProgress returns the progress percentage for a project status,
// or 0 for values outside the allowed set.
func ProjectStatusProgress(status string) int {
	return projectStatuses[status].Progress
}

// TaskStatusProgress returns the progress percentage for a task status, or 0
// for values outside the allowed set.
func TaskStatusProgress(status string) int {
	return taskStatuses[status].Progress
}

func ProjectStatusLabel(status string) string {
	return projectStatuses[status].Label
}

func TaskStatusLabel(status string) string {
	return taskStatuses[status].Label
}

func ProjectPriorityLabel(priority string) string {
	return projectPriorities[priority]
}
