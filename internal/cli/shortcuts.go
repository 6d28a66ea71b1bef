package cli

// LsCmd is a desire-path shortcut for task list
type LsCmd struct {
	TaskListCmd
}
