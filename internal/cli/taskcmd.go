package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/semmy-space/tasq/internal/api"
	"github.com/semmy-space/tasq/internal/config"
	"github.com/semmy-space/tasq/internal/output"
	"github.com/semmy-space/tasq/pkg/browser"
)

var taskColumns = []output.Column{
	{Name: "ID", Key: "ID", Width: 36},
	{Name: "STATUS", Key: "Status"},
	{Name: "URL", Key: "URL", Width: 48},
	{Name: "CREATED", Key: "CreatedAt"},
}

// PollFlags are shared by commands that wait for a task
type PollFlags struct {
	Attempts int           `help:"Maximum status checks (default from config, then 60)"`
	Interval time.Duration `help:"Wait between status checks (default from config, then 2s)"`
}

func (f PollFlags) resolve(cfg *config.Config) (int, time.Duration) {
	attempts, interval := f.Attempts, f.Interval
	if attempts <= 0 {
		attempts = cfg.MaxPollAttempts()
	}
	if interval <= 0 {
		interval = cfg.PollIntervalDuration()
	}
	return attempts, interval
}

// pollTask waits for a task, reporting status changes on stderr
func pollTask(ctx context.Context, client api.TaskService, fp *FormatterProvider, cfg *config.Config, flags PollFlags, id string) (*api.Task, error) {
	attempts, interval := flags.resolve(cfg)

	var last api.TaskStatus
	return client.PollTask(ctx, id, func(task *api.Task) {
		if task.Status != last {
			fmt.Fprintf(fp.Err, "Task %s: %s\n", id, task.Status)
			last = task.Status
		}
	}, attempts, interval)
}

// TaskCreateCmd implements the task create command
type TaskCreateCmd struct {
	URL     string   `arg:"" help:"Input document URL"`
	Targets []string `help:"Target as model:format[,format...][:language], repeatable" name:"target" short:"t" sep:"none" required:""`
	Wait    bool     `help:"Wait for the task to finish" short:"w"`
	PollFlags
}

// Run executes the create command
func (cmd *TaskCreateCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider, cfg *config.Config) error {
	req := api.CreateTaskRequest{URL: cmd.URL}
	for _, spec := range cmd.Targets {
		target, err := parseTarget(spec)
		if err != nil {
			return output.NewCLIError(output.ExitUsage, err.Error())
		}
		req.Targets = append(req.Targets, target)
	}

	client, err := sp.Client(ctx)
	if err != nil {
		return mapError(err)
	}

	task, err := client.CreateTask(ctx, req)
	if err != nil {
		return mapError(err)
	}

	if cmd.Wait && !task.Status.Terminal() {
		task, err = pollTask(ctx, client, fp, cfg, cmd.PollFlags, task.ID)
		if err != nil {
			return mapError(err)
		}
	}

	return fp.Formatter.Print(task)
}

// parseTarget parses model:format[,format...][:language]
func parseTarget(spec string) (api.Target, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return api.Target{}, fmt.Errorf("invalid target %q: expected model:format[,format...][:language]", spec)
	}

	target := api.Target{Model: parts[0]}
	for _, f := range strings.Split(parts[1], ",") {
		if f = strings.TrimSpace(f); f != "" {
			target.Formats = append(target.Formats, f)
		}
	}
	if len(parts) == 3 {
		target.Language = parts[2]
	}
	return target, nil
}

// TaskGetCmd implements the task get command
type TaskGetCmd struct {
	ID string `arg:"" help:"Task ID"`
}

// Run executes the get command
func (cmd *TaskGetCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider) error {
	client, err := sp.Client(ctx)
	if err != nil {
		return mapError(err)
	}

	task, err := client.GetTask(ctx, cmd.ID)
	if err != nil {
		return mapError(err)
	}
	return fp.Formatter.Print(task)
}

// TaskListCmd implements the task list command
type TaskListCmd struct {
	Status string `help:"Filter by status" enum:"pending,processing,completed,failed," default:""`
	Limit  int    `help:"Maximum tasks to return" default:"20"`
	Offset int    `help:"Tasks to skip"`
	Since  string `help:"Only tasks created after this time (RFC 3339 or a duration like 24h)"`
}

// Run executes the list command
func (cmd *TaskListCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider) error {
	since, err := parseSince(cmd.Since, time.Now())
	if err != nil {
		return output.NewCLIError(output.ExitUsage, err.Error())
	}

	client, err := sp.Client(ctx)
	if err != nil {
		return mapError(err)
	}

	list, err := client.ListTasks(ctx, api.ListTasksParams{
		Status: api.TaskStatus(cmd.Status),
		Limit:  cmd.Limit,
		Offset: cmd.Offset,
		Since:  since,
	})
	if err != nil {
		return mapError(err)
	}

	return fp.Formatter.PrintList(list.Tasks, taskColumns)
}

// parseSince accepts an RFC 3339 timestamp or a duration back from now
func parseSince(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: expected RFC 3339 time or duration like 24h", value)
}

// TaskPollCmd implements the task poll command
type TaskPollCmd struct {
	ID string `arg:"" help:"Task ID"`
	PollFlags
}

// Run executes the poll command
func (cmd *TaskPollCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider, cfg *config.Config) error {
	client, err := sp.Client(ctx)
	if err != nil {
		return mapError(err)
	}

	task, err := pollTask(ctx, client, fp, cfg, cmd.PollFlags, cmd.ID)
	if err != nil {
		return mapError(err)
	}
	return fp.Formatter.Print(task)
}

// TaskResultCmd implements the task result command
type TaskResultCmd struct {
	ID     string `arg:"" help:"Task ID"`
	Format string `help:"Result format to pick when the task produced several" short:"f"`
	Open   bool   `help:"Open the result document in the browser instead of printing it"`
}

// Run executes the result command
func (cmd *TaskResultCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider) error {
	client, err := sp.Client(ctx)
	if err != nil {
		return mapError(err)
	}

	task, err := client.GetTask(ctx, cmd.ID)
	if err != nil {
		return mapError(err)
	}
	if task.Status != api.StatusCompleted {
		return output.NewCLIError(output.ExitGeneral, fmt.Sprintf("Task %s is %s, no result yet", task.ID, task.Status)).
			WithHint(fmt.Sprintf("Run: tasq task poll %s", task.ID))
	}

	result, err := pickResult(task.Results, cmd.Format)
	if err != nil {
		return err
	}

	if cmd.Open {
		if err := browser.Open(result.URL); err != nil {
			return output.NewCLIError(output.ExitGeneral, fmt.Sprintf("Failed to open browser: %v", err)).
				WithHint("Open manually: " + result.URL)
		}
		fmt.Fprintf(fp.Err, "Opened %s\n", result.URL)
		return nil
	}

	data, err := client.FetchResult(ctx, result.URL)
	if err != nil {
		return mapError(err)
	}
	return fp.Formatter.Print(data)
}

// pickResult returns the first result, or the first matching format
func pickResult(results []api.Result, format string) (api.Result, error) {
	if len(results) == 0 {
		return api.Result{}, output.NewCLIError(output.ExitNotFound, "Task has no result documents")
	}
	if format == "" {
		return results[0], nil
	}

	var formats []string
	for _, r := range results {
		if strings.EqualFold(r.Format, format) {
			return r, nil
		}
		formats = append(formats, r.Format)
	}
	return api.Result{}, output.NewCLIError(output.ExitNotFound, fmt.Sprintf("No %s result", format)).
		WithHint("Available formats: " + strings.Join(formats, ", "))
}

// TaskStatsCmd implements the task stats command
type TaskStatsCmd struct {
	Name string `arg:"" optional:"" default:"summary" help:"Statistics name"`
}

// Run executes the stats command
func (cmd *TaskStatsCmd) Run(ctx context.Context, sp *ServiceProvider, fp *FormatterProvider) error {
	client, err := sp.Client(ctx)
	if err != nil {
		return mapError(err)
	}

	stats, err := client.GetStats(ctx, cmd.Name)
	if err != nil {
		return mapError(err)
	}
	return fp.Formatter.Print(map[string]any(stats))
}
