package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/Skotchmaster/blog_api/internal/dispatch"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/service/posts"
)

// Job periodically replays the CSV import command on a cron schedule.
type Job struct {
	Dispatcher *dispatch.Dispatcher
	CSVURL     string
	Schedule   string
	Logger     *slog.Logger

	cron *cron.Cron
}

func New(d *dispatch.Dispatcher, csvURL, schedule string, logger *slog.Logger) *Job {
	return &Job{Dispatcher: d, CSVURL: csvURL, Schedule: schedule, Logger: logger}
}

// Start is a no-op unless both a URL and a schedule are configured.
func (j *Job) Start() error {
	if j.CSVURL == "" || j.Schedule == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(j.Schedule, j.run); err != nil {
		return err
	}
	c.Start()
	j.cron = c
	j.Logger.Info("import job scheduled", "schedule", j.Schedule, "csv_url", j.CSVURL)
	return nil
}

func (j *Job) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

func (j *Job) run() {
	runID := uuid.NewString()
	l := j.Logger.With("job", "post_import", "run_id", runID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logging.IntoContext(ctx, l)

	cmd := posts.ImportPostsCommand{CSVURL: j.CSVURL, RequestedBy: "importer"}
	res, err := dispatch.Send[posts.ImportPostsCommand, posts.ImportReport](ctx, j.Dispatcher, cmd)
	if err != nil {
		l.Error("import run failed", "error", err)
		return
	}
	if !res.OK {
		l.Warn("import run rejected", "reason", res.ErrMessage)
		return
	}
	l.Info("import run complete", "imported", res.Value.Imported, "skipped", res.Value.Skipped)
}
