package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
)

// cronParser accepts five or six fields (leading seconds optional) and
// descriptors such as @hourly or @every 5s.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseCron parses expr into a cron.Schedule.
func ParseCron(expr string) (cron.Schedule, error) {
	if err := validation.ValidateNotEmpty("scheduler", "cron", expr); err != nil {
		return nil, err
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, rxerrors.NewValidationError("scheduler", "cron", expr, "unparseable expression").
			WithHint(err.Error())
	}
	return schedule, nil
}

// Description summarizes when a cron expression fires.
type Description struct {
	Expression string
	Summary    string
	NextRuns   []time.Time
	TimeZone   string
}

// Describe parses expr and lists its next n fire times after from.
// Fewer than n times are returned when the schedule is exhausted.
func Describe(expr string, from time.Time, n int) (Description, error) {
	if err := validation.ValidatePositive("scheduler", "runs", n); err != nil {
		return Description{}, err
	}

	schedule, err := ParseCron(expr)
	if err != nil {
		return Description{}, err
	}

	runs := make([]time.Time, 0, n)
	current := from
	for i := 0; i < n; i++ {
		current = schedule.Next(current)
		if current.IsZero() {
			break
		}
		runs = append(runs, current)
	}

	return Description{
		Expression: expr,
		Summary:    summarize(expr),
		NextRuns:   runs,
		TimeZone:   from.Location().String(),
	}, nil
}

func summarize(expr string) string {
	switch expr {
	case "@yearly", "@annually":
		return "once a year (January 1st at midnight)"
	case "@monthly":
		return "once a month (1st day at midnight)"
	case "@weekly":
		return "once a week (Sunday at midnight)"
	case "@daily", "@midnight":
		return "once a day (at midnight)"
	case "@hourly":
		return "once an hour (at minute 0)"
	}
	return fmt.Sprintf("custom schedule: %s", expr)
}
