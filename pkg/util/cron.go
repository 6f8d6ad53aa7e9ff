package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Five fields plus @descriptors, the dialect asynq's scheduler accepts.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses cronExpr into a schedule evaluated in UTC.
func ParseSchedule(cronExpr string) (cron.Schedule, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return schedule, nil
}

func ValidateCronExpr(cronExpr string) error {
	_, err := ParseSchedule(cronExpr)
	return err
}

func NextCronTime(cronExpr string, from time.Time) (time.Time, error) {
	runs, err := CronRuns(cronExpr, from, 1)
	if err != nil {
		return time.Time{}, err
	}
	if len(runs) == 0 {
		return time.Time{}, fmt.Errorf("cron expression %q never fires", cronExpr)
	}
	return runs[0], nil
}

// CronRuns lists the next n occurrences of cronExpr strictly after from.
func CronRuns(cronExpr string, from time.Time, n int) ([]time.Time, error) {
	if n < 1 {
		return nil, errors.New("run count must be positive")
	}
	schedule, err := ParseSchedule(cronExpr)
	if err != nil {
		return nil, err
	}

	runs := make([]time.Time, 0, n)
	at := from.UTC()
	for len(runs) < n {
		at = schedule.Next(at)
		if at.IsZero() {
			break
		}
		runs = append(runs, at)
	}
	return runs, nil
}
