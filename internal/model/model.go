package model

import "database/sql"

// Schedule types accepted on a ScheduledTask row.
const (
	ScheduleCrontab  = "crontab"
	ScheduleInterval = "interval"
)

// Interval period units and their length in seconds.
const (
	PeriodSeconds = "seconds"
	PeriodMinutes = "minutes"
	PeriodHours   = "hours"
	PeriodDays    = "days"
)

type User struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	Password  string `db:"password"` // sha256 hex
	IsAdmin   bool   `db:"is_admin"`
	DeviceKey string `db:"device_key"` // push device key; empty means no pushes
}

type Event struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	TargetDate string `db:"target_date"` // YYYY-MM-DD
	UserID     int64  `db:"user_id"`
	Status     string `db:"status"` // "1": ongoing, "2": finished
}

type Food struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Procedure string `db:"procedure"`
	UserID    int64  `db:"user_id"`
}

type Cate struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	UserID int64  `db:"user_id"`
}

type Ingredient struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	UserID int64  `db:"user_id"`
}

type Image struct {
	ID     int64  `db:"id"`
	URL    string `db:"url"`
	FoodID int64  `db:"food_id"`
}

// CrontabSchedule holds a standard five-field cron specification.
// Every field defaults to the wildcard "*".
type CrontabSchedule struct {
	ID          int64  `db:"id"`
	Minute      string `db:"minute"`
	Hour        string `db:"hour"`
	DayOfWeek   string `db:"day_of_week"`
	DayOfMonth  string `db:"day_of_month"`
	MonthOfYear string `db:"month_of_year"`
}

// IntervalSchedule means "every N units".
type IntervalSchedule struct {
	ID     int64  `db:"id"`
	Every  int64  `db:"every"`
	Period string `db:"period"` // seconds | minutes | hours | days
}

// ScheduledTask binds a runner task identifier to exactly one schedule
// definition, selected by ScheduleType.
type ScheduledTask struct {
	ID           int64         `db:"id"`
	Name         string        `db:"name"`
	TaskType     string        `db:"task_type"`
	ScheduleType string        `db:"schedule_type"`
	IsActive     bool          `db:"is_active"`
	CrontabID    sql.NullInt64 `db:"crontab_id"`
	IntervalID   sql.NullInt64 `db:"interval_id"`
	CreatedAt    string        `db:"created_at"`
}

// IntervalSeconds converts (every, period) to seconds.
// Unknown periods return (0, false).
func IntervalSeconds(every int64, period string) (int64, bool) {
	switch period {
	case PeriodSeconds:
		return every, true
	case PeriodMinutes:
		return every * 60, true
	case PeriodHours:
		return every * 3600, true
	case PeriodDays:
		return every * 86400, true
	default:
		return 0, false
	}
}
