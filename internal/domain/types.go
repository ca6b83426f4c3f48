package domain

import (
	"fmt"
	"strings"
	"time"
)

type ChannelID = string
type RoleID = string
type UserID = string

// MessageRef identifies a message the bot posted.
type MessageRef struct {
	ChannelID ChannelID `json:"channel_id"`
	MessageID string    `json:"message_id"`
}

func (m MessageRef) IsZero() bool {
	return m.MessageID == ""
}

// Date is a calendar date without a zone.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// DaysIn returns the last day of the month: the day before the 1st of the next one.
func DaysIn(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

func (d Date) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return d.Day <= DaysIn(d.Year, d.Month)
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) In(t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDate parses the YYYY-MM-DD form produced by String.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	if t.Hour != o.Hour {
		return t.Hour < o.Hour
	}
	return t.Minute < o.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("parse time %q: out of range", s)
	}
	return t, nil
}

// SuggestTime is a frequently used time offered as a quick choice.
type SuggestTime struct {
	At    TimeOfDay `json:"at"`
	Label string    `json:"label"`
}

// Settings are the per-guild configuration scalars.
type Settings struct {
	PingChannel ChannelID   `json:"ping_channel,omitempty"`
	PingRole    RoleID      `json:"ping_role,omitempty"`
	LogChannel  ChannelID   `json:"log_channel,omitempty"`
	Panel       *MessageRef `json:"panel_message,omitempty"`
}

// Snapshot is a point-in-time copy of every shared collection.
type Snapshot struct {
	Tasks        []Task        `json:"tasks"`
	Subjects     []string      `json:"subjects"`
	SuggestTimes []SuggestTime `json:"suggest_times"`
	Settings     Settings      `json:"settings"`
}

var weekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// FormatDate renders 2006/01/02 (月).
func FormatDate(d Date) string {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return fmt.Sprintf("%s (%s)", t.Format("2006/01/02"), weekdays[t.Weekday()])
}

// FormatDateTime renders 2006/01/02 (月) 15:04 in t's own zone.
func FormatDateTime(t time.Time) string {
	return fmt.Sprintf("%s (%s) %s", t.Format("2006/01/02"), weekdays[t.Weekday()], t.Format("15:04"))
}

// SplitList splits a comma separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
