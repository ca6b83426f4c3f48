package flows

import (
	"context"
	"strconv"
	"time"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

const (
	hourID   = "hour"
	minuteID = "minute"
)

// minuteChoices are 0..55 in steps of five, plus 59 for end-of-hour deadlines.
var minuteChoices = []int{0, 5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 59}

type timeState struct {
	Hour   *int
	Minute *int
}

// SelectTime asks for an hour and a minute; submit stays disabled until both are picked.
func (f *Flows) SelectTime(ctx context.Context, origin *interaction.Handle, header interaction.Embed) (domain.TimeOfDay, *interaction.Handle, error) {
	res, err := interaction.Run(ctx, f.Transport, origin, timeForm(header, f.Timeouts.Picker), timeState{})
	if err != nil {
		return domain.TimeOfDay{}, nil, err
	}
	return domain.TimeOfDay{Hour: *res.State.Hour, Minute: *res.State.Minute}, res.Last, nil
}

func timeForm(header interaction.Embed, timeout time.Duration) interaction.Form[timeState] {
	return interaction.Form[timeState]{
		Name:   "time",
		Render: func(s timeState) interaction.Surface { return renderTime(header, s) },
		Fields: map[string]interaction.Reducer[timeState]{
			hourID: func(s timeState, values []string) (timeState, interaction.Effect, error) {
				h, err := pickInt(hourID, values, 0, 23, nil)
				if err != nil {
					return s, interaction.Rerender, err
				}
				s.Hour = &h
				return s, interaction.Rerender, nil
			},
			minuteID: func(s timeState, values []string) (timeState, interaction.Effect, error) {
				m, err := pickInt(minuteID, values, 0, 59, minuteChoices)
				if err != nil {
					return s, interaction.Rerender, err
				}
				s.Minute = &m
				return s, interaction.Rerender, nil
			},
		},
		Submit:    submitID,
		CanSubmit: func(s timeState) bool { return s.Hour != nil && s.Minute != nil },
		Timeout:   timeout,
	}
}

// pickInt resolves a numeric select value within [lo, hi] and, when allowed is
// non-nil, among allowed.
func pickInt(field string, values []string, lo, hi int, allowed []int) (int, error) {
	v, err := interaction.FirstValue(field, values)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, &domain.InvalidSelectionError{Field: field, Token: v}
	}
	if allowed == nil {
		return n, nil
	}
	for _, a := range allowed {
		if a == n {
			return n, nil
		}
	}
	return 0, &domain.InvalidSelectionError{Field: field, Token: v}
}

func renderTime(header interaction.Embed, s timeState) interaction.Surface {
	hours := interaction.SelectMenu{CustomID: hourID, Placeholder: "時"}
	for h := 0; h < 24; h++ {
		hours.Options = append(hours.Options, interaction.Option{
			Label:   strconv.Itoa(h),
			Value:   strconv.Itoa(h),
			Default: s.Hour != nil && *s.Hour == h,
		})
	}
	minutes := interaction.SelectMenu{CustomID: minuteID, Placeholder: "分"}
	for _, m := range minuteChoices {
		minutes.Options = append(minutes.Options, interaction.Option{
			Label:   strconv.Itoa(m),
			Value:   strconv.Itoa(m),
			Default: s.Minute != nil && *s.Minute == m,
		})
	}
	return withHeader(header,
		interaction.SelectRow(hours),
		interaction.SelectRow(minutes),
		interaction.ButtonRow(submitButton(s.Hour == nil || s.Minute == nil)),
	)
}
