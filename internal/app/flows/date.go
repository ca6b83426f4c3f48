package flows

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

const (
	yearID  = "year"
	monthID = "month"
	dayID   = "day"
)

// yearSpan is how many years after the current one the picker offers.
const yearSpan = 2

// SelectDate asks for an arbitrary date, starting at today. Year and day
// choices are only acknowledged; picking a half-month re-renders the day list.
func (f *Flows) SelectDate(ctx context.Context, origin *interaction.Handle, header interaction.Embed) (domain.Date, *interaction.Handle, error) {
	today := f.today()
	res, err := interaction.Run(ctx, f.Transport, origin, dateForm(header, today.Year, f.Timeouts.Picker), today)
	if err != nil {
		return domain.Date{}, nil, err
	}
	return res.State, res.Last, nil
}

// firstHalf reports whether day falls in the 1..15 half of its month.
func firstHalf(day int) bool {
	return day <= 15
}

func halfToken(month time.Month, first bool) string {
	half := 2
	if first {
		half = 1
	}
	return fmt.Sprintf("m:%d:%d", int(month), half)
}

func halfLabel(month time.Month, first bool) string {
	if first {
		return fmt.Sprintf("%d月前半(〜15)", int(month))
	}
	return fmt.Sprintf("%d月後半(16〜)", int(month))
}

// dayRange returns the days offered for the half of the month d is in.
func dayRange(d domain.Date) (from, to int) {
	if firstHalf(d.Day) {
		return 1, 15
	}
	return 16, domain.DaysIn(d.Year, d.Month)
}

func dateForm(header interaction.Embed, baseYear int, timeout time.Duration) interaction.Form[domain.Date] {
	return interaction.Form[domain.Date]{
		Name: "date",
		Render: func(d domain.Date) interaction.Surface {
			return renderDate(header, baseYear, d)
		},
		Fields: map[string]interaction.Reducer[domain.Date]{
			yearID: func(d domain.Date, values []string) (domain.Date, interaction.Effect, error) {
				v, err := interaction.FirstValue(yearID, values)
				if err != nil {
					return d, interaction.AckOnly, err
				}
				year, err := strconv.Atoi(v)
				if err != nil || year < baseYear || year > baseYear+yearSpan {
					return d, interaction.AckOnly, &domain.InvalidSelectionError{Field: yearID, Token: v}
				}
				_, beforeTo := dayRange(d)
				d.Year = year
				_, afterTo := dayRange(d)
				if d.Day > afterTo {
					d.Day = afterTo
				}
				if beforeTo != afterTo {
					return d, interaction.Rerender, nil
				}
				return d, interaction.AckOnly, nil
			},
			monthID: func(d domain.Date, values []string) (domain.Date, interaction.Effect, error) {
				v, err := interaction.FirstValue(monthID, values)
				if err != nil {
					return d, interaction.Rerender, err
				}
				var month, half int
				if _, err := fmt.Sscanf(v, "m:%d:%d", &month, &half); err != nil ||
					month < 1 || month > 12 || (half != 1 && half != 2) {
					return d, interaction.Rerender, &domain.InvalidSelectionError{Field: monthID, Token: v}
				}
				d.Month = time.Month(month)
				d.Day = 1
				if half == 2 {
					d.Day = 16
				}
				return d, interaction.Rerender, nil
			},
			dayID: func(d domain.Date, values []string) (domain.Date, interaction.Effect, error) {
				v, err := interaction.FirstValue(dayID, values)
				if err != nil {
					return d, interaction.AckOnly, err
				}
				day, err := strconv.Atoi(v)
				from, to := dayRange(d)
				if err != nil || day < from || day > to {
					return d, interaction.AckOnly, &domain.InvalidSelectionError{Field: dayID, Token: v}
				}
				d.Day = day
				return d, interaction.AckOnly, nil
			},
		},
		Submit:  submitID,
		Timeout: timeout,
	}
}

func renderDate(header interaction.Embed, baseYear int, d domain.Date) interaction.Surface {
	years := interaction.SelectMenu{CustomID: yearID, Placeholder: "年"}
	for y := baseYear; y <= baseYear+yearSpan; y++ {
		years.Options = append(years.Options, interaction.Option{
			Label:   strconv.Itoa(y),
			Value:   strconv.Itoa(y),
			Default: y == d.Year,
		})
	}

	months := interaction.SelectMenu{CustomID: monthID, Placeholder: "月"}
	for m := time.January; m <= time.December; m++ {
		for _, first := range []bool{true, false} {
			months.Options = append(months.Options, interaction.Option{
				Label:   halfLabel(m, first),
				Value:   halfToken(m, first),
				Default: m == d.Month && first == firstHalf(d.Day),
			})
		}
	}

	days := interaction.SelectMenu{CustomID: dayID, Placeholder: "日"}
	from, to := dayRange(d)
	for day := from; day <= to; day++ {
		days.Options = append(days.Options, interaction.Option{
			Label:   strconv.Itoa(day),
			Value:   strconv.Itoa(day),
			Default: day == d.Day,
		})
	}

	return withHeader(header,
		interaction.SelectRow(years),
		interaction.SelectRow(months),
		interaction.SelectRow(days),
		interaction.ButtonRow(submitButton(false)),
	)
}
