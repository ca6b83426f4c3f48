package domain_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/taskbot/internal/domain"
)

var tokyo = time.FixedZone("JST", 9*60*60)

func TestFinalizeRoundTrip(t *testing.T) {
	task := domain.Task{
		Category: domain.CategoryExam,
		Subject:  domain.SubjectOf("数学"),
		Details:  "小テスト",
		At:       time.Date(2025, 3, 20, 8, 30, 0, 0, tokyo),
	}

	got, err := task.Partial().Finalize(tokyo)
	require.NoError(t, err)
	assert.True(t, got.Equal(task))
	assert.Equal(t, task.Partial(), got.Partial())
}

func TestFinalizeReportsMissingField(t *testing.T) {
	full := domain.Task{
		Category: domain.CategoryHomework,
		At:       time.Date(2025, 1, 1, 0, 0, 0, 0, tokyo),
	}.Partial()

	cases := []struct {
		field string
		clear func(p *domain.PartialTask)
	}{
		{"category", func(p *domain.PartialTask) { p.Category = nil }},
		{"subject", func(p *domain.PartialTask) { p.Subject = nil }},
		{"date", func(p *domain.PartialTask) { p.Date = nil }},
		{"time", func(p *domain.PartialTask) { p.Time = nil }},
		{"details", func(p *domain.PartialTask) { p.Details = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			p := full
			tc.clear(&p)

			_, err := p.Finalize(tokyo)

			var incomplete *domain.IncompleteError
			require.True(t, errors.As(err, &incomplete))
			assert.Equal(t, tc.field, incomplete.Field)
		})
	}
}

func TestFinalizeRejectsImpossibleDate(t *testing.T) {
	p := domain.Task{At: time.Date(2025, 1, 1, 0, 0, 0, 0, tokyo)}.Partial()
	p.Date = &domain.Date{Year: 2025, Month: time.February, Day: 29}

	_, err := p.Finalize(tokyo)

	var invalid *domain.InvalidSelectionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "date", invalid.Field)
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 31, domain.DaysIn(2025, time.March))
	assert.Equal(t, 29, domain.DaysIn(2024, time.February))
	assert.Equal(t, 28, domain.DaysIn(2025, time.February))
	assert.Equal(t, 28, domain.DaysIn(1900, time.February))
	assert.Equal(t, 29, domain.DaysIn(2000, time.February))
	assert.Equal(t, 31, domain.DaysIn(2025, time.December))
	assert.Equal(t, 30, domain.DaysIn(2025, time.April))
}

func TestTaskJSONKeepsCategoryKey(t *testing.T) {
	task := domain.Task{
		Category: domain.CategoryBelongings,
		At:       time.Date(2025, 4, 1, 9, 0, 0, 0, tokyo),
	}

	b, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"category":"belongings"`)

	var back domain.Task
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(task))
}

func TestTaskJSONRejectsUnknownCategory(t *testing.T) {
	for _, raw := range []string{
		`{"category":"Homework","subject":{"name":"数学"},"details":"x","datetime":"2025-03-21T09:00:00+09:00"}`,
		`{"category":"宿題","subject":{},"details":"x","datetime":"2025-03-21T09:00:00+09:00"}`,
	} {
		var task domain.Task
		err := json.Unmarshal([]byte(raw), &task)
		assert.ErrorContains(t, err, "unknown category", raw)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2025/03/20 (木)", domain.FormatDate(domain.Date{Year: 2025, Month: time.March, Day: 20}))
	assert.Equal(t, "2025/03/20 (木) 08:30", domain.FormatDateTime(time.Date(2025, 3, 20, 8, 30, 0, 0, tokyo)))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"国語", "数学"}, domain.SplitList(" 国語, ,数学 ,"))
}
