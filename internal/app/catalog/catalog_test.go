package catalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/taskbot/internal/domain"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Subjects: []string{"国語", "数学", "英語"},
		SuggestTimes: []domain.SuggestTime{
			{At: domain.TimeOfDay{Hour: 8, Minute: 30}, Label: "朝"},
			{At: domain.TimeOfDay{Hour: 16, Minute: 0}, Label: "放課後"},
		},
		Today: domain.Date{Year: 2025, Month: 3, Day: 20},
	}
}

func defaults(f Field) []string {
	var out []string
	for _, c := range f.Choices {
		if c.Default {
			out = append(out, c.Token)
		}
	}
	return out
}

func TestBuildEmptyDraft(t *testing.T) {
	snap := testSnapshot()
	cat := Build(Draft{}, snap)

	require.Len(t, cat.Fields, 4)
	assert.False(t, cat.SubmitEnabled)

	category, _ := cat.Field(FieldCategory)
	require.Len(t, category.Choices, len(domain.Categories))
	assert.Equal(t, "イベント", category.Choices[0].Label)
	assert.Empty(t, defaults(category))

	subject, _ := cat.Field(FieldSubject)
	require.Len(t, subject.Choices, 4)
	assert.Equal(t, labelUnsetSubject, subject.Choices[3].Label)
	assert.Empty(t, defaults(subject))

	date, _ := cat.Field(FieldDate)
	require.Len(t, date.Choices, DateWindow+1)
	assert.Equal(t, "2025/03/20 (木)", date.Choices[0].Label)
	assert.Equal(t, "2025/04/12 (土)", date.Choices[DateWindow-1].Label)
	assert.Equal(t, OtherToken, date.Choices[DateWindow].Token)
	assert.Equal(t, "日付", date.Placeholder)

	tm, _ := cat.Field(FieldTime)
	require.Len(t, tm.Choices, 3)
	assert.Equal(t, "朝 (08:30)", tm.Choices[0].Label)
	assert.Equal(t, OtherToken, tm.Choices[2].Token)
}

func TestBuildMarksWorkingValues(t *testing.T) {
	snap := testSnapshot()
	d := Draft{}
	var err error
	for _, step := range []struct{ field, token string }{
		{FieldCategory, CategoryToken(domain.CategoryHomework)},
		{FieldSubject, "subj:1"},
		{FieldDate, OtherToken},
		{FieldTime, TimeToken(domain.TimeOfDay{Hour: 16})},
	} {
		d, err = Apply(d, step.field, step.token, snap)
		require.NoError(t, err, step.field)
	}

	cat := Build(d, snap)
	assert.True(t, cat.SubmitEnabled)

	category, _ := cat.Field(FieldCategory)
	assert.Equal(t, []string{"cat:homework"}, defaults(category))
	subject, _ := cat.Field(FieldSubject)
	assert.Equal(t, []string{"subj:1"}, defaults(subject))
	assert.Equal(t, "数学", subject.Placeholder)
	date, _ := cat.Field(FieldDate)
	assert.Equal(t, []string{OtherToken}, defaults(date))
	tm, _ := cat.Field(FieldTime)
	assert.Equal(t, []string{"time:16:00"}, defaults(tm))
	assert.Equal(t, "16:00", tm.Placeholder)
}

func TestBuildIsIdempotent(t *testing.T) {
	snap := testSnapshot()
	c := domain.CategoryExam
	s := domain.SubjectOf("英語")
	date := domain.Date{Year: 2025, Month: 3, Day: 22}
	d := Draft{Task: domain.PartialTask{Category: &c, Subject: &s, Date: &date}}

	first := Build(d, snap)
	second := Build(d, snap)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Build not idempotent (-first +second):\n%s", diff)
	}
}

func TestBuildShowsValueOutsideWindow(t *testing.T) {
	snap := testSnapshot()
	date := domain.Date{Year: 2026, Month: 1, Day: 5}
	at := domain.TimeOfDay{Hour: 7, Minute: 45}
	cat := Build(Draft{Task: domain.PartialTask{Date: &date, Time: &at}}, snap)

	f, _ := cat.Field(FieldDate)
	assert.Equal(t, "2026/01/05 (月)", f.Placeholder)
	assert.Empty(t, defaults(f))
	f, _ = cat.Field(FieldTime)
	assert.Equal(t, "07:45", f.Placeholder)
	assert.Empty(t, defaults(f))
}

func TestBuildCapsOptions(t *testing.T) {
	snap := testSnapshot()
	snap.Subjects = nil
	for i := 0; i < 40; i++ {
		snap.Subjects = append(snap.Subjects, fmt.Sprintf("s%02d", i))
		snap.SuggestTimes = append(snap.SuggestTimes, domain.SuggestTime{At: domain.TimeOfDay{Hour: i % 24, Minute: i}})
	}

	cat := Build(Draft{}, snap)
	for _, f := range cat.Fields {
		assert.LessOrEqual(t, len(f.Choices), MaxOptions, f.Name)
	}
	subject, _ := cat.Field(FieldSubject)
	assert.Equal(t, labelUnsetSubject, subject.Choices[len(subject.Choices)-1].Label)

	_, err := ResolveSubject("subj:30", snap)
	assert.Error(t, err, "tokens beyond the offered options do not resolve")
}

func TestTokensAreDisjoint(t *testing.T) {
	snap := testSnapshot()
	cat := Build(Draft{}, snap)
	seen := map[string]string{}
	for _, f := range cat.Fields {
		for _, c := range f.Choices {
			if c.Token == OtherToken {
				continue
			}
			assert.False(t, strings.HasPrefix(c.Token, "other:"), c.Token)
			if prev, ok := seen[c.Token]; ok {
				t.Fatalf("token %q in %s and %s", c.Token, prev, f.Name)
			}
			seen[c.Token] = f.Name
		}
	}
}

func TestResolveRejectsUnknownTokens(t *testing.T) {
	snap := testSnapshot()
	tests := []struct {
		name  string
		field string
		token string
	}{
		{"category key", FieldCategory, "cat:sports"},
		{"category prefix", FieldCategory, "event"},
		{"subject index", FieldSubject, "subj:9"},
		{"subject garbage", FieldSubject, "subj:x"},
		{"date outside window", FieldDate, "date:2025-05-01"},
		{"date garbage", FieldDate, "date:yesterday"},
		{"time not suggested", FieldTime, "time:09:00"},
		{"foreign sentinel", FieldTime, "other:0000"},
		{"unknown field", "color", "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := Draft{}
			after, err := Apply(before, tt.field, tt.token, snap)
			var invalid *domain.InvalidSelectionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.token, invalid.Token)
			assert.Equal(t, before, after)
		})
	}
}

func TestApplyUnsetSubjectAndClearDeferral(t *testing.T) {
	snap := testSnapshot()
	d, err := Apply(Draft{}, FieldSubject, unsetSubject, snap)
	require.NoError(t, err)
	require.NotNil(t, d.Task.Subject)
	assert.False(t, d.Task.Subject.IsSet())

	d, err = Apply(d, FieldDate, OtherToken, snap)
	require.NoError(t, err)
	assert.True(t, d.DateDeferred)
	assert.Nil(t, d.Task.Date)

	d, err = Apply(d, FieldDate, "date:2025-03-21", snap)
	require.NoError(t, err)
	assert.False(t, d.DateDeferred)
	assert.Equal(t, domain.Date{Year: 2025, Month: 3, Day: 21}, *d.Task.Date)
}
