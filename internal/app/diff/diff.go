// Package diff renders the change between two versions of an ordered
// collection as a chat "diff" code block.
package diff

import "strings"

type Op int

const (
	Unchanged Op = iota
	Added
	Removed
)

// Line is one element of the merged collection.
type Line struct {
	Op   Op
	Text string
}

func (l Line) String() string {
	switch l.Op {
	case Added:
		return "+ " + l.Text
	case Removed:
		return "- " + l.Text
	default:
		return l.Text
	}
}

// Compute merges before and after into one listing. Elements are identified by
// their formatted text; both slices must be in the same canonical order, which
// the merge preserves.
func Compute[T any](before, after []T, format func(T) string) []Line {
	b := texts(before, format)
	a := texts(after, format)
	inBefore := set(b)
	inAfter := set(a)

	lines := make([]Line, 0, len(b)+len(a))
	i, j := 0, 0
	for i < len(b) || j < len(a) {
		switch {
		case i < len(b) && !inAfter[b[i]]:
			lines = append(lines, Line{Op: Removed, Text: b[i]})
			i++
		case j < len(a) && !inBefore[a[j]]:
			lines = append(lines, Line{Op: Added, Text: a[j]})
			j++
		case j < len(a):
			lines = append(lines, Line{Op: Unchanged, Text: a[j]})
			if i < len(b) {
				i++
			}
			j++
		default:
			lines = append(lines, Line{Op: Unchanged, Text: b[i]})
			i++
		}
	}
	return lines
}

// Mark lists items in their given order, each with the Op that op reports.
// Only the elements the caller itself changed get a prefix, whatever else
// happened to the collection meanwhile.
func Mark[T any](items []T, format func(T) string, op func(T) Op) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{Op: op(it), Text: format(it)}
	}
	return lines
}

// Render wraps lines in a ```diff block.
func Render(lines []Line) string {
	var sb strings.Builder
	sb.WriteString("```diff\n")
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.String())
	}
	sb.WriteString("\n```")
	return sb.String()
}

func texts[T any](items []T, format func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = format(it)
	}
	return out
}

func set(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}
