package note

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// TemplateID names a built-in note template.
type TemplateID string

const (
	Empty   TemplateID = "empty"
	Daily   TemplateID = "daily"
	Weekly  TemplateID = "weekly"
	Monthly TemplateID = "monthly"
)

// DateLayout is the date format used in titles and metadata lines.
const DateLayout = "2006-01-02"

// DailyTitle returns the title of the daily note for t.
func DailyTitle(t time.Time) string { return t.Format(DateLayout) }

// WeeklyTitle returns the ISO 8601 week of t, e.g. "2026-W42". The year is
// the ISO year, which differs from the calendar year around New Year.
func WeeklyTitle(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthlyTitle returns the month of t, e.g. "2026-10".
func MonthlyTitle(t time.Time) string { return t.Format("2006-01") }

// addMonths moves to the first day of the month n months after t's month,
// so month-end dates never skip a month.
func addMonths(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
}

var funcs = template.FuncMap{
	"date":      func(t time.Time) string { return t.Format(DateLayout) },
	"clock":     func(t time.Time) string { return t.Format("15:04") },
	"addDays":   func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) },
	"datelink":  func(t time.Time) string { return "[[" + t.Format(DateLayout) + "]]" },
	"weeklink":  func(t time.Time, n int) string { return "[[" + WeeklyTitle(t.AddDate(0, 0, 7*n)) + "]]" },
	"monthlink": func(t time.Time, n int) string { return "[[" + MonthlyTitle(addMonths(t, n)) + "]]" },
}

const emptyText = `# {{.Title}}

---
**Created**: {{date .Created}} at {{clock .Created}}
`

const dailyText = `# {{.Title}}

## Today's Focus

- [ ]

## What I Did

### Work/Projects

### Personal

### Learning

## Reflections

### What went well?

### What could be improved?

### Tomorrow's priorities

-

## Captured Ideas

<!-- Quick thoughts, links, or ideas to process later -->

---

**Created**: {{date .Created}} at {{clock .Created}}
**Yesterday**: {{datelink (addDays .Created -1)}}
**Tomorrow**: {{datelink (addDays .Created 1)}}
`

const weeklyText = `# {{.Title}} Weekly Review

**Review Date**: {{date .Created}}
**Energy This Week**: /10
**Overall Rating**: /10

## Inbox Processing

- [ ] Note → Move to:

## Projects Review

| Project | Status | Next Action | Priority |
|---------|--------|-------------|----------|
|         |        |             | H/M/L    |

### Projects to Archive

- [ ]

## Areas Review

| Area | Current State | Needs Attention? | Action |
|------|---------------|------------------|--------|
|      |               | Yes/No           |        |

## Wins This Week

-

## Challenges & Lessons

### What didn't go as planned?

### What did I learn?

## Next Week Planning

### Top 3 Priorities

1.
2.
3.

---

**Created**: {{date .Created}} at {{clock .Created}}
**Previous Week**: {{weeklink .Created -1}}
**Next Week**: {{weeklink .Created 1}}
`

const monthlyText = `# {{.Title}} Monthly Reflection

**Review Date**: {{date .Created}}
**Overall Month Rating**: /10

## Month at a Glance

**Theme for the Month**:
**Major Events**:
-

## Projects Review

### Completed Projects

-

### Ongoing Projects

| Project | Started | Progress | Blockers | Target Completion |
|---------|---------|----------|----------|-------------------|
|         |         | %        |          |                   |

## Areas Deep Dive

### Health & Wellness

**Rating**: /10
**Next month focus**:

### Work/Career

**Rating**: /10
**Next month focus**:

### Relationships

**Rating**: /10
**Next month focus**:

### Learning & Growth

**Rating**: /10
**Next month focus**:

## Knowledge System Review

### Most Valuable Notes

-

### System Improvements

## Lessons & Insights

### Key learnings this month

### Habits to change

## Next Month Planning

### Top 3 Goals

1.
2.
3.

---

**Created**: {{date .Created}} at {{clock .Created}}
**Previous Month**: {{monthlink .Created -1}}
**Next Month**: {{monthlink .Created 1}}
`

var templates = map[TemplateID]*template.Template{
	Empty:   template.Must(template.New(string(Empty)).Funcs(funcs).Parse(emptyText)),
	Daily:   template.Must(template.New(string(Daily)).Funcs(funcs).Parse(dailyText)),
	Weekly:  template.Must(template.New(string(Weekly)).Funcs(funcs).Parse(weeklyText)),
	Monthly: template.Must(template.New(string(Monthly)).Funcs(funcs).Parse(monthlyText)),
}

// DefaultRenderer renders the built-in templates.
func DefaultRenderer() RenderFunc {
	return func(id TemplateID, meta Metadata) (string, error) {
		tmpl, ok := templates[id]
		if !ok {
			return "", fmt.Errorf("unknown template %q", id)
		}
		var b strings.Builder
		if err := tmpl.Execute(&b, meta); err != nil {
			return "", err
		}
		return b.String(), nil
	}
}
