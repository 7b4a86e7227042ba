package ui

import (
	"fmt"
	"strings"

	"careerpilot/internal/jobs"
	"careerpilot/internal/toolcards"
)

// RenderCard renders one tool-result card as terminal text. Unknown card
// types render nothing; the router's closed set keeps that unreachable.
func (s Styles) RenderCard(card toolcards.Card) string {
	switch c := card.(type) {
	case toolcards.JobListCard:
		return s.renderJobList(c)
	case toolcards.MatchCard:
		return s.renderMatch(c)
	case toolcards.ResumePreviewCard:
		return s.renderResume(c)
	case toolcards.GenericCard:
		return s.renderGeneric(c)
	default:
		return ""
	}
}

func (s Styles) renderJobList(c toolcards.JobListCard) string {
	var sb strings.Builder
	label := fmt.Sprintf("Jobs (%d total)", c.TotalCount)
	if c.Saved {
		label = fmt.Sprintf("Saved jobs (%d)", c.TotalCount)
	}
	sb.WriteString(s.CardTitle.Render(label) + "\n")
	for _, job := range c.Jobs {
		sb.WriteString(s.Bold.Render(job.Title))
		sb.WriteString(s.Muted.Render(" · " + job.Company))
		if job.Location != "" {
			sb.WriteString(s.Muted.Render(" · " + job.Location))
		}
		if job.Remote {
			sb.WriteString(s.Success.Render(" · remote"))
		}
		if job.SalaryRange != "" {
			sb.WriteString(s.Muted.Render(" · " + job.SalaryRange))
		}
		sb.WriteString("\n")
	}
	if c.TotalCount > len(c.Jobs) {
		sb.WriteString(s.Muted.Render(fmt.Sprintf("…and %d more", c.TotalCount-len(c.Jobs))))
	}
	return s.Card.Render(strings.TrimRight(sb.String(), "\n"))
}

func (s Styles) renderMatch(c toolcards.MatchCard) string {
	var sb strings.Builder
	sb.WriteString(s.CardTitle.Render("Match analysis"))
	sb.WriteString(fmt.Sprintf("  %s %s\n",
		s.Bold.Render(fmt.Sprintf("%d/100", c.Score)),
		s.TierBadge(string(c.Tier))))
	for _, strength := range c.Strengths {
		sb.WriteString(s.Success.Render("+ ") + strength + "\n")
	}
	for _, gap := range c.Gaps {
		sb.WriteString(s.Error.Render("- ") + gap + "\n")
	}
	return s.Card.Render(strings.TrimRight(sb.String(), "\n"))
}

func (s Styles) renderResume(c toolcards.ResumePreviewCard) string {
	var sb strings.Builder
	sb.WriteString(s.CardTitle.Render("Resume preview") + "\n")
	if c.Summary != "" {
		sb.WriteString(c.Summary + "\n")
	}
	if len(c.Skills) > 0 {
		sb.WriteString(s.Muted.Render("Skills: " + strings.Join(c.Skills, ", ")))
	}
	return s.Card.Render(strings.TrimRight(sb.String(), "\n"))
}

func (s Styles) renderGeneric(c toolcards.GenericCard) string {
	var sb strings.Builder
	sb.WriteString(s.CardTitle.Render(c.FunctionName) + "\n")
	if c.RawArguments != "" {
		sb.WriteString(s.Muted.Render(c.RawArguments))
	}
	for _, f := range c.Fields {
		sb.WriteString(s.Muted.Render(f.Key+": ") + f.Value + "\n")
	}
	return s.Card.Render(strings.TrimRight(sb.String(), "\n"))
}

// TierBadge renders a colored tier badge.
func (s Styles) TierBadge(tier string) string {
	return s.Badge.Background(TierColor(tier)).Render(tier)
}

// RenderMatchRow renders one recommendation row for the progressive
// results list.
func (s Styles) RenderMatchRow(m jobs.Match, title string) string {
	var sb strings.Builder
	sb.WriteString(s.Bold.Render(fmt.Sprintf("%3d", m.Score)))
	sb.WriteString(" " + s.TierBadge(string(m.Tier)))
	sb.WriteString(" " + title)
	if len(m.Strengths) > 0 {
		sb.WriteString(s.Muted.Render("  (" + strings.Join(m.Strengths, ", ") + ")"))
	}
	return sb.String()
}
