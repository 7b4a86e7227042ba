// Package toolcards maps assistant tool invocations to rendering intents.
// The router never fails: malformed arguments or result payloads degrade
// to the generic card instead of breaking the message render.
package toolcards

import (
	"encoding/json"
	"fmt"
	"sort"

	"careerpilot/internal/conversation"
	"careerpilot/internal/jobs"
)

// Function names the router knows how to render richly. Anything else
// falls back to the generic card, even when a result is present.
const (
	FuncSearchJobs      = "search_jobs"
	FuncGetSavedJobs    = "get_saved_jobs"
	FuncAnalyzeJobMatch = "analyze_job_match"
	FuncGenerateResume  = "generate_resume"
)

// Display caps. Full payloads stay with the collaborators; cards are a
// bounded summary.
const (
	maxJobRows   = 5
	maxStrengths = 3
	maxGaps      = 3
	maxSkills    = 8
)

// Card is a rendering intent drawn from a closed set.
type Card interface{ card() }

// Field is one flattened key/value pair of a generic card.
type Field struct {
	Key   string
	Value string
}

// GenericCard displays the function name plus a best-effort flattening of
// its arguments. RawArguments is set instead of Fields when the argument
// string does not parse as a JSON object.
type GenericCard struct {
	FunctionName string
	Fields       []Field
	RawArguments string
}

// JobListCard displays up to five job rows with the total count.
// Saved marks the saved-jobs variant.
type JobListCard struct {
	Jobs       []jobs.Summary
	TotalCount int
	Saved      bool
}

// MatchCard displays a single job's match analysis.
type MatchCard struct {
	JobID     string
	Score     int
	Tier      jobs.Tier
	Strengths []string
	Gaps      []string
}

// ResumePreviewCard displays a generated resume summary and skills.
type ResumePreviewCard struct {
	Summary string
	Skills  []string
}

func (GenericCard) card()       {}
func (JobListCard) card()       {}
func (MatchCard) card()         {}
func (ResumePreviewCard) card() {}

// Route produces the rendering intent for one tool call. result is the
// out-of-band payload correlated by tool-call id, nil when none arrived.
func Route(call conversation.ToolCall, result json.RawMessage) Card {
	if len(result) == 0 {
		return generic(call)
	}
	switch call.FunctionName {
	case FuncSearchJobs:
		return jobList(call, result)
	case FuncGetSavedJobs:
		return savedJobList(call, result)
	case FuncAnalyzeJobMatch:
		return matchCard(call, result)
	case FuncGenerateResume:
		return resumeCard(call, result)
	default:
		return generic(call)
	}
}

func jobList(call conversation.ToolCall, result json.RawMessage) Card {
	var payload struct {
		Jobs       []jobs.Summary `json:"jobs"`
		TotalCount int            `json:"total_count"`
	}
	if err := json.Unmarshal(result, &payload); err != nil || payload.Jobs == nil {
		return generic(call)
	}
	total := payload.TotalCount
	if total < len(payload.Jobs) {
		total = len(payload.Jobs)
	}
	return JobListCard{Jobs: capJobs(payload.Jobs), TotalCount: total}
}

func savedJobList(call conversation.ToolCall, result json.RawMessage) Card {
	var payload struct {
		SavedJobs []jobs.Summary `json:"saved_jobs"`
		Count     int            `json:"count"`
	}
	if err := json.Unmarshal(result, &payload); err != nil || payload.SavedJobs == nil {
		return generic(call)
	}
	count := payload.Count
	if count < len(payload.SavedJobs) {
		count = len(payload.SavedJobs)
	}
	return JobListCard{Jobs: capJobs(payload.SavedJobs), TotalCount: count, Saved: true}
}

func matchCard(call conversation.ToolCall, result json.RawMessage) Card {
	var payload struct {
		JobID     string   `json:"job_id"`
		Score     *int     `json:"score"`
		Strengths []string `json:"strengths"`
		Gaps      []string `json:"gaps"`
		Concerns  []string `json:"concerns"`
	}
	if err := json.Unmarshal(result, &payload); err != nil || payload.Score == nil {
		return generic(call)
	}
	gaps := payload.Gaps
	if len(gaps) == 0 {
		gaps = payload.Concerns
	}
	score := clampScore(*payload.Score)
	return MatchCard{
		JobID:     payload.JobID,
		Score:     score,
		Tier:      jobs.TierFor(score),
		Strengths: capStrings(payload.Strengths, maxStrengths),
		Gaps:      capStrings(gaps, maxGaps),
	}
}

// clampScore pins an untrusted payload score to the 0-100 scale.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func resumeCard(call conversation.ToolCall, result json.RawMessage) Card {
	var payload struct {
		Summary string   `json:"summary"`
		Skills  []string `json:"skills"`
	}
	if err := json.Unmarshal(result, &payload); err != nil || (payload.Summary == "" && len(payload.Skills) == 0) {
		return generic(call)
	}
	return ResumePreviewCard{
		Summary: payload.Summary,
		Skills:  capStrings(payload.Skills, maxSkills),
	}
}

// generic flattens the parsed arguments to ordered key/value pairs, or
// carries the raw string when they do not parse.
func generic(call conversation.ToolCall) GenericCard {
	var args map[string]any
	if err := json.Unmarshal([]byte(call.ArgumentsJSON), &args); err != nil {
		return GenericCard{FunctionName: call.FunctionName, RawArguments: call.ArgumentsJSON}
	}
	fields := make([]Field, 0, len(args))
	for k, v := range args {
		fields = append(fields, Field{Key: k, Value: flatten(v)})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return GenericCard{FunctionName: call.FunctionName, Fields: fields}
}

func flatten(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return "null"
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}

func capJobs(list []jobs.Summary) []jobs.Summary {
	if len(list) > maxJobRows {
		list = list[:maxJobRows]
	}
	return append([]jobs.Summary(nil), list...)
}

func capStrings(list []string, n int) []string {
	if len(list) > n {
		list = list[:n]
	}
	return append([]string(nil), list...)
}
