package toolcards

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerpilot/internal/conversation"
	"careerpilot/internal/jobs"
)

func call(name, args string) conversation.ToolCall {
	return conversation.ToolCall{ID: "call-1", FunctionName: name, ArgumentsJSON: args}
}

func jobListJSON(n int) string {
	list := make([]jobs.Summary, n)
	for i := range list {
		list[i] = jobs.Summary{ID: fmt.Sprintf("job-%d", i), Title: fmt.Sprintf("Role %d", i)}
	}
	encoded, _ := json.Marshal(map[string]any{"jobs": list, "total_count": n})
	return string(encoded)
}

func TestRoute_NoResultRendersGeneric(t *testing.T) {
	t.Parallel()
	card := Route(call(FuncSearchJobs, `{"query":"golang","remote":true,"limit":10}`), nil)

	generic, ok := card.(GenericCard)
	require.True(t, ok)
	assert.Equal(t, FuncSearchJobs, generic.FunctionName)
	want := []Field{
		{Key: "limit", Value: "10"},
		{Key: "query", Value: "golang"},
		{Key: "remote", Value: "true"},
	}
	if diff := cmp.Diff(want, generic.Fields); diff != "" {
		t.Errorf("flattened fields mismatch (-want +got):\n%s", diff)
	}
}

func TestRoute_UnparseableArgumentsFallBackToRaw(t *testing.T) {
	t.Parallel()
	card := Route(call("mystery_tool", `{"broken": `), nil)

	generic, ok := card.(GenericCard)
	require.True(t, ok)
	assert.Equal(t, `{"broken": `, generic.RawArguments)
	assert.Empty(t, generic.Fields)
}

func TestRoute_JobSearchCappedAtFive(t *testing.T) {
	t.Parallel()
	card := Route(call(FuncSearchJobs, `{}`), json.RawMessage(jobListJSON(9)))

	list, ok := card.(JobListCard)
	require.True(t, ok)
	assert.Len(t, list.Jobs, 5)
	assert.Equal(t, 9, list.TotalCount)
	assert.False(t, list.Saved)
}

func TestRoute_JobSearchUnderCapShowsAll(t *testing.T) {
	t.Parallel()
	card := Route(call(FuncSearchJobs, `{}`), json.RawMessage(jobListJSON(3)))

	list, ok := card.(JobListCard)
	require.True(t, ok)
	assert.Len(t, list.Jobs, 3, "bounded display cap not exceeded when under the cap")
	assert.Equal(t, 3, list.TotalCount)
}

func TestRoute_SavedJobsUseDifferentSourceField(t *testing.T) {
	t.Parallel()
	payload := `{"saved_jobs":[{"id":"job-1","title":"Kept"}],"count":4}`
	card := Route(call(FuncGetSavedJobs, `{}`), json.RawMessage(payload))

	list, ok := card.(JobListCard)
	require.True(t, ok)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, "Kept", list.Jobs[0].Title)
	assert.Equal(t, 4, list.TotalCount)
	assert.True(t, list.Saved)
}

func TestRoute_MatchCardCapsStrengthsAndGaps(t *testing.T) {
	t.Parallel()
	payload := `{
		"job_id": "job-7",
		"score": 82,
		"strengths": ["go", "grpc", "sql", "k8s", "aws"],
		"gaps": ["rust", "ml", "fpga", "cobol"]
	}`
	card := Route(call(FuncAnalyzeJobMatch, `{"job_id":"job-7"}`), json.RawMessage(payload))

	match, ok := card.(MatchCard)
	require.True(t, ok)
	assert.Equal(t, "job-7", match.JobID)
	assert.Equal(t, 82, match.Score)
	assert.Equal(t, jobs.TierStrong, match.Tier)
	assert.Equal(t, []string{"go", "grpc", "sql"}, match.Strengths)
	assert.Equal(t, []string{"rust", "ml", "fpga"}, match.Gaps)
}

func TestRoute_MatchCardAcceptsConcernsAlias(t *testing.T) {
	t.Parallel()
	payload := `{"job_id":"job-2","score":35,"concerns":["junior profile"]}`
	card := Route(call(FuncAnalyzeJobMatch, `{}`), json.RawMessage(payload))

	match, ok := card.(MatchCard)
	require.True(t, ok)
	assert.Equal(t, jobs.TierWeak, match.Tier)
	assert.Equal(t, []string{"junior profile"}, match.Gaps)
}

func TestRoute_MatchCardClampsOutOfRangeScore(t *testing.T) {
	t.Parallel()

	card := Route(call(FuncAnalyzeJobMatch, `{}`), json.RawMessage(`{"job_id":"job-1","score":150}`))
	match, ok := card.(MatchCard)
	require.True(t, ok)
	assert.Equal(t, 100, match.Score)
	assert.Equal(t, jobs.TierStrong, match.Tier)

	card = Route(call(FuncAnalyzeJobMatch, `{}`), json.RawMessage(`{"job_id":"job-1","score":-20}`))
	match, ok = card.(MatchCard)
	require.True(t, ok)
	assert.Equal(t, 0, match.Score)
	assert.Equal(t, jobs.TierWeak, match.Tier)
}

func TestRoute_ResumePreviewCapsSkills(t *testing.T) {
	t.Parallel()
	payload := `{"summary":"Backend engineer.","skills":["a","b","c","d","e","f","g","h","i","j"]}`
	card := Route(call(FuncGenerateResume, `{}`), json.RawMessage(payload))

	resume, ok := card.(ResumePreviewCard)
	require.True(t, ok)
	assert.Equal(t, "Backend engineer.", resume.Summary)
	assert.Len(t, resume.Skills, 8)
}

func TestRoute_UnknownFunctionWithResultStillGeneric(t *testing.T) {
	t.Parallel()
	card := Route(call("book_interview", `{"when":"tomorrow"}`), json.RawMessage(`{"ok":true}`))

	generic, ok := card.(GenericCard)
	require.True(t, ok)
	assert.Equal(t, "book_interview", generic.FunctionName)
	assert.Equal(t, []Field{{Key: "when", Value: "tomorrow"}}, generic.Fields)
}

func TestRoute_MalformedResultDegradesToGeneric(t *testing.T) {
	t.Parallel()
	for _, broken := range []string{`not json`, `{"jobs": "oops"}`, `[]`, `{"score":"high"}`} {
		assert.NotPanics(t, func() {
			card := Route(call(FuncSearchJobs, `{"query":"x"}`), json.RawMessage(broken))
			_, ok := card.(GenericCard)
			assert.True(t, ok, "payload %q should fall back to generic", broken)
		})
	}
}
