package gateway

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerpilot/internal/catalog"
	"careerpilot/internal/config"
	"careerpilot/internal/conversation"
	"careerpilot/internal/toolcards"
)

func newDemo(t *testing.T) *Demo {
	t.Helper()
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return NewDemo(cat, config.Profile{
		Title:   "Backend Engineer",
		Summary: "Backend engineer with seven years of Go.",
		Skills:  []string{"go", "kubernetes", "postgres"},
	}, nil)
}

func TestSendMessage_CreatesConversationAndToolCall(t *testing.T) {
	t.Parallel()
	d := newDemo(t)

	res, err := d.SendMessage(context.Background(), "", "find me remote go jobs")
	require.NoError(t, err)
	assert.NotEmpty(t, res.ConversationID)
	assert.Equal(t, conversation.RoleUser, res.UserMessage.Role)
	assert.Equal(t, conversation.RoleAssistant, res.AssistantMessage.Role)
	require.Len(t, res.AssistantMessage.ToolCalls, 1)

	call := res.AssistantMessage.ToolCalls[0]
	assert.Equal(t, toolcards.FuncSearchJobs, call.FunctionName)
	payload, ok := res.ToolResults[call.ID]
	require.True(t, ok, "search result delivered out of band")

	var decoded struct {
		Jobs       []json.RawMessage `json:"jobs"`
		TotalCount int               `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, len(decoded.Jobs), decoded.TotalCount)
	for _, raw := range decoded.Jobs {
		var job struct {
			Remote bool `json:"remote"`
		}
		require.NoError(t, json.Unmarshal(raw, &job))
		assert.True(t, job.Remote, "remote query filters to remote jobs")
	}

	// Second turn reuses the conversation.
	res2, err := d.SendMessage(context.Background(), res.ConversationID, "what about my saved jobs?")
	require.NoError(t, err)
	assert.Equal(t, res.ConversationID, res2.ConversationID)

	conv, err := d.LoadConversation(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 4)
}

func TestSendMessage_ShowPhrasingAddsNavigation(t *testing.T) {
	t.Parallel()
	d := newDemo(t)

	res, err := d.SendMessage(context.Background(), "", "show me software engineer jobs")
	require.NoError(t, err)
	nav := res.AssistantMessage.Navigation
	require.NotNil(t, nav)
	assert.Equal(t, conversation.KindNavigate, nav.Kind)
	assert.Equal(t, "/jobs", nav.Route)
	assert.NotEmpty(t, nav.Message)
}

func TestSendMessage_UnknownConversationFails(t *testing.T) {
	t.Parallel()
	d := newDemo(t)
	_, err := d.SendMessage(context.Background(), "conv-ghost", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestConversationLifecycle(t *testing.T) {
	t.Parallel()
	d := newDemo(t)
	ctx := context.Background()

	first, err := d.SendMessage(ctx, "", "find jobs")
	require.NoError(t, err)
	second, err := d.SendMessage(ctx, "", "draft my resume")
	require.NoError(t, err)

	list, err := d.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, d.DeleteConversation(ctx, first.ConversationID))
	list, err = d.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ConversationID, list[0].ID)

	_, err = d.LoadConversation(ctx, first.ConversationID)
	require.Error(t, err)
}

func TestScoreJob_DeterministicAndIndependent(t *testing.T) {
	t.Parallel()
	d := newDemo(t)
	ctx := context.Background()

	ids, err := d.ListCandidateJobs(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	first, err := d.ScoreJob(ctx, ids[0].ID)
	require.NoError(t, err)
	again, err := d.ScoreJob(ctx, ids[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first, again, "same inputs, same score")
	assert.GreaterOrEqual(t, first.Score, 0)
	assert.LessOrEqual(t, first.Score, 100)
	assert.NotEmpty(t, first.Tier)

	_, err = d.ScoreJob(ctx, "no-such-job")
	require.Error(t, err, "one bad id fails alone")
}

func TestHideJob_RemovesFromCandidates(t *testing.T) {
	t.Parallel()
	d := newDemo(t)
	ctx := context.Background()

	before, err := d.ListCandidateJobs(ctx)
	require.NoError(t, err)
	require.NoError(t, d.HideJob(ctx, before[0].ID))

	after, err := d.ListCandidateJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
}
