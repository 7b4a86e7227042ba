package gateway

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerpilot/internal/conversation"
)

func TestTitle_TruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	short := "find me a job"
	assert.Equal(t, short, title(short))

	long := strings.Repeat("日本語の求人を探して", 10)
	got := title(long)
	assert.True(t, utf8.ValidString(got), "truncated title must stay valid UTF-8")
	assert.Equal(t, 49, utf8.RuneCountInString(got), "48 runes plus the ellipsis")
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestAppendTurn_MultibyteOpeningMessage(t *testing.T) {
	t.Parallel()
	log := newMemoryLog()

	opening := strings.Repeat("リモート", 20) + " go jobs"
	id, err := log.appendTurn("",
		conversation.Message{ID: "u1", Role: conversation.RoleUser, Content: opening},
		conversation.Message{ID: "a1", Role: conversation.RoleAssistant, Content: "ok"},
	)
	require.NoError(t, err)

	conv, err := log.load(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(conv.Title))
}
