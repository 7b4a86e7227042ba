package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"careerpilot/internal/catalog"
	"careerpilot/internal/config"
	"careerpilot/internal/conversation"
	"careerpilot/internal/jobs"
	"careerpilot/internal/toolcards"
)

// Demo is a fully local gateway backed by the SQLite catalog: canned
// assistant behavior, deterministic scoring. It exists so the product
// runs end to end without an API key, and it doubles as the integration
// fixture for the TUI.
type Demo struct {
	catalog *catalog.Store
	profile config.Profile
	log     *zap.Logger
	convs   *memoryLog
	// savedIDs simulates the saved-jobs collaborator.
	savedIDs []string
}

// NewDemo creates a demo gateway over the given catalog.
func NewDemo(cat *catalog.Store, profile config.Profile, log *zap.Logger) *Demo {
	if log == nil {
		log = zap.NewNop()
	}
	return &Demo{
		catalog:  cat,
		profile:  profile,
		log:      log,
		convs:    newMemoryLog(),
		savedIDs: []string{"job-backend-go", "job-sre"},
	}
}

// SendMessage fabricates an assistant turn from keyword rules: job
// queries produce a search_jobs tool call with catalog results, and
// "show"/"open" phrasing adds a navigate action.
func (d *Demo) SendMessage(ctx context.Context, conversationID, text string) (*conversation.SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("message text is required")
	}

	now := time.Now().Truncate(time.Second)
	user := conversation.Message{
		ID:        "msg-" + uuid.NewString(),
		Role:      conversation.RoleUser,
		Content:   strings.TrimSpace(text),
		CreatedAt: now,
	}

	assistant, results, err := d.reply(ctx, user.Content, now)
	if err != nil {
		return nil, err
	}

	convID, err := d.convs.appendTurn(conversationID, user, assistant)
	if err != nil {
		return nil, err
	}
	user.ConversationID = convID
	assistant.ConversationID = convID

	d.log.Debug("demo send handled",
		zap.String("conversation_id", convID),
		zap.Int("tool_calls", len(assistant.ToolCalls)))
	return &conversation.SendResult{
		ConversationID:   convID,
		UserMessage:      user,
		AssistantMessage: assistant,
		ToolResults:      results,
	}, nil
}

func (d *Demo) reply(ctx context.Context, text string, now time.Time) (conversation.Message, map[string]json.RawMessage, error) {
	lower := strings.ToLower(text)
	msg := conversation.Message{
		ID:        "msg-" + uuid.NewString(),
		Role:      conversation.RoleAssistant,
		CreatedAt: now,
	}
	results := make(map[string]json.RawMessage)

	switch {
	case strings.Contains(lower, "saved"):
		payload, n, err := d.savedJobsPayload(ctx)
		if err != nil {
			return msg, nil, err
		}
		callID := "call-" + uuid.NewString()
		msg.Content = fmt.Sprintf("You have %d saved jobs.", n)
		msg.ToolCalls = []conversation.ToolCall{{
			ID:            callID,
			FunctionName:  toolcards.FuncGetSavedJobs,
			ArgumentsJSON: `{}`,
		}}
		results[callID] = payload

	case strings.Contains(lower, "resume"):
		callID := "call-" + uuid.NewString()
		payload, _ := json.Marshal(map[string]any{
			"summary": d.profile.Summary,
			"skills":  d.profile.Skills,
		})
		msg.Content = "Here is a resume draft based on your profile."
		msg.ToolCalls = []conversation.ToolCall{{
			ID:            callID,
			FunctionName:  toolcards.FuncGenerateResume,
			ArgumentsJSON: `{"tone":"professional"}`,
		}}
		results[callID] = payload

	case strings.Contains(lower, "match") || strings.Contains(lower, "fit"):
		list, err := d.catalog.List(ctx)
		if err != nil || len(list) == 0 {
			msg.Content = "I could not find a job to analyze."
			return msg, results, nil
		}
		target := list[0]
		match := d.scoreAgainstProfile(target)
		callID := "call-" + uuid.NewString()
		args, _ := json.Marshal(map[string]string{"job_id": target.ID})
		payload, _ := json.Marshal(map[string]any{
			"job_id":    match.JobID,
			"score":     match.Score,
			"strengths": match.Strengths,
			"gaps":      match.Gaps,
		})
		msg.Content = fmt.Sprintf("Here is how you match %s at %s.", target.Title, target.Company)
		msg.ToolCalls = []conversation.ToolCall{{
			ID:            callID,
			FunctionName:  toolcards.FuncAnalyzeJobMatch,
			ArgumentsJSON: string(args),
		}}
		results[callID] = payload

	case strings.Contains(lower, "job") || strings.Contains(lower, "find") ||
		strings.Contains(lower, "search") || strings.Contains(lower, "role"):
		found, err := d.searchJobs(ctx, lower)
		if err != nil {
			return msg, nil, err
		}
		callID := "call-" + uuid.NewString()
		args, _ := json.Marshal(map[string]string{"query": text})
		payload, _ := json.Marshal(map[string]any{
			"jobs":        found,
			"total_count": len(found),
		})
		msg.Content = fmt.Sprintf("I found %d jobs matching your search.", len(found))
		msg.ToolCalls = []conversation.ToolCall{{
			ID:            callID,
			FunctionName:  toolcards.FuncSearchJobs,
			ArgumentsJSON: string(args),
		}}
		results[callID] = payload

		if strings.Contains(lower, "show") || strings.Contains(lower, "open") ||
			strings.Contains(lower, "take me") {
			msg.Navigation = &conversation.NavigationAction{
				Kind:    conversation.KindNavigate,
				Route:   "/jobs",
				Filters: map[string]any{"query": text},
				Message: fmt.Sprintf("%d jobs matching your search", len(found)),
			}
		}

	default:
		msg.Content = "I can search jobs, analyze how well you match one, list your saved jobs, or draft a resume. What would you like?"
	}

	return msg, results, nil
}

func (d *Demo) savedJobsPayload(ctx context.Context) (json.RawMessage, int, error) {
	saved := make([]jobs.Summary, 0, len(d.savedIDs))
	for _, id := range d.savedIDs {
		job, err := d.catalog.Get(ctx, id)
		if err != nil {
			continue
		}
		saved = append(saved, job.Summary)
	}
	payload, err := json.Marshal(map[string]any{
		"saved_jobs": saved,
		"count":      len(saved),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode saved jobs: %w", err)
	}
	return payload, len(saved), nil
}

func (d *Demo) searchJobs(ctx context.Context, lowerQuery string) ([]jobs.Summary, error) {
	list, err := d.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("job search failed: %w", err)
	}
	var out []jobs.Summary
	for _, job := range list {
		if strings.Contains(lowerQuery, "remote") && !job.Remote {
			continue
		}
		out = append(out, job.Summary)
	}
	return out, nil
}

// ListConversations returns this session's conversations, oldest first.
func (d *Demo) ListConversations(ctx context.Context) ([]conversation.Conversation, error) {
	return d.convs.list(ctx)
}

// LoadConversation fetches one conversation with its full message log.
func (d *Demo) LoadConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	return d.convs.load(ctx, id)
}

// DeleteConversation removes a conversation.
func (d *Demo) DeleteConversation(ctx context.Context, id string) error {
	return d.convs.delete(ctx, id)
}

// ListCandidateJobs is the fast path: non-hidden catalog jobs, no scoring.
func (d *Demo) ListCandidateJobs(ctx context.Context) ([]jobs.Summary, error) {
	list, err := d.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]jobs.Summary, 0, len(list))
	for _, job := range list {
		out = append(out, job.Summary)
	}
	return out, nil
}

// ScoreJob produces a deterministic match from skill overlap with the
// profile, so every run of the demo scores the same way.
func (d *Demo) ScoreJob(ctx context.Context, jobID string) (*jobs.Match, error) {
	job, err := d.catalog.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	match := d.scoreAgainstProfile(*job)
	return &match, nil
}

// HideJob hides the job in the catalog; it disappears from later listings.
func (d *Demo) HideJob(ctx context.Context, jobID string) error {
	return d.catalog.Hide(ctx, jobID)
}

func (d *Demo) scoreAgainstProfile(job catalog.Job) jobs.Match {
	mine := make(map[string]bool, len(d.profile.Skills))
	for _, s := range d.profile.Skills {
		mine[strings.ToLower(s)] = true
	}

	var strengths, gaps []string
	for _, skill := range job.Skills {
		if mine[strings.ToLower(skill)] {
			strengths = append(strengths, skill)
		} else {
			gaps = append(gaps, "no "+skill+" experience listed")
		}
	}
	sort.Strings(strengths)

	score := 35
	if len(job.Skills) > 0 {
		score = 35 + (60*len(strengths))/len(job.Skills)
	}
	if job.Remote {
		score += 5
	}
	if score > 100 {
		score = 100
	}

	return jobs.Match{
		JobID:     job.ID,
		Score:     score,
		Strengths: strengths,
		Gaps:      gaps,
		Tier:      jobs.TierFor(score),
	}
}
