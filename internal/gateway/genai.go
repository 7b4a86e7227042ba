package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"careerpilot/internal/catalog"
	"careerpilot/internal/config"
	"careerpilot/internal/conversation"
	"careerpilot/internal/jobs"
	"careerpilot/internal/toolcards"
)

// navPrefix marks the optional routing directive the model appends as
// the last line of a reply.
const navPrefix = "NAVIGATE:"

// GenAI is the production gateway: Gemini handles conversation and
// scoring, the local catalog handles the fast job listing path and tool
// execution. Job tools run client-side so results stay consistent with
// what the recommendations view shows.
type GenAI struct {
	client  *genai.Client
	model   string
	profile config.Profile
	log     *zap.Logger
	convs   *memoryLog
	local   *Demo
}

// NewGenAI creates a Gemini-backed gateway.
func NewGenAI(ctx context.Context, cfg *config.UserConfig, cat *catalog.Store, log *zap.Logger) (*GenAI, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key is required (set gemini_api_key in %s or CAREERPILOT_API_KEY)", config.DefaultPath())
	}
	if log == nil {
		log = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.GeminiAPIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAI{
		client:  client,
		model:   cfg.Model,
		profile: cfg.Profile,
		log:     log,
		convs:   newMemoryLog(),
		local:   NewDemo(cat, cfg.Profile, log),
	}, nil
}

// SendMessage runs one chat completion with tool declarations, executes
// any requested tools against the local catalog, and parses the optional
// trailing navigation directive.
func (g *GenAI) SendMessage(ctx context.Context, conversationID, text string) (*conversation.SendResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("message text is required")
	}

	contents, err := g.history(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	contents = append(contents, genai.NewContentFromText(trimmed, genai.RoleUser))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.systemPrompt(), genai.RoleUser),
		Tools:             toolDeclarations(),
	})
	if err != nil {
		return nil, fmt.Errorf("assistant request failed: %w", err)
	}

	now := time.Now().Truncate(time.Second)
	user := conversation.Message{
		ID:        "msg-" + uuid.NewString(),
		Role:      conversation.RoleUser,
		Content:   trimmed,
		CreatedAt: now,
	}
	assistant := conversation.Message{
		ID:        "msg-" + uuid.NewString(),
		Role:      conversation.RoleAssistant,
		CreatedAt: now,
	}

	content, nav := splitNavigation(resp.Text())
	assistant.Content = content
	assistant.Navigation = nav

	results := make(map[string]json.RawMessage)
	for _, fc := range resp.FunctionCalls() {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			args = []byte("{}")
		}
		call := conversation.ToolCall{
			ID:            "call-" + uuid.NewString(),
			FunctionName:  fc.Name,
			ArgumentsJSON: string(args),
		}
		assistant.ToolCalls = append(assistant.ToolCalls, call)

		// Tool failures degrade to a call without a result; the router
		// renders those generically.
		if payload, execErr := g.executeTool(ctx, fc.Name, fc.Args); execErr != nil {
			g.log.Warn("tool execution failed",
				zap.String("function", fc.Name), zap.Error(execErr))
		} else if payload != nil {
			results[call.ID] = payload
		}
	}

	convID, err := g.convs.appendTurn(conversationID, user, assistant)
	if err != nil {
		return nil, err
	}
	user.ConversationID = convID
	assistant.ConversationID = convID

	return &conversation.SendResult{
		ConversationID:   convID,
		UserMessage:      user,
		AssistantMessage: assistant,
		ToolResults:      results,
	}, nil
}

// ScoreJob asks the model for a structured match analysis of one job.
func (g *GenAI) ScoreJob(ctx context.Context, jobID string) (*jobs.Match, error) {
	job, err := g.local.catalog.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Score how well this candidate matches this job on a 0-100 scale.

Candidate: %s. Skills: %s.
Job: %s at %s (%s). Required skills: %s.

Reply with JSON only: {"score": <0-100>, "strengths": [...], "gaps": [...]}`,
		g.profileLine(), strings.Join(g.profile.Skills, ", "),
		job.Title, job.Company, job.Location, strings.Join(job.Skills, ", "))

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		return nil, fmt.Errorf("scoring %s: %w", jobID, err)
	}

	var parsed struct {
		Score     int      `json:"score"`
		Strengths []string `json:"strengths"`
		Gaps      []string `json:"gaps"`
	}
	if err := json.Unmarshal([]byte(stripFences(resp.Text())), &parsed); err != nil {
		return nil, fmt.Errorf("scoring %s: unparseable model reply: %w", jobID, err)
	}
	if parsed.Score < 0 {
		parsed.Score = 0
	}
	if parsed.Score > 100 {
		parsed.Score = 100
	}
	return &jobs.Match{
		JobID:     jobID,
		Score:     parsed.Score,
		Strengths: parsed.Strengths,
		Gaps:      parsed.Gaps,
		Tier:      jobs.TierFor(parsed.Score),
	}, nil
}

// ListConversations returns this session's conversations, oldest first.
func (g *GenAI) ListConversations(ctx context.Context) ([]conversation.Conversation, error) {
	return g.convs.list(ctx)
}

// LoadConversation fetches one conversation with its full message log.
func (g *GenAI) LoadConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	return g.convs.load(ctx, id)
}

// DeleteConversation removes a conversation.
func (g *GenAI) DeleteConversation(ctx context.Context, id string) error {
	return g.convs.delete(ctx, id)
}

// ListCandidateJobs is the fast local path; no model call.
func (g *GenAI) ListCandidateJobs(ctx context.Context) ([]jobs.Summary, error) {
	return g.local.ListCandidateJobs(ctx)
}

// HideJob hides the job in the local catalog.
func (g *GenAI) HideJob(ctx context.Context, jobID string) error {
	return g.local.HideJob(ctx, jobID)
}

func (g *GenAI) history(ctx context.Context, conversationID string) ([]*genai.Content, error) {
	if conversationID == "" {
		return nil, nil
	}
	conv, err := g.convs.load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	contents := make([]*genai.Content, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == conversation.RoleAssistant {
			role = genai.Role(genai.RoleModel)
		}
		if m.Content == "" {
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents, nil
}

func (g *GenAI) systemPrompt() string {
	return fmt.Sprintf(`You are a job-search assistant for this candidate: %s.

Use the provided tools to search jobs, list saved jobs, analyze job matches
and generate resumes. When the user asks to be taken to a view, append a
final line of the form
%s {"route":"/jobs","filters":{...},"message":"<banner text>"}
and nothing after it.`, g.profileLine(), navPrefix)
}

func (g *GenAI) profileLine() string {
	name := g.profile.Name
	if name == "" {
		name = "the user"
	}
	return fmt.Sprintf("%s, %s. %s", name, g.profile.Title, g.profile.Summary)
}

// executeTool runs a model-requested tool against the local catalog and
// returns the result payload in the shape the card router expects.
func (g *GenAI) executeTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	switch name {
	case toolcards.FuncSearchJobs:
		query, _ := args["query"].(string)
		found, err := g.local.searchJobs(ctx, strings.ToLower(query))
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{"jobs": found, "total_count": len(found)})

	case toolcards.FuncGetSavedJobs:
		payload, _, err := g.local.savedJobsPayload(ctx)
		return payload, err

	case toolcards.FuncAnalyzeJobMatch:
		jobID, _ := args["job_id"].(string)
		match, err := g.ScoreJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"job_id":    match.JobID,
			"score":     match.Score,
			"strengths": match.Strengths,
			"gaps":      match.Gaps,
		})

	case toolcards.FuncGenerateResume:
		return json.Marshal(map[string]any{
			"summary": g.profile.Summary,
			"skills":  g.profile.Skills,
		})

	default:
		// Unknown tool: no result, the card router falls back.
		return nil, nil
	}
}

// splitNavigation strips a trailing navigation directive from the reply.
func splitNavigation(text string) (string, *conversation.NavigationAction) {
	trimmed := strings.TrimSpace(text)
	idx := strings.LastIndex(trimmed, navPrefix)
	if idx < 0 {
		return trimmed, nil
	}

	var nav conversation.NavigationAction
	directive := strings.TrimSpace(trimmed[idx+len(navPrefix):])
	if err := json.Unmarshal([]byte(directive), &nav); err != nil || nav.Route == "" {
		// Malformed directive: leave the text as-is rather than guessing.
		return trimmed, nil
	}
	nav.Kind = conversation.KindNavigate
	return strings.TrimSpace(trimmed[:idx]), &nav
}

func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func toolDeclarations() []*genai.Tool {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        toolcards.FuncSearchJobs,
				Description: "Search open jobs matching a free-text query.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query":    str("Free-text search query."),
						"location": str("Optional location filter."),
					},
					Required: []string{"query"},
				},
			},
			{
				Name:        toolcards.FuncGetSavedJobs,
				Description: "List the jobs the user has saved.",
				Parameters:  &genai.Schema{Type: genai.TypeObject},
			},
			{
				Name:        toolcards.FuncAnalyzeJobMatch,
				Description: "Analyze how well the user matches one job.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"job_id": str("Identifier of the job to analyze."),
					},
					Required: []string{"job_id"},
				},
			},
			{
				Name:        toolcards.FuncGenerateResume,
				Description: "Generate a resume draft for the user.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"tone": str("Optional tone, e.g. professional."),
					},
				},
			},
		},
	}}
}
