// Package gateway defines the send/fetch contract between the assistant
// engines and the backend, plus its concrete implementations. The error
// shape matters: every failure carries a human-readable message, since
// callers turn failures into rollbacks and inline errors rather than
// crashes.
package gateway

import (
	"context"

	"careerpilot/internal/conversation"
	"careerpilot/internal/jobs"
)

// Gateway is the full collaborator contract consumed by the conversation
// store, the navigation dispatcher's message source, and the
// recommendation engine. Implementations must keep ScoreJob calls
// independent: one job failing scores must not affect another.
type Gateway interface {
	conversation.Sender

	ListConversations(ctx context.Context) ([]conversation.Conversation, error)
	LoadConversation(ctx context.Context, id string) (*conversation.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	// ListCandidateJobs is the fast path: no scoring, ids in catalog order.
	ListCandidateJobs(ctx context.Context) ([]jobs.Summary, error)
	ScoreJob(ctx context.Context, jobID string) (*jobs.Match, error)
	HideJob(ctx context.Context, jobID string) error
}
