package driven

import (
	"context"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
)

// TweetResolver resolves a matched status URL to its author without
// spending X API quota (the vxtwitter adapter implements this against
// the public mirror).
type TweetResolver interface {
	ResolveStatus(ctx context.Context, statusURL string) (*domain.Tweet, error)
}
