// Package storage provides response caching for the orchestrator. Identical
// queries from the same user can be answered from cache instead of invoking
// an agent again.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/taskmesh/taskmesh/pkg/domain"
)

// ResponseCache stores successful task responses keyed by request identity.
// Implementations must be safe for concurrent use.
type ResponseCache interface {
	Get(ctx context.Context, key string) (domain.TaskResponse, bool)
	Put(ctx context.Context, key string, resp domain.TaskResponse)
}

// CacheKey derives a stable cache key from the parts of a request that
// determine its answer: user, query text and agent preference. Task IDs and
// timestamps deliberately stay out of the key.
func CacheKey(req domain.TaskRequest) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s\x00%s", req.UserID, req.Query, req.PreferredAgent))
	return hex.EncodeToString(sum[:])
}
