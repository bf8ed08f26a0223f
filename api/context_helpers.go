package api

import (
	"context"
	"strings"

	"github.com/Hardik-nyneos/backend/api/auth"
)

// RequestedByFromCtx resolves the display name to stamp on approval and
// audit columns, preferring the session placed in context by the middleware.
func RequestedByFromCtx(ctx context.Context, userID string) string {
	if s := GetSessionFromCtx(ctx); s != nil {
		if strings.TrimSpace(s.Name) != "" {
			return s.Name
		}
		if strings.TrimSpace(s.UserID) != "" {
			return s.UserID
		}
	}
	if s := auth.FindSessionByUserID(userID); s != nil {
		return s.Name
	}
	return ""
}
