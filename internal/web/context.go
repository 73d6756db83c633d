package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/DataTransformer/internal/core"
)

// clientContext tags the request context with the client IP and User-Agent
// so batch logs can name who uploaded.
func (s *Server) clientContext(r *http.Request) context.Context {
	// RemoteAddr was already resolved by TrustedRealIP.
	return core.ContextWithClient(r.Context(), r.RemoteAddr, r.UserAgent())
}
