// Package assets serves the frontend's static files behind the asset gate.
package assets

import (
	"net/http"

	"github.com/dmitrijs2005/medconb/internal/logging"
	"github.com/dmitrijs2005/medconb/internal/server/auth"
	"github.com/dmitrijs2005/medconb/internal/server/metrics"
)

// publicPaths are served without a token.
var publicPaths = map[string]struct{}{
	"/manifest.json": {},
}

// Gate lets public paths through and requires the authenticated scope for
// everything else. A request that never went through authentication gets
// 401; one that did but lacks the scope gets 403. Neither has a body.
type Gate struct {
	next    http.Handler
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewGate(next http.Handler, logger logging.Logger, m *metrics.Metrics) *Gate {
	return &Gate{next: next, logger: logger.With("module", "assets"), metrics: m}
}

func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := publicPaths[r.URL.Path]; ok {
		g.next.ServeHTTP(w, r)
		return
	}

	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		g.reject(w, r, http.StatusUnauthorized)
		return
	}
	if !id.IsAuthenticated() {
		g.reject(w, r, http.StatusForbidden)
		return
	}

	g.next.ServeHTTP(w, r)
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, status int) {
	g.metrics.GateDenied(metrics.GateAsset)
	g.logger.Debug(r.Context(), "asset request denied", "path", r.URL.Path, "status", status)
	w.WriteHeader(status)
}

// LocalHandler serves files from dir.
func LocalHandler(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
