// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"promptmint/internal/adapters/in/http/handlers"
	"promptmint/internal/adapters/in/http/middleware"
)

// RouterDeps collects the dependencies injected from main.go / di.
type RouterDeps struct {
	Generate *handlers.GenerateHandler
}

// NewRouter wires the application routes.
// CORS は main 側で全体（/healthz 含む）に被せるので、ここでは付けない。
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/generate-image", deps.Generate)
	return middleware.Recover(mux)
}
