package router

import "net/http"

type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler)
}

func New(
	reconciliationController RouteRegistrar,
	ledgerController RouteRegistrar,
	verificationController RouteRegistrar,
	maintenanceController RouteRegistrar,
	accountController RouteRegistrar,
	authMiddleware func(http.Handler) http.Handler,
) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthRoute(mux)

	for _, registrar := range []RouteRegistrar{
		reconciliationController,
		ledgerController,
		verificationController,
		maintenanceController,
		accountController,
	} {
		if registrar != nil {
			registrar.RegisterRoutes(mux, authMiddleware)
		}
	}

	return mux
}

// registerHealthRoute stays outside the auth middleware so load balancers
// can reach it without credentials.
func registerHealthRoute(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}
