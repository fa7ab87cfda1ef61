package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "transcript-service/docs"
)

func Routes(h *Handler, apiKey string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(AccessLog(h.logger))

	r.Get("/", h.Root)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(APIKey(apiKey))

		r.Post("/process", h.Process)
		r.Post("/upload", h.Upload)
		r.Get("/status/{job_id}", h.Status)
		r.Get("/result/{job_id}", h.Result)
		r.Get("/jobs", h.ListJobs)
		r.Delete("/job/{job_id}", h.DeleteJob)
		r.Post("/chat", h.Chat)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
