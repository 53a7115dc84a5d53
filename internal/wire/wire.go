package wire

import (
	"net/http"

	"ecom-backend/internal/adaptor"
	"ecom-backend/internal/data/repository"
	"ecom-backend/internal/usecase"
	"ecom-backend/pkg/mailer"
	"ecom-backend/pkg/middleware"
	"ecom-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the wired HTTP surface
type App struct {
	Router *chi.Mux
}

// Deps are the process-wide components built in main.
type Deps struct {
	Repo   *repository.Repository
	Hasher utils.PasswordHasher
	Tokens *utils.TokenIssuer
	// Extractor is nil when face recognition is disabled.
	Extractor usecase.FaceExtractor
	Mailer    mailer.Mailer
}

// Wiring builds services, handlers and routes
func Wiring(deps Deps, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(deps.Repo, config, deps.Hasher, deps.Tokens, deps.Extractor, deps.Mailer, logger)
	handler := adaptor.NewHandler(service, config.Face.MaxUploadMB<<20, logger)

	router := setupRouter(handler, deps.Tokens, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	tokens *utils.TokenIssuer,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	auth := middleware.Auth(tokens, logger)

	wireAuth(r, handler.Auth, config, logger)
	wireUser(r, handler.User, auth, logger)
	wireCart(r, handler.Cart, auth)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
