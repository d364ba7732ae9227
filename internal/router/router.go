package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-enrollment-wizard/internal/handler"
	"github.com/noah-isme/sma-enrollment-wizard/internal/middleware"
	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	"github.com/noah-isme/sma-enrollment-wizard/internal/service"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/config"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-enrollment-wizard/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-enrollment-wizard/pkg/middleware/requestid"
)

// Dependencies are the wired services the HTTP surface is built from.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions *service.SessionService
	Wizard   *service.WizardService
	Review   *service.ReviewService
	Receipts *service.ReceiptService
	Metrics  *service.MetricsService
	Checks   map[string]handler.ReadinessCheck
}

// New builds the gin engine with middleware and every wizard route.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, middleware.SessionHeader))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(deps.Metrics, "/metrics", "/health"))
	}

	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.Checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction || cfg.Docs.Enabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	wizardHandler := handler.NewWizardHandler(deps.Wizard, cfg.APIPrefix)
	reviewHandler := handler.NewReviewHandler(deps.Review, deps.Receipts)

	api := r.Group(cfg.APIPrefix)
	api.GET("/enroll/receipts/:token", reviewHandler.Receipt)

	enroll := api.Group("/enroll")
	enroll.Use(middleware.Session(deps.Sessions, middleware.SessionOptions{
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
	}))
	for _, step := range models.Steps {
		slug := "/" + step.Slug()
		if step != models.StepReview {
			enroll.GET(slug, wizardHandler.GetStep(step))
			enroll.POST(slug, wizardHandler.SubmitStep(step))
		}
		if step != models.StepStudentDetails {
			enroll.POST(slug+"/back", wizardHandler.Back(step))
		}
	}
	enroll.GET("/review", reviewHandler.View)
	enroll.POST("/review/submit", reviewHandler.Submit)
	enroll.DELETE("", reviewHandler.Reset)

	return r
}
