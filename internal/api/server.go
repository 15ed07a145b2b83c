package api

import (
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/civicvault/events-api/docs"
	v1 "github.com/civicvault/events-api/internal/api/handler/v1"
	"github.com/civicvault/events-api/internal/api/middleware"
	"github.com/civicvault/events-api/internal/config"
	"github.com/civicvault/events-api/internal/domain"
	"github.com/civicvault/events-api/internal/notifier"
	"github.com/civicvault/events-api/internal/repository"
	"github.com/civicvault/events-api/internal/repository/dao"
	"github.com/civicvault/events-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	eventHandler := s.initEventHandler(db)
	s.MountHandlers(authHandler, userHandler, eventHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initEventHandler(db *gorm.DB) *v1.EventHandler {
	eventDAO := dao.NewEventDAO(db)
	repo := repository.NewEventRepository(eventDAO)
	sender := notifier.NewEmailNotifier(s.Config.Notifier.FromAddress)

	offerTTL := time.Duration(s.Config.Events.OfferTTLHours) * time.Hour
	policy := domain.FeedbackPolicy(s.Config.Events.FeedbackPolicy)
	svc := service.NewEventService(repo, sender, offerTTL, policy)

	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewEventHandler(svc, uSvc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, userHandler *v1.UserHandler, eventHandler *v1.EventHandler) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	users := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		users.GET("/users/:userID", userHandler.HandleGetUser)
		users.GET("/users/officers", userHandler.HandleListOfficers)
	}

	events := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		events.GET("/events", eventHandler.HandleListEvents)
		events.POST("/events", eventHandler.HandleCreateEvent)
		events.GET("/events/:eventID", eventHandler.HandleGetEvent)
		events.POST("/events/:eventID/register", eventHandler.HandleRegister)
		events.DELETE("/events/:eventID/register", eventHandler.HandleCancelRegistration)
		events.GET("/events/:eventID/registration", eventHandler.HandleGetRegistration)
		events.GET("/events/:eventID/registrations", eventHandler.HandleListRegistrations)
		events.POST("/events/:eventID/check-in", eventHandler.HandleCheckIn)
		events.POST("/events/:eventID/check-out", eventHandler.HandleCheckOut)
		events.POST("/events/:eventID/feedback", eventHandler.HandleSubmitFeedback)
		events.GET("/events/:eventID/feedback", eventHandler.HandleListFeedback)
		events.GET("/events/:eventID/waitlist", eventHandler.HandleListWaitlist)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "CivicVault Events API"
	docs.SwaggerInfo.Description = "Event registration, waitlist and attendance tracking for community events."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
