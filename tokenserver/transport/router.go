package transport

import (
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/imtaco/rtc-token-server/internal/errors"
	"github.com/imtaco/rtc-token-server/internal/log"
	"github.com/imtaco/rtc-token-server/internal/ratelimit"
	"github.com/imtaco/rtc-token-server/internal/validation"
	"github.com/imtaco/rtc-token-server/tokenserver"
)

const (
	statusRunning = "RTC Token Server Running"

	msgChannelRequired     = "channelName is required"
	msgInvalidBody         = "Invalid request body"
	msgConfigurationError  = "Server configuration error"
	msgTokenGenerationFail = "Failed to generate token"
	msgTooManyRequests     = "Too many requests"
)

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

func SetupCORS(v *viper.Viper, prefix string) {
	v.SetDefault(prefix+".allow_origins", []string{"*"})
}

type Options struct {
	CORS CORSConfig
	// nil disables rate limiting
	Limiter *ratelimit.Limiter
}

type Router struct {
	issuer  tokenserver.TokenIssuer
	limiter *ratelimit.Limiter
	engine  *gin.Engine
	logger  *log.Logger
}

func NewRouter(issuer tokenserver.TokenIssuer, opts Options, logger *log.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("rtc-token-server"))

	origins := opts.CORS.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r := &Router{
		issuer:  issuer,
		limiter: opts.Limiter,
		engine:  engine,
		logger:  logger,
	}

	r.engine.Use(func(c *gin.Context) {
		r.logger.Debug("Incoming request",
			log.String("method", c.Request.Method),
			log.String("url", c.Request.URL.String()))
		c.Next()
	})

	r.setupRoutes()
	return r
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) setupRoutes() {
	r.engine.GET("/", r.rootStatus)
	r.engine.GET("/health", r.healthCheck)

	tokens := r.engine.Group("/")
	if r.limiter != nil {
		tokens.Use(r.rateLimit)
	}
	tokens.POST("/rtc-token", r.issueToken)
}

func (r *Router) rateLimit(c *gin.Context) {
	if r.limiter.Allow(c.ClientIP()) {
		c.Next()
		return
	}

	r.logger.Warn("Rate limit exceeded", log.String("clientIp", c.ClientIP()))
	r.reject(c, reasonRateLimited)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: msgTooManyRequests})
}

func (r *Router) issueToken(c *gin.Context) {
	var req IssueTokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		// an empty body is a request without channelName
		if stderrors.Is(err, io.EOF) || validation.HasFieldError(err, "ChannelName") {
			r.reject(c, reasonMissingChannel)
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgChannelRequired})
			return
		}

		r.logger.Debug("Invalid token request body",
			log.Error(err),
			log.Any("details", validation.FormatValidationError(err)))
		r.reject(c, reasonInvalidBody)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
		return
	}

	res, err := r.issuer.Issue(c.Request.Context(), tokenserver.IssueRequest{
		ChannelName: req.ChannelName,
		UID:         req.UID,
		Role:        req.Role,
	})
	if err != nil {
		status, msg := errorResponse(err)
		if status >= http.StatusInternalServerError {
			r.logger.Error("Token request failed", log.Error(err))
		}
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	r.logger.Info("Token issued",
		log.String("channelName", res.ChannelName),
		log.Uint32("uid", res.UID),
		log.String("clientIp", c.ClientIP()))

	c.JSON(http.StatusOK, IssueTokenResponse{
		Token:       res.Token,
		AppID:       res.AppID,
		ChannelName: res.ChannelName,
		UID:         res.UID,
		ExpiresIn:   res.ExpiresIn,
	})
}

// errorResponse maps issuer errors to a status and a fixed public message.
// Internal details never reach the body.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, tokenserver.ErrInvalidRequest):
		return http.StatusBadRequest, msgChannelRequired
	case errors.Is(err, tokenserver.ErrConfiguration):
		return http.StatusInternalServerError, msgConfigurationError
	default:
		return http.StatusInternalServerError, msgTokenGenerationFail
	}
}

func (r *Router) reject(c *gin.Context, reason string) {
	requestsRejected.Add(c.Request.Context(), 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

func (r *Router) rootStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusRunning,
	})
}

func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
