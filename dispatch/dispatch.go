// Package dispatch routes HTTP requests of the form /:controller/:action
// to named actions of registered controllers. Actions receive the
// request along with the shared *sqlhelper.DB, and return a Response
// that is rendered as a JSON envelope.
//
// When the action segment is missing, the controller's "index" action
// handles the request. Unknown controllers and actions get a 404
// envelope.
package dispatch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ido50/sqlhelper"
)

// IndexAction is the action used when a request names no action.
const IndexAction = "index"

// Context is passed to every action.
type Context struct {
	*gin.Context

	// DB is the database shared by all actions
	DB *sqlhelper.DB
	// Logger is the router's logger
	Logger *slog.Logger
}

// Action handles a single request.
type Action func(c *Context) Response

// Controller maps action names to actions.
type Controller map[string]Action

// Router dispatches requests to controllers. Controllers must be
// registered before the router starts serving.
type Router struct {
	engine      *gin.Engine
	db          *sqlhelper.DB
	logger      *slog.Logger
	controllers map[string]Controller
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for access logs and recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter creates a Router handing db to every action.
func NewRouter(db *sqlhelper.DB, opts ...Option) *Router {
	r := &Router{
		engine:      gin.New(),
		db:          db,
		logger:      slog.Default(),
		controllers: make(map[string]Controller),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.engine.Use(r.accessLog(), gin.CustomRecovery(r.recovered))
	r.engine.Any("/:controller", r.dispatch)
	r.engine.Any("/:controller/:action", r.dispatch)
	r.engine.NoRoute(func(c *gin.Context) {
		render(c, Fail(http.StatusNotFound, "Not Found"))
	})

	return r
}

// Register adds a controller under name, replacing any controller
// previously registered with the same name.
func (r *Router) Register(name string, ctrl Controller) *Router {
	r.controllers[name] = ctrl
	return r
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

func (r *Router) dispatch(c *gin.Context) {
	ctrl, ok := r.controllers[c.Param("controller")]
	if !ok {
		render(c, Fail(http.StatusNotFound, "Not Found"))
		return
	}

	name := c.Param("action")
	if name == "" {
		name = IndexAction
	}

	action, ok := ctrl[name]
	if !ok {
		render(c, Fail(http.StatusNotFound, "Not Found"))
		return
	}

	render(c, action(&Context{Context: c, DB: r.db, Logger: r.logger}))
}

func render(c *gin.Context, resp Response) {
	c.JSON(resp.code(), resp.envelope())
}

func (r *Router) recovered(c *gin.Context, err any) {
	r.logger.Error("action panicked", "path", c.Request.URL.Path, "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		Fail(http.StatusInternalServerError, "Internal Server Error").envelope())
}

func (r *Router) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		r.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
