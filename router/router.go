package router

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/controllers"
	"github.com/yeremiapane/restaurant-floor/middlewares"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Board          *controllers.BoardController
	WS             *controllers.WSController
	JWTSecret      []byte
	AllowedOrigins []string
	RateLimiter    *middlewares.RateLimiter
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(middlewares.RequestContext())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddlewares(d.AllowedOrigins))
	r.Use(middlewares.SecurityHeaders(d.AllowedOrigins))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	auth := middlewares.AuthMiddleware(d.JWTSecret)
	staffOnly := middlewares.RequireRole("staff", "manager")

	limit := func(c *gin.Context) { c.Next() }
	if d.RateLimiter != nil {
		limit = d.RateLimiter.RateLimit()
	}

	boardGroup := r.Group("/board", auth, staffOnly)
	{
		bc := d.Board
		boardGroup.GET("", bc.GetBoard)
		boardGroup.GET("/stats", bc.GetStats)
		boardGroup.GET("/print", bc.PrintRunSheet)
		boardGroup.POST("/refresh", limit, bc.Refresh)
		boardGroup.PUT("/date", limit, bc.SetDate)

		boardGroup.GET("/preferences", bc.GetPreferences)
		boardGroup.PUT("/preferences", bc.UpdatePreferences)

		boardGroup.GET("/reservations/:id", bc.GetReservation)
		boardGroup.PATCH("/reservations/:id/status", limit, bc.ChangeStatus)
		boardGroup.GET("/reservations/:id/audit", bc.GetAuditLog)

		boardGroup.POST("/walk-ins", limit, bc.CreateWalkIn)
		boardGroup.POST("/phone-reservations", limit, bc.CreatePhoneReservation)
		boardGroup.POST("/waitlist", limit, bc.CreateWaitlistEntry)
	}

	if d.WS != nil {
		r.GET("/ws", auth, staffOnly, d.WS.BoardSocket)
	}

	return r
}
