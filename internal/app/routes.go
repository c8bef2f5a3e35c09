package app

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API on router. auth guards owner-only routes; public middleware
// (rate limiting) wraps the routes anyone can call.
func (a *App) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc, public ...gin.HandlerFunc) {
	withPublic := func(h gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(public)+1)
		return append(append(chain, public...), h)
	}

	router.GET("/healthz", a.HealthHandler)

	// OAuth2 callback carries its own signed state instead of a bearer token
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	api := router.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("", withPublic(a.ClaimUsernameHandler)...)
			users.POST("/time-intervals", auth, a.SetTimeIntervalsHandler)

			users.GET("/:username", withPublic(a.GetProfileHandler)...)
			users.GET("/:username/availability", withPublic(a.GetAvailabilityHandler)...)
			users.GET("/:username/blocked-dates", withPublic(a.GetBlockedDatesHandler)...)
			users.GET("/:username/calendar", withPublic(a.GetCalendarHandler)...)
			users.POST("/:username/schedule", withPublic(a.CreateBookingHandler)...)
		}

		calendar := api.Group("/calendar", auth)
		{
			calendar.GET("/auth", a.GoogleAuthHandler)
		}
	}
}
