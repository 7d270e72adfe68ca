package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route binds an HTTP method and path to a handler.
type Route struct {
	Method      string
	Pattern     string
	HandlerFunc gin.HandlerFunc
}

// NewRouter builds a gin engine with all forecast routes registered.
func NewRouter(api ForecastAPI) *gin.Engine {
	router := gin.Default()
	for _, route := range routesFor(api) {
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

func routesFor(api ForecastAPI) []Route {
	return []Route{
		{http.MethodPost, "/v1/rules", api.CreateRule},
		{http.MethodGet, "/v1/rules", api.ListRules},
		{http.MethodGet, "/v1/rules/:ruleId", api.GetRule},
		{http.MethodPut, "/v1/rules/:ruleId", api.UpdateRule},
		{http.MethodDelete, "/v1/rules/:ruleId", api.DeleteRule},
		{http.MethodGet, "/v1/settings", api.GetSettings},
		{http.MethodPut, "/v1/settings", api.UpdateSettings},
		{http.MethodPost, "/v1/projection/run", api.RunProjection},
		{http.MethodGet, "/v1/projection", api.GetProjection},
	}
}
