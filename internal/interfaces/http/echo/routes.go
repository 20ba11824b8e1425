package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler) {
	server.POST("/api/v1/imports/run", importHandler.Run)
	server.GET("/api/v1/imports/last", importHandler.LastCycle)
}
