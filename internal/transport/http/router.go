package httpserver

import (
	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/blog_api/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *AuthHandler
	PostHandler   *PostHandler
	SearchHandler *SearchHandler
	Gate          *authmw.Gate
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)

	v1.GET("/posts", d.PostHandler.List)
	v1.GET("/posts/:id", d.PostHandler.GetByID)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	admin := v1.Group("/admin", d.Gate.RequireAdmin)
	admin.POST("/posts", d.PostHandler.Create)
	admin.PUT("/posts/:id", d.PostHandler.Update)
	admin.DELETE("/posts/:id", d.PostHandler.Delete)
	admin.POST("/posts/import", d.PostHandler.Import)
}
