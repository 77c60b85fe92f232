package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1.
// Чтение и создание инцидентов открыты (анонимные заявители),
// мутации защищены серверной проверкой роли из токена.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	auth := h.JWTAuthMiddleware()

	incidents := api.Group("/incidents")
	{
		incidents.GET("", h.listIncidents)
		incidents.GET("/feed", h.feedIncidents)
		incidents.GET("/stats", auth, h.RequireRole("admin"), h.getStats)
		incidents.GET("/:id", h.getIncident)
		incidents.POST("", h.createIncident)
		incidents.PUT("/:id", auth, h.RequireRole("responder", "admin"), h.updateIncident)
		incidents.PATCH("/:id", auth, h.RequireRole("responder", "admin"), h.patchIncident)
		incidents.POST("/:id/confirm", auth, h.confirmIncident)
		incidents.DELETE("/:id", auth, h.RequireRole("admin"), h.deleteIncident)
	}

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.register)
		authRoutes.POST("/login", h.login)
	}

	admin := api.Group("/admin", auth, h.RequireRole("admin"))
	{
		admin.GET("/users", h.listUsers)
		admin.PATCH("/users/:id/role", h.updateUserRole)
		admin.DELETE("/users/:id", h.deleteUser)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
