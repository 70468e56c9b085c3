package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/measurement-map-go/internal/config"
	"github.com/jengzang/measurement-map-go/internal/handler"
	"github.com/jengzang/measurement-map-go/internal/middleware"
	"github.com/jengzang/measurement-map-go/internal/observability"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, mapsHandler *handler.MapHandler, metrics *observability.RenderCollector) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())
	if metrics != nil {
		r.Use(metrics.GinMiddleware())
	}

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Measurement Map API is running",
		})
	})

	// Prometheus 指标
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// API 路由组
	api := r.Group("/api/v1")
	if cfg.AuthEnabled {
		api.Use(middleware.Auth(cfg.JWTSecret))
	}
	{
		// 测量地图接口
		maps := api.Group("/maps")
		{
			render := middleware.RateLimit(cfg.RateLimit, cfg.RateLimitWindow)
			maps.POST("", render, mapsHandler.CreateMap)
			maps.POST("/preview", render, mapsHandler.PreviewMap)
			maps.GET("/example", mapsHandler.GetExample)

			// 渲染任务
			jobs := maps.Group("/jobs")
			{
				jobs.GET("", mapsHandler.ListJobs)
				jobs.GET("/:id", mapsHandler.GetJob)
				jobs.GET("/:id/image", mapsHandler.GetJobImage)
				jobs.DELETE("/:id", mapsHandler.DeleteJob)
			}
		}
	}

	return r
}
