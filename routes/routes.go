package routes

import (
	"performance-review-api/controllers"
	"performance-review-api/middleware"
	"performance-review-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Performance Review API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Dashboard
			protected.GET("/dashboard/stats", controllers.GetDashboardStats)

			// Cycle workflows and queries
			ciclos := protected.Group("/ciclos")
			{
				ciclos.GET("/current", controllers.GetCurrentCycle)
				ciclos.GET("/brutal-facts",
					middleware.RequireRole(models.RoleCommittee, models.RoleAdmin),
					controllers.GetBrutalFacts)

				// Only committee/HR and admins drive the lifecycle
				ciclos.PATCH("/:id/status",
					middleware.RequireRole(models.RoleCommittee, models.RoleAdmin),
					controllers.UpdateCycleStatus)
				ciclos.PATCH("/close-collaborator",
					middleware.RequireRole(models.RoleCommittee, models.RoleAdmin),
					controllers.CloseCollaboratorCycle)
				ciclos.PATCH("/close-manager",
					middleware.RequireRole(models.RoleCommittee, models.RoleAdmin),
					controllers.CloseManagerCycle)
				ciclos.POST("/create-collaborator-cycle",
					middleware.RequireRole(models.RoleCommittee, models.RoleAdmin),
					controllers.CreateCollaboratorCycle)
			}

			// Read-only cycle finders
			evaluationCycle := protected.Group("/evaluation-cycle")
			{
				evaluationCycle.GET("/active", controllers.GetActiveCycle)
				evaluationCycle.GET("/closed", controllers.GetClosedCycles)
				evaluationCycle.GET("/recent", controllers.GetRecentCycle)
			}

			// Self evaluations (collaborators)
			selfEvaluations := protected.Group("/self-evaluations")
			{
				selfEvaluations.POST("", middleware.RequireRole(models.RoleCollaborator), controllers.CreateSelfEvaluation)
				selfEvaluations.GET("", controllers.ListSelfEvaluations)
			}

			// Peer (360) evaluations
			peerEvaluations := protected.Group("/peer-evaluations")
			{
				peerEvaluations.POST("", middleware.RequireRole(models.RoleCollaborator, models.RoleManager), controllers.CreatePeerEvaluation)
				peerEvaluations.GET("", controllers.ListPeerEvaluations)
			}

			// Manager evaluations
			managerEvaluations := protected.Group("/manager-evaluations")
			{
				managerEvaluations.POST("", middleware.RequireRole(models.RoleManager), controllers.CreateManagerEvaluation)
				managerEvaluations.GET("", controllers.ListManagerEvaluations)
			}

			// Mentor evaluations
			mentorEvaluations := protected.Group("/mentor-evaluations")
			{
				mentorEvaluations.POST("", middleware.RequireRole(models.RoleMentor), controllers.CreateMentorEvaluation)
				mentorEvaluations.GET("", controllers.ListMentorEvaluations)
			}

			// Final scores (committee)
			finalScores := protected.Group("/final-scores")
			{
				finalScores.POST("", middleware.RequireRole(models.RoleCommittee), controllers.CreateFinalScore)
				finalScores.GET("", middleware.RequireRole(models.RoleCommittee, models.RoleAdmin), controllers.ListFinalScores)
			}
		}
	}
}
