package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blues/crowdsale/internal/config"
	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/handler"
)

func Setup(engine *crowdsale.Engine, store crowdsale.Store, adminHandler *handler.AdminHandler, cfg *config.Config) (*gin.Engine, error) {
	maxSkew := time.Duration(cfg.Server.MaxSkew) * time.Second
	seen, err := handler.NewReplayCache(maxSkew)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "crowdsale-service",
		})
	})

	signed := handler.SignedCaller(maxSkew, time.Now, seen)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		campaignHandler := handler.NewCampaignHandler(engine, store, time.Now)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
			campaigns.GET("/:id/contributions", campaignHandler.GetContributions)
			campaigns.GET("/:id/refunds", campaignHandler.GetRefunds)
			campaigns.GET("/:id/events", campaignHandler.GetEvents)
			campaigns.GET("/:id/deposits/:investor", campaignHandler.GetDeposit)

			// 需要签名的操作
			campaigns.POST("", signed, campaignHandler.CreateCampaign)
			campaigns.POST("/:id/contribute", signed, campaignHandler.Contribute)
			campaigns.POST("/:id/finalize", signed, campaignHandler.Finalize)
			campaigns.POST("/:id/pause", signed, campaignHandler.Pause)
			campaigns.POST("/:id/claim-reward", signed, campaignHandler.ClaimReward)
			campaigns.POST("/:id/claim-refund", signed, campaignHandler.ClaimRefund)
			campaigns.POST("/:id/claim-raised", signed, campaignHandler.ClaimRaisedFunds)
		}

		// 管理员接口
		admin := v1.Group("/admin", signed, adminHandler.RequireAdmin)
		{
			admin.PUT("/commission-wallet", campaignHandler.SetCommissionWallet)
			admin.PUT("/approvals/:unit", adminHandler.ApproveRewardUnit)
			admin.DELETE("/approvals/:unit", adminHandler.RevokeRewardUnit)
			admin.PUT("/kyc/:investor", adminHandler.SetKYC)
			admin.DELETE("/kyc/:investor", adminHandler.RemoveKYC)
			admin.POST("/custody/credit", adminHandler.CreditNative)
			admin.POST("/custody/mint", adminHandler.MintReward)
		}
	}

	return r, nil
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, "+
			handler.HeaderCaller+", "+handler.HeaderTimestamp+", "+handler.HeaderSignature)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
