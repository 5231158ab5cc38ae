package server

import (
	"auction-marketplace/internal/session"
	handler "auction-marketplace/services/bidding/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application. Admin routes
// only require a session here; the role is checked against the stored
// profile by the service.
func SetupRouter(biddingService handler.BiddingServiceInterface, parser *session.Parser) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery()) // recover from panics
	router.Use(RequestIDMiddleware)
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(Authenticate(parser))

	biddingHandler := handler.NewBiddingHandler(biddingService)

	router.GET("/ping", biddingHandler.PingHandler)
	router.NoRoute(biddingHandler.NoRouteHandler)

	auctions := router.Group("/auctions")
	{
		auctions.GET("", biddingHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", biddingHandler.GetAuctionHandler)
		auctions.GET("/:auction_id/bids", biddingHandler.GetAuctionBidsHandler)
		auctions.POST("/:auction_id/bids", RequireUser, biddingHandler.PlaceBidHandler)
	}

	me := router.Group("/me", RequireUser)
	{
		me.GET("/bids", biddingHandler.GetMyBidsHandler)
		me.GET("/profile", biddingHandler.GetMyProfileHandler)
	}

	admin := router.Group("/admin", RequireUser)
	{
		admin.POST("/auctions", biddingHandler.CreateAuctionHandler)
		admin.DELETE("/auctions/:auction_id", biddingHandler.DeleteAuctionHandler)
	}

	return router
}
