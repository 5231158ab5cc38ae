package handler

import (
	"context"
	"net/http"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/session"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_service.go -package=handler

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, auctionID, userID, rawAmount string) (model.Bid, error)
	ListAuctions(ctx context.Context, status model.AuctionStatus) ([]model.AuctionView, error)
	GetAuction(ctx context.Context, auctionID string) (model.AuctionDetail, error)
	GetBidsForAuction(ctx context.Context, auctionID string) ([]model.BidEntry, error)
	GetUserBids(ctx context.Context, userID string) ([]model.UserBid, error)
	GetProfile(ctx context.Context, userID string) (model.ProfileSummary, error)
	CreateAuction(ctx context.Context, userID string, input model.NewAuction) (model.Auction, error)
	DeleteAuction(ctx context.Context, userID, auctionID string) error
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// PingHandler handles GET /ping
func (h *BiddingHandler) PingHandler(c *gin.Context) {
	utils.JSONResponse(c, http.StatusOK, gin.H{"alive": true}, "pong")
}

// ListAuctionsHandler handles GET /auctions?status=
func (h *BiddingHandler) ListAuctionsHandler(c *gin.Context) {
	status := model.AuctionStatus(c.Query("status"))
	auctions, err := h.service.ListAuctions(c.Request.Context(), status)
	if err != nil {
		helpers.RespondError(c, "ListAuctionsHandler", err, map[string]any{"status_filter": string(status)})
		return
	}

	if auctions == nil {
		auctions = []model.AuctionView{}
	}

	utils.JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"status_filter": string(status),
		"count":         len(auctions),
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	detail, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, detail, "auction retrieved successfully")
	helpers.LogSuccess("GetAuctionHandler", "auction retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"bids_count": len(detail.Bids),
	})
}

// GetAuctionBidsHandler handles GET /auctions/:auction_id/bids
func (h *BiddingHandler) GetAuctionBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidsForAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionBidsHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	if bids == nil {
		bids = []model.BidEntry{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("GetAuctionBidsHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(bids),
	})
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	userID := session.UserID(c)

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), auctionID, userID, req.RawAmount())
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"auction_id": auctionID,
			"user_id":    userID,
			"amount":     req.RawAmount(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"user_id":    userID,
		"amount":     bid.Amount,
	})
}

// GetMyBidsHandler handles GET /me/bids
func (h *BiddingHandler) GetMyBidsHandler(c *gin.Context) {
	userID := session.UserID(c)
	bids, err := h.service.GetUserBids(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondError(c, "GetMyBidsHandler", err, map[string]any{"user_id": userID})
		return
	}

	if bids == nil {
		bids = []model.UserBid{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("GetMyBidsHandler", "bids retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(bids),
	})
}

// GetMyProfileHandler handles GET /me/profile
func (h *BiddingHandler) GetMyProfileHandler(c *gin.Context) {
	userID := session.UserID(c)
	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondError(c, "GetMyProfileHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, profile, "profile retrieved successfully")
}

// CreateAuctionHandler handles POST /admin/auctions
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	userID := session.UserID(c)

	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), userID, req.NewAuction())
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{"user_id": userID, "title": req.Title})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, auction, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"user_id":    userID,
		"end_time":   auction.EndTime,
	})
}

// DeleteAuctionHandler handles DELETE /admin/auctions/:auction_id
func (h *BiddingHandler) DeleteAuctionHandler(c *gin.Context) {
	userID := session.UserID(c)
	auctionID := c.Param("auction_id")

	if err := h.service.DeleteAuction(c.Request.Context(), userID, auctionID); err != nil {
		helpers.RespondError(c, "DeleteAuctionHandler", err, map[string]any{"user_id": userID, "auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID}, "auction deleted successfully")
	helpers.LogSuccess("DeleteAuctionHandler", "auction deleted successfully", map[string]any{
		"auction_id": auctionID,
		"user_id":    userID,
	})
}

// NoRouteHandler answers unknown paths with the error envelope
func (h *BiddingHandler) NoRouteHandler(c *gin.Context) {
	utils.JSONError(c, http.StatusNotFound, biddingerrors.ErrInvalidRequest, "route not found")
}
