package helpers

import (
	"bytes"
	"encoding/json"
	"time"

	model "auction-marketplace/internal/models"
)

// Request/Response DTOs

// PlaceBidRequest keeps the amount raw so the bid rule decides what is valid
type PlaceBidRequest struct {
	Amount json.RawMessage `json:"amount" binding:"required"`
}

// RawAmount returns the amount text, unquoted when it was sent as a string
func (r PlaceBidRequest) RawAmount() string {
	raw := bytes.TrimSpace(r.Amount)
	var text string
	if len(raw) > 0 && raw[0] == '"' && json.Unmarshal(raw, &text) == nil {
		return text
	}
	return string(raw)
}

type CreateAuctionRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description" binding:"required"`
	StartBid    *float64  `json:"start_bid" binding:"required,gte=0"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

// NewAuction converts the request into service input
func (r CreateAuctionRequest) NewAuction() model.NewAuction {
	in := model.NewAuction{
		Title:       r.Title,
		Description: r.Description,
		EndTime:     r.EndTime,
	}
	if r.StartBid != nil {
		in.StartBid = *r.StartBid
	}
	return in
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	AuctionID string  `json:"auction_id"`
	UserID    string  `json:"user_id"`
	Amount    float64 `json:"amount"`
	Timestamp string  `json:"timestamp"`
}

func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		AuctionID: b.AuctionID,
		UserID:    b.UserID,
		Amount:    b.Amount,
		Timestamp: b.Timestamp.UTC().Format(time.RFC3339),
	}
}
