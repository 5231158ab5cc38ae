package models

import "time"

// AuctionStatus is the stored lifecycle state of an auction
type AuctionStatus string

const (
	StatusActive AuctionStatus = "active"
	StatusEnded  AuctionStatus = "ended"
)

// Valid reports whether s is a known status
func (s AuctionStatus) Valid() bool {
	return s == StatusActive || s == StatusEnded
}

// Role of a profile. Only admin unlocks the admin endpoints.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile represents a marketplace participant
type Profile struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the profile may manage auctions
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Auction represents a sellable item with a closing time and a running highest bid
type Auction struct {
	AuctionID   string        `json:"auction_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	CurrentBid  float64       `json:"current_bid"`
	EndTime     time.Time     `json:"end_time"`
	Status      AuctionStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// OpenAt reports whether the auction still accepts bids at now
func (a Auction) OpenAt(now time.Time) bool {
	return a.Status == StatusActive && now.Before(a.EndTime)
}

// EffectiveStatus is the status a reader should see at now: an auction whose
// end time has passed reads as ended even before the closer flips it.
func (a Auction) EffectiveStatus(now time.Time) AuctionStatus {
	if a.OpenAt(now) {
		return StatusActive
	}
	return StatusEnded
}

// Bid represents a user's bid on an auction
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// BidEntry is a bid as shown in an auction's history
type BidEntry struct {
	Bid
	BidderEmail string `json:"bidder_email"`
}

// AuctionSummary is the slice of an auction shown next to a user's bid
type AuctionSummary struct {
	AuctionID  string        `json:"auction_id"`
	Title      string        `json:"title"`
	Status     AuctionStatus `json:"status"`
	CurrentBid float64       `json:"current_bid"`
	EndTime    time.Time     `json:"end_time"`
}

// BidOutcome is the per-bid result shown on a profile
type BidOutcome string

const (
	OutcomeActive BidOutcome = "active"
	OutcomeWon    BidOutcome = "won"
	OutcomeLost   BidOutcome = "lost"
)

// UserBid is a bid from a user's history with its auction
type UserBid struct {
	Bid
	Auction AuctionSummary `json:"auction"`
	Outcome BidOutcome     `json:"outcome"`
}

// AuctionView is an auction prepared for display at a given instant
type AuctionView struct {
	Auction
	TimeRemaining string  `json:"time_remaining"`
	MinNextBid    float64 `json:"min_next_bid"`
}

// AuctionDetail is an auction with its bid history, newest first
type AuctionDetail struct {
	AuctionView
	Bids []BidEntry `json:"bids"`
}

// ProfileSummary is a profile with bidding totals
type ProfileSummary struct {
	Profile
	TotalBids   int `json:"total_bids"`
	WonAuctions int `json:"won_auctions"`
}

// AuctionFilter narrows ListAuctions. Empty Status means all.
type AuctionFilter struct {
	Status AuctionStatus
	Now    time.Time
}

// NewAuction carries admin input for auction creation
type NewAuction struct {
	Title       string
	Description string
	StartBid    float64
	EndTime     time.Time
}
