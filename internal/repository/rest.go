package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/bidrules"
	model "auction-marketplace/internal/models"

	"resty.dev/v3"
)

// RestConfig points RestRepo at a hosted PostgREST-style API
type RestConfig struct {
	BaseURL string // e.g. https://project.example.co/rest/v1
	APIKey  string
	Timeout time.Duration
}

// RestRepo implements AuctionDB against a hosted database REST API.
// Bid insertion goes through the place_bid RPC so the backend applies the
// acceptance rule while holding the auction row.
type RestRepo struct {
	client *resty.Client
}

// NewRestRepo builds a client with the API key sent as both apikey header
// and bearer token
func NewRestRepo(cfg RestConfig) *RestRepo {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.APIKey)
	return &RestRepo{client: client}
}

// Close releases the underlying HTTP client
func (r *RestRepo) Close() error {
	return r.client.Close()
}

type restAuction struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CurrentBid  float64   `json:"current_bid"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a restAuction) model() model.Auction {
	return model.Auction{
		AuctionID:   a.ID,
		Title:       a.Title,
		Description: a.Description,
		CurrentBid:  a.CurrentBid,
		EndTime:     a.EndTime.UTC(),
		Status:      model.AuctionStatus(a.Status),
		CreatedAt:   a.CreatedAt.UTC(),
	}
}

type restBid struct {
	ID        string    `json:"id"`
	AuctionID string    `json:"auction_id"`
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

func (b restBid) model() model.Bid {
	return model.Bid{BidID: b.ID, AuctionID: b.AuctionID, UserID: b.UserID, Amount: b.Amount, Timestamp: b.Timestamp.UTC()}
}

type restProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type restIDRow struct {
	ID string `json:"id"`
}

const restAuctionSelect = "id,title,description,current_bid,end_time,status,created_at"

func restTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// restCheck turns a transport error or an error status into a backend failure
func restCheck(op string, res *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrBackendUnavailable, err)
	}
	if res.IsError() {
		return fmt.Errorf("%s: %w: status %d: %s", op, biddingerrors.ErrBackendUnavailable, res.StatusCode(), res.String())
	}
	return nil
}

func (r *RestRepo) ListAuctions(ctx context.Context, filter model.AuctionFilter) ([]model.Auction, error) {
	var rows []restAuction
	req := r.client.R().
		SetContext(ctx).
		SetQueryParam("select", restAuctionSelect).
		SetQueryParam("order", "end_time.asc,id.asc").
		SetResult(&rows)
	switch filter.Status {
	case model.StatusActive:
		req.SetQueryParam("status", "eq.active").SetQueryParam("end_time", "gt."+restTime(filter.Now))
	case model.StatusEnded:
		req.SetQueryParam("or", "(status.eq.ended,end_time.lte."+restTime(filter.Now)+")")
	}

	res, err := req.Get("/auctions")
	if err := restCheck("list auctions", res, err); err != nil {
		return nil, err
	}
	out := make([]model.Auction, 0, len(rows))
	for _, a := range rows {
		out = append(out, a.model())
	}
	return out, nil
}

func (r *RestRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	var rows []restAuction
	res, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("select", restAuctionSelect).
		SetQueryParam("id", "eq."+auctionID).
		SetResult(&rows).
		Get("/auctions")
	if err := restCheck("get auction "+auctionID, res, err); err != nil {
		return model.Auction{}, err
	}
	if len(rows) == 0 {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return rows[0].model(), nil
}

func (r *RestRepo) CreateAuction(ctx context.Context, auction model.Auction) error {
	body := restAuction{
		ID:          auction.AuctionID,
		Title:       auction.Title,
		Description: auction.Description,
		CurrentBid:  auction.CurrentBid,
		EndTime:     auction.EndTime,
		Status:      string(auction.Status),
		CreatedAt:   auction.CreatedAt,
	}
	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(body).
		Post("/auctions")
	if err == nil && res.StatusCode() == http.StatusConflict {
		return fmt.Errorf("create auction %s: %w - duplicate id", auction.AuctionID, biddingerrors.ErrInvalidAuction)
	}
	return restCheck("create auction "+auction.AuctionID, res, err)
}

func (r *RestRepo) DeleteAuction(ctx context.Context, auctionID string) error {
	var deleted []restIDRow
	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+auctionID).
		SetQueryParam("select", "id").
		SetResult(&deleted).
		Delete("/auctions")
	if err := restCheck("delete auction "+auctionID, res, err); err != nil {
		return err
	}
	if len(deleted) == 0 {
		return fmt.Errorf("delete auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return nil
}

type placeBidParams struct {
	BidID     string  `json:"p_bid_id"`
	AuctionID string  `json:"p_auction_id"`
	UserID    string  `json:"p_user_id"`
	Amount    float64 `json:"p_amount"`
}

// place_bid outcomes
var placeBidErrors = map[string]error{
	"not_found":      biddingerrors.ErrAuctionNotFound,
	"not_active":     biddingerrors.ErrInvalidAuctionState,
	"expired":        biddingerrors.ErrAuctionExpired,
	"invalid_amount": biddingerrors.ErrInvalidAmount,
	"bid_too_low":    biddingerrors.ErrBidTooLow,
}

func (r *RestRepo) RecordBid(ctx context.Context, bid model.Bid) error {
	op := "record bid for auction " + bid.AuctionID
	// expiry is judged by the database clock; only the amount is checked here
	if _, err := bidrules.AmountFromFloat(bid.Amount); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var outcome string
	res, err := r.client.R().
		SetContext(ctx).
		SetBody(placeBidParams{
			BidID:     bid.BidID,
			AuctionID: bid.AuctionID,
			UserID:    bid.UserID,
			Amount:    bid.Amount,
		}).
		SetResult(&outcome).
		Post("/rpc/place_bid")
	if err := restCheck(op, res, err); err != nil {
		return err
	}
	if outcome == "accepted" {
		return nil
	}
	if known, ok := placeBidErrors[outcome]; ok {
		return fmt.Errorf("%s: %w", op, known)
	}
	return fmt.Errorf("%s: %w: unexpected outcome %q", op, biddingerrors.ErrBackendUnavailable, outcome)
}

func (r *RestRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.BidEntry, error) {
	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}

	var rows []struct {
		restBid
		Profile *struct {
			Email string `json:"email"`
		} `json:"profiles"`
	}
	res, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("select", "id,auction_id,user_id,amount,timestamp,profiles(email)").
		SetQueryParam("auction_id", "eq."+auctionID).
		SetQueryParam("order", "timestamp.desc,id.desc").
		SetResult(&rows).
		Get("/bids")
	if err := restCheck("get bids for auction "+auctionID, res, err); err != nil {
		return nil, err
	}

	out := make([]model.BidEntry, 0, len(rows))
	for _, row := range rows {
		e := model.BidEntry{Bid: row.restBid.model()}
		if row.Profile != nil {
			e.BidderEmail = row.Profile.Email
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *RestRepo) GetBidsByUser(ctx context.Context, userID string) ([]model.UserBid, error) {
	var rows []struct {
		restBid
		Auction *restAuction `json:"auctions"`
	}
	res, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("select", "id,auction_id,user_id,amount,timestamp,auctions(id,title,status,current_bid,end_time)").
		SetQueryParam("user_id", "eq."+userID).
		SetQueryParam("order", "timestamp.desc,id.desc").
		SetResult(&rows).
		Get("/bids")
	if err := restCheck("get bids for user "+userID, res, err); err != nil {
		return nil, err
	}

	out := make([]model.UserBid, 0, len(rows))
	for _, row := range rows {
		if row.Auction == nil {
			continue
		}
		a := row.Auction.model()
		out = append(out, model.UserBid{
			Bid: row.restBid.model(),
			Auction: model.AuctionSummary{
				AuctionID:  a.AuctionID,
				Title:      a.Title,
				Status:     a.Status,
				CurrentBid: a.CurrentBid,
				EndTime:    a.EndTime,
			},
		})
	}
	return out, nil
}

func (r *RestRepo) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	var rows []restProfile
	res, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("select", "id,email,role").
		SetQueryParam("id", "eq."+userID).
		SetResult(&rows).
		Get("/profiles")
	if err := restCheck("get profile "+userID, res, err); err != nil {
		return model.Profile{}, err
	}
	if len(rows) == 0 {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", userID, biddingerrors.ErrProfileNotFound)
	}
	return model.Profile{UserID: rows[0].ID, Email: rows[0].Email, Role: model.Role(rows[0].Role)}, nil
}

func (r *RestRepo) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	var closed []restIDRow
	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("status", "eq.active").
		SetQueryParam("end_time", "lte."+restTime(now)).
		SetQueryParam("select", "id").
		SetBody(map[string]string{"status": string(model.StatusEnded)}).
		SetResult(&closed).
		Patch("/auctions")
	if err := restCheck("close expired auctions", res, err); err != nil {
		return 0, err
	}
	return len(closed), nil
}

// SaveProfile upserts a profile
func (r *RestRepo) SaveProfile(ctx context.Context, profile model.Profile) error {
	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody(restProfile{ID: profile.UserID, Email: profile.Email, Role: string(profile.Role)}).
		Post("/profiles")
	return restCheck("save profile "+profile.UserID, res, err)
}
