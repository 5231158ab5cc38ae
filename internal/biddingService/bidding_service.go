package bidding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/bidrules"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("auction-marketplace/bidding")

// BiddingService defines the business logic for the marketplace
type BiddingService struct {
	repo repository.AuctionDB
	now  func() time.Time
}

// Option configures a BiddingService
type Option func(*BiddingService)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *BiddingService) { s.now = now }
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "BiddingService."+name, trace.WithAttributes(attrs...))
}

// fail records err on the span and returns it unchanged
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// PlaceBid checks a bid against the auction and records it.
// The store re-applies the same rule atomically, so a bid that loses a race
// between the lookup and the insert still comes back as ErrBidTooLow.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, userID, rawAmount string) (models.Bid, error) {
	ctx, span := startSpan(ctx, "PlaceBid", attribute.String("auction.id", auctionID), attribute.String("user.id", userID))
	defer span.End()

	if userID == "" {
		return models.Bid{}, fail(span, fmt.Errorf("service: %w", biddingerrors.ErrUnauthenticated))
	}
	if auctionID == "" {
		return models.Bid{}, fail(span, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidRequest))
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Bid{}, fail(span, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err))
	}

	now := s.now()
	amount, err := bidrules.Evaluate(rawAmount, bidrules.StateOf(auction), now)
	if err != nil {
		return models.Bid{}, fail(span, fmt.Errorf("service: %w", err))
	}
	value, _ := amount.Float64()

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		UserID:    userID,
		Amount:    value,
		Timestamp: now,
	}
	if err := s.repo.RecordBid(ctx, bid); err != nil {
		return models.Bid{}, fail(span, fmt.Errorf("service: failed to record bid on auction %s by user %s: %w", auctionID, userID, err))
	}

	span.SetAttributes(attribute.String("bid.id", bid.BidID), attribute.Float64("bid.amount", bid.Amount))
	return bid, nil
}

// ListAuctions returns auctions as displayed now, optionally narrowed to an
// effective status
func (s *BiddingService) ListAuctions(ctx context.Context, status models.AuctionStatus) ([]models.AuctionView, error) {
	ctx, span := startSpan(ctx, "ListAuctions", attribute.String("auction.status", string(status)))
	defer span.End()

	if status != "" && !status.Valid() {
		return nil, fail(span, fmt.Errorf("service: %w - unknown status %q", biddingerrors.ErrInvalidRequest, status))
	}

	now := s.now()
	auctions, err := s.repo.ListAuctions(ctx, models.AuctionFilter{Status: status, Now: now})
	if err != nil {
		return nil, fail(span, fmt.Errorf("service: failed to list auctions: %w", err))
	}

	views := make([]models.AuctionView, 0, len(auctions))
	for _, a := range auctions {
		views = append(views, viewOf(a, now))
	}
	return views, nil
}

// GetAuction returns one auction with its bid history, newest first
func (s *BiddingService) GetAuction(ctx context.Context, auctionID string) (models.AuctionDetail, error) {
	ctx, span := startSpan(ctx, "GetAuction", attribute.String("auction.id", auctionID))
	defer span.End()

	if auctionID == "" {
		return models.AuctionDetail{}, fail(span, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidRequest))
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.AuctionDetail{}, fail(span, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err))
	}
	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return models.AuctionDetail{}, fail(span, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err))
	}
	if bids == nil {
		bids = []models.BidEntry{}
	}

	return models.AuctionDetail{AuctionView: viewOf(auction, s.now()), Bids: bids}, nil
}

// GetBidsForAuction returns all bids for an auction, newest first
func (s *BiddingService) GetBidsForAuction(ctx context.Context, auctionID string) ([]models.BidEntry, error) {
	ctx, span := startSpan(ctx, "GetBidsForAuction", attribute.String("auction.id", auctionID))
	defer span.End()

	if auctionID == "" {
		return nil, fail(span, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidRequest))
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err))
	}
	return bids, nil
}

// GetUserBids returns the caller's bid history with a won/lost/active outcome
func (s *BiddingService) GetUserBids(ctx context.Context, userID string) ([]models.UserBid, error) {
	ctx, span := startSpan(ctx, "GetUserBids", attribute.String("user.id", userID))
	defer span.End()

	if userID == "" {
		return nil, fail(span, fmt.Errorf("service: %w", biddingerrors.ErrUnauthenticated))
	}

	bids, err := s.repo.GetBidsByUser(ctx, userID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("service: failed to get bids for user %s: %w", userID, err))
	}

	now := s.now()
	out := make([]models.UserBid, 0, len(bids))
	for _, b := range bids {
		out = append(out, withOutcome(b, now))
	}
	return out, nil
}

// GetProfile returns the caller's profile with bid and win totals
func (s *BiddingService) GetProfile(ctx context.Context, userID string) (models.ProfileSummary, error) {
	ctx, span := startSpan(ctx, "GetProfile", attribute.String("user.id", userID))
	defer span.End()

	if userID == "" {
		return models.ProfileSummary{}, fail(span, fmt.Errorf("service: %w", biddingerrors.ErrUnauthenticated))
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return models.ProfileSummary{}, fail(span, fmt.Errorf("service: failed to get profile %s: %w", userID, err))
	}
	bids, err := s.repo.GetBidsByUser(ctx, userID)
	if err != nil {
		return models.ProfileSummary{}, fail(span, fmt.Errorf("service: failed to get bids for user %s: %w", userID, err))
	}

	now := s.now()
	won := make(map[string]struct{})
	for _, b := range bids {
		if withOutcome(b, now).Outcome == models.OutcomeWon {
			won[b.AuctionID] = struct{}{}
		}
	}

	return models.ProfileSummary{Profile: profile, TotalBids: len(bids), WonAuctions: len(won)}, nil
}

// CreateAuction opens a new auction on behalf of an admin
func (s *BiddingService) CreateAuction(ctx context.Context, userID string, input models.NewAuction) (models.Auction, error) {
	ctx, span := startSpan(ctx, "CreateAuction", attribute.String("user.id", userID))
	defer span.End()

	if err := s.authorizeAdmin(ctx, userID); err != nil {
		return models.Auction{}, fail(span, err)
	}

	now := s.now()
	startBid, err := validateNewAuction(input, now)
	if err != nil {
		return models.Auction{}, fail(span, err)
	}

	auction := models.Auction{
		AuctionID:   utils.GenerateID(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		CurrentBid:  startBid,
		EndTime:     input.EndTime.UTC(),
		Status:      models.StatusActive,
		CreatedAt:   now,
	}
	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, fail(span, fmt.Errorf("service: failed to create auction: %w", err))
	}

	span.SetAttributes(attribute.String("auction.id", auction.AuctionID))
	return auction, nil
}

// DeleteAuction removes an auction and its bids on behalf of an admin
func (s *BiddingService) DeleteAuction(ctx context.Context, userID, auctionID string) error {
	ctx, span := startSpan(ctx, "DeleteAuction", attribute.String("user.id", userID), attribute.String("auction.id", auctionID))
	defer span.End()

	if err := s.authorizeAdmin(ctx, userID); err != nil {
		return fail(span, err)
	}
	if auctionID == "" {
		return fail(span, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidRequest))
	}
	if err := s.repo.DeleteAuction(ctx, auctionID); err != nil {
		return fail(span, fmt.Errorf("service: failed to delete auction %s: %w", auctionID, err))
	}
	return nil
}

// CloseExpired flips every active auction past its end time to ended
func (s *BiddingService) CloseExpired(ctx context.Context) (int, error) {
	ctx, span := startSpan(ctx, "CloseExpired")
	defer span.End()

	closed, err := s.repo.CloseExpired(ctx, s.now())
	if err != nil {
		return 0, fail(span, fmt.Errorf("service: failed to close expired auctions: %w", err))
	}
	span.SetAttributes(attribute.Int("auctions.closed", closed))
	return closed, nil
}

// authorizeAdmin checks the stored profile role. Token claims are not trusted
// for this.
func (s *BiddingService) authorizeAdmin(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("service: %w", biddingerrors.ErrUnauthenticated)
	}
	profile, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, biddingerrors.ErrProfileNotFound) {
		return fmt.Errorf("service: %w - no profile for user %s", biddingerrors.ErrForbidden, userID)
	}
	if err != nil {
		return fmt.Errorf("service: failed to load profile %s: %w", userID, err)
	}
	if !profile.IsAdmin() {
		return fmt.Errorf("service: %w - user %s has role %q", biddingerrors.ErrForbidden, userID, profile.Role)
	}
	return nil
}

// validateNewAuction checks admin input and returns the start bid rounded to cents
func validateNewAuction(input models.NewAuction, now time.Time) (float64, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return 0, fmt.Errorf("service: %w - title and description are required", biddingerrors.ErrInvalidAuction)
	}
	if math.IsNaN(input.StartBid) || math.IsInf(input.StartBid, 0) || input.StartBid < 0 {
		return 0, fmt.Errorf("service: %w - start bid must be a non-negative number", biddingerrors.ErrInvalidAuction)
	}
	if decimal.NewFromFloat(input.StartBid).GreaterThan(bidrules.MaxAmount) {
		return 0, fmt.Errorf("service: %w - start bid exceeds %s", biddingerrors.ErrInvalidAuction, bidrules.MaxAmount.StringFixed(2))
	}
	if !input.EndTime.After(now) {
		return 0, fmt.Errorf("service: %w - end time must be in the future", biddingerrors.ErrInvalidAuction)
	}
	startBid, _ := decimal.NewFromFloat(input.StartBid).Round(2).Float64()
	return startBid, nil
}

func viewOf(a models.Auction, now time.Time) models.AuctionView {
	a.Status = a.EffectiveStatus(now)
	return models.AuctionView{
		Auction:       a,
		TimeRemaining: bidrules.FormatTimeRemaining(a.EndTime, now),
		MinNextBid:    bidrules.MinNextBid(a.CurrentBid),
	}
}

// withOutcome marks a bid active while its auction is open; afterwards the
// bid that matches the closing price won.
func withOutcome(b models.UserBid, now time.Time) models.UserBid {
	open := b.Auction.Status == models.StatusActive && now.Before(b.Auction.EndTime)
	switch {
	case open:
		b.Outcome = models.OutcomeActive
	case decimal.NewFromFloat(b.Amount).Round(2).Equal(decimal.NewFromFloat(b.Auction.CurrentBid).Round(2)):
		b.Outcome = models.OutcomeWon
		b.Auction.Status = models.StatusEnded
	default:
		b.Outcome = models.OutcomeLost
		b.Auction.Status = models.StatusEnded
	}
	return b
}
