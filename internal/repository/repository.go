package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/bidrules"
	model "auction-marketplace/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionDB defines the storage interface for the marketplace.
//
// RecordBid must apply bidrules.Check and the current_bid update as one
// atomic step against the stored auction.
type AuctionDB interface {
	ListAuctions(ctx context.Context, filter model.AuctionFilter) ([]model.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	CreateAuction(ctx context.Context, auction model.Auction) error
	DeleteAuction(ctx context.Context, auctionID string) error
	RecordBid(ctx context.Context, bid model.Bid) error
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.BidEntry, error)
	GetBidsByUser(ctx context.Context, userID string) ([]model.UserBid, error)
	GetProfile(ctx context.Context, userID string) (model.Profile, error)
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

// Seeder is implemented by stores that accept fixture data
type Seeder interface {
	CreateAuction(ctx context.Context, auction model.Auction) error
	SaveProfile(ctx context.Context, profile model.Profile) error
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu           sync.RWMutex
	auctions     map[string]model.Auction // key: auctionID
	bids         map[string][]model.Bid   // key: auctionID -> bids in insertion order
	profiles     map[string]model.Profile // key: userID
	userAuctions map[string][]string      // key: userID -> auctionIDs the user has bid on
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:     make(map[string]model.Auction),
		bids:         make(map[string][]model.Bid),
		profiles:     make(map[string]model.Profile),
		userAuctions: make(map[string][]string),
	}
}

// ListAuctions returns auctions ordered by end time, soonest first
func (r *MemoryRepo) ListAuctions(_ context.Context, filter model.AuctionFilter) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		if filter.Status != "" && a.EffectiveStatus(filter.Now) != filter.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EndTime.Equal(out[j].EndTime) {
			return out[i].AuctionID < out[j].AuctionID
		}
		return out[i].EndTime.Before(out[j].EndTime)
	})
	return out, nil
}

// GetAuction returns a single auction
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// CreateAuction stores a new auction
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.auctions[auction.AuctionID]; exists {
		return fmt.Errorf("create auction %s: %w - duplicate id", auction.AuctionID, biddingerrors.ErrInvalidAuction)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// DeleteAuction removes an auction together with its bids
func (r *MemoryRepo) DeleteAuction(_ context.Context, auctionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	for _, b := range r.bids[auctionID] {
		r.userAuctions[b.UserID] = removeID(r.userAuctions[b.UserID], auctionID)
		if len(r.userAuctions[b.UserID]) == 0 {
			delete(r.userAuctions, b.UserID)
		}
	}
	delete(r.bids, auctionID)
	delete(r.auctions, auctionID)
	return nil
}

// RecordBid re-checks the bid against the stored auction and, if it still
// wins, appends it and raises current_bid under the same lock.
func (r *MemoryRepo) RecordBid(_ context.Context, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[bid.AuctionID]
	if !ok {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	if err := bidrules.Check(bid.Amount, bidrules.StateOf(auction), bid.Timestamp); err != nil {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, err)
	}

	auction.CurrentBid = bid.Amount
	r.auctions[bid.AuctionID] = auction
	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)

	for _, id := range r.userAuctions[bid.UserID] {
		if id == bid.AuctionID {
			return nil
		}
	}
	r.userAuctions[bid.UserID] = append(r.userAuctions[bid.UserID], bid.AuctionID)
	return nil
}

// GetBidsByAuction returns an auction's bids, newest first
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]model.BidEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	bids := r.bids[auctionID]
	out := make([]model.BidEntry, 0, len(bids))
	for i := len(bids) - 1; i >= 0; i-- {
		out = append(out, model.BidEntry{Bid: bids[i], BidderEmail: r.profiles[bids[i].UserID].Email})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// GetBidsByUser returns every bid a user placed, newest first, with the
// auction it was placed on
func (r *MemoryRepo) GetBidsByUser(_ context.Context, userID string) ([]model.UserBid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.UserBid, 0)
	for _, auctionID := range r.userAuctions[userID] {
		auction, ok := r.auctions[auctionID]
		if !ok {
			continue
		}
		summary := model.AuctionSummary{
			AuctionID:  auction.AuctionID,
			Title:      auction.Title,
			Status:     auction.Status,
			CurrentBid: auction.CurrentBid,
			EndTime:    auction.EndTime,
		}
		for _, b := range r.bids[auctionID] {
			if b.UserID == userID {
				out = append(out, model.UserBid{Bid: b, Auction: summary})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// GetProfile returns a user's profile
func (r *MemoryRepo) GetProfile(_ context.Context, userID string) (model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", userID, biddingerrors.ErrProfileNotFound)
	}
	return p, nil
}

// CloseExpired marks every active auction whose end time has passed as ended
func (r *MemoryRepo) CloseExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := 0
	for id, a := range r.auctions {
		if a.Status == model.StatusActive && !now.Before(a.EndTime) {
			a.Status = model.StatusEnded
			r.auctions[id] = a
			closed++
		}
	}
	return closed, nil
}

// SaveProfile inserts or replaces a profile
func (r *MemoryRepo) SaveProfile(_ context.Context, profile model.Profile) error {
	r.AddProfile(profile)
	return nil
}

// AddAuction adds an auction without validation. Used for seeding and tests.
func (r *MemoryRepo) AddAuction(auction model.Auction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions[auction.AuctionID] = auction
}

// AddProfile adds or replaces a profile. Used for seeding and tests.
func (r *MemoryRepo) AddProfile(profile model.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
