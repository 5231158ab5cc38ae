package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/bidrules"
	model "auction-marketplace/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresRepo implements AuctionDB on PostgreSQL through a pgx pool
type PostgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresRepo wraps an open pool. Schema comes from db.ApplyMigrations.
func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

const auctionColumns = `id, title, description, current_bid, end_time, status, created_at`

func scanAuction(row pgx.Row) (model.Auction, error) {
	var a model.Auction
	var status string
	if err := row.Scan(&a.AuctionID, &a.Title, &a.Description, &a.CurrentBid, &a.EndTime, &status, &a.CreatedAt); err != nil {
		return model.Auction{}, err
	}
	a.Status = model.AuctionStatus(status)
	a.EndTime = a.EndTime.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

// unavailable tags a driver error as a backend failure
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrBackendUnavailable, err)
}

func (r *PostgresRepo) ListAuctions(ctx context.Context, filter model.AuctionFilter) ([]model.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions`
	var args []any
	switch filter.Status {
	case model.StatusActive:
		query += ` WHERE status = 'active' AND end_time > $1`
		args = append(args, filter.Now)
	case model.StatusEnded:
		query += ` WHERE NOT (status = 'active' AND end_time > $1)`
		args = append(args, filter.Now)
	}
	query += ` ORDER BY end_time ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list auctions", err)
	}
	defer rows.Close()

	out := make([]model.Auction, 0)
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, unavailable("list auctions", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list auctions", err)
	}
	return out, nil
}

func (r *PostgresRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	a, err := scanAuction(r.pool.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, auctionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, unavailable("get auction "+auctionID, err)
	}
	return a, nil
}

func (r *PostgresRepo) CreateAuction(ctx context.Context, auction model.Auction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO auctions (id, title, description, current_bid, end_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, auction.AuctionID, auction.Title, auction.Description, auction.CurrentBid, auction.EndTime, string(auction.Status), auction.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("create auction %s: %w - duplicate id", auction.AuctionID, biddingerrors.ErrInvalidAuction)
		}
		return unavailable("create auction "+auction.AuctionID, err)
	}
	return nil
}

// DeleteAuction removes the auction; bids go with it through ON DELETE CASCADE
func (r *PostgresRepo) DeleteAuction(ctx context.Context, auctionID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auctions WHERE id = $1`, auctionID)
	if err != nil {
		return unavailable("delete auction "+auctionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return nil
}

// RecordBid locks the auction row, re-applies the acceptance rule, then
// raises current_bid and inserts the bid in one transaction.
func (r *PostgresRepo) RecordBid(ctx context.Context, bid model.Bid) error {
	op := "record bid for auction " + bid.AuctionID
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return unavailable(op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	auction, err := scanAuction(tx.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1 FOR UPDATE`, bid.AuctionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return unavailable(op, err)
	}
	if err := bidrules.Check(bid.Amount, bidrules.StateOf(auction), bid.Timestamp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.Exec(ctx, `UPDATE auctions SET current_bid = $2 WHERE id = $1`, bid.AuctionID, bid.Amount); err != nil {
		return unavailable(op, err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO bids (id, auction_id, user_id, amount, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, bid.BidID, bid.AuctionID, bid.UserID, bid.Amount, bid.Timestamp)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("%s: %w - user %s", op, biddingerrors.ErrProfileNotFound, bid.UserID)
		}
		return unavailable(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable(op, err)
	}
	return nil
}

func (r *PostgresRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.BidEntry, error) {
	op := "get bids for auction " + auctionID

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM auctions WHERE id = $1)`, auctionID).Scan(&exists); err != nil {
		return nil, unavailable(op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, biddingerrors.ErrAuctionNotFound)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.auction_id, b.user_id, b.amount, b.timestamp, COALESCE(p.email, '')
		FROM bids b
		LEFT JOIN profiles p ON p.id = b.user_id
		WHERE b.auction_id = $1
		ORDER BY b.timestamp DESC, b.id DESC
	`, auctionID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	out := make([]model.BidEntry, 0)
	for rows.Next() {
		var e model.BidEntry
		if err := rows.Scan(&e.BidID, &e.AuctionID, &e.UserID, &e.Amount, &e.Timestamp, &e.BidderEmail); err != nil {
			return nil, unavailable(op, err)
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

func (r *PostgresRepo) GetBidsByUser(ctx context.Context, userID string) ([]model.UserBid, error) {
	op := "get bids for user " + userID
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.auction_id, b.user_id, b.amount, b.timestamp,
		       a.title, a.status, a.current_bid, a.end_time
		FROM bids b
		JOIN auctions a ON a.id = b.auction_id
		WHERE b.user_id = $1
		ORDER BY b.timestamp DESC, b.id DESC
	`, userID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	out := make([]model.UserBid, 0)
	for rows.Next() {
		var ub model.UserBid
		var status string
		if err := rows.Scan(&ub.BidID, &ub.AuctionID, &ub.UserID, &ub.Amount, &ub.Timestamp,
			&ub.Auction.Title, &status, &ub.Auction.CurrentBid, &ub.Auction.EndTime); err != nil {
			return nil, unavailable(op, err)
		}
		ub.Timestamp = ub.Timestamp.UTC()
		ub.Auction.AuctionID = ub.AuctionID
		ub.Auction.Status = model.AuctionStatus(status)
		ub.Auction.EndTime = ub.Auction.EndTime.UTC()
		out = append(out, ub)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

func (r *PostgresRepo) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	var role string
	err := r.pool.QueryRow(ctx, `SELECT id, email, role FROM profiles WHERE id = $1`, userID).Scan(&p.UserID, &p.Email, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", userID, biddingerrors.ErrProfileNotFound)
	}
	if err != nil {
		return model.Profile{}, unavailable("get profile "+userID, err)
	}
	p.Role = model.Role(role)
	return p, nil
}

func (r *PostgresRepo) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE auctions SET status = 'ended' WHERE status = 'active' AND end_time <= $1`, now)
	if err != nil {
		return 0, unavailable("close expired auctions", err)
	}
	return int(tag.RowsAffected()), nil
}

// SaveProfile inserts or updates a profile
func (r *PostgresRepo) SaveProfile(ctx context.Context, profile model.Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, email, role) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role
	`, profile.UserID, profile.Email, string(profile.Role))
	if err != nil {
		return unavailable("save profile "+profile.UserID, err)
	}
	return nil
}
