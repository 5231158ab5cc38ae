package bidding

import (
	"context"
	"time"

	"auction-marketplace/utils"
)

// RunAuctionCloser calls CloseExpired every interval until ctx is cancelled.
func (s *BiddingService) RunAuctionCloser(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	utils.Info("auction closer started", map[string]any{"interval": interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.Info("auction closer stopped", nil)
			return
		case <-ticker.C:
			closed, err := s.CloseExpired(ctx)
			if err != nil {
				utils.Warn("auction closer: close expired failed", map[string]any{"error": err.Error()})
				continue
			}
			if closed > 0 {
				utils.Info("auction closer: auctions ended", map[string]any{"count": closed})
			}
		}
	}
}
