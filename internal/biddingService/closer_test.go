package bidding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
)

func TestRunAuctionCloser(t *testing.T) {
	t.Parallel()

	service, mockRepo := newTestService(t)
	ticks := make(chan struct{}, 1)

	gomock.InOrder(
		mockRepo.EXPECT().CloseExpired(gomock.Any(), fixedNow).Return(0, errors.New("store down")),
		mockRepo.EXPECT().CloseExpired(gomock.Any(), fixedNow).
			DoAndReturn(func(context.Context, time.Time) (int, error) {
				select {
				case ticks <- struct{}{}:
				default:
				}
				return 2, nil
			}).MinTimes(1),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		service.RunAuctionCloser(ctx, 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("closer never reached the store after a failed tick")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("closer did not stop after cancel")
	}
}
