package integrationtests

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	model "auction-marketplace/internal/models"

	"github.com/stretchr/testify/require"
)

// PlaceBidHandler Tests
func TestPlaceBid(t *testing.T) {
	ended := openAuction("ended", 10, time.Hour)
	ended.Status = model.StatusEnded

	tests := []struct {
		name       string
		auctionID  string
		userID     string
		request    any
		wantStatus int
		wantMsg    string
	}{
		{name: "Valid_Bid", auctionID: "a1", userID: "user1", request: `{"amount": 2500.01}`, wantStatus: http.StatusCreated, wantMsg: "bid recorded successfully"},
		{name: "String_Amount", auctionID: "a1", userID: "user1", request: `{"amount": "2600"}`, wantStatus: http.StatusCreated, wantMsg: "bid recorded successfully"},
		{name: "Equal_To_Current", auctionID: "a1", userID: "user1", request: `{"amount": 2500}`, wantStatus: http.StatusConflict, wantMsg: "bid amount too low"},
		{name: "Zero_Amount", auctionID: "a1", userID: "user1", request: `{"amount": 0}`, wantStatus: http.StatusBadRequest, wantMsg: "invalid bid amount"},
		{name: "Expired", auctionID: "expired", userID: "user1", request: `{"amount": 99999}`, wantStatus: http.StatusConflict, wantMsg: "auction has ended"},
		{name: "Ended_Status", auctionID: "ended", userID: "user1", request: `{"amount": 99999}`, wantStatus: http.StatusConflict, wantMsg: "auction is not active"},
		{name: "Non_Numeric_Amount", auctionID: "a1", userID: "user1", request: `{"amount": "abc"}`, wantStatus: http.StatusBadRequest, wantMsg: "invalid bid amount"},
		{name: "Non_Numeric_On_Ended", auctionID: "ended", userID: "user1", request: `{"amount": "abc"}`, wantStatus: http.StatusConflict, wantMsg: "auction is not active"},
		{name: "Non_Numeric_On_Expired", auctionID: "expired", userID: "user1", request: `{"amount": "abc"}`, wantStatus: http.StatusConflict, wantMsg: "auction has ended"},
		{name: "Beyond_Float_Range", auctionID: "a1", userID: "user1", request: `{"amount": 1e1000}`, wantStatus: http.StatusBadRequest, wantMsg: "invalid bid amount"},
		{name: "Huge_Exponent", auctionID: "a1", userID: "user1", request: `{"amount": 1e20000000}`, wantStatus: http.StatusBadRequest, wantMsg: "invalid bid amount"},
		{name: "Above_Money_Limit", auctionID: "a1", userID: "user1", request: `{"amount": "1000000000000"}`, wantStatus: http.StatusBadRequest, wantMsg: "invalid bid amount"},
		{name: "Unknown_Auction", auctionID: "nope", userID: "user1", request: `{"amount": 10}`, wantStatus: http.StatusNotFound, wantMsg: "auction not found"},
		{name: "No_Session", auctionID: "a1", userID: "", request: `{"amount": 3000}`, wantStatus: http.StatusUnauthorized, wantMsg: "authentication required"},
		{name: "Invalid_JSON", auctionID: "a1", userID: "user1", request: "{amount: 'missing quotes'}", wantStatus: http.StatusBadRequest, wantMsg: "invalid request payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := SetupTestEnv(openAuction("a1", 2500, time.Hour), openAuction("expired", 10, -time.Second), ended)
			token := ""
			if tt.userID != "" {
				token = env.Token(t, tt.userID)
			}

			resp, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/"+tt.auctionID+"/bids", token, tt.request)
			require.Equal(t, tt.wantStatus, w.Code)
			require.Equal(t, tt.wantMsg, resp["message"])

			if tt.wantStatus == http.StatusCreated {
				data := resp["data"].(map[string]any)
				require.Equal(t, tt.auctionID, data["auction_id"])
				require.Equal(t, tt.userID, data["user_id"])
				require.NotEmpty(t, data["bid_id"])
				_, err := time.Parse(time.RFC3339, data["timestamp"].(string))
				require.NoError(t, err)
			}
		})
	}
}

// End-to-end browse flow: list, detail, history, profile
func TestAuctionLifecycle(t *testing.T) {
	env := SetupTestEnv(openAuction("a1", 100, 2*time.Hour), openAuction("a2", 50, 30*time.Minute))
	user1, user2 := env.Token(t, "user1"), env.Token(t, "user2")

	for _, step := range []struct {
		token  string
		amount string
	}{
		{user1, "150"}, {user2, "175.5"}, {user1, "200"},
	} {
		_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/a1/bids", step.token, fmt.Sprintf(`{"amount": %s}`, step.amount))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	resp, w := env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions?status=active", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := resp["data"].([]any)
	require.Len(t, list, 2)
	require.Equal(t, "a2", list[0].(map[string]any)["auction_id"], "ordered by end time")

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/a1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := resp["data"].(map[string]any)
	require.Equal(t, 200.0, detail["current_bid"])
	require.Equal(t, 200.01, detail["min_next_bid"])
	require.Regexp(t, `^\d+h \d+m$`, detail["time_remaining"])
	bids := detail["bids"].([]any)
	require.Len(t, bids, 3)
	require.Equal(t, 200.0, bids[0].(map[string]any)["amount"], "newest first")
	require.Equal(t, "one@example.com", bids[0].(map[string]any)["bidder_email"])

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/a1/bids", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 3)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/me/bids", user2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := resp["data"].([]any)
	require.Len(t, mine, 1)
	require.Equal(t, "active", mine[0].(map[string]any)["outcome"])

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/me/profile", user1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := resp["data"].(map[string]any)
	require.Equal(t, "one@example.com", profile["email"])
	require.Equal(t, 2.0, profile["total_bids"])
	require.Equal(t, 0.0, profile["won_auctions"])

	_, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/me/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// Outcomes after the closer has run
func TestOutcomesAfterClose(t *testing.T) {
	env := SetupTestEnv(openAuction("a1", 10, time.Hour))
	user1, user2 := env.Token(t, "user1"), env.Token(t, "user2")

	_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/a1/bids", user1, `{"amount": 20}`)
	require.Equal(t, http.StatusCreated, w.Code)
	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/a1/bids", user2, `{"amount": 30}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// the closer runs with a clock past the end time
	closed, err := env.Repo.CloseExpired(context.Background(), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	resp, _ := env.ExecuteRequestAndParse(t, http.MethodGet, "/me/bids", user2, nil)
	require.Equal(t, "won", resp["data"].([]any)[0].(map[string]any)["outcome"])
	resp, _ = env.ExecuteRequestAndParse(t, http.MethodGet, "/me/bids", user1, nil)
	require.Equal(t, "lost", resp["data"].([]any)[0].(map[string]any)["outcome"])

	resp, _ = env.ExecuteRequestAndParse(t, http.MethodGet, "/me/profile", user2, nil)
	require.Equal(t, 1.0, resp["data"].(map[string]any)["won_auctions"])

	resp, w = env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/a1/bids", user1, `{"amount": 1000}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "auction is not active", resp["message"])
}

// Admin Tests
func TestAdminAuctions(t *testing.T) {
	env := SetupTestEnv()
	admin, user := env.Token(t, "admin1"), env.Token(t, "user1")
	end := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{"title":"Camera","description":"Rangefinder","start_bid":950,"end_time":%q}`, end)

	_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/admin/auctions", "", body)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	resp, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/admin/auctions", user, body)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "admin role required", resp["message"])

	// a forged admin claim does not help: the stored profile decides
	forged, err := env.Parser.Issue("user1", "one@example.com", model.RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, "/admin/auctions", forged, body)
	require.Equal(t, http.StatusForbidden, w.Code)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodPost, "/admin/auctions", admin, body)
	require.Equal(t, http.StatusCreated, w.Code)
	created := resp["data"].(map[string]any)
	auctionID := created["auction_id"].(string)
	require.Equal(t, "active", created["status"])
	require.Equal(t, 950.0, created["current_bid"])

	past := fmt.Sprintf(`{"title":"Camera","description":"Rangefinder","start_bid":1,"end_time":%q}`, time.Now().Add(-time.Hour).UTC().Format(time.RFC3339))
	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, "/admin/auctions", admin, past)
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/"+auctionID+"/bids", user, `{"amount": 1000}`)
	require.Equal(t, http.StatusCreated, w.Code)

	_, w = env.ExecuteRequestAndParse(t, http.MethodDelete, "/admin/auctions/"+auctionID, user, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	_, w = env.ExecuteRequestAndParse(t, http.MethodDelete, "/admin/auctions/"+auctionID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/"+auctionID, "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	resp, _ = env.ExecuteRequestAndParse(t, http.MethodGet, "/me/bids", user, nil)
	require.Empty(t, resp["data"].([]any))

	_, w = env.ExecuteRequestAndParse(t, http.MethodDelete, "/admin/auctions/"+auctionID, admin, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

// Concurrent bidders through the whole stack
func TestConcurrentBids(t *testing.T) {
	env := SetupTestEnv(openAuction("hot", 0, time.Hour))
	tokens := []string{env.Token(t, "user1"), env.Token(t, "user2")}

	var wg sync.WaitGroup
	codes := make(chan int, 40)
	for i := 1; i <= 20; i++ {
		for _, tok := range tokens {
			wg.Add(1)
			go func(amount int, tok string) {
				defer wg.Done()
				_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/hot/bids", tok, fmt.Sprintf(`{"amount": %d}`, amount))
				codes <- w.Code
			}(i, tok)
		}
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		require.Contains(t, []int{http.StatusCreated, http.StatusConflict}, code)
	}

	resp, _ := env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/hot", "", nil)
	detail := resp["data"].(map[string]any)
	require.Equal(t, 20.0, detail["current_bid"])

	seen := map[float64]bool{}
	for _, b := range detail["bids"].([]any) {
		amount := b.(map[string]any)["amount"].(float64)
		require.False(t, seen[amount], "amount %v accepted twice", amount)
		seen[amount] = true
	}
}
