package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	bidding "auction-marketplace/internal/biddingService"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration-secret"

// TestEnv is a full router backed by an in-memory store
type TestEnv struct {
	Router *gin.Engine
	Repo   *repository.MemoryRepo
	Parser *session.Parser
}

// SetupTestEnv seeds the repo with the given auctions plus one admin and two users
func SetupTestEnv(auctions ...model.Auction) *TestEnv {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()

	repo.AddProfile(model.Profile{UserID: "admin1", Email: "admin@example.com", Role: model.RoleAdmin})
	repo.AddProfile(model.Profile{UserID: "user1", Email: "one@example.com", Role: model.RoleUser})
	repo.AddProfile(model.Profile{UserID: "user2", Email: "two@example.com", Role: model.RoleUser})
	for _, a := range auctions {
		repo.AddAuction(a)
	}

	parser := session.NewParser(testSecret)
	service := bidding.NewBiddingService(repo)
	return &TestEnv{Router: server.SetupRouter(service, parser), Repo: repo, Parser: parser}
}

// Token issues a session token for userID
func (e *TestEnv) Token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.Parser.Issue(userID, userID+"@example.com", model.RoleUser, time.Hour)
	require.NoError(t, err)
	return tok
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses
// the response envelope. token may be empty.
func (e *TestEnv) ExecuteRequestAndParse(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	e.Router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

func openAuction(id string, currentBid float64, endIn time.Duration) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:   id,
		Title:       "Auction " + id,
		Description: "Integration auction",
		CurrentBid:  currentBid,
		EndTime:     now.Add(endIn),
		Status:      model.StatusActive,
		CreatedAt:   now,
	}
}
