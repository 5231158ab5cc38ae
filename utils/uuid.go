package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new random UUID string for auctions, bids and requests
func GenerateID() string {
	return uuid.New().String()
}
