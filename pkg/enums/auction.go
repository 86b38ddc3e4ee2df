package enums

import "fmt"

// AuctionStatus maps to the auction_status enum in Postgres.
type AuctionStatus string

const (
	AuctionStatusActive   AuctionStatus = "active"
	AuctionStatusExpired  AuctionStatus = "expired"
	AuctionStatusArchived AuctionStatus = "archived"
)

var validAuctionStatuses = []AuctionStatus{
	AuctionStatusActive,
	AuctionStatusExpired,
	AuctionStatusArchived,
}

// IsValid reports whether the value matches the canonical auction_status enum.
func (s AuctionStatus) IsValid() bool {
	for _, candidate := range validAuctionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAuctionStatus converts raw input into AuctionStatus.
func ParseAuctionStatus(value string) (AuctionStatus, error) {
	for _, candidate := range validAuctionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auction status %q", value)
}
