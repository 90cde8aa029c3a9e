package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusRented    ItemStatus = "rented"
	ItemStatusDispute   ItemStatus = "dispute"
	ItemStatusInactive  ItemStatus = "inactive"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusAvailable, ItemStatusRented, ItemStatusDispute, ItemStatusInactive:
		return true
	}
	return false
}

// Item carries the lending terms read from the catalog.
type Item struct {
	ID           int32           `json:"id"`
	LenderID     int32           `json:"lender_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Location     string          `json:"location"`
	DailyDeposit decimal.Decimal `json:"daily_deposit"`
	MinDays      int32           `json:"min_days"`
	MaxDays      int32           `json:"max_days"`
	Images       []string        `json:"images"`
	IsActive     bool            `json:"is_active"`
	Status       ItemStatus      `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}
