package models

import (
	"time"

	"gorm.io/datatypes"
)

// TakeProfitLevel is one rung of a multi-level take-profit ladder:
// close Pct percent of the position when price reaches Price.
type TakeProfitLevel struct {
	Price float64 `json:"price"`
	Pct   float64 `json:"pct"`
}

// Signal is a trading instruction addressed to one client terminal.
// SignalID is assigned by the server, never taken from the request.
// Rows are append-only: there is no update or delete path in the API,
// delivery filters on CreatedAt instead of consuming the record.
type Signal struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	SignalID string `gorm:"type:varchar(64);not null;uniqueIndex" json:"signal_id"`
	ClientID string `gorm:"type:varchar(100);not null;index" json:"client_id"`

	Action    string `gorm:"type:varchar(30);not null" json:"action"`
	Symbol    string `gorm:"type:varchar(30);not null" json:"symbol"`
	Direction string `gorm:"type:varchar(10)" json:"direction,omitempty"`

	Volume          *float64 `json:"volume,omitempty"`
	StopLoss        *float64 `gorm:"column:stop_loss" json:"stop_loss,omitempty"`
	TakeProfit      *float64 `json:"take_profit,omitempty"`
	PartialClosePct *float64 `json:"partial_close_pct,omitempty"`

	MultiTakeProfits datatypes.JSONSlice[TakeProfitLevel] `gorm:"type:jsonb" json:"multi_take_profits,omitempty"`

	// Stamped by the service at insert time so freshness never depends
	// on a storage-assigned identifier or a client-supplied value.
	CreatedAt time.Time `gorm:"type:timestamptz;not null;index" json:"created_at"`
}

func (Signal) TableName() string {
	return "signals"
}
