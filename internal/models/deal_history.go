package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealHistory is one executed deal reported back by a client terminal.
// Integer/enum columns follow the MQL5 deal properties:
// https://www.mql5.com/en/docs/constants/tradingconstants/dealproperties
//
// The natural key is (client_id, time, deal_ticket); re-ingesting a row
// with the same key overwrites every non-key column.
type DealHistory struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"-"`

	ClientID   string `gorm:"type:varchar(100);not null;uniqueIndex:idx_deal_history_natural,priority:1" json:"client_id"`
	Time       int64  `gorm:"not null;uniqueIndex:idx_deal_history_natural,priority:2" json:"time"`
	DealTicket int64  `gorm:"not null;uniqueIndex:idx_deal_history_natural,priority:3" json:"deal_ticket"`

	OrderTicket int64 `json:"order_ticket"`
	Magic       int64 `json:"magic"`
	Entry       int32 `json:"entry"`
	Reason      int32 `json:"reason"`
	Position    int64 `json:"position"`

	Action         string `gorm:"type:varchar(30)" json:"action"`
	Symbol         string `gorm:"type:varchar(30)" json:"symbol"`
	Comment        string `gorm:"type:text" json:"comment"`
	ExternalDealID string `gorm:"type:varchar(100)" json:"external_deal_id"`

	Volume     decimal.Decimal `gorm:"type:numeric(20,8)" json:"volume"`
	Price      decimal.Decimal `gorm:"type:numeric(20,8)" json:"price"`
	Profit     decimal.Decimal `gorm:"type:numeric(20,8)" json:"profit"`
	Commission decimal.Decimal `gorm:"type:numeric(20,8)" json:"commission"`
	Swap       decimal.Decimal `gorm:"type:numeric(20,8)" json:"swap"`
	Fee        decimal.Decimal `gorm:"type:numeric(20,8)" json:"fee"`
	StopLoss   decimal.Decimal `gorm:"column:stop_loss;type:numeric(20,8)" json:"stop_loss"`
	TakeProfit decimal.Decimal `gorm:"type:numeric(20,8)" json:"take_profit"`

	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"-"`
}

func (DealHistory) TableName() string {
	return "deal_history"
}
