package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Deal is a single buy transaction. Deals are never updated: a correction is a
// delete followed by a new deal.
type Deal struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	CurrencyID string    `json:"currency_id"` // CoinGecko asset id, e.g. "bitcoin"
	Count      float64   `json:"count"`       // units of the asset
	Price      float64   `json:"price"`       // fiat per unit at purchase time
	CreatedAt  time.Time `json:"created_at"`
}

// Cost is the fiat amount paid for the deal.
func (d Deal) Cost() float64 {
	return d.Count * d.Price
}

// DealRequest is the payload accepted when a user records a new deal.
type DealRequest struct {
	CurrencyID string  `json:"currency_id" binding:"required" validate:"required"`
	Count      float64 `json:"count" binding:"required,gt=0" validate:"gt=0"`
	Price      float64 `json:"price" binding:"required,gt=0" validate:"gt=0"`
}

// Validate rejects requests that cannot become a valid Deal.
func (r DealRequest) Validate() error {
	if r.Count <= 0 {
		return &ValidationError{Field: "count", Reason: "must be greater than zero"}
	}
	if r.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be greater than zero"}
	}
	if err := validate.Struct(r); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return &ValidationError{Field: fieldErrs[0].Field(), Reason: "failed on " + fieldErrs[0].Tag()}
		}
		return &ValidationError{Reason: err.Error()}
	}
	return nil
}

// NewDeal builds the deal a request describes for the given user.
func (r DealRequest) NewDeal(userID int64, now time.Time) Deal {
	return Deal{
		UserID:     userID,
		CurrencyID: r.CurrencyID,
		Count:      r.Count,
		Price:      r.Price,
		CreatedAt:  now.UTC(),
	}
}
