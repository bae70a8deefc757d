package model

// Product is a catalog entry users can redeem points for.
type Product struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}
