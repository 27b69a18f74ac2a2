package catalog

import "github.com/ilmhub/coinhub/internal/model"

// Offer is a catalog item annotated for a given balance.
type Offer struct {
	model.RewardItem
	CanAfford bool `json:"canAfford"`
	Shortfall int  `json:"shortfall"`
	InStock   bool `json:"inStock"`
}

// CanAfford reports whether coins cover one unit of item.
func CanAfford(item model.RewardItem, coins int) bool {
	return coins >= item.Cost
}

// Shortfall returns how many more coins are needed for one unit, or 0.
func Shortfall(item model.RewardItem, coins int) int {
	return max(0, item.Cost-coins)
}

// View annotates items for a student holding coins. Order is preserved.
func View(items []model.RewardItem, coins int) []Offer {
	offers := make([]Offer, 0, len(items))
	for _, it := range items {
		offers = append(offers, Offer{
			RewardItem: it,
			CanAfford:  CanAfford(it, coins),
			Shortfall:  Shortfall(it, coins),
			InStock:    it.Stock > 0,
		})
	}
	return offers
}
