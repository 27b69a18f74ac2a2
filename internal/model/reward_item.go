package model

// RewardItem is a purchasable catalog entry. Cost and Stock are never
// negative; stock is decremented by the backend when a redemption is delivered.
type RewardItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Stock       int    `json:"stock"`
}
