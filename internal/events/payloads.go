package events

// BalanceChanged is the payload for time_balances events. Delta is the
// signed credit movement applied to the user's balance.
type BalanceChanged struct {
	UserID string `json:"user_id"`
	Delta  int    `json:"delta"`
}

func (b BalanceChanged) BalanceUserID() string { return b.UserID }
