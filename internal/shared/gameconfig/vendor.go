package gameconfig

const MaxGold = 1000000

type Vendor struct {
	ID          int     `mapstructure:"id"`
	Name        string  `mapstructure:"name"`
	Info        string  `mapstructure:"info"`
	BuyPercent  float32 `mapstructure:"buy_percent"`
	SellPercent float32 `mapstructure:"sell_percent"`
	Items       []int   `mapstructure:"items"`
}

// Sells 商人是否出售该物品。
func (v *Vendor) Sells(itemID int) bool {
	for _, id := range v.Items {
		if id == itemID {
			return true
		}
	}
	return false
}

type TraderItem struct {
	ItemID int `mapstructure:"item_id"`
	Count  int `mapstructure:"count"`
}

// Trader 以物易物：交齐 Items 换 Count 个 RewardItem。
type Trader struct {
	ID         int          `mapstructure:"id"`
	Name       string       `mapstructure:"name"`
	RewardItem int          `mapstructure:"reward_item"`
	Count      int          `mapstructure:"count"`
	Items      []TraderItem `mapstructure:"items"`
}
