package core

import "time"

// Product 是商品目录中的一条记录（对推荐核心只读）。
// Price 在目录边界已完成归一化：0 表示没有可用的价格信号。
type Product struct {
	ID              string    `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Category        string    `json:"category" yaml:"category"`
	Price           float64   `json:"price" yaml:"price"`
	ImageURLs       []string  `json:"image_urls,omitempty" yaml:"image_urls"`
	Quantity        int64     `json:"quantity" yaml:"quantity"`
	OrderedQuantity int64     `json:"ordered_quantity" yaml:"ordered_quantity"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// Remaining 返回剩余库存：quantity - ordered_quantity。
func (p *Product) Remaining() int64 {
	return p.Quantity - p.OrderedQuantity
}

// InStock 剩余库存 > 0。
func (p *Product) InStock() bool {
	return p.Remaining() > 0
}

// HasPrice 是否携带价格信号。
func (p *Product) HasPrice() bool {
	return p.Price > 0
}

// 价格档位（仅用于解释 / 观测，不参与打分）
const (
	PriceTierBudget  = "budget"
	PriceTierMid     = "mid"
	PriceTierPremium = "premium"
	PriceTierLuxury  = "luxury"
)

// PriceTier 返回价格所属档位，无价格时归为 mid。
func PriceTier(price float64) string {
	switch {
	case price <= 0:
		return PriceTierMid
	case price < 3000:
		return PriceTierBudget
	case price < 8000:
		return PriceTierMid
	case price < 15000:
		return PriceTierPremium
	default:
		return PriceTierLuxury
	}
}
