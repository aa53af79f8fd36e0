// Package catalog 提供商品目录的实现：内存目录、Postgres 目录，以及带熔断的装饰器。
//
// 目录里的原始记录是松散类型的（价格可能是 "₹2,100.00" 这样的字符串），
// 在这里一次性归一化为 core.Product，推荐核心只接触严格类型。
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/conv"
)

// RawProduct 是目录协作方给出的原始商品记录。
type RawProduct struct {
	ID              any       `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Category        string    `json:"category" yaml:"category"`
	Price           any       `json:"price" yaml:"price"`
	ImageURLs       []string  `json:"image_urls" yaml:"image_urls"`
	Quantity        any       `json:"quantity" yaml:"quantity"`
	OrderedQuantity any       `json:"ordered_quantity" yaml:"ordered_quantity"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// Normalize 把原始记录转为 core.Product。
//   - ID 必须存在，否则返回 INVALID_INPUT
//   - 价格无法解析或非正数时记为 0（无价格信号），不报错
//   - 库存/销量缺失按 0 处理
func Normalize(raw RawProduct) (*core.Product, error) {
	id, _ := conv.ToString(raw.ID)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
			fmt.Sprintf("catalog: product %q has no id", raw.Name))
	}

	price, _ := conv.ParsePrice(raw.Price)
	quantity, _ := conv.ToInt64(raw.Quantity)
	ordered, _ := conv.ToInt64(raw.OrderedQuantity)

	return &core.Product{
		ID:              id,
		Name:            raw.Name,
		Category:        strings.TrimSpace(raw.Category),
		Price:           price,
		ImageURLs:       append([]string(nil), raw.ImageURLs...),
		Quantity:        quantity,
		OrderedQuantity: ordered,
		CreatedAt:       raw.CreatedAt,
	}, nil
}

// NormalizeAll 归一化一批记录，遇到非法记录立即返回错误。
func NormalizeAll(raws []RawProduct) ([]*core.Product, error) {
	out := make([]*core.Product, 0, len(raws))
	for i, raw := range raws {
		p, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
