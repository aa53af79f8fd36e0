package core

import "time"

// RecommendContext 承载参考商品/访客画像/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	VisitorID string
	Scene     string

	// Reference 是当前正在浏览的商品，候选商品与其比较
	Reference *Product

	// User 是访客偏好画像的只读快照（偏好更新之后拍下）
	User *UserProfile

	// Now 是本次请求的打分时钟，为零值时使用 time.Now()
	Now time.Time

	// Limit 是本次请求的推荐数量
	Limit int
}

// ReferenceID 返回参考商品 ID，无参考商品时返回空串。
func (rctx *RecommendContext) ReferenceID() string {
	if rctx == nil || rctx.Reference == nil {
		return ""
	}
	return rctx.Reference.ID
}

// Clock 返回本次请求的时间。
func (rctx *RecommendContext) Clock() time.Time {
	if rctx == nil || rctx.Now.IsZero() {
		return time.Now()
	}
	return rctx.Now
}
