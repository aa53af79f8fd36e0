// Package shoprec 是一个商品详情页的“猜你喜欢”推荐引擎。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Rank → Filter → ReRank → PostProcess）
// - 可解释: 四项分项得分（类目/价格/热度/偏好）与综合得分一并返回
// - 有兜底: 个性化结果为空时切换到最新上架商品
// - 偏好隔离: 每个访客一份画像，持久化到可替换的 Store（内存/Redis/Badger）
package shoprec

import (
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/recommend"
)

// 轻量 facade：便于直接 import "shoprec" 使用核心抽象。
type (
	Pipeline    = pipeline.Pipeline
	Node        = pipeline.Node
	Kind        = pipeline.Kind
	Engine      = recommend.Engine
	Recommender = recommend.Recommender
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// NewEngine 是 recommend.NewEngine 的别名。
var NewEngine = recommend.NewEngine
