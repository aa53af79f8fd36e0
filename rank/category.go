package rank

// CategoryRelations 是类目关联表：key 类目与 value 中的类目互为关联。
// 关联在打分时双向生效，表本身不要求对称。
type CategoryRelations map[string][]string

// DefaultCategoryRelations 是店铺内置的类目关联表。
func DefaultCategoryRelations() CategoryRelations {
	return CategoryRelations{
		"saree":        {"kurta", "dupatta", "blouse"},
		"kurta":        {"saree", "dupatta", "t-shirt"},
		"dupatta":      {"saree", "kurta", "blouse"},
		"blouse":       {"saree", "dupatta", "kurta"},
		"t-shirt":      {"kurta", "shirt", "top"},
		"wall-hanging": {"painting", "decoration", "art"},
		"painting":     {"wall-hanging", "art", "decoration"},
		"decoration":   {"wall-hanging", "painting", "art"},
	}
}

// 类目相似度得分
const (
	CategoryScoreMissing   = 0.1
	CategoryScoreSame      = 1.0
	CategoryScoreRelated   = 0.7
	CategoryScoreUnrelated = 0.2
)

// Related 判断 a、b 是否在表中关联（任一方向）。
func (r CategoryRelations) Related(a, b string) bool {
	return contains(r[a], b) || contains(r[b], a)
}

// Score 计算参考类目与候选类目的相似度。
func (r CategoryRelations) Score(reference, candidate string) float64 {
	switch {
	case reference == "" || candidate == "":
		return CategoryScoreMissing
	case reference == candidate:
		return CategoryScoreSame
	case r.Related(reference, candidate):
		return CategoryScoreRelated
	default:
		return CategoryScoreUnrelated
	}
}

var defaultRelations = DefaultCategoryRelations()

// CategoryScore 使用内置关联表计算类目相似度。
func CategoryScore(reference, candidate string) float64 {
	return defaultRelations.Score(reference, candidate)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
