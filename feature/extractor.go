package feature

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rushteam/hybridrec/core"
)

// Itemer 是"携带物品"的记录：购物车行或裸目录物品都可以参与特征抽取。
type Itemer interface {
	AsItem() core.CatalogItem
}

// FeatureSet 是从一组物品中派生的可比较特征摘要。
//
// 构成：
//   - Categories：小写类目集合
//   - MinPrice / MaxPrice：观测到的价格区间，初始为 +Inf / -Inf，
//     全部缺失价格时保持初始值，相似度计算时不参与比较
//   - Keywords：名称分词后的小写关键词集合（长度 > 2）
//
// 每次调用重新计算，从不持久化。
type FeatureSet struct {
	Categories map[string]struct{}
	MinPrice   float64
	MaxPrice   float64
	Keywords   map[string]struct{}
}

// NewFeatureSet 返回一个空特征集。
func NewFeatureSet() FeatureSet {
	return FeatureSet{
		Categories: make(map[string]struct{}),
		MinPrice:   math.Inf(1),
		MaxPrice:   math.Inf(-1),
		Keywords:   make(map[string]struct{}),
	}
}

// HasPrice 判断价格区间是否有效（至少观测到一个价格）。
func (fs FeatureSet) HasPrice() bool {
	return !math.IsInf(fs.MinPrice, 0) && !math.IsNaN(fs.MinPrice)
}

// AveragePrice 返回价格区间的中点；无价格时返回 (0, false)。
func (fs FeatureSet) AveragePrice() (float64, bool) {
	if !fs.HasPrice() {
		return 0, false
	}
	return (fs.MinPrice + fs.MaxPrice) / 2, true
}

// IsEmpty 判断特征集是否不含任何信息。
func (fs FeatureSet) IsEmpty() bool {
	return len(fs.Categories) == 0 && len(fs.Keywords) == 0 && !fs.HasPrice()
}

// Extract 从一组物品中抽取特征集。
// 字段缺失或非法时直接跳过，永远不会报错。
func Extract[T Itemer](items []T) FeatureSet {
	fs := NewFeatureSet()
	for _, rec := range items {
		fs.add(rec.AsItem())
	}
	return fs
}

// ExtractItem 抽取单个物品的特征集。
func ExtractItem(item core.CatalogItem) FeatureSet {
	fs := NewFeatureSet()
	fs.add(item)
	return fs
}

func (fs *FeatureSet) add(item core.CatalogItem) {
	if cat := item.LowerCategory(); cat != "" {
		fs.Categories[cat] = struct{}{}
	}
	if p, ok := item.PriceValue(); ok {
		fs.MinPrice = math.Min(fs.MinPrice, p)
		fs.MaxPrice = math.Max(fs.MaxPrice, p)
	}
	for _, tok := range Tokenize(item.Name) {
		fs.Keywords[tok] = struct{}{}
	}
}

// Tokenize 按空白切分名称，转小写，保留长度大于 2 的词（按字符计）。
func Tokenize(name string) []string {
	fields := strings.Fields(name)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.ToLower(f)
		if utf8.RuneCountInString(tok) <= 2 {
			continue
		}
		out = append(out, tok)
	}
	return out
}
