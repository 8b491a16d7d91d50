package signal

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/hybridrec/pkg/dsl"
)

// Rule 是情境规则：When 为真时给物品加 Delta 分，并附上 Reason。
//
// When 是 CEL 表达式，可用变量见 pkg/dsl.Program。
type Rule struct {
	Name   string  `yaml:"name"`
	When   string  `yaml:"when"`
	Delta  float64 `yaml:"delta"`
	Reason string  `yaml:"reason"`

	prg *dsl.Program
}

// RuleSet 是 YAML 规则文件的顶层结构。
//
//	rules:
//	  - name: morning
//	    when: 'hour >= 6 && hour <= 11'
//	    delta: 30
//	    reason: ideal for morning
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Compile 编译规则表达式。
func (r *Rule) Compile() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	prg, err := dsl.Compile(r.When)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	r.prg = prg
	return nil
}

// Matches 对输入求值。未编译或求值失败都视为不匹配。
func (r *Rule) Matches(in dsl.Input) (bool, error) {
	prg := r.prg
	if prg == nil {
		var err error
		if prg, err = dsl.Compile(r.When); err != nil {
			return false, fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return prg.Eval(in)
}

// LoadRulesYAML 从 YAML 内容加载并编译规则表。
func LoadRulesYAML(data []byte) ([]Rule, error) {
	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	if len(set.Rules) == 0 {
		return nil, fmt.Errorf("rules yaml: no rules defined")
	}
	names := make(map[string]struct{}, len(set.Rules))
	for i := range set.Rules {
		if err := set.Rules[i].Compile(); err != nil {
			return nil, err
		}
		if _, dup := names[set.Rules[i].Name]; dup {
			return nil, fmt.Errorf("rules yaml: duplicate rule %q", set.Rules[i].Name)
		}
		names[set.Rules[i].Name] = struct{}{}
	}
	return set.Rules, nil
}

// LoadRulesFile 从文件加载规则表。
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return LoadRulesYAML(data)
}

// 关键词表（小写，中英土耳其语混合菜单常见写法）
var (
	breakfastWords  = []string{"kahvaltı", "breakfast", "omlet", "menemen", "simit", "börek", "pancake", "yumurta", "egg", "tost"}
	mainCourseWords = []string{"main", "ana yemek", "kebap", "kebab", "pizza", "burger", "pide", "pasta", "makarna", "döner"}
	soupWords       = []string{"çorba", "soup"}
	hotDishWords    = []string{"çorba", "soup", "sıcak", "hot", "güveç", "stew", "sahlep", "salep"}
	coldWords       = []string{"salata", "salad", "soğuk", "cold", "ice cream", "iced", "dondurma", "tatlı", "dessert", "limonata", "lemonade", "smoothie"}
)

// DefaultRules 返回内置情境规则表（已编译）。
func DefaultRules() []Rule {
	rules := []Rule{
		{
			Name:   "morning",
			When:   "hour >= 6 && hour <= 11 && (" + anyWord("item.name", breakfastWords) + " || " + anyWord("item.category", breakfastWords) + ")",
			Delta:  30,
			Reason: "ideal for morning",
		},
		{
			Name:   "lunch",
			When:   "hour >= 12 && hour <= 15 && " + anyWord("item.category", mainCourseWords),
			Delta:  25,
			Reason: "good for lunch",
		},
		{
			Name:   "dinner",
			When:   "hour >= 18 && hour <= 22 && (" + anyWord("item.category", mainCourseWords) + " || " + anyWord("item.category", soupWords) + ")",
			Delta:  20,
			Reason: "ideal for dinner",
		},
		{
			Name:   "winter",
			When:   "month in [11, 12, 1, 2] && " + anyWord("item.name", hotDishWords),
			Delta:  15,
			Reason: "warming for winter",
		},
		{
			Name:   "summer",
			When:   "month in [6, 7, 8] && (" + anyWord("item.name", coldWords) + " || " + anyWord("item.category", coldWords) + ")",
			Delta:  15,
			Reason: "refreshing for summer",
		},
		{
			Name:   "rainy",
			When:   `weather == "rainy" && (` + anyWord("item.category", soupWords) + " || " + anyWord("item.name", soupWords) + ")",
			Delta:  20,
			Reason: "a hot soup for rainy weather",
		},
	}
	for i := range rules {
		// 内置规则编译失败属于程序错误
		if err := rules[i].Compile(); err != nil {
			panic(err)
		}
	}
	return rules
}

// anyWord 生成 `["a", "b"].exists(w, field.contains(w))`。
// 含 ı 的词同时匹配 i 的写法：大写菜单 "KAHVALTI" 经 strings.ToLower 得到 "kahvalti"。
func anyWord(field string, words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, strconv.Quote(w))
		if dotted := strings.ReplaceAll(w, "ı", "i"); dotted != w {
			quoted = append(quoted, strconv.Quote(dotted))
		}
	}
	return "[" + strings.Join(quoted, ", ") + "].exists(w, " + field + ".contains(w))"
}
