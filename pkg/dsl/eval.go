package dsl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/hybridrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存已编译的表达式，key 为表达式原文
	programs sync.Map
)

// initCELEnv 初始化 CEL 环境，定义变量类型
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("hour", cel.IntType),
		cel.Variable("month", cel.IntType),
		cel.Variable("weather", cel.StringType),
		cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("profile", cel.MapType(cel.StringType, cel.DynType)),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Input 是规则表达式的求值输入。
type Input struct {
	Hour    int
	Month   int
	Weather string
	Item    core.CatalogItem
	Params  map[string]any
	Profile *core.UserBehaviorProfile
}

// InputFrom 由请求上下文、用户画像和物品构造求值输入。profile 可以为 nil。
func InputFrom(rc core.RequestContext, profile *core.UserBehaviorProfile, item core.CatalogItem) Input {
	return Input{
		Hour:    rc.Hour(),
		Month:   rc.Month(),
		Weather: rc.NormalizedWeather(),
		Item:    item,
		Params:  rc.Params,
		Profile: profile,
	}
}

// Program 是编译后的布尔表达式，可并发求值。
//
// 表达式语法（CEL 标准语法），可用变量：
//   - hour / month：int，来自注入的请求时间
//   - weather：string，小写
//   - item.id / item.name / item.category：string，name 与 category 已转小写
//     （Unicode 默认规则，大写 I 变为 i，匹配土耳其语词时需同时写 ı 和 i 两种拼法）
//   - item.price：double，无价格时为 -1.0
//   - item.tags：list(string)，小写
//   - params：请求级扩展参数
//   - profile.user_id：string；profile.preferences：用户偏好元数据
//
// 示例：
//   - `hour >= 6 && hour <= 11`
//   - `month in [11, 12, 1, 2] && ["soup", "çorba"].exists(w, item.name.contains(w))`
//   - `weather == "rainy" && item.category == "soup"`
//   - `"diet" in profile.preferences && profile.preferences.diet == "vegetarian" && "vegetarian" in item.tags`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式并缓存。表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}
	if cached, ok := programs.Load(expr); ok {
		return cached.(*Program), nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}

	p := &Program{expr: expr, prg: prg}
	actual, _ := programs.LoadOrStore(expr, p)
	return actual.(*Program), nil
}

// String 返回表达式原文。
func (p *Program) String() string {
	return p.expr
}

// Eval 对输入求值。
func (p *Program) Eval(in Input) (bool, error) {
	out, _, err := p.prg.Eval(buildActivation(in))
	if err != nil {
		// 访问不存在的 params key 会报错，调用方应视为不匹配
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildActivation 构建 CEL 表达式的输入数据
func buildActivation(in Input) map[string]any {
	price := -1.0
	if p, ok := in.Item.PriceValue(); ok {
		price = p
	}
	tags := make([]string, 0, len(in.Item.Tags))
	for _, t := range in.Item.Tags {
		tags = append(tags, strings.ToLower(t))
	}

	params := in.Params
	if params == nil {
		params = map[string]any{}
	}
	profile := map[string]any{
		"user_id":     "",
		"preferences": map[string]any{},
	}
	if in.Profile != nil {
		profile["user_id"] = in.Profile.UserID
		if in.Profile.Preferences != nil {
			profile["preferences"] = in.Profile.Preferences
		}
	}

	return map[string]any{
		"hour":    int64(in.Hour),
		"month":   int64(in.Month),
		"weather": strings.ToLower(in.Weather),
		"item": map[string]any{
			"id":       in.Item.ID,
			"name":     in.Item.LowerName(),
			"category": in.Item.LowerCategory(),
			"price":    price,
			"tags":     tags,
		},
		"params":  params,
		"profile": profile,
	}
}
