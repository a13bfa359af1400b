// internal/service/order/infrastructure/rule/cel_validator.go
package rule

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"orderflow/internal/service/order/domain"
)

// CELValidator 是 port.OrderValidator 的 CEL 实现。
// 把下单请求的基础校验写成 CEL 表达式，规则可以在不改代码的情况下调整。
type CELValidator struct {
	rules []compiledRule
}

type compiledRule struct {
	name    string
	reason  string
	program cel.Program
}

// RuleDefinition 是一条待编译的校验规则。
// Expr 求值为 false 时校验失败，Reason 作为失败原因返回。
type RuleDefinition struct {
	Name   string
	Expr   string
	Reason string
}

// DefaultRules 是订单请求的内置校验规则集。
func DefaultRules() []RuleDefinition {
	return []RuleDefinition{
		{
			Name:   "customer_required",
			Expr:   `customer_id != ""`,
			Reason: "customer id is required",
		},
		{
			Name:   "items_required",
			Expr:   `item_count > 0`,
			Reason: "order must contain at least one item",
		},
		{
			Name:   "positive_quantity",
			Expr:   `item_count == 0 || min_quantity > 0`,
			Reason: "every item must have a positive quantity",
		},
		{
			Name:   "non_negative_price",
			Expr:   `item_count == 0 || min_unit_price >= 0.0`,
			Reason: "item unit price cannot be negative",
		},
		{
			Name:   "batch_item_limit",
			Expr:   `item_count <= 100`,
			Reason: "order cannot contain more than 100 items",
		},
	}
}

// NewCELValidator 编译规则集并返回校验器。规则表达式有语法错误时直接报错，
// 让进程在启动阶段失败，而不是在请求路径上。
func NewCELValidator(defs []RuleDefinition) (*CELValidator, error) {
	env, err := cel.NewEnv(
		cel.Variable("customer_id", cel.StringType),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("total_quantity", cel.IntType),
		cel.Variable("min_quantity", cel.IntType),
		cel.Variable("min_unit_price", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cel env: %w", err)
	}

	v := &CELValidator{}
	for _, def := range defs {
		ast, issues := env.Compile(def.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %s: %w", def.Name, issues.Err())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", def.Name, err)
		}
		v.rules = append(v.rules, compiledRule{name: def.Name, reason: def.Reason, program: program})
	}
	return v, nil
}

// Validate 对请求逐条跑规则，第一条不满足的规则决定返回的校验错误。
func (v *CELValidator) Validate(ctx context.Context, customerID string, items []domain.OrderItem) error {
	activation := buildActivation(customerID, items)
	for _, rule := range v.rules {
		out, _, err := rule.program.ContextEval(ctx, activation)
		if err != nil {
			return fmt.Errorf("rule %s evaluation: %w", rule.name, err)
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			return fmt.Errorf("rule %s did not evaluate to a boolean", rule.name)
		}
		if !ok {
			return &domain.ValidationError{Rule: rule.name, Reason: rule.reason}
		}
	}
	return nil
}

func buildActivation(customerID string, items []domain.OrderItem) map[string]interface{} {
	var (
		totalQuantity int
		minQuantity   int
		minUnitPrice  float64
	)
	for i, item := range items {
		totalQuantity += item.Quantity
		if i == 0 || item.Quantity < minQuantity {
			minQuantity = item.Quantity
		}
		if i == 0 || item.UnitPrice < minUnitPrice {
			minUnitPrice = item.UnitPrice
		}
	}
	return map[string]interface{}{
		"customer_id":    customerID,
		"item_count":     len(items),
		"total_quantity": totalQuantity,
		"min_quantity":   minQuantity,
		"min_unit_price": minUnitPrice,
	}
}
