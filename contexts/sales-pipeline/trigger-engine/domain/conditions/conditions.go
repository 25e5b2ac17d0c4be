package conditions

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

type Operator string

const (
	OpEq       Operator = "eq"
	OpNeq      Operator = "neq"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpIn       Operator = "in"
	OpNin      Operator = "nin"
	OpContains Operator = "contains"
	OpRegex    Operator = "regex"
)

var supportedOperators = map[Operator]struct{}{
	OpEq: {}, OpNeq: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
	OpIn: {}, OpNin: {}, OpContains: {}, OpRegex: {},
}

// Node is either a leaf comparison (Field/Operator/Value set) or a composite
// (exactly one of All/Any set). A node mixing both shapes is rejected by
// Validate before it is ever persisted.
type Node struct {
	Field    string   `json:"field,omitempty"`
	Operator Operator `json:"operator,omitempty"`
	Value    any      `json:"value,omitempty"`
	All      []Node   `json:"and,omitempty"`
	Any      []Node   `json:"or,omitempty"`
}

func (n Node) isLeaf() bool {
	return n.Field != "" || n.Operator != "" || n.Value != nil
}

func (n Node) isComposite() bool {
	return len(n.All) > 0 || len(n.Any) > 0
}

// Validate checks the tree shape at configuration-write time so the evaluator
// never meets an unknown operator or malformed branch at run time.
func Validate(node Node) error {
	return validateAt(node, "condition")
}

func validateAt(node Node, path string) error {
	switch {
	case node.isLeaf() && node.isComposite():
		return fmt.Errorf("%s: node mixes leaf and composite fields", path)
	case node.isComposite():
		if len(node.All) > 0 && len(node.Any) > 0 {
			return fmt.Errorf("%s: node sets both and/or branches", path)
		}
		branch, name := node.All, "and"
		if len(node.Any) > 0 {
			branch, name = node.Any, "or"
		}
		for i, child := range branch {
			if err := validateAt(child, fmt.Sprintf("%s.%s[%d]", path, name, i)); err != nil {
				return err
			}
		}
		return nil
	case node.isLeaf():
		if strings.TrimSpace(node.Field) == "" {
			return fmt.Errorf("%s.field: must not be empty", path)
		}
		if _, ok := supportedOperators[node.Operator]; !ok {
			return fmt.Errorf("%s.operator: unknown operator %q", path, node.Operator)
		}
		if node.Operator == OpRegex {
			pattern, ok := node.Value.(string)
			if !ok {
				return fmt.Errorf("%s.value: regex operator requires a string pattern", path)
			}
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("%s.value: invalid regex: %v", path, err)
			}
		}
		if node.Operator == OpIn || node.Operator == OpNin {
			if _, ok := node.Value.([]any); !ok {
				return fmt.Errorf("%s.value: %s operator requires a list", path, node.Operator)
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: empty node", path)
	}
}

// Evaluate resolves the tree against a JSON payload. It is pure and total: an
// absent field compares false for every operator except neq, and a validated
// tree can never make it return an error, so it does not.
func Evaluate(node Node, payload []byte) bool {
	if node.isComposite() {
		if len(node.All) > 0 {
			for _, child := range node.All {
				if !Evaluate(child, payload) {
					return false
				}
			}
			return true
		}
		for _, child := range node.Any {
			if Evaluate(child, payload) {
				return true
			}
		}
		return false
	}

	field := gjson.GetBytes(payload, node.Field)
	if !field.Exists() {
		return node.Operator == OpNeq
	}

	switch node.Operator {
	case OpEq:
		return looseEqual(field, node.Value)
	case OpNeq:
		return !looseEqual(field, node.Value)
	case OpGt, OpGte, OpLt, OpLte:
		left, right, ok := numericPair(field, node.Value)
		if !ok {
			return false
		}
		switch node.Operator {
		case OpGt:
			return left > right
		case OpGte:
			return left >= right
		case OpLt:
			return left < right
		default:
			return left <= right
		}
	case OpIn, OpNin:
		list, ok := node.Value.([]any)
		if !ok {
			return false
		}
		found := false
		for _, candidate := range list {
			if looseEqual(field, candidate) {
				found = true
				break
			}
		}
		if node.Operator == OpIn {
			return found
		}
		return !found
	case OpContains:
		needle, ok := node.Value.(string)
		if !ok {
			return false
		}
		if field.IsArray() {
			for _, item := range field.Array() {
				if item.String() == needle {
					return true
				}
			}
			return false
		}
		return strings.Contains(field.String(), needle)
	case OpRegex:
		pattern, ok := node.Value.(string)
		if !ok {
			return false
		}
		matched, err := regexp.MatchString(pattern, field.String())
		return err == nil && matched
	default:
		return false
	}
}

// looseEqual compares a gjson result against a configured value with JSON
// semantics: numbers compare numerically regardless of int/float encoding.
func looseEqual(field gjson.Result, value any) bool {
	switch typed := value.(type) {
	case nil:
		return field.Type == gjson.Null
	case bool:
		return field.IsBool() && field.Bool() == typed
	case string:
		return field.Type == gjson.String && field.String() == typed
	default:
		left, right, ok := numericPair(field, value)
		return ok && left == right
	}
}

func numericPair(field gjson.Result, value any) (float64, float64, bool) {
	if field.Type != gjson.Number {
		return 0, 0, false
	}
	switch typed := value.(type) {
	case int:
		return field.Float(), float64(typed), true
	case int64:
		return field.Float(), float64(typed), true
	case float64:
		return field.Float(), typed, true
	default:
		return 0, 0, false
	}
}
