package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Op is a comparison operator usable in a Filter.
type Op int

const (
	OpEqual Op = iota
	OpBeginsWith
	OpGreaterOrEqual
	OpLessOrEqual
	OpNotExists
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpBeginsWith:
		return "begins_with"
	case OpGreaterOrEqual:
		return ">="
	case OpLessOrEqual:
		return "<="
	case OpNotExists:
		return "attribute_not_exists"
	default:
		return "op(" + strconv.Itoa(int(o)) + ")"
	}
}

// Condition compares one stored attribute against a string or integer value.
type Condition struct {
	Attr  string
	Op    Op
	Value any
}

// Equal matches records whose attr equals v.
func Equal[V string | int](attr string, v V) Condition {
	return Condition{Attr: attr, Op: OpEqual, Value: v}
}

// BeginsWith matches string attributes starting with prefix.
func BeginsWith(attr, prefix string) Condition {
	return Condition{Attr: attr, Op: OpBeginsWith, Value: prefix}
}

// GreaterOrEqual matches records whose attr is >= v.
func GreaterOrEqual[V string | int](attr string, v V) Condition {
	return Condition{Attr: attr, Op: OpGreaterOrEqual, Value: v}
}

// LessOrEqual matches records whose attr is <= v.
func LessOrEqual[V string | int](attr string, v V) Condition {
	return Condition{Attr: attr, Op: OpLessOrEqual, Value: v}
}

// NotExists matches records that lack attr. As a put condition it means
// "no record with this key exists yet".
func NotExists(attr string) Condition {
	return Condition{Attr: attr, Op: OpNotExists}
}

// Filter is a conjunction of conditions. An empty Filter matches everything.
type Filter []Condition

// Where builds a Filter from conditions.
func Where(conds ...Condition) Filter {
	return Filter(conds)
}

func (f Filter) String() string {
	parts := make([]string, 0, len(f))
	for _, c := range f {
		if c.Op == OpNotExists || c.Op == OpBeginsWith {
			if c.Value == nil {
				parts = append(parts, fmt.Sprintf("%s(%s)", c.Op, c.Attr))
			} else {
				parts = append(parts, fmt.Sprintf("%s(%s, %v)", c.Op, c.Attr, c.Value))
			}
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s %v", c.Attr, c.Op, c.Value))
	}
	return strings.Join(parts, " AND ")
}

// Match reports whether rec satisfies every condition.
func (f Filter) Match(rec Record) bool {
	for _, c := range f {
		if !c.match(rec) {
			return false
		}
	}
	return true
}

func (c Condition) match(rec Record) bool {
	av, ok := rec[c.Attr]
	if c.Op == OpNotExists {
		return !ok
	}
	if !ok {
		return false
	}

	cmp, ok := compare(av, c.Value)
	if !ok {
		return false
	}

	switch c.Op {
	case OpEqual:
		return cmp == 0
	case OpBeginsWith:
		s, isString := av.(*types.AttributeValueMemberS)
		prefix, isPrefix := c.Value.(string)
		return isString && isPrefix && strings.HasPrefix(s.Value, prefix)
	case OpGreaterOrEqual:
		return cmp >= 0
	case OpLessOrEqual:
		return cmp <= 0
	}
	return false
}

// compare orders a stored value against a condition value. ok is false when
// the types are not comparable, which DynamoDB also treats as a non-match.
func compare(av types.AttributeValue, v any) (int, bool) {
	switch want := v.(type) {
	case string:
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return 0, false
		}
		return strings.Compare(s.Value, want), true
	case int:
		n, ok := av.(*types.AttributeValueMemberN)
		if !ok {
			return 0, false
		}
		got, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return 0, false
		}
		switch {
		case got < float64(want):
			return -1, true
		case got > float64(want):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// builder renders the filter with the DynamoDB expression builder.
// ok is false for an empty filter.
func (f Filter) builder() (expression.ConditionBuilder, bool) {
	if len(f) == 0 {
		return expression.ConditionBuilder{}, false
	}
	cond := f[0].builder()
	for _, c := range f[1:] {
		cond = cond.And(c.builder())
	}
	return cond, true
}

func (c Condition) builder() expression.ConditionBuilder {
	name := expression.Name(c.Attr)
	switch c.Op {
	case OpBeginsWith:
		prefix, _ := c.Value.(string)
		return name.BeginsWith(prefix)
	case OpGreaterOrEqual:
		return name.GreaterThanEqual(expression.Value(c.Value))
	case OpLessOrEqual:
		return name.LessThanEqual(expression.Value(c.Value))
	case OpNotExists:
		return name.AttributeNotExists()
	default:
		return name.Equal(expression.Value(c.Value))
	}
}

// FilterExpression builds a scan filter expression.
func (f Filter) FilterExpression() (expression.Expression, bool, error) {
	cond, ok := f.builder()
	if !ok {
		return expression.Expression{}, false, nil
	}
	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return expression.Expression{}, false, fmt.Errorf("build filter %q: %w", f, err)
	}
	return expr, true, nil
}

// ConditionExpression builds a put condition expression.
func (f Filter) ConditionExpression() (expression.Expression, bool, error) {
	cond, ok := f.builder()
	if !ok {
		return expression.Expression{}, false, nil
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return expression.Expression{}, false, fmt.Errorf("build condition %q: %w", f, err)
	}
	return expr, true, nil
}
