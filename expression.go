package meilisearchx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Expression is a composable filter expression. Render turns it into the
// filter syntax understood by the search service.
type Expression interface {
	// render writes the expression in filter syntax.
	render() (string, error)
}

// AndExpr matches documents matching every expression in Exprs.
type AndExpr struct {
	Exprs []Expression
}

func (a AndExpr) render() (string, error) { return joinExprs(a.Exprs, " AND ") }

// And creates an AND expression combining multiple expressions.
func And(exprs ...Expression) Expression {
	return AndExpr{Exprs: exprs}
}

// OrExpr matches documents matching at least one expression in Exprs.
type OrExpr struct {
	Exprs []Expression
}

func (o OrExpr) render() (string, error) { return joinExprs(o.Exprs, " OR ") }

// Or creates an OR expression combining multiple expressions.
func Or(exprs ...Expression) Expression {
	return OrExpr{Exprs: exprs}
}

// NotExpr negates Inner.
type NotExpr struct {
	Inner Expression
}

func (n NotExpr) render() (string, error) {
	if n.Inner == nil {
		return "", errors.Wrap(ErrInvalidExpression, "NOT without operand")
	}
	inner, err := n.Inner.render()
	if err != nil {
		return "", err
	}
	if inner == "" {
		return "", nil
	}
	return "NOT (" + inner + ")", nil
}

// Not creates a NOT expression negating the given expression.
func Not(expr Expression) Expression {
	return NotExpr{Inner: expr}
}

// CompareExpr compares a field against a value.
type CompareExpr struct {
	Field string
	Op    Operator
	Value any
}

func (c CompareExpr) render() (string, error) {
	if c.Field == "" {
		return "", errors.Wrap(ErrInvalidExpression, "empty field name")
	}
	var (
		value string
		err   error
	)
	if c.Op.numeric() {
		value, err = numericValue(c.Value)
	} else {
		value, err = quotedValue(c.Value)
	}
	if err != nil {
		return "", errors.Wrapf(err, "field %s", c.Field)
	}
	return fmt.Sprintf("%s %s %s", quoteField(c.Field), c.Op, value), nil
}

// Eq creates an equality comparison expression.
func Eq(field string, value any) Expression { return CompareExpr{Field: field, Op: OpEq, Value: value} }

// Ne creates a not-equal comparison expression.
func Ne(field string, value any) Expression { return CompareExpr{Field: field, Op: OpNe, Value: value} }

// Gt creates a greater-than comparison expression.
func Gt(field string, value any) Expression { return CompareExpr{Field: field, Op: OpGt, Value: value} }

// Gte creates a greater-than-or-equal comparison expression.
func Gte(field string, value any) Expression {
	return CompareExpr{Field: field, Op: OpGte, Value: value}
}

// Lt creates a less-than comparison expression.
func Lt(field string, value any) Expression { return CompareExpr{Field: field, Op: OpLt, Value: value} }

// Lte creates a less-than-or-equal comparison expression.
func Lte(field string, value any) Expression {
	return CompareExpr{Field: field, Op: OpLte, Value: value}
}

// Range matches min <= field <= max. A nil bound is open.
func Range(field string, min, max any) Expression {
	var exprs []Expression
	if min != nil {
		exprs = append(exprs, Gte(field, min))
	}
	if max != nil {
		exprs = append(exprs, Lte(field, max))
	}
	return AndExpr{Exprs: exprs}
}

// Render returns the filter string for expr. An empty AND/OR renders as "".
func Render(expr Expression) (string, error) {
	if expr == nil {
		return "", errors.Wrap(ErrInvalidExpression, "nil expression")
	}
	return expr.render()
}

func joinExprs(exprs []Expression, sep string) (string, error) {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if e == nil {
			continue
		}
		s, err := e.render()
		if err != nil {
			return "", err
		}
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	}
	for i, p := range parts {
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, sep), nil
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quoteString wraps s in double quotes. Backslashes and quotes are escaped
// so s cannot end the string early.
func quoteString(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}

func quoteField(field string) string {
	if strings.ContainsAny(field, " :=!<>()\"'\\") {
		return quoteString(field)
	}
	return field
}

func quotedValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", errors.Wrap(ErrInvalidExpression, "nil value")
	case string:
		return quoteString(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return quotedValue(v.String())
	default:
		if n, err := numericValue(v); err == nil {
			return n, nil
		}
		return quotedValue(fmt.Sprintf("%v", v))
	}
}

func numericValue(value any) (string, error) {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case string:
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidExpression, "non-numeric value %v", value)
}

// FacetEq returns a facet filter term "field:value".
func FacetEq(field, value string) string {
	return field + ":" + value
}

// AnyOf returns one OR group of facet filter terms.
func AnyOf(terms ...string) []string {
	return cloneStrings(terms)
}

// AllOf ANDs OR groups into the facet filter list accepted by WithFacetFilters.
func AllOf(groups ...[]string) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = cloneStrings(g)
	}
	return out
}
