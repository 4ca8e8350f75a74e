package dynamo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// compositeKey builds a DynamoDB primary key with two string attributes (PK + SK).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

// updateExpr is a rendered update (and optional condition) expression.
type updateExpr struct {
	Expr      string
	Condition string
	Names     map[string]string
	Values    map[string]types.AttributeValue
}

type condition struct {
	attr  string
	op    string // "=", "<>", "exists", "not_exists", "absent_or_<>"
	value interface{}
}

// update collects the clauses of a DynamoDB update expression. A nil value
// passed to Set turns into a REMOVE clause.
type update struct {
	set         map[string]interface{}
	setIfAbsent map[string]interface{}
	remove      map[string]struct{}
	addSet      map[string][]string
	delSet      map[string][]string
	conds       []condition
}

func newUpdate() *update {
	return &update{
		set:         map[string]interface{}{},
		setIfAbsent: map[string]interface{}{},
		remove:      map[string]struct{}{},
		addSet:      map[string][]string{},
		delSet:      map[string][]string{},
	}
}

func (u *update) Set(attr string, v interface{}) *update {
	if v == nil {
		return u.Remove(attr)
	}
	delete(u.remove, attr)
	u.set[attr] = v
	return u
}

// SetIfAbsent writes v only when the attribute does not exist yet.
func (u *update) SetIfAbsent(attr string, v interface{}) *update {
	u.setIfAbsent[attr] = v
	return u
}

func (u *update) Remove(attr string) *update {
	delete(u.set, attr)
	u.remove[attr] = struct{}{}
	return u
}

// AddToSet adds values to a string-set attribute, creating it if needed.
func (u *update) AddToSet(attr string, vals ...string) *update {
	if len(vals) > 0 {
		u.addSet[attr] = appendUnique(u.addSet[attr], vals...)
	}
	return u
}

// DeleteFromSet removes values from a string-set attribute. DynamoDB drops
// the attribute once the set is empty.
func (u *update) DeleteFromSet(attr string, vals ...string) *update {
	if len(vals) > 0 {
		u.delSet[attr] = appendUnique(u.delSet[attr], vals...)
	}
	return u
}

// When adds a condition that must hold for the write to apply.
func (u *update) When(attr, op string, value interface{}) *update {
	u.conds = append(u.conds, condition{attr: attr, op: op, value: value})
	return u
}

func (u *update) empty() bool {
	return len(u.set)+len(u.setIfAbsent)+len(u.remove)+len(u.addSet)+len(u.delSet) == 0
}

// merge folds other into u so two staged writes on one key become one action.
func (u *update) merge(other *update) {
	for k, v := range other.set {
		u.Set(k, v)
	}
	for k, v := range other.setIfAbsent {
		u.SetIfAbsent(k, v)
	}
	for k := range other.remove {
		u.Remove(k)
	}
	for k, v := range other.addSet {
		u.AddToSet(k, v...)
	}
	for k, v := range other.delSet {
		u.DeleteFromSet(k, v...)
	}
	u.conds = append(u.conds, other.conds...)
}

// build renders the expression with placeholders assigned in sorted
// attribute order, so the output is deterministic.
func (u *update) build() (updateExpr, error) {
	if u.empty() {
		return updateExpr{}, errors.New("no fields to update")
	}
	b := &exprBuilder{names: map[string]string{}, values: map[string]types.AttributeValue{}, nameOf: map[string]string{}}

	var sets []string
	for _, k := range sortedKeys(u.set) {
		v, err := b.value(u.set[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		sets = append(sets, fmt.Sprintf("%s = %s", b.name(k), v))
	}
	for _, k := range sortedKeys(u.setIfAbsent) {
		v, err := b.value(u.setIfAbsent[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		n := b.name(k)
		sets = append(sets, fmt.Sprintf("%s = if_not_exists(%s, %s)", n, n, v))
	}

	var clauses []string
	if len(sets) > 0 {
		clauses = append(clauses, "SET "+strings.Join(sets, ", "))
	}
	if len(u.remove) > 0 {
		var rm []string
		for _, k := range sortedKeys(u.remove) {
			rm = append(rm, b.name(k))
		}
		clauses = append(clauses, "REMOVE "+strings.Join(rm, ", "))
	}
	if len(u.addSet) > 0 {
		var add []string
		for _, k := range sortedKeys(u.addSet) {
			add = append(add, fmt.Sprintf("%s %s", b.name(k), b.raw(&types.AttributeValueMemberSS{Value: u.addSet[k]})))
		}
		clauses = append(clauses, "ADD "+strings.Join(add, ", "))
	}
	if len(u.delSet) > 0 {
		var del []string
		for _, k := range sortedKeys(u.delSet) {
			del = append(del, fmt.Sprintf("%s %s", b.name(k), b.raw(&types.AttributeValueMemberSS{Value: u.delSet[k]})))
		}
		clauses = append(clauses, "DELETE "+strings.Join(del, ", "))
	}

	cond, err := b.conditions(u.conds)
	if err != nil {
		return updateExpr{}, err
	}
	return updateExpr{
		Expr:      strings.Join(clauses, " "),
		Condition: cond,
		Names:     b.names,
		Values:    nilIfEmpty(b.values),
	}, nil
}

// buildUpdateExpr converts a map of field->value into a DynamoDB update expression.
func buildUpdateExpr(updates map[string]interface{}) (updateExpr, error) {
	u := newUpdate()
	for k, v := range updates {
		u.Set(k, v)
	}
	return u.build()
}

// buildCondition renders a standalone condition expression (used by deletes).
func buildCondition(conds []condition) (updateExpr, error) {
	b := &exprBuilder{names: map[string]string{}, values: map[string]types.AttributeValue{}, nameOf: map[string]string{}}
	cond, err := b.conditions(conds)
	if err != nil {
		return updateExpr{}, err
	}
	return updateExpr{Condition: cond, Names: b.names, Values: nilIfEmpty(b.values)}, nil
}

type exprBuilder struct {
	names  map[string]string
	values map[string]types.AttributeValue
	nameOf map[string]string
}

func (b *exprBuilder) name(attr string) string {
	if n, ok := b.nameOf[attr]; ok {
		return n
	}
	n := fmt.Sprintf("#f%d", len(b.nameOf))
	b.nameOf[attr] = n
	b.names[n] = attr
	return n
}

func (b *exprBuilder) value(v interface{}) (string, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return "", err
	}
	return b.raw(av), nil
}

func (b *exprBuilder) raw(av types.AttributeValue) string {
	k := fmt.Sprintf(":v%d", len(b.values))
	b.values[k] = av
	return k
}

func (b *exprBuilder) conditions(conds []condition) (string, error) {
	var parts []string
	for _, c := range conds {
		n := b.name(c.attr)
		switch c.op {
		case "exists":
			parts = append(parts, fmt.Sprintf("attribute_exists(%s)", n))
		case "not_exists":
			parts = append(parts, fmt.Sprintf("attribute_not_exists(%s)", n))
		case "absent_or_<>":
			v, err := b.value(c.value)
			if err != nil {
				return "", fmt.Errorf("marshal condition %s: %w", c.attr, err)
			}
			parts = append(parts, fmt.Sprintf("(attribute_not_exists(%s) OR %s <> %s)", n, n, v))
		case "=", "<>":
			v, err := b.value(c.value)
			if err != nil {
				return "", fmt.Errorf("marshal condition %s: %w", c.attr, err)
			}
			parts = append(parts, fmt.Sprintf("%s %s %s", n, c.op, v))
		default:
			return "", fmt.Errorf("unsupported condition operator %q", c.op)
		}
	}
	return strings.Join(parts, " AND "), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

func nilIfEmpty(m map[string]types.AttributeValue) map[string]types.AttributeValue {
	if len(m) == 0 {
		return nil
	}
	return m
}

// optString returns nil for an empty condition so it is left off the request.
func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isConditionFailed reports whether err is a failed ConditionExpression.
func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
