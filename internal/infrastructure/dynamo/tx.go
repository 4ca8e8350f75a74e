package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-wishlist-api/internal/domain"
	"github.com/go-wishlist-api/internal/pkg/id"
)

// maxTxItems is the TransactWriteItems action limit.
const maxTxItems = 100

// Tx stages writes for a single TransactWriteItems call. DynamoDB rejects a
// transaction that touches the same item twice, so writes against one key are
// merged into one action; a delete supersedes any staged update on its key.
type Tx struct {
	ops   []*txOp
	byKey map[string]*txOp
}

type txOp struct {
	table  string
	key    map[string]types.AttributeValue
	upd    *update
	delete bool
	conds  []condition
}

func NewTx() *Tx {
	return &Tx{byKey: map[string]*txOp{}}
}

// Update returns the staged update for key, creating it on first use.
func (tx *Tx) Update(table string, key map[string]types.AttributeValue) *update {
	op := tx.op(table, key)
	if op.upd == nil {
		op.upd = newUpdate()
	}
	return op.upd
}

// Delete stages removal of key, optionally guarded by conditions.
func (tx *Tx) Delete(table string, key map[string]types.AttributeValue, conds ...condition) {
	op := tx.op(table, key)
	op.delete = true
	op.upd = nil
	op.conds = append(op.conds, conds...)
}

// Len is the number of distinct items the transaction writes.
func (tx *Tx) Len() int { return len(tx.ops) }

func (tx *Tx) op(table string, key map[string]types.AttributeValue) *txOp {
	k := table + "|" + keyID(key)
	if op, ok := tx.byKey[k]; ok {
		return op
	}
	op := &txOp{table: table, key: key}
	tx.byKey[k] = op
	tx.ops = append(tx.ops, op)
	return op
}

// items renders the staged writes in the order they were first touched.
func (tx *Tx) items() ([]types.TransactWriteItem, error) {
	out := make([]types.TransactWriteItem, 0, len(tx.ops))
	for _, op := range tx.ops {
		if op.delete {
			ce, err := buildCondition(op.conds)
			if err != nil {
				return nil, err
			}
			del := &types.Delete{TableName: aws.String(op.table), Key: op.key}
			if ce.Condition != "" {
				del.ConditionExpression = aws.String(ce.Condition)
				del.ExpressionAttributeNames = ce.Names
				del.ExpressionAttributeValues = ce.Values
			}
			out = append(out, types.TransactWriteItem{Delete: del})
			continue
		}
		if op.upd == nil || op.upd.empty() {
			continue
		}
		ue, err := op.upd.build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.table, err)
		}
		out = append(out, types.TransactWriteItem{Update: &types.Update{
			TableName:                 aws.String(op.table),
			Key:                       op.key,
			UpdateExpression:          aws.String(ue.Expr),
			ConditionExpression:       optString(ue.Condition),
			ExpressionAttributeNames:  ue.Names,
			ExpressionAttributeValues: ue.Values,
		}})
	}
	return out, nil
}

// Commit applies every staged write atomically. A cancelled transaction is
// reported as domain.ErrConflict: nothing was written.
func Commit(ctx context.Context, client *dynamodb.Client, tx *Tx) error {
	items, err := tx.items()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	if len(items) > maxTxItems {
		return fmt.Errorf("transaction has %d writes, limit is %d", len(items), maxTxItems)
	}
	_, err = client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems:      items,
		ClientRequestToken: aws.String(id.New()),
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("transaction cancelled (%s): %w", cancellationReasons(tce), domain.ErrConflict)
		}
		return err
	}
	return nil
}

func cancellationReasons(tce *types.TransactionCanceledException) string {
	var codes []string
	for _, r := range tce.CancellationReasons {
		if c := aws.ToString(r.Code); c != "" && c != "None" {
			codes = append(codes, c)
		}
	}
	return strings.Join(codes, ",")
}

// keyID renders a key map as a stable string for de-duplication.
func keyID(key map[string]types.AttributeValue) string {
	names := make([]string, 0, len(key))
	for k := range key {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, k := range names {
		b.WriteString(k)
		b.WriteByte('=')
		if s, ok := key[k].(*types.AttributeValueMemberS); ok {
			b.WriteString(s.Value)
		}
		b.WriteByte(';')
	}
	return b.String()
}
