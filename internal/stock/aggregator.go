// Package stock derives stock levels from the transaction ledger.
//
// Nothing here touches storage: callers load ledger entries and fold them.
// Totals are never clamped, so an oversell shows up as a negative bucket.
package stock

import (
	"sort"

	"bill-mart/internal/model"

	"github.com/google/uuid"
)

// Bucket is the running total for one variant key of one product.
type Bucket struct {
	Key model.VariantKey `json:"custom_fields"`
	In  int              `json:"in"`
	Out int              `json:"out"`
	Net int              `json:"total"`
}

// Buckets maps the canonical variant key string to its bucket.
type Buckets map[string]*Bucket

// Fold groups transactions by variant key and sums signed quantities.
// The result does not depend on the order of txns.
func Fold(txns []model.StockTransaction) Buckets {
	b := Buckets{}
	for i := range txns {
		b.Apply(txns[i].Direction, txns[i].Variant, txns[i].Quantity)
	}
	return b
}

// FoldByProduct folds a mixed ledger into one Buckets per product.
func FoldByProduct(txns []model.StockTransaction) map[uuid.UUID]Buckets {
	out := make(map[uuid.UUID]Buckets)
	for i := range txns {
		t := &txns[i]
		b, ok := out[t.ProductID]
		if !ok {
			b = Buckets{}
			out[t.ProductID] = b
		}
		b.Apply(t.Direction, t.Variant, t.Quantity)
	}
	return out
}

// Apply adds one movement and returns the new net total of its bucket.
func (b Buckets) Apply(dir model.Direction, key model.VariantKey, qty int) int {
	k := key.String()
	bucket, ok := b[k]
	if !ok {
		bucket = &Bucket{Key: key}
		if bucket.Key == nil {
			bucket.Key = model.VariantKey{}
		}
		b[k] = bucket
	}
	switch dir {
	case model.DirectionIn:
		bucket.In += qty
		bucket.Net += qty
	case model.DirectionOut:
		bucket.Out += qty
		bucket.Net -= qty
	}
	return bucket.Net
}

// Available returns the net total for key; unseen keys are 0.
func (b Buckets) Available(key model.VariantKey) int {
	if bucket, ok := b[key.String()]; ok {
		return bucket.Net
	}
	return 0
}

// Total sums every bucket of the product.
func (b Buckets) Total() int {
	total := 0
	for _, bucket := range b {
		total += bucket.Net
	}
	return total
}

// Sorted returns the buckets ordered by canonical key.
func (b Buckets) Sorted() []Bucket {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Bucket, len(keys))
	for i, k := range keys {
		out[i] = *b[k]
	}
	return out
}

// Clone copies b so a caller can apply tentative movements.
func (b Buckets) Clone() Buckets {
	out := make(Buckets, len(b))
	for k, bucket := range b {
		cp := *bucket
		out[k] = &cp
	}
	return out
}
