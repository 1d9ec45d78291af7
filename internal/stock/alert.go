package stock

// LowStockThreshold is the level below which a low stock alert fires.
const LowStockThreshold = 5

type AlertKind int

const (
	AlertNone AlertKind = iota
	AlertLowStock
	AlertOutOfStock
)

func (k AlertKind) String() string {
	switch k {
	case AlertLowStock:
		return "low_stock"
	case AlertOutOfStock:
		return "out_of_stock"
	default:
		return "none"
	}
}

// Classify maps a post-decrement level to an alert.
// Negative levels mean the bucket is oversold and count as out of stock.
func Classify(level int) AlertKind {
	switch {
	case level <= 0:
		return AlertOutOfStock
	case level < LowStockThreshold:
		return AlertLowStock
	default:
		return AlertNone
	}
}
