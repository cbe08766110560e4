// Package sequence generates monotonically increasing, prefix-scoped voucher
// numbers. Each prefix has an independent counter starting at 1; gaps are
// permitted (a number allocated inside a rolled-back posting is burned) but
// duplicates are not.
package sequence

import (
	"context"
	"fmt"
)

// Sequencer allocates the next voucher number for a prefix.
type Sequencer interface {
	Next(ctx context.Context, prefix string) (string, error)
}

// Format renders a counter value as a voucher number, e.g. "JV-000001".
func Format(prefix string, counter int64) string {
	return fmt.Sprintf("%s-%06d", prefix, counter)
}
