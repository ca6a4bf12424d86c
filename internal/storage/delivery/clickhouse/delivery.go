package clickhouse

import (
	"context"
	"fmt"

	"github.com/leshachaplin/capirelay/internal/domain"
)

func (c *Clickhouse) StoreDelivery(ctx context.Context, d domain.Delivery) error {
	batch, err := c.conn.PrepareBatch(ctx, `INSERT INTO deliveries`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	row := deliveryFromDomain(d)
	if err = batch.AppendStruct(&row); err != nil {
		return fmt.Errorf("append delivery: %w", err)
	}
	return batch.Send()
}
