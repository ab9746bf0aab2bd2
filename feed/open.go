package feed

import (
	"context"
	"fmt"
)

// Open builds the broker named by driver
func Open(ctx context.Context, driver, dsn, amqpURL string) (Broker, error) {
	switch driver {
	case "", "memory":
		return NewHub(), nil
	case "postgres":
		return NewPostgres(ctx, dsn)
	case "amqp":
		return NewAMQP(amqpURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
