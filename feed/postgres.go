package feed

import (
	"context"
	"errors"
	"fmt"

	"restoflow-api/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresChannel is the NOTIFY channel shared by every process on the database
const PostgresChannel = "restoflow_changes"

// Postgres fans events out through LISTEN/NOTIFY, so every process attached
// to the same database sees every write.
type Postgres struct {
	dsn  string
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{dsn: dsn, pool: pool}, nil
}

func (p *Postgres) Publish(ctx context.Context, ev Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, "SELECT pg_notify($1, $2)", PostgresChannel, string(payload)); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}

// Subscribe opens a dedicated connection, since LISTEN state is per session
func (p *Postgres) Subscribe(ctx context.Context, tables ...string) (<-chan Event, error) {
	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{PostgresChannel}.Sanitize()); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("listen: %w", err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		log := logger.Component("feed.postgres")
		defer close(out)
		defer conn.Close(context.Background())

		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					log.WithError(err).Warn("listener stopped")
				}
				return
			}
			ev, err := decode([]byte(n.Payload))
			if err != nil {
				log.WithError(err).Warn("dropping malformed notification")
				continue
			}
			if !wants(tables, ev) {
				continue
			}
			select {
			case out <- ev:
			default:
			}
		}
	}()
	return out, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
