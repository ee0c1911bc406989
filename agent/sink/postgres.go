package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

// PostgresConfig is read with the POSTGRES prefix.
type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`
}

type orderRecord struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID         string            `bun:"order_id,pk"`
	SessionID       string            `bun:"session_id,notnull"`
	CustomerName    string            `bun:"customer_name,notnull"`
	CustomerEmail   string            `bun:"customer_email,notnull"`
	CustomerAddress string            `bun:"customer_address,notnull"`
	CustomerPhone   string            `bun:"customer_phone,notnull"`
	Items           []statex.LineItem `bun:"items,type:jsonb,notnull"`
	TotalCents      int64             `bun:"total_cents,notnull"`
	SubmittedAt     time.Time         `bun:"submitted_at,notnull"`
}

func toRecord(o contract.FinalizedOrder) *orderRecord {
	return &orderRecord{
		OrderID:         o.OrderID,
		SessionID:       o.SessionID,
		CustomerName:    o.Customer.Name,
		CustomerEmail:   o.Customer.Email,
		CustomerAddress: o.Customer.Address,
		CustomerPhone:   o.Customer.Phone,
		Items:           o.Items,
		TotalCents:      int64(o.Total),
		SubmittedAt:     o.SubmittedAt.UTC(),
	}
}

// PostgresSink stores each finalized order as one row in "orders".
type PostgresSink struct {
	db      *bun.DB
	timeout time.Duration
}

// OpenPostgres connects lazily; the first query dials the server.
func OpenPostgres(cfg PostgresConfig) *PostgresSink {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	return NewPostgresSink(bun.NewDB(sqldb, pgdialect.New()), cfg.Timeout)
}

func NewPostgresSink(db *bun.DB, timeout time.Duration) *PostgresSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresSink{db: db, timeout: timeout}
}

// EnsureSchema creates the orders table when it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.NewCreateTable().Model((*orderRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}
	return nil
}

func (s *PostgresSink) Submit(ctx context.Context, order contract.FinalizedOrder) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.insertQuery(order).Exec(ctx); err != nil {
		return fmt.Errorf("insert order %s: %w", order.OrderID, err)
	}
	return nil
}

func (s *PostgresSink) insertQuery(order contract.FinalizedOrder) *bun.InsertQuery {
	return s.db.NewInsert().Model(toRecord(order))
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
