// Command orders-export streams orders from PostgreSQL into a CSV file for
// back-office reporting.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vegnar/orders-api/internal/repository"
)

const exportSQL = `SELECT id, amount, currency, gateway_order_id,
		COALESCE(gateway_payment_id, ''), status, full_name, email,
		COALESCE(phone_number, ''), COALESCE(company, ''),
		shipping_address, sample_count, created_at
	FROM orders
	WHERE created_at >= $1
	ORDER BY created_at`

var csvHeader = []string{
	"id", "amount", "currency", "gateway_order_id", "gateway_payment_id",
	"status", "full_name", "email", "phone_number", "company",
	"shipping_address", "sample_count", "created_at",
}

// exportRow is one flattened order ready for CSV output.
type exportRow struct {
	id, currency, gatewayOrderID, gatewayPaymentID string
	status, fullName, email, phone, company        string
	shippingAddress                                string
	amount                                         decimal.Decimal
	sampleCount                                    int
	createdAt                                      time.Time
}

func main() {
	var (
		databaseURL string
		outPath     string
		sinceDays   int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&outPath, "out", "orders.csv", "output CSV path")
	flag.IntVar(&sinceDays, "since-days", 0, "only export orders from the last N days (0 = all)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, outPath, sinceDays); err != nil {
		slog.Error("orders export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("orders export completed", slog.String("out", outPath))
}

func run(ctx context.Context, databaseURL, outPath string, sinceDays int) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer out.Close()

	since := time.Time{}
	if sinceDays > 0 {
		since = time.Now().AddDate(0, 0, -sinceDays)
	}

	// One goroutine reads rows, the other writes CSV, connected by a channel
	// so a slow disk does not hold a database connection idle.
	rows := make(chan exportRow, 256)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(rows)
		return readOrders(ctx, pool, since, rows)
	})

	g.Go(func() error {
		w := csv.NewWriter(out)
		if err := w.Write(csvHeader); err != nil {
			return errors.Wrap(err, "write header")
		}
		var count int
		for row := range rows {
			if err := w.Write(row.record()); err != nil {
				return errors.Wrap(err, "write row")
			}
			count++
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return errors.Wrap(err, "flush csv")
		}
		slog.Info("rows written", slog.Int("count", count))
		return nil
	})

	return g.Wait()
}

func readOrders(ctx context.Context, pool *pgxpool.Pool, since time.Time, out chan<- exportRow) error {
	rows, err := pool.Query(ctx, exportSQL, since)
	if err != nil {
		return errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	for rows.Next() {
		var r exportRow
		err := rows.Scan(
			&r.id, &r.amount, &r.currency, &r.gatewayOrderID,
			&r.gatewayPaymentID, &r.status, &r.fullName, &r.email,
			&r.phone, &r.company, &r.shippingAddress, &r.sampleCount,
			&r.createdAt,
		)
		if err != nil {
			return errors.Wrap(err, "scan order")
		}

		select {
		case out <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Wrap(rows.Err(), "read orders")
}

func (r exportRow) record() []string {
	return []string{
		r.id, r.amount.String(), r.currency, r.gatewayOrderID,
		r.gatewayPaymentID, r.status, r.fullName, r.email,
		r.phone, r.company, r.shippingAddress,
		strconv.Itoa(r.sampleCount), r.createdAt.Format(time.RFC3339),
	}
}
