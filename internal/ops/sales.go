package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dohr-michael/tasker/internal/tasks"
)

const (
	salesInput  = "ticket-sales.db"
	salesOutput = "ticket-sales-gold.txt"

	salesQuery = `SELECT SUM(units * price) FROM tickets WHERE type = ?`
)

// totalSales sums units*price for ticketType. No matching rows yields 0.
// The caller checks dbPath exists first: opening a missing file would
// create an empty database.
func totalSales(ctx context.Context, dbPath, ticketType string) (any, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer db.Close()

	var total any
	if err := db.QueryRowContext(ctx, salesQuery, ticketType).Scan(&total); err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}

	switch v := total.(type) {
	case nil:
		return int64(0), nil
	case int64, float64:
		return v, nil
	case []byte:
		return parseNumber(string(v))
	case string:
		return parseNumber(v)
	default:
		return nil, fmt.Errorf("unexpected sales total type %T", total)
	}
}

func parseNumber(s string) (any, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("sales total %q is not a number", s)
	}
	return f, nil
}

// formatTotal renders integers plainly and floats with at least one
// decimal, the way a REAL column total usually reads (1234.0, 56.78).
func formatTotal(v any) string {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		s := strconv.FormatFloat(n, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	default:
		return fmt.Sprint(v)
	}
}

// TicketSales totals the configured ticket type from ticket-sales.db.
func (h *Handlers) TicketSales(ctx context.Context) (*tasks.Result, error) {
	dbPath, err := h.Root.Require(salesInput)
	if err != nil {
		return nil, err
	}

	ticketType := h.TicketType
	if ticketType == "" {
		ticketType = "Gold"
	}

	total, err := totalSales(ctx, dbPath, ticketType)
	if err != nil {
		return nil, tasks.ExecutionError("ticket sales", err)
	}

	if err := h.Root.WriteFileAtomic(salesOutput, []byte(formatTotal(total))); err != nil {
		return nil, err
	}
	return tasks.Success("Total sales for '%s' tickets saved to %s", ticketType, h.Root.External(salesOutput)).
		With("total_sales", total), nil
}
