package timeoff

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplyYearRollover seeds balances for the given year from the previous
// year's, carrying over unused days up to each type's cap. Existing rows for
// the year are left untouched, so the job is safe to re-run. Returns the
// number of balances created.
func ApplyYearRollover(ctx context.Context, db *pgxpool.Pool, year int) (int, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO time_off_balances (employee_id, type_id, year, allocated, carry_over, used, pending)
		SELECT b.employee_id, b.type_id, $1, t.default_allocation,
		       GREATEST(LEAST(b.allocated + b.carry_over - b.used - b.pending, t.max_carry_over), 0),
		       0, 0
		FROM time_off_balances b
		JOIN time_off_types t ON t.id = b.type_id
		JOIN employees e ON e.id = b.employee_id
		WHERE b.year = $1 - 1 AND t.active AND e.status = 'ACTIVE'
		ON CONFLICT (employee_id, type_id, year) DO NOTHING`, year)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
