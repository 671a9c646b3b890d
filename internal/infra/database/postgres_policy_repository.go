package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"renewal_reminders/internal/domain/reminder"

	"github.com/lib/pq" // For pq.Int64Array
)

type PostgresPolicyRepository struct {
	db *sql.DB
}

func NewPostgresPolicyRepository(db *sql.DB) *PostgresPolicyRepository {
	return &PostgresPolicyRepository{db: db}
}

const policyColumns = `service_type, service_name, reminder_intervals, reminder_days, reminder_times, is_active, created_by, updated_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (*reminder.PolicyConfig, error) {
	cfg := reminder.PolicyConfig{}
	var intervals pq.Int64Array
	if err := row.Scan(
		&cfg.ServiceType, &cfg.ServiceName, &intervals, &cfg.ReminderDays,
		&cfg.ReminderTimes, &cfg.IsActive, &cfg.CreatedBy, &cfg.UpdatedBy,
	); err != nil {
		return nil, err
	}
	if len(intervals) > 0 {
		cfg.ReminderIntervals = make([]int, len(intervals))
		for i, v := range intervals {
			cfg.ReminderIntervals[i] = int(v)
		}
	}
	return &cfg, nil
}

func (r *PostgresPolicyRepository) ListActive(ctx context.Context) ([]*reminder.PolicyConfig, error) {
	query := `SELECT ` + policyColumns + `
               FROM reminder_configs
               WHERE is_active = TRUE
               ORDER BY service_type ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing active reminder configs: %w", err)
	}
	defer rows.Close()

	configs := make([]*reminder.PolicyConfig, 0)
	for rows.Next() {
		cfg, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reminder config: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder configs: %w", err)
	}
	return configs, nil
}

func (r *PostgresPolicyRepository) GetActiveByService(ctx context.Context, st reminder.ServiceType) (*reminder.PolicyConfig, error) {
	query := `SELECT ` + policyColumns + `
               FROM reminder_configs
               WHERE service_type = $1 AND is_active = TRUE`

	cfg, err := scanPolicy(r.db.QueryRowContext(ctx, query, st))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reminder.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("error getting reminder config for %s: %w", st, err)
	}
	return cfg, nil
}
