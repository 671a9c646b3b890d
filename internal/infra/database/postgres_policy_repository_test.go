package database

import (
	"context"
	"errors"
	"testing"

	"renewal_reminders/internal/domain/reminder"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var policyColumnNames = []string{
	"service_type", "service_name", "reminder_intervals", "reminder_days",
	"reminder_times", "is_active", "created_by", "updated_by",
}

func TestPostgresPolicyRepository_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM reminder_configs\s+WHERE is_active = TRUE\s+ORDER BY service_type ASC`).
		WillReturnRows(sqlmock.NewRows(policyColumnNames).
			AddRow("dsc", "Digital Signature Certificate", "{30,15,7,1}", 30, 4, true, 3, nil).
			AddRow("fire_insurance", "Fire Insurance", nil, 30, 3, true, nil, nil))

	repo := NewPostgresPolicyRepository(db)
	configs, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, reminder.ServiceDSC, configs[0].ServiceType)
	assert.Equal(t, []int{30, 15, 7, 1}, configs[0].ReminderIntervals)
	assert.True(t, configs[0].CreatedBy.Valid)
	assert.Equal(t, int64(3), configs[0].CreatedBy.Int64)

	assert.Equal(t, reminder.ServiceFireInsurance, configs[1].ServiceType)
	assert.Nil(t, configs[1].ReminderIntervals)
	assert.Equal(t, int32(30), configs[1].ReminderDays.Int32)
	assert.False(t, configs[1].UpdatedBy.Valid)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPolicyRepository_GetActiveByService(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE service_type = \$1 AND is_active = TRUE`).
		WithArgs("vehicle_insurance").
		WillReturnRows(sqlmock.NewRows(policyColumnNames).
			AddRow("vehicle_insurance", "Vehicle Insurance", "{30,15,7,3,1}", 30, 5, true, nil, nil))

	repo := NewPostgresPolicyRepository(db)
	cfg, err := repo.GetActiveByService(context.Background(), reminder.ServiceVehicleInsurance)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 15, 7, 3, 1}, cfg.ReminderIntervals)
	assert.True(t, cfg.IsActive)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPolicyRepository_GetActiveByService_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM reminder_configs`).
		WithArgs("dsc").
		WillReturnRows(sqlmock.NewRows(policyColumnNames))

	repo := NewPostgresPolicyRepository(db)
	_, err = repo.GetActiveByService(context.Background(), reminder.ServiceDSC)
	assert.True(t, errors.Is(err, reminder.ErrPolicyNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}
