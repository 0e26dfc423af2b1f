package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/chime/internal/constants"
)

// SQL implements the data methods of Provider over sqlx. Queries use ?
// placeholders and are rebound for the driver
type SQL struct {
	DB *sqlx.DB
}

const scheduleColumns = `id, name, audio_file_path, scheduled_time, enabled, repeat_type,
	repeat_days, volume, created_at, updated_at, last_run_at`

func (s *SQL) AddSchedule(row ScheduleRow) error {
	_, err := s.DB.NamedExec(`INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (:id, :name, :audio_file_path, :scheduled_time, :enabled, :repeat_type,
			:repeat_days, :volume, :created_at, :updated_at, :last_run_at)`, row)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}
	return nil
}

func (s *SQL) GetSchedule(id string) (ScheduleRow, error) {
	var row ScheduleRow
	err := s.DB.Get(&row, s.DB.Rebind(`SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ScheduleRow{}, fmt.Errorf("schedule %s: %w", id, ErrNotFound)
		}
		return ScheduleRow{}, fmt.Errorf("failed to get schedule: %w", err)
	}
	return row, nil
}

func (s *SQL) GetAllSchedules() ([]ScheduleRow, error) {
	rows := []ScheduleRow{}
	if err := s.DB.Select(&rows, `SELECT `+scheduleColumns+` FROM schedules ORDER BY scheduled_time, created_at`); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return rows, nil
}

func (s *SQL) UpdateSchedule(row ScheduleRow) error {
	res, err := s.DB.NamedExec(`UPDATE schedules SET
		name = :name,
		audio_file_path = :audio_file_path,
		scheduled_time = :scheduled_time,
		enabled = :enabled,
		repeat_type = :repeat_type,
		repeat_days = :repeat_days,
		volume = :volume,
		updated_at = :updated_at,
		last_run_at = :last_run_at
		WHERE id = :id`, row)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return expectOne(res, row.ID)
}

func (s *SQL) DeleteSchedule(id string) error {
	res, err := s.DB.Exec(s.DB.Rebind(`DELETE FROM schedules WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return expectOne(res, id)
}

func (s *SQL) GetSettings() (map[string]string, error) {
	rows, err := s.DB.Queryx(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	defer rows.Close()

	settings := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// SaveSetting upserts a single key. ON CONFLICT is understood by both
// SQLite (3.24+) and PostgreSQL
func (s *SQL) SaveSetting(key, value string) error {
	now := time.Now().Format(constants.TimestampFormat)
	_, err := s.DB.Exec(s.DB.Rebind(`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, value, now)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// SaveDefaultSettings writes defaults for any key that is not yet stored
func (s *SQL) SaveDefaultSettings(defaults map[string]string) error {
	existing, err := s.GetSettings()
	if err != nil {
		return err
	}
	for key, value := range defaults {
		if _, ok := existing[key]; ok {
			continue
		}
		if err := s.SaveSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("schedule %s: %w", id, ErrNotFound)
	}
	return nil
}
