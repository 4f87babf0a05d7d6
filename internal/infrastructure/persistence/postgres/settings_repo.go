package postgres

import (
	"context"
	"fmt"

	"github.com/espacohidro/pontocerto/internal/domain/settings"
)

// SettingsRepository implements settings.Repository over the single
// settings row.
type SettingsRepository struct {
	conn *Connection
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(conn *Connection) *SettingsRepository {
	return &SettingsRepository{conn: conn}
}

var _ settings.Repository = (*SettingsRepository)(nil)

// Get returns the stored settings, or the defaults when none were saved.
func (r *SettingsRepository) Get(ctx context.Context) (settings.CompanySettings, error) {
	query := `
		SELECT work_start, work_end, lunch_start, lunch_end,
		       emailjs_service_id, emailjs_template_id, emailjs_public_key
		FROM settings
		WHERE id = 1
	`

	var s settings.CompanySettings
	err := r.conn.QueryRow(ctx, query).Scan(
		&s.WorkStart,
		&s.WorkEnd,
		&s.LunchStart,
		&s.LunchEnd,
		&s.EmailJSServiceID,
		&s.EmailJSTemplateID,
		&s.EmailJSPublicKey,
	)
	if IsNoRows(err) {
		return settings.Defaults(), nil
	}
	if err != nil {
		return settings.CompanySettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

// Save upserts the settings row.
func (r *SettingsRepository) Save(ctx context.Context, s settings.CompanySettings) error {
	return saveSettings(ctx, r.conn, s)
}

func saveSettings(ctx context.Context, q Querier, s settings.CompanySettings) error {
	query := `
		INSERT INTO settings (id, work_start, work_end, lunch_start, lunch_end,
		                      emailjs_service_id, emailjs_template_id, emailjs_public_key)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			work_start = EXCLUDED.work_start,
			work_end = EXCLUDED.work_end,
			lunch_start = EXCLUDED.lunch_start,
			lunch_end = EXCLUDED.lunch_end,
			emailjs_service_id = EXCLUDED.emailjs_service_id,
			emailjs_template_id = EXCLUDED.emailjs_template_id,
			emailjs_public_key = EXCLUDED.emailjs_public_key,
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query,
		s.WorkStart, s.WorkEnd, s.LunchStart, s.LunchEnd,
		s.EmailJSServiceID, s.EmailJSTemplateID, s.EmailJSPublicKey,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
