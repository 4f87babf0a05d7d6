package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_time_logs", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_settings", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_notifications", UpSQL: migration004Up, DownSQL: migration004Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    password TEXT NOT NULL,
    role VARCHAR(10) NOT NULL DEFAULT 'EMPLOYEE',
    position TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('ADMIN', 'EMPLOYEE'))
);

CREATE INDEX IF NOT EXISTS idx_users_name ON users(name);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(lower(email));
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: TIME LOGS
// Logs have no foreign key to users: deleting a user keeps their history.
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS time_logs (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    punched_at TIMESTAMP WITH TIME ZONE NOT NULL,
    type VARCHAR(20) NOT NULL,
    edited BOOLEAN NOT NULL DEFAULT FALSE,
    notes TEXT NOT NULL DEFAULT '',
    latitude DOUBLE PRECISION,
    longitude DOUBLE PRECISION,

    CONSTRAINT valid_type CHECK (type IN ('ENTRY', 'LUNCH_START', 'LUNCH_END', 'EXIT')),
    CONSTRAINT location_pair CHECK ((latitude IS NULL) = (longitude IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_time_logs_user_time ON time_logs(user_id, punched_at DESC);
CREATE INDEX IF NOT EXISTS idx_time_logs_time ON time_logs(punched_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS time_logs;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: SETTINGS
// A single row keyed by id = 1.
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS settings (
    id SMALLINT PRIMARY KEY DEFAULT 1,
    work_start VARCHAR(5) NOT NULL,
    work_end VARCHAR(5) NOT NULL,
    lunch_start VARCHAR(5) NOT NULL,
    lunch_end VARCHAR(5) NOT NULL,
    emailjs_service_id TEXT NOT NULL DEFAULT '',
    emailjs_template_id TEXT NOT NULL DEFAULT '',
    emailjs_public_key TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT single_row CHECK (id = 1)
);
`

const migration003Down = `
DROP TABLE IF EXISTS settings;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: OUTBOX AND REMINDER LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    recipient TEXT NOT NULL,
    subject TEXT NOT NULL,
    body TEXT NOT NULL,
    sent_at TIMESTAMP WITH TIME ZONE NOT NULL,
    read BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(lower(recipient), sent_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_sent_at ON notifications(sent_at);

CREATE TABLE IF NOT EXISTS reminders_sent (
    user_id TEXT NOT NULL,
    day DATE NOT NULL,
    sent_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, day)
);
`

const migration004Down = `
DROP TABLE IF EXISTS reminders_sent;
DROP TABLE IF EXISTS notifications;
`
