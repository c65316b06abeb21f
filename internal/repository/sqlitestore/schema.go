package sqlitestore

import (
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// schema mirrors migrations/001_init.sql. Timestamps are unix nanoseconds
// and calendar dates are YYYY-MM-DD text.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    full_name        TEXT    NOT NULL,
    email            TEXT    NOT NULL COLLATE NOCASE,
    phone_number     TEXT    NOT NULL DEFAULT '',
    national_id      TEXT    NOT NULL DEFAULT '',
    service_domain   TEXT    NOT NULL DEFAULT '',
    role             TEXT    NOT NULL CHECK (role IN ('admin', 'manager', 'staff', 'client')),
    employment_level TEXT    NOT NULL DEFAULT '',
    date_of_joining  TEXT    NOT NULL DEFAULT '',
    salary_cents     INTEGER NOT NULL DEFAULT 0 CHECK (salary_cents >= 0),
    certifications   TEXT    NOT NULL DEFAULT '',
    password_hash    TEXT    NOT NULL,
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL,
    CONSTRAINT users_email_key UNIQUE (email)
);

CREATE UNIQUE INDEX IF NOT EXISTS users_national_id_key ON users (national_id) WHERE national_id <> '';
CREATE INDEX IF NOT EXISTS users_role_idx ON users (role);

CREATE TABLE IF NOT EXISTS attendance (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id   INTEGER NOT NULL REFERENCES users (id),
    work_date TEXT    NOT NULL,
    check_in  INTEGER,
    check_out INTEGER,
    CONSTRAINT attendance_user_work_date_key UNIQUE (user_id, work_date),
    CONSTRAINT attendance_checkout_after_checkin CHECK (check_out IS NULL OR (check_in IS NOT NULL AND check_out >= check_in))
);

CREATE INDEX IF NOT EXISTS attendance_work_date_idx ON attendance (work_date, user_id);

CREATE TABLE IF NOT EXISTS tickets (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id    INTEGER NOT NULL REFERENCES users (id),
    service_type TEXT    NOT NULL,
    description  TEXT    NOT NULL,
    assigned_to  INTEGER REFERENCES users (id),
    status       TEXT    NOT NULL CHECK (status IN ('PENDING', 'IN_PROGRESS', 'COMPLETED')),
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL,
    CONSTRAINT tickets_assignment_matches_status CHECK (
        (status = 'PENDING' AND assigned_to IS NULL) OR
        (status <> 'PENDING' AND assigned_to IS NOT NULL)
    )
);

CREATE INDEX IF NOT EXISTS tickets_client_idx ON tickets (client_id);
CREATE INDEX IF NOT EXISTS tickets_assigned_to_idx ON tickets (assigned_to);

CREATE TABLE IF NOT EXISTS ticket_history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    ticket_id   INTEGER NOT NULL REFERENCES tickets (id) ON DELETE CASCADE,
    actor_id    INTEGER NOT NULL REFERENCES users (id),
    old_status  TEXT,
    new_status  TEXT    NOT NULL,
    assigned_to INTEGER,
    created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS ticket_history_ticket_idx ON ticket_history (ticket_id, id);
`

// ApplySchema creates the tables on conn. It is idempotent.
func ApplySchema(conn *sqlite.Conn) error {
	return sqlitex.ExecuteScript(conn, schema, nil)
}
