package sqlite

// schema contains the database schema DDL. Timestamps are stored as Unix
// milliseconds.
const schema = `
-- Glucose samples
CREATE TABLE IF NOT EXISTS samples (
    timestamp INTEGER PRIMARY KEY,
    value INTEGER NOT NULL
);

-- Bolus events
CREATE TABLE IF NOT EXISTS boluses (
    timestamp INTEGER PRIMARY KEY,
    amount REAL NOT NULL
);

-- Carb events
CREATE TABLE IF NOT EXISTS carbs (
    timestamp INTEGER PRIMARY KEY,
    amount INTEGER NOT NULL
);

-- Remote command audit log
CREATE TABLE IF NOT EXISTS commands (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    detail TEXT,
    error TEXT,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_commands_created ON commands(created_at);

-- Configuration
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
