package storage

const schema = `
-- One row per flashcard: content plus the scheduler-owned memory state.
CREATE TABLE IF NOT EXISTS cards (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL,
    bag            TEXT NOT NULL DEFAULT '',
    source_id      INTEGER,
    hash           TEXT NOT NULL,
    question       TEXT NOT NULL,
    answer         TEXT NOT NULL,
    context        TEXT NOT NULL DEFAULT '',
    state          INTEGER NOT NULL DEFAULT 0, -- 0 New, 1 Learning, 2 Review, 3 Relearning
    step           INTEGER NOT NULL DEFAULT 0,
    stability      REAL NOT NULL DEFAULT 0,
    difficulty     REAL NOT NULL DEFAULT 0,
    due            DATETIME NOT NULL,
    last_review    DATETIME,
    elapsed_days   INTEGER,                    -- NULL until the first review
    scheduled_days INTEGER NOT NULL DEFAULT 0,
    reps           INTEGER NOT NULL DEFAULT 0,
    lapses         INTEGER NOT NULL DEFAULT 0,
    suspended      INTEGER NOT NULL DEFAULT 0,
    created_at     DATETIME NOT NULL,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE INDEX IF NOT EXISTS idx_cards_user_due ON cards(user_id, due);
CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_user_hash ON cards(user_id, hash);

-- One row per user: the scheduling-algorithm configuration.
CREATE TABLE IF NOT EXISTS scheduler_params (
    user_id               TEXT PRIMARY KEY,
    weights               TEXT NOT NULL,    -- JSON array of floats
    request_retention     REAL NOT NULL,
    maximum_interval_days INTEGER NOT NULL,
    enable_fuzz           INTEGER NOT NULL DEFAULT 1,
    enable_short_term     INTEGER NOT NULL DEFAULT 1,
    learning_steps        TEXT NOT NULL,    -- JSON array of seconds
    relearning_steps      TEXT NOT NULL,    -- JSON array of seconds
    updated_at            DATETIME NOT NULL
);

-- Append-only review history. elapsed_days and last_elapsed_days are NOT
-- NULL on purpose: a record missing either is corrupt and must never land.
CREATE TABLE IF NOT EXISTS review_logs (
    id                TEXT PRIMARY KEY,
    card_id           TEXT NOT NULL,
    user_id           TEXT NOT NULL,
    rating            INTEGER NOT NULL,
    state             INTEGER NOT NULL,
    due               DATETIME NOT NULL,
    stability         REAL NOT NULL,
    difficulty        REAL NOT NULL,
    scheduled_days    INTEGER NOT NULL,
    step              INTEGER NOT NULL,
    elapsed_days      INTEGER NOT NULL,
    last_elapsed_days INTEGER NOT NULL,
    reviewed_at       DATETIME NOT NULL,
    duration_ms       INTEGER NOT NULL DEFAULT 0,
    session_id        TEXT NOT NULL DEFAULT '',
    review_type       TEXT NOT NULL DEFAULT 'scheduled',

    FOREIGN KEY(card_id) REFERENCES cards(id)
);

CREATE INDEX IF NOT EXISTS idx_review_logs_card ON review_logs(card_id, reviewed_at);

-- Card sources: a local directory or git repository of deck files. Each
-- source feeds one bag for its owning user.
CREATE TABLE IF NOT EXISTS sources (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      TEXT NOT NULL,
    path         TEXT NOT NULL,
    type         TEXT NOT NULL,  -- 'local' or 'git'
    bag          TEXT NOT NULL DEFAULT '',
    last_scanned DATETIME,

    UNIQUE(user_id, path)
);
`
