package db

import "database/sql"

// MigrateUp creates the sources/articles schema if it does not already
// exist. Feed sources are reconciled from the sources file at startup
// (internal/config.LoadSources + SourceRepository.Upsert), not seeded here.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sources (
    id              BIGSERIAL PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    url             TEXT NOT NULL UNIQUE,
    category        TEXT NOT NULL DEFAULT '',
    priority        INTEGER NOT NULL DEFAULT 5,
    timeout_seconds INTEGER,
    last_crawled_at TIMESTAMPTZ,
    active          BOOLEAN NOT NULL DEFAULT TRUE
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id                         BIGSERIAL PRIMARY KEY,
    post_id                    TEXT NOT NULL UNIQUE,
    url                        TEXT NOT NULL UNIQUE,
    title                      TEXT NOT NULL DEFAULT '',
    content                    TEXT NOT NULL DEFAULT '',
    html_content               TEXT NOT NULL DEFAULT '',
    blog_host                  TEXT NOT NULL DEFAULT '',
    blog_host_type             TEXT NOT NULL DEFAULT 'OTHER',
    published_on               TIMESTAMPTZ NOT NULL,
    failed_published_at        BOOLEAN NOT NULL DEFAULT FALSE,
    sim_hash                   BIGINT NOT NULL DEFAULT 0,
    has_sim_hash               BOOLEAN NOT NULL DEFAULT FALSE,
    relevance                  TEXT NOT NULL DEFAULT 'unknown',
    relevance_score            DOUBLE PRECISION NOT NULL DEFAULT 0,
    category                   TEXT NOT NULL DEFAULT '',
    subcategory                TEXT NOT NULL DEFAULT '',
    classification_confidence  DOUBLE PRECISION NOT NULL DEFAULT 0,
    summary                    TEXT NOT NULL DEFAULT '',
    source_id                  BIGINT REFERENCES sources(id),
    created_at                 TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at                 TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	indexes := []string{
		// SelectByWindow/SelectUnchecked/SelectRelevantUnclassified all order by this.
		`CREATE INDEX IF NOT EXISTS idx_articles_published_on ON articles(published_on DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source_id ON articles(source_id)`,
		// SelectUnchecked / SelectRelevantUnclassified filter on these.
		`CREATE INDEX IF NOT EXISTS idx_articles_relevance ON articles(relevance)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_relevance_score ON articles(relevance_score)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category) WHERE category <> ''`,
		`CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(active) WHERE active = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_sources_priority ON sources(priority)`,
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the schema. Use with caution: this deletes all data.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS articles CASCADE`,
		`DROP TABLE IF EXISTS sources CASCADE`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
