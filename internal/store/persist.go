package store

import (
	"database/sql"

	"github.com/klauspost/compress/s2"
	_ "modernc.org/sqlite"

	"github.com/kartikbazzad/docquery/internal/errors"
	"github.com/kartikbazzad/docquery/internal/logger"
)

// persister is the write-through sqlite backend. Every insert and update is
// mirrored into a single documents table; payloads are optionally
// s2-compressed. Transient failures (busy database, EAGAIN) are retried
// with backoff.
type persister struct {
	db         *sql.DB
	compress   bool
	classifier *errors.Classifier
	retry      *errors.RetryController
	logger     *logger.Logger
}

const (
	encRaw = 0
	encS2  = 1
)

const persistSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	enc        INTEGER NOT NULL,
	payload    BLOB NOT NULL,
	PRIMARY KEY (collection, id)
)`

func openPersister(path string, compress bool, log *logger.Logger) (*persister, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(persistSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &persister{
		db:         db,
		compress:   compress,
		classifier: errors.NewClassifier(),
		retry:      errors.NewRetryController(),
		logger:     log,
	}, nil
}

func (p *persister) put(collection, id string, payload []byte) error {
	enc := encRaw
	data := payload
	if p.compress {
		enc = encS2
		data = s2.Encode(nil, payload)
	}

	err := p.retry.Retry(func() error {
		_, err := p.db.Exec(`INSERT INTO documents (collection, id, enc, payload) VALUES (?, ?, ?, ?)
			ON CONFLICT (collection, id) DO UPDATE SET enc = excluded.enc, payload = excluded.payload`,
			collection, id, enc, data)
		return err
	}, p.classifier)
	if err != nil {
		msg := "persist %s/%s: %v"
		if p.classifier.IsCritical(p.classifier.Classify(err)) {
			msg = "persist %s/%s failed critically: %v"
		}
		p.logger.Error(msg, collection, id, err)
	}
	return err
}

// loadAll streams every persisted document through fn in storage order.
func (p *persister) loadAll(fn func(collection, id string, payload []byte) error) error {
	rows, err := p.db.Query(`SELECT collection, id, enc, payload FROM documents ORDER BY collection, id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			collection, id string
			enc            int
			data           []byte
		)
		if err := rows.Scan(&collection, &id, &enc, &data); err != nil {
			return err
		}

		payload := data
		if enc == encS2 {
			payload, err = s2.Decode(nil, data)
			if err != nil {
				return err
			}
		}

		if err := fn(collection, id, payload); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (p *persister) close() error {
	return p.db.Close()
}
