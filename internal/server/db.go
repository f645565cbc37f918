package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/a7medmo7amady/trello/internal/models"
	"github.com/a7medmo7amady/trello/internal/remote"
)

const timeFormat = time.RFC3339Nano

// BoardDB is the server-side board store, backed by SQLite.
type BoardDB struct {
	conn *sql.DB
}

// OpenBoardDB opens (creating if needed) the board database at path.
func OpenBoardDB(path string) (*BoardDB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open board db: %w", err)
	}
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS lists (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			ord              INTEGER NOT NULL DEFAULT 0,
			archived         INTEGER NOT NULL DEFAULT 0,
			version          INTEGER NOT NULL DEFAULT 1,
			last_modified_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS cards (
			id               TEXT PRIMARY KEY,
			list_id          TEXT NOT NULL,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			tags             TEXT NOT NULL DEFAULT '[]',
			ord              INTEGER NOT NULL DEFAULT 0,
			version          INTEGER NOT NULL DEFAULT 1,
			last_modified_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_cards_list ON cards(list_id);
		CREATE TABLE IF NOT EXISTS applied_changes (
			id         TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init board schema: %w", err)
	}
	return &BoardDB{conn: conn}, nil
}

// Close releases the database handle.
func (db *BoardDB) Close() error {
	return db.conn.Close()
}

// Snapshot reads the whole board.
func (db *BoardDB) Snapshot() (models.Snapshot, error) {
	var snap models.Snapshot

	rows, err := db.conn.Query(`SELECT id, title, ord, archived, version, last_modified_at FROM lists ORDER BY ord, id`)
	if err != nil {
		return snap, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l models.List
		var archived int
		var ts string
		if err := rows.Scan(&l.ID, &l.Title, &l.Order, &archived, &l.Version, &ts); err != nil {
			return snap, fmt.Errorf("scan list: %w", err)
		}
		l.Archived = archived != 0
		if l.LastModifiedAt, err = time.Parse(timeFormat, ts); err != nil {
			return snap, fmt.Errorf("parse list timestamp: %w", err)
		}
		snap.Lists = append(snap.Lists, l)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate lists: %w", err)
	}

	crows, err := db.conn.Query(`SELECT id, list_id, title, description, tags, ord, version, last_modified_at FROM cards ORDER BY list_id, ord, id`)
	if err != nil {
		return snap, fmt.Errorf("query cards: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var c models.Card
		var tags, ts string
		if err := crows.Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &tags, &c.Order, &c.Version, &ts); err != nil {
			return snap, fmt.Errorf("scan card: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
			return snap, fmt.Errorf("parse card tags: %w", err)
		}
		if c.LastModifiedAt, err = time.Parse(timeFormat, ts); err != nil {
			return snap, fmt.Errorf("parse card timestamp: %w", err)
		}
		snap.Cards = append(snap.Cards, c)
	}
	if err := crows.Err(); err != nil {
		return snap, fmt.Errorf("iterate cards: %w", err)
	}

	var lastMod string
	err = db.conn.QueryRow(`SELECT value FROM meta WHERE key = 'last_modified'`).Scan(&lastMod)
	if err == nil {
		snap.LastModified, _ = time.Parse(timeFormat, lastMod)
	} else if err != sql.ErrNoRows {
		return snap, fmt.Errorf("read last_modified: %w", err)
	}
	return snap, nil
}

// ReplaceSnapshot overwrites the whole board. Used only for bootstrap/seed.
func (db *BoardDB) ReplaceSnapshot(snap models.Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM lists`); err != nil {
		return fmt.Errorf("clear lists: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM cards`); err != nil {
		return fmt.Errorf("clear cards: %w", err)
	}
	for _, l := range snap.Lists {
		if err := upsertList(tx, l); err != nil {
			return err
		}
	}
	for _, c := range snap.Cards {
		if err := upsertCard(tx, c); err != nil {
			return err
		}
	}
	if err := touchBoard(tx, time.Now()); err != nil {
		return err
	}
	return tx.Commit()
}

// ApplyChanges applies a pushed batch. Each entry succeeds or fails
// independently inside its own transaction; duplicates (retries of entries
// already applied) succeed without reapplying.
func (db *BoardDB) ApplyChanges(batch []models.SyncQueueEntry) ([]remote.ChangeResult, error) {
	results := make([]remote.ChangeResult, 0, len(batch))
	for _, entry := range batch {
		err := db.applyOne(entry)
		res := remote.ChangeResult{ChangeID: entry.ID, Success: err == nil}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

func (db *BoardDB) applyOne(entry models.SyncQueueEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("empty change id")
	}
	if !models.IsValidChangeType(entry.Type) {
		return fmt.Errorf("unknown change type: %q", entry.Type)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Dedupe retried entries by their own ID.
	res, err := tx.Exec(`INSERT OR IGNORE INTO applied_changes (id, applied_at) VALUES (?, ?)`,
		entry.ID, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("record change: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tx.Commit() // already applied
	}

	if err := applyChange(tx, entry); err != nil {
		return err
	}
	if err := touchBoard(tx, time.Now()); err != nil {
		return err
	}
	return tx.Commit()
}

func applyChange(tx *sql.Tx, entry models.SyncQueueEntry) error {
	switch entry.Type {
	case models.ChangeListCreate:
		var d models.ListCreateData
		if err := json.Unmarshal(entry.Data, &d); err != nil {
			return fmt.Errorf("decode %s: %w", entry.Type, err)
		}
		return upsertList(tx, d.List)

	case models.ChangeListRename:
		var d models.ListRenameData
		if err := json.Unmarshal(entry.Data, &d); err != nil {
			return fmt.Errorf("decode %s: %w", entry.Type, err)
		}
		return updateList(tx, d.ListID, d.Version, entry.Timestamp, `title = ?`, d.Title)

	case models.ChangeListArchive, models.ChangeListRestore:
		var d models.ListArchiveData
		if err := json.Unmarshal(entry.Data, &d); err != nil {
			return fmt.Errorf("decode %s: %w", entry.Type, err)
		}
		archived := 0
		if d.Archived {
			archived = 1
		}
		return updateList(tx, d.ListID, d.Version, entry.Timestamp, `archived = ?`, archived)

	case models.ChangeListDelete:
		var d models.ListDeleteData
		if err := json.Unmarshal(entry.Data, &d); err != nil {
			return fmt.Errorf("decode %s: %w", entry.Type, err)
		}
		if _, err := tx.Exec(`DELETE FROM cards WHERE list_id = ?`, d.ListID); err != nil {
			return fmt.Errorf("cascade cards: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM lists WHERE id = ?`, d.ListID); err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
		return nil

	case models.ChangeCardCreate:
		var d models.CardCreateData
		if err := json.Unmarshal(entry.Data, &d); err != nil {
			return fmt.Errorf("decode %s: %w", entry.Type, err)
		}
		return upsertCard(tx, d.Card)

	case models.ChangeCardUpdate:
		return applyCardUpdate(tx, entry)

	case models.ChangeCardDelete:
		var d models.CardDeleteData
		if err := json.Unmarshal(entry.Data, &d); err != nil {
			return fmt.Errorf("decode %s: %w", entry.Type, err)
		}
		if _, err := tx.Exec(`DELETE FROM cards WHERE id = ?`, d.CardID); err != nil {
			return fmt.Errorf("delete card: %w", err)
		}
		return nil

	case models.ChangeCardMove:
		return applyCardMove(tx, entry)

	case models.ChangeOverride:
		var d models.OverrideData
		if err := json.Unmarshal(entry.Data, &d); err != nil {
			return fmt.Errorf("decode %s: %w", entry.Type, err)
		}
		switch {
		case d.EntityType == models.EntityList && d.List != nil:
			return upsertList(tx, *d.List)
		case d.EntityType == models.EntityCard && d.Card != nil:
			return upsertCard(tx, *d.Card)
		}
		return fmt.Errorf("override payload missing entity")

	default:
		return fmt.Errorf("unknown change type: %q", entry.Type)
	}
}

func applyCardUpdate(tx *sql.Tx, entry models.SyncQueueEntry) error {
	var d models.CardUpdateData
	if err := json.Unmarshal(entry.Data, &d); err != nil {
		return fmt.Errorf("decode %s: %w", entry.Type, err)
	}
	sets := ""
	var args []any
	if d.Title != nil {
		sets += "title = ?, "
		args = append(args, *d.Title)
	}
	if d.Description != nil {
		sets += "description = ?, "
		args = append(args, *d.Description)
	}
	if d.Tags != nil {
		tags, err := json.Marshal(models.NormalizeTags(*d.Tags))
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		sets += "tags = ?, "
		args = append(args, string(tags))
	}
	return updateCard(tx, d.CardID, d.Version, entry.Timestamp, sets, args...)
}

// applyCardMove replays the client's deterministic placement: the moved card
// lands at the clamped target index and the destination list is renumbered
// stably. Sibling versions are not bumped, matching the client reducer.
func applyCardMove(tx *sql.Tx, entry models.SyncQueueEntry) error {
	var d models.CardMoveData
	if err := json.Unmarshal(entry.Data, &d); err != nil {
		return fmt.Errorf("decode %s: %w", entry.Type, err)
	}

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM cards WHERE id = ?`, d.CardID).Scan(&exists); err != nil {
		return fmt.Errorf("check card: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("card %s not found", d.CardID)
	}

	type sibling struct {
		id  string
		ord int
	}
	rows, err := tx.Query(`SELECT id, ord FROM cards WHERE list_id = ? AND id != ? ORDER BY ord, id`,
		d.TargetListID, d.CardID)
	if err != nil {
		return fmt.Errorf("query siblings: %w", err)
	}
	var siblings []sibling
	for rows.Next() {
		var s sibling
		if err := rows.Scan(&s.id, &s.ord); err != nil {
			rows.Close()
			return fmt.Errorf("scan sibling: %w", err)
		}
		siblings = append(siblings, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate siblings: %w", err)
	}
	sort.SliceStable(siblings, func(a, b int) bool { return siblings[a].ord < siblings[b].ord })

	idx := len(siblings)
	if d.TargetIndex != nil {
		idx = *d.TargetIndex
		if idx < 0 {
			idx = 0
		}
		if idx > len(siblings) {
			idx = len(siblings)
		}
	}

	o := 0
	movedOrder := 0
	for pos := 0; pos <= len(siblings); pos++ {
		if pos == idx {
			movedOrder = o
			o++
		}
		if pos < len(siblings) {
			if _, err := tx.Exec(`UPDATE cards SET ord = ? WHERE id = ?`, o, siblings[pos].id); err != nil {
				return fmt.Errorf("renumber sibling: %w", err)
			}
			o++
		}
	}

	if _, err := tx.Exec(`UPDATE cards SET list_id = ?, ord = ? WHERE id = ?`,
		d.TargetListID, movedOrder, d.CardID); err != nil {
		return fmt.Errorf("move card: %w", err)
	}
	return bumpCardVersion(tx, d.CardID, d.Version, entry.Timestamp)
}

// updateList applies a field update and advances the version: the payload
// version wins when ahead of the stored one, otherwise the stored version is
// bumped so a concurrent writer's change is never silently out-ranked.
func updateList(tx *sql.Tx, id string, version int, ts time.Time, set string, args ...any) error {
	query := fmt.Sprintf(`
		UPDATE lists SET %s,
			version = MAX(version + 1, ?),
			last_modified_at = ?
		WHERE id = ?`, set)
	args = append(args, version, ts.UTC().Format(timeFormat), id)
	res, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update list %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("list %s not found", id)
	}
	return nil
}

func updateCard(tx *sql.Tx, id string, version int, ts time.Time, sets string, args ...any) error {
	query := fmt.Sprintf(`
		UPDATE cards SET %s
			version = MAX(version + 1, ?),
			last_modified_at = ?
		WHERE id = ?`, sets)
	args = append(args, version, ts.UTC().Format(timeFormat), id)
	res, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update card %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("card %s not found", id)
	}
	return nil
}

func bumpCardVersion(tx *sql.Tx, id string, version int, ts time.Time) error {
	_, err := tx.Exec(`UPDATE cards SET version = MAX(version + 1, ?), last_modified_at = ? WHERE id = ?`,
		version, ts.UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("bump card version: %w", err)
	}
	return nil
}

func upsertList(tx *sql.Tx, l models.List) error {
	archived := 0
	if l.Archived {
		archived = 1
	}
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO lists (id, title, ord, archived, version, last_modified_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.Title, l.Order, archived, l.Version, l.LastModifiedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("upsert list %s: %w", l.ID, err)
	}
	return nil
}

func upsertCard(tx *sql.Tx, c models.Card) error {
	tags, err := json.Marshal(models.NormalizeTags(c.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO cards (id, list_id, title, description, tags, ord, version, last_modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ListID, c.Title, c.Description, string(tags), c.Order, c.Version, c.LastModifiedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("upsert card %s: %w", c.ID, err)
	}
	return nil
}

func touchBoard(tx *sql.Tx, now time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_modified', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		now.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("touch board: %w", err)
	}
	return nil
}
