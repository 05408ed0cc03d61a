package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/retain/internal/model"
)

// timeFormat stores timestamps in UTC with zero-padded nanoseconds. The
// fixed width keeps SQL string comparison in agreement with time order, and
// the full fraction keeps an export/import round trip lossless.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// decodeTime accepts both the padded form and plain RFC 3339 variants.
func decodeTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// SQLiteRepository implements Repository using SQLite. Same contract as
// FileRepository; each mutation commits in its own transaction, which is the
// per-call atomic persist the contract requires.
type SQLiteRepository struct {
	db      *sql.DB
	now     func() time.Time
	entropy *rand.Rand
}

// SQLiteOption configures a SQLiteRepository.
type SQLiteOption func(*SQLiteRepository)

// WithSQLiteNow overrides the repository clock.
func WithSQLiteNow(now func() time.Time) SQLiteOption {
	return func(r *SQLiteRepository) { r.now = now }
}

// NewSQLiteRepository opens or creates a SQLite database at the given path.
func NewSQLiteRepository(dbPath string, opts ...SQLiteOption) (*SQLiteRepository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	r := &SQLiteRepository{
		db:      db,
		now:     time.Now,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return r, nil
}

func (r *SQLiteRepository) newID() string {
	return ulid.MustNew(ulid.Timestamp(r.now()), r.entropy).String()
}

func (r *SQLiteRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id          TEXT PRIMARY KEY,
		topic       TEXT NOT NULL,
		prompt      TEXT NOT NULL,
		answer      TEXT NOT NULL,
		difficulty  INTEGER NOT NULL,
		tags        TEXT,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_topic ON items(topic);

	CREATE TABLE IF NOT EXISTS reviews (
		item_id     TEXT NOT NULL REFERENCES items(id),
		reviewed_at TEXT NOT NULL,
		answer      TEXT,
		result      TEXT NOT NULL,
		feedback    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_time ON reviews(reviewed_at);

	CREATE TABLE IF NOT EXISTS scheduling_states (
		item_id             TEXT PRIMARY KEY REFERENCES items(id),
		stage               INTEGER NOT NULL DEFAULT 0,
		next_due            TEXT NOT NULL,
		consecutive_correct INTEGER NOT NULL DEFAULT 0,
		total_attempts      INTEGER NOT NULL DEFAULT 0,
		total_correct       INTEGER NOT NULL DEFAULT 0,
		last_reviewed       TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_states_due ON scheduling_states(next_due);

	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		ended_at   TEXT,
		topic      TEXT,
		summary    TEXT,
		item_ids   TEXT,
		method     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);

	-- Opaque document arrays (sparringSessions, weeklyReports) kept for
	-- lossless dataset round trips.
	CREATE TABLE IF NOT EXISTS passthrough (
		kind    TEXT NOT NULL,
		seq     INTEGER NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (kind, seq)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteRepository) touch(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('last_updated', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		encodeTime(r.now()))
	return err
}

func encodeTags(tags []string) *string {
	if len(tags) == 0 {
		return nil
	}
	b, _ := json.Marshal(tags)
	s := string(b)
	return &s
}

func (r *SQLiteRepository) AddItems(ctx context.Context, drafts []model.ItemDraft) ([]model.Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := r.now()
	created := make([]model.Item, 0, len(drafts))
	for _, d := range drafts {
		item := model.Item{
			ID:         r.newID(),
			Topic:      d.Topic,
			Prompt:     d.Prompt,
			Answer:     d.Answer,
			Difficulty: model.ClampDifficulty(d.Difficulty),
			Tags:       append([]string(nil), d.Tags...),
			CreatedAt:  now,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO items (id, topic, prompt, answer, difficulty, tags, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Topic, item.Prompt, item.Answer, item.Difficulty,
			encodeTags(item.Tags), encodeTime(now))
		if err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
		created = append(created, item)
	}

	if err := r.touch(ctx, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func scanItem(row scanner) (model.Item, error) {
	var item model.Item
	var tagsJSON sql.NullString
	var createdAt string

	err := row.Scan(&item.ID, &item.Topic, &item.Prompt, &item.Answer,
		&item.Difficulty, &tagsJSON, &createdAt)
	if err != nil {
		return item, err
	}
	item.CreatedAt = decodeTime(createdAt)
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &item.Tags)
	}
	return item, nil
}

const itemCols = `id, topic, prompt, answer, difficulty, tags, created_at`

func (r *SQLiteRepository) GetItem(ctx context.Context, id string) (*model.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemCols+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *SQLiteRepository) ListItems(ctx context.Context, p ListParams) ([]model.Item, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if p.Topic != "" {
		where = append(where, "LOWER(topic) LIKE ?")
		args = append(args, "%"+strings.ToLower(p.Topic)+"%")
	}

	query := `SELECT ` + itemCols + ` FROM items WHERE ` + strings.Join(where, " AND ") + ` ORDER BY rowid`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		// Tag filtering happens here: tags are a JSON array column, and
		// the match is case-insensitive equality, not LIKE.
		if p.Tag != "" && !hasTag(item.Tags, p.Tag) {
			continue
		}
		items = append(items, item)
		if p.Limit > 0 && len(items) >= p.Limit {
			break
		}
	}
	return items, rows.Err()
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (r *SQLiteRepository) UpdateItemTags(ctx context.Context, id string, tags []string) (*model.Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE items SET tags = ? WHERE id = ?`,
		encodeTags(tags), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}

	if err := r.touch(ctx, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetItem(ctx, id)
}

func (r *SQLiteRepository) AddReview(ctx context.Context, draft model.ReviewDraft) (*model.ReviewRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec := model.ReviewRecord{
		ItemID:     draft.ItemID,
		ReviewedAt: r.now(),
		Answer:     draft.Answer,
		Result:     draft.Result,
		Feedback:   draft.Feedback,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (item_id, reviewed_at, answer, result, feedback)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ItemID, encodeTime(rec.ReviewedAt), rec.Answer, string(rec.Result), rec.Feedback)
	if err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}

	if err := r.touch(ctx, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanReview(row scanner) (model.ReviewRecord, error) {
	var rec model.ReviewRecord
	var reviewedAt, result string
	var answer, feedback sql.NullString

	err := row.Scan(&rec.ItemID, &reviewedAt, &answer, &result, &feedback)
	if err != nil {
		return rec, err
	}
	rec.ReviewedAt = decodeTime(reviewedAt)
	rec.Result = model.Result(result)
	rec.Answer = answer.String
	rec.Feedback = feedback.String
	return rec, nil
}

func (r *SQLiteRepository) RecentReviews(ctx context.Context, windowDays int) ([]model.ReviewRecord, error) {
	cutoff := encodeTime(r.now().AddDate(0, 0, -windowDays))
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, reviewed_at, answer, result, feedback
		 FROM reviews WHERE reviewed_at >= ? ORDER BY rowid`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReviewRecord
	for rows.Next() {
		rec, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanState(row scanner) (model.SchedulingState, error) {
	var st model.SchedulingState
	var nextDue string
	var lastReviewed sql.NullString

	err := row.Scan(&st.ItemID, &st.Stage, &nextDue, &st.ConsecutiveCorrect,
		&st.TotalAttempts, &st.TotalCorrect, &lastReviewed)
	if err != nil {
		return st, err
	}
	st.NextDue = decodeTime(nextDue)
	if lastReviewed.Valid {
		t := decodeTime(lastReviewed.String)
		st.LastReviewed = &t
	}
	return st, nil
}

const stateCols = `item_id, stage, next_due, consecutive_correct, total_attempts, total_correct, last_reviewed`

func (r *SQLiteRepository) GetOrCreateState(ctx context.Context, itemID string, firstDue time.Time) (*model.SchedulingState, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+stateCols+` FROM scheduling_states WHERE item_id = ?`, itemID)
	st, err := scanState(row)
	if err == nil {
		return &st, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	st = model.SchedulingState{ItemID: itemID, Stage: 0, NextDue: firstDue}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO scheduling_states (item_id, stage, next_due, consecutive_correct, total_attempts, total_correct)
		 VALUES (?, 0, ?, 0, 0, 0)`,
		itemID, encodeTime(firstDue))
	if err != nil {
		return nil, fmt.Errorf("insert state: %w", err)
	}

	if err := r.touch(ctx, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *SQLiteRepository) UpdateState(ctx context.Context, itemID string, patch StatePatch) (*model.SchedulingState, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+stateCols+` FROM scheduling_states WHERE item_id = ?`, itemID)
	st, err := scanState(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scheduling state for item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if patch.Stage != nil {
		st.Stage = *patch.Stage
	}
	if patch.NextDue != nil {
		st.NextDue = *patch.NextDue
	}
	if patch.ConsecutiveCorrect != nil {
		st.ConsecutiveCorrect = *patch.ConsecutiveCorrect
	}
	if patch.TotalAttempts != nil {
		st.TotalAttempts = *patch.TotalAttempts
	}
	if patch.TotalCorrect != nil {
		st.TotalCorrect = *patch.TotalCorrect
	}
	if patch.LastReviewed != nil {
		t := *patch.LastReviewed
		st.LastReviewed = &t
	}

	var lastReviewed *string
	if st.LastReviewed != nil {
		s := encodeTime(*st.LastReviewed)
		lastReviewed = &s
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE scheduling_states
		 SET stage = ?, next_due = ?, consecutive_correct = ?, total_attempts = ?, total_correct = ?, last_reviewed = ?
		 WHERE item_id = ?`,
		st.Stage, encodeTime(st.NextDue), st.ConsecutiveCorrect,
		st.TotalAttempts, st.TotalCorrect, lastReviewed, itemID)
	if err != nil {
		return nil, fmt.Errorf("update state: %w", err)
	}

	if err := r.touch(ctx, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *SQLiteRepository) DueItemIDs(ctx context.Context, asOf time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id FROM scheduling_states WHERE next_due <= ? ORDER BY rowid`,
		encodeTime(asOf))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) AllStates(ctx context.Context) ([]model.SchedulingState, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stateCols+` FROM scheduling_states ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SchedulingState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, draft model.SessionDraft) (*model.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	started := draft.StartedAt
	if started.IsZero() {
		started = r.now()
	}
	s := model.Session{
		ID:        r.newID(),
		StartedAt: started,
		EndedAt:   draft.EndedAt,
		Topic:     draft.Topic,
		Summary:   draft.Summary,
		ItemIDs:   append([]string(nil), draft.ItemIDs...),
		Method:    draft.Method,
	}

	var endedAt *string
	if s.EndedAt != nil {
		e := encodeTime(*s.EndedAt)
		endedAt = &e
	}
	var itemIDs *string
	if len(s.ItemIDs) > 0 {
		b, _ := json.Marshal(s.ItemIDs)
		ids := string(b)
		itemIDs = &ids
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, ended_at, topic, summary, item_ids, method)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, encodeTime(s.StartedAt), endedAt, s.Topic, s.Summary, itemIDs, string(s.Method))
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	if err := r.touch(ctx, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSession(row scanner) (model.Session, error) {
	var s model.Session
	var startedAt, method string
	var endedAt, topic, summary, itemIDs sql.NullString

	err := row.Scan(&s.ID, &startedAt, &endedAt, &topic, &summary, &itemIDs, &method)
	if err != nil {
		return s, err
	}
	s.StartedAt = decodeTime(startedAt)
	if endedAt.Valid {
		t := decodeTime(endedAt.String)
		s.EndedAt = &t
	}
	s.Topic = topic.String
	s.Summary = summary.String
	if itemIDs.Valid {
		json.Unmarshal([]byte(itemIDs.String), &s.ItemIDs)
	}
	s.Method = model.Method(method)
	return s, nil
}

func (r *SQLiteRepository) RecentSessions(ctx context.Context, limit int) ([]model.Session, error) {
	// limit <= 0 means all sessions; the weekly report needs the full set.
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, topic, summary, item_ids, method
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&st.TotalItems); err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&st.TotalReviews); err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&st.TotalSessions); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	if st.TotalReviews > 0 {
		var pass int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE result = 'pass'`).Scan(&pass); err != nil {
			return nil, fmt.Errorf("count passes: %w", err)
		}
		st.OverallCorrectRate = 100 * float64(pass) / float64(st.TotalReviews)
	}
	return st, nil
}

func (r *SQLiteRepository) passthrough(ctx context.Context, kind string) ([]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM passthrough WHERE kind = ? ORDER BY seq`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(payload))
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ExportDataset(ctx context.Context) (*model.Dataset, error) {
	ds := model.NewDataset()

	items, err := r.ListItems(ctx, ListParams{})
	if err != nil {
		return nil, err
	}
	ds.Items = items

	reviews, err := r.allReviews(ctx)
	if err != nil {
		return nil, err
	}
	ds.Reviews = reviews

	states, err := r.AllStates(ctx)
	if err != nil {
		return nil, err
	}
	ds.SchedulingStates = states

	sessions, err := r.allSessions(ctx)
	if err != nil {
		return nil, err
	}
	ds.Sessions = sessions

	if ds.SparringSessions, err = r.passthrough(ctx, "sparringSessions"); err != nil {
		return nil, err
	}
	if ds.WeeklyReports, err = r.passthrough(ctx, "weeklyReports"); err != nil {
		return nil, err
	}

	var lastUpdated sql.NullString
	r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'last_updated'`).Scan(&lastUpdated)
	if lastUpdated.Valid {
		ds.LastUpdated = decodeTime(lastUpdated.String)
	}

	ds.Normalize()
	return ds, nil
}

func (r *SQLiteRepository) allReviews(ctx context.Context) ([]model.ReviewRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, reviewed_at, answer, result, feedback FROM reviews ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReviewRecord
	for rows.Next() {
		rec, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) allSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, topic, summary, item_ids, method
		 FROM sessions ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ImportDataset replaces all stored data with the given dataset. This is the
// migration path between storage drivers.
func (r *SQLiteRepository) ImportDataset(ctx context.Context, ds *model.Dataset) (int, error) {
	in := *ds
	in.Normalize()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, table := range []string{"reviews", "scheduling_states", "sessions", "items", "passthrough"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return 0, err
		}
	}

	for _, item := range in.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO items (id, topic, prompt, answer, difficulty, tags, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Topic, item.Prompt, item.Answer, item.Difficulty,
			encodeTags(item.Tags), encodeTime(item.CreatedAt))
		if err != nil {
			return 0, fmt.Errorf("import item %s: %w", item.ID, err)
		}
	}

	for _, rec := range in.Reviews {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO reviews (item_id, reviewed_at, answer, result, feedback)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.ItemID, encodeTime(rec.ReviewedAt), rec.Answer, string(rec.Result), rec.Feedback)
		if err != nil {
			return 0, fmt.Errorf("import review: %w", err)
		}
	}

	for _, st := range in.SchedulingStates {
		var lastReviewed *string
		if st.LastReviewed != nil {
			s := encodeTime(*st.LastReviewed)
			lastReviewed = &s
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO scheduling_states (item_id, stage, next_due, consecutive_correct, total_attempts, total_correct, last_reviewed)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			st.ItemID, st.Stage, encodeTime(st.NextDue),
			st.ConsecutiveCorrect, st.TotalAttempts, st.TotalCorrect, lastReviewed)
		if err != nil {
			return 0, fmt.Errorf("import state %s: %w", st.ItemID, err)
		}
	}

	for _, s := range in.Sessions {
		var endedAt *string
		if s.EndedAt != nil {
			e := encodeTime(*s.EndedAt)
			endedAt = &e
		}
		var itemIDs *string
		if len(s.ItemIDs) > 0 {
			b, _ := json.Marshal(s.ItemIDs)
			ids := string(b)
			itemIDs = &ids
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sessions (id, started_at, ended_at, topic, summary, item_ids, method)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, encodeTime(s.StartedAt), endedAt, s.Topic, s.Summary, itemIDs, string(s.Method))
		if err != nil {
			return 0, fmt.Errorf("import session %s: %w", s.ID, err)
		}
	}

	insertPassthrough := func(kind string, payloads []json.RawMessage) error {
		for i, p := range payloads {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO passthrough (kind, seq, payload) VALUES (?, ?, ?)`,
				kind, i, string(p)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insertPassthrough("sparringSessions", in.SparringSessions); err != nil {
		return 0, err
	}
	if err := insertPassthrough("weeklyReports", in.WeeklyReports); err != nil {
		return 0, err
	}

	if err := r.touch(ctx, tx); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(in.Items), nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}
