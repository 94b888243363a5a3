// Package sqlite provides the SQLite-backed group state store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/storage/sqlite/migrations"
)

// Store persists groups and guest lists in SQLite.
type Store struct {
	sqlDB *sql.DB
	// readDB serves snapshot reads. Its transactions are deferred, so in WAL
	// mode they never wait on the write lock.
	readDB *sql.DB
	log    zerolog.Logger
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path, creating its directory if needed, and applies migrations.
func Open(ctx context.Context, path string, log zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// _txlock=immediate takes the write lock at BEGIN so concurrent submits
	// queue on busy_timeout instead of failing on lock upgrade.
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", cleanPath)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	readDSN := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=deferred&_query_only=true", cleanPath)
	readDB, err := sql.Open("sqlite3", readDSN)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open sqlite read db: %w", err)
	}
	if err := readDB.PingContext(ctx); err != nil {
		_ = readDB.Close()
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite read db: %w", err)
	}

	log.Debug().Str("path", cleanPath).Msg("Opened database")
	return &Store{sqlDB: sqlDB, readDB: readDB, log: log, now: time.Now}, nil
}

// Close closes both database handles.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	var readErr error
	if s.readDB != nil {
		readErr = s.readDB.Close()
	}
	return errors.Join(s.sqlDB.Close(), readErr)
}

// CreateGroup inserts a group with no RSVP recorded yet.
func (s *Store) CreateGroup(ctx context.Context, g storage.NewGroup) (models.Group, error) {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return models.Group{}, fmt.Errorf("group name is required")
	}
	if g.Token == "" {
		return models.Group{}, fmt.Errorf("group token is required")
	}

	now := toMillis(s.now())
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO groups (
		   name, token,
		   invited_to_nikkah, invited_to_wedding, invited_to_henna,
		   max_guests_wedding, max_guests_henna,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		name, g.Token,
		g.InvitedToNikkah, g.InvitedToWedding, g.InvitedToHenna,
		g.WeddingLimit.Int(), g.HennaLimit.Int(),
		now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Group{}, storage.ErrAlreadyExists
		}
		return models.Group{}, fmt.Errorf("create group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Group{}, fmt.Errorf("create group: %w", err)
	}
	return getGroup(ctx, s.sqlDB, `WHERE id = ?`, id)
}

// GetGroup returns a group by id.
func (s *Store) GetGroup(ctx context.Context, id int64) (models.Group, error) {
	return s.viewGroup(ctx, `WHERE id = ?`, id)
}

// GetGroupByToken returns the group holding exactly this token.
func (s *Store) GetGroupByToken(ctx context.Context, token string) (models.Group, error) {
	return s.viewGroup(ctx, `WHERE token = ?`, token)
}

func (s *Store) viewGroup(ctx context.Context, where string, arg any) (models.Group, error) {
	var g models.Group
	err := s.view(ctx, func(q querier) error {
		var err error
		g, err = getGroup(ctx, q, where, arg)
		return err
	})
	return g, err
}

// ListGroups returns every group ordered by id.
func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := s.view(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, selectGroup+` ORDER BY id`)
		if err != nil {
			return fmt.Errorf("list groups: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			g, err := scanGroup(rows)
			if err != nil {
				return fmt.Errorf("list groups: %w", err)
			}
			groups = append(groups, g)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list groups: %w", err)
		}
		rows.Close()

		for i := range groups {
			if err := loadGuests(ctx, q, &groups[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// view runs fn in a read transaction so a group row and its guest lists
// come from the same snapshot.
func (s *Store) view(ctx context.Context, fn func(q querier) error) error {
	sqlTx, err := s.readDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// WithTx runs fn inside one transaction. A panic in fn rolls back before propagating.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	done := false
	defer func() {
		if !done {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&tx{q: sqlTx, now: s.now}); err != nil {
		done = true
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.log.Error().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}
	done = true
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type tx struct {
	q   querier
	now func() time.Time
}

func (t *tx) GetGroup(ctx context.Context, id int64) (models.Group, error) {
	return getGroup(ctx, t.q, `WHERE id = ?`, id)
}

func (t *tx) GetGroupByToken(ctx context.Context, token string) (models.Group, error) {
	return getGroup(ctx, t.q, `WHERE token = ?`, token)
}

func (t *tx) DeleteGuests(ctx context.Context, groupID int64, kind models.EventKind) (int64, error) {
	table, err := guestTable(kind)
	if err != nil {
		return 0, err
	}
	res, err := t.q.ExecContext(ctx, `DELETE FROM `+table+` WHERE group_id = ?`, groupID)
	if err != nil {
		return 0, fmt.Errorf("delete %s guests: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s guests: %w", kind, err)
	}
	return n, nil
}

func (t *tx) AddGuest(ctx context.Context, groupID int64, kind models.EventKind, name string) (models.Guest, error) {
	table, err := guestTable(kind)
	if err != nil {
		return models.Guest{}, err
	}
	createdAt := t.now().UTC()
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO `+table+` (group_id, name, created_at) VALUES (?, ?, ?)`,
		groupID, name, toMillis(createdAt),
	)
	if err != nil {
		return models.Guest{}, fmt.Errorf("add %s guest: %w", kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Guest{}, fmt.Errorf("add %s guest: %w", kind, err)
	}
	return models.Guest{
		ID:        id,
		GroupID:   groupID,
		Event:     kind,
		Name:      name,
		CreatedAt: fromMillis(toMillis(createdAt)),
	}, nil
}

func (t *tx) SetEventState(ctx context.Context, groupID int64, kind models.EventKind, status models.RSVPStatus) error {
	var query string
	switch kind {
	case models.EventWedding:
		query = `UPDATE groups SET has_rsvped_wedding = ?, has_accepted_wedding = ?, updated_at = ? WHERE id = ?`
	case models.EventHenna:
		query = `UPDATE groups SET has_rsvped_henna = ?, has_accepted_henna = ?, updated_at = ? WHERE id = ?`
	default:
		return fmt.Errorf("event %q has no rsvp state", kind)
	}

	rsvped := status != models.RSVPNotResponded
	accepted := status == models.RSVPAccepted
	res, err := t.q.ExecContext(ctx, query, rsvped, accepted, toMillis(t.now()), groupID)
	if err != nil {
		return fmt.Errorf("set %s state: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set %s state: %w", kind, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const selectGroup = `SELECT id, token, name,
       invited_to_nikkah, invited_to_wedding, invited_to_henna,
       max_guests_wedding, max_guests_henna,
       has_rsvped_wedding, has_accepted_wedding,
       has_rsvped_henna, has_accepted_henna,
       created_at, updated_at
  FROM groups `

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (models.Group, error) {
	var (
		g                              models.Group
		maxWedding, maxHenna           int
		rsvpedWedding, acceptedWedding bool
		rsvpedHenna, acceptedHenna     bool
		createdAt, updatedAt           int64
	)
	err := row.Scan(
		&g.ID, &g.Token, &g.Name,
		&g.InvitedToNikkah, &g.InvitedToWedding, &g.InvitedToHenna,
		&maxWedding, &maxHenna,
		&rsvpedWedding, &acceptedWedding,
		&rsvpedHenna, &acceptedHenna,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return models.Group{}, err
	}

	if g.WeddingLimit, err = models.ParseGuestLimit(maxWedding); err != nil {
		return models.Group{}, fmt.Errorf("group %d wedding limit: %w", g.ID, err)
	}
	if g.HennaLimit, err = models.ParseGuestLimit(maxHenna); err != nil {
		return models.Group{}, fmt.Errorf("group %d henna limit: %w", g.ID, err)
	}
	g.Wedding.Status = models.StatusFromFlags(rsvpedWedding, acceptedWedding)
	g.Henna.Status = models.StatusFromFlags(rsvpedHenna, acceptedHenna)
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updatedAt)
	return g, nil
}

func getGroup(ctx context.Context, q querier, where string, arg any) (models.Group, error) {
	g, err := scanGroup(q.QueryRowContext(ctx, selectGroup+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Group{}, storage.ErrNotFound
		}
		return models.Group{}, fmt.Errorf("get group: %w", err)
	}
	if err := loadGuests(ctx, q, &g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func loadGuests(ctx context.Context, q querier, g *models.Group) error {
	var err error
	if g.Wedding.Guests, err = listGuests(ctx, q, g.ID, models.EventWedding); err != nil {
		return err
	}
	if g.Henna.Guests, err = listGuests(ctx, q, g.ID, models.EventHenna); err != nil {
		return err
	}
	return nil
}

func listGuests(ctx context.Context, q querier, groupID int64, kind models.EventKind) ([]models.Guest, error) {
	table, err := guestTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx,
		`SELECT id, group_id, name, created_at FROM `+table+` WHERE group_id = ? ORDER BY id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s guests: %w", kind, err)
	}
	defer rows.Close()

	guests := []models.Guest{}
	for rows.Next() {
		var (
			guest     models.Guest
			createdAt int64
		)
		if err := rows.Scan(&guest.ID, &guest.GroupID, &guest.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("list %s guests: %w", kind, err)
		}
		guest.Event = kind
		guest.CreatedAt = fromMillis(createdAt)
		guests = append(guests, guest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s guests: %w", kind, err)
	}
	return guests, nil
}

// guestTable maps an event to its guest collection; the nikkah has none.
func guestTable(kind models.EventKind) (string, error) {
	switch kind {
	case models.EventWedding:
		return "wedding_guests", nil
	case models.EventHenna:
		return "henna_guests", nil
	}
	return "", fmt.Errorf("event %q has no guest list", kind)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
