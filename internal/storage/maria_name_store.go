package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry код ошибки MySQL/MariaDB ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MariaNameStore реализует NameStore для MariaDB/MySQL.
// Таблица: name (PK) и id (UNIQUE); уникальность id обеспечивает сама база.
type MariaNameStore struct {
	db     *sql.DB
	table  string
	rng    IDRange
	logger *logging.Logger
}

// NewMariaNameStore подключается к базе.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
//	table - имя таблицы (по умолчанию material_ids)
func NewMariaNameStore(dsn, table string, opts ...StoreOption) (*MariaNameStore, error) {
	if table == "" {
		table = "material_ids"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("недопустимое имя таблицы: %q", table)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	o := newStoreOptions(opts)
	return &MariaNameStore{db: db, table: table, rng: o.rng, logger: o.logger}, nil
}

// Load проверяет соединение и создает таблицу, если ее нет
func (s *MariaNameStore) Load(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			name       VARCHAR(255)      PRIMARY KEY,
			id         SMALLINT UNSIGNED NOT NULL,
			created_at TIMESTAMP         DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_id (id)
		) ENGINE=InnoDB
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы %s: %w", s.table, err)
	}
	return nil
}

// Register выдает наименьший свободный id в транзакции. При гонке с другим
// процессом вставка падает с ER_DUP_ENTRY, и попытка повторяется.
func (s *MariaNameStore) Register(ctx context.Context, name string) (uint16, error) {
	var id uint16
	err := retryConflicts(ctx, s.logger, fmt.Sprintf("выдача id для %q в MariaDB", name), isDuplicateEntry, func() error {
		existing, ok, err := s.Lookup(ctx, name)
		if err != nil || ok {
			id = existing
			return err
		}
		id, err = s.tryAllocate(ctx, name)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *MariaNameStore) tryAllocate(ctx context.Context, name string) (uint16, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback() // Откат в случае ошибки

	// наименьший id в диапазоне, за которым нет занятого id+1
	query := `
		SELECT MIN(candidate) FROM (
			SELECT ? AS candidate
			FROM DUAL
			WHERE NOT EXISTS (SELECT 1 FROM ` + s.table + ` WHERE id = ?)
			UNION ALL
			SELECT id + 1 AS candidate FROM ` + s.table + `
			WHERE id + 1 BETWEEN ? AND ?
			  AND NOT EXISTS (SELECT 1 FROM ` + s.table + ` t2 WHERE t2.id = ` + s.table + `.id + 1)
		) free
	`
	var candidate sql.NullInt64
	err = tx.QueryRowContext(ctx, query, s.rng.Min, s.rng.Min, s.rng.Min, s.rng.Max).Scan(&candidate)
	if err != nil {
		return 0, fmt.Errorf("ошибка поиска свободного id: %w", err)
	}
	if !candidate.Valid {
		return 0, fmt.Errorf("%w: range [%d, %d]", ErrIDSpaceExhausted, s.rng.Min, s.rng.Max)
	}

	id := uint16(candidate.Int64)
	if _, err := tx.ExecContext(ctx, `INSERT INTO `+s.table+` (name, id) VALUES (?, ?)`, name, id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return id, nil
}

func (s *MariaNameStore) RegisterWithID(ctx context.Context, name string, id uint16) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO `+s.table+` (name, id) VALUES (?, ?)`, name, id)
	if err == nil {
		return nil
	}
	if !isDuplicateEntry(err) {
		return fmt.Errorf("ошибка закрепления %q за %d: %w", name, id, err)
	}

	existing, ok, lookupErr := s.Lookup(ctx, name)
	if lookupErr != nil {
		return lookupErr
	}
	if ok {
		if existing == id {
			return nil
		}
		return fmt.Errorf("%w: %q has id %d", ErrNameBound, name, existing)
	}

	var owner string
	if err := s.db.QueryRowContext(ctx, `SELECT name FROM `+s.table+` WHERE id = ?`, id).Scan(&owner); err != nil {
		return fmt.Errorf("ошибка чтения владельца id %d: %w", id, err)
	}
	return fmt.Errorf("%w: %d belongs to %q", ErrIDTaken, id, owner)
}

func (s *MariaNameStore) Lookup(ctx context.Context, name string) (uint16, bool, error) {
	var id uint16
	err := s.db.QueryRowContext(ctx, `SELECT id FROM `+s.table+` WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("ошибка загрузки id для %q: %w", name, err)
	}
	return id, true, nil
}

func (s *MariaNameStore) Names(ctx context.Context) (map[string]uint16, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, id FROM `+s.table)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения таблицы %s: %w", s.table, err)
	}
	defer rows.Close()

	out := make(map[string]uint16)
	for rows.Next() {
		var (
			name string
			id   uint16
		)
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, rows.Err()
}

// Close закрывает соединение с базой данных.
func (s *MariaNameStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// reset удаляет таблицу (для тестов)
func (s *MariaNameStore) reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+s.table)
	return err
}

func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
