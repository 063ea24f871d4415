package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"takeoff/internal/takeoff/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init применяет встроенные миграции по порядку имён.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ============================================================
// Takeoffs
// ============================================================

// GetTakeoff возвращает сохранённый документ или ErrNotFound.
// Повреждённые данные разбираются терпимо.
func (r *Repository) GetTakeoff(ctx context.Context, key models.DocumentKey) (*models.Document, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT data_json
        FROM takeoffs
        WHERE project_id = ? AND file_id = ?
    `, key.ProjectID, key.FileID)

	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return models.DecodeOrDefault([]byte(data)), nil
}

// Load реализует хранилище редактора: отсутствующий документ создаётся пустым.
func (r *Repository) Load(ctx context.Context, key models.DocumentKey) (*models.Document, error) {
	doc, err := r.GetTakeoff(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return models.NewDocument(), nil
	}
	return doc, err
}

// Save записывает документ целиком.
func (r *Repository) Save(ctx context.Context, key models.DocumentKey, doc *models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode takeoff: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO takeoffs (project_id, file_id, data_json)
        VALUES (?, ?, ?)
        ON CONFLICT (project_id, file_id) DO UPDATE SET
            data_json = excluded.data_json,
            updated_at = CURRENT_TIMESTAMP
    `, key.ProjectID, key.FileID, string(data))
	if err != nil {
		return fmt.Errorf("upsert takeoff %s: %w", key, err)
	}
	return nil
}

// ============================================================
// Items
// ============================================================

const itemColumns = `id, system_type, category, item_name, size, created_at, updated_at`

func scanItem(sc interface{ Scan(...any) error }) (models.Item, error) {
	var it models.Item
	err := sc.Scan(&it.ID, &it.SystemType, &it.Category, &it.ItemName, &it.Size, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// ListItems возвращает каталог, упорядоченный по системе, категории и имени.
func (r *Repository) ListItems(ctx context.Context) ([]models.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+itemColumns+`
        FROM items
        ORDER BY system_type, category, item_name, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) GetItem(ctx context.Context, id string) (*models.Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// CreateItem добавляет позицию. Пустой ID заменяется сгенерированным.
func (r *Repository) CreateItem(ctx context.Context, it models.Item) (*models.Item, error) {
	if strings.TrimSpace(it.ItemName) == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrInvalidInput)
	}
	if it.ID == "" {
		it.ID = models.NewID()
	}
	if it.ID == models.Unassigned {
		return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidInput, it.ID)
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO items (id, system_type, category, item_name, size)
        VALUES (?, ?, ?, ?, ?)
    `, it.ID, it.SystemType, it.Category, strings.TrimSpace(it.ItemName), strings.TrimSpace(it.Size))
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return r.GetItem(ctx, it.ID)
}

// UpdateItem заменяет поля позиции.
func (r *Repository) UpdateItem(ctx context.Context, id string, it models.Item) (*models.Item, error) {
	if strings.TrimSpace(it.ItemName) == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrInvalidInput)
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE items
        SET system_type = ?, category = ?, item_name = ?, size = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = ?
    `, it.SystemType, it.Category, strings.TrimSpace(it.ItemName), strings.TrimSpace(it.Size), id)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.GetItem(ctx, id)
}

func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ImportItems добавляет или обновляет позиции пакетно (например, из YAML-файла).
func (r *Repository) ImportItems(ctx context.Context, items []models.Item) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, it := range items {
		if strings.TrimSpace(it.ItemName) == "" || it.ID == models.Unassigned {
			continue
		}
		if it.ID == "" {
			it.ID = models.NewID()
		}
		_, err := tx.ExecContext(ctx, `
            INSERT INTO items (id, system_type, category, item_name, size)
            VALUES (?, ?, ?, ?, ?)
            ON CONFLICT (id) DO UPDATE SET
                system_type = excluded.system_type,
                category = excluded.category,
                item_name = excluded.item_name,
                size = excluded.size,
                updated_at = CURRENT_TIMESTAMP
        `, it.ID, it.SystemType, it.Category, strings.TrimSpace(it.ItemName), strings.TrimSpace(it.Size))
		if err != nil {
			return 0, fmt.Errorf("import item %s: %w", it.ID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
