package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/store"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const storeConfigColumns = `is_shop_open, is_cooking, is_holiday, holiday_message,
	is_notice_active, notice_message, description, created_at, updated_at`

const menuColumns = `m.id, m.name, m.price, m.description,
	m.morning_start, m.morning_end, m.evening_start, m.evening_end,
	m.timing_template, m.ingredients, m.priority, m.img_src, m.created_at, m.updated_at`

const templateColumns = `id, name, key, morning_start, morning_end, evening_start, evening_end,
	is_active, created_at, updated_at`

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// mapWriteErr translates constraint violations into store errors.
func mapWriteErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pqErr.Constraint)
	}
	return err
}

// requireAffected returns sql.ErrNoRows when the statement touched nothing.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Store config

func queryGetStoreConfig(ctx context.Context, db executor) (*model.StoreConfig, error) {
	return scanStoreConfig(db.QueryRowContext(ctx, `SELECT `+storeConfigColumns+` FROM store_config WHERE id`))
}

func queryLockStoreConfig(ctx context.Context, db executor) (*model.StoreConfig, error) {
	return scanStoreConfig(db.QueryRowContext(ctx, `SELECT `+storeConfigColumns+` FROM store_config WHERE id FOR UPDATE`))
}

func queryCreateStoreConfig(ctx context.Context, db executor, c *model.StoreConfig) (*model.StoreConfig, error) {
	_, err := db.ExecContext(ctx, `
		INSERT INTO store_config (
			id, is_shop_open, is_cooking, is_holiday, holiday_message,
			is_notice_active, notice_message, description, created_at, updated_at
		) VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		c.IsShopOpen,
		c.IsCooking,
		c.IsHoliday,
		c.HolidayMessage,
		c.IsNoticeActive,
		c.NoticeMessage,
		c.Description,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return queryGetStoreConfig(ctx, db)
}

func querySaveStoreConfig(ctx context.Context, db executor, c *model.StoreConfig) error {
	res, err := db.ExecContext(ctx, `
		UPDATE store_config SET
			is_shop_open = $1, is_cooking = $2, is_holiday = $3, holiday_message = $4,
			is_notice_active = $5, notice_message = $6, description = $7, updated_at = $8
		WHERE id`,
		c.IsShopOpen,
		c.IsCooking,
		c.IsHoliday,
		c.HolidayMessage,
		c.IsNoticeActive,
		c.NoticeMessage,
		c.Description,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Menu

func queryCreateMenuItem(ctx context.Context, db executor, m *model.MenuItem) error {
	ms, me := slotArgs(m.MorningTimings)
	es, ee := slotArgs(m.EveningTimings)
	_, err := db.ExecContext(ctx, `
		INSERT INTO menu_items (
			id, name, price, description,
			morning_start, morning_end, evening_start, evening_end,
			timing_template, ingredients, priority, img_src, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		m.ID,
		m.Name,
		m.Price,
		m.Desc,
		ms, me, es, ee,
		nullString(m.TimingTemplate),
		m.Ingredients,
		m.Priority,
		m.ImgSrc,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return mapWriteErr(err)
}

func queryGetMenuItem(ctx context.Context, db executor, id string) (*model.MenuItem, error) {
	return scanMenuItem(db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menu_items m WHERE m.id = $1`, id))
}

// slotPresent builds the predicate for items whose effective slot is set.
// Template-linked items take the slot from the joined active template.
func slotPresent(slot model.Slot) string {
	col := string(slot) + "_start"
	return fmt.Sprintf("(CASE WHEN m.timing_template IS NOT NULL THEN t.%s IS NOT NULL ELSE m.%s IS NOT NULL END)", col, col)
}

// likeEscaper escapes LIKE metacharacters so the filter is a literal substring.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func queryListMenuItems(ctx context.Context, db executor, filter model.MenuFilter) ([]*model.MenuItem, error) {
	var (
		where []string
		args  []any
	)
	nextArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Slot.IsValid() {
		where = append(where, slotPresent(filter.Slot))
	}
	if filter.Ingredient != "" {
		where = append(where, "m.ingredients ILIKE '%' || "+nextArg(likeEscaper.Replace(filter.Ingredient))+" || '%'")
	}

	q := `SELECT ` + menuColumns + ` FROM menu_items m
		LEFT JOIN timing_templates t ON t.key = m.timing_template AND t.is_active`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY m.priority ASC, m.name ASC"
	if filter.Limit > 0 {
		q += " LIMIT " + nextArg(filter.Limit)
	}
	if filter.Offset > 0 {
		q += " OFFSET " + nextArg(filter.Offset)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMenuItems(rows)
}

func queryUpdateMenuItem(ctx context.Context, db executor, m *model.MenuItem) error {
	ms, me := slotArgs(m.MorningTimings)
	es, ee := slotArgs(m.EveningTimings)
	res, err := db.ExecContext(ctx, `
		UPDATE menu_items SET
			name = $2, price = $3, description = $4,
			morning_start = $5, morning_end = $6, evening_start = $7, evening_end = $8,
			timing_template = $9, ingredients = $10, priority = $11, img_src = $12, updated_at = $13
		WHERE id = $1`,
		m.ID,
		m.Name,
		m.Price,
		m.Desc,
		ms, me, es, ee,
		nullString(m.TimingTemplate),
		m.Ingredients,
		m.Priority,
		m.ImgSrc,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func queryDeleteMenuItem(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func queryAssignTemplate(ctx context.Context, db executor, ids []string, key string, at time.Time) (int, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE menu_items SET
			timing_template = $1,
			morning_start = NULL, morning_end = NULL, evening_start = NULL, evening_end = NULL,
			updated_at = $2
		WHERE id = ANY($3)`,
		key, at, pq.Array(ids),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Timing templates

func queryCreateTemplate(ctx context.Context, db executor, t *model.TimingTemplate) error {
	ms, me := slotArgs(t.MorningTimings)
	es, ee := slotArgs(t.EveningTimings)
	_, err := db.ExecContext(ctx, `
		INSERT INTO timing_templates (
			id, name, key, morning_start, morning_end, evening_start, evening_end,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Name, t.Key, ms, me, es, ee, t.IsActive, t.CreatedAt, t.UpdatedAt,
	)
	return mapWriteErr(err)
}

func queryGetTemplate(ctx context.Context, db executor, id string) (*model.TimingTemplate, error) {
	return scanTemplate(db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM timing_templates WHERE id = $1`, id))
}

func queryGetTemplateByKey(ctx context.Context, db executor, key string) (*model.TimingTemplate, error) {
	return scanTemplate(db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM timing_templates WHERE key = $1 AND is_active`, key))
}

func queryListTemplates(ctx context.Context, db executor) ([]*model.TimingTemplate, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM timing_templates WHERE is_active ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTemplates(rows)
}

func queryUpdateTemplate(ctx context.Context, db executor, t *model.TimingTemplate) error {
	ms, me := slotArgs(t.MorningTimings)
	es, ee := slotArgs(t.EveningTimings)
	res, err := db.ExecContext(ctx, `
		UPDATE timing_templates SET
			name = $2, key = $3, morning_start = $4, morning_end = $5,
			evening_start = $6, evening_end = $7, is_active = $8, updated_at = $9
		WHERE id = $1`,
		t.ID, t.Name, t.Key, ms, me, es, ee, t.IsActive, t.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	return requireAffected(res)
}

func queryDeactivateTemplate(ctx context.Context, db executor, id string, at time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE timing_templates SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active`, id, at)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
