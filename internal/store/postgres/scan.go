package postgres

import (
	"database/sql"

	"github.com/swamys/hotfoods/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanStoreConfig scans a row in storeConfigColumns order.
func scanStoreConfig(row scannable) (*model.StoreConfig, error) {
	var c model.StoreConfig
	err := row.Scan(
		&c.IsShopOpen,
		&c.IsCooking,
		&c.IsHoliday,
		&c.HolidayMessage,
		&c.IsNoticeActive,
		&c.NoticeMessage,
		&c.Description,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanMenuItem scans a row in menuColumns order.
func scanMenuItem(row scannable) (*model.MenuItem, error) {
	var (
		m        model.MenuItem
		ms, me   sql.NullString
		es, ee   sql.NullString
		template sql.NullString
	)
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Price,
		&m.Desc,
		&ms, &me,
		&es, &ee,
		&template,
		&m.Ingredients,
		&m.Priority,
		&m.ImgSrc,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.MorningTimings = slotFromNull(ms, me)
	m.EveningTimings = slotFromNull(es, ee)
	m.TimingTemplate = template.String
	return &m, nil
}

func scanMenuItems(rows *sql.Rows) ([]*model.MenuItem, error) {
	var items []*model.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// scanTemplate scans a row in templateColumns order.
func scanTemplate(row scannable) (*model.TimingTemplate, error) {
	var (
		t      model.TimingTemplate
		ms, me sql.NullString
		es, ee sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Key,
		&ms, &me,
		&es, &ee,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.MorningTimings = slotFromNull(ms, me)
	t.EveningTimings = slotFromNull(es, ee)
	return &t, nil
}

func scanTemplates(rows *sql.Rows) ([]*model.TimingTemplate, error) {
	var out []*model.TimingTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// scanUser scans a row in userColumns order.
func scanUser(row scannable) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.Pic,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// scanSession scans a row in sessionColumns order.
func scanSession(row scannable) (*model.Session, error) {
	var s model.Session
	if err := row.Scan(&s.Token, &s.UserID, &s.Role, &s.ExpiresAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// nullString converts an empty string to a NULL sql.NullString.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// slotArgs returns the start and end columns for an optional slot.
func slotArgs(s *model.TimingSlot) (start, end sql.NullString) {
	if s == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return nullString(s.StartTime), nullString(s.EndTime)
}

// slotFromNull rebuilds a slot; a NULL start means no slot.
func slotFromNull(start, end sql.NullString) *model.TimingSlot {
	if !start.Valid {
		return nil
	}
	return &model.TimingSlot{StartTime: start.String, EndTime: end.String}
}
