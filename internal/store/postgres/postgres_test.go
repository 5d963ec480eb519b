package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var storeConfigRowColumns = []string{
	"is_shop_open", "is_cooking", "is_holiday", "holiday_message",
	"is_notice_active", "notice_message", "description", "created_at", "updated_at",
}

var menuRowColumns = []string{
	"id", "name", "price", "description",
	"morning_start", "morning_end", "evening_start", "evening_end",
	"timing_template", "ingredients", "priority", "img_src", "created_at", "updated_at",
}

var templateRowColumns = []string{
	"id", "name", "key", "morning_start", "morning_end", "evening_start", "evening_end",
	"is_active", "created_at", "updated_at",
}

func TestQueryGetStoreConfig(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM store_config WHERE id$").
		WillReturnRows(sqlmock.NewRows(storeConfigRowColumns).
			AddRow(true, false, false, "hol", true, "notice", "desc", now, now))

	cfg, err := queryGetStoreConfig(context.Background(), db)
	if err != nil {
		t.Fatalf("queryGetStoreConfig: %v", err)
	}
	if !cfg.IsShopOpen || cfg.IsCooking || !cfg.IsNoticeActive || cfg.NoticeMessage != "notice" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestQueryGetStoreConfig_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM store_config").WillReturnError(sql.ErrNoRows)

	if _, err := queryGetStoreConfig(context.Background(), db); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryLockStoreConfig(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM store_config WHERE id FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(storeConfigRowColumns).
			AddRow(false, true, false, "", false, "", "", now, now))

	cfg, err := queryLockStoreConfig(context.Background(), db)
	if err != nil {
		t.Fatalf("queryLockStoreConfig: %v", err)
	}
	if !cfg.IsCooking {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestQueryCreateStoreConfig_ReturnsStoredRow(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	def := model.DefaultStoreConfig()
	def.CreatedAt, def.UpdatedAt = now, now

	mock.ExpectExec("INSERT INTO store_config .+ ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs(false, false, false, model.DefaultHolidayMessage, false, model.DefaultNoticeMessage,
			model.DefaultDescription, now, now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Another instance won the race; its row is returned.
	mock.ExpectQuery("SELECT .+ FROM store_config").
		WillReturnRows(sqlmock.NewRows(storeConfigRowColumns).
			AddRow(true, false, false, "x", false, "y", "z", now, now))

	got, err := queryCreateStoreConfig(context.Background(), db, def)
	if err != nil {
		t.Fatalf("queryCreateStoreConfig: %v", err)
	}
	if !got.IsShopOpen || got.HolidayMessage != "x" {
		t.Fatalf("expected stored row, got %+v", got)
	}
}

func TestQuerySaveStoreConfig(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	cfg := model.DefaultStoreConfig()
	cfg.IsShopOpen = true
	cfg.UpdatedAt = now

	mock.ExpectExec("UPDATE store_config SET").
		WithArgs(true, false, false, cfg.HolidayMessage, false, cfg.NoticeMessage, cfg.Description, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := querySaveStoreConfig(context.Background(), db, cfg); err != nil {
		t.Fatalf("querySaveStoreConfig: %v", err)
	}
}

func TestQuerySaveStoreConfig_NoRow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE store_config SET").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := querySaveStoreConfig(context.Background(), db, model.DefaultStoreConfig()); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryCreateMenuItem(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	item := &model.MenuItem{
		ID: "mn-1", Name: "Idli", Price: 40, Desc: "Steamed", Ingredients: "rice, urad",
		MorningTimings: &model.TimingSlot{StartTime: "06:00", EndTime: "11:00"},
		ImgSrc:         "https://img.example/idli.png", CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO menu_items").
		WithArgs("mn-1", "Idli", 40.0, "Steamed",
			sql.NullString{String: "06:00", Valid: true}, sql.NullString{String: "11:00", Valid: true},
			sql.NullString{}, sql.NullString{}, sql.NullString{},
			"rice, urad", 0, "https://img.example/idli.png", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateMenuItem(context.Background(), db, item); err != nil {
		t.Fatalf("queryCreateMenuItem: %v", err)
	}
}

func TestQueryGetMenuItem(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM menu_items m WHERE m.id = \\$1").WithArgs("mn-1").
		WillReturnRows(sqlmock.NewRows(menuRowColumns).AddRow(
			"mn-1", "Dosa", 60.0, "Crisp", nil, nil, "16:30", "21:00", nil, "rice", 2, "https://x/y", now, now))

	m, err := queryGetMenuItem(context.Background(), db, "mn-1")
	if err != nil {
		t.Fatalf("queryGetMenuItem: %v", err)
	}
	if m.MorningTimings != nil {
		t.Errorf("expected no morning slot, got %+v", m.MorningTimings)
	}
	if m.EveningTimings == nil || m.EveningTimings.StartTime != "16:30" || m.EveningTimings.EndTime != "21:00" {
		t.Errorf("evening slot = %+v", m.EveningTimings)
	}
	if m.TimingTemplate != "" || m.Priority != 2 {
		t.Errorf("unexpected item: %+v", m)
	}
}

func TestQueryListMenuItems_Filters(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM menu_items m\s+LEFT JOIN timing_templates t ON t.key = m.timing_template AND t.is_active ` +
		`WHERE \(CASE WHEN m.timing_template IS NOT NULL THEN t.morning_start IS NOT NULL ELSE m.morning_start IS NOT NULL END\) ` +
		`AND m.ingredients ILIKE '%' \|\| \$1 \|\| '%' ORDER BY m.priority ASC, m.name ASC LIMIT \$2`).
		WithArgs(`50\%`, 10).
		WillReturnRows(sqlmock.NewRows(menuRowColumns).
			AddRow("mn-1", "Vada", 30.0, "Fried", nil, nil, nil, nil, "breakfast", "50% urad", 1, "https://x/v", now, now))

	items, err := queryListMenuItems(context.Background(), db, model.MenuFilter{
		Slot: model.SlotMorning, Ingredient: "50%", Limit: 10,
	})
	if err != nil {
		t.Fatalf("queryListMenuItems: %v", err)
	}
	if len(items) != 1 || items[0].TimingTemplate != "breakfast" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestQueryListMenuItems_NoFilter(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`LEFT JOIN timing_templates t ON .+ ORDER BY m.priority ASC, m.name ASC$`).
		WillReturnRows(sqlmock.NewRows(menuRowColumns))

	items, err := queryListMenuItems(context.Background(), db, model.MenuFilter{Slot: "lunch"})
	if err != nil {
		t.Fatalf("queryListMenuItems: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestQueryDeleteMenuItem_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM menu_items WHERE id = \\$1").WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeleteMenuItem(context.Background(), db, "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryAssignTemplate(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	ids := []string{"mn-1", "mn-2", "mn-3"}
	mock.ExpectExec("UPDATE menu_items SET\\s+timing_template = \\$1").
		WithArgs("breakfast", now, pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := queryAssignTemplate(context.Background(), db, ids, "breakfast", now)
	if err != nil {
		t.Fatalf("queryAssignTemplate: %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
}

func TestQueryCreateTemplate_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO timing_templates").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_timing_templates_key"})

	err := queryCreateTemplate(context.Background(), db, &model.TimingTemplate{
		ID: "tt-1", Name: "Breakfast", Key: "breakfast", IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestQueryListTemplates_ActiveByName(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM timing_templates WHERE is_active ORDER BY name ASC").
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow("tt-1", "All day", "all-day", "05:00", "11:59", "16:30", "21:30", true, now, now).
			AddRow("tt-2", "Evening", "evening", nil, nil, "16:30", "21:30", true, now, now))

	got, err := queryListTemplates(context.Background(), db)
	if err != nil {
		t.Fatalf("queryListTemplates: %v", err)
	}
	if len(got) != 2 || got[0].Key != "all-day" || got[1].MorningTimings != nil {
		t.Fatalf("unexpected templates: %+v", got)
	}
}

func TestQueryGetTemplateByKey_Inactive(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM timing_templates WHERE key = \\$1 AND is_active").WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	if _, err := queryGetTemplateByKey(context.Background(), db, "gone"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryDeactivateTemplate(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectExec("UPDATE timing_templates SET is_active = FALSE").WithArgs("tt-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE timing_templates SET is_active = FALSE").WithArgs("tt-1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeactivateTemplate(context.Background(), db, "tt-1", now); err != nil {
		t.Fatalf("first deactivate: %v", err)
	}
	if err := queryDeactivateTemplate(context.Background(), db, "tt-1", now); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("second deactivate: expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryUsersAndSessions(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	u := &model.User{ID: "us-1", Username: "ravi", PasswordHash: "hash", Role: model.RoleAdmin,
		Pic: model.DefaultPic, CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec("INSERT INTO users").
		WithArgs("us-1", "ravi", "hash", "admin", model.DefaultPic, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM users WHERE username = \\$1").WithArgs("ravi").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "pic", "created_at", "updated_at"}).
			AddRow("us-1", "ravi", "hash", "admin", model.DefaultPic, now, now))
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("tok", "us-1", "admin", now.Add(time.Hour), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM sessions WHERE token = \\$1").WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "role", "expires_at", "created_at"}).
			AddRow("tok", "us-1", "admin", now.Add(time.Hour), now))
	mock.ExpectExec("DELETE FROM sessions WHERE expires_at <= \\$1").WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	ctx := context.Background()
	if err := queryCreateUser(ctx, db, u); err != nil {
		t.Fatalf("queryCreateUser: %v", err)
	}
	got, err := queryGetUserByUsername(ctx, db, "ravi")
	if err != nil {
		t.Fatalf("queryGetUserByUsername: %v", err)
	}
	if got.Role != model.RoleAdmin || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
	sess := &model.Session{Token: "tok", UserID: "us-1", Role: model.RoleAdmin, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	if err := queryCreateSession(ctx, db, sess); err != nil {
		t.Fatalf("queryCreateSession: %v", err)
	}
	gotSess, err := queryGetSession(ctx, db, "tok")
	if err != nil {
		t.Fatalf("queryGetSession: %v", err)
	}
	if gotSess.UserID != "us-1" || gotSess.Role != model.RoleAdmin {
		t.Fatalf("unexpected session: %+v", gotSess)
	}
	n, err := queryDeleteExpiredSessions(ctx, db, now)
	if err != nil || n != 3 {
		t.Fatalf("queryDeleteExpiredSessions = %d, %v", n, err)
	}
}

func TestRunInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	s := newStore(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(storeConfigRowColumns).
			AddRow(false, false, false, "", false, "", "", now, now))
	mock.ExpectExec("UPDATE store_config SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		cfg, err := tx.LockStoreConfig(context.Background())
		if err != nil {
			return err
		}
		cfg.IsShopOpen = true
		return tx.SaveStoreConfig(context.Background(), cfg)
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
}

func TestRunInTransaction_Rollback(t *testing.T) {
	db, mock := newMockDB(t)
	s := newStore(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	want := errors.New("abort")
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		// Nested calls reuse the same transaction.
		return tx.RunInTransaction(context.Background(), func(store.Store) error { return want })
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
