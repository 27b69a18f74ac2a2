package store

import (
	"slices"
	"testing"
	"time"

	"github.com/ilmhub/coinhub/internal/database"
	"github.com/ilmhub/coinhub/internal/model"
	"github.com/ilmhub/coinhub/internal/vault"
)

func setupTestDB(t *testing.T) (*SessionStore, *SettingsStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	settings := NewSettingsStore(db)
	salt, err := settings.VaultSalt()
	if err != nil {
		t.Fatalf("vault salt: %v", err)
	}
	v, err := vault.New("test-secret", salt)
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return NewSessionStore(db, v), settings
}

func TestSessionCreate(t *testing.T) {
	ss, _ := setupTestDB(t)

	sess, err := ss.Create("upstream-jwt", 7, model.RoleStudent, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != 7 {
		t.Errorf("user_id = %d, want 7", sess.UserID)
	}
	if sess.Role != model.RoleStudent {
		t.Errorf("role = %v, want student", sess.Role)
	}
	if sess.Bearer != "upstream-jwt" {
		t.Errorf("bearer = %q, want upstream-jwt", sess.Bearer)
	}

	var sealed []byte
	ss.db.QueryRow(`SELECT bearer_sealed FROM sessions WHERE id = ?`, sess.ID).Scan(&sealed)
	if string(sealed) == "upstream-jwt" {
		t.Error("bearer stored in clear")
	}
}

func TestSessionGetByToken(t *testing.T) {
	ss, _ := setupTestDB(t)
	created, _ := ss.Create("jwt", 1, model.RoleAdmin, time.Now().Add(time.Hour))

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != created.ID || sess.Bearer != "jwt" {
		t.Errorf("session = %+v", sess)
	}
}

func TestSessionGetByTokenNotFound(t *testing.T) {
	ss, _ := setupTestDB(t)

	sess, err := ss.GetByToken("nonexistent")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for nonexistent token")
	}
}

func TestSessionExpired(t *testing.T) {
	ss, _ := setupTestDB(t)
	expired, _ := ss.Create("old", 1, model.RoleTeacher, time.Now().Add(-time.Minute))
	live, _ := ss.Create("new", 2, model.RoleTeacher, time.Now().Add(time.Hour))

	sess, err := ss.GetByToken(expired.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for expired session")
	}

	ids, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if len(ids) != 1 || ids[0] != expired.ID {
		t.Errorf("deleted = %v, want [%d]", ids, expired.ID)
	}
	if sess, _ := ss.GetByToken(live.Token); sess == nil {
		t.Error("live session removed")
	}
}

func TestSessionDelete(t *testing.T) {
	ss, _ := setupTestDB(t)
	created, _ := ss.Create("jwt", 1, model.RoleAdmin, time.Now().Add(time.Hour))

	if err := ss.Delete(created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionDeleteByUserID(t *testing.T) {
	ss, _ := setupTestDB(t)
	a, _ := ss.Create("a", 5, model.RoleStudent, time.Now().Add(time.Hour))
	b, _ := ss.Create("b", 5, model.RoleStudent, time.Now().Add(time.Hour))
	other, _ := ss.Create("c", 6, model.RoleStudent, time.Now().Add(time.Hour))

	ids, err := ss.DeleteByUserID(5)
	if err != nil {
		t.Fatalf("delete by user id: %v", err)
	}
	if len(ids) != 2 || !slices.Contains(ids, a.ID) || !slices.Contains(ids, b.ID) {
		t.Errorf("deleted ids = %v, want [%d %d]", ids, a.ID, b.ID)
	}
	var count int
	ss.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE user_id = ?`, 5).Scan(&count)
	if count != 0 {
		t.Errorf("expected 0 sessions, got %d", count)
	}
	if sess, _ := ss.GetByToken(other.Token); sess == nil {
		t.Error("other user's session was deleted")
	}

	ids, err = ss.DeleteByUserID(5)
	if err != nil || len(ids) != 0 {
		t.Errorf("second delete = %v, %v, want none", ids, err)
	}
}

func TestSessionWrongSecret(t *testing.T) {
	ss, settings := setupTestDB(t)
	created, _ := ss.Create("jwt", 1, model.RoleAdmin, time.Now().Add(time.Hour))

	salt, _ := settings.VaultSalt()
	other, _ := vault.New("rotated-secret", salt)
	rotated := NewSessionStore(ss.db, other)
	if _, err := rotated.GetByToken(created.Token); err == nil {
		t.Error("expected error opening bearer with a rotated secret")
	}
}
