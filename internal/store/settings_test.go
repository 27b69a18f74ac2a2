package store

import (
	"bytes"
	"testing"
)

func TestSettingsGetSet(t *testing.T) {
	_, settings := setupTestDB(t)

	if _, ok, err := settings.Get("missing"); err != nil || ok {
		t.Fatalf("get missing: ok=%v err=%v", ok, err)
	}
	if err := settings.Set("k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := settings.Set("k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := settings.Get("k")
	if err != nil || !ok || v != "v2" {
		t.Errorf("get = %q, %v, %v; want v2", v, ok, err)
	}
}

func TestVaultSaltStable(t *testing.T) {
	_, settings := setupTestDB(t)

	first, err := settings.VaultSalt()
	if err != nil {
		t.Fatalf("vault salt: %v", err)
	}
	second, _ := settings.VaultSalt()
	if !bytes.Equal(first, second) {
		t.Error("vault salt changed between calls")
	}
}
