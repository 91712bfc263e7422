package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"apikeep/internal/store"
	"apikeep/internal/testutil"
)

func addProvider(t *testing.T, s *store.Store, alias string) *store.ProviderRecord {
	t.Helper()
	rec, err := s.Add(&store.ProviderRecord{
		Alias:   alias,
		BaseURL: "https://api.example.com",
		APIKey:  "secret-" + alias,
	})
	if err != nil {
		t.Fatalf("Add(%s) error = %v", alias, err)
	}
	return rec
}

func TestStore_Add(t *testing.T) {
	t.Run("round trip preserves fields and decrypts the secret", func(t *testing.T) {
		s, clock := testutil.NewTestStore(t)

		added, err := s.Add(&store.ProviderRecord{
			Alias:         "openai",
			BaseURL:       "https://api.openai.com/v1",
			APIKey:        "sk-abcdef123456",
			TimeoutMillis: 5000,
		})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}

		if !strings.HasPrefix(added.APIKey, "enc:") {
			t.Errorf("stored secret = %q, want enc: prefix", added.APIKey)
		}
		if added.ID != "id-1" {
			t.Errorf("ID = %q, want %q", added.ID, "id-1")
		}
		if !added.Created.Equal(clock.Now().UTC()) {
			t.Errorf("Created = %v, want %v", added.Created, clock.Now().UTC())
		}
		if !added.LastUsed.IsZero() {
			t.Errorf("LastUsed = %v, want zero", added.LastUsed)
		}
		if added.Version != store.SchemaVersion {
			t.Errorf("Version = %d, want %d", added.Version, store.SchemaVersion)
		}

		got, err := s.Get("openai")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.APIKey != "sk-abcdef123456" {
			t.Errorf("Get() secret = %q, want plaintext", got.APIKey)
		}
		if got.BaseURL != "https://api.openai.com/v1" {
			t.Errorf("Get() baseURL = %q", got.BaseURL)
		}
		if got.TimeoutMillis != 5000 {
			t.Errorf("Get() timeout = %d, want 5000", got.TimeoutMillis)
		}
	})

	t.Run("duplicate alias conflicts and leaves the original intact", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		addProvider(t, s, "anthropic")

		_, err := s.Add(&store.ProviderRecord{
			Alias:   "anthropic",
			BaseURL: "https://other.example.com",
			APIKey:  "different-secret",
		})
		var conflict *store.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("Add() duplicate error = %v, want *ConflictError", err)
		}

		got, err := s.Get("anthropic")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.APIKey != "secret-anthropic" {
			t.Errorf("original secret = %q, want unchanged", got.APIKey)
		}
		if got.BaseURL != "https://api.example.com" {
			t.Errorf("original baseURL = %q, want unchanged", got.BaseURL)
		}
	})

	t.Run("invalid record is rejected before any write", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)

		_, err := s.Add(&store.ProviderRecord{
			Alias:   "bad alias",
			BaseURL: "https://api.example.com",
			APIKey:  "long-enough-secret",
		})
		var ve *store.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Add() error = %v, want *ValidationError", err)
		}

		records, err := s.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 0 {
			t.Errorf("List() length = %d, want 0", len(records))
		}
	})

	t.Run("capacity limit", func(t *testing.T) {
		s, err := store.New(store.Options{
			Root:         t.TempDir(),
			Cipher:       testutil.NewTestCipher(t),
			MaxProviders: 2,
		})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		addProvider(t, s, "one")
		addProvider(t, s, "two")

		_, err = s.Add(&store.ProviderRecord{
			Alias:   "three",
			BaseURL: "https://api.example.com",
			APIKey:  "secret-three",
		})
		var conflict *store.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("Add() at capacity error = %v, want *ConflictError", err)
		}
	})
}

func TestStore_Update(t *testing.T) {
	t.Run("partial patch preserves untouched fields", func(t *testing.T) {
		s, clock := testutil.NewTestStore(t)
		added := addProvider(t, s, "openai")

		clock.Advance(time.Hour)

		newURL := "https://api.openai.com/v2"
		updated, err := s.Update("openai", store.Patch{BaseURL: &newURL})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		if updated.BaseURL != newURL {
			t.Errorf("BaseURL = %q, want %q", updated.BaseURL, newURL)
		}
		if !updated.Created.Equal(added.Created) {
			t.Errorf("Created = %v, want preserved %v", updated.Created, added.Created)
		}
		if updated.ID != added.ID {
			t.Errorf("ID = %q, want preserved %q", updated.ID, added.ID)
		}
		if !updated.LastUpdated.After(added.LastUpdated) {
			t.Errorf("LastUpdated = %v, want after %v", updated.LastUpdated, added.LastUpdated)
		}
		// Secret untouched by the patch stays byte-identical on disk.
		if updated.APIKey != added.APIKey {
			t.Errorf("stored secret changed without a new key: %q != %q", updated.APIKey, added.APIKey)
		}

		got, err := s.Get("openai")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.APIKey != "secret-openai" {
			t.Errorf("secret after URL patch = %q, want original plaintext", got.APIKey)
		}
	})

	t.Run("new secret is re-encrypted", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		added := addProvider(t, s, "openai")

		newKey := "sk-new-secret-value"
		updated, err := s.Update("openai", store.Patch{APIKey: &newKey})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.APIKey == added.APIKey {
			t.Error("stored secret unchanged after key patch")
		}
		if !strings.HasPrefix(updated.APIKey, "enc:") {
			t.Errorf("stored secret = %q, want enc: prefix", updated.APIKey)
		}

		got, err := s.Get("openai")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.APIKey != newKey {
			t.Errorf("secret = %q, want %q", got.APIKey, newKey)
		}
	})

	t.Run("invalid patch is rejected", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		addProvider(t, s, "openai")

		badURL := "ftp://example.com"
		_, err := s.Update("openai", store.Patch{BaseURL: &badURL})
		var ve *store.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Update() error = %v, want *ValidationError", err)
		}

		got, _ := s.Get("openai")
		if got.BaseURL != "https://api.example.com" {
			t.Errorf("BaseURL = %q, want unchanged", got.BaseURL)
		}
	})

	t.Run("unknown alias", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		url := "https://api.example.com"
		_, err := s.Update("ghost", store.Patch{BaseURL: &url})
		var nfe *store.NotFoundError
		if !errors.As(err, &nfe) {
			t.Fatalf("Update() error = %v, want *NotFoundError", err)
		}
	})
}

func TestStore_Remove(t *testing.T) {
	t.Run("removes the record file", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		addProvider(t, s, "openai")

		if err := s.Remove("openai"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		_, err := s.Get("openai")
		var nfe *store.NotFoundError
		if !errors.As(err, &nfe) {
			t.Fatalf("Get() after remove error = %v, want *NotFoundError", err)
		}
	})

	t.Run("clears the default pointer when removing the default", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		addProvider(t, s, "openai")
		addProvider(t, s, "anthropic")

		if err := s.SetDefault("openai"); err != nil {
			t.Fatalf("SetDefault() error = %v", err)
		}
		if err := s.Remove("openai"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}

		def, err := s.GetDefault()
		if err != nil {
			t.Fatalf("GetDefault() error = %v", err)
		}
		if def != "" {
			t.Errorf("default = %q, want empty", def)
		}
	})

	t.Run("keeps the default pointer when removing another alias", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		addProvider(t, s, "openai")
		addProvider(t, s, "anthropic")

		if err := s.SetDefault("openai"); err != nil {
			t.Fatalf("SetDefault() error = %v", err)
		}
		if err := s.Remove("anthropic"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}

		def, _ := s.GetDefault()
		if def != "openai" {
			t.Errorf("default = %q, want %q", def, "openai")
		}
	})

	t.Run("unknown alias", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		err := s.Remove("ghost")
		var nfe *store.NotFoundError
		if !errors.As(err, &nfe) {
			t.Fatalf("Remove() error = %v, want *NotFoundError", err)
		}
	})
}

func TestStore_List(t *testing.T) {
	t.Run("returns records sorted by alias", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		addProvider(t, s, "zeta")
		addProvider(t, s, "alpha")
		addProvider(t, s, "mid")

		records, err := s.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		var got []string
		for _, r := range records {
			got = append(got, r.Alias)
		}
		want := []string{"alpha", "mid", "zeta"}
		if len(got) != len(want) {
			t.Fatalf("List() aliases = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("skips a corrupt record file", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		addProvider(t, s, "good")

		corrupt := filepath.Join(s.Root(), "providers", "broken.json")
		if err := os.WriteFile(corrupt, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}

		records, err := s.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 1 || records[0].Alias != "good" {
			t.Errorf("List() = %v, want just the good record", records)
		}
	})

	t.Run("skips a record with a malformed secret", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		addProvider(t, s, "good")
		addProvider(t, s, "bad")

		path := filepath.Join(s.Root(), "providers", "bad.json")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		mangled := strings.Replace(string(data), "enc:", "enc:zz:", 1)
		if err := os.WriteFile(path, []byte(mangled), 0o600); err != nil {
			t.Fatal(err)
		}

		records, err := s.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 1 || records[0].Alias != "good" {
			t.Errorf("List() length = %d, want only the good record", len(records))
		}
	})

	t.Run("empty store", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		records, err := s.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 0 {
			t.Errorf("List() length = %d, want 0", len(records))
		}
	})
}

func TestStore_Default(t *testing.T) {
	t.Run("set and get round trip", func(t *testing.T) {
		s, clock := testutil.NewTestStore(t)
		addProvider(t, s, "openai")

		clock.Advance(time.Minute)
		if err := s.SetDefault("openai"); err != nil {
			t.Fatalf("SetDefault() error = %v", err)
		}

		def, err := s.GetDefault()
		if err != nil {
			t.Fatalf("GetDefault() error = %v", err)
		}
		if def != "openai" {
			t.Errorf("default = %q, want %q", def, "openai")
		}

		got, err := s.Get("openai")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !got.LastUsed.Equal(clock.Now().UTC()) {
			t.Errorf("LastUsed = %v, want %v", got.LastUsed, clock.Now().UTC())
		}
	})

	t.Run("unset default is empty", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		def, err := s.GetDefault()
		if err != nil {
			t.Fatalf("GetDefault() error = %v", err)
		}
		if def != "" {
			t.Errorf("default = %q, want empty", def)
		}
	})

	t.Run("setting an unknown alias fails", func(t *testing.T) {
		s, _ := testutil.NewTestStore(t)
		err := s.SetDefault("ghost")
		var nfe *store.NotFoundError
		if !errors.As(err, &nfe) {
			t.Fatalf("SetDefault() error = %v, want *NotFoundError", err)
		}
	})
}
