package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/urlclick/shortener/internal/model"
)

func setupTestRepo(t *testing.T) *URLRepository {
	t.Helper()
	repo, err := NewURLRepository(&Config{Driver: "sqlite3", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to create repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	u := &model.ShortenedURL{
		LongURL:   "https://example.com/a",
		ShortCode: "abc123XYZ",
		Enabled:   true,
		ExpiresAt: &expires,
	}

	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID == 0 {
		t.Error("Expected ID to be assigned")
	}

	got, err := repo.GetByShortCode(ctx, "abc123XYZ")
	if err != nil {
		t.Fatalf("GetByShortCode failed: %v", err)
	}
	if got.LongURL != "https://example.com/a" {
		t.Errorf("long URL = %q; want https://example.com/a", got.LongURL)
	}
	if got.ClickCount != 0 {
		t.Errorf("click count = %d; want 0", got.ClickCount)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
		t.Errorf("expires_at = %v; want %v", got.ExpiresAt, expires)
	}
}

func TestGetUnknownCode(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByShortCode(context.Background(), "aaabbb")
	if err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestCreateDuplicateCode(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first := &model.ShortenedURL{LongURL: "https://example.com/a", ShortCode: "samecode1", Enabled: true}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	second := &model.ShortenedURL{LongURL: "https://example.com/b", ShortCode: "samecode1", Enabled: true}
	if err := repo.Create(ctx, second); err != ErrCodeTaken {
		t.Errorf("Expected ErrCodeTaken, got: %v", err)
	}
}

func TestFindActiveByLongURL(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	u := &model.ShortenedURL{LongURL: "https://example.com/a", ShortCode: "code00001", Enabled: true}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindActiveByLongURL(ctx, "https://example.com/a")
	if err != nil {
		t.Fatalf("FindActiveByLongURL failed: %v", err)
	}
	if found.ID != u.ID {
		t.Errorf("found ID %d; want %d", found.ID, u.ID)
	}

	// Disabled rows must not count as active
	if err := repo.SetEnabled(ctx, u.ID, false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	if _, err := repo.FindActiveByLongURL(ctx, "https://example.com/a"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for disabled row, got: %v", err)
	}

	// But the short code stays resolvable
	if _, err := repo.GetByShortCode(ctx, "code00001"); err != nil {
		t.Errorf("GetByShortCode after disable failed: %v", err)
	}
}

func TestRecordClick(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	u := &model.ShortenedURL{LongURL: "https://example.com/a", ShortCode: "clickcode", Enabled: true}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	click := &model.ClickEvent{
		ShortURLID: u.ID,
		IPAddress:  "8.8.8.8",
		Browser:    model.BrowserChrome,
		OS:         model.OSLinux,
		DeviceType: model.DeviceDesktop,
		Country:    "US",
		City:       "Mountain View",
	}
	if err := repo.RecordClick(ctx, click); err != nil {
		t.Fatalf("RecordClick failed: %v", err)
	}

	got, err := repo.GetByShortCode(ctx, "clickcode")
	if err != nil {
		t.Fatalf("GetByShortCode failed: %v", err)
	}
	if got.ClickCount != 1 {
		t.Errorf("click count = %d; want 1", got.ClickCount)
	}

	n, err := repo.CountClicks(ctx, u.ID)
	if err != nil {
		t.Fatalf("CountClicks failed: %v", err)
	}
	if n != 1 {
		t.Errorf("click rows = %d; want 1", n)
	}
}

func TestRecordClickConcurrent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	u := &model.ShortenedURL{LongURL: "https://example.com/a", ShortCode: "concurrent", Enabled: true}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.RecordClick(ctx, &model.ClickEvent{
				ShortURLID: u.ID,
				Browser:    model.BrowserOther,
				OS:         model.OSOther,
				DeviceType: model.DeviceOther,
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("RecordClick failed: %v", err)
		}
	}

	// No lost updates: final count equals the number of recorded events
	got, err := repo.GetByShortCode(ctx, "concurrent")
	if err != nil {
		t.Fatalf("GetByShortCode failed: %v", err)
	}
	if got.ClickCount != n {
		t.Errorf("click count = %d; want %d", got.ClickCount, n)
	}

	rows, err := repo.CountClicks(ctx, u.ID)
	if err != nil {
		t.Fatalf("CountClicks failed: %v", err)
	}
	if rows != n {
		t.Errorf("click rows = %d; want %d", rows, n)
	}
}

func TestBindPostgresPlaceholders(t *testing.T) {
	r := &URLRepository{driver: "postgres"}

	got := r.bind(`UPDATE urls SET enabled = ? WHERE id = ?`)
	want := `UPDATE urls SET enabled = $1 WHERE id = $2`
	if got != want {
		t.Errorf("bind() = %q; want %q", got, want)
	}
}
