package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urlclick/shortener/internal/geoip"
	"github.com/urlclick/shortener/internal/logger"
	"github.com/urlclick/shortener/internal/model"
	"github.com/urlclick/shortener/internal/repository"
	"github.com/urlclick/shortener/internal/shortcode"
	"github.com/urlclick/shortener/internal/uaparse"
)

// Custom errors for the service layer
var (
	ErrEmptyURL         = errors.New("URL cannot be empty")
	ErrDuplicateLongURL = errors.New("an active short URL for this target already exists")
	ErrURLNotFound      = errors.New("short URL not found")
)

// codeRetryAttempts bounds the generate-and-check loop. With 64^9
// possible codes a second collision in a row already signals
// something worse than bad luck.
const codeRetryAttempts = 3

// Store is the authoritative persistence layer
type Store interface {
	Create(ctx context.Context, u *model.ShortenedURL) error
	GetByShortCode(ctx context.Context, shortCode string) (*model.ShortenedURL, error)
	FindActiveByLongURL(ctx context.Context, longURL string) (*model.ShortenedURL, error)
	RecordClick(ctx context.Context, click *model.ClickEvent) error
}

// Cache is the transient projection store on the redirect path.
// A (nil, nil) Get is a miss; errors are treated as misses.
type Cache interface {
	Get(ctx context.Context, shortCode string) (*model.CacheEntry, error)
	Set(ctx context.Context, shortCode string, entry *model.CacheEntry) error
}

// Geolocator resolves a public IP to country/city
type Geolocator interface {
	Lookup(ctx context.Context, ip string) (model.GeoInfo, error)
}

// Visitor carries the request-time signals used for enrichment
type Visitor struct {
	IP        string
	UserAgent string
}

// URLService handles business logic for URL operations
type URLService struct {
	store      Store
	cache      Cache
	geo        Geolocator
	baseURL    string // e.g., "http://localhost:8080"
	geoTimeout time.Duration
	log        *logger.Logger
}

// NewURLService creates a new service instance
func NewURLService(store Store, cache Cache, geo Geolocator, baseURL string, log *logger.Logger) *URLService {
	return &URLService{
		store:      store,
		cache:      cache,
		geo:        geo,
		baseURL:    strings.TrimRight(baseURL, "/"),
		geoTimeout: 2 * time.Second,
		log:        log,
	}
}

// WithGeoTimeout overrides the geolocation lookup bound
func (s *URLService) WithGeoTimeout(d time.Duration) *URLService {
	if d > 0 {
		s.geoTimeout = d
	}
	return s
}

// CreateShortURL shortens a long URL, enforcing one enabled mapping
// per target. Short-code uniqueness lives in the store's constraint;
// a conflict there gets a fresh code and another attempt.
func (s *URLService) CreateShortURL(ctx context.Context, longURL string, expiresAt *time.Time) (*model.CreateURLResponse, error) {
	if strings.TrimSpace(longURL) == "" {
		return nil, ErrEmptyURL
	}

	// One enabled mapping per long URL. The check and the insert are
	// not atomic, which is fine: the short_code constraint is the
	// authoritative one, and a racing duplicate long URL costs one
	// redundant row, not a broken redirect.
	_, err := s.store.FindActiveByLongURL(ctx, longURL)
	if err == nil {
		return nil, ErrDuplicateLongURL
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	urlRecord := &model.ShortenedURL{
		LongURL:   longURL,
		Enabled:   true,
		ExpiresAt: expiresAt,
	}

	created := false
	for attempt := 1; attempt <= codeRetryAttempts; attempt++ {
		urlRecord.ShortCode = shortcode.Generate()

		err := s.store.Create(ctx, urlRecord)
		if err == nil {
			created = true
			break
		}
		if err != repository.ErrCodeTaken {
			return nil, err
		}

		s.log.Warn("short code collision, retrying",
			"short_code", urlRecord.ShortCode,
			"attempt", attempt,
		)
	}
	if !created {
		return nil, fmt.Errorf("no unique short code after %d attempts", codeRetryAttempts)
	}

	return &model.CreateURLResponse{
		Status:   "success",
		Message:  "Short URL created successfully",
		ShortURL: s.baseURL + "/" + urlRecord.ShortCode,
	}, nil
}

// Resolve finds the target for a short code and records the click.
// Read path is cache-aside: cache first, store on miss, repopulate.
// Cache trouble degrades to a store read; a store failure on the
// click transaction fails the request.
func (s *URLService) Resolve(ctx context.Context, shortCode string, visitor Visitor) (string, error) {
	entry, err := s.cache.Get(ctx, shortCode)
	if err != nil {
		s.log.Warn("cache unavailable, falling through to store",
			"short_code", shortCode,
			"error", err.Error(),
		)
	}

	if entry == nil {
		urlRecord, err := s.store.GetByShortCode(ctx, shortCode)
		if err == repository.ErrNotFound {
			// Negative results are not cached
			return "", ErrURLNotFound
		}
		if err != nil {
			return "", err
		}

		entry = &model.CacheEntry{
			ID:        urlRecord.ID,
			LongURL:   urlRecord.LongURL,
			ExpiresAt: urlRecord.ExpiresAt,
		}

		// Best-effort population; never fails the redirect
		if err := s.cache.Set(ctx, shortCode, entry); err != nil {
			s.log.Warn("cache population failed",
				"short_code", shortCode,
				"error", err.Error(),
			)
		}
	}

	click := s.enrich(ctx, visitor)
	click.ShortURLID = entry.ID

	if err := s.store.RecordClick(ctx, click); err != nil {
		return "", fmt.Errorf("recording click: %w", err)
	}

	return entry.LongURL, nil
}

// GetURLStats returns the stored mapping including its click count
func (s *URLService) GetURLStats(ctx context.Context, shortCode string) (*model.ShortenedURL, error) {
	urlRecord, err := s.store.GetByShortCode(ctx, shortCode)
	if err == repository.ErrNotFound {
		return nil, ErrURLNotFound
	}
	return urlRecord, err
}

// enrich derives the click event from request-time signals. Both
// steps are best-effort: classification is total, and a failed or
// skipped geolocation leaves the fields empty.
func (s *URLService) enrich(ctx context.Context, visitor Visitor) *model.ClickEvent {
	c := uaparse.Classify(visitor.UserAgent)

	click := &model.ClickEvent{
		IPAddress:  visitor.IP,
		Browser:    c.Browser,
		OS:         c.OS,
		DeviceType: c.DeviceType,
	}

	if visitor.IP == "" || geoip.IsLocal(visitor.IP) {
		return click
	}

	geoCtx, cancel := context.WithTimeout(ctx, s.geoTimeout)
	defer cancel()

	info, err := s.geo.Lookup(geoCtx, visitor.IP)
	if err != nil {
		s.log.Warn("geolocation lookup failed",
			"ip", visitor.IP,
			"error", err.Error(),
		)
		return click
	}

	click.Country = info.Country
	click.City = info.City
	return click
}
