package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// previewCacheEntry хранит расчёт вместе с дедлайном его жизни.
type previewCacheEntry struct {
	preview  domain.PricedPreview
	deadline time.Time
}

// previewCacheInMemory — in-memory реализация PreviewCache с TTL.
type previewCacheInMemory struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]previewCacheEntry
}

// NewPreviewCache возвращает in-memory кеш расчётов с заданным TTL.
func NewPreviewCache(ttl time.Duration) domain.PreviewCache {
	return newPreviewCache(ttl, time.Now)
}

func newPreviewCache(ttl time.Duration, now func() time.Time) *previewCacheInMemory {
	return &previewCacheInMemory{
		ttl:   ttl,
		now:   now,
		items: make(map[string]previewCacheEntry),
	}
}

// Put сохраняет расчёт, замещая предыдущий для этого владельца.
func (c *previewCacheInMemory) Put(preview domain.PricedPreview) error {
	if err := preview.Owner.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[preview.Owner.String()] = previewCacheEntry{
		preview:  preview,
		deadline: c.now().Add(c.ttl),
	}
	return nil
}

// Get возвращает актуальный расчёт или ErrPreviewExpired.
// Истёкшая запись удаляется лениво при чтении.
func (c *previewCacheInMemory) Get(owner domain.OwnerKey) (domain.PricedPreview, error) {
	if err := owner.Validate(); err != nil {
		return domain.PricedPreview{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[owner.String()]
	if !ok {
		return domain.PricedPreview{}, domain.ErrPreviewExpired
	}
	if c.now().After(entry.deadline) {
		delete(c.items, owner.String())
		return domain.PricedPreview{}, domain.ErrPreviewExpired
	}
	return entry.preview, nil
}

// Delete удаляет расчёт владельца; идемпотентна.
func (c *previewCacheInMemory) Delete(owner domain.OwnerKey) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, owner.String())
	return nil
}

var _ domain.PreviewCache = (*previewCacheInMemory)(nil)
