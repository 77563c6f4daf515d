// ABOUTME: Local item cache persisted as one JSON document in a KV store
// ABOUTME: Loads never fail; saves are deterministic and skip empty day buckets

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/harper/daybook/internal/models"
)

// ItemsKey is the KV key holding the serialized day mapping.
const ItemsKey = "daybook.items"

// Cache loads and saves the day-key to items mapping.
type Cache struct {
	kv     KV
	key    string
	logger *log.Logger
}

// NewCache wraps kv. A nil logger discards diagnostics.
func NewCache(kv KV, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cache{kv: kv, key: ItemsKey, logger: logger}
}

// Load reads the cached mapping. Missing or unreadable data yields an empty
// mapping; items that fail to decode are dropped individually. Pending state
// is re-derived from each stored identity.
func (c *Cache) Load() models.Days {
	data, err := c.kv.Get(c.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("read local cache", "err", err)
		}
		return models.Days{}
	}
	if len(data) == 0 {
		return models.Days{}
	}

	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Warn("parse local cache, starting empty", "err", err)
		return models.Days{}
	}

	days := models.Days{}
	skipped := 0
	for day, entries := range raw {
		for _, entry := range entries {
			var item models.Item
			if err := json.Unmarshal(entry, &item); err != nil || item.ID.IsZero() {
				skipped++
				continue
			}
			days[day] = append(days[day], item)
		}
		if len(days[day]) > 0 {
			models.SortItems(days[day])
		}
	}
	if skipped > 0 {
		c.logger.Warn("skipped unreadable cached items", "count", skipped)
	}
	return days
}

// Save writes days, omitting empty buckets.
func (c *Cache) Save(days models.Days) error {
	data, err := Encode(days)
	if err != nil {
		return err
	}
	if err := c.kv.Set(c.key, data); err != nil {
		return fmt.Errorf("write local cache: %w", err)
	}
	return nil
}

// Encode returns the persisted form of days. encoding/json sorts map keys,
// so equal mappings always encode to equal bytes.
func Encode(days models.Days) ([]byte, error) {
	data, err := json.Marshal(days.Pruned())
	if err != nil {
		return nil, fmt.Errorf("marshal local cache: %w", err)
	}
	return data, nil
}
