// ABOUTME: Charm KV remote store for journal items
// ABOUTME: Short-lived kv.Do transactions; one JSON document per item under item:<id>

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harper/daybook/internal/models"
)

const (
	// ItemPrefix is the key prefix for item documents.
	ItemPrefix = "item:"

	// DefaultCharmHost is the Charm server used when none is configured.
	DefaultCharmHost = "charm.2389.dev"

	// DBName is the default charm kv database for daybook.
	DBName = "daybook"
)

// ErrNoDatabase is returned by NewClient when no database name is configured.
var ErrNoDatabase = errors.New("charm: database name not configured")

// Document is the stored form of an item.
type Document struct {
	Title           string `json:"title"`
	Link            string `json:"link"`
	DayKey          string `json:"dayKey"`
	CreatedAt       int64  `json:"createdAt"`
	CreatedAtServer int64  `json:"createdAtServer"`
	Nonce           string `json:"nonce,omitempty"`
}

// Options configures a Client.
type Options struct {
	Host     string
	DBName   string
	AutoSync bool
	Logger   *log.Logger
}

// Client holds configuration for KV operations.
// It does NOT hold a persistent connection. Each operation opens the
// database, performs the operation, and closes it.
type Client struct {
	dbName   string
	autoSync bool
	logger   *log.Logger
	now      func() time.Time
}

// NewClient creates a new client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.DBName) == "" {
		return nil, ErrNoDatabase
	}

	// Set Charm server before operations
	host := opts.Host
	if host == "" {
		host = DefaultCharmHost
	}
	if os.Getenv("CHARM_HOST") == "" {
		os.Setenv("CHARM_HOST", host)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Client{
		dbName:   opts.DBName,
		autoSync: opts.AutoSync,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// DoReadOnly executes a function with read-only database access.
func (c *Client) DoReadOnly(fn func(k *kv.KV) error) error {
	return kv.DoReadOnly(c.dbName, fn)
}

// Do executes a function with write access to the database.
func (c *Client) Do(fn func(k *kv.KV) error) error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		if err := fn(k); err != nil {
			return err
		}
		if c.autoSync {
			return k.Sync()
		}
		return nil
	})
}

// SetAutoSync enables or disables automatic sync after writes.
func (c *Client) SetAutoSync(enabled bool) {
	c.autoSync = enabled
}

// Sync manually triggers a sync with the Charm server.
func (c *Client) Sync() error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Sync()
	})
}

// Reset wipes all local data (for sync reset command).
func (c *Client) Reset() error {
	return kv.Reset(c.dbName)
}

// DBName returns the charm kv database name.
func (c *Client) DBName() string {
	return c.dbName
}

// ID returns the user's Charm ID for status display.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", err
	}
	return cc.ID()
}

// Close is a no-op. Connections are closed after each operation.
func (c *Client) Close() error {
	return nil
}

// GetCharmClient returns a new Charm client for low-level operations.
func GetCharmClient() (*client.Client, error) {
	return client.NewClientWithDefaults()
}

func itemKey(id string) []byte {
	return []byte(ItemPrefix + id)
}

// FetchByDayKeys returns items whose day key is in keys, ascending by
// CreatedAt within each day.
func (c *Client) FetchByDayKeys(ctx context.Context, keys []string) (models.Days, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Pull other devices' writes before reading.
	if c.autoSync {
		if err := c.Sync(); err != nil {
			return nil, fmt.Errorf("sync before fetch: %w", err)
		}
	}

	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	days := models.Days{}
	warnedCorruption := false

	err := c.DoReadOnly(func(k *kv.KV) error {
		all, err := k.Keys()
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}

		for _, key := range all {
			id, ok := strings.CutPrefix(string(key), ItemPrefix)
			if !ok {
				continue
			}

			data, err := k.Get(key)
			if err != nil {
				if !warnedCorruption {
					c.logger.Warn("some remote items may be corrupted", "err", err)
					warnedCorruption = true
				}
				continue
			}

			var doc Document
			if err := json.Unmarshal(data, &doc); err != nil {
				if !warnedCorruption {
					c.logger.Warn("some remote items may be corrupted", "err", err)
					warnedCorruption = true
				}
				continue
			}
			if !want[doc.DayKey] {
				continue
			}

			days[doc.DayKey] = append(days[doc.DayKey], models.Item{
				ID:        models.ConfirmedIdentity(id),
				Title:     doc.Title,
				Link:      doc.Link,
				CreatedAt: doc.CreatedAt,
				Nonce:     doc.Nonce,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for day := range days {
		items := days[day]
		// Keys come back in key order; sort by id first so equal timestamps
		// resolve the same way on every fetch.
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ID.String() < items[j].ID.String()
		})
		models.SortItems(items)
	}
	return days, nil
}

// Create stores a new item document and returns its identity.
func (c *Client) Create(ctx context.Context, fields models.RemoteFields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.New().String()
	doc := Document{
		Title:           fields.Title,
		Link:            fields.Link,
		DayKey:          fields.DayKey,
		CreatedAt:       fields.CreatedAt,
		CreatedAtServer: c.now().UnixMilli(),
		Nonce:           fields.Nonce,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal item: %w", err)
	}

	err = c.Do(func(k *kv.KV) error {
		return k.Set(itemKey(id), data)
	})
	if err != nil {
		return "", fmt.Errorf("create item: %w", err)
	}
	return id, nil
}

// Remove deletes an item document. Unknown ids are ignored.
func (c *Client) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Do(func(k *kv.KV) error {
		if err := k.Delete(itemKey(id)); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
}

// Stats summarises the remote store.
type Stats struct {
	TotalItems int
	Days       int
}

// GetStats counts stored items and distinct days.
func (c *Client) GetStats() (*Stats, error) {
	stats := &Stats{}
	days := make(map[string]bool)

	err := c.DoReadOnly(func(k *kv.KV) error {
		keys, err := k.Keys()
		if err != nil {
			return err
		}
		for _, key := range keys {
			if !strings.HasPrefix(string(key), ItemPrefix) {
				continue
			}
			data, err := k.Get(key)
			if err != nil {
				continue
			}
			var doc Document
			if err := json.Unmarshal(data, &doc); err != nil {
				continue
			}
			stats.TotalItems++
			days[doc.DayKey] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats.Days = len(days)
	return stats, nil
}

// NewTestClientWithDBName creates a Client for testing with a custom database name.
// The autoSync parameter controls whether writes trigger sync (usually false for tests).
func NewTestClientWithDBName(dbName string, autoSync bool) *Client {
	return &Client{
		dbName:   dbName,
		autoSync: autoSync,
		logger:   log.New(io.Discard),
		now:      time.Now,
	}
}
