// ABOUTME: Centralized configuration defaults for daybook
// ABOUTME: Contains backend names, file names and display constants

package config

import (
	"github.com/harper/daybook/internal/journal"
	"github.com/harper/daybook/internal/timeutil"
)

// Storage settings
const (
	BackendDiskv    = "diskv"
	BackendSQLite   = "sqlite"
	CacheDirName    = "cache"
	DBFilename      = "daybook.db"
	DefaultDirPerms = 0o755
)

// Display settings
const (
	DefaultWindowSize = timeutil.DefaultWindowSize
	DisplayIDLength   = 14
	MinPrefixLength   = journal.MinPrefixLength
	SeparatorWidth    = 60
	TimeFormatShort   = "15:04"
)

// Remote settings
const (
	DefaultRemoteTimeout = journal.DefaultRemoteTimeout
)
