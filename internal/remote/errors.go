// ABOUTME: Sentinel errors for remote store operations

package remote

import "errors"

// ErrDisabled is returned by Disabled.Create so callers never mistake a
// disabled store for a successful write.
var ErrDisabled = errors.New("remote sync disabled")
