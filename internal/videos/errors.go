// Package videos holds the background work around uploaded videos: probing
// their duration and recording views.
package videos

import "errors"

var (
	// ErrProbeFailed indicates ffprobe could not report a duration.
	ErrProbeFailed = errors.New("video probe failed")
	// ErrRecorderClosed indicates the view recorder no longer accepts work.
	ErrRecorderClosed = errors.New("view recorder closed")
)
