package tui

// downloadKey identifies one attachment of one message.
type downloadKey struct {
	messageID int64
	index     int
}

// downloadPhase is the lifecycle of an attachment download.
type downloadPhase int

const (
	downloadNotStarted downloadPhase = iota
	downloadActive
	downloadComplete
	downloadFailed
)

// downloadState is the progress of a single attachment download.
type downloadState struct {
	phase    downloadPhase
	progress float64 // 0..1, meaningful while downloadActive
	path     string  // destination, set when downloadComplete
	errMsg   string  // set when downloadFailed
}

// downloadTracker maps attachments to download state. Entries appear on first
// attempt, are overwritten on retry, and are pruned when the owning message
// detail is closed.
type downloadTracker struct {
	m map[downloadKey]downloadState
}

func newDownloadTracker() downloadTracker {
	return downloadTracker{m: make(map[downloadKey]downloadState)}
}

// get returns the state for an attachment, defaulting to not started.
func (d *downloadTracker) get(messageID int64, index int) downloadState {
	return d.m[downloadKey{messageID, index}]
}

// setProgress marks an attachment as downloading. Progress is clamped to 0..1.
func (d *downloadTracker) setProgress(messageID int64, index int, progress float64) {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	d.m[downloadKey{messageID, index}] = downloadState{phase: downloadActive, progress: progress}
}

// setComplete records the downloaded file path.
func (d *downloadTracker) setComplete(messageID int64, index int, path string) {
	d.m[downloadKey{messageID, index}] = downloadState{phase: downloadComplete, progress: 1, path: path}
}

// setFailed records a failure; a retry overwrites it.
func (d *downloadTracker) setFailed(messageID int64, index int, errMsg string) {
	d.m[downloadKey{messageID, index}] = downloadState{phase: downloadFailed, errMsg: errMsg}
}

// anyActive reports whether any download is currently in flight.
func (d *downloadTracker) anyActive() bool {
	for _, st := range d.m {
		if st.phase == downloadActive {
			return true
		}
	}
	return false
}

// clearMessage prunes every entry belonging to one message.
func (d *downloadTracker) clearMessage(messageID int64) {
	for k := range d.m {
		if k.messageID == messageID {
			delete(d.m, k)
		}
	}
}
