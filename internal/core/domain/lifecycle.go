package domain

import "time"

// RootKind names the entity a cascading delete starts from.
type RootKind string

const (
	RootStudio  RootKind = "studio"
	RootClient  RootKind = "client"
	RootProject RootKind = "project"
)

// DeletionJob is the ordered list of object URLs left behind by one
// committed delete. URLs are unique within a job.
type DeletionJob struct {
	RootKind RootKind
	RootID   string
	URLs     []string
}

// Add appends urls, skipping empties and ones already present.
func (j *DeletionJob) Add(urls ...string) {
	for _, u := range urls {
		if u == "" || j.contains(u) {
			continue
		}
		j.URLs = append(j.URLs, u)
	}
}

func (j *DeletionJob) contains(u string) bool {
	for _, existing := range j.URLs {
		if existing == u {
			return true
		}
	}
	return false
}

func (j DeletionJob) Empty() bool { return len(j.URLs) == 0 }

// CleanupFailure is what reaches the operational failure channel once a URL
// could not be removed. Attempts is cumulative across reconcile runs.
// Permanent failures are never retried automatically.
type CleanupFailure struct {
	URL       string    `json:"url"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	Permanent bool      `json:"permanent,omitempty"`
	RootKind  RootKind  `json:"root_kind,omitempty"`
	RootID    string    `json:"root_id,omitempty"`
	FailedAt  time.Time `json:"failed_at"`
}
