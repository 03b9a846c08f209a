package sessionstore

import "strings"

// Status represents the lifecycle of a render session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRendering Status = "rendering"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusRendering,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus normalizes user input into a known status.
func ParseStatus(raw string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := statusSet[status]
	return status, ok
}

// Session is one manifest render tracked by the store.
type Session struct {
	ID           string
	Title        string
	ManifestPath string
	Status       Status
	Stage        string
	ErrorMessage string
	OutputPath   string
	MetricsJSON  string
	CreatedAt    string
	UpdatedAt    string
}
