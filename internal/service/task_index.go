package service

import "strings"

type taskKey struct {
	projectID string
	title     string
}

// taskIndex maps (project, trimmed title) to a Todoist task id. It lives for a
// single sync cycle.
type taskIndex map[taskKey]string

func (idx taskIndex) lookup(projectID, title string) (string, bool) {
	id, ok := idx[taskKey{projectID, strings.TrimSpace(title)}]
	return id, ok
}

// add keeps the first id seen for a key.
func (idx taskIndex) add(projectID, title, taskID string) {
	key := taskKey{projectID, strings.TrimSpace(title)}
	if _, exists := idx[key]; !exists {
		idx[key] = taskID
	}
}
