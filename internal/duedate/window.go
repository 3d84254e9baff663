package duedate

// InScope reports whether an assignment due on due should be stored and synced.
// Undated assignments follow includeUndated; past-due ones are never in scope;
// a nil lookAheadDays means no upper bound.
func InScope(due *Date, today Date, lookAheadDays *int, includeUndated bool) bool {
	if due == nil {
		return includeUndated
	}
	if due.Before(today) {
		return false
	}
	if lookAheadDays == nil {
		return true
	}
	return today.DaysUntil(*due) <= *lookAheadDays
}
