package ports

// Metrics receives lifecycle observations. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveTransition(operation string, status string)
	ObserveNotification(event string, delivered bool)
	ObserveDegradedLoad(collection string)
	SetComplianceScore(total int)
}
