package port

// AuthMetrics records authentication outcomes.
type AuthMetrics interface {
	ObserveAuthOutcome(mode, code string)
	ObserveRefresh(result string)
}

// NopAuthMetrics discards all observations.
type NopAuthMetrics struct{}

func (NopAuthMetrics) ObserveAuthOutcome(string, string) {}

func (NopAuthMetrics) ObserveRefresh(string) {}
