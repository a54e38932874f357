package ports

import "context"

// GeneratedPayload is the content produced by the engine for one combination
type GeneratedPayload struct {
	ProseText      string
	ProseHTML      string
	Topic          string
	Quote          string
	AuthorName     string
	WeatherSummary string
	Characters     []string
}

// EngineInvoker defines the contract for the external content-generation process
type EngineInvoker interface {
	Invoke(ctx context.Context, combination *CombinationData) (*GeneratedPayload, error)
}

// EngineStateReporter is implemented by engines that expose breaker state
type EngineStateReporter interface {
	State() string
}
