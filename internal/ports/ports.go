package ports

// ApplicationPorts aggregates all ports for dependency injection
type ApplicationPorts struct {
	// Dispatch state
	CombinationRepository CombinationRepository
	RunStateStore         RunStateStore
	SubscriberRepository  SubscriberRepository
	DeliveryLedger        DeliveryLedger

	// Content generation
	EngineInvoker EngineInvoker

	// Communication
	EmailProvider   EmailProvider
	MessageRenderer MessageRenderer

	// Coordination
	LockManager LockManager
	Clock       Clock

	// Infrastructure
	ConfigProvider   ConfigProvider
	MetricsCollector MetricsCollector
	Logger           Logger
	Database         interface{}
}
