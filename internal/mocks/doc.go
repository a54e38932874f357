// Package mocks provides testify mocks and small in-memory fakes for the ports.
// Mock constructors take *testing.T and assert expectations on cleanup;
// the fakes (Logger, Clock, MetricsCollector) only record.
package mocks
