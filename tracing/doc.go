// Package tracing integrates OpenTelemetry with the kernel so that lifecycle calls
// (fork, wait, kill, setpriority) and whole kernel runs can be observed as spans.
// Spans are no-ops until Init or InitWithExporter installs a provider.
package tracing
