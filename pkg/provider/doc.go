// Package provider adapts third-party text-generation services to a single
// Complete call.
//
// Four backends are available: gemini, anthropic, openai and ollama. One is
// active per process, chosen by configuration. Completer wraps the active
// backend with a per-call timeout and runs each call on a bounded queue;
// every failure it returns is an *Error matching ErrProvider.
//
// SDK-level retries are disabled. A failed call fails the tool invocation.
package provider
