// Package emailtools defines the email assistant tools: tone analysis,
// rewriting, shortening, expansion from bullet points, a combined
// analyze-and-rewrite pass, and the reserved validate identity tool.
//
// Each writing tool renders a fixed prompt from its arguments, sends it to a
// Completer and returns the generated text unchanged.
package emailtools
