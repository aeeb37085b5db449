// Package utils provides shared low-level helpers used throughout the chorus
// internals. It covers HTTP request helpers for both synchronous and
// streaming communication with AI provider APIs, incremental frame scanners
// for the two wire framings providers use (Server-Sent Events and raw
// concatenated JSON objects), and generic pointer and string utilities.
//
// Key entry points: [DoPostSync] for synchronous JSON round-trips,
// [DoPostStream] together with [SSEScanner] or [JSONFrameScanner] for
// streaming reads, [DecodeJSON] for repair-then-retry JSON decoding, and
// [Ptr] for converting values to pointers.
package utils
