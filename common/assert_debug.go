//go:build debug

package common

// DebugAssertions is true in builds tagged "debug". Programmer errors that are
// clamped in release builds panic instead.
const DebugAssertions = true
