// Package errors provides structured error types with machine-readable codes.
//
// Pipeline misuse (an invalid step, a whole-sequence operation on a cycled
// pipeline) is reported as an *AppError. AppError.Is matches by code, so a
// code-only value works as a sentinel with the standard errors.Is.
package errors
