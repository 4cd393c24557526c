// Package errors provides coded, structured errors for nirvanamm.
//
// Every failure that reaches a user carries an ErrorCode so callers and tests
// can branch on the category (parse, validation, security, IO, codec...) without
// matching message text.
package errors
