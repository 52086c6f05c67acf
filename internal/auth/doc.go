// Package auth issues and verifies operator tokens for the ops API.
//
// Tokens are HS256 JWTs signed with the configured api.jwt_secret. They
// carry a subject (who asked) and a Scope; the API requires ScopeAdmin on
// routes that change state, such as a forced registry refresh. Read-only
// routes need no token.
package auth
