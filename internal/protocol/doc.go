// Package protocol defines the four fetch requests understood by the remote
// object API and everything needed to talk about them:
//
//   - a one-line command text form ("<verb> <hex-handle> [operation]") used
//     for the audit log and for replay
//   - the endpoint path each request maps to
//   - the response decoder that turns a body into relations
//
// The remote serializes empty arrays as empty strings; every list field in
// a response accepts both forms.
package protocol
