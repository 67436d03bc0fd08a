// Package api is the HTTP client for the document chat service.
//
// # Endpoints
//
//   - POST   /api/chat/session/new   create a session, returns {session_id}
//   - DELETE /api/chat/session/{id}  delete a session (404 counts as done)
//   - POST   /api/chat/message       submit a message, response is a
//     line-framed event stream decoded by the sse package
//   - GET    /api/documents          list uploaded documents
//   - DELETE /api/documents/{id}     remove a document
//   - GET    /api/models             list available model identifiers
//
// Error responses carry a JSON {detail} message which is surfaced verbatim
// when present.
package api
