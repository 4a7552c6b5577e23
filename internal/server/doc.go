// Package server runs the short-lived HTTP server that receives the OAuth redirect during `dwarchive auth`.
//
// # Routing
//
// [BasicRouter] registers method-scoped patterns on an [http.ServeMux], so a wrong method gets 405 from the mux
// itself. [Middleware] added with Use wraps every route; the first one added is the outermost.
// [RequestLogger] and [Recoverer] are the middleware the CLI installs.
//
// # OAuth callback
//
// [OAuthHandler] checks the state parameter, exchanges the authorization code for a token and delivers exactly one
// [OAuthResult] on its channel. Requests with the wrong state are rejected without ending the flow, and any
// request after the first valid one is rejected.
//
// # Lifecycle
//
// [Listen] binds the configured host and port before the browser is opened and serves in the background until
// [CallbackServer.Shutdown]. The archiver itself never serves HTTP.
package server
