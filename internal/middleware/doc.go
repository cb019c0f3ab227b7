// Package middleware provides HTTP middleware for the metamorphosis API
// server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by mux route template
package middleware
