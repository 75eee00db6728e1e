// Package httpserver provides the operations HTTP endpoint for geminid.
//
// It serves plain HTTP on a separate address from the Gemini listener:
//
//   - GET /health   liveness
//   - GET /ready    200 once the Gemini listener is accepting
//   - GET /metrics  Prometheus exposition
//   - GET /sites    configured virtual hosts
//
// /metrics and /sites can be restricted to an IP/CIDR allow list.
package httpserver
