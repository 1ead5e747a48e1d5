// Package api exposes the train system over HTTP:
//
//	GET  /healthz
//	GET  /api/status
//	POST /api/requests
//	GET  /api/journal?from=&to=&passenger_id=&station=
//	GET  /metrics
package api
