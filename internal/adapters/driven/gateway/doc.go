// Package gateway implements driven.Gateway over the backend's HTTP API.
//
// Endpoints:
//
//	POST   /api/documents/upload          multipart "file"
//	GET    /api/documents/                 list documents
//	DELETE /api/documents/{filename}       delete one document
//	GET    /api/documents/info             corpus info
//	POST   /api/chat/?developer_mode=bool  ask a question
//	GET    /api/chat/health                liveness
//
// Transport failures become *domain.NetworkError and non-2xx responses
// become *domain.ServerError carrying the backend's "detail" message.
// Only idempotent reads (list, info, health) are retried.
package gateway
