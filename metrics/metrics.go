// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarapi_auth_requests_total",
		Help: "Total number of authentication requests",
	}, []string{"operation", "status"})

	TokenVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarapi_token_verifications_total",
		Help: "Token verification outcomes by failure kind",
	}, []string{"kind", "result"})

	RevokedTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scholarapi_revoked_tokens",
		Help: "Number of live entries in the revocation registry",
	})

	UploadRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarapi_upload_requests_total",
		Help: "Total number of document upload requests",
	}, []string{"status", "format"})

	UploadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scholarapi_upload_duration_seconds",
		Help:    "Time spent processing document uploads end to end",
		Buckets: prometheus.ExponentialBuckets(0.1, 2.0, 10), // 0.1s to ~51.2s
	}, []string{"format"})

	ExtractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scholarapi_extraction_duration_seconds",
		Help:    "Time spent extracting text from uploaded documents",
		Buckets: prometheus.ExponentialBuckets(0.05, 2.0, 10),
	}, []string{"format"})

	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarapi_chat_requests_total",
		Help: "Total number of chat and search requests",
	}, []string{"operation", "status"})

	DocumentChunks = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scholarapi_document_chunks",
		Help:    "Number of chunks produced per indexed document",
		Buckets: prometheus.ExponentialBuckets(1, 2.0, 12), // 1 to ~2048 chunks
	}, []string{"format"})
)
