package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch engine metrics
var (
	BatchFilesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialocate_batch_files_received_total",
			Help: "Total number of candidate files presented to the batch controller",
		},
	)

	BatchActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialocate_batch_actions_total",
			Help: "Total number of action invocations by outcome",
		},
		[]string{"outcome"}, // "succeeded", "ignored", "failed"
	)

	BatchActionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medialocate_batch_action_duration_seconds",
			Help:    "Duration of action invocations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchOrphansDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialocate_batch_orphans_deleted_total",
			Help: "Total number of status records removed by orphan cleanup",
		},
	)
)

// Store metrics
var (
	StoreSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialocate_store_syncs_total",
			Help: "Total number of store sync operations",
		},
		[]string{"result"}, // "written", "clean", "error"
	)

	StoreRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medialocate_store_records",
			Help: "Number of records held by an open store",
		},
		[]string{"store"},
	)
)

// Finder metrics
var (
	FinderDirsVisited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialocate_finder_dirs_visited_total",
			Help: "Total number of directories visited by the file finder",
		},
	)

	FinderFilesSeen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialocate_finder_files_seen_total",
			Help: "Total number of raw file entries seen by the file finder",
		},
	)

	FinderFilesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialocate_finder_files_found_total",
			Help: "Total number of files that survived all finder filters",
		},
	)
)

// Locator metrics
var (
	LocatorExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialocate_locator_extractions_total",
			Help: "Total number of GPS extraction attempts by result",
		},
		[]string{"result"}, // "located", "no_gps", "error"
	)

	LocatorThumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialocate_locator_thumbnails_total",
			Help: "Total number of thumbnail generations by media type and status",
		},
		[]string{"type", "status"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialocate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medialocate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
