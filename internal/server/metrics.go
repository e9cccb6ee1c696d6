package server

import (
	"sync"
	"time"
)

const (
	downloadKindSingle  = "single"
	downloadKindArchive = "archive"
)

// Metrics holds application metrics
type Metrics struct {
	mu sync.RWMutex

	// Upload metrics
	uploadsTotal        int64
	uploadBytesTotal    int64
	uploadErrorsTotal   int64
	uploadDurationTotal time.Duration

	// Download metrics
	downloadsTotal        int64
	downloadsSingleTotal  int64
	downloadsArchiveTotal int64
	downloadBytesTotal    int64
	downloadErrorsTotal   int64
	downloadDurationTotal time.Duration

	// Access gate metrics
	verifyFailuresTotal int64
	filesMissingTotal   int64

	// System metrics
	requestsTotal    int64
	requestErrors4xx int64
	requestErrors5xx int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordUpload records a successful upload batch
func (m *Metrics) RecordUpload(bytes int64, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
	m.uploadBytesTotal += bytes
	m.uploadDurationTotal += duration
}

// RecordUploadError records a failed upload batch
func (m *Metrics) RecordUploadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErrorsTotal++
}

// RecordDownload records a fully delivered download
func (m *Metrics) RecordDownload(bytes int64, duration time.Duration, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadsTotal++
	m.downloadBytesTotal += bytes
	m.downloadDurationTotal += duration
	switch kind {
	case downloadKindSingle:
		m.downloadsSingleTotal++
	case downloadKindArchive:
		m.downloadsArchiveTotal++
	}
}

// RecordDownloadError records an aborted or failed delivery
func (m *Metrics) RecordDownloadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadErrorsTotal++
}

// RecordVerifyFailure records a rejected password check
func (m *Metrics) RecordVerifyFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyFailuresTotal++
}

// RecordFilesMissing records a retrieval whose backing blobs were all gone
func (m *Metrics) RecordFilesMissing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filesMissingTotal++
}

// RecordRequest records an HTTP request
func (m *Metrics) RecordRequest(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++

	if statusCode >= 500 {
		m.requestErrors5xx++
	} else if statusCode >= 400 {
		m.requestErrors4xx++
	}
}

// Snapshot returns a point-in-time copy of current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		UploadsTotal:          m.uploadsTotal,
		UploadBytesTotal:      m.uploadBytesTotal,
		UploadErrorsTotal:     m.uploadErrorsTotal,
		UploadAvgDurationMs:   avgDuration(m.uploadDurationTotal, m.uploadsTotal),
		DownloadsTotal:        m.downloadsTotal,
		DownloadsSingleTotal:  m.downloadsSingleTotal,
		DownloadsArchiveTotal: m.downloadsArchiveTotal,
		DownloadBytesTotal:    m.downloadBytesTotal,
		DownloadErrorsTotal:   m.downloadErrorsTotal,
		DownloadAvgDurationMs: avgDuration(m.downloadDurationTotal, m.downloadsTotal),
		VerifyFailuresTotal:   m.verifyFailuresTotal,
		FilesMissingTotal:     m.filesMissingTotal,
		RequestsTotal:         m.requestsTotal,
		RequestErrors4xx:      m.requestErrors4xx,
		RequestErrors5xx:      m.requestErrors5xx,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	UploadsTotal        int64   `json:"uploads_total"`
	UploadBytesTotal    int64   `json:"upload_bytes_total"`
	UploadErrorsTotal   int64   `json:"upload_errors_total"`
	UploadAvgDurationMs float64 `json:"upload_avg_duration_ms"`

	DownloadsTotal        int64   `json:"downloads_total"`
	DownloadsSingleTotal  int64   `json:"downloads_single_total"`
	DownloadsArchiveTotal int64   `json:"downloads_archive_total"`
	DownloadBytesTotal    int64   `json:"download_bytes_total"`
	DownloadErrorsTotal   int64   `json:"download_errors_total"`
	DownloadAvgDurationMs float64 `json:"download_avg_duration_ms"`

	VerifyFailuresTotal int64 `json:"verify_failures_total"`
	FilesMissingTotal   int64 `json:"files_missing_total"`

	RequestsTotal    int64 `json:"requests_total"`
	RequestErrors4xx int64 `json:"request_errors_4xx"`
	RequestErrors5xx int64 `json:"request_errors_5xx"`
}

func avgDuration(total time.Duration, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(total.Milliseconds()) / float64(count)
}
