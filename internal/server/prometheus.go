// prometheus.go - Prometheus text-format exporter for the /metrics endpoint
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

var serverStartTime = time.Now()

// PrometheusMetricsHandler exports the internal metrics registry in
// Prometheus text format.
func PrometheusMetricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snapshot := GetMetrics().Snapshot()

		var out strings.Builder

		out.WriteString("# HELP fd_requests_total Total number of HTTP requests\n")
		out.WriteString("# TYPE fd_requests_total counter\n")
		fmt.Fprintf(&out, "fd_requests_total %d\n\n", snapshot.RequestsTotal)

		out.WriteString("# HELP fd_uploads_total Total number of upload batches stored\n")
		out.WriteString("# TYPE fd_uploads_total counter\n")
		fmt.Fprintf(&out, "fd_uploads_total %d\n\n", snapshot.UploadsTotal)

		out.WriteString("# HELP fd_upload_bytes_total Total bytes accepted by uploads\n")
		out.WriteString("# TYPE fd_upload_bytes_total counter\n")
		fmt.Fprintf(&out, "fd_upload_bytes_total %d\n\n", snapshot.UploadBytesTotal)

		out.WriteString("# HELP fd_downloads_total Completed deliveries by kind\n")
		out.WriteString("# TYPE fd_downloads_total counter\n")
		fmt.Fprintf(&out, "fd_downloads_total{kind=\"single\"} %d\n", snapshot.DownloadsSingleTotal)
		fmt.Fprintf(&out, "fd_downloads_total{kind=\"archive\"} %d\n\n", snapshot.DownloadsArchiveTotal)

		out.WriteString("# HELP fd_download_bytes_total Total bytes delivered\n")
		out.WriteString("# TYPE fd_download_bytes_total counter\n")
		fmt.Fprintf(&out, "fd_download_bytes_total %d\n\n", snapshot.DownloadBytesTotal)

		out.WriteString("# HELP fd_download_errors_total Aborted or failed deliveries\n")
		out.WriteString("# TYPE fd_download_errors_total counter\n")
		fmt.Fprintf(&out, "fd_download_errors_total %d\n\n", snapshot.DownloadErrorsTotal)

		out.WriteString("# HELP fd_verify_failures_total Rejected password checks\n")
		out.WriteString("# TYPE fd_verify_failures_total counter\n")
		fmt.Fprintf(&out, "fd_verify_failures_total %d\n\n", snapshot.VerifyFailuresTotal)

		out.WriteString("# HELP fd_files_missing_total Retrievals with no surviving blobs\n")
		out.WriteString("# TYPE fd_files_missing_total counter\n")
		fmt.Fprintf(&out, "fd_files_missing_total %d\n\n", snapshot.FilesMissingTotal)

		out.WriteString("# HELP fd_uptime_seconds Application uptime in seconds\n")
		out.WriteString("# TYPE fd_uptime_seconds counter\n")
		fmt.Fprintf(&out, "fd_uptime_seconds %.0f\n", time.Since(serverStartTime).Seconds())

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out.String()))
	})
}
