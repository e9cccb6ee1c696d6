package server

import (
	"archive/zip"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// survivingFile is a stored file whose blob still exists, with the size
// reported by the blob store.
type survivingFile struct {
	StoredFile
	Size int64
}

// resolveFiles filters a record's files down to those whose blobs still
// exist. A record can outlive its blobs (an operator may purge storage),
// so absence is tolerated rather than treated as a hard failure. Stat
// errors are logged and the file skipped, matching the "files missing"
// policy for partial failures.
func resolveFiles(ctx context.Context, blobs BlobStore, rec *ShareRecord, rid string) []survivingFile {
	var out []survivingFile
	for _, f := range rec.Files {
		size, exists, err := blobs.Stat(ctx, f.StoredName)
		if err != nil {
			log.Printf("rid=%s msg=blob_stat_failed id=%s name=%q err=%v", rid, rec.ID, f.StoredName, err)
			continue
		}
		if !exists {
			continue
		}
		out = append(out, survivingFile{StoredFile: f, Size: size})
	}
	return out
}

// contentDisposition builds an attachment header value with quotes in the
// filename escaped.
func contentDisposition(name string) string {
	name = strings.ReplaceAll(name, `\`, `\\`)
	name = strings.ReplaceAll(name, `"`, `\"`)
	return fmt.Sprintf(`attachment; filename="%s"`, name)
}

// downloadHandler handles GET /download/{id}: the retrieval service.
//
// A single surviving file is streamed directly under its original
// filename. Two or more are bundled into a zip built on the fly, entries
// named by their original filenames in upload order. Either way the
// response is marked no-store.
//
// The download counter is incremented exactly once, and only after the
// byte stream has fully completed: aborted deliveries (client gone, read
// error mid-stream) never count. Errors after the first byte cannot
// change the response status; they are logged and the connection dropped.
func (cfg Config) downloadHandler(shares ShareStore, blobs BlobStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := RequestIDFromContext(r.Context())
		id := r.PathValue("id")

		rec, err := shares.Get(r.Context(), id)
		if err != nil {
			if err == errShareNotFound {
				writeError(w, http.StatusNotFound, "File not found")
				return
			}
			log.Printf("rid=%s msg=share_lookup_failed id=%s err=%v", rid, id, err)
			writeError(w, http.StatusInternalServerError, "Download failed")
			return
		}

		files := resolveFiles(r.Context(), blobs, rec, rid)
		if len(files) == 0 {
			GetMetrics().RecordFilesMissing()
			writeError(w, http.StatusNotFound, "Files missing")
			return
		}

		w.Header().Set("Cache-Control", "no-store")

		var (
			delivered int64
			kind      string
		)
		if len(files) == 1 {
			kind = downloadKindSingle
			delivered, err = streamSingle(w, r, blobs, files[0])
		} else {
			kind = downloadKindArchive
			delivered, err = streamArchive(w, r, blobs, rec.ID, files, rid)
		}
		if err != nil {
			GetMetrics().RecordDownloadError()
			log.Printf("rid=%s msg=download_aborted id=%s kind=%s err=%v", rid, id, kind, err)
			return
		}

		// Delivery is complete; count it. The request context may be
		// winding down, so the update gets its own deadline.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shares.IncrementDownloads(ctx, id); err != nil {
			log.Printf("rid=%s msg=download_counter_update_failed id=%s err=%v", rid, id, err)
		}

		GetMetrics().RecordDownload(delivered, time.Since(start), kind)
		log.Printf("rid=%s msg=download_complete id=%s kind=%s bytes=%d", rid, id, kind, delivered)
	})
}

// streamSingle delivers one file directly, suggesting its original name
// as the save name.
func streamSingle(w http.ResponseWriter, r *http.Request, blobs BlobStore, f survivingFile) (int64, error) {
	obj, err := blobs.Get(r.Context(), f.StoredName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Download failed")
		return 0, fmt.Errorf("open blob: %w", err)
	}
	defer func() { _ = obj.Close() }()

	contentType := mime.TypeByExtension(filepath.Ext(f.OrigName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.Header().Set("Content-Disposition", contentDisposition(f.OrigName))
	w.WriteHeader(http.StatusOK)

	return io.Copy(w, obj)
}

// streamArchive bundles the surviving files into a zip written straight
// to the response. Entries that cannot be opened are skipped and logged;
// the archive fails only if nothing at all could be delivered or the
// stream itself breaks.
func streamArchive(w http.ResponseWriter, r *http.Request, blobs BlobStore, id string, files []survivingFile, rid string) (int64, error) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", contentDisposition(archiveName(id)))

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	var entries int
	for _, f := range files {
		obj, err := blobs.Get(r.Context(), f.StoredName)
		if err != nil {
			// Blob vanished between the existence check and now, or a
			// transient read failure: treat as missing rather than
			// aborting the whole archive.
			log.Printf("rid=%s msg=archive_entry_skipped id=%s name=%q err=%v", rid, id, f.StoredName, err)
			continue
		}

		ew, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.OrigName,
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			_ = obj.Close()
			return cw.n, fmt.Errorf("create entry: %w", err)
		}

		_, err = io.Copy(ew, obj)
		_ = obj.Close()
		if err != nil {
			return cw.n, fmt.Errorf("write entry: %w", err)
		}
		entries++
	}

	if entries == 0 {
		// Nothing was written yet, so the status can still change.
		writeError(w, http.StatusNotFound, "Files missing")
		return 0, errFilesMissing
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("finalize archive: %w", err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
