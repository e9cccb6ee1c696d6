package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// uploadResp is the JSON response returned after a successful upload:
// the shareable link pointing at the companion download page.
type uploadResp struct {
	Link string `json:"link"`
}

// capReader wraps a reader and fails with errFileTooLarge once more than
// limit bytes have been read. Uploads are streamed straight into the blob
// store, so the cap has to be enforced mid-stream rather than after the
// fact.
type capReader struct {
	r         io.Reader
	remaining int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, errFileTooLarge
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return 0, errFileTooLarge
	}
	return n, err
}

// uploadHandler handles POST /upload: a multipart form with 1..MaxFiles
// entries in the "files" field plus an optional "password" field.
//
// Each file is streamed into the blob store under a fresh stored name
// before the share record is written; the record only ever references
// blobs that are durably stored. If any file breaches the per-file size
// cap the whole batch is rejected and no record is created (blobs written
// before the failure are left as unreferenced orphans).
//
// Response: JSON with the shareable link. Failures: 400 (no files, too
// many files, bad multipart), 413 (size cap), 500 (storage or database).
func (cfg Config) uploadHandler(shares ShareStore, blobs BlobStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := RequestIDFromContext(r.Context())

		// Transport-level ceiling across the whole body. Individual
		// files are capped separately while streaming.
		r.Body = http.MaxBytesReader(w, r.Body, int64(cfg.MaxFiles)*cfg.MaxUploadBytes+1<<20)

		mr, err := r.MultipartReader()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Upload error")
			return
		}

		var (
			files      []StoredFile
			password   string
			totalBytes int64
		)

		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				GetMetrics().RecordUploadError()
				log.Printf("rid=%s msg=bad_multipart err=%v", rid, err)
				writeError(w, http.StatusBadRequest, "Upload error")
				return
			}

			switch part.FormName() {
			case "password":
				v, err := io.ReadAll(io.LimitReader(part, 1024))
				_ = part.Close()
				if err != nil {
					writeError(w, http.StatusBadRequest, "Upload error")
					return
				}
				password = string(v)

			case "files":
				if len(files) >= cfg.MaxFiles {
					_ = part.Close()
					writeError(w, http.StatusBadRequest, "Too many files")
					return
				}

				origName := sanitizeFilename(part.FileName())
				storedName := newStoredName(origName)
				contentType := part.Header.Get("Content-Type")
				if contentType == "" {
					contentType = "application/octet-stream"
				}

				cr := &capReader{r: part, remaining: cfg.MaxUploadBytes}
				err := blobs.Put(r.Context(), storedName, cr, -1, contentType)
				_ = part.Close()
				if err != nil {
					GetMetrics().RecordUploadError()
					if strings.Contains(err.Error(), errFileTooLarge.Error()) {
						log.Printf("rid=%s msg=file_too_large name=%q", rid, origName)
						writeError(w, http.StatusRequestEntityTooLarge, "File too large")
						return
					}
					log.Printf("rid=%s msg=blob_put_failed name=%q err=%v", rid, origName, err)
					writeError(w, http.StatusInternalServerError, "Upload failed")
					return
				}

				totalBytes += cfg.MaxUploadBytes - cr.remaining
				files = append(files, StoredFile{StoredName: storedName, OrigName: origName})

			default:
				_ = part.Close()
			}
		}

		if len(files) == 0 {
			writeError(w, http.StatusBadRequest, "No files uploaded")
			return
		}

		rec := &ShareRecord{
			ID:       newShareID(),
			Files:    files,
			Password: password,
		}
		if err := shares.Create(r.Context(), rec); err != nil {
			GetMetrics().RecordUploadError()
			log.Printf("rid=%s msg=share_insert_failed id=%s err=%v", rid, rec.ID, err)
			writeError(w, http.StatusInternalServerError, "Database error")
			return
		}

		GetMetrics().RecordUpload(totalBytes, time.Since(start))
		log.Printf("rid=%s msg=share_created id=%s files=%d bytes=%d", rid, rec.ID, len(files), totalBytes)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(uploadResp{Link: shareLink(cfg.BaseURL, rec.ID)})
	})
}
