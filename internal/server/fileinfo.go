package server

import (
	"fmt"
	"log"
	"net/http"
)

// fileinfoResp summarises a share for the download page: what the
// download will be called, how big the surviving files are, and how many
// times the share has been delivered.
type fileinfoResp struct {
	Filename  string `json:"filename"`
	Size      string `json:"size"`
	Downloads int64  `json:"downloads"`
}

// formatMB renders a byte count as "<N.NN MB>", the unit the download
// page displays.
func formatMB(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/1024/1024)
}

// fileinfoHandler handles GET /fileinfo/{id}. Size and display name are
// computed from surviving blobs only, so the page never promises bytes
// that are no longer there. 404 if the share is unknown or every blob is
// gone.
func (cfg Config) fileinfoHandler(shares ShareStore, blobs BlobStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := RequestIDFromContext(r.Context())
		id := r.PathValue("id")

		rec, err := shares.Get(r.Context(), id)
		if err != nil {
			if err == errShareNotFound {
				writeError(w, http.StatusNotFound, "File not found")
				return
			}
			log.Printf("rid=%s msg=share_lookup_failed id=%s err=%v", rid, id, err)
			writeError(w, http.StatusInternalServerError, "File info failed")
			return
		}

		files := resolveFiles(r.Context(), blobs, rec, rid)
		if len(files) == 0 {
			writeError(w, http.StatusNotFound, "File missing")
			return
		}

		var total int64
		stored := make([]StoredFile, 0, len(files))
		for _, f := range files {
			total += f.Size
			stored = append(stored, f.StoredFile)
		}

		writeJSON(w, http.StatusOK, fileinfoResp{
			Filename:  displayName(rec.ID, stored),
			Size:      formatMB(total),
			Downloads: rec.Downloads,
		})
	})
}
