package server

import (
	"encoding/json"
	"log"
	"net/http"
)

type verifyReq struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type verifyResp struct {
	Download string `json:"download"`
	Filename string `json:"filename"`
}

// verifyHandler handles POST /verify: the access gate in front of
// downloads. It checks the supplied password against the share record and
// returns the download path plus the display filename.
//
// A share with an empty password is open: any supplied value is accepted.
// This is a pure read; the download counter only moves when bytes are
// actually delivered, so previews that never download are not counted.
func (cfg Config) verifyHandler(shares ShareStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req verifyReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.ID == "" {
			writeError(w, http.StatusBadRequest, "Missing id")
			return
		}

		rec, err := shares.Get(r.Context(), req.ID)
		if err != nil {
			if err == errShareNotFound {
				writeError(w, http.StatusNotFound, "File not found")
				return
			}
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=share_lookup_failed id=%s err=%v", rid, req.ID, err)
			writeError(w, http.StatusInternalServerError, "Verification failed")
			return
		}

		if rec.Password != "" && rec.Password != req.Password {
			GetMetrics().RecordVerifyFailure()
			writeError(w, http.StatusUnauthorized, "Wrong password")
			return
		}

		writeJSON(w, http.StatusOK, verifyResp{
			Download: "/download/" + rec.ID,
			Filename: displayName(rec.ID, rec.Files),
		})
	})
}
