package server

import (
	"encoding/base64"
	"log"
	"net/http"

	"github.com/skip2/go-qrcode"
)

// qrResp carries the QR image as a PNG data URI, ready to drop into an
// <img> src attribute.
type qrResp struct {
	QR string `json:"qr"`
}

// qrcodeHandler handles GET /qrcode/{id}: encodes the canonical share
// link for id as a QR code. The handler is stateless and does not check
// that the share exists; the code is only as useful as the link it
// encodes.
func (cfg Config) qrcodeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		link := shareLink(cfg.BaseURL, id)

		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=qr_encode_failed id=%s err=%v", rid, id, err)
			writeError(w, http.StatusInternalServerError, "QR generation failed")
			return
		}

		writeJSON(w, http.StatusOK, qrResp{
			QR: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		})
	})
}
