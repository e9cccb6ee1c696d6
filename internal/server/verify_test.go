package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func seedShare(t *testing.T, shares *memShareStore, id, password string, files ...StoredFile) {
	t.Helper()
	err := shares.Create(context.Background(), &ShareRecord{
		ID:       id,
		Files:    files,
		Password: password,
	})
	if err != nil {
		t.Fatalf("Failed to seed share: %v", err)
	}
}

func postVerify(t *testing.T, shares ShareStore, id, password string) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(verifyReq{ID: id, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	testConfig().verifyHandler(shares).ServeHTTP(rr, req)
	return rr
}

func TestVerifyHandler_Gate(t *testing.T) {
	tests := []struct {
		name           string
		recordPassword string
		supplied       string
		expectedStatus int
	}{
		{
			name:           "matching password accepted",
			recordPassword: "secret",
			supplied:       "secret",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password rejected",
			recordPassword: "secret",
			supplied:       "wrong",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "empty supplied password rejected when record has one",
			recordPassword: "secret",
			supplied:       "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "open share accepts empty password",
			recordPassword: "",
			supplied:       "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "open share accepts any password",
			recordPassword: "",
			supplied:       "anything",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := newMemShareStore()
			seedShare(t, shares, "share-1", tt.recordPassword,
				StoredFile{StoredName: "tok-a.txt", OrigName: "a.txt"})

			rr := postVerify(t, shares, "share-1", tt.supplied)
			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestVerifyHandler_NotFound(t *testing.T) {
	rr := postVerify(t, newMemShareStore(), "no-such-id", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown id, got %d", rr.Code)
	}
}

func TestVerifyHandler_MissingID(t *testing.T) {
	rr := postVerify(t, newMemShareStore(), "", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing id, got %d", rr.Code)
	}
}

func TestVerifyHandler_StoreFailure(t *testing.T) {
	shares := newMemShareStore()
	shares.failErr = errors.New("boom")

	rr := postVerify(t, shares, "share-1", "")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 on store failure, got %d", rr.Code)
	}
}

func TestVerifyHandler_SingleFileDisplayName(t *testing.T) {
	shares := newMemShareStore()
	seedShare(t, shares, "share-1", "",
		StoredFile{StoredName: "tok-report.pdf", OrigName: "report.pdf"})

	rr := postVerify(t, shares, "share-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp verifyResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Filename != "report.pdf" {
		t.Errorf("Expected filename report.pdf, got %q", resp.Filename)
	}
	if resp.Download != "/download/share-1" {
		t.Errorf("Expected download path /download/share-1, got %q", resp.Download)
	}
}

func TestVerifyHandler_MultiFileDisplayName(t *testing.T) {
	shares := newMemShareStore()
	seedShare(t, shares, "share-2", "",
		StoredFile{StoredName: "tok1-a.txt", OrigName: "a.txt"},
		StoredFile{StoredName: "tok2-b.txt", OrigName: "b.txt"})

	rr := postVerify(t, shares, "share-2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp verifyResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Filename != "files-share-2.zip" {
		t.Errorf("Expected archive filename, got %q", resp.Filename)
	}
}

func TestVerifyHandler_DoesNotTouchCounter(t *testing.T) {
	shares := newMemShareStore()
	seedShare(t, shares, "share-1", "secret",
		StoredFile{StoredName: "tok-a.txt", OrigName: "a.txt"})

	// Authorization, successful or not, must never count as a download.
	postVerify(t, shares, "share-1", "secret")
	postVerify(t, shares, "share-1", "wrong")

	if n := shares.downloads("share-1"); n != 0 {
		t.Errorf("Expected downloads to stay 0 after verify, got %d", n)
	}
}
