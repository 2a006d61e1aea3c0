package frontend

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/jo-hoe/arconverter/internal/backend/database"
	"github.com/jo-hoe/arconverter/internal/common"
	"github.com/jo-hoe/arconverter/internal/core"
	"github.com/labstack/echo/v4"
)

var sessionIDPattern = regexp.MustCompile(`data-session="([^"]+)"`)

func newTestFrontend(t *testing.T) (*echo.Echo, *core.CoreService) {
	t.Helper()
	db, err := database.NewDatabase(database.TypeSQLite, ":memory:", 0)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	config := core.DefaultConfig()
	coreService := core.NewCoreServiceWithDatabase(config, db)
	t.Cleanup(func() {
		_ = coreService.Close()
	})

	e := echo.New()
	e.Validator = common.NewGenericEchoValidator()
	NewFrontendService(config, coreService).SetRoutes(e)
	return e, coreService
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 3), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path, field, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="photo"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("Failed to create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Failed to write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func formRequest(method, path string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func uploadSession(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := serve(e, uploadRequest(t, "/htmx/sessions", "image", "image/png", pngBytes(t, 60, 40)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from upload, got %d", rec.Code)
	}
	m := sessionIDPattern.FindStringSubmatch(rec.Body.String())
	if len(m) != 2 {
		t.Fatalf("Expected a session panel, got:\n%s", rec.Body.String())
	}
	return m[1]
}

func TestIndexAndRedirect(t *testing.T) {
	e, _ := newTestFrontend(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get(echo.HeaderLocation) != "/"+MainPageName {
		t.Errorf("Expected redirect to /%s, got %d %s", MainPageName, rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/"+MainPageName, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`hx-post="/htmx/sessions"`, "at most 10 MB", `hx-post="/htmx/scan"`, `href="/viewer"`} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected index to contain %q", want)
		}
	}
}

func TestUpload_Rejected(t *testing.T) {
	e, _ := newTestFrontend(t)

	rec := serve(e, uploadRequest(t, "/htmx/sessions", "image", "application/pdf", []byte("%PDF-1.4")))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected inline error, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unsupported file type") || strings.Contains(rec.Body.String(), "data-session") {
		t.Errorf("Expected upload form with an error, got:\n%s", rec.Body.String())
	}

	rec = serve(e, uploadRequest(t, "/htmx/sessions", "image", "image/png", pngBytes(t, 20, 20)[:40]))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "The image could not be read.") {
		t.Errorf("Expected inline decode error, got %d:\n%s", rec.Code, rec.Body.String())
	}
}

func TestSessionFlow(t *testing.T) {
	e, coreService := newTestFrontend(t)
	id := uploadSession(t, e)
	base := "/htmx/sessions/" + id

	rec := serve(e, httptest.NewRequest(http.MethodPost, base+"/marker", nil))
	if !strings.Contains(rec.Body.String(), "Process the image first.") {
		t.Errorf("Expected inline precondition message, got:\n%s", rec.Body.String())
	}

	rec = serve(e, formRequest(http.MethodPost, base+"/process", url.Values{"size": {"256"}, "format": {"png"}, "quality": {"80"}}))
	if !strings.Contains(rec.Body.String(), `data-status="completed"`) {
		t.Fatalf("Expected processing to complete with a marker, got:\n%s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `<option value="256" selected>`) {
		t.Error("Expected the chosen size to stay selected")
	}

	rec = serve(e, formRequest(http.MethodPost, base+"/links", url.Values{"title": {"<script>alert(1)</script>"}, "url": {"https://example.com/a.mp4"}, "type": {"direct"}}))
	body := rec.Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("Expected link titles to be escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("Expected escaped title in the list, got:\n%s", body)
	}

	rec = serve(e, formRequest(http.MethodPost, base+"/links", url.Values{"url": {"https://vimeo.com/x"}, "type": {"vimeo"}}))
	if !strings.Contains(rec.Body.String(), "does not match the selected video type") {
		t.Error("Expected invalid link message")
	}
	rec = serve(e, formRequest(http.MethodPost, base+"/links", url.Values{"url": {""}, "type": {"direct"}}))
	if !strings.Contains(rec.Body.String(), "Please enter a video link.") {
		t.Error("Expected empty link message")
	}

	serve(e, formRequest(http.MethodPost, base+"/links", url.Values{"title": {"Second"}, "url": {"clip.mp4"}, "type": {"local"}}))
	rec = serve(e, httptest.NewRequest(http.MethodPost, base+"/marker", nil))
	if !strings.Contains(rec.Body.String(), `data-status="completed"`) || !strings.Contains(rec.Body.String(), "2 video(s)") {
		t.Errorf("Expected completed status with two videos, got:\n%s", rec.Body.String())
	}

	links, err := coreService.ListVideoLinks(id)
	if err != nil || len(links) != 2 {
		t.Fatalf("Expected 2 links, got %d (%v)", len(links), err)
	}
	rec = serve(e, httptest.NewRequest(http.MethodPost, base+"/links/"+links[1].ID+"/move?dir=up", nil))
	if first := strings.Index(rec.Body.String(), "Second"); first < 0 || first > strings.Index(rec.Body.String(), "&lt;script&gt;") {
		t.Error("Expected Second to be listed first after moving up")
	}
	if rec := serve(e, httptest.NewRequest(http.MethodPost, base+"/links/"+links[1].ID+"/move?dir=sideways", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid direction, got %d", rec.Code)
	}

	rec = serve(e, formRequest(http.MethodPut, base+"/links/"+links[0].ID, url.Values{"title": {"Renamed"}, "url": {"https://example.com/b.mp4"}, "type": {"direct"}}))
	if !strings.Contains(rec.Body.String(), "Renamed") {
		t.Error("Expected the renamed link")
	}

	rec = serve(e, httptest.NewRequest(http.MethodDelete, base+"/links/"+links[0].ID, nil))
	if strings.Contains(rec.Body.String(), "Renamed") {
		t.Error("Expected the deleted link to be gone")
	}

	for _, which := range []string{"original", "processed", "marker"} {
		rec := serve(e, httptest.NewRequest(http.MethodGet, base+"/image/"+which, nil))
		if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != mimePNG {
			t.Errorf("Expected png for %s, got %d %s", which, rec.Code, rec.Header().Get(echo.HeaderContentType))
		}
		if rec.Header().Get("Cache-Control") == "" {
			t.Errorf("Expected no-cache headers for %s", which)
		}
	}

	rec = serve(e, httptest.NewRequest(http.MethodDelete, base, nil))
	if !strings.Contains(rec.Body.String(), `id="upload"`) {
		t.Errorf("Expected the upload form after deleting, got:\n%s", rec.Body.String())
	}
	rec = serve(e, httptest.NewRequest(http.MethodGet, base, nil))
	if !strings.Contains(rec.Body.String(), "session has expired") {
		t.Error("Expected expired message for a deleted session")
	}
	if rec := serve(e, httptest.NewRequest(http.MethodGet, base+"/image/original", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 image for a deleted session, got %d", rec.Code)
	}
}

func TestReplaceImage(t *testing.T) {
	e, _ := newTestFrontend(t)
	id := uploadSession(t, e)
	base := "/htmx/sessions/" + id

	rec := serve(e, formRequest(http.MethodPost, base+"/process", url.Values{}))
	if !strings.Contains(rec.Body.String(), `data-status="completed"`) {
		t.Errorf("Expected status completed after processing, got:\n%s", rec.Body.String())
	}
	rec = serve(e, uploadRequest(t, base+"/image", "image", "image/png", pngBytes(t, 20, 20)))
	if !strings.Contains(rec.Body.String(), `data-status="uploaded"`) {
		t.Errorf("Expected status uploaded after replacing, got:\n%s", rec.Body.String())
	}
	rec = serve(e, uploadRequest(t, base+"/image", "image", "image/gif", []byte("GIF89a")))
	if !strings.Contains(rec.Body.String(), "Unsupported file type") {
		t.Error("Expected inline error for an unsupported replacement")
	}
}

func TestScan(t *testing.T) {
	e, _ := newTestFrontend(t)

	rec := serve(e, uploadRequest(t, "/htmx/scan", "frame", "image/png", pngBytes(t, 30, 30)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "30x30px") {
		t.Errorf("Expected frame stats, got %d:\n%s", rec.Code, rec.Body.String())
	}
	rec = serve(e, uploadRequest(t, "/htmx/scan", "frame", "image/png", []byte("nope")))
	if !strings.Contains(rec.Body.String(), "could not be read") {
		t.Errorf("Expected decode error message, got:\n%s", rec.Body.String())
	}
}

func TestIcon(t *testing.T) {
	e, _ := newTestFrontend(t)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/icon.svg", nil))
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "image/svg+xml" {
		t.Errorf("Unexpected icon response: %d %s", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "max-age=604800") {
		t.Error("Expected long lived cache headers")
	}
}
