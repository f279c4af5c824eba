package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"review-analyzer/internal/adapters/artifact"
	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/progress"
	"review-analyzer/internal/infra/queue"
	"review-analyzer/internal/usecase/jobs"
)

type fixture struct {
	router    chi.Router
	queue     *queue.MemoryJobQueue
	log       *progress.MemoryLog
	artifacts *artifact.FileStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	q := queue.NewMemoryJobQueue(4)
	log := progress.NewMemoryLog()
	store := artifact.NewFileStore(t.TempDir())
	h := NewHandler(jobs.NewService(q, log, zerolog.Nop()), store, zerolog.Nop())
	r := chi.NewRouter()
	h.Mount(r)
	return fixture{router: r, queue: q, log: log, artifacts: store}
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("ответ не JSON: %v", err)
	}
	return resp.Error
}

func TestIndex(t *testing.T) {
	rec := newFixture(t).do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Review Analyzer") {
		t.Fatalf("ожидали страницу дашборда, получили %d", rec.Code)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		body string
		want string
	}{
		{body: `{"url":""}`, want: msgEmptyURL},
		{body: `{"url":"https://www.digikala.com/product/phone/"}`, want: msgInvalidURL},
		{body: `{`, want: "invalid request body"},
	}
	for _, tc := range cases {
		rec := f.do(postJSON(tc.body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: ожидали 400, получили %d", tc.body, rec.Code)
		}
		if got := decodeError(t, rec); got != tc.want {
			t.Fatalf("%s: ожидали %q, получили %q", tc.body, tc.want, got)
		}
	}
}

func TestSubmitAndStatus(t *testing.T) {
	f := newFixture(t)
	rec := f.do(postJSON(`{"url":"https://www.digikala.com/product/dkp-17588414/"}`))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("ожидали 202, получили %d: %s", rec.Code, rec.Body.String())
	}
	var status domain.JobStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	if status.JobID == "" || status.ProductID != 17588414 || status.State != domain.JobQueued {
		t.Fatalf("неожиданный статус: %+v", status)
	}

	ctx := context.Background()
	job, _, err := f.queue.Receive(ctx)
	if err != nil || job.ID != status.JobID {
		t.Fatalf("задача должна быть в очереди: %+v (%v)", job, err)
	}
	for i := 0; i < 25; i++ {
		_ = f.log.Append(ctx, status.JobID, "step")
	}

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/jobs/"+status.JobID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var view jobs.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	if view.JobID != status.JobID || len(view.Lines) != jobs.StatusLines {
		t.Fatalf("ожидали %d строк журнала, получили %d", jobs.StatusLines, len(view.Lines))
	}

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("ожидали 404, получили %d", rec.Code)
	}
}

func TestSubmitForm(t *testing.T) {
	f := newFixture(t)
	form := url.Values{"url": {"dkp-42"}}
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := f.do(req); rec.Code != http.StatusAccepted {
		t.Fatalf("ожидали 202 для формы, получили %d", rec.Code)
	}
}

func TestChartDownload(t *testing.T) {
	f := newFixture(t)
	png := []byte("\x89PNG fake")
	if _, err := f.artifacts.Save(context.Background(), domain.ChartName(7), png); err != nil {
		t.Fatalf("не удалось сохранить график: %v", err)
	}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/reports/7/chart?download=1", nil))
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), png) {
		t.Fatalf("неожиданный ответ %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("неверный Content-Type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Analytics_Report_7.png") {
		t.Fatalf("неверное имя файла %q", cd)
	}

	if rec := f.do(httptest.NewRequest(http.MethodGet, "/api/reports/8/chart", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("ожидали 404, получили %d", rec.Code)
	}
	if rec := f.do(httptest.NewRequest(http.MethodGet, "/api/reports/abc/chart", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400, получили %d", rec.Code)
	}
}
