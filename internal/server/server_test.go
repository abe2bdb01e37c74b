// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/internal/generate"
	"github.com/pdiddy/report-drafter/internal/store"
	"github.com/pdiddy/report-drafter/internal/throttle"
	"github.com/pdiddy/report-drafter/internal/throttle/throttletest"
	"github.com/pdiddy/report-drafter/internal/workflow"
	"github.com/pdiddy/report-drafter/pkg/types"
)

// heldGen wraps a Collaborator and holds every call until release is
// closed.
type heldGen struct {
	generate.Collaborator
	release chan struct{}
}

func (g heldGen) hold(ctx context.Context) error {
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g heldGen) ListItems(ctx context.Context, gc types.GenerationContext, count int) ([]string, error) {
	if err := g.hold(ctx); err != nil {
		return nil, err
	}
	return g.Collaborator.ListItems(ctx, gc, count)
}

func (g heldGen) DraftSection(ctx context.Context, section types.SectionID, gc types.GenerationContext) (string, error) {
	if err := g.hold(ctx); err != nil {
		return "", err
	}
	return g.Collaborator.DraftSection(ctx, section, gc)
}

type testEnv struct {
	srv   *Server
	ts    *httptest.Server
	store *store.Store
}

func newTestEnv(t *testing.T, gen generate.Collaborator) *testEnv {
	t.Helper()
	st, err := store.Open(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)

	if gen == nil {
		gen = generate.NewClient(generate.MockModel{}, zap.NewNop())
	}
	srv := New(types.ServerConfig{NotificationBacklog: 8}, Deps{
		Store:    st,
		Gate:     throttle.New(throttle.WithClock(throttletest.NewClock())),
		Gen:      gen,
		Settings: workflow.NewSettings(types.ThrottleConfig{}, types.DeepDiveConfig{}),
		Logger:   zap.NewNop(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown()
		st.Close()
	})
	return &testEnv{srv: srv, ts: ts, store: st}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) createReport(t *testing.T, topic, subject string) types.DocumentState {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/reports", infoRequest{Topic: topic, Subject: subject, Grade: "5"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[types.DocumentState](t, resp)
}

// settle waits for every background run of the report to return.
func (e *testEnv) settle(id string) {
	e.srv.session(id).wait()
}

func TestReportLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	doc := env.createReport(t, " Mind maps ", "Literature")
	assert.Equal(t, "Mind maps", doc.Topic)

	resp := env.do(t, http.MethodPut, "/api/reports/"+doc.ID+"/info", infoRequest{Topic: "Reading games", Subject: "Literature", Grade: "4"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[types.DocumentState](t, resp)
	assert.Equal(t, "Reading games", got.Topic)
	assert.Equal(t, "4", got.Grade)

	resp = env.do(t, http.MethodPut, "/api/reports/"+doc.ID+"/sections/reason", sectionRequest{Text: "Because."})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[types.DocumentState](t, resp)
	assert.Equal(t, "Because.", got.Section(types.SectionReason))

	resp = env.do(t, http.MethodGet, "/api/reports", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]store.ReportSummary](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Sections)

	resp = env.do(t, http.MethodDelete, "/api/reports/"+doc.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/reports/"+doc.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditSection_Rejects(t *testing.T) {
	env := newTestEnv(t, nil)
	doc := env.createReport(t, "Mind maps", "Literature")

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "unknown section", path: "/api/reports/" + doc.ID + "/sections/appendix", want: http.StatusNotFound},
		{name: "general info is not a text section", path: "/api/reports/" + doc.ID + "/sections/general_info", want: http.StatusNotFound},
		{name: "unknown report", path: "/api/reports/missing/sections/reason", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPut, tt.path, sectionRequest{Text: "x"})
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestDeepDive_FullRun(t *testing.T) {
	env := newTestEnv(t, nil)
	doc := env.createReport(t, "Mind maps", "Literature")
	base := "/api/reports/" + doc.ID + "/deepdive"

	resp := env.do(t, http.MethodPost, base+"/start", guidanceRequest{})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	env.settle(doc.ID)

	view := decode[sessionView](t, env.do(t, http.MethodGet, base, nil))
	require.Equal(t, types.ModeReviewing, view.Mode)
	require.Len(t, view.Items, workflow.DefaultItemCount)
	assert.True(t, view.CanExpand)

	resp = env.do(t, http.MethodPut, base+"/items/0", itemRequest{Text: "Reading circles"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, base+"/items/3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPost, base+"/items", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[sessionView](t, resp)
	require.Len(t, view.Items, 4)
	assert.Equal(t, "Reading circles", view.Items[0])

	resp = env.do(t, http.MethodPost, base+"/expand", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	env.settle(doc.ID)

	view = decode[sessionView](t, env.do(t, http.MethodGet, base, nil))
	assert.Equal(t, types.ModeComplete, view.Mode)
	assert.Equal(t, 100, view.Progress)

	stored := decode[types.DocumentState](t, env.do(t, http.MethodGet, "/api/reports/"+doc.ID, nil))
	measures := stored.Section(types.SectionMeasures)
	assert.True(t, strings.HasPrefix(measures, workflow.Preamble))
	assert.Contains(t, measures, `### 1. Reading circles`)
	assert.Equal(t, view.Document, measures)

	notes := decode[[]Notification](t, env.do(t, http.MethodGet, "/api/reports/"+doc.ID+"/notifications", nil))
	require.NotEmpty(t, notes)
	last := notes[len(notes)-1]
	assert.Equal(t, types.SeveritySuccess, last.Severity)

	resp = env.do(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, types.ModeIdle, decode[sessionView](t, resp).Mode)
}

func TestDeepDive_Guards(t *testing.T) {
	env := newTestEnv(t, nil)
	empty := env.createReport(t, "", "")
	ready := env.createReport(t, "Mind maps", "Literature")

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{name: "start without topic", method: http.MethodPost, path: "/api/reports/" + empty.ID + "/deepdive/start", want: http.StatusUnprocessableEntity},
		{name: "expand while idle", method: http.MethodPost, path: "/api/reports/" + ready.ID + "/deepdive/expand", want: http.StatusConflict},
		{name: "add item while idle", method: http.MethodPost, path: "/api/reports/" + ready.ID + "/deepdive/items", want: http.StatusConflict},
		{name: "bad item index", method: http.MethodDelete, path: "/api/reports/" + ready.ID + "/deepdive/items/x", want: http.StatusBadRequest},
		{name: "reset while idle", method: http.MethodPost, path: "/api/reports/" + ready.ID + "/deepdive/reset", want: http.StatusOK},
		{name: "unknown report", method: http.MethodPost, path: "/api/reports/missing/deepdive/start", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestDeepDive_BusyRejectsOtherWork(t *testing.T) {
	gen := heldGen{
		Collaborator: generate.NewClient(generate.MockModel{}, zap.NewNop()),
		release:      make(chan struct{}),
	}
	env := newTestEnv(t, gen)
	doc := env.createReport(t, "Mind maps", "Literature")
	reportPath := "/api/reports/" + doc.ID

	resp := env.do(t, http.MethodPost, reportPath+"/deepdive/start", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	view := decode[sessionView](t, env.do(t, http.MethodGet, reportPath+"/deepdive", nil))
	assert.Equal(t, types.ModeProducing, view.Mode)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{name: "second start", method: http.MethodPost, path: reportPath + "/deepdive/start"},
		{name: "expand", method: http.MethodPost, path: reportPath + "/deepdive/expand"},
		{name: "edit item", method: http.MethodPut, path: reportPath + "/deepdive/items/0", body: itemRequest{Text: "x"}},
		{name: "reset", method: http.MethodPost, path: reportPath + "/deepdive/reset"},
		{name: "draft section", method: http.MethodPost, path: reportPath + "/sections/reason/generate"},
		{name: "edit section", method: http.MethodPut, path: reportPath + "/sections/reason", body: sectionRequest{Text: "x"}},
		{name: "delete report", method: http.MethodDelete, path: reportPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusConflict, resp.StatusCode)
		})
	}

	close(gen.release)
	env.settle(doc.ID)
	view = decode[sessionView](t, env.do(t, http.MethodGet, reportPath+"/deepdive", nil))
	assert.Equal(t, types.ModeReviewing, view.Mode)
}

func TestGenerateSection(t *testing.T) {
	env := newTestEnv(t, nil)
	doc := env.createReport(t, "Mind maps", "Literature")

	resp := env.do(t, http.MethodPost, "/api/reports/"+doc.ID+"/sections/theory/generate", guidanceRequest{Guidance: "Cite Piaget."})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	env.settle(doc.ID)

	stored := decode[types.DocumentState](t, env.do(t, http.MethodGet, "/api/reports/"+doc.ID, nil))
	assert.Contains(t, stored.Section(types.SectionTheory), "Mind maps")

	view := decode[sessionView](t, env.do(t, http.MethodGet, "/api/reports/"+doc.ID+"/deepdive", nil))
	assert.False(t, view.Drafting)
}

func TestGenerateSection_MissingContext(t *testing.T) {
	env := newTestEnv(t, nil)
	doc := env.createReport(t, "", "Literature")

	resp := env.do(t, http.MethodPost, "/api/reports/"+doc.ID+"/sections/theory/generate", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	notes := decode[[]Notification](t, env.do(t, http.MethodGet, "/api/reports/"+doc.ID+"/notifications", nil))
	require.Len(t, notes, 1)
	assert.Equal(t, types.SeverityWarning, notes[0].Severity)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, nil)
	doc := env.createReport(t, "Mind maps", "Literature")
	require.NoError(t, env.store.PublishSection(context.Background(), doc.ID, types.SectionReason, "## Why\n\n- **Pupils** struggle."))

	t.Run("docx", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/reports/"+doc.ID+"/export/docx", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "Report_Mind_maps.docx")

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		var names []string
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		assert.Contains(t, names, "word/document.xml")
	})

	t.Run("html", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/reports/"+doc.ID+"/export/html", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "<strong>Pupils</strong>")
		assert.Empty(t, resp.Header.Get("Content-Disposition"))
	})

	t.Run("json", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/reports/"+doc.ID+"/export/json", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "Report_Mind_maps.json")
		out := decode[store.ExportReport](t, resp)
		assert.Equal(t, "Mind maps", out.Topic)
	})

	t.Run("unknown format", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/reports/"+doc.ID+"/export/pdf", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAccounts_UseQuota(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/accounts", createAccountRequest{Email: "Teacher@School.edu"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	account := decode[store.Account](t, resp)
	assert.Equal(t, DefaultQuota, account.Quota)
	assert.Equal(t, "teacher@school.edu", account.Email)

	resp = env.do(t, http.MethodPost, "/api/accounts/use-quota", useQuotaRequest{UserID: account.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[useQuotaResponse](t, resp)
	assert.True(t, out.Success)
	assert.Equal(t, DefaultQuota-1, out.RemainingQuota)

	resp = env.do(t, http.MethodGet, "/api/accounts/teacher@school.edu", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, DefaultQuota-1, decode[store.Account](t, resp).Quota)
}

func TestAccounts_UseQuotaRejects(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	spent, err := env.store.CreateAccount(ctx, "spent@school.edu", 1)
	require.NoError(t, err)
	_, err = env.store.UseQuota(ctx, spent.ID)
	require.NoError(t, err)

	locked, err := env.store.CreateAccount(ctx, "locked@school.edu", 5)
	require.NoError(t, err)
	require.NoError(t, env.store.SetActive(ctx, locked.ID, false))

	tests := []struct {
		name   string
		userID string
		want   int
	}{
		{name: "missing id", userID: "", want: http.StatusBadRequest},
		{name: "unknown account", userID: "nobody", want: http.StatusNotFound},
		{name: "inactive account", userID: locked.ID, want: http.StatusForbidden},
		{name: "no credits left", userID: spent.ID, want: http.StatusPaymentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/accounts/use-quota", useQuotaRequest{UserID: tt.userID})
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "report_drafter_")
}

func TestFeed_KeepsNewest(t *testing.T) {
	f := NewFeed(3)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		f.Notify(msg, types.SeverityInfo)
	}

	got := f.Since(0)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Message)
	assert.Equal(t, "e", got[2].Message)
	assert.Equal(t, int64(5), got[2].Seq)

	later := f.Since(4)
	require.Len(t, later, 1)
	assert.Equal(t, "e", later[0].Message)

	assert.Empty(t, NewFeed(2).Since(0))
}

func TestUnknownReport_CreatesNoSession(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < 20; i++ {
		resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/reports/ghost-%d/notifications", i), nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{name: "snapshot", method: http.MethodGet, path: "/api/reports/ghost/deepdive"},
		{name: "add item", method: http.MethodPost, path: "/api/reports/ghost/deepdive/items"},
		{name: "edit item", method: http.MethodPut, path: "/api/reports/ghost/deepdive/items/0", body: itemRequest{Text: "x"}},
		{name: "remove item", method: http.MethodDelete, path: "/api/reports/ghost/deepdive/items/0"},
		{name: "expand", method: http.MethodPost, path: "/api/reports/ghost/deepdive/expand"},
		{name: "reset", method: http.MethodPost, path: "/api/reports/ghost/deepdive/reset"},
		{name: "delete", method: http.MethodDelete, path: "/api/reports/ghost"},
		{name: "owner", method: http.MethodPut, path: "/api/reports/ghost/owner", body: ownerRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	}

	assert.Zero(t, env.srv.sessionCount())
}

func TestGeneration_RequiresCredits(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	spent, err := env.store.CreateAccount(ctx, "spent@school.edu", 1)
	require.NoError(t, err)
	_, err = env.store.UseQuota(ctx, spent.ID)
	require.NoError(t, err)

	locked, err := env.store.CreateAccount(ctx, "locked@school.edu", 5)
	require.NoError(t, err)
	require.NoError(t, env.store.SetActive(ctx, locked.ID, false))

	tests := []struct {
		name    string
		account string
		want    int
	}{
		{name: "no credits left", account: spent.ID, want: http.StatusPaymentRequired},
		{name: "locked account", account: locked.Email, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/reports", createReportRequest{
				infoRequest: infoRequest{Topic: "Mind maps", Subject: "Literature"},
				AccountID:   tt.account,
			})
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			doc := decode[types.DocumentState](t, resp)
			require.NotEmpty(t, doc.AccountID)
			reportPath := "/api/reports/" + doc.ID

			for _, path := range []string{"/sections/theory/generate", "/deepdive/start", "/deepdive/expand"} {
				resp := env.do(t, http.MethodPost, reportPath+path, nil)
				assert.Equal(t, tt.want, resp.StatusCode, path)
			}

			notes := decode[[]Notification](t, env.do(t, http.MethodGet, reportPath+"/notifications", nil))
			require.NotEmpty(t, notes)
			assert.Equal(t, types.SeverityError, notes[0].Severity)
		})
	}

	// Recharging unlocks generation again.
	resp := env.do(t, http.MethodPost, "/api/accounts/"+spent.ID+"/recharge", rechargeRequest{Package: "COBAN"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, decode[store.Account](t, resp).Quota)

	doc := env.createReport(t, "Mind maps", "Literature")
	resp = env.do(t, http.MethodPut, "/api/reports/"+doc.ID+"/owner", ownerRequest{AccountID: spent.Email})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, spent.ID, decode[types.DocumentState](t, resp).AccountID)

	resp = env.do(t, http.MethodPost, "/api/reports/"+doc.ID+"/sections/theory/generate", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	env.settle(doc.ID)
}

func TestCreateReport_UnknownAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodPost, "/api/reports", createReportRequest{AccountID: "nobody@school.edu"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	list := decode[[]store.ReportSummary](t, env.do(t, http.MethodGet, "/api/reports", nil))
	assert.Empty(t, list)
}

func TestAccounts_RechargeInfo(t *testing.T) {
	env := newTestEnv(t, nil)
	account, err := env.store.CreateAccount(context.Background(), "buyer@school.edu", 0)
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, "/api/accounts/"+account.ID+"/recharge", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[rechargeInfo](t, resp)
	assert.True(t, info.Locked)
	require.Len(t, info.Packages, 3)
	assert.Equal(t, "COBAN", info.Packages[0].ID)
	assert.Equal(t, 4, info.Packages[0].Credits)
	assert.Equal(t, "buyer@school.edu_VIP", info.Packages[2].Reference)

	resp = env.do(t, http.MethodPost, "/api/accounts/"+account.ID+"/recharge", rechargeRequest{Package: "GOLD"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/accounts/nobody/recharge", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSession_CloseRejectsNewWork(t *testing.T) {
	env := newTestEnv(t, nil)
	doc := env.createReport(t, "Mind maps", "Literature")
	sess := env.srv.session(doc.ID)
	gc := types.NewGenerationContext(doc, "")

	require.NoError(t, sess.close())
	assert.ErrorIs(t, sess.startDeepDive(gc), store.ErrNotFound)
	assert.ErrorIs(t, sess.expand(), store.ErrNotFound)
	assert.ErrorIs(t, sess.draft(types.SectionTheory, gc, zap.NewNop()), store.ErrNotFound)

	sess.reopen()
	require.NoError(t, sess.startDeepDive(gc))
	sess.wait()

	env.srv.dropSession(doc.ID)
	assert.ErrorIs(t, sess.ctx.Err(), context.Canceled, "dropping a session cancels its runs")
	assert.Zero(t, env.srv.sessionCount())
}

func TestDropSession_CancelsRunningDraft(t *testing.T) {
	gen := heldGen{
		Collaborator: generate.NewClient(generate.MockModel{}, zap.NewNop()),
		release:      make(chan struct{}),
	}
	env := newTestEnv(t, gen)
	doc := env.createReport(t, "Mind maps", "Literature")
	sess := env.srv.session(doc.ID)

	require.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/api/reports/"+doc.ID+"/sections/theory/generate", nil).StatusCode)

	// The held draft ends only through cancellation; release is never closed.
	done := make(chan struct{})
	go func() {
		env.srv.dropSession(doc.ID)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dropping the session did not cancel the running draft")
	}
	drafting, _ := sess.draftStatus()
	assert.False(t, drafting)
}
