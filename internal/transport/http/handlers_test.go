package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperview/internal/collab"
	extractionservice "paperview/internal/extraction/service"
	extractionstore "paperview/internal/extraction/store"
	phaseservice "paperview/internal/phase/service"
	phasestore "paperview/internal/phase/store"
	"paperview/internal/platform/audit"
	"paperview/internal/platform/metrics"
	tagservice "paperview/internal/tag/service"
	tagstore "paperview/internal/tag/store"
	id "paperview/pkg/domain"
	"paperview/pkg/platform/tx"
)

var testMetrics = metrics.New()

type testServer struct {
	*httptest.Server
	project    id.ProjectID
	study      id.StudyID
	question   id.QuestionID
	owner      id.UserID
	researcher id.UserID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	dir := collab.NewMemoryDirectory()
	project := id.NewProjectID()
	study := id.NewStudyID()
	question := id.NewQuestionID()
	owner := id.NewUserID()
	researcher := id.NewUserID()
	dir.AddProject(project, owner, researcher)
	dir.AddStudy(study, project)
	dir.AddQuestion(question, project)

	phases := phasestore.NewInMemoryStore()
	tags := tagstore.NewInMemoryStore()
	extractions := extractionstore.NewInMemoryStore()
	runner := &tx.MemoryRunner{}
	recorder := audit.NewLogRecorder(logger)

	phaseSvc := phaseservice.New(phases, dir.Projects(), runner, recorder, testMetrics, logger)
	extractionSvc := extractionservice.New(extractions, phases, tags,
		dir.Studies(), dir.Projects(), runner, testMetrics, logger)
	tagSvc := tagservice.New(tags, extractions, dir.Projects(), dir.Questions(),
		runner, recorder, testMetrics, logger)

	h := NewHandler(phaseSvc, extractionSvc, tagSvc, logger)
	srv := httptest.NewServer(NewRouter(h, testMetrics, logger))
	t.Cleanup(srv.Close)

	return &testServer{
		Server:     srv,
		project:    project,
		study:      study,
		question:   question,
		owner:      owner,
		researcher: researcher,
	}
}

func (s *testServer) do(t *testing.T, method, path string, actor id.UserID, body any) (*http.Response, []byte) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, buf)
	require.NoError(t, err)
	if !actor.IsNil() {
		req.Header.Set("X-User-ID", actor.String())
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (s *testServer) configureAndActivate(t *testing.T, mode string) {
	t.Helper()
	resp, _ := s.do(t, http.MethodPut, "/projects/"+s.project.String()+"/phase", s.owner, map[string]any{
		"mode":                      mode,
		"min_quotes_required":       1,
		"max_quotes_per_extraction": 5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/projects/"+s.project.String()+"/phase/activate", s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPhaseEndpoints(t *testing.T) {
	s := newTestServer(t)

	t.Run("requires the actor header", func(t *testing.T) {
		resp, _ := s.do(t, http.MethodGet, "/projects/"+s.project.String()+"/phase", id.UserID{}, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("configure, read back, activate", func(t *testing.T) {
		resp, body := s.do(t, http.MethodPut, "/projects/"+s.project.String()+"/phase", s.owner, map[string]any{
			"mode":                      "double",
			"min_quotes_required":       1,
			"max_quotes_per_extraction": 5,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var phase map[string]any
		require.NoError(t, json.Unmarshal(body, &phase))
		assert.Equal(t, "inactive", phase["status"])

		resp, body = s.do(t, http.MethodPost, "/projects/"+s.project.String()+"/phase/activate", s.owner, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.Unmarshal(body, &phase))
		assert.Equal(t, "active", phase["status"])
	})

	t.Run("non-owner transitions are forbidden", func(t *testing.T) {
		resp, _ := s.do(t, http.MethodPost, "/projects/"+s.project.String()+"/phase/pause", s.researcher, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("malformed project id", func(t *testing.T) {
		resp, _ := s.do(t, http.MethodGet, "/projects/not-a-uuid/phase", s.owner, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestExtractionFlow(t *testing.T) {
	s := newTestServer(t)
	s.configureAndActivate(t, "single")

	// Mandatory vocabulary comes from a research question.
	resp, body := s.do(t, http.MethodPost, "/tags", s.owner, map[string]any{
		"project_id":  s.project.String(),
		"name":        "Population",
		"question_id": s.question.String(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var tag map[string]any
	require.NoError(t, json.Unmarshal(body, &tag))
	tagID := tag["id"].(string)

	resp, body = s.do(t, http.MethodPost, "/extractions", s.researcher, map[string]any{
		"study_id": s.study.String(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var extraction map[string]any
	require.NoError(t, json.Unmarshal(body, &extraction))
	extractionID := extraction["id"].(string)
	assert.Equal(t, "pending", extraction["status"])

	resp, body = s.do(t, http.MethodPost, "/extractions/"+extractionID+"/start", s.researcher, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	t.Run("completing without the mandatory tag enumerates it", func(t *testing.T) {
		resp, body := s.do(t, http.MethodPost, "/extractions/"+extractionID+"/quotes", s.researcher, map[string]any{
			"text": "an untagged observation",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

		resp, body = s.do(t, http.MethodPost, "/extractions/"+extractionID+"/complete", s.researcher, nil)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var errBody map[string]any
		require.NoError(t, json.Unmarshal(body, &errBody))
		assert.Equal(t, "invariant_violation", errBody["error"])
		assert.Equal(t, []any{"Population"}, errBody["details"])
	})

	t.Run("quote with location and tag, then complete", func(t *testing.T) {
		resp, body := s.do(t, http.MethodPost, "/extractions/"+extractionID+"/quotes", s.researcher, map[string]any{
			"text":     "participants were sampled from three sites",
			"location": map[string]any{"page": 4, "rect": map[string]any{"x1": 1, "y1": 2, "x2": 3, "y2": 4}},
			"tag_ids":  []string{tagID},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

		resp, body = s.do(t, http.MethodGet, "/extractions/"+extractionID+"/progress", s.researcher, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var progress map[string]any
		require.NoError(t, json.Unmarshal(body, &progress))
		assert.Equal(t, true, progress["is_ready"])

		resp, body = s.do(t, http.MethodPost, "/extractions/"+extractionID+"/complete", s.researcher, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var done map[string]any
		require.NoError(t, json.Unmarshal(body, &done))
		assert.Equal(t, "done", done["status"])
	})

	t.Run("list own extractions", func(t *testing.T) {
		resp, body := s.do(t, http.MethodGet, "/extractions", s.researcher, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var list []map[string]any
		require.NoError(t, json.Unmarshal(body, &list))
		assert.Len(t, list, 1)
	})
}

func TestTagEndpoints(t *testing.T) {
	s := newTestServer(t)

	propose := func(t *testing.T, name string, actor id.UserID) string {
		resp, body := s.do(t, http.MethodPost, "/tags", actor, map[string]any{
			"project_id": s.project.String(),
			"name":       name,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
		var tag map[string]any
		require.NoError(t, json.Unmarshal(body, &tag))
		return tag["id"].(string)
	}
	approve := func(t *testing.T, tagID string) {
		resp, _ := s.do(t, http.MethodPost, "/tags/"+tagID+"/approve", s.owner, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	t.Run("moderation lifecycle", func(t *testing.T) {
		tagID := propose(t, "Hidden cost", s.researcher)

		resp, _ := s.do(t, http.MethodPost, "/tags/"+tagID+"/approve", s.researcher, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		approve(t, tagID)

		// A resolved tag cannot be moderated again.
		resp, _ = s.do(t, http.MethodPost, "/tags/"+tagID+"/reject", s.owner, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("merge", func(t *testing.T) {
		targetID := propose(t, "Maintenance cost", s.researcher)
		sourceID := propose(t, "Maintenance costs", s.researcher)
		approve(t, targetID)
		approve(t, sourceID)

		resp, body := s.do(t, http.MethodPost, "/tags/merge", s.owner, map[string]any{
			"source_id": sourceID,
			"target_id": targetID,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		// The retired source is gone from the available vocabulary.
		resp, body = s.do(t, http.MethodGet, "/projects/"+s.project.String()+"/tags", s.researcher, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var list []map[string]any
		require.NoError(t, json.Unmarshal(body, &list))
		for _, tag := range list {
			assert.NotEqual(t, sourceID, tag["id"])
		}
	})

	t.Run("self-merge is rejected", func(t *testing.T) {
		tagID := propose(t, "Standalone", s.researcher)
		approve(t, tagID)
		resp, _ := s.do(t, http.MethodPost, "/tags/merge", s.owner, map[string]any{
			"source_id": tagID,
			"target_id": tagID,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}
