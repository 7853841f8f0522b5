package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tovenja/quench/internal/adapters/http/api"
	"github.com/tovenja/quench/internal/adapters/runstore"
	service "github.com/tovenja/quench/internal/app"
	"github.com/tovenja/quench/internal/domain/table"
)

const sampleCSV = "name,city\nAda,London\nEdsger,Rotterdam"

// Mock implementations for testing
type mockBackend struct {
	answer    table.Answer
	answerErr error
	questions []string
	tables    []string
	runs      []runstore.Run
	runsErr   error
	lastLimit int
}

func (m *mockBackend) Answer(ctx context.Context, question string, tableData io.Reader) (table.Answer, error) {
	m.questions = append(m.questions, question)
	raw, _ := io.ReadAll(tableData)
	m.tables = append(m.tables, string(raw))
	if m.answerErr != nil {
		return table.Answer{}, m.answerErr
	}
	return m.answer, nil
}

func (m *mockBackend) Runs(ctx context.Context, limit int) ([]runstore.Run, error) {
	m.lastLimit = limit
	if m.runsErr != nil {
		return nil, m.runsErr
	}
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newBackend() *mockBackend {
	return &mockBackend{
		answer: table.Answer{
			Text:   "London",
			Cells:  []table.Coordinate{{Row: 0, Col: 1}},
			Scores: []float64{0.92},
		},
	}
}

func answerJSON(question, tableData string) *strings.Reader {
	raw, _ := json.Marshal(map[string]string{"question": question, "table": tableData})
	return strings.NewReader(string(raw))
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := newBackend()
		statsProvider := &mockStatsProvider{stats: map[string]interface{}{"started": true}}
		server := api.NewServer(deps, statsProvider)
		mux := http.NewServeMux()

		Convey("When registering routes", func() {
			server.Register(context.Background(), mux)

			Convey("Then health endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})

			Convey("And metrics endpoint should expose the harness registry", func() {
				req := httptest.NewRequest("GET", "/metrics", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "quench_harness_answers_served_total")
			})

			Convey("And stats endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And answer endpoint should be accessible", func() {
				req := httptest.NewRequest("POST", "/v1/answer", answerJSON("Which city?", sampleCSV))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And runs endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/v1/runs", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And unknown paths should return not found", func() {
				req := httptest.NewRequest("GET", "/unknown", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAnswerHandler_HandleAnswer(t *testing.T) {
	Convey("Given an answer handler", t, func() {
		deps := newBackend()
		handler := api.NewAnswerHandler(deps, 1<<20)

		Convey("When handling a valid JSON request", func() {
			req := httptest.NewRequest("POST", "/v1/answer", answerJSON("Which city?", sampleCSV))
			w := httptest.NewRecorder()
			handler.HandleAnswer(w, req)

			Convey("Then it should return the assembled answer", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var response answerResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Answer, ShouldEqual, "London")
				So(response.Cells, ShouldResemble, []table.Coordinate{{Row: 0, Col: 1}})
				So(response.Scores, ShouldResemble, []float64{0.92})
			})

			Convey("And the backend should receive question and table verbatim", func() {
				So(deps.questions, ShouldResemble, []string{"Which city?"})
				So(deps.tables, ShouldResemble, []string{sampleCSV})
			})
		})

		Convey("When handling a valid multipart request", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			So(mw.WriteField("question", "Which city?"), ShouldBeNil)
			fw, err := mw.CreateFormFile("table", "people.csv")
			So(err, ShouldBeNil)
			_, err = fw.Write([]byte(sampleCSV))
			So(err, ShouldBeNil)
			So(mw.Close(), ShouldBeNil)

			req := httptest.NewRequest("POST", "/v1/answer", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()

			Convey("Then it should return the assembled answer", func() {
				handler.HandleAnswer(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.questions, ShouldResemble, []string{"Which city?"})
				So(deps.tables, ShouldResemble, []string{sampleCSV})
			})
		})

		Convey("When handling a multipart request without a table file", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			So(mw.WriteField("question", "Which city?"), ShouldBeNil)
			So(mw.Close(), ShouldBeNil)

			req := httptest.NewRequest("POST", "/v1/answer", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleAnswer(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "bad_request")
				So(response.Message, ShouldContainSubstring, "missing table file")
			})
		})

		Convey("When handling an invalid JSON request", func() {
			req := httptest.NewRequest("POST", "/v1/answer", strings.NewReader(`{invalid json`))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleAnswer(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the question is missing", func() {
			req := httptest.NewRequest("POST", "/v1/answer", answerJSON("   ", sampleCSV))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleAnswer(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Message, ShouldContainSubstring, "missing question")
			})
		})

		Convey("When the table is missing", func() {
			req := httptest.NewRequest("POST", "/v1/answer", answerJSON("Which city?", ""))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleAnswer(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Message, ShouldContainSubstring, "missing table")
			})
		})

		Convey("When the request body exceeds the size limit", func() {
			small := api.NewAnswerHandler(deps, 64)
			req := httptest.NewRequest("POST", "/v1/answer", answerJSON("Which city?", strings.Repeat("x,", 200)))
			w := httptest.NewRecorder()

			Convey("Then it should return payload too large", func() {
				small.HandleAnswer(w, req)
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "payload_too_large")
			})
		})

		Convey("When the backend rejects the table", func() {
			deps.answerErr = fmt.Errorf("%w: row 2 has 3 columns, want 2", table.ErrBadTable)
			req := httptest.NewRequest("POST", "/v1/answer", answerJSON("Which city?", "a,b\n1,2,3"))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleAnswer(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "bad_request")
			})
		})

		Convey("When the service is not started", func() {
			deps.answerErr = service.ErrNotStarted
			req := httptest.NewRequest("POST", "/v1/answer", answerJSON("Which city?", sampleCSV))
			w := httptest.NewRecorder()

			Convey("Then it should return service unavailable", func() {
				handler.HandleAnswer(w, req)
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "unavailable")
			})
		})

		Convey("When the backend fails internally", func() {
			deps.answerErr = fmt.Errorf("engine exploded")
			req := httptest.NewRequest("POST", "/v1/answer", answerJSON("Which city?", sampleCSV))
			w := httptest.NewRecorder()

			Convey("Then it should return internal server error without details", func() {
				handler.HandleAnswer(w, req)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "internal")
				So(response.Message, ShouldNotContainSubstring, "exploded")
			})
		})

		Convey("When handling a non-POST request", func() {
			req := httptest.NewRequest("GET", "/v1/answer", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found", func() {
				handler.HandleAnswer(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRunsHandler_HandleGetRuns(t *testing.T) {
	Convey("Given a runs handler", t, func() {
		deps := newBackend()
		deps.runs = []runstore.Run{
			{ID: "run-3", Model: "quench-mini", Mode: "train", FinalTop1: 97.5},
			{ID: "run-2", Model: "quench-mini", Mode: "eval", FinalTop1: 96.8},
			{ID: "run-1", Model: "quench-mini", Mode: "train", FinalTop1: 91.2},
		}
		handler := api.NewRunsHandler(deps, 100)

		Convey("When requesting with an explicit limit", func() {
			req := httptest.NewRequest("GET", "/v1/runs?limit=2", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRuns(w, req)

			Convey("Then it should return that many runs, newest first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var response runsResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Count, ShouldEqual, 2)
				So(response.Runs, ShouldHaveLength, 2)
				So(response.Runs[0].ID, ShouldEqual, "run-3")
				So(response.Runs[1].ID, ShouldEqual, "run-2")
			})
		})

		Convey("When no limit is specified", func() {
			req := httptest.NewRequest("GET", "/v1/runs", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRuns(w, req)

			Convey("Then it should apply the default limit", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 20)

				var response runsResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Count, ShouldEqual, 3)
			})
		})

		Convey("When the limit is not a positive integer", func() {
			for _, raw := range []string{"0", "-5", "abc"} {
				req := httptest.NewRequest("GET", "/v1/runs?limit="+raw, nil)
				w := httptest.NewRecorder()
				handler.HandleGetRuns(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the limit exceeds the maximum", func() {
			req := httptest.NewRequest("GET", "/v1/runs?limit=101", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRuns(w, req)

			Convey("Then it should return limit_exceeded", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When the history is empty", func() {
			deps.runs = nil
			req := httptest.NewRequest("GET", "/v1/runs", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRuns(w, req)

			Convey("Then it should return an empty list, not null", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"runs":[]`)
			})
		})

		Convey("When the service is not started", func() {
			deps.runsErr = service.ErrNotStarted
			req := httptest.NewRequest("GET", "/v1/runs", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRuns(w, req)

			Convey("Then it should return service unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When the store fails", func() {
			deps.runsErr = fmt.Errorf("database error")
			req := httptest.NewRequest("GET", "/v1/runs", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRuns(w, req)

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When handling a non-GET request", func() {
			req := httptest.NewRequest("POST", "/v1/runs", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRuns(w, req)

			Convey("Then it should return not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling a health check request", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return OK status", func() {
				handler.HandleHealth(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]string
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response["status"], ShouldEqual, "ok")
			})
		})

		Convey("When handling a non-GET request", func() {
			req := httptest.NewRequest("POST", "/healthz", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found", func() {
				handler.HandleHealth(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		mockStats := &mockStatsProvider{
			stats: map[string]interface{}{
				"started":   true,
				"model":     "linear-64x2/INT8 on CPU (2x64)",
				"threshold": 0.5,
			},
		}
		handler := api.NewStatsHandler(mockStats)

		Convey("When handling a stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the stats", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]interface{}
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response["started"], ShouldEqual, true)
				So(response["model"], ShouldEqual, "linear-64x2/INT8 on CPU (2x64)")
			})
		})

		Convey("When handling a non-GET request", func() {
			req := httptest.NewRequest("POST", "/stats", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

// Local types for testing
type answerResponse struct {
	Answer string             `json:"answer"`
	Cells  []table.Coordinate `json:"cells"`
	Scores []float64          `json:"scores"`
}

type runsResponse struct {
	Runs  []runstore.Run `json:"runs"`
	Count int            `json:"count"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
