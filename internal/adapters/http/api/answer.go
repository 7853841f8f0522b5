package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// AnswerHandler handles question answering over uploaded tables.
type AnswerHandler struct {
	deps     Dependencies
	maxBytes int64
}

// NewAnswerHandler creates a new answer handler.
func NewAnswerHandler(deps Dependencies, maxBytes int64) *AnswerHandler {
	return &AnswerHandler{deps: deps, maxBytes: maxBytes}
}

// HandleAnswer processes POST /v1/answer requests. The payload is either a
// JSON document with question and table fields or a multipart form with a
// question value and a table file.
func (h *AnswerHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	question, tableData, err := h.decode(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", errors.New("request body too large"))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	ans, err := h.deps.Answer(r.Context(), question, tableData)
	if err != nil {
		switch {
		case isBadInput(err):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		case isUnavailable(err):
			writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		Answer: ans.Text,
		Cells:  ans.Cells,
		Scores: ans.Scores,
	})
}

// decode extracts the question and the table payload from either encoding.
func (h *AnswerHandler) decode(r *http.Request) (string, io.Reader, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxBytes); err != nil {
			return "", nil, err
		}
		question := r.FormValue("question")
		if strings.TrimSpace(question) == "" {
			return "", nil, fmt.Errorf("%w: missing question", ErrBadRequest)
		}
		file, _, err := r.FormFile("table")
		if err != nil {
			return "", nil, fmt.Errorf("%w: missing table file", ErrBadRequest)
		}
		return question, file, nil
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", nil, err
	}
	if err := req.validate(); err != nil {
		return "", nil, err
	}
	return req.Question, strings.NewReader(req.Table), nil
}
