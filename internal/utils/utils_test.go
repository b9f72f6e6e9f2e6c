package utils

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("sets content-type and status", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := map[string]string{"key": "value"}
		WriteJSON(w, http.StatusOK, body)

		if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("encodes body as JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := map[string]string{"foo": "bar"}
		WriteJSON(w, http.StatusCreated, body)

		var got map[string]string
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if got["foo"] != "bar" {
			t.Errorf("body[foo] = %q; want bar", got["foo"])
		}
	})
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	status := http.StatusBadRequest
	msg := "invalid input"
	WriteError(w, status, msg)

	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
	}
	if w.Code != status {
		t.Errorf("Code = %d; want %d", w.Code, status)
	}

	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if got["error"] != http.StatusText(status) {
		t.Errorf("error = %q; want %q", got["error"], http.StatusText(status))
	}
	if got["message"] != msg {
		t.Errorf("message = %q; want %q", got["message"], msg)
	}
}

func TestWriteJSON_unencodable(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]float64{"mean": math.NaN()})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Code = %d; want %d", w.Code, http.StatusInternalServerError)
	}
	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if got["message"] != "failed to encode response" {
		t.Errorf("message = %q; want failed to encode response", got["message"])
	}
}

func TestWriteHTML(t *testing.T) {
	t.Run("writes rendered body with status", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteHTML(w, http.StatusBadRequest, func(out io.Writer) error {
			_, err := io.WriteString(out, "<p>bad filter</p>")
			return err
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusBadRequest)
		}
		if got := w.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
			t.Errorf("Content-Type = %q; want text/html; charset=utf-8", got)
		}
		if w.Body.String() != "<p>bad filter</p>" {
			t.Errorf("body = %q", w.Body.String())
		}
	})

	t.Run("render failure discards partial output", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteHTML(w, http.StatusOK, func(out io.Writer) error {
			_, _ = io.WriteString(out, "<p>half")
			return errors.New("boom")
		})

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusInternalServerError)
		}
		if strings.Contains(w.Body.String(), "<p>half") {
			t.Errorf("body = %q; partial render leaked", w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "failed to render page") {
			t.Errorf("body = %q; expected 'failed to render page'", w.Body.String())
		}
	})
}
