// Package telegramtest runs a fake Telegram Bot API over httptest so bot code
// can be exercised with a real *tgbotapi.BotAPI.
package telegramtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const Token = "test-token"

// Call is one request received by the fake API.
type Call struct {
	Method string
	Params url.Values
	// Uploaded files by form field name.
	Files map[string][]byte
}

func (c Call) Int(name string) int {
	v, _ := strconv.Atoi(c.Params.Get(name))
	return v
}

type failure struct {
	code        int
	description string
	// Drop the connection instead of answering.
	transport bool
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	calls    []Call
	nextID   int
	failures map[string][]failure
}

func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		nextID:   100,
		failures: make(map[string][]failure),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)

	return s
}

// BotAPI returns a client bound to the fake server.
func (s *Server) BotAPI(t testing.TB) *tgbotapi.BotAPI {
	t.Helper()

	api, err := tgbotapi.NewBotAPIWithClient(Token, s.URL+"/bot%s/%s", s.Client())
	if err != nil {
		t.Fatalf("create bot api: %v", err)
	}
	return api
}

// FailNext makes the next call of method return a Bot API error.
func (s *Server) FailNext(method string, code int, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], failure{code: code, description: description})
}

// DropNext makes the next call of method fail at the transport level.
func (s *Server) DropNext(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], failure{transport: true})
}

// Calls returns recorded calls, optionally filtered by method.
func (s *Server) Calls(methods ...string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(methods) == 0 {
		return append([]Call(nil), s.calls...)
	}

	var out []Call
	for _, c := range s.calls {
		for _, m := range methods {
			if c.Method == m {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// LastMessageID is the id assigned to the most recent sent message.
func (s *Server) LastMessageID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	call := Call{
		Method: path.Base(r.URL.Path),
		Params: url.Values{},
		Files:  map[string][]byte{},
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				call.Params[k] = v
			}
			for field, headers := range r.MultipartForm.File {
				if len(headers) == 0 {
					continue
				}
				f, err := headers[0].Open()
				if err != nil {
					continue
				}
				data, _ := io.ReadAll(f)
				f.Close()
				call.Files[field] = data
			}
		}
	} else if err := r.ParseForm(); err == nil {
		call.Params = r.PostForm
	}

	s.mu.Lock()
	if call.Method != "getMe" {
		s.calls = append(s.calls, call)
	}

	var fail *failure
	if queue := s.failures[call.Method]; len(queue) > 0 {
		fail = &queue[0]
		s.failures[call.Method] = queue[1:]
	}

	var messageID int
	if fail == nil && (call.Method == "sendMessage" || call.Method == "sendPhoto") {
		s.nextID++
		messageID = s.nextID
	}
	s.mu.Unlock()

	if fail != nil && fail.transport {
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
				return
			}
		}
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if fail != nil {
		w.WriteHeader(fail.code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  fail.code,
			"description": fail.description,
		})
		return
	}

	var result any
	switch call.Method {
	case "getMe":
		result = map[string]any{"id": 1, "is_bot": true, "first_name": "Test", "username": "test_bot"}
	case "sendMessage", "sendPhoto":
		chatID, _ := strconv.ParseInt(call.Params.Get("chat_id"), 10, 64)
		result = map[string]any{
			"message_id": messageID,
			"date":       0,
			"chat":       map[string]any{"id": chatID, "type": "channel"},
			"text":       call.Params.Get("text"),
			"caption":    call.Params.Get("caption"),
		}
	default:
		result = true
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}
