package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"roe-outage-bot/internal/domain"
)

type apiCall struct {
	method string
	form   map[string]string
}

type fakeBotAPI struct {
	t      *testing.T
	mu     sync.Mutex
	calls  []apiCall
	editFn func() (int, string)
	sendFn func() string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("parse form: %v", err)
	}
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	form := make(map[string]string)
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, form: form})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getMe":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bot","username":"outage_bot"}}`))
	case "sendMessage":
		result := `{"message_id":77,"date":0,"chat":{"id":-100,"type":"channel"}}`
		if f.sendFn != nil {
			result = f.sendFn()
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":` + result + `}`))
	case "editMessageText":
		if f.editFn != nil {
			if code, desc := f.editFn(); code != 0 {
				body, _ := json.Marshal(map[string]any{"ok": false, "error_code": code, "description": desc})
				_, _ = w.Write(body)
				return
			}
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77,"date":0,"chat":{"id":-100,"type":"channel"}}}`))
	default:
		f.t.Errorf("неожиданный метод %s", method)
	}
}

func (f *fakeBotAPI) last(method string) (apiCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method {
			return f.calls[i], true
		}
	}
	return apiCall{}, false
}

func newTestTransport(t *testing.T, api *fakeBotAPI, chat string) *Transport {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	bot, err := tgbotapi.NewBotAPIWithClient("TOKEN", srv.URL+"/bot%s/%s", srv.Client())
	if err != nil {
		t.Fatalf("не удалось создать бота: %v", err)
	}
	return NewTransport(bot, chat)
}

func TestTransportCreate(t *testing.T) {
	api := &fakeBotAPI{t: t}
	transport := newTestTransport(t, api, "-100")

	id, err := transport.Create(context.Background(), "<b>08:00-12:00</b>")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if id != 77 {
		t.Fatalf("ожидали id 77, получили %d", id)
	}
	call, ok := api.last("sendMessage")
	if !ok {
		t.Fatal("sendMessage не вызывался")
	}
	if call.form["chat_id"] != "-100" || call.form["parse_mode"] != tgbotapi.ModeHTML || call.form["text"] != "<b>08:00-12:00</b>" {
		t.Fatalf("неожиданные параметры: %v", call.form)
	}
}

func TestTransportCreateToChannelUsername(t *testing.T) {
	api := &fakeBotAPI{t: t}
	transport := newTestTransport(t, api, "@outages")

	if _, err := transport.Create(context.Background(), "text"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	call, _ := api.last("sendMessage")
	if call.form["chat_id"] != "@outages" {
		t.Fatalf("ожидали @outages, получили %q", call.form["chat_id"])
	}
}

func TestTransportCreateMalformedResult(t *testing.T) {
	api := &fakeBotAPI{t: t, sendFn: func() string { return `true` }}
	transport := newTestTransport(t, api, "-100")

	_, err := transport.Create(context.Background(), "text")
	if !domain.IsTransportKind(err, domain.TransportMalformedResponse) {
		t.Fatalf("ожидали malformed_response, получили %v", err)
	}
}

func TestTransportEdit(t *testing.T) {
	api := &fakeBotAPI{t: t}
	transport := newTestTransport(t, api, "-100")

	if err := transport.Edit(context.Background(), 77, "new"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	call, _ := api.last("editMessageText")
	if call.form["message_id"] != "77" || call.form["text"] != "new" {
		t.Fatalf("неожиданные параметры: %v", call.form)
	}
}

func TestTransportEditExpired(t *testing.T) {
	api := &fakeBotAPI{t: t, editFn: func() (int, string) {
		return 400, "Bad Request: message can't be edited"
	}}
	transport := newTestTransport(t, api, "-100")

	err := transport.Edit(context.Background(), 77, "new")
	if !domain.IsTransportKind(err, domain.TransportEditExpired) {
		t.Fatalf("ожидали edit_expired, получили %v", err)
	}
}

func TestTransportEditNotModifiedIsSuccess(t *testing.T) {
	api := &fakeBotAPI{t: t, editFn: func() (int, string) {
		return 400, "Bad Request: message is not modified: specified new message content and reply markup are exactly the same"
	}}
	transport := newTestTransport(t, api, "-100")

	if err := transport.Edit(context.Background(), 77, "same"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
}

func TestClassifyEditError(t *testing.T) {
	cases := []struct {
		err  error
		kind domain.TransportKind
	}{
		{&tgbotapi.Error{Code: 400, Message: "MESSAGE_EDIT_TIME_EXPIRED"}, domain.TransportEditExpired},
		{&tgbotapi.Error{Code: 400, Message: "Bad Request: message to edit not found"}, domain.TransportEditExpired},
		{&tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities"}, domain.TransportEditFailed},
		{&tgbotapi.Error{Code: 429, Message: "Too Many Requests: retry after 5"}, domain.TransportEditFailed},
		{errors.New("connection reset"), domain.TransportEditFailed},
	}
	for _, tc := range cases {
		if got := classifyEditError(tc.err); !domain.IsTransportKind(got, tc.kind) {
			t.Fatalf("%v: ожидали %s, получили %v", tc.err, tc.kind, got)
		}
	}
}
