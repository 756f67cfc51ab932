package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	mailgun "github.com/mailgun/mailgun-go/v5"

	"github.com/devswami/portfolio/internal/log"
)

func TestMailgunSenderSuccess(t *testing.T) {
	received := make(chan url.Values, 1)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != "api" || password != "key" {
			t.Errorf("unexpected basic auth: %s %s", username, password)
		}

		if path := r.URL.Path; path != "/v3/mg.example.com/messages" && path != "/mg.example.com/messages" {
			t.Errorf("unexpected request path: %s", r.URL.Path)
		}

		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				t.Errorf("parse multipart form: %v", err)
			}
		} else if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}

		values := url.Values{}
		for key, vals := range r.PostForm {
			for _, v := range vals {
				values.Add(key, v)
			}
		}
		if len(values) == 0 && r.MultipartForm != nil {
			for key, vals := range r.MultipartForm.Value {
				for _, v := range vals {
					values.Add(key, v)
				}
			}
		}

		received <- values
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<123@mg.example.com>","message":"Queued"}`))
	}))
	t.Cleanup(ts.Close)

	cfg := Config{
		Provider: ProviderMailgun,
		Account:  "no-reply@example.com",
		FromName: "Portfolio Contact",
		Mailgun:  MailgunConfig{Domain: "mg.example.com", APIKey: "key"},
	}

	mg := mailgun.NewMailgun(cfg.Mailgun.APIKey)
	mg.SetHTTPClient(ts.Client())
	if err := mg.SetAPIBase(ts.URL); err != nil {
		t.Fatalf("set api base: %v", err)
	}

	s, err := NewMailgunSender(cfg, mg, log.Discard())
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	err = s.Send(context.Background(), Message{
		To:      "owner@example.com",
		Cc:      []string{"jane@example.com"},
		Subject: "New Contact Form Submission from Jane",
		HTML:    "<p>Hi<br>there</p>",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	form := <-received

	if got := form.Get("to"); got != "owner@example.com" {
		t.Fatalf("unexpected recipient: %s", got)
	}
	if got := form.Get("cc"); got != "jane@example.com" {
		t.Fatalf("unexpected cc: %s", got)
	}
	if got := form.Get("from"); got != `"Portfolio Contact" <no-reply@example.com>` {
		t.Fatalf("unexpected from: %s", got)
	}
	if !strings.Contains(form.Get("html"), "<br>") {
		t.Fatalf("html body missing: %s", form.Get("html"))
	}
	if got := form.Get("text"); got != "Hi\nthere" {
		t.Fatalf("unexpected text fallback: %q", got)
	}
}

func TestMailgunSenderProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Domain not found"}`, http.StatusNotFound)
	}))
	t.Cleanup(ts.Close)

	cfg := Config{
		Provider: ProviderMailgun,
		Account:  "no-reply@example.com",
		Mailgun:  MailgunConfig{Domain: "mg.example.com", APIKey: "key"},
	}
	mg := mailgun.NewMailgun("key")
	mg.SetHTTPClient(ts.Client())
	if err := mg.SetAPIBase(ts.URL); err != nil {
		t.Fatalf("set api base: %v", err)
	}

	s, _ := NewMailgunSender(cfg, mg, log.Discard())
	err := s.Send(context.Background(), Message{To: "owner@example.com", Subject: "s", HTML: "b"})

	var tErr *TransportError
	if !errorsAs(err, &tErr) || tErr.Provider != ProviderMailgun {
		t.Fatalf("expected mailgun transport error, got %v", err)
	}
}

func TestMailgunSenderDisabled(t *testing.T) {
	s, _ := NewMailgunSender(Config{Provider: ProviderMailgun}, nil, log.Discard())
	if err := s.Send(context.Background(), Message{To: "a@example.com"}); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestMailgunSenderTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(release) })

	cfg := Config{
		Provider: ProviderMailgun,
		Account:  "no-reply@example.com",
		Timeout:  150 * time.Millisecond,
		Mailgun:  MailgunConfig{Domain: "mg.example.com", APIKey: "key"},
	}
	mg := mailgun.NewMailgun("key")
	mg.SetHTTPClient(ts.Client())
	if err := mg.SetAPIBase(ts.URL); err != nil {
		t.Fatalf("set api base: %v", err)
	}
	s, _ := NewMailgunSender(cfg, mg, log.Discard())

	start := time.Now()
	err := s.Send(context.Background(), Message{To: "owner@example.com", Subject: "s", HTML: "b"})

	var tErr *TransportError
	if !errorsAs(err, &tErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Fatalf("send took %s despite a %s timeout", took, cfg.Timeout)
	}
}
