package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPublishDigestPostsForm(t *testing.T) {
	t.Parallel()

	var gotPath, gotChatID, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotPath = r.URL.Path
		gotChatID = r.PostFormValue("chat_id")
		gotText = r.PostFormValue("text")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewNotifier("123:token", "-100456")
	notifier.apiBase = server.URL

	if err := notifier.PublishDigest(context.Background(), "- New rule\nhttps://example.gov/2024/rule"); err != nil {
		t.Fatalf("publish digest: %v", err)
	}
	if gotPath != "/bot123:token/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotChatID != "-100456" {
		t.Fatalf("unexpected chat id %q", gotChatID)
	}
	if !strings.Contains(gotText, "https://example.gov/2024/rule") {
		t.Fatalf("digest text not forwarded: %q", gotText)
	}
}

func TestPublishDigestTruncatesLongMessages(t *testing.T) {
	t.Parallel()

	var gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotText = r.PostFormValue("text")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewNotifier("123:token", "42")
	notifier.apiBase = server.URL

	digest := strings.Repeat("регулятор ", 1000)
	if err := notifier.PublishDigest(context.Background(), digest); err != nil {
		t.Fatalf("publish digest: %v", err)
	}
	if len(gotText) > messageLimit {
		t.Fatalf("message length %d exceeds limit %d", len(gotText), messageLimit)
	}
	if !strings.HasSuffix(gotText, truncationNote) {
		t.Fatalf("truncated message missing note: %q", gotText[len(gotText)-40:])
	}
	if !strings.HasPrefix(gotText, "регулятор") {
		t.Fatalf("truncation corrupted leading runes: %q", gotText[:20])
	}
}

func TestPublishDigestSurfacesAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"Bad Request"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	notifier := NewNotifier("123:token", "42")
	notifier.apiBase = server.URL

	err := notifier.PublishDigest(context.Background(), "digest")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Fatalf("error should carry status: %v", err)
	}
}

func TestPublishDigestMisconfigured(t *testing.T) {
	t.Parallel()

	notifier := NewNotifier("", "")
	if err := notifier.PublishDigest(context.Background(), "digest"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
