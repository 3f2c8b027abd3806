package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xxx-bye7709/blogpilot/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

const successResponse = `<?xml version="1.0"?>
<methodResponse>
  <params>
    <param>
      <value><string>123</string></value>
    </param>
  </params>
</methodResponse>`

const faultResponse = `<?xml version="1.0"?>
<methodResponse>
  <fault>
    <value>
      <struct>
        <member>
          <name>faultCode</name>
          <value><int>403</int></value>
        </member>
        <member>
          <name>faultString</name>
          <value><string>Incorrect username or password.</string></value>
        </member>
      </struct>
    </value>
  </fault>
</methodResponse>`

func testArticle() *model.Article {
	return &model.Article{
		Title:    "テスト記事",
		Content:  "<p>本文</p>",
		Category: model.CategoryTech,
		Tags:     []string{"テクノロジー", "ガジェット"},
		Status:   model.PostStatusPublish,
	}
}

// TestPublish_Success は投稿成功時の結果をテストする。
func TestPublish_Success(t *testing.T) {
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/xmlrpc.php" {
			t.Errorf("Path = %q, want /xmlrpc.php", r.URL.Path)
		}
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(successResponse))
	}))
	defer ts.Close()

	p, err := NewWordPressPublisher(ts.URL, "1", "user", "pass", 1, 5*time.Second, discardLogger())
	if err != nil {
		t.Fatalf("NewWordPressPublisher() error = %v", err)
	}

	result, err := p.Publish(context.Background(), testArticle())
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if result.PostID != "123" {
		t.Errorf("PostID = %q, want 123", result.PostID)
	}
	if result.URL != ts.URL+"/?p=123" {
		t.Errorf("URL = %q", result.URL)
	}

	body := string(gotBody)
	for _, want := range []string{"metaWeblog.newPost", "テスト記事", "テクノロジー,ガジェット"} {
		if !strings.Contains(body, want) {
			t.Errorf("リクエストボディに %q が含まれるべき", want)
		}
	}
}

// TestPublish_Fault はフォールトレスポンスがPUBLISH_FAILEDになることをテストする。
func TestPublish_Fault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(faultResponse))
	}))
	defer ts.Close()

	p, err := NewWordPressPublisher(ts.URL, "1", "user", "wrong", 1, 5*time.Second, discardLogger())
	if err != nil {
		t.Fatalf("NewWordPressPublisher() error = %v", err)
	}

	_, err = p.Publish(context.Background(), testArticle())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: %v", err)
	}
	if apiErr.Code != model.ErrCodePublishFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodePublishFailed)
	}
}

// TestPublish_Timeout は応答遅延がPUBLISH_TIMEOUTになることをテストする。
func TestPublish_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(successResponse))
	}))
	defer ts.Close()

	p, err := NewWordPressPublisher(ts.URL, "1", "user", "pass", 1, 50*time.Millisecond, discardLogger())
	if err != nil {
		t.Fatalf("NewWordPressPublisher() error = %v", err)
	}

	_, err = p.Publish(context.Background(), testArticle())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: %v", err)
	}
	if apiErr.Code != model.ErrCodePublishTimeout {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodePublishTimeout)
	}
}

// TestPublish_CancelledContext はキャンセル済みコンテキストでの投稿拒否をテストする。
func TestPublish_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("キャンセル済みコンテキストでAPIが呼ばれるべきではない")
	}))
	defer ts.Close()

	p, err := NewWordPressPublisher(ts.URL, "1", "user", "pass", 1, 5*time.Second, discardLogger())
	if err != nil {
		t.Fatalf("NewWordPressPublisher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Publish(ctx, testArticle()); err == nil {
		t.Fatal("エラーが返るべき")
	}
}
