// Package publisher はWordPressへのXML-RPC投稿を提供する。
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kolo/xmlrpc"

	"github.com/xxx-bye7709/blogpilot/internal/model"
)

// Result は投稿の成功結果を表す。
type Result struct {
	// PostID はWordPress側の投稿ID。
	PostID string
	// URL は投稿の公開URL。
	URL string
}

// Publisher は記事投稿のインターフェースを定義する。
type Publisher interface {
	// Publish は記事を投稿し、投稿IDと公開URLを返す。
	Publish(ctx context.Context, article *model.Article) (*Result, error)
}

// WordPressPublisher はmetaWeblog API経由でWordPressへ投稿する。
// XML-RPCクライアントはコンテキストを受け取らないため、タイムアウトは
// 下層のトランスポートの接続・応答待ちの期限で強制する。期限超過時は
// 進行中の呼び出しが中断されタイムアウトエラーになる。
type WordPressPublisher struct {
	client   *xmlrpc.Client
	logger   *slog.Logger
	siteURL  string
	blogID   string
	username string
	password string
	authorID int
}

// NewWordPressPublisher はWordPressPublisherを生成する。
// siteURLはWordPressサイトのベースURLで、XML-RPCエンドポイントは
// siteURL + /xmlrpc.php になる。
func NewWordPressPublisher(siteURL, blogID, username, password string, authorID int, timeout time.Duration, logger *slog.Logger) (*WordPressPublisher, error) {
	base := strings.TrimRight(siteURL, "/")
	endpoint := base + "/xmlrpc.php"

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: timeout,
		}).DialContext,
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   timeout,
	}

	client, err := xmlrpc.NewClient(endpoint, transport)
	if err != nil {
		return nil, fmt.Errorf("XML-RPCクライアントの生成に失敗しました: %w", err)
	}

	return &WordPressPublisher{
		client:   client,
		logger:   logger,
		siteURL:  base,
		blogID:   blogID,
		username: username,
		password: password,
		authorID: authorID,
	}, nil
}

// Publish は記事をmetaWeblog.newPostで投稿する。
// 障害はそのまま返し、再試行はしない。
func (p *WordPressPublisher) Publish(ctx context.Context, article *model.Article) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.NewPublishFailedError(err.Error())
	}

	content := map[string]interface{}{
		"title":        article.Title,
		"description":  article.Content,
		"categories":   []string{string(article.Category)},
		"mt_keywords":  strings.Join(article.Tags, ","),
		"wp_author_id": p.authorID,
		"post_status":  string(article.Status),
	}

	publish := article.Status == model.PostStatusPublish
	args := []interface{}{p.blogID, p.username, p.password, content, publish}

	start := time.Now()
	var postID string
	err := p.client.Call("metaWeblog.newPost", args, &postID)
	elapsed := time.Since(start)

	if err != nil {
		if isTimeout(err) {
			p.logger.Error("WordPressへの投稿がタイムアウトしました",
				slog.String("title", article.Title),
				slog.Duration("elapsed", elapsed),
			)
			return nil, model.NewPublishTimeoutError()
		}
		p.logger.Error("WordPressへの投稿に失敗しました",
			slog.String("title", article.Title),
			slog.String("error", err.Error()),
		)
		return nil, model.NewPublishFailedError(err.Error())
	}

	if postID == "" {
		return nil, model.NewPublishFailedError("投稿IDが返されませんでした")
	}

	result := &Result{
		PostID: postID,
		URL:    fmt.Sprintf("%s/?p=%s", p.siteURL, postID),
	}

	p.logger.Info("WordPressへ投稿しました",
		slog.String("post_id", result.PostID),
		slog.String("post_url", result.URL),
		slog.String("status", string(article.Status)),
		slog.Duration("elapsed", elapsed),
	)

	return result, nil
}

// isTimeout はエラーがタイムアウト起因かどうかを判定する。
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
}

// compile-time interface check
var _ Publisher = (*WordPressPublisher)(nil)
