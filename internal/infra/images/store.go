// internal/infra/images/store.go
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"promptmint/internal/platform/apperr"
)

// Store は生成画像のバイト列をローカルディスクに保存するアダプタ。
// ファイル名は「ミリ秒タイムスタンプ.png」。同一プロセス内では
// 単調増加カウンタで必ず一意になる（時計が進まなくても +1 する）。
//
// 保存したファイルはこのシステムからは削除しない。
type Store struct {
	dir    string
	client *http.Client

	mu        sync.Mutex
	lastStamp int64
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindIO, "images.NewStore", "create images dir", err)
	}
	return &Store{
		dir: dir,
		// タイムアウトは設定しない方針（pipeline 側は fail-fast / no-retry で、
		// 呼び出し全体の打ち切りは行わない）
		client: &http.Client{},
	}, nil
}

// Fetch は一時 URL から画像バイト列を取得する。
// 2xx 以外は KindFetch で失敗させる。
func (s *Store) Fetch(ctx context.Context, url string) ([]byte, error) {
	const op = "images.Fetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindFetch, op, "create request", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindFetch, op, "fetch image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.New(apperr.KindFetch, op,
			fmt.Sprintf("failed to fetch image: status=%d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindFetch, op, "read image body", err)
	}
	return data, nil
}

// SaveLocal はバイト列を <millisecond-timestamp>.png として書き出す。
func (s *Store) SaveLocal(data []byte) (fileName string, path string, err error) {
	const op = "images.SaveLocal"

	fileName = strconv.FormatInt(s.nextStamp(), 10) + ".png"
	path = filepath.Join(s.dir, fileName)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", apperr.Wrap(apperr.KindIO, op, "write image file", err)
	}
	return fileName, path, nil
}

func (s *Store) nextStamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= s.lastStamp {
		now = s.lastStamp + 1
	}
	s.lastStamp = now
	return now
}
