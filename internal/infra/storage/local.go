package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"ecshop/internal/usecase"

	"github.com/google/uuid"
)

const PublicPrefix = "/uploads"

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// UPLOAD_DIRに保存して /uploads/<name> で配信する
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// ファイル名はuuidにする（元の名前は拡張子だけ使う）
func (s *LocalStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := imageExts[ext]; !ok {
		return "", usecase.ErrUnsupportedImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	return path.Join(PublicPrefix, name), nil
}

// 既に無いファイルはエラーにしない
func (s *LocalStore) Remove(_ context.Context, publicPath string) error {
	if !strings.HasPrefix(publicPath, PublicPrefix+"/") {
		return fmt.Errorf("not an upload path: %q", publicPath)
	}
	name := path.Base(publicPath)
	if name == "." || name == "/" || name == ".." {
		return fmt.Errorf("not an upload path: %q", publicPath)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
