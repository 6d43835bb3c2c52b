package webapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalImageStore изображения заказов в локальном каталоге загрузок
type LocalImageStore struct {
	dir string
}

func NewLocalImageStore(dir string) *LocalImageStore {
	return &LocalImageStore{dir: dir}
}

// Remove удаляет файл по ключу. Отсутствующий файл не считается ошибкой.
func (s *LocalImageStore) Remove(_ context.Context, key string) error {
	name := filepath.Base(key)
	if name == "." || name == string(filepath.Separator) || name == ".." {
		return fmt.Errorf("некорректный ключ изображения %q", key)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ошибка при удалении изображения: %w", err)
	}
	return nil
}
