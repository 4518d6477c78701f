package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// WorldRootFunc возвращает корневой каталог хранилища текущего мира
type WorldRootFunc func() (string, error)

// StaticWorldRoot корень мира в фиксированном каталоге
func StaticWorldRoot(dir string) WorldRootFunc {
	return func() (string, error) {
		if dir == "" {
			return "", fmt.Errorf("storage: empty world root")
		}
		return dir, nil
	}
}

const (
	worldsDir         = "worlds"
	materialsFileName = "materials.dat"
	materialsDBName   = "materials.db"
	buffersDBName     = "buffers.db"
)

// MaterialsFile путь к файлу таблицы имен: <root>/worlds/materials.dat
func MaterialsFile(root WorldRootFunc) (string, error) {
	return resolve(root, materialsFileName)
}

// MaterialsDB каталог BadgerDB таблицы имен: <root>/worlds/materials.db
func MaterialsDB(root WorldRootFunc) (string, error) {
	return resolve(root, materialsDBName)
}

// BuffersDB каталог BadgerDB буферов для хранилищ без своей базы: <root>/worlds/buffers.db
func BuffersDB(root WorldRootFunc) (string, error) {
	return resolve(root, buffersDBName)
}

func resolve(root WorldRootFunc, name string) (string, error) {
	dir, err := root()
	if err != nil {
		return "", fmt.Errorf("storage: resolve world root: %w", err)
	}
	worlds := filepath.Join(dir, worldsDir)
	if err := os.MkdirAll(worlds, 0o755); err != nil {
		return "", fmt.Errorf("storage: create %s: %w", worlds, err)
	}
	return filepath.Join(worlds, name), nil
}
