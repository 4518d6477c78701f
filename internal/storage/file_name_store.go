package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/annel0/voxelcore/internal/codec"
	"github.com/annel0/voxelcore/internal/logging"
)

const (
	nameFileMagic   = "VXMT"
	nameFileVersion = 1
)

type nameFile struct {
	Version int               `cbor:"1,keyasint"`
	Names   map[string]uint16 `cbor:"2,keyasint"`
}

// FileNameStore хранит таблицу имен в файле <root>/worlds/materials.dat:
// сигнатура VXMT и сжатая zstd CBOR-запись. Каждое изменение
// перезаписывает файл атомарно (временный файл + rename).
type FileNameStore struct {
	mu     sync.Mutex
	root   WorldRootFunc
	path   string
	table  *nameTable
	logger *logging.Logger
	closed bool
}

// NewFileNameStore создает хранилище; путь к файлу определяется при Load
func NewFileNameStore(root WorldRootFunc, opts ...StoreOption) *FileNameStore {
	o := newStoreOptions(opts)
	return &FileNameStore{
		root:   root,
		table:  newNameTable(o.rng),
		logger: o.logger,
	}
}

// Path путь к файлу таблицы (пустой до Load)
func (s *FileNameStore) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Load читает таблицу из файла. Отсутствующий файл означает пустую таблицу.
func (s *FileNameStore) Load(ctx context.Context) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	path, err := MaterialsFile(s.root)
	if err != nil {
		return err
	}
	s.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("Файл таблицы материалов %s не найден, начинаем с пустой", path)
		return s.table.load(nil)
	}
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", path, err)
	}

	var f nameFile
	if err := codec.Open(nameFileMagic, data, &f); err != nil {
		return fmt.Errorf("storage: decode %s: %w", path, err)
	}
	if f.Version != nameFileVersion {
		return fmt.Errorf("storage: %s: unsupported version %d", path, f.Version)
	}
	if err := s.table.load(f.Names); err != nil {
		return err
	}
	s.logger.Info("Загружено %d материалов из %s", len(f.Names), path)
	return nil
}

func (s *FileNameStore) Register(ctx context.Context, name string) (uint16, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return 0, err
	}

	id, created, err := s.table.allocate(name)
	if err != nil || !created {
		return id, err
	}
	if err := s.save(); err != nil {
		s.table.remove(name)
		return 0, err
	}
	return id, nil
}

func (s *FileNameStore) RegisterWithID(ctx context.Context, name string, id uint16) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}

	created, err := s.table.bind(name, id)
	if err != nil || !created {
		return err
	}
	if err := s.save(); err != nil {
		s.table.remove(name)
		return err
	}
	return nil
}

func (s *FileNameStore) Lookup(ctx context.Context, name string) (uint16, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return 0, false, err
	}
	id, ok := s.table.lookup(name)
	return id, ok, nil
}

func (s *FileNameStore) Names(ctx context.Context) (map[string]uint16, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.table.snapshot(), nil
}

func (s *FileNameStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileNameStore) usable() error {
	if s.closed {
		return ErrStoreClosed
	}
	if s.path == "" {
		return ErrNotLoaded
	}
	return nil
}

// save атомарно перезаписывает файл таблицы
func (s *FileNameStore) save() error {
	data, err := codec.Seal(nameFileMagic, nameFile{Version: nameFileVersion, Names: s.table.snapshot()})
	if err != nil {
		return fmt.Errorf("storage: encode name table: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".materials-*.tmp")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("storage: replace %s: %w", s.path, err)
	}
	return nil
}
