package uploadsvc

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// localStore writes uploads to disk. For DEV|TEST mode.
type localStore struct {
	root    string
	baseURL string
}

var _ core.FileStore = (*localStore)(nil)

func NewLocalStore(root, baseURL string) (core.FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload root")
	}
	return &localStore{root: root, baseURL: baseURL}, nil
}

func (st *localStore) Save(_ context.Context, r io.Reader, filename, _ string) (string, error) {
	dir := uuid.New().String()
	if err := os.MkdirAll(filepath.Join(st.root, dir), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}

	name := filepath.Base(filename)
	f, err := os.Create(filepath.Join(st.root, dir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer f.Close()

	if _, err = io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "writing upload file")
	}
	return st.baseURL + "/" + dir + "/" + name, nil
}
