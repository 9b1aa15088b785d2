package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arzan03/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ProofDir is the only part of the upload directory served publicly.
const ProofDir = "proofs"

// LocalStore keeps proofs under the upload directory, served at /uploads/proofs.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(uploadDir, publicBaseURL string) (*LocalStore, error) {
	dir := filepath.Join(uploadDir, ProofDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create proof directory")
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/") + "/uploads/" + ProofDir,
	}, nil
}

func (s *LocalStore) Save(_ context.Context, localPath, filename, contentType string) (models.StoredFile, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	dest := filepath.Join(s.dir, name)
	if err := os.Rename(localPath, dest); err != nil {
		return models.StoredFile{}, errors.Wrap(err, "move proof into place")
	}

	var size int64
	if st, err := os.Stat(dest); err == nil {
		size = st.Size()
	}
	return models.StoredFile{
		URL:         s.baseURL + "/" + name,
		PublicID:    path.Join(ProofDir, name),
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
	}, nil
}

func (s *LocalStore) Remove(_ context.Context, publicID string) error {
	name := strings.TrimPrefix(publicID, ProofDir+"/")
	if name == publicID || strings.Contains(name, "/") || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
