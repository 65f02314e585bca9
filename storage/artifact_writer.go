package storage

import (
	"os"
	"path/filepath"

	cerror "training-job-runner/core/errors"
	"training-job-runner/core/models"
)

// WriteArtifact writes payload to <modelDir>/model.dummy, creating modelDir
// and any missing parents first. Existing content is truncated.
func WriteArtifact(modelDir string, payload []byte) (path string, err error) {
	path = filepath.Join(modelDir, models.ArtifactFileName)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", cerror.WrapError(cerror.ErrWriteFailure, err, path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", cerror.WrapError(cerror.ErrWriteFailure, err, path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			path, err = "", cerror.WrapError(cerror.ErrWriteFailure, cerr, path)
		}
	}()

	if _, err := f.Write(payload); err != nil {
		return "", cerror.WrapError(cerror.ErrWriteFailure, err, path)
	}
	return path, nil
}
