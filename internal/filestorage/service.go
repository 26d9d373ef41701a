// File: internal/filestorage/service.go
package filestorage

import (
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"postboard_backend/internal/common"
)

// Folders the API accepts as upload targets.
const (
	FolderPosts    = "posts"
	FolderProfiles = "profiles"
)

// allowedImageExtensions maps accepted file extensions to their canonical form.
var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// StoredFile describes a file on disk for maintenance jobs.
type StoredFile struct {
	RelativePath string
	Size         int64
	ModTime      time.Time
}

// Service provides operations for storing, deleting and listing uploaded
// images.
type Service interface {
	SaveUploadedFile(fileHeader *multipart.FileHeader, subDir string) (string, error)
	DeleteFile(relativePath string) error
	ListFiles(subDir string) ([]StoredFile, error)
}

// LocalStorageService stores uploads on the local filesystem.
type LocalStorageService struct {
	storagePath    string
	maxUploadBytes int64
	logger         *zap.Logger
}

var _ Service = (*LocalStorageService)(nil)

// NewLocalStorageService creates a new LocalStorageService rooted at
// storagePath. maxUploadMB bounds individual file sizes.
func NewLocalStorageService(storagePath string, maxUploadMB int64, logger *zap.Logger) (*LocalStorageService, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(storagePath, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", storagePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", storagePath, err)
	}
	logger.Info("File storage initialized", zap.String("storagePath", storagePath))
	return &LocalStorageService{
		storagePath:    storagePath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
		logger:         logger,
	}, nil
}

// ValidFolder reports whether the requested upload folder is one the API
// accepts.
func ValidFolder(folder string) bool {
	return folder == FolderPosts || folder == FolderProfiles
}

// imageExtension resolves the file extension for an upload, falling back to
// the declared content type when the filename has none.
func imageExtension(fileHeader *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(filepath.Base(fileHeader.Filename)))
	if extension == "" {
		contentType := fileHeader.Header.Get("Content-Type")
		switch {
		case strings.HasPrefix(contentType, "image/jpeg"):
			extension = ".jpg"
		case strings.HasPrefix(contentType, "image/png"):
			extension = ".png"
		case strings.HasPrefix(contentType, "image/gif"):
			extension = ".gif"
		case strings.HasPrefix(contentType, "image/webp"):
			extension = ".webp"
		default:
			return "", common.ErrUnprocessableEntity.WithDetails(
				fmt.Sprintf("Unsupported file type: %s", contentType))
		}
	}
	if !allowedImageExtensions[extension] {
		return "", common.ErrUnprocessableEntity.WithDetails(
			fmt.Sprintf("Unsupported image extension: %s", extension))
	}
	return extension, nil
}

// SaveUploadedFile validates and saves a multipart image file into subDir,
// generating a unique filename. Returns the path relative to the storage
// root, e.g. "posts/9f2b…d1.jpg".
func (s *LocalStorageService) SaveUploadedFile(fileHeader *multipart.FileHeader, subDir string) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("fileHeader cannot be nil")
	}
	if s.maxUploadBytes > 0 && fileHeader.Size > s.maxUploadBytes {
		return "", common.ErrUnprocessableEntity.WithDetails(
			fmt.Sprintf("File exceeds the maximum upload size of %d bytes.", s.maxUploadBytes))
	}

	extension, err := imageExtension(fileHeader)
	if err != nil {
		return "", err
	}

	cleanSubDir := filepath.Clean(subDir)
	if strings.HasPrefix(cleanSubDir, "..") || filepath.IsAbs(cleanSubDir) {
		return "", fmt.Errorf("invalid subDir path")
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", zap.Error(err))
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	destinationDir := filepath.Join(s.storagePath, cleanSubDir)
	if err := os.MkdirAll(destinationDir, os.ModePerm); err != nil {
		s.logger.Error("Failed to create sub-directory for file storage", zap.String("path", destinationDir), zap.Error(err))
		return "", fmt.Errorf("failed to create directory %s: %w", destinationDir, err)
	}

	uniqueFilename := uuid.New().String() + extension
	destinationPath := filepath.Join(destinationDir, uniqueFilename)

	dst, err := os.Create(destinationPath)
	if err != nil {
		s.logger.Error("Failed to create destination file", zap.String("path", destinationPath), zap.Error(err))
		return "", fmt.Errorf("failed to create file %s: %w", destinationPath, err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		s.logger.Error("Failed to copy uploaded file to destination", zap.String("path", destinationPath), zap.Error(err))
		os.Remove(destinationPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	s.logger.Info("File saved", zap.String("path", destinationPath))
	return filepath.ToSlash(filepath.Join(cleanSubDir, uniqueFilename)), nil
}

// DeleteFile deletes a file given its path relative to the storage root.
func (s *LocalStorageService) DeleteFile(relativePath string) error {
	if relativePath == "" {
		return fmt.Errorf("relative path cannot be empty")
	}

	cleanRelativePath := filepath.Clean(relativePath)
	if strings.Contains(cleanRelativePath, "..") || filepath.IsAbs(cleanRelativePath) {
		return fmt.Errorf("invalid relative path")
	}

	fullPath := filepath.Join(s.storagePath, cleanRelativePath)
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("File to delete does not exist", zap.String("path", fullPath))
			return nil
		}
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	s.logger.Info("File deleted", zap.String("path", fullPath))
	return nil
}

// ListFiles walks subDir and returns every stored file. Used by the
// orphaned-upload sweep.
func (s *LocalStorageService) ListFiles(subDir string) ([]StoredFile, error) {
	cleanSubDir := filepath.Clean(subDir)
	if strings.HasPrefix(cleanSubDir, "..") || filepath.IsAbs(cleanSubDir) {
		return nil, fmt.Errorf("invalid subDir path")
	}

	root := filepath.Join(s.storagePath, cleanSubDir)
	var files []StoredFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.storagePath, path)
		if err != nil {
			return err
		}
		files = append(files, StoredFile{
			RelativePath: filepath.ToSlash(rel),
			Size:         info.Size(),
			ModTime:      info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files under %s: %w", root, err)
	}
	return files, nil
}
