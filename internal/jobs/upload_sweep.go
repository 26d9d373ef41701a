// File: internal/jobs/upload_sweep.go
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"postboard_backend/internal/config"
	"postboard_backend/internal/filestorage"
)

// UploadSweepJob periodically deletes uploaded images that no post or
// profile references anymore. Uploads happen before the post that uses them
// is created, so a minimum age keeps in-flight uploads safe.
type UploadSweepJob struct {
	db            *gorm.DB
	fileStorage   filestorage.Service
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewUploadSweepJob creates a new UploadSweepJob.
func NewUploadSweepJob(
	db *gorm.DB,
	fileStorage filestorage.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *UploadSweepJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &UploadSweepJob{
		db:            db,
		fileStorage:   fileStorage,
		logger:        logger.Named("UploadSweepJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *UploadSweepJob) SetupAndStart() error {
	jobSpec := j.cfg.UploadSweepSchedule
	if jobSpec == "" {
		j.logger.Warn("Upload sweep schedule not defined (UPLOAD_SWEEP_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule upload sweep job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Upload sweep job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *UploadSweepJob) runJob() {
	j.logger.Info("Starting upload sweep run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := j.Sweep(ctx)
	if err != nil {
		j.logger.Error("Upload sweep run failed", zap.Error(err))
	} else {
		j.logger.Info("Upload sweep run completed", zap.Int("files_removed", removed))
	}
}

// Sweep deletes orphaned uploads and returns how many files were removed.
func (j *UploadSweepJob) Sweep(ctx context.Context) (int, error) {
	referenced, err := j.referencedPaths(ctx)
	if err != nil {
		return 0, err
	}

	minAge := j.cfg.UploadSweepMinAge
	cutoff := time.Now().Add(-minAge)

	removed := 0
	for _, folder := range []string{filestorage.FolderPosts, filestorage.FolderProfiles} {
		files, err := j.fileStorage.ListFiles(folder)
		if err != nil {
			return removed, fmt.Errorf("listing %s uploads: %w", folder, err)
		}
		for _, file := range files {
			if file.ModTime.After(cutoff) {
				continue
			}
			if referenced[file.RelativePath] {
				continue
			}
			if err := j.fileStorage.DeleteFile(file.RelativePath); err != nil {
				j.logger.Warn("Failed to delete orphaned upload",
					zap.String("path", file.RelativePath), zap.Error(err))
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// referencedPaths collects every storage-relative path referenced by a post
// or a profile image URL.
func (j *UploadSweepJob) referencedPaths(ctx context.Context) (map[string]bool, error) {
	var urls []string

	var postURLs []string
	if err := j.db.WithContext(ctx).
		Table("posts").
		Where("image_url IS NOT NULL AND image_url <> ''").
		Pluck("image_url", &postURLs).Error; err != nil {
		return nil, fmt.Errorf("collecting post image URLs: %w", err)
	}
	urls = append(urls, postURLs...)

	var profileURLs []string
	if err := j.db.WithContext(ctx).
		Table("users").
		Where("image_url IS NOT NULL AND image_url <> ''").
		Pluck("image_url", &profileURLs).Error; err != nil {
		return nil, fmt.Errorf("collecting profile image URLs: %w", err)
	}
	urls = append(urls, profileURLs...)

	base := strings.TrimRight(j.cfg.ImagePublicBaseURL, "/") + "/"
	referenced := make(map[string]bool, len(urls))
	for _, url := range urls {
		// Only URLs under our public base map back to local files; external
		// image URLs are left alone.
		if strings.HasPrefix(url, base) {
			referenced[strings.TrimPrefix(url, base)] = true
		}
	}
	return referenced, nil
}

// Stop gracefully stops the cron scheduler.
func (j *UploadSweepJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping upload sweep scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Upload sweep scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Upload sweep scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
