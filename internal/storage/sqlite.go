package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rharvest/reddit-harvester/internal/domain"
)

// SQLiteStore is the relational variant: posts and comments tables with a
// foreign key from comments.post_id to posts.id. Each save runs in one
// transaction; on any failure the transaction rolls back and no partial
// writes persist.
type SQLiteStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ Backend = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if necessary) the database at path and
// migrates the posts and comments tables.
func NewSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&domain.Post{}, &domain.Comment{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	log.Info("initialized sqlite storage", "path", path)
	return &SQLiteStore{db: db, logger: log}, nil
}

func (s *SQLiteStore) SavePosts(ctx context.Context, posts []domain.Post) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range posts {
			post := posts[i]
			post.Comments = nil
			var existing domain.Post
			err := tx.First(&existing, "id = ?", post.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&post).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				// Save updates every column, giving full-replace semantics.
				if err := tx.Save(&post).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving posts to sqlite: %w", err)
	}
	s.logger.Info("saved posts to sqlite", "count", len(posts))
	return nil
}

func (s *SQLiteStore) SaveComments(ctx context.Context, comments []domain.Comment) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range comments {
			comment := comments[i]
			var existing domain.Comment
			err := tx.First(&existing, "id = ?", comment.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&comment).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				if err := tx.Save(&comment).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving comments to sqlite: %w", err)
	}
	s.logger.Info("saved comments to sqlite", "count", len(comments))
	return nil
}

func (s *SQLiteStore) GetPosts(ctx context.Context, filter Filter) ([]domain.Post, error) {
	if err := filter.Validate(postFields); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&domain.Post{})
	for key, value := range filter {
		// key is validated against the column whitelist above.
		query = query.Where(key+" = ?", value)
	}
	var posts []domain.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("retrieving posts from sqlite: %w", err)
	}
	return posts, nil
}

func (s *SQLiteStore) GetComments(ctx context.Context, filter Filter) ([]domain.Comment, error) {
	if err := filter.Validate(commentFields); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&domain.Comment{})
	for key, value := range filter {
		query = query.Where(key+" = ?", value)
	}
	var comments []domain.Comment
	if err := query.Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("retrieving comments from sqlite: %w", err)
	}
	return comments, nil
}

// Close releases the underlying connection pool. Closing twice is a no-op.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
