package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blog-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const reorganizeBatchSize = 200

// ErrSequenceNotReset reports a committed reorganization whose id counter
// could not be moved afterwards.
var ErrSequenceNotReset = errors.New("id sequence not reset")

// BlogFilter is an already-normalized listing request: Page and Limit are
// positive and SortColumn is a real column name.
type BlogFilter struct {
	Page       int
	Limit      int
	Author     string
	Title      string
	Search     string
	MinAge     *int
	MaxAge     *int
	SortColumn string
	SortDesc   bool
}

type BlogRepository interface {
	Create(ctx context.Context, post *model.BlogPost) error
	FindActiveByID(ctx context.Context, id uint) (*model.BlogPost, error)
	List(ctx context.Context, f BlogFilter) ([]model.BlogPost, int64, error)
	ListAll(ctx context.Context) ([]model.BlogPost, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*model.BlogPost, error)
	SetDeleted(ctx context.Context, id uint, deleted bool) (bool, error)
	Reorganize(ctx context.Context) (int, error)
	SyncSequence(ctx context.Context) error
}

type BlogRepositoryImpl struct {
	db *gorm.DB

	// afterCommit runs once a reorganization has committed
	afterCommit func(db *gorm.DB, last int) error
}

func NewBlogRepository(db *gorm.DB) *BlogRepositoryImpl {
	r := &BlogRepositoryImpl{db: db}
	// MySQL commits implicitly on DDL, so its counter is moved after the rewrite.
	if db.Dialector.Name() == "mysql" {
		r.afterCommit = resetMySQLAutoIncrement
	}
	return r
}

// activeScope is the single place soft-deleted posts are excluded from reads.
func activeScope(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func filterScope(f BlogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Author != "" {
			db = db.Where("LOWER(author) LIKE ? ESCAPE '!'", containsPattern(f.Author))
		}
		if f.Title != "" {
			db = db.Where("LOWER(title) LIKE ? ESCAPE '!'", containsPattern(f.Title))
		}
		if f.Search != "" {
			p := containsPattern(f.Search)
			db = db.Where(
				"(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(author) LIKE ? ESCAPE '!' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '!')",
				p, p, p,
			)
		}
		if f.MinAge != nil {
			db = db.Where("age >= ?", *f.MinAge)
		}
		if f.MaxAge != nil {
			db = db.Where("age <= ?", *f.MaxAge)
		}
		return db
	}
}

func (r *BlogRepositoryImpl) Create(ctx context.Context, post *model.BlogPost) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("repository.CreatePost: %w", err)
	}
	return nil
}

func (r *BlogRepositoryImpl) FindActiveByID(ctx context.Context, id uint) (*model.BlogPost, error) {
	var post model.BlogPost
	if err := r.db.WithContext(ctx).Scopes(activeScope).First(&post, id).Error; err != nil {
		return nil, notFound("repository.FindActivePost", err)
	}
	return &post, nil
}

func (r *BlogRepositoryImpl) List(ctx context.Context, f BlogFilter) ([]model.BlogPost, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.BlogPost{}).Scopes(activeScope, filterScope(f))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("repository.CountPosts: %w", err)
	}

	q := base().
		Order(clause.OrderByColumn{Column: clause.Column{Name: f.SortColumn}, Desc: f.SortDesc})
	if f.SortColumn != "id" {
		q = q.Order("id ASC")
	}

	posts := make([]model.BlogPost, 0, f.Limit)
	if err := q.Offset((f.Page - 1) * f.Limit).Limit(f.Limit).Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("repository.ListPosts: %w", err)
	}
	return posts, total, nil
}

// ListAll returns every post, soft-deleted included.
func (r *BlogRepositoryImpl) ListAll(ctx context.Context) ([]model.BlogPost, error) {
	var posts []model.BlogPost
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("repository.ListAllPosts: %w", err)
	}
	return posts, nil
}

func (r *BlogRepositoryImpl) Update(ctx context.Context, id uint, fields map[string]interface{}) (*model.BlogPost, error) {
	var post model.BlogPost
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(activeScope).First(&post, id).Error; err != nil {
			return notFound("repository.UpdatePost", err)
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&post).Updates(fields).Error; err != nil {
			return fmt.Errorf("repository.UpdatePost: %w", err)
		}
		return tx.First(&post, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *BlogRepositoryImpl) SetDeleted(ctx context.Context, id uint, deleted bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.BlogPost{}).
		Where("id = ? AND is_deleted = ?", id, !deleted).
		Update("is_deleted", deleted)
	if res.Error != nil {
		return false, fmt.Errorf("repository.SetPostDeleted: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Reorganize rewrites blog_posts inside one transaction: active rows are
// staged in creation order, the table is cleared (soft-deleted rows are
// purged), and the staged rows are written back with ids 1..N. The id
// sequence is then reset so the next insert receives N+1. Any failure rolls
// the whole rewrite back. A counter reset that can only run after the commit
// and fails is returned as ErrSequenceNotReset alongside the renumbered count.
func (r *BlogRepositoryImpl) Reorganize(ctx context.Context) (int, error) {
	var renumbered int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			// readers proceed, writers wait for the commit
			if err := tx.Exec("LOCK TABLE blog_posts IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return fmt.Errorf("lock: %w", err)
			}
		}

		stage := tx.Scopes(activeScope).Order("created_at ASC").Order("id ASC")
		if tx.Dialector.Name() == "mysql" {
			stage = stage.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var staged []model.BlogPost
		if err := stage.Find(&staged).Error; err != nil {
			return fmt.Errorf("stage: %w", err)
		}
		for i := range staged {
			staged[i].ID = uint(i + 1)
		}

		if err := tx.Where("1 = 1").Delete(&model.BlogPost{}).Error; err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		if len(staged) > 0 {
			if err := tx.CreateInBatches(&staged, reorganizeBatchSize).Error; err != nil {
				return fmt.Errorf("rewrite: %w", err)
			}
		}
		if err := resetSequence(tx, len(staged)); err != nil {
			return fmt.Errorf("sequence: %w", err)
		}

		renumbered = len(staged)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("repository.Reorganize: %w", err)
	}

	if r.afterCommit != nil {
		if err := r.afterCommit(r.db.WithContext(ctx), renumbered); err != nil {
			return renumbered, fmt.Errorf("repository.Reorganize: %w: %v", ErrSequenceNotReset, err)
		}
	}
	return renumbered, nil
}

// SyncSequence aligns the id sequence with the highest existing id.
func (r *BlogRepositoryImpl) SyncSequence(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	var maxID int
	if err := db.Model(&model.BlogPost{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return fmt.Errorf("repository.SyncSequence: %w", err)
	}

	if db.Dialector.Name() == "mysql" {
		return resetMySQLAutoIncrement(db, maxID)
	}
	if err := resetSequence(db, maxID); err != nil {
		return fmt.Errorf("repository.SyncSequence: %w", err)
	}
	return nil
}

func resetSequence(tx *gorm.DB, last int) error {
	table := model.BlogPost{}.TableName()
	switch tx.Dialector.Name() {
	case "sqlite":
		return tx.Exec("UPDATE sqlite_sequence SET seq = ? WHERE name = ?", last, table).Error
	case "postgres":
		if last == 0 {
			return tx.Exec("SELECT setval(pg_get_serial_sequence(?, 'id'), 1, false)", table).Error
		}
		return tx.Exec("SELECT setval(pg_get_serial_sequence(?, 'id'), ?)", table, last).Error
	}
	return nil
}

func resetMySQLAutoIncrement(db *gorm.DB, last int) error {
	stmt := fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d", model.BlogPost{}.TableName(), last+1)
	return db.Exec(stmt).Error
}
