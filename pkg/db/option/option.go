package option

import (
	"strings"

	"github.com/draughtlab/kegmon/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type optionFunc func(*gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// ApplyPagination decodes the cursor token and applies a limit of
// page_size+1 so callers can detect whether another page exists.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 50
		}
		if page.PageToken != "" {
			if cursor, err := pagination.DecodeCursor(page.PageToken); err == nil && cursor.CreatedAt != "" {
				db = db.Where("created_at < ?", cursor.CreatedAt)
			}
		}
		return db.Limit(size + 1)
	})
}

// WithOrder applies a whitelisted ORDER BY clause.
func WithOrder(column, direction string) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		dir := "asc"
		if strings.EqualFold(direction, "desc") {
			dir = "desc"
		}
		return db.Order(column + " " + dir)
	})
}
