package prayer

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// keepDays bounds how many past days the cache retains
const keepDays = 30

// CachedDay is one persisted schedule, keyed by local calendar date
type CachedDay struct {
	Date      string    `gorm:"primaryKey;type:varchar(10)"`
	Hijri     string    `gorm:"type:varchar(64)"`
	Readable  string    `gorm:"type:varchar(32)"`
	Imsak     string    `gorm:"type:varchar(5)"`
	Subuh     string    `gorm:"type:varchar(5)"`
	Terbit    string    `gorm:"type:varchar(5)"`
	Dzuhur    string    `gorm:"type:varchar(5)"`
	Ashar     string    `gorm:"type:varchar(5)"`
	Maghrib   string    `gorm:"type:varchar(5)"`
	Isya      string    `gorm:"type:varchar(5)"`
	FetchedAt time.Time `gorm:"not null"`
}

// Cache persists fetched schedules in SQLite so a restart does not leave
// the landing page empty while the API is unreachable.
type Cache struct {
	db *gorm.DB
}

// OpenCache opens (or creates) the cache database at path
func OpenCache(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open prayer cache: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// SQLite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&CachedDay{}); err != nil {
		return nil, fmt.Errorf("failed to migrate prayer cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func dateKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// Save stores the schedule for day and drops entries older than keepDays
func (c *Cache) Save(day time.Time, t *Times) error {
	row := CachedDay{
		Date:      dateKey(day),
		Hijri:     t.Hijri,
		Readable:  t.Date,
		Imsak:     t.Imsak,
		Subuh:     t.Subuh,
		Terbit:    t.Terbit,
		Dzuhur:    t.Dzuhur,
		Ashar:     t.Ashar,
		Maghrib:   t.Maghrib,
		Isya:      t.Isya,
		FetchedAt: t.FetchedAt,
	}
	if err := c.db.Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save prayer times: %w", err)
	}

	cutoff := dateKey(day.AddDate(0, 0, -keepDays))
	if err := c.db.Where("date < ?", cutoff).Delete(&CachedDay{}).Error; err != nil {
		return fmt.Errorf("failed to prune prayer cache: %w", err)
	}
	return nil
}

// Load returns the stored schedule for day, or nil when there is none
func (c *Cache) Load(day time.Time) (*Times, error) {
	var row CachedDay
	err := c.db.Where("date = ?", dateKey(day)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prayer times: %w", err)
	}

	return &Times{
		Date:      row.Readable,
		Hijri:     row.Hijri,
		Imsak:     row.Imsak,
		Subuh:     row.Subuh,
		Terbit:    row.Terbit,
		Dzuhur:    row.Dzuhur,
		Ashar:     row.Ashar,
		Maghrib:   row.Maghrib,
		Isya:      row.Isya,
		FetchedAt: row.FetchedAt,
	}, nil
}

// Close releases the database handle
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
