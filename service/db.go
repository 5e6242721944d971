package services

import "gorm.io/gorm"

// DBInterface is the chainable subset of gorm the services use. Keeping it as
// an interface lets tests drive the real service methods with a mock instead
// of a live database.
type DBInterface interface {
	Where(query interface{}, args ...interface{}) DBInterface
	First(dest interface{}, conds ...interface{}) DBInterface
	Find(dest interface{}, conds ...interface{}) DBInterface
	Create(value interface{}) DBInterface
	Save(value interface{}) DBInterface
	Model(value interface{}) DBInterface
	Updates(values interface{}) DBInterface
	Select(query interface{}, args ...interface{}) DBInterface
	Omit(fields ...string) DBInterface
	Order(value interface{}) DBInterface
	Limit(limit int) DBInterface
	Count(count *int64) DBInterface
	Error() error
	RowsAffected() int64
}

// GormDB adapts *gorm.DB to DBInterface. Every chain step wraps the new
// *gorm.DB gorm returns, so the adapter stays safe for concurrent requests.
type GormDB struct {
	db *gorm.DB
}

func NewGormDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

func (g *GormDB) Where(query interface{}, args ...interface{}) DBInterface {
	return &GormDB{db: g.db.Where(query, args...)}
}

func (g *GormDB) First(dest interface{}, conds ...interface{}) DBInterface {
	return &GormDB{db: g.db.First(dest, conds...)}
}

func (g *GormDB) Find(dest interface{}, conds ...interface{}) DBInterface {
	return &GormDB{db: g.db.Find(dest, conds...)}
}

func (g *GormDB) Create(value interface{}) DBInterface {
	return &GormDB{db: g.db.Create(value)}
}

func (g *GormDB) Save(value interface{}) DBInterface {
	return &GormDB{db: g.db.Save(value)}
}

func (g *GormDB) Model(value interface{}) DBInterface {
	return &GormDB{db: g.db.Model(value)}
}

func (g *GormDB) Updates(values interface{}) DBInterface {
	return &GormDB{db: g.db.Updates(values)}
}

func (g *GormDB) Select(query interface{}, args ...interface{}) DBInterface {
	return &GormDB{db: g.db.Select(query, args...)}
}

func (g *GormDB) Omit(fields ...string) DBInterface {
	return &GormDB{db: g.db.Omit(fields...)}
}

func (g *GormDB) Order(value interface{}) DBInterface {
	return &GormDB{db: g.db.Order(value)}
}

func (g *GormDB) Limit(limit int) DBInterface {
	return &GormDB{db: g.db.Limit(limit)}
}

func (g *GormDB) Count(count *int64) DBInterface {
	return &GormDB{db: g.db.Count(count)}
}

func (g *GormDB) Error() error {
	return g.db.Error
}

func (g *GormDB) RowsAffected() int64 {
	return g.db.RowsAffected
}
