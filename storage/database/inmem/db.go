// Package inmemdb provides map-backed repositories for tests and local hacking;
// nothing is persisted.
package inmemdb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/review"
	"github.com/darasahq/darasa/core/user"
)

type (
	DB struct {
		user        *userTable
		course      *courseTable
		enrollment  *enrollmentTable
		payment     *paymentTable
		certificate *certificateTable
		review      *reviewTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table   map[string]*course.Course
		modules map[string]*course.Module
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*enroll.Enrollment
	}

	paymentTable struct {
		sync.RWMutex
		table map[string]*enroll.Payment
	}

	certificateTable struct {
		sync.RWMutex
		table map[string]*enroll.Certificate
	}

	reviewTable struct {
		sync.RWMutex
		table    map[string]*review.Review
		wishlist map[string]*review.WishlistItem
	}
)

var _ core.DB = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		course:      &courseTable{table: make(map[string]*course.Course), modules: make(map[string]*course.Module)},
		enrollment:  &enrollmentTable{table: make(map[string]*enroll.Enrollment)},
		payment:     &paymentTable{table: make(map[string]*enroll.Payment)},
		certificate: &certificateTable{table: make(map[string]*enroll.Certificate)},
		review:      &reviewTable{table: make(map[string]*review.Review), wishlist: make(map[string]*review.WishlistItem)},
	}
	return db, nil
}

// Reset empties all tables; meant for use between tests.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.course.Lock()
	db.course.table = make(map[string]*course.Course)
	db.course.modules = make(map[string]*course.Module)
	db.course.Unlock()

	db.enrollment.Lock()
	db.enrollment.table = make(map[string]*enroll.Enrollment)
	db.enrollment.Unlock()

	db.payment.Lock()
	db.payment.table = make(map[string]*enroll.Payment)
	db.payment.Unlock()

	db.certificate.Lock()
	db.certificate.table = make(map[string]*enroll.Certificate)
	db.certificate.Unlock()

	db.review.Lock()
	db.review.table = make(map[string]*review.Review)
	db.review.wishlist = make(map[string]*review.WishlistItem)
	db.review.Unlock()
}

// errNoSQL is returned by the raw SQL surface; repositories here never use it.
var errNoSQL = errors.New("inmemdb: raw SQL not supported")

func (db *DB) Exec(string, ...interface{}) (sql.Result, error) { return nil, errNoSQL }
func (db *DB) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}
func (db *DB) Query(string, ...interface{}) (*sql.Rows, error) { return nil, errNoSQL }
func (db *DB) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}
func (db *DB) QueryRow(string, ...interface{}) *sql.Row                          { return nil }
func (db *DB) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

func (db *DB) Begin() (core.DBTransactor, error) { return noopTx{}, nil }
func (db *DB) BeginTx(context.Context, *sql.TxOptions) (core.DBTransactor, error) {
	return noopTx{}, nil
}

// noopTx satisfies core.DBTransactor; writes go straight to the maps so
// commit and rollback have nothing to do.
type noopTx struct{}

func (noopTx) Exec(string, ...interface{}) (sql.Result, error) { return nil, errNoSQL }
func (noopTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}
func (noopTx) Query(string, ...interface{}) (*sql.Rows, error) { return nil, errNoSQL }
func (noopTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}
func (noopTx) QueryRow(string, ...interface{}) *sql.Row                          { return nil }
func (noopTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (noopTx) Commit() error                                                     { return nil }
func (noopTx) Rollback() error                                                   { return nil }
