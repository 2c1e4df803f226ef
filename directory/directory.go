// Package directory keeps user accounts in a sqlite database.
//
// Sessions only hold a weak reference to users (the user id), so the
// directory never looks at session state, it just stores whatever
// session_id the login flow decides to record.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/andrebq/turnstile/credentials"
	"github.com/mattn/go-sqlite3"
)

type (
	Directory struct {
		db       *sql.DB
		hashCost int
	}

	User struct {
		ID             int64  `json:"id"`
		Email          string `json:"email"`
		HashedPassword string `json:"-"`
		SessionID      string `json:"-"`
		ResetToken     string `json:"-"`
	}

	// Attrs filters or updates users by column name,
	// valid names are listed in userColumns
	Attrs map[string]interface{}

	// UserFinder is the read side of the directory
	UserFinder interface {
		FindUserBy(ctx context.Context, attrs Attrs) (*User, error)
	}
)

var (
	userColumns = map[string]bool{
		"id":              true,
		"email":           true,
		"hashed_password": true,
		"session_id":      true,
		"reset_token":     true,
	}
)

func openDatabase(ctx context.Context, file string) (*sql.DB, error) {
	err := os.MkdirAll(filepath.Dir(file), 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory to store %v, cause %w", file, err)
	}
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%v?_journal=wal&_busy_timeout=5000&mode=rwc", file))
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %w", file, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping user database %v, cause %w", file, err)
	}
	return conn, nil
}

// Open loads (or creates) the user database stored at file
func Open(ctx context.Context, file string) (*Directory, error) {
	conn, err := openDatabase(ctx, file)
	if err != nil {
		return nil, err
	}
	d := &Directory{db: conn, hashCost: credentials.DefaultCost}
	err = d.init(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to init user database %v, cause %w", file, err)
	}
	return d, nil
}

// SetHashCost changes the bcrypt cost used by Register
func (d *Directory) SetHashCost(cost int) {
	d.hashCost = cost
}

func (d *Directory) AddUser(ctx context.Context, email, hashedPassword string) (*User, error) {
	res, err := d.db.ExecContext(ctx, `insert into users(email, hashed_password) values (?, ?)`, email, hashedPassword)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return nil, DuplicateEmail{Email: email}
	} else if err != nil {
		return nil, fmt.Errorf("unable to add user, cause %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("unable to read id of new user, cause %w", err)
	}
	return &User{ID: id, Email: email, HashedPassword: hashedPassword}, nil
}

// FindUserBy returns the first user matching all attrs.
func (d *Directory) FindUserBy(ctx context.Context, attrs Attrs) (*User, error) {
	where, args, err := buildClause(attrs, " and ", false)
	if err != nil {
		return nil, err
	}
	var u User
	var session, reset sql.NullString
	err = d.db.QueryRowContext(ctx, `select id, email, hashed_password, session_id, reset_token
		from users where `+where+` order by id asc limit 1`, args...).
		Scan(&u.ID, &u.Email, &u.HashedPassword, &session, &reset)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, UserNotFound{Attrs: attrs}
	} else if err != nil {
		return nil, fmt.Errorf("unable to lookup user, cause %w", err)
	}
	u.SessionID = session.String
	u.ResetToken = reset.String
	return &u, nil
}

// FindUserByID is a shortcut for FindUserBy(ctx, Attrs{"id": id}), id
// can be given in its string form since that is how sessions refer to users.
func (d *Directory) FindUserByID(ctx context.Context, id string) (*User, error) {
	return FindUserByID(ctx, d, id)
}

// UpdateUser changes the given attributes of user id, empty strings
// are stored as null.
func (d *Directory) UpdateUser(ctx context.Context, id int64, attrs Attrs) error {
	if _, ok := attrs["id"]; ok {
		return InvalidAttribute{Name: "id"}
	}
	set, args, err := buildClause(attrs, ", ", true)
	if err != nil {
		return err
	}
	args = append(args, id)
	res, err := d.db.ExecContext(ctx, `update users set `+set+` where id = ?`, args...)
	if err != nil {
		return fmt.Errorf("unable to update user %v, cause %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to update user %v, cause %w", id, err)
	}
	if n == 0 {
		return UserNotFound{Attrs: Attrs{"id": id}}
	}
	return nil
}

func (d *Directory) Close() error {
	return d.db.Close()
}

func (d *Directory) init(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `create table if not exists users(
		id integer primary key autoincrement,
		email text not null unique,
		hashed_password text not null,
		session_id text,
		reset_token text
	)`)
	return err
}

// FindUserByID parses id and looks it up using finder
func FindUserByID(ctx context.Context, finder UserFinder, id string) (*User, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, UserNotFound{Attrs: Attrs{"id": id}}
	}
	return finder.FindUserBy(ctx, Attrs{"id": n})
}

func buildClause(attrs Attrs, sep string, emptyAsNull bool) (string, []interface{}, error) {
	if len(attrs) == 0 {
		return "", nil, InvalidAttribute{}
	}
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		if !userColumns[k] {
			return "", nil, InvalidAttribute{Name: k}
		}
		names = append(names, k)
	}
	// sorted so the same attrs always produce the same sql
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	args := make([]interface{}, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+" = ?")
		v := attrs[n]
		if s, ok := v.(string); ok && s == "" && emptyAsNull {
			v = nil
		}
		args = append(args, v)
	}
	return strings.Join(parts, sep), args, nil
}
