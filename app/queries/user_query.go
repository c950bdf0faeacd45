package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/google/uuid"
)

type UserQueries struct {
	DB *sql.DB
}

const userColumns = `uid, name, username, email, password_hash, department, user_role, supervisor_email, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (models.User, error) {
	user := models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Department,
		&user.UserRole,
		&user.SupervisorEmail,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (q *UserQueries) getUserBy(ctx context.Context, column string, value interface{}) (models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

	user, err := scanUser(q.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, ErrNotFound
		}
		return user, fmt.Errorf("unable to get user: %w", err)
	}
	return user, nil
}

func (q *UserQueries) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return q.getUserBy(ctx, "uid", id)
}

func (q *UserQueries) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return q.getUserBy(ctx, "email", strings.ToLower(email))
}

func (q *UserQueries) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return q.getUserBy(ctx, "username", username)
}

func (q *UserQueries) CreateUser(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (uid, name, username, email, password_hash, department, user_role, supervisor_email, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := q.DB.ExecContext(ctx, query,
		u.ID,
		u.Name,
		u.Username,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.Department,
		u.UserRole,
		u.SupervisorEmail,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return userWriteError("create", err)
	}
	return nil
}

// UpdateUser writes the non-nil fields of req and returns the stored row.
func (q *UserQueries) UpdateUser(ctx context.Context, userID uuid.UUID, req *models.UpdateUserRequest) (models.User, error) {
	setClauses := []string{}
	args := []interface{}{}
	argID := 1

	set := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}

	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Email != nil {
		set("email", strings.ToLower(*req.Email))
	}
	if req.Department != nil {
		set("department", *req.Department)
	}
	if req.SupervisorEmail != nil {
		set("supervisor_email", *req.SupervisorEmail)
	}
	if req.UserRole != nil {
		set("user_role", *req.UserRole)
	}
	if req.PasswordHash != nil {
		set("password_hash", *req.PasswordHash)
	}

	if len(setClauses) == 0 {
		return q.GetUserByID(ctx, userID)
	}

	setClauses = append(setClauses, "updated_at = now()")
	query := fmt.Sprintf(`UPDATE users SET %s WHERE uid = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, userColumns)
	args = append(args, userID)

	user, err := scanUser(q.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, ErrNotFound
		}
		return user, userWriteError("update", err)
	}
	return user, nil
}

func (q *UserQueries) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := q.DB.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, id)
	if err != nil {
		return fmt.Errorf("unable to delete user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns users ordered by name, optionally narrowed to one department.
func (q *UserQueries) ListUsers(ctx context.Context, department string) ([]models.User, error) {
	users := []models.User{}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE ($1 = '' OR department = $1) ORDER BY name, email`, userColumns)

	rows, err := q.DB.QueryContext(ctx, query, department)
	if err != nil {
		return users, fmt.Errorf("unable to get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return users, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return users, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func userWriteError(op string, err error) error {
	if constraint, ok := uniqueConstraint(err); ok {
		switch constraint {
		case usersEmailKey:
			return ErrEmailTaken
		case usersUsernameKey:
			return ErrUsernameTaken
		}
	}
	return fmt.Errorf("unable to %s user: %w", op, err)
}
