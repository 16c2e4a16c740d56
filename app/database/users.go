package database

import (
	"database/sql"

	"school-ops/app/consistency"
	"school-ops/app/models"
)

func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	query := `SELECT id, email, password, first_name, last_name, branch_id, role, is_active, created_at, updated_at
			  FROM users WHERE email = $1 AND is_active = true`

	user := &models.User{}
	err := db.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.Password, &user.FirstName,
		&user.LastName, &user.BranchID, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, consistency.NotFoundf("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
