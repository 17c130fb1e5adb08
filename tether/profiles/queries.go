package profiles

const (
	profileColumns = `id, username, email, external_id, first_name, last_name, email_verified, is_active, created_at, last_login`

	queryCreate = `
		INSERT INTO users (username, email, external_id, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + profileColumns + `
	`

	queryFindByUsername = `
		SELECT ` + profileColumns + `
		FROM users
		WHERE username = $1
	`

	queryFindByEmail = `
		SELECT ` + profileColumns + `
		FROM users
		WHERE email = $1
	`

	queryFindByExternalID = `
		SELECT ` + profileColumns + `
		FROM users
		WHERE external_id = $1
	`

	queryUpdateLastLogin = `
		UPDATE users
		SET last_login = NOW()
		WHERE email = $1
	`

	querySetEmailVerified = `
		UPDATE users
		SET email_verified = $1
		WHERE external_id = $2
	`

	querySetEmailVerifiedByEmail = `
		UPDATE users
		SET email_verified = $1
		WHERE email = $2
	`

	queryDeleteByExternalID = `
		DELETE FROM users
		WHERE external_id = $1
	`
)
