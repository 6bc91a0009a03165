package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"metrika/internal/authz"
	"metrika/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Departments(ctx context.Context) ([]string, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	SetStatus(ctx context.Context, id int64, status models.UserStatus) error

	// gamification
	AwardXP(ctx context.Context, award models.XPAward) (models.XPResult, error)
	AdjustXP(ctx context.Context, userID int64, delta int) (models.XPResult, error)
	TouchStreak(ctx context.Context, userID int64, today time.Time) error
	UnlockAchievement(ctx context.Context, key string, badge models.Badge, award models.XPAward) (models.XPResult, error)
	CountAbove(ctx context.Context, xp int) (int, error)
	Leaderboard(ctx context.Context, since *time.Time, limit, offset int) ([]models.LeaderboardEntry, int, error)

	// refresh helpers
	UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(ctx context.Context, userID int64) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, name, email, password_hash, role_id, department, location, bio, avatar, phone, status,
	level, xp, badges, skills, current_streak, longest_streak, last_active_date, unlocked_achievements,
	join_date, refresh_token, refresh_expires_at, refresh_revoked, created_at, updated_at`

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	var (
		badges, skills []byte
		lastActive     sql.NullTime
		rt             sql.NullString
		rte            sql.NullTime
		unlocked       pq.StringArray
	)
	err := s.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID, &u.Department, &u.Location, &u.Bio, &u.Avatar, &u.Phone, &u.Status,
		&u.Level, &u.XP, &badges, &skills, &u.CurrentStreak, &u.LongestStreak, &lastActive, &unlocked,
		&u.JoinDate, &rt, &rte, &u.RefreshRevoked, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(badges, &u.Badges); err != nil {
		return nil, err
	}
	if err := fromJSON(skills, &u.Skills); err != nil {
		return nil, err
	}
	if lastActive.Valid {
		t := lastActive.Time
		u.LastActiveDate = &t
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	u.UnlockedAchievements = []string(unlocked)
	u.Role = authz.RoleName(u.RoleID)
	return u, nil
}

func (r *userRepository) queryUsers(ctx context.Context, q string, args ...any) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	badges, err := toJSON(nonNil(user.Badges))
	if err != nil {
		return err
	}
	skills, err := toJSON(nonNil(user.Skills))
	if err != nil {
		return err
	}
	if user.Status == "" {
		user.Status = models.UserOffline
	}
	const q = `
		INSERT INTO users (name, email, password_hash, role_id, department, location, bio, avatar, phone, status, badges, skills)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, level, xp, join_date, created_at, updated_at`
	err = r.DB.QueryRowContext(ctx, q,
		user.Name, user.Email, user.PasswordHash, user.RoleID, user.Department, user.Location,
		user.Bio, user.Avatar, user.Phone, user.Status, badges, skills,
	).Scan(&user.ID, &user.Level, &user.XP, &user.JoinDate, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return err
	}
	user.Role = authz.RoleName(user.RoleID)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY name`, pq.Int64Array(ids))
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	w := &where{}
	if filter.Department != nil && *filter.Department != "" {
		w.add("department = $%d", *filter.Department)
	}
	if filter.Status != nil && *filter.Status != "" {
		w.add("status = $%d", *filter.Status)
	}
	if filter.Search != nil && *filter.Search != "" {
		w.add("(name ILIKE $%[1]d OR email ILIKE $%[1]d)", likePattern(*filter.Search))
	}
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users`+w.sql()+` ORDER BY name`, w.args...)
}

func (r *userRepository) Departments(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT department FROM users WHERE department <> '' ORDER BY department`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	skills, err := toJSON(nonNil(user.Skills))
	if err != nil {
		return err
	}
	const q = `
		UPDATE users SET name=$1, department=$2, location=$3, bio=$4, avatar=$5, phone=$6, skills=$7, updated_at=NOW()
		WHERE id=$8
		RETURNING updated_at`
	return r.DB.QueryRowContext(ctx, q,
		user.Name, user.Department, user.Location, user.Bio, user.Avatar, user.Phone, skills, user.ID,
	).Scan(&user.UpdatedAt)
}

func (r *userRepository) SetStatus(ctx context.Context, id int64, status models.UserStatus) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

// AwardXP records the award in the ledger and, only if the key is new,
// increments xp and recomputes level in the same statement.
func (r *userRepository) AwardXP(ctx context.Context, award models.XPAward) (models.XPResult, error) {
	res := models.XPResult{Amount: award.Amount}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	var ledgerID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO xp_awards (award_key, user_id, amount, event)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (award_key) DO NOTHING
		RETURNING id`,
		award.Key, award.UserID, award.Amount, award.Event,
	).Scan(&ledgerID)
	if errors.Is(err, sql.ErrNoRows) {
		// already applied
		err = tx.QueryRowContext(ctx, `SELECT xp, level FROM users WHERE id=$1`, award.UserID).Scan(&res.XP, &res.Level)
		res.PrevLevel = res.Level
		return res, err
	}
	if err != nil {
		return res, err
	}

	if err := applyXP(ctx, tx, award.UserID, award.Amount, &res); err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	res.Applied = true
	return res, nil
}

// AdjustXP is the administrative correction path; xp is clamped at 0 and
// level follows xp in either direction.
func (r *userRepository) AdjustXP(ctx context.Context, userID int64, delta int) (models.XPResult, error) {
	res := models.XPResult{Amount: delta}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := applyXP(ctx, tx, userID, delta, &res); err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	res.Applied = true
	return res, nil
}

// applyXP locks the user row, then adds delta and derives level from the
// new xp in a single statement.
func applyXP(ctx context.Context, tx *sql.Tx, userID int64, delta int, res *models.XPResult) error {
	if err := tx.QueryRowContext(ctx, `SELECT level FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&res.PrevLevel); err != nil {
		return err
	}
	return tx.QueryRowContext(ctx, `
		UPDATE users SET
			xp = GREATEST(xp + $1, 0),
			level = GREATEST(xp + $1, 0) / 1000 + 1,
			updated_at = NOW()
		WHERE id = $2
		RETURNING xp, level`, delta, userID,
	).Scan(&res.XP, &res.Level)
}

func (r *userRepository) TouchStreak(ctx context.Context, userID int64, today time.Time) error {
	day := today.Format("2006-01-02")
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET
			current_streak = CASE
				WHEN last_active_date = $1::date THEN current_streak
				WHEN last_active_date = $1::date - 1 THEN current_streak + 1
				ELSE 1 END,
			longest_streak = GREATEST(longest_streak, CASE
				WHEN last_active_date = $1::date THEN current_streak
				WHEN last_active_date = $1::date - 1 THEN current_streak + 1
				ELSE 1 END),
			last_active_date = $1::date
		WHERE id = $2`, day, userID)
	return err
}

// UnlockAchievement adds key to the unlocked set, appends the badge and
// applies the achievement award in one transaction. Applied is false when
// the key was already unlocked; nothing is written then.
func (r *userRepository) UnlockAchievement(ctx context.Context, key string, badge models.Badge, award models.XPAward) (models.XPResult, error) {
	res := models.XPResult{Amount: award.Amount}
	b, err := toJSON([]models.Badge{badge})
	if err != nil {
		return res, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	out, err := tx.ExecContext(ctx, `
		UPDATE users SET
			unlocked_achievements = array_append(unlocked_achievements, $1),
			badges = badges || $2::jsonb,
			updated_at = NOW()
		WHERE id = $3 AND NOT ($1 = ANY(unlocked_achievements))`, key, b, award.UserID)
	if err != nil {
		return res, err
	}
	if n, err := out.RowsAffected(); err != nil || n == 0 {
		return res, err
	}

	var ledgerID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO xp_awards (award_key, user_id, amount, event)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (award_key) DO NOTHING
		RETURNING id`,
		award.Key, award.UserID, award.Amount, award.Event,
	).Scan(&ledgerID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// xp уже начислен ранее, только бейдж
		err = tx.QueryRowContext(ctx, `SELECT xp, level FROM users WHERE id=$1`, award.UserID).Scan(&res.XP, &res.Level)
		res.PrevLevel = res.Level
	case err == nil:
		err = applyXP(ctx, tx, award.UserID, award.Amount, &res)
	}
	if err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	res.Applied = true
	return res, nil
}

func (r *userRepository) CountAbove(ctx context.Context, xp int) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE xp > $1`, xp).Scan(&n)
	return n, err
}

// Leaderboard ranks by total xp, or by xp earned in activities since the
// given instant. Ties share a rank.
func (r *userRepository) Leaderboard(ctx context.Context, since *time.Time, limit, offset int) ([]models.LeaderboardEntry, int, error) {
	var (
		q    string
		args []any
	)
	if since == nil {
		q = `
			SELECT RANK() OVER (ORDER BY xp DESC), id, name, avatar, role_id, department, xp, level, COUNT(*) OVER()
			FROM users
			ORDER BY xp DESC, id
			LIMIT $1 OFFSET $2`
		args = []any{limit, offset}
	} else {
		q = `
			WITH earned AS (
				SELECT user_id, SUM(xp_earned)::int AS xp FROM activities
				WHERE created_at >= $1 AND xp_earned > 0
				GROUP BY user_id
			)
			SELECT RANK() OVER (ORDER BY e.xp DESC), u.id, u.name, u.avatar, u.role_id, u.department, e.xp, u.level, COUNT(*) OVER()
			FROM earned e JOIN users u ON u.id = e.user_id
			ORDER BY e.xp DESC, u.id
			LIMIT $2 OFFSET $3`
		args = []any{*since, limit, offset}
	}

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out   []models.LeaderboardEntry
		total int
	)
	for rows.Next() {
		var (
			e      models.LeaderboardEntry
			roleID int
		)
		if err := rows.Scan(&e.Rank, &e.UserID, &e.Name, &e.Avatar, &roleID, &e.Department, &e.XP, &e.Level, &total); err != nil {
			return nil, 0, err
		}
		e.Role = authz.RoleName(roleID)
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *userRepository) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE, updated_at=NOW()
		WHERE id=$3`, token, expiresAt, userID)
	return err
}

// RotateRefresh swaps a live refresh token for a new one; it returns nil when
// the old token is unknown, expired or revoked.
func (r *userRepository) RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `
		UPDATE users SET refresh_token=$1, refresh_expires_at=$2, updated_at=NOW()
		WHERE refresh_token=$3 AND refresh_revoked=FALSE AND refresh_expires_at > NOW()
		RETURNING `+userColumns, newToken, newExpiresAt, oldToken))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE, updated_at=NOW()
		WHERE id=$1`, userID)
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
