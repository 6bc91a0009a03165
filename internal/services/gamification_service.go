package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"metrika/internal/metrics"
	"metrika/internal/models"
	"metrika/internal/repositories"
)

type GamificationService interface {
	// Award applies a keyed xp award once and refreshes the streak.
	Award(ctx context.Context, award models.XPAward) (models.XPResult, error)

	Profile(ctx context.Context, userID int64) (*models.GamificationProfile, error)
	Leaderboard(ctx context.Context, period string, page, limit int) (models.Page[models.LeaderboardEntry], error)
	Badges(ctx context.Context, userID int64) ([]models.BadgeStatus, error)
	Achievements(ctx context.Context, userID int64) ([]models.AchievementProgress, error)
	Unlock(ctx context.Context, userID int64, key string) (models.XPResult, error)
	AdjustXP(ctx context.Context, adminID, userID int64, delta int, reason string) (models.XPResult, error)
}

type gamificationService struct {
	users      repositories.UserRepository
	tasks      repositories.TaskRepository
	projects   repositories.ProjectRepository
	documents  repositories.DocumentRepository
	activities ActivityService
	notifier   NotificationService
	now        func() time.Time
}

func NewGamificationService(
	users repositories.UserRepository,
	tasks repositories.TaskRepository,
	projects repositories.ProjectRepository,
	documents repositories.DocumentRepository,
	activities ActivityService,
	notifier NotificationService,
) GamificationService {
	return &gamificationService{
		users:      users,
		tasks:      tasks,
		projects:   projects,
		documents:  documents,
		activities: activities,
		notifier:   notifier,
		now:        time.Now,
	}
}

func (s *gamificationService) Award(ctx context.Context, award models.XPAward) (models.XPResult, error) {
	if award.Key == "" || award.UserID == 0 {
		return models.XPResult{}, fmt.Errorf("%w: xp award needs a key and a user", ErrValidation)
	}
	res, err := s.users.AwardXP(ctx, award)
	if err != nil {
		return res, fmt.Errorf("award xp %s: %w", award.Key, err)
	}
	if !res.Applied {
		slog.DebugContext(ctx, "xp award replayed", "key", award.Key, "user_id", award.UserID)
		return res, nil
	}
	metrics.XPAwarded.WithLabelValues(award.Event).Add(float64(award.Amount))
	if err := s.users.TouchStreak(ctx, award.UserID, s.now()); err != nil {
		return res, fmt.Errorf("touch streak: %w", err)
	}
	slog.InfoContext(ctx, "xp awarded", "user_id", award.UserID, "event", award.Event, "amount", award.Amount,
		"xp", res.XP, "level", res.Level)
	return res, nil
}

func (s *gamificationService) mustUser(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return u, nil
}

func (s *gamificationService) Profile(ctx context.Context, userID int64) (*models.GamificationProfile, error) {
	u, err := s.mustUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	above, err := s.users.CountAbove(ctx, u.XP)
	if err != nil {
		return nil, err
	}
	recent, err := s.activities.RecentXP(ctx, userID, 5)
	if err != nil {
		return nil, err
	}
	return &models.GamificationProfile{
		UserID:         u.ID,
		Level:          u.Level,
		XP:             u.XP,
		XPToNextLevel:  u.XPToNextLevel(),
		Badges:         u.Badges,
		Skills:         u.Skills,
		CurrentStreak:  u.CurrentStreak,
		LongestStreak:  u.LongestStreak,
		Rank:           above + 1,
		RecentActivity: recent,
	}, nil
}

// Leaderboard ranks by total xp for "all-time", otherwise by xp earned in the
// trailing week or month.
func (s *gamificationService) Leaderboard(ctx context.Context, period string, page, limit int) (models.Page[models.LeaderboardEntry], error) {
	page, limit = normalizePage(page, limit)
	var since *time.Time
	switch period {
	case "", "all-time":
	case "week":
		since = ptr(startOfDay(s.now()).AddDate(0, 0, -7))
	case "month":
		since = ptr(startOfDay(s.now()).AddDate(0, -1, 0))
	default:
		return models.Page[models.LeaderboardEntry]{}, fmt.Errorf("%w: unknown period %q", ErrValidation, period)
	}
	entries, total, err := s.users.Leaderboard(ctx, since, limit, (page-1)*limit)
	if err != nil {
		return models.Page[models.LeaderboardEntry]{}, err
	}
	return models.NewPage(entries, page, limit, total), nil
}

func (s *gamificationService) Badges(ctx context.Context, userID int64) ([]models.BadgeStatus, error) {
	u, err := s.mustUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.BadgeStatus, 0, len(AchievementCatalog))
	for _, a := range AchievementCatalog {
		out = append(out, models.BadgeStatus{
			Name:        a.Name,
			Icon:        a.Icon,
			Color:       a.Color,
			Description: a.Description,
			Earned:      u.HasAchievement(a.Key),
		})
	}
	return out, nil
}

func (s *gamificationService) counters(ctx context.Context, u *models.User) (AchievementCounters, error) {
	c := AchievementCounters{Streak: u.CurrentStreak, Level: u.Level}
	var err error
	if c.CompletedTasks, err = s.tasks.CountDoneFor(ctx, u.ID); err != nil {
		return c, err
	}
	if c.Projects, _, err = s.projects.CountFor(ctx, u.ID); err != nil {
		return c, err
	}
	if c.Documents, err = s.documents.CountByUploader(ctx, u.ID); err != nil {
		return c, err
	}
	return c, nil
}

func (s *gamificationService) Achievements(ctx context.Context, userID int64) ([]models.AchievementProgress, error) {
	u, err := s.mustUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c, err := s.counters(ctx, u)
	if err != nil {
		return nil, err
	}
	return EvaluateAchievements(c, u.UnlockedAchievements), nil
}

// Unlock is an explicit claim. Eligibility is shown by Achievements but not
// enforced here. The badge and its xp are written together; the activity and
// notification follow by key, so a repeated claim after a partial failure
// fills them in before reporting ErrAlreadyUnlocked.
func (s *gamificationService) Unlock(ctx context.Context, userID int64, key string) (models.XPResult, error) {
	ach, ok := FindAchievement(key)
	if !ok {
		return models.XPResult{}, fmt.Errorf("achievement %q: %w", key, ErrNotFound)
	}
	u, err := s.mustUser(ctx, userID)
	if err != nil {
		return models.XPResult{}, err
	}
	awardKey := fmt.Sprintf("achievement:%d:%s", userID, key)
	if u.HasAchievement(key) {
		s.resumeUnlock(ctx, u, ach, awardKey)
		return models.XPResult{}, fmt.Errorf("%q: %w", key, ErrAlreadyUnlocked)
	}

	badge := models.Badge{Name: ach.Name, Icon: ach.Icon, Color: ach.Color, EarnedAt: s.now()}
	award := models.XPAward{Key: awardKey, UserID: userID, Amount: ach.XP, Event: "achievement"}
	res, err := s.users.UnlockAchievement(ctx, key, badge, award)
	if err != nil {
		return models.XPResult{}, fmt.Errorf("unlock %q: %w", key, err)
	}
	if !res.Applied {
		return models.XPResult{}, fmt.Errorf("%q: %w", key, ErrAlreadyUnlocked)
	}
	metrics.AchievementsUnlocked.Inc()
	metrics.XPAwarded.WithLabelValues(award.Event).Add(float64(award.Amount))
	slog.InfoContext(ctx, "achievement unlocked", "user_id", userID, "key", key, "xp", res.XP, "level", res.Level)

	var failed stepFailures
	failed.check(ctx, "streak", s.users.TouchStreak(ctx, userID, s.now()), "achievement", key)
	s.announceUnlock(ctx, &failed, userID, ach, awardKey, res.Level)

	if len(failed) > 0 {
		return res, fmt.Errorf("unlock %q: %w: %s", key, ErrSideEffects, failed)
	}
	return res, nil
}

func (s *gamificationService) announceUnlock(ctx context.Context, failed *stepFailures, userID int64, ach models.Achievement, awardKey string, level int) {
	failed.check(ctx, "activity", s.activities.Append(ctx, &models.Activity{
		UserID:         userID,
		Action:         "unlocked achievement",
		Type:           models.ActivityAchievement,
		Content:        ach.Name,
		XPEarned:       ach.XP,
		IdempotencyKey: &awardKey,
	}), "achievement", ach.Key)

	failed.check(ctx, "notification", s.notifier.Notify(ctx, &models.Notification{
		RecipientID: userID,
		Type:        models.NotifyBadge,
		Title:       "Achievement unlocked: " + ach.Name,
		Message:     fmt.Sprintf("%s %s (+%d XP)", ach.Icon, ach.Description, ach.XP),
		Context:     &models.NotificationContext{Kind: models.ContextBadge, BadgeName: ach.Name, XP: ach.XP, Level: level},
		DedupeKey:   &awardKey,
	}), "achievement", ach.Key)
}

// resumeUnlock replays the keyed follow-up steps of an earlier unlock.
// Both are no-ops when the first attempt already wrote them.
func (s *gamificationService) resumeUnlock(ctx context.Context, u *models.User, ach models.Achievement, awardKey string) {
	var failed stepFailures
	s.announceUnlock(ctx, &failed, u.ID, ach, awardKey, u.Level)
	if len(failed) > 0 {
		slog.WarnContext(ctx, "unlock resume failed", "user_id", u.ID, "key", ach.Key, "steps", failed.String())
	}
}

// AdjustXP is the admin correction. xp is clamped at 0 and level follows it,
// so a negative delta may lower the level.
func (s *gamificationService) AdjustXP(ctx context.Context, adminID, userID int64, delta int, reason string) (models.XPResult, error) {
	if delta == 0 {
		return models.XPResult{}, fmt.Errorf("%w: delta must not be zero", ErrValidation)
	}
	if _, err := s.mustUser(ctx, userID); err != nil {
		return models.XPResult{}, err
	}
	res, err := s.users.AdjustXP(ctx, userID, delta)
	if err != nil {
		return res, err
	}
	slog.InfoContext(ctx, "xp adjusted", "admin_id", adminID, "user_id", userID, "delta", delta, "reason", reason,
		"xp", res.XP, "level", res.Level)

	var failed stepFailures
	failed.check(ctx, "activity", s.activities.Append(ctx, &models.Activity{
		UserID:   userID,
		Action:   "xp adjusted",
		Type:     models.ActivityAdjustment,
		Content:  reason,
		XPEarned: 0,
	}))
	if len(failed) > 0 {
		return res, fmt.Errorf("adjust xp: %w: %s", ErrSideEffects, failed)
	}
	return res, nil
}
