package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"metrika/internal/authz"
	"metrika/internal/models"
	"metrika/internal/repositories"
	"metrika/internal/search"
	"metrika/internal/utils"
)

type UserService interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, patch models.ProfilePatch) (*models.User, error)
	SetStatus(ctx context.Context, id int64, status models.UserStatus) error

	Stats(ctx context.Context, id int64) (*models.UserStats, error)
	Tasks(ctx context.Context, id int64, status string) ([]models.Task, error)
	Projects(ctx context.Context, id int64) ([]models.Project, error)
	Activity(ctx context.Context, id int64) ([]models.Activity, error)

	// Praise is keyed by requestID; repeating a request id repeats nothing.
	Praise(ctx context.Context, actorID, targetID int64, message, requestID string) (models.XPResult, error)
	AssignTask(ctx context.Context, actorID, targetID int64, taskID *int64, draft *models.Task) (*models.Task, error)

	Members(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Departments(ctx context.Context) ([]string, error)
	Invite(ctx context.Context, actorID int64, req models.InviteRequest) (*models.User, error)
}

type userService struct {
	repo         repositories.UserRepository
	tasks        repositories.TaskRepository
	projects     repositories.ProjectRepository
	taskService  TaskService
	gamification GamificationService
	activities   ActivityService
	notifier     NotificationService
	auth         AuthService
	emailService EmailService
	index        indexer
}

func NewUserService(
	repo repositories.UserRepository,
	tasks repositories.TaskRepository,
	projects repositories.ProjectRepository,
	taskService TaskService,
	gamification GamificationService,
	activities ActivityService,
	notifier NotificationService,
	auth AuthService,
	emailService EmailService,
	idx search.Index,
) UserService {
	return &userService{
		repo:         repo,
		tasks:        tasks,
		projects:     projects,
		taskService:  taskService,
		gamification: gamification,
		activities:   activities,
		notifier:     notifier,
		auth:         auth,
		emailService: emailService,
		index:        indexer{index: idx},
	}
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id int64, p models.ProfilePatch) (*models.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		u.Name = name
	}
	if p.Department != nil {
		u.Department = *p.Department
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Skills != nil {
		for _, sk := range p.Skills {
			if sk.Level < 0 || sk.Level > 100 {
				return nil, fmt.Errorf("%w: skill level must be within 0..100", ErrValidation)
			}
		}
		u.Skills = p.Skills
	}
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	s.index.put(ctx, userDoc(u))
	return u, nil
}

func (s *userService) SetStatus(ctx context.Context, id int64, status models.UserStatus) error {
	switch status {
	case models.UserOnline, models.UserBusy, models.UserOffline, models.UserAway:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.repo.SetStatus(ctx, id, status)
}

func (s *userService) Stats(ctx context.Context, id int64) (*models.UserStats, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	st, err := s.tasks.StatsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	st.TotalProjects, st.ActiveProjects, err = s.projects.CountFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Tasks: status=active отдает все незавершенные, иначе фильтр по статусу.
func (s *userService) Tasks(ctx context.Context, id int64, status string) ([]models.Task, error) {
	filter := models.TaskFilter{AssigneeID: &id}
	switch status {
	case "":
	case "active":
		filter.ActiveOnly = true
	default:
		st := models.TaskStatus(status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		filter.Status = &st
	}
	items, _, err := s.tasks.FindAll(ctx, filter)
	return orEmpty(items), err
}

func (s *userService) Projects(ctx context.Context, id int64) ([]models.Project, error) {
	items, _, err := s.projects.List(ctx, models.ProjectFilter{MemberID: &id})
	return orEmpty(items), err
}

func (s *userService) Activity(ctx context.Context, id int64) ([]models.Activity, error) {
	items, err := s.activities.ForUser(ctx, id, 10)
	return orEmpty(items), err
}

func (s *userService) Praise(ctx context.Context, actorID, targetID int64, message, requestID string) (models.XPResult, error) {
	if actorID == targetID {
		return models.XPResult{}, fmt.Errorf("%w: you cannot praise yourself", ErrValidation)
	}
	target, err := s.GetByID(ctx, targetID)
	if err != nil {
		return models.XPResult{}, err
	}
	actor, err := s.GetByID(ctx, actorID)
	if err != nil {
		return models.XPResult{}, err
	}

	if requestID == "" {
		requestID = uuid.NewString()
	}
	key := fmt.Sprintf("praise:%d:%d:%s", actorID, targetID, requestID)
	res, err := s.gamification.Award(ctx, models.XPAward{Key: key, UserID: targetID, Amount: XPPraiseReceived, Event: "praise_received"})
	if err != nil {
		return res, err
	}

	var failed stepFailures
	failed.check(ctx, "activity", s.activities.Append(ctx, &models.Activity{
		UserID:         targetID,
		Action:         "was praised by " + actor.Name,
		Type:           models.ActivityPraise,
		Content:        message,
		XPEarned:       XPPraiseReceived,
		IdempotencyKey: &key,
	}), "target_id", targetID)
	failed.check(ctx, "notification", s.notifier.Notify(ctx, &models.Notification{
		RecipientID: target.ID,
		Type:        models.NotifySuccess,
		Title:       fmt.Sprintf("%s praised you", actor.Name),
		Message:     message,
		Context:     &models.NotificationContext{Kind: models.ContextXP, XP: XPPraiseReceived, Level: res.Level},
		DedupeKey:   &key,
	}), "target_id", targetID)

	if len(failed) > 0 {
		return res, fmt.Errorf("praise %d: %w: %s", targetID, ErrSideEffects, failed)
	}
	return res, nil
}

// AssignTask назначает существующую задачу или создает новую через жизненный цикл.
func (s *userService) AssignTask(ctx context.Context, actorID, targetID int64, taskID *int64, draft *models.Task) (*models.Task, error) {
	if _, err := s.GetByID(ctx, targetID); err != nil {
		return nil, err
	}
	if taskID != nil {
		return s.taskService.Update(ctx, actorID, *taskID, models.TaskPatch{AssigneeID: &targetID})
	}
	if draft == nil {
		return nil, fmt.Errorf("%w: taskId or a task is required", ErrValidation)
	}
	draft.AssigneeID = &targetID
	return s.taskService.Create(ctx, actorID, draft)
}

func (s *userService) Members(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	items, err := s.repo.List(ctx, filter)
	return orEmpty(items), err
}

func (s *userService) Departments(ctx context.Context) ([]string, error) {
	items, err := s.repo.Departments(ctx)
	return orEmpty(items), err
}

// Invite создает пользователя с временным паролем и отправляет письмо.
func (s *userService) Invite(ctx context.Context, actorID int64, req models.InviteRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("email %s is taken: %w", email, ErrConflict)
	}

	temp, err := utils.TempPassword(12)
	if err != nil {
		return nil, err
	}
	hash, err := s.auth.HashPassword(temp)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		RoleID:       authz.RoleFromName(req.Role),
		Department:   req.Department,
		Status:       models.UserOffline,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "team member invited", "user_id", u.ID, "by", actorID)
	s.index.put(ctx, userDoc(u))

	if err := s.emailService.SendInviteEmail(u.Email, u.Name, temp); err != nil {
		// пользователь уже создан, письмо не критично
		slog.WarnContext(ctx, "invite email failed", "user_id", u.ID, "err", err)
	}
	return u, nil
}
