// internal/services/task_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"metrika/internal/metrics"
	"metrika/internal/models"
	"metrika/internal/repositories"
	"metrika/internal/search"
	"metrika/internal/storage"
)

// TaskService: жизненный цикл задачи: запись плюс побочные эффекты
// (xp, активность, уведомления, прогресс проекта).
type TaskService interface {
	List(ctx context.Context, filter models.TaskFilter, page, limit int) (models.Page[models.Task], error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	Create(ctx context.Context, actorID int64, task *models.Task) (*models.Task, error)
	Update(ctx context.Context, actorID, id int64, patch models.TaskPatch) (*models.Task, error)
	UpdateStatus(ctx context.Context, actorID, id int64, to models.TaskStatus) (*models.Task, error)
	Delete(ctx context.Context, id int64) error

	Reorder(ctx context.Context, actorID, projectID int64, items []models.ReorderItem) error
	StatsByStatus(ctx context.Context, projectID *int64) (models.TaskStatusCounts, error)

	AddComment(ctx context.Context, actorID, taskID int64, content string) (*models.TaskComment, error)
	ListComments(ctx context.Context, taskID int64) ([]models.TaskComment, error)
	LogTime(ctx context.Context, actorID, taskID int64, hours float64, note string) (*models.TimeLog, error)
	ListTimeLogs(ctx context.Context, taskID int64) ([]models.TimeLog, error)
	Activity(ctx context.Context, taskID int64) ([]models.Activity, error)
	AddAttachment(ctx context.Context, actorID, taskID int64, name string, body io.Reader, size int64) (*models.Attachment, error)

	LinkProject(ctx context.Context, taskID, projectID int64) (*models.Task, error)
	UnlinkProject(ctx context.Context, taskID, projectID int64) (*models.Task, error)
}

type taskService struct {
	repo         repositories.TaskRepository
	projects     repositories.ProjectRepository
	users        repositories.UserRepository
	gamification GamificationService
	activities   ActivityService
	notifier     NotificationService
	blobs        storage.BlobStore
	index        indexer
	now          func() time.Time
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(
	repo repositories.TaskRepository,
	projects repositories.ProjectRepository,
	users repositories.UserRepository,
	gamification GamificationService,
	activities ActivityService,
	notifier NotificationService,
	blobs storage.BlobStore,
	idx search.Index,
) TaskService {
	return &taskService{
		repo:         repo,
		projects:     projects,
		users:        users,
		gamification: gamification,
		activities:   activities,
		notifier:     notifier,
		blobs:        blobs,
		index:        indexer{index: idx},
		now:          time.Now,
	}
}

func (s *taskService) List(ctx context.Context, filter models.TaskFilter, page, limit int) (models.Page[models.Task], error) {
	page, limit = normalizePage(page, limit)
	filter.Limit, filter.Offset = limit, (page-1)*limit
	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return models.Page[models.Task]{}, err
	}
	return models.NewPage(items, page, limit, total), nil
}

func (s *taskService) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return t, nil
}

func (s *taskService) checkAssignee(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	u, err := s.users.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("assignee %d: %w", *id, ErrNotFound)
	}
	return nil
}

func (s *taskService) Create(ctx context.Context, actorID int64, task *models.Task) (*models.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if !task.Status.Valid() || !task.Priority.Valid() {
		return nil, fmt.Errorf("%w: bad status %q or priority %q", ErrValidation, task.Status, task.Priority)
	}
	if task.EstimatedHours < 0 || task.LoggedHours < 0 {
		return nil, fmt.Errorf("%w: hours must not be negative", ErrValidation)
	}
	project, err := s.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %d: %w", task.ProjectID, ErrNotFound)
	}
	if err := s.checkAssignee(ctx, task.AssigneeID); err != nil {
		return nil, err
	}

	task.CreatorID = actorID
	if task.Status == models.StatusDone {
		now := s.now()
		task.Completions = 1
		task.CompletedBy, task.CompletedAt = &actorID, &now
	}
	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}

	var failed stepFailures
	key := fmt.Sprintf("task:%d:create", task.ID)
	_, err = s.gamification.Award(ctx, models.XPAward{Key: key, UserID: actorID, Amount: XPTaskCreated, Event: "task_created"})
	failed.check(ctx, "xp", err, "task_id", task.ID)
	failed.check(ctx, "activity", s.activities.Append(ctx, &models.Activity{
		UserID:         actorID,
		ProjectID:      &task.ProjectID,
		TaskID:         &task.ID,
		Action:         "created task",
		Type:           models.ActivityCreate,
		Content:        task.Title,
		XPEarned:       XPTaskCreated,
		IdempotencyKey: &key,
	}), "task_id", task.ID)
	if task.AssigneeID != nil && *task.AssigneeID != actorID {
		failed.check(ctx, "notification", s.notifyAssigned(ctx, task, key), "task_id", task.ID)
	}
	if task.Status == models.StatusDone {
		s.completed(ctx, actorID, task, &failed)
	}
	s.index.put(ctx, taskDoc(task))

	if len(failed) > 0 {
		return task, fmt.Errorf("create task %d: %w: %s", task.ID, ErrSideEffects, failed)
	}
	return task, nil
}

func applyTaskPatch(t *models.Task, p models.TaskPatch) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		t.Title = title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrValidation, *p.Status)
		}
		t.Status = *p.Status
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return fmt.Errorf("%w: unknown priority %q", ErrValidation, *p.Priority)
		}
		t.Priority = *p.Priority
	}
	if p.AssigneeID != nil {
		t.AssigneeID = p.AssigneeID
	}
	if p.SprintID != nil {
		t.SprintID = p.SprintID
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.EstimatedHours != nil {
		if *p.EstimatedHours < 0 {
			return fmt.Errorf("%w: estimated hours must not be negative", ErrValidation)
		}
		t.EstimatedHours = *p.EstimatedHours
	}
	if p.LoggedHours != nil {
		if *p.LoggedHours < 0 {
			return fmt.Errorf("%w: logged hours must not be negative", ErrValidation)
		}
		t.LoggedHours = *p.LoggedHours
	}
	if p.Tags != nil {
		t.Tags = p.Tags
	}
	return nil
}

// Update применяет частичное обновление. Переход в Done из любого другого
// статуса это событие завершения; повторное сохранение Done задачи его не вызывает.
func (s *taskService) Update(ctx context.Context, actorID, id int64, patch models.TaskPatch) (*models.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := task.Status
	var oldAssignee int64
	if task.AssigneeID != nil {
		oldAssignee = *task.AssigneeID
	}

	if err := applyTaskPatch(task, patch); err != nil {
		return nil, err
	}
	if patch.AssigneeID != nil && *patch.AssigneeID != oldAssignee {
		if err := s.checkAssignee(ctx, patch.AssigneeID); err != nil {
			return nil, err
		}
	}

	move := classifyTaskMove(oldStatus, task.Status)
	switch move {
	case moveComplete:
		now := s.now()
		task.Completions++
		task.CompletedBy, task.CompletedAt = &actorID, &now
	case moveReopen:
		task.CompletedBy, task.CompletedAt = nil, nil
	}
	task.ComputeProgress()

	if err := s.repo.Update(ctx, task, patch.LoggedHours); err != nil {
		return nil, err
	}

	var failed stepFailures
	if move == moveComplete {
		s.completed(ctx, actorID, task, &failed)
	}
	if move != moveNone {
		_, err := s.projects.RecalcProgress(ctx, task.ProjectID)
		failed.check(ctx, "project_progress", err, "task_id", task.ID, "project_id", task.ProjectID)
	}
	if task.AssigneeID != nil && *task.AssigneeID != oldAssignee && *task.AssigneeID != actorID {
		key := fmt.Sprintf("task:%d:assign:%d:%d", task.ID, *task.AssigneeID, task.UpdatedAt.UnixNano())
		failed.check(ctx, "notification", s.notifyAssigned(ctx, task, key), "task_id", task.ID)
	}
	s.index.put(ctx, taskDoc(task))

	if len(failed) > 0 {
		return task, fmt.Errorf("update task %d: %w: %s", task.ID, ErrSideEffects, failed)
	}
	return task, nil
}

func (s *taskService) UpdateStatus(ctx context.Context, actorID, id int64, to models.TaskStatus) (*models.Task, error) {
	return s.Update(ctx, actorID, id, models.TaskPatch{Status: &to})
}

// completed runs the completion saga. Every step is keyed by the completion
// counter, so a replay of the same transition awards nothing twice.
func (s *taskService) completed(ctx context.Context, actorID int64, task *models.Task, failed *stepFailures) {
	metrics.TasksCompleted.Inc()
	xp := CompletionXP(task.Priority)
	key := fmt.Sprintf("task:%d:complete:%d", task.ID, task.Completions)

	res, err := s.gamification.Award(ctx, models.XPAward{Key: key, UserID: actorID, Amount: xp, Event: "task_completed"})
	failed.check(ctx, "xp", err, "task_id", task.ID)

	failed.check(ctx, "activity", s.activities.Append(ctx, &models.Activity{
		UserID:         actorID,
		ProjectID:      &task.ProjectID,
		TaskID:         &task.ID,
		Action:         "completed task",
		Type:           models.ActivityComplete,
		Content:        task.Title,
		XPEarned:       xp,
		IdempotencyKey: &key,
	}), "task_id", task.ID)

	failed.check(ctx, "notification", s.notifier.Notify(ctx, &models.Notification{
		RecipientID: actorID,
		Type:        models.NotifyXP,
		Title:       fmt.Sprintf("+%d XP", xp),
		Message:     fmt.Sprintf("Task %q completed", task.Title),
		Context:     &models.NotificationContext{Kind: models.ContextXP, TaskID: &task.ID, ProjectID: &task.ProjectID, XP: xp, Level: res.Level},
		DedupeKey:   ptr(key + ":xp"),
	}), "task_id", task.ID)

	if res.LeveledUp() {
		failed.check(ctx, "notification", s.notifier.Notify(ctx, &models.Notification{
			RecipientID: actorID,
			Type:        models.NotifySuccess,
			Title:       fmt.Sprintf("Level %d reached", res.Level),
			Message:     fmt.Sprintf("You now have %d XP", res.XP),
			Context:     &models.NotificationContext{Kind: models.ContextXP, XP: res.XP, Level: res.Level},
			DedupeKey:   ptr(key + ":level"),
		}), "task_id", task.ID)
	}

	if task.AssigneeID != nil && *task.AssigneeID != actorID {
		failed.check(ctx, "notification", s.notifier.Notify(ctx, &models.Notification{
			RecipientID: *task.AssigneeID,
			Type:        models.NotifySuccess,
			Title:       "Task completed",
			Message:     fmt.Sprintf("Task %q assigned to you was completed", task.Title),
			Context:     &models.NotificationContext{Kind: models.ContextTask, TaskID: &task.ID, ProjectID: &task.ProjectID},
			DedupeKey:   ptr(key + ":assignee"),
		}), "task_id", task.ID)
	}
}

func (s *taskService) notifyAssigned(ctx context.Context, task *models.Task, key string) error {
	return s.notifier.Notify(ctx, &models.Notification{
		RecipientID: *task.AssigneeID,
		Type:        models.NotifyTask,
		Title:       "New task assigned",
		Message:     task.Title,
		Context:     &models.NotificationContext{Kind: models.ContextTask, TaskID: &task.ID, ProjectID: &task.ProjectID, DueDate: task.DueDate},
		DedupeKey:   ptr(key + ":assignee"),
	})
}

func (s *taskService) Delete(ctx context.Context, id int64) error {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if task.Status == models.StatusDone {
		if _, err := s.projects.RecalcProgress(ctx, task.ProjectID); err != nil {
			slog.WarnContext(ctx, "recalc progress after delete", "project_id", task.ProjectID, "err", err)
		}
	}
	s.index.remove(ctx, search.KindTask, id)
	return nil
}

// Reorder пишет каждую тройку независимо; событие завершения не вызывается,
// но прогресс проекта пересчитывается.
func (s *taskService) Reorder(ctx context.Context, actorID, projectID int64, items []models.ReorderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: nothing to reorder", ErrValidation)
	}
	for _, it := range items {
		if it.ID == 0 || !it.Status.Valid() {
			return fmt.Errorf("%w: bad reorder item %d/%q", ErrValidation, it.ID, it.Status)
		}
	}
	n, err := s.repo.Reorder(ctx, projectID, actorID, items)
	if err != nil {
		return fmt.Errorf("reorder project %d: %w", projectID, err)
	}
	if n == 0 {
		return nil
	}
	if _, err := s.projects.RecalcProgress(ctx, projectID); err != nil {
		slog.WarnContext(ctx, "recalc progress after reorder", "project_id", projectID, "err", err)
	}
	return nil
}

func (s *taskService) StatsByStatus(ctx context.Context, projectID *int64) (models.TaskStatusCounts, error) {
	return s.repo.CountByStatus(ctx, projectID)
}

func (s *taskService) AddComment(ctx context.Context, actorID, taskID int64, content string) (*models.TaskComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment is empty", ErrValidation)
	}
	task, err := s.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	c := &models.TaskComment{TaskID: taskID, UserID: actorID, Content: content}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, err
	}

	var failed stepFailures
	key := fmt.Sprintf("comment:%d", c.ID)
	_, err = s.gamification.Award(ctx, models.XPAward{Key: key, UserID: actorID, Amount: XPCommentAdded, Event: "comment_added"})
	failed.check(ctx, "xp", err, "comment_id", c.ID)
	failed.check(ctx, "activity", s.activities.Append(ctx, &models.Activity{
		UserID:         actorID,
		ProjectID:      &task.ProjectID,
		TaskID:         &task.ID,
		Action:         "commented",
		Type:           models.ActivityComment,
		Content:        content,
		XPEarned:       XPCommentAdded,
		IdempotencyKey: &key,
	}), "comment_id", c.ID)

	if len(failed) > 0 {
		return c, fmt.Errorf("comment %d: %w: %s", c.ID, ErrSideEffects, failed)
	}
	return c, nil
}

func (s *taskService) ListComments(ctx context.Context, taskID int64) ([]models.TaskComment, error) {
	if _, err := s.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, taskID)
}

func (s *taskService) LogTime(ctx context.Context, actorID, taskID int64, hours float64, note string) (*models.TimeLog, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("%w: hours must be positive", ErrValidation)
	}
	task, err := s.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	l := &models.TimeLog{TaskID: taskID, UserID: actorID, Hours: hours, Note: note, LoggedAt: s.now()}
	if err := s.repo.AddTimeLog(ctx, l); err != nil {
		return nil, err
	}

	var failed stepFailures
	_, err = s.repo.AddLoggedHours(ctx, taskID, hours)
	failed.check(ctx, "logged_hours", err, "task_id", taskID)

	key := fmt.Sprintf("timelog:%d", l.ID)
	failed.check(ctx, "activity", s.activities.Append(ctx, &models.Activity{
		UserID:         actorID,
		ProjectID:      &task.ProjectID,
		TaskID:         &task.ID,
		Action:         "logged time",
		Type:           models.ActivityTimeLog,
		Content:        fmt.Sprintf("%.2fh %s", hours, note),
		IdempotencyKey: &key,
	}), "time_log_id", l.ID)

	if len(failed) > 0 {
		return l, fmt.Errorf("time log %d: %w: %s", l.ID, ErrSideEffects, failed)
	}
	return l, nil
}

func (s *taskService) ListTimeLogs(ctx context.Context, taskID int64) ([]models.TimeLog, error) {
	if _, err := s.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.repo.ListTimeLogs(ctx, taskID)
}

func (s *taskService) Activity(ctx context.Context, taskID int64) ([]models.Activity, error) {
	if _, err := s.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.activities.ForTask(ctx, taskID)
}

func (s *taskService) AddAttachment(ctx context.Context, actorID, taskID int64, name string, body io.Reader, size int64) (*models.Attachment, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if _, err := s.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	obj, err := s.blobs.Put(ctx, name, body, size)
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}
	a := models.Attachment{
		Name:       name,
		URL:        obj.URL,
		Type:       strings.ToUpper(strings.TrimPrefix(path.Ext(name), ".")),
		Size:       obj.Size,
		UploadedAt: s.now(),
	}
	if err := s.repo.AppendAttachment(ctx, taskID, a); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "attachment added", "task_id", taskID, "user_id", actorID, "key", obj.Key)
	return &a, nil
}

// LinkProject добавляет проект во вторичный набор. Основной проект и уже
// привязанный дают Conflict.
func (s *taskService) LinkProject(ctx context.Context, taskID, projectID int64) (*models.Task, error) {
	task, err := s.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}
	if task.LinkedTo(projectID) {
		return nil, fmt.Errorf("task %d already linked to project %d: %w", taskID, projectID, ErrConflict)
	}
	ok, err := s.repo.LinkProject(ctx, taskID, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("task %d already linked to project %d: %w", taskID, projectID, ErrConflict)
	}
	return s.GetByID(ctx, taskID)
}

// UnlinkProject убирает проект из вторичного набора; основной снять нельзя.
func (s *taskService) UnlinkProject(ctx context.Context, taskID, projectID int64) (*models.Task, error) {
	task, err := s.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.ProjectID == projectID {
		return nil, fmt.Errorf("%w: primary project cannot be unlinked", ErrValidation)
	}
	ok, err := s.repo.UnlinkProject(ctx, taskID, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("task %d is not linked to project %d: %w", taskID, projectID, ErrNotFound)
	}
	return s.GetByID(ctx, taskID)
}
