package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"metrika/internal/models"
	"metrika/internal/repositories"
	"metrika/internal/utils"
)

// Scheduler runs f once after d. The production one is a plain timer;
// tests substitute a manual one.
type Scheduler interface {
	After(d time.Duration, f func())
}

type timerScheduler struct{}

func (timerScheduler) After(d time.Duration, f func()) { time.AfterFunc(d, f) }

func TimerScheduler() Scheduler { return timerScheduler{} }

type AnalysisService interface {
	Analyze(ctx context.Context, actorID, documentID int64) (*models.Analysis, error)
	LatestForDocument(ctx context.Context, documentID int64) (*models.Analysis, error)
	List(ctx context.Context, filter models.AnalysisFilter) ([]models.Analysis, error)
	GetByID(ctx context.Context, id int64) (*models.Analysis, error)
	Save(ctx context.Context, id int64, userActions []models.AnalysisAction) (*models.Analysis, error)
	Share(ctx context.Context, id int64, userIDs []int64, emails []string) (*models.Analysis, error)
	GenerateLink(ctx context.Context, id int64) (string, error)
	Shared(ctx context.Context, token string) (*models.Analysis, error)
	MarkAsTask(ctx context.Context, actorID, id int64, actionID string, projectID *int64) (*models.Analysis, *models.Task, error)
	BulkTasks(ctx context.Context, actorID, id int64, projectID *int64) ([]models.Task, error)
}

type analysisService struct {
	repo         repositories.AnalysisRepository
	documents    repositories.DocumentRepository
	users        repositories.UserRepository
	tasks        TaskService
	gamification GamificationService
	activities   ActivityService
	notifier     NotificationService
	email        EmailService
	scheduler    Scheduler
	delay        time.Duration
	frontendURL  string
	now          func() time.Time
}

func NewAnalysisService(
	repo repositories.AnalysisRepository,
	documents repositories.DocumentRepository,
	users repositories.UserRepository,
	tasks TaskService,
	gamification GamificationService,
	activities ActivityService,
	notifier NotificationService,
	email EmailService,
	scheduler Scheduler,
	delay time.Duration,
	frontendURL string,
) AnalysisService {
	return &analysisService{
		repo:         repo,
		documents:    documents,
		users:        users,
		tasks:        tasks,
		gamification: gamification,
		activities:   activities,
		notifier:     notifier,
		email:        email,
		scheduler:    scheduler,
		delay:        delay,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		now:          time.Now,
	}
}

const analyzerModel = "metrika-analyzer-v1"

func (s *analysisService) document(ctx context.Context, id int64) (*models.Document, error) {
	d, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return d, nil
}

// Analyze отвечает сразу со статусом analyzing; результат пишет таймер.
func (s *analysisService) Analyze(ctx context.Context, actorID, documentID int64) (*models.Analysis, error) {
	doc, err := s.document(ctx, documentID)
	if err != nil {
		return nil, err
	}
	a := &models.Analysis{
		DocumentID:       documentID,
		Status:           models.AnalysisAnalyzing,
		Findings:         []models.Finding{},
		Risks:            []models.Risk{},
		SuggestedActions: []models.AnalysisAction{},
		UserActions:      []models.AnalysisAction{},
		Tags:             []string{},
		SharedWith:       []int64{},
		AIModel:          analyzerModel,
		CreatedBy:        actorID,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	id := a.ID
	s.scheduler.After(s.delay, func() {
		cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.complete(cctx, id); err != nil {
			slog.Error("analysis completion failed", "analysis_id", id, "err", err)
		}
	})

	var failed stepFailures
	key := fmt.Sprintf("analysis:%d", a.ID)
	_, err = s.gamification.Award(ctx, models.XPAward{Key: key, UserID: actorID, Amount: XPAnalysisStarted, Event: "analysis_started"})
	failed.check(ctx, "xp", err, "analysis_id", a.ID)
	failed.check(ctx, "activity", s.activities.Append(ctx, &models.Activity{
		UserID:         actorID,
		ProjectID:      doc.ProjectID,
		Action:         "started analysis",
		Type:           models.ActivityAnalysis,
		Content:        doc.Name,
		XPEarned:       XPAnalysisStarted,
		IdempotencyKey: &key,
	}), "analysis_id", a.ID)

	if len(failed) > 0 {
		return a, fmt.Errorf("analysis %d: %w: %s", a.ID, ErrSideEffects, failed)
	}
	return a, nil
}

// complete fills the canned result. It is a no-op unless the analysis is
// still analyzing, so a second timer firing changes nothing.
func (s *analysisService) complete(ctx context.Context, id int64) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil || a.Status != models.AnalysisAnalyzing {
		return nil
	}
	name := "document"
	if doc, err := s.documents.GetByID(ctx, a.DocumentID); err == nil && doc != nil {
		name = doc.Name
	}
	fillCannedAnalysis(a, name)
	now := s.now()
	a.Status = models.AnalysisCompleted
	a.AnalyzedAt = &now
	if err := s.repo.Update(ctx, a); err != nil {
		return err
	}
	return s.notifier.Notify(ctx, &models.Notification{
		RecipientID: a.CreatedBy,
		Type:        models.NotifyAI,
		Title:       "Analysis ready",
		Message:     fmt.Sprintf("Analysis of %q is completed", name),
		Actions:     []models.NotificationAction{{Label: "Open", URL: fmt.Sprintf("/documents/%d/analysis", a.DocumentID), Kind: "primary"}},
		Context:     &models.NotificationContext{Kind: models.ContextAnalysis, AnalysisID: &a.ID},
		DedupeKey:   ptr(fmt.Sprintf("analysis:%d:done", a.ID)),
	})
}

func fillCannedAnalysis(a *models.Analysis, name string) {
	a.Summary = fmt.Sprintf("%s describes project scope, timeline and budget. Overall structure is sound; a few risks need owners.", name)
	a.Findings = []models.Finding{
		{Type: "positive", Content: "Scope and deliverables are clearly defined", Page: 1},
		{Type: "positive", Content: "Milestones have explicit dates", Page: 2},
		{Type: "negative", Content: "Acceptance criteria are missing for some deliverables", Page: 3},
	}
	a.Risks = []models.Risk{
		{Severity: "high", Content: "No contingency reserve in the budget", Page: 4, Section: "Budget"},
		{Severity: "medium", Content: "Single point of contact for approvals", Page: 2, Section: "Governance"},
		{Severity: "low", Content: "Glossary is incomplete", Page: 5, Section: "Appendix"},
	}
	a.SuggestedActions = []models.AnalysisAction{
		{ID: "s-0", Title: "Add a contingency reserve to the budget", Priority: "high", CanCreateTask: true},
		{ID: "s-1", Title: "Define acceptance criteria per deliverable", Priority: "medium", CanCreateTask: true},
		{ID: "s-2", Title: "Name a backup approver", Priority: "low", CanCreateTask: true},
	}
	a.Tags = []string{"scope", "budget", "risks"}
	a.AIModel = analyzerModel
	a.Confidence = 87
}

func (s *analysisService) LatestForDocument(ctx context.Context, documentID int64) (*models.Analysis, error) {
	if _, err := s.document(ctx, documentID); err != nil {
		return nil, err
	}
	a, err := s.repo.LatestForDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("analysis for document %d: %w", documentID, ErrNotFound)
	}
	return a, nil
}

func (s *analysisService) List(ctx context.Context, filter models.AnalysisFilter) ([]models.Analysis, error) {
	return s.repo.List(ctx, filter)
}

func (s *analysisService) GetByID(ctx context.Context, id int64) (*models.Analysis, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("analysis %d: %w", id, ErrNotFound)
	}
	return a, nil
}

// Save stores the user's own actions, numbering them u-0, u-1, ...
func (s *analysisService) Save(ctx context.Context, id int64, userActions []models.AnalysisAction) (*models.Analysis, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range userActions {
		if strings.TrimSpace(userActions[i].Title) == "" {
			return nil, fmt.Errorf("%w: action %d has no title", ErrValidation, i)
		}
		userActions[i].ID = fmt.Sprintf("u-%d", i)
		if userActions[i].Priority == "" {
			userActions[i].Priority = "medium"
		}
		userActions[i].CanCreateTask = true
	}
	now := s.now()
	a.UserActions = orEmpty(userActions)
	a.SavedAt = &now
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *analysisService) ensureLink(ctx context.Context, a *models.Analysis) error {
	if a.ShareToken != "" {
		return nil
	}
	token, err := utils.RandomHex(16)
	if err != nil {
		return err
	}
	a.ShareToken = token
	a.ShareLink = s.frontendURL + "/shared-analysis/" + token
	return s.repo.Update(ctx, a)
}

// Share объединяет userIDs с sharedWith и рассылает ссылку на emails.
func (s *analysisService) Share(ctx context.Context, id int64, userIDs []int64, emails []string) (*models.Analysis, error) {
	if len(userIDs) == 0 && len(emails) == 0 {
		return nil, fmt.Errorf("%w: nobody to share with", ErrValidation)
	}
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(userIDs) > 0 {
		found, err := s.users.ListByIDs(ctx, userIDs)
		if err != nil {
			return nil, err
		}
		known := make(map[int64]bool, len(found))
		for _, u := range found {
			known[u.ID] = true
		}
		for _, uid := range userIDs {
			if !known[uid] {
				return nil, fmt.Errorf("user %d: %w", uid, ErrNotFound)
			}
		}
	}
	a.SharedWith = unionIDs(a.SharedWith, userIDs)
	if err := s.ensureLink(ctx, a); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	name := "document"
	if doc, err := s.documents.GetByID(ctx, a.DocumentID); err == nil && doc != nil {
		name = doc.Name
	}
	var failed stepFailures
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		failed.check(ctx, "email", s.email.SendAnalysisShareEmail(e, name, a.ShareLink), "analysis_id", a.ID)
	}
	if len(failed) > 0 {
		return a, fmt.Errorf("share analysis %d: %w: %s", a.ID, ErrSideEffects, failed)
	}
	return a, nil
}

func unionIDs(have, add []int64) []int64 {
	seen := make(map[int64]bool, len(have)+len(add))
	out := make([]int64, 0, len(have)+len(add))
	for _, list := range [][]int64{have, add} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func (s *analysisService) GenerateLink(ctx context.Context, id int64) (string, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.ensureLink(ctx, a); err != nil {
		return "", err
	}
	return a.ShareLink, nil
}

func (s *analysisService) Shared(ctx context.Context, token string) (*models.Analysis, error) {
	if token == "" {
		return nil, fmt.Errorf("shared analysis: %w", ErrNotFound)
	}
	a, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("shared analysis: %w", ErrNotFound)
	}
	return a, nil
}

func actionPriority(p string) models.TaskPriority {
	switch strings.ToLower(p) {
	case "high":
		return models.PriorityHigh
	case "medium":
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// taskProject выбирает проект для задачи из действия: явный или проект документа.
func (s *analysisService) taskProject(ctx context.Context, a *models.Analysis, projectID *int64) (int64, error) {
	if projectID != nil {
		return *projectID, nil
	}
	doc, err := s.document(ctx, a.DocumentID)
	if err != nil {
		return 0, err
	}
	if doc.ProjectID == nil {
		return 0, fmt.Errorf("%w: document has no project, projectId is required", ErrValidation)
	}
	return *doc.ProjectID, nil
}

func (s *analysisService) createFromAction(ctx context.Context, actorID, projectID int64, act *models.AnalysisAction) (*models.Task, error) {
	task, err := s.tasks.Create(ctx, actorID, &models.Task{
		Title:     act.Title,
		Priority:  actionPriority(act.Priority),
		ProjectID: projectID,
		Tags:      []string{"analysis"},
	})
	if err != nil && (task == nil || !errors.Is(err, ErrSideEffects)) {
		return nil, err
	}
	act.AddedAsTask = true
	act.TaskID = &task.ID
	return task, nil
}

func (s *analysisService) MarkAsTask(ctx context.Context, actorID, id int64, actionID string, projectID *int64) (*models.Analysis, *models.Task, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	act := a.FindAction(actionID)
	if act == nil {
		return nil, nil, fmt.Errorf("action %q: %w", actionID, ErrNotFound)
	}
	if act.AddedAsTask {
		return nil, nil, fmt.Errorf("action %q already added as task: %w", actionID, ErrConflict)
	}
	pid, err := s.taskProject(ctx, a, projectID)
	if err != nil {
		return nil, nil, err
	}
	task, err := s.createFromAction(ctx, actorID, pid, act)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, nil, err
	}
	return a, task, nil
}

// BulkTasks converts every suggested action that is not a task yet.
func (s *analysisService) BulkTasks(ctx context.Context, actorID, id int64, projectID *int64) ([]models.Task, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pid, err := s.taskProject(ctx, a, projectID)
	if err != nil {
		return nil, err
	}
	created := []models.Task{}
	for i := range a.SuggestedActions {
		act := &a.SuggestedActions[i]
		if act.AddedAsTask || !act.CanCreateTask {
			continue
		}
		task, err := s.createFromAction(ctx, actorID, pid, act)
		if err != nil {
			if len(created) > 0 {
				if uerr := s.repo.Update(ctx, a); uerr != nil {
					slog.ErrorContext(ctx, "bulk tasks: analysis not updated", "analysis_id", a.ID, "err", uerr)
				}
			}
			return created, err
		}
		created = append(created, *task)
	}
	if len(created) == 0 {
		return created, nil
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return created, nil
}
