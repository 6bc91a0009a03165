package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"metrika/internal/models"
	"metrika/internal/repositories"
)

// In-memory repositories. Each embeds its interface so that a call to a
// method the test did not expect panics instead of silently passing.

type fakeUsers struct {
	repositories.UserRepository
	mu     sync.Mutex
	users  map[int64]*models.User
	ledger map[string]bool
	// awardErr fails every AwardXP call while set.
	awardErr error
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[int64]*models.User{}, ledger: map[string]bool{}}
	for i := range users {
		u := users[i]
		if u.Level == 0 {
			u.Level = LevelFor(u.XP)
		}
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = int64(len(f.users) + 100)
	u.Level = 1
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) AwardXP(_ context.Context, a models.XPAward) (models.XPResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.awardErr != nil {
		return models.XPResult{}, f.awardErr
	}
	u := f.users[a.UserID]
	if f.ledger[a.Key] {
		return models.XPResult{XP: u.XP, Level: u.Level, PrevLevel: u.Level}, nil
	}
	f.ledger[a.Key] = true
	prev := u.Level
	u.XP += a.Amount
	u.Level = LevelFor(u.XP)
	return models.XPResult{Applied: true, Amount: a.Amount, XP: u.XP, Level: u.Level, PrevLevel: prev}, nil
}

func (f *fakeUsers) AdjustXP(_ context.Context, userID int64, delta int) (models.XPResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[userID]
	prev := u.Level
	u.XP += delta
	if u.XP < 0 {
		u.XP = 0
	}
	u.Level = LevelFor(u.XP)
	return models.XPResult{Applied: true, Amount: delta, XP: u.XP, Level: u.Level, PrevLevel: prev}, nil
}

func (f *fakeUsers) TouchStreak(context.Context, int64, time.Time) error { return nil }

func (f *fakeUsers) UnlockAchievement(_ context.Context, key string, badge models.Badge, a models.XPAward) (models.XPResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[a.UserID]
	if u.HasAchievement(key) {
		return models.XPResult{XP: u.XP, Level: u.Level, PrevLevel: u.Level}, nil
	}
	u.UnlockedAchievements = append(u.UnlockedAchievements, key)
	u.Badges = append(u.Badges, badge)
	prev := u.Level
	if !f.ledger[a.Key] {
		f.ledger[a.Key] = true
		u.XP += a.Amount
		u.Level = LevelFor(u.XP)
	}
	return models.XPResult{Applied: true, Amount: a.Amount, XP: u.XP, Level: u.Level, PrevLevel: prev}, nil
}

func (f *fakeUsers) SetStatus(_ context.Context, id int64, status models.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Status = status
	}
	return nil
}

func (f *fakeUsers) CountAbove(_ context.Context, xp int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.users {
		if u.XP > xp {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) xp(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id].XP
}

type fakeTasks struct {
	repositories.TaskRepository
	mu       sync.Mutex
	tasks    map[int64]models.Task
	comments []models.TaskComment
	logs     []models.TimeLog
	reorders int
	// beforeUpdate runs ahead of each Update, standing in for a concurrent writer.
	beforeUpdate func()
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: map[int64]models.Task{}}
}

func (f *fakeTasks) Store(_ context.Context, t *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = int64(len(f.tasks) + 1)
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeTasks) FindByID(_ context.Context, id int64) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	t.ProjectIDs = append([]int64(nil), t.ProjectIDs...)
	return &t, nil
}

func (f *fakeTasks) Update(_ context.Context, t *models.Task, loggedHours *float64) error {
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if loggedHours == nil {
		t.LoggedHours = f.tasks[t.ID].LoggedHours
	}
	t.UpdatedAt = time.Now()
	t.ComputeProgress()
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeTasks) Reorder(_ context.Context, projectID, actorID int64, items []models.ReorderItem) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, it := range items {
		t, ok := f.tasks[it.ID]
		if !ok || t.ProjectID != projectID {
			continue
		}
		t.Status, t.Order = it.Status, it.Order
		if it.Status == models.StatusDone {
			if t.CompletedAt == nil {
				t.CompletedAt = ptr(time.Now())
			}
			if t.CompletedBy == nil {
				t.CompletedBy = ptr(actorID)
			}
		} else {
			t.CompletedAt, t.CompletedBy = nil, nil
		}
		f.tasks[it.ID] = t
		n++
	}
	f.reorders++
	return n, nil
}

func (f *fakeTasks) LinkProject(_ context.Context, id, projectID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tasks[id]
	if t.LinkedTo(projectID) {
		return false, nil
	}
	t.ProjectIDs = append(t.ProjectIDs, projectID)
	f.tasks[id] = t
	return true, nil
}

func (f *fakeTasks) UnlinkProject(_ context.Context, id, projectID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tasks[id]
	for i, p := range t.ProjectIDs {
		if p == projectID {
			t.ProjectIDs = append(t.ProjectIDs[:i:i], t.ProjectIDs[i+1:]...)
			f.tasks[id] = t
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTasks) AddComment(_ context.Context, c *models.TaskComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = int64(len(f.comments) + 1)
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeTasks) AddTimeLog(_ context.Context, l *models.TimeLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = int64(len(f.logs) + 1)
	f.logs = append(f.logs, *l)
	return nil
}

func (f *fakeTasks) AddLoggedHours(_ context.Context, id int64, hours float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tasks[id]
	t.LoggedHours += hours
	t.ComputeProgress()
	f.tasks[id] = t
	return t.LoggedHours, nil
}

type fakeProjects struct {
	repositories.ProjectRepository
	mu       sync.Mutex
	projects map[int64]models.Project
	recalcs  int
	// beforeUpdate runs ahead of each Update, standing in for a concurrent writer.
	beforeUpdate func()
}

func newFakeProjects(ps ...models.Project) *fakeProjects {
	f := &fakeProjects{projects: map[int64]models.Project{}}
	for _, p := range ps {
		f.projects[p.ID] = p
	}
	return f
}

func (f *fakeProjects) GetByID(_ context.Context, id int64) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProjects) Create(_ context.Context, p *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = int64(len(f.projects) + 1)
	f.projects[p.ID] = *p
	return nil
}

func (f *fakeProjects) Update(_ context.Context, p *models.Project, progress *int) error {
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if progress == nil {
		p.Progress = f.projects[p.ID].Progress
	}
	p.UpdatedAt = time.Now()
	f.projects[p.ID] = *p
	return nil
}

func (f *fakeProjects) RecalcProgress(context.Context, int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recalcs++
	return 0, nil
}

type fakeActivities struct {
	mu    sync.Mutex
	items []models.Activity
	keys  map[string]bool
	// failures is the number of upcoming Append calls that fail.
	failures int
}

func newFakeActivities() *fakeActivities {
	return &fakeActivities{keys: map[string]bool{}}
}

func (f *fakeActivities) Append(_ context.Context, a *models.Activity) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return false, errors.New("activities: connection reset")
	}
	if a.IdempotencyKey != nil {
		if f.keys[*a.IdempotencyKey] {
			return false, nil
		}
		f.keys[*a.IdempotencyKey] = true
	}
	a.ID = int64(len(f.items) + 1)
	f.items = append(f.items, *a)
	return true, nil
}

func (f *fakeActivities) List(_ context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Activity
	for _, a := range f.items {
		if filter.TaskID != nil && (a.TaskID == nil || *a.TaskID != *filter.TaskID) {
			continue
		}
		if filter.UserID != nil && a.UserID != *filter.UserID {
			continue
		}
		if filter.XPOnly && a.XPEarned == 0 {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeActivities) ofType(t models.ActivityType) []models.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Activity
	for _, a := range f.items {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

type fakeNotifications struct {
	mu    sync.Mutex
	items []models.Notification
	keys  map[string]bool
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{keys: map[string]bool{}}
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.DedupeKey != nil {
		if f.keys[*n.DedupeKey] {
			return false, nil
		}
		f.keys[*n.DedupeKey] = true
	}
	n.ID = int64(len(f.items) + 1)
	f.items = append(f.items, *n)
	return true, nil
}

func (f *fakeNotifications) List(_ context.Context, recipientID int64, isRead *bool, limit, offset int) ([]models.Notification, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.items {
		if n.RecipientID == recipientID && (isRead == nil || n.IsRead == *isRead) {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (f *fakeNotifications) UnreadCount(_ context.Context, recipientID int64) (int, error) {
	unread := false
	items, _, _ := f.List(context.Background(), recipientID, &unread, 0, 0)
	return len(items), nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id, recipientID int64) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].RecipientID == recipientID {
			f.items[i].IsRead = true
			n := f.items[i]
			return &n, nil
		}
	}
	return nil, nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, recipientID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.items {
		if f.items[i].RecipientID == recipientID && !f.items[i].IsRead {
			f.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) to(recipientID int64) []models.Notification {
	items, _, _ := f.List(context.Background(), recipientID, nil, 0, 0)
	return items
}

type fakeGoals struct {
	repositories.GoalRepository
	goals   map[int64]models.Goal
	records []models.GoalRecord
	deleted []int64
}

func (f *fakeGoals) GetByID(_ context.Context, id int64) (*models.Goal, error) {
	g, ok := f.goals[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f *fakeGoals) Update(_ context.Context, g *models.Goal) error {
	f.goals[g.ID] = *g
	return nil
}

func (f *fakeGoals) Delete(_ context.Context, id int64) error {
	delete(f.goals, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeGoals) AddRecord(_ context.Context, rec *models.GoalRecord) error {
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *rec)
	return nil
}

type fakeSprints struct {
	repositories.SprintRepository
	sprints map[int64]models.Sprint
}

func (f *fakeSprints) GetByID(_ context.Context, id int64) (*models.Sprint, error) {
	sp, ok := f.sprints[id]
	if !ok {
		return nil, nil
	}
	return &sp, nil
}

func (f *fakeSprints) Create(_ context.Context, sp *models.Sprint) error {
	sp.ID = int64(len(f.sprints) + 1)
	f.sprints[sp.ID] = *sp
	return nil
}

func (f *fakeSprints) Update(_ context.Context, sp *models.Sprint) error {
	f.sprints[sp.ID] = *sp
	return nil
}

func (f *fakeSprints) Complete(_ context.Context, id int64, at time.Time) (*models.Sprint, error) {
	sp := f.sprints[id]
	if sp.Status == models.SprintCompleted {
		return nil, nil
	}
	sp.Status = models.SprintCompleted
	sp.EndDate = at
	f.sprints[id] = sp
	return &sp, nil
}

type fakeAnalyses struct {
	repositories.AnalysisRepository
	mu    sync.Mutex
	items map[int64]models.Analysis
}

func (f *fakeAnalyses) Create(_ context.Context, a *models.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = int64(len(f.items) + 1)
	f.items[a.ID] = *a
	return nil
}

func (f *fakeAnalyses) GetByID(_ context.Context, id int64) (*models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeAnalyses) Update(_ context.Context, a *models.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[a.ID] = *a
	return nil
}

type fakeDocuments struct {
	repositories.DocumentRepository
	docs map[int64]models.Document
}

func (f *fakeDocuments) GetByID(_ context.Context, id int64) (*models.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// manualScheduler holds scheduled callbacks until the test fires them.
type manualScheduler struct {
	pending []func()
}

func (s *manualScheduler) After(_ time.Duration, f func()) {
	s.pending = append(s.pending, f)
}

func (s *manualScheduler) fire() {
	p := s.pending
	s.pending = nil
	for _, f := range p {
		f()
	}
}

type fakeEmail struct {
	invites []string
	shares  []string
}

func (f *fakeEmail) SendInviteEmail(email, _, _ string) error {
	f.invites = append(f.invites, email)
	return nil
}

func (f *fakeEmail) SendAnalysisShareEmail(email, _, _ string) error {
	f.shares = append(f.shares, email)
	return nil
}

// env wires the gamification pipeline over the fakes.
type env struct {
	users         *fakeUsers
	tasks         *fakeTasks
	projects      *fakeProjects
	activityRepo  *fakeActivities
	notifications *fakeNotifications

	activities   ActivityService
	notifier     NotificationService
	gamification *gamificationService
	taskService  *taskService
}

func newEnv(users ...models.User) *env {
	e := &env{
		users:         newFakeUsers(users...),
		tasks:         newFakeTasks(),
		projects:      newFakeProjects(models.Project{ID: 1, Title: "Apollo", Status: models.ProjectActive, ManagerID: 1}, models.Project{ID: 2, Title: "Gemini", Status: models.ProjectActive, ManagerID: 1}),
		activityRepo:  newFakeActivities(),
		notifications: newFakeNotifications(),
	}
	e.activities = NewActivityService(e.activityRepo)
	e.notifier = NewNotificationService(e.notifications)
	e.gamification = NewGamificationService(e.users, e.tasks, e.projects, &fakeDocuments{}, e.activities, e.notifier).(*gamificationService)
	e.taskService = NewTaskService(e.tasks, e.projects, e.users, e.gamification, e.activities, e.notifier, nil, nil).(*taskService)
	return e
}
