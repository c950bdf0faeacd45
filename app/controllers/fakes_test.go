package controllers

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/app/queries"
	"github.com/gilanghuda/weekly-report-backend/pkg/storage"
	"github.com/google/uuid"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[uuid.UUID]models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, queries.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, queries.ErrNotFound
}

func (f *fakeUsers) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username != nil && *u.Username == username {
			return u, nil
		}
	}
	return models.User{}, queries.ErrNotFound
}

func (f *fakeUsers) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return queries.ErrEmailTaken
		}
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, id uuid.UUID, req *models.UpdateUserRequest) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, queries.ErrNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Department != nil {
		u.Department = *req.Department
	}
	if req.UserRole != nil {
		u.UserRole = *req.UserRole
	}
	if req.PasswordHash != nil {
		u.PasswordHash = *req.PasswordHash
	}
	f.users[id] = u
	return u, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return queries.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) ListUsers(_ context.Context, department string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		if department == "" || u.Department == department {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeReports struct {
	mu         sync.Mutex
	reports    map[uuid.UUID]models.Report
	users      *fakeUsers
	statsCalls int
	updateErr  error
}

func newFakeReports(users *fakeUsers, reports ...models.Report) *fakeReports {
	f := &fakeReports{reports: map[uuid.UUID]models.Report{}, users: users}
	for _, r := range reports {
		f.reports[r.ID] = r
	}
	return f
}

func (f *fakeReports) withOwner(r models.Report) models.Report {
	if f.users != nil {
		if u, err := f.users.GetUserByID(context.Background(), r.UserID); err == nil {
			r.User = u.Owner()
		}
	}
	return r
}

func (f *fakeReports) CreateReport(_ context.Context, r *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[r.ID] = *r
	return nil
}

func (f *fakeReports) GetReport(_ context.Context, id uuid.UUID) (models.Report, error) {
	f.mu.Lock()
	r, ok := f.reports[id]
	f.mu.Unlock()
	if !ok {
		return models.Report{}, queries.ErrNotFound
	}
	return f.withOwner(r), nil
}

func (f *fakeReports) ListReports(_ context.Context, q models.ReportQuery) ([]models.Report, error) {
	f.mu.Lock()
	var out []models.Report
	for _, r := range f.reports {
		if q.UserID != nil && r.UserID != *q.UserID {
			continue
		}
		out = append(out, r)
	}
	f.mu.Unlock()

	filtered := out[:0]
	for _, r := range out {
		r = f.withOwner(r)
		if q.Department != "" && (r.User == nil || r.User.Department != q.Department) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

func (f *fakeReports) UpdateReport(_ context.Context, r *models.Report, prev time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	cur, ok := f.reports[r.ID]
	if !ok {
		return queries.ErrNotFound
	}
	if !cur.UpdatedAt.Equal(prev) {
		return queries.ErrStaleWrite
	}
	stored := *r
	stored.User = nil
	f.reports[r.ID] = stored
	return nil
}

func (f *fakeReports) DeleteReport(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reports[id]; !ok {
		return queries.ErrNotFound
	}
	delete(f.reports, id)
	return nil
}

func (f *fakeReports) ReportStats(_ context.Context) (models.ReportStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	stats := models.ReportStats{Weekly: []models.WeeklyCount{}, Departments: []models.DepartmentCount{}}
	for _, r := range f.reports {
		stats.Overall.Total++
		if r.Status != models.StatusDraft {
			stats.Overall.Submitted++
		}
	}
	return stats, nil
}

func (f *fakeReports) TeamAggregates(_ context.Context, department string) ([]models.TeamMember, error) {
	users, _ := f.users.ListUsers(context.Background(), department)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.TeamMember, 0, len(users))
	for _, u := range users {
		m := models.TeamMember{UserID: u.ID, Name: u.Name, Email: u.Email, Department: u.Department}
		for _, r := range f.reports {
			if r.UserID == u.ID {
				m.TotalReports++
				if r.Status != models.StatusDraft {
					m.SubmittedReports++
				}
			}
		}
		out = append(out, m)
	}
	return out, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (f *fakeAudit) Record(_ context.Context, e models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) Recent(_ context.Context, limit int) ([]models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return append([]models.AuditEntry{}, f.entries[:limit]...), nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeCache struct {
	stats       *models.ReportStats
	invalidated int
}

func (f *fakeCache) Get(context.Context) (models.ReportStats, bool, error) {
	if f.stats == nil {
		return models.ReportStats{}, false, nil
	}
	return *f.stats, true, nil
}

func (f *fakeCache) Set(_ context.Context, s models.ReportStats) error {
	f.stats = &s
	return nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.stats = nil
	f.invalidated++
	return nil
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type fakeFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeFiles) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeFiles) Get(_ context.Context, key string) (*storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: f.types[key],
		Size:        int64(len(data)),
	}, nil
}

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakePublisher struct {
	events []models.ReviewEvent
}

func (f *fakePublisher) Publish(ev models.ReviewEvent) {
	f.events = append(f.events, ev)
}

type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]models.RefreshToken{}}
}

func (f *fakeTokens) CreateRefreshToken(_ context.Context, rt *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[rt.Token] = *rt
	return nil
}

func (f *fakeTokens) GetRefreshTokenByToken(_ context.Context, token string) (models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[token]
	if !ok {
		return models.RefreshToken{}, queries.ErrNotFound
	}
	return rt, nil
}

func (f *fakeTokens) RevokeRefreshToken(_ context.Context, userID uuid.UUID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[token]
	if !ok || rt.UserID != userID {
		return queries.ErrNotFound
	}
	rt.Revoked = true
	f.tokens[token] = rt
	return nil
}

func (f *fakeTokens) RevokeRefreshTokensByUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, rt := range f.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
			f.tokens[k] = rt
		}
	}
	return nil
}

type fakeResets struct {
	mu     sync.Mutex
	resets map[string]models.PasswordReset
}

func newFakeResets() *fakeResets {
	return &fakeResets{resets: map[string]models.PasswordReset{}}
}

func (f *fakeResets) CreatePasswordReset(_ context.Context, pr *models.PasswordReset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[pr.TokenHash] = *pr
	return nil
}

func (f *fakeResets) ConsumePasswordReset(_ context.Context, hash string, now time.Time) (models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.resets[hash]
	if !ok || pr.Used || now.After(pr.ExpiresAt) {
		return models.PasswordReset{}, queries.ErrNotFound
	}
	pr.Used = true
	f.resets[hash] = pr
	return pr, nil
}
