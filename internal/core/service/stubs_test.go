package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// ── Credential store ─────────────────────────────────────────────────────────

type stubCredentialStore struct {
	mu     sync.Mutex
	actors map[domain.ActorKind]map[string]*domain.Actor
	nextID int
	// findErr, when set, is returned by every lookup.
	findErr error
}

func newStubCredentialStore() *stubCredentialStore {
	return &stubCredentialStore{actors: make(map[domain.ActorKind]map[string]*domain.Actor)}
}

func cloneActor(a *domain.Actor) *domain.Actor {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func (s *stubCredentialStore) Create(_ context.Context, actor *domain.Actor) (*domain.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.actors[actor.Kind] {
		if a.Login == actor.Login {
			return nil, domain.ErrAlreadyExists
		}
	}
	c := cloneActor(actor)
	if c.ID == "" {
		s.nextID++
		c.ID = fmt.Sprintf("%s-%d", actor.Kind, s.nextID)
	}
	if s.actors[c.Kind] == nil {
		s.actors[c.Kind] = make(map[string]*domain.Actor)
	}
	s.actors[c.Kind][c.ID] = c
	return cloneActor(c), nil
}

func (s *stubCredentialStore) FindByLogin(_ context.Context, kind domain.ActorKind, login string) (*domain.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, a := range s.actors[kind] {
		if a.Login == login {
			return cloneActor(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCredentialStore) FindByID(_ context.Context, kind domain.ActorKind, id string) (*domain.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	a, ok := s.actors[kind][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneActor(a), nil
}

func (s *stubCredentialStore) SetActive(_ context.Context, kind domain.ActorKind, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[kind][id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Active = active
	return nil
}

func (s *stubCredentialStore) UpdatePassword(_ context.Context, kind domain.ActorKind, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[kind][id]
	if !ok {
		return domain.ErrNotFound
	}
	a.PasswordHash = hash
	return nil
}

// ── Tenant store ─────────────────────────────────────────────────────────────

type memState struct {
	studios  map[string]domain.Studio
	clients  map[string]domain.Client
	projects map[string]domain.Project
	sections map[string]domain.Section
}

func newMemState() memState {
	return memState{
		studios:  map[string]domain.Studio{},
		clients:  map[string]domain.Client{},
		projects: map[string]domain.Project{},
		sections: map[string]domain.Section{},
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s memState) clone() memState {
	return memState{
		studios:  cloneMap(s.studios),
		clients:  cloneMap(s.clients),
		projects: cloneMap(s.projects),
		sections: cloneMap(s.sections),
	}
}

// memTenantRepo is a transactional in-memory tenant store. WithinTx
// snapshots the whole state and restores it when fn fails. failOn names a
// TenantTx method that returns failErr instead of running.
type memTenantRepo struct {
	mu     sync.Mutex
	state  memState
	failOn string
	// failErr defaults to errInjected.
	failErr error
	// conflicts makes the first N callbacks fail with a retryable conflict,
	// mimicking a store that re-runs the transaction.
	conflicts int
	// shortOn names a delete step that reports one record fewer than it removed.
	shortOn string
	txRuns  int
	// beforeTx runs once, ahead of the next transaction, to stand in for a
	// competing transaction that commits first.
	beforeTx func()
}

var errInjected = errors.New("injected fault")

func newMemTenantRepo() *memTenantRepo {
	return &memTenantRepo{state: newMemState()}
}

func (r *memTenantRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TenantTx) error) error {
	r.mu.Lock()
	hook := r.beforeTx
	r.beforeTx = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		r.txRuns++
		snapshot := r.state.clone()
		err := fn(ctx, &memTx{r: r})
		if err == nil && r.conflicts > 0 {
			r.conflicts--
			r.state = snapshot
			continue
		}
		if err != nil {
			r.state = snapshot
			return err
		}
		return nil
	}
}

func (r *memTenantRepo) fault(step string) error {
	if r.failOn != step {
		return nil
	}
	if r.failErr != nil {
		return r.failErr
	}
	return errInjected
}

func (r *memTenantRepo) short(step string, n int64) int64 {
	if r.shortOn == step && n > 0 {
		return n - 1
	}
	return n
}

func (r *memTenantRepo) putStudio(s domain.Studio) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.studios[s.ID] = s
}

func (r *memTenantRepo) counts() (studios, clients, projects, sections int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.studios), len(r.state.clients), len(r.state.projects), len(r.state.sections)
}

// references reports whether any record still points at studioID.
func (r *memTenantRepo) references(studioID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.studios[studioID]; ok {
		return true
	}
	for _, c := range r.state.clients {
		if c.StudioID == studioID {
			return true
		}
	}
	for _, p := range r.state.projects {
		if p.StudioID == studioID {
			return true
		}
	}
	for _, s := range r.state.sections {
		if _, ok := r.state.projects[s.ProjectID]; !ok {
			return true
		}
	}
	return false
}

// orphans counts records whose parent is gone.
func (r *memTenantRepo) orphans() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.state.clients {
		if _, ok := r.state.studios[c.StudioID]; !ok {
			n++
		}
	}
	for _, p := range r.state.projects {
		if _, ok := r.state.clients[p.ClientID]; !ok {
			n++
		}
	}
	for _, s := range r.state.sections {
		if _, ok := r.state.projects[s.ProjectID]; !ok {
			n++
		}
	}
	return n
}

func (r *memTenantRepo) FindStudio(_ context.Context, id string) (*domain.Studio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return findIn(r.state.studios, id)
}

func (r *memTenantRepo) FindClient(_ context.Context, id string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return findIn(r.state.clients, id)
}

func (r *memTenantRepo) FindProject(_ context.Context, id string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return findIn(r.state.projects, id)
}

func (r *memTenantRepo) ListClients(_ context.Context, studioID string) ([]domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filterSorted(r.state.clients, func(c domain.Client) bool { return c.StudioID == studioID }), nil
}

func (r *memTenantRepo) ListProjects(_ context.Context, clientID string) ([]domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filterSorted(r.state.projects, func(p domain.Project) bool { return p.ClientID == clientID }), nil
}

func (r *memTenantRepo) ListSections(_ context.Context, projectID string) ([]domain.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filterSorted(r.state.sections, func(s domain.Section) bool { return s.ProjectID == projectID }), nil
}

// memTx runs with memTenantRepo.mu already held by WithinTx.
type memTx struct {
	r *memTenantRepo
}

func (t *memTx) FindStudio(_ context.Context, id string) (*domain.Studio, error) {
	if err := t.r.fault("FindStudio"); err != nil {
		return nil, err
	}
	return findIn(t.r.state.studios, id)
}

func (t *memTx) FindClient(_ context.Context, id string) (*domain.Client, error) {
	if err := t.r.fault("FindClient"); err != nil {
		return nil, err
	}
	return findIn(t.r.state.clients, id)
}

func (t *memTx) FindProject(_ context.Context, id string) (*domain.Project, error) {
	if err := t.r.fault("FindProject"); err != nil {
		return nil, err
	}
	return findIn(t.r.state.projects, id)
}

func (t *memTx) ClientsByStudio(_ context.Context, studioID string) ([]domain.Client, error) {
	if err := t.r.fault("ClientsByStudio"); err != nil {
		return nil, err
	}
	return filterSorted(t.r.state.clients, func(c domain.Client) bool { return c.StudioID == studioID }), nil
}

func (t *memTx) ProjectsByClients(_ context.Context, ids []string) ([]domain.Project, error) {
	if err := t.r.fault("ProjectsByClients"); err != nil {
		return nil, err
	}
	set := toSet(ids)
	return filterSorted(t.r.state.projects, func(p domain.Project) bool { return set[p.ClientID] }), nil
}

func (t *memTx) SectionsByProjects(_ context.Context, ids []string) ([]domain.Section, error) {
	if err := t.r.fault("SectionsByProjects"); err != nil {
		return nil, err
	}
	set := toSet(ids)
	return filterSorted(t.r.state.sections, func(s domain.Section) bool { return set[s.ProjectID] }), nil
}

func (t *memTx) DeleteSections(_ context.Context, ids []string) (int64, error) {
	if err := t.r.fault("DeleteSections"); err != nil {
		return 0, err
	}
	return t.r.short("DeleteSections", deleteFrom(t.r.state.sections, ids)), nil
}

func (t *memTx) DeleteProjects(_ context.Context, ids []string) (int64, error) {
	if err := t.r.fault("DeleteProjects"); err != nil {
		return 0, err
	}
	return t.r.short("DeleteProjects", deleteFrom(t.r.state.projects, ids)), nil
}

func (t *memTx) DeleteClients(_ context.Context, ids []string) (int64, error) {
	if err := t.r.fault("DeleteClients"); err != nil {
		return 0, err
	}
	return t.r.short("DeleteClients", deleteFrom(t.r.state.clients, ids)), nil
}

func (t *memTx) DeleteStudio(_ context.Context, id string) (int64, error) {
	if err := t.r.fault("DeleteStudio"); err != nil {
		return 0, err
	}
	return t.r.short("DeleteStudio", deleteFrom(t.r.state.studios, []string{id})), nil
}

func (t *memTx) TouchStudio(_ context.Context, id string) error {
	if err := t.r.fault("TouchStudio"); err != nil {
		return err
	}
	return touchIn(t.r.state.studios, id, func(s *domain.Studio) { s.UpdatedAt = time.Now().UTC() })
}

func (t *memTx) TouchClient(_ context.Context, id string) error {
	if err := t.r.fault("TouchClient"); err != nil {
		return err
	}
	return touchIn(t.r.state.clients, id, func(c *domain.Client) { c.UpdatedAt = time.Now().UTC() })
}

func (t *memTx) TouchProject(_ context.Context, id string) error {
	if err := t.r.fault("TouchProject"); err != nil {
		return err
	}
	return touchIn(t.r.state.projects, id, func(p *domain.Project) { p.UpdatedAt = time.Now().UTC() })
}

func (t *memTx) UpdateStudioProfile(_ context.Context, id, name string, logo *domain.MediaRef) error {
	if err := t.r.fault("UpdateStudioProfile"); err != nil {
		return err
	}
	return touchIn(t.r.state.studios, id, func(s *domain.Studio) { s.Name, s.Logo = name, logo })
}

func (t *memTx) InsertClient(_ context.Context, c *domain.Client) error {
	if err := t.r.fault("InsertClient"); err != nil {
		return err
	}
	return insertIn(t.r.state.clients, c.ID, *c)
}

func (t *memTx) InsertProject(_ context.Context, p *domain.Project) error {
	if err := t.r.fault("InsertProject"); err != nil {
		return err
	}
	return insertIn(t.r.state.projects, p.ID, *p)
}

func (t *memTx) InsertSection(_ context.Context, s *domain.Section) error {
	if err := t.r.fault("InsertSection"); err != nil {
		return err
	}
	return insertIn(t.r.state.sections, s.ID, *s)
}

func touchIn[V any](m map[string]V, id string, update func(*V)) error {
	v, ok := m[id]
	if !ok {
		return domain.ErrNotFound
	}
	update(&v)
	m[id] = v
	return nil
}

func insertIn[V any](m map[string]V, id string, v V) error {
	if _, ok := m[id]; ok {
		return domain.ErrAlreadyExists
	}
	m[id] = v
	return nil
}

func findIn[V any](m map[string]V, id string) (*V, error) {
	v, ok := m[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func filterSorted[V any](m map[string]V, keep func(V) bool) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []V
	for _, k := range keys {
		if keep(m[k]) {
			out = append(out, m[k])
		}
	}
	return out
}

func deleteFrom[V any](m map[string]V, ids []string) int64 {
	var n int64
	for _, id := range ids {
		if _, ok := m[id]; ok {
			delete(m, id)
			n++
		}
	}
	return n
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// ── Object storage ───────────────────────────────────────────────────────────

const testMediaBase = "https://media.test/media/"

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	// errs queues errors returned by successive Delete calls per URL.
	errs    map[string][]error
	deletes map[string]int
}

func newFakeStorage(urls ...string) *fakeStorage {
	s := &fakeStorage{
		objects: map[string][]byte{},
		types:   map[string]string{},
		errs:    map[string][]error{},
		deletes: map[string]int{},
	}
	for _, u := range urls {
		s.objects[u] = []byte("x")
	}
	return s
}

func (s *fakeStorage) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, testMediaBase)
	return key, ok && key != ""
}

func (s *fakeStorage) failNext(url string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[url] = append(s.errs[url], errs...)
}

func (s *fakeStorage) exists(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[url]
	return ok
}

func (s *fakeStorage) deleteCalls(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes[url]
}

func (s *fakeStorage) Put(_ context.Context, key, contentType string, r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	url := testMediaBase + key
	if _, ok := s.objects[url]; ok {
		return "", domain.ErrAlreadyExists
	}
	s.objects[url] = body
	s.types[url] = contentType
	return url, nil
}

func (s *fakeStorage) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes[url]++
	if q := s.errs[url]; len(q) > 0 {
		s.errs[url] = q[1:]
		return q[0]
	}
	if !strings.HasPrefix(url, testMediaBase) {
		return domain.ErrForeignObject
	}
	if _, ok := s.objects[url]; !ok {
		return domain.ErrObjectNotFound
	}
	delete(s.objects, url)
	return nil
}

// SignedUploadURL encodes "<key>|<content type>" as the token.
func (s *fakeStorage) SignedUploadURL(_ context.Context, key, contentType string, ttl time.Duration) (*ports.SignedUpload, error) {
	return &ports.SignedUpload{
		UploadURL: "https://media.test/uploads/" + key + "?token=" + key + "|" + contentType,
		ObjectURL: testMediaBase + key,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (s *fakeStorage) VerifyUpload(token string) (string, string, error) {
	key, ct, ok := strings.Cut(token, "|")
	if !ok {
		return "", "", domain.ErrForbidden
	}
	return key, ct, nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (*ports.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := testMediaBase + key
	body, ok := s.objects[url]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return &ports.Object{
		Key:         key,
		ContentType: s.types[url],
		Size:        int64(len(body)),
		Body:        io.NopCloser(bytes.NewReader(body)),
	}, nil
}

// ── Failure sink and dispatcher ─────────────────────────────────────────────

type recordingSink struct {
	mu       sync.Mutex
	failures []domain.CleanupFailure
	dead     []domain.CleanupFailure
	err      error
}

func (s *recordingSink) Report(ctx context.Context, f domain.CleanupFailure) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.failures = append(s.failures, f)
	return nil
}

func (s *recordingSink) Drain(_ context.Context, limit int) ([]domain.CleanupFailure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.failures) {
		limit = len(s.failures)
	}
	out := append([]domain.CleanupFailure(nil), s.failures[:limit]...)
	s.failures = s.failures[limit:]
	return out, nil
}

func (s *recordingSink) DeadLetter(_ context.Context, f domain.CleanupFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.dead = append(s.dead, f)
	return nil
}

func (s *recordingSink) deadLettered() []domain.CleanupFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CleanupFailure(nil), s.dead...)
}

func (s *recordingSink) reported() []domain.CleanupFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CleanupFailure(nil), s.failures...)
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []domain.DeletionJob
}

func (d *recordingDispatcher) Dispatch(job domain.DeletionJob) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
}

func (d *recordingDispatcher) dispatched() []domain.DeletionJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.DeletionJob(nil), d.jobs...)
}
