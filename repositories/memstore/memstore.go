// Package memstore is an in-process implementation of repositories.Store.
// It backs DB_DRIVER=memory for local runs and the service and GraphQL
// tests. It honours the same contracts as the postgres store: the unique
// (article_id, version_number) index, row locks taken by
// GetByIDForUpdate, cascading deletes and all-or-nothing transactions.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"knowledge-base/models"
	"knowledge-base/repositories"
)

type versionKey struct {
	articleID uuid.UUID
	number    int
}

type data struct {
	mu  sync.Mutex
	seq int64

	users       map[uuid.UUID]models.User
	articles    map[uuid.UUID]models.Article
	versions    map[uuid.UUID]models.ArticleVersion
	versionKeys map[versionKey]uuid.UUID
	comments    map[uuid.UUID]models.Comment
	// order records insertion sequence so equal timestamps sort stably.
	order map[uuid.UUID]int64

	rowLocks map[uuid.UUID]*sync.Mutex
}

type txState struct {
	undo  []func()
	locks []*sync.Mutex
	held  map[uuid.UUID]bool
}

// Store is safe for concurrent use.
type Store struct {
	d  *data
	tx *txState
	// now is overridable so tests can pin timestamps.
	now func() time.Time
}

func New() *Store {
	return &Store{
		d: &data{
			users:       map[uuid.UUID]models.User{},
			articles:    map[uuid.UUID]models.Article{},
			versions:    map[uuid.UUID]models.ArticleVersion{},
			versionKeys: map[versionKey]uuid.UUID{},
			comments:    map[uuid.UUID]models.Comment{},
			order:       map[uuid.UUID]int64{},
			rowLocks:    map[uuid.UUID]*sync.Mutex{},
		},
		now: time.Now,
	}
}

func (s *Store) Users() repositories.UserRepository { return &userRepo{s} }

func (s *Store) Articles() repositories.ArticleRepository { return &articleRepo{s} }

func (s *Store) Versions() repositories.ArticleVersionRepository { return &versionRepo{s} }

func (s *Store) Comments() repositories.CommentRepository { return &commentRepo{s} }

func (s *Store) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return models.NewTransientError("begin transaction", err)
	}

	tx := &Store{d: s.d, tx: &txState{held: map[uuid.UUID]bool{}}, now: s.now}
	defer func() {
		for i := len(tx.tx.locks) - 1; i >= 0; i-- {
			tx.tx.locks[i].Unlock()
		}
	}()

	err := fn(tx)
	if err != nil {
		s.d.mu.Lock()
		for i := len(tx.tx.undo) - 1; i >= 0; i-- {
			tx.tx.undo[i]()
		}
		s.d.mu.Unlock()
	}
	return err
}

// begin checks the context and takes the data lock. Callers must call the
// returned func to release it.
func (s *Store) begin(ctx context.Context, op string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewTransientError(op+": request timed out", err)
	}
	s.d.mu.Lock()
	return s.d.mu.Unlock, nil
}

// lockRow blocks until the article row is free, as a row-level lock in
// postgres would. Inside a transaction the lock is kept until commit or
// rollback and the returned func is a no-op. Outside one, the caller
// releases it with the returned func.
func (s *Store) lockRow(id uuid.UUID) func() {
	if s.tx != nil && s.tx.held[id] {
		return func() {}
	}

	s.d.mu.Lock()
	lock, ok := s.d.rowLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.d.rowLocks[id] = lock
	}
	s.d.mu.Unlock()

	lock.Lock()
	if s.tx != nil {
		s.tx.held[id] = true
		s.tx.locks = append(s.tx.locks, lock)
		return func() {}
	}
	return lock.Unlock
}

// record registers an undo step. Must be called with the data lock held.
func (s *Store) record(undo func()) {
	if s.tx != nil {
		s.tx.undo = append(s.tx.undo, undo)
	}
}

func (s *Store) nextSeq(id uuid.UUID) {
	s.d.seq++
	s.d.order[id] = s.d.seq
}

func (s *Store) withAuthor(authorID uuid.UUID) *models.User {
	if u, ok := s.d.users[authorID]; ok {
		return &u
	}
	return nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	unlock, err := r.s.begin(ctx, "create user")
	if err != nil {
		return err
	}
	defer unlock()

	for _, u := range r.s.d.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleViewer
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.d.users[user.ID] = *user
	id := user.ID
	r.s.record(func() { delete(r.s.d.users, id) })
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	unlock, err := r.s.begin(ctx, "get user")
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, ok := r.s.d.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	unlock, err := r.s.begin(ctx, "get user by email")
	if err != nil {
		return nil, err
	}
	defer unlock()

	for _, u := range r.s.d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepo) UpdateRole(ctx context.Context, id uuid.UUID, role models.UserRole) error {
	unlock, err := r.s.begin(ctx, "update user role")
	if err != nil {
		return err
	}
	defer unlock()

	u, ok := r.s.d.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	prev := u
	u.Role = role
	u.UpdatedAt = r.s.now()
	r.s.d.users[id] = u
	r.s.record(func() { r.s.d.users[id] = prev })
	return nil
}

type articleRepo struct{ s *Store }

func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	unlock, err := r.s.begin(ctx, "create article")
	if err != nil {
		return err
	}
	defer unlock()

	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	if _, ok := r.s.d.articles[article.ID]; ok {
		return repositories.ErrDuplicateKey
	}
	now := r.s.now()
	article.CreatedAt, article.UpdatedAt = now, now

	row := *article
	row.Author, row.Versions, row.Comments = nil, nil, nil
	r.s.d.articles[row.ID] = row
	r.s.nextSeq(row.ID)
	id := row.ID
	r.s.record(func() {
		delete(r.s.d.articles, id)
		delete(r.s.d.order, id)
	})
	return nil
}

func (r *articleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	unlock, err := r.s.begin(ctx, "get article")
	if err != nil {
		return nil, err
	}
	defer unlock()

	a, ok := r.s.d.articles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	a.Author = r.s.withAuthor(a.AuthorID)
	return &a, nil
}

func (r *articleRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	if r.s.tx != nil {
		r.s.lockRow(id)
	}

	unlock, err := r.s.begin(ctx, "lock article")
	if err != nil {
		return nil, err
	}
	defer unlock()

	a, ok := r.s.d.articles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (r *articleRepo) List(ctx context.Context, params models.ArticleListParams) ([]models.Article, error) {
	unlock, err := r.s.begin(ctx, "list articles")
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := []models.Article{}
	for _, a := range r.s.d.articles {
		if params.Status != nil && a.Status != *params.Status {
			continue
		}
		a.Author = r.s.withAuthor(a.AuthorID)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.s.d.order[out[i].ID] > r.s.d.order[out[j].ID]
	})
	return out, nil
}

func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	defer r.s.lockRow(article.ID)()

	unlock, err := r.s.begin(ctx, "update article")
	if err != nil {
		return err
	}
	defer unlock()

	prev, ok := r.s.d.articles[article.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	article.UpdatedAt = r.s.now()
	row := prev
	row.Title, row.Content, row.Status, row.UpdatedAt = article.Title, article.Content, article.Status, article.UpdatedAt
	r.s.d.articles[row.ID] = row
	r.s.record(func() { r.s.d.articles[prev.ID] = prev })
	return nil
}

func (r *articleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lockRow(id)()

	unlock, err := r.s.begin(ctx, "delete article")
	if err != nil {
		return err
	}
	defer unlock()

	a, ok := r.s.d.articles[id]
	if !ok {
		return repositories.ErrNotFound
	}
	seq := r.s.d.order[id]
	delete(r.s.d.articles, id)
	delete(r.s.d.order, id)
	r.s.record(func() {
		r.s.d.articles[id] = a
		r.s.d.order[id] = seq
	})

	// ON DELETE CASCADE for versions and comments.
	for vid, v := range r.s.d.versions {
		if v.ArticleID != id {
			continue
		}
		v, vid := v, vid
		delete(r.s.d.versions, vid)
		delete(r.s.d.versionKeys, versionKey{id, v.VersionNumber})
		r.s.record(func() {
			r.s.d.versions[vid] = v
			r.s.d.versionKeys[versionKey{id, v.VersionNumber}] = vid
		})
	}
	for cid, c := range r.s.d.comments {
		if c.ArticleID == id {
			r.s.deleteComment(cid, c)
		}
	}
	return nil
}

type versionRepo struct{ s *Store }

func (r *versionRepo) Create(ctx context.Context, version *models.ArticleVersion) error {
	unlock, err := r.s.begin(ctx, "create article version")
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := r.s.d.articles[version.ArticleID]; !ok {
		return models.NewTransientError("create article version: foreign key violation", repositories.ErrNotFound)
	}
	key := versionKey{version.ArticleID, version.VersionNumber}
	if _, taken := r.s.d.versionKeys[key]; taken {
		return repositories.ErrDuplicateKey
	}
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}
	version.CreatedAt = r.s.now()

	r.s.d.versions[version.ID] = *version
	r.s.d.versionKeys[key] = version.ID
	id := version.ID
	r.s.record(func() {
		delete(r.s.d.versions, id)
		delete(r.s.d.versionKeys, key)
	})
	return nil
}

func (r *versionRepo) MaxVersionNumber(ctx context.Context, articleID uuid.UUID) (int, error) {
	unlock, err := r.s.begin(ctx, "max version number")
	if err != nil {
		return 0, err
	}
	defer unlock()

	latest := 0
	for _, v := range r.s.d.versions {
		if v.ArticleID == articleID && v.VersionNumber > latest {
			latest = v.VersionNumber
		}
	}
	return latest, nil
}

func (r *versionRepo) ListByArticle(ctx context.Context, articleID uuid.UUID) ([]models.ArticleVersion, error) {
	unlock, err := r.s.begin(ctx, "list article versions")
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := []models.ArticleVersion{}
	for _, v := range r.s.d.versions {
		if v.ArticleID == articleID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (r *versionRepo) GetByNumber(ctx context.Context, articleID uuid.UUID, number int) (*models.ArticleVersion, error) {
	unlock, err := r.s.begin(ctx, "get article version")
	if err != nil {
		return nil, err
	}
	defer unlock()

	id, ok := r.s.d.versionKeys[versionKey{articleID, number}]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	v := r.s.d.versions[id]
	return &v, nil
}

type commentRepo struct{ s *Store }

func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	unlock, err := r.s.begin(ctx, "create comment")
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := r.s.d.articles[comment.ArticleID]; !ok {
		return models.NewTransientError("create comment: foreign key violation", repositories.ErrNotFound)
	}
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	now := r.s.now()
	comment.CreatedAt, comment.UpdatedAt = now, now

	row := *comment
	row.Author, row.Parent, row.Replies, row.RepliesLoaded = nil, nil, nil, false
	r.s.d.comments[row.ID] = row
	r.s.nextSeq(row.ID)
	id := row.ID
	r.s.record(func() {
		delete(r.s.d.comments, id)
		delete(r.s.d.order, id)
	})
	return nil
}

func (r *commentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	unlock, err := r.s.begin(ctx, "get comment")
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, ok := r.s.d.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c.Author = r.s.withAuthor(c.AuthorID)
	return &c, nil
}

func (r *commentRepo) ListByArticle(ctx context.Context, articleID uuid.UUID) ([]models.Comment, error) {
	return r.list(ctx, "list comments", func(c models.Comment) bool { return c.ArticleID == articleID })
}

func (r *commentRepo) ListReplies(ctx context.Context, parentID uuid.UUID) ([]models.Comment, error) {
	return r.list(ctx, "list replies", func(c models.Comment) bool { return c.ParentID != nil && *c.ParentID == parentID })
}

func (r *commentRepo) list(ctx context.Context, op string, match func(models.Comment) bool) ([]models.Comment, error) {
	unlock, err := r.s.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := []models.Comment{}
	for _, c := range r.s.d.comments {
		if match(c) {
			c.Author = r.s.withAuthor(c.AuthorID)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return r.s.d.order[out[i].ID] < r.s.d.order[out[j].ID]
	})
	return out, nil
}

func (r *commentRepo) UpdateContent(ctx context.Context, comment *models.Comment) error {
	unlock, err := r.s.begin(ctx, "update comment")
	if err != nil {
		return err
	}
	defer unlock()

	prev, ok := r.s.d.comments[comment.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	comment.UpdatedAt = r.s.now()
	row := prev
	row.Content, row.UpdatedAt = comment.Content, comment.UpdatedAt
	r.s.d.comments[row.ID] = row
	r.s.record(func() { r.s.d.comments[prev.ID] = prev })
	return nil
}

func (r *commentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	unlock, err := r.s.begin(ctx, "delete comment")
	if err != nil {
		return err
	}
	defer unlock()

	c, ok := r.s.d.comments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	r.s.deleteComment(id, c)
	return nil
}

// deleteComment removes c and its reply subtree. Must be called with the
// data lock held.
func (s *Store) deleteComment(id uuid.UUID, c models.Comment) {
	if _, ok := s.d.comments[id]; !ok {
		return
	}
	seq := s.d.order[id]
	delete(s.d.comments, id)
	delete(s.d.order, id)
	s.record(func() {
		s.d.comments[id] = c
		s.d.order[id] = seq
	})

	for cid, child := range s.d.comments {
		if child.ParentID != nil && *child.ParentID == id {
			s.deleteComment(cid, child)
		}
	}
}
